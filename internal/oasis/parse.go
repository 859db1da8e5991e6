package oasis

import (
	"fmt"
	"os"

	"github.com/segmentio/encoding/json"
)

// Parse decodes an OASIS feed document.
func Parse(data []byte) (*Feed, error) {
	var feed Feed
	if err := json.Unmarshal(data, &feed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return &feed, nil
}

// LoadFile reads and decodes a feed saved on disk.
func LoadFile(path string) (*Feed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading feed file: %w", err)
	}
	feed, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return feed, nil
}

// Check splits the feed into usable projects and per-project errors.
// A project needs a reference to be matched against the database.
func (f *Feed) Check() ([]Project, []error) {
	var projects []Project
	var errs []error

	seen := make(map[string]bool)
	for i, p := range f.Projects {
		ref := p.Reference.String()
		switch {
		case ref == "":
			errs = append(errs, fmt.Errorf("project %d: missing required field 'projReference'", i+1))
			continue
		case seen[ref]:
			errs = append(errs, fmt.Errorf("project %d (%s): duplicate projReference", i+1, ref))
			continue
		}
		seen[ref] = true
		projects = append(projects, p)
	}

	return projects, errs
}
