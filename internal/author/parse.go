package author

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const (
	// Separator delimits authors in a list.
	Separator = "&"

	// NameSeparator splits the surname from the given names.
	NameSeparator = ","
)

// ErrUnparsedSegments is returned in strict mode when an author list
// contains segments that could not be parsed.
var ErrUnparsedSegments = errors.New("unparsed author segments")

// Mode selects what happens to segments that do not parse.
type Mode string

const (
	// Lenient drops malformed segments.
	Lenient Mode = "lenient"
	// Strict reports malformed segments as an error.
	Strict Mode = "strict"
)

// ValidModes lists the accepted Mode values.
var ValidModes = []Mode{Lenient, Strict}

// ParseMode converts a config value into a Mode. Empty means Lenient.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Lenient:
		return Lenient, nil
	case Strict:
		return Strict, nil
	}
	return "", fmt.Errorf("invalid author mode: %s (valid: %v)", s, ValidModes)
}

// Result holds the records parsed from a list together with the segments
// that were dropped.
type Result struct {
	Records  []Record `json:"records"`
	Unparsed []string `json:"unparsed,omitempty"`
}

// Err returns ErrUnparsedSegments if any segment was dropped.
func (r Result) Err() error {
	if len(r.Unparsed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnparsedSegments, r.Unparsed)
}

// Parse splits an author list of the form
//
//	"Surname, Forename Initials & Surname, Forename Initials"
//
// into records, in input order. A segment must contain exactly one comma;
// any other segment is dropped without error. Use ParseDetailed to see what
// was dropped.
func Parse(input string) []Record {
	return ParseDetailed(input).Records
}

// ParseDetailed is Parse, but also returns the trimmed segments that were
// dropped. Blank segments (as produced by "&&") carry no author and are
// never reported.
func ParseDetailed(input string) Result {
	var res Result
	for _, segment := range strings.Split(input, Separator) {
		segment = strings.TrimFunc(segment, isSpace)
		rec, ok := parseSegment(segment)
		if ok {
			res.Records = append(res.Records, rec)
			continue
		}
		if segment != "" {
			res.Unparsed = append(res.Unparsed, segment)
		}
	}
	return res
}

// ParseWithMode parses input and, in Strict mode, returns an error when
// anything was dropped. The records are returned in both modes.
func ParseWithMode(input string, mode Mode) (Result, error) {
	res := ParseDetailed(input)
	if mode == Strict {
		return res, res.Err()
	}
	return res, nil
}

func parseSegment(segment string) (Record, bool) {
	parts := strings.Split(segment, NameSeparator)
	if len(parts) != 2 {
		return Record{}, false
	}

	rest := strings.FieldsFunc(parts[1], isSpace)
	rec := Record{Surname: strings.TrimFunc(parts[0], isSpace)}
	if len(rest) > 0 {
		rec.Forename = rest[0]
	}
	if len(rest) > 1 {
		rec.Initials = strings.Join(rest[1:], " ")
	}
	return rec, true
}

// isSpace is unicode.IsSpace plus the ASCII file, group, record and unit
// separators (U+001C to U+001F), which some exports use between names.
func isSpace(r rune) bool {
	return unicode.IsSpace(r) || (r >= '\x1c' && r <= '\x1f')
}
