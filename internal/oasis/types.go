// Package oasis reads OASIS project feeds from a file or the OASIS API.
package oasis

import (
	"bytes"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/araddon/dateparse"
	"github.com/segmentio/encoding/json"
)

// FlexibleString can unmarshal from either string or number JSON values.
type FlexibleString string

func (f *FlexibleString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if string(data) == "null" {
		*f = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = FlexibleString(s)
		return nil
	}

	if _, err := strconv.ParseFloat(string(data), 64); err == nil {
		*f = FlexibleString(data)
		return nil
	}

	return fmt.Errorf("cannot unmarshal %s into FlexibleString", string(data))
}

func (f FlexibleString) String() string {
	return string(f)
}

// Feed is a decoded OASIS document.
type Feed struct {
	Projects ProjectList `json:"oasisProjDetails"`
}

// ProjectList decodes "oasisProjDetails" whether it holds one project
// object or an array of them. An empty object decodes to no projects.
type ProjectList []Project

func (l *ProjectList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		*l = nil
		return nil
	}

	switch data[0] {
	case '[':
		var projects []Project
		if err := json.Unmarshal(data, &projects); err != nil {
			return err
		}
		*l = projects
		return nil
	case '{':
		var probe map[string]interface{}
		if err := json.Unmarshal(data, &probe); err != nil {
			return err
		}
		if len(probe) == 0 {
			*l = nil
			return nil
		}
		var p Project
		if err := json.Unmarshal(data, &p); err != nil {
			return err
		}
		*l = ProjectList{p}
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into project list", truncate(string(data), 40))
}

// Project is one OASIS project record.
type Project struct {
	Reference  FlexibleString `json:"projReference"`
	Details    ProjectDetails `json:"oasisProjDetails"`
	Biblios    []Biblio       `json:"oasisProjBiblioList"`
	Sites      []Site         `json:"oasisProjSiteList"`
	AdminAreas AdminAreas     `json:"adminAreasMap"`
}

// ProjectDetails carries the project's descriptive text.
type ProjectDetails struct {
	DescOutcome string `json:"descOutcome"`
}

// Biblio is one bibliography entry (a report) of a project.
type Biblio struct {
	Title   string         `json:"title"`
	PubDate FlexibleString `json:"pubdate"`
	URL     string         `json:"url,omitempty"`
	Authors AuthorList     `json:"oasisProjBiblioAuthsList"`
}

// AuthorList holds the raw "Surname, Forename & ..." string.
type AuthorList struct {
	Name string `json:"name"`
}

// Site is one site of a project.
type Site struct {
	Code   FlexibleString `json:"sitecode"`
	Name   string         `json:"sitename"`
	Coords SiteCoords     `json:"oasisProjSiteCoordsList"`
}

// SiteCoords holds a site's geometry as point strings.
type SiteCoords struct {
	VectorType string `json:"vectorType"`
	NGR        string `json:"geomNgrOut"` // POINT(easting, northing)
	LatLong    string `json:"geomLlOut"`  // POINT(long, lat)
}

// AdminAreas maps administrative area kinds to names.
type AdminAreas struct {
	Community        string `json:"Community"`
	UnitaryAuthority string `json:"Unitary Authority"`
	OldCounty        string `json:"Old County"`
}

// Year bounds accepted by Biblio.Year.
const (
	MinYear = 1
	MaxYear = 9999
)

// Year returns the publication year of b, reading a bare year or any
// common date format. Numbers outside MinYear..MaxYear are rejected.
func (b Biblio) Year() (int, bool) {
	s := strings.TrimSpace(b.PubDate.String())
	if s == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f < MinYear || f > MaxYear || f != math.Trunc(f) {
			return 0, false
		}
		return int(f), true
	}
	t, err := dateparse.ParseAny(s)
	if err != nil {
		return 0, false
	}
	return t.Year(), true
}

// Authors returns the raw author string of bibliography entry i, or "" if
// there is no such entry.
func (p Project) Authors(i int) string {
	if i < 0 || i >= len(p.Biblios) {
		return ""
	}
	return p.Biblios[i].Authors.Name
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
