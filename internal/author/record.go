// Package author parses the free-text author lists found in OASIS
// bibliography entries.
package author

import "strings"

// Record is one parsed author.
type Record struct {
	Surname  string `json:"surname"`
	Forename string `json:"forename"`
	Initials string `json:"initials"`
}

// Key identifies a person row. Two records with the same key are the same
// person as far as the PERSON table is concerned.
type Key struct {
	Surname, Forename, Initials string
}

// Key returns the lookup key for r.
func (r Record) Key() Key {
	return Key{Surname: r.Surname, Forename: r.Forename, Initials: r.Initials}
}

// String formats r as "Surname, Forename Initials".
func (r Record) String() string {
	given := strings.TrimSpace(r.Forename + " " + r.Initials)
	if given == "" {
		return r.Surname + ","
	}
	return r.Surname + ", " + given
}
