package ingest

import (
	"fmt"
	"strings"

	"github.com/adsarch/greylit/internal/author"
	"github.com/adsarch/greylit/internal/geo"
	"github.com/adsarch/greylit/internal/oasis"
	"github.com/adsarch/greylit/internal/store"
)

// Country is recorded against every issue.
const Country = "Wales"

type location struct {
	kind        string
	description string
}

type issuePlan struct {
	title     string
	year      int
	authors   []author.Record
	unparsed  []string
	siteCodes []string
	url       string
	locations []location
	coords    []store.CoordinateSpec
}

type projectPlan struct {
	reference string
	abstract  string
	issues    []issuePlan
	warnings  []string
}

func (pp *projectPlan) warnf(format string, args ...any) {
	pp.warnings = append(pp.warnings, fmt.Sprintf("project %s: ", pp.reference)+fmt.Sprintf(format, args...))
}

// planProject works out every row a project produces. It does no I/O.
func planProject(p oasis.Project, mode author.Mode) (*projectPlan, error) {
	pp := &projectPlan{
		reference: p.Reference.String(),
		abstract:  p.Details.DescOutcome,
	}

	var siteCodes []string
	for _, s := range p.Sites {
		if code := strings.TrimSpace(s.Code.String()); code != "" {
			siteCodes = append(siteCodes, code)
		}
	}

	admin := []location{
		{store.LocationCountry, Country},
		{store.LocationParish, strings.TrimSpace(p.AdminAreas.Community)},
		{store.LocationDistrict, strings.TrimSpace(p.AdminAreas.UnitaryAuthority)},
		{store.LocationCounty, strings.TrimSpace(p.AdminAreas.OldCounty)},
	}
	var locations []location
	for _, l := range admin {
		if l.description != "" {
			locations = append(locations, l)
		}
	}

	switch {
	case len(p.Sites) == 1, len(p.Sites) > 1 && len(p.Biblios) == 1:
		for _, s := range p.Sites {
			if name := strings.TrimSpace(s.Name); name != "" {
				locations = append(locations, location{store.LocationSite, name})
			}
		}
	case len(p.Sites) > 1:
		pp.warnf("%d sites and %d bibliography entries; sites not associated with issues", len(p.Sites), len(p.Biblios))
	}

	var coords []store.CoordinateSpec
	if len(p.Sites) == 1 || len(p.Biblios) == 1 {
		for _, s := range p.Sites {
			if c, ok := pp.siteCoordinate(s); ok {
				coords = append(coords, c)
			}
		}
	}

	for i, b := range p.Biblios {
		res, err := author.ParseWithMode(b.Authors.Name, mode)
		if err != nil {
			return nil, fmt.Errorf("bibliography entry %d: %w", i+1, err)
		}
		if len(res.Unparsed) > 0 {
			pp.warnf("dropped unparsable author segments %q", res.Unparsed)
		}
		year, ok := b.Year()
		if !ok && strings.TrimSpace(b.PubDate.String()) != "" {
			pp.warnf("unrecognised publication date %q", b.PubDate.String())
		}
		pp.issues = append(pp.issues, issuePlan{
			title:     strings.TrimSpace(b.Title),
			year:      year,
			authors:   res.Records,
			unparsed:  res.Unparsed,
			siteCodes: siteCodes,
			url:       strings.TrimSpace(b.URL),
			locations: locations,
			coords:    coords,
		})
	}
	return pp, nil
}

func (pp *projectPlan) siteCoordinate(s oasis.Site) (store.CoordinateSpec, bool) {
	if strings.TrimSpace(s.Coords.NGR) == "" && strings.TrimSpace(s.Coords.LatLong) == "" {
		return store.CoordinateSpec{}, false
	}
	ngr, err := geo.ParsePoint(s.Coords.NGR)
	if err != nil {
		pp.warnf("site %s: easting/northing: %v", s.Code, err)
		return store.CoordinateSpec{}, false
	}
	ll, err := geo.ParsePoint(s.Coords.LatLong)
	if err != nil {
		pp.warnf("site %s: lat/long: %v", s.Code, err)
		return store.CoordinateSpec{}, false
	}
	lon, lat, swapped := geo.LonLat(ll)
	if swapped {
		pp.warnf("site %s: lat/long axes swapped to (%g, %g)", s.Code, lon, lat)
	} else if !geo.InWales(ll) {
		pp.warnf("site %s: point (%g, %g) is outside Wales", s.Code, lon, lat)
	}
	vector := strings.ToUpper(strings.TrimSpace(s.Coords.VectorType))
	if vector == "" {
		vector = store.CoordinatePoint
	}
	return store.CoordinateSpec{
		VectorType: vector,
		Easting:    ngr.X,
		Northing:   ngr.Y,
		Lat:        lat,
		Long:       lon,
	}, true
}
