// Package geo parses the point strings carried by OASIS site records and
// checks them against a coarse outline of Wales.
package geo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ErrInvalidPoint is returned for strings that are not a two-value point.
var ErrInvalidPoint = errors.New("invalid point")

// Point is an (X, Y) pair as it appears in the feed. For grid references X
// is the easting and Y the northing; for lat/long strings X is nominally the
// longitude.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ParsePoint reads "POINT(x, y)", "POINT(x y)" or a bare "x, y".
func ParsePoint(s string) (Point, error) {
	body := strings.TrimSpace(s)
	if len(body) >= 5 && strings.EqualFold(body[:5], "POINT") {
		body = strings.TrimSpace(body[5:])
	}
	body = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(body, "("), ")"))

	fields := strings.FieldsFunc(body, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(fields) != 2 {
		return Point{}, fmt.Errorf("%w: %q", ErrInvalidPoint, s)
	}

	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q: %v", ErrInvalidPoint, s, err)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q: %v", ErrInvalidPoint, s, err)
	}
	return Point{X: x, Y: y}, nil
}

// Wales is a coarse lon/lat outline of Wales. It is good enough to tell
// whether a point is in the right part of the world and whether its axes
// were swapped, not for boundary decisions.
var Wales = orb.Polygon{orb.Ring{
	{-5.40, 51.60}, {-4.90, 51.55}, {-4.10, 51.50}, {-3.20, 51.35},
	{-2.65, 51.50}, {-2.65, 51.85}, {-3.00, 52.05}, {-2.95, 52.35},
	{-3.00, 52.55}, {-2.95, 52.85}, {-2.70, 52.95}, {-2.90, 53.20},
	{-3.35, 53.38}, {-4.10, 53.45}, {-4.65, 53.45}, {-4.80, 53.25},
	{-4.80, 52.75}, {-4.20, 52.60}, {-4.30, 52.25}, {-4.70, 52.10},
	{-5.40, 51.95}, {-5.40, 51.60},
}}

// InWales reports whether p, read as (lon, lat), lies inside Wales.
func InWales(p Point) bool {
	return planar.PolygonContains(Wales, orb.Point{p.X, p.Y})
}

// LonLat returns the longitude and latitude of a lat/long point. When the
// point is outside Wales as given but inside with its axes swapped, the
// swapped reading is returned and swapped is true.
func LonLat(p Point) (lon, lat float64, swapped bool) {
	if !InWales(p) && InWales(Point{X: p.Y, Y: p.X}) {
		return p.Y, p.X, true
	}
	return p.X, p.Y, false
}
