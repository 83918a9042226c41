// Package geo converts wire volume descriptions into indexed 4-dimensional
// volumes: a set of equal-level S2 cells covering the horizontal footprint,
// plus optional time and altitude bounds.
package geo

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import (
	"math"
	"sort"
	"time"

	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"

	"github.com/interuss/datanode/internal/api"
)

const (
	earthCircumferenceMeters = 40.075e6
	radiansPerMeter          = 2 * math.Pi / earthCircumferenceMeters

	// DefaultS2Level is the default cell level for horizontal indexing.
	// Uniform levels keep candidate lookup an exact set operation.
	DefaultS2Level = 13

	// maxCoveringCells bounds the covering size per outline before the
	// coverer subdivides down to the configured level.
	maxCoveringCells = 8
)

// Config fixes the S2 cell levels used for horizontal indexing. It is
// initialized once at startup and read-only thereafter.
type Config struct {
	MinS2Level int
	MaxS2Level int
}

// DefaultConfig indexes at DefaultS2Level exactly.
func DefaultConfig() Config {
	return Config{MinS2Level: DefaultS2Level, MaxS2Level: DefaultS2Level}
}

// Volume4 is a 4-dimensional region. Nil time or altitude bounds are
// unbounded on that side. Cells is sorted and duplicate-free but never
// merged across levels, so membership tests stay exact between volumes
// indexed at the same level.
type Volume4 struct {
	TimeStart  *time.Time
	TimeEnd    *time.Time
	AltitudeLo *float64
	AltitudeHi *float64
	Cells      s2.CellUnion
}

// Contains reports whether other lies entirely inside v: other's time and
// altitude intervals inside v's, and other's cells a subset of v's. A nil
// bound on v contains anything on that side; a nil bound on other only
// fits inside an unbounded v.
func (v *Volume4) Contains(other *Volume4) bool {
	if v.TimeStart != nil && (other.TimeStart == nil || other.TimeStart.Before(*v.TimeStart)) {
		return false
	}
	if v.TimeEnd != nil && (other.TimeEnd == nil || other.TimeEnd.After(*v.TimeEnd)) {
		return false
	}
	if v.AltitudeLo != nil && (other.AltitudeLo == nil || *other.AltitudeLo < *v.AltitudeLo) {
		return false
	}
	if v.AltitudeHi != nil && (other.AltitudeHi == nil || *other.AltitudeHi > *v.AltitudeHi) {
		return false
	}
	return v.Cells.Contains(other.Cells)
}

// OverlapsTimeAltitude reports whether a and b intersect on both the time
// axis and the altitude axis, with closed interval endpoints. Missing
// endpoints are infinite. Horizontal intersection is the store's concern.
func OverlapsTimeAltitude(a, b *Volume4) bool {
	if a.TimeStart != nil && b.TimeEnd != nil && b.TimeEnd.Before(*a.TimeStart) {
		return false
	}
	if a.TimeEnd != nil && b.TimeStart != nil && b.TimeStart.After(*a.TimeEnd) {
		return false
	}
	if a.AltitudeLo != nil && b.AltitudeHi != nil && *b.AltitudeHi < *a.AltitudeLo {
		return false
	}
	if a.AltitudeHi != nil && b.AltitudeLo != nil && *b.AltitudeLo > *a.AltitudeHi {
		return false
	}
	return true
}

// CombineVolume4s returns the envelope of vol4s: earliest start, latest
// end, lowest floor, highest ceiling and the union of all cells. A nil
// bound is unbounded and wins on its widening side. Callers must pass at
// least one volume; nil is returned for empty input.
func CombineVolume4s(vol4s []*Volume4) *Volume4 {
	if len(vol4s) == 0 {
		return nil
	}

	combined := &Volume4{
		TimeStart:  vol4s[0].TimeStart,
		TimeEnd:    vol4s[0].TimeEnd,
		AltitudeLo: vol4s[0].AltitudeLo,
		AltitudeHi: vol4s[0].AltitudeHi,
	}
	cells := append(s2.CellUnion{}, vol4s[0].Cells...)

	for _, vol4 := range vol4s[1:] {
		combined.TimeStart = earlierBound(combined.TimeStart, vol4.TimeStart)
		combined.TimeEnd = laterBound(combined.TimeEnd, vol4.TimeEnd)
		combined.AltitudeLo = lowerBound(combined.AltitudeLo, vol4.AltitudeLo)
		combined.AltitudeHi = upperBound(combined.AltitudeHi, vol4.AltitudeHi)
		cells = append(cells, vol4.Cells...)
	}

	combined.Cells = dedupeCells(cells)
	return combined
}

func earlierBound(a, b *time.Time) *time.Time {
	if a == nil || b == nil {
		return nil
	}
	if b.Before(*a) {
		return b
	}
	return a
}

func laterBound(a, b *time.Time) *time.Time {
	if a == nil || b == nil {
		return nil
	}
	if b.After(*a) {
		return b
	}
	return a
}

func lowerBound(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	if *b < *a {
		return b
	}
	return a
}

func upperBound(a, b *float64) *float64 {
	if a == nil || b == nil {
		return nil
	}
	if *b > *a {
		return b
	}
	return a
}

// dedupeCells sorts and deduplicates without merging sibling cells into
// parents, preserving the uniform cell level the index depends on.
func dedupeCells(cells s2.CellUnion) s2.CellUnion {
	if len(cells) < 2 {
		return cells
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	deduped := cells[:1]
	for _, cell := range cells[1:] {
		if cell != deduped[len(deduped)-1] {
			deduped = append(deduped, cell)
		}
	}
	return deduped
}

// ExpandVolume4 parses a wire Volume4D into an indexed Volume4. The
// horizontal footprint must be exactly one of outline_circle or
// outline_polygon; a circle is covered as a spherical cap and a polygon by
// the lat/lng rectangle bounding its ring, a deliberate over-approximation
// that never produces false negatives on queries.
func ExpandVolume4(extents *api.Volume4D, cfg Config) (*Volume4, error) {
	if extents == nil || extents.Volume == nil {
		return nil, api.NewInvalidRequestError("Missing `volume` in Volume3")
	}
	volume := extents.Volume

	if (volume.OutlineCircle != nil) == (volume.OutlinePolygon != nil) {
		return nil, api.NewInvalidRequestError(
			"Expected exactly one of `outline_circle` or `outline_polygon` to be specified in Volume3")
	}

	coverer := &s2.RegionCoverer{
		MinLevel: cfg.MinS2Level,
		MaxLevel: cfg.MaxS2Level,
		MaxCells: maxCoveringCells,
	}

	var cells s2.CellUnion
	var err error
	if volume.OutlineCircle != nil {
		cells, err = expandCircle(volume.OutlineCircle, coverer)
	} else {
		cells, err = expandPolygon(volume.OutlinePolygon, coverer)
	}
	if err != nil {
		return nil, err
	}

	timeStart, err := expandTime(extents.TimeStart)
	if err != nil {
		return nil, err
	}
	timeEnd, err := expandTime(extents.TimeEnd)
	if err != nil {
		return nil, err
	}
	if timeStart != nil && timeEnd != nil && timeStart.After(*timeEnd) {
		return nil, api.NewInvalidRequestError("`time_start` must not be after `time_end`")
	}

	altitudeLo, err := expandAltitude(volume.AltitudeLower)
	if err != nil {
		return nil, err
	}
	altitudeHi, err := expandAltitude(volume.AltitudeUpper)
	if err != nil {
		return nil, err
	}
	if altitudeLo != nil && altitudeHi != nil && *altitudeLo > *altitudeHi {
		return nil, api.NewInvalidRequestError("`altitude_lower` must not exceed `altitude_upper`")
	}

	return &Volume4{
		TimeStart:  timeStart,
		TimeEnd:    timeEnd,
		AltitudeLo: altitudeLo,
		AltitudeHi: altitudeHi,
		Cells:      cells,
	}, nil
}

func expandCircle(circle *api.Circle, coverer *s2.RegionCoverer) (s2.CellUnion, error) {
	if circle.Type != "Feature" {
		return nil, api.NewInvalidRequestError("Expected `outline_circle` to have `type` Feature")
	}
	if circle.Geometry == nil {
		return nil, api.NewInvalidRequestError("Missing `geometry` in outline_circle")
	}
	if circle.Geometry.Type != "Point" {
		return nil, api.NewInvalidRequestError("Expected `geometry` of `outline_circle` to have `type` Point")
	}
	if len(circle.Geometry.Coordinates) != 2 {
		return nil, api.NewInvalidRequestError("Expected 2 elements in `outline_circle` `geometry` `coordinates`")
	}

	lng := circle.Geometry.Coordinates[0]
	lat := circle.Geometry.Coordinates[1]
	if lng < -180 || lng > 180 {
		return nil, api.NewInvalidRequestError("Circle center point longitude outside [-180, 180]")
	}
	if lat < -90 || lat > 90 {
		return nil, api.NewInvalidRequestError("Circle center point latitude outside [-90, 90]")
	}

	if circle.Properties == nil {
		return nil, api.NewInvalidRequestError("Missing `properties` in `outline_circle`")
	}
	radius := circle.Properties.Radius
	if radius == nil {
		return nil, api.NewInvalidRequestError("Missing `radius` in `properties` of `outline_circle`")
	}
	if radius.Units != "M" {
		return nil, api.NewInvalidRequestError("Expected `radius` `units` of `outline_circle` to be M")
	}
	if radius.Value == nil {
		return nil, api.NewInvalidRequestError("Missing `radius` `value` in `outline_circle` `properties`")
	}
	if *radius.Value < 0 {
		return nil, api.NewInvalidRequestError("`radius` of `outline_circle` must be non-negative")
	}

	center := s2.PointFromLatLng(s2.LatLngFromDegrees(lat, lng))
	circleCap := s2.CapFromCenterAngle(center, s1.Angle(*radius.Value*radiansPerMeter))
	return coverer.Covering(circleCap), nil
}

func expandPolygon(polygon *api.Polygon, coverer *s2.RegionCoverer) (s2.CellUnion, error) {
	if polygon.Type != "Polygon" {
		return nil, api.NewInvalidRequestError("Expected `outline_polygon` to have `type` Polygon")
	}
	if len(polygon.Coordinates) == 0 {
		return nil, api.NewInvalidRequestError("Missing `coordinates` in outline_polygon")
	}
	if len(polygon.Coordinates) != 1 {
		return nil, api.NewInvalidRequestError("Expected exactly one element in outline_polygon coordinates")
	}
	ring := polygon.Coordinates[0]
	if len(ring) < 4 {
		return nil, api.NewInvalidRequestError("Expected at least 4 elements in outline_polygon coordinates")
	}
	for _, coord := range ring {
		if len(coord) != 2 {
			return nil, api.NewInvalidRequestError("Expected 2 elements in each outline_polygon coordinate pair")
		}
		if coord[0] < -180 || coord[0] > 180 {
			return nil, api.NewInvalidRequestError("Polygon point longitude outside [-180, 180]")
		}
		if coord[1] < -90 || coord[1] > 90 {
			return nil, api.NewInvalidRequestError("Polygon point latitude outside [-90, 90]")
		}
	}
	first, last := ring[0], ring[len(ring)-1]
	if first[0] != last[0] || first[1] != last[1] {
		return nil, api.NewInvalidRequestError("Expected first set of coordinates in outline_polygon to match last set")
	}

	// Coordinates are [longitude, latitude] pairs.
	rect := s2.RectFromLatLng(s2.LatLngFromDegrees(ring[0][1], ring[0][0]))
	for _, coord := range ring[1:] {
		rect = rect.AddPoint(s2.LatLngFromDegrees(coord[1], coord[0]))
	}
	return coverer.Covering(rect), nil
}

func expandTime(wire *api.Time) (*time.Time, error) {
	if wire == nil {
		return nil, nil
	}
	if wire.Format != "RFC3339" {
		return nil, api.NewInvalidRequestError("Incorrect `format` in time; expected RFC3339")
	}
	if wire.Value == "" {
		return nil, api.NewInvalidRequestError("Missing `value` in time")
	}
	parsed, err := api.ParseTime(wire.Value)
	if err != nil {
		return nil, api.NewInvalidRequestError("%s", err.Error())
	}
	return &parsed, nil
}

func expandAltitude(wire *api.Altitude) (*float64, error) {
	if wire == nil {
		return nil, nil
	}
	if wire.Reference != "W84" {
		return nil, api.NewInvalidRequestError("Incorrect `reference` in altitude; expected W84")
	}
	if wire.Units != "M" {
		return nil, api.NewInvalidRequestError("Incorrect `units` in altitude; expected M")
	}
	return wire.Value, nil
}
