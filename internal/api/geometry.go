package api

// Copyright (c) The InterUSS Project.
// Licensed under the Apache License 2.0.

import "time"

// Volume4D is the wire representation of a 4-dimensional volume: a horizontal
// outline with optional altitude bounds, optionally bounded in time.
type Volume4D struct {
	Volume    *Volume3D `json:"volume"`
	TimeStart *Time     `json:"time_start,omitempty"`
	TimeEnd   *Time     `json:"time_end,omitempty"`
}

// Volume3D describes a horizontal footprint between two altitudes. Exactly
// one of OutlineCircle or OutlinePolygon must be present; that rule is
// enforced during expansion rather than by the static validator so the
// caller sees which outline field was at fault.
type Volume3D struct {
	OutlineCircle  *Circle   `json:"outline_circle,omitempty"`
	OutlinePolygon *Polygon  `json:"outline_polygon,omitempty"`
	AltitudeLower  *Altitude `json:"altitude_lower,omitempty"`
	AltitudeUpper  *Altitude `json:"altitude_upper,omitempty"`
}

// Circle is a GeoJSON Feature holding a Point geometry and a radius property.
type Circle struct {
	Type       string            `json:"type"`
	Geometry   *PointGeometry    `json:"geometry"`
	Properties *CircleProperties `json:"properties"`
}

// PointGeometry is a GeoJSON Point. Coordinates are [longitude, latitude].
type PointGeometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

type CircleProperties struct {
	Radius *Radius `json:"radius"`
}

// Radius is a distance in meters.
type Radius struct {
	Units string   `json:"units"`
	Value *float64 `json:"value"`
}

// Polygon is a GeoJSON Polygon restricted to a single closed ring of
// [longitude, latitude] pairs, first equal to last.
type Polygon struct {
	Type        string        `json:"type"`
	Coordinates [][][]float64 `json:"coordinates"`
}

// Time is a timestamp tagged with its format. The only accepted format is
// RFC3339.
type Time struct {
	Format string `json:"format"`
	Value  string `json:"value"`
}

// NewTime wraps t in the wire Time representation.
func NewTime(t time.Time) *Time {
	return &Time{Format: "RFC3339", Value: FormatTime(t)}
}

// Altitude is a WGS84 altitude in meters. A nil Value leaves the bound
// unset.
type Altitude struct {
	Reference string   `json:"reference"`
	Units     string   `json:"units"`
	Value     *float64 `json:"value,omitempty"`
}

// NewAltitude wraps meters in the wire Altitude representation.
func NewAltitude(meters float64) *Altitude {
	return &Altitude{Reference: "W84", Units: "M", Value: &meters}
}
