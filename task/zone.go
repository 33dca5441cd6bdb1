// task/zone.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	gomath "math"

	"github.com/soaringlab/glidetask/geo"
)

// ZoneShape tags the observation zone variants.
type ZoneShape int

const (
	ShapeCylinder ZoneShape = iota
	ShapeLine
	ShapeFAISector
	ShapeKeyhole
	ShapeSymmetricQuadrant
)

func (s ZoneShape) String() string {
	switch s {
	case ShapeCylinder:
		return "cylinder"
	case ShapeLine:
		return "line"
	case ShapeFAISector:
		return "fai_sector"
	case ShapeKeyhole:
		return "keyhole"
	case ShapeSymmetricQuadrant:
		return "symmetric_quadrant"
	default:
		return "unknown"
	}
}

// Zone geometry defaults, meters.
const (
	DefaultCylinderRadius  = 500.
	DefaultFAISectorRadius = 20000.
	KeyholeSectorRadius    = 10000.
	KeyholeCylinderRadius  = 500.
	DefaultLineLength      = 1000.
)

// BoundarySamplePoints is how many vertices the solver sees per zone
// boundary.
const BoundarySamplePoints = 24

// ObservationZone is one tagged-variant zone. The sector shapes depend
// on the directions of the adjacent legs, refreshed through SetLegs
// whenever the task structure changes.
type ObservationZone struct {
	Shape  ZoneShape    `json:"shape"`
	Center geo.GeoPoint `json:"center"`

	// Radius is the cylinder or sector radius; for a line it is unused
	// (Length covers the gate).
	Radius float64 `json:"radius,omitempty"`

	// Length is the full line gate length.
	Length float64 `json:"length,omitempty"`

	// bisector is the direction the sector opens toward, radians;
	// derived from the neighbouring legs.
	bisector    float64
	hasBisector bool
}

func NewCylinderZone(center geo.GeoPoint, radius float64) ObservationZone {
	return ObservationZone{Shape: ShapeCylinder, Center: center, Radius: radius}
}

func NewLineZone(center geo.GeoPoint, length float64) ObservationZone {
	return ObservationZone{Shape: ShapeLine, Center: center, Length: length}
}

func NewFAISectorZone(center geo.GeoPoint) ObservationZone {
	return ObservationZone{Shape: ShapeFAISector, Center: center, Radius: DefaultFAISectorRadius}
}

func NewKeyholeZone(center geo.GeoPoint) ObservationZone {
	return ObservationZone{Shape: ShapeKeyhole, Center: center, Radius: KeyholeSectorRadius}
}

func NewSymmetricQuadrantZone(center geo.GeoPoint, radius float64) ObservationZone {
	return ObservationZone{Shape: ShapeSymmetricQuadrant, Center: center, Radius: radius}
}

func (z ObservationZone) Equal(other ObservationZone) bool {
	return z.Shape == other.Shape && z.Center == other.Center &&
		z.Radius == other.Radius && z.Length == other.Length
}

// CylinderRadiusOrMinusOne returns the radius if the start/finish ring
// radius subtraction applies to this zone, and -1 if not.
func (z ObservationZone) CylinderRadiusOrMinusOne() float64 {
	if z.Shape == ShapeCylinder {
		return z.Radius
	}
	return -1
}

// sectorGeometry returns the radius and half-angle of the shape's
// angular test, or ok=false for plain cylinders.
func (z ObservationZone) sectorGeometry() (radius, halfAngle float64, ok bool) {
	switch z.Shape {
	case ShapeLine:
		return z.Length / 2, gomath.Pi / 2, true
	case ShapeFAISector, ShapeSymmetricQuadrant:
		return z.Radius, gomath.Pi / 4, true
	case ShapeKeyhole:
		return z.Radius, gomath.Pi / 4, true
	default:
		return 0, 0, false
	}
}

// SetLegs recomputes the sector bisector from the neighbouring
// waypoints. Start shapes face away from the outgoing leg, finish
// shapes away from the incoming leg, intermediates bisect the turn.
func (z *ObservationZone) SetLegs(prev, next *geo.GeoPoint) {
	switch {
	case prev != nil && next != nil:
		z.bisector = halfAngle(z.Center.Bearing(*prev), z.Center.Bearing(*next))
		z.hasBisector = true
	case next != nil:
		z.bisector = reciprocal(z.Center.Bearing(*next))
		z.hasBisector = true
	case prev != nil:
		z.bisector = reciprocal(z.Center.Bearing(*prev))
		z.hasBisector = true
	default:
		z.hasBisector = false
	}
}

// Contains is the point-in-zone membership test.
func (z ObservationZone) Contains(p geo.GeoPoint) bool {
	if !p.IsValid() {
		return false
	}
	d := z.Center.Distance(p)

	switch z.Shape {
	case ShapeCylinder:
		return d <= z.Radius

	case ShapeKeyhole:
		if d <= KeyholeCylinderRadius {
			return true
		}
		fallthrough

	default:
		radius, half, ok := z.sectorGeometry()
		if !ok {
			return false
		}
		if d > radius {
			return false
		}
		if !z.hasBisector {
			// No legs yet; degrade to the radial test.
			return true
		}
		return angularDifference(z.Center.Bearing(p), z.bisector) <= half
	}
}

// Boundary returns the sampled zone outline under the projection; the
// solver picks its candidate points from these.
func (z ObservationZone) Boundary(fp geo.FlatProjection) []geo.SearchPoint {
	var pts []geo.SearchPoint
	add := func(p geo.GeoPoint) {
		pts = append(pts, geo.MakeSearchPoint(p, fp))
	}

	switch z.Shape {
	case ShapeCylinder:
		for i := 0; i < BoundarySamplePoints; i++ {
			b := 2 * gomath.Pi * float64(i) / BoundarySamplePoints
			add(z.Center.Offset(b, z.Radius))
		}

	case ShapeLine:
		bearing := z.bisector + gomath.Pi/2
		add(z.Center.Offset(bearing, z.Length/2))
		add(z.Center)
		add(z.Center.Offset(reciprocal(bearing), z.Length/2))

	case ShapeKeyhole:
		z.appendArc(&pts, fp, z.Radius, gomath.Pi/4)
		for i := 0; i < BoundarySamplePoints/2; i++ {
			b := 2 * gomath.Pi * float64(i) / (BoundarySamplePoints / 2)
			add(z.Center.Offset(b, KeyholeCylinderRadius))
		}

	default: // sector shapes; appendArc includes the apex
		_, half, _ := z.sectorGeometry()
		z.appendArc(&pts, fp, z.Radius, half)
	}
	return pts
}

func (z ObservationZone) appendArc(pts *[]geo.SearchPoint, fp geo.FlatProjection, radius, half float64) {
	bisector := z.bisector
	if !z.hasBisector {
		bisector = 0
	}
	n := BoundarySamplePoints
	for i := 0; i < n; i++ {
		b := bisector - half + 2*half*float64(i)/float64(n-1)
		*pts = append(*pts, geo.MakeSearchPoint(z.Center.Offset(b, radius), fp))
	}
	*pts = append(*pts, geo.MakeSearchPoint(z.Center, fp))
}

// angularDifference returns the absolute difference of two directions,
// in [0, pi].
func angularDifference(a, b float64) float64 {
	d := gomath.Mod(a-b, 2*gomath.Pi)
	if d < 0 {
		d += 2 * gomath.Pi
	}
	if d > gomath.Pi {
		d = 2*gomath.Pi - d
	}
	return d
}

// halfAngle returns the direction halfway between a and b.
func halfAngle(a, b float64) float64 {
	d := gomath.Mod(b-a, 2*gomath.Pi)
	if d < 0 {
		d += 2 * gomath.Pi
	}
	h := a + d/2
	if h >= 2*gomath.Pi {
		h -= 2 * gomath.Pi
	}
	return h
}

func reciprocal(b float64) float64 {
	b += gomath.Pi
	if b >= 2*gomath.Pi {
		b -= 2 * gomath.Pi
	}
	return b
}
