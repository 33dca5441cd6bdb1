// geo/flat.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package geo

import gomath "math"

// FlatPoint is a position in the task-local integer Cartesian frame, in
// units of roughly one meter. Integer coordinates make bounding-box
// overlap tests and the solver's distance comparisons cheap and exact.
type FlatPoint struct {
	X, Y int
}

func (p FlatPoint) SquareDistanceTo(other FlatPoint) int64 {
	dx := int64(p.X - other.X)
	dy := int64(p.Y - other.Y)
	return dx*dx + dy*dy
}

func (p FlatPoint) DistanceTo(other FlatPoint) float64 {
	return gomath.Sqrt(float64(p.SquareDistanceTo(other)))
}

// FlatProjection maps GeoPoints into the flat integer frame. It is
// anchored at the center of the task's bounds and scales longitude by
// the cosine of the anchor latitude; it must be rebuilt (and all cached
// projected geometry with it) whenever the task's shape changes.
type FlatProjection struct {
	center GeoPoint
	cosLat float64
}

func NewFlatProjection(bounds GeoBounds) FlatProjection {
	if !bounds.IsValid() {
		return FlatProjection{center: InvalidGeoPoint()}
	}
	c := bounds.Center()
	return FlatProjection{center: c, cosLat: gomath.Cos(c.Latitude)}
}

func (fp FlatProjection) IsValid() bool {
	return fp.center.IsValid()
}

func (fp FlatProjection) Center() GeoPoint {
	return fp.center
}

// ProjectInteger maps p into the flat frame, rounding to the nearest
// integer unit.
func (fp FlatProjection) ProjectInteger(p GeoPoint) FlatPoint {
	x := (p.Longitude - fp.center.Longitude) * fp.cosLat * EarthRadius
	y := (p.Latitude - fp.center.Latitude) * EarthRadius
	return FlatPoint{X: int(gomath.Round(x)), Y: int(gomath.Round(y))}
}

// Unproject maps a flat point back to earth coordinates. Inverse of
// ProjectInteger up to rounding.
func (fp FlatProjection) Unproject(p FlatPoint) GeoPoint {
	lat := fp.center.Latitude + float64(p.Y)/EarthRadius
	lon := fp.center.Longitude
	if fp.cosLat != 0 {
		lon += float64(p.X) / (fp.cosLat * EarthRadius)
	}
	return GeoPoint{Latitude: lat, Longitude: lon}
}

///////////////////////////////////////////////////////////////////////////
// FlatBoundingBox

// FlatBoundingBox is an axis-aligned box in the flat frame.
type FlatBoundingBox struct {
	Lower, Upper FlatPoint
}

// FlatBoundingBoxAround returns the box centered at p, inflated by
// radius units on each side.
func FlatBoundingBoxAround(p FlatPoint, radius int) FlatBoundingBox {
	return FlatBoundingBox{
		Lower: FlatPoint{X: p.X - radius, Y: p.Y - radius},
		Upper: FlatPoint{X: p.X + radius, Y: p.Y + radius},
	}
}

func (bb FlatBoundingBox) Extend(p FlatPoint) FlatBoundingBox {
	bb.Lower.X = min(bb.Lower.X, p.X)
	bb.Lower.Y = min(bb.Lower.Y, p.Y)
	bb.Upper.X = max(bb.Upper.X, p.X)
	bb.Upper.Y = max(bb.Upper.Y, p.Y)
	return bb
}

func (bb FlatBoundingBox) Expand(d int) FlatBoundingBox {
	bb.Lower.X -= d
	bb.Lower.Y -= d
	bb.Upper.X += d
	bb.Upper.Y += d
	return bb
}

func (bb FlatBoundingBox) Overlaps(other FlatBoundingBox) bool {
	x := bb.Upper.X >= other.Lower.X && bb.Lower.X <= other.Upper.X
	y := bb.Upper.Y >= other.Lower.Y && bb.Lower.Y <= other.Upper.Y
	return x && y
}

///////////////////////////////////////////////////////////////////////////
// SearchPoint

// SearchPoint pairs a GeoPoint with its projection; the solver works on
// the flat coordinates and reports results in both frames. Equality is
// defined on the projected coordinates.
type SearchPoint struct {
	Location GeoPoint
	Flat     FlatPoint
}

func MakeSearchPoint(p GeoPoint, fp FlatProjection) SearchPoint {
	return SearchPoint{Location: p, Flat: fp.ProjectInteger(p)}
}

func (sp SearchPoint) Equal(other SearchPoint) bool {
	return sp.Flat == other.Flat
}

func (sp SearchPoint) FlatSquareDistanceTo(other SearchPoint) int64 {
	return sp.Flat.SquareDistanceTo(other.Flat)
}

func (sp SearchPoint) FlatDistanceTo(other SearchPoint) float64 {
	return sp.Flat.DistanceTo(other.Flat)
}

// ProjectSearchPoints rebuilds the flat coordinates of pts in place
// under a fresh projection.
func ProjectSearchPoints(pts []SearchPoint, fp FlatProjection) {
	for i := range pts {
		pts[i].Flat = fp.ProjectInteger(pts[i].Location)
	}
}

// FlatConvexHull returns the convex hull of pts in the flat frame,
// counterclockwise, without repeating the first vertex.
// Monotone-chain, degenerate inputs returned as-is.
func FlatConvexHull(pts []SearchPoint) []SearchPoint {
	n := len(pts)
	if n <= 2 {
		return append([]SearchPoint{}, pts...)
	}

	sorted := append([]SearchPoint{}, pts...)
	// Sort by x, then y.
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && flatLess(sorted[j].Flat, sorted[j-1].Flat); j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	cross := func(o, a, b FlatPoint) int64 {
		return int64(a.X-o.X)*int64(b.Y-o.Y) - int64(a.Y-o.Y)*int64(b.X-o.X)
	}

	lower := make([]SearchPoint, 0, n)
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2].Flat, lower[len(lower)-1].Flat, p.Flat) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}

	upper := make([]SearchPoint, 0, n)
	for i := n - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2].Flat, upper[len(upper)-1].Flat, p.Flat) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}

	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

func flatLess(a, b FlatPoint) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
