// geo/geo_test.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package geo

import (
	gomath "math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name string
		a, b GeoPoint
		want float64 // meters
		tol  float64
	}{
		{
			name: "one degree of latitude",
			a:    GeoPointFromDegrees(0, 0),
			b:    GeoPointFromDegrees(1, 0),
			want: 111195,
			tol:  5,
		},
		{
			name: "one degree of longitude at 60N",
			a:    GeoPointFromDegrees(60, 0),
			b:    GeoPointFromDegrees(60, 1),
			want: 55597,
			tol:  30,
		},
		{
			name: "coincident",
			a:    GeoPointFromDegrees(47, 11),
			b:    GeoPointFromDegrees(47, 11),
			want: 0,
			tol:  0.001,
		},
	}

	for _, tc := range tests {
		if got := tc.a.Distance(tc.b); gomath.Abs(got-tc.want) > tc.tol {
			t.Errorf("%s: got %.1f m, expected %.1f m", tc.name, got, tc.want)
		}
		// symmetry
		if d, r := tc.a.Distance(tc.b), tc.b.Distance(tc.a); gomath.Abs(d-r) > 1e-6 {
			t.Errorf("%s: asymmetric distance %.9f vs %.9f", tc.name, d, r)
		}
	}
}

func TestBearing(t *testing.T) {
	a := GeoPointFromDegrees(0, 0)

	if b := a.Bearing(GeoPointFromDegrees(1, 0)); gomath.Abs(b) > 1e-6 {
		t.Errorf("north bearing: got %v, expected 0", b)
	}
	if b := a.Bearing(GeoPointFromDegrees(0, 1)); gomath.Abs(b-gomath.Pi/2) > 1e-6 {
		t.Errorf("east bearing: got %v, expected pi/2", b)
	}
	if b := a.Bearing(GeoPointFromDegrees(-1, 0)); gomath.Abs(b-gomath.Pi) > 1e-6 {
		t.Errorf("south bearing: got %v, expected pi", b)
	}
}

func TestOffsetRoundTrip(t *testing.T) {
	p := GeoPointFromDegrees(47.5, 11.25)
	for _, brg := range []float64{0, 1, 2.5, 4, 6} {
		for _, d := range []float64{100, 5000, 50000} {
			q := p.Offset(brg, d)
			if got := p.Distance(q); gomath.Abs(got-d) > d*1e-4+0.1 {
				t.Errorf("offset bearing %v distance %v: measured %.2f", brg, d, got)
			}
		}
	}
}

func TestIntermediatePoint(t *testing.T) {
	a := GeoPointFromDegrees(0, 0)
	b := GeoPointFromDegrees(1, 0)

	m := a.IntermediatePoint(b, 55597)
	if d := a.Distance(m); gomath.Abs(d-55597) > 10 {
		t.Errorf("midpoint distance from a: %.1f", d)
	}
	if d := m.Distance(b); gomath.Abs(d-55598) > 15 {
		t.Errorf("midpoint distance to b: %.1f", d)
	}

	// past the end clamps
	if q := a.IntermediatePoint(b, 1e9); q != b {
		t.Errorf("clamp past end: got %+v", q)
	}
	// degenerate distance returns the receiver
	if q := a.IntermediatePoint(b, 0); q != a {
		t.Errorf("zero distance: got %+v", q)
	}
	if q := a.IntermediatePoint(InvalidGeoPoint(), 100); q != a {
		t.Errorf("invalid target: got %+v", q)
	}
}

func TestGeoBounds(t *testing.T) {
	b := InvalidGeoBounds()
	if b.IsValid() {
		t.Errorf("empty bounds should be invalid")
	}

	b = b.Extend(GeoPointFromDegrees(1, 1))
	b = b.Extend(GeoPointFromDegrees(-1, 2))
	if !b.IsValid() {
		t.Errorf("extended bounds should be valid")
	}

	c := b.Center()
	if gomath.Abs(Degrees(c.Latitude)) > 1e-9 || gomath.Abs(Degrees(c.Longitude)-1.5) > 1e-9 {
		t.Errorf("center: got %s", c.DDString())
	}

	// extending by an invalid point is a no-op
	if b2 := b.Extend(InvalidGeoPoint()); b2 != b {
		t.Errorf("invalid extend changed bounds")
	}
}

func TestFlatProjection(t *testing.T) {
	bounds := GeoBoundsFromPoint(GeoPointFromDegrees(47, 11))
	bounds = bounds.Extend(GeoPointFromDegrees(48, 12))
	fp := NewFlatProjection(bounds)

	// The projection unit is roughly one meter.
	a := GeoPointFromDegrees(47.5, 11.5)
	b := GeoPointFromDegrees(47.5, 11.6)
	fa, fb := fp.ProjectInteger(a), fp.ProjectInteger(b)
	geodist := a.Distance(b)
	if flatdist := fa.DistanceTo(fb); gomath.Abs(flatdist-geodist) > geodist*0.01 {
		t.Errorf("flat distance %.1f vs geo %.1f", flatdist, geodist)
	}

	// Unproject inverts ProjectInteger to within a unit.
	back := fp.Unproject(fa)
	if d := a.Distance(back); d > 2 {
		t.Errorf("unproject error %.2f m", d)
	}
}

func TestFlatBoundingBox(t *testing.T) {
	bb := FlatBoundingBoxAround(FlatPoint{X: 0, Y: 0}, 10)

	tests := []struct {
		other FlatBoundingBox
		want  bool
	}{
		{FlatBoundingBoxAround(FlatPoint{X: 0, Y: 0}, 1), true},
		{FlatBoundingBoxAround(FlatPoint{X: 11, Y: 0}, 1), true},  // touching
		{FlatBoundingBoxAround(FlatPoint{X: 13, Y: 0}, 1), false}, // disjoint
		{FlatBoundingBoxAround(FlatPoint{X: 0, Y: -12}, 1), false},
		{FlatBoundingBoxAround(FlatPoint{X: 8, Y: 8}, 1), true},
	}
	for i, tc := range tests {
		if got := bb.Overlaps(tc.other); got != tc.want {
			t.Errorf("%d: Overlaps(%+v) = %v, expected %v", i, tc.other, got, tc.want)
		}
		if got := tc.other.Overlaps(bb); got != tc.want {
			t.Errorf("%d: reversed Overlaps = %v, expected %v", i, got, tc.want)
		}
	}
}

func TestFlatConvexHull(t *testing.T) {
	mk := func(x, y int) SearchPoint {
		return SearchPoint{Flat: FlatPoint{X: x, Y: y}}
	}

	// Square plus interior points; the hull is the square.
	pts := []SearchPoint{
		mk(0, 0), mk(10, 0), mk(10, 10), mk(0, 10),
		mk(5, 5), mk(2, 3), mk(9, 9),
	}
	hull := FlatConvexHull(pts)
	if len(hull) != 4 {
		t.Fatalf("hull size %d, expected 4: %+v", len(hull), hull)
	}
	for _, corner := range []FlatPoint{{0, 0}, {10, 0}, {10, 10}, {0, 10}} {
		found := false
		for _, h := range hull {
			if h.Flat == corner {
				found = true
			}
		}
		if !found {
			t.Errorf("corner %+v missing from hull", corner)
		}
	}

	// Degenerate inputs pass through.
	if h := FlatConvexHull(pts[:2]); len(h) != 2 {
		t.Errorf("two point hull: %d", len(h))
	}
	if h := FlatConvexHull(nil); len(h) != 0 {
		t.Errorf("empty hull: %d", len(h))
	}
}
