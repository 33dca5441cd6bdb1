// waypoint/waypoint_test.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package waypoint

import (
	gomath "math"
	"testing"

	"github.com/soaringlab/glidetask/geo"
)

func TestLookup(t *testing.T) {
	db := NewWaypoints()
	wp := db.Append(Waypoint{Name: "Aspres", Location: geo.GeoPointFromDegrees(44.5, 5.7), Elevation: 830})

	if wp.ID == 0 {
		t.Errorf("appended waypoint should receive an id")
	}

	got, ok := db.Lookup("aspres")
	if !ok || got.ID != wp.ID {
		t.Errorf("case-insensitive lookup failed: %+v %v", got, ok)
	}
	if _, ok := db.Lookup("nowhere"); ok {
		t.Errorf("lookup of unknown name succeeded")
	}
}

func TestCheckExistsOrAppend(t *testing.T) {
	db := NewWaypoints()
	first := db.CheckExistsOrAppend(Waypoint{Name: "Sisteron", Location: geo.GeoPointFromDegrees(44.28, 5.93)})

	// Same name within the location tolerance dedupes.
	dup := db.CheckExistsOrAppend(Waypoint{Name: "SISTERON", Location: geo.GeoPointFromDegrees(44.2801, 5.9301)})
	if dup.ID != first.ID {
		t.Errorf("equivalent waypoint not deduplicated: %d vs %d", dup.ID, first.ID)
	}
	if db.Len() != 1 {
		t.Errorf("len = %d", db.Len())
	}

	// Same name far away is a different waypoint.
	other := db.CheckExistsOrAppend(Waypoint{Name: "Sisteron", Location: geo.GeoPointFromDegrees(45.28, 5.93)})
	if other.ID == first.ID {
		t.Errorf("distant waypoint should not be deduplicated")
	}
	if db.Len() != 2 {
		t.Errorf("len = %d", db.Len())
	}
}

func TestNearestMatchesBruteForce(t *testing.T) {
	db := NewWaypoints()

	// A grid of waypoints over the southern Alps.
	var all []Waypoint
	for i := 0; i < 8; i++ {
		for j := 0; j < 8; j++ {
			wp := db.Append(Waypoint{
				Name:     "G" + string(rune('a'+i)) + string(rune('a'+j)),
				Location: geo.GeoPointFromDegrees(44+float64(i)*0.1, 5+float64(j)*0.1),
			})
			all = append(all, wp)
		}
	}

	queries := []geo.GeoPoint{
		geo.GeoPointFromDegrees(44.33, 5.21),
		geo.GeoPointFromDegrees(44.01, 5.78),
		geo.GeoPointFromDegrees(43.5, 4.9),
		geo.GeoPointFromDegrees(44.7, 5.7),
		geo.GeoPointFromDegrees(45.2, 6.2),
	}
	for _, q := range queries {
		got, ok := db.Nearest(q)
		if !ok {
			t.Fatalf("nearest failed")
		}

		bestD := gomath.Inf(1)
		var best Waypoint
		for _, wp := range all {
			if d := q.Distance(wp.Location); d < bestD {
				bestD, best = d, wp
			}
		}
		if got.ID != best.ID {
			t.Errorf("query %s: got %s at %.0f m, brute force says %s at %.0f m",
				q.DDString(), got.Name, q.Distance(got.Location), best.Name, bestD)
		}
	}
}

func TestNearestCacheInvalidation(t *testing.T) {
	db := NewWaypoints()
	db.Append(Waypoint{Name: "Far", Location: geo.GeoPointFromDegrees(50, 10)})

	q := geo.GeoPointFromDegrees(44, 6)
	got, ok := db.Nearest(q)
	if !ok || got.Name != "Far" {
		t.Fatalf("nearest = %+v %v", got, ok)
	}

	// Appending a closer waypoint must invalidate the cached answer.
	db.Append(Waypoint{Name: "Near", Location: geo.GeoPointFromDegrees(44.1, 6.1)})
	got, ok = db.Nearest(q)
	if !ok || got.Name != "Near" {
		t.Errorf("stale nearest answer after append: %+v", got)
	}
}

func TestNearestEmpty(t *testing.T) {
	db := NewWaypoints()
	if _, ok := db.Nearest(geo.GeoPointFromDegrees(0, 0)); ok {
		t.Errorf("nearest on an empty database should fail")
	}
}
