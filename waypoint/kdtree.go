// waypoint/kdtree.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package waypoint

import (
	"math"
	"slices"

	"github.com/soaringlab/glidetask/geo"
)

// kdNode is a node in a 2D KD-tree over waypoint locations.
type kdNode struct {
	Waypoint Waypoint
	Left     *kdNode
	Right    *kdNode
}

func axisValue(wp Waypoint, axis int) float64 {
	if axis == 0 {
		return wp.Location.Longitude
	}
	return wp.Location.Latitude
}

// buildKDTree constructs a balanced KD-tree from the waypoint slice.
// The tree alternates splitting by longitude and latitude at each level.
func buildKDTree(points []Waypoint) *kdNode {
	if len(points) == 0 {
		return nil
	}
	return buildKDTreeRecursive(slices.Clone(points), 0)
}

func buildKDTreeRecursive(points []Waypoint, depth int) *kdNode {
	if len(points) == 0 {
		return nil
	}
	if len(points) == 1 {
		return &kdNode{Waypoint: points[0]}
	}

	// Alternate between longitude (depth even) and latitude (depth odd)
	axis := depth % 2

	slices.SortFunc(points, func(a, b Waypoint) int {
		va, vb := axisValue(a, axis), axisValue(b, axis)
		if va < vb {
			return -1
		} else if va > vb {
			return 1
		}
		return 0
	})

	median := len(points) / 2

	return &kdNode{
		Waypoint: points[median],
		Left:     buildKDTreeRecursive(points[:median], depth+1),
		Right:    buildKDTreeRecursive(points[median+1:], depth+1),
	}
}

type nearest struct {
	waypoint Waypoint
	distance float64 // great-circle meters; -1 until the first candidate
}

func (n *kdNode) nearest(p geo.GeoPoint, depth int, best *nearest) {
	if n == nil {
		return
	}

	if d := p.Distance(n.Waypoint.Location); best.distance < 0 || d < best.distance {
		best.waypoint = n.Waypoint
		best.distance = d
	}

	axis := depth % 2
	var pv float64
	if axis == 0 {
		pv = p.Longitude
	} else {
		pv = p.Latitude
	}
	nv := axisValue(n.Waypoint, axis)

	near, far := n.Left, n.Right
	if pv > nv {
		near, far = far, near
	}

	near.nearest(p, depth+1, best)

	// Only descend the far side if the splitting plane is closer than the
	// best match so far. The plane distance is a lower bound in meters:
	// a latitude plane is at least R·|Δlat| away, and a meridian is
	// R·asin(sin|Δlon|·cos lat) away, which shrinks with latitude.
	planeDistance := geo.EarthRadius * absFloat(pv-nv)
	if axis == 0 {
		planeDistance = geo.EarthRadius * math.Asin(math.Min(1,
			math.Sin(math.Min(absFloat(pv-nv), math.Pi/2))*math.Cos(p.Latitude)))
	}
	if best.distance < 0 || planeDistance < best.distance {
		far.nearest(p, depth+1, best)
	}
}

func absFloat(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
