// task/dijkstra.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"github.com/soaringlab/glidetask/geo"
)

// taskDijkstra finds extremal polylines through the ordered boundary
// layers: one vertex per task point, edges weighted by projected
// distance. Because the graph is a layered DAG the search reduces to a
// stage-by-stage relaxation; min and max share the skeleton and differ
// only in the relaxation direction.
//
// A single instance is retained by the owning task and its buffers are
// reused between solves.
type taskDijkstra struct {
	boundaries [][]geo.SearchPoint

	cost     [][]float64
	parent   [][]int
	solution []geo.SearchPoint

	// solves counts completed solver runs; the incremental-reuse tests
	// and debug logging key off it.
	solves int
}

func newTaskDijkstra() *taskDijkstra {
	return &taskDijkstra{}
}

func (d *taskDijkstra) SetTaskSize(n int) {
	if cap(d.boundaries) < n {
		d.boundaries = make([][]geo.SearchPoint, n)
		d.cost = make([][]float64, n)
		d.parent = make([][]int, n)
		d.solution = make([]geo.SearchPoint, n)
	}
	d.boundaries = d.boundaries[:n]
	d.cost = d.cost[:n]
	d.parent = d.parent[:n]
	d.solution = d.solution[:n]
}

func (d *taskDijkstra) SetBoundary(i int, pts []geo.SearchPoint) {
	d.boundaries[i] = pts
}

// Solution returns the chosen boundary vertex for layer i of the last
// successful solve.
func (d *taskDijkstra) Solution(i int) geo.SearchPoint {
	return d.solution[i]
}

func (d *taskDijkstra) prepare() bool {
	for i, b := range d.boundaries {
		if len(b) == 0 {
			return false
		}
		if cap(d.cost[i]) < len(b) {
			d.cost[i] = make([]float64, len(b))
			d.parent[i] = make([]int, len(b))
		}
		d.cost[i] = d.cost[i][:len(b)]
		d.parent[i] = d.parent[i][:len(b)]
	}
	return true
}

// DistanceMin solves for the shortest path from the aircraft through one
// vertex of every layer in order. Returns the projected path length in
// flat units.
func (d *taskDijkstra) DistanceMin(aircraft geo.SearchPoint) (float64, bool) {
	if len(d.boundaries) == 0 || !d.prepare() {
		return 0, false
	}

	for j, sp := range d.boundaries[0] {
		d.cost[0][j] = aircraft.FlatDistanceTo(sp)
		d.parent[0][j] = -1
	}
	for i := 1; i < len(d.boundaries); i++ {
		d.relax(i, false)
	}
	d.solves++
	return d.finish(false), true
}

// DistanceMax solves for the longest path, one vertex per layer. The
// first layer is the task start, not the aircraft.
func (d *taskDijkstra) DistanceMax() (float64, bool) {
	if len(d.boundaries) == 0 || !d.prepare() {
		return 0, false
	}

	for j := range d.boundaries[0] {
		d.cost[0][j] = 0
		d.parent[0][j] = -1
	}
	for i := 1; i < len(d.boundaries); i++ {
		d.relax(i, true)
	}
	d.solves++
	return d.finish(true), true
}

func (d *taskDijkstra) relax(i int, wantMax bool) {
	prev, cur := d.boundaries[i-1], d.boundaries[i]
	for j, sp := range cur {
		best, bestK := 0., -1
		for k, pp := range prev {
			c := d.cost[i-1][k] + pp.FlatDistanceTo(sp)
			if bestK < 0 || (wantMax && c > best) || (!wantMax && c < best) {
				best, bestK = c, k
			}
		}
		d.cost[i][j] = best
		d.parent[i][j] = bestK
	}
}

// finish picks the extremal terminal vertex and backtracks the chosen
// polyline into d.solution.
func (d *taskDijkstra) finish(wantMax bool) float64 {
	last := len(d.boundaries) - 1
	best, bestJ := 0., -1
	for j, c := range d.cost[last] {
		if bestJ < 0 || (wantMax && c > best) || (!wantMax && c < best) {
			best, bestJ = c, j
		}
	}

	for i, j := last, bestJ; i >= 0; i-- {
		d.solution[i] = d.boundaries[i][j]
		j = d.parent[i][j]
	}
	return best
}
