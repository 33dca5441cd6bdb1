// task/distance.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"github.com/soaringlab/glidetask/geo"
)

// runDijkstraMin solves the minimum remaining path from the aircraft
// through one boundary point of each remaining task point, writing the
// chosen points back and caching the resulting distance.
func (t *OrderedTask) runDijkstraMin(location geo.GeoPoint) bool {
	n := t.TaskSize()
	if n < 2 {
		return false
	}

	if t.dijkstraMin == nil {
		t.dijkstraMin = newTaskDijkstra()
	}
	d := t.dijkstraMin

	active := t.activeIndex
	d.SetTaskSize(n - active)
	for i := active; i < n; i++ {
		d.SetBoundary(i-active, t.points[i].GetSearchPoints())
	}

	ac := geo.MakeSearchPoint(location, t.projection)
	if _, ok := d.DistanceMin(ac); !ok {
		return false
	}

	for i := active; i < n; i++ {
		t.points[i].SetSearchMin(d.Solution(i - active))
	}

	// Report the path length over the earth, not the projection.
	sum := location.Distance(d.Solution(0).Location)
	for i := 1; i < n-active; i++ {
		sum += d.Solution(i - 1).Location.Distance(d.Solution(i).Location)
	}
	t.lastMinDistance = sum
	return true
}

// distanceIsSignificant reports whether two locations differ by more
// than one projected unit; motion below that can never change a solve.
func (t *OrderedTask) distanceIsSignificant(location, locationLast geo.GeoPoint) bool {
	a1 := geo.MakeSearchPoint(location, t.projection)
	a2 := geo.MakeSearchPoint(locationLast, t.projection)
	return a1.FlatSquareDistanceTo(a2) > 1
}

// ScanDistanceMin returns the minimum remaining task distance from the
// given location. Unless full is set, the cached solution is reused
// while the distance to the active point has changed by less than 5%,
// both old and new being beyond 2000 m; that rule is the engine's main
// optimisation.
func (t *OrderedTask) ScanDistanceMin(location geo.GeoPoint, full bool) float64 {
	if !full && location.IsValid() && t.lastMinLocation.IsValid() &&
		t.distanceIsSignificant(location, t.lastMinLocation) {
		if active := t.GetActiveTaskPoint(); active != nil {
			target := active.Waypoint.Location
			lastDistance := uint(t.lastMinLocation.Distance(target))
			curDistance := uint(location.Distance(target))

			// do the full scan only if the distance to the active task
			// point has changed by more than 5%, otherwise we don't
			// expect any relevant changes
			if lastDistance < 2000 || curDistance < 2000 ||
				lastDistance*20 >= curDistance*21 ||
				curDistance*20 >= lastDistance*21 {
				full = true
			}
		}
	}

	if full {
		t.runDijkstraMin(location)
		t.lastMinLocation = location
	}

	return t.lastMinDistance
}

// runDijkstraMax solves the maximum-distance path, one boundary point
// per task point. With ignoreSampledPoints the full zone outlines are
// used everywhere, giving the planned total rather than what the flown
// history still permits. The chosen endpoints are pulled in from the
// start/finish cylinder centers per the ring radius rule.
func (t *OrderedTask) runDijkstraMax(d *taskDijkstra, results []geo.SearchPoint, ignoreSampledPoints bool) bool {
	n := t.TaskSize()
	if n < 2 {
		return false
	}
	d.SetTaskSize(n)

	for i := 0; i < n; i++ {
		var boundary []geo.SearchPoint
		if i == t.activeIndex || ignoreSampledPoints {
			// since one can still travel further in the current sector,
			// use the full boundary here
			boundary = t.points[i].GetBoundaryPoints()
		} else {
			boundary = t.points[i].GetSearchPoints()
		}
		d.SetBoundary(i, boundary)
	}

	startRadius, finishRadius := -1., -1.
	if t.settings.SubtractStartFinishCylinderRadius {
		// to subtract the start/finish cylinder radius, we use only the
		// nominal points (i.e. the cylinder's center), and later replace
		// it with a point on the cylinder boundary
		start := t.points[0]
		startRadius = start.Zone.CylinderRadiusOrMinusOne()
		if startRadius > 0 {
			d.SetBoundary(0, start.GetNominalPoints())
		}

		finish := t.points[n-1]
		finishRadius = finish.Zone.CylinderRadiusOrMinusOne()
		if finishRadius > 0 {
			d.SetBoundary(n-1, finish.GetNominalPoints())
		}
	}

	if _, ok := d.DistanceMax(); !ok {
		return false
	}

	for i := range results {
		results[i] = d.Solution(i)

		if i == 0 && startRadius > 0 {
			// subtract start cylinder radius by finding the intersection
			// with the cylinder boundary
			current := t.points[0].GetLocation()
			neighbour := d.Solution(i + 1).Location
			gp := current.IntermediatePoint(neighbour, startRadius)
			results[i] = geo.MakeSearchPoint(gp, t.projection)
		}

		if i == n-1 && finishRadius > 0 {
			// subtract finish cylinder radius by finding the intersection
			// with the cylinder boundary
			current := t.points[n-1].GetLocation()
			neighbour := d.Solution(i - 1).Location
			gp := current.IntermediatePoint(neighbour, finishRadius)
			results[i] = geo.MakeSearchPoint(gp, t.projection)
		}
	}

	return true
}

func chainDistance(points []geo.SearchPoint) float64 {
	sum := 0.
	for i := 1; i < len(points); i++ {
		sum += points[i-1].Location.Distance(points[i].Location)
	}
	return sum
}

// ScanDistanceMax returns the maximum achievable task distance given the
// flown history: the scored distance for an area task.
func (t *OrderedTask) ScanDistanceMax() float64 {
	if len(t.points) == 0 {
		// nothing to do!
		return 0
	}

	if t.dijkstraMax == nil {
		t.dijkstraMax = newTaskDijkstra()
	}

	results := make([]geo.SearchPoint, t.TaskSize())
	if !t.runDijkstraMax(t.dijkstraMax, results, false) {
		return 0
	}

	for i, sp := range results {
		t.points[i].SetSearchMax(sp)
		if i <= t.activeIndex && t.points[i].HasSampled() {
			t.points[i].SetSearchMin(sp)
		}
	}

	return chainDistance(results)
}

// ScanDistanceMaxTotal is ScanDistanceMax over the nominal zone
// outlines, ignoring what has been flown: the planned total.
func (t *OrderedTask) ScanDistanceMaxTotal() float64 {
	if len(t.points) == 0 {
		// nothing to do!
		return 0
	}

	if t.dijkstraMaxTotal == nil {
		t.dijkstraMaxTotal = newTaskDijkstra()
	}

	results := make([]geo.SearchPoint, t.TaskSize())
	if !t.runDijkstraMax(t.dijkstraMaxTotal, results, true) {
		return 0
	}

	for i, sp := range results {
		t.points[i].SetSearchMaxTotal(sp)
	}

	return chainDistance(results)
}

// ScanDistanceMinMax computes both figures; the max side only on a full
// update since it cannot change without the scored shapes changing.
func (t *OrderedTask) ScanDistanceMinMax(location geo.GeoPoint, force bool) (dmin, dmax float64) {
	if force {
		dmax = t.ScanDistanceMax()
	} else {
		dmax = t.stats.Total.Maximum.Distance
	}
	dmin = t.ScanDistanceMin(location, force)
	return dmin, dmax
}

// ScanDistanceNominal returns the center-to-center task distance, with
// the start/finish ring radii subtracted per the FAI rule.
func (t *OrderedTask) ScanDistanceNominal() float64 {
	if len(t.points) == 0 {
		return 0
	}

	d := 0.
	for i := 1; i < len(t.points); i++ {
		d += t.points[i-1].GetLocation().Distance(t.points[i].GetLocation())
	}

	if !t.settings.SubtractStartFinishCylinderRadius {
		return d
	}

	if radius := t.points[0].Zone.CylinderRadiusOrMinusOne(); radius > 0 && radius < d {
		d -= radius
	}
	if len(t.points) > 1 {
		if radius := t.points[len(t.points)-1].Zone.CylinderRadiusOrMinusOne(); radius > 0 && radius < d {
			d -= radius
		}
	}
	return d
}

// ScanDistancePlanned is the distance of the planned route: nominal for
// racing tasks, via the total-max targets for area tasks.
func (t *OrderedTask) ScanDistancePlanned() float64 {
	if t.HasTargets() {
		if d := t.distanceMaxTotalChain(); d > 0 {
			return d
		}
	}
	return t.ScanDistanceNominal()
}

func (t *OrderedTask) distanceMaxTotalChain() float64 {
	sum := 0.
	for i := 1; i < len(t.points); i++ {
		a := t.points[i-1].GetSearchMaxTotal()
		b := t.points[i].GetSearchMaxTotal()
		if !a.Location.IsValid() || !b.Location.IsValid() {
			return 0
		}
		sum += a.Location.Distance(b.Location)
	}
	return sum
}

// ScanDistanceRemaining is the distance left to fly from the given
// location through the remaining task.
func (t *OrderedTask) ScanDistanceRemaining(location geo.GeoPoint) float64 {
	if len(t.points) == 0 || !location.IsValid() {
		return 0
	}
	return t.ScanDistanceMin(location, false)
}

// ScanDistanceTravelled is the distance achieved along the scored
// states up to the aircraft's current position.
func (t *OrderedTask) ScanDistanceTravelled(location geo.GeoPoint) float64 {
	if len(t.points) == 0 || !t.TaskStarted(true) {
		return 0
	}

	sum := 0.
	last := t.points[0].GetScoredState().Location
	if !last.IsValid() {
		return 0
	}

	for i := 1; i <= t.activeIndex && i < len(t.points); i++ {
		scored := t.points[i].GetScoredState().Location
		if !scored.IsValid() {
			break
		}
		sum += last.Distance(scored)
		last = scored
	}

	if location.IsValid() {
		sum += last.Distance(location)
	}
	return sum
}

// ScanDistanceScored is the scored distance achieved so far: travelled
// distance through the scored states without the current leg in
// progress.
func (t *OrderedTask) ScanDistanceScored(location geo.GeoPoint) float64 {
	if len(t.points) == 0 {
		return 0
	}
	return t.ScanDistanceTravelled(geo.InvalidGeoPoint())
}

///////////////////////////////////////////////////////////////////////////
// Stats aggregation

// updateStatsDistances refreshes the distance stats after the transition
// pass; full forces the solvers to run.
func (t *OrderedTask) updateStatsDistances(location geo.GeoPoint, full bool) {
	t.stats.Total.Planned.SetDistance(t.ScanDistancePlanned())

	if t.TaskSize() < 2 {
		return
	}

	if full {
		t.stats.Total.Maximum.SetDistance(t.ScanDistanceMax())
		if t.HasTargets() {
			t.ScanDistanceMaxTotal()
			t.stats.Total.Planned.SetDistance(t.ScanDistancePlanned())
		}
	}

	if !location.IsValid() {
		return
	}

	dmin := t.ScanDistanceMin(location, full)
	t.stats.Total.Minimum.SetDistance(dmin)
	t.stats.Total.Remaining.SetDistance(dmin)
	t.stats.Total.Travelled.SetDistance(t.ScanDistanceTravelled(location))

	if active := t.GetActiveTaskPoint(); active != nil {
		target := active.GetSearchMin()
		leg := location.Distance(target.Location)
		if !target.Location.IsValid() {
			leg = location.Distance(active.GetLocation())
		}
		t.stats.CurrentLeg.Remaining.SetDistance(leg)
	}
}

// Update is the per-fix pipeline: transitions, then a distance rescan
// (full only when the scored geometry changed), then the cheap sample
// stats. Returns whether a full re-solve happened.
func (t *OrderedTask) Update(state, stateLast AircraftState, glidePolar GlidePolar) bool {
	fullUpdate := t.CheckTransitions(state, stateLast) || t.forceFullUpdate
	t.forceFullUpdate = false

	t.updateStatsDistances(state.Location, fullUpdate)
	t.UpdateSample(state, glidePolar, fullUpdate)

	if t.stats.Start.HasStarted() && state.HasTime() {
		t.stats.Total.TimeElapsed = state.Time - t.stats.Start.Time
		if legStart := t.ScanLegStartTime(); legStart >= 0 {
			t.stats.CurrentLeg.TimeElapsed = state.Time - legStart
		}
	}

	return fullUpdate
}
