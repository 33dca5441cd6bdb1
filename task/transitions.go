// task/transitions.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"log/slog"
	"time"

	"github.com/soaringlab/glidetask/geo"
)

// CheckTransitions runs the per-fix state machine: zone enter/exit
// detection around the active index, optional start selection, advance
// arming, and the irreversible start/finish commits. Fix times must be
// non-decreasing across calls. Returns true when the scored geometry
// changed and the next distance scan must fully re-solve.
func (t *OrderedTask) CheckTransitions(state, stateLast AircraftState) bool {
	start := t.startPoint()
	if start == nil {
		return false
	}

	if t.pevReceived {
		t.UpdateAfterPEV(state)
	}
	if state.HasTime() {
		t.lastStateTime = state.Time
	}

	t.ScanActive()

	if !state.Flying {
		return false
	}

	n := len(t.points)
	if n == 0 {
		return false
	}

	bbLast := geo.FlatBoundingBoxAround(t.projection.ProjectInteger(stateLast.Location), 1)
	bbNow := geo.FlatBoundingBoxAround(t.projection.ProjectInteger(state.Location), 1)

	lastStartedTime := t.stats.Start.GetStartedTime()
	lastFinished := t.stats.TaskFinished

	tMin := max(0, t.activeIndex-1)
	tMax := min(n-1, t.activeIndex)
	fullUpdate := false

	for i := tMin; i <= tMax; i++ {
		var transitionEnter, transitionExit bool

		if i == 0 {
			fullUpdate = t.checkTransitionOptionalStart(state, stateLast, bbNow, bbLast,
				&transitionEnter, &transitionExit) || fullUpdate
		}

		fullUpdate = t.checkTransitionPoint(t.points[i], state, stateLast, bbNow, bbLast,
			&transitionEnter, &transitionExit, i == 0) || fullUpdate

		if i == t.activeIndex {
			lastRequestArmed := t.advance.NeedToArm()

			if t.advance.CheckReadyToAdvance(t.points[i], state, transitionEnter, transitionExit) {
				t.advance.SetArmed(false)

				if i+1 < n {
					i++
					t.SetActiveTaskPoint(i)
					t.ScanActive()

					if t.events != nil {
						t.events.ActiveAdvanced(t.points[i], i)
					}

					// the active point changed, so the next distance
					// scan must re-solve in full
					fullUpdate = true
				}
			} else if !lastRequestArmed && t.advance.NeedToArm() {
				if t.events != nil {
					t.events.RequestArm(t.points[i])
				}
			}
		}
	}

	t.stats.NeedToArm = t.advance.NeedToArm()

	t.ScanActive()

	finish := t.finishPoint()
	t.stats.TaskFinished = finish != nil && finish.HasEntered()

	// An optional start selection may have swapped slot 0.
	start = t.startPoint()

	if start != nil && t.TaskStarted(false) {
		startState := start.GetScoredState()
		pev := t.stats.Start.AdvancedByPEV || t.stats.PEVBasedAdvanceReady
		t.stats.Start.SetStarted(startState, pev)
		t.stats.PEVBasedAdvanceReady = false

		if finish != nil {
			// Calculation based on FAI finish or max height loss
			finish.SetFAIFinishHeight(finish.CalculateFinishHeightFromStart(t.stats.Start.Altitude, t.settings.Finish))
		}
	}

	if t.events != nil {
		if t.stats.Start.GetStartedTime() > lastStartedTime {
			t.events.TaskStart()
		}
		if t.stats.TaskFinished && !lastFinished {
			t.events.TaskFinish()
		}
	}

	return fullUpdate
}

// checkTransitionOptionalStart runs the transition check over the
// alternate start points; any transition selects that start. Rules for
// multiple start points are that the last start zone flown through is
// the one scored, so the pilot has no choice in this.
func (t *OrderedTask) checkTransitionOptionalStart(state, stateLast AircraftState,
	bbNow, bbLast geo.FlatBoundingBox, transitionEnter, transitionExit *bool) bool {

	fullUpdate := false

	for i := range t.optionalStarts {
		fullUpdate = t.checkTransitionPoint(t.optionalStarts[i], state, stateLast,
			bbNow, bbLast, transitionEnter, transitionExit, true) || fullUpdate

		if *transitionEnter || *transitionExit {
			// we have entered or exited this optional start point, so
			// select it.
			t.SelectOptionalStart(i)
			return fullUpdate
		}
	}
	return fullUpdate
}

func (t *OrderedTask) checkTransitionPoint(point *TaskPoint, state, stateLast AircraftState,
	bbNow, bbLast geo.FlatBoundingBox, transitionEnter, transitionExit *bool, isStart bool) bool {

	nearby := point.BoundingBoxOverlaps(bbNow) || point.BoundingBoxOverlaps(bbLast)

	if nearby && point.TransitionEnter(state, stateLast) {
		*transitionEnter = true

		if t.events != nil {
			t.events.EnterTransition(point)
		}
		t.lg.Debug("enter transition", slog.Any("point", point))
	}

	if nearby && point.TransitionExit(state, stateLast, t.stats.PEVBasedAdvanceReady, t.startGateOpen(state)) {
		*transitionExit = true

		if t.events != nil {
			t.events.ExitTransition(point)
		}
		t.lg.Debug("exit transition", slog.Any("point", point))
	}

	if isStart {
		t.updateStartTransition(state, point)
	}

	if nearby {
		return point.UpdateSampleNear(state, t.projection)
	}
	return point.UpdateSampleFar(state, t.projection)
}

// updateStartTransition maintains the start point while it still
// matters: before the start it tracks the boundary point giving the
// shortest way onto the first leg; after an invalid drift out of the
// zone it rewinds the sampled state to the nominal start.
func (t *OrderedTask) updateStartTransition(state AircraftState, start *TaskPoint) {
	if t.activeIndex == 0 {
		// find boundary point that produces shortest distance from state
		// to that point to next tp point
		if len(t.points) > 1 {
			t.findBestStart(state, start)
		}
	} else if !start.HasExited() && !start.IsInSector(state) {
		// reset on invalid transition to outside point to nominal start
		// point
		start.Reset()
	}
}

func (t *OrderedTask) findBestStart(state AircraftState, start *TaskPoint) {
	next := t.points[1].GetLocation()

	bestD := -1.
	var best geo.SearchPoint
	for _, sp := range start.GetBoundaryPoints() {
		d := state.Location.Distance(sp.Location) + sp.Location.Distance(next)
		if bestD < 0 || d < bestD {
			bestD, best = d, sp
		}
	}
	if bestD >= 0 {
		start.SetSearchMin(best)
	}
}

///////////////////////////////////////////////////////////////////////////
// Per-fix updates outside the transition window

// UpdateSample refreshes the cheap per-fix stats; the location must be
// valid (contract, not a runtime error).
func (t *OrderedTask) UpdateSample(state AircraftState, glidePolar GlidePolar, fullUpdate bool) bool {
	if !state.Location.IsValid() {
		return false
	}

	t.stats.InsideOZ = t.activeIndex < len(t.points) &&
		t.points[t.activeIndex].IsInSector(state)

	return true
}

// UpdateIdle performs the non-urgent work that may run at a lower rate
// than the fix stream. With target range optimisation on and an area
// minimum time set, it computes the minimum-time distance (see
// calcMinTarget) and, with bearing optimisation on, aims the active area
// point's running target by bearing. Returns whether that work ran.
func (t *OrderedTask) UpdateIdle(state AircraftState, glidePolar GlidePolar) bool {
	retval := false

	if t.HasStart() && t.behaviour.OptimiseTargetsRange && t.settings.AATMinTime > 0 {
		t.calcMinTarget(state, glidePolar,
			t.settings.AATMinTime+t.behaviour.OptimiseTargetsMargin)

		if t.behaviour.OptimiseTargetsBearing && t.activeIndex < len(t.points) {
			if ap, ok := t.points[t.activeIndex].AsAAT(); ok {
				// Aim the running target at the boundary point ahead on
				// the current bearing rather than the zone center.
				t.optimiseTargetBearing(state, ap)
			}
		}
		retval = true
	}

	return retval
}

// calcMinTarget returns the distance that can be covered in the time left
// before tTarget, at the current ground speed or, when that is not
// positive, at the polar's MacCready value. It returns 0 without targets
// or once tTarget has passed. It does not move the targets.
func (t *OrderedTask) calcMinTarget(state AircraftState, glidePolar GlidePolar, tTarget time.Duration) float64 {
	if !t.stats.HasTargets {
		// only perform scan if modification is possible
		return 0
	}

	tRem := tTarget.Seconds() - t.stats.Total.TimeElapsed
	if tRem <= 0 {
		return 0
	}

	// The achievable distance in the remaining time bounds how far out
	// the targets should sit; past that the solver's max solution is
	// already the best the pilot can do.
	speed := state.GroundSpeed
	if speed <= 0 && glidePolar != nil {
		speed = glidePolar.GetMC()
	}
	return tRem * speed
}

func (t *OrderedTask) optimiseTargetBearing(state AircraftState, ap *TaskPoint) {
	bearing := state.Location.Bearing(ap.GetLocation())

	bestD := -1.
	var best geo.SearchPoint
	for _, sp := range ap.GetBoundaryPoints() {
		if d := angularDifference(state.Location.Bearing(sp.Location), bearing); bestD < 0 || d < bestD {
			bestD, best = d, sp
		}
	}
	if bestD >= 0 {
		ap.SetSearchMax(best)
	}
}

// CalcRequiredGlide returns the fraction of the polar's best glide the
// remaining task demands; above 1 the task cannot be completed without
// climbing.
func (t *OrderedTask) CalcRequiredGlide(state AircraftState, glidePolar GlidePolar) float64 {
	g := t.CalcGradient(state)
	if g <= 0 || glidePolar == nil {
		return 0
	}
	best := glidePolar.BestGlideRatio()
	if best <= 0 {
		return 0
	}
	return (1 / g) / best
}

// CalcGradient returns the glide gradient required to complete the
// remaining task from the given state.
func (t *OrderedTask) CalcGradient(state AircraftState) float64 {
	if len(t.points) == 0 {
		return 0
	}

	// Sum up the leg distances through the remaining turnpoints.
	distance := 0.
	loc := state.Location
	for i := t.activeIndex; i < len(t.points); i++ {
		next := t.points[i].GetLocation()
		distance += loc.Distance(next)
		loc = next
	}

	if distance <= 0 {
		return 0
	}

	// Gradient to the last turnpoint of the remaining task.
	return (state.Altitude - t.points[len(t.points)-1].Waypoint.Elevation) / distance
}
