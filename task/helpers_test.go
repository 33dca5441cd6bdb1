// task/helpers_test.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"testing"

	"github.com/soaringlab/glidetask/geo"
	"github.com/soaringlab/glidetask/waypoint"
)

func testWaypoint(name string, loc geo.GeoPoint) waypoint.Waypoint {
	return waypoint.Waypoint{Name: name, Location: loc}
}

func testFix(loc geo.GeoPoint, tm, alt, gs float64) AircraftState {
	return AircraftState{Location: loc, Time: tm, Altitude: alt, GroundSpeed: gs, Flying: true}
}

// makeRacingTask builds a two-point cylinder task: start at (0,0),
// finish one degree north, both with the given radii.
func makeRacingTask(t *testing.T, startRadius, finishRadius float64) *OrderedTask {
	t.Helper()

	startLoc := geo.GeoPointFromDegrees(0, 0)
	finishLoc := geo.GeoPointFromDegrees(1, 0)

	ot := New(DefaultTaskBehaviour(), nil)
	if !ot.Append(MakeStartPoint(testWaypoint("START", startLoc), NewCylinderZone(startLoc, startRadius))) {
		t.Fatalf("append start failed")
	}
	if !ot.Append(MakeFinishPoint(testWaypoint("FINISH", finishLoc), NewCylinderZone(finishLoc, finishRadius))) {
		t.Fatalf("append finish failed")
	}
	ot.UpdateGeometry()
	ot.Advance().Mode = AdvanceAuto
	return ot
}

// makeNPointTask builds a racing task with n-2 intermediate cylinders
// spaced evenly between start and finish.
func makeNPointTask(t *testing.T, n int) *OrderedTask {
	t.Helper()
	if n < 2 {
		t.Fatalf("task needs at least two points")
	}

	ot := New(DefaultTaskBehaviour(), nil)
	for i := 0; i < n; i++ {
		loc := geo.GeoPointFromDegrees(float64(i)*0.5, 0)
		wp := testWaypoint("TP"+string(rune('0'+i)), loc)
		var tp *TaskPoint
		switch i {
		case 0:
			tp = MakeStartPoint(wp, NewCylinderZone(loc, 1000))
		case n - 1:
			tp = MakeFinishPoint(wp, NewCylinderZone(loc, 1000))
		default:
			tp = MakeIntermediatePoint(FactoryRacing, wp, NewCylinderZone(loc, 1000))
		}
		if !ot.Append(tp) {
			t.Fatalf("append point %d failed", i)
		}
	}
	ot.UpdateGeometry()
	ot.Advance().Mode = AdvanceAuto
	return ot
}

// stubPolar is a fixed-figures glide polar for tests.
type stubPolar struct {
	mc, ld float64
}

func (p stubPolar) GetMC() float64          { return p.mc }
func (p stubPolar) BestGlideRatio() float64 { return p.ld }

// recordingEvents counts the fired callbacks.
type recordingEvents struct {
	enters, exits, advances, armRequests int
	taskStarts, taskFinishes             int
	lastAdvancedIndex                    int
}

func (e *recordingEvents) EnterTransition(p *TaskPoint) { e.enters++ }
func (e *recordingEvents) ExitTransition(p *TaskPoint)  { e.exits++ }
func (e *recordingEvents) ActiveAdvanced(p *TaskPoint, index int) {
	e.advances++
	e.lastAdvancedIndex = index
}
func (e *recordingEvents) RequestArm(p *TaskPoint) { e.armRequests++ }
func (e *recordingEvents) TaskStart()              { e.taskStarts++ }
func (e *recordingEvents) TaskFinish()             { e.taskFinishes++ }
