// task/ordered_test.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	gomath "math"
	"testing"
	"time"

	"github.com/soaringlab/glidetask/geo"
)

// TestSimpleRacingStartFinish flies a two-cylinder racing task from
// start exit to finish entry and checks the committed scoring state.
func TestSimpleRacingStartFinish(t *testing.T) {
	ot := makeRacingTask(t, 1000, 1000)
	ev := &recordingEvents{}
	ot.SetTaskEvents(ev)

	startLoc := ot.GetPoint(0).GetLocation()
	finishLoc := ot.GetPoint(1).GetLocation()

	a := testFix(startLoc.Offset(gomath.Pi, 3000), 0, 1000, 30)
	b := testFix(startLoc, 50, 1000, 30)
	c := testFix(startLoc.Offset(0, 1500), 100, 1000, 30)
	d := testFix(finishLoc.Offset(gomath.Pi, 500), 4000, 800, 30)

	ot.Update(b, a, nil)
	if ot.TaskStarted(false) {
		t.Fatalf("must not be started after entering the start zone")
	}
	if ev.enters != 1 {
		t.Errorf("enters = %d, expected 1", ev.enters)
	}

	ot.Update(c, b, nil)
	if !ot.TaskStarted(false) {
		t.Fatalf("must be started after exiting the start zone")
	}
	if ev.taskStarts != 1 {
		t.Errorf("taskStarts = %d, expected 1", ev.taskStarts)
	}
	if ot.GetActiveIndex() != 1 {
		t.Errorf("active index = %d, expected 1", ot.GetActiveIndex())
	}

	stats := ot.GetStats()
	if stats.Start.Time != 100 || stats.Start.Altitude != 1000 || stats.Start.GroundSpeed != 30 {
		t.Errorf("start stats = %+v, expected {100 1000 30}", stats.Start)
	}
	if stats.Start.AdvancedByPEV {
		t.Errorf("start must not be marked as PEV advanced")
	}

	ot.Update(d, c, nil)
	stats = ot.GetStats()
	if !stats.TaskFinished {
		t.Errorf("task must be finished")
	}
	if ev.taskFinishes != 1 {
		t.Errorf("taskFinishes = %d, expected 1", ev.taskFinishes)
	}

	// A further fix must not re-fire the one-shot events.
	e := testFix(finishLoc, 4100, 800, 30)
	ot.Update(e, d, nil)
	if ev.taskStarts != 1 || ev.taskFinishes != 1 {
		t.Errorf("events re-fired: starts=%d finishes=%d", ev.taskStarts, ev.taskFinishes)
	}

	want := startLoc.Distance(finishLoc) - 2000
	if got := ot.ScanDistanceNominal(); gomath.Abs(got-want) > 10 {
		t.Errorf("nominal distance = %.1f, expected %.1f", got, want)
	}
}

// TestNominalRadiusSubtraction pins the FAI ring rule: nominal distance
// is center-to-center minus both cylinder radii.
func TestNominalRadiusSubtraction(t *testing.T) {
	ot := makeRacingTask(t, 1000, 2000)
	d := geo.GeoPointFromDegrees(0, 0).Distance(geo.GeoPointFromDegrees(1, 0))

	if got := ot.ScanDistanceNominal(); gomath.Abs(got-(d-3000)) > 1 {
		t.Errorf("nominal = %.1f, expected %.1f", got, d-3000)
	}

	// With the rule off the radii stay in.
	s := ot.GetOrderedTaskSettings()
	s.SubtractStartFinishCylinderRadius = false
	ot.SetOrderedTaskSettings(s)
	if got := ot.ScanDistanceNominal(); gomath.Abs(got-d) > 1 {
		t.Errorf("nominal without subtraction = %.1f, expected %.1f", got, d)
	}
}

func TestMinNotAboveMax(t *testing.T) {
	ot := makeRacingTask(t, 1000, 1000)

	startLoc := ot.GetPoint(0).GetLocation()

	// Fly through the start so the remaining path is aircraft->finish.
	a := testFix(startLoc.Offset(gomath.Pi, 2000), 0, 1000, 30)
	b := testFix(startLoc, 50, 1000, 30)
	c := testFix(startLoc.Offset(0, 1500), 100, 1000, 30)
	ot.Update(b, a, nil)
	ot.Update(c, b, nil)

	mid := geo.GeoPointFromDegrees(0.5, 0)
	dmin := ot.ScanDistanceMin(mid, true)
	dmax := ot.ScanDistanceMax()
	if dmin > dmax+1 {
		t.Errorf("min %.1f exceeds max %.1f", dmin, dmax)
	}
}

// TestAATAreaPruning is the area task scenario: once the aircraft has
// flown through part of an area zone, the maximum achievable distance
// is bounded by what was actually sampled there.
func TestAATAreaPruning(t *testing.T) {
	tb := DefaultTaskBehaviour()
	tb.TaskTypeDefault = FactoryAAT

	startLoc := geo.GeoPointFromDegrees(0, 0)
	aatLoc := geo.GeoPointFromDegrees(0.5, 0)
	finishLoc := geo.GeoPointFromDegrees(1, 0)

	ot := New(tb, nil)
	if !ot.Append(MakeStartPoint(testWaypoint("START", startLoc), NewCylinderZone(startLoc, 1000))) {
		t.Fatalf("append start")
	}
	if !ot.Append(MakeIntermediatePoint(FactoryAAT, testWaypoint("AREA", aatLoc), NewCylinderZone(aatLoc, 5000))) {
		t.Fatalf("append area")
	}
	if !ot.Append(MakeFinishPoint(testWaypoint("FINISH", finishLoc), NewCylinderZone(finishLoc, 1000))) {
		t.Fatalf("append finish")
	}
	ot.UpdateGeometry()
	ot.Advance().Mode = AdvanceAuto

	if p, ok := ot.GetPoint(1).AsAAT(); !ok || p == nil {
		t.Fatalf("point 1 should be an area point")
	}
	if !ot.GetStats().TaskValid {
		t.Fatalf("AAT task should validate: %s", ot.CheckTask())
	}

	// Through the start.
	a := testFix(startLoc.Offset(gomath.Pi, 2000), 0, 1000, 30)
	b := testFix(startLoc, 50, 1000, 30)
	c := testFix(startLoc.Offset(0, 1500), 100, 1000, 30)
	ot.Update(b, a, nil)
	ot.Update(c, b, nil)
	if ot.GetActiveIndex() != 1 {
		t.Fatalf("active = %d after start", ot.GetActiveIndex())
	}

	maxBefore := ot.ScanDistanceMax()

	// Enter the area near its east edge, linger, and leave west.
	east := geo.Radians(90)
	west := geo.Radians(270)
	e1 := testFix(aatLoc.Offset(east, 4400), 200, 1200, 30)
	e2 := testFix(aatLoc.Offset(east, 3000), 260, 1200, 30)
	e3 := testFix(aatLoc.Offset(west, 6000), 300, 1200, 30)
	ot.Update(e1, c, nil)
	if ot.GetActiveIndex() != 2 {
		t.Fatalf("active = %d after entering the area", ot.GetActiveIndex())
	}
	ot.Update(e2, e1, nil)
	ot.Update(e3, e2, nil)

	maxAfter := ot.ScanDistanceMax()
	if maxAfter > maxBefore+1 {
		t.Errorf("max after pruning %.1f exceeds before %.1f", maxAfter, maxBefore)
	}
	if maxAfter > maxBefore-20 {
		t.Errorf("sampling only part of the area should prune the max: before %.1f after %.1f",
			maxBefore, maxAfter)
	}

	// The chosen area point must lie within the zone.
	sp := ot.GetPoint(1).GetSearchMax()
	if d := aatLoc.Distance(sp.Location); d > 5001 {
		t.Errorf("chosen area point %.1f m from center", d)
	}
}

// TestOptionalStartSelection: crossing an alternate start swaps it into
// slot 0 and retires the primary into the optional list.
func TestOptionalStartSelection(t *testing.T) {
	ot := makeRacingTask(t, 1000, 1000)

	o1Loc := geo.GeoPointFromDegrees(0, 0.1)
	o2Loc := geo.GeoPointFromDegrees(0, 0.2)
	ot.AppendOptionalStart(MakeStartPoint(testWaypoint("OPT1", o1Loc), NewCylinderZone(o1Loc, 1000)))
	ot.AppendOptionalStart(MakeStartPoint(testWaypoint("OPT2", o2Loc), NewCylinderZone(o2Loc, 1000)))
	ot.UpdateGeometry()

	outside := testFix(o2Loc.Offset(gomath.Pi, 3000), 0, 1000, 30)
	inside := testFix(o2Loc, 50, 1000, 30)
	ot.Update(inside, outside, nil)

	if got := ot.GetPoint(0).Waypoint.Name; got != "OPT2" {
		t.Errorf("slot 0 = %q, expected OPT2", got)
	}
	if got := ot.GetOptionalStart(1).Waypoint.Name; got != "START" {
		t.Errorf("optional[1] = %q, expected the former primary", got)
	}
	if got := ot.GetOptionalStart(0).Waypoint.Name; got != "OPT1" {
		t.Errorf("optional[0] = %q, expected OPT1", got)
	}
	if !ot.GetPoint(0).HasEntered() {
		t.Errorf("selected start should carry its enter transition")
	}
}

// TestPEVStartWindow is the pilot event scenario: a PEV at 12:03:20 with
// a five minute wait and a ten minute window opens [12:09, 12:19].
func TestPEVStartWindow(t *testing.T) {
	ot := makeRacingTask(t, 1000, 1000)
	s := ot.GetOrderedTaskSettings()
	s.Start.ScorePEV = false
	s.Start.PEVStartWaitTime = 5 * time.Minute
	s.Start.PEVStartWindow = 10 * time.Minute
	ot.SetOrderedTaskSettings(s)

	const fixTime = 12*3600 + 3*60 + 20

	// No fix seen yet: the event is rejected.
	if ot.SetPEV(BrokenTimeFromSeconds(fixTime)) {
		t.Fatalf("SetPEV should fail without a fix")
	}

	ot.lastStateTime = fixTime
	if !ot.SetPEV(BrokenTimeFromSeconds(fixTime)) {
		t.Fatalf("SetPEV should succeed")
	}

	ot.UpdateAfterPEV(AircraftState{Time: fixTime, Location: geo.GeoPointFromDegrees(0, 0), Flying: true})

	span := ot.GetOrderedTaskSettings().Start.OpenTimeSpan
	if want := RoughTime(12*60 + 9); span.Start != want {
		t.Errorf("window start = %s, expected %s", span.Start, want)
	}
	if want := RoughTime(12*60 + 19); span.End != want {
		t.Errorf("window end = %s, expected %s", span.End, want)
	}
}

func TestPEVScoredGate(t *testing.T) {
	ot := makeRacingTask(t, 1000, 1000)
	s := ot.GetOrderedTaskSettings()
	s.Start.ScorePEV = true
	s.Start.PEVStartWaitTime = 2 * time.Minute
	ot.SetOrderedTaskSettings(s)

	const fixTime = 10 * 3600.
	ot.lastStateTime = fixTime
	if !ot.SetPEV(BrokenTimeFromSeconds(fixTime)) {
		t.Fatalf("first pilot event should be accepted")
	}
	ot.UpdateAfterPEV(AircraftState{Time: fixTime, Flying: true})

	span := ot.GetOrderedTaskSettings().Start.OpenTimeSpan
	if want := RoughTime(10*60 + 2); span.Start != want {
		t.Errorf("window start = %s, expected %s", span.Start, want)
	}
	if span.End.IsValid() {
		t.Errorf("a scored PEV gate must not have a closing time")
	}
	if !ot.GetStats().PEVBasedAdvanceReady {
		t.Errorf("PEV advance must be ready")
	}

	// A second event before the personal window begins is rejected.
	if ot.SetPEV(BrokenTimeFromSeconds(fixTime + 30)) {
		t.Errorf("pilot event before the window begins should be rejected")
	}
}

// TestIncrementalRescan pins the 5%/2000m reuse rule: ordinary motion
// reuses the previous solution, a 10%+ move re-solves.
func TestIncrementalRescan(t *testing.T) {
	ot := makeRacingTask(t, 1000, 1000)
	startLoc := ot.GetPoint(0).GetLocation()

	locA := startLoc.Offset(gomath.Pi, 10000)
	first := ot.ScanDistanceMin(locA, true)
	if ot.dijkstraMin == nil || ot.dijkstraMin.solves != 1 {
		t.Fatalf("expected one solve after the full scan")
	}

	// Same location: below the movement threshold, no solve.
	ot.ScanDistanceMin(locA, false)
	if ot.dijkstraMin.solves != 1 {
		t.Errorf("solver ran for an insignificant move")
	}

	// 100 m closer: 1% change, no solve, same value.
	locB := startLoc.Offset(gomath.Pi, 9900)
	if got := ot.ScanDistanceMin(locB, false); got != first {
		t.Errorf("cached value changed: %.1f vs %.1f", got, first)
	}
	if ot.dijkstraMin.solves != 1 {
		t.Errorf("solver ran for a 1%% move")
	}

	// 1500 m closer in total: 15% change, must re-solve.
	locC := startLoc.Offset(gomath.Pi, 8500)
	ot.ScanDistanceMin(locC, false)
	if ot.dijkstraMin.solves != 2 {
		t.Errorf("solver did not run for a 15%% move: solves=%d", ot.dijkstraMin.solves)
	}
}

// TestRemoveActive is the structural scenario: removing a point below
// the active index shifts the index and rewires the neighbours.
func TestRemoveActive(t *testing.T) {
	ot := makeNPointTask(t, 4)
	ot.SetActiveTaskPoint(2)

	if !ot.Remove(1) {
		t.Fatalf("remove failed")
	}
	if got := ot.TaskSize(); got != 3 {
		t.Errorf("size = %d, expected 3", got)
	}
	if got := ot.GetActiveIndex(); got != 1 {
		t.Errorf("active = %d, expected 1", got)
	}

	p0, p1, p2 := ot.GetPoint(0), ot.GetPoint(1), ot.GetPoint(2)
	if !p0.hasNext || p0.nextLocation != p1.GetLocation() {
		t.Errorf("slot 0 next neighbour not rewired")
	}
	if !p1.hasPrev || p1.prevLocation != p0.GetLocation() {
		t.Errorf("slot 1 prev neighbour not rewired")
	}
	if !p1.hasNext || p1.nextLocation != p2.GetLocation() {
		t.Errorf("slot 1 next neighbour not rewired")
	}
	if p0.hasPrev {
		t.Errorf("slot 0 must have no predecessor")
	}
}

// TestRemoveActiveIndexAdjustment pins the active index adjustment for
// both the legacy expression and the plain one.
func TestRemoveActiveIndexAdjustment(t *testing.T) {
	tests := []struct {
		name       string
		legacy     bool
		size       int
		active     int
		remove     int
		wantActive int
	}{
		{"legacy below active", true, 4, 2, 1, 1},
		{"legacy above active", true, 4, 1, 3, 1},
		{"legacy active is last, remove it", true, 3, 2, 2, 1},
		{"legacy active is last, remove first", true, 4, 3, 0, 2},
		{"plain below active", false, 4, 2, 1, 1},
		{"plain above active", false, 4, 1, 3, 1},
		{"plain active is last, remove it", false, 3, 2, 2, 1},
		{"plain active is last, remove first", false, 4, 3, 0, 2},
	}

	for _, tc := range tests {
		ot := makeNPointTask(t, tc.size)
		s := ot.GetOrderedTaskSettings()
		s.EmulateLegacyRemove = tc.legacy
		ot.SetOrderedTaskSettings(s)
		ot.SetActiveTaskPoint(tc.active)

		if !ot.Remove(tc.remove) {
			t.Fatalf("%s: remove failed", tc.name)
		}
		if got := ot.GetActiveIndex(); got != tc.wantActive {
			t.Errorf("%s: active = %d, expected %d", tc.name, got, tc.wantActive)
		}
		if got := ot.GetActiveIndex(); got >= ot.TaskSize() {
			t.Errorf("%s: active %d out of range for size %d", tc.name, got, ot.TaskSize())
		}
	}
}

func TestInsertNeighbours(t *testing.T) {
	ot := makeNPointTask(t, 4)
	ot.SetActiveTaskPoint(2)

	loc := geo.GeoPointFromDegrees(0.75, 0.1)
	p := MakeIntermediatePoint(FactoryRacing, testWaypoint("NEW", loc), NewCylinderZone(loc, 1000))
	if !ot.Insert(p, 2) {
		t.Fatalf("insert failed")
	}

	if got := ot.TaskSize(); got != 5 {
		t.Errorf("size = %d", got)
	}
	if got := ot.GetPoint(2).Waypoint.Name; got != "NEW" {
		t.Errorf("slot 2 = %q", got)
	}
	// inserting at or before the active index moves it along
	if got := ot.GetActiveIndex(); got != 3 {
		t.Errorf("active = %d, expected 3", got)
	}

	for k := 1; k <= 3; k++ {
		p := ot.GetPoint(k)
		if p.prevLocation != ot.GetPoint(k-1).GetLocation() {
			t.Errorf("slot %d prev neighbour inconsistent", k)
		}
		if p.nextLocation != ot.GetPoint(k+1).GetLocation() {
			t.Errorf("slot %d next neighbour inconsistent", k)
		}
	}
}

func TestMutationRejections(t *testing.T) {
	ot := makeNPointTask(t, 3)

	startLoc := geo.GeoPointFromDegrees(0, 0.5)
	finishLoc := geo.GeoPointFromDegrees(1, 0.5)

	// A second start cannot be appended or inserted mid-task.
	if ot.Append(MakeStartPoint(testWaypoint("S2", startLoc), NewCylinderZone(startLoc, 1000))) {
		t.Errorf("appending a start after the task began must fail")
	}
	if ot.Insert(MakeStartPoint(testWaypoint("S2", startLoc), NewCylinderZone(startLoc, 1000)), 1) {
		t.Errorf("inserting a start mid-task must fail")
	}
	// Nothing may follow a finish.
	if ot.Insert(MakeFinishPoint(testWaypoint("F2", finishLoc), NewCylinderZone(finishLoc, 1000)), 1) {
		t.Errorf("inserting a finish mid-task must fail")
	}

	// Out-of-range mutations return false without effect.
	if ot.Remove(7) || ot.Replace(ot.GetPoint(0), 9) {
		t.Errorf("out of range mutation must fail")
	}
	if ot.TaskSize() != 3 {
		t.Errorf("failed mutations must not modify the task")
	}
}

func TestCommitIdempotent(t *testing.T) {
	src := makeNPointTask(t, 3)
	src.SetName("evening task")
	clone := src.Clone(src.GetBehaviour())

	dst := New(DefaultTaskBehaviour(), nil)
	if !dst.Commit(clone) {
		t.Fatalf("first commit onto an empty task must modify it")
	}
	if dst.Commit(clone) {
		t.Errorf("second commit must be a no-op")
	}

	if dst.TaskSize() != src.TaskSize() {
		t.Errorf("size %d after commit, expected %d", dst.TaskSize(), src.TaskSize())
	}
	for i := 0; i < dst.TaskSize(); i++ {
		if !dst.GetPoint(i).Equal(src.GetPoint(i)) {
			t.Errorf("slot %d differs after commit", i)
		}
	}
	if dst.GetName() != "evening task" {
		t.Errorf("name = %q", dst.GetName())
	}

	// Shrinking commit removes the tail.
	short := makeNPointTask(t, 2)
	if !dst.Commit(short.Clone(short.GetBehaviour())) {
		t.Errorf("shrinking commit must modify")
	}
	if dst.TaskSize() != 2 {
		t.Errorf("size %d after shrinking commit", dst.TaskSize())
	}
}

func TestCloneIndependence(t *testing.T) {
	src := makeNPointTask(t, 3)
	clone := src.Clone(src.GetBehaviour())

	if clone.TaskSize() != 3 {
		t.Fatalf("clone size %d", clone.TaskSize())
	}

	// Mutating the clone leaves the source untouched.
	clone.Remove(1)
	if src.TaskSize() != 3 {
		t.Errorf("source modified through clone")
	}

	loc := geo.GeoPointFromDegrees(2, 2)
	clone.GetPoint(0).Waypoint.Location = loc
	if src.GetPoint(0).Waypoint.Location == loc {
		t.Errorf("clone shares point storage with source")
	}
}

func TestResetClearsProgress(t *testing.T) {
	ot := makeRacingTask(t, 1000, 1000)
	startLoc := ot.GetPoint(0).GetLocation()

	a := testFix(startLoc.Offset(gomath.Pi, 2000), 0, 1000, 30)
	b := testFix(startLoc, 50, 1000, 30)
	c := testFix(startLoc.Offset(0, 1500), 100, 1000, 30)
	ot.Update(b, a, nil)
	ot.Update(c, b, nil)

	if !ot.TaskStarted(false) || ot.GetActiveIndex() != 1 {
		t.Fatalf("setup: task should have started")
	}

	ot.Reset()

	if ot.TaskStarted(false) {
		t.Errorf("reset must clear the start")
	}
	if ot.GetActiveIndex() != 0 {
		t.Errorf("reset must rewind the active index")
	}
	if ot.GetStats().Start.HasStarted() {
		t.Errorf("reset must clear the start stats")
	}
	if ot.GetPoint(0).HasEntered() || ot.GetPoint(0).HasExited() {
		t.Errorf("reset must clear the point state")
	}
}

// TestFAIFinishHeightPropagation pins when a settings change recomputes
// the finish floor: only once the start point is behind the aircraft.
func TestFAIFinishHeightPropagation(t *testing.T) {
	ot := makeRacingTask(t, 1000, 1000)
	startLoc := ot.GetPoint(0).GetLocation()

	s := ot.GetOrderedTaskSettings()
	s.Finish.FAIFinish = true
	ot.SetOrderedTaskSettings(s)

	// Before the start the finish floor stays untouched.
	if got := ot.GetPoint(1).faiFinishHeight; got != 0 {
		t.Errorf("finish height before start = %v, expected 0", got)
	}

	// Start at 1800 m.
	a := testFix(startLoc.Offset(gomath.Pi, 2000), 0, 1800, 30)
	b := testFix(startLoc, 50, 1800, 30)
	c := testFix(startLoc.Offset(0, 1500), 100, 1800, 30)
	ot.Update(b, a, nil)
	ot.Update(c, b, nil)

	// The transition pass recomputes the floor from the start altitude.
	if got := ot.GetPoint(1).faiFinishHeight; gomath.Abs(got-800) > 1e-9 {
		t.Errorf("finish height after start = %v, expected 800", got)
	}

	// A mid-task settings change recomputes it again, since the start is
	// now BeforeActive.
	s = ot.GetOrderedTaskSettings()
	s.Finish.MinHeight = 900
	ot.SetOrderedTaskSettings(s)
	if got := ot.GetPoint(1).faiFinishHeight; gomath.Abs(got-900) > 1e-9 {
		t.Errorf("finish height after settings change = %v, expected 900", got)
	}
}

func TestValidation(t *testing.T) {
	ot := New(DefaultTaskBehaviour(), nil)
	if errs := ot.CheckTask(); errs&ErrTaskEmpty == 0 {
		t.Errorf("empty task should report ErrTaskEmpty")
	}

	loc := geo.GeoPointFromDegrees(0, 0)
	ot.Append(MakeIntermediatePoint(FactoryRacing, testWaypoint("TP", loc), NewCylinderZone(loc, 1000)))
	if errs := ot.CheckTask(); errs&ErrNoValidStart == 0 {
		t.Errorf("task without start should report ErrNoValidStart")
	}

	ot2 := makeNPointTask(t, 3)
	if errs := ot2.CheckTask(); errs.IsError() {
		t.Errorf("valid racing task reports %s", errs)
	}
	if errs := ot2.CheckTask(); errs&ErrNoValidFinish != 0 {
		t.Errorf("task with finish reports ErrNoValidFinish")
	}
}

func TestCalcGradient(t *testing.T) {
	ot := makeRacingTask(t, 1000, 1000)
	ot.SetActiveTaskPoint(1)

	// 2000 m above the finish elevation, one degree out.
	state := testFix(geo.GeoPointFromDegrees(0, 0), 100, 2000, 30)
	d := state.Location.Distance(ot.GetPoint(1).GetLocation())

	g := ot.CalcGradient(state)
	if want := 2000 / d; gomath.Abs(g-want) > 1e-9 {
		t.Errorf("gradient = %v, expected %v", g, want)
	}

	// Required glide as a fraction of a 40:1 polar.
	polar := stubPolar{mc: 1.0, ld: 40}
	req := ot.CalcRequiredGlide(state, polar)
	if want := (d / 2000) / 40; gomath.Abs(req-want) > 1e-9 {
		t.Errorf("required glide = %v, expected %v", req, want)
	}

	if got := ot.CalcRequiredGlide(state, nil); got != 0 {
		t.Errorf("nil polar should yield 0, got %v", got)
	}
}

func TestActiveIndexMonotonicDuringFlight(t *testing.T) {
	ot := makeNPointTask(t, 3)
	prev := ot.GetActiveIndex()

	locs := []geo.GeoPoint{
		geo.GeoPointFromDegrees(-0.05, 0),
		geo.GeoPointFromDegrees(0, 0),
		geo.GeoPointFromDegrees(0.05, 0),
		geo.GeoPointFromDegrees(0.5, 0),
		geo.GeoPointFromDegrees(0.52, 0),
		geo.GeoPointFromDegrees(0.3, 0), // fly backwards
		geo.GeoPointFromDegrees(0.5, 0),
		geo.GeoPointFromDegrees(1, 0),
	}
	last := testFix(locs[0], 0, 1500, 30)
	for i, loc := range locs[1:] {
		state := testFix(loc, float64(100*(i+1)), 1500, 30)
		ot.Update(state, last, nil)
		last = state

		if got := ot.GetActiveIndex(); got < prev {
			t.Fatalf("active index went backwards: %d -> %d", prev, got)
		} else {
			prev = got
		}
	}

	if !ot.GetStats().TaskFinished {
		t.Errorf("task should have finished")
	}
	for i := 0; i < ot.TaskSize(); i++ {
		p := ot.GetPoint(i)
		if p.HasExited() && !p.HasEntered() {
			t.Errorf("point %d: exited without entered", i)
		}
	}
}
