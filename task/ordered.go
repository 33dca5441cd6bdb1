// task/ordered.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"log/slog"
	"time"

	"github.com/brunoga/deep"
	"github.com/soaringlab/glidetask/geo"
	"github.com/soaringlab/glidetask/log"
	"github.com/soaringlab/glidetask/util"
	"github.com/soaringlab/glidetask/waypoint"
)

// OrderedTask models a competition task as an ordered sequence of task
// points, tracks the aircraft's progress through the sequence as fixes
// arrive, and computes the distances that feed scoring and final glide.
//
// The task is single-writer: all methods must be called from the owning
// navigation thread. Collaborators on other threads consume snapshots of
// GetStats() or subscribe to an EventStream.
type OrderedTask struct {
	behaviour TaskBehaviour
	settings  OrderedTaskSettings
	factory   TaskFactoryType
	name      string

	points         []*TaskPoint
	optionalStarts []*TaskPoint

	projection  geo.FlatProjection
	activeIndex int
	advance     TaskAdvance

	// The solvers are heavy enough to construct that they are created on
	// first use and retained; their buffers are reused across solves.
	dijkstraMin      *taskDijkstra
	dijkstraMax      *taskDijkstra
	dijkstraMaxTotal *taskDijkstra

	stats  Stats
	events TaskEvents
	lg     *log.Logger

	lastMinLocation geo.GeoPoint
	lastMinDistance float64
	forceFullUpdate bool

	lastStateTime  float64
	pevReceived    bool
	pevReceiveTime BrokenTime
}

func New(tb TaskBehaviour, lg *log.Logger) *OrderedTask {
	t := &OrderedTask{
		behaviour:       tb,
		settings:        tb.OrderedDefaults,
		factory:         tb.TaskTypeDefault,
		lg:              lg,
		lastMinLocation: geo.InvalidGeoPoint(),
		lastStateTime:   TimeUndefined,
	}
	t.stats.Reset()
	return t
}

func (t *OrderedTask) SetTaskEvents(ev TaskEvents) { t.events = ev }

func (t *OrderedTask) TaskSize() int       { return len(t.points) }
func (t *OrderedTask) IsEmpty() bool       { return len(t.points) == 0 }
func (t *OrderedTask) GetActiveIndex() int { return t.activeIndex }
func (t *OrderedTask) GetStats() Stats     { return t.stats }
func (t *OrderedTask) GetName() string     { return t.name }
func (t *OrderedTask) SetName(name string) { t.name = name }
func (t *OrderedTask) ClearName()          { t.name = "" }

func (t *OrderedTask) GetFactoryType() TaskFactoryType { return t.factory }

func (t *OrderedTask) GetFactoryConstraints() FactoryConstraints {
	return ConstraintsFor(t.factory)
}

func (t *OrderedTask) GetOrderedTaskSettings() OrderedTaskSettings { return t.settings }

func (t *OrderedTask) GetBehaviour() TaskBehaviour { return t.behaviour }

func (t *OrderedTask) SetTaskBehaviour(tb TaskBehaviour) { t.behaviour = tb }

func (t *OrderedTask) IsFull() bool {
	return t.TaskSize() >= t.GetFactoryConstraints().MaxPoints
}

func (t *OrderedTask) IsScored() bool {
	return t.GetFactoryConstraints().TaskScored
}

func (t *OrderedTask) GetFactoryTypes() []TaskFactoryType {
	return []TaskFactoryType{FactoryRacing, FactoryAAT, FactoryMAT, FactoryFAIGeneral}
}

// GetPoint returns the point at the given position, or nil.
func (t *OrderedTask) GetPoint(i int) *TaskPoint {
	if i < 0 || i >= len(t.points) {
		return nil
	}
	return t.points[i]
}

func (t *OrderedTask) GetOptionalStart(i int) *TaskPoint {
	if i < 0 || i >= len(t.optionalStarts) {
		return nil
	}
	return t.optionalStarts[i]
}

func (t *OrderedTask) OptionalStartCount() int { return len(t.optionalStarts) }

func (t *OrderedTask) startPoint() *TaskPoint {
	if len(t.points) > 0 && t.points[0].Kind == KindStart {
		return t.points[0]
	}
	return nil
}

func (t *OrderedTask) finishPoint() *TaskPoint {
	if len(t.points) > 1 && t.points[len(t.points)-1].Kind == KindFinish {
		return t.points[len(t.points)-1]
	}
	return nil
}

func (t *OrderedTask) HasStart() bool  { return t.startPoint() != nil }
func (t *OrderedTask) HasFinish() bool { return t.finishPoint() != nil }

func (t *OrderedTask) HasOptionalStarts() bool { return len(t.optionalStarts) > 0 }

func (t *OrderedTask) HasTargets() bool {
	for _, p := range t.points {
		if p.Kind == KindAAT {
			return true
		}
	}
	return false
}

// GetActiveTaskPoint returns the point the aircraft is attempting to
// round, or nil for an empty task.
func (t *OrderedTask) GetActiveTaskPoint() *TaskPoint {
	return t.GetPoint(t.activeIndex)
}

// SetActiveTaskPoint moves the active index; a no-op for out-of-range or
// unchanged indices.
func (t *OrderedTask) SetActiveTaskPoint(index int) {
	if index < 0 || index >= len(t.points) || index == t.activeIndex {
		return
	}
	t.advance.SetArmed(false)
	t.activeIndex = index
	t.forceFullUpdate = true
}

func (t *OrderedTask) IsValidTaskPoint(indexOffset int) bool {
	index := t.activeIndex + indexOffset
	return index >= 0 && index < len(t.points)
}

func (t *OrderedTask) Advance() *TaskAdvance { return &t.advance }

// ScanActive refreshes every point's position relative to the active
// index for consumers.
func (t *OrderedTask) ScanActive() {
	for i, p := range t.points {
		switch {
		case i < t.activeIndex:
			p.setActiveState(BeforeActive)
		case i == t.activeIndex:
			p.setActiveState(CurrentActive)
		default:
			p.setActiveState(AfterActive)
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// Structure

// clonePoint deep-copies a point and strips its flight history; points
// handed into the task always start unsampled, as do the points of a
// cloned task.
func clonePoint(p *TaskPoint) *TaskPoint {
	cp := deep.MustCopy(p)
	cp.Reset()
	return cp
}

// setNeighbours rewires the point at the given position to its current
// neighbours. Optional starts share the neighbours of slot 0.
func (t *OrderedTask) setNeighbours(position int) {
	if position < 0 || position >= len(t.points) {
		// nothing to do
		return
	}

	var prev, next *TaskPoint
	if position > 0 {
		prev = t.points[position-1]
	}
	if position+1 < len(t.points) {
		next = t.points[position+1]
	}

	t.points[position].SetNeighbours(prev, next)

	if position == 0 {
		for _, op := range t.optionalStarts {
			op.SetNeighbours(prev, next)
		}
	}
}

// Append adds a copy of newTp at the end of the task. Returns false if
// the factory rules forbid the point in that position.
func (t *OrderedTask) Append(newTp *TaskPoint) bool {
	// Is the new point allowed in this context, and can a point be
	// appended after the current last one?
	if len(t.points) > 0 &&
		(!newTp.IsPredecessorAllowed() ||
			!t.points[len(t.points)-1].IsSuccessorAllowed()) {
		return false
	}

	i := len(t.points)
	t.points = append(t.points, clonePoint(newTp))
	if i > 0 {
		t.setNeighbours(i - 1)
	} else {
		// give it a value when we have one tp so it is not uninitialised
		t.lastMinLocation = newTp.GetLocation()
	}

	t.setNeighbours(i)
	t.forceFullUpdate = true
	return true
}

func (t *OrderedTask) AppendOptionalStart(newTp *TaskPoint) bool {
	t.optionalStarts = append(t.optionalStarts, clonePoint(newTp))
	if len(t.points) > 1 {
		t.setNeighbours(0)
	}
	t.forceFullUpdate = true
	return true
}

// Insert adds a copy of newTp at the given position, moving later points
// back. Inserting at or before the active index shifts the index with
// the points.
func (t *OrderedTask) Insert(newTp *TaskPoint, position int) bool {
	if position >= len(t.points) {
		return t.Append(newTp)
	}

	if (position > 0 && !newTp.IsPredecessorAllowed()) ||
		!newTp.IsSuccessorAllowed() ||
		(position > 0 && !t.points[position-1].IsSuccessorAllowed()) ||
		!t.points[position].IsPredecessorAllowed() {
		return false
	}

	if t.activeIndex >= position {
		t.activeIndex++
	}

	t.points = util.InsertSliceElement(t.points, position, clonePoint(newTp))

	if position > 0 {
		t.setNeighbours(position - 1)
	}
	t.setNeighbours(position)
	t.setNeighbours(position + 1)
	t.forceFullUpdate = true
	return true
}

// Replace swaps the point at the given position for a copy of newTp;
// returns true without change if they are equal.
func (t *OrderedTask) Replace(newTp *TaskPoint, position int) bool {
	if position < 0 || position >= len(t.points) {
		return false
	}

	if t.points[position].Equal(newTp) {
		// nothing to do
		return true
	}

	if (position > 0 && !newTp.IsPredecessorAllowed()) ||
		(position+1 < len(t.points) && !newTp.IsSuccessorAllowed()) {
		return false
	}

	t.points[position] = clonePoint(newTp)

	if position > 0 {
		t.setNeighbours(position - 1)
	}
	t.setNeighbours(position)
	if position+1 < len(t.points) {
		t.setNeighbours(position + 1)
	}
	t.forceFullUpdate = true
	return true
}

func (t *OrderedTask) ReplaceOptionalStart(newTp *TaskPoint, position int) bool {
	if position < 0 || position >= len(t.optionalStarts) {
		return false
	}

	if t.optionalStarts[position].Equal(newTp) {
		// nothing to do
		return true
	}

	t.optionalStarts[position] = clonePoint(newTp)
	t.setNeighbours(0)
	t.forceFullUpdate = true
	return true
}

// Remove deletes the point at the given position. The historical active
// index adjustment also decremented the index when the last point was
// active, whatever the removal position; EmulateLegacyRemove keeps that
// behaviour.
func (t *OrderedTask) Remove(position int) bool {
	if position < 0 || position >= len(t.points) {
		return false
	}

	if t.settings.EmulateLegacyRemove {
		if t.activeIndex > position ||
			(t.activeIndex > 0 && t.activeIndex == len(t.points)-1) {
			t.activeIndex--
		}
	} else if t.activeIndex > position {
		t.activeIndex--
	}

	t.points = util.DeleteSliceElement(t.points, position)

	if !t.settings.EmulateLegacyRemove && t.activeIndex >= len(t.points) && t.activeIndex > 0 {
		t.activeIndex = len(t.points) - 1
	}

	if position < len(t.points) {
		t.setNeighbours(position)
	}
	if position > 0 {
		t.setNeighbours(position - 1)
	}
	t.forceFullUpdate = true
	return true
}

func (t *OrderedTask) RemoveOptionalStart(position int) bool {
	if position < 0 || position >= len(t.optionalStarts) {
		return false
	}

	t.optionalStarts = util.DeleteSliceElement(t.optionalStarts, position)

	if len(t.points) > 1 {
		t.setNeighbours(0)
	}
	t.forceFullUpdate = true
	return true
}

// Relocate moves the point at the given position onto another waypoint,
// keeping its kind and zone shape.
func (t *OrderedTask) Relocate(position int, wp waypoint.Waypoint) bool {
	if position < 0 || position >= len(t.points) {
		return false
	}

	newTp := clonePoint(t.points[position])
	newTp.Waypoint = wp
	newTp.Zone.Center = wp.Location
	return t.Replace(newTp, position)
}

func (t *OrderedTask) RelocateOptionalStart(position int, wp waypoint.Waypoint) bool {
	if position < 0 || position >= len(t.optionalStarts) {
		return false
	}

	newTp := clonePoint(t.optionalStarts[position])
	newTp.Waypoint = wp
	newTp.Zone.Center = wp.Location
	t.optionalStarts[position] = newTp
	t.setNeighbours(0)
	return true
}

// SelectOptionalStart swaps the given optional start into slot 0; the
// former slot-0 point moves onto the end of the optional list. Rules for
// multiple start points are that the last start zone flown through is
// used for scoring, so transitions select automatically.
func (t *OrderedTask) SelectOptionalStart(pos int) {
	if pos < 0 || pos >= len(t.optionalStarts) || len(t.points) == 0 {
		return
	}

	// put task start onto end
	t.optionalStarts = append(t.optionalStarts, t.points[0])
	// set task start from chosen optional item
	t.points[0] = t.optionalStarts[pos]
	// remove chosen optional item from list
	t.optionalStarts = util.DeleteSliceElement(t.optionalStarts, pos)

	// update neighbour links
	t.setNeighbours(0)
	if len(t.points) > 1 {
		t.setNeighbours(1)
	}

	// we've changed the task, so update geometry
	t.UpdateGeometry()
}

func (t *OrderedTask) RotateOptionalStarts() {
	if t.IsEmpty() || len(t.optionalStarts) == 0 {
		return
	}
	t.SelectOptionalStart(0)
}

func (t *OrderedTask) RemoveAllPoints() {
	t.points = nil
	t.optionalStarts = nil
	t.activeIndex = 0
	t.forceFullUpdate = true
}

func (t *OrderedTask) Clear() {
	t.RemoveAllPoints()
	t.ClearName()
	t.Reset()
	t.settings = t.behaviour.OrderedDefaults
}

///////////////////////////////////////////////////////////////////////////
// Validation and geometry upkeep

func (t *OrderedTask) CheckTask() TaskValidationErrors {
	return validate(t.factory, t.points)
}

func (t *OrderedTask) updateStatsGeometry() {
	if len(t.points) == 0 {
		t.stats.Bounds = geo.InvalidGeoBounds()
	} else {
		bounds := geo.GeoBoundsFromPoint(t.points[0].GetLocation())
		for _, tp := range t.points {
			bounds = tp.ScanBounds(bounds)
		}
		// ... and optional start points
		for _, tp := range t.optionalStarts {
			bounds = tp.ScanBounds(bounds)
		}
		t.stats.Bounds = bounds
	}

	errs := t.CheckTask()
	t.stats.TaskValid = !errs.IsError()
	t.stats.HasTargets = t.stats.TaskValid && t.HasTargets()
	t.stats.IsMAT = t.factory == FactoryMAT
	t.stats.HasOptionalStarts = t.stats.TaskValid && t.HasOptionalStarts()
}

// UpdateGeometry rebuilds everything derived from the task's shape: the
// projection, the sampled zone outlines and their bounding boxes, and
// the pre-flight distance stats.
func (t *OrderedTask) UpdateGeometry() {
	t.updateStatsGeometry()

	if len(t.points) == 0 {
		return
	}

	t.ScanActive()

	t.projection = geo.NewFlatProjection(t.stats.Bounds)

	// update zones for items that depend on next-point geometry
	for _, tp := range t.points {
		tp.UpdateOZ(t.projection)
	}
	for _, tp := range t.optionalStarts {
		tp.UpdateOZ(t.projection)
	}

	// update stats so data can be used during task construction
	if !t.points[0].HasEntered() {
		t.updateStatsDistances(geo.InvalidGeoPoint(), true)
	}

	t.forceFullUpdate = true
}

func (t *OrderedTask) propagateSettings() {
	for _, tp := range t.points {
		tp.setScorePEV(t.settings.Start.ScorePEV)
	}
	for _, tp := range t.optionalStarts {
		tp.setScorePEV(t.settings.Start.ScorePEV)
	}

	// Update finish height in case it is based on started altitude. Only
	// recomputed once the start is behind the aircraft; a settings
	// change before the start leaves the previous finish height alone.
	start, finish := t.startPoint(), t.finishPoint()
	if start != nil && finish != nil && start.GetActiveState() == BeforeActive {
		finish.SetFAIFinishHeight(finish.CalculateFinishHeightFromStart(t.stats.Start.Altitude, t.settings.Finish))
	}
}

func (t *OrderedTask) SetOrderedTaskSettings(s OrderedTaskSettings) {
	t.settings = s
	t.propagateSettings()
}

func (t *OrderedTask) SetFactory(factory TaskFactoryType) {
	// detect no change
	if t.factory == factory {
		return
	}

	if factory != FactoryMixed {
		// can switch from anything to mixed, otherwise need reset
		t.Reset()
	}
	t.factory = factory
	t.propagateSettings()
}

// Reset clears all flight progress, returning the task to the pre-start
// state without touching its structure.
func (t *OrderedTask) Reset() {
	for _, tp := range t.points {
		tp.Reset()
	}
	for _, tp := range t.optionalStarts {
		tp.Reset()
	}

	t.stats.TaskFinished = false
	t.stats.Start.Reset()
	t.stats.PEVBasedAdvanceReady = false
	t.advance.Reset()
	t.lastMinLocation = geo.InvalidGeoPoint()
	t.lastMinDistance = 0
	t.lastStateTime = TimeUndefined
	t.pevReceived = false
	t.SetActiveTaskPoint(0)
	t.activeIndex = 0
	t.updateStatsGeometry()
}

// TaskStarted reports whether the start has been scored; with soft true,
// progress past the start also counts.
func (t *OrderedTask) TaskStarted(soft bool) bool {
	if start := t.startPoint(); start != nil {
		// have we really started?
		if start.HasExited() {
			return true
		}

		// if soft starts allowed, consider started if we progressed
		if soft && t.activeIndex > 0 {
			return true
		}
	}
	return false
}

///////////////////////////////////////////////////////////////////////////
// Clone / commit / dedup

// Clone returns a structural copy of the task under the given behaviour.
// The points' flight history and the start stats are not carried over;
// the active index is.
func (t *OrderedTask) Clone(tb TaskBehaviour) *OrderedTask {
	newTask := New(tb, t.lg)
	newTask.factory = t.factory
	newTask.settings = t.settings

	for _, tp := range t.points {
		newTask.Append(tp)
	}
	for _, tp := range t.optionalStarts {
		newTask.AppendOptionalStart(tp)
	}

	newTask.activeIndex = t.activeIndex
	newTask.UpdateGeometry()
	newTask.SetName(t.name)
	return newTask
}

// Commit applies that task's structure onto this one with a minimal
// diff: shrink or grow to match, then replace any unequal slot. Returns
// whether anything changed; committing an identical task is a no-op.
func (t *OrderedTask) Commit(that *OrderedTask) bool {
	modified := false

	t.SetName(that.name)
	t.SetFactory(that.factory)
	t.SetOrderedTaskSettings(that.settings)

	// remove if that task is smaller than this one
	for t.TaskSize() > that.TaskSize() {
		t.Remove(t.TaskSize() - 1)
		modified = true
	}

	// ensure each task point made identical
	for i := 0; i < that.TaskSize(); i++ {
		if i >= t.TaskSize() {
			// that task is larger than this
			t.Append(that.points[i])
			modified = true
		} else if !t.points[i].Equal(that.points[i]) {
			// that task point is changed
			t.Replace(that.points[i], i)
			modified = true
		}
	}

	// remove if that optional start list is smaller than this one
	for len(t.optionalStarts) > len(that.optionalStarts) {
		t.RemoveOptionalStart(len(t.optionalStarts) - 1)
		modified = true
	}

	for i := 0; i < len(that.optionalStarts); i++ {
		if i >= len(t.optionalStarts) {
			t.AppendOptionalStart(that.optionalStarts[i])
			modified = true
		} else if !t.optionalStarts[i].Equal(that.optionalStarts[i]) {
			t.ReplaceOptionalStart(that.optionalStarts[i], i)
			modified = true
		}
	}

	if modified {
		t.UpdateGeometry()
	}

	return modified
}

// CheckDuplicateWaypoints funnels every task waypoint through the
// database so that equivalent waypoints are shared on commit.
func (t *OrderedTask) CheckDuplicateWaypoints(db *waypoint.Waypoints) {
	for i, tp := range t.points {
		wp := db.CheckExistsOrAppend(tp.Waypoint)
		if wp.ID != tp.Waypoint.ID {
			newTp := clonePoint(tp)
			newTp.Waypoint = wp
			t.Replace(newTp, i)
		}
	}
	for i, tp := range t.optionalStarts {
		wp := db.CheckExistsOrAppend(tp.Waypoint)
		if wp.ID != tp.Waypoint.ID {
			newTp := clonePoint(tp)
			newTp.Waypoint = wp
			t.ReplaceOptionalStart(newTp, i)
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// Queries

func (t *OrderedTask) ScanTotalStartTime() float64 {
	if len(t.points) == 0 {
		return TimeUndefined
	}
	return t.points[0].GetScoredState().Time
}

func (t *OrderedTask) ScanLegStartTime() float64 {
	if t.activeIndex > 0 {
		return t.points[t.activeIndex-1].GetScoredState().Time
	}
	return TimeUndefined
}

func (t *OrderedTask) GetLastIntermediateAchieved() int {
	if t.TaskSize() < 2 {
		return 0
	}

	for i := 1; i < t.TaskSize()-1; i++ {
		if !t.points[i].HasEntered() {
			return i - 1
		}
	}
	return t.TaskSize() - 2
}

// UpdateSummary fills in the per-point achievement overview used by the
// task status displays.
func (t *OrderedTask) UpdateSummary(summary *TaskSummary) {
	summary.Clear()
	summary.Active = t.activeIndex

	for i, tp := range t.points {
		sp := TaskSummaryPoint{}
		if i > 0 {
			sp.DistancePlanned = t.points[i-1].GetLocation().Distance(tp.GetLocation())
		}
		if i == 0 {
			sp.Achieved = tp.HasExited()
		} else {
			sp.Achieved = tp.HasSampled()
		}
		summary.Points = append(summary.Points, sp)
	}

	if t.stats.Total.Remaining.Valid && t.stats.Total.Planned.Valid {
		summary.Update(t.stats.Total.Remaining.Distance, t.stats.Total.Planned.Distance)
	}
}

func (t *OrderedTask) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("name", t.name),
		slog.String("factory", t.factory.String()),
		slog.Int("size", t.TaskSize()),
		slog.Int("active", t.activeIndex),
		slog.Any("stats", t.stats))
}

///////////////////////////////////////////////////////////////////////////
// Pilot events

// SetPEV latches a pilot event for processing on the next tick. Returns
// false if no fix has been seen yet, or if a PEV-scored gate's window
// has not yet begun.
func (t *OrderedTask) SetPEV(bt BrokenTime) bool {
	// Use state time instead of system time in updating information
	// related to the pilot event inside the task.
	if t.lastStateTime < 0 {
		return false
	}

	if start := t.startPoint(); start != nil {
		if t.settings.Start.ScorePEV &&
			!t.settings.Start.OpenTimeSpan.HasBegun(RoughTimeFromSeconds(t.lastStateTime)) {
			// the start gate is not yet open when we left the OZ
			return false
		}
	}

	t.pevReceived = true
	t.pevReceiveTime = bt
	return true
}

// UpdateAfterPEV recomputes the start gate window from a latched pilot
// event. The broken-down time is derived from the fix time here rather
// than passed by the caller, so the two can never disagree.
func (t *OrderedTask) UpdateAfterPEV(state AircraftState) {
	t.pevReceived = false
	if !state.HasTime() {
		return
	}

	newStart := RoughTimeFromSeconds(state.Time)
	newEnd := RoughTimeInvalid
	sc := &t.settings.Start

	if sc.PEVStartWaitTime > 0 {
		// Set start time to the next full minute after wait time. This
		// way we make sure wait time is passed before the gate opens.
		opens := state.Time + sc.PEVStartWaitTime.Seconds()
		newStart = RoughTimeFromSeconds(opens)
		if BrokenTimeFromSeconds(opens).Second > 0 {
			newStart = newStart.Add(time.Minute)
		}
	}

	if sc.ScorePEV {
		// Start window end is not limited as the start should occur at
		// the pilot event when reaching the start zone after it.
		t.stats.PEVBasedAdvanceReady = true
		sc.OpenTimeSpan = RoughTimeSpan{Start: newStart, End: RoughTimeInvalid}
	} else {
		if sc.PEVStartWindow > 0 {
			newEnd = newStart.Add(sc.PEVStartWindow)
		}
		sc.OpenTimeSpan = RoughTimeSpan{Start: newStart, End: newEnd}
	}
}

func (t *OrderedTask) startGateOpen(state AircraftState) bool {
	span := t.settings.Start.OpenTimeSpan
	if !span.IsDefined() {
		return true
	}
	return span.IsInside(RoughTimeFromSeconds(state.Time))
}
