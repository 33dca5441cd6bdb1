// task/point.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"log/slog"
	gomath "math"

	"github.com/soaringlab/glidetask/geo"
	"github.com/soaringlab/glidetask/waypoint"
)

// PointKind tags the role of a task point in the ordered sequence.
type PointKind int

const (
	KindStart PointKind = iota
	KindIntermediate
	KindAAT
	KindFinish
)

func (k PointKind) String() string {
	switch k {
	case KindStart:
		return "start"
	case KindIntermediate:
		return "intermediate"
	case KindAAT:
		return "aat"
	case KindFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// ActiveState is a point's position relative to the active index.
type ActiveState int

const (
	BeforeActive ActiveState = iota
	CurrentActive
	AfterActive
)

// TaskPoint is one node of the ordered task: a waypoint, its observation
// zone, and the sampled flight history against that zone. Points are
// owned exclusively by their OrderedTask; neighbour information is held
// as waypoint locations, never as references, and is refreshed by the
// task after every structural change.
type TaskPoint struct {
	Waypoint waypoint.Waypoint
	Zone     ObservationZone
	Kind     PointKind

	hasEntered  bool
	hasExited   bool
	scoredState AircraftState
	activeState ActiveState

	// boundaryPoints is the full sampled zone outline under the current
	// projection; sampledPoints is the convex hull of the fixes flown
	// inside the zone. The solver sees sampledPoints once the zone has
	// been visited, which is what prunes an area zone down to what was
	// actually achieved.
	boundaryPoints []geo.SearchPoint
	nominalPoints  []geo.SearchPoint
	sampledPoints  []geo.SearchPoint

	searchMin      geo.SearchPoint
	searchMax      geo.SearchPoint
	searchMaxTotal geo.SearchPoint

	bb geo.FlatBoundingBox

	prevLocation, nextLocation geo.GeoPoint
	hasPrev, hasNext           bool

	// Propagated task settings the point needs on the per-fix path.
	scorePEV        bool
	faiFinishHeight float64
}

// NewTaskPoint builds a point of the given kind around wp's location.
// The zone argument's center is overridden by the waypoint location.
func NewTaskPoint(kind PointKind, wp waypoint.Waypoint, zone ObservationZone) *TaskPoint {
	zone.Center = wp.Location
	return &TaskPoint{
		Waypoint:    wp,
		Zone:        zone,
		Kind:        kind,
		scoredState: InvalidAircraftState(),
	}
}

func (p *TaskPoint) GetLocation() geo.GeoPoint {
	return p.Waypoint.Location
}

func (p *TaskPoint) HasEntered() bool { return p.hasEntered }
func (p *TaskPoint) HasExited() bool  { return p.hasExited }

func (p *TaskPoint) HasSampled() bool {
	return len(p.sampledPoints) > 0
}

// GetScoredState returns the aircraft snapshot chosen to represent the
// rounding of this point: the exit fix for a start, the entry fix
// otherwise.
func (p *TaskPoint) GetScoredState() AircraftState {
	return p.scoredState
}

func (p *TaskPoint) GetActiveState() ActiveState {
	return p.activeState
}

// AsAAT returns the point as an area point if it is one; replaces the
// blind downcast the legacy engine used.
func (p *TaskPoint) AsAAT() (*TaskPoint, bool) {
	if p.Kind == KindAAT {
		return p, true
	}
	return nil, false
}

// IsPredecessorAllowed reports whether a point may precede this one.
func (p *TaskPoint) IsPredecessorAllowed() bool {
	return p.Kind != KindStart
}

// IsSuccessorAllowed reports whether a point may follow this one.
func (p *TaskPoint) IsSuccessorAllowed() bool {
	return p.Kind != KindFinish
}

func (p *TaskPoint) Equal(other *TaskPoint) bool {
	return p.Kind == other.Kind &&
		p.Waypoint.Equal(other.Waypoint) &&
		p.Zone.Equal(other.Zone)
}

// SetNeighbours records the adjacent waypoint locations and recomputes
// the leg-dependent zone geometry. Neighbours are positional data only;
// the task re-issues them after every structural mutation.
func (p *TaskPoint) SetNeighbours(prev, next *TaskPoint) {
	var pl, nl *geo.GeoPoint
	p.hasPrev, p.hasNext = prev != nil, next != nil
	if prev != nil {
		p.prevLocation = prev.GetLocation()
		pl = &p.prevLocation
	}
	if next != nil {
		p.nextLocation = next.GetLocation()
		nl = &p.nextLocation
	}
	p.Zone.SetLegs(pl, nl)
}

// UpdateOZ resamples the zone outline under the projection and refreshes
// everything derived from it. Called after every structural change or
// projection refresh.
func (p *TaskPoint) UpdateOZ(fp geo.FlatProjection) {
	p.boundaryPoints = geo.FlatConvexHull(p.Zone.Boundary(fp))
	p.nominalPoints = []geo.SearchPoint{geo.MakeSearchPoint(p.Waypoint.Location, fp)}
	geo.ProjectSearchPoints(p.sampledPoints, fp)
	p.UpdateBoundingBox(fp)
}

func (p *TaskPoint) UpdateBoundingBox(fp geo.FlatProjection) {
	pts := p.boundaryPoints
	if len(pts) == 0 {
		p.bb = geo.FlatBoundingBoxAround(fp.ProjectInteger(p.Waypoint.Location), 1)
		return
	}
	bb := geo.FlatBoundingBox{Lower: pts[0].Flat, Upper: pts[0].Flat}
	for _, sp := range pts[1:] {
		bb = bb.Extend(sp.Flat)
	}
	p.bb = bb.Expand(1)
}

func (p *TaskPoint) BoundingBoxOverlaps(bb geo.FlatBoundingBox) bool {
	return p.bb.Overlaps(bb)
}

func (p *TaskPoint) ScanBounds(b geo.GeoBounds) geo.GeoBounds {
	b = b.Extend(p.Waypoint.Location)
	// A zone can extend well past its reference point.
	r := p.Zone.Radius
	if p.Zone.Shape == ShapeLine {
		r = p.Zone.Length / 2
	}
	for q := 0; q < 4; q++ {
		b = b.Extend(p.Waypoint.Location.Offset(float64(q)*gomath.Pi/2, r))
	}
	return b
}

// GetSearchPoints returns the polygon the solver should score this point
// over: the achieved hull once the zone has been sampled, the full
// boundary until then.
func (p *TaskPoint) GetSearchPoints() []geo.SearchPoint {
	if p.HasSampled() {
		return p.sampledPoints
	}
	return p.boundaryPoints
}

// GetBoundaryPoints returns the full zone outline regardless of samples.
func (p *TaskPoint) GetBoundaryPoints() []geo.SearchPoint {
	return p.boundaryPoints
}

// GetNominalPoints returns just the projected reference location; the
// max solver substitutes it for cylinder start/finish boundaries when
// subtracting ring radii.
func (p *TaskPoint) GetNominalPoints() []geo.SearchPoint {
	return p.nominalPoints
}

func (p *TaskPoint) SetSearchMin(sp geo.SearchPoint)      { p.searchMin = sp }
func (p *TaskPoint) SetSearchMax(sp geo.SearchPoint)      { p.searchMax = sp }
func (p *TaskPoint) SetSearchMaxTotal(sp geo.SearchPoint) { p.searchMaxTotal = sp }

func (p *TaskPoint) GetSearchMin() geo.SearchPoint      { return p.searchMin }
func (p *TaskPoint) GetSearchMax() geo.SearchPoint      { return p.searchMax }
func (p *TaskPoint) GetSearchMaxTotal() geo.SearchPoint { return p.searchMaxTotal }

func (p *TaskPoint) IsInSector(state AircraftState) bool {
	return p.Zone.Contains(state.Location)
}

// TransitionEnter reports an enter transition for the fix pair and
// latches the point state. For non-start points the entry fix is the
// scored state.
func (p *TaskPoint) TransitionEnter(state, stateLast AircraftState) bool {
	if !p.Zone.Contains(state.Location) || p.Zone.Contains(stateLast.Location) {
		return false
	}
	if p.Kind == KindFinish && state.Altitude < p.faiFinishHeight {
		return false
	}

	p.hasEntered = true
	if p.Kind != KindStart {
		p.scoredState = state
	}
	return true
}

// TransitionExit reports an exit transition. A start with PEV scoring
// only registers the exit once the pilot event has readied the gate, and
// never before the open window has begun.
func (p *TaskPoint) TransitionExit(state, stateLast AircraftState, pevReady bool, gateOpen bool) bool {
	if !p.Zone.Contains(stateLast.Location) || p.Zone.Contains(state.Location) {
		return false
	}
	if p.Kind == KindStart {
		if p.scorePEV && !pevReady {
			return false
		}
		if !gateOpen {
			return false
		}
	}

	// An exit implies the aircraft was inside, even if the entry
	// predates the fix history.
	p.hasEntered = true
	p.hasExited = true
	if p.Kind == KindStart {
		p.scoredState = state
	}
	return true
}

// UpdateSampleNear accrues the fix into the achieved polygon while the
// aircraft is inside the zone. Returns true if the scored shape changed,
// which obliges the owner to re-run the path solver.
func (p *TaskPoint) UpdateSampleNear(state AircraftState, fp geo.FlatProjection) bool {
	if !state.Location.IsValid() || !p.Zone.Contains(state.Location) {
		return false
	}

	sp := geo.MakeSearchPoint(state.Location, fp)
	for _, q := range p.sampledPoints {
		if q.Equal(sp) {
			return false
		}
	}

	before := len(p.sampledPoints)
	p.sampledPoints = geo.FlatConvexHull(append(p.sampledPoints, sp))
	if len(p.sampledPoints) == before {
		// The fix may have replaced a hull vertex; compare contents.
		for _, q := range p.sampledPoints {
			if q.Equal(sp) {
				return true
			}
		}
		return false
	}
	return true
}

// UpdateSampleFar is the away-from-zone counterpart; the current rules
// never reshape the scored polygon from outside, so it only reports
// whether anything changed.
func (p *TaskPoint) UpdateSampleFar(state AircraftState, fp geo.FlatProjection) bool {
	return false
}

// Reset clears all flight history, returning the point to its pre-start
// state.
func (p *TaskPoint) Reset() {
	p.hasEntered = false
	p.hasExited = false
	p.scoredState = InvalidAircraftState()
	p.sampledPoints = nil
	p.searchMin = geo.SearchPoint{}
	p.searchMax = geo.SearchPoint{}
	p.searchMaxTotal = geo.SearchPoint{}
}

func (p *TaskPoint) setActiveState(s ActiveState) {
	p.activeState = s
}

func (p *TaskPoint) setScorePEV(score bool) {
	p.scorePEV = score
}

// SetFAIFinishHeight fixes the minimum altitude an enter transition of
// this (finish) point requires.
func (p *TaskPoint) SetFAIFinishHeight(h float64) {
	p.faiFinishHeight = h
}

// CalculateFinishHeightFromStart derives the finish floor from the start
// altitude per the configured finish rule.
func (p *TaskPoint) CalculateFinishHeightFromStart(startAltitude float64, fc FinishConstraints) float64 {
	if fc.FAIFinish && startAltitude > 0 {
		return max(fc.MinHeight, startAltitude-FAIFinishHeightLoss)
	}
	return fc.MinHeight
}

func (p *TaskPoint) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("waypoint", p.Waypoint.Name),
		slog.String("kind", p.Kind.String()),
		slog.String("shape", p.Zone.Shape.String()),
		slog.Bool("entered", p.hasEntered),
		slog.Bool("exited", p.hasExited))
}
