// task/factory.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"strings"

	"github.com/soaringlab/glidetask/waypoint"
)

// TaskFactoryType selects the competition rule set a task is validated
// against.
type TaskFactoryType int

const (
	FactoryRacing TaskFactoryType = iota
	FactoryAAT
	FactoryMAT
	FactoryFAIGeneral
	FactoryMixed
)

func (t TaskFactoryType) String() string {
	switch t {
	case FactoryRacing:
		return "racing"
	case FactoryAAT:
		return "aat"
	case FactoryMAT:
		return "mat"
	case FactoryFAIGeneral:
		return "fai_general"
	case FactoryMixed:
		return "mixed"
	default:
		return "unknown"
	}
}

// FactoryConstraints bound what a rule set accepts structurally.
type FactoryConstraints struct {
	MaxPoints  int
	TaskScored bool
	// HomogeneousTPs requires all intermediates to share one kind.
	HomogeneousTPs bool
	// IntermediateKind is the required intermediate kind when
	// HomogeneousTPs is set.
	IntermediateKind PointKind
}

func ConstraintsFor(t TaskFactoryType) FactoryConstraints {
	switch t {
	case FactoryAAT:
		return FactoryConstraints{MaxPoints: 13, TaskScored: true, HomogeneousTPs: true, IntermediateKind: KindAAT}
	case FactoryMAT:
		return FactoryConstraints{MaxPoints: 30, TaskScored: true, HomogeneousTPs: true, IntermediateKind: KindAAT}
	case FactoryRacing, FactoryFAIGeneral:
		return FactoryConstraints{MaxPoints: 13, TaskScored: true, HomogeneousTPs: true, IntermediateKind: KindIntermediate}
	default:
		return FactoryConstraints{MaxPoints: 30, TaskScored: true}
	}
}

// TaskValidationErrors is the bitset CheckTask surfaces; collaborators
// render the messages.
type TaskValidationErrors uint

const (
	ErrTaskEmpty TaskValidationErrors = 1 << iota
	ErrNoValidStart
	ErrNoValidFinish
	ErrInvalidIntermediate
	ErrTooManyPoints
	ErrNonFAIShape
)

func (e TaskValidationErrors) IsError() bool {
	const fatal = ErrTaskEmpty | ErrNoValidStart | ErrInvalidIntermediate | ErrTooManyPoints
	return e&fatal != 0
}

func (e TaskValidationErrors) String() string {
	if e == 0 {
		return "ok"
	}
	var parts []string
	add := func(bit TaskValidationErrors, name string) {
		if e&bit != 0 {
			parts = append(parts, name)
		}
	}
	add(ErrTaskEmpty, "task empty")
	add(ErrNoValidStart, "no valid start")
	add(ErrNoValidFinish, "no valid finish")
	add(ErrInvalidIntermediate, "invalid intermediate point")
	add(ErrTooManyPoints, "too many points")
	add(ErrNonFAIShape, "non-FAI shape")
	return strings.Join(parts, ", ")
}

// validate checks the point sequence against the rule set.
func validate(t TaskFactoryType, points []*TaskPoint) TaskValidationErrors {
	var errs TaskValidationErrors

	if len(points) == 0 {
		return ErrTaskEmpty
	}

	cons := ConstraintsFor(t)
	if len(points) > cons.MaxPoints {
		errs |= ErrTooManyPoints
	}

	if points[0].Kind != KindStart {
		errs |= ErrNoValidStart
	}
	if points[len(points)-1].Kind != KindFinish {
		errs |= ErrNoValidFinish
	}

	for i, p := range points {
		if i == 0 || i == len(points)-1 {
			continue
		}
		switch p.Kind {
		case KindStart, KindFinish:
			errs |= ErrInvalidIntermediate
		default:
			if cons.HomogeneousTPs && p.Kind != cons.IntermediateKind {
				errs |= ErrInvalidIntermediate
			}
		}
	}

	if t == FactoryFAIGeneral {
		for i, p := range points {
			intermediate := i > 0 && i < len(points)-1
			if intermediate && p.Zone.Shape != ShapeFAISector && p.Zone.Shape != ShapeCylinder {
				errs |= ErrNonFAIShape
			}
		}
	}

	return errs
}

// Convenience constructors mirroring what the rule sets expect.

func MakeStartPoint(wp waypoint.Waypoint, zone ObservationZone) *TaskPoint {
	return NewTaskPoint(KindStart, wp, zone)
}

func MakeIntermediatePoint(t TaskFactoryType, wp waypoint.Waypoint, zone ObservationZone) *TaskPoint {
	kind := ConstraintsFor(t).IntermediateKind
	if !ConstraintsFor(t).HomogeneousTPs {
		kind = KindIntermediate
	}
	return NewTaskPoint(kind, wp, zone)
}

func MakeFinishPoint(wp waypoint.Waypoint, zone ObservationZone) *TaskPoint {
	return NewTaskPoint(KindFinish, wp, zone)
}
