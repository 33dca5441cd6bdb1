// task/events.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

// TaskEvents is the callback sink the engine fires synchronously from
// CheckTransitions. Implementations must be fast and must not call back
// into the task.
type TaskEvents interface {
	// EnterTransition is called when the aircraft enters a zone.
	EnterTransition(p *TaskPoint)
	// ExitTransition is called when the aircraft exits a zone.
	ExitTransition(p *TaskPoint)
	// ActiveAdvanced is called after the active index moves to the given
	// point.
	ActiveAdvanced(p *TaskPoint, index int)
	// RequestArm is called when a transition is ready but the advance
	// mode wants the pilot to arm it.
	RequestArm(p *TaskPoint)
	// TaskStart is called once when the task becomes started.
	TaskStart()
	// TaskFinish is called once when the task becomes finished.
	TaskFinish()
}

// NullTaskEvents discards all events; embed it to implement a subset.
type NullTaskEvents struct{}

func (NullTaskEvents) EnterTransition(*TaskPoint)     {}
func (NullTaskEvents) ExitTransition(*TaskPoint)      {}
func (NullTaskEvents) ActiveAdvanced(*TaskPoint, int) {}
func (NullTaskEvents) RequestArm(*TaskPoint)          {}
func (NullTaskEvents) TaskStart()                     {}
func (NullTaskEvents) TaskFinish()                    {}
