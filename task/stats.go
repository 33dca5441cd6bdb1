// task/stats.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"log/slog"

	"github.com/soaringlab/glidetask/geo"
)

// StartStats records the scored start. Trivially copyable.
type StartStats struct {
	// Time is the UTC second of day the task was started; only valid if
	// HasStarted() is true, and likewise for the other fields.
	Time float64 `json:"time"`

	// Altitude is the aircraft's altitude at the start, m MSL.
	Altitude float64 `json:"altitude"`

	// GroundSpeed is the aircraft's ground speed at the start, m/s.
	GroundSpeed float64 `json:"ground_speed"`

	// AdvancedByPEV is true if the start was opened by a pilot event.
	AdvancedByPEV bool `json:"advanced_by_pev"`
}

func (s *StartStats) Reset() {
	s.Time = TimeUndefined
	s.AdvancedByPEV = false
}

func (s StartStats) HasStarted() bool {
	return s.Time >= 0
}

func (s StartStats) GetStartedTime() float64 {
	return s.Time
}

// SetStarted enables the HasStarted() flag and copies data from the
// aircraft snapshot.
func (s *StartStats) SetStarted(aircraft AircraftState, pev bool) {
	s.AdvancedByPEV = pev
	s.Time = aircraft.Time
	s.Altitude = aircraft.Altitude
	s.GroundSpeed = aircraft.GroundSpeed
}

// DistanceStat is a distance figure that may not have been computed yet.
type DistanceStat struct {
	Distance float64 `json:"distance"`
	Valid    bool    `json:"valid"`
}

func (d *DistanceStat) SetDistance(v float64) {
	d.Distance = v
	d.Valid = true
}

func (d *DistanceStat) Reset() {
	*d = DistanceStat{}
}

// LegStat aggregates the distance figures for one leg or for the whole
// task.
type LegStat struct {
	TimeElapsed float64      `json:"time_elapsed"`
	Remaining   DistanceStat `json:"remaining"`
	Planned     DistanceStat `json:"planned"`
	Travelled   DistanceStat `json:"travelled"`
	Maximum     DistanceStat `json:"maximum"`
	Minimum     DistanceStat `json:"minimum"`
}

func (l *LegStat) Reset() {
	*l = LegStat{}
}

// Stats is the read-only result bundle published to collaborators after
// each update.
type Stats struct {
	Bounds            geo.GeoBounds `json:"bounds"`
	TaskValid         bool          `json:"task_valid"`
	HasTargets        bool          `json:"has_targets"`
	IsMAT             bool          `json:"is_mat"`
	HasOptionalStarts bool          `json:"has_optional_starts"`
	TaskFinished      bool          `json:"task_finished"`

	Start      StartStats `json:"start"`
	Total      LegStat    `json:"total"`
	CurrentLeg LegStat    `json:"current_leg"`

	PEVBasedAdvanceReady bool `json:"pev_based_advance_ready"`
	NeedToArm            bool `json:"need_to_arm"`
	InsideOZ             bool `json:"inside_oz"`
}

func (s *Stats) Reset() {
	*s = Stats{Bounds: geo.InvalidGeoBounds()}
	s.Start.Reset()
}

// TaskSummaryPoint is the per-point entry in a TaskSummary.
type TaskSummaryPoint struct {
	// DistancePlanned is the planned leg distance into this point.
	DistancePlanned float64 `json:"distance_planned"`
	// Achieved is true once the point has been rounded (exited for the
	// start, sampled for the others).
	Achieved bool `json:"achieved"`
}

// TaskSummary is the compact task overview used by status displays.
type TaskSummary struct {
	Active int                `json:"active"`
	Points []TaskSummaryPoint `json:"points"`

	// PCTRemaining is the percentage of the planned distance still to
	// fly.
	PCTRemaining float64 `json:"pct_remaining"`
}

func (s *TaskSummary) Clear() {
	s.Active = 0
	s.Points = s.Points[:0]
	s.PCTRemaining = 100
}

func (s *TaskSummary) Update(remaining, planned float64) {
	if planned > 0 {
		s.PCTRemaining = 100 * remaining / planned
	}
}

func (s Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Bool("task_valid", s.TaskValid),
		slog.Bool("task_finished", s.TaskFinished),
		slog.Bool("inside_oz", s.InsideOZ),
		slog.Float64("start_time", s.Start.Time),
		slog.Float64("distance_remaining", s.Total.Remaining.Distance),
		slog.Float64("distance_max", s.Total.Maximum.Distance))
}
