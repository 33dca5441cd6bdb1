// task/state.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"log/slog"

	"github.com/soaringlab/glidetask/geo"
)

// TimeUndefined marks an AircraftState with no valid time. Times are UTC
// seconds since midnight.
const TimeUndefined = -1.

// AircraftState is one navigation fix. The engine consumes one snapshot
// per tick and requires the Time of successive snapshots passed to
// CheckTransitions to be non-decreasing.
type AircraftState struct {
	Location    geo.GeoPoint `json:"location"`
	Altitude    float64      `json:"altitude"`     // m MSL
	GroundSpeed float64      `json:"ground_speed"` // m/s
	Time        float64      `json:"time"`         // UTC seconds of day
	Flying      bool         `json:"flying"`
}

func (s AircraftState) HasTime() bool {
	return s.Time >= 0
}

func InvalidAircraftState() AircraftState {
	return AircraftState{Location: geo.InvalidGeoPoint(), Time: TimeUndefined}
}

func (s AircraftState) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("location", s.Location.DDString()),
		slog.Float64("altitude", s.Altitude),
		slog.Float64("ground_speed", s.GroundSpeed),
		slog.Float64("time", s.Time))
}

// GlidePolar is the boundary interface to the performance model; the
// engine consumes glide figures for stats but never stores the polar.
type GlidePolar interface {
	// GetMC returns the MacCready setting in m/s.
	GetMC() float64
	// BestGlideRatio returns the still-air glide ratio at best L/D.
	BestGlideRatio() float64
}
