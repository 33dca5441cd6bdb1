// task/startgate.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import (
	"fmt"
	"time"
)

// RoughTime is a time of day with one minute resolution, as the FAI start
// gate rules are specified in whole minutes.
type RoughTime uint16

const RoughTimeInvalid RoughTime = 0xffff

func (t RoughTime) IsValid() bool {
	return t != RoughTimeInvalid
}

// RoughTimeFromSeconds truncates a seconds-of-day timestamp to the
// containing minute.
func RoughTimeFromSeconds(sec float64) RoughTime {
	if sec < 0 {
		return RoughTimeInvalid
	}
	return RoughTime(int(sec) / 60 % (24 * 60))
}

func (t RoughTime) Add(d time.Duration) RoughTime {
	if !t.IsValid() {
		return t
	}
	return RoughTime((int(t) + int(d.Minutes())) % (24 * 60))
}

func (t RoughTime) String() string {
	if !t.IsValid() {
		return "--:--"
	}
	return fmt.Sprintf("%02d:%02d", t/60, t%60)
}

// RoughTimeSpan is a start gate window. An invalid Start means the gate
// has always been open; an invalid End means it never closes.
type RoughTimeSpan struct {
	Start, End RoughTime
}

func InvalidRoughTimeSpan() RoughTimeSpan {
	return RoughTimeSpan{Start: RoughTimeInvalid, End: RoughTimeInvalid}
}

func (s RoughTimeSpan) IsDefined() bool {
	return s.Start.IsValid() || s.End.IsValid()
}

func (s RoughTimeSpan) HasBegun(t RoughTime) bool {
	return !s.Start.IsValid() || (t.IsValid() && t >= s.Start)
}

func (s RoughTimeSpan) HasEnded(t RoughTime) bool {
	return s.End.IsValid() && t.IsValid() && t > s.End
}

func (s RoughTimeSpan) IsInside(t RoughTime) bool {
	return s.HasBegun(t) && !s.HasEnded(t)
}

// BrokenTime is a wall-clock time of day broken into components.
type BrokenTime struct {
	Hour, Minute, Second int
}

func BrokenTimeFromSeconds(sec float64) BrokenTime {
	s := int(sec) % (24 * 3600)
	return BrokenTime{Hour: s / 3600, Minute: s / 60 % 60, Second: s % 60}
}

func (bt BrokenTime) SecondOfDay() float64 {
	return float64(bt.Hour*3600 + bt.Minute*60 + bt.Second)
}

// StartConstraints is the start gate rule set per the FAI sporting code
// plus the pilot-event extensions.
type StartConstraints struct {
	// OpenTimeSpan is the time window during which a start may be scored.
	OpenTimeSpan RoughTimeSpan `json:"open_time_span"`

	// ScorePEV requires a pilot event before a start counts; the start
	// window is then personal, opening PEVStartWaitTime after the event.
	ScorePEV bool `json:"score_pev"`

	// PEVStartWaitTime is how long after a pilot event the gate opens,
	// rounded up to the next whole minute.
	PEVStartWaitTime time.Duration `json:"pev_start_wait_time"`

	// PEVStartWindow is how long a pilot-event gate stays open. Only
	// used when ScorePEV is false; a scored PEV gate closes at the next
	// pilot event instead.
	PEVStartWindow time.Duration `json:"pev_start_window"`

	// MaxSpeed is the maximum ground speed through the start gate, m/s.
	// It is stored and compared by Equal; no start check reads it.
	MaxSpeed float64 `json:"max_speed"`

	// MaxHeight is the maximum start altitude, m MSL. It is stored and
	// compared by Equal; no start check reads it.
	MaxHeight float64 `json:"max_height"`
}

func (c StartConstraints) Equal(other StartConstraints) bool {
	return c == other
}

// FinishConstraints configures the finish line rules.
type FinishConstraints struct {
	// MinHeight is the minimum finish altitude, m MSL; zero disables.
	MinHeight float64 `json:"min_height"`

	// FAIFinish raises the finish floor to the start altitude minus the
	// allowed height loss; MinHeight still applies when it is higher.
	FAIFinish bool `json:"fai_finish"`
}

// FAIFinishHeightLoss is the maximum permitted start-to-finish height
// loss under the FAI finish rule.
const FAIFinishHeightLoss = 1000.
