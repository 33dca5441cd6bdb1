// task/settings.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package task

import "time"

// OrderedTaskSettings collects the per-task rule configuration.
type OrderedTaskSettings struct {
	Start  StartConstraints  `json:"start"`
	Finish FinishConstraints `json:"finish"`

	// AATMinTime is the minimum task time for area tasks.
	AATMinTime time.Duration `json:"aat_min_time"`

	// SubtractStartFinishCylinderRadius applies FAI Sporting Code Annex A
	// 6.3.1c/6.3.2dii: the radius of a start/finish ring is subtracted
	// from the task distance.
	SubtractStartFinishCylinderRadius bool `json:"subtract_start_finish_cylinder_radius"`

	// EmulateLegacyRemove keeps the historical active-index adjustment in
	// Remove, which also decrements the index whenever the active point is
	// the last one, whatever the removal position. Kept for
	// compatibility with existing flight logs.
	EmulateLegacyRemove bool `json:"emulate_legacy_remove"`
}

func DefaultOrderedTaskSettings() OrderedTaskSettings {
	return OrderedTaskSettings{
		Start:                             StartConstraints{OpenTimeSpan: InvalidRoughTimeSpan()},
		SubtractStartFinishCylinderRadius: true,
		EmulateLegacyRemove:               true,
	}
}

// GlideSettings configures how glide solutions are derived for stats.
type GlideSettings struct {
	// PredictWindDrift accounts for wind drift while circling; consumed
	// by the polar collaborator, carried here untouched.
	PredictWindDrift bool `json:"predict_wind_drift"`
}

// TaskBehaviour is the engine-wide configuration bag handed in by the
// host application.
type TaskBehaviour struct {
	TaskTypeDefault        TaskFactoryType     `json:"task_type_default"`
	OrderedDefaults        OrderedTaskSettings `json:"ordered_defaults"`
	OptimiseTargetsRange   bool                `json:"optimise_targets_range"`
	OptimiseTargetsMargin  time.Duration       `json:"optimise_targets_margin"`
	OptimiseTargetsBearing bool                `json:"optimise_targets_bearing"`
	Glide                  GlideSettings       `json:"glide"`
}

func DefaultTaskBehaviour() TaskBehaviour {
	return TaskBehaviour{
		TaskTypeDefault: FactoryRacing,
		OrderedDefaults: DefaultOrderedTaskSettings(),
	}
}
