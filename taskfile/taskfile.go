// taskfile/taskfile.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package taskfile persists tasks and fix traces. The engine itself
// keeps no files; this is the external collaborator that walks the task
// point vector.
package taskfile

import (
	"compress/flate"
	"fmt"
	"os"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/soaringlab/glidetask/task"
	"github.com/soaringlab/glidetask/waypoint"
)

// PointRecord is the serialised form of one task point.
type PointRecord struct {
	Kind     task.PointKind    `msgpack:"kind"`
	Shape    task.ZoneShape    `msgpack:"shape"`
	Radius   float64           `msgpack:"radius"`
	Length   float64           `msgpack:"length"`
	Waypoint waypoint.Waypoint `msgpack:"waypoint"`
}

// File is the serialised form of an ordered task.
type File struct {
	Name           string                   `msgpack:"name"`
	Factory        task.TaskFactoryType     `msgpack:"factory"`
	Settings       task.OrderedTaskSettings `msgpack:"settings"`
	Points         []PointRecord            `msgpack:"points"`
	OptionalStarts []PointRecord            `msgpack:"optional_starts"`
}

func recordPoint(p *task.TaskPoint) PointRecord {
	return PointRecord{
		Kind:     p.Kind,
		Shape:    p.Zone.Shape,
		Radius:   p.Zone.Radius,
		Length:   p.Zone.Length,
		Waypoint: p.Waypoint,
	}
}

func (r PointRecord) zone() task.ObservationZone {
	z := task.ObservationZone{
		Shape:  r.Shape,
		Center: r.Waypoint.Location,
		Radius: r.Radius,
		Length: r.Length,
	}
	return z
}

// Snapshot walks the task into its serialised form.
func Snapshot(t *task.OrderedTask) File {
	f := File{
		Name:     t.GetName(),
		Factory:  t.GetFactoryType(),
		Settings: t.GetOrderedTaskSettings(),
	}
	for i := 0; i < t.TaskSize(); i++ {
		f.Points = append(f.Points, recordPoint(t.GetPoint(i)))
	}
	for i := 0; i < t.OptionalStartCount(); i++ {
		f.OptionalStarts = append(f.OptionalStarts, recordPoint(t.GetOptionalStart(i)))
	}
	return f
}

// Restore rebuilds an ordered task from its serialised form.
func (f File) Restore(tb task.TaskBehaviour) (*task.OrderedTask, error) {
	t := task.New(tb, nil)
	t.SetFactory(f.Factory)
	t.SetOrderedTaskSettings(f.Settings)
	t.SetName(f.Name)

	for i, r := range f.Points {
		if !r.Waypoint.Location.IsValid() {
			return nil, fmt.Errorf("point %d (%s): invalid location", i, r.Waypoint.Name)
		}
		if !t.Append(task.NewTaskPoint(r.Kind, r.Waypoint, r.zone())) {
			return nil, fmt.Errorf("point %d (%s): not allowed at this position", i, r.Waypoint.Name)
		}
	}
	for _, r := range f.OptionalStarts {
		t.AppendOptionalStart(task.NewTaskPoint(r.Kind, r.Waypoint, r.zone()))
	}

	t.UpdateGeometry()
	return t, nil
}

// Save writes the task to path, msgpack-encoded and deflate-compressed.
func Save(path string, t *task.OrderedTask) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	fw, err := flate.NewWriter(f, flate.BestSpeed)
	if err != nil {
		return err
	}

	if err := msgpack.NewEncoder(fw).Encode(Snapshot(t)); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return fw.Close()
}

// Load reads a task written by Save.
func Load(path string, tb task.TaskBehaviour) (*task.OrderedTask, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var file File
	if err := msgpack.NewDecoder(flate.NewReader(f)).Decode(&file); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return file.Restore(tb)
}
