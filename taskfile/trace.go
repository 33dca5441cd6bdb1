// taskfile/trace.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package taskfile

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"

	"github.com/soaringlab/glidetask/geo"
	"github.com/soaringlab/glidetask/task"
)

// Unfortunately, unlike io.ReadCloser, the zstd Decoder's Close()
// method doesn't return an error, so we need a custom type to be able
// to wrap it and provide a regular io.ReadCloser.
type zstdReadCloser struct {
	io.Reader
	zr *zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.zr.Close()
	return nil
}

// openTrace opens a fix trace file; a .zst suffix selects transparent
// zstd decompression.
func openTrace(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if !strings.HasSuffix(path, ".zst") {
		return f, nil
	}

	zr, err := zstd.NewReader(bufio.NewReader(f), zstd.WithDecoderConcurrency(0))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return zstdReadCloser{Reader: zr, zr: zr}, nil
}

// LoadTrace reads a recorded fix trace: CSV records of
// time,latitude,longitude,altitude,groundspeed with degrees for the
// coordinates. Blank lines and #-comments are skipped.
func LoadTrace(path string) ([]task.AircraftState, error) {
	rc, err := openTrace(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.Comment = '#'
	r.FieldsPerRecord = 5

	var states []task.AircraftState
	for line := 1; ; line++ {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		var vals [5]float64
		for i, s := range record {
			if vals[i], err = strconv.ParseFloat(strings.TrimSpace(s), 64); err != nil {
				return nil, fmt.Errorf("%s:%d: field %d: %w", path, line, i, err)
			}
		}

		states = append(states, task.AircraftState{
			Time:        vals[0],
			Location:    geo.GeoPointFromDegrees(vals[1], vals[2]),
			Altitude:    vals[3],
			GroundSpeed: vals[4],
			Flying:      true,
		})
	}
	return states, nil
}
