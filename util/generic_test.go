// util/generic_test.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"slices"
	"testing"
)

func TestSelect(t *testing.T) {
	if Select(true, 1, 2) != 1 || Select(false, 1, 2) != 2 {
		t.Errorf("Select misbehaves")
	}
}

func TestSortedMapKeys(t *testing.T) {
	m := map[string]int{"c": 1, "a": 2, "b": 3}
	if got := SortedMapKeys(m); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("got %v", got)
	}
}

func TestDeleteSliceElement(t *testing.T) {
	s := []int{0, 1, 2, 3}
	s = DeleteSliceElement(s, 1)
	if !slices.Equal(s, []int{0, 2, 3}) {
		t.Errorf("got %v", s)
	}
	s = DeleteSliceElement(s, 2)
	if !slices.Equal(s, []int{0, 2}) {
		t.Errorf("got %v", s)
	}
}

func TestInsertSliceElement(t *testing.T) {
	s := []int{0, 2}
	s = InsertSliceElement(s, 1, 1)
	if !slices.Equal(s, []int{0, 1, 2}) {
		t.Errorf("got %v", s)
	}
	s = InsertSliceElement(s, 3, 3)
	if !slices.Equal(s, []int{0, 1, 2, 3}) {
		t.Errorf("got %v", s)
	}
	s = InsertSliceElement(s, 0, -1)
	if !slices.Equal(s, []int{-1, 0, 1, 2, 3}) {
		t.Errorf("got %v", s)
	}
}

func TestMapFilterSlice(t *testing.T) {
	s := []int{1, 2, 3, 4}
	if got := MapSlice(s, func(v int) int { return v * v }); !slices.Equal(got, []int{1, 4, 9, 16}) {
		t.Errorf("MapSlice: %v", got)
	}
	if got := FilterSlice(s, func(v int) bool { return v%2 == 0 }); !slices.Equal(got, []int{2, 4}) {
		t.Errorf("FilterSlice: %v", got)
	}
}
