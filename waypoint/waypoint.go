// waypoint/waypoint.go
// Copyright(c) 2026 glidetask contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package waypoint

import (
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/soaringlab/glidetask/geo"
	"github.com/soaringlab/glidetask/util"
)

// Waypoint is one entry in the turnpoint database. Waypoints are plain
// values; the database hands out copies, never references into its own
// storage.
type Waypoint struct {
	ID        int          `json:"id"`
	Name      string       `json:"name"`
	Comment   string       `json:"comment,omitempty"`
	Location  geo.GeoPoint `json:"location"`
	Elevation float64      `json:"elevation"` // m MSL
}

// sameLocationTolerance is how close two waypoints must be, in meters,
// for CheckExistsOrAppend to treat them as the same point.
const sameLocationTolerance = 100

func (w Waypoint) Equal(other Waypoint) bool {
	return strings.EqualFold(w.Name, other.Name) &&
		w.Location.Distance(other.Location) < sameLocationTolerance
}

// Waypoints is the read-mostly turnpoint database. Lookups by name are
// indexed; nearest-point queries go through a kd-tree that is rebuilt
// lazily after mutations, with a small expiring cache in front for the
// repeated queries that map panning produces.
type Waypoints struct {
	mu     sync.RWMutex
	points []Waypoint
	byName map[string]int // lower-cased name -> index
	nextID int

	tree         *kdNode
	treeStale    bool
	nearestCache *expirable.LRU[geo.GeoPoint, Waypoint]
}

const nearestCacheSize = 256
const nearestCacheTTL = time.Minute

func NewWaypoints() *Waypoints {
	return &Waypoints{
		byName:       make(map[string]int),
		nextID:       1,
		nearestCache: expirable.NewLRU[geo.GeoPoint, Waypoint](nearestCacheSize, nil, nearestCacheTTL),
	}
}

func (db *Waypoints) Len() int {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return len(db.points)
}

// Append adds wp to the database unconditionally and returns the stored
// copy with its assigned ID.
func (db *Waypoints) Append(wp Waypoint) Waypoint {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.appendLocked(wp)
}

func (db *Waypoints) appendLocked(wp Waypoint) Waypoint {
	wp.ID = db.nextID
	db.nextID++
	db.points = append(db.points, wp)
	db.byName[strings.ToLower(wp.Name)] = len(db.points) - 1
	db.treeStale = true
	db.nearestCache.Purge()
	return wp
}

// Lookup returns the waypoint with the given name, case-insensitively.
func (db *Waypoints) Lookup(name string) (Waypoint, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	if i, ok := db.byName[strings.ToLower(name)]; ok {
		return db.points[i], true
	}
	return Waypoint{}, false
}

// CheckExistsOrAppend returns the database's copy of wp if an equivalent
// waypoint is already stored, appending it first if not. Used to
// deduplicate waypoints when a task is committed.
func (db *Waypoints) CheckExistsOrAppend(wp Waypoint) Waypoint {
	db.mu.Lock()
	defer db.mu.Unlock()

	if i, ok := db.byName[strings.ToLower(wp.Name)]; ok && db.points[i].Equal(wp) {
		return db.points[i]
	}
	return db.appendLocked(wp)
}

// Nearest returns the waypoint closest to p. ok is false for an empty
// database.
func (db *Waypoints) Nearest(p geo.GeoPoint) (Waypoint, bool) {
	if wp, ok := db.nearestCache.Get(p); ok {
		return wp, true
	}

	db.mu.Lock()
	if db.treeStale || db.tree == nil {
		db.tree = buildKDTree(db.points)
		db.treeStale = false
	}
	tree := db.tree
	db.mu.Unlock()

	if tree == nil {
		return Waypoint{}, false
	}

	best := nearest{distance: -1}
	tree.nearest(p, 0, &best)
	db.nearestCache.Add(p, best.waypoint)
	return best.waypoint, true
}

// All returns a copy of the database contents in insertion order.
func (db *Waypoints) All() []Waypoint {
	db.mu.RLock()
	defer db.mu.RUnlock()
	return util.DuplicateSlice(db.points)
}
