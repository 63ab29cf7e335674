// Package occupancy tracks which movers reserve which tiles.
package occupancy

import (
	"sync"

	"github.com/milk9111/tilenav/store"
)

// Exempt reports whether an occupant id should be ignored by a query.
type Exempt func(id int) bool

// Tracker maps each tile to the set of mover ids reserving it. Ids must be
// positive. Mutations are serialized by an internal mutex.
type Tracker struct {
	mu     sync.RWMutex
	width  int
	height int
	tiles  []*store.SparseSet[struct{}]
}

// NewTracker creates a tracker for a width x height tile grid.
func NewTracker(width, height int) *Tracker {
	t := &Tracker{}
	t.Resize(width, height)
	return t
}

// Resize drops every reservation and rebinds the tracker to new grid
// dimensions.
func (t *Tracker) Resize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	t.width = width
	t.height = height
	t.tiles = make([]*store.SparseSet[struct{}], width*height)
}

// Width returns the grid width in tiles.
func (t *Tracker) Width() int { return t.width }

// Height returns the grid height in tiles.
func (t *Tracker) Height() int { return t.height }

func (t *Tracker) index(tx, ty int) int {
	if tx < 0 || ty < 0 || tx >= t.width || ty >= t.height {
		return -1
	}
	return ty*t.width + tx
}

// Assign reserves tile (tx, ty) for id. Out of bounds tiles are ignored.
func (t *Tracker) Assign(tx, ty, id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.assign(tx, ty, id)
}

func (t *Tracker) assign(tx, ty, id int) {
	idx := t.index(tx, ty)
	if idx < 0 || id <= 0 {
		return
	}
	set := t.tiles[idx]
	if set == nil {
		set = store.NewSparseSet[struct{}]()
		t.tiles[idx] = set
	}
	set.Set(id, struct{}{})
}

// Remove releases id's reservation of tile (tx, ty).
func (t *Tracker) Remove(tx, ty, id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.remove(tx, ty, id)
}

func (t *Tracker) remove(tx, ty, id int) {
	idx := t.index(tx, ty)
	if idx < 0 {
		return
	}
	if set := t.tiles[idx]; set != nil {
		set.Remove(id)
	}
}

// AssignArea reserves the tw x th block whose top-left tile is (tx, ty).
func (t *Tracker) AssignArea(tx, ty, tw, th, id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for y := ty; y < ty+th; y++ {
		for x := tx; x < tx+tw; x++ {
			t.assign(x, y, id)
		}
	}
}

// RemoveArea releases the tw x th block whose top-left tile is (tx, ty).
func (t *Tracker) RemoveArea(tx, ty, tw, th, id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for y := ty; y < ty+th; y++ {
		for x := tx; x < tx+tw; x++ {
			t.remove(x, y, id)
		}
	}
}

// MoveArea releases one block and reserves another for id in a single
// critical section, so no other caller observes the intermediate state.
func (t *Tracker) MoveArea(fromX, fromY, toX, toY, tw, th, id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for y := fromY; y < fromY+th; y++ {
		for x := fromX; x < fromX+tw; x++ {
			t.remove(x, y, id)
		}
	}
	for y := toY; y < toY+th; y++ {
		for x := toX; x < toX+tw; x++ {
			t.assign(x, y, id)
		}
	}
}

// IDs returns a copy of the ids reserving tile (tx, ty).
func (t *Tracker) IDs(tx, ty int) []int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := t.index(tx, ty)
	if idx < 0 || t.tiles[idx] == nil {
		return nil
	}
	ids := t.tiles[idx].IDs()
	if len(ids) == 0 {
		return nil
	}
	return append([]int(nil), ids...)
}

// Has reports whether id reserves tile (tx, ty).
func (t *Tracker) Has(tx, ty, id int) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := t.index(tx, ty)
	return idx >= 0 && t.tiles[idx].Has(id)
}

// Count returns how many ids reserve tile (tx, ty).
func (t *Tracker) Count(tx, ty int) int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	idx := t.index(tx, ty)
	if idx < 0 {
		return 0
	}
	return t.tiles[idx].Len()
}

// Blocker returns the first id on tile (tx, ty) that is not exempt.
func (t *Tracker) Blocker(tx, ty int, exempt Exempt) (int, bool) {
	return t.AreaBlocker(tx, ty, 1, 1, exempt)
}

// AreaBlocker scans the tw x th block whose top-left tile is (tx, ty) and
// returns the first reserving id that exempt does not excuse. ok is false
// when the whole block is free.
func (t *Tracker) AreaBlocker(tx, ty, tw, th int, exempt Exempt) (int, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for y := ty; y < ty+th; y++ {
		for x := tx; x < tx+tw; x++ {
			idx := t.index(x, y)
			if idx < 0 || t.tiles[idx] == nil {
				continue
			}
			for _, id := range t.tiles[idx].IDs() {
				if exempt != nil && exempt(id) {
					continue
				}
				return id, true
			}
		}
	}
	return 0, false
}

// Reset drops every reservation.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, set := range t.tiles {
		if set != nil {
			set.Clear()
		}
	}
}
