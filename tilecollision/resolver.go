package tilecollision

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/tilenav/common"
	"github.com/milk9111/tilenav/component"
	"github.com/milk9111/tilenav/grid"
)

// PruneMode selects how constraint pruning observes neighbours that are
// pruned during the same pass.
type PruneMode uint8

const (
	// PruneInPlace visits tiles in row-major order and sees the formulas
	// already removed from earlier tiles.
	PruneInPlace PruneMode = iota
	// PruneSnapshot evaluates every constraint against the formulas active
	// before pruning started.
	PruneSnapshot
)

func (p PruneMode) String() string {
	switch p {
	case PruneInPlace:
		return "in-place"
	case PruneSnapshot:
		return "snapshot"
	default:
		return fmt.Sprintf("PruneMode(%d)", uint8(p))
	}
}

// Result is a resolved collision. Exactly one of X and Y is set, holding
// the absolute pixel coordinate on the category's axis.
type Result struct {
	X       *float64
	Y       *float64
	Tile    *grid.Tile
	Formula *Formula
}

// Resolver holds the formulas active on each tile of a loaded map.
type Resolver struct {
	m      grid.Map
	cfg    *Config
	mode   PruneMode
	width  int
	height int
	tiles  [][]*Formula
	log    logrus.FieldLogger
}

func NewResolver(log logrus.FieldLogger) *Resolver {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Resolver{log: log}
}

func (r *Resolver) SetPruneMode(mode PruneMode) { r.mode = mode }
func (r *Resolver) PruneMode() PruneMode        { return r.mode }
func (r *Resolver) Map() grid.Map               { return r.m }
func (r *Resolver) Config() *Config             { return r.cfg }

// Load assigns formulas to every tile of m. A tile gets the union of the
// formulas of the group named after its terrain group, then formulas whose
// constraints match a neighbour are removed.
func (r *Resolver) Load(m grid.Map, cfg *Config) {
	r.m = m
	r.cfg = cfg
	r.width = m.InTileWidth()
	r.height = m.InTileHeight()
	r.tiles = make([][]*Formula, r.width*r.height)

	for _, g := range cfg.Groups() {
		for _, t := range m.TilesInGroup(g.Name) {
			idx, ok := r.index(t.X, t.Y)
			if !ok {
				continue
			}
			for _, f := range g.Formulas {
				r.tiles[idx] = addFormula(r.tiles[idx], f)
			}
		}
	}

	removed := r.prune()
	r.log.WithFields(logrus.Fields{
		"width":  r.width,
		"height": r.height,
		"pruned": removed,
		"mode":   r.mode.String(),
	}).Info("tilecollision: map loaded")
}

func addFormula(list []*Formula, f *Formula) []*Formula {
	for _, existing := range list {
		if existing == f {
			return list
		}
	}
	return append(list, f)
}

func (r *Resolver) prune() int {
	var active []bool
	if r.mode == PruneSnapshot {
		active = make([]bool, len(r.tiles))
		for i, fs := range r.tiles {
			active[i] = len(fs) > 0
		}
	}
	hasFormulas := func(tx, ty int) bool {
		idx, ok := r.index(tx, ty)
		if !ok {
			return false
		}
		if active != nil {
			return active[idx]
		}
		return len(r.tiles[idx]) > 0
	}

	removed := 0
	for ty := 0; ty < r.height; ty++ {
		for tx := 0; tx < r.width; tx++ {
			idx := ty*r.width + tx
			if len(r.tiles[idx]) == 0 {
				continue
			}
			kept := r.tiles[idx][:0]
			for _, f := range r.tiles[idx] {
				if r.suppressed(f, tx, ty, hasFormulas) {
					removed++
					continue
				}
				kept = append(kept, f)
			}
			r.tiles[idx] = kept
		}
	}
	return removed
}

func (r *Resolver) suppressed(f *Formula, tx, ty int, hasFormulas func(tx, ty int) bool) bool {
	if f.Constraint.Empty() {
		return false
	}
	for _, o := range common.Orientations {
		nx, ny := o.Neighbor(tx, ty)
		nt := r.m.Tile(nx, ny)
		if nt == nil || !f.Constraint.Has(o, nt.Group) {
			continue
		}
		if hasFormulas(nx, ny) {
			return true
		}
	}
	return false
}

func (r *Resolver) index(tx, ty int) (int, bool) {
	if tx < 0 || ty < 0 || tx >= r.width || ty >= r.height {
		return 0, false
	}
	return ty*r.width + tx, true
}

// Formulas returns a copy of the formulas active on (tx, ty).
func (r *Resolver) Formulas(tx, ty int) []*Formula {
	idx, ok := r.index(tx, ty)
	if !ok || len(r.tiles[idx]) == 0 {
		return nil
	}
	out := make([]*Formula, len(r.tiles[idx]))
	copy(out, r.tiles[idx])
	return out
}

// ComputeCollision walks the category's probe from the body's previous
// position to its current one in unit steps and returns the first
// collision found.
func (r *Resolver) ComputeCollision(body component.Body, cat *Category) (Result, bool) {
	if r.m == nil || cat == nil {
		return Result{}, false
	}
	offset := cp.Vector{X: cat.OffsetX, Y: cat.OffsetY}
	from := cp.Vector{X: body.OldX(), Y: body.OldY()}.Add(offset)
	to := cp.Vector{X: body.X(), Y: body.Y()}.Add(offset)
	return r.collideSegment(from, to, cat)
}

// ComputeSegment probes the segment from (x1, y1) to (x2, y2) directly.
func (r *Resolver) ComputeSegment(x1, y1, x2, y2 float64, cat *Category) (Result, bool) {
	if r.m == nil || cat == nil {
		return Result{}, false
	}
	return r.collideSegment(cp.Vector{X: x1, Y: y1}, cp.Vector{X: x2, Y: y2}, cat)
}

func (r *Resolver) collideSegment(from, to cp.Vector, cat *Category) (Result, bool) {
	seg := to.Sub(from)
	length := seg.Length()
	steps := int(math.Round(length))
	var dir cp.Vector
	if length > 0 {
		dir = seg.Mult(1 / length)
	}
	for i := 0; i <= steps; i++ {
		p := from.Add(dir.Mult(float64(i)))
		if float64(i) > length {
			p = to
		}
		if res, ok := r.collideAt(p, cat); ok {
			return res, true
		}
	}
	return Result{}, false
}

func (r *Resolver) collideAt(p cp.Vector, cat *Category) (Result, bool) {
	tx := r.m.InTileX(p.X)
	ty := r.m.InTileY(p.Y)
	tile := r.m.Tile(tx, ty)
	if tile == nil {
		return Result{}, false
	}
	idx, ok := r.index(tx, ty)
	if !ok {
		return Result{}, false
	}
	ox, oy := grid.TileOrigin(r.m, tx, ty)
	lx := math.Floor(p.X - ox)
	ly := math.Floor(p.Y - oy)

	for _, f := range r.tiles[idx] {
		if !cat.Has(f) {
			continue
		}
		switch f.Range.Output {
		case common.AxisX, common.AxisY:
		default:
			panic(fmt.Sprintf("tilecollision: formula %q has invalid output axis %v", f.Name, f.Range.Output))
		}
		if f.Range.Output != cat.Axis || !f.Range.Contains(lx, ly) {
			continue
		}
		switch cat.Axis {
		case common.AxisY:
			y := oy + f.Function.Compute(lx)
			return Result{Y: &y, Tile: tile, Formula: f}, true
		case common.AxisX:
			x := ox + f.Function.Compute(ly)
			return Result{X: &x, Tile: tile, Formula: f}, true
		default:
			panic(fmt.Sprintf("tilecollision: category %q has invalid axis %v", cat.Name, cat.Axis))
		}
	}
	return Result{}, false
}
