// Package world ties a map, its occupancy, the pathfinder and the
// collision resolver to a set of movers and collidables updated each tick.
package world

import (
	"errors"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/milk9111/tilenav/common"
	"github.com/milk9111/tilenav/component"
	"github.com/milk9111/tilenav/grid"
	"github.com/milk9111/tilenav/mover"
	"github.com/milk9111/tilenav/occupancy"
	"github.com/milk9111/tilenav/pathfinding"
	"github.com/milk9111/tilenav/prefabs"
	"github.com/milk9111/tilenav/store"
	"github.com/milk9111/tilenav/tilecollision"
)

var (
	ErrOutOfBounds = errors.New("tile out of bounds")
	ErrUnknownID   = errors.New("unknown id")
)

// Options configures a new world.
type Options struct {
	// SpeedX and SpeedY are the pixels per tick given to spawned movers.
	SpeedX float64
	SpeedY float64
	Prune  tilecollision.PruneMode
	Log    logrus.FieldLogger
}

// World owns the map and everything that moves or collides on it.
type World struct {
	m          grid.Map
	tracker    *occupancy.Tracker
	pathCfg    *pathfinding.Config
	finder     *pathfinding.Finder
	colCfg     *tilecollision.Config
	resolver   *tilecollision.Resolver
	ids        *store.IDPool
	movers     *store.SparseSet[*mover.Mover]
	collidable *store.SparseSet[*tilecollision.Collidable]
	events     EventQueue
	tick       int
	opts       Options
	log        logrus.FieldLogger
}

// New creates a world over m. colCfg may be nil when nothing collides.
func New(m grid.Map, pathCfg *pathfinding.Config, colCfg *tilecollision.Config, opts Options) *World {
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	if opts.SpeedX <= 0 {
		opts.SpeedX = 1
	}
	if opts.SpeedY <= 0 {
		opts.SpeedY = 1
	}
	if colCfg == nil {
		colCfg = tilecollision.EmptyConfig()
	}
	w := &World{
		m:          m,
		tracker:    occupancy.NewTracker(m.InTileWidth(), m.InTileHeight()),
		pathCfg:    pathCfg,
		colCfg:     colCfg,
		resolver:   tilecollision.NewResolver(opts.Log),
		ids:        store.NewIDPool(),
		movers:     store.NewSparseSet[*mover.Mover](),
		collidable: store.NewSparseSet[*tilecollision.Collidable](),
		opts:       opts,
		log:        opts.Log,
	}
	w.finder = pathfinding.NewFinder(m, w.tracker, pathCfg, opts.Log)
	w.resolver.SetPruneMode(opts.Prune)
	w.resolver.Load(m, colCfg)
	return w
}

func (w *World) Map() grid.Map                          { return w.m }
func (w *World) Tracker() *occupancy.Tracker            { return w.tracker }
func (w *World) Finder() *pathfinding.Finder            { return w.finder }
func (w *World) Resolver() *tilecollision.Resolver      { return w.resolver }
func (w *World) PathConfig() *pathfinding.Config        { return w.pathCfg }
func (w *World) CollisionConfig() *tilecollision.Config { return w.colCfg }
func (w *World) Tick() int                              { return w.tick }

// Events returns the world event queue.
func (w *World) Events() *EventQueue { return &w.events }

// FindPath lets movers search through whichever finder is current, so a
// reload takes effect on their next plan.
func (w *World) FindPath(a pathfinding.Agent, tx, ty int, ignoreOccupancy bool) (*pathfinding.Path, error) {
	return w.finder.FindPath(a, tx, ty, ignoreOccupancy)
}

// Spawn creates a mover with the named profile on tile (tx, ty). A nil body
// gets a one tile transform.
func (w *World) Spawn(profile string, tx, ty int, body component.Body) (*mover.Mover, error) {
	if tx < 0 || ty < 0 || tx >= w.m.InTileWidth() || ty >= w.m.InTileHeight() {
		return nil, fmt.Errorf("world: spawn at %s: %w", common.Tile(tx, ty), ErrOutOfBounds)
	}
	p, err := w.pathCfg.Profile(profile)
	if err != nil {
		return nil, fmt.Errorf("world: spawn: %w", err)
	}
	cx, cy := grid.TileCenter(w.m, tx, ty)
	if body == nil {
		body = component.NewTransform(cx, cy, w.m.TileWidth(), w.m.TileHeight())
	} else {
		body.Teleport(cx, cy)
	}

	id := w.ids.Acquire()
	mv, err := mover.New(mover.Config{
		ID:             id,
		Profile:        p,
		Body:           body,
		Map:            w.m,
		Finder:         w,
		Tracker:        w.tracker,
		SpeedX:         w.opts.SpeedX,
		SpeedY:         w.opts.SpeedY,
		DiagonalFactor: w.pathCfg.DiagonalSpeedFactor,
		Log:            w.log,
	})
	if err != nil {
		w.ids.Release(id)
		return nil, err
	}
	mv.AddListener(mover.ListenerFuncs{
		StartMove: func(m *mover.Mover) {
			dx, dy, _ := m.Destination()
			w.events.Push(Event{Kind: EventStartMove, ID: m.ID(), Tick: w.tick, From: common.Tile(m.TileX(), m.TileY()), To: common.Tile(dx, dy)})
		},
		Moving: func(m *mover.Mover, from, to common.TileCoord) {
			w.events.Push(Event{Kind: EventMoving, ID: m.ID(), Tick: w.tick, From: from, To: to})
		},
		Arrived: func(m *mover.Mover) {
			at := common.Tile(m.TileX(), m.TileY())
			w.events.Push(Event{Kind: EventArrived, ID: m.ID(), Tick: w.tick, From: at, To: at})
		},
	})
	w.movers.Set(id, mv)
	w.log.WithFields(logrus.Fields{"mover": id, "profile": profile, "tx": tx, "ty": ty}).Debug("world: spawned")
	return mv, nil
}

// AddCollidable registers a body that resolves the named collision
// categories each tick. id is an existing mover id to share its body, or
// zero to allocate a new one.
func (w *World) AddCollidable(id int, body component.Body, categories ...string) (int, *tilecollision.Collidable, error) {
	cats, err := w.categories(w.colCfg, categories)
	if err != nil {
		return 0, nil, err
	}
	if id == 0 {
		if body == nil {
			return 0, nil, fmt.Errorf("world: collidable without body")
		}
		id = w.ids.Acquire()
	} else {
		mv, ok := w.movers.Get(id)
		if !ok {
			return 0, nil, fmt.Errorf("world: collidable for %d: %w", id, ErrUnknownID)
		}
		if body == nil {
			body = mv.Body()
		}
	}
	c := tilecollision.NewCollidable(body, w.resolver, cats...)
	owner := id
	c.AddListener(func(res tilecollision.Result, cat *tilecollision.Category) {
		w.events.Push(Event{
			Kind:     EventCollided,
			ID:       owner,
			Tick:     w.tick,
			From:     res.Tile.Coord(),
			To:       res.Tile.Coord(),
			Category: cat.Name,
			Formula:  res.Formula.Name,
		})
	})
	w.collidable.Set(id, c)
	return id, c, nil
}

func (w *World) categories(cfg *tilecollision.Config, names []string) ([]*tilecollision.Category, error) {
	cats := make([]*tilecollision.Category, 0, len(names))
	for _, name := range names {
		cat, err := cfg.Category(name)
		if err != nil {
			return nil, fmt.Errorf("world: %w", err)
		}
		cats = append(cats, cat)
	}
	return cats, nil
}

// Despawn releases the id's reservations and forgets its mover and
// collidable. Remaining movers drop the id from their ignored and shared
// sets, since the pool hands it out again.
func (w *World) Despawn(id int) bool {
	mv, hasMover := w.movers.Get(id)
	if hasMover {
		mv.Release()
		w.movers.Remove(id)
		for _, other := range w.movers.Values() {
			other.Unignore(id)
			other.Unshare(id)
		}
	}
	hasCollidable := w.collidable.Remove(id)
	if !hasMover && !hasCollidable {
		return false
	}
	w.ids.Release(id)
	return true
}

func (w *World) Mover(id int) (*mover.Mover, bool) { return w.movers.Get(id) }

func (w *World) Collidable(id int) (*tilecollision.Collidable, bool) {
	return w.collidable.Get(id)
}

// Movers returns every mover in ascending id order.
func (w *World) Movers() []*mover.Mover {
	ids := sortedIDs(w.movers.IDs())
	out := make([]*mover.Mover, 0, len(ids))
	for _, id := range ids {
		mv, _ := w.movers.Get(id)
		out = append(out, mv)
	}
	return out
}

func sortedIDs(ids []int) []int {
	out := append([]int(nil), ids...)
	sort.Ints(out)
	return out
}

// Update advances every mover, in ascending id order, and then resolves
// every collidable.
func (w *World) Update(extrp float64) {
	if w == nil {
		return
	}
	w.tick++
	for _, mv := range w.Movers() {
		mv.Update(extrp)
	}
	for _, id := range sortedIDs(w.collidable.IDs()) {
		c, _ := w.collidable.Get(id)
		c.Update()
	}
}

// Reload rebuilds the pathfinding and collision configuration from specs.
// Nothing changes when any part of the new configuration is invalid. A nil
// spec keeps the current configuration for that part.
func (w *World) Reload(pathSpec *prefabs.PathfindingSpec, colSpec *prefabs.CollisionSpec) error {
	pathCfg := w.pathCfg
	if pathSpec != nil {
		cfg, err := pathfinding.NewConfig(pathSpec)
		if err != nil {
			return fmt.Errorf("world: reload: %w", err)
		}
		pathCfg = cfg
	}
	colCfg := w.colCfg
	if colSpec != nil {
		cfg, err := tilecollision.NewConfig(colSpec)
		if err != nil {
			return fmt.Errorf("world: reload: %w", err)
		}
		colCfg = cfg
	}

	movers := w.Movers()
	profiles := make([]*pathfinding.Profile, len(movers))
	for i, mv := range movers {
		p, err := pathCfg.Profile(mv.Profile().Name())
		if err != nil {
			return fmt.Errorf("world: reload mover %d: %w", mv.ID(), err)
		}
		profiles[i] = p
	}
	collidableIDs := sortedIDs(w.collidable.IDs())
	categories := make([][]*tilecollision.Category, len(collidableIDs))
	for i, id := range collidableIDs {
		c, _ := w.collidable.Get(id)
		names := make([]string, 0, len(c.Categories()))
		for _, cat := range c.Categories() {
			names = append(names, cat.Name)
		}
		cats, err := w.categories(colCfg, names)
		if err != nil {
			return fmt.Errorf("world: reload collidable %d: %w", id, err)
		}
		categories[i] = cats
	}

	for i, mv := range movers {
		mv.SetProfile(profiles[i])
		mv.SetDiagonalFactor(pathCfg.DiagonalSpeedFactor)
	}
	if pathCfg != w.pathCfg {
		w.pathCfg = pathCfg
		w.finder = pathfinding.NewFinder(w.m, w.tracker, pathCfg, w.log)
	}
	if colCfg != w.colCfg {
		w.colCfg = colCfg
		w.resolver.Load(w.m, colCfg)
		for i, id := range collidableIDs {
			c, _ := w.collidable.Get(id)
			c.SetCategories(categories[i]...)
		}
	}
	w.log.WithFields(logrus.Fields{"movers": len(movers), "collidables": len(collidableIDs)}).Info("world: reloaded")
	return nil
}
