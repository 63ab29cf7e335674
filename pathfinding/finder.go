// Package pathfinding implements tile-grid A* search for movers with
// per-terrain movement rules and tile occupancy.
package pathfinding

import (
	"container/heap"

	"github.com/sirupsen/logrus"

	"github.com/milk9111/tilenav/common"
	"github.com/milk9111/tilenav/grid"
	"github.com/milk9111/tilenav/occupancy"
)

// Agent is what the finder needs to know about a mover.
type Agent interface {
	ID() int
	// TileX and TileY are the anchor (top-left) tile of the footprint.
	TileX() int
	TileY() int
	// InTileWidth and InTileHeight are the footprint size in tiles.
	InTileWidth() int
	InTileHeight() int
	Profile() *Profile
}

// ignorer is implemented by agents whose reservations may overlap some
// other movers. Those movers never block the agent.
type ignorer interface {
	IsIgnored(id int) bool
}

// Finder computes paths on one map. It owns a node per tile and is not safe
// for concurrent searches.
type Finder struct {
	m          grid.Map
	tracker    *occupancy.Tracker
	categories *Categories
	heuristic  Heuristic
	maxDepth   int
	log        logrus.FieldLogger

	width  int
	height int
	nodes  []Node
	open   openList
	seq    uint64
}

// NewFinder binds a finder to a map. tracker may be nil when occupancy is
// not tracked.
func NewFinder(m grid.Map, tracker *occupancy.Tracker, cfg *Config, log logrus.FieldLogger) *Finder {
	if log == nil {
		log = logrus.StandardLogger()
	}
	f := &Finder{
		m:          m,
		tracker:    tracker,
		categories: cfg.Categories,
		heuristic:  cfg.Heuristic,
		maxDepth:   cfg.MaxSearchDistance,
		log:        log,
	}
	if f.heuristic == nil {
		f.heuristic = DiagonalHeuristic{}
	}
	if f.maxDepth <= 0 {
		f.maxDepth = DefaultMaxSearchDistance
	}
	if sh, ok := f.heuristic.(*ScriptHeuristic); ok {
		sh.SetLogger(log)
	}
	f.allocate()
	return f
}

// SetHeuristic swaps the cost estimate used by later searches.
func (f *Finder) SetHeuristic(h Heuristic) {
	if h != nil {
		f.heuristic = h
	}
}

// SetMaxSearchDistance bounds the depth of later searches.
func (f *Finder) SetMaxSearchDistance(d int) {
	if d > 0 {
		f.maxDepth = d
	}
}

func (f *Finder) Map() grid.Map { return f.m }

func (f *Finder) allocate() {
	f.width = f.m.InTileWidth()
	f.height = f.m.InTileHeight()
	f.nodes = make([]Node, f.width*f.height)
	for y := 0; y < f.height; y++ {
		for x := 0; x < f.width; x++ {
			n := &f.nodes[y*f.width+x]
			n.X = x
			n.Y = y
			n.reset()
		}
	}
	f.open = make(openList, 0, 64)
	f.seq = 0
}

func (f *Finder) inBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < f.width && ty < f.height
}

func (f *Finder) node(tx, ty int) *Node {
	return &f.nodes[ty*f.width+tx]
}

func (f *Finder) reset() {
	if f.width != f.m.InTileWidth() || f.height != f.m.InTileHeight() {
		f.allocate()
		return
	}
	for i := range f.nodes {
		f.nodes[i].reset()
	}
	clear(f.open)
	f.open = f.open[:0]
	f.seq = 0
}

// Category returns the path category of tile (tx, ty). ok is false for
// empty or out of bounds cells.
func (f *Finder) Category(tx, ty int) (string, bool, error) {
	t := f.m.Tile(tx, ty)
	if t == nil {
		return "", false, nil
	}
	c, err := f.categories.Of(t.Group)
	if err != nil {
		return "", false, err
	}
	return c, true, nil
}

// IsBlocked reports whether the agent's footprint cannot stand with its
// anchor on (tx, ty). Empty and out of bounds cells block, as do blocking
// categories for the agent's profile and, unless ignoreOccupancy is set,
// tiles reserved by any other mover the agent does not ignore.
func (f *Finder) IsBlocked(a Agent, tx, ty int, ignoreOccupancy bool) (bool, error) {
	tw, th := footprint(a)
	profile := a.Profile()
	for y := ty; y < ty+th; y++ {
		for x := tx; x < tx+tw; x++ {
			cat, ok, err := f.Category(x, y)
			if err != nil {
				return true, err
			}
			if !ok {
				return true, nil
			}
			blocking, err := profile.IsBlocking(cat)
			if err != nil {
				return true, err
			}
			if blocking {
				return true, nil
			}
		}
	}
	if ignoreOccupancy || f.tracker == nil {
		return false, nil
	}
	self := a.ID()
	ig, _ := a.(ignorer)
	_, occupied := f.tracker.AreaBlocker(tx, ty, tw, th, func(id int) bool {
		return id == self || (ig != nil && ig.IsIgnored(id))
	})
	return occupied, nil
}

// FreeTileAround looks for the free tile closest to (tx, ty), ring by ring
// up to radius. Within a ring the tile nearest to the agent by straight
// line distance wins, then row-major order.
func (f *Finder) FreeTileAround(a Agent, tx, ty, radius int, ignoreOccupancy bool) (int, int, bool, error) {
	ax, ay := a.TileX(), a.TileY()
	for r := 1; r <= radius; r++ {
		bestX, bestY, best := 0, 0, -1
		for y := ty - r; y <= ty+r; y++ {
			for x := tx - r; x <= tx+r; x++ {
				if common.Chebyshev(x, y, tx, ty) != r || !f.inBounds(x, y) {
					continue
				}
				blocked, err := f.IsBlocked(a, x, y, ignoreOccupancy)
				if err != nil {
					return 0, 0, false, err
				}
				if blocked {
					continue
				}
				d := (x-ax)*(x-ax) + (y-ay)*(y-ay)
				if best < 0 || d < best {
					bestX, bestY, best = x, y, d
				}
			}
		}
		if best >= 0 {
			return bestX, bestY, true, nil
		}
	}
	return 0, 0, false, nil
}

// FindPath searches a path for the agent from its current tile to (tx, ty).
// A nil path with a nil error means no path exists; errors are only
// returned for configuration problems.
func (f *Finder) FindPath(a Agent, tx, ty int, ignoreOccupancy bool) (*Path, error) {
	sx, sy := a.TileX(), a.TileY()
	log := f.log.WithFields(logrus.Fields{"mover": a.ID(), "from": common.Tile(sx, sy), "to": common.Tile(tx, ty)})

	if !f.inBounds(tx, ty) || !f.inBounds(sx, sy) {
		log.Debug("pathfinding: endpoint out of bounds")
		return nil, nil
	}

	blocked, err := f.IsBlocked(a, tx, ty, ignoreOccupancy)
	if err != nil {
		return nil, err
	}
	if blocked {
		if common.Chebyshev(sx, sy, tx, ty) <= 1 {
			log.Debug("pathfinding: adjacent destination blocked")
			return nil, nil
		}
		fx, fy, ok, err := f.FreeTileAround(a, tx, ty, f.m.InTileRadius(), ignoreOccupancy)
		if err != nil {
			return nil, err
		}
		if !ok {
			log.Debug("pathfinding: no free tile around destination")
			return nil, nil
		}
		log.WithField("redirect", common.Tile(fx, fy)).Debug("pathfinding: destination blocked, redirecting")
		return f.FindPath(a, fx, fy, ignoreOccupancy)
	}

	path, err := f.search(a, sx, sy, tx, ty, ignoreOccupancy)
	if err != nil {
		return nil, err
	}
	if path == nil {
		log.Debug("pathfinding: no path")
		return nil, nil
	}
	log.WithField("steps", path.Len()).Debug("pathfinding: path found")
	return path, nil
}

func (f *Finder) push(n *Node) {
	f.seq++
	n.seq = f.seq
	heap.Push(&f.open, n)
}

func (f *Finder) search(a Agent, sx, sy, tx, ty int, ignoreOccupancy bool) (*Path, error) {
	f.reset()
	profile := a.Profile()

	start := f.node(sx, sy)
	goal := f.node(tx, ty)
	start.cost = 0
	start.depth = 0
	start.heuristic = f.heuristic.Cost(sx, sy, tx, ty)
	f.push(start)

	maxDepth := 0
	for maxDepth < f.maxDepth && f.open.Len() > 0 {
		current := heap.Pop(&f.open).(*Node)
		if current == goal {
			break
		}
		current.closed = true

		cat, ok, err := f.Category(current.X, current.Y)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		data, err := profile.Data(cat)
		if err != nil {
			return nil, err
		}

		for _, dir := range common.Directions() {
			if !data.Movements.Has(dir) {
				continue
			}
			dx, dy := dir.Delta()
			nx, ny := current.X+dx, current.Y+dy
			if !f.inBounds(nx, ny) {
				continue
			}
			blocked, err := f.IsBlocked(a, nx, ny, ignoreOccupancy)
			if err != nil {
				return nil, err
			}
			if blocked {
				continue
			}

			nextCost := current.cost + data.Cost
			neighbor := f.node(nx, ny)
			if neighbor.cost <= nextCost {
				continue
			}
			if neighbor.inOpen() {
				heap.Remove(&f.open, neighbor.index)
			}
			neighbor.closed = false

			neighbor.cost = nextCost
			neighbor.heuristic = f.heuristic.Cost(nx, ny, tx, ty)
			neighbor.parent = current
			neighbor.depth = current.depth + 1
			if neighbor.depth > maxDepth {
				maxDepth = neighbor.depth
			}
			f.push(neighbor)
		}
	}

	if goal.parent == nil {
		return nil, nil
	}
	path := &Path{steps: make([]common.TileCoord, 0, goal.depth+1)}
	for n, guard := goal, len(f.nodes); n != start; n, guard = n.parent, guard-1 {
		if n == nil || guard <= 0 {
			return nil, nil
		}
		path.Prepend(n.X, n.Y)
	}
	path.Prepend(sx, sy)
	return path, nil
}

func footprint(a Agent) (int, int) {
	tw, th := a.InTileWidth(), a.InTileHeight()
	if tw < 1 {
		tw = 1
	}
	if th < 1 {
		th = 1
	}
	return tw, th
}
