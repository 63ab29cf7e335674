// Package mover drives an agent along tile paths, one step per arrival,
// while keeping its tile reservations in the occupancy tracker.
package mover

import (
	"fmt"
	"math"

	"github.com/jakecoffman/cp"
	"github.com/sirupsen/logrus"
	"github.com/zyedidia/generic/mapset"

	"github.com/milk9111/tilenav/common"
	"github.com/milk9111/tilenav/component"
	"github.com/milk9111/tilenav/grid"
	"github.com/milk9111/tilenav/occupancy"
	"github.com/milk9111/tilenav/pathfinding"
)

// DefaultDiagonalFactor scales both axes of a diagonal move so that a
// diagonal step takes about as long as a straight one.
const DefaultDiagonalFactor = 0.8

// PathFinder is the search the mover calls when it plans.
type PathFinder interface {
	FindPath(a pathfinding.Agent, tx, ty int, ignoreOccupancy bool) (*pathfinding.Path, error)
}

// Config wires a mover to its collaborators. ID must be positive and
// unique among movers sharing a tracker.
type Config struct {
	ID             int
	Profile        *pathfinding.Profile
	Body           component.Body
	Map            grid.Map
	Finder         PathFinder
	Tracker        *occupancy.Tracker
	SpeedX         float64
	SpeedY         float64
	DiagonalFactor float64
	Log            logrus.FieldLogger
}

type Mover struct {
	id      int
	profile *pathfinding.Profile
	body    component.Body
	m       grid.Map
	finder  PathFinder
	tracker *occupancy.Tracker
	log     logrus.FieldLogger

	speedX         float64
	speedY         float64
	diagonalFactor float64

	state State
	path  *pathfinding.Path
	step  int
	tileX int
	tileY int

	destX              int
	destY              int
	hasDestination     bool
	destinationChanged bool
	stopRequested      bool

	moveX float64
	moveY float64

	ignored   mapset.Set[int]
	shared    mapset.Set[int]
	listeners []Listener
}

// New creates a mover standing on the tile under its body and reserves
// that tile.
func New(cfg Config) (*Mover, error) {
	if cfg.ID <= 0 {
		return nil, fmt.Errorf("mover: id %d must be positive", cfg.ID)
	}
	if cfg.Profile == nil || cfg.Body == nil || cfg.Map == nil || cfg.Finder == nil || cfg.Tracker == nil {
		return nil, fmt.Errorf("mover: incomplete config for id %d", cfg.ID)
	}
	log := cfg.Log
	if log == nil {
		log = logrus.StandardLogger()
	}
	mv := &Mover{
		id:             cfg.ID,
		profile:        cfg.Profile,
		body:           cfg.Body,
		m:              cfg.Map,
		finder:         cfg.Finder,
		tracker:        cfg.Tracker,
		log:            log.WithField("mover", cfg.ID),
		speedX:         cfg.SpeedX,
		speedY:         cfg.SpeedY,
		diagonalFactor: cfg.DiagonalFactor,
		ignored:        mapset.New[int](),
		shared:         mapset.New[int](),
	}
	if mv.speedX <= 0 {
		mv.speedX = 1
	}
	if mv.speedY <= 0 {
		mv.speedY = 1
	}
	if mv.diagonalFactor <= 0 {
		mv.diagonalFactor = DefaultDiagonalFactor
	}
	mv.Place(cfg.Map.InTileX(cfg.Body.X()), cfg.Map.InTileY(cfg.Body.Y()))
	return mv, nil
}

func (mv *Mover) ID() int                       { return mv.id }
func (mv *Mover) TileX() int                    { return mv.tileX }
func (mv *Mover) TileY() int                    { return mv.tileY }
func (mv *Mover) Profile() *pathfinding.Profile { return mv.profile }
func (mv *Mover) Body() component.Body          { return mv.body }
func (mv *Mover) State() State                  { return mv.state }
func (mv *Mover) Path() *pathfinding.Path       { return mv.path }
func (mv *Mover) CurrentStep() int              { return mv.step }

// IsMoving reports whether the mover is walking a path.
func (mv *Mover) IsMoving() bool { return mv.state == Advancing }

// Movement returns the displacement applied by the last update.
func (mv *Mover) Movement() (float64, float64) { return mv.moveX, mv.moveY }

// Destination returns the requested destination, if any.
func (mv *Mover) Destination() (int, int, bool) {
	return mv.destX, mv.destY, mv.hasDestination
}

// InTileWidth is the footprint width in tiles, at least 1.
func (mv *Mover) InTileWidth() int {
	return tilesFor(mv.body.Width(), mv.m.TileWidth())
}

// InTileHeight is the footprint height in tiles, at least 1.
func (mv *Mover) InTileHeight() int {
	return tilesFor(mv.body.Height(), mv.m.TileHeight())
}

func tilesFor(px, tile int) int {
	if px <= 0 || tile <= 0 {
		return 1
	}
	n := int(math.Ceil(float64(px) / float64(tile)))
	if n < 1 {
		return 1
	}
	return n
}

// SetProfile swaps the movement profile used by later plans.
func (mv *Mover) SetProfile(p *pathfinding.Profile) {
	if p != nil {
		mv.profile = p
	}
}

func (mv *Mover) SetSpeed(sx, sy float64) {
	mv.speedX = sx
	mv.speedY = sy
}

func (mv *Mover) Speed() (float64, float64) { return mv.speedX, mv.speedY }

func (mv *Mover) SetDiagonalFactor(f float64) {
	if f > 0 {
		mv.diagonalFactor = f
	}
}

func (mv *Mover) AddListener(l Listener) {
	if l != nil {
		mv.listeners = append(mv.listeners, l)
	}
}

// Ignore makes id never block this mover's steps.
func (mv *Mover) Ignore(id int)         { mv.ignored.Put(id) }
func (mv *Mover) Unignore(id int)       { mv.ignored.Remove(id) }
func (mv *Mover) IsIgnored(id int) bool { return mv.ignored.Has(id) }

// Share marks id as a mover this one shares its path with. Finding a
// shared mover on the next step stops the path instead of re-planning
// around it. Shared ids are forgotten once the path ends.
func (mv *Mover) Share(id int)         { mv.shared.Put(id) }
func (mv *Mover) Unshare(id int)       { mv.shared.Remove(id) }
func (mv *Mover) IsShared(id int) bool { return mv.shared.Has(id) }

// Place moves the mover onto tile (tx, ty) at once, dropping any path.
func (mv *Mover) Place(tx, ty int) {
	tw, th := mv.InTileWidth(), mv.InTileHeight()
	if mv.state != Idle || mv.tracker.Has(mv.tileX, mv.tileY, mv.id) {
		mv.tracker.RemoveArea(mv.tileX, mv.tileY, tw, th, mv.id)
	}
	mv.clearPath()
	mv.state = Idle
	mv.hasDestination = false
	mv.tileX, mv.tileY = tx, ty
	cx, cy := grid.TileCenter(mv.m, tx, ty)
	mv.body.Teleport(cx, cy)
	mv.tracker.AssignArea(tx, ty, tw, th, mv.id)
}

// Release drops every reservation held by the mover.
func (mv *Mover) Release() {
	mv.tracker.RemoveArea(mv.tileX, mv.tileY, mv.InTileWidth(), mv.InTileHeight(), mv.id)
	mv.clearPath()
	mv.state = Idle
}

// SetDestination requests a path to (tx, ty). An idle mover plans at once
// and reports whether it found a path. A moving mover only records the
// destination; it re-plans after finishing its current step and reports
// false.
func (mv *Mover) SetDestination(tx, ty int) (bool, error) {
	mv.destX, mv.destY = tx, ty
	mv.hasDestination = true
	if mv.state == Advancing {
		mv.destinationChanged = true
		return false, nil
	}
	ok, err := mv.plan()
	if err != nil || !ok {
		mv.state = Idle
		mv.hasDestination = false
		return false, err
	}
	for _, l := range mv.listeners {
		l.NotifyStartMove(mv)
	}
	return true, nil
}

// StopMoves asks the mover to halt once it completes the current step.
func (mv *Mover) StopMoves() {
	if mv.state == Advancing {
		mv.stopRequested = true
	}
}

func (mv *Mover) plan() (bool, error) {
	mv.state = Planning
	path, err := mv.finder.FindPath(mv, mv.destX, mv.destY, false)
	if err != nil {
		return false, fmt.Errorf("mover: plan to (%d,%d): %w", mv.destX, mv.destY, err)
	}
	if path == nil {
		mv.log.WithFields(logrus.Fields{"tx": mv.destX, "ty": mv.destY}).Debug("mover: no path")
		return false, nil
	}
	mv.path = path
	mv.step = 0
	mv.state = Advancing
	return true, nil
}

// Update moves the body toward the current step's tile centre. Both axes
// advance independently; an axis that reaches or passes its target is
// clamped onto it, and once both are on target the step is complete.
func (mv *Mover) Update(extrp float64) {
	if mv.state != Advancing || mv.path == nil {
		mv.moveX, mv.moveY = 0, 0
		return
	}

	target := mv.path.Step(mv.step)
	cx, cy := grid.TileCenter(mv.m, target.X, target.Y)
	goal := cp.Vector{X: cx, Y: cy}
	pos := cp.Vector{X: mv.body.X(), Y: mv.body.Y()}
	delta := goal.Sub(pos)

	if delta.X == 0 && delta.Y == 0 {
		mv.moveX, mv.moveY = 0, 0
		mv.reachStep()
		return
	}

	sx, sy := common.Sign(delta.X), common.Sign(delta.Y)
	force := cp.Vector{X: sx * mv.speedX, Y: sy * mv.speedY}
	if sx != 0 && sy != 0 {
		force = force.Mult(mv.diagonalFactor)
	}
	next := pos.Add(force.Mult(extrp))
	if common.Sign(goal.X-next.X) != sx {
		next.X = goal.X
	}
	if common.Sign(goal.Y-next.Y) != sy {
		next.Y = goal.Y
	}

	mv.moveX, mv.moveY = next.X-pos.X, next.Y-pos.Y
	mv.body.SetLocation(next.X, next.Y)
	if next.X == goal.X && next.Y == goal.Y {
		mv.reachStep()
	}
}

// reachStep runs with the body exactly on the current step.
func (mv *Mover) reachStep() {
	if mv.stopRequested {
		mv.halt()
		return
	}
	if mv.destinationChanged {
		mv.destinationChanged = false
		ok, err := mv.plan()
		if err != nil {
			mv.log.WithError(err).Warn("mover: re-plan failed")
		}
		if !ok {
			mv.halt()
			return
		}
	}
	if mv.step >= mv.path.Len()-1 {
		mv.arrive()
		return
	}

	next := mv.path.Step(mv.step + 1)
	tw, th := mv.InTileWidth(), mv.InTileHeight()
	blocker, blocked := mv.tracker.AreaBlocker(next.X, next.Y, tw, th, mv.exempt)
	if !blocked {
		from := common.Tile(mv.tileX, mv.tileY)
		mv.tracker.MoveArea(mv.tileX, mv.tileY, next.X, next.Y, tw, th, mv.id)
		mv.tileX, mv.tileY = next.X, next.Y
		mv.step++
		for _, l := range mv.listeners {
			l.NotifyMoving(mv, from, next)
		}
		return
	}

	log := mv.log.WithFields(logrus.Fields{"blocker": blocker, "tx": next.X, "ty": next.Y})
	if mv.shared.Has(blocker) {
		log.Debug("mover: next step held by shared mover, stopping")
		mv.halt()
		return
	}

	log.Debug("mover: next step taken, re-planning")
	ok, err := mv.plan()
	if err != nil {
		log.WithError(err).Warn("mover: re-plan failed")
	}
	if !ok {
		mv.halt()
	}
}

func (mv *Mover) exempt(id int) bool {
	return id == mv.id || mv.ignored.Has(id)
}

func (mv *Mover) clearPath() {
	mv.path = nil
	mv.step = 0
	mv.moveX, mv.moveY = 0, 0
	mv.stopRequested = false
	mv.destinationChanged = false
}

func (mv *Mover) arrive() {
	mv.clearPath()
	mv.shared = mapset.New[int]()
	mv.hasDestination = false
	mv.state = Idle
	mv.log.WithFields(logrus.Fields{"tx": mv.tileX, "ty": mv.tileY}).Debug("mover: arrived")
	for _, l := range mv.listeners {
		l.NotifyArrived(mv)
	}
}

func (mv *Mover) halt() {
	mv.clearPath()
	mv.shared = mapset.New[int]()
	mv.hasDestination = false
	mv.state = Stopped
	mv.log.WithFields(logrus.Fields{"tx": mv.tileX, "ty": mv.tileY}).Debug("mover: stopped")
	for _, l := range mv.listeners {
		l.NotifyArrived(mv)
	}
	if mv.state == Stopped {
		mv.state = Idle
	}
}
