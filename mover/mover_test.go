package mover

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/tilenav/common"
	"github.com/milk9111/tilenav/component"
	"github.com/milk9111/tilenav/grid"
	"github.com/milk9111/tilenav/occupancy"
	"github.com/milk9111/tilenav/pathfinding"
)

const tileSize = 16

type env struct {
	m       *grid.TileMap
	tracker *occupancy.Tracker
	finder  *pathfinding.Finder
	cfg     *pathfinding.Config
	log     logrus.FieldLogger
}

func newEnv(t *testing.T, w, h int) *env {
	t.Helper()
	m := grid.NewTileMap(w, h, tileSize, tileSize)
	m.Fill("grass")
	cfg, err := pathfinding.LoadConfig()
	require.NoError(t, err)
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	tracker := occupancy.NewTracker(w, h)
	return &env{
		m:       m,
		tracker: tracker,
		finder:  pathfinding.NewFinder(m, tracker, cfg, log),
		cfg:     cfg,
		log:     log,
	}
}

func (e *env) spawn(t *testing.T, id, tx, ty int, speed float64) *Mover {
	t.Helper()
	profile, err := e.cfg.Profile("infantry")
	require.NoError(t, err)
	cx, cy := grid.TileCenter(e.m, tx, ty)
	mv, err := New(Config{
		ID:      id,
		Profile: profile,
		Body:    component.NewTransform(cx, cy, tileSize, tileSize),
		Map:     e.m,
		Finder:  e.finder,
		Tracker: e.tracker,
		SpeedX:  speed,
		SpeedY:  speed,
		Log:     e.log,
	})
	require.NoError(t, err)
	return mv
}

// recorder captures listener notifications in order.
type recorder struct {
	events  []string
	arrived []common.TileCoord
}

func (r *recorder) listener() Listener {
	return ListenerFuncs{
		StartMove: func(m *Mover) { r.events = append(r.events, "start") },
		Moving: func(m *Mover, from, to common.TileCoord) {
			r.events = append(r.events, "moving "+from.String()+"->"+to.String())
		},
		Arrived: func(m *Mover) {
			r.events = append(r.events, "arrived")
			r.arrived = append(r.arrived, common.Tile(m.TileX(), m.TileY()))
		},
	}
}

func runUntilIdle(t *testing.T, limit int, movers ...*Mover) int {
	t.Helper()
	for tick := 1; tick <= limit; tick++ {
		for _, mv := range movers {
			mv.Update(1)
		}
		busy := false
		for _, mv := range movers {
			if mv.IsMoving() {
				busy = true
			}
		}
		if !busy {
			return tick
		}
	}
	t.Fatalf("movers still moving after %d ticks", limit)
	return limit
}

func TestNewValidatesConfig(t *testing.T) {
	e := newEnv(t, 3, 3)
	_, err := New(Config{ID: 0})
	assert.Error(t, err)
	_, err = New(Config{ID: 1, Map: e.m})
	assert.Error(t, err)

	mv := e.spawn(t, 1, 2, 1, 0)
	assert.Equal(t, 2, mv.TileX())
	assert.Equal(t, 1, mv.TileY())
	assert.True(t, e.tracker.Has(2, 1, 1))
	sx, sy := mv.Speed()
	assert.Equal(t, 1.0, sx)
	assert.Equal(t, 1.0, sy)
	assert.Equal(t, Idle, mv.State())
}

func TestMoverWalksPathAndArrives(t *testing.T) {
	e := newEnv(t, 5, 3)
	mv := e.spawn(t, 1, 0, 0, 4)
	rec := &recorder{}
	mv.AddListener(rec.listener())

	ok, err := mv.SetDestination(3, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, Advancing, mv.State())
	require.Equal(t, 4, mv.Path().Len())

	ticks := runUntilIdle(t, 100, mv)
	assert.Equal(t, 13, ticks, "one tick to commit, then four per tile")
	assert.Equal(t, Idle, mv.State())
	assert.Equal(t, 56.0, mv.Body().X())
	assert.Equal(t, 8.0, mv.Body().Y())
	assert.Equal(t, []string{
		"start",
		"moving (0,0)->(1,0)",
		"moving (1,0)->(2,0)",
		"moving (2,0)->(3,0)",
		"arrived",
	}, rec.events)
	assert.Equal(t, []int{1}, e.tracker.IDs(3, 0))
	assert.Nil(t, e.tracker.IDs(0, 0))
	_, _, has := mv.Destination()
	assert.False(t, has)
}

func TestMoverClampsOnSignChange(t *testing.T) {
	e := newEnv(t, 3, 1)
	mv := e.spawn(t, 1, 0, 0, 5)
	_, err := mv.SetDestination(1, 0)
	require.NoError(t, err)

	mv.Update(1)
	xs := []float64{}
	for i := 0; i < 4; i++ {
		mv.Update(1)
		xs = append(xs, mv.Body().X())
	}
	assert.Equal(t, []float64{13, 18, 23, 24}, xs)
	assert.Equal(t, 23.0, mv.Body().OldX(), "snap keeps the previous position as old")
	assert.Equal(t, Idle, mv.State())
}

func TestMoverDiagonalFactor(t *testing.T) {
	e := newEnv(t, 3, 3)
	mv := e.spawn(t, 1, 0, 0, 4)
	_, err := mv.SetDestination(1, 1)
	require.NoError(t, err)

	mv.Update(1)
	mv.Update(1)
	assert.InDelta(t, 8+3.2, mv.Body().X(), 1e-9)
	assert.InDelta(t, 8+3.2, mv.Body().Y(), 1e-9)
	dx, dy := mv.Movement()
	assert.InDelta(t, 3.2, dx, 1e-9)
	assert.InDelta(t, 3.2, dy, 1e-9)

	mv.SetDiagonalFactor(0.5)
	mv.Update(1)
	assert.InDelta(t, 8+3.2+2, mv.Body().X(), 1e-9)
}

func TestMoverDefersReplanUntilStepCompletes(t *testing.T) {
	e := newEnv(t, 5, 5)
	mv := e.spawn(t, 1, 0, 0, 4)
	_, err := mv.SetDestination(4, 0)
	require.NoError(t, err)

	mv.Update(1)
	mv.Update(1)
	mv.Update(1)
	require.Equal(t, 16.0, mv.Body().X())
	step := mv.Path().Step(mv.CurrentStep())
	require.Equal(t, common.Tile(1, 0), step)

	ok, err := mv.SetDestination(0, 4)
	require.NoError(t, err)
	assert.False(t, ok, "re-plan is deferred while advancing")
	assert.Equal(t, Advancing, mv.State())

	tx, ty := grid.TileCenter(e.m, 1, 0)
	for mv.Body().X() != tx || mv.Body().Y() != ty {
		prevX := mv.Body().X()
		mv.Update(1)
		assert.Equal(t, ty, mv.Body().Y(), "stays on the segment toward the current step")
		assert.Greater(t, mv.Body().X(), prevX)
		assert.LessOrEqual(t, mv.Body().X(), tx)
	}

	require.Equal(t, Advancing, mv.State())
	assert.Equal(t, common.Tile(0, 4), mv.Path().Last())
	assert.Equal(t, common.Tile(1, 0), mv.Path().Step(0))

	runUntilIdle(t, 200, mv)
	assert.Equal(t, 0, mv.TileX())
	assert.Equal(t, 4, mv.TileY())
}

func TestMoverNeverArrivesOnOccupiedTile(t *testing.T) {
	e := newEnv(t, 5, 3)
	a := e.spawn(t, 1, 1, 1, 4)
	b := e.spawn(t, 2, 3, 1, 4)
	rec := &recorder{}
	b.AddListener(rec.listener())

	ok, err := b.SetDestination(1, 1)
	require.NoError(t, err)
	require.True(t, ok, "redirected next to the occupied tile")
	assert.False(t, b.Path().Contains(1, 1))

	runUntilIdle(t, 200, a, b)
	require.Len(t, rec.arrived, 1)
	assert.NotEqual(t, common.Tile(1, 1), rec.arrived[0])
	assert.Equal(t, []int{1}, e.tracker.IDs(1, 1))
	assert.Equal(t, common.Tile(2, 1), rec.arrived[0])
}

func TestMoverReplansAroundNewBlocker(t *testing.T) {
	e := newEnv(t, 5, 3)
	mv := e.spawn(t, 1, 0, 0, 4)
	_, err := mv.SetDestination(4, 0)
	require.NoError(t, err)
	require.True(t, mv.Path().Contains(2, 0))

	e.spawn(t, 2, 2, 0, 4)
	runUntilIdle(t, 200, mv)
	assert.Equal(t, 4, mv.TileX())
	assert.Equal(t, 0, mv.TileY())
	assert.Equal(t, []int{2}, e.tracker.IDs(2, 0))
}

func TestMoverHaltsWhenReplanFails(t *testing.T) {
	e := newEnv(t, 5, 1)
	mv := e.spawn(t, 1, 0, 0, 4)
	rec := &recorder{}
	mv.AddListener(rec.listener())
	_, err := mv.SetDestination(4, 0)
	require.NoError(t, err)

	e.spawn(t, 2, 2, 0, 4)
	runUntilIdle(t, 200, mv)
	assert.Equal(t, Idle, mv.State())
	assert.Equal(t, []common.TileCoord{{X: 1, Y: 0}}, rec.arrived)
	assert.Nil(t, mv.Path())
}

func TestMoverStopsBehindSharedMover(t *testing.T) {
	e := newEnv(t, 5, 1)
	mv := e.spawn(t, 1, 0, 0, 4)
	rec := &recorder{}
	mv.AddListener(rec.listener())
	_, err := mv.SetDestination(4, 0)
	require.NoError(t, err)

	e.spawn(t, 2, 2, 0, 4)
	mv.Share(2)
	require.True(t, mv.IsShared(2))

	runUntilIdle(t, 200, mv)
	assert.Equal(t, Idle, mv.State())
	assert.Nil(t, mv.Path())
	assert.Equal(t, []common.TileCoord{{X: 1, Y: 0}}, rec.arrived)
	assert.True(t, e.tracker.Has(1, 0, 1))
	assert.True(t, e.tracker.Has(2, 0, 2))
	assert.False(t, mv.IsShared(2), "shared ids are cleared when the path ends")

	for i := 0; i < 20; i++ {
		mv.Update(1)
	}
	assert.Len(t, rec.arrived, 1)
}

func TestMoverPassesThroughIgnoredMover(t *testing.T) {
	e := newEnv(t, 5, 1)
	mv := e.spawn(t, 1, 0, 0, 4)
	e.spawn(t, 2, 2, 0, 4)
	mv.Ignore(2)
	require.True(t, mv.IsIgnored(2))

	ok, err := mv.SetDestination(4, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mv.Path().Contains(2, 0))

	saw := false
	for i := 0; i < 200 && mv.IsMoving(); i++ {
		mv.Update(1)
		if mv.TileX() == 2 {
			saw = true
			assert.ElementsMatch(t, []int{1, 2}, e.tracker.IDs(2, 0))
		}
	}
	assert.True(t, saw)
	assert.Equal(t, 4, mv.TileX())

	mv.Unignore(2)
	assert.False(t, mv.IsIgnored(2))
}

func TestMoverStopMoves(t *testing.T) {
	e := newEnv(t, 6, 1)
	mv := e.spawn(t, 1, 0, 0, 4)
	rec := &recorder{}
	mv.AddListener(rec.listener())
	_, err := mv.SetDestination(5, 0)
	require.NoError(t, err)

	mv.Update(1)
	mv.Update(1)
	mv.StopMoves()
	runUntilIdle(t, 50, mv)

	assert.Equal(t, 1, mv.TileX())
	assert.Equal(t, 24.0, mv.Body().X(), "finishes the current step")
	assert.Equal(t, "arrived", rec.events[len(rec.events)-1])
	assert.Equal(t, Idle, mv.State())
	assert.Equal(t, []int{1}, e.tracker.IDs(1, 0))
}

func TestMoverStopWhileIdleIsNoop(t *testing.T) {
	e := newEnv(t, 3, 1)
	mv := e.spawn(t, 1, 0, 0, 4)
	mv.StopMoves()
	ok, err := mv.SetDestination(2, 0)
	require.NoError(t, err)
	require.True(t, ok)
	runUntilIdle(t, 50, mv)
	assert.Equal(t, 2, mv.TileX())
}

func TestMoverUnreachableDestination(t *testing.T) {
	e := newEnv(t, 5, 1)
	e.m.SetTile(2, 0, "wall")
	mv := e.spawn(t, 1, 0, 0, 4)

	ok, err := mv.SetDestination(4, 0)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, Idle, mv.State())
	_, _, has := mv.Destination()
	assert.False(t, has)
}

func TestMoverOccupancyExclusive(t *testing.T) {
	e := newEnv(t, 5, 5)
	movers := []*Mover{
		e.spawn(t, 1, 0, 0, 3),
		e.spawn(t, 2, 4, 4, 4),
		e.spawn(t, 3, 0, 4, 5),
		e.spawn(t, 4, 4, 0, 2),
	}
	dests := []common.TileCoord{{X: 4, Y: 4}, {X: 0, Y: 0}, {X: 4, Y: 0}, {X: 0, Y: 4}}
	for i, mv := range movers {
		_, err := mv.SetDestination(dests[i].X, dests[i].Y)
		require.NoError(t, err)
	}

	for tick := 0; tick < 300; tick++ {
		for _, mv := range movers {
			mv.Update(1)
		}
		for y := 0; y < 5; y++ {
			for x := 0; x < 5; x++ {
				require.LessOrEqual(t, e.tracker.Count(x, y), 1, "tick %d tile (%d,%d): %v", tick, x, y, e.tracker.IDs(x, y))
			}
		}
		for _, mv := range movers {
			require.True(t, e.tracker.Has(mv.TileX(), mv.TileY(), mv.ID()))
		}
	}
}

func TestMoverFootprint(t *testing.T) {
	e := newEnv(t, 6, 6)
	profile, err := e.cfg.Profile("infantry")
	require.NoError(t, err)
	mv, err := New(Config{
		ID:      1,
		Profile: profile,
		Body:    component.NewTransform(8, 8, 32, 20),
		Map:     e.m,
		Finder:  e.finder,
		Tracker: e.tracker,
		SpeedX:  4,
		SpeedY:  4,
		Log:     e.log,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, mv.InTileWidth())
	assert.Equal(t, 2, mv.InTileHeight())
	for _, at := range [][2]int{{0, 0}, {1, 0}, {0, 1}, {1, 1}} {
		assert.True(t, e.tracker.Has(at[0], at[1], 1))
	}

	_, err = mv.SetDestination(3, 0)
	require.NoError(t, err)
	runUntilIdle(t, 200, mv)
	assert.False(t, e.tracker.Has(0, 0, 1))
	assert.True(t, e.tracker.Has(4, 1, 1))

	mv.Release()
	assert.False(t, e.tracker.Has(3, 0, 1))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "advancing", Advancing.String())
	assert.Equal(t, "State(9)", State(9).String())
}
