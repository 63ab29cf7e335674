package world

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/milk9111/tilenav/common"
	"github.com/milk9111/tilenav/component"
	"github.com/milk9111/tilenav/grid"
	"github.com/milk9111/tilenav/levels"
	"github.com/milk9111/tilenav/mover"
	"github.com/milk9111/tilenav/pathfinding"
	"github.com/milk9111/tilenav/prefabs"
	"github.com/milk9111/tilenav/tilecollision"
)

func quietOptions(speed float64) Options {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return Options{SpeedX: speed, SpeedY: speed, Log: log}
}

func newTestWorld(t *testing.T, level string, speed float64) *World {
	t.Helper()
	lvl, err := levels.LoadLevelFromFS(level)
	require.NoError(t, err)
	m, err := lvl.TileMap()
	require.NoError(t, err)
	pathCfg, err := pathfinding.LoadConfig()
	require.NoError(t, err)
	colCfg, err := tilecollision.LoadConfig()
	require.NoError(t, err)
	return New(m, pathCfg, colCfg, quietOptions(speed))
}

func TestWorldSpawnDespawn(t *testing.T) {
	cases := []struct {
		name         string
		spawn        [][2]int
		despawnIndex int // -1 = none
	}{
		{"single", [][2]int{{1, 1}}, 0},
		{"three_despawn_middle", [][2]int{{1, 1}, {2, 1}, {3, 1}}, 1},
		{"none_despawned", [][2]int{{1, 1}, {2, 1}}, -1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := newTestWorld(t, "arena.json", 2)
			var spawned []*mover.Mover
			for _, at := range c.spawn {
				mv, err := w.Spawn("infantry", at[0], at[1], nil)
				require.NoError(t, err)
				spawned = append(spawned, mv)
				assert.True(t, w.Tracker().Has(at[0], at[1], mv.ID()))
			}
			require.Len(t, w.Movers(), len(c.spawn))

			if c.despawnIndex >= 0 {
				victim := spawned[c.despawnIndex]
				require.True(t, w.Despawn(victim.ID()))
				assert.False(t, w.Despawn(victim.ID()))
				_, ok := w.Mover(victim.ID())
				assert.False(t, ok)
				at := c.spawn[c.despawnIndex]
				assert.Nil(t, w.Tracker().IDs(at[0], at[1]))
				assert.Len(t, w.Movers(), len(c.spawn)-1)
			}
		})
	}
}

func TestWorldSpawnErrors(t *testing.T) {
	w := newTestWorld(t, "arena.json", 2)
	_, err := w.Spawn("infantry", 40, 1, nil)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = w.Spawn("submarine", 1, 1, nil)
	assert.ErrorIs(t, err, pathfinding.ErrUnknownProfile)

	mv, err := w.Spawn("infantry", 1, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, mv.ID(), "failed spawns release their ids")
}

func TestWorldRecyclesIDs(t *testing.T) {
	w := newTestWorld(t, "arena.json", 2)
	a, err := w.Spawn("infantry", 1, 1, nil)
	require.NoError(t, err)
	b, err := w.Spawn("infantry", 2, 1, nil)
	require.NoError(t, err)
	require.True(t, w.Despawn(a.ID()))

	c, err := w.Spawn("infantry", 3, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, a.ID(), c.ID())

	ids := []int{}
	for _, mv := range w.Movers() {
		ids = append(ids, mv.ID())
	}
	assert.Equal(t, []int{c.ID(), b.ID()}, ids, "ascending id order")
}

func TestWorldDespawnForgetsExemptions(t *testing.T) {
	w := newTestWorld(t, "arena.json", 2)
	a, err := w.Spawn("infantry", 1, 1, nil)
	require.NoError(t, err)
	b, err := w.Spawn("infantry", 2, 1, nil)
	require.NoError(t, err)
	a.Ignore(b.ID())
	a.Share(b.ID())

	require.True(t, w.Despawn(b.ID()))
	assert.False(t, a.IsIgnored(b.ID()))
	assert.False(t, a.IsShared(b.ID()))

	c, err := w.Spawn("infantry", 3, 1, nil)
	require.NoError(t, err)
	require.Equal(t, b.ID(), c.ID())
	assert.False(t, a.IsIgnored(c.ID()), "recycled id starts without exemptions")
	assert.False(t, a.IsShared(c.ID()))
}

func TestWorldRunsLevelSpawns(t *testing.T) {
	w := newTestWorld(t, "arena.json", 4)
	lvl, err := levels.LoadLevelFromFS("arena.json")
	require.NoError(t, err)

	dests := map[int]common.TileCoord{}
	for _, sp := range lvl.Spawns {
		mv, err := w.Spawn(sp.Profile, sp.X, sp.Y, nil)
		require.NoError(t, err)
		ok, err := mv.SetDestination(*sp.DestX, *sp.DestY)
		require.NoError(t, err)
		require.True(t, ok, "spawn %s at (%d,%d)", sp.Profile, sp.X, sp.Y)
		dests[mv.ID()] = common.Tile(*sp.DestX, *sp.DestY)
	}

	arrived := map[int]common.TileCoord{}
	for tick := 0; tick < 2000 && len(arrived) < len(dests); tick++ {
		w.Update(1)
		for _, evt := range w.Events().Drain() {
			if evt.Kind == EventArrived {
				arrived[evt.ID] = evt.To
			}
		}
		for y := 0; y < w.Map().InTileHeight(); y++ {
			for x := 0; x < w.Map().InTileWidth(); x++ {
				require.LessOrEqual(t, w.Tracker().Count(x, y), 1)
			}
		}
	}
	require.Len(t, arrived, len(dests))
	for _, mv := range w.Movers() {
		assert.Equal(t, mover.Idle, mv.State())
		assert.Equal(t, common.Tile(mv.TileX(), mv.TileY()), arrived[mv.ID()])
	}
}

func TestWorldEventsOrder(t *testing.T) {
	w := newTestWorld(t, "arena.json", 8)
	mv, err := w.Spawn("infantry", 1, 1, nil)
	require.NoError(t, err)
	_, err = mv.SetDestination(3, 1)
	require.NoError(t, err)

	for i := 0; i < 20; i++ {
		w.Update(1)
	}
	events := w.Events().Drain()
	kinds := make([]EventKind, 0, len(events))
	for _, evt := range events {
		kinds = append(kinds, evt.Kind)
	}
	assert.Equal(t, []EventKind{EventStartMove, EventMoving, EventMoving, EventArrived}, kinds)
	assert.Equal(t, common.Tile(3, 1), events[0].To)
	assert.Equal(t, 20, w.Tick())
	assert.Zero(t, w.Events().Len())
}

func TestWorldCollidables(t *testing.T) {
	w := newTestWorld(t, "platforms.json", 1)

	body := component.NewTransform(40, 30, 16, 16)
	id, c, err := w.AddCollidable(0, body, "feet")
	require.NoError(t, err)
	require.NotNil(t, c)
	got, ok := w.Collidable(id)
	require.True(t, ok)
	assert.Same(t, c, got)

	body.MoveLocation(1, 0, 15)
	w.Update(1)
	assert.Equal(t, 40.0, body.Y())
	events := w.Events().Drain()
	require.Len(t, events, 1)
	assert.Equal(t, EventCollided, events[0].Kind)
	assert.Equal(t, "feet", events[0].Category)
	assert.Equal(t, "top", events[0].Formula)
	assert.Equal(t, common.Tile(2, 3), events[0].To)

	_, _, err = w.AddCollidable(0, body, "tail")
	assert.ErrorIs(t, err, tilecollision.ErrUnknownCategory)
	_, _, err = w.AddCollidable(99, nil, "feet")
	assert.ErrorIs(t, err, ErrUnknownID)

	assert.True(t, w.Despawn(id))
	_, ok = w.Collidable(id)
	assert.False(t, ok)
}

func TestWorldMoverCollidable(t *testing.T) {
	w := newTestWorld(t, "platforms.json", 1)
	mv, err := w.Spawn("infantry", 2, 5, nil)
	require.NoError(t, err)
	id, c, err := w.AddCollidable(mv.ID(), nil, "feet")
	require.NoError(t, err)
	assert.Equal(t, mv.ID(), id)
	assert.Same(t, mv.Body(), c.Body())
}

func TestWorldReload(t *testing.T) {
	w := newTestWorld(t, "arena.json", 4)
	mv, err := w.Spawn("infantry", 1, 1, nil)
	require.NoError(t, err)
	_, _, err = w.AddCollidable(mv.ID(), nil, "feet")
	require.NoError(t, err)
	before := w.Finder()

	pathSpec, err := prefabs.LoadPathfindingSpec()
	require.NoError(t, err)
	pathSpec.Profiles["infantry"]["water"] = prefabs.PathDataSpec{Cost: 1}
	pathSpec.DiagonalSpeedFactor = 0.5
	colSpec, err := prefabs.LoadCollisionSpec()
	require.NoError(t, err)

	require.NoError(t, w.Reload(pathSpec, colSpec))
	assert.NotSame(t, before, w.Finder())
	blocking, err := mv.Profile().IsBlocking("water")
	require.NoError(t, err)
	assert.False(t, blocking, "movers pick up the reloaded profile")
	c, ok := w.Collidable(mv.ID())
	require.True(t, ok)
	feet, err := w.CollisionConfig().Category("feet")
	require.NoError(t, err)
	assert.Same(t, feet, c.Categories()[0])

	ok, err = mv.SetDestination(4, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, mv.Path().Contains(3, 2) || mv.Path().Contains(4, 2))
}

func TestWorldReloadRejectsInvalidSpecs(t *testing.T) {
	w := newTestWorld(t, "arena.json", 4)
	_, err := w.Spawn("infantry", 1, 1, nil)
	require.NoError(t, err)
	before := w.PathConfig()

	pathSpec, err := prefabs.LoadPathfindingSpec()
	require.NoError(t, err)
	delete(pathSpec.Profiles, "infantry")
	assert.ErrorIs(t, w.Reload(pathSpec, nil), pathfinding.ErrUnknownProfile)
	assert.Same(t, before, w.PathConfig())

	colSpec, err := prefabs.LoadCollisionSpec()
	require.NoError(t, err)
	colSpec.Groups["floor"] = append(colSpec.Groups["floor"], "missing")
	assert.ErrorIs(t, w.Reload(nil, colSpec), tilecollision.ErrUnknownFormula)
}

func TestWorldNilMapOptions(t *testing.T) {
	m := grid.NewTileMap(3, 3, 16, 16)
	m.Fill("grass")
	pathCfg, err := pathfinding.LoadConfig()
	require.NoError(t, err)
	w := New(m, pathCfg, nil, Options{})
	mv, err := w.Spawn("infantry", 0, 0, nil)
	require.NoError(t, err)
	sx, sy := mv.Speed()
	assert.Equal(t, 1.0, sx)
	assert.Equal(t, 1.0, sy)
	assert.Empty(t, w.Resolver().Formulas(0, 0))
	assert.Empty(t, w.CollisionConfig().Categories())
}
