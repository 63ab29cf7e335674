package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/milk9111/tilenav/grid"
	"github.com/milk9111/tilenav/levels"
	"github.com/milk9111/tilenav/pathfinding"
	"github.com/milk9111/tilenav/prefabs"
	"github.com/milk9111/tilenav/tilecollision"
	"github.com/milk9111/tilenav/world"
)

// scene is a level plus the prefab configuration it runs with.
type scene struct {
	level   *levels.Level
	m       *grid.TileMap
	pathCfg *pathfinding.Config
	colCfg  *tilecollision.Config
}

func loadScene(levelPath string) (*scene, error) {
	lvl, err := levels.LoadLevel(levelPath)
	if err != nil {
		return nil, err
	}
	m, err := lvl.TileMap()
	if err != nil {
		return nil, err
	}
	pathCfg, err := pathfinding.LoadConfig()
	if err != nil {
		return nil, err
	}
	colCfg, err := tilecollision.LoadConfig()
	if err != nil {
		return nil, err
	}
	return &scene{level: lvl, m: m, pathCfg: pathCfg, colCfg: colCfg}, nil
}

func (s *scene) world(speed float64, prune tilecollision.PruneMode) *world.World {
	return world.New(s.m, s.pathCfg, s.colCfg, world.Options{
		SpeedX: speed,
		SpeedY: speed,
		Prune:  prune,
		Log:    logrus.StandardLogger(),
	})
}

func (s *scene) path(profile string, e endpoint, ignoreOccupancy bool) (*pathfinding.Path, error) {
	w := s.world(1, tilecollision.PruneInPlace)
	mv, err := w.Spawn(profile, e.sx, e.sy, nil)
	if err != nil {
		return nil, err
	}
	return w.Finder().FindPath(mv, e.tx, e.ty, ignoreOccupancy)
}

func (s *scene) simulate(ctx context.Context, out io.Writer, ticks int, speed float64) error {
	w := s.world(speed, tilecollision.PruneInPlace)
	for _, sp := range s.level.Spawns {
		mv, err := w.Spawn(sp.Profile, sp.X, sp.Y, nil)
		if err != nil {
			return err
		}
		if sp.DestX == nil || sp.DestY == nil {
			continue
		}
		if _, err := mv.SetDestination(*sp.DestX, *sp.DestY); err != nil {
			return err
		}
	}

	for i := 0; i < ticks; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		printEvents(out, w.Events().Drain())
		w.Update(1)
		if idle(w) {
			break
		}
	}
	printEvents(out, w.Events().Drain())
	for _, mv := range w.Movers() {
		fmt.Fprintf(out, "mover %d (%s): %s at (%d,%d)\n", mv.ID(), mv.Profile().Name(), mv.State(), mv.TileX(), mv.TileY())
	}
	return nil
}

func idle(w *world.World) bool {
	for _, mv := range w.Movers() {
		if mv.IsMoving() {
			return false
		}
	}
	return true
}

func printEvents(out io.Writer, events []world.Event) {
	for _, evt := range events {
		switch evt.Kind {
		case world.EventMoving:
			fmt.Fprintf(out, "tick %4d mover %d %s %s -> %s\n", evt.Tick, evt.ID, evt.Kind, evt.From, evt.To)
		case world.EventCollided:
			fmt.Fprintf(out, "tick %4d body %d %s %s on %s (%s)\n", evt.Tick, evt.ID, evt.Kind, evt.Category, evt.To, evt.Formula)
		default:
			fmt.Fprintf(out, "tick %4d mover %d %s %s\n", evt.Tick, evt.ID, evt.Kind, evt.To)
		}
	}
}

func (s *scene) collide(out io.Writer, category string, snapshot bool, x1, y1, x2, y2 float64) error {
	cat, err := s.colCfg.Category(category)
	if err != nil {
		return err
	}
	r := tilecollision.NewResolver(logrus.StandardLogger())
	if snapshot {
		r.SetPruneMode(tilecollision.PruneSnapshot)
	}
	r.Load(s.m, s.colCfg)
	res, ok := r.ComputeSegment(x1, y1, x2, y2, cat)
	if !ok {
		fmt.Fprintln(out, "no collision")
		return nil
	}
	switch {
	case res.X != nil:
		fmt.Fprintf(out, "collision x=%g on tile %s (%s, formula %s)\n", *res.X, res.Tile.Coord(), res.Tile.Group, res.Formula.Name)
	case res.Y != nil:
		fmt.Fprintf(out, "collision y=%g on tile %s (%s, formula %s)\n", *res.Y, res.Tile.Coord(), res.Tile.Group, res.Formula.Name)
	}
	return nil
}

// printPath draws the level layout with the path marked over it.
func printPath(out io.Writer, s *scene, path *pathfinding.Path) {
	if path == nil {
		fmt.Fprintln(out, "no path")
		return
	}
	fmt.Fprintf(out, "%d steps: %s\n", path.Len(), path)
	rows := make([][]rune, len(s.level.Layout))
	for i, row := range s.level.Layout {
		rows[i] = []rune(row)
	}
	for i, step := range path.Steps() {
		mark := '*'
		switch i {
		case 0:
			mark = 'S'
		case path.Len() - 1:
			mark = 'G'
		}
		if step.Y >= 0 && step.Y < len(rows) && step.X >= 0 && step.X < len(rows[step.Y]) {
			rows[step.Y][step.X] = mark
		}
	}
	var b strings.Builder
	for _, row := range rows {
		b.WriteString(string(row))
		b.WriteByte('\n')
	}
	fmt.Fprint(out, b.String())
}

func watch(ctx context.Context, out io.Writer, levelPath, levelsDir, profile string, e endpoint) error {
	w, err := prefabs.WatchPrefabs(levelsDir)
	if err != nil {
		return err
	}
	defer w.Close()

	recompute := func() {
		s, err := loadScene(levelPath)
		if err != nil {
			logrus.WithError(err).Warn("tilenav: reload failed")
			return
		}
		path, err := s.path(profile, e, false)
		if err != nil {
			logrus.WithError(err).Warn("tilenav: path failed")
			return
		}
		printPath(out, s, path)
	}

	logrus.WithField("endpoints", e.String()).Info("tilenav: watching prefabs")
	recompute()
	for {
		select {
		case <-ctx.Done():
			return nil
		case change, ok := <-w.Events:
			if !ok {
				return nil
			}
			logrus.WithField("path", change.Path).Info("tilenav: change detected")
			recompute()
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logrus.WithError(err).Warn("tilenav: watcher error")
		}
	}
}
