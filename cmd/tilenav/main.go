package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logrus.WithError(err).Warn("tilenav: error loading .env file")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		logrus.WithError(err).Error("tilenav: failed")
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "tilenav",
		Usage: "tile pathfinding and collision tools",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "level",
				Value:   "levels/arena.json",
				Usage:   "level file; falls back to the embedded level of the same name",
				Sources: cli.EnvVars("TILENAV_LEVEL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Value:   "info",
				Usage:   "logrus level",
				Sources: cli.EnvVars("TILENAV_LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			lvl, err := logrus.ParseLevel(cmd.String("log-level"))
			if err != nil {
				return ctx, err
			}
			logrus.SetLevel(lvl)
			return ctx, nil
		},
		Commands: []*cli.Command{
			pathCommand(),
			simulateCommand(),
			collideCommand(),
			watchCommand(),
		},
	}
}

func pathCommand() *cli.Command {
	return &cli.Command{
		Name:  "path",
		Usage: "find a path between two tiles and print it over the level",
		Flags: append(endpointFlags(),
			&cli.StringFlag{Name: "profile", Value: "infantry", Sources: cli.EnvVars("TILENAV_PROFILE")},
			&cli.BoolFlag{Name: "ignore-occupancy"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadScene(cmd.String("level"))
			if err != nil {
				return err
			}
			path, err := s.path(cmd.String("profile"), endpoints(cmd), cmd.Bool("ignore-occupancy"))
			if err != nil {
				return err
			}
			printPath(cmd.Root().Writer, s, path)
			return nil
		},
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "spawn the level's movers, run them and print the event log",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "ticks", Value: 2000, Usage: "maximum number of ticks"},
			&cli.FloatFlag{Name: "speed", Value: 2, Usage: "pixels per tick"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadScene(cmd.String("level"))
			if err != nil {
				return err
			}
			return s.simulate(ctx, cmd.Root().Writer, int(cmd.Int("ticks")), cmd.Float("speed"))
		},
	}
}

func collideCommand() *cli.Command {
	return &cli.Command{
		Name:  "collide",
		Usage: "probe a pixel segment against the level for a collision category",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Value: "feet"},
			&cli.FloatFlag{Name: "x1"},
			&cli.FloatFlag{Name: "y1"},
			&cli.FloatFlag{Name: "x2"},
			&cli.FloatFlag{Name: "y2"},
			&cli.BoolFlag{Name: "snapshot", Usage: "prune constraints against a snapshot instead of in place"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := loadScene(cmd.String("level"))
			if err != nil {
				return err
			}
			return s.collide(cmd.Root().Writer, cmd.String("category"), cmd.Bool("snapshot"),
				cmd.Float("x1"), cmd.Float("y1"), cmd.Float("x2"), cmd.Float("y2"))
		},
	}
}

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "recompute a path whenever prefab or level files change",
		Flags: append(endpointFlags(),
			&cli.StringFlag{Name: "profile", Value: "infantry", Sources: cli.EnvVars("TILENAV_PROFILE")},
			&cli.StringFlag{Name: "levels-dir", Value: "levels"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return watch(ctx, cmd.Root().Writer, cmd.String("level"), cmd.String("levels-dir"), cmd.String("profile"), endpoints(cmd))
		},
	}
}

type endpoint struct {
	sx, sy, tx, ty int
}

func endpointFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "sx", Value: 1, Usage: "start tile x"},
		&cli.IntFlag{Name: "sy", Value: 1, Usage: "start tile y"},
		&cli.IntFlag{Name: "tx", Value: 1, Usage: "target tile x"},
		&cli.IntFlag{Name: "ty", Value: 1, Usage: "target tile y"},
	}
}

func endpoints(cmd *cli.Command) endpoint {
	return endpoint{
		sx: int(cmd.Int("sx")),
		sy: int(cmd.Int("sy")),
		tx: int(cmd.Int("tx")),
		ty: int(cmd.Int("ty")),
	}
}

func (e endpoint) String() string {
	return fmt.Sprintf("(%d,%d)->(%d,%d)", e.sx, e.sy, e.tx, e.ty)
}
