package levels

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/milk9111/tilenav/grid"
)

//go:embed *.json
var LevelsFS embed.FS

var ErrUnknownTile = errors.New("unknown tile symbol")

// Level is the on-disk map description. Each layout row is one tile row;
// each rune is looked up in Legend. A legend entry with an empty group
// leaves the cell empty.
type Level struct {
	Name         string            `json:"name"`
	Width        int               `json:"width"`
	Height       int               `json:"height"`
	TileWidth    int               `json:"tile_width"`
	TileHeight   int               `json:"tile_height"`
	SearchRadius int               `json:"search_radius,omitempty"`
	Layout       []string          `json:"layout"`
	Legend       map[string]string `json:"legend"`
	Spawns       []Spawn           `json:"spawns,omitempty"`
}

// Spawn places a mover of a given profile when a level starts.
type Spawn struct {
	Profile string `json:"profile"`
	X       int    `json:"x"`
	Y       int    `json:"y"`
	DestX   *int   `json:"dest_x,omitempty"`
	DestY   *int   `json:"dest_y,omitempty"`
}

func LoadLevelFromFS(name string) (*Level, error) {
	data, err := fs.ReadFile(LevelsFS, name)
	if err != nil {
		return nil, fmt.Errorf("read level: %w", err)
	}
	return parseLevel(data)
}

// LoadLevel reads a level from disk, falling back to the embedded copy.
func LoadLevel(path string) (*Level, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return LoadLevelFromFS(filepath.Base(path))
	}
	return parseLevel(data)
}

func parseLevel(data []byte) (*Level, error) {
	var lvl Level
	if err := json.Unmarshal(data, &lvl); err != nil {
		return nil, fmt.Errorf("unmarshal level: %w", err)
	}
	if lvl.Height == 0 {
		lvl.Height = len(lvl.Layout)
	}
	if lvl.Width == 0 && len(lvl.Layout) > 0 {
		lvl.Width = len([]rune(lvl.Layout[0]))
	}
	return &lvl, nil
}

// TileMap builds the grid for this level.
func (l *Level) TileMap() (*grid.TileMap, error) {
	if l.TileWidth <= 0 || l.TileHeight <= 0 {
		return nil, fmt.Errorf("level %q: tile size %dx%d must be positive", l.Name, l.TileWidth, l.TileHeight)
	}
	if len(l.Layout) != l.Height {
		return nil, fmt.Errorf("level %q: layout has %d rows, want %d", l.Name, len(l.Layout), l.Height)
	}
	m := grid.NewTileMap(l.Width, l.Height, l.TileWidth, l.TileHeight)
	if l.SearchRadius > 0 {
		m.SetSearchRadius(l.SearchRadius)
	}
	for ty, row := range l.Layout {
		runes := []rune(row)
		if len(runes) != l.Width {
			return nil, fmt.Errorf("level %q: row %d has %d cells, want %d", l.Name, ty, len(runes), l.Width)
		}
		for tx, r := range runes {
			group, ok := l.Legend[string(r)]
			if !ok {
				return nil, fmt.Errorf("level %q: %w %q at (%d,%d)", l.Name, ErrUnknownTile, string(r), tx, ty)
			}
			if group == "" {
				continue
			}
			m.SetTile(tx, ty, group)
		}
	}
	return m, nil
}
