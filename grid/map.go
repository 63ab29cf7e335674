package grid

import (
	"sort"

	"github.com/milk9111/tilenav/common"
)

// Tile is one occupied cell of the grid. Group names the terrain group the
// tile belongs to; path categories and collision groups are both resolved
// from it.
type Tile struct {
	X     int
	Y     int
	Group string
}

// Coord returns the tile's grid coordinate.
func (t *Tile) Coord() common.TileCoord {
	return common.TileCoord{X: t.X, Y: t.Y}
}

// Map is the grid collaborator consumed by the pathfinder, the movers and
// the tile collision resolver.
type Map interface {
	// TileWidth and TileHeight are the tile size in pixels.
	TileWidth() int
	TileHeight() int
	// InTileWidth and InTileHeight are the grid size in tiles.
	InTileWidth() int
	InTileHeight() int
	// Tile returns nil for empty cells and out of bounds coordinates.
	Tile(tx, ty int) *Tile
	// InTileX and InTileY convert a pixel coordinate to a tile index.
	InTileX(px float64) int
	InTileY(py float64) int
	// InTileRadius bounds the closest free tile search.
	InTileRadius() int
	// TilesInGroup lists the tiles of a terrain group in row-major order.
	TilesInGroup(group string) []*Tile
}

// TileMap is a dense, in-memory Map.
type TileMap struct {
	width        int
	height       int
	tileWidth    int
	tileHeight   int
	searchRadius int
	tiles        []*Tile
}

// NewTileMap creates an empty map of width x height tiles, each tw x th
// pixels. The search radius defaults to the larger grid dimension.
func NewTileMap(width, height, tw, th int) *TileMap {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	radius := width
	if height > radius {
		radius = height
	}
	return &TileMap{
		width:        width,
		height:       height,
		tileWidth:    tw,
		tileHeight:   th,
		searchRadius: radius,
		tiles:        make([]*Tile, width*height),
	}
}

func (m *TileMap) TileWidth() int    { return m.tileWidth }
func (m *TileMap) TileHeight() int   { return m.tileHeight }
func (m *TileMap) InTileWidth() int  { return m.width }
func (m *TileMap) InTileHeight() int { return m.height }
func (m *TileMap) InTileRadius() int { return m.searchRadius }

// SetSearchRadius overrides the closest free tile search radius.
func (m *TileMap) SetSearchRadius(r int) {
	if r < 0 {
		r = 0
	}
	m.searchRadius = r
}

// InBounds reports whether (tx, ty) lies on the grid.
func (m *TileMap) InBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < m.width && ty < m.height
}

func (m *TileMap) Tile(tx, ty int) *Tile {
	if !m.InBounds(tx, ty) {
		return nil
	}
	return m.tiles[ty*m.width+tx]
}

// SetTile places a tile of the given group, replacing any previous tile.
func (m *TileMap) SetTile(tx, ty int, group string) *Tile {
	if !m.InBounds(tx, ty) {
		return nil
	}
	t := &Tile{X: tx, Y: ty, Group: group}
	m.tiles[ty*m.width+tx] = t
	return t
}

// RemoveTile empties a cell.
func (m *TileMap) RemoveTile(tx, ty int) {
	if !m.InBounds(tx, ty) {
		return
	}
	m.tiles[ty*m.width+tx] = nil
}

// Fill sets every cell to the given group.
func (m *TileMap) Fill(group string) {
	for ty := 0; ty < m.height; ty++ {
		for tx := 0; tx < m.width; tx++ {
			m.SetTile(tx, ty, group)
		}
	}
}

func (m *TileMap) InTileX(px float64) int {
	if m.tileWidth <= 0 {
		return 0
	}
	return common.FloorInt(px / float64(m.tileWidth))
}

func (m *TileMap) InTileY(py float64) int {
	if m.tileHeight <= 0 {
		return 0
	}
	return common.FloorInt(py / float64(m.tileHeight))
}

func (m *TileMap) TilesInGroup(group string) []*Tile {
	var out []*Tile
	for _, t := range m.tiles {
		if t != nil && t.Group == group {
			out = append(out, t)
		}
	}
	return out
}

// Groups returns the distinct tile groups present on the map, sorted.
func (m *TileMap) Groups() []string {
	seen := make(map[string]struct{})
	for _, t := range m.tiles {
		if t != nil {
			seen[t.Group] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for g := range seen {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// TileCenter returns the pixel centre of tile (tx, ty) on m.
func TileCenter(m Map, tx, ty int) (float64, float64) {
	tw := float64(m.TileWidth())
	th := float64(m.TileHeight())
	return float64(tx)*tw + tw/2, float64(ty)*th + th/2
}

// TileOrigin returns the top-left pixel of tile (tx, ty) on m.
func TileOrigin(m Map, tx, ty int) (float64, float64) {
	return float64(tx * m.TileWidth()), float64(ty * m.TileHeight())
}
