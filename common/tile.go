package common

import (
	"fmt"
	"strconv"
	"strings"
)

// TileCoord is a tile index pair on the grid.
type TileCoord struct {
	X int
	Y int
}

// Tile builds a TileCoord.
func Tile(x, y int) TileCoord {
	return TileCoord{X: x, Y: y}
}

func (t TileCoord) String() string {
	return "(" + strconv.Itoa(t.X) + "," + strconv.Itoa(t.Y) + ")"
}

// Add offsets the coordinate.
func (t TileCoord) Add(dx, dy int) TileCoord {
	return TileCoord{X: t.X + dx, Y: t.Y + dy}
}

// Direction is one of the eight grid moves. The grid's y axis grows
// downward, so North decreases y.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	directionCount
)

var directionNames = [directionCount]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

var directionDeltas = [directionCount][2]int{
	{0, -1}, {1, -1}, {1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
}

// Directions lists every direction in clockwise order starting at North.
func Directions() []Direction {
	out := make([]Direction, 0, directionCount)
	for d := North; d < directionCount; d++ {
		out = append(out, d)
	}
	return out
}

// DirectionOf returns the direction of a unit step. ok is false for a zero
// or non-unit delta.
func DirectionOf(dx, dy int) (Direction, bool) {
	for d := North; d < directionCount; d++ {
		if directionDeltas[d][0] == dx && directionDeltas[d][1] == dy {
			return d, true
		}
	}
	return 0, false
}

// ParseDirection accepts the short compass names (N, NE, ...), case
// insensitive.
func ParseDirection(s string) (Direction, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for d := North; d < directionCount; d++ {
		if directionNames[d] == up {
			return d, nil
		}
	}
	return 0, fmt.Errorf("common: unknown direction %q", s)
}

// Delta returns the tile offset of one step in this direction.
func (d Direction) Delta() (int, int) {
	if d >= directionCount {
		return 0, 0
	}
	return directionDeltas[d][0], directionDeltas[d][1]
}

// IsDiagonal reports whether both axes change.
func (d Direction) IsDiagonal() bool {
	dx, dy := d.Delta()
	return dx != 0 && dy != 0
}

func (d Direction) String() string {
	if d >= directionCount {
		return "Direction(" + strconv.Itoa(int(d)) + ")"
	}
	return directionNames[d]
}

// DirectionSet is a bitmask of allowed directions.
type DirectionSet uint8

const (
	AllDirections      DirectionSet = 0xff
	CardinalDirections DirectionSet = 1<<North | 1<<East | 1<<South | 1<<West
)

// DirectionSetOf builds a set from the given directions.
func DirectionSetOf(dirs ...Direction) DirectionSet {
	var s DirectionSet
	for _, d := range dirs {
		s = s.With(d)
	}
	return s
}

func (s DirectionSet) Has(d Direction) bool {
	return d < directionCount && s&(1<<d) != 0
}

func (s DirectionSet) With(d Direction) DirectionSet {
	if d >= directionCount {
		return s
	}
	return s | 1<<d
}

func (s DirectionSet) Without(d Direction) DirectionSet {
	if d >= directionCount {
		return s
	}
	return s &^ (1 << d)
}

// Axis selects the X or Y coordinate.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// ParseAxis accepts "x" or "y".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "x":
		return AxisX, nil
	case "y":
		return AxisY, nil
	}
	return 0, fmt.Errorf("common: unknown axis %q", s)
}

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	}
	return "Axis(" + strconv.Itoa(int(a)) + ")"
}

// Orientation is one of the four cardinal neighbours of a tile.
type Orientation uint8

const (
	OrientationNorth Orientation = iota
	OrientationSouth
	OrientationEast
	OrientationWest
)

// Orientations lists the four orientations in a fixed order.
var Orientations = []Orientation{OrientationNorth, OrientationSouth, OrientationEast, OrientationWest}

// ParseOrientation accepts north/south/east/west and the aliases
// top/bottom/right/left.
func ParseOrientation(s string) (Orientation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "north", "top", "n":
		return OrientationNorth, nil
	case "south", "bottom", "s":
		return OrientationSouth, nil
	case "east", "right", "e":
		return OrientationEast, nil
	case "west", "left", "w":
		return OrientationWest, nil
	}
	return 0, fmt.Errorf("common: unknown orientation %q", s)
}

// Neighbor returns the tile next to (tx, ty) on this side.
func (o Orientation) Neighbor(tx, ty int) (int, int) {
	switch o {
	case OrientationNorth:
		return tx, ty - 1
	case OrientationSouth:
		return tx, ty + 1
	case OrientationEast:
		return tx + 1, ty
	case OrientationWest:
		return tx - 1, ty
	}
	return tx, ty
}

func (o Orientation) String() string {
	switch o {
	case OrientationNorth:
		return "north"
	case OrientationSouth:
		return "south"
	case OrientationEast:
		return "east"
	case OrientationWest:
		return "west"
	}
	return "Orientation(" + strconv.Itoa(int(o)) + ")"
}
