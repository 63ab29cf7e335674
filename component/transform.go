package component

// Body is the owner of a mover's position. The pathfinding and collision
// code reads positions from it and hands movement back; it never keeps its
// own copy of the transform.
type Body interface {
	X() float64
	Y() float64
	// OldX and OldY are the position before the last move.
	OldX() float64
	OldY() float64
	// Width and Height are the footprint in pixels.
	Width() int
	Height() int
	// MoveLocation remembers the current position as old and then moves by
	// (dx, dy) scaled by extrp.
	MoveLocation(extrp, dx, dy float64)
	// SetLocation places the body at (x, y) and keeps the previous
	// position as old.
	SetLocation(x, y float64)
	// Teleport sets both current and old position.
	Teleport(x, y float64)
	TeleportX(x float64)
	TeleportY(y float64)
}

// Transform is the plain Body used by the world and tests.
type Transform struct {
	x, y       float64
	oldX, oldY float64
	width      int
	height     int
}

func NewTransform(x, y float64, width, height int) *Transform {
	return &Transform{x: x, y: y, oldX: x, oldY: y, width: width, height: height}
}

func (t *Transform) X() float64    { return t.x }
func (t *Transform) Y() float64    { return t.y }
func (t *Transform) OldX() float64 { return t.oldX }
func (t *Transform) OldY() float64 { return t.oldY }
func (t *Transform) Width() int    { return t.width }
func (t *Transform) Height() int   { return t.height }

func (t *Transform) MoveLocation(extrp, dx, dy float64) {
	t.oldX = t.x
	t.oldY = t.y
	t.x += dx * extrp
	t.y += dy * extrp
}

func (t *Transform) SetLocation(x, y float64) {
	t.oldX = t.x
	t.oldY = t.y
	t.x = x
	t.y = y
}

func (t *Transform) Teleport(x, y float64) {
	t.x, t.oldX = x, x
	t.y, t.oldY = y, y
}

func (t *Transform) TeleportX(x float64) {
	t.x, t.oldX = x, x
}

func (t *Transform) TeleportY(y float64) {
	t.y, t.oldY = y, y
}
