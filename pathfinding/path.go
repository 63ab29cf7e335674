package pathfinding

import (
	"strings"

	"github.com/milk9111/tilenav/common"
)

// Path is an ordered list of tile steps from the start tile to the
// destination, both inclusive. A path returned by a Finder is not modified
// afterwards; movers replace it wholesale when they re-plan.
type Path struct {
	steps []common.TileCoord
}

// NewPath builds a path from steps.
func NewPath(steps ...common.TileCoord) *Path {
	return &Path{steps: append([]common.TileCoord(nil), steps...)}
}

// Prepend inserts a step at the front. Used while backtracking from the
// goal.
func (p *Path) Prepend(x, y int) {
	p.steps = append(p.steps, common.TileCoord{})
	copy(p.steps[1:], p.steps)
	p.steps[0] = common.TileCoord{X: x, Y: y}
}

func (p *Path) Append(x, y int) {
	p.steps = append(p.steps, common.TileCoord{X: x, Y: y})
}

func (p *Path) Len() int {
	if p == nil {
		return 0
	}
	return len(p.steps)
}

func (p *Path) Step(i int) common.TileCoord { return p.steps[i] }
func (p *Path) X(i int) int                 { return p.steps[i].X }
func (p *Path) Y(i int) int                 { return p.steps[i].Y }

// Last returns the destination step.
func (p *Path) Last() common.TileCoord { return p.steps[len(p.steps)-1] }

// Steps returns a copy of the steps.
func (p *Path) Steps() []common.TileCoord {
	if p == nil {
		return nil
	}
	return append([]common.TileCoord(nil), p.steps...)
}

func (p *Path) Contains(x, y int) bool {
	if p == nil {
		return false
	}
	for _, s := range p.steps {
		if s.X == x && s.Y == y {
			return true
		}
	}
	return false
}

func (p *Path) String() string {
	if p == nil {
		return "<no path>"
	}
	var b strings.Builder
	b.WriteByte('[')
	for i, s := range p.steps {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s.String())
	}
	b.WriteByte(']')
	return b.String()
}
