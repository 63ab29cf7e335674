// Package tilecollision resolves collisions between moving probe points and
// tile geometry described by per-tile formulas.
package tilecollision

import (
	"sort"

	"github.com/jakecoffman/cp"

	"github.com/milk9111/tilenav/common"
)

// Range is the tile-local rectangle, in pixels, over which a formula
// applies, plus the axis its function produces.
type Range struct {
	Output common.Axis
	MinX   float64
	MaxX   float64
	MinY   float64
	MaxY   float64
}

func (r Range) bounds() cp.BB {
	return cp.BB{L: r.MinX, B: r.MinY, R: r.MaxX, T: r.MaxY}
}

// Contains reports whether the tile-local point lies inside the range,
// bounds included.
func (r Range) Contains(x, y float64) bool {
	return r.bounds().ContainsVect(cp.Vector{X: x, Y: y})
}

// Function maps the tile-local input coordinate to the tile-local output
// coordinate.
type Function interface {
	Compute(input float64) float64
}

// Linear is f(t) = A*t + B.
type Linear struct {
	A float64
	B float64
}

func (l Linear) Compute(input float64) float64 {
	return l.A*input + l.B
}

// Constraint lists, per side, the neighbour tile groups that suppress a
// formula when the neighbour itself carries formulas.
type Constraint struct {
	groups map[common.Orientation]map[string]struct{}
}

func NewConstraint() Constraint {
	return Constraint{groups: make(map[common.Orientation]map[string]struct{})}
}

// Add records that group on side o suppresses the formula.
func (c *Constraint) Add(o common.Orientation, group string) {
	if c.groups == nil {
		c.groups = make(map[common.Orientation]map[string]struct{})
	}
	set, ok := c.groups[o]
	if !ok {
		set = make(map[string]struct{})
		c.groups[o] = set
	}
	set[group] = struct{}{}
}

func (c Constraint) Has(o common.Orientation, group string) bool {
	_, ok := c.groups[o][group]
	return ok
}

func (c Constraint) Empty() bool {
	for _, set := range c.groups {
		if len(set) > 0 {
			return false
		}
	}
	return true
}

// Groups returns the constrained groups on side o, sorted.
func (c Constraint) Groups(o common.Orientation) []string {
	out := make([]string, 0, len(c.groups[o]))
	for g := range c.groups[o] {
		out = append(out, g)
	}
	sort.Strings(out)
	return out
}

// Formula is one piece of tile geometry. Formulas are shared by pointer
// between groups, categories and tiles.
type Formula struct {
	Name       string
	Range      Range
	Function   Function
	Constraint Constraint
}

// Group is a named set of formulas. Tiles whose terrain group has the same
// name get these formulas.
type Group struct {
	Name     string
	Formulas []*Formula
}

// Category is a probe point relative to a body's position, resolving
// collisions on a single axis against the formulas of its groups.
type Category struct {
	Name    string
	Axis    common.Axis
	OffsetX float64
	OffsetY float64
	// Glue keeps probing while the body is at rest, holding it on the
	// surface.
	Glue   bool
	Groups []*Group

	formulas map[*Formula]struct{}
}

// NewCategory builds a category and flattens its groups' formulas.
func NewCategory(name string, axis common.Axis, offsetX, offsetY float64, glue bool, groups ...*Group) *Category {
	c := &Category{
		Name:     name,
		Axis:     axis,
		OffsetX:  offsetX,
		OffsetY:  offsetY,
		Glue:     glue,
		Groups:   groups,
		formulas: make(map[*Formula]struct{}),
	}
	for _, g := range groups {
		for _, f := range g.Formulas {
			c.formulas[f] = struct{}{}
		}
	}
	return c
}

// Has reports whether f is among the category's formulas.
func (c *Category) Has(f *Formula) bool {
	_, ok := c.formulas[f]
	return ok
}

// Formulas returns the flattened formulas sorted by name.
func (c *Category) Formulas() []*Formula {
	out := make([]*Formula, 0, len(c.formulas))
	for f := range c.formulas {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
