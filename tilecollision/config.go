package tilecollision

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/milk9111/tilenav/common"
	"github.com/milk9111/tilenav/prefabs"
)

var (
	ErrUnknownFormula  = errors.New("unknown collision formula")
	ErrUnknownGroup    = errors.New("unknown collision group")
	ErrUnknownCategory = errors.New("unknown collision category")
	ErrUnknownFunction = errors.New("unknown collision function")
)

// Config holds the loaded formulas, groups and categories.
type Config struct {
	formulas   map[string]*Formula
	groups     map[string]*Group
	categories map[string]*Category
}

// EmptyConfig returns a config with nothing registered.
func EmptyConfig() *Config {
	return &Config{
		formulas:   make(map[string]*Formula),
		groups:     make(map[string]*Group),
		categories: make(map[string]*Category),
	}
}

// NewConfig resolves every name reference in spec. A nil spec yields an
// empty config.
func NewConfig(spec *prefabs.CollisionSpec) (*Config, error) {
	cfg := EmptyConfig()
	if spec == nil {
		return cfg, nil
	}

	for name, fs := range spec.Formulas {
		f, err := buildFormula(name, fs)
		if err != nil {
			return nil, err
		}
		cfg.formulas[name] = f
	}

	for name, refs := range spec.Groups {
		g := &Group{Name: name}
		for _, ref := range refs {
			f, err := cfg.Formula(ref)
			if err != nil {
				return nil, fmt.Errorf("tilecollision: group %q: %w", name, err)
			}
			g.Formulas = append(g.Formulas, f)
		}
		cfg.groups[name] = g
	}

	for name, cs := range spec.Categories {
		axis, err := common.ParseAxis(cs.Axis)
		if err != nil {
			return nil, fmt.Errorf("tilecollision: category %q: %w", name, err)
		}
		groups := make([]*Group, 0, len(cs.Groups))
		for _, ref := range cs.Groups {
			g, err := cfg.Group(ref)
			if err != nil {
				return nil, fmt.Errorf("tilecollision: category %q: %w", name, err)
			}
			groups = append(groups, g)
		}
		cfg.categories[name] = NewCategory(name, axis, cs.OffsetX, cs.OffsetY, cs.Glue, groups...)
	}
	return cfg, nil
}

// LoadConfig reads collision.yaml through prefabs.
func LoadConfig() (*Config, error) {
	spec, err := prefabs.LoadCollisionSpec()
	if err != nil {
		return nil, err
	}
	return NewConfig(spec)
}

func buildFormula(name string, fs prefabs.FormulaSpec) (*Formula, error) {
	output, err := common.ParseAxis(fs.Range.Output)
	if err != nil {
		return nil, fmt.Errorf("tilecollision: formula %q: %w", name, err)
	}
	var fn Function
	switch strings.ToLower(strings.TrimSpace(fs.Function.Type)) {
	case "linear", "":
		fn = Linear{A: fs.Function.A, B: fs.Function.B}
	default:
		return nil, fmt.Errorf("tilecollision: formula %q: %w %q", name, ErrUnknownFunction, fs.Function.Type)
	}
	constraint := NewConstraint()
	for side, groups := range fs.Constraints {
		o, err := common.ParseOrientation(side)
		if err != nil {
			return nil, fmt.Errorf("tilecollision: formula %q: %w", name, err)
		}
		for _, g := range groups {
			constraint.Add(o, g)
		}
	}
	return &Formula{
		Name: name,
		Range: Range{
			Output: output,
			MinX:   fs.Range.MinX,
			MaxX:   fs.Range.MaxX,
			MinY:   fs.Range.MinY,
			MaxY:   fs.Range.MaxY,
		},
		Function:   fn,
		Constraint: constraint,
	}, nil
}

// AddFormula registers a formula built in code.
func (c *Config) AddFormula(f *Formula) {
	c.formulas[f.Name] = f
}

// AddGroup registers a group built in code.
func (c *Config) AddGroup(g *Group) {
	c.groups[g.Name] = g
}

// AddCategory registers a category built in code.
func (c *Config) AddCategory(cat *Category) {
	c.categories[cat.Name] = cat
}

func (c *Config) Formula(name string) (*Formula, error) {
	f, ok := c.formulas[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFormula, name)
	}
	return f, nil
}

func (c *Config) Group(name string) (*Group, error) {
	g, ok := c.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownGroup, name)
	}
	return g, nil
}

func (c *Config) Category(name string) (*Category, error) {
	cat, ok := c.categories[name]
	if !ok {
		return nil, fmt.Errorf("tilecollision: %w %q", ErrUnknownCategory, name)
	}
	return cat, nil
}

// Groups returns every group sorted by name.
func (c *Config) Groups() []*Group {
	out := make([]*Group, 0, len(c.groups))
	for _, g := range c.groups {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Categories returns every category sorted by name.
func (c *Config) Categories() []*Category {
	out := make([]*Category, 0, len(c.categories))
	for _, cat := range c.categories {
		out = append(out, cat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
