package pathfinding

import (
	"errors"
	"fmt"
	"sort"

	"github.com/milk9111/tilenav/common"
	"github.com/milk9111/tilenav/prefabs"
)

var (
	ErrUnknownCategory = errors.New("unknown path category")
	ErrUnknownProfile  = errors.New("unknown path profile")
	ErrInvalidConfig   = errors.New("invalid pathfinding configuration")
)

const (
	DefaultDiagonalSpeedFactor = 0.8
	DefaultMaxSearchDistance   = 1024
)

// PathData is a profile's movement rule on one path category.
type PathData struct {
	Category  string
	Cost      float64
	Blocking  bool
	Movements common.DirectionSet
}

// Profile maps every path category to the rule a kind of mover follows on
// it. Profiles are shared and read-only once built.
type Profile struct {
	name string
	data map[string]PathData
}

// NewProfile builds a profile from ready PathData values.
func NewProfile(name string, data ...PathData) *Profile {
	p := &Profile{name: name, data: make(map[string]PathData, len(data))}
	for _, d := range data {
		p.data[d.Category] = d
	}
	return p
}

func (p *Profile) Name() string { return p.name }

// Data returns the rule for category or ErrUnknownCategory.
func (p *Profile) Data(category string) (PathData, error) {
	d, ok := p.data[category]
	if !ok {
		return PathData{}, fmt.Errorf("pathfinding: profile %q: %w %q", p.name, ErrUnknownCategory, category)
	}
	return d, nil
}

func (p *Profile) Cost(category string) (float64, error) {
	d, err := p.Data(category)
	return d.Cost, err
}

func (p *Profile) IsBlocking(category string) (bool, error) {
	d, err := p.Data(category)
	return d.Blocking, err
}

func (p *Profile) IsMovementAllowed(category string, dir common.Direction) (bool, error) {
	d, err := p.Data(category)
	if err != nil {
		return false, err
	}
	return d.Movements.Has(dir), nil
}

// Categories resolves tile groups to path categories.
type Categories struct {
	byGroup map[string]string
	names   []string
}

// NewCategories builds the lookup from category -> groups. A group listed
// under two categories is a configuration error.
func NewCategories(groups map[string][]string) (*Categories, error) {
	c := &Categories{byGroup: make(map[string]string)}
	for name, gs := range groups {
		c.names = append(c.names, name)
		for _, g := range gs {
			if prev, ok := c.byGroup[g]; ok && prev != name {
				return nil, fmt.Errorf("pathfinding: group %q in categories %q and %q: %w", g, prev, name, ErrInvalidConfig)
			}
			c.byGroup[g] = name
		}
	}
	sort.Strings(c.names)
	return c, nil
}

// Of returns the category of a tile group.
func (c *Categories) Of(group string) (string, error) {
	name, ok := c.byGroup[group]
	if !ok {
		return "", fmt.Errorf("pathfinding: group %q: %w", group, ErrUnknownCategory)
	}
	return name, nil
}

func (c *Categories) Names() []string {
	return append([]string(nil), c.names...)
}

func (c *Categories) has(name string) bool {
	i := sort.SearchStrings(c.names, name)
	return i < len(c.names) && c.names[i] == name
}

// Config is the loaded pathfinding configuration.
type Config struct {
	MaxSearchDistance   int
	DiagonalSpeedFactor float64
	Heuristic           Heuristic
	Categories          *Categories
	profiles            map[string]*Profile
}

// NewConfig validates a spec and builds profiles and the heuristic.
func NewConfig(spec *prefabs.PathfindingSpec) (*Config, error) {
	if spec == nil {
		return nil, fmt.Errorf("pathfinding: nil spec: %w", ErrInvalidConfig)
	}
	groups := make(map[string][]string, len(spec.Categories))
	for name, c := range spec.Categories {
		groups[name] = c.Groups
	}
	cats, err := NewCategories(groups)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		MaxSearchDistance:   spec.MaxSearchDistance,
		DiagonalSpeedFactor: spec.DiagonalSpeedFactor,
		Categories:          cats,
		profiles:            make(map[string]*Profile, len(spec.Profiles)),
	}
	if cfg.MaxSearchDistance <= 0 {
		cfg.MaxSearchDistance = DefaultMaxSearchDistance
	}
	if cfg.DiagonalSpeedFactor <= 0 {
		cfg.DiagonalSpeedFactor = DefaultDiagonalSpeedFactor
	}

	minCost := 0.0
	for name, entries := range spec.Profiles {
		profile := &Profile{name: name, data: make(map[string]PathData, len(entries))}
		for category, d := range entries {
			if !cats.has(category) {
				return nil, fmt.Errorf("pathfinding: profile %q: %w %q", name, ErrUnknownCategory, category)
			}
			if d.Cost < 0 {
				return nil, fmt.Errorf("pathfinding: profile %q category %q: negative cost: %w", name, category, ErrInvalidConfig)
			}
			moves, err := parseMovements(d.Movements)
			if err != nil {
				return nil, fmt.Errorf("pathfinding: profile %q category %q: %w", name, category, err)
			}
			profile.data[category] = PathData{Category: category, Cost: d.Cost, Blocking: d.Blocking, Movements: moves}
			if !d.Blocking && (minCost == 0 || d.Cost < minCost) {
				minCost = d.Cost
			}
		}
		cfg.profiles[name] = profile
	}

	h, err := HeuristicByName(spec.Heuristic, minCost)
	if err != nil {
		return nil, err
	}
	cfg.Heuristic = h
	return cfg, nil
}

// LoadConfig reads pathfinding.yaml through prefabs.
func LoadConfig() (*Config, error) {
	spec, err := prefabs.LoadPathfindingSpec()
	if err != nil {
		return nil, err
	}
	return NewConfig(spec)
}

// Profile returns a named profile or ErrUnknownProfile.
func (c *Config) Profile(name string) (*Profile, error) {
	p, ok := c.profiles[name]
	if !ok {
		return nil, fmt.Errorf("pathfinding: %w %q", ErrUnknownProfile, name)
	}
	return p, nil
}

// ProfileNames lists the configured profiles, sorted.
func (c *Config) ProfileNames() []string {
	out := make([]string, 0, len(c.profiles))
	for name := range c.profiles {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func parseMovements(names []string) (common.DirectionSet, error) {
	if len(names) == 0 {
		return common.AllDirections, nil
	}
	var set common.DirectionSet
	for _, n := range names {
		d, err := common.ParseDirection(n)
		if err != nil {
			return 0, err
		}
		set = set.With(d)
	}
	return set, nil
}
