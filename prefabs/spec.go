package prefabs

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	PathfindingFile = "pathfinding.yaml"
	CollisionFile   = "collision.yaml"
)

func LoadSpec[T any](filename string) (T, error) {
	var zero T
	data, err := Load(filename)
	if err != nil {
		return zero, fmt.Errorf("prefabs: load %s: %w", filename, err)
	}
	return ParseSpec[T](filename, data)
}

// ParseSpec decodes raw YAML. filename is only used in error messages.
func ParseSpec[T any](filename string, data []byte) (T, error) {
	var zero T
	var spec T
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return zero, fmt.Errorf("prefabs: unmarshal %s: %w", filename, err)
	}
	return spec, nil
}

// PathfindingSpec describes path categories and mover profiles.
type PathfindingSpec struct {
	MaxSearchDistance   int                                `yaml:"max_search_distance"`
	Heuristic           string                             `yaml:"heuristic"`
	DiagonalSpeedFactor float64                            `yaml:"diagonal_speed_factor"`
	Categories          map[string]PathCategorySpec        `yaml:"categories"`
	Profiles            map[string]map[string]PathDataSpec `yaml:"profiles"`
}

// PathCategorySpec lists the tile groups that fall into a path category.
type PathCategorySpec struct {
	Groups []string `yaml:"groups"`
}

// PathDataSpec is the per-category movement rule for a profile. An empty
// Movements list allows every direction.
type PathDataSpec struct {
	Cost      float64  `yaml:"cost"`
	Blocking  bool     `yaml:"blocking"`
	Movements []string `yaml:"movements"`
}

func LoadPathfindingSpec() (*PathfindingSpec, error) {
	spec, err := LoadSpec[PathfindingSpec](PathfindingFile)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}

// CollisionSpec describes tile collision formulas, groups and categories.
type CollisionSpec struct {
	Formulas   map[string]FormulaSpec           `yaml:"formulas"`
	Groups     map[string][]string              `yaml:"groups"`
	Categories map[string]CollisionCategorySpec `yaml:"categories"`
}

type FormulaSpec struct {
	Range       RangeSpec           `yaml:"range"`
	Function    FunctionSpec        `yaml:"function"`
	Constraints map[string][]string `yaml:"constraints"`
}

type RangeSpec struct {
	Output string  `yaml:"output"`
	MinX   float64 `yaml:"min_x"`
	MaxX   float64 `yaml:"max_x"`
	MinY   float64 `yaml:"min_y"`
	MaxY   float64 `yaml:"max_y"`
}

type FunctionSpec struct {
	Type string  `yaml:"type"`
	A    float64 `yaml:"a"`
	B    float64 `yaml:"b"`
}

type CollisionCategorySpec struct {
	Axis    string   `yaml:"axis"`
	OffsetX float64  `yaml:"offset_x"`
	OffsetY float64  `yaml:"offset_y"`
	Glue    bool     `yaml:"glue"`
	Groups  []string `yaml:"groups"`
}

func LoadCollisionSpec() (*CollisionSpec, error) {
	spec, err := LoadSpec[CollisionSpec](CollisionFile)
	if err != nil {
		return nil, err
	}
	return &spec, nil
}
