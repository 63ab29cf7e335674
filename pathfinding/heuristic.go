package pathfinding

import (
	"fmt"
	"math"
	"strings"

	"github.com/milk9111/tilenav/common"
	"github.com/milk9111/tilenav/prefabs"
)

// Heuristic estimates the remaining cost from (sx, sy) to (tx, ty).
type Heuristic interface {
	Cost(sx, sy, tx, ty int) float64
}

// HeuristicFunc adapts a plain function to Heuristic.
type HeuristicFunc func(sx, sy, tx, ty int) float64

func (f HeuristicFunc) Cost(sx, sy, tx, ty int) float64 { return f(sx, sy, tx, ty) }

// ClosestHeuristic is the straight-line distance.
type ClosestHeuristic struct{}

func (ClosestHeuristic) Cost(sx, sy, tx, ty int) float64 {
	dx := float64(tx - sx)
	dy := float64(ty - sy)
	return math.Sqrt(dx*dx + dy*dy)
}

// ManhattanHeuristic counts straight steps only. It overestimates on grids
// that allow diagonal moves.
type ManhattanHeuristic struct{}

func (ManhattanHeuristic) Cost(sx, sy, tx, ty int) float64 {
	return float64(common.Abs(tx-sx) + common.Abs(ty-sy))
}

// DiagonalHeuristic is the king-move distance scaled by the cheapest step
// cost, which keeps it admissible for eight-way movement.
type DiagonalHeuristic struct {
	MinCost float64
}

func (h DiagonalHeuristic) Cost(sx, sy, tx, ty int) float64 {
	scale := h.MinCost
	if scale <= 0 {
		scale = 1
	}
	return scale * float64(common.Chebyshev(sx, sy, tx, ty))
}

// HeuristicByName resolves a heuristic from configuration. Names are
// closest (or euclidean), manhattan, diagonal (or chebyshev, the default)
// and script:<file> for a tengo script under prefabs/scripts.
func HeuristicByName(name string, minCost float64) (Heuristic, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	switch n {
	case "", "diagonal", "chebyshev":
		return DiagonalHeuristic{MinCost: minCost}, nil
	case "closest", "euclidean":
		return ClosestHeuristic{}, nil
	case "manhattan":
		return ManhattanHeuristic{}, nil
	}
	if file, ok := strings.CutPrefix(strings.TrimSpace(name), "script:"); ok {
		src, err := prefabs.LoadScript(file)
		if err != nil {
			return nil, fmt.Errorf("pathfinding: load heuristic script %s: %w", file, err)
		}
		return NewScriptHeuristic(file, src)
	}
	return nil, fmt.Errorf("pathfinding: unknown heuristic %q", name)
}
