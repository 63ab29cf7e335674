package pathfinding

import (
	"fmt"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/sirupsen/logrus"
)

const scriptResultVar = "result"

// ScriptHeuristic evaluates a tengo script per call. The script reads the
// globals dx and dy (target minus source, as floats) and assigns result.
// A failing run costs 0, which keeps the search admissible.
type ScriptHeuristic struct {
	name     string
	mu       sync.Mutex
	compiled *tengo.Compiled
	log      logrus.FieldLogger
}

func NewScriptHeuristic(name string, src []byte) (*ScriptHeuristic, error) {
	script := tengo.NewScript(src)
	for _, v := range []string{"dx", "dy"} {
		if err := script.Add(v, 0.0); err != nil {
			return nil, fmt.Errorf("pathfinding: heuristic %s: add %s: %w", name, v, err)
		}
	}
	script.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("pathfinding: compile heuristic %s: %w", name, err)
	}
	if err := compiled.Run(); err != nil {
		return nil, fmt.Errorf("pathfinding: run heuristic %s: %w", name, err)
	}
	if !compiled.IsDefined(scriptResultVar) {
		return nil, fmt.Errorf("pathfinding: heuristic %s does not define %q", name, scriptResultVar)
	}
	return &ScriptHeuristic{
		name:     name,
		compiled: compiled,
		log:      logrus.StandardLogger(),
	}, nil
}

// SetLogger replaces the logger used for runtime failures.
func (h *ScriptHeuristic) SetLogger(log logrus.FieldLogger) {
	if log != nil {
		h.log = log
	}
}

func (h *ScriptHeuristic) Name() string { return h.name }

func (h *ScriptHeuristic) Cost(sx, sy, tx, ty int) float64 {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.compiled.Set("dx", float64(tx-sx)); err != nil {
		h.fail(err)
		return 0
	}
	if err := h.compiled.Set("dy", float64(ty-sy)); err != nil {
		h.fail(err)
		return 0
	}
	if err := h.compiled.Run(); err != nil {
		h.fail(err)
		return 0
	}
	v := h.compiled.Get(scriptResultVar).Float()
	if v < 0 {
		return 0
	}
	return v
}

func (h *ScriptHeuristic) fail(err error) {
	h.log.WithFields(logrus.Fields{"script": h.name}).WithError(err).Warn("pathfinding: heuristic script failed")
}
