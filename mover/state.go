package mover

import (
	"strconv"

	"github.com/milk9111/tilenav/common"
)

// State is the mover's position in its path lifecycle.
type State int

const (
	// Idle has no path.
	Idle State = iota
	// Planning is computing a path.
	Planning
	// Advancing is walking the current path step by step.
	Advancing
	// Stopped has halted and is about to notify arrival.
	Stopped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Planning:
		return "planning"
	case Advancing:
		return "advancing"
	case Stopped:
		return "stopped"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Listener receives path lifecycle notifications.
type Listener interface {
	NotifyStartMove(m *Mover)
	// NotifyMoving fires when the mover commits to the next step, after
	// its reservation moved from one tile to the other.
	NotifyMoving(m *Mover, from, to common.TileCoord)
	// NotifyArrived fires when the path is done or the mover halted.
	NotifyArrived(m *Mover)
}

// ListenerFuncs adapts optional callbacks to Listener.
type ListenerFuncs struct {
	StartMove func(m *Mover)
	Moving    func(m *Mover, from, to common.TileCoord)
	Arrived   func(m *Mover)
}

func (l ListenerFuncs) NotifyStartMove(m *Mover) {
	if l.StartMove != nil {
		l.StartMove(m)
	}
}

func (l ListenerFuncs) NotifyMoving(m *Mover, from, to common.TileCoord) {
	if l.Moving != nil {
		l.Moving(m, from, to)
	}
}

func (l ListenerFuncs) NotifyArrived(m *Mover) {
	if l.Arrived != nil {
		l.Arrived(m)
	}
}
