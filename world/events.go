package world

import "github.com/milk9111/tilenav/common"

// EventKind identifies world event types.
type EventKind string

const (
	EventStartMove EventKind = "start_move"
	EventMoving    EventKind = "moving"
	EventArrived   EventKind = "arrived"
	EventCollided  EventKind = "collided"
)

// Event is emitted by movers and collidables during Update.
type Event struct {
	Kind EventKind
	ID   int
	// Tick is the world tick the event happened on.
	Tick int
	From common.TileCoord
	To   common.TileCoord
	// Category and Formula are set for collisions.
	Category string
	Formula  string
}

// EventQueue is a simple FIFO queue.
type EventQueue struct {
	items []Event
}

// Push adds an event.
func (q *EventQueue) Push(evt Event) {
	if q == nil {
		return
	}
	q.items = append(q.items, evt)
}

// Drain returns all events and clears the queue.
func (q *EventQueue) Drain() []Event {
	if q == nil || len(q.items) == 0 {
		return nil
	}
	out := q.items
	q.items = nil
	return out
}

func (q *EventQueue) Len() int {
	if q == nil {
		return 0
	}
	return len(q.items)
}
