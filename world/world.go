// Package world keeps the entities the server told the client about.
package world

import (
	"sort"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-ascending/protocol"
)

// ErrEntityNotFound is returned when an operation names an unknown entity.
var ErrEntityNotFound = errors.New("entity not found")

// Entity is a player or NPC visible to the client.
type Entity struct {
	ID   protocol.Entity
	Name string
	Pos  protocol.Position
	Dir  uint8
}

// World is the entity registry. Like everything the logic thread owns, it
// is not safe for concurrent use.
type World struct {
	entities map[protocol.Entity]*Entity

	// Player is the entity controlled by this client, if known.
	Player *protocol.Entity
}

func New() *World {
	return &World{entities: make(map[protocol.Entity]*Entity)}
}

// Add inserts e, replacing any entity with the same ID.
func (w *World) Add(e *Entity) {
	w.entities[e.ID] = e
}

func (w *World) Get(id protocol.Entity) (*Entity, error) {
	e, ok := w.entities[id]
	if !ok {
		return nil, errors.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	return e, nil
}

func (w *World) Remove(id protocol.Entity) error {
	if _, ok := w.entities[id]; !ok {
		return errors.Wrapf(ErrEntityNotFound, "entity %d", id)
	}
	delete(w.entities, id)
	if w.Player != nil && *w.Player == id {
		w.Player = nil
	}
	return nil
}

// Clear forgets every entity.
func (w *World) Clear() {
	w.entities = make(map[protocol.Entity]*Entity)
	w.Player = nil
}

func (w *World) Len() int {
	return len(w.entities)
}

// Entities returns all entities ordered by ID.
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.entities))
	for _, e := range w.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
