package ecs

import (
	"github.com/Voskan/bones/ecs/bitset"
)

// Entities is the generational entity allocator: a live-membership bitset, a
// per-index generation table, and a free list of killed indices. It is
// installed as a World resource (see NewWorld) rather than embedded directly
// in World, so systems can depend on it like any other resource.
//
// Grounded on internal/genring's generation-bookkeeping idiom (stable id +
// reuse counter), adapted from tracking cache generations to tracking
// entity-slot generations.
type Entities struct {
	live       *bitset.Set
	generation []uint32
	free       []uint32
	killed     []Entity
	next       uint32
}

// NewEntities constructs an empty allocator.
func NewEntities() *Entities {
	return &Entities{live: bitset.New(64)}
}

// Create allocates a fresh Entity, reusing a killed index (with its
// generation bumped) when one is available.
func (e *Entities) Create() Entity {
	if n := len(e.free); n > 0 {
		idx := e.free[n-1]
		e.free = e.free[:n-1]
		e.live.Set(int(idx))
		return Entity{Index: idx, Generation: e.generation[idx]}
	}
	idx := e.next
	e.next++
	if int(idx) >= len(e.generation) {
		grown := make([]uint32, idx+1)
		copy(grown, e.generation)
		e.generation = grown
	}
	e.generation[idx] = 1
	e.live.Set(int(idx))
	return Entity{Index: idx, Generation: 1}
}

// Kill marks e for removal. The index is not reused and e's components are
// not dropped until World.Maintain runs. Returns false if e is already dead
// or stale (generation mismatch).
func (e *Entities) Kill(ent Entity) bool {
	if !e.IsAlive(ent) {
		return false
	}
	e.live.Clear(int(ent.Index))
	e.killed = append(e.killed, ent)
	return true
}

// IsAlive reports whether ent refers to a currently live slot with a
// matching generation.
func (e *Entities) IsAlive(ent Entity) bool {
	if int(ent.Index) >= len(e.generation) {
		return false
	}
	return e.live.Test(int(ent.Index)) && e.generation[ent.Index] == ent.Generation
}

// Bitset returns the live-membership bitset (read-only use expected).
func (e *Entities) Bitset() *bitset.Set { return e.live }

// Len returns the number of currently live entities.
func (e *Entities) Len() int { return e.live.Count() }

// drainKilled returns and clears the pending-removal list, bumping each
// freed index's generation so stale Entity values can no longer alias a
// reused slot.
func (e *Entities) drainKilled() []Entity {
	out := e.killed
	e.killed = nil
	for _, ent := range out {
		e.generation[ent.Index]++
		e.free = append(e.free, ent.Index)
	}
	return out
}

// Clone deep-copies the allocator for World snapshotting.
func (e *Entities) Clone() *Entities {
	out := &Entities{
		live:       e.live.Clone(),
		generation: append([]uint32(nil), e.generation...),
		free:       append([]uint32(nil), e.free...),
		killed:     append([]Entity(nil), e.killed...),
		next:       e.next,
	}
	return out
}
