package ecs

import (
	"unsafe"

	"github.com/Voskan/bones/ecs/bitset"
	"github.com/Voskan/bones/schema"
)

// ComponentStore is the typed wrapper most systems interact with. It is a
// thin projection over UntypedComponentStore, matching
// original_source/framework_crates/bones_ecs/src/components/typed.rs.
type ComponentStore[T any] struct {
	untyped *UntypedComponentStore
}

// NewComponentStore constructs an empty typed store, deriving T's schema via
// schema.SchemaOf if T does not implement schema.HasSchema.
func NewComponentStore[T any]() *ComponentStore[T] {
	return &ComponentStore[T]{untyped: NewUntypedComponentStore(schema.SchemaOf[T]())}
}

// IntoUntyped exposes the backing untyped store (for dynamic/reflective
// code paths, e.g. the asset loader populating components from pack data).
func (c *ComponentStore[T]) IntoUntyped() *UntypedComponentStore { return c.untyped }

// FromUntyped wraps an existing untyped store as ComponentStore[T]. Panics
// if the store's schema doesn't represent T.
func FromUntyped[T any](u *UntypedComponentStore) *ComponentStore[T] {
	if !u.Schema().Represents(schema.SchemaOf[T]()) {
		panic("bones/ecs: schema mismatch constructing ComponentStore")
	}
	return &ComponentStore[T]{untyped: u}
}

// Insert stores v for entity e, replacing any existing component.
func (c *ComponentStore[T]) Insert(e Entity, v T) {
	b := schema.NewBox(v)
	c.untyped.InsertBox(e.Index, b)
}

// Get returns a pointer to e's component, or nil if absent.
func (c *ComponentStore[T]) Get(e Entity) *T {
	p := c.untyped.Get(e.Index)
	if p == nil {
		return nil
	}
	return (*T)(p)
}

// GetMut is an alias of Get; components are always mutable through the
// returned pointer, matching the source's CompMut access pattern.
func (c *ComponentStore[T]) GetMut(e Entity) *T { return c.Get(e) }

// GetMany returns pointers for multiple distinct entities at once. Panics on
// a duplicate entity, matching the source's aliasing-safety guarantee.
func (c *ComponentStore[T]) GetMany(es ...Entity) []*T {
	seen := make(map[uint32]bool, len(es))
	out := make([]*T, len(es))
	for i, e := range es {
		if seen[e.Index] {
			panic("bones/ecs: GetMany called with duplicate entity")
		}
		seen[e.Index] = true
		out[i] = c.Get(e)
	}
	return out
}

// Remove drops and clears e's component.
func (c *ComponentStore[T]) Remove(e Entity) { c.untyped.Remove(e.Index) }

// Contains reports whether e has a component in this store.
func (c *ComponentStore[T]) Contains(e Entity) bool { return c.untyped.Contains(e.Index) }

// Bitset returns the occupancy bitset, keyed by entity index.
func (c *ComponentStore[T]) Bitset() *bitset.Set { return c.untyped.Bitset() }

// Iter invokes fn for every (Entity-index, *T) pair in ascending index
// order. fn receives only the index; callers reconstruct a full Entity via
// Entities when they need the generation.
func (c *ComponentStore[T]) Iter(fn func(i uint32, v *T) bool) {
	c.untyped.Iter(func(i uint32, ptr unsafe.Pointer) bool {
		return fn(i, (*T)(ptr))
	})
}
