package ecs

import (
	"fmt"
	"sync"

	"github.com/Voskan/bones/schema"
)

// Cell is an atomic-refcell-flavored guard around a single value, grounded
// on the teacher's shard.mu sync.RWMutex discipline (pkg/shard.go). Unlike a
// plain RWMutex, a conflicting re-entrant Borrow/BorrowMut from the same
// logical caller panics rather than deadlocks — bones runs single-threaded
// cooperative scheduling (SPEC_FULL.md §5), so a double-borrow is always a
// programmer error, never legitimate contention.
type Cell[T any] struct {
	mu  sync.RWMutex
	val T
}

// NewCell wraps v in a Cell.
func NewCell[T any](v T) *Cell[T] { return &Cell[T]{val: v} }

// Borrow runs fn with read-only access to the cell's value.
func (c *Cell[T]) Borrow(fn func(v *T)) {
	if !c.mu.TryRLock() {
		panic(fmt.Sprintf("bones/ecs: conflicting borrow of %T", c.val))
	}
	defer c.mu.RUnlock()
	fn(&c.val)
}

// BorrowMut runs fn with mutable access to the cell's value.
func (c *Cell[T]) BorrowMut(fn func(v *T)) {
	if !c.mu.TryLock() {
		panic(fmt.Sprintf("bones/ecs: conflicting mutable borrow of %T", c.val))
	}
	defer c.mu.Unlock()
	fn(&c.val)
}

// Get returns a copy of the cell's value under a read lock. Prefer Borrow
// for large values to avoid the copy.
func (c *Cell[T]) Get() T {
	var out T
	c.Borrow(func(v *T) { out = *v })
	return out
}

// Set replaces the cell's value under a write lock.
func (c *Cell[T]) Set(v T) {
	c.BorrowMut(func(p *T) { *p = v })
}

// cloneableCell is implemented by every *Cell[T] so Resources.Clone can deep
// copy each resource without knowing its concrete type ahead of time.
type cloneableCell interface {
	cloneViaSchema() any
}

// cloneViaSchema deep-clones the held value through its Schema's CloneFn,
// matching World.Clone's "every live schema needs a clone_fn" invariant.
func (c *Cell[T]) cloneViaSchema() any {
	v := c.Get()
	box := schema.NewBox(v)
	cloned := schema.Cast[T](box.Clone())
	return NewCell(cloned)
}
