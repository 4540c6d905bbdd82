package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// Resources holds at most one value per Go type, each guarded by its own
// Cell so systems can borrow Res[T]/ResMut[T] independently without
// contending on a single global lock.
type Resources struct {
	mu    sync.RWMutex
	cells map[reflect.Type]any // reflect.Type -> *Cell[T]
}

// NewResources constructs an empty resource set.
func NewResources() *Resources {
	return &Resources{cells: make(map[reflect.Type]any)}
}

func cellFor[T any](r *Resources, create bool) (*Cell[T], bool) {
	t := reflect.TypeFor[T]()
	r.mu.RLock()
	c, ok := r.cells[t]
	r.mu.RUnlock()
	if ok {
		return c.(*Cell[T]), true
	}
	if !create {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.cells[t]; ok {
		return c.(*Cell[T]), true
	}
	var zero T
	cell := NewCell(zero)
	r.cells[t] = cell
	return cell, true
}

// Insert replaces (or creates) the resource of type T with v.
func Insert[T any](r *Resources, v T) {
	cell, _ := cellFor[T](r, true)
	cell.Set(v)
}

// GetCell returns the Cell[T] for this resource, creating it (holding T's zero
// value) on first access — the Go analogue of the source's init_resource.
func GetCell[T any](r *Resources) *Cell[T] {
	cell, _ := cellFor[T](r, true)
	return cell
}

// Get returns a copy of resource T. Panics if it was never inserted,
// matching spec.md's "Res[T] without insert panics" invariant.
func Get[T any](r *Resources) T {
	cell, ok := cellFor[T](r, false)
	if !ok {
		var zero T
		panic(fmt.Sprintf("bones/ecs: resource %T not present", zero))
	}
	return cell.Get()
}

// GetOk returns resource T and whether it is present, without panicking.
func GetOk[T any](r *Resources) (T, bool) {
	cell, ok := cellFor[T](r, false)
	if !ok {
		var zero T
		return zero, false
	}
	return cell.Get(), true
}

// Has reports whether resource T has been inserted.
func Has[T any](r *Resources) bool {
	_, ok := cellFor[T](r, false)
	return ok
}

// Remove deletes resource T, if present.
func Remove[T any](r *Resources) {
	t := reflect.TypeFor[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.cells, t)
}

// Clone deep-clones every resource via its Schema's CloneFn. Panics if any
// resource's type lacks one, matching World.Clone's invariant.
func (r *Resources) Clone() *Resources {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := NewResources()
	for t, c := range r.cells {
		cc, ok := c.(cloneableCell)
		if !ok {
			panic(fmt.Sprintf("bones/ecs: resource %v is not cloneable", t))
		}
		out.cells[t] = cc.cloneViaSchema()
	}
	return out
}
