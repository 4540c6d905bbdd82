package ecs

// Res borrows a read-only copy of resource T. Panics if T was never
// inserted, matching spec.md's "Res[T] without insert panics" invariant.
type Res[T any] struct{ Value T }

func resParam[T any](w *World) Res[T] { return Res[T]{Value: Get[T](w.Resources)} }

// ResMut borrows resource T for mutation. Systems mutate Value and call
// Commit to write it back into the resource's cell. Panics if T was never
// inserted, like Res.
type ResMut[T any] struct {
	Value T
	cell  *Cell[T]
}

func resMutParam[T any](w *World) ResMut[T] {
	v := Get[T](w.Resources)
	return ResMut[T]{Value: v, cell: GetCell[T](w.Resources)}
}

// Commit writes Value back into the resource cell. Call after mutating
// Value, before the system returns.
func (r *ResMut[T]) Commit() { r.cell.Set(r.Value) }

// ResInit borrows resource T, inserting its zero value first if absent —
// the Go analogue of the source's init_resource auto-insert.
type ResInit[T any] struct{ Value T }

func resInitParam[T any](w *World) ResInit[T] {
	if !Has[T](w.Resources) {
		var zero T
		Insert(w.Resources, zero)
	}
	return ResInit[T]{Value: Get[T](w.Resources)}
}

// OptRes borrows resource T if present, without panicking.
type OptRes[T any] struct {
	Value T
	Ok    bool
}

func optResParam[T any](w *World) OptRes[T] {
	v, ok := GetOk[T](w.Resources)
	return OptRes[T]{Value: v, Ok: ok}
}

// Comp borrows the component store for T read-only for the duration of the
// call passed to With.
type Comp[T any] struct{ store *ComponentStore[T] }

func compParam[T any](w *World) Comp[T] {
	var out Comp[T]
	StoreCell[T](w.Components).Borrow(func(s **ComponentStore[T]) { out.store = *s })
	return out
}

// Get returns e's component, or nil if absent.
func (c Comp[T]) Get(e Entity) *T { return c.store.Get(e) }

// Iter invokes fn for every (index, *T) pair.
func (c Comp[T]) Iter(fn func(i uint32, v *T) bool) { c.store.Iter(fn) }

// CompMut borrows the component store for T for mutation.
type CompMut[T any] struct{ store *ComponentStore[T] }

func compMutParam[T any](w *World) CompMut[T] {
	var out CompMut[T]
	StoreCell[T](w.Components).BorrowMut(func(s **ComponentStore[T]) { out.store = *s })
	return out
}

// Get returns e's component for mutation through the returned pointer.
func (c CompMut[T]) Get(e Entity) *T { return c.store.Get(e) }

// Insert stores v for e.
func (c CompMut[T]) Insert(e Entity, v T) { c.store.Insert(e, v) }

// Remove drops e's component.
func (c CompMut[T]) Remove(e Entity) { c.store.Remove(e) }

// Iter invokes fn for every (index, *T) pair.
func (c CompMut[T]) Iter(fn func(i uint32, v *T) bool) { c.store.Iter(fn) }

// WorldParam gives a system raw access to *World, escaping the typed
// parameter machinery for cases it can't express (dynamic schema-driven
// code, the asset loader populating components reflectively).
type WorldParam struct{ World *World }

func worldParam(w *World) WorldParam { return WorldParam{World: w} }

// In wraps a system input value, mirroring the source's In<T> system input
// parameter. Stages.Run passes no input, so nothing in this package fills it.
type In[T any] struct{ Value T }

// System is a function value taking a *World plus up to four typed
// parameters and returning an error. Tuple arity is capped at four
// (System1..System4): Go generics require one concrete wrapper type per
// arity, and the source's arity-26 macro-derived tuples aren't reproducible
// without code generation (SPEC_FULL.md §9 Open Question #1).
type System interface {
	run(w *World) error
}

// System0 takes no typed parameters beyond *World.
type System0 func(w *World) error

func (s System0) run(w *World) error { return s(w) }

// System1 takes one typed parameter, extracted by extract before fn runs.
type System1[P1 any] struct {
	Extract1 func(w *World) P1
	Fn       func(w *World, p1 P1) error
}

func (s System1[P1]) run(w *World) error {
	return s.Fn(w, s.Extract1(w))
}

// System2 takes two typed parameters.
type System2[P1, P2 any] struct {
	Extract1 func(w *World) P1
	Extract2 func(w *World) P2
	Fn       func(w *World, p1 P1, p2 P2) error
}

func (s System2[P1, P2]) run(w *World) error {
	return s.Fn(w, s.Extract1(w), s.Extract2(w))
}

// System3 takes three typed parameters.
type System3[P1, P2, P3 any] struct {
	Extract1 func(w *World) P1
	Extract2 func(w *World) P2
	Extract3 func(w *World) P3
	Fn       func(w *World, p1 P1, p2 P2, p3 P3) error
}

func (s System3[P1, P2, P3]) run(w *World) error {
	return s.Fn(w, s.Extract1(w), s.Extract2(w), s.Extract3(w))
}

// System4 takes four typed parameters, the arity ceiling (see System comment).
type System4[P1, P2, P3, P4 any] struct {
	Extract1 func(w *World) P1
	Extract2 func(w *World) P2
	Extract3 func(w *World) P3
	Extract4 func(w *World) P4
	Fn       func(w *World, p1 P1, p2 P2, p3 P3, p4 P4) error
}

func (s System4[P1, P2, P3, P4]) run(w *World) error {
	return s.Fn(w, s.Extract1(w), s.Extract2(w), s.Extract3(w), s.Extract4(w))
}

// ResExtract, ResMutExtract etc. are convenience Extract funcs for the
// common parameter types, so callers building a SystemN rarely need to hand
// write their own closures.
func ResExtract[T any]() func(*World) Res[T]         { return resParam[T] }
func ResMutExtract[T any]() func(*World) ResMut[T]   { return resMutParam[T] }
func ResInitExtract[T any]() func(*World) ResInit[T] { return resInitParam[T] }
func OptResExtract[T any]() func(*World) OptRes[T]   { return optResParam[T] }
func CompExtract[T any]() func(*World) Comp[T]       { return compParam[T] }
func CompMutExtract[T any]() func(*World) CompMut[T] { return compMutParam[T] }
func WorldExtract() func(*World) WorldParam          { return worldParam }
