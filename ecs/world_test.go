package ecs_test

import (
	"strings"
	"testing"

	"github.com/Voskan/bones/ecs"
	"github.com/Voskan/bones/schema"
)

type counter struct{ N int32 }

func TestWorldCloneResourceAndComponentIndependence(t *testing.T) {
	w := ecs.NewWorld()
	ents := ecs.Get[*ecs.Entities](w.Resources)
	e := ents.Create()

	ecs.Insert(w.Resources, counter{N: 1})

	posStore := ecs.StoreCell[position](w.Components)
	posStore.BorrowMut(func(s **ecs.ComponentStore[position]) {
		(*s).Insert(e, position{X: 10, Y: 20})
	})

	clone := w.Clone()

	// Mutate the original after cloning; the clone must not observe it.
	ecs.Insert(w.Resources, counter{N: 2})
	posStore.BorrowMut(func(s **ecs.ComponentStore[position]) {
		(*s).Insert(e, position{X: 99, Y: 99})
	})

	if got := ecs.Get[counter](clone.Resources); got.N != 1 {
		t.Errorf("clone's counter = %+v, want N=1 (clone must be unaffected by post-clone mutation)", got)
	}

	cloneCell := ecs.StoreCell[position](clone.Components)
	cloneCell.Borrow(func(s **ecs.ComponentStore[position]) {
		p := (*s).Get(e)
		if p == nil || p.X != 10 || p.Y != 20 {
			t.Errorf("clone's position = %+v, want {10 20}", p)
		}
	})

	// The original must also be unaffected by the clone's own component store
	// (they must not alias the same backing storage).
	posStore.Borrow(func(s **ecs.ComponentStore[position]) {
		p := (*s).Get(e)
		if p == nil || p.X != 99 || p.Y != 99 {
			t.Errorf("original's position = %+v, want {99 99}", p)
		}
	})
}

// uncloneableValue hand-authors a schema with no CloneFn, modeling a
// runtime-declared schema a pack author forgot to (or cannot) supply a
// clone function for.
type uncloneableValue struct{ X int32 }

var uncloneableSchema = schema.Register("ecs_test.uncloneableValue", schema.SchemaData{
	Kind: schema.KindPrimitive(schema.PrimitiveOpaque(4, 4)),
})

func (uncloneableValue) Schema() *schema.Schema { return uncloneableSchema }

func TestWorldCloneUncloneableResourcePanicsAndLeavesOriginalIntact(t *testing.T) {
	w := ecs.NewWorld()
	ecs.Insert(w.Resources, uncloneableValue{X: 42})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("World.Clone should panic: resource schema has no CloneFn")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, uncloneableSchema.Name()) {
			t.Errorf("panic message %v should name schema %q", r, uncloneableSchema.Name())
		}

		got := ecs.Get[uncloneableValue](w.Resources)
		if got.X != 42 {
			t.Errorf("original resource = %+v, want X=42 (must survive the failed clone attempt)", got)
		}
	}()
	w.Clone()
}
