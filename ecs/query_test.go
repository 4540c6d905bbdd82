package ecs_test

import (
	"errors"
	"testing"

	"github.com/Voskan/bones/ecs"
)

type position struct{ X, Y int32 }
type velocity struct{ DX, DY int32 }

func TestWith1MatchesRegardlessOfOtherComponents(t *testing.T) {
	w := ecs.NewWorld()
	ents := ecs.Get[*ecs.Entities](w.Resources)

	onlyPos := ents.Create()
	posAndVel := ents.Create()

	posStore := ecs.StoreCell[position](w.Components)
	posStore.BorrowMut(func(s **ecs.ComponentStore[position]) {
		(*s).Insert(onlyPos, position{X: 1, Y: 1})
		(*s).Insert(posAndVel, position{X: 2, Y: 2})
	})
	velStore := ecs.StoreCell[velocity](w.Components)
	velStore.BorrowMut(func(s **ecs.ComponentStore[velocity]) {
		(*s).Insert(posAndVel, velocity{DX: 1, DY: 0})
	})

	matched := map[uint32]bool{}
	ecs.With1[position](w)(func(i uint32, p *position) bool {
		matched[i] = true
		return true
	})

	if len(matched) != 2 {
		t.Fatalf("With1[position] matched %d entities, want 2 (velocity presence must not filter position queries)", len(matched))
	}
	if !matched[onlyPos.Index] || !matched[posAndVel.Index] {
		t.Fatalf("With1[position] missed an entity: matched=%v", matched)
	}
}

func TestWith2RequiresBothComponents(t *testing.T) {
	w := ecs.NewWorld()
	ents := ecs.Get[*ecs.Entities](w.Resources)

	onlyPos := ents.Create()
	both := ents.Create()

	posStore := ecs.StoreCell[position](w.Components)
	posStore.BorrowMut(func(s **ecs.ComponentStore[position]) {
		(*s).Insert(onlyPos, position{X: 1, Y: 1})
		(*s).Insert(both, position{X: 2, Y: 2})
	})
	velStore := ecs.StoreCell[velocity](w.Components)
	velStore.BorrowMut(func(s **ecs.ComponentStore[velocity]) {
		(*s).Insert(both, velocity{DX: 5, DY: 5})
	})

	matched := map[uint32]bool{}
	ecs.With2[position, velocity](w)(func(i uint32, p *position, v *velocity) bool {
		matched[i] = true
		return true
	})

	if len(matched) != 1 || !matched[both.Index] {
		t.Fatalf("With2 matched %v, want only %d", matched, both.Index)
	}
}

func TestWith3RequiresAllThreeComponents(t *testing.T) {
	type tag struct{ Team int32 }
	w := ecs.NewWorld()
	ents := ecs.Get[*ecs.Entities](w.Resources)

	full := ents.Create()
	missingTag := ents.Create()

	posStore := ecs.StoreCell[position](w.Components)
	posStore.BorrowMut(func(s **ecs.ComponentStore[position]) {
		(*s).Insert(full, position{X: 1})
		(*s).Insert(missingTag, position{X: 2})
	})
	velStore := ecs.StoreCell[velocity](w.Components)
	velStore.BorrowMut(func(s **ecs.ComponentStore[velocity]) {
		(*s).Insert(full, velocity{DX: 1})
		(*s).Insert(missingTag, velocity{DX: 2})
	})
	tagStore := ecs.StoreCell[tag](w.Components)
	tagStore.BorrowMut(func(s **ecs.ComponentStore[tag]) {
		(*s).Insert(full, tag{Team: 1})
	})

	matched := map[uint32]bool{}
	ecs.With3[position, velocity, tag](w)(func(i uint32, p *position, v *velocity, tg *tag) bool {
		matched[i] = true
		return true
	})

	if len(matched) != 1 || !matched[full.Index] {
		t.Fatalf("With3 matched %v, want only %d", matched, full.Index)
	}
}

func TestWith1ExcludesEntityKilledEarlierThisStep(t *testing.T) {
	w := ecs.NewWorld()
	ents := ecs.Get[*ecs.Entities](w.Resources)

	alive := ents.Create()
	killed := ents.Create()

	posStore := ecs.StoreCell[position](w.Components)
	posStore.BorrowMut(func(s **ecs.ComponentStore[position]) {
		(*s).Insert(alive, position{X: 1, Y: 1})
		(*s).Insert(killed, position{X: 2, Y: 2})
	})

	// Kill() alone (no Maintain yet) only clears the live bitset; the
	// component store's occupancy bit for "killed" is still set, matching
	// how a later stage in the same Game.Step would observe it after an
	// earlier stage's system calls Kill.
	if !ents.Kill(killed) {
		t.Fatalf("Kill(killed) should succeed")
	}

	matched := map[uint32]bool{}
	ecs.With1[position](w)(func(i uint32, p *position) bool {
		matched[i] = true
		return true
	})

	if len(matched) != 1 || !matched[alive.Index] {
		t.Fatalf("With1[position] matched %v, want only %d: a query must join the live bitset, not just the component store's", matched, alive.Index)
	}
}

func TestGetSingleWith1ExcludesEntityKilledEarlierThisStep(t *testing.T) {
	w := ecs.NewWorld()
	ents := ecs.Get[*ecs.Entities](w.Resources)
	e := ents.Create()

	posStore := ecs.StoreCell[position](w.Components)
	posStore.BorrowMut(func(s **ecs.ComponentStore[position]) {
		(*s).Insert(e, position{X: 9, Y: 9})
	})
	ents.Kill(e)

	_, _, err := ecs.GetSingleWith1[position](w)
	if !errors.Is(err, ecs.ErrNoEntities) {
		t.Fatalf("err = %v, want ErrNoEntities: a killed-but-not-yet-maintained entity must not count as a match", err)
	}
}

func TestGetSingleWith1NoEntities(t *testing.T) {
	w := ecs.NewWorld()
	_, _, err := ecs.GetSingleWith1[position](w)
	if !errors.Is(err, ecs.ErrNoEntities) {
		t.Fatalf("err = %v, want ErrNoEntities", err)
	}
}

func TestGetSingleWith1ExactlyOne(t *testing.T) {
	w := ecs.NewWorld()
	ents := ecs.Get[*ecs.Entities](w.Resources)
	e := ents.Create()

	posStore := ecs.StoreCell[position](w.Components)
	posStore.BorrowMut(func(s **ecs.ComponentStore[position]) {
		(*s).Insert(e, position{X: 9, Y: 9})
	})

	idx, p, err := ecs.GetSingleWith1[position](w)
	if err != nil {
		t.Fatalf("err = %v, want nil", err)
	}
	if idx != e.Index || p.X != 9 || p.Y != 9 {
		t.Fatalf("got idx=%d p=%+v, want idx=%d p={9 9}", idx, p, e.Index)
	}
}

func TestGetSingleWith1MultipleEntities(t *testing.T) {
	w := ecs.NewWorld()
	ents := ecs.Get[*ecs.Entities](w.Resources)
	e1 := ents.Create()
	e2 := ents.Create()

	posStore := ecs.StoreCell[position](w.Components)
	posStore.BorrowMut(func(s **ecs.ComponentStore[position]) {
		(*s).Insert(e1, position{X: 1})
		(*s).Insert(e2, position{X: 2})
	})

	_, _, err := ecs.GetSingleWith1[position](w)
	if !errors.Is(err, ecs.ErrMultipleEntities) {
		t.Fatalf("err = %v, want ErrMultipleEntities", err)
	}
}
