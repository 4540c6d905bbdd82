package ecs

import (
	"fmt"

	"github.com/Voskan/bones/ecs/bitset"
)

// ErrNoEntities is returned by GetSingleWith1 when the query matches nothing.
var ErrNoEntities = fmt.Errorf("bones/ecs: query matched no entities")

// ErrMultipleEntities is returned by GetSingleWith1 when the query matches
// more than one entity.
var ErrMultipleEntities = fmt.Errorf("bones/ecs: query matched more than one entity")

// liveBitset returns the world's generational entity allocator's
// live-membership bitset, which every query joins against so an entity
// killed earlier in the same Game.Step (Maintain runs once per step, after
// all stages) never matches a query run by a later stage even though its
// component-store bits haven't been cleared yet.
func liveBitset(w *World) *bitset.Set { return Get[*Entities](w.Resources).Bitset() }

// With1 iterates entities owning a live component of type A, yielding the
// entity index and a pointer to A. Matches the single-component case of the
// source's query iterators.
func With1[A any](w *World) func(yield func(uint32, *A) bool) {
	store := StoreCell[A](w.Components)
	live := liveBitset(w)
	return func(yield func(uint32, *A) bool) {
		store.Borrow(func(s **ComponentStore[A]) {
			(*s).Iter(func(i uint32, a *A) bool {
				if !live.Test(int(i)) {
					return true
				}
				return yield(i, a)
			})
		})
	}
}

// With2 iterates entities that own live components of both A and B,
// iterating A's store and probing B's.
func With2[A, B any](w *World) func(yield func(uint32, *A, *B) bool) {
	ca := StoreCell[A](w.Components)
	cb := StoreCell[B](w.Components)
	live := liveBitset(w)
	return func(yield func(uint32, *A, *B) bool) {
		ca.Borrow(func(sa **ComponentStore[A]) {
			cb.Borrow(func(sb **ComponentStore[B]) {
				(*sa).Iter(func(i uint32, a *A) bool {
					if !live.Test(int(i)) {
						return true
					}
					b := (*sb).untyped.Get(i)
					if b == nil {
						return true
					}
					return yield(i, a, (*B)(b))
				})
			})
		})
	}
}

// With3 iterates entities owning live components of A, B and C.
func With3[A, B, C any](w *World) func(yield func(uint32, *A, *B, *C) bool) {
	ca := StoreCell[A](w.Components)
	cb := StoreCell[B](w.Components)
	cc := StoreCell[C](w.Components)
	live := liveBitset(w)
	return func(yield func(uint32, *A, *B, *C) bool) {
		ca.Borrow(func(sa **ComponentStore[A]) {
			cb.Borrow(func(sb **ComponentStore[B]) {
				cc.Borrow(func(sc **ComponentStore[C]) {
					(*sa).Iter(func(i uint32, a *A) bool {
						if !live.Test(int(i)) {
							return true
						}
						bp := (*sb).untyped.Get(i)
						if bp == nil {
							return true
						}
						cp := (*sc).untyped.Get(i)
						if cp == nil {
							return true
						}
						return yield(i, a, (*B)(bp), (*C)(cp))
					})
				})
			})
		})
	}
}

// GetSingleWith1 returns the sole entity owning a live component of type A.
// Returns ErrNoEntities or ErrMultipleEntities if the count isn't exactly
// one, matching spec.md's single-entity query convenience.
func GetSingleWith1[A any](w *World) (uint32, *A, error) {
	var idx uint32
	var val *A
	n := 0
	With1[A](w)(func(i uint32, a *A) bool {
		idx, val = i, a
		n++
		return n < 2
	})
	switch n {
	case 0:
		return 0, nil, ErrNoEntities
	case 1:
		return idx, val, nil
	default:
		return 0, nil, ErrMultipleEntities
	}
}
