package ecs

import (
	"unsafe"

	"github.com/Voskan/bones/ecs/bitset"
	"github.com/Voskan/bones/schema"
	"github.com/Voskan/bones/schema/alloc"
)

// UntypedComponentStore is a dense, schema-described column indexed by
// entity index: bit i of Bitset set iff entity index i owns a live
// component, whose bytes live at storage offset i*stride. ComponentStore[T]
// is a #[repr(transparent)]-equivalent typed wrapper over this, matching
// original_source/framework_crates/bones_ecs/src/components/typed.rs.
type UntypedComponentStore struct {
	bits    *bitset.Set
	storage *alloc.Resizable
	schema  *schema.Schema
	maxID   uint32
}

// NewUntypedComponentStore constructs an empty store for the given schema.
func NewUntypedComponentStore(s *schema.Schema) *UntypedComponentStore {
	size, align := s.Layout()
	return &UntypedComponentStore{
		bits:    bitset.New(64),
		storage: alloc.NewResizable(size, align, 0),
		schema:  s,
	}
}

// Schema returns the store's element schema.
func (u *UntypedComponentStore) Schema() *schema.Schema { return u.schema }

// Bitset returns the occupancy bitset.
func (u *UntypedComponentStore) Bitset() *bitset.Set { return u.bits }

// Contains reports whether index i is occupied.
func (u *UntypedComponentStore) Contains(i uint32) bool { return u.bits.Test(int(i)) }

// InsertBox stores the box's bytes at index i, replacing and dropping any
// existing occupant. Ownership of b's bytes transfers to the store.
func (u *UntypedComponentStore) InsertBox(i uint32, b *schema.Box) {
	u.storage.Reserve(int(i) + 1)
	if i >= u.maxID {
		u.maxID = i + 1
	}
	dst := u.storage.Index(int(i))
	if u.bits.Test(int(i)) && u.schema.Data().DropFn != nil {
		u.schema.Data().DropFn(dst)
	}
	size, _ := u.schema.Layout()
	if size > 0 {
		copy(unsafe.Slice((*byte)(dst), size), unsafe.Slice((*byte)(b.Ptr()), size))
	}
	u.bits.Set(int(i))
	b.ConsumeRaw()
}

// Get returns a pointer to the component at index i, or nil if absent.
func (u *UntypedComponentStore) Get(i uint32) unsafe.Pointer {
	if !u.bits.Test(int(i)) {
		return nil
	}
	return u.storage.Index(int(i))
}

// Remove drops and clears the component at index i.
func (u *UntypedComponentStore) Remove(i uint32) {
	if !u.bits.Test(int(i)) {
		return
	}
	if u.schema.Data().DropFn != nil {
		u.schema.Data().DropFn(u.storage.Index(int(i)))
	}
	u.bits.Clear(int(i))
}

// Iter invokes fn for every occupied index in ascending order.
func (u *UntypedComponentStore) Iter(fn func(i uint32, ptr unsafe.Pointer) bool) {
	u.bits.ForEach(func(i int) bool {
		return fn(uint32(i), u.storage.Index(i))
	})
}

// Clone deep-clones every live element. Panics if the schema has no
// CloneFn, matching spec.md's cloneless-clone invariant.
func (u *UntypedComponentStore) Clone() *UntypedComponentStore {
	if u.schema.Data().CloneFn == nil {
		panic("bones/ecs: cannot clone component of type " + u.schema.Name())
	}
	out := NewUntypedComponentStore(u.schema)
	out.storage.Reserve(u.storage.Capacity())
	out.maxID = u.maxID
	u.Iter(func(i uint32, ptr unsafe.Pointer) bool {
		out.storage.Reserve(int(i) + 1)
		u.schema.Data().CloneFn(out.storage.Index(int(i)), ptr)
		out.bits.Set(int(i))
		return true
	})
	return out
}

// removeEntityAndDrop is called by World.Maintain for each killed entity.
func (u *UntypedComponentStore) removeEntityAndDrop(i uint32) { u.Remove(i) }
