package schema

import (
	"unsafe"

	"github.com/Voskan/bones/schema/alloc"
)

// Vec is a resizable, homogeneous, schema-described column of elements —
// the untyped backing store for dynamic arrays declared in pack metadata
// (ecs.ComponentStore uses alloc.Resizable directly instead). It is the Go
// analogue of the source's SchemaVec.
type Vec struct {
	buf  *alloc.Resizable
	elem *Schema
}

// NewVec constructs an empty Vec of the given element schema.
func NewVec(elem *Schema) *Vec {
	size, align := elem.Layout()
	return &Vec{buf: alloc.NewResizable(size, align, 0), elem: elem}
}

// Elem returns the element schema.
func (v *Vec) Elem() *Schema { return v.elem }

// Len returns the number of elements.
func (v *Vec) Len() int { return v.buf.Len() }

// Cap returns the current element capacity.
func (v *Vec) Cap() int { return v.buf.Capacity() }

// Get returns a Ref to element i. Panics if i is out of range.
func (v *Vec) Get(i int) Ref {
	v.checkBounds(i)
	return Ref{ptr: v.buf.Index(i), schema: v.elem}
}

// GetMut returns a RefMut to element i. Panics if i is out of range.
func (v *Vec) GetMut(i int) RefMut {
	v.checkBounds(i)
	return RefMut{Ref{ptr: v.buf.Index(i), schema: v.elem}}
}

func (v *Vec) checkBounds(i int) {
	if i < 0 || i >= v.buf.Len() {
		panic("bones/schema: Vec index out of range")
	}
}

// PushBox appends b's value to the vec. b's schema must equal the vec's
// element schema exactly (Represents is not enough — ownership transfer
// requires identical layout, matching the source's strict element-type
// check). Ownership of b's bytes transfers to the vec; b must not be used
// after this call (its DropFn is intentionally not invoked here, mirroring
// Rust's "forget" on ownership transfer).
func (v *Vec) PushBox(b *Box) {
	if b.schema != v.elem {
		panic("bones/schema: Vec element schema mismatch")
	}
	_, ptr := v.buf.Grow()
	size, _ := v.elem.Layout()
	if size > 0 {
		copy(unsafe.Slice((*byte)(ptr), size), unsafe.Slice((*byte)(b.ptr), size))
	}
	b.freed = true // ownership moved; suppress b's own drop
}

// PopBox removes and returns the last element as an owning Box. ok is false
// if the vec is empty.
func (v *Vec) PopBox() (b *Box, ok bool) {
	n := v.buf.Len()
	if n == 0 {
		return nil, false
	}
	size, _ := v.elem.Layout()
	buf := make([]byte, size)
	var dst unsafe.Pointer
	if size > 0 {
		dst = unsafe.Pointer(&buf[0])
		copy(buf, unsafe.Slice((*byte)(v.buf.Index(n-1)), size))
	}
	v.buf.Truncate(n - 1)
	return &Box{ptr: dst, schema: v.elem}, true
}

// Clone deep-clones every element. Panics if the element schema has no
// CloneFn.
func (v *Vec) Clone() *Vec {
	if v.elem.data.CloneFn == nil {
		panic("bones/schema: cannot clone vec of type " + v.elem.Name())
	}
	out := NewVec(v.elem)
	out.buf.Reserve(v.buf.Len())
	for i := 0; i < v.buf.Len(); i++ {
		_, dst := out.buf.Grow()
		v.elem.data.CloneFn(dst, v.buf.Index(i))
	}
	return out
}

// Free drops every live element's resources.
func (v *Vec) Free() {
	if v.elem.data.DropFn == nil {
		return
	}
	for i := 0; i < v.buf.Len(); i++ {
		v.elem.data.DropFn(v.buf.Index(i))
	}
}
