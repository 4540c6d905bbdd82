package schema

import (
	"fmt"
	"reflect"
	"unsafe"
)

// Box is an owning, type-erased pointer to a schema-described value. It is
// the Go analogue of the source's SchemaBox: one data pointer, one schema
// pointer. Free (or letting a Box without manual Free leak, matching Go's GC
// rather than Rust's Drop) invokes DropFn on teardown only when Free is
// called explicitly — callers that forget to Free a Box with a DropFn simply
// leave that cleanup undone, same as forgetting to Close a file.
type Box struct {
	ptr    unsafe.Pointer
	schema *Schema
	freed  bool
}

// NewBox allocates storage for v according to SchemaOf[T]() and copies v's
// bytes in. Panics if the derived schema's Layout() disagrees with T's real
// Go layout — a silently undersized buffer here is a heap out-of-bounds
// write waiting to happen (see DESIGN.md's schema ledger entry).
func NewBox[T any](v T) *Box {
	s := SchemaOf[T]()
	size, align := s.Layout()
	goType := reflect.TypeFor[T]()
	if wantSize, wantAlign := goType.Size(), uintptr(goType.Align()); size != wantSize || align != wantAlign {
		panic(fmt.Sprintf(
			"bones/schema: schema %q layout (size=%d align=%d) does not match host type %s (size=%d align=%d)",
			s.Name(), size, align, goType, wantSize, wantAlign))
	}
	buf := make([]byte, size)
	var ptr unsafe.Pointer
	if size > 0 {
		ptr = unsafe.Pointer(&buf[0])
	}
	b := &Box{ptr: ptr, schema: s}
	if size > 0 {
		*(*T)(ptr) = v
	}
	return b
}

// BoxFromRaw constructs a Box over already-allocated memory of the given
// schema, for callers that hold schema-laid-out memory without a host Go
// type in hand. The Box does not copy the memory.
func BoxFromRaw(ptr unsafe.Pointer, s *Schema) *Box {
	return &Box{ptr: ptr, schema: s}
}

// Schema returns the schema describing this box's value.
func (b *Box) Schema() *Schema { return b.schema }

// Ptr returns the raw pointer to the boxed value. Callers must respect the
// schema's layout.
func (b *Box) Ptr() unsafe.Pointer { return b.ptr }

// Free invokes the schema's DropFn (if any) on the boxed value. It is safe
// to call Free more than once.
func (b *Box) Free() {
	if b.freed {
		return
	}
	b.freed = true
	if b.schema.data.DropFn != nil {
		b.schema.data.DropFn(b.ptr)
	}
}

// Clone deep-clones the box. Panics if the schema has no CloneFn, matching
// spec.md's "cloneless clone panics" invariant.
func (b *Box) Clone() *Box {
	if b.schema.data.CloneFn == nil {
		panic("bones/schema: cannot clone component of type " + b.schema.Name())
	}
	size, _ := b.schema.Layout()
	buf := make([]byte, size)
	var dst unsafe.Pointer
	if size > 0 {
		dst = unsafe.Pointer(&buf[0])
	}
	b.schema.data.CloneFn(dst, b.ptr)
	return &Box{ptr: dst, schema: b.schema}
}

// TryCast returns a typed copy of the boxed value if s.Represents(SchemaOf[T]());
// ok is false otherwise.
func TryCast[T any](b *Box) (v T, ok bool) {
	target := SchemaOf[T]()
	if !b.schema.Represents(target) {
		return v, false
	}
	return *(*T)(b.ptr), true
}

// Cast panics with ErrMismatch if the schemas do not represent each other.
func Cast[T any](b *Box) T {
	v, ok := TryCast[T](b)
	if !ok {
		panic((&ErrMismatch{From: b.schema.Name(), To: reflect.TypeFor[T]().String()}).Error())
	}
	return v
}

// ConsumeRaw marks the box as moved-out without invoking its DropFn. Callers
// that copy a box's bytes into another owning container (a Vec, a Map, a
// ComponentStore) call this afterward so the box's own drop is suppressed —
// the Go equivalent of Rust's "forget" on an ownership transfer.
func (b *Box) ConsumeRaw() { b.freed = true }

// AsRef returns a read-only typed pointer over the box's memory.
func (b *Box) AsRef() Ref { return Ref{ptr: b.ptr, schema: b.schema} }

// AsRefMut returns a mutable typed pointer over the box's memory.
func (b *Box) AsRefMut() RefMut { return RefMut{Ref{ptr: b.ptr, schema: b.schema}} }
