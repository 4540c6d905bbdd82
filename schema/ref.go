package schema

import "unsafe"

// Ref is a borrowed, read-only typed pointer: a (ptr, schema) pair with no
// ownership semantics. It never outlives the memory it borrows from.
type Ref struct {
	ptr    unsafe.Pointer
	schema *Schema
}

// NewRef wraps an existing pointer with the given schema. Caller guarantees
// the pointer is valid for the schema's layout.
func NewRef(ptr unsafe.Pointer, s *Schema) Ref { return Ref{ptr: ptr, schema: s} }

// Schema returns the schema describing the referenced memory.
func (r Ref) Schema() *Schema { return r.schema }

// Ptr returns the raw pointer.
func (r Ref) Ptr() unsafe.Pointer { return r.ptr }

// Field navigates to a named struct field, returning a sub-Ref with the
// field's schema. Panics if this is not a struct schema or the name is
// unknown.
func (r Ref) Field(name string) Ref {
	fields, ok := r.schema.Kind().AsStruct()
	if !ok {
		panic("bones/schema: Field called on non-struct schema " + r.schema.Name())
	}
	offsets := r.schema.FieldOffsets()
	for i, f := range fields {
		if f.Name == name {
			return Ref{ptr: addOff(r.ptr, offsets[i]), schema: f.Schema}
		}
	}
	panic("bones/schema: unknown field " + name + " on " + r.schema.Name())
}

// TryCast reads the referenced value as T if the schema represents T.
func TryCastRef[T any](r Ref) (v T, ok bool) {
	if !r.schema.Represents(SchemaOf[T]()) {
		return v, false
	}
	return *(*T)(r.ptr), true
}

// RefMut is the mutable counterpart of Ref.
type RefMut struct {
	Ref
}

// NewRefMut wraps an existing pointer with the given schema for mutable
// access.
func NewRefMut(ptr unsafe.Pointer, s *Schema) RefMut { return RefMut{Ref{ptr: ptr, schema: s}} }

// FieldMut navigates to a named struct field, returning a mutable sub-RefMut.
func (r RefMut) FieldMut(name string) RefMut {
	return RefMut{r.Ref.Field(name)}
}

// Set overwrites the referenced value with v, provided the schema
// represents T. Returns false on schema mismatch.
func SetRefMut[T any](r RefMut, v T) bool {
	if !r.schema.Represents(SchemaOf[T]()) {
		return false
	}
	*(*T)(r.ptr) = v
	return true
}

// AccessKind discriminates how to interpret the referenced memory; callers
// switch on the value returned by Ref.AccessKind for generic, schema-driven
// traversal.
type AccessKind uint8

const (
	AccessPrimitive AccessKind = iota
	AccessStruct
	AccessVec
	AccessMap
	AccessBox
)

// AccessKind classifies r's schema so callers can branch without repeating
// the Kind()-based switch.
func (r Ref) AccessKind() AccessKind {
	switch {
	case r.schema.Kind().IsPrimitive():
		return AccessPrimitive
	case r.schema.Kind().IsStruct():
		return AccessStruct
	case r.schema.Kind().IsVec():
		return AccessVec
	case r.schema.Kind().IsMap():
		return AccessMap
	case r.schema.Kind().IsBox():
		return AccessBox
	default:
		return AccessPrimitive
	}
}
