package schema

import (
	"reflect"
	"unsafe"
)

// HasSchema is implemented by host Go types that want to hand-author their
// own Schema (e.g. asset.Handle[T], whose phantom type parameter must not
// affect layout). Types that don't implement it get a schema derived
// automatically by reflection via SchemaOf.
type HasSchema interface {
	Schema() *Schema
}

// SchemaOf returns the interned schema for T, deriving one by reflection on
// first use (the Go substitute for the source's derive macro — see
// SPEC_FULL.md §9) unless T implements HasSchema, in which case that method
// is authoritative.
func SchemaOf[T any]() *Schema {
	var zero T
	if hs, ok := any(zero).(HasSchema); ok {
		return hs.Schema()
	}
	return RegisterType(reflect.TypeFor[T]())
}

// RegisterType derives and interns a Schema from a Go reflect.Type. Struct
// fields are walked recursively; unsupported kinds (channels, funcs,
// interfaces, unsafe.Pointer) become Opaque primitives sized/aligned per
// reflect, since bones cannot describe their internals structurally.
func RegisterType(t reflect.Type) *Schema {
	if s, ok := lookupByType(t); ok {
		return s
	}
	switch t.Kind() {
	case reflect.Struct:
		return registerStruct(t)
	case reflect.Bool:
		return registerByType(t, t.String(), primitiveData(PrimitiveBool))
	case reflect.Uint8:
		return registerByType(t, t.String(), primitiveData(PrimitiveU8))
	case reflect.Uint16:
		return registerByType(t, t.String(), primitiveData(PrimitiveU16))
	case reflect.Uint32:
		return registerByType(t, t.String(), primitiveData(PrimitiveU32))
	case reflect.Uint64, reflect.Uint, reflect.Uintptr:
		return registerByType(t, t.String(), primitiveData(PrimitiveU64))
	case reflect.Int8:
		return registerByType(t, t.String(), primitiveData(PrimitiveI8))
	case reflect.Int16:
		return registerByType(t, t.String(), primitiveData(PrimitiveI16))
	case reflect.Int32:
		return registerByType(t, t.String(), primitiveData(PrimitiveI32))
	case reflect.Int64, reflect.Int:
		return registerByType(t, t.String(), primitiveData(PrimitiveI64))
	case reflect.Float32:
		return registerByType(t, t.String(), primitiveData(PrimitiveF32))
	case reflect.Float64:
		return registerByType(t, t.String(), primitiveData(PrimitiveF64))
	case reflect.String:
		return registerByType(t, t.String(), stringData())
	case reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			size := uintptr(t.Len())
			return registerByType(t, t.String(), opaqueData(size, 1))
		}
		return registerByType(t, t.String(), opaqueData(t.Size(), uintptr(t.Align())))
	default:
		return registerByType(t, t.String(), opaqueData(t.Size(), uintptr(t.Align())))
	}
}

var hasSchemaType = reflect.TypeOf((*HasSchema)(nil)).Elem()

// schemaForField resolves the Schema for a struct field's type the same way
// SchemaOf[T] would for a type parameter: a type implementing HasSchema is
// authoritative (its Schema is not itself derived by reflection, so fields it
// keeps unexported for its own bookkeeping — e.g. asset.UntypedHandle's
// pending-ref string — are never silently dropped from the parent struct's
// layout); everything else falls back to RegisterType's reflective
// derivation.
func schemaForField(t reflect.Type) *Schema {
	if t.Implements(hasSchemaType) {
		return reflect.New(t).Elem().Interface().(HasSchema).Schema()
	}
	if reflect.PointerTo(t).Implements(hasSchemaType) {
		return reflect.New(t).Interface().(HasSchema).Schema()
	}
	return RegisterType(t)
}

func primitiveData(p Primitive) SchemaData {
	return SchemaData{
		Kind:      KindPrimitive(p),
		CloneFn:   func(dst, src unsafe.Pointer) { memcopy(dst, src, p.Size()) },
		DropFn:    func(unsafe.Pointer) {},
		DefaultFn: func(p2 unsafe.Pointer) { memzero(p2, p.Size()) },
		HashFn:    func(p2 unsafe.Pointer) uint64 { return fnv64(byteView(p2, p.Size())) },
		EqFn:      func(a, b unsafe.Pointer) bool { return bytesEqual(byteView(a, p.Size()), byteView(b, p.Size())) },
	}
}

func opaqueData(size, align uintptr) SchemaData {
	p := PrimitiveOpaque(size, align)
	return SchemaData{
		Kind:    KindPrimitive(p),
		CloneFn: func(dst, src unsafe.Pointer) { memcopy(dst, src, size) },
		DropFn:  func(unsafe.Pointer) {},
	}
}

// stringData models Go's native string header (ptr+len) as the String
// primitive: strings are immutable and GC-managed, so a bytewise clone of the
// header is safe and keeps the backing bytes shared (copy-on-write by
// construction, matching Go's own string semantics).
func stringData() SchemaData {
	return SchemaData{
		Kind: KindPrimitive(PrimitiveString),
		CloneFn: func(dst, src unsafe.Pointer) {
			*(*string)(dst) = *(*string)(src)
		},
		DropFn:    func(unsafe.Pointer) {},
		DefaultFn: func(p unsafe.Pointer) { *(*string)(p) = "" },
		HashFn: func(p unsafe.Pointer) uint64 {
			return fnv64([]byte(*(*string)(p)))
		},
		EqFn: func(a, b unsafe.Pointer) bool {
			return *(*string)(a) == *(*string)(b)
		},
	}
}

func registerStruct(t reflect.Type) *Schema {
	n := t.NumField()
	fields := make([]Field, 0, n)
	for i := 0; i < n; i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}
		fields = append(fields, Field{Name: sf.Name, Schema: schemaForField(sf.Type)})
	}
	data := SchemaData{Kind: KindStruct(fields)}
	s := registerByType(t, t.String(), data)

	// Clone/drop/default/hash/eq are defined in terms of the now-registered
	// field schemas, so they're attached after interning (they close over s).
	offsets := s.FieldOffsets()
	s.data.CloneFn = func(dst, src unsafe.Pointer) {
		for i, f := range fields {
			off := offsets[i]
			if f.Schema.data.CloneFn != nil {
				f.Schema.data.CloneFn(addOff(dst, off), addOff(src, off))
			}
		}
	}
	s.data.DropFn = func(p unsafe.Pointer) {
		for i, f := range fields {
			off := offsets[i]
			if f.Schema.data.DropFn != nil {
				f.Schema.data.DropFn(addOff(p, off))
			}
		}
	}
	s.data.DefaultFn = func(p unsafe.Pointer) {
		for i, f := range fields {
			off := offsets[i]
			if f.Schema.data.DefaultFn != nil {
				f.Schema.data.DefaultFn(addOff(p, off))
			} else {
				memzero(addOff(p, off), mustSize(f.Schema))
			}
		}
	}
	s.data.HashFn = func(p unsafe.Pointer) uint64 {
		var h uint64 = 1469598103934665603
		for i, f := range fields {
			off := offsets[i]
			if f.Schema.data.HashFn != nil {
				h ^= f.Schema.data.HashFn(addOff(p, off))
				h *= 1099511628211
			}
		}
		return h
	}
	s.data.EqFn = func(a, b unsafe.Pointer) bool {
		for i, f := range fields {
			off := offsets[i]
			if f.Schema.data.EqFn != nil && !f.Schema.data.EqFn(addOff(a, off), addOff(b, off)) {
				return false
			}
		}
		return true
	}
	return s
}

func mustSize(s *Schema) uintptr {
	sz, _ := s.Layout()
	return sz
}

func addOff(p unsafe.Pointer, off uintptr) unsafe.Pointer {
	return unsafe.Pointer(uintptr(p) + off)
}

func memcopy(dst, src unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	copy(byteView(dst, n), byteView(src, n))
}

func memzero(p unsafe.Pointer, n uintptr) {
	if n == 0 {
		return
	}
	b := byteView(p, n)
	for i := range b {
		b[i] = 0
	}
}

func byteView(p unsafe.Pointer, n uintptr) []byte {
	return unsafe.Slice((*byte)(p), n)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// fnv64 is used for primitive/opaque/string hashing; it needs no external
// dependency and keeps Schema's HashFn self-contained for types too small to
// warrant pulling in a keyed-hash library.
func fnv64(b []byte) uint64 {
	var h uint64 = 14695981039346656037
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}
	return h
}
