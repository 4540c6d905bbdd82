// Package schema implements the reflective type system the rest of bones is
// built on: an interned, process-lifetime-stable Schema registry, and the
// typed-pointer primitives (Box, Ref, RefMut, Vec, Map) that interpret raw
// memory through a Schema instead of a Go interface vtable.
//
// Cloning, dropping, hashing and equality are dispatched through function
// pointers stored on SchemaData rather than through an interface, mirroring
// original_source/framework_crates/bones_schema/src/schema.rs's HasSchema
// model: this keeps a Box down to one data pointer plus one Schema pointer,
// and lets runtime-declared schemas (no host Go type behind them, e.g. ones
// read from a pack manifest) participate on equal footing with host types.
//
// © 2025 bones authors. MIT License.
package schema

import (
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/Voskan/bones/internal/unsafehelpers"
)

// CloneFn copies the value at src into freshly allocated storage at dst. Both
// point at memory already sized/aligned per Schema.Layout().
type CloneFn func(dst, src unsafe.Pointer)

// DropFn releases any resources owned by the value at p (e.g. invoking Go's
// own finalization is unnecessary for plain data, but handles/boxes with
// nested owned schemas must recursively drop).
type DropFn func(p unsafe.Pointer)

// DefaultFn initializes the value at p to its default/zero representation.
type DefaultFn func(p unsafe.Pointer)

// HashFn returns a hash of the value at p.
type HashFn func(p unsafe.Pointer) uint64

// EqFn reports whether the values at a and b are equal.
type EqFn func(a, b unsafe.Pointer) bool

// SchemaData is the immutable descriptor behind every Schema. Exactly one
// SchemaData backs each interned *Schema.
type SchemaData struct {
	Kind Kind

	// NativeType is set when this schema was derived from a host Go type via
	// RegisterType; nil for schemas built at runtime (e.g. from a pack
	// manifest) with no corresponding Go type.
	NativeType reflect.Type

	CloneFn   CloneFn
	DropFn    DropFn
	DefaultFn DefaultFn
	HashFn    HashFn
	EqFn      EqFn

	layout      layoutInfo
	layoutOnce  sync.Once
	hasOpaque   bool
	opaqueKnown bool
}

type layoutInfo struct {
	size    uintptr
	align   uintptr
	offsets []uintptr // parallel to Kind.fields when Kind.IsStruct()
}

// Schema is the interned, comparable-by-pointer handle callers hold. Two
// Schema values describe the same memory layout iff they are the same
// pointer, or Represents reports true.
type Schema struct {
	id   uint64
	name string
	data *SchemaData
}

// Name returns the schema's registered name (for struct/native schemas) or a
// synthesized description (for anonymous runtime schemas).
func (s *Schema) Name() string { return s.name }

// Data returns the immutable descriptor backing this schema.
func (s *Schema) Data() *SchemaData { return s.data }

// Kind returns the schema's Kind.
func (s *Schema) Kind() Kind { return s.data.Kind }

// NativeType returns the host Go type this schema was derived from, if any.
func (s *Schema) NativeType() reflect.Type { return s.data.NativeType }

// Layout returns the computed (size, align) of values of this schema,
// computing and caching it on first use.
func (s *Schema) Layout() (size, align uintptr) {
	s.data.layoutOnce.Do(func() { s.data.layout = computeLayout(s) })
	return s.data.layout.size, s.data.layout.align
}

// FieldOffsets returns the byte offset of each struct field, in the order
// Kind().AsStruct() returns them. Panics if this is not a struct schema.
func (s *Schema) FieldOffsets() []uintptr {
	fields, ok := s.Kind().AsStruct()
	_ = fields
	if !ok {
		panic("bones/schema: FieldOffsets called on non-struct schema " + s.name)
	}
	s.data.layoutOnce.Do(func() { s.data.layout = computeLayout(s) })
	return s.data.layout.offsets
}

// HasOpaque reports whether this schema or any schema it recursively
// contains is (or contains) an Opaque primitive. Opaque schemas can never
// Represents() a differently-identified schema, per the source's
// "no-opaque-and-congruent" rule.
func (s *Schema) HasOpaque() bool {
	if s.data.opaqueKnown {
		return s.data.hasOpaque
	}
	seen := map[*Schema]bool{}
	r := hasOpaqueRec(s, seen)
	s.data.hasOpaque = r
	s.data.opaqueKnown = true
	return r
}

func hasOpaqueRec(s *Schema, seen map[*Schema]bool) bool {
	if seen[s] {
		return false
	}
	seen[s] = true
	switch {
	case s.Kind().IsPrimitive():
		p, _ := s.Kind().AsPrimitive()
		return p.IsOpaque()
	case s.Kind().IsStruct():
		fields, _ := s.Kind().AsStruct()
		for _, f := range fields {
			if hasOpaqueRec(f.Schema, seen) {
				return true
			}
		}
		return false
	case s.Kind().IsVec():
		elem, _ := s.Kind().AsVec()
		return hasOpaqueRec(elem, seen)
	case s.Kind().IsBox():
		elem, _ := s.Kind().AsBox()
		return hasOpaqueRec(elem, seen)
	case s.Kind().IsMap():
		key, val, _ := s.Kind().AsMap()
		return hasOpaqueRec(key, seen) || hasOpaqueRec(val, seen)
	default:
		return false
	}
}

// Represents reports whether s and other describe the same in-memory shape:
// either they are the same interned pointer, or neither contains an Opaque
// primitive and their kinds are recursively structurally congruent.
func (s *Schema) Represents(other *Schema) bool {
	if s == other {
		return true
	}
	if s.HasOpaque() || other.HasOpaque() {
		return false
	}
	return congruent(s, other, map[congruencePair]bool{})
}

type congruencePair struct{ a, b *Schema }

func congruent(a, b *Schema, seen map[congruencePair]bool) bool {
	if a == b {
		return true
	}
	pair := congruencePair{a, b}
	if v, ok := seen[pair]; ok {
		return v
	}
	seen[pair] = true // assume congruent to break cycles; verified below

	ka, kb := a.Kind(), b.Kind()
	switch {
	case ka.IsPrimitive() && kb.IsPrimitive():
		pa, _ := ka.AsPrimitive()
		pb, _ := kb.AsPrimitive()
		ok := pa.Equal(pb)
		seen[pair] = ok
		return ok
	case ka.IsStruct() && kb.IsStruct():
		fa, _ := ka.AsStruct()
		fb, _ := kb.AsStruct()
		if len(fa) != len(fb) {
			seen[pair] = false
			return false
		}
		for i := range fa {
			if !congruent(fa[i].Schema, fb[i].Schema, seen) {
				seen[pair] = false
				return false
			}
		}
		return true
	case ka.IsVec() && kb.IsVec():
		ea, _ := ka.AsVec()
		eb, _ := kb.AsVec()
		ok := congruent(ea, eb, seen)
		seen[pair] = ok
		return ok
	case ka.IsBox() && kb.IsBox():
		ea, _ := ka.AsBox()
		eb, _ := kb.AsBox()
		ok := congruent(ea, eb, seen)
		seen[pair] = ok
		return ok
	case ka.IsMap() && kb.IsMap():
		keyA, valA, _ := ka.AsMap()
		keyB, valB, _ := kb.AsMap()
		ok := congruent(keyA, keyB, seen) && congruent(valA, valB, seen)
		seen[pair] = ok
		return ok
	default:
		seen[pair] = false
		return false
	}
}

// computeLayout recursively computes size/align/offsets, handling
// zero-sized trailing padding the way Go's own compiler lays out structs:
// sequential fields padded up to each field's alignment, final size padded
// to the struct's own alignment.
func computeLayout(s *Schema) layoutInfo {
	k := s.Kind()
	switch {
	case k.IsPrimitive():
		p, _ := k.AsPrimitive()
		return layoutInfo{size: p.Size(), align: p.Align()}
	case k.IsStruct():
		fields, _ := k.AsStruct()
		var offset, maxAlign uintptr = 0, 1
		offsets := make([]uintptr, len(fields))
		for i, f := range fields {
			fsize, falign := f.Schema.Layout()
			offset = unsafehelpers.AlignUp(offset, falign)
			offsets[i] = offset
			offset += fsize
			if falign > maxAlign {
				maxAlign = falign
			}
		}
		size := unsafehelpers.AlignUp(offset, maxAlign)
		return layoutInfo{size: size, align: maxAlign, offsets: offsets}
	case k.IsVec():
		// A Vec's in-memory representation (when embedded, e.g. as a struct
		// field) is the Go slice-header-equivalent triple used by
		// schema.Vec: ptr+len+cap, three machine words.
		return layoutInfo{size: 3 * unsafe.Sizeof(uintptr(0)), align: unsafe.Sizeof(uintptr(0))}
	case k.IsMap():
		// A Map embeds as a single pointer to its backing structure.
		return layoutInfo{size: unsafe.Sizeof(uintptr(0)), align: unsafe.Sizeof(uintptr(0))}
	case k.IsBox():
		// A Box embeds as a single pointer.
		return layoutInfo{size: unsafe.Sizeof(uintptr(0)), align: unsafe.Sizeof(uintptr(0))}
	default:
		panic(fmt.Sprintf("bones/schema: unknown kind for %s", s.Name()))
	}
}

// --- registry -------------------------------------------------------------

var registry = struct {
	mu       sync.RWMutex
	byType   map[reflect.Type]*Schema
	byID     map[uint64]*Schema
	nextID   uint64
}{
	byType: make(map[reflect.Type]*Schema),
	byID:   make(map[uint64]*Schema),
}

// Register interns a runtime-declared schema (no backing Go type) under the
// given name and returns the stable *Schema. Every call with a fresh
// SchemaData allocates a new, distinct interned record, even if structurally
// identical to an existing one — matching the source's treatment of
// independently-declared schemas as distinct identities.
func Register(name string, data SchemaData) *Schema {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.nextID++
	s := &Schema{id: registry.nextID, name: name, data: &data}
	registry.byID[s.id] = s
	return s
}

// Lookup returns a previously registered native-type schema, if any.
func lookupByType(t reflect.Type) (*Schema, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	s, ok := registry.byType[t]
	return s, ok
}

func registerByType(t reflect.Type, name string, data SchemaData) *Schema {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if existing, ok := registry.byType[t]; ok {
		return existing
	}
	registry.nextID++
	data.NativeType = t
	s := &Schema{id: registry.nextID, name: name, data: &data}
	registry.byType[t] = s
	registry.byID[s.id] = s
	return s
}

// ByID returns a previously registered schema by its registry id, used by
// wire formats that need a stable small identifier within one process run.
func ByID(id uint64) (*Schema, bool) {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	s, ok := registry.byID[id]
	return s, ok
}

// ID returns the schema's process-local registry id.
func (s *Schema) ID() uint64 { return s.id }

// ErrMismatch is returned (or used to build panic messages) when a cast
// target schema does not Represents() the source schema.
type ErrMismatch struct {
	From, To string
}

func (e *ErrMismatch) Error() string {
	return fmt.Sprintf("bones/schema: cannot cast %s to %s: schema mismatch", e.From, e.To)
}
