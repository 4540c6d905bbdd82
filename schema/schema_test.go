package schema

import (
	"testing"
	"unsafe"
)

type point struct {
	X, Y int32
}

type namedEntity struct {
	Name string
	Pos  point
}

func TestLayoutDivisibleByAlign(t *testing.T) {
	for _, tc := range []struct {
		name string
		sch  *Schema
	}{
		{"bool", SchemaOf[bool]()},
		{"point", SchemaOf[point]()},
		{"namedEntity", SchemaOf[namedEntity]()},
		{"u128", func() *Schema {
			return Register("u128", SchemaData{Kind: KindPrimitive(PrimitiveU128)})
		}()},
	} {
		size, align := tc.sch.Layout()
		if align == 0 {
			t.Fatalf("%s: align is zero", tc.name)
		}
		if size%align != 0 {
			t.Errorf("%s: size %d is not a multiple of align %d", tc.name, size, align)
		}
	}
}

func TestLayoutMatchesHostType(t *testing.T) {
	size, align := SchemaOf[point]().Layout()
	if want := unsafe.Sizeof(point{}); size != want {
		t.Errorf("size = %d, want %d", size, want)
	}
	if want := unsafe.Alignof(point{}); align != want {
		t.Errorf("align = %d, want %d", align, want)
	}

	size, align = SchemaOf[namedEntity]().Layout()
	if want := unsafe.Sizeof(namedEntity{}); size != want {
		t.Errorf("size = %d, want %d", size, want)
	}
	if want := unsafe.Alignof(namedEntity{}); align != want {
		t.Errorf("align = %d, want %d", align, want)
	}
}

func TestRepresentsReflexive(t *testing.T) {
	s := SchemaOf[point]()
	if !s.Represents(s) {
		t.Fatalf("a schema must represent itself")
	}
}

func TestRepresentsSymmetricAcrossDistinctRegistrations(t *testing.T) {
	a := Register("vec2_a", SchemaData{Kind: KindStruct([]Field{
		{Name: "X", Schema: SchemaOf[int32]()},
		{Name: "Y", Schema: SchemaOf[int32]()},
	})})
	b := Register("vec2_b", SchemaData{Kind: KindStruct([]Field{
		{Name: "X", Schema: SchemaOf[int32]()},
		{Name: "Y", Schema: SchemaOf[int32]()},
	})})

	if a == b {
		t.Fatalf("Register must mint a distinct identity per call")
	}
	if !a.Represents(b) {
		t.Fatalf("structurally congruent schemas must represent each other")
	}
	if !b.Represents(a) {
		t.Fatalf("Represents must be symmetric")
	}
}

func TestRepresentsTransitive(t *testing.T) {
	mk := func(name string) *Schema {
		return Register(name, SchemaData{Kind: KindStruct([]Field{
			{Name: "X", Schema: SchemaOf[int32]()},
			{Name: "Y", Schema: SchemaOf[int32]()},
		})})
	}
	a, b, c := mk("tri_a"), mk("tri_b"), mk("tri_c")
	if !a.Represents(b) || !b.Represents(c) {
		t.Fatalf("setup: a,b,c should be pairwise congruent")
	}
	if !a.Represents(c) {
		t.Fatalf("Represents must be transitive")
	}
}

func TestOpaqueBreaksCongruence(t *testing.T) {
	plain := Register("plain_opaque_pair", SchemaData{Kind: KindStruct([]Field{
		{Name: "A", Schema: SchemaOf[int64]()},
	})})
	opaque := Register("opaque_opaque_pair", SchemaData{Kind: KindStruct([]Field{
		{Name: "A", Schema: Register("opaque_i64", SchemaData{Kind: KindPrimitive(PrimitiveOpaque(8, 8))})},
	})})

	if plain.Represents(opaque) || opaque.Represents(plain) {
		t.Fatalf("a schema containing Opaque must never Represents() a differently-identified schema")
	}
	if !opaque.Represents(opaque) {
		t.Fatalf("a schema always represents itself regardless of opacity")
	}
}

// withHiddenField mimics asset.UntypedHandle: a type with unexported fields
// that hand-authors its own Schema via HasSchema rather than letting
// RegisterType derive one by reflection (which would silently skip those
// fields and under-report the real size).
type withHiddenField struct {
	visible int32
	hidden  int64
}

var withHiddenFieldSchema = Register("schema_test.withHiddenField", SchemaData{
	Kind: KindPrimitive(PrimitiveOpaque(unsafe.Sizeof(withHiddenField{}), unsafe.Alignof(withHiddenField{}))),
})

func (withHiddenField) Schema() *Schema { return withHiddenFieldSchema }

type wrapsHiddenField struct {
	A int32
	B withHiddenField
}

func TestStructFieldRegistrationConsultsHasSchema(t *testing.T) {
	size, align := SchemaOf[wrapsHiddenField]().Layout()
	wantSize, wantAlign := unsafe.Sizeof(wrapsHiddenField{}), uintptr(unsafe.Alignof(wrapsHiddenField{}))
	if size != wantSize || align != uintptr(wantAlign) {
		t.Fatalf("Layout() = (%d,%d), want (%d,%d): a struct field whose type implements HasSchema must use that schema's real layout, not a reflection-derived one that skips its unexported fields",
			size, align, wantSize, wantAlign)
	}
}

// mismatchedLayout hand-authors a Schema that under-reports its own real Go
// size, standing in for a bug class (e.g. a handle type's schema covering
// only its wire identity, not its full host-struct size).
type mismatchedLayout struct{ X int64 }

var mismatchedLayoutSchema = Register("schema_test.mismatchedLayout", SchemaData{
	Kind: KindPrimitive(PrimitiveOpaque(4, 4)),
})

func (mismatchedLayout) Schema() *Schema { return mismatchedLayoutSchema }

func TestNewBoxPanicsOnSchemaHostLayoutMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("NewBox should panic when the schema's Layout() disagrees with T's real size/align: an undersized buffer here is a heap out-of-bounds write")
		}
	}()
	NewBox(mismatchedLayout{X: 1})
}

func TestCastRoundTripSucceedsWhenRepresented(t *testing.T) {
	type a struct{ X, Y int32 }
	type b struct{ X, Y int32 }

	box := NewBox(a{X: 1, Y: 2})
	defer box.Free()

	v, ok := TryCast[b](box)
	if !ok {
		t.Fatalf("TryCast should succeed: congruent structs")
	}
	if v.X != 1 || v.Y != 2 {
		t.Errorf("cast value = %+v, want {1 2}", v)
	}

	back := Cast[a](box)
	if back.X != 1 || back.Y != 2 {
		t.Errorf("reverse cast = %+v, want {1 2}", back)
	}
}

func TestCastFailsOnMismatch(t *testing.T) {
	box := NewBox(int64(42))
	defer box.Free()

	if _, ok := TryCast[int32](box); ok {
		t.Fatalf("TryCast should fail: int64 does not represent int32")
	}
}

func TestCastPanicsOnMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("Cast should panic on schema mismatch")
		}
	}()
	box := NewBox(int64(42))
	defer box.Free()
	Cast[int32](box)
}

func TestBoxCloneRequiresCloneFn(t *testing.T) {
	s := Register("no_clone", SchemaData{Kind: KindPrimitive(PrimitiveOpaque(4, 4))})
	b := BoxFromRaw(unsafe.Pointer(new([4]byte)), s)

	defer func() {
		if recover() == nil {
			t.Fatalf("Clone should panic when the schema has no CloneFn")
		}
	}()
	b.Clone()
}

func TestBoxCloneDeepCopies(t *testing.T) {
	orig := NewBox(point{X: 3, Y: 4})
	defer orig.Free()

	clone := orig.Clone()
	defer clone.Free()

	cv := Cast[point](clone)
	if cv.X != 3 || cv.Y != 4 {
		t.Fatalf("clone value = %+v, want {3 4}", cv)
	}

	// Mutating through the original's ref must not affect the clone.
	SetRefMut(orig.AsRefMut(), point{X: 99, Y: 99})
	cv = Cast[point](clone)
	if cv.X != 3 || cv.Y != 4 {
		t.Errorf("clone was aliased to original: got %+v, want {3 4}", cv)
	}
}

func TestVecPushPopRoundTrip(t *testing.T) {
	elem := SchemaOf[int32]()
	v := NewVec(elem)
	defer v.Free()

	b := NewBox(int32(7))
	v.PushBox(b)

	if v.Len() != 1 {
		t.Fatalf("Len = %d, want 1", v.Len())
	}

	popped, ok := v.PopBox()
	if !ok {
		t.Fatalf("PopBox: want ok")
	}
	if got := Cast[int32](popped); got != 7 {
		t.Errorf("popped value = %d, want 7", got)
	}
	if v.Len() != 0 {
		t.Errorf("Len after pop = %d, want 0", v.Len())
	}
}

func TestVecLIFOOrderAndShrink(t *testing.T) {
	elem := SchemaOf[int32]()
	v := NewVec(elem)
	defer v.Free()

	const n = 16
	for i := 0; i < n; i++ {
		v.PushBox(NewBox(int32(i)))
	}
	if v.Len() != n {
		t.Fatalf("Len = %d, want %d", v.Len(), n)
	}
	if v.Cap() < n {
		t.Errorf("Cap = %d, want >= %d", v.Cap(), n)
	}

	for i := n - 1; i >= 0; i-- {
		b, ok := v.PopBox()
		if !ok {
			t.Fatalf("PopBox at i=%d: want ok", i)
		}
		if got := Cast[int32](b); got != int32(i) {
			t.Errorf("pop order mismatch: got %d, want %d", got, i)
		}
	}
	if v.Len() != 0 {
		t.Errorf("Len after draining = %d, want 0", v.Len())
	}
	if v.Cap() < n {
		t.Errorf("Cap after draining = %d, want capacity retained >= %d", v.Cap(), n)
	}
}

func TestVecPushBoxRejectsSchemaMismatch(t *testing.T) {
	v := NewVec(SchemaOf[int32]())
	defer v.Free()

	defer func() {
		if recover() == nil {
			t.Fatalf("PushBox should panic on element schema mismatch")
		}
	}()
	v.PushBox(NewBox(int64(1)))
}

func TestMapInsertGetRoundTrip(t *testing.T) {
	keySchema := SchemaOf[int32]()
	valSchema := SchemaOf[point]()
	m := NewMap(keySchema, valSchema)
	defer m.Free()

	key := int32(5)
	m.InsertBox(NewBox(key), NewBox(point{X: 1, Y: 2}))

	ref, ok := m.Get(unsafe.Pointer(&key))
	if !ok {
		t.Fatalf("Get: want found")
	}
	v, ok := TryCastRef[point](ref)
	if !ok || v.X != 1 || v.Y != 2 {
		t.Errorf("Get value = %+v ok=%v, want {1 2} true", v, ok)
	}
	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}
}

func TestMapRemoveAndGrow(t *testing.T) {
	keySchema := SchemaOf[int32]()
	valSchema := SchemaOf[int32]()
	m := NewMap(keySchema, valSchema)
	defer m.Free()

	const n = 64
	for i := int32(0); i < n; i++ {
		key, val := i, i*10
		m.InsertBox(NewBox(key), NewBox(val))
	}
	if m.Len() != n {
		t.Fatalf("Len = %d, want %d", m.Len(), n)
	}

	for i := int32(0); i < n; i += 2 {
		key := i
		if !m.Remove(unsafe.Pointer(&key)) {
			t.Fatalf("Remove(%d): want ok", i)
		}
	}
	if m.Len() != n/2 {
		t.Fatalf("Len after removal = %d, want %d", m.Len(), n/2)
	}

	// Survivors must still be reachable after backward-shift deletion.
	for i := int32(1); i < n; i += 2 {
		key := i
		ref, ok := m.Get(unsafe.Pointer(&key))
		if !ok {
			t.Fatalf("Get(%d): want found after removals", i)
		}
		v, _ := TryCastRef[int32](ref)
		if v != i*10 {
			t.Errorf("Get(%d) = %d, want %d", i, v, i*10)
		}
	}
}
