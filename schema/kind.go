package schema

// Kind discriminates the shape a Schema describes: a fixed struct layout, a
// homogeneous growable vector, a key/value map, a heap-boxed single value, or
// a primitive leaf.
type Kind struct {
	variant kindVariant

	// KindStruct
	fields []Field

	// KindVec / KindBox
	elem *Schema

	// KindMap
	key   *Schema
	value *Schema

	// KindPrimitive
	prim Primitive
}

type kindVariant uint8

const (
	kindStruct kindVariant = iota
	kindVec
	kindMap
	kindBox
	kindPrimitive
)

// Field describes one member of a struct schema.
type Field struct {
	Name   string
	Schema *Schema
}

// KindStruct builds a struct Kind from an ordered field list. Field offsets
// are computed lazily by Schema.computeLayout.
func KindStruct(fields []Field) Kind {
	return Kind{variant: kindStruct, fields: fields}
}

// KindVec builds a Kind describing a homogeneous growable vector of elem.
func KindVec(elem *Schema) Kind { return Kind{variant: kindVec, elem: elem} }

// KindMap builds a Kind describing a key/value map.
func KindMap(key, value *Schema) Kind { return Kind{variant: kindMap, key: key, value: value} }

// KindBox builds a Kind describing a single heap-boxed value of elem.
func KindBox(elem *Schema) Kind { return Kind{variant: kindBox, elem: elem} }

// KindPrimitive builds a Kind wrapping a scalar Primitive.
func KindPrimitive(p Primitive) Kind { return Kind{variant: kindPrimitive, prim: p} }

// IsStruct reports whether this is a struct kind.
func (k Kind) IsStruct() bool { return k.variant == kindStruct }

// IsVec reports whether this is a vec kind.
func (k Kind) IsVec() bool { return k.variant == kindVec }

// IsMap reports whether this is a map kind.
func (k Kind) IsMap() bool { return k.variant == kindMap }

// IsBox reports whether this is a box kind.
func (k Kind) IsBox() bool { return k.variant == kindBox }

// IsPrimitive reports whether this is a primitive kind.
func (k Kind) IsPrimitive() bool { return k.variant == kindPrimitive }

// AsStruct returns the field list; ok is false if this is not a struct kind.
func (k Kind) AsStruct() (fields []Field, ok bool) {
	return k.fields, k.variant == kindStruct
}

// AsVec returns the element schema; ok is false if this is not a vec kind.
func (k Kind) AsVec() (elem *Schema, ok bool) {
	return k.elem, k.variant == kindVec
}

// AsMap returns the key/value schemas; ok is false if this is not a map kind.
func (k Kind) AsMap() (key, value *Schema, ok bool) {
	return k.key, k.value, k.variant == kindMap
}

// AsBox returns the boxed element schema; ok is false if this is not a box
// kind.
func (k Kind) AsBox() (elem *Schema, ok bool) {
	return k.elem, k.variant == kindBox
}

// AsPrimitive returns the primitive; ok is false if this is not a primitive
// kind.
func (k Kind) AsPrimitive() (p Primitive, ok bool) {
	return k.prim, k.variant == kindPrimitive
}
