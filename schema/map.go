package schema

import (
	"unsafe"

	"github.com/Voskan/bones/schema/alloc"
)

// Map is an open-addressed, schema-described key/value map — the untyped
// backing store for dynamic maps declared in pack metadata. The key schema
// must supply HashFn and EqFn; NewMap panics otherwise. InsertBox returns
// false when a box's schema does not match the map's key or value schema.
type Map struct {
	keys   *alloc.Resizable
	vals   *alloc.Resizable
	used   []bool
	keySch *Schema
	valSch *Schema
	count  int
}

const mapInitialBuckets = 8

// NewMap constructs an empty Map. Panics if keySchema lacks HashFn or EqFn —
// this is checked eagerly since a keyless map can never function.
func NewMap(keySchema, valSchema *Schema) *Map {
	if keySchema.data.HashFn == nil || keySchema.data.EqFn == nil {
		panic("bones/schema: map key schema " + keySchema.Name() + " has no HashFn/EqFn")
	}
	ksize, kalign := keySchema.Layout()
	vsize, valign := valSchema.Layout()
	m := &Map{
		keys:   alloc.NewResizable(ksize, kalign, mapInitialBuckets),
		vals:   alloc.NewResizable(vsize, valign, mapInitialBuckets),
		used:   make([]bool, mapInitialBuckets),
		keySch: keySchema,
		valSch: valSchema,
	}
	m.keys.Reserve(mapInitialBuckets)
	m.vals.Reserve(mapInitialBuckets)
	return m
}

// Len returns the number of entries.
func (m *Map) Len() int { return m.count }

// KeySchema returns the key element schema.
func (m *Map) KeySchema() *Schema { return m.keySch }

// ValueSchema returns the value element schema.
func (m *Map) ValueSchema() *Schema { return m.valSch }

func (m *Map) bucketOf(keyPtr unsafe.Pointer) int {
	h := m.keySch.data.HashFn(keyPtr)
	n := len(m.used)
	idx := int(h % uint64(n))
	for i := 0; i < n; i++ {
		b := (idx + i) % n
		if !m.used[b] {
			return b
		}
		if m.keySch.data.EqFn(m.keys.Index(b), keyPtr) {
			return b
		}
	}
	return -1 // full; caller must grow
}

// InsertBox inserts or overwrites the entry for keyBox, taking ownership of
// both boxes' bytes. Returns false (without consuming either box) if the
// schemas don't match this map's key/value schemas.
func (m *Map) InsertBox(keyBox, valBox *Box) bool {
	if keyBox.schema != m.keySch || valBox.schema != m.valSch {
		return false
	}
	m.maybeGrow()
	b := m.bucketOf(keyBox.ptr)
	if b < 0 {
		m.grow()
		b = m.bucketOf(keyBox.ptr)
	}
	ksize, _ := m.keySch.Layout()
	vsize, _ := m.valSch.Layout()
	if !m.used[b] {
		m.used[b] = true
		m.count++
	} else if m.valSch.data.DropFn != nil {
		m.valSch.data.DropFn(m.vals.Index(b))
	}
	if ksize > 0 {
		copy(unsafe.Slice((*byte)(m.keys.Index(b)), ksize), unsafe.Slice((*byte)(keyBox.ptr), ksize))
	}
	if vsize > 0 {
		copy(unsafe.Slice((*byte)(m.vals.Index(b)), vsize), unsafe.Slice((*byte)(valBox.ptr), vsize))
	}
	keyBox.freed = true
	valBox.freed = true
	return true
}

// Get returns a Ref to the value stored for keyPtr (raw bytes matching
// KeySchema), and whether it was found.
func (m *Map) Get(keyPtr unsafe.Pointer) (Ref, bool) {
	idx := m.find(keyPtr)
	if idx < 0 {
		return Ref{}, false
	}
	return Ref{ptr: m.vals.Index(idx), schema: m.valSch}, true
}

// GetMut returns a RefMut to the value stored for keyPtr.
func (m *Map) GetMut(keyPtr unsafe.Pointer) (RefMut, bool) {
	idx := m.find(keyPtr)
	if idx < 0 {
		return RefMut{}, false
	}
	return RefMut{Ref{ptr: m.vals.Index(idx), schema: m.valSch}}, true
}

func (m *Map) find(keyPtr unsafe.Pointer) int {
	n := len(m.used)
	if n == 0 {
		return -1
	}
	h := m.keySch.data.HashFn(keyPtr)
	idx := int(h % uint64(n))
	for i := 0; i < n; i++ {
		b := (idx + i) % n
		if !m.used[b] {
			return -1
		}
		if m.keySch.data.EqFn(m.keys.Index(b), keyPtr) {
			return b
		}
	}
	return -1
}

// Remove deletes the entry for keyPtr, invoking drop on both key and value.
// Returns false if absent.
func (m *Map) Remove(keyPtr unsafe.Pointer) bool {
	idx := m.find(keyPtr)
	if idx < 0 {
		return false
	}
	if m.keySch.data.DropFn != nil {
		m.keySch.data.DropFn(m.keys.Index(idx))
	}
	if m.valSch.data.DropFn != nil {
		m.valSch.data.DropFn(m.vals.Index(idx))
	}
	m.used[idx] = false
	m.count--
	m.rehashFrom(idx)
	return true
}

// rehashFrom re-inserts the cluster following a removed slot so open
// addressing probes stay correct (classic backward-shift deletion).
func (m *Map) rehashFrom(hole int) {
	n := len(m.used)
	i := (hole + 1) % n
	for m.used[i] {
		h := m.keySch.data.HashFn(m.keys.Index(i))
		ideal := int(h % uint64(n))
		// If the entry at i can legally move into hole, do so and continue
		// the hole from i.
		if probeDistance(ideal, hole, n) <= probeDistance(ideal, i, n) {
			m.keys.CopyElement(hole, i)
			m.vals.CopyElement(hole, i)
			m.used[hole] = true
			m.used[i] = false
			hole = i
		}
		i = (i + 1) % n
	}
}

func probeDistance(ideal, actual, n int) int {
	if actual >= ideal {
		return actual - ideal
	}
	return actual + n - ideal
}

func (m *Map) maybeGrow() {
	if len(m.used) == 0 {
		m.grow()
		return
	}
	if m.count*2 >= len(m.used) {
		m.grow()
	}
}

// grow doubles bucket count and rehashes every live entry.
func (m *Map) grow() {
	oldCap := len(m.used)
	newCap := oldCap * 2
	if newCap == 0 {
		newCap = mapInitialBuckets
	}
	oldKeys, oldVals, oldUsed := m.keys, m.vals, m.used

	ksize, kalign := m.keySch.Layout()
	vsize, valign := m.valSch.Layout()
	m.keys = alloc.NewResizable(ksize, kalign, newCap)
	m.vals = alloc.NewResizable(vsize, valign, newCap)
	m.keys.Reserve(newCap)
	m.vals.Reserve(newCap)
	m.used = make([]bool, newCap)
	m.count = 0

	for i, u := range oldUsed {
		if !u {
			continue
		}
		b := m.bucketOf(oldKeys.Index(i))
		m.used[b] = true
		m.count++
		copyAcross(m.keys, oldKeys, b, i, ksize)
		copyAcross(m.vals, oldVals, b, i, vsize)
	}
}

func copyAcross(dst, src *alloc.Resizable, dstIdx, srcIdx int, size uintptr) {
	if size == 0 {
		return
	}
	copy(unsafe.Slice((*byte)(dst.Index(dstIdx)), size), unsafe.Slice((*byte)(src.Index(srcIdx)), size))
}

// Free drops every live key and value.
func (m *Map) Free() {
	for i, u := range m.used {
		if !u {
			continue
		}
		if m.keySch.data.DropFn != nil {
			m.keySch.data.DropFn(m.keys.Index(i))
		}
		if m.valSch.data.DropFn != nil {
			m.valSch.data.DropFn(m.vals.Index(i))
		}
	}
}
