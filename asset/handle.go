package asset

import (
	"reflect"
	"unsafe"

	"github.com/oklog/ulid/v2"
	"gopkg.in/yaml.v3"

	"github.com/Voskan/bones/schema"
)

// UntypedHandle is a stable, process-assigned identifier for a resolved
// asset location, independent of its content — its wire format is a
// little-endian ULID (128 bits), matching spec.md §6 "Handle wire format".
// It never changes across hot reloads; only the Cid the handle currently
// maps to changes.
//
// ref holds a pending "asset:<path>" sentinel between YAML decode and
// decodeMetadata's dependency-resolution pass (see decode.go, walkHandles);
// it is empty on any handle obtained outside metadata decoding.
type UntypedHandle struct {
	id  ulid.ULID
	ref string
}

// Handle is UntypedHandle plus a phantom type parameter that affects only
// the Go type system, never the schema layout — Handle[T] and
// UntypedHandle are bit-identical on the wire.
type Handle[T any] struct {
	id  ulid.ULID
	ref string
}

// newHandle mints a fresh, process-unique handle.
func newHandle() UntypedHandle {
	return UntypedHandle{id: ulid.Make()}
}

// Untyped discards the phantom type, yielding the wire-identical
// UntypedHandle.
func (h Handle[T]) Untyped() UntypedHandle { return UntypedHandle{id: h.id} }

// typedFromUntyped reinterprets h as Handle[T]. Callers (Server.Get) are
// responsible for T matching the asset's actual loaded type.
func typedFromUntyped[T any](h UntypedHandle) Handle[T] { return Handle[T]{id: h.id} }

func (h UntypedHandle) String() string { return h.id.String() }
func (h Handle[T]) String() string     { return h.id.String() }

// IsNil reports whether h is the zero handle.
func (h UntypedHandle) IsNil() bool { return h.id == (ulid.ULID{}) }

// hasRef is implemented by *UntypedHandle and *Handle[T] so walkHandles can
// find and resolve pending "asset:" references without knowing T.
type hasRef interface {
	pendingRef() (string, bool)
	resolveRef(u UntypedHandle)
}

func (h *UntypedHandle) pendingRef() (string, bool) { return h.ref, h.ref != "" }
func (h *UntypedHandle) resolveRef(u UntypedHandle)  { h.id, h.ref = u.id, "" }

func (h *Handle[T]) pendingRef() (string, bool) { return h.ref, h.ref != "" }
func (h *Handle[T]) resolveRef(u UntypedHandle)  { h.id, h.ref = u.id, "" }

// UnmarshalYAML captures the "asset:<path>" sentinel string as a pending
// reference; walkHandles resolves it into a real handle once the owning
// asset's LoadContext is available.
func (h *UntypedHandle) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	h.ref = s
	return nil
}

// UnmarshalYAML captures the "asset:<path>" sentinel the same way
// UntypedHandle.UnmarshalYAML does.
func (h *Handle[T]) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	h.ref = s
	return nil
}

// handleSchema describes UntypedHandle's real in-memory layout: the wire
// identity is just the 16-byte ULID, but the host struct also carries the
// decode-time pending-ref string, so the schema must span the whole struct
// (unsafe.Sizeof(UntypedHandle{}), not the ULID alone) or any struct
// embedding a handle gets a too-small Box allocation. Opaque rather than
// U128 since its size/align are now host-struct-shaped, not a bare 128-bit
// value (SPEC_FULL.md's Open Question #2 still governs the wire encoding,
// handled separately by String()/the ULID itself).
var handleSchema = schema.Register("bones.asset.UntypedHandle", schema.SchemaData{
	Kind:       schema.KindPrimitive(schema.PrimitiveOpaque(unsafe.Sizeof(UntypedHandle{}), unsafe.Alignof(UntypedHandle{}))),
	NativeType: reflect.TypeOf(UntypedHandle{}),
	CloneFn: func(dst, src unsafe.Pointer) {
		*(*UntypedHandle)(dst) = *(*UntypedHandle)(src)
	},
	EqFn: func(a, b unsafe.Pointer) bool {
		return (*UntypedHandle)(a).id == (*UntypedHandle)(b).id
	},
	HashFn: func(p unsafe.Pointer) uint64 {
		id := (*UntypedHandle)(p).id
		var h uint64 = 14695981039346656037
		for _, b := range id {
			h ^= uint64(b)
			h *= 1099511628211
		}
		return h
	},
})

// HandleSchema returns the schema describing UntypedHandle's layout, used
// when an asset struct field is itself a handle.
func HandleSchema() *schema.Schema { return handleSchema }

// Schema implements schema.HasSchema: Handle[T]'s phantom type parameter
// must never affect layout, so it shares UntypedHandle's schema rather than
// deriving its own (RegisterType would otherwise see a distinct Go type per
// T and, being reflection-based, would also skip its unexported fields —
// see handleSchema's doc comment).
func (UntypedHandle) Schema() *schema.Schema { return handleSchema }

// Schema implements schema.HasSchema for Handle[T]; see UntypedHandle.Schema.
func (Handle[T]) Schema() *schema.Schema { return handleSchema }
