package asset

import (
	"encoding/json"
	"fmt"
	"reflect"
	"unsafe"

	"gopkg.in/yaml.v3"

	"github.com/Voskan/bones/schema"
)

// decodeMetadata parses bytes (JSON when useJSON is set, which the server
// does for paths ending in ".json"; YAML otherwise) into a fresh T, resolves
// every "asset:" handle sentinel found inside it against ctx, and wraps the
// result in a schema.Box. Before parsing, T is initialized through its
// schema's DefaultFn, so unspecified fields keep that default. Handle
// sentinels are recognized in YAML only: Handle and UntypedHandle implement
// yaml.Unmarshaler but not json.Unmarshaler.
func decodeMetadata[T any](ctx *LoadContext, bytes []byte, useJSON bool) (*schema.Box, error) {
	var v T
	if def := schema.SchemaOf[T]().Data().DefaultFn; def != nil {
		def(unsafe.Pointer(&v))
	}
	if useJSON {
		if err := json.Unmarshal(bytes, &v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParse, ctx.loc, err)
		}
	} else {
		if err := yaml.Unmarshal(bytes, &v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrParse, ctx.loc, err)
		}
	}
	rv := reflect.ValueOf(&v).Elem()
	if err := walkHandles(ctx, rv); err != nil {
		return nil, err
	}
	return schema.NewBox(v), nil
}

// walkHandles recursively visits v looking for addressable *UntypedHandle /
// *Handle[T] values carrying a pending "asset:" reference, resolving each
// through ctx.LoadAsset.
func walkHandles(ctx *LoadContext, v reflect.Value) error {
	if !v.CanAddr() {
		return nil
	}
	if hr, ok := v.Addr().Interface().(hasRef); ok {
		ref, pending := hr.pendingRef()
		if pending {
			h, err := ctx.LoadAsset(ref)
			if err != nil {
				return err
			}
			hr.resolveRef(h)
		}
		return nil
	}
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if !v.Type().Field(i).IsExported() {
				continue
			}
			if err := walkHandles(ctx, v.Field(i)); err != nil {
				return err
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := walkHandles(ctx, v.Index(i)); err != nil {
				return err
			}
		}
	case reflect.Ptr:
		if !v.IsNil() {
			return walkHandles(ctx, v.Elem())
		}
	case reflect.Map:
		// Map values aren't addressable, so maps are not descended into:
		// a handle stored inside a map value keeps its pending reference
		// unresolved.
	}
	return nil
}
