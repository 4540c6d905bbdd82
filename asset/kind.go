package asset

import (
	"context"

	"github.com/Voskan/bones/schema"
)

// Kind determines how a registered asset type's bytes become a schema.Box,
// the Go mapping of spec.md §4.8's "AssetKind (a type-data on the asset's
// schema)". Implementations are registered per Go type via
// Server.RegisterKind.
type Kind interface {
	isKind()
}

// MetadataKind loads files whose name ends in "<Extension>.{yaml,yml,json}"
// by deserializing into the target schema via decodeMetadata.
type MetadataKind struct {
	Extension string
}

func (MetadataKind) isKind() {}

// CustomLoader is implemented by assets that need bespoke byte parsing
// (binary formats, archives) rather than YAML/JSON metadata framing.
type CustomLoader interface {
	Load(ctx *LoadContext, bytes []byte) (*schema.Box, error)
}

// CustomKind loads files matching Extensions through Loader.
type CustomKind struct {
	Extensions []string
	Loader     CustomLoader
}

func (CustomKind) isKind() {}

// LoadContext is passed to CustomLoader.Load and the metadata handle
// resolver, giving both a way to enlist dependencies discovered while
// parsing — mirroring the source's ctx.load_asset(path).
type LoadContext struct {
	ctx     context.Context
	server  *Server
	loc     AssetLoc
	pack    *PackSpec
	depCids []Cid
	depLocs []AssetLoc
	stack   []AssetLoc
}

// LoadAsset resolves ref (an "asset:..." reference or bare pack-relative
// path) against the current asset's location, recursively loading it if
// necessary, and records it as a dependency of the asset currently being
// loaded. Returns ErrCycleDetected if target is already being resolved
// higher up the current load chain.
func (c *LoadContext) LoadAsset(ref string) (UntypedHandle, error) {
	target := c.loc.resolve(ref)
	h, cid, err := c.server.loadLocLocked(c.ctx, target, c.pack, c.stack)
	if err != nil {
		return UntypedHandle{}, err
	}
	c.depLocs = append(c.depLocs, target)
	c.depCids = append(c.depCids, cid)
	return h, nil
}
