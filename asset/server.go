package asset

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Voskan/bones/schema"
)

const packManifestName = "pack.yaml"

// LoadedAsset is a fully resolved asset: its content id, originating pack,
// location, dependency Cids in load order, and the decoded value.
type LoadedAsset struct {
	Cid          Cid
	PackSpec     *PackSpec
	Loc          AssetLoc
	Dependencies []Cid
	Data         *schema.Box
}

type registeredKind struct {
	matchExt func(name string) bool
	decode   func(ctx *LoadContext, bytes []byte) (*schema.Box, error)
}

// Server is the asset server: pack discovery and compatibility gating,
// dependency-tracked loading with content-addressed identity, hot reload,
// and handle dereference. Grounded on the teacher's pkg/cache.go sharded
// load lifecycle and pkg/loader.go's singleflight de-duplication.
type Server struct {
	mu sync.RWMutex

	io          IO
	gameVersion string
	cfg         *config
	metrics     metricsSink
	group       singleflight.Group

	kinds []registeredKind

	handles       map[AssetLoc]UntypedHandle
	locByHandle   map[UntypedHandle]AssetLoc
	assetByHandle map[UntypedHandle]Cid
	assets        map[Cid]*LoadedAsset
	reverseDeps   map[Cid]map[Cid]bool

	corePack          *PackSpec
	activePacks       map[string]*PackSpec
	IncompatiblePacks map[string]*PackSpec
}

// NewServer constructs a Server reading packs through io, gating auxiliary
// packs against gameVersion.
func NewServer(io IO, gameVersion string, opts ...Option) (*Server, error) {
	cfg, err := applyOptions(opts)
	if err != nil {
		return nil, err
	}
	return &Server{
		io:                io,
		gameVersion:       gameVersion,
		cfg:               cfg,
		metrics:           newMetricsSink(cfg.registry),
		handles:           make(map[AssetLoc]UntypedHandle),
		locByHandle:       make(map[UntypedHandle]AssetLoc),
		assetByHandle:     make(map[UntypedHandle]Cid),
		assets:            make(map[Cid]*LoadedAsset),
		reverseDeps:       make(map[Cid]map[Cid]bool),
		activePacks:       make(map[string]*PackSpec),
		IncompatiblePacks: make(map[string]*PackSpec),
	}, nil
}

// RegisterKind associates Go type T with a loading strategy. Must be called
// before any Load[T] referencing T.
func RegisterKind[T any](s *Server, kind Kind) {
	switch k := kind.(type) {
	case MetadataKind:
		ext := k.Extension
		s.kinds = append(s.kinds, registeredKind{
			matchExt: func(name string) bool {
				return matchesMetadataExt(name, ext)
			},
			decode: func(ctx *LoadContext, bytes []byte) (*schema.Box, error) {
				return decodeMetadata[T](ctx, bytes, strings.HasSuffix(ctx.loc.Path, ".json"))
			},
		})
	case CustomKind:
		exts := k.Extensions
		loader := k.Loader
		s.kinds = append(s.kinds, registeredKind{
			matchExt: func(name string) bool {
				for _, e := range exts {
					if strings.HasSuffix(name, e) {
						return true
					}
				}
				return false
			},
			decode: loader.Load,
		})
	}
}

func matchesMetadataExt(name, ext string) bool {
	for _, suf := range []string{ext + ".yaml", ext + ".yml", ext + ".json"} {
		if strings.HasSuffix(name, suf) {
			return true
		}
	}
	return false
}

// LoadPacks discovers every pack io.EnumeratePacks reports, parses each
// pack.yaml, and activates those whose GameVersionReq is satisfied by the
// server's configured game version (matching spec.md §4.8 "Pack
// discovery"). corePackID names the always-active core pack. Failures are
// collected into the returned *LoadError rather than aborting early, so
// partial successes are preserved.
func (s *Server) LoadPacks(corePackID string) *LoadError {
	s.mu.Lock()
	defer s.mu.Unlock()

	loadErr := &LoadError{}
	dirs, err := s.io.EnumeratePacks()
	if err != nil {
		loadErr.add(AssetLoc{}, err)
		return loadErr
	}
	for _, dir := range dirs {
		manifestLoc := AssetLoc{PackID: dir, Path: packManifestName}
		bytes, err := s.io.LoadFile(manifestLoc)
		if err != nil {
			loadErr.add(manifestLoc, err)
			continue
		}
		spec, err := parsePackManifest(bytes)
		if err != nil {
			loadErr.add(manifestLoc, err)
			continue
		}
		spec.DirName = dir
		if dir == corePackID {
			s.corePack = spec
			s.activePacks[dir] = spec
			continue
		}
		if packCompatible(s.gameVersion, spec.GameVersionReq) {
			s.activePacks[dir] = spec
		} else {
			s.IncompatiblePacks[dir] = spec
			s.metrics.incIncompatible(dir)
			loadErr.add(manifestLoc, fmt.Errorf("%w: %s requires %s, have %s",
				ErrIncompatiblePack, dir, spec.GameVersionReq, s.gameVersion))
		}
	}
	s.metrics.setActivePacks(len(s.activePacks))
	if loadErr.HasOffenses() {
		return loadErr
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Load loads (or returns the cached) asset at loc as T, resolving its
// dependency graph depth-first and computing its Cid once every dependency
// Cid is known.
func Load[T any](ctx context.Context, s *Server, loc AssetLoc) (Handle[T], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, _, err := s.loadLocLocked(ctx, loc, s.packFor(loc), nil)
	if err != nil {
		return Handle[T]{}, err
	}
	return typedFromUntyped[T](h), nil
}

// LoadMany loads a batch of independent locations concurrently, bounded by
// the server's configured load concurrency and deduplicated by singleflight
// per location — the direct generalization of the teacher's pkg/loader.go
// loaderGroup, extended with golang.org/x/sync/errgroup for the
// bounded-fan-out half of spec.md's "[ADD] Concurrent dependency loading".
func LoadMany[T any](ctx context.Context, s *Server, locs []AssetLoc) ([]Handle[T], error) {
	out := make([]Handle[T], len(locs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.loadConcurrency)
	for i, loc := range locs {
		i, loc := i, loc
		g.Go(func() error {
			key := loc.String()
			v, err, _ := s.group.Do(key, func() (any, error) {
				return Load[T](gctx, s, loc)
			})
			if err != nil {
				return err
			}
			out[i] = v.(Handle[T])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Server) packFor(loc AssetLoc) *PackSpec {
	if s.corePack != nil && loc.PackID == s.corePack.DirName {
		return s.corePack
	}
	if p, ok := s.activePacks[loc.PackID]; ok {
		return p
	}
	return &PackSpec{DirName: loc.PackID}
}

// loadLocLocked is the recursive core: callers (including LoadContext.LoadAsset
// for dependency enlistment) must hold s.mu. stack lists the locations
// currently being resolved higher up this same load chain, used to detect
// dependency cycles (spec.md §7/§8 "CycleDetected").
func (s *Server) loadLocLocked(ctx context.Context, loc AssetLoc, pack *PackSpec, stack []AssetLoc) (UntypedHandle, Cid, error) {
	if h, ok := s.handles[loc]; ok {
		if cid, ok := s.assetByHandle[h]; ok {
			return h, cid, nil
		}
	}
	for _, onStack := range stack {
		if onStack == loc {
			return UntypedHandle{}, Cid{}, fmt.Errorf("%w: %s", ErrCycleDetected, cyclePath(append(stack, loc)))
		}
	}
	bytes, err := s.io.LoadFile(loc)
	if err != nil {
		return UntypedHandle{}, Cid{}, err
	}
	rk, err := s.matchKind(loc.Path)
	if err != nil {
		return UntypedHandle{}, Cid{}, err
	}
	lc := &LoadContext{ctx: ctx, server: s, loc: loc, pack: pack, stack: append(stack, loc)}
	box, err := rk.decode(lc, bytes)
	if err != nil {
		s.metrics.incLoadError(loc.PackID)
		return UntypedHandle{}, Cid{}, err
	}
	cid := computeCid(bytes, lc.depCids)
	if s.cfg.diskCache != nil {
		_ = s.cfg.diskCache.Put(cid, bytes)
	}

	h, ok := s.handles[loc]
	if !ok {
		h = newHandle()
		s.handles[loc] = h
		s.locByHandle[h] = loc
	}
	s.assetByHandle[h] = cid
	s.assets[cid] = &LoadedAsset{
		Cid:          cid,
		PackSpec:     pack,
		Loc:          loc,
		Dependencies: lc.depCids,
		Data:         box,
	}
	for _, dep := range lc.depCids {
		if s.reverseDeps[dep] == nil {
			s.reverseDeps[dep] = make(map[Cid]bool)
		}
		s.reverseDeps[dep][cid] = true
	}
	s.metrics.incLoaded(loc.PackID)
	return h, cid, nil
}

// cyclePath renders a dependency chain as "a -> b -> a" for ErrCycleDetected
// messages.
func cyclePath(chain []AssetLoc) string {
	parts := make([]string, len(chain))
	for i, loc := range chain {
		parts[i] = loc.String()
	}
	return strings.Join(parts, " -> ")
}

func (s *Server) matchKind(filePath string) (*registeredKind, error) {
	name := path.Base(filePath)
	for i := range s.kinds {
		if s.kinds[i].matchExt(name) {
			return &s.kinds[i], nil
		}
	}
	return nil, fmt.Errorf("%w: no registered kind matches %q", ErrParse, filePath)
}

// Get returns the typed view of the asset currently bound to h. Panics if
// h's current Cid doesn't decode as T — mirroring spec.md's SchemaMismatch
// policy for typed-pointer casts.
func Get[T any](s *Server, h Handle[T]) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u := h.Untyped()
	cid, ok := s.assetByHandle[u]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: handle %s has no loaded asset", ErrDependencyMissing, u)
	}
	la := s.assets[cid]
	return schema.Cast[T](la.Data), nil
}

// LocFor returns the asset location h was minted for, for debug snapshots
// and inspection tooling.
func (s *Server) LocFor(h UntypedHandle) (AssetLoc, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, ok := s.locByHandle[h]
	return loc, ok
}

// GetUntyped returns the LoadedAsset (raw box plus Cid, location and
// dependencies) currently bound to h.
func (s *Server) GetUntyped(h UntypedHandle) (*LoadedAsset, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cid, ok := s.assetByHandle[h]
	if !ok {
		return nil, false
	}
	return s.assets[cid], true
}

// Watch starts the IO backend's hot-reload stream (if supported) and
// applies each changed location via HotReload until ctx is cancelled.
func (s *Server) Watch(ctx context.Context, logger *zap.Logger) error {
	if logger == nil {
		logger = s.cfg.logger
	}
	ch, err := s.io.Watch(ctx)
	if err != nil {
		return err
	}
	if ch == nil {
		return nil
	}
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case loc, ok := <-ch:
				if !ok {
					return
				}
				if err := s.HotReload(ctx, loc); err != nil {
					logger.Warn("bones/asset: hot reload failed",
						zap.String("loc", loc.String()), zap.Error(err))
				}
			}
		}
	}()
	return nil
}

// HotReload re-reads loc, recomputes its Cid, and propagates the new Cid to
// every reverse-dependent asset (their bytes are unchanged but must be
// re-hashed since one of their dependency Cids changed), matching spec.md
// §4.8 "Hot reload".
func (s *Server) HotReload(ctx context.Context, loc AssetLoc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handles[loc]
	if !ok {
		return fmt.Errorf("%w: unknown location %s", ErrDependencyMissing, loc)
	}
	oldCid := s.assetByHandle[h]
	pack := s.packFor(loc)

	// handles[loc] is deliberately kept intact: a handle is stable across
	// hot reload (spec.md §4.8), only the Cid it resolves to changes.
	delete(s.assetByHandle, h)
	_, newCid, err := s.loadLocLocked(ctx, loc, pack, nil)
	if err != nil {
		s.assetByHandle[h] = oldCid
		return err
	}
	s.metrics.incHotReload(loc.PackID)

	return s.propagateReverse(ctx, oldCid, newCid)
}

// propagateReverse re-hashes every asset that depended on oldCid, now that
// it has become newCid, cascading transitively.
func (s *Server) propagateReverse(ctx context.Context, oldCid, newCid Cid) error {
	dependents := s.reverseDeps[oldCid]
	delete(s.reverseDeps, oldCid)
	for depCid := range dependents {
		la, ok := s.assets[depCid]
		if !ok {
			continue
		}
		for i, d := range la.Dependencies {
			if d == oldCid {
				la.Dependencies[i] = newCid
			}
		}
		bytes, err := s.io.LoadFile(la.Loc)
		if err != nil {
			return err
		}
		recomputed := computeCid(bytes, la.Dependencies)
		if s.reverseDeps[newCid] == nil {
			s.reverseDeps[newCid] = make(map[Cid]bool)
		}
		s.reverseDeps[newCid][recomputed] = true
		if recomputed == depCid {
			continue
		}
		for _, d := range la.Dependencies {
			if rd := s.reverseDeps[d]; d != newCid && rd[depCid] {
				delete(rd, depCid)
				rd[recomputed] = true
			}
		}
		delete(s.assets, depCid)
		la.Cid = recomputed
		s.assets[recomputed] = la
		for h, c := range s.assetByHandle {
			if c == depCid {
				s.assetByHandle[h] = recomputed
			}
		}
		if err := s.propagateReverse(ctx, depCid, recomputed); err != nil {
			return err
		}
		if s.reverseDeps[recomputed] == nil {
			s.reverseDeps[recomputed] = make(map[Cid]bool)
		}
		for c := range s.reverseDeps[depCid] {
			s.reverseDeps[recomputed][c] = true
		}
	}
	return nil
}
