package asset

import (
	"context"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// AssetLoc identifies a file within a pack: the pack's directory name plus a
// pack-relative, slash-separated path. Two assets referring to the same
// PackID+Path resolve to the same Handle.
type AssetLoc struct {
	PackID string
	Path   string
}

func (l AssetLoc) String() string { return l.PackID + ":" + l.Path }

// resolve normalizes a reference found inside an asset (either
// "asset:./sibling.yaml", "asset:/absolute/from/pack/root", or a bare
// pack-relative path) against the referring location, collapsing "." and
// ".." the way path.Clean does, matching spec.md §4.8 "Resolution".
func (l AssetLoc) resolve(ref string) AssetLoc {
	ref = strings.TrimPrefix(ref, "asset:")
	if strings.HasPrefix(ref, "/") {
		return AssetLoc{PackID: l.PackID, Path: path.Clean(strings.TrimPrefix(ref, "/"))}
	}
	dir := path.Dir(l.Path)
	return AssetLoc{PackID: l.PackID, Path: path.Clean(path.Join(dir, ref))}
}

// IO abstracts the filesystem so the server can be driven by a real
// directory tree or, in tests, an in-memory fixture — matching
// original_source/framework_crates/bones_asset/src/asset.rs's AssetIo trait.
type IO interface {
	// EnumeratePacks lists pack directory names discoverable by this
	// backend, the core pack included.
	EnumeratePacks() ([]string, error)
	// LoadFile reads the raw bytes at loc.
	LoadFile(loc AssetLoc) ([]byte, error)
	// Watch optionally streams locations whose bytes changed on disk.
	// Backends without hot-reload support return (nil, nil).
	Watch(ctx context.Context) (<-chan AssetLoc, error)
}

// FilesystemIO reads packs from a root directory, one subdirectory per pack,
// and watches them with fsnotify for hot reload.
type FilesystemIO struct {
	Root string
}

// NewFilesystemIO constructs a backend rooted at root.
func NewFilesystemIO(root string) *FilesystemIO { return &FilesystemIO{Root: root} }

func (f *FilesystemIO) EnumeratePacks() ([]string, error) {
	entries, err := os.ReadDir(f.Root)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	var packs []string
	for _, e := range entries {
		if e.IsDir() {
			packs = append(packs, e.Name())
		}
	}
	return packs, nil
}

func (f *FilesystemIO) LoadFile(loc AssetLoc) ([]byte, error) {
	full := path.Join(f.Root, loc.PackID, loc.Path)
	b, err := os.ReadFile(full)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIO, loc, err)
	}
	return b, nil
}

// Watch starts an fsnotify watcher over every pack directory, translating
// filesystem events into AssetLoc values relative to the pack root. The
// returned channel closes when ctx is cancelled.
func (f *FilesystemIO) Watch(ctx context.Context) (<-chan AssetLoc, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: fsnotify: %v", ErrIO, err)
	}
	packs, err := f.EnumeratePacks()
	if err != nil {
		w.Close()
		return nil, err
	}
	for _, p := range packs {
		if err := w.Add(path.Join(f.Root, p)); err != nil {
			w.Close()
			return nil, fmt.Errorf("%w: watch %s: %v", ErrIO, p, err)
		}
	}
	out := make(chan AssetLoc, 16)
	go func() {
		defer w.Close()
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
					continue
				}
				rel, err := pathRelativeToAny(f.Root, ev.Name)
				if err != nil {
					continue
				}
				select {
				case out <- rel:
				case <-ctx.Done():
					return
				}
			case _, ok := <-w.Errors:
				if !ok {
					return
				}
			}
		}
	}()
	return out, nil
}

func pathRelativeToAny(root, full string) (AssetLoc, error) {
	rel, err := relPath(root, full)
	if err != nil {
		return AssetLoc{}, err
	}
	parts := strings.SplitN(rel, string(os.PathSeparator), 2)
	if len(parts) != 2 {
		return AssetLoc{}, fmt.Errorf("path %q not inside a pack directory", full)
	}
	return AssetLoc{PackID: parts[0], Path: filepathToSlash(parts[1])}, nil
}

// MemoryIO is an in-memory fixture backend for tests: packs and their files
// are populated directly, and changes are pushed manually via Touch.
type MemoryIO struct {
	Files map[AssetLoc][]byte
	touch chan AssetLoc
}

// NewMemoryIO constructs an empty in-memory backend.
func NewMemoryIO() *MemoryIO {
	return &MemoryIO{Files: make(map[AssetLoc][]byte)}
}

// Put registers the bytes for loc, creating its pack if unseen.
func (m *MemoryIO) Put(loc AssetLoc, bytes []byte) { m.Files[loc] = bytes }

func (m *MemoryIO) EnumeratePacks() ([]string, error) {
	seen := map[string]bool{}
	var packs []string
	for loc := range m.Files {
		if !seen[loc.PackID] {
			seen[loc.PackID] = true
			packs = append(packs, loc.PackID)
		}
	}
	return packs, nil
}

func (m *MemoryIO) LoadFile(loc AssetLoc) ([]byte, error) {
	b, ok := m.Files[loc]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIO, loc)
	}
	return b, nil
}

// Watch returns a channel fed by Touch; it never closes on its own since
// MemoryIO has no underlying filesystem to stop watching.
func (m *MemoryIO) Watch(ctx context.Context) (<-chan AssetLoc, error) {
	if m.touch == nil {
		m.touch = make(chan AssetLoc, 16)
	}
	return m.touch, nil
}

// Touch replaces loc's bytes and signals any active Watch receiver,
// simulating an external file edit for hot-reload tests.
func (m *MemoryIO) Touch(loc AssetLoc, bytes []byte) {
	m.Files[loc] = bytes
	if m.touch != nil {
		m.touch <- loc
	}
}
