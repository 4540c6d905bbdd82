package asset

import (
	"path/filepath"
)

// relPath is filepath.Rel without the error-shadowing callers would
// otherwise need to repeat at every fsnotify callback site.
func relPath(root, full string) (string, error) {
	return filepath.Rel(root, full)
}

// filepathToSlash normalizes an OS-native relative path to the
// slash-separated form AssetLoc.Path uses on the wire and in pack
// manifests, regardless of host OS.
func filepathToSlash(p string) string {
	return filepath.ToSlash(p)
}
