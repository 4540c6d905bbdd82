package asset

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

// LabeledId is a human label plus a ULID, matching spec.md §6's
// "awesome-pack_01H502C309FDDV1VQ1GWA918E8" pack id format.
type LabeledId struct {
	Label string
	ULID  string
}

func (l LabeledId) String() string { return l.Label + "_" + l.ULID }

func parseLabeledId(s string) (LabeledId, error) {
	i := strings.LastIndexByte(s, '_')
	if i < 0 || i == len(s)-1 {
		return LabeledId{}, fmt.Errorf("%w: malformed pack id %q", ErrParse, s)
	}
	return LabeledId{Label: s[:i], ULID: s[i+1:]}, nil
}

// PackSpec is a pack's parsed root manifest (pack.yaml).
type PackSpec struct {
	ID             LabeledId
	Version        string // semver, e.g. "1.4.0"
	GameVersionReq string // caret-range req, e.g. "^1.2.0"
	RootPath       string // manifest-declared, pack-relative asset root
	DirName        string // the pack's AssetLoc.PackID / IO directory name
}

type packManifestDoc struct {
	ID          string `yaml:"id"`
	Version     string `yaml:"version"`
	GameVersion string `yaml:"game_version"`
	Root        string `yaml:"root"`
}

func parsePackManifest(bytes []byte) (*PackSpec, error) {
	var doc packManifestDoc
	if err := yaml.Unmarshal(bytes, &doc); err != nil {
		return nil, fmt.Errorf("%w: pack.yaml: %v", ErrParse, err)
	}
	id, err := parseLabeledId(doc.ID)
	if err != nil {
		return nil, err
	}
	if !semver.IsValid(canonicalSemver(doc.Version)) {
		return nil, fmt.Errorf("%w: pack.yaml: invalid version %q", ErrParse, doc.Version)
	}
	return &PackSpec{
		ID:             id,
		Version:        doc.Version,
		GameVersionReq: doc.GameVersion,
		RootPath:       doc.Root,
	}, nil
}

// canonicalSemver prefixes a bare "1.2.3" with "v" so it satisfies
// golang.org/x/mod/semver's required "vMAJOR.MINOR.PATCH" form; pack
// manifests themselves use the bare form, matching spec.md's examples.
func canonicalSemver(v string) string {
	v = strings.TrimPrefix(v, "^")
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

// packCompatible reports whether gameVersion satisfies req. req is either an
// exact version ("1.4.0") or a caret range ("^1.2.0", meaning >=1.2.0 and
// <2.0.0, or <1.3.0 if major is 0). No pack manifest library in the
// retrieval pack implements caret ranges, so this ~20-line matcher is
// hand-rolled on top of semver.Compare (see DESIGN.md).
func packCompatible(gameVersion, req string) bool {
	gv := canonicalSemver(gameVersion)
	if !semver.IsValid(gv) {
		return false
	}
	if !strings.HasPrefix(req, "^") {
		return semver.Compare(gv, canonicalSemver(req)) == 0
	}
	base := canonicalSemver(req)
	if !semver.IsValid(base) {
		return false
	}
	if semver.Compare(gv, base) < 0 {
		return false
	}
	upper := caretUpperBound(base)
	return semver.Compare(gv, upper) < 0
}

// caretUpperBound computes the first version a caret range excludes:
// ^1.2.3 -> v2.0.0, ^0.2.3 -> v0.3.0, ^0.0.3 -> v0.0.4.
func caretUpperBound(v string) string {
	major, minor, patch := parseSemverParts(v)
	switch {
	case major != 0:
		return fmt.Sprintf("v%d.0.0", major+1)
	case minor != 0:
		return fmt.Sprintf("v0.%d.0", minor+1)
	default:
		return fmt.Sprintf("v0.0.%d", patch+1)
	}
}

func parseSemverParts(v string) (major, minor, patch int) {
	v = strings.TrimPrefix(v, "v")
	v = strings.SplitN(v, "-", 2)[0]
	v = strings.SplitN(v, "+", 2)[0]
	parts := strings.SplitN(v, ".", 3)
	major = atoiSafe(parts, 0)
	minor = atoiSafe(parts, 1)
	patch = atoiSafe(parts, 2)
	return
}

func atoiSafe(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, _ := strconv.Atoi(parts[i])
	return n
}
