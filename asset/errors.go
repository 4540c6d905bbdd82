package asset

import (
	"errors"
	"fmt"
)

// Sentinel error kinds surfaced by the asset server, matching SPEC_FULL.md
// §7's error table. Most are wrapped with contextual detail rather than
// returned bare; callers match with errors.Is.
var (
	// ErrIO wraps a failed Server.IO read.
	ErrIO = errors.New("bones/asset: io error")
	// ErrParse wraps a metadata deserialize failure (missing required field,
	// unknown schema, numeric range violation, malformed unicode).
	ErrParse = errors.New("bones/asset: parse error")
	// ErrDependencyMissing is returned when an "asset:" reference does not
	// resolve to any known location within the active packs.
	ErrDependencyMissing = errors.New("bones/asset: dependency missing")
	// ErrIncompatiblePack marks a pack whose GameVersionReq does not match
	// the server's configured game version.
	ErrIncompatiblePack = errors.New("bones/asset: incompatible pack")
	// ErrCycleDetected is returned when the dependency graph contains a
	// cycle that prevents CID computation from completing.
	ErrCycleDetected = errors.New("bones/asset: dependency cycle detected")
)

// LoadError aggregates every offender encountered during a single
// Server.LoadPacks call, matching spec.md §4.8's "collected and returned as
// a single error enumerating all offenders; partial successes preserved".
type LoadError struct {
	Offenses []Offense
}

// Offense is one failed asset or pack within a LoadPacks run.
type Offense struct {
	Loc AssetLoc
	Err error
}

func (e *LoadError) Error() string {
	if len(e.Offenses) == 1 {
		return fmt.Sprintf("bones/asset: load failed for %s: %v", e.Offenses[0].Loc, e.Offenses[0].Err)
	}
	return fmt.Sprintf("bones/asset: load failed for %d assets (first: %s: %v)",
		len(e.Offenses), e.Offenses[0].Loc, e.Offenses[0].Err)
}

func (e *LoadError) Unwrap() []error {
	out := make([]error, len(e.Offenses))
	for i, o := range e.Offenses {
		out[i] = o.Err
	}
	return out
}

// HasOffenses reports whether any offense was recorded.
func (e *LoadError) HasOffenses() bool { return e != nil && len(e.Offenses) > 0 }

// add appends an offense, lazily allocating the receiver slice.
func (e *LoadError) add(loc AssetLoc, err error) {
	e.Offenses = append(e.Offenses, Offense{Loc: loc, Err: err})
}
