package asset

import (
	"encoding/hex"

	"lukechampine.com/blake3"
)

// Cid is a content id: blake3(bytes || dep1Cid || dep2Cid || ...), computed
// post-order over the dependency graph once every dependency's Cid is
// known. Chosen over the teacher's cespare/xxhash/v2 (a fast keyed hash
// meant for in-memory hash tables) because a Cid is a stable cross-process
// content identifier, not a lookup key.
type Cid [32]byte

func (c Cid) String() string { return hex.EncodeToString(c[:]) }

// IsZero reports whether c is the zero value (a Cid not yet computed).
func (c Cid) IsZero() bool { return c == Cid{} }

// computeCid hashes bytes followed by each dependency Cid in order.
func computeCid(bytes []byte, deps []Cid) Cid {
	h := blake3.New(32, nil)
	h.Write(bytes)
	for _, d := range deps {
		h.Write(d[:])
	}
	var out Cid
	copy(out[:], h.Sum(nil))
	return out
}
