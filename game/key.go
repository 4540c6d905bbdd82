package game

// Key names a Session within a Game. The source interns session keys as
// small string ids; Go's strings are already cheap to compare and hash as
// map keys, so Key is a plain string rather than a separate interning
// table (see DESIGN.md).
type Key string
