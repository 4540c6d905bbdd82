package ecs

import "fmt"

// Entity identifies a row across every component store in a World. Index is
// reused once killed; Generation distinguishes the new occupant from any
// stale Entity values a caller may still be holding.
type Entity struct {
	Index      uint32
	Generation uint32
}

// String renders the entity as "index:generation" for logging.
func (e Entity) String() string {
	return fmt.Sprintf("%d:%d", e.Index, e.Generation)
}

// IsNil reports whether e is the zero Entity (never a valid allocation,
// since Entities.Create starts generations at 1).
func (e Entity) IsNil() bool { return e.Index == 0 && e.Generation == 0 }
