package game

import (
	"fmt"
	"sort"
	"sync"

	"github.com/Voskan/bones/asset"
	"github.com/Voskan/bones/ecs"
)

// Sessions is the resource a session's World sees during its own Step:
// every other session currently registered with the Game, keyed the same
// way Game itself keys them. The stepping session is never present in its
// own Sessions resource (SPEC_FULL.md §4.7).
type Sessions map[Key]*Session

// Game owns a named set of Sessions and an optional shared asset server
// injected into each session's World on first step.
type Game struct {
	mu          sync.Mutex
	sessions    map[Key]*Session
	assetServer *asset.Server
}

// NewGame constructs an empty Game.
func NewGame() *Game {
	return &Game{sessions: make(map[Key]*Session)}
}

// SetAssetServer installs the server injected into every session's World as
// a shared *asset.Server resource, first time that session steps.
func (g *Game) SetAssetServer(s *asset.Server) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.assetServer = s
}

// InsertSession registers s, replacing any existing session under the same
// Key.
func (g *Game) InsertSession(s *Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[s.Key] = s
}

// RemoveSession unregisters key, if present.
func (g *Game) RemoveSession(key Key) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.sessions, key)
}

// Session returns the registered session for key, if any.
func (g *Game) Session(key Key) (*Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	s, ok := g.sessions[key]
	return s, ok
}

// Keys returns every registered session key, in no particular order.
func (g *Game) Keys() []Key {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Key, 0, len(g.sessions))
	for k := range g.sessions {
		out = append(out, k)
	}
	return out
}

// Step runs one frame: active sessions are stepped in ascending Priority
// order (ties broken by original map iteration order, stabilized by
// sort.SliceStable). For each active session this:
//  1. removes the session from the map,
//  2. injects the shared *asset.Server resource if absent,
//  3. invokes applyInput against the session's World,
//  4. installs the remaining sessions as a Sessions resource,
//  5. runs the session's Runner,
//  6. removes the Sessions resource,
//  7. reinserts the session.
//
// This guarantees no session ever observes itself in its own Sessions
// resource (SPEC_FULL.md §4.7).
func (g *Game) Step(applyInput func(w *ecs.World)) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	keys := make([]Key, 0, len(g.sessions))
	for k, s := range g.sessions {
		if s.Active {
			keys = append(keys, k)
		}
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return g.sessions[keys[i]].Priority < g.sessions[keys[j]].Priority
	})

	for _, k := range keys {
		sess := g.sessions[k]
		delete(g.sessions, k)

		if g.assetServer != nil && !ecs.Has[*asset.Server](sess.World.Resources) {
			ecs.Insert(sess.World.Resources, g.assetServer)
		}
		if applyInput != nil {
			applyInput(sess.World)
		}

		peers := make(Sessions, len(g.sessions))
		for pk, ps := range g.sessions {
			peers[pk] = ps
		}
		ecs.Insert(sess.World.Resources, peers)

		err := sess.Runner.Run(sess.World, sess.Stages)

		ecs.Remove[Sessions](sess.World.Resources)
		g.sessions[k] = sess

		if err != nil {
			return fmt.Errorf("bones/game: session %q: %w", k, err)
		}
	}
	return nil
}
