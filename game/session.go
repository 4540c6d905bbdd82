package game

import "github.com/Voskan/bones/ecs"

// Session pairs a World, a Stages pipeline, and a Runner under a Priority
// and visibility pair, matching spec.md §4.7's "(World, Stages, runner,
// priority, active/visible flags)".
type Session struct {
	Key      Key
	World    *ecs.World
	Stages   *ecs.Stages
	Runner   Runner
	Priority int
	Active   bool
	Visible  bool
}

// NewSession constructs a Session with a fresh World and the default
// five-stage pipeline. A nil runner defaults to DefaultRunner.
func NewSession(key Key, runner Runner) *Session {
	if runner == nil {
		runner = DefaultRunner{}
	}
	return &Session{
		Key:     key,
		World:   ecs.NewWorld(),
		Stages:  ecs.NewStages(),
		Runner:  runner,
		Active:  true,
		Visible: true,
	}
}
