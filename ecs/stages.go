package ecs

import "fmt"

// StageLabel is an interned string identity for a stage, so insertion
// operators resolve stages by stable identity rather than slice index.
type StageLabel string

// Default core stage labels, matching SPEC_FULL.md §4.6's five-stage
// pipeline.
const (
	First      StageLabel = "first"
	PreUpdate  StageLabel = "pre_update"
	Update     StageLabel = "update"
	PostUpdate StageLabel = "post_update"
	Last       StageLabel = "last"
)

// Stage holds an ordered list of systems that run sequentially, followed by
// a drain of the CommandQueue resource.
type Stage struct {
	Label   StageLabel
	Systems []System
}

// Stages is an ordered collection of labeled Stages, grounded on the
// teacher's internal/clockpro ring-list traversal idiom generalized from a
// circular eviction ring to a linear, growable ordered list.
type Stages struct {
	order []*Stage
}

// NewStages constructs the default five-stage pipeline.
func NewStages() *Stages {
	s := &Stages{}
	for _, label := range []StageLabel{First, PreUpdate, Update, PostUpdate, Last} {
		s.order = append(s.order, &Stage{Label: label})
	}
	return s
}

func (s *Stages) indexOf(label StageLabel) int {
	for i, st := range s.order {
		if st.Label == label {
			return i
		}
	}
	return -1
}

// AddSystem appends sys to the named stage's system list, panicking if the
// stage doesn't exist.
func (s *Stages) AddSystem(label StageLabel, sys System) {
	i := s.indexOf(label)
	if i < 0 {
		panic(fmt.Sprintf("bones/ecs: unknown stage %q", label))
	}
	s.order[i].Systems = append(s.order[i].Systems, sys)
}

// InsertBefore inserts a new, empty stage labeled newLabel immediately
// before the stage labeled at.
func (s *Stages) InsertBefore(at StageLabel, newLabel StageLabel) {
	i := s.indexOf(at)
	if i < 0 {
		panic(fmt.Sprintf("bones/ecs: unknown stage %q", at))
	}
	s.insertAt(i, newLabel)
}

// InsertAfter inserts a new, empty stage labeled newLabel immediately after
// the stage labeled at.
func (s *Stages) InsertAfter(at StageLabel, newLabel StageLabel) {
	i := s.indexOf(at)
	if i < 0 {
		panic(fmt.Sprintf("bones/ecs: unknown stage %q", at))
	}
	s.insertAt(i+1, newLabel)
}

func (s *Stages) insertAt(i int, label StageLabel) {
	st := &Stage{Label: label}
	s.order = append(s.order, nil)
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = st
}

// CommandQueue is a FIFO of one-shot systems queued by user code mid-stage,
// drained after the stage's declared systems run. Installed as a World
// resource by Initialize.
type CommandQueue struct {
	pending []System
}

// Push enqueues sys to run at the end of the current stage's drain pass.
func (q *CommandQueue) Push(sys System) { q.pending = append(q.pending, sys) }

func (q *CommandQueue) drain() []System {
	out := q.pending
	q.pending = nil
	return out
}

// Initialize installs a fresh CommandQueue resource if one isn't already
// present, matching the source's Stages::initialize.
func (s *Stages) Initialize(w *World) {
	if !Has[*CommandQueue](w.Resources) {
		Insert(w.Resources, &CommandQueue{})
	}
}

// Run executes every stage in order: each stage's systems run sequentially,
// then its CommandQueue is drained, running (and initializing) each queued
// system against the same world. Commands queued while draining are
// processed in the same drain pass, matching SPEC_FULL.md §4.6.
func (s *Stages) Run(w *World) error {
	s.Initialize(w)
	for _, st := range s.order {
		for _, sys := range st.Systems {
			if err := sys.run(w); err != nil {
				return fmt.Errorf("bones/ecs: stage %q: %w", st.Label, err)
			}
		}
		if err := s.drainCommands(w); err != nil {
			return err
		}
	}
	return nil
}

func (s *Stages) drainCommands(w *World) error {
	queue := Get[*CommandQueue](w.Resources)
	for {
		pending := queue.drain()
		if len(pending) == 0 {
			return nil
		}
		for _, sys := range pending {
			if err := sys.run(w); err != nil {
				return fmt.Errorf("bones/ecs: command queue: %w", err)
			}
		}
	}
}
