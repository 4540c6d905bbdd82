package game

import (
	"time"

	"github.com/Voskan/bones/ecs"
)

// Runner drives one Session's systems for a single Game.Step call. Swapped
// independently of session storage so alternative cadences (fixed
// timestep, rollback replay) never touch World/Stages wiring.
type Runner interface {
	Run(w *ecs.World, stages *ecs.Stages) error
}

// DefaultRunner initializes and runs stages exactly once per Game.Step,
// then maintains the world (dropping killed entities' components).
type DefaultRunner struct{}

func (DefaultRunner) Run(w *ecs.World, stages *ecs.Stages) error {
	stages.Initialize(w)
	if err := stages.Run(w); err != nil {
		return err
	}
	w.Maintain()
	return nil
}

// RunnerFunc adapts a plain function to the Runner interface, the same
// pattern as http.HandlerFunc.
type RunnerFunc func(w *ecs.World, stages *ecs.Stages) error

func (f RunnerFunc) Run(w *ecs.World, stages *ecs.Stages) error { return f(w, stages) }

const defaultHistoryLen = 4

// FixedTimestepRunner accumulates wall-clock time between Game.Step calls
// and runs stages zero or more times to catch up to a fixed-size dt,
// grounded on internal/genring's generation-rotation cadence: genring
// rotates a fixed ring of time-bounded generations to reclaim memory in
// O(1); FixedTimestepRunner rotates the same fixed-size ring to smooth
// wall-clock jitter instead, recording each frame's elapsed time into the
// next ring slot rather than allocating a new arena generation.
type FixedTimestepRunner struct {
	dt               time.Duration
	maxStepsPerFrame int
	accumulator      time.Duration
	lastStep         time.Time

	history    [defaultHistoryLen]time.Duration
	historyIdx int
}

// NewFixedTimestepRunner constructs a runner that steps stages every dt of
// simulated time, catching up at most maxStepsPerFrame times per call to
// Run (beyond that, remaining debt is discarded rather than spiraling).
func NewFixedTimestepRunner(dt time.Duration, maxStepsPerFrame int) *FixedTimestepRunner {
	if dt <= 0 {
		panic("bones/game: dt must be positive")
	}
	if maxStepsPerFrame <= 0 {
		maxStepsPerFrame = 5
	}
	return &FixedTimestepRunner{dt: dt, maxStepsPerFrame: maxStepsPerFrame}
}

func (r *FixedTimestepRunner) Run(w *ecs.World, stages *ecs.Stages) error {
	now := time.Now()
	var elapsed time.Duration
	if !r.lastStep.IsZero() {
		elapsed = now.Sub(r.lastStep)
	}
	r.lastStep = now
	r.history[r.historyIdx] = elapsed
	r.historyIdx = (r.historyIdx + 1) % len(r.history)
	r.accumulator += elapsed

	steps := 0
	for r.accumulator >= r.dt && steps < r.maxStepsPerFrame {
		stages.Initialize(w)
		if err := stages.Run(w); err != nil {
			return err
		}
		w.Maintain()
		r.accumulator -= r.dt
		steps++
	}
	if steps == r.maxStepsPerFrame {
		// Debt beyond maxStepsPerFrame is dropped rather than accumulated
		// indefinitely, the fixed-timestep analogue of genring's eviction:
		// old, unrecoverable state is discarded instead of retained forever.
		r.accumulator = 0
	}
	return nil
}

// AverageFrameTime returns the mean of the last few recorded Run intervals,
// for diagnostics (e.g. a debug snapshot endpoint).
func (r *FixedTimestepRunner) AverageFrameTime() time.Duration {
	var total time.Duration
	for _, h := range r.history {
		total += h
	}
	return total / time.Duration(len(r.history))
}
