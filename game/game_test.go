package game_test

import (
	"sync"
	"testing"
	"time"

	"github.com/Voskan/bones/ecs"
	"github.com/Voskan/bones/game"
)

func TestGameStepPriorityOrder(t *testing.T) {
	g := game.NewGame()

	var mu sync.Mutex
	var order []string
	recordingRunner := func(name string) game.Runner {
		return game.RunnerFunc(func(w *ecs.World, stages *ecs.Stages) error {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return game.DefaultRunner{}.Run(w, stages)
		})
	}

	ui := game.NewSession(game.Key("ui"), recordingRunner("ui"))
	ui.Priority = 10
	world := game.NewSession(game.Key("world"), recordingRunner("world"))
	world.Priority = 0

	g.InsertSession(ui)
	g.InsertSession(world)

	if err := g.Step(nil); err != nil {
		t.Fatalf("Step: %v", err)
	}

	mu.Lock()
	got := append([]string(nil), order...)
	mu.Unlock()

	want := []string{"world", "ui"}
	if len(got) != len(want) {
		t.Fatalf("order = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestSessionsResourceExcludesSelf(t *testing.T) {
	g := game.NewGame()

	var mu sync.Mutex
	var sawSelf bool
	var peerCount int

	checkingRunner := func(key game.Key) game.Runner {
		return game.RunnerFunc(func(w *ecs.World, stages *ecs.Stages) error {
			sessions, ok := ecs.GetOk[game.Sessions](w.Resources)
			if !ok {
				t.Fatalf("Sessions resource missing during step")
			}
			mu.Lock()
			if _, present := sessions[key]; present {
				sawSelf = true
			}
			peerCount = len(sessions)
			mu.Unlock()
			return game.DefaultRunner{}.Run(w, stages)
		})
	}

	a := game.NewSession(game.Key("a"), checkingRunner(game.Key("a")))
	b := game.NewSession(game.Key("b"), checkingRunner(game.Key("b")))
	g.InsertSession(a)
	g.InsertSession(b)

	if err := g.Step(nil); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if sawSelf {
		t.Fatalf("a session observed itself in its own Sessions resource")
	}
	if peerCount != 1 {
		t.Fatalf("peerCount = %d, want 1", peerCount)
	}
	if _, ok := g.Session(game.Key("a")); !ok {
		t.Fatalf("session a not reinserted after Step")
	}
	if _, ok := g.Session(game.Key("b")); !ok {
		t.Fatalf("session b not reinserted after Step")
	}
}

func TestGameStepSkipsInactiveSessions(t *testing.T) {
	g := game.NewGame()

	var steps int
	runner := game.RunnerFunc(func(w *ecs.World, stages *ecs.Stages) error {
		steps++
		return game.DefaultRunner{}.Run(w, stages)
	})

	s := game.NewSession(game.Key("paused"), runner)
	s.Active = false
	g.InsertSession(s)

	if err := g.Step(nil); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if steps != 0 {
		t.Fatalf("steps = %d, want 0 for an inactive session", steps)
	}
	if _, ok := g.Session(game.Key("paused")); !ok {
		t.Fatalf("inactive session must remain registered")
	}
}

func TestGameStepAppliesInputBeforeRunner(t *testing.T) {
	type inputMarker struct{ Value int }

	g := game.NewGame()
	var observed int
	s := game.NewSession(game.Key("main"), game.RunnerFunc(func(w *ecs.World, stages *ecs.Stages) error {
		observed = ecs.Get[inputMarker](w.Resources).Value
		return game.DefaultRunner{}.Run(w, stages)
	}))
	g.InsertSession(s)

	err := g.Step(func(w *ecs.World) {
		ecs.Insert(w.Resources, inputMarker{Value: 42})
	})
	if err != nil {
		t.Fatalf("Step: %v", err)
	}
	if observed != 42 {
		t.Fatalf("observed = %d, want 42", observed)
	}
}

func TestFixedTimestepRunnerCatchesUp(t *testing.T) {
	r := game.NewFixedTimestepRunner(10*time.Millisecond, 10)
	w := ecs.NewWorld()
	stages := ecs.NewStages()

	var steps int
	stages.AddSystem(ecs.Update, ecs.System0(func(w *ecs.World) error {
		steps++
		return nil
	}))

	// Prime lastStep; the first call never has a prior sample to diff
	// against, so it must not itself run stages.
	if err := r.Run(w, stages); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if steps != 0 {
		t.Fatalf("steps = %d after priming call, want 0", steps)
	}

	time.Sleep(35 * time.Millisecond)
	if err := r.Run(w, stages); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if steps < 3 {
		t.Fatalf("steps = %d, want at least 3 after 35ms at a 10ms dt", steps)
	}
}

func TestFixedTimestepRunnerCapsStepsPerFrame(t *testing.T) {
	r := game.NewFixedTimestepRunner(time.Millisecond, 2)
	w := ecs.NewWorld()
	stages := ecs.NewStages()

	var steps int
	stages.AddSystem(ecs.Update, ecs.System0(func(w *ecs.World) error {
		steps++
		return nil
	}))

	if err := r.Run(w, stages); err != nil {
		t.Fatalf("Run: %v", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := r.Run(w, stages); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if steps != 2 {
		t.Fatalf("steps = %d, want exactly the maxStepsPerFrame cap of 2", steps)
	}
}
