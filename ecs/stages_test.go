package ecs_test

import (
	"reflect"
	"testing"

	"github.com/Voskan/bones/ecs"
)

func TestStagesDrainCommandsInEnqueueOrder(t *testing.T) {
	stages := ecs.NewStages()
	var order []string

	sys := ecs.System0(func(w *ecs.World) error {
		order = append(order, "system")
		queue := ecs.Get[*ecs.CommandQueue](w.Resources)
		queue.Push(ecs.System0(func(w *ecs.World) error {
			order = append(order, "cmd_a")
			return nil
		}))
		queue.Push(ecs.System0(func(w *ecs.World) error {
			order = append(order, "cmd_b")
			q2 := ecs.Get[*ecs.CommandQueue](w.Resources)
			q2.Push(ecs.System0(func(w *ecs.World) error {
				order = append(order, "cmd_c")
				return nil
			}))
			return nil
		}))
		return nil
	})
	stages.AddSystem(ecs.Update, sys)

	w := ecs.NewWorld()
	if err := stages.Run(w); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"system", "cmd_a", "cmd_b", "cmd_c"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}

func TestStagesAddSystemUnknownStagePanics(t *testing.T) {
	stages := ecs.NewStages()
	defer func() {
		if recover() == nil {
			t.Fatalf("AddSystem should panic for an unknown stage label")
		}
	}()
	stages.AddSystem(ecs.StageLabel("nonexistent"), ecs.System0(func(w *ecs.World) error { return nil }))
}

func TestStagesInsertBeforeAndAfter(t *testing.T) {
	stages := ecs.NewStages()
	stages.InsertBefore(ecs.Update, "pre_physics")
	stages.InsertAfter(ecs.Update, "post_physics")

	var order []string
	record := func(label string) ecs.System {
		return ecs.System0(func(w *ecs.World) error {
			order = append(order, label)
			return nil
		})
	}
	stages.AddSystem("pre_physics", record("pre_physics"))
	stages.AddSystem(ecs.Update, record("update"))
	stages.AddSystem("post_physics", record("post_physics"))

	w := ecs.NewWorld()
	if err := stages.Run(w); err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []string{"pre_physics", "update", "post_physics"}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
}
