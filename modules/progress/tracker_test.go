package progress

import (
	"sync"
	"testing"

	commonmodel "packshot-studio-server/modules/common/model"
)

func testSteps() []Step {
	return []Step{
		{ID: "analyze", Label: "Analyzing", EstimatedDuration: 10},
		{ID: "generate", Label: "Generating", EstimatedDuration: 60},
		{ID: "finalize", Label: "Finalizing", EstimatedDuration: 5},
	}
}

func stepByID(t *testing.T, state State, id string) Step {
	t.Helper()
	for _, s := range state.Steps {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("step %s not found", id)
	return Step{}
}

func TestStartActivatesFirstStep(t *testing.T) {
	tracker := NewTracker()
	tracker.Start(testSteps())
	defer tracker.Reset()

	state := tracker.Snapshot()
	if state.CurrentStepID != "analyze" {
		t.Errorf("expected analyze active, got %s", state.CurrentStepID)
	}
	if stepByID(t, state, "analyze").Status != StatusActive {
		t.Error("first step must be active")
	}
	if stepByID(t, state, "generate").Status != StatusPending {
		t.Error("later steps must be pending")
	}
}

func TestAdvanceCompletedMovesToNext(t *testing.T) {
	tracker := NewTracker()
	tracker.Start(testSteps())
	defer tracker.Reset()

	tracker.Advance("analyze", StatusCompleted, "")

	state := tracker.Snapshot()
	if stepByID(t, state, "analyze").Status != StatusCompleted {
		t.Error("analyze must be completed")
	}
	if stepByID(t, state, "generate").Status != StatusActive {
		t.Error("generate must auto-activate")
	}
	if state.CurrentStepID != "generate" {
		t.Errorf("current step must be generate, got %s", state.CurrentStepID)
	}
}

func TestAdvanceLastStepCompletesRun(t *testing.T) {
	tracker := NewTracker()
	tracker.Start(testSteps())

	tracker.Advance("analyze", StatusCompleted, "")
	tracker.Advance("generate", StatusCompleted, "")
	tracker.Advance("finalize", StatusCompleted, "")

	state := tracker.Snapshot()
	if !state.IsComplete {
		t.Error("run must be complete after last step")
	}
	if state.CurrentStepID != "" {
		t.Errorf("no current step expected, got %s", state.CurrentStepID)
	}
}

func TestAdvanceErrorStopsProgression(t *testing.T) {
	tracker := NewTracker()
	tracker.Start(testSteps())

	tracker.Advance("analyze", StatusError, "analysis blew up")

	state := tracker.Snapshot()
	step := stepByID(t, state, "analyze")
	if step.Status != StatusError {
		t.Error("step must be in error state")
	}
	if step.Error != "analysis blew up" {
		t.Errorf("error message must be recorded, got %q", step.Error)
	}
	if stepByID(t, state, "generate").Status != StatusPending {
		t.Error("error must not auto-advance to next step")
	}
	if state.IsComplete {
		t.Error("errored run must not be marked complete")
	}
}

func TestStatusNeverRegresses(t *testing.T) {
	tracker := NewTracker()
	tracker.Start(testSteps())
	defer tracker.Reset()

	tracker.Advance("analyze", StatusCompleted, "")
	// 완료된 단계를 다시 active로 되돌리려는 시도는 무시
	tracker.Advance("analyze", StatusActive, "")

	state := tracker.Snapshot()
	if stepByID(t, state, "analyze").Status != StatusCompleted {
		t.Error("completed step must never regress")
	}
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	tracker := NewTracker()

	var mu sync.Mutex
	var states []State
	unsubscribe := tracker.Subscribe(func(s State) {
		mu.Lock()
		states = append(states, s)
		mu.Unlock()
	})

	tracker.Start(testSteps())
	tracker.Advance("analyze", StatusCompleted, "")
	unsubscribe()
	tracker.Advance("generate", StatusCompleted, "")
	tracker.Reset()

	mu.Lock()
	defer mu.Unlock()
	if len(states) < 3 {
		t.Fatalf("expected at least 3 notifications, got %d", len(states))
	}

	// 구독자가 받은 스냅샷은 복사본이어야 함
	states[1].Steps[0].Status = "tampered"
	current := tracker.Snapshot()
	for _, s := range current.Steps {
		if s.Status == "tampered" {
			t.Error("subscriber snapshot must be a copy, not shared state")
		}
	}
}

func TestStepsForPackComposition(t *testing.T) {
	ids := func(steps []Step) []string {
		out := make([]string, len(steps))
		for i, s := range steps {
			out[i] = s.ID
		}
		return out
	}

	all := ids(StepsForPack(commonmodel.PackAll, false, 8))
	want := []string{StepAnalyze, StepQAGeneration, StepRefinement, StepStudioFront, StepStudioRest, StepLifestyle, StepFinalize}
	if len(all) != len(want) {
		t.Fatalf("expected %d steps for full pack, got %v", len(want), all)
	}
	for i := range want {
		if all[i] != want[i] {
			t.Errorf("step %d: expected %s, got %s", i, want[i], all[i])
		}
	}

	studio := ids(StepsForPack(commonmodel.PackStudio, false, 4))
	for _, id := range studio {
		if id == StepLifestyle {
			t.Error("studio pack must not include lifestyle step")
		}
	}

	lifestyle := ids(StepsForPack(commonmodel.PackLifestyle, false, 4))
	for _, id := range lifestyle {
		if id == StepStudioFront || id == StepStudioRest {
			t.Error("lifestyle pack must not include studio steps")
		}
	}

	marketing := ids(StepsForPack(commonmodel.PackAll, true, 12))
	found := false
	for _, id := range marketing {
		if id == StepMarketing {
			found = true
		}
	}
	if !found {
		t.Error("marketing flag must add the marketing step")
	}
}

func TestStepsForPackAlwaysStartPending(t *testing.T) {
	for _, step := range StepsForPack(commonmodel.PackAll, true, 12) {
		if step.Status != StatusPending {
			t.Errorf("step %s must start pending, got %s", step.ID, step.Status)
		}
	}
}
