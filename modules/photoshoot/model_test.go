package photoshoot

import (
	"testing"

	commonmodel "packshot-studio-server/modules/common/model"
	"packshot-studio-server/modules/refine"
)

func TestClassifyTitle(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Studio Prompt - Front View", CategoryStudioFront},
		{"Studio Prompt - Back View", CategoryStudio},
		{"Studio Prompt - Side View", CategoryStudio},
		{"Studio Prompt - Close-up Detail", CategoryStudio},
		{"Lifestyle Prompt - Scene 1", CategoryLifestyle},
		{"Marketing Prompt - Concept 3", CategoryMarketing},
		{"FRONT angle shot", CategoryStudioFront}, // 대소문자 무시
		{"Something else entirely", CategoryStudio},
	}
	for _, tt := range tests {
		if got := ClassifyTitle(tt.title); got != tt.want {
			t.Errorf("ClassifyTitle(%q) = %s, want %s", tt.title, got, tt.want)
		}
	}
}

func allPrompts() []refine.RefinedPrompt {
	var prompts []refine.RefinedPrompt
	for _, title := range refine.ExpectedTitles(true) {
		prompts = append(prompts, refine.RefinedPrompt{Title: title, Prompt: "prompt for " + title})
	}
	return prompts
}

func TestNewTasksPackFiltering(t *testing.T) {
	prompts := allPrompts() // 4 studio + 4 lifestyle + 4 marketing

	all := NewTasks(prompts, commonmodel.PackAll)
	if len(all) != 12 {
		t.Errorf("all pack: expected 12 tasks, got %d", len(all))
	}

	studio := NewTasks(prompts, commonmodel.PackStudio)
	if len(studio) != 4 {
		t.Errorf("studio pack: expected 4 tasks, got %d", len(studio))
	}
	for _, task := range studio {
		if task.Category != CategoryStudioFront && task.Category != CategoryStudio {
			t.Errorf("studio pack leaked category %s", task.Category)
		}
	}

	lifestyle := NewTasks(prompts, commonmodel.PackLifestyle)
	if len(lifestyle) != 4 {
		t.Errorf("lifestyle pack: expected 4 tasks, got %d", len(lifestyle))
	}
}

func TestNewTasksDefaults(t *testing.T) {
	tasks := NewTasks(allPrompts(), commonmodel.PackAll)

	seen := make(map[string]bool)
	for _, task := range tasks {
		if task.ID == "" {
			t.Error("task must get a generated ID")
		}
		if seen[task.ID] {
			t.Errorf("duplicate task ID: %s", task.ID)
		}
		seen[task.ID] = true

		if task.AspectRatio != commonmodel.DefaultAspectRatio {
			t.Errorf("expected default aspect ratio, got %s", task.AspectRatio)
		}
		if task.Status != TaskPending {
			t.Errorf("new task must be pending, got %s", task.Status)
		}
		// 분류는 생성 시점에 한 번만 일어나고 필드에 고정됨
		if task.Category != ClassifyTitle(task.Title) {
			t.Errorf("category field must match classification of %q", task.Title)
		}
	}
}

func TestAnchorIndex(t *testing.T) {
	tasks := []GenerationTask{
		{Title: "Lifestyle Prompt - Scene 1"},
		{Title: "Studio Prompt - Front View"},
		{Title: "Studio Prompt - Back View"},
	}
	if got := AnchorIndex(tasks); got != 1 {
		t.Errorf("expected front-titled anchor at 1, got %d", got)
	}

	noFront := []GenerationTask{
		{Title: "Lifestyle Prompt - Scene 1"},
		{Title: "Studio Prompt - Back View"},
	}
	if got := AnchorIndex(noFront); got != 0 {
		t.Errorf("expected fallback anchor 0, got %d", got)
	}
}

func TestRunManagerTaskStatusForwardOnly(t *testing.T) {
	m := NewRunManager()
	run := m.Create(RunRequest{Type: "product", Pack: commonmodel.PackAll})

	m.Update(run.ID, func(r *Run) {
		r.Tasks = []GenerationTask{{ID: "t1", Title: "Studio Prompt - Front View", Status: TaskPending}}
	})

	m.UpdateTask(run.ID, "t1", TaskPatch{Status: StrPtr(TaskSucceeded), ResultImageURL: StrPtr("https://x/a.png")})
	// 완료 이후 generating으로 되돌리려는 시도는 무시
	m.UpdateTask(run.ID, "t1", TaskPatch{Status: StrPtr(TaskGenerating)})

	got, _ := m.Get(run.ID)
	if got.Tasks[0].Status != TaskSucceeded {
		t.Errorf("status regressed to %s", got.Tasks[0].Status)
	}

	// Force는 재시도 경로에서만 역행을 허용
	m.UpdateTask(run.ID, "t1", TaskPatch{Status: StrPtr(TaskGenerating), Force: true})
	got, _ = m.Get(run.ID)
	if got.Tasks[0].Status != TaskGenerating {
		t.Error("forced retry reset must apply")
	}
}

func TestRunManagerSnapshotIsolation(t *testing.T) {
	m := NewRunManager()
	run := m.Create(RunRequest{Type: "garment", Pack: commonmodel.PackStudio})

	m.Update(run.ID, func(r *Run) {
		r.Tasks = []GenerationTask{{ID: "t1", Status: TaskPending}}
	})

	snap, _ := m.Get(run.ID)
	snap.Tasks[0].Status = "tampered"

	fresh, _ := m.Get(run.ID)
	if fresh.Tasks[0].Status == "tampered" {
		t.Error("Get must return an isolated copy")
	}
}
