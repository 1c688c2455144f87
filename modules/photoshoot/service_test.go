package photoshoot

import (
	"context"
	"errors"
	"testing"
	"time"

	"packshot-studio-server/modules/analysis"
	"packshot-studio-server/modules/common/config"
	"packshot-studio-server/modules/common/imaging"
	commonmodel "packshot-studio-server/modules/common/model"
	"packshot-studio-server/modules/progress"
	"packshot-studio-server/modules/refine"
	replicateapi "packshot-studio-server/modules/replicate"
)

// 시드 출력은 data URL로 - 파이프라인이 QA 입력으로 다시 내려받을 때 네트워크 불필요
const seedDataURL = "data:image/png;base64,c2VlZA=="

type stubAnalyzer struct {
	result *analysis.AnalysisResult
	err    error
}

func (s *stubAnalyzer) Analyze(ctx context.Context, req *analysis.AnalyzeRequest) (*analysis.AnalysisResult, error) {
	return s.result, s.err
}

type stubRefiner struct {
	prompts []refine.RefinedPrompt
	err     error
}

func (s *stubRefiner) Refine(ctx context.Context, req *refine.RefineRequest) ([]refine.RefinedPrompt, error) {
	return s.prompts, s.err
}

func newPipelineService(mock *replicateapi.MockClient, analyzer Analyzer, refiner Refiner) (*Service, *RunManager) {
	cfg := &config.Config{
		FusionModel: "fusion/model",
		TextModel:   "text/model",
		TaskDelay:   time.Millisecond,
	}
	runs := NewRunManager()
	return NewService(cfg, mock, analyzer, refiner, nil, runs, nil), runs
}

func pipelineRun(runs *RunManager) *Run {
	return runs.Create(RunRequest{
		SubjectImages: []imaging.ImageInput{{Base64: "c3ViamVjdA==", MimeType: "image/png"}},
		Type:          analysis.TypeProduct,
		Pack:          commonmodel.PackAll,
	})
}

func fullPromptSet() []refine.RefinedPrompt {
	var prompts []refine.RefinedPrompt
	for _, title := range refine.ExpectedTitles(false) {
		prompts = append(prompts, refine.RefinedPrompt{Title: title, Prompt: "prompt for " + title})
	}
	return prompts
}

func stepByID(state progress.State, id string) *progress.Step {
	for i := range state.Steps {
		if state.Steps[i].ID == id {
			return &state.Steps[i]
		}
	}
	return nil
}

func TestRunPipelineCompletes(t *testing.T) {
	mock := replicateapi.NewMockClient()
	mock.DefaultURL = seedDataURL
	service, runs := newPipelineService(mock,
		&stubAnalyzer{result: &analysis.AnalysisResult{ItemAnalysis: "a", QAChecklist: "q", InitialPrompt: "p"}},
		&stubRefiner{prompts: fullPromptSet()},
	)
	run := pipelineRun(runs)

	service.RunPipeline(context.Background(), run.ID)

	got, _ := runs.Get(run.ID)
	if got.Status != RunCompleted {
		t.Fatalf("expected completed run, got %s (%s)", got.Status, got.ErrorMessage)
	}
	if got.SeedImageURL != seedDataURL {
		t.Errorf("seed URL not recorded: %q", got.SeedImageURL)
	}
	if len(got.Tasks) != 8 {
		t.Fatalf("expected 8 tasks for full pack, got %d", len(got.Tasks))
	}
	if countByStatus(got.Tasks, TaskSucceeded) != 8 {
		t.Errorf("all tasks must succeed, got %d", countByStatus(got.Tasks, TaskSucceeded))
	}

	state := runs.Tracker(run.ID).Snapshot()
	if !state.IsComplete {
		t.Error("tracker must be complete after a successful run")
	}
}

func TestRunPipelineRefineFailureKeepsPriorArtifacts(t *testing.T) {
	mock := replicateapi.NewMockClient()
	mock.DefaultURL = seedDataURL
	service, runs := newPipelineService(mock,
		&stubAnalyzer{result: &analysis.AnalysisResult{ItemAnalysis: "cotton tee", QAChecklist: "q", InitialPrompt: "p"}},
		&stubRefiner{err: errors.New("refinement blew up")},
	)
	run := pipelineRun(runs)

	service.RunPipeline(context.Background(), run.ID)

	got, _ := runs.Get(run.ID)
	if got.Status != RunFailed {
		t.Fatalf("expected failed run, got %s", got.Status)
	}
	// 앞 스테이지 산출물은 보존됨
	if got.Analysis == nil || got.Analysis.ItemAnalysis != "cotton tee" {
		t.Error("analysis result must survive a refine failure")
	}
	if got.SeedImageURL != seedDataURL {
		t.Error("seed URL must survive a refine failure")
	}
	// 이후 스테이지는 실행되지 않음
	if len(got.Prompts) != 0 || len(got.Tasks) != 0 {
		t.Error("downstream stages must not run after a refine failure")
	}
	if len(mock.Calls()) != 1 {
		t.Errorf("only the seed generation must dispatch, got %d calls", len(mock.Calls()))
	}

	state := runs.Tracker(run.ID).Snapshot()
	if state.IsComplete {
		t.Error("tracker must not be complete")
	}
	if step := stepByID(state, progress.StepRefinement); step == nil || step.Status != progress.StatusError {
		t.Error("refinement step must be marked error")
	}
}

func TestRunPipelineAnchorFailureFailsRun(t *testing.T) {
	mock := replicateapi.NewMockClient()
	// 호출 순서: 시드 성공, 앵커 실패
	mock.Script = []replicateapi.MockOutcome{
		{URL: seedDataURL},
		{Err: errors.New("anchor render rejected")},
	}
	service, runs := newPipelineService(mock,
		&stubAnalyzer{result: &analysis.AnalysisResult{ItemAnalysis: "a", QAChecklist: "q", InitialPrompt: "p"}},
		&stubRefiner{prompts: fullPromptSet()},
	)
	run := pipelineRun(runs)

	service.RunPipeline(context.Background(), run.ID)

	got, _ := runs.Get(run.ID)
	if got.Status != RunFailed {
		t.Fatalf("anchor failure must fail the run, got %s", got.Status)
	}
	if got.ErrorMessage == "" {
		t.Error("run must carry the anchor error message")
	}

	// 형제들은 pending으로 남고 완료로 둔갑하지 않음
	anchorIdx := AnchorIndex(got.Tasks)
	for i, task := range got.Tasks {
		if i == anchorIdx {
			if task.Status != TaskFailed {
				t.Errorf("anchor must be failed, got %s", task.Status)
			}
			continue
		}
		if task.Status != TaskPending {
			t.Errorf("sibling %q must stay pending, got %s", task.Title, task.Status)
		}
	}

	state := runs.Tracker(run.ID).Snapshot()
	if state.IsComplete {
		t.Error("tracker must not be complete after anchor failure")
	}
	if step := stepByID(state, progress.StepLifestyle); step == nil || step.Status == progress.StatusCompleted {
		t.Error("never-run lifestyle step must not be marked completed")
	}
}

func TestRunPipelineSiblingFailuresStillComplete(t *testing.T) {
	mock := replicateapi.NewMockClient()
	mock.Script = []replicateapi.MockOutcome{{URL: seedDataURL}}
	service, runs := newPipelineService(mock,
		&stubAnalyzer{result: &analysis.AnalysisResult{ItemAnalysis: "a", QAChecklist: "q", InitialPrompt: "p"}},
		&stubRefiner{prompts: fullPromptSet()},
	)
	run := pipelineRun(runs)

	// 앵커만 성공시키고 나머지는 전부 실패
	mock.Script = append(mock.Script, replicateapi.MockOutcome{URL: "https://x/anchor.png"})
	for i := 0; i < 7; i++ {
		mock.Script = append(mock.Script, replicateapi.MockOutcome{Err: errors.New("render failed")})
	}

	service.RunPipeline(context.Background(), run.ID)

	got, _ := runs.Get(run.ID)
	if got.Status != RunCompleted {
		t.Fatalf("anchor success with sibling failures still completes the run, got %s", got.Status)
	}
	if countByStatus(got.Tasks, TaskFailed) != 7 {
		t.Errorf("expected 7 failed siblings, got %d", countByStatus(got.Tasks, TaskFailed))
	}
}

func TestRunPipelineAnalyzeFailure(t *testing.T) {
	mock := replicateapi.NewMockClient()
	service, runs := newPipelineService(mock,
		&stubAnalyzer{err: errors.New("vision model unavailable")},
		&stubRefiner{prompts: fullPromptSet()},
	)
	run := pipelineRun(runs)

	service.RunPipeline(context.Background(), run.ID)

	got, _ := runs.Get(run.ID)
	if got.Status != RunFailed {
		t.Fatalf("expected failed run, got %s", got.Status)
	}
	if len(mock.Calls()) != 0 {
		t.Error("no generation must dispatch after analysis failure")
	}
	state := runs.Tracker(run.ID).Snapshot()
	if step := stepByID(state, progress.StepAnalyze); step == nil || step.Status != progress.StatusError {
		t.Error("analyze step must be marked error")
	}
}
