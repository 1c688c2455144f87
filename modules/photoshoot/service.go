package photoshoot

import (
	"context"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"

	"packshot-studio-server/modules/analysis"
	"packshot-studio-server/modules/common/apperr"
	"packshot-studio-server/modules/common/config"
	"packshot-studio-server/modules/common/imaging"
	redisutil "packshot-studio-server/modules/common/redis"
	"packshot-studio-server/modules/history"
	"packshot-studio-server/modules/progress"
	"packshot-studio-server/modules/refine"
	replicateapi "packshot-studio-server/modules/replicate"
)

// Analyzer - 아이템 분석 스테이지
type Analyzer interface {
	Analyze(ctx context.Context, req *analysis.AnalyzeRequest) (*analysis.AnalysisResult, error)
}

// Refiner - QA 기반 프롬프트 정제 스테이지
type Refiner interface {
	Refine(ctx context.Context, req *refine.RefineRequest) ([]refine.RefinedPrompt, error)
}

// Service - 촬영 파이프라인 오케스트레이터
type Service struct {
	cfg      *config.Config
	client   replicateapi.Client
	analyzer Analyzer
	refiner  Refiner
	history  *history.Service // nil이면 보관 비활성화
	runs     *RunManager
	rdb      *redis.Client // nil이면 취소 플래그 비활성화
}

// NewService - 오케스트레이터 생성 (의존성 주입)
func NewService(
	cfg *config.Config,
	client replicateapi.Client,
	analyzer Analyzer,
	refiner Refiner,
	historySvc *history.Service,
	runs *RunManager,
	rdb *redis.Client,
) *Service {
	return &Service{
		cfg:      cfg,
		client:   client,
		analyzer: analyzer,
		refiner:  refiner,
		history:  historySvc,
		runs:     runs,
		rdb:      rdb,
	}
}

// Runs - 실행 매니저 접근자
func (s *Service) Runs() *RunManager {
	return s.runs
}

// RunPipeline - 전체 파이프라인 실행
// 분석 → 시드 생성 → QA/정제 → 배치 생성 → 보관 → 완료
// 각 스테이지 실패는 이후 스테이지를 중단하지만, 이미 만든 산출물은 실행 상태에 남음
func (s *Service) RunPipeline(ctx context.Context, runID string) {
	run, ok := s.runs.Get(runID)
	if !ok {
		log.Printf("❌ [Photoshoot] Run not found: %s", runID)
		return
	}

	tracker := s.runs.Tracker(runID)
	imageCount := expectedImageCount(run.Request.Pack, run.Request.IncludeMarketing)
	tracker.Start(progress.StepsForPack(run.Request.Pack, run.Request.IncludeMarketing, imageCount))

	s.runs.Update(runID, func(r *Run) { r.Status = RunRunning })
	log.Printf("🚀 [Photoshoot] Pipeline start: %s (type: %s, pack: %s)", runID, run.Request.Type, run.Request.Pack)

	// 1. 분석
	analysisResult, err := s.analyzer.Analyze(ctx, &analysis.AnalyzeRequest{
		SubjectImages:  run.Request.SubjectImages,
		BackgroundRefs: run.Request.BackgroundRefs,
		ModelRefs:      run.Request.ModelRefs,
		Type:           run.Request.Type,
	})
	if err != nil {
		s.failRun(runID, tracker, progress.StepAnalyze, err)
		return
	}
	s.runs.Update(runID, func(r *Run) { r.Analysis = analysisResult })
	tracker.Advance(progress.StepAnalyze, progress.StatusCompleted, "")

	// 2. 시드 이미지 생성 (피사체 조건부) - 실패 시 실행 중단
	model, input := s.buildGenerationInput(analysisResult.InitialPrompt, "1:1", run.SubjectDataURLs)
	seedURL, err := s.client.SubmitAndAwait(ctx, model, input)
	if err != nil {
		s.failRun(runID, tracker, progress.StepQAGeneration, err)
		return
	}
	s.runs.Update(runID, func(r *Run) { r.SeedImageURL = seedURL })
	tracker.Advance(progress.StepQAGeneration, progress.StatusCompleted, "")
	log.Printf("🌱 [Photoshoot] Seed image ready: %s", seedURL)

	// 3. QA + 프롬프트 정제 (시드 이미지를 다시 내려받아 QA 입력으로)
	qaImage, err := imaging.FetchAsInput(ctx, seedURL)
	if err != nil {
		s.failRun(runID, tracker, progress.StepRefinement, err)
		return
	}
	prompts, err := s.refiner.Refine(ctx, &refine.RefineRequest{
		SubjectImages:    run.Request.SubjectImages,
		QAImage:          qaImage,
		Analysis:         analysisResult,
		IncludeMarketing: run.Request.IncludeMarketing,
	})
	if err != nil {
		s.failRun(runID, tracker, progress.StepRefinement, err)
		return
	}
	s.runs.Update(runID, func(r *Run) { r.Prompts = prompts })
	tracker.Advance(progress.StepRefinement, progress.StatusCompleted, "")

	// 4. 태스크 생성 + 배치 실행
	// 매니저에는 복사본을 저장 - 배치가 쥔 로컬 슬라이스는 비공개로 유지하고
	// 공유 상태 변경은 전부 UpdateTask를 거침
	tasks := NewTasks(prompts, run.Request.Pack)
	s.runs.Update(runID, func(r *Run) { r.Tasks = append([]GenerationTask(nil), tasks...) })

	finished := s.GenerateBatch(ctx, runID, tasks, run.SubjectDataURLs)

	// 5. 성공 태스크 보관 (best-effort)
	s.archiveSucceeded(ctx, finished)

	// 6. 마무리
	if s.isCancelled(ctx, runID) {
		s.runs.Update(runID, func(r *Run) { r.Status = RunCanceled })
		tracker.Advance(progress.StepFinalize, progress.StatusError, "run cancelled")
		log.Printf("🛑 [Photoshoot] Pipeline cancelled: %s", runID)
		return
	}

	// 앵커 실패(또는 전원 실패)는 실행 실패 - 진행 단계를 완료 처리하지 않음
	if len(finished) > 0 {
		anchor := finished[AnchorIndex(finished)]
		if anchor.Status == TaskFailed || countByStatus(finished, TaskSucceeded) == 0 {
			msg := anchor.ErrorMessage
			if msg == "" {
				msg = "all generation tasks failed"
			}
			s.runs.Update(runID, func(r *Run) {
				r.Status = RunFailed
				r.ErrorMessage = msg
			})
			log.Printf("❌ [Photoshoot] Pipeline failed during generation: %s (%s)", runID, msg)
			return
		}
	}

	s.runs.Update(runID, func(r *Run) { r.Status = RunCompleted })
	tracker.Complete()
	log.Printf("🏁 [Photoshoot] Pipeline complete: %s (%d/%d tasks succeeded)",
		runID, countByStatus(finished, TaskSucceeded), len(finished))
}

// RetryTask - 실패한 태스크 1건 재시도 (피사체 + 시드 조건부)
func (s *Service) RetryTask(ctx context.Context, runID, taskID string) (*GenerationTask, error) {
	run, ok := s.runs.Get(runID)
	if !ok {
		return nil, apperr.Newf(apperr.Validation, "run not found: %s", runID)
	}

	var target *GenerationTask
	for i := range run.Tasks {
		if run.Tasks[i].ID == taskID {
			target = &run.Tasks[i]
			break
		}
	}
	if target == nil {
		return nil, apperr.Newf(apperr.Validation, "task not found: %s", taskID)
	}
	if target.Status != TaskFailed {
		return nil, apperr.Newf(apperr.Validation, "only failed tasks can be retried (status: %s)", target.Status)
	}

	log.Printf("🔁 [Photoshoot] Retrying task: %s", target.Title)

	refs := append([]string(nil), run.SubjectDataURLs...)
	if run.SeedImageURL != "" {
		refs = append(refs, run.SeedImageURL)
	}

	// 재시도는 상태를 새로 시작 (의도적 역행이므로 Force)
	s.runs.UpdateTask(runID, taskID, TaskPatch{Status: StrPtr(TaskGenerating), Force: true})
	retried := *target
	retried.Status = TaskGenerating

	model, input := s.buildGenerationInput(retried.Prompt, retried.AspectRatio, refs)
	url, err := s.client.SubmitAndAwait(ctx, model, input)
	if err != nil {
		s.runs.UpdateTask(runID, taskID, TaskPatch{Status: StrPtr(TaskFailed), ErrorMessage: StrPtr(err.Error())})
		retried.Status = TaskFailed
		retried.ErrorMessage = err.Error()
		return &retried, err
	}

	s.runs.UpdateTask(runID, taskID, TaskPatch{
		Status:         StrPtr(TaskSucceeded),
		ResultImageURL: StrPtr(url),
		ErrorMessage:   StrPtr(""),
	})
	retried.Status = TaskSucceeded
	retried.ResultImageURL = url
	retried.ErrorMessage = ""

	if s.history != nil {
		if err := s.history.Save(ctx, history.Entry{
			Prompt:      retried.Prompt,
			ImageURL:    url,
			Title:       retried.Title,
			AspectRatio: retried.AspectRatio,
		}); err != nil {
			log.Printf("⚠️ [Photoshoot] History save failed: %v", err)
		}
	}

	return &retried, nil
}

// Cancel - 실행 취소 플래그 설정
func (s *Service) Cancel(ctx context.Context, runID string) error {
	if _, ok := s.runs.Get(runID); !ok {
		return apperr.Newf(apperr.Validation, "run not found: %s", runID)
	}
	if s.rdb == nil {
		return fmt.Errorf("cancellation requires redis")
	}
	return redisutil.SetJobCancelled(ctx, s.rdb, runID)
}

// failRun - 스테이지 실패 처리 (산출물은 보존)
func (s *Service) failRun(runID string, tracker *progress.Tracker, stepID string, err error) {
	classified := apperr.Classify(err)
	log.Printf("❌ [Photoshoot] Pipeline failed at %s: %v", stepID, classified)

	s.runs.Update(runID, func(r *Run) {
		r.Status = RunFailed
		r.ErrorMessage = classified.Error()
	})
	tracker.Advance(stepID, progress.StatusError, classified.Error())
}

// advanceStepForTask - 카테고리의 모든 태스크가 끝나면 해당 진행 단계 완료 처리
func (s *Service) advanceStepForTask(runID, category string) {
	run, ok := s.runs.Get(runID)
	if !ok {
		return
	}
	tracker := s.runs.Tracker(runID)
	if tracker == nil {
		return
	}

	stepID, ok := stepForCategory(category)
	if !ok {
		return
	}

	anySucceeded := false
	lastError := ""
	for _, task := range run.Tasks {
		if task.Category != category {
			continue
		}
		switch task.Status {
		case TaskPending, TaskGenerating:
			return // 아직 진행 중
		case TaskSucceeded:
			anySucceeded = true
		case TaskFailed:
			lastError = task.ErrorMessage
		}
	}

	if anySucceeded {
		tracker.Advance(stepID, progress.StatusCompleted, "")
	} else {
		tracker.Advance(stepID, progress.StatusError, lastError)
	}
}

// archiveSucceeded - 성공 태스크 히스토리 저장 (실패해도 파이프라인은 계속)
func (s *Service) archiveSucceeded(ctx context.Context, tasks []GenerationTask) {
	if s.history == nil {
		return
	}
	for _, task := range tasks {
		if task.Status != TaskSucceeded {
			continue
		}
		if err := s.history.Save(ctx, history.Entry{
			Prompt:      task.Prompt,
			ImageURL:    task.ResultImageURL,
			Title:       task.Title,
			AspectRatio: task.AspectRatio,
		}); err != nil {
			log.Printf("⚠️ [Photoshoot] History save failed for %q: %v", task.Title, err)
		}
	}
}

func stepForCategory(category string) (string, bool) {
	switch category {
	case CategoryStudioFront:
		return progress.StepStudioFront, true
	case CategoryStudio:
		return progress.StepStudioRest, true
	case CategoryLifestyle:
		return progress.StepLifestyle, true
	case CategoryMarketing:
		return progress.StepMarketing, true
	}
	return "", false
}

func expectedImageCount(pack string, includeMarketing bool) int {
	count := 0
	switch pack {
	case "studio", "lifestyle":
		count = 4
	default:
		count = 8
	}
	if includeMarketing {
		count += 4
	}
	return count
}

func countByStatus(tasks []GenerationTask, status string) int {
	n := 0
	for _, task := range tasks {
		if task.Status == status {
			n++
		}
	}
	return n
}
