package photoshoot

import (
	"context"
	"log"
	"time"

	"golang.org/x/sync/errgroup"

	redisutil "packshot-studio-server/modules/common/redis"
)

// buildGenerationInput - 프롬프트/참조 이미지로 모델과 입력 구성
// 참조 이미지가 있으면 fusion 모델, 없으면 텍스트 전용 모델
func (s *Service) buildGenerationInput(prompt, aspectRatio string, images []string) (string, map[string]interface{}) {
	input := map[string]interface{}{
		"prompt":       prompt,
		"aspect_ratio": aspectRatio,
	}
	if len(images) > 0 {
		input["input_images"] = images
		return s.cfg.FusionModel, input
	}
	return s.cfg.TextModel, input
}

// GenerateBatch - 앵커 우선 순차 배치 생성
//  1. 앵커(front 제목 우선)를 피사체 이미지만으로 먼저 생성
//  2. 앵커 성공 시 그 URL이 시드가 되어 나머지 태스크의 참조로 들어감
//  3. 앵커 실패 시 배치 중단, 나머지는 pending 유지
//  4. 형제 태스크는 순차 생성, 각 디스패치 전 고정 지연, 실패는 개별 격리
func (s *Service) GenerateBatch(ctx context.Context, runID string, tasks []GenerationTask, subjectURLs []string) []GenerationTask {
	if len(tasks) == 0 {
		return tasks
	}

	anchorIdx := AnchorIndex(tasks)
	anchor := &tasks[anchorIdx]

	log.Printf("🎬 [Photoshoot] Batch start: %d tasks, anchor=%q", len(tasks), anchor.Title)

	// 1+2. 앵커 생성 (피사체만 참조)
	s.markTask(runID, anchor, TaskGenerating, "", "")
	model, input := s.buildGenerationInput(anchor.Prompt, anchor.AspectRatio, subjectURLs)
	seedURL, err := s.client.SubmitAndAwait(ctx, model, input)
	if err != nil {
		// 3. 앵커 실패 → 배치 중단
		log.Printf("❌ [Photoshoot] Anchor failed, aborting batch: %v", err)
		s.markTask(runID, anchor, TaskFailed, "", err.Error())
		return tasks
	}
	s.markTask(runID, anchor, TaskSucceeded, seedURL, "")
	log.Printf("✅ [Photoshoot] Anchor done, seed: %s", seedURL)

	// 시드를 실행 상태에 기록
	s.runs.Update(runID, func(run *Run) {
		run.SeedImageURL = seedURL
	})

	siblingRefs := append(append([]string(nil), subjectURLs...), seedURL)

	if s.cfg.BatchConcurrency > 1 {
		s.generateSiblingsConcurrent(ctx, runID, tasks, anchorIdx, siblingRefs)
	} else {
		s.generateSiblingsSequential(ctx, runID, tasks, anchorIdx, siblingRefs)
	}

	return tasks
}

// generateSiblingsSequential - 형제 태스크 순차 생성 (기본 모드)
func (s *Service) generateSiblingsSequential(ctx context.Context, runID string, tasks []GenerationTask, anchorIdx int, refs []string) {
	for i := range tasks {
		if i == anchorIdx {
			continue
		}
		if s.isCancelled(ctx, runID) {
			log.Printf("🛑 [Photoshoot] Run cancelled, stopping batch: %s", runID)
			return
		}

		// 순서 보장용 고정 지연
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.cfg.TaskDelay):
		}

		s.generateOne(ctx, runID, &tasks[i], refs)
	}
}

// generateSiblingsConcurrent - errgroup 한도 내 병렬 생성 (실패 격리 유지)
func (s *Service) generateSiblingsConcurrent(ctx context.Context, runID string, tasks []GenerationTask, anchorIdx int, refs []string) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.BatchConcurrency)

	for i := range tasks {
		if i == anchorIdx {
			continue
		}
		if s.isCancelled(ctx, runID) {
			break
		}

		// 디스패치 간격은 병렬 모드에서도 유지
		select {
		case <-ctx.Done():
		case <-time.After(s.cfg.TaskDelay):
		}
		if ctx.Err() != nil {
			break
		}

		task := &tasks[i]
		g.Go(func() error {
			s.generateOne(gctx, runID, task, refs)
			return nil // 실패는 태스크에 기록, 그룹 전체를 깨지 않음
		})
	}
	g.Wait()
}

// generateOne - 태스크 1건 생성, 실패는 태스크에만 기록
func (s *Service) generateOne(ctx context.Context, runID string, task *GenerationTask, refs []string) {
	s.markTask(runID, task, TaskGenerating, "", "")

	model, input := s.buildGenerationInput(task.Prompt, task.AspectRatio, refs)
	url, err := s.client.SubmitAndAwait(ctx, model, input)
	if err != nil {
		log.Printf("⚠️ [Photoshoot] Task failed (%s): %v", task.Title, err)
		s.markTask(runID, task, TaskFailed, "", err.Error())
		return
	}

	s.markTask(runID, task, TaskSucceeded, url, "")
	log.Printf("✅ [Photoshoot] Task done: %s", task.Title)
}

// markTask - 로컬 복사본과 매니저 상태 동시 갱신
func (s *Service) markTask(runID string, task *GenerationTask, status, resultURL, errMsg string) {
	task.Status = status
	task.ResultImageURL = resultURL
	task.ErrorMessage = errMsg

	if s.runs != nil {
		s.runs.UpdateTask(runID, task.ID, TaskPatch{
			Status:         StrPtr(status),
			ResultImageURL: StrPtr(resultURL),
			ErrorMessage:   StrPtr(errMsg),
		})
	}
	if status == TaskSucceeded || status == TaskFailed {
		s.advanceStepForTask(runID, task.Category)
	}
}

// isCancelled - redis 취소 플래그 확인 (redis 미연결 시 항상 false)
func (s *Service) isCancelled(ctx context.Context, runID string) bool {
	if s.rdb == nil {
		return false
	}
	return redisutil.IsJobCancelled(ctx, s.rdb, runID)
}
