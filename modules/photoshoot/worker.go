package photoshoot

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	redisutil "packshot-studio-server/modules/common/redis"
)

// Worker - redis 큐에서 실행 요청을 꺼내 파이프라인을 돌리는 백그라운드 워커
type Worker struct {
	rdb     *redis.Client
	service *Service
}

// NewWorker - 워커 생성
func NewWorker(rdb *redis.Client, service *Service) *Worker {
	return &Worker{rdb: rdb, service: service}
}

// Enqueue - 실행을 큐에 넣음 (페이로드는 재시작 대비로 redis에도 보관)
func (w *Worker) Enqueue(ctx context.Context, run *Run) error {
	payload, err := json.Marshal(run.Request)
	if err != nil {
		return err
	}
	if err := w.rdb.Set(ctx, redisutil.JobKey(run.ID), payload, 24*time.Hour).Err(); err != nil {
		log.Printf("⚠️ [Worker] Failed to persist job payload: %v", err)
	}
	if err := w.rdb.LPush(ctx, redisutil.QueueKey, run.ID).Err(); err != nil {
		return err
	}
	log.Printf("📬 [Worker] Run enqueued: %s", run.ID)
	return nil
}

// Start - 워커 루프 시작 (고루틴에서 호출)
func (w *Worker) Start(ctx context.Context) {
	log.Println("👷 [Worker] Photoshoot worker started")

	for {
		select {
		case <-ctx.Done():
			log.Println("👋 [Worker] Photoshoot worker stopped")
			return
		default:
		}

		// BRPOP: 타임아웃을 둬서 ctx 취소를 주기적으로 확인
		result, err := w.rdb.BRPop(ctx, 5*time.Second, redisutil.QueueKey).Result()
		if err != nil {
			if err == redis.Nil {
				continue // 큐 비어있음
			}
			if ctx.Err() != nil {
				return
			}
			log.Printf("❌ [Worker] BRPOP error: %v", err)
			time.Sleep(2 * time.Second)
			continue
		}
		if len(result) < 2 {
			continue
		}

		runID := result[1]
		log.Printf("📥 [Worker] Picked up run: %s", runID)

		if _, ok := w.service.Runs().Get(runID); !ok {
			// 재시작 후 인메모리 상태가 사라진 경우 - redis 페이로드로 복원 시도
			if !w.restoreRun(ctx, runID) {
				log.Printf("⚠️ [Worker] Run %s not found and not restorable, skipping", runID)
				continue
			}
		}

		if redisutil.IsJobCancelled(ctx, w.rdb, runID) {
			log.Printf("🛑 [Worker] Run %s cancelled before start, skipping", runID)
			w.service.Runs().Update(runID, func(r *Run) { r.Status = RunCanceled })
			continue
		}

		w.service.RunPipeline(ctx, runID)
		w.rdb.Del(ctx, redisutil.JobKey(runID))
	}
}

// restoreRun - redis 페이로드로 실행 재생성 (ID는 달라지므로 원래 ID로 재등록 불가,
// 페이로드가 없으면 복원 포기)
func (w *Worker) restoreRun(ctx context.Context, runID string) bool {
	payload, err := w.rdb.Get(ctx, redisutil.JobKey(runID)).Result()
	if err != nil {
		return false
	}

	var req RunRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		log.Printf("⚠️ [Worker] Corrupt job payload for %s: %v", runID, err)
		return false
	}

	w.service.Runs().CreateWithID(runID, req)
	log.Printf("♻️ [Worker] Run restored from redis: %s", runID)
	return true
}
