package photoshoot

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"packshot-studio-server/modules/common/imaging"
	"packshot-studio-server/modules/progress"
)

// TaskPatch - 단일 태스크 부분 갱신
// Force는 재시도처럼 의도적으로 상태를 되돌릴 때만 사용
type TaskPatch struct {
	Status         *string
	ResultImageURL *string
	ErrorMessage   *string
	Force          bool
}

// RunManager - 실행 상태 인메모리 저장소
// 변경은 전부 매니저를 거침 (단일 작성자), 읽기는 복사본 반환
type RunManager struct {
	mu       sync.RWMutex
	runs     map[string]*Run
	trackers map[string]*progress.Tracker
}

// NewRunManager - 매니저 생성
func NewRunManager() *RunManager {
	return &RunManager{
		runs:     make(map[string]*Run),
		trackers: make(map[string]*progress.Tracker),
	}
}

// Create - 새 실행 생성
func (m *RunManager) Create(req RunRequest) *Run {
	return m.CreateWithID(uuid.New().String(), req)
}

// CreateWithID - 지정한 ID로 실행 생성 (워커의 redis 복원 경로에서 사용)
// 피사체 data URL은 이때 미리 계산
func (m *RunManager) CreateWithID(id string, req RunRequest) *Run {
	subjectURLs := make([]string, len(req.SubjectImages))
	for i, img := range req.SubjectImages {
		subjectURLs[i] = imaging.DataURL(img)
	}

	now := time.Now()
	run := &Run{
		ID:              id,
		Status:          RunQueued,
		Request:         req,
		SubjectDataURLs: subjectURLs,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	m.mu.Lock()
	m.runs[run.ID] = run
	m.trackers[run.ID] = progress.NewTracker()
	m.mu.Unlock()

	return copyRun(run)
}

// Get - 실행 스냅샷 조회
func (m *RunManager) Get(runID string) (*Run, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	run, ok := m.runs[runID]
	if !ok {
		return nil, false
	}
	return copyRun(run), true
}

// Tracker - 실행별 진행 추적기
func (m *RunManager) Tracker(runID string) *progress.Tracker {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trackers[runID]
}

// Update - 실행 전체 갱신 (뮤테이션 함수는 락 안에서 실행됨)
func (m *RunManager) Update(runID string, mutate func(*Run)) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	mutate(run)
	run.UpdatedAt = time.Now()
	return nil
}

// UpdateTask - 태스크 부분 갱신
// 상태는 앞으로만 진행 (succeeded/failed 이후 generating으로 되돌리지 않음)
func (m *RunManager) UpdateTask(runID, taskID string, patch TaskPatch) error {
	return m.Update(runID, func(run *Run) {
		for i := range run.Tasks {
			if run.Tasks[i].ID != taskID {
				continue
			}
			if patch.Status != nil && (patch.Force || taskStatusRank(*patch.Status) >= taskStatusRank(run.Tasks[i].Status)) {
				run.Tasks[i].Status = *patch.Status
			}
			if patch.ResultImageURL != nil {
				run.Tasks[i].ResultImageURL = *patch.ResultImageURL
			}
			if patch.ErrorMessage != nil {
				run.Tasks[i].ErrorMessage = *patch.ErrorMessage
			}
			return
		}
	})
}

func taskStatusRank(status string) int {
	switch status {
	case TaskPending:
		return 0
	case TaskGenerating:
		return 1
	case TaskSucceeded, TaskFailed:
		return 2
	}
	return -1
}

// copyRun - 깊은 복사 (슬라이스 공유 방지)
func copyRun(run *Run) *Run {
	out := *run
	out.SubjectDataURLs = append([]string(nil), run.SubjectDataURLs...)
	out.Prompts = append(out.Prompts[:0:0], run.Prompts...)
	out.Tasks = append(out.Tasks[:0:0], run.Tasks...)
	if run.Analysis != nil {
		a := *run.Analysis
		out.Analysis = &a
	}
	return &out
}

// StrPtr - 패치용 헬퍼
func StrPtr(s string) *string {
	return &s
}
