package progress

import (
	"log"
	"sync"
	"time"
)

// 단계 상태 - 뒤로 가지 않음 (pending → active → completed | error)
const (
	StatusPending   = "pending"
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusError     = "error"
)

// Step - 진행 단계
type Step struct {
	ID                string `json:"id"`
	Label             string `json:"label"`
	EstimatedDuration int    `json:"estimatedDuration"` // 초
	Status            string `json:"status"`
	Error             string `json:"error,omitempty"`
}

// State - 진행 상태 스냅샷
type State struct {
	Steps          []Step    `json:"steps"`
	CurrentStepID  string    `json:"currentStepId"`
	StartTime      time.Time `json:"startTime"`
	ElapsedSeconds int       `json:"elapsedSeconds"`
	IsComplete     bool      `json:"isComplete"`
}

// statusRank - 상태 전이 순위 (역행 방지용)
func statusRank(status string) int {
	switch status {
	case StatusPending:
		return 0
	case StatusActive:
		return 1
	case StatusCompleted, StatusError:
		return 2
	}
	return -1
}

// Tracker - 실행 단위 진행 추적기 (run마다 하나씩 생성)
type Tracker struct {
	mu          sync.Mutex
	steps       []Step
	currentID   string
	startTime   time.Time
	isComplete  bool
	subscribers map[int]func(State)
	nextSubID   int
	stopTicker  chan struct{}
}

// NewTracker - 추적기 생성
func NewTracker() *Tracker {
	return &Tracker{
		subscribers: make(map[int]func(State)),
	}
}

// Subscribe - 상태 변경 구독, 해제 함수 반환
// 구독 즉시 현재 스냅샷을 한 번 전달
func (t *Tracker) Subscribe(cb func(State)) func() {
	t.mu.Lock()
	id := t.nextSubID
	t.nextSubID++
	t.subscribers[id] = cb
	snapshot := t.snapshotLocked()
	t.mu.Unlock()

	cb(snapshot)

	return func() {
		t.mu.Lock()
		delete(t.subscribers, id)
		t.mu.Unlock()
	}
}

// Start - 단계 목록으로 추적 시작, 첫 단계 활성화, 1초 틱 재방송 시작
func (t *Tracker) Start(steps []Step) {
	t.mu.Lock()
	t.steps = make([]Step, len(steps))
	copy(t.steps, steps)
	for i := range t.steps {
		t.steps[i].Status = StatusPending
		t.steps[i].Error = ""
	}
	if len(t.steps) > 0 {
		t.steps[0].Status = StatusActive
		t.currentID = t.steps[0].ID
	}
	t.startTime = time.Now()
	t.isComplete = false

	if t.stopTicker != nil {
		close(t.stopTicker)
	}
	t.stopTicker = make(chan struct{})
	stop := t.stopTicker
	t.mu.Unlock()

	t.broadcast()

	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				t.broadcast()
			}
		}
	}()
}

// Advance - 단계 상태 갱신
// completed면 다음 단계를 활성화 (마지막이면 전체 완료)
// error면 기록만 하고 자동 진행 중단
func (t *Tracker) Advance(stepID, status, errMsg string) {
	t.mu.Lock()

	idx := -1
	for i := range t.steps {
		if t.steps[i].ID == stepID {
			idx = i
			break
		}
	}
	if idx < 0 {
		t.mu.Unlock()
		log.Printf("⚠️ [Progress] Unknown step: %s", stepID)
		return
	}

	// 역행 방지
	if statusRank(status) < statusRank(t.steps[idx].Status) {
		t.mu.Unlock()
		return
	}

	t.steps[idx].Status = status
	t.steps[idx].Error = errMsg

	switch status {
	case StatusCompleted:
		if idx+1 < len(t.steps) {
			if t.steps[idx+1].Status == StatusPending {
				t.steps[idx+1].Status = StatusActive
			}
			t.currentID = t.steps[idx+1].ID
		} else {
			t.completeLocked()
		}
	case StatusError:
		t.stopTickerLocked()
	}

	t.mu.Unlock()
	t.broadcast()
}

// Complete - 남은 단계를 모두 완료 처리하고 종료
func (t *Tracker) Complete() {
	t.mu.Lock()
	for i := range t.steps {
		if t.steps[i].Status == StatusPending || t.steps[i].Status == StatusActive {
			t.steps[i].Status = StatusCompleted
		}
	}
	t.completeLocked()
	t.mu.Unlock()
	t.broadcast()
}

// Reset - 추적기 초기화 (구독자는 유지)
func (t *Tracker) Reset() {
	t.mu.Lock()
	t.stopTickerLocked()
	t.steps = nil
	t.currentID = ""
	t.startTime = time.Time{}
	t.isComplete = false
	t.mu.Unlock()
	t.broadcast()
}

// Snapshot - 현재 상태 복사본
func (t *Tracker) Snapshot() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

func (t *Tracker) completeLocked() {
	t.isComplete = true
	t.currentID = ""
	t.stopTickerLocked()
}

func (t *Tracker) stopTickerLocked() {
	if t.stopTicker != nil {
		close(t.stopTicker)
		t.stopTicker = nil
	}
}

func (t *Tracker) snapshotLocked() State {
	steps := make([]Step, len(t.steps))
	copy(steps, t.steps)

	elapsed := 0
	if !t.startTime.IsZero() {
		elapsed = int(time.Since(t.startTime).Seconds())
	}

	return State{
		Steps:          steps,
		CurrentStepID:  t.currentID,
		StartTime:      t.startTime,
		ElapsedSeconds: elapsed,
		IsComplete:     t.isComplete,
	}
}

func (t *Tracker) broadcast() {
	t.mu.Lock()
	snapshot := t.snapshotLocked()
	cbs := make([]func(State), 0, len(t.subscribers))
	for _, cb := range t.subscribers {
		cbs = append(cbs, cb)
	}
	t.mu.Unlock()

	for _, cb := range cbs {
		cb(snapshot)
	}
}
