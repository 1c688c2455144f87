package replicate

import (
	"context"
	"fmt"
	"sync"
	"time"

	"packshot-studio-server/modules/common/apperr"
)

// MockClient - 테스트용 Client 구현체
// 호출 시각을 기록해서 순서/간격 검증에 사용
type MockClient struct {
	mu sync.Mutex

	// 동작 제어
	Delay      time.Duration // 각 SubmitAndAwait가 걸리는 시간
	DefaultURL string        // 기본 성공 출력
	Script     []MockOutcome // 호출 순서대로 소비, 소진되면 DefaultURL 성공

	// 호출 기록
	SubmitCalls []SubmitCall
	CancelCalls []string

	predictions map[string]*Prediction
}

// MockOutcome - 예약된 호출 결과
type MockOutcome struct {
	URL string
	Err error
}

// SubmitCall - SubmitAndAwait 호출 기록
type SubmitCall struct {
	Model        string
	Input        map[string]interface{}
	DispatchedAt time.Time
	CompletedAt  time.Time
}

// NewMockClient - 모의 클라이언트 생성
func NewMockClient() *MockClient {
	return &MockClient{
		DefaultURL:  "https://replicate.delivery/mock/output.png",
		predictions: make(map[string]*Prediction),
	}
}

func (m *MockClient) CreatePrediction(ctx context.Context, model string, input map[string]interface{}) (*Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := fmt.Sprintf("mock-pred-%d", len(m.predictions)+1)
	pred := &Prediction{ID: id, Status: StatusStarting, Input: input}
	m.predictions[id] = pred
	return pred, nil
}

func (m *MockClient) GetPrediction(ctx context.Context, predictionID string) (*Prediction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	pred, ok := m.predictions[predictionID]
	if !ok {
		return nil, fmt.Errorf("prediction not found: %s", predictionID)
	}
	return pred, nil
}

func (m *MockClient) SubmitAndAwait(ctx context.Context, model string, input map[string]interface{}) (string, error) {
	dispatched := time.Now()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return "", apperr.Wrap(apperr.Timeout, "prediction polling canceled", ctx.Err())
		case <-time.After(m.Delay):
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	outcome := MockOutcome{URL: m.DefaultURL}
	if idx := len(m.SubmitCalls); idx < len(m.Script) {
		outcome = m.Script[idx]
	}

	m.SubmitCalls = append(m.SubmitCalls, SubmitCall{
		Model:        model,
		Input:        input,
		DispatchedAt: dispatched,
		CompletedAt:  time.Now(),
	})

	if outcome.Err != nil {
		return "", outcome.Err
	}
	return outcome.URL, nil
}

func (m *MockClient) CancelPrediction(ctx context.Context, predictionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CancelCalls = append(m.CancelCalls, predictionID)
	if pred, ok := m.predictions[predictionID]; ok {
		pred.Status = StatusCanceled
	}
	return nil
}

// Calls - 기록된 호출 스냅샷
func (m *MockClient) Calls() []SubmitCall {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]SubmitCall, len(m.SubmitCalls))
	copy(out, m.SubmitCalls)
	return out
}
