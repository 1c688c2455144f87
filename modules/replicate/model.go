package replicate

// 예측 상태
const (
	StatusStarting   = "starting"
	StatusProcessing = "processing"
	StatusSucceeded  = "succeeded"
	StatusFailed     = "failed"
	StatusCanceled   = "canceled"
)

// PredictionRequest - 예측 생성 요청 바디
type PredictionRequest struct {
	Input map[string]interface{} `json:"input"`
}

// Prediction - Replicate 예측 응답
type Prediction struct {
	ID        string                 `json:"id"`
	Status    string                 `json:"status"`
	Input     map[string]interface{} `json:"input,omitempty"`
	Output    interface{}            `json:"output,omitempty"`
	Error     interface{}            `json:"error,omitempty"`
	Logs      string                 `json:"logs,omitempty"`
	CreatedAt string                 `json:"created_at,omitempty"`
}

// IsTerminal - 종료 상태 여부
func (p *Prediction) IsTerminal() bool {
	switch p.Status {
	case StatusSucceeded, StatusFailed, StatusCanceled:
		return true
	}
	return false
}

// ErrorMessage - 오류 필드를 문자열로
func (p *Prediction) ErrorMessage() string {
	if p.Error == nil {
		return ""
	}
	if s, ok := p.Error.(string); ok {
		return s
	}
	return ""
}
