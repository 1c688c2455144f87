package replicate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"packshot-studio-server/modules/common/apperr"
	"packshot-studio-server/modules/common/config"
)

// Client - 원격 예측 클라이언트 인터페이스
type Client interface {
	CreatePrediction(ctx context.Context, model string, input map[string]interface{}) (*Prediction, error)
	GetPrediction(ctx context.Context, predictionID string) (*Prediction, error)
	SubmitAndAwait(ctx context.Context, model string, input map[string]interface{}) (string, error)
	CancelPrediction(ctx context.Context, predictionID string) error
}

// HTTPClient - Replicate API HTTP 구현체
// API 토큰은 서버에서만 주입됨 (클라이언트 노출 금지)
type HTTPClient struct {
	BaseURL         string
	Token           string
	PollInterval    time.Duration
	MaxPollAttempts int
	HTTP            *http.Client
}

// NewClient - 설정으로 클라이언트 생성
func NewClient(cfg *config.Config) *HTTPClient {
	return &HTTPClient{
		BaseURL:         cfg.ReplicateAPIURL,
		Token:           cfg.ReplicateAPIToken,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.MaxPollAttempts,
		HTTP:            &http.Client{Timeout: 60 * time.Second},
	}
}

// CreatePrediction - 예측 생성 (모델 경로 기반)
func (c *HTTPClient) CreatePrediction(ctx context.Context, model string, input map[string]interface{}) (*Prediction, error) {
	url := fmt.Sprintf("%s/models/%s/predictions", c.BaseURL, model)

	body, err := json.Marshal(PredictionRequest{Input: input})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal prediction input: %w", err)
	}

	pred, err := c.doJSON(ctx, "POST", url, body)
	if err != nil {
		return nil, err
	}

	log.Printf("🚀 [Replicate] Prediction created: %s (model: %s)", pred.ID, model)
	return pred, nil
}

// GetPrediction - 예측 상태 조회
func (c *HTTPClient) GetPrediction(ctx context.Context, predictionID string) (*Prediction, error) {
	url := fmt.Sprintf("%s/predictions/%s", c.BaseURL, predictionID)
	return c.doJSON(ctx, "GET", url, nil)
}

// CancelPrediction - 예측 취소
func (c *HTTPClient) CancelPrediction(ctx context.Context, predictionID string) error {
	url := fmt.Sprintf("%s/predictions/%s/cancel", c.BaseURL, predictionID)
	if _, err := c.doJSON(ctx, "POST", url, nil); err != nil {
		return err
	}
	log.Printf("🛑 [Replicate] Prediction canceled: %s", predictionID)
	return nil
}

// SubmitAndAwait - 예측 생성 후 종료 상태까지 폴링, 출력 URL 반환
// 429 응답은 시도 횟수에 포함하지 않고 간격을 2배로 늘려 재시도
func (c *HTTPClient) SubmitAndAwait(ctx context.Context, model string, input map[string]interface{}) (string, error) {
	pred, err := c.CreatePrediction(ctx, model, input)
	if err != nil {
		return "", err
	}

	attempts := 0
	for attempts < c.MaxPollAttempts {
		select {
		case <-ctx.Done():
			return "", apperr.Wrap(apperr.Timeout, "prediction polling canceled", ctx.Err())
		case <-time.After(c.PollInterval):
		}

		current, err := c.GetPrediction(ctx, pred.ID)
		if err != nil {
			if apperr.Is(err, apperr.Quota) {
				// 레이트리밋: 추가 대기 후 재시도, 시도 횟수 미포함
				log.Printf("⏳ [Replicate] Rate limited, backing off: %s", pred.ID)
				select {
				case <-ctx.Done():
					return "", apperr.Wrap(apperr.Timeout, "prediction polling canceled", ctx.Err())
				case <-time.After(c.PollInterval):
				}
				continue
			}
			return "", err
		}
		attempts++

		switch current.Status {
		case StatusSucceeded:
			return ExtractOutputURL(current.Output)
		case StatusFailed:
			msg := current.ErrorMessage()
			if msg == "" {
				msg = "image generation failed"
			}
			return "", apperr.New(apperr.Remote, msg)
		case StatusCanceled:
			return "", apperr.New(apperr.Remote, "prediction was canceled")
		}
	}

	return "", apperr.Newf(apperr.Timeout, "prediction timed out after %d attempts", c.MaxPollAttempts)
}

// ExtractOutputURL - 출력에서 이미지 URL 추출 (문자열 또는 배열 첫 요소)
func ExtractOutputURL(output interface{}) (string, error) {
	switch v := output.(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case []interface{}:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok && s != "" {
				return s, nil
			}
		}
	}
	return "", apperr.New(apperr.Schema, "unexpected output format from prediction")
}

// doJSON - 요청 실행 + 오류 분류
func (c *HTTPClient) doJSON(ctx context.Context, method, url string, body []byte) (*Prediction, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, apperr.Wrap(apperr.Remote, "replicate request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, apperr.New(apperr.Quota, "replicate rate limit exceeded")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperr.New(apperr.Auth, "replicate API token is invalid")
	case resp.StatusCode >= 400:
		return nil, apperr.Newf(apperr.Remote, "replicate API returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var pred Prediction
	if err := json.Unmarshal(respBody, &pred); err != nil {
		return nil, apperr.Wrap(apperr.Schema, "replicate response is not valid JSON", err)
	}
	return &pred, nil
}
