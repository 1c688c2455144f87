package gemini

import (
	"context"
	"log"
	"strings"
	"time"

	"google.golang.org/genai"

	"packshot-studio-server/modules/common/apperr"
)

// GenerateContentWithRetry - 429 에러 시 재시도하는 헬퍼 함수
// 최대 3번 시도, 429일 때만 2초 대기 후 재시도
func GenerateContentWithRetry(
	ctx context.Context,
	apiKey string,
	model string,
	contents []*genai.Content,
	config *genai.GenerateContentConfig,
) (*genai.GenerateContentResponse, error) {

	const maxRetries = 3
	var lastErr error

	for attempt := 1; attempt <= maxRetries; attempt++ {
		if attempt > 1 {
			log.Printf("   🔄 [Gemini Retry] Attempt %d/%d", attempt, maxRetries)
		}

		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			lastErr = err
			continue
		}

		result, err := client.Models.GenerateContent(ctx, model, contents, config)
		if err == nil {
			return result, nil
		}
		lastErr = err

		// 429가 아닌 다른 에러면 바로 반환 (재시도 안 함)
		if !is429Error(err) {
			return nil, apperr.Classify(err)
		}

		log.Printf("⚠️  [Gemini Retry] Rate limit (429) on attempt %d/%d", attempt, maxRetries)
		if attempt < maxRetries {
			time.Sleep(time.Second * 2)
		}
	}

	return nil, apperr.Wrap(apperr.Quota, "gemini rate limit exhausted after retries", lastErr)
}

// is429Error - 429 Rate Limit 에러인지 확인
func is429Error(err error) bool {
	if err == nil {
		return false
	}

	errStr := err.Error()
	return strings.Contains(errStr, "429") ||
		strings.Contains(strings.ToLower(errStr), "rate limit") ||
		strings.Contains(strings.ToLower(errStr), "quota")
}

// ExtractText - 응답에서 첫 텍스트 파트 추출
func ExtractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.Text != "" {
				return part.Text
			}
		}
	}
	return ""
}

// StripCodeFence - 모델이 JSON을 ```json 펜스로 감싸서 줄 때 제거
func StripCodeFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
