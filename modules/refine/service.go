package refine

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"google.golang.org/genai"

	"packshot-studio-server/modules/common/apperr"
	"packshot-studio-server/modules/common/config"
	geminiutil "packshot-studio-server/modules/common/gemini"
)

// Service - QA 및 프롬프트 정제 스테이지
type Service struct {
	cfg *config.Config
}

// NewService - 정제 서비스 생성
func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Refine - 시드 이미지 QA 후 정제된 프롬프트 세트 생성
func (s *Service) Refine(ctx context.Context, req *RefineRequest) ([]RefinedPrompt, error) {
	if req.Analysis == nil {
		return nil, apperr.New(apperr.Validation, "analysis result is required for refinement")
	}
	if len(req.SubjectImages) == 0 {
		return nil, apperr.New(apperr.Validation, "at least one subject image is required")
	}
	if req.QAImage.Base64 == "" {
		return nil, apperr.New(apperr.Validation, "QA seed image is required")
	}

	log.Printf("🧪 [Refine] Running QA + refinement (marketing: %v)", req.IncludeMarketing)

	// 피사체 이미지들 먼저, 시드 이미지는 마지막 (지시문이 "last image"를 참조)
	// 디코딩 실패는 건너뛰지 않고 요청 자체를 거부함
	var parts []*genai.Part
	for i, img := range req.SubjectImages {
		data, err := img.Decode()
		if err != nil {
			return nil, apperr.Wrap(apperr.Validation, fmt.Sprintf("subject image %d is not valid base64", i+1), err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{MIMEType: img.MimeType, Data: data},
		})
	}
	qaData, err := req.QAImage.Decode()
	if err != nil {
		return nil, apperr.Wrap(apperr.Validation, "QA seed image is not valid base64", err)
	}
	parts = append(parts, &genai.Part{
		InlineData: &genai.Blob{MIMEType: req.QAImage.MimeType, Data: qaData},
	})

	instruction := BuildRefineInstruction(req.Analysis, req.IncludeMarketing)
	parts = append(parts, genai.NewPartFromText(instruction))

	result, err := geminiutil.GenerateContentWithRetry(
		ctx,
		s.cfg.GeminiAPIKey,
		s.cfg.GeminiModel,
		[]*genai.Content{{Parts: parts}},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		},
	)
	if err != nil {
		log.Printf("❌ [Refine] Gemini API error: %v", err)
		return nil, err
	}

	raw := geminiutil.ExtractText(result)
	if raw == "" {
		return nil, apperr.New(apperr.Schema, "refinement response contains no text")
	}

	prompts, err := ParseRefinedPrompts(raw, req.IncludeMarketing)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [Refine] %d refined prompts generated", len(prompts))
	return prompts, nil
}

// ParseRefinedPrompts - 응답 파싱 + 형태 검증
// 개수는 정확히 일치해야 하고, 제목 집합도 기대 집합과 같아야 함.
// 위반 시 자르거나 채우지 않고 Schema 오류 반환.
func ParseRefinedPrompts(raw string, includeMarketing bool) ([]RefinedPrompt, error) {
	cleaned := geminiutil.StripCodeFence(raw)

	var prompts []RefinedPrompt
	if err := json.Unmarshal([]byte(cleaned), &prompts); err != nil {
		return nil, apperr.Wrap(apperr.Schema, "refinement response is not valid JSON", err)
	}

	expected := ExpectedTitles(includeMarketing)
	if len(prompts) != len(expected) {
		return nil, apperr.Newf(apperr.Schema, "expected %d refined prompts, got %d", len(expected), len(prompts))
	}

	expectedSet := make(map[string]bool, len(expected))
	for _, title := range expected {
		expectedSet[title] = true
	}

	seen := make(map[string]bool, len(prompts))
	for _, p := range prompts {
		if p.Title == "" || p.Prompt == "" {
			return nil, apperr.New(apperr.Schema, "refined prompt has empty title or prompt")
		}
		if !expectedSet[p.Title] {
			return nil, apperr.Newf(apperr.Schema, "unexpected prompt title: %q", p.Title)
		}
		if seen[p.Title] {
			return nil, apperr.Newf(apperr.Schema, "duplicate prompt title: %q", p.Title)
		}
		seen[p.Title] = true
	}

	return prompts, nil
}
