package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"google.golang.org/genai"

	"packshot-studio-server/modules/common/apperr"
	"packshot-studio-server/modules/common/config"
	geminiutil "packshot-studio-server/modules/common/gemini"
	"packshot-studio-server/modules/common/imaging"
)

// Service - 분석 스테이지
type Service struct {
	cfg *config.Config
}

// NewService - 분석 서비스 생성
func NewService(cfg *config.Config) *Service {
	return &Service{cfg: cfg}
}

// Analyze - 피사체 이미지 분석 → 아이템 분석 + QA 체크리스트 + 초기 프롬프트
func (s *Service) Analyze(ctx context.Context, req *AnalyzeRequest) (*AnalysisResult, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	log.Printf("🔍 [Analysis] Analyzing %d subject image(s) (type: %s, bg refs: %d, model refs: %d)",
		len(req.SubjectImages), req.Type, len(req.BackgroundRefs), len(req.ModelRefs))

	parts, err := buildImageParts(req)
	if err != nil {
		return nil, err
	}
	instruction := BuildAnalysisInstruction(req.Type, len(req.SubjectImages), len(req.BackgroundRefs), len(req.ModelRefs))
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
		log.Printf("❌ [Analysis] Gemini API error: %v", err)
		return nil, err
	}

	raw := geminiutil.ExtractText(result)
	if raw == "" {
		return nil, apperr.New(apperr.Schema, "analysis response contains no text")
	}

	parsed, err := ParseAnalysisResponse(raw)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [Analysis] Analysis complete (%d chars)", len(parsed.ItemAnalysis))
	return parsed, nil
}

// ValidateRequest - 원격 호출 전에 요청 검증
func ValidateRequest(req *AnalyzeRequest) error {
	if len(req.SubjectImages) < 1 || len(req.SubjectImages) > 2 {
		return apperr.Newf(apperr.Validation, "expected 1 or 2 subject images, got %d", len(req.SubjectImages))
	}
	if len(req.BackgroundRefs) > 3 {
		return apperr.Newf(apperr.Validation, "at most 3 background reference images allowed, got %d", len(req.BackgroundRefs))
	}
	if len(req.ModelRefs) > 3 {
		return apperr.Newf(apperr.Validation, "at most 3 model reference images allowed, got %d", len(req.ModelRefs))
	}
	if req.Type != TypeGarment && req.Type != TypeProduct {
		return apperr.Newf(apperr.Validation, "unknown photoshoot type: %q", req.Type)
	}
	for i, img := range req.SubjectImages {
		if img.Base64 == "" {
			return apperr.New(apperr.Validation, "subject image has empty payload")
		}
		if _, err := img.Decode(); err != nil {
			return apperr.Wrap(apperr.Validation, fmt.Sprintf("subject image %d is not valid base64", i+1), err)
		}
	}
	for i, img := range req.BackgroundRefs {
		if _, err := img.Decode(); err != nil {
			return apperr.Wrap(apperr.Validation, fmt.Sprintf("background reference image %d is not valid base64", i+1), err)
		}
	}
	for i, img := range req.ModelRefs {
		if _, err := img.Decode(); err != nil {
			return apperr.Wrap(apperr.Validation, fmt.Sprintf("model reference image %d is not valid base64", i+1), err)
		}
	}
	return nil
}

// ParseAnalysisResponse - 모델 응답 파싱 (코드펜스 제거 포함)
func ParseAnalysisResponse(raw string) (*AnalysisResult, error) {
	cleaned := geminiutil.StripCodeFence(raw)

	var parsed rawAnalysis
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, apperr.Wrap(apperr.Schema, "analysis response is not valid JSON", err)
	}

	// garment 타입은 garmentAnalysis 키로 옴
	itemAnalysis := parsed.ItemAnalysis
	if itemAnalysis == "" {
		itemAnalysis = parsed.GarmentAnalysis
	}

	if itemAnalysis == "" || parsed.QAChecklist == "" || parsed.InitialPrompt == "" {
		return nil, apperr.New(apperr.Schema, "analysis response is missing required fields")
	}

	return &AnalysisResult{
		ItemAnalysis:  itemAnalysis,
		QAChecklist:   parsed.QAChecklist,
		InitialPrompt: parsed.InitialPrompt,
	}, nil
}

// buildImageParts - 피사체 → 배경 레퍼런스 → 모델 레퍼런스 순서로 파트 구성
// 디코딩 가능 여부는 ValidateRequest에서 이미 확인됨
func buildImageParts(req *AnalyzeRequest) ([]*genai.Part, error) {
	var parts []*genai.Part
	appendImage := func(img imaging.ImageInput) error {
		data, err := img.Decode()
		if err != nil {
			return apperr.Wrap(apperr.Validation, "image is not valid base64", err)
		}
		parts = append(parts, &genai.Part{
			InlineData: &genai.Blob{
				MIMEType: img.MimeType,
				Data:     data,
			},
		})
		return nil
	}
	for _, img := range req.SubjectImages {
		if err := appendImage(img); err != nil {
			return nil, err
		}
	}
	for _, img := range req.BackgroundRefs {
		if err := appendImage(img); err != nil {
			return nil, err
		}
	}
	for _, img := range req.ModelRefs {
		if err := appendImage(img); err != nil {
			return nil, err
		}
	}
	return parts, nil
}
