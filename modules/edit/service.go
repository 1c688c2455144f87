package edit

import (
	"context"
	"log"

	"packshot-studio-server/modules/common/apperr"
	"packshot-studio-server/modules/common/config"
	replicateapi "packshot-studio-server/modules/replicate"
)

// EditRequest - 이미지 보정 요청
type EditRequest struct {
	Prompt            string `json:"prompt"`
	InputImage        string `json:"inputImage"` // URL 또는 data URL
	OutputFormat      string `json:"outputFormat,omitempty"`
	NumInferenceSteps int    `json:"numInferenceSteps,omitempty"`
}

// EditResult - 보정 결과 1건
type EditResult struct {
	InputImage   string `json:"inputImage"`
	OutputURL    string `json:"outputUrl,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
}

// Service - 프롬프트 기반 이미지 보정 (flux-kontext)
type Service struct {
	cfg    *config.Config
	client replicateapi.Client
}

// NewService - 보정 서비스 생성
func NewService(cfg *config.Config, client replicateapi.Client) *Service {
	return &Service{cfg: cfg, client: client}
}

// EditImage - 이미지 1장 보정
func (s *Service) EditImage(ctx context.Context, req *EditRequest) (string, error) {
	if req.Prompt == "" {
		return "", apperr.New(apperr.Validation, "edit prompt is required")
	}
	if req.InputImage == "" {
		return "", apperr.New(apperr.Validation, "input image is required")
	}

	input := map[string]interface{}{
		"prompt":      req.Prompt,
		"input_image": req.InputImage,
	}
	if req.OutputFormat != "" {
		input["output_format"] = req.OutputFormat
	}
	if req.NumInferenceSteps > 0 {
		input["num_inference_steps"] = req.NumInferenceSteps
	}

	log.Printf("✏️ [Edit] Editing image with model %s", s.cfg.EditModel)
	return s.client.SubmitAndAwait(ctx, s.cfg.EditModel, input)
}

// EditMany - 여러 장 순차 보정, 실패는 건별 격리
// onProgress는 각 건이 끝날 때마다 호출됨 (nil 허용)
func (s *Service) EditMany(ctx context.Context, reqs []*EditRequest, onProgress func(done, total int, result EditResult)) []EditResult {
	results := make([]EditResult, 0, len(reqs))

	for i, req := range reqs {
		result := EditResult{InputImage: req.InputImage}

		url, err := s.EditImage(ctx, req)
		if err != nil {
			log.Printf("⚠️ [Edit] Item %d/%d failed: %v", i+1, len(reqs), err)
			result.ErrorMessage = err.Error()
		} else {
			result.OutputURL = url
		}

		results = append(results, result)
		if onProgress != nil {
			onProgress(i+1, len(reqs), result)
		}
	}

	return results
}
