package upscale

import (
	"context"
	"log"

	"packshot-studio-server/modules/common/apperr"
	"packshot-studio-server/modules/common/config"
	replicateapi "packshot-studio-server/modules/replicate"
)

// UpscaleRequest - 업스케일 요청
type UpscaleRequest struct {
	ImageURL     string `json:"imageUrl"`
	Scale        int    `json:"scale"` // 2 또는 4
	OutputFormat string `json:"outputFormat,omitempty"`
	FaceEnhance  bool   `json:"faceEnhance,omitempty"`
}

// Service - Real-ESRGAN 업스케일
type Service struct {
	cfg    *config.Config
	client replicateapi.Client
}

// NewService - 업스케일 서비스 생성
func NewService(cfg *config.Config, client replicateapi.Client) *Service {
	return &Service{cfg: cfg, client: client}
}

// Upscale - 이미지 해상도 확대
func (s *Service) Upscale(ctx context.Context, req *UpscaleRequest) (string, error) {
	if req.ImageURL == "" {
		return "", apperr.New(apperr.Validation, "image URL is required")
	}
	if req.Scale != 2 && req.Scale != 4 {
		return "", apperr.Newf(apperr.Validation, "scale must be 2 or 4, got %d", req.Scale)
	}

	input := map[string]interface{}{
		"image": req.ImageURL,
		"scale": req.Scale,
	}
	if req.FaceEnhance {
		input["face_enhance"] = true
	}

	log.Printf("🔍 [Upscale] Upscaling x%d with model %s", req.Scale, s.cfg.UpscaleModel)
	return s.client.SubmitAndAwait(ctx, s.cfg.UpscaleModel, input)
}
