package upscale

import (
	"context"
	"testing"

	"packshot-studio-server/modules/common/apperr"
	"packshot-studio-server/modules/common/config"
	replicateapi "packshot-studio-server/modules/replicate"
)

func newUpscaleService(mock *replicateapi.MockClient) *Service {
	return NewService(&config.Config{UpscaleModel: "nightmareai/real-esrgan"}, mock)
}

func TestUpscaleScaleValidation(t *testing.T) {
	service := newUpscaleService(replicateapi.NewMockClient())

	for _, scale := range []int{0, 1, 3, 8} {
		_, err := service.Upscale(context.Background(), &UpscaleRequest{ImageURL: "https://x/a.png", Scale: scale})
		if !apperr.Is(err, apperr.Validation) {
			t.Errorf("scale %d must be rejected, got %v", scale, err)
		}
	}

	_, err := service.Upscale(context.Background(), &UpscaleRequest{Scale: 2})
	if !apperr.Is(err, apperr.Validation) {
		t.Errorf("missing image URL must be rejected, got %v", err)
	}
}

func TestUpscaleInput(t *testing.T) {
	mock := replicateapi.NewMockClient()
	service := newUpscaleService(mock)

	url, err := service.Upscale(context.Background(), &UpscaleRequest{
		ImageURL: "https://x/low.png",
		Scale:    4,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url == "" {
		t.Error("expected output URL")
	}

	calls := mock.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Model != "nightmareai/real-esrgan" {
		t.Errorf("wrong model: %s", calls[0].Model)
	}
	if calls[0].Input["image"] != "https://x/low.png" || calls[0].Input["scale"] != 4 {
		t.Errorf("input not forwarded: %v", calls[0].Input)
	}
	if _, ok := calls[0].Input["face_enhance"]; ok {
		t.Error("face_enhance must be omitted unless requested")
	}
}
