package edit

import (
	"context"
	"errors"
	"testing"

	"packshot-studio-server/modules/common/apperr"
	"packshot-studio-server/modules/common/config"
	replicateapi "packshot-studio-server/modules/replicate"
)

func newEditService(mock *replicateapi.MockClient) *Service {
	return NewService(&config.Config{EditModel: "flux-kontext/pro"}, mock)
}

func TestEditImageValidation(t *testing.T) {
	service := newEditService(replicateapi.NewMockClient())

	_, err := service.EditImage(context.Background(), &EditRequest{InputImage: "https://x/a.png"})
	if !apperr.Is(err, apperr.Validation) {
		t.Errorf("empty prompt must be rejected, got %v", err)
	}

	_, err = service.EditImage(context.Background(), &EditRequest{Prompt: "remove the wrinkle"})
	if !apperr.Is(err, apperr.Validation) {
		t.Errorf("missing input image must be rejected, got %v", err)
	}
}

func TestEditImageInput(t *testing.T) {
	mock := replicateapi.NewMockClient()
	service := newEditService(mock)

	url, err := service.EditImage(context.Background(), &EditRequest{
		Prompt:       "brighten the background",
		InputImage:   "https://x/in.png",
		OutputFormat: "png",
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
	if calls[0].Model != "flux-kontext/pro" {
		t.Errorf("wrong model: %s", calls[0].Model)
	}
	if calls[0].Input["input_image"] != "https://x/in.png" {
		t.Errorf("input image not forwarded: %v", calls[0].Input)
	}
	if calls[0].Input["output_format"] != "png" {
		t.Errorf("output format not forwarded: %v", calls[0].Input)
	}
}

func TestEditManyIsolatesFailures(t *testing.T) {
	mock := replicateapi.NewMockClient()
	mock.Script = []replicateapi.MockOutcome{
		{URL: "https://x/1.png"},
		{Err: errors.New("edit failed")},
		{URL: "https://x/3.png"},
	}
	service := newEditService(mock)

	var progressCalls int
	reqs := []*EditRequest{
		{Prompt: "p1", InputImage: "https://x/a.png"},
		{Prompt: "p2", InputImage: "https://x/b.png"},
		{Prompt: "p3", InputImage: "https://x/c.png"},
	}
	results := service.EditMany(context.Background(), reqs, func(done, total int, result EditResult) {
		progressCalls++
	})

	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[0].OutputURL == "" || results[2].OutputURL == "" {
		t.Error("successful edits must carry output URLs")
	}
	if results[1].ErrorMessage == "" {
		t.Error("failed edit must carry its error message")
	}
	if progressCalls != 3 {
		t.Errorf("progress callback must fire per item, got %d", progressCalls)
	}
}
