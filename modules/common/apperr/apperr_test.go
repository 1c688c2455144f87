package apperr

import (
	"errors"
	"fmt"
	"testing"

	"google.golang.org/api/googleapi"
)

func TestKindOfWrappedError(t *testing.T) {
	base := New(Quota, "quota exceeded")
	wrapped := fmt.Errorf("pipeline stage failed: %w", base)

	if KindOf(wrapped) != Quota {
		t.Errorf("kind must survive fmt.Errorf wrapping, got %s", KindOf(wrapped))
	}
	if !Is(wrapped, Quota) {
		t.Error("Is must match through wrapping")
	}
}

func TestKindOfPlainError(t *testing.T) {
	if KindOf(errors.New("something broke")) != Remote {
		t.Error("untagged errors default to Remote")
	}
}

func TestClassifyGoogleAPIError(t *testing.T) {
	tests := []struct {
		code int
		want Kind
	}{
		{401, Auth},
		{403, Auth},
		{429, Quota},
	}
	for _, tt := range tests {
		err := &googleapi.Error{Code: tt.code, Message: "x"}
		if got := Classify(err).Kind; got != tt.want {
			t.Errorf("status %d: expected %s, got %s", tt.code, tt.want, got)
		}
	}
}

func TestClassifyByMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want Kind
	}{
		{"API key not valid", Auth},
		{"429 RESOURCE_EXHAUSTED", Quota},
		{"response blocked by safety settings", Safety},
		{"context deadline exceeded", Timeout},
		{"connection reset by peer", Remote},
	}
	for _, tt := range tests {
		if got := Classify(errors.New(tt.msg)).Kind; got != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.msg, tt.want, got)
		}
	}
}

func TestClassifyPreservesExistingKind(t *testing.T) {
	err := New(Schema, "bad payload")
	if got := Classify(fmt.Errorf("outer: %w", err)).Kind; got != Schema {
		t.Errorf("already-tagged errors must keep their kind, got %s", got)
	}
}

func TestUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := Wrap(Timeout, "timed out", inner)
	if !errors.Is(err, inner) {
		t.Error("wrapped error must unwrap to inner")
	}
}
