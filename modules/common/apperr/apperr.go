package apperr

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
)

// Kind - 오류 분류
type Kind string

const (
	Validation Kind = "VALIDATION"
	Auth       Kind = "AUTH"
	Quota      Kind = "QUOTA"
	Safety     Kind = "SAFETY"
	Schema     Kind = "SCHEMA"
	Timeout    Kind = "TIMEOUT"
	Remote     Kind = "REMOTE"
)

// Error - kind 태그가 붙은 오류
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New - kind와 메시지로 오류 생성
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf - 포맷 버전
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap - 기존 오류를 kind로 감싸기
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf - 오류의 kind 추출 (없으면 Remote)
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return Remote
}

// Is - kind 일치 확인
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// Classify - 원격 API 오류를 kind별로 분류
// googleapi.Error 상태코드 우선, 그 다음 메시지 매칭
func Classify(err error) *Error {
	if err == nil {
		return nil
	}

	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case 401, 403:
			return Wrap(Auth, "API key is invalid or unauthorized", err)
		case 429:
			return Wrap(Quota, "API quota exceeded, please try again later", err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key") || strings.Contains(msg, "unauthorized") || strings.Contains(msg, "unauthenticated"):
		return Wrap(Auth, "API key is invalid or unauthorized", err)
	case strings.Contains(msg, "429") || strings.Contains(msg, "quota") || strings.Contains(msg, "resource_exhausted") || strings.Contains(msg, "rate limit"):
		return Wrap(Quota, "API quota exceeded, please try again later", err)
	case strings.Contains(msg, "safety") || strings.Contains(msg, "blocked"):
		return Wrap(Safety, "request was blocked by content safety filters", err)
	case strings.Contains(msg, "timeout") || strings.Contains(msg, "deadline exceeded"):
		return Wrap(Timeout, "request timed out", err)
	default:
		return Wrap(Remote, "remote service error", err)
	}
}
