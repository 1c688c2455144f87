package imaging

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image/png"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// ImageInput - API 호출에 쓰이는 인코딩된 이미지
type ImageInput struct {
	Base64   string `json:"base64"`
	MimeType string `json:"mimeType"`
}

// Encode - 바이트를 base64로 인코딩하고 MIME 타입 감지
func Encode(data []byte) ImageInput {
	return ImageInput{
		Base64:   base64.StdEncoding.EncodeToString(data),
		MimeType: http.DetectContentType(data),
	}
}

// Decode - base64 디코딩
func (in ImageInput) Decode() ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(in.Base64)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}
	return data, nil
}

// DataURL - data URL 형식으로 변환
func DataURL(in ImageInput) string {
	return fmt.Sprintf("data:%s;base64,%s", in.MimeType, in.Base64)
}

// ParseDataURL - data URL을 ImageInput으로 파싱
func ParseDataURL(s string) (ImageInput, error) {
	if !strings.HasPrefix(s, "data:") {
		return ImageInput{}, fmt.Errorf("not a data URL")
	}
	rest := strings.TrimPrefix(s, "data:")
	semi := strings.Index(rest, ";base64,")
	if semi < 0 {
		return ImageInput{}, fmt.Errorf("data URL is not base64-encoded")
	}
	mimeType := rest[:semi]
	payload := rest[semi+len(";base64,"):]
	if mimeType == "" || payload == "" {
		return ImageInput{}, fmt.Errorf("malformed data URL")
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return ImageInput{}, fmt.Errorf("data URL payload is not valid base64: %w", err)
	}
	return ImageInput{Base64: payload, MimeType: mimeType}, nil
}

// FetchAsInput - 생성된 이미지 URL을 다운로드해서 재인코딩
// (생성 결과를 다시 분석/보정 입력으로 쓸 때 사용)
func FetchAsInput(ctx context.Context, url string) (ImageInput, error) {
	if strings.HasPrefix(url, "data:") {
		return ParseDataURL(url)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return ImageInput{}, fmt.Errorf("failed to create image request: %w", err)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return ImageInput{}, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ImageInput{}, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ImageInput{}, fmt.Errorf("failed to read image body: %w", err)
	}

	log.Printf("📥 [Imaging] Downloaded image: %d bytes", len(data))
	return Encode(data), nil
}

// ConvertPNGToWebP - PNG를 WebP로 변환 (보관용, 용량 절감)
func ConvertPNGToWebP(data []byte, quality float32) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode PNG: %w", err)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	log.Printf("🖼️ [Imaging] PNG→WebP: %d → %d bytes", len(data), buf.Len())
	return buf.Bytes(), nil
}
