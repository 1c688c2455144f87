package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/supabase-community/supabase-go"

	"packshot-studio-server/modules/common/config"
	"packshot-studio-server/modules/common/imaging"
)

// Entry - 생성 히스토리 1건
type Entry struct {
	ID          int64  `json:"id,omitempty"`
	Prompt      string `json:"prompt"`
	ImageURL    string `json:"image_url"`
	Title       string `json:"title"`
	AspectRatio string `json:"aspect_ratio"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// Service - 히스토리 보관 (supabase 테이블 + 스토리지 아카이브)
// 보관 실패는 파이프라인을 막지 않음 (best-effort)
type Service struct {
	cfg      *config.Config
	supabase *supabase.Client
}

// NewService - 히스토리 서비스 생성, supabase 미설정 시 nil 반환
func NewService(cfg *config.Config) *Service {
	if cfg.SupabaseURL == "" || cfg.SupabaseServiceKey == "" {
		log.Println("⚠️ [History] Supabase not configured, history disabled")
		return nil
	}

	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		log.Printf("❌ [History] Failed to create Supabase client: %v", err)
		return nil
	}

	log.Println("✅ [History] Service initialized")
	return &Service{cfg: cfg, supabase: client}
}

// Save - 히스토리 레코드 저장 + 이미지 아카이브
func (s *Service) Save(ctx context.Context, entry Entry) error {
	archivedURL, err := s.ArchiveImage(ctx, entry.ImageURL)
	if err != nil {
		log.Printf("⚠️ [History] Image archive failed, keeping original URL: %v", err)
	} else {
		entry.ImageURL = archivedURL
	}

	insertData := map[string]interface{}{
		"prompt":       entry.Prompt,
		"image_url":    entry.ImageURL,
		"title":        entry.Title,
		"aspect_ratio": entry.AspectRatio,
	}

	_, _, err = s.supabase.From("packshot_history").
		Insert(insertData, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert history record: %w", err)
	}

	log.Printf("💾 [History] Saved: %s", entry.Title)
	return nil
}

// List - 최신 히스토리 조회
func (s *Service) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}

	data, _, err := s.supabase.From("packshot_history").
		Select("*", "", false).
		Order("created_at", nil).
		Limit(limit, "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history: %w", err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse history records: %w", err)
	}
	return entries, nil
}

// ArchiveImage - 생성 이미지를 WebP로 변환해 스토리지에 업로드
func (s *Service) ArchiveImage(ctx context.Context, imageURL string) (string, error) {
	in, err := imaging.FetchAsInput(ctx, imageURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch image for archive: %w", err)
	}

	data, err := in.Decode()
	if err != nil {
		return "", err
	}

	contentType := "image/webp"
	if strings.Contains(in.MimeType, "png") {
		if webpData, err := imaging.ConvertPNGToWebP(data, 90.0); err == nil {
			data = webpData
		} else {
			log.Printf("⚠️ [History] WebP conversion failed, archiving original: %v", err)
			contentType = in.MimeType
		}
	} else {
		contentType = in.MimeType
	}

	fileName := fmt.Sprintf("packshots/%d.webp", time.Now().UnixNano()/int64(time.Millisecond))
	uploadURL := fmt.Sprintf("%s/storage/v1/object/packshot-archive/%s", s.cfg.SupabaseURL, fileName)

	req, err := http.NewRequestWithContext(ctx, "POST", uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.SupabaseServiceKey)
	req.Header.Set("Content-Type", contentType)

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload archive: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("archive upload failed with status %d: %s", resp.StatusCode, string(body))
	}

	archivedURL := s.cfg.SupabaseStorageBaseURL + fileName
	log.Printf("📦 [History] Archived: %s (%d bytes)", fileName, len(data))
	return archivedURL, nil
}
