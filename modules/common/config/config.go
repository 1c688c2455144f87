package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port string

	// Gemini API
	GeminiAPIKey string
	GeminiModel  string

	// Replicate API
	ReplicateAPIToken string
	ReplicateAPIURL   string
	FusionModel       string // 참조 이미지 기반 생성 모델
	TextModel         string // 텍스트 전용 생성 모델
	EditModel         string
	UpscaleModel      string

	// Polling
	PollInterval    time.Duration
	MaxPollAttempts int

	// Batch
	TaskDelay        time.Duration // 배치 내 순차 생성 사이 대기
	BatchConcurrency int           // 0 또는 1이면 순차 모드

	// Redis
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase (히스토리 보관용)
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseStorageBaseURL string
}

// Load - 환경변수 로드
func Load() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	// Redis UseTLS 파싱
	useTLS := true // 기본값
	if tlsStr := os.Getenv("REDIS_USE_TLS"); tlsStr != "" {
		if parsed, err := strconv.ParseBool(tlsStr); err == nil {
			useTLS = parsed
		}
	}

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8080"),

		// Gemini API
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash"),

		// Replicate API
		ReplicateAPIToken: getEnv("REPLICATE_API_TOKEN", ""),
		ReplicateAPIURL:   getEnv("REPLICATE_API_URL", "https://api.replicate.com/v1"),
		FusionModel:       getEnv("REPLICATE_FUSION_MODEL", "flux-kontext-apps/multi-image-list"),
		TextModel:         getEnv("REPLICATE_TEXT_MODEL", "stability-ai/sdxl"),
		EditModel:         getEnv("REPLICATE_EDIT_MODEL", "black-forest-labs/flux-kontext-pro"),
		UpscaleModel:      getEnv("REPLICATE_UPSCALE_MODEL", "nightmareai/real-esrgan"),

		// Polling
		PollInterval:    getEnvDuration("POLL_INTERVAL_MS", 3000),
		MaxPollAttempts: getEnvInt("MAX_POLL_ATTEMPTS", 100),

		// Batch
		TaskDelay:        getEnvDuration("TASK_DELAY_MS", 1000),
		BatchConcurrency: getEnvInt("BATCH_CONCURRENCY", 0),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   useTLS,

		// Supabase
		SupabaseURL:            getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseStorageBaseURL: getEnv("SUPABASE_STORAGE_BASE_URL", ""),
	}

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Gemini: %s", cfg.GeminiModel)
	log.Printf("   Replicate: %s (fusion: %s, text: %s)", cfg.ReplicateAPIURL, cfg.FusionModel, cfg.TextModel)
	log.Printf("   Redis: %s:%s (TLS: %v)", cfg.RedisHost, cfg.RedisPort, cfg.RedisUseTLS)
	log.Printf("   Batch: delay=%v, concurrency=%d", cfg.TaskDelay, cfg.BatchConcurrency)

	return cfg, nil
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.ReplicateAPIToken == "" {
		return fmt.Errorf("REPLICATE_API_TOKEN is required")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("REDIS_HOST is required")
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultMS int) time.Duration {
	return time.Duration(getEnvInt(key, defaultMS)) * time.Millisecond
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
