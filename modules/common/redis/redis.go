package redis

import (
	"context"
	"crypto/tls"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"packshot-studio-server/modules/common/config"
)

const (
	QueueKey        = "photoshoot:queue"
	jobKeyPrefix    = "photoshoot:job:"
	cancelKeyPrefix = "photoshoot:cancel:"
)

// Connect - Redis 연결 생성
func Connect(cfg *config.Config) *redis.Client {
	log.Printf("🔌 Connecting to Redis: %s", cfg.GetRedisAddr())

	// TLS 설정 (InsecureSkipVerify 추가)
	var tlsConfig *tls.Config
	if cfg.RedisUseTLS {
		tlsConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // Render.com Redis용
		}
	}

	// Redis 클라이언트 생성
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.GetRedisAddr(),
		Username:     cfg.RedisUsername,
		Password:     cfg.RedisPassword,
		TLSConfig:    tlsConfig,
		DB:           0,                // 기본 DB
		DialTimeout:  10 * time.Second, // 타임아웃 늘림
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// 연결 테스트
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Printf("🔍 Testing Redis connection...")
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("❌ Redis ping failed: %v", err)
		return nil
	}

	return rdb
}

// JobKey - 작업 페이로드 키
func JobKey(runID string) string {
	return jobKeyPrefix + runID
}

// SetJobCancelled - 취소 플래그 설정 (1시간 TTL)
func SetJobCancelled(ctx context.Context, rdb *redis.Client, runID string) error {
	key := cancelKeyPrefix + runID
	if err := rdb.Set(ctx, key, "1", time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set cancel flag: %w", err)
	}
	log.Printf("🛑 [Redis] Cancel flag set: %s", key)
	return nil
}

// IsJobCancelled - 취소 플래그 확인
func IsJobCancelled(ctx context.Context, rdb *redis.Client, runID string) bool {
	key := cancelKeyPrefix + runID
	val, err := rdb.Get(ctx, key).Result()
	if err != nil {
		return false // 키 없음 = 취소 안됨
	}
	return val == "1"
}

// ClearJobCancelled - 취소 플래그 제거
func ClearJobCancelled(ctx context.Context, rdb *redis.Client, runID string) {
	rdb.Del(ctx, cancelKeyPrefix+runID)
}
