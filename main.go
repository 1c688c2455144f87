package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"packshot-studio-server/modules/analysis"
	"packshot-studio-server/modules/common/config"
	redisutil "packshot-studio-server/modules/common/redis"
	"packshot-studio-server/modules/edit"
	"packshot-studio-server/modules/history"
	"packshot-studio-server/modules/photoshoot"
	"packshot-studio-server/modules/refine"
	"packshot-studio-server/modules/replicate"
	"packshot-studio-server/modules/upscale"
)

var startTime = time.Now()

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "packshot-studio-server",
		"uptime":  time.Since(startTime).String(),
	})
}

func main() {
	// 환경변수 로드
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	// Redis 연결 (실패해도 서버는 뜸 - 큐/취소만 비활성화)
	rdb := redisutil.Connect(cfg)
	if rdb == nil {
		log.Println("⚠️ Redis unavailable, runs will execute inline without queue/cancel support")
	}

	// 서비스 구성 (의존성 주입)
	replicateClient := replicate.NewClient(cfg)
	analyzer := analysis.NewService(cfg)
	refiner := refine.NewService(cfg)
	historySvc := history.NewService(cfg) // supabase 미설정 시 nil
	runs := photoshoot.NewRunManager()

	photoshootSvc := photoshoot.NewService(cfg, replicateClient, analyzer, refiner, historySvc, runs, rdb)
	editSvc := edit.NewService(cfg, replicateClient)
	upscaleSvc := upscale.NewService(cfg, replicateClient)

	// 큐 워커 시작 (백그라운드)
	var worker *photoshoot.Worker
	if rdb != nil {
		worker = photoshoot.NewWorker(rdb, photoshootSvc)
		go worker.Start(context.Background())
	}

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")

	photoshoot.NewHandler(photoshootSvc, worker).RegisterRoutes(r)
	edit.NewHandler(editSvc).RegisterRoutes(r)
	upscale.NewHandler(upscaleSvc).RegisterRoutes(r)
	history.NewHandler(historySvc).RegisterRoutes(r)

	log.Printf("🚀 Packshot Studio Server starting on port %s", cfg.Port)
	log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
	log.Printf("📡 Progress stream: ws://localhost:%s/ws/runs/{id}", cfg.Port)

	// 서버 시작
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
