package photoshoot

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"packshot-studio-server/modules/common/apperr"
	commonmodel "packshot-studio-server/modules/common/model"
	"packshot-studio-server/modules/progress"
)

// Handler - 촬영 실행 HTTP 핸들러
type Handler struct {
	service *Service
	worker  *Worker
}

// NewHandler - 핸들러 생성
func NewHandler(service *Service, worker *Worker) *Handler {
	return &Handler{service: service, worker: worker}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/photoshoot/runs", h.CreateRun).Methods("POST")
	r.HandleFunc("/api/photoshoot/runs/{id}", h.GetRun).Methods("GET")
	r.HandleFunc("/api/photoshoot/runs/{id}/cancel", h.CancelRun).Methods("POST")
	r.HandleFunc("/api/photoshoot/runs/{id}/tasks/{taskId}/retry", h.RetryTask).Methods("POST")
	r.HandleFunc("/ws/runs/{id}", h.StreamProgress)
}

// RunResponse - 실행 응답
type RunResponse struct {
	Success      bool   `json:"success"`
	Run          *Run   `json:"run,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

// TaskResponse - 태스크 응답
type TaskResponse struct {
	Success      bool            `json:"success"`
	Task         *GenerationTask `json:"task,omitempty"`
	ErrorMessage string          `json:"errorMessage,omitempty"`
	ErrorCode    string          `json:"errorCode,omitempty"`
}

// CreateRun - 실행 생성 + 큐 등록
func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, RunResponse{
			Success: false, ErrorMessage: "invalid request body", ErrorCode: string(apperr.Validation),
		})
		return
	}

	if req.Pack == "" {
		req.Pack = commonmodel.PackAll
	}
	if !commonmodel.IsValidPack(req.Pack) {
		writeJSON(w, http.StatusBadRequest, RunResponse{
			Success: false, ErrorMessage: "invalid pack: " + req.Pack, ErrorCode: string(apperr.Validation),
		})
		return
	}
	if len(req.SubjectImages) < 1 || len(req.SubjectImages) > 2 {
		writeJSON(w, http.StatusBadRequest, RunResponse{
			Success: false, ErrorMessage: "expected 1 or 2 subject images", ErrorCode: string(apperr.Validation),
		})
		return
	}

	run := h.service.Runs().Create(req)

	if h.worker != nil {
		if err := h.worker.Enqueue(r.Context(), run); err != nil {
			log.Printf("❌ [Photoshoot] Enqueue failed: %v", err)
			writeJSON(w, http.StatusInternalServerError, RunResponse{
				Success: false, ErrorMessage: "failed to enqueue run", ErrorCode: string(apperr.Remote),
			})
			return
		}
	} else {
		// 워커 없이 돌 때(개발 환경)는 인라인 고루틴으로 실행
		go h.service.RunPipeline(context.Background(), run.ID)
	}

	writeJSON(w, http.StatusAccepted, RunResponse{Success: true, Run: run})
}

// GetRun - 실행 스냅샷 조회
func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	run, ok := h.service.Runs().Get(runID)
	if !ok {
		writeJSON(w, http.StatusNotFound, RunResponse{
			Success: false, ErrorMessage: "run not found", ErrorCode: string(apperr.Validation),
		})
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{Success: true, Run: run})
}

// CancelRun - 취소 플래그 설정 (태스크 사이 경계에서 반영됨)
func (h *Handler) CancelRun(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	if err := h.service.Cancel(r.Context(), runID); err != nil {
		status := http.StatusInternalServerError
		if apperr.Is(err, apperr.Validation) {
			status = http.StatusNotFound
		}
		writeJSON(w, status, RunResponse{
			Success: false, ErrorMessage: err.Error(), ErrorCode: string(apperr.KindOf(err)),
		})
		return
	}

	writeJSON(w, http.StatusOK, RunResponse{Success: true})
}

// RetryTask - 실패 태스크 재시도
func (h *Handler) RetryTask(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	task, err := h.service.RetryTask(r.Context(), vars["id"], vars["taskId"])
	if err != nil {
		status := http.StatusInternalServerError
		if apperr.Is(err, apperr.Validation) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, TaskResponse{
			Success: false, Task: task, ErrorMessage: err.Error(), ErrorCode: string(apperr.KindOf(err)),
		})
		return
	}

	writeJSON(w, http.StatusOK, TaskResponse{Success: true, Task: task})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamProgress - 진행 상태 웹소켓 스트림 (전체 스냅샷 방송)
func (h *Handler) StreamProgress(w http.ResponseWriter, r *http.Request) {
	runID := mux.Vars(r)["id"]

	tracker := h.service.Runs().Tracker(runID)
	if tracker == nil {
		http.Error(w, "run not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("❌ [Photoshoot] WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("🔗 [Photoshoot] Progress stream connected: %s", runID)

	states := make(chan progress.State, 16)
	unsubscribe := tracker.Subscribe(func(s progress.State) {
		select {
		case states <- s:
		default: // 느린 소비자는 스냅샷을 건너뜀 (다음 방송이 전체 상태를 다시 줌)
		}
	})
	defer unsubscribe()

	// 클라이언트 종료 감지
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			log.Printf("👋 [Photoshoot] Progress stream closed: %s", runID)
			return
		case state := <-states:
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteJSON(state); err != nil {
				return
			}
		}
	}
}

// writeJSON - 공용 JSON 응답 헬퍼
func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
