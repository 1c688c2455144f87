package history

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
)

// Handler - 히스토리 HTTP 핸들러
type Handler struct {
	service *Service
}

// NewHandler - 핸들러 생성 (service nil 허용 - supabase 미설정)
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/history", h.List).Methods("GET")
}

// ListResponse - 히스토리 조회 응답
type ListResponse struct {
	Success      bool    `json:"success"`
	Entries      []Entry `json:"entries,omitempty"`
	ErrorMessage string  `json:"errorMessage,omitempty"`
}

// List - 최신 히스토리 조회
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.service == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(ListResponse{Success: false, ErrorMessage: "history is not configured"})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	entries, err := h.service.List(r.Context(), limit)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ListResponse{Success: false, ErrorMessage: err.Error()})
		return
	}

	json.NewEncoder(w).Encode(ListResponse{Success: true, Entries: entries})
}
