package upscale

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"packshot-studio-server/modules/common/apperr"
)

// Handler - 업스케일 HTTP 핸들러
type Handler struct {
	service *Service
}

// NewHandler - 핸들러 생성
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/upscale", h.Upscale).Methods("POST")
}

// UpscaleResponse - 업스케일 응답
type UpscaleResponse struct {
	Success      bool   `json:"success"`
	OutputURL    string `json:"outputUrl,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

// Upscale - 이미지 업스케일
func (h *Handler) Upscale(w http.ResponseWriter, r *http.Request) {
	var req UpscaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, UpscaleResponse{
			Success: false, ErrorMessage: "invalid request body", ErrorCode: string(apperr.Validation),
		})
		return
	}

	url, err := h.service.Upscale(r.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if apperr.Is(err, apperr.Validation) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, UpscaleResponse{
			Success: false, ErrorMessage: err.Error(), ErrorCode: string(apperr.KindOf(err)),
		})
		return
	}

	writeJSON(w, http.StatusOK, UpscaleResponse{Success: true, OutputURL: url})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
