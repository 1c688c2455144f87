package edit

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"packshot-studio-server/modules/common/apperr"
)

// Handler - 보정 HTTP 핸들러
type Handler struct {
	service *Service
}

// NewHandler - 핸들러 생성
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes - 라우트 등록
func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/edit", h.Edit).Methods("POST")
	r.HandleFunc("/api/edit/batch", h.EditBatch).Methods("POST")
}

// EditResponse - 보정 응답
type EditResponse struct {
	Success      bool   `json:"success"`
	OutputURL    string `json:"outputUrl,omitempty"`
	ErrorMessage string `json:"errorMessage,omitempty"`
	ErrorCode    string `json:"errorCode,omitempty"`
}

// BatchEditResponse - 일괄 보정 응답
type BatchEditResponse struct {
	Success      bool         `json:"success"`
	Results      []EditResult `json:"results,omitempty"`
	ErrorMessage string       `json:"errorMessage,omitempty"`
	ErrorCode    string       `json:"errorCode,omitempty"`
}

// Edit - 이미지 1장 보정
func (h *Handler) Edit(w http.ResponseWriter, r *http.Request) {
	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, EditResponse{
			Success: false, ErrorMessage: "invalid request body", ErrorCode: string(apperr.Validation),
		})
		return
	}

	url, err := h.service.EditImage(r.Context(), &req)
	if err != nil {
		status := http.StatusInternalServerError
		if apperr.Is(err, apperr.Validation) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, EditResponse{
			Success: false, ErrorMessage: err.Error(), ErrorCode: string(apperr.KindOf(err)),
		})
		return
	}

	writeJSON(w, http.StatusOK, EditResponse{Success: true, OutputURL: url})
}

// EditBatch - 여러 장 순차 보정
func (h *Handler) EditBatch(w http.ResponseWriter, r *http.Request) {
	var reqs []*EditRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeJSON(w, http.StatusBadRequest, BatchEditResponse{
			Success: false, ErrorMessage: "invalid request body", ErrorCode: string(apperr.Validation),
		})
		return
	}
	if len(reqs) == 0 {
		writeJSON(w, http.StatusBadRequest, BatchEditResponse{
			Success: false, ErrorMessage: "at least one edit request required", ErrorCode: string(apperr.Validation),
		})
		return
	}

	results := h.service.EditMany(r.Context(), reqs, nil)
	writeJSON(w, http.StatusOK, BatchEditResponse{Success: true, Results: results})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
