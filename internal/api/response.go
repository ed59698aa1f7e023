package api

import (
	"encoding/json"
	"net/http"

	"github.com/RecoveryAshes/teocruel/internal/models"
	"github.com/rs/zerolog/log"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	State     string `json:"state,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// RunSpiderResponse 启动任务成功的响应
type RunSpiderResponse struct {
	Status  string `json:"status"`
	TaskID  string `json:"task_id"`
	Message string `json:"message"`
}

// ProcessingResponse 任务处理中
type ProcessingResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	State   string `json:"state,omitempty"`
}

// CompletedResponse 任务完成, results总是数组
type CompletedResponse struct {
	Status  string               `json:"status"`
	Message string               `json:"message"`
	Results []models.CrawlRecord `json:"results"`
	State   string               `json:"state,omitempty"`
	Stats   *models.CrawlStats   `json:"stats,omitempty"`
}

// HealthResponse 健康检查响应
type HealthResponse struct {
	Status    string      `json:"status"`
	Version   string      `json:"version,omitempty"`
	Resources interface{} `json:"resources,omitempty"`
}

// WriteJSON 写出JSON响应
func WriteJSON(w http.ResponseWriter, r *http.Request, data interface{}, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Err(err).
			Str("request_id", GetRequestID(r)).
			Msg("写出JSON响应失败")
	}
}

// writeError 写出本地化的错误响应
func writeError(w http.ResponseWriter, r *http.Request, status int, key string, args ...interface{}) {
	WriteJSON(w, r, ErrorResponse{
		Status:    string(models.StatusError),
		Message:   translate(r, key, args...),
		RequestID: GetRequestID(r),
	}, status)
}
