package model

import (
	"time"

	"github.com/KuperOK/Translate-AI-helper/internal/models"
)

// Response is the common envelope for all API answers.
type Response struct {
	Code    int         `json:"code"` // 0 on success
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// NewSuccessResponse wraps data in a success envelope.
func NewSuccessResponse(data interface{}) *Response {
	return &Response{Code: 0, Message: "success", Data: data}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(code int, message string) *Response {
	return &Response{Code: code, Message: message}
}

// TranslationJobResponse is the API view of one translation job.
type TranslationJobResponse struct {
	JobID       string `json:"job_id"`
	FileName    string `json:"filename"`
	Model       string `json:"model"`
	NumParts    int    `json:"num_parts"`
	Status      string `json:"status"`
	Progress    int    `json:"progress"`     // completed segments, 0..num_parts
	DurationMs  int64  `json:"duration_ms"`  // wall-clock translation time
	OutputName  string `json:"output_name"`  // download filename once completed
	Cached      bool   `json:"cached"`       // served from the result cache
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

// TranslationListResponse is the paginated job list.
type TranslationListResponse struct {
	Total    int64                    `json:"total"`
	Page     int                      `json:"page"`
	PageSize int                      `json:"page_size"`
	Jobs     []TranslationJobResponse `json:"jobs"`
}

// ModelsResponse lists the selectable completion models.
type ModelsResponse struct {
	Models []string `json:"models"`
}

// ConvertJob maps the database record to its API view.
func ConvertJob(job *models.TranslationJob) TranslationJobResponse {
	resp := TranslationJobResponse{
		JobID:      job.ID,
		FileName:   job.FileName,
		Model:      job.Model,
		NumParts:   job.NumParts,
		Status:     string(job.Status),
		Progress:   job.Progress,
		DurationMs: job.DurationMs,
		OutputName: job.OutputName,
		Cached:     job.Cached,
		Error:      job.Error,
		CreatedAt:  job.CreatedAt.Format(time.RFC3339),
	}
	if job.CompletedAt != nil {
		resp.CompletedAt = job.CompletedAt.Format(time.RFC3339)
	}
	return resp
}

// ConvertJobs maps a list of records.
func ConvertJobs(jobs []models.TranslationJob) []TranslationJobResponse {
	out := make([]TranslationJobResponse, len(jobs))
	for i := range jobs {
		out[i] = ConvertJob(&jobs[i])
	}
	return out
}
