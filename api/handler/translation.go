package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/KuperOK/Translate-AI-helper/api/middleware"
	"github.com/KuperOK/Translate-AI-helper/api/model"
	"github.com/KuperOK/Translate-AI-helper/internal/llm"
	"github.com/KuperOK/Translate-AI-helper/internal/repository"
	"github.com/KuperOK/Translate-AI-helper/internal/services"
	"github.com/KuperOK/Translate-AI-helper/internal/splitter"
	"github.com/KuperOK/Translate-AI-helper/pkg/taskqueue"
)

// TranslationHandler serves the translation API.
type TranslationHandler struct {
	service *services.TranslationService
	queue   taskqueue.Queue // nil runs jobs in-process
	logger  *logrus.Logger
}

// NewTranslationHandler creates the handler. A nil queue means uploads are
// processed by a goroutine instead of a worker.
func NewTranslationHandler(service *services.TranslationService, queue taskqueue.Queue) *TranslationHandler {
	return &TranslationHandler{
		service: service,
		queue:   queue,
		logger:  middleware.GetLogger(),
	}
}

// Upload accepts a text file and starts its translation.
// POST /api/translations
func (h *TranslationHandler) Upload(c *gin.Context) {
	var req model.TranslationUploadRequest
	if err := c.ShouldBind(&req); err != nil {
		h.logger.WithField("error", err.Error()).Warn("Invalid translation request")
		middleware.HandleError(c, middleware.NewValidationError("invalid request parameters", err.Error()))
		return
	}

	if !strings.EqualFold(filepath.Ext(req.File.Filename), ".txt") {
		middleware.HandleError(c, middleware.NewValidationError("unsupported file type, only .txt is accepted"))
		return
	}

	if req.Model == "" {
		req.Model = llm.ModelGPT4oMini
	}

	file, err := req.File.Open()
	if err != nil {
		h.logger.WithFields(logrus.Fields{
			"error":    err.Error(),
			"filename": req.File.Filename,
		}).Error("Failed to open uploaded file")
		middleware.HandleError(c, middleware.NewInternalError("failed to open uploaded file"))
		return
	}
	defer file.Close()

	job, err := h.service.Submit(c.Request.Context(), file, req.File.Filename, req.NumParts, req.Model)
	if err != nil {
		middleware.HandleError(c, appErrorFor(err))
		return
	}

	h.logger.WithFields(logrus.Fields{
		"job_id":    job.ID,
		"filename":  job.FileName,
		"num_parts": job.NumParts,
		"model":     job.Model,
		"cached":    job.Cached,
	}).Info("Translation submitted")

	// A cache hit is already complete; anything else goes to a worker or
	// an in-process goroutine.
	if !job.Cached {
		h.dispatch(job.ID, job.FilePath, job.NumParts, job.Model)
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ConvertJob(job)))
}

// dispatch hands the job to the queue, or runs it in-process when no queue
// is configured.
func (h *TranslationHandler) dispatch(jobID, filePath string, numParts int, modelName string) {
	if h.queue != nil {
		payload := taskqueue.TranslatePayload{
			JobID:    jobID,
			FilePath: filePath,
			NumParts: numParts,
			Model:    modelName,
		}
		_, err := h.queue.Enqueue(context.Background(), taskqueue.TaskTranslateDocument, jobID, payload)
		if err == nil {
			return
		}
		h.logger.WithField("job_id", jobID).WithError(err).Error("Failed to enqueue translation, falling back to in-process run")
	}

	go func() {
		if err := h.service.Process(context.Background(), jobID); err != nil {
			h.logger.WithFields(logrus.Fields{
				"error":  err.Error(),
				"job_id": jobID,
			}).Error("Translation failed")
		}
	}()
}

// Status reports job progress.
// GET /api/translations/:id
func (h *TranslationHandler) Status(c *gin.Context) {
	var uri model.JobURI
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid job id"))
		return
	}

	job, err := h.service.GetJob(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, appErrorFor(err))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ConvertJob(job)))
}

// Download streams the completed output file.
// GET /api/translations/:id/download
func (h *TranslationHandler) Download(c *gin.Context) {
	var uri model.JobURI
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid job id"))
		return
	}

	name, reader, err := h.service.Output(c.Request.Context(), uri.ID)
	if err != nil {
		middleware.HandleError(c, appErrorFor(err))
		return
	}
	defer reader.Close()

	content, err := io.ReadAll(reader)
	if err != nil {
		middleware.HandleError(c, middleware.NewInternalError("failed to read output file"))
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", content)
}

// List returns jobs newest first.
// GET /api/translations
func (h *TranslationHandler) List(c *gin.Context) {
	var query model.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid pagination parameters"))
		return
	}

	jobs, total, err := h.service.ListJobs(c.Request.Context(), query.Offset(), query.PageSize)
	if err != nil {
		middleware.HandleError(c, appErrorFor(err))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(model.TranslationListResponse{
		Total:    total,
		Page:     query.Page,
		PageSize: query.PageSize,
		Jobs:     model.ConvertJobs(jobs),
	}))
}

// Delete removes a job and its stored files.
// DELETE /api/translations/:id
func (h *TranslationHandler) Delete(c *gin.Context) {
	var uri model.JobURI
	if err := c.ShouldBindUri(&uri); err != nil {
		middleware.HandleError(c, middleware.NewValidationError("invalid job id"))
		return
	}

	if err := h.service.DeleteJob(c.Request.Context(), uri.ID); err != nil {
		middleware.HandleError(c, appErrorFor(err))
		return
	}

	c.JSON(http.StatusOK, model.NewSuccessResponse(gin.H{"job_id": uri.ID, "deleted": true}))
}

// Models lists the selectable completion models.
// GET /api/models
func (h *TranslationHandler) Models(c *gin.Context) {
	c.JSON(http.StatusOK, model.NewSuccessResponse(model.ModelsResponse{Models: llm.Models()}))
}

// appErrorFor maps pipeline errors onto the API error taxonomy.
func appErrorFor(err error) middleware.AppError {
	switch {
	case errors.Is(err, repository.ErrJobNotFound):
		return middleware.NewNotFoundError("translation job not found")
	case errors.Is(err, services.ErrJobNotCompleted):
		return middleware.NewConflictError("translation is not completed yet")
	case errors.Is(err, services.ErrInvalidCredential):
		return middleware.NewUnauthorizedError("completion service credential is missing or invalid")
	case errors.Is(err, services.ErrSplitCountOutOfRange),
		errors.Is(err, services.ErrUnknownModel),
		errors.Is(err, splitter.ErrInvalidSplitCount):
		return middleware.NewValidationError(err.Error())
	case errors.Is(err, splitter.ErrInvalidEncoding):
		return middleware.NewValidationError("uploaded file is not valid UTF-8 text")
	}

	switch llm.ErrorCode(err) {
	case llm.ErrCodeInvalidAPIKey:
		return middleware.NewUnauthorizedError("completion service rejected the API key")
	case llm.ErrCodeRateLimited, llm.ErrCodeServerError, llm.ErrCodeNetworkError, llm.ErrCodeTimeout:
		return middleware.NewUpstreamError("completion service request failed: " + err.Error())
	}

	return middleware.NewInternalError(err.Error())
}
