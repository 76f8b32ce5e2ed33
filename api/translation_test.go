package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/KuperOK/Translate-AI-helper/api/handler"
	"github.com/KuperOK/Translate-AI-helper/api/model"
	"github.com/KuperOK/Translate-AI-helper/internal/cache"
	"github.com/KuperOK/Translate-AI-helper/internal/llm"
	"github.com/KuperOK/Translate-AI-helper/internal/models"
	"github.com/KuperOK/Translate-AI-helper/internal/prompt"
	"github.com/KuperOK/Translate-AI-helper/internal/repository"
	"github.com/KuperOK/Translate-AI-helper/internal/services"
	"github.com/KuperOK/Translate-AI-helper/pkg/storage"
)

// echoClient answers every prompt with the fenced segment text. An optional
// gate channel holds the first call open so in-flight states can be observed.
type echoClient struct {
	gate chan struct{}
}

func (c *echoClient) Generate(ctx context.Context, promptText string, _ ...llm.GenerateOption) (*llm.Response, error) {
	if c.gate != nil {
		<-c.gate
	}
	parts := strings.Split(promptText, prompt.Fence)
	segment := strings.Trim(parts[len(parts)-2], "\n")
	return &llm.Response{Text: segment, TokenCount: 1}, nil
}

func (c *echoClient) Chat(ctx context.Context, messages []llm.Message, _ ...llm.GenerateOption) (*llm.Response, error) {
	return c.Generate(ctx, messages[len(messages)-1].Content)
}

func (c *echoClient) Name() string { return "echo" }

func setupTestRouter(t *testing.T, client llm.Client) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "api.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.TranslationJob{}))

	store, err := storage.NewLocalStorage(storage.LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)

	resultCache, err := cache.NewMemoryCache(cache.DefaultConfig())
	require.NoError(t, err)

	builder, err := prompt.NewBuilder(prompt.WithRules("test rules"))
	require.NoError(t, err)

	svc := services.NewTranslationService(
		store,
		repository.NewJobRepositoryWithDB(db),
		resultCache,
		client,
		builder,
	)

	return SetupRouter(handler.NewTranslationHandler(svc, nil))
}

// uploadRequest builds a multipart POST /api/translations request.
func uploadRequest(t *testing.T, filename, content string, fields map[string]string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	for key, value := range fields {
		require.NoError(t, writer.WriteField(key, value))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/translations", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func doRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// decodeJob unwraps the response envelope into a job view.
func decodeJob(t *testing.T, body []byte) model.TranslationJobResponse {
	t.Helper()

	var envelope struct {
		Code int                          `json:"code"`
		Data model.TranslationJobResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.Equal(t, 0, envelope.Code)
	return envelope.Data
}

func getJob(t *testing.T, router *gin.Engine, jobID string) model.TranslationJobResponse {
	t.Helper()
	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/translations/"+jobID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	return decodeJob(t, w.Body.Bytes())
}

func waitForCompletion(t *testing.T, router *gin.Engine, jobID string) model.TranslationJobResponse {
	t.Helper()

	var job model.TranslationJobResponse
	require.Eventually(t, func() bool {
		job = getJob(t, router, jobID)
		return job.Status == string(models.JobStatusCompleted) || job.Status == string(models.JobStatusFailed)
	}, 5*time.Second, 20*time.Millisecond)
	return job
}

func doUpload(t *testing.T, router *gin.Engine, content string, fields map[string]string) model.TranslationJobResponse {
	t.Helper()

	w := doRequest(router, uploadRequest(t, "input.txt", content, fields))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decodeJob(t, w.Body.Bytes())
}

func TestUploadTranslateDownload(t *testing.T) {
	router := setupTestRouter(t, &echoClient{})

	job := doUpload(t, router, "a\nb\nc\nd\ne", map[string]string{"num_parts": "2"})
	require.NotEmpty(t, job.JobID)
	assert.Equal(t, 2, job.NumParts)

	job = waitForCompletion(t, router, job.JobID)
	require.Equal(t, string(models.JobStatusCompleted), job.Status)
	assert.Equal(t, 2, job.Progress)
	assert.True(t, strings.HasPrefix(job.OutputName, "output "))

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/translations/"+job.JobID+"/download", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a\nb\nc\nd\ne\n", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), job.OutputName)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/plain")
}

func TestUploadCacheHitCompletesImmediately(t *testing.T) {
	router := setupTestRouter(t, &echoClient{})

	first := doUpload(t, router, "x\ny", map[string]string{"num_parts": "2"})
	waitForCompletion(t, router, first.JobID)

	// same file bytes, parts and model: the response is already completed
	second := doUpload(t, router, "x\ny", map[string]string{"num_parts": "2"})
	assert.Equal(t, string(models.JobStatusCompleted), second.Status)
	assert.True(t, second.Cached)
}

func TestUploadValidation(t *testing.T) {
	router := setupTestRouter(t, &echoClient{})

	t.Run("missing file", func(t *testing.T) {
		w := doRequest(router, uploadRequest(t, "", "", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("split count out of range", func(t *testing.T) {
		w := doRequest(router, uploadRequest(t, "input.txt", "a", map[string]string{"num_parts": "11"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown model", func(t *testing.T) {
		w := doRequest(router, uploadRequest(t, "input.txt", "a", map[string]string{"model": "gpt-1"}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		w := doRequest(router, uploadRequest(t, "input.pdf", "a", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("invalid encoding", func(t *testing.T) {
		w := doRequest(router, uploadRequest(t, "input.txt", string([]byte{0xff, 0xfe}), nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestDownloadBeforeCompletionConflicts(t *testing.T) {
	client := &echoClient{gate: make(chan struct{})}
	router := setupTestRouter(t, client)

	job := doUpload(t, router, "a\nb", map[string]string{"num_parts": "1"})

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/translations/"+job.JobID+"/download", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	close(client.gate)
	waitForCompletion(t, router, job.JobID)
}

func TestStatusNotFound(t *testing.T) {
	router := setupTestRouter(t, &echoClient{})

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/translations/no-such-job", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAndDelete(t *testing.T) {
	router := setupTestRouter(t, &echoClient{})

	job := doUpload(t, router, "a", map[string]string{"num_parts": "1"})
	waitForCompletion(t, router, job.JobID)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/translations?page=1&page_size=10", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var listEnvelope struct {
		Code int                           `json:"code"`
		Data model.TranslationListResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listEnvelope))
	assert.Equal(t, int64(1), listEnvelope.Data.Total)
	require.Len(t, listEnvelope.Data.Jobs, 1)
	assert.Equal(t, job.JobID, listEnvelope.Data.Jobs[0].JobID)

	w = doRequest(router, httptest.NewRequest(http.MethodDelete, "/api/translations/"+job.JobID, nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(router, httptest.NewRequest(http.MethodGet, "/api/translations/"+job.JobID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModelsEndpoint(t *testing.T) {
	router := setupTestRouter(t, &echoClient{})

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/models", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Code int                  `json:"code"`
		Data model.ModelsResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Contains(t, envelope.Data.Models, llm.ModelGPT4oMini)
	assert.Contains(t, envelope.Data.Models, llm.ModelChatGPT4oLatest)
}

func TestHealthEndpoint(t *testing.T) {
	router := setupTestRouter(t, &echoClient{})

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "ok")
}

func TestTraceIDHeader(t *testing.T) {
	router := setupTestRouter(t, &echoClient{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	w := doRequest(router, req)
	assert.Equal(t, "trace-123", w.Header().Get("X-Trace-ID"))

	w = doRequest(router, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))
}

func TestReadAllDownloadBody(t *testing.T) {
	router := setupTestRouter(t, &echoClient{})

	job := doUpload(t, router, "single line", map[string]string{"num_parts": "1"})
	waitForCompletion(t, router, job.JobID)

	w := doRequest(router, httptest.NewRequest(http.MethodGet, "/api/translations/"+job.JobID+"/download", nil))
	require.Equal(t, http.StatusOK, w.Code)

	content, err := io.ReadAll(w.Body)
	require.NoError(t, err)
	assert.Equal(t, "single line\n", string(content))
}
