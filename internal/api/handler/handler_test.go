package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cuongbtq/invoice-pipeline/internal/api/handler"
	"github.com/cuongbtq/invoice-pipeline/internal/api/router"
	"github.com/cuongbtq/invoice-pipeline/internal/domain"
	"github.com/cuongbtq/invoice-pipeline/internal/jobquery"
	"github.com/cuongbtq/invoice-pipeline/internal/pipeline"
	"github.com/cuongbtq/invoice-pipeline/internal/storage/memory"
	"github.com/cuongbtq/invoice-pipeline/internal/synonym"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQueue struct {
	err      error
	enqueued []string
}

func (q *fakeQueue) Enqueue(ctx context.Context, jobID string) error {
	if q.err != nil {
		return q.err
	}
	q.enqueued = append(q.enqueued, jobID)
	return nil
}

type fakeHealth struct{ err error }

func (h fakeHealth) HealthCheck(ctx context.Context) error { return h.err }

type testEnv struct {
	engine *gin.Engine
	store  *memory.Store
	blobs  *memory.BlobStore
	queue  *fakeQueue
}

func newTestEnv(t *testing.T, limits handler.Limits) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := memory.NewStore()
	blobs := memory.NewBlobStore()
	queue := &fakeQueue{}

	deps := &handler.Dependencies{
		Logger:    logger,
		Health:    fakeHealth{},
		Submitter: pipeline.NewSubmitter(store, store, blobs, queue, logger),
		Jobs:      jobquery.NewService(store, logger),
		Synonyms:  synonym.NewService(store, logger),
		Limits:    limits,
	}

	return &testEnv{
		engine: router.SetupRouter(deps),
		store:  store,
		blobs:  blobs,
		queue:  queue,
	}
}

func (e *testEnv) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, files map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for name, content := range files {
		part, err := mw.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, handler.Limits{})
	w := env.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode(t, w)["status"])
}

func TestSubmitJob(t *testing.T) {
	env := newTestEnv(t, handler.Limits{MaxFiles: 5, MaxUploadBytes: 1 << 20})

	w := env.do(t, multipartRequest(t, map[string]string{"a.pdf": "%PDF-1.4", "b.png": "png"}))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, "queued", body["status"])
	jobID, _ := body["jobId"].(string)
	require.NotEmpty(t, jobID)

	assert.Equal(t, []string{jobID}, env.queue.enqueued)
	assert.Equal(t, 2, env.blobs.Len())

	job, err := env.store.GetJob(context.Background(), jobID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusRunning, job.Status)
	assert.Equal(t, 2, job.FilesSubmitted)
}

func TestSubmitJobRejections(t *testing.T) {
	tests := []struct {
		name   string
		limits handler.Limits
		req    func(t *testing.T) *http.Request
		code   int
	}{
		{
			name: "no files",
			req:  func(t *testing.T) *http.Request { return multipartRequest(t, nil) },
			code: http.StatusBadRequest,
		},
		{
			name: "not multipart",
			req: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs", strings.NewReader(`{}`))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			code: http.StatusBadRequest,
		},
		{
			name:   "too many files",
			limits: handler.Limits{MaxFiles: 1},
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"a.pdf": "a", "b.pdf": "b"})
			},
			code: http.StatusBadRequest,
		},
		{
			name:   "body too large",
			limits: handler.Limits{MaxUploadBytes: 64},
			req: func(t *testing.T) *http.Request {
				return multipartRequest(t, map[string]string{"a.pdf": strings.Repeat("x", 4096)})
			},
			code: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.limits)
			w := env.do(t, tt.req(t))
			assert.Equal(t, tt.code, w.Code)
			assert.NotEmpty(t, decode(t, w)["error"])
			assert.Empty(t, env.queue.enqueued)
		})
	}
}

func TestSubmitJobScheduleFailure(t *testing.T) {
	env := newTestEnv(t, handler.Limits{})
	env.queue.err = errors.New("broker down")

	w := env.do(t, multipartRequest(t, map[string]string{"a.pdf": "a"}))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "failed to schedule processing", decode(t, w)["error"])
}

func TestGetJob(t *testing.T) {
	env := newTestEnv(t, handler.Limits{})
	job, err := env.store.CreateJob(context.Background(), 3)
	require.NoError(t, err)

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID, nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, job.ID, body["id"])
	assert.Equal(t, "queued", body["status"])
	assert.EqualValues(t, 0, body["progress"])
	assert.Contains(t, body, "documentsProcessed")
	assert.Contains(t, body, "totalRecords")

	for _, id := range []string{uuid.New().String(), "not-a-uuid"} {
		w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+id, nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "job not found", decode(t, w)["error"])
	}
}

func TestListJobs(t *testing.T) {
	env := newTestEnv(t, handler.Limits{})
	for i := 0; i < 3; i++ {
		_, err := env.store.CreateJob(context.Background(), 1)
		require.NoError(t, err)
	}

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?page_size=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Len(t, body["jobs"], 2)
	cursor, _ := body["nextCursor"].(string)
	require.NotEmpty(t, cursor)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?page_size=2&cursor="+cursor, nil))
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Len(t, body["jobs"], 1)
	assert.NotContains(t, body, "nextCursor")

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?cursor=bm9waXBl", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs?status=paused", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResultsAndExport(t *testing.T) {
	env := newTestEnv(t, handler.Limits{})
	ctx := context.Background()

	job, err := env.store.CreateJob(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, env.store.UpdateJob(ctx, job.ID, domain.StatusUpdate(domain.JobStatusRunning, "Processing")))

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/export", nil))
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Job is still running. Please wait for processing to complete.", decode(t, w)["error"])

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/results", nil))
	assert.Equal(t, http.StatusConflict, w.Code)

	require.NoError(t, env.store.InsertResults(ctx, []domain.Result{
		{JobID: job.ID, DocName: "a.pdf", Page: 1, OriginalTerm: "VAT", Canonical: "Tax", Value: "10", Confidence: 80},
	}))
	require.NoError(t, env.store.UpdateJob(ctx, job.ID, domain.StatusUpdate(domain.JobStatusDone, "Completed")))

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/results?q=tax", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["results"], 1)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/export", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="finance_results_`+job.ID+`.csv"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Body.String(), `"a.pdf",1,"VAT","Tax","10",80,""`)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/export?format=xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/export?format=pdf", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExportWithoutResults(t *testing.T) {
	env := newTestEnv(t, handler.Limits{})
	ctx := context.Background()

	job, err := env.store.CreateJob(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, env.store.UpdateJob(ctx, job.ID, domain.StatusUpdate(domain.JobStatusDone, "Completed")))

	w := env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+job.ID+"/export", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, jobquery.ErrNoResults.Error(), decode(t, w)["error"])
}

func TestListDocuments(t *testing.T) {
	env := newTestEnv(t, handler.Limits{})

	w := env.do(t, multipartRequest(t, map[string]string{"a.pdf": "a"}))
	require.Equal(t, http.StatusOK, w.Code)
	jobID := decode(t, w)["jobId"].(string)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/jobs/"+jobID+"/documents", nil))
	require.Equal(t, http.StatusOK, w.Code)
	docs, _ := decode(t, w)["documents"].([]any)
	require.Len(t, docs, 1)
	assert.Equal(t, "a.pdf", docs[0].(map[string]any)["name"])
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSynonymCRUD(t *testing.T) {
	env := newTestEnv(t, handler.Limits{})

	w := env.do(t, jsonRequest(http.MethodPost, "/api/v1/synonyms", `{"term":"Disc.","canonical":"Trade Discount"}`))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["created"])
	id := body["synonym"].(map[string]any)["id"].(string)

	w = env.do(t, jsonRequest(http.MethodPost, "/api/v1/synonyms", `{"term":"disc.","canonical":"Discount"}`))
	require.Equal(t, http.StatusOK, w.Code)
	body = decode(t, w)
	assert.Equal(t, false, body["created"])
	assert.Equal(t, id, body["synonym"].(map[string]any)["id"])

	w = env.do(t, jsonRequest(http.MethodPost, "/api/v1/synonyms", `{"term":"  ","canonical":"X"}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, jsonRequest(http.MethodPost, "/api/v1/synonyms", `{"term":"VAT","canonical":"Tax"}`))
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, jsonRequest(http.MethodPut, "/api/v1/synonyms/"+id, `{"term":"vat","canonical":"Tax"}`))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, jsonRequest(http.MethodPut, "/api/v1/synonyms/"+id, `{"term":"Disc","canonical":"Trade Discount"}`))
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/synonyms", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["synonyms"], 2)

	w = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/synonyms/"+id, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/v1/synonyms/"+id, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
