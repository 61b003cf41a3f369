package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lk2023060901/iqac-backend/internal/auth"
	"github.com/lk2023060901/iqac-backend/internal/auth/middleware"
	"github.com/lk2023060901/iqac-backend/internal/conf"
	"github.com/lk2023060901/iqac-backend/internal/pkg/blob"
	"github.com/lk2023060901/iqac-backend/internal/pkg/logger"
	"github.com/lk2023060901/iqac-backend/internal/record/biz"
	"github.com/lk2023060901/iqac-backend/internal/record/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecordRepo struct {
	nextID  uint
	records map[uint]*models.Record
}

func newFakeRecordRepo() *fakeRecordRepo {
	return &fakeRecordRepo{records: make(map[uint]*models.Record)}
}

func (f *fakeRecordRepo) Create(ctx context.Context, record *models.Record) error {
	f.nextID++
	record.ID = f.nextID
	cp := *record
	f.records[record.ID] = &cp
	return nil
}

func (f *fakeRecordRepo) GetByID(ctx context.Context, kind models.Kind, id uint) (*models.Record, error) {
	rec, ok := f.records[id]
	if !ok || rec.Kind != kind {
		return nil, biz.ErrRecordNotFound
	}
	cp := *rec
	return &cp, nil
}

func (f *fakeRecordRepo) ListByStatus(ctx context.Context, kind models.Kind, status models.Status) ([]*models.Record, error) {
	var out []*models.Record
	for _, rec := range f.records {
		if rec.Kind == kind && rec.Status == status {
			cp := *rec
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (f *fakeRecordRepo) UpdateStatus(ctx context.Context, kind models.Kind, id uint, status models.Status) (int64, error) {
	rec, ok := f.records[id]
	if !ok || rec.Kind != kind {
		return 0, nil
	}
	rec.Status = status
	return 1, nil
}

type testEnv struct {
	router     *gin.Engine
	repo       *fakeRecordRepo
	adminToken string
}

func newTestEnv(t *testing.T, maxSize int64) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := newFakeRecordRepo()
	store := blob.NewInlineStore()
	upload := conf.UploadConfig{
		MaxSizeBytes:     maxSize,
		AllowedMimeTypes: []string{"application/pdf"},
		AutoApproveKinds: []string{"survey", "mom"},
	}

	uc := biz.NewRecordUseCase(repo, store, nil, upload.AllowedMimeTypes, upload.AutoApproveKinds, zap.NewNop())
	svc := NewRecordService(uc, upload, zap.NewNop())

	m := auth.NewJWTManager("test-secret", "iqac-backend", time.Hour)
	log, err := logger.New(nil)
	require.NoError(t, err)

	r := gin.New()
	api := r.Group("/api")
	api.Use(middleware.OptionalJWTAuth(m))
	svc.RegisterRoutes(api, middleware.RequireAdmin(m, log), nil)

	adminToken, err := m.GenerateToken("admin@example.edu", auth.RoleAdmin)
	require.NoError(t, err)

	return &testEnv{router: r, repo: repo, adminToken: adminToken}
}

func (e *testEnv) do(t *testing.T, req *http.Request, token string) *httptest.ResponseRecorder {
	t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func pdfUploadRequest(t *testing.T, path string, fields map[string]string, fileName, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, fileName))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestUploadNoticeGoesToModeration(t *testing.T) {
	env := newTestEnv(t, 10<<20)

	req := pdfUploadRequest(t, "/api/notices/upload",
		map[string]string{"title": "Exam Schedule", "event_date": "2026-01-15"},
		"schedule.pdf", "application/pdf", []byte("%PDF-1.4 schedule"))
	w := env.do(t, req, "")

	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Notice submitted for admin approval.", body["message"])

	fileInfo, ok := body["fileInfo"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Exam Schedule", fileInfo["title"])
	assert.Equal(t, float64(models.StatusPending), fileInfo["status"])

	// Not visible publicly until approved.
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/notices", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", w.Body.String())

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/notices/pending", nil), env.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	var pending []RecordItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pending))
	require.Len(t, pending, 1)
	assert.Equal(t, "Exam Schedule", pending[0].Title)
	assert.Equal(t, fmt.Sprintf("/api/notices/file/%d", pending[0].ID), pending[0].Link)
}

func TestUploadValidation(t *testing.T) {
	env := newTestEnv(t, 10<<20)

	t.Run("missing file", func(t *testing.T) {
		req := pdfUploadRequest(t, "/api/notices/upload",
			map[string]string{"title": "No File", "event_date": "2026-01-15"},
			"", "", nil)
		w := env.do(t, req, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No file uploaded", decodeBody(t, w)["message"])
	})

	t.Run("missing title", func(t *testing.T) {
		req := pdfUploadRequest(t, "/api/notices/upload",
			map[string]string{"event_date": "2026-01-15"},
			"doc.pdf", "application/pdf", []byte("%PDF-1.4"))
		w := env.do(t, req, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Title and date are required", decodeBody(t, w)["message"])
	})

	t.Run("wrong mime type", func(t *testing.T) {
		req := pdfUploadRequest(t, "/api/notices/upload",
			map[string]string{"title": "Doc", "event_date": "2026-01-15"},
			"doc.docx", "application/msword", []byte("not a pdf"))
		w := env.do(t, req, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Only PDF files are allowed", decodeBody(t, w)["message"])
	})

	// Nothing persisted by any of the rejected uploads.
	assert.Empty(t, env.repo.records)
}

func TestUploadFileTooLarge(t *testing.T) {
	env := newTestEnv(t, 1024)

	req := pdfUploadRequest(t, "/api/notices/upload",
		map[string]string{"title": "Big", "event_date": "2026-01-15"},
		"big.pdf", "application/pdf", bytes.Repeat([]byte("a"), 2048))
	w := env.do(t, req, "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "File size exceeds limit", decodeBody(t, w)["message"])
	assert.Empty(t, env.repo.records)
}

func TestSurveyUploadRequiresAdmin(t *testing.T) {
	env := newTestEnv(t, 10<<20)

	req := pdfUploadRequest(t, "/api/surveys/upload",
		map[string]string{"title": "Feedback 2026", "year": "2026"},
		"feedback.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := env.do(t, req, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = pdfUploadRequest(t, "/api/surveys/upload",
		map[string]string{"title": "Feedback 2026", "year": "2026"},
		"feedback.pdf", "application/pdf", []byte("%PDF-1.4"))
	w = env.do(t, req, env.adminToken)
	require.Equal(t, http.StatusCreated, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Survey uploaded successfully", body["message"])

	// Admin survey uploads publish immediately.
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/surveys", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	var items []RecordItem
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
	require.Len(t, items, 1)
	assert.Equal(t, "2026", items[0].EventDate)
}

func TestApproveThenServe(t *testing.T) {
	env := newTestEnv(t, 10<<20)
	payload := []byte("%PDF-1.4 notice body")

	req := pdfUploadRequest(t, "/api/notices/upload",
		map[string]string{"title": "Holiday Notice", "event_date": "2026-02-01"},
		"holiday.pdf", "application/pdf", payload)
	w := env.do(t, req, "")
	require.Equal(t, http.StatusCreated, w.Code)

	decide := httptest.NewRequest(http.MethodPut, "/api/notices/approve/1",
		bytes.NewBufferString(`{"action":"approve"}`))
	decide.Header.Set("Content-Type", "application/json")
	w = env.do(t, decide, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Notice approved successfully", body["message"])
	assert.Equal(t, float64(models.StatusApproved), body["status"])

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/notices/file/1", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Equal(t, `inline; filename="holiday.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, payload, w.Body.Bytes())

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/notices/download/1", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="holiday_notice.pdf"`, w.Header().Get("Content-Disposition"))
	assert.Equal(t, payload, w.Body.Bytes())
}

func TestRejectedRecordHiddenFromPublic(t *testing.T) {
	env := newTestEnv(t, 10<<20)

	req := pdfUploadRequest(t, "/api/notices/upload",
		map[string]string{"title": "Draft", "event_date": "2026-03-01"},
		"draft.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := env.do(t, req, "")
	require.Equal(t, http.StatusCreated, w.Code)

	decide := httptest.NewRequest(http.MethodPut, "/api/notices/approve/1",
		bytes.NewBufferString(`{"action":"reject"}`))
	decide.Header.Set("Content-Type", "application/json")
	w = env.do(t, decide, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Notice rejected successfully", decodeBody(t, w)["message"])

	// Rejected payloads resolve for nobody; callers cannot tell a
	// rejected record from a missing one.
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/notices/download/1", nil), "")
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Notice not found", decodeBody(t, w)["message"])

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/notices/file/1", nil), env.adminToken)
	require.Equal(t, http.StatusNotFound, w.Code)

	// A rejected decision is not terminal; the admin can still reverse it.
	decide = httptest.NewRequest(http.MethodPut, "/api/notices/approve/1",
		bytes.NewBufferString(`{"action":"approve"}`))
	decide.Header.Set("Content-Type", "application/json")
	w = env.do(t, decide, env.adminToken)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/notices/file/1", nil), "")
	require.Equal(t, http.StatusOK, w.Code)
}

func TestDecideInvalidAction(t *testing.T) {
	env := newTestEnv(t, 10<<20)

	req := pdfUploadRequest(t, "/api/notices/upload",
		map[string]string{"title": "Doc", "event_date": "2026-03-01"},
		"doc.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := env.do(t, req, "")
	require.Equal(t, http.StatusCreated, w.Code)

	decide := httptest.NewRequest(http.MethodPut, "/api/notices/approve/1",
		bytes.NewBufferString(`{"action":"purge"}`))
	decide.Header.Set("Content-Type", "application/json")
	w = env.do(t, decide, env.adminToken)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, `Invalid action. Must be "approve" or "reject"`, decodeBody(t, w)["message"])
}

func TestDeleteIsTerminal(t *testing.T) {
	env := newTestEnv(t, 10<<20)

	req := pdfUploadRequest(t, "/api/notices/upload",
		map[string]string{"title": "Old Notice", "event_date": "2025-01-01"},
		"old.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := env.do(t, req, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, httptest.NewRequest(http.MethodDelete, "/api/notices/1", nil), env.adminToken)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Notice deleted successfully", decodeBody(t, w)["message"])

	// Deleted records are gone for everyone, the admin included.
	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/notices/file/1", nil), env.adminToken)
	require.Equal(t, http.StatusNotFound, w.Code)

	decide := httptest.NewRequest(http.MethodPut, "/api/notices/approve/1",
		bytes.NewBufferString(`{"action":"approve"}`))
	decide.Header.Set("Content-Type", "application/json")
	w = env.do(t, decide, env.adminToken)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestWrongKindIsNotFound(t *testing.T) {
	env := newTestEnv(t, 10<<20)

	req := pdfUploadRequest(t, "/api/notices/upload",
		map[string]string{"title": "Notice Only", "event_date": "2026-04-01"},
		"n.pdf", "application/pdf", []byte("%PDF-1.4"))
	w := env.do(t, req, "")
	require.Equal(t, http.StatusCreated, w.Code)

	w = env.do(t, httptest.NewRequest(http.MethodGet, "/api/surveys/file/1", nil), env.adminToken)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Survey not found", decodeBody(t, w)["message"])
}

func TestModerationEndpointsRequireAdmin(t *testing.T) {
	env := newTestEnv(t, 10<<20)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/notices/pending"},
		{http.MethodPut, "/api/notices/approve/1"},
		{http.MethodDelete, "/api/notices/1"},
	} {
		w := env.do(t, httptest.NewRequest(tc.method, tc.path, nil), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}
