package api

import (
	"alcyxob/anyshare/internal/service"
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router *gin.Engine
	repo   *memRepo
	store  *memStore
	clock  *clock
}

func newTestServer(t *testing.T, publicURL string) *testServer {
	t.Helper()
	ts := &testServer{
		repo:  newMemRepo(),
		store: newMemStore(),
		clock: &clock{now: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)},
	}
	files := service.NewFileService(ts.repo, ts.store, service.Options{
		TTL:          10 * time.Minute,
		SignedURLTTL: time.Minute,
		Now:          ts.clock.Now,
	}, discardLogger())
	qr := service.NewQRService(64, 16, 10*time.Minute)

	ts.router = gin.New()
	ts.router.Use(RequestLogger(discardLogger()), Metrics())
	SetupRoutes(ts.router,
		NewFileHandler(files, qr, publicURL, discardLogger()),
		NewHealthHandler(map[string]Pinger{"metadata": ts.repo, "storage": ts.store}, discardLogger()),
	)
	return ts
}

func (ts *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func multipartRequest(t *testing.T, path, field, name string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if field != "" {
		fw, err := mw.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (ts *testServer) upload(t *testing.T, name string, content []byte) UploadResponse {
	t.Helper()
	w := ts.do(multipartRequest(t, "/upload", "file", name, content))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body["error"]
}

func TestUpload_Created(t *testing.T) {
	ts := newTestServer(t, "")

	req := multipartRequest(t, "/api/upload", "file", "report.pdf", []byte("0123456789"))
	req.Host = "share.example.com"
	req.Header.Set("X-Forwarded-Proto", "https")
	w := ts.do(req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	_, err := uuid.Parse(resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "https://share.example.com/download/"+resp.ID, resp.ShareURL)
	assert.Equal(t, "report.pdf", resp.FileName)
	assert.Equal(t, int64(10), resp.FileSize)
	assert.True(t, resp.ExpiresAt.Equal(ts.clock.Now().Add(10*time.Minute)))
	assert.True(t, strings.HasPrefix(resp.QRCode, "data:image/png;base64,"))
	assert.Len(t, ts.store.objects, 1)
}

func TestUpload_PublicURLWins(t *testing.T) {
	ts := newTestServer(t, "https://files.example.org/")

	resp := ts.upload(t, "a.txt", []byte("x"))
	assert.Equal(t, "https://files.example.org/download/"+resp.ID, resp.ShareURL)
}

func TestUpload_MissingFile(t *testing.T) {
	ts := newTestServer(t, "")

	w := ts.do(multipartRequest(t, "/upload", "", "", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.NotEmpty(t, decodeError(t, w))

	w = ts.do(multipartRequest(t, "/upload", "attachment", "a.txt", []byte("x")))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, ts.store.objects)
}

func TestUpload_StorageFailure(t *testing.T) {
	ts := newTestServer(t, "")
	ts.store.failPut = true

	w := ts.do(multipartRequest(t, "/upload", "file", "a.txt", []byte("x")))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal server error", decodeError(t, w))
	assert.Empty(t, ts.repo.records)
}

func TestDownload_Lifecycle(t *testing.T) {
	ts := newTestServer(t, "")
	up := ts.upload(t, "report.pdf", []byte("0123456789"))

	ts.clock.Advance(5 * time.Minute)
	w := ts.do(httptest.NewRequest(http.MethodGet, "/download/"+up.ID, nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var dl DownloadResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dl))
	assert.Contains(t, dl.URL, "https://objects.example.com/")
	assert.Equal(t, "report.pdf", dl.FileName)
	assert.Equal(t, int64(10), dl.FileSize)
	assert.True(t, dl.ExpiresAt.Equal(up.ExpiresAt))

	ts.clock.Advance(6 * time.Minute)
	w = ts.do(httptest.NewRequest(http.MethodGet, "/api/download/"+up.ID, nil))
	assert.Equal(t, http.StatusGone, w.Code)
	assert.Equal(t, "File has expired", decodeError(t, w))
	assert.Empty(t, ts.repo.records)
	assert.Empty(t, ts.store.objects)

	ts.clock.Advance(time.Minute)
	w = ts.do(httptest.NewRequest(http.MethodGet, "/download/"+up.ID, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "File not found", decodeError(t, w))
}

func TestDownload_NotFound(t *testing.T) {
	ts := newTestServer(t, "")

	for _, id := range []string{uuid.NewString(), "not-a-uuid"} {
		w := ts.do(httptest.NewRequest(http.MethodGet, "/download/"+id, nil))
		assert.Equal(t, http.StatusNotFound, w.Code, id)
		assert.Equal(t, "File not found", decodeError(t, w))
	}
}

func TestQRCode(t *testing.T) {
	ts := newTestServer(t, "https://share.example.com")
	up := ts.upload(t, "a.txt", []byte("x"))

	w := ts.do(httptest.NewRequest(http.MethodGet, "/download/"+up.ID+"/qr", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")))

	ts.clock.Advance(10 * time.Minute)
	w = ts.do(httptest.NewRequest(http.MethodGet, "/download/"+up.ID+"/qr", nil))
	assert.Equal(t, http.StatusGone, w.Code)

	w = ts.do(httptest.NewRequest(http.MethodGet, "/download/"+up.ID+"/qr", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAbortWithServiceError(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{service.ErrFileNotFound, http.StatusNotFound},
		{service.ErrFileExpired, http.StatusGone},
		{service.ErrInvalidUpload, http.StatusBadRequest},
		{context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		abortWithServiceError(c, discardLogger(), tt.err)
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
		assert.True(t, c.IsAborted())
	}
}
