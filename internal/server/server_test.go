package server

import (
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasktempo/internal/clock"
	"tasktempo/internal/config"
	"tasktempo/internal/model"
	"tasktempo/internal/task"
	"tasktempo/internal/telemetry"
)

func newTestHandler(t *testing.T) (http.Handler, *task.Service) {
	t.Helper()
	store := task.NewMemoryStore()
	logger := log.New(io.Discard, "", 0)
	svc, err := task.NewService(store, logger, clock.FixedClock{T: time.Date(2026, 3, 5, 12, 0, 0, 0, time.Local)}, 0)
	require.NoError(t, err)

	events := telemetry.NewMemoryRepository()
	svc.SetRecorder(events)

	handler, err := NewHandler(Options{
		Config:  config.Default(),
		Service: svc,
		Events:  events,
		Logger:  logger,
	})
	require.NoError(t, err)
	return handler, svc
}

func TestHealthz(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["ok"])
	assert.Equal(t, "tasktempo", body["service"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadyz(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTaskRoutesAreWired(t *testing.T) {
	handler, svc := newTestHandler(t)
	_, err := svc.AddTask(task.NewTaskInput{Title: "wired"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Tasks []model.Task `json:"tasks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Tasks, 1)
	assert.Equal(t, "wired", body.Tasks[0].Title)
}

func TestStatsEndpoint(t *testing.T) {
	handler, svc := newTestHandler(t)
	_, err := svc.AddTask(task.NewTaskInput{Title: "counted"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats telemetry.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.EventCounts[telemetry.EventTaskCreated])

	req = httptest.NewRequest(http.MethodGet, "/api/stats?since=not-a-time", nil)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfigEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var cfg config.Config
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cfg))
	assert.Equal(t, ":8080", cfg.ListenAddr)
}

func TestNewHandlerRequiresConfigAndService(t *testing.T) {
	_, err := NewHandler(Options{})
	assert.Error(t, err)

	_, err = NewHandler(Options{Config: config.Default()})
	assert.Error(t, err)
}

func TestWatchStoreRehydratesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	fired := make(chan struct{}, 4)
	stop, err := WatchStore(path, func() error {
		fired <- struct{}{}
		return nil
	}, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(path, []byte(`[{"id":1,"title":"external","status":"pending","priority":"medium","createdAt":"2026-03-05T12:00:00Z","updatedAt":"2026-03-05T12:00:00Z"}]`), 0o644))

	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatal("rehydrate callback never fired")
	}
}

func TestWatchStoreIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tasks.json")
	require.NoError(t, os.WriteFile(path, []byte(`[]`), 0o644))

	fired := make(chan struct{}, 4)
	stop, err := WatchStore(path, func() error {
		fired <- struct{}{}
		return nil
	}, log.New(io.Discard, "", 0))
	require.NoError(t, err)
	defer stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.json"), []byte(`{}`), 0o644))

	select {
	case <-fired:
		t.Fatal("callback fired for an unrelated file")
	case <-time.After(600 * time.Millisecond):
	}
}
