package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photogallery/config"
	"photogallery/middleware"
	"photogallery/mirror"
	"photogallery/models"
	"photogallery/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	dir := t.TempDir()
	cfg.Database.Path = filepath.Join(dir, "gallery.db")
	cfg.Uploads.Dir = filepath.Join(dir, "uploads")
	cfg.Addr = "127.0.0.1:0"
	return cfg
}

func openRuntime(t *testing.T, cfg *config.Config) *Runtime {
	t.Helper()
	rt, err := Open(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestOpen_SQLiteCacheSharesFile(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	rt := openRuntime(t, cfg)

	_, err := rt.Service.Create(ctx, models.PhotoInput{FilePath: "a.jpg", Timestamp: "2024-01-01"})
	require.NoError(t, err)
	assert.Len(t, rt.Service.Cached(ctx), 1)

	var tables []string
	require.NoError(t, rt.Store.DB().Raw("SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name").Scan(&tables).Error)
	assert.Contains(t, tables, "images")
	assert.Contains(t, tables, "kv_store")
}

func TestOpen_RedisCache(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.RedisURL = "redis://" + mr.Addr() + "/0"
	rt := openRuntime(t, cfg)

	_, err := rt.Service.Create(ctx, models.PhotoInput{FilePath: "a.jpg", Timestamp: "2024-01-01"})
	require.NoError(t, err)

	raw, err := mr.Get(mirror.SnapshotKey)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(raw, `[{"id":1,"filePath":"a.jpg"`), raw)
}

func TestOpen_UnreachableCacheIsSkipped(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Cache.Backend = config.CacheRedis
	cfg.Cache.RedisURL = "redis://127.0.0.1:1/0"
	rt := openRuntime(t, cfg)

	_, err := rt.Service.Create(ctx, models.PhotoInput{FilePath: "a.jpg", Timestamp: "2024-01-01"})
	require.NoError(t, err)
	assert.Empty(t, rt.Service.Cached(ctx))
}

func TestOpen_NoCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Backend = config.CacheNone
	rt := openRuntime(t, cfg)
	assert.Empty(t, rt.Service.Cached(context.Background()))
}

func TestOpen_StoreFailure(t *testing.T) {
	cfg := testConfig(t)
	blocker := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))
	cfg.Database.Path = filepath.Join(blocker, "gallery.db")

	_, err := Open(context.Background(), cfg, nil)
	assert.ErrorIs(t, err, store.ErrStoreUnavailable)
}

func TestRouter(t *testing.T) {
	rt := openRuntime(t, testConfig(t))
	blobs, err := rt.Blobs(context.Background())
	require.NoError(t, err)
	router := NewRouter(rt.Service, blobs, nil, false)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.HeaderRequestID))

	r := httptest.NewRequest(http.MethodGet, "/nowhere", nil)
	r.Header.Set(middleware.HeaderRequestID, "req-1")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, r)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"ok":0,"code":404,"message":"Not Found"}`, w.Body.String())
	assert.Equal(t, "req-1", w.Header().Get(middleware.HeaderRequestID))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/photos/1", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
}

func TestServe_StopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- Serve(ctx, cfg, nil) }()
	time.AfterFunc(200*time.Millisecond, cancel)

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
