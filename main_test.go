package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"doodle-server/config"
	"doodle-server/editor"
	authMiddleware "doodle-server/middleware"
	"doodle-server/stores/memory"
)

func newTestServer(t *testing.T, secret string) (*httptest.Server, *editor.Registry) {
	t.Helper()
	cfg := config.Default()
	cfg.JWTSecret = secret
	reg := editor.NewRegistry(editor.CanvasFactory())
	srv := httptest.NewServer(setupRouter(cfg, reg, memory.NewStore()))
	t.Cleanup(srv.Close)
	return srv, reg
}

func TestRouter_SketchLifecycle(t *testing.T) {
	srv, reg := newTestServer(t, "")

	resp, err := http.Post(srv.URL+"/api/v1/sketches", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	_, err = reg.Get(created.ID)
	require.NoError(t, err)

	rooms, err := http.Get(srv.URL + "/api/v1/rooms")
	require.NoError(t, err)
	defer rooms.Body.Close()
	var list []sketchRoom
	require.NoError(t, json.NewDecoder(rooms.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Equal(t, created.ID, list[0].ID)
	assert.Equal(t, 0, list[0].Users)

	missing, err := http.Get(srv.URL + "/api/v1/artifacts/01ARZ3NDEKTSV4RRFFQ69G5FAV")
	require.NoError(t, err)
	missing.Body.Close()
	assert.Equal(t, http.StatusNotFound, missing.StatusCode)
}

func TestRouter_JWT(t *testing.T) {
	srv, _ := newTestServer(t, "s3cret")

	resp, err := http.Get(srv.URL + "/api/v1/sketches")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	token, err := authMiddleware.CreateJWT([]byte("s3cret"), "tester", "", time.Hour)
	require.NoError(t, err)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/sketches", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_CORS(t *testing.T) {
	srv, _ := newTestServer(t, "")

	for origin, allowed := range map[string]bool{
		"http://localhost:5173": true,
		"https://127.0.0.1":     true,
		"https://evil.example":  false,
		"ftp://localhost:21":    false,
	} {
		req, _ := http.NewRequest(http.MethodOptions, srv.URL+"/api/v1/sketches", nil)
		req.Header.Set("Origin", origin)
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		got := resp.Header.Get("Access-Control-Allow-Origin") == origin
		assert.Equal(t, allowed, got, origin)
	}
}

func TestSetupLogging(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "verbose"
	assert.Error(t, setupLogging(cfg))

	cfg.LogLevel = "warn"
	cfg.LogFormat = "json"
	assert.NoError(t, setupLogging(cfg))
}

func TestStartSweeper(t *testing.T) {
	reg := editor.NewRegistry(editor.CanvasFactory())

	c, err := startSweeper(config.SessionConfig{IdleTimeout: time.Minute, SweepSchedule: "not a schedule"}, reg)
	assert.Error(t, err)
	assert.Nil(t, c)

	c, err = startSweeper(config.SessionConfig{IdleTimeout: time.Minute, SweepSchedule: "@every 1h"}, reg)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	c, err = startSweeper(config.SessionConfig{}, reg)
	require.NoError(t, err)
	assert.Empty(t, c.Entries())
}
