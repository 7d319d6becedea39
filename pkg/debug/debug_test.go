package debug

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

// These tests touch package-level readiness state, so they run serially
// rather than under t.Parallel() to avoid racing each other.

func TestIsReady_FalseBeforeSetReady(t *testing.T) {
	SetNotReady()
	t.Cleanup(SetNotReady)
	assert.False(t, IsReady())
}

func TestIsReady_TrueAfterSetReady(t *testing.T) {
	SetReady()
	t.Cleanup(SetNotReady)
	assert.True(t, IsReady())
}

func TestIsReady_HonorsCustomReadyCheck(t *testing.T) {
	SetReady()
	t.Cleanup(func() {
		SetNotReady()
		SetReadyCheck(nil)
	})

	ok := false
	SetReadyCheck(func() bool { return ok })
	assert.False(t, IsReady())

	ok = true
	assert.True(t, IsReady())
}

func TestHealthEndpoint_AlwaysOK(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	GetMux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyEndpoint_ReflectsReadyState(t *testing.T) {
	SetNotReady()
	t.Cleanup(SetNotReady)

	req := httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec := httptest.NewRecorder()
	GetMux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	SetReady()
	req = httptest.NewRequest(http.MethodGet, "/ready", nil)
	rec = httptest.NewRecorder()
	GetMux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpoint_Serves(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	GetMux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterHandlerFunc_IsServedOnNewMux(t *testing.T) {
	RegisterHandlerFunc("/custom/probe", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	req := httptest.NewRequest(http.MethodGet, "/custom/probe", nil)
	rec := httptest.NewRecorder()
	GetMux().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
