package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/toyloft/backend-toyloft/internal/health"
)

type stubChecker struct {
	dbErr    error
	redisErr error
}

func (s stubChecker) PingDB(context.Context, time.Duration) error    { return s.dbErr }
func (s stubChecker) PingRedis(context.Context, time.Duration) error { return s.redisErr }

func ready(t *testing.T, h health.Handler) (int, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	status := map[string]string{}
	if rr.Body.Len() > 0 && rr.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rr.Code, status
}

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("got %d %q", rr.Code, rr.Body.String())
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		name      string
		checker   stubChecker
		wantCode  int
		wantRedis string
	}{
		{"all healthy", stubChecker{}, http.StatusOK, "ok"},
		{"redis down", stubChecker{redisErr: errors.New("redis down")}, http.StatusServiceUnavailable, "redis down"},
		{"db down", stubChecker{dbErr: errors.New("db down")}, http.StatusServiceUnavailable, "ok"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := health.Handler{Checker: tc.checker, DBTimeout: 10 * time.Millisecond, RedisTimeout: 10 * time.Millisecond}
			code, status := ready(t, h)
			if code != tc.wantCode {
				t.Fatalf("expected %d got %d", tc.wantCode, code)
			}
			if status["redis"] != tc.wantRedis {
				t.Fatalf("unexpected status %#v", status)
			}
		})
	}
}

func TestReadyWithoutChecker(t *testing.T) {
	code, _ := ready(t, health.Handler{})
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", code)
	}
}
