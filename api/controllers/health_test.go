package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/producehub/producehub-backend/pkg/config"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "test"

	cases := []struct {
		name   string
		db     pinger
		redis  pinger
		status int
		check  string
	}{
		{name: "all healthy", db: stubPinger{}, redis: stubPinger{}, status: http.StatusOK},
		{name: "database down", db: stubPinger{err: errors.New("refused")}, redis: stubPinger{}, status: http.StatusServiceUnavailable, check: "database"},
		{name: "redis down", db: stubPinger{}, redis: stubPinger{err: errors.New("refused")}, status: http.StatusServiceUnavailable, check: "redis"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
			resp := httptest.NewRecorder()
			HealthReady(cfg, testLogger(), tc.db, tc.redis)(resp, req)

			if resp.Code != tc.status {
				t.Fatalf("expected %d got %d", tc.status, resp.Code)
			}
			if tc.check != "" && !strings.Contains(resp.Body.String(), tc.check) {
				t.Fatalf("expected failing check %q in %s", tc.check, resp.Body.String())
			}
			if resp.Header().Get("X-ProduceHub-Env") != "test" {
				t.Fatal("missing env header")
			}
		})
	}
}
