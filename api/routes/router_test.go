package routes

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/auth"
	pkgAuth "github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/auth/session"
	"github.com/producehub/producehub-backend/pkg/config"
	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) HasSession(context.Context, string) (bool, error) {
	return true, nil
}

type stubAuthService struct{}

func (stubAuthService) Login(context.Context, auth.LoginRequest) (*auth.LoginResponse, error) {
	return nil, errors.New("not implemented")
}

func (stubAuthService) AdminLogin(context.Context, auth.LoginRequest) (*auth.AdminLoginResponse, error) {
	return nil, errors.New("not implemented")
}

func (stubAuthService) Session(_ context.Context, actor pkgAuth.Actor) (*auth.SessionView, error) {
	return &auth.SessionView{
		UserID:         actor.UserID,
		Role:           actor.Role,
		StoreID:        actor.StoreID,
		ApprovalStatus: actor.ApprovalStatus,
		Landing:        pkgAuth.Landing(actor.Role, actor.ApprovalStatus),
	}, nil
}

func (stubAuthService) Refresh(context.Context, string, string) (*auth.TokenPair, error) {
	return nil, errors.New("not implemented")
}

func (stubAuthService) Logout(context.Context, string) error {
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:                 "secret",
			Issuer:                 "issuer",
			ExpirationMinutes:      60,
			RefreshTokenTTLMinutes: 120,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: "debug", Output: io.Discard})
	return NewRouter(Dependencies{
		Config:   cfg,
		Logger:   logg,
		DB:       stubPinger{},
		Sessions: stubSessions{},
		Auth:     stubAuthService{},
	})
}

func storeToken(t *testing.T, cfg *config.Config, status enums.ApprovalStatus) string {
	t.Helper()
	storeID := uuid.New()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:         uuid.New(),
		Role:           enums.RoleStore,
		StoreID:        &storeID,
		ApprovalStatus: &status,
		JTI:            session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func adminToken(t *testing.T, cfg *config.Config, role *enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:     uuid.New(),
		Role:       enums.RoleAdmin,
		MemberRole: role,
		JTI:        session.NewAccessID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func memberRole(r enums.MemberRole) *enums.MemberRole { return &r }

func serve(router http.Handler, method, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthLive(t *testing.T) {
	resp := serve(newTestRouter(testConfig()), http.MethodGet, "/health/live", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthReadySkipsMissingRedis(t *testing.T) {
	resp := serve(newTestRouter(testConfig()), http.MethodGet, "/health/ready", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestStoreGroupRejectsMissingJWT(t *testing.T) {
	resp := serve(newTestRouter(testConfig()), http.MethodGet, "/api/v1/orders", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestPendingStoreIsSentToLanding(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	token := storeToken(t, cfg, enums.ApprovalStatusPending)

	resp := serve(router, http.MethodGet, "/api/v1/orders", token)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for pending store got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), pkgAuth.LandingStorePending) {
		t.Fatalf("expected pending landing in %s", resp.Body.String())
	}

	resp = serve(router, http.MethodGet, "/api/v1/session", token)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected pending store to read its session, got %d", resp.Code)
	}
}

func TestAdminGroupRejectsStores(t *testing.T) {
	cfg := testConfig()
	resp := serve(newTestRouter(cfg), http.MethodGet, "/api/admin/v1/stores", storeToken(t, cfg, enums.ApprovalStatusApproved))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for store on admin surface got %d", resp.Code)
	}
}

func TestAdminSessionSucceeds(t *testing.T) {
	cfg := testConfig()
	resp := serve(newTestRouter(cfg), http.MethodGet, "/api/admin/v1/session", adminToken(t, cfg, memberRole(enums.MemberRoleStaff)))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if !strings.Contains(resp.Body.String(), pkgAuth.LandingAdminDashboard) {
		t.Fatalf("expected admin landing in %s", resp.Body.String())
	}
}

func TestMemberRoutesRequireManager(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	resp := serve(router, http.MethodGet, "/api/admin/v1/members", adminToken(t, cfg, memberRole(enums.MemberRoleAccountant)))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for accountant got %d", resp.Code)
	}

	// the members service is not wired here, so passing the role gate
	// surfaces as the unavailable-service error
	resp = serve(router, http.MethodGet, "/api/admin/v1/members", adminToken(t, cfg, memberRole(enums.MemberRoleManager)))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected manager to reach handler, got %d", resp.Code)
	}
}

func TestFinanceRoutesRequireFinanceRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	for _, path := range []string{"/api/admin/v1/cheques", "/api/admin/v1/payments?store_id=" + uuid.NewString()} {
		resp := serve(router, http.MethodGet, path, adminToken(t, cfg, memberRole(enums.MemberRoleDispatcher)))
		if resp.Code != http.StatusForbidden {
			t.Fatalf("%s: expected 403 for dispatcher got %d", path, resp.Code)
		}
		resp = serve(router, http.MethodGet, path, adminToken(t, cfg, memberRole(enums.MemberRoleAccountant)))
		if resp.Code == http.StatusForbidden {
			t.Fatalf("%s: accountant should pass the role gate", path)
		}
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	cfg := testConfig()
	resp := serve(newTestRouter(cfg), http.MethodGet, "/api/admin/v1/nope", adminToken(t, cfg, nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}
