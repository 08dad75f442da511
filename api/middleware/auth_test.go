package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/auth/session"
	"github.com/producehub/producehub-backend/pkg/config"
	"github.com/producehub/producehub-backend/pkg/enums"
)

var testJWT = config.JWTConfig{Secret: "secret", Issuer: "issuer", ExpirationMinutes: 60}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthRejectsMissingToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsInvalidToken(t *testing.T) {
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthRejectsRevokedSession(t *testing.T) {
	token := mintStoreToken(t, uuid.New(), enums.ApprovalStatusApproved)
	handler := Auth(testJWT, stubSessionVerifier{ok: false}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestAuthSessionStoreFailureIsDependencyError(t *testing.T) {
	token := mintStoreToken(t, uuid.New(), enums.ApprovalStatusApproved)
	handler := Auth(testJWT, stubSessionVerifier{err: errors.New("redis down")}, nil)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
}

func TestAuthPlacesActorOnContext(t *testing.T) {
	storeID := uuid.New()
	token := mintStoreToken(t, storeID, enums.ApprovalStatusPending)

	var captured auth.Actor
	var accessID string
	handler := Auth(testJWT, stubSessionVerifier{ok: true}, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = ActorFromContext(r.Context())
		accessID = AccessIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	handler.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if captured.Role != enums.RoleStore || captured.StoreID == nil || *captured.StoreID != storeID {
		t.Fatalf("unexpected actor %+v", captured)
	}
	if captured.Approved() {
		t.Fatal("pending store must not be approved")
	}
	if accessID == "" {
		t.Fatal("expected access id in context")
	}
}

func TestRequireApprovedStoreReturnsLanding(t *testing.T) {
	tests := []struct {
		name    string
		status  enums.ApprovalStatus
		code    int
		landing string
	}{
		{"approved", enums.ApprovalStatusApproved, http.StatusOK, ""},
		{"pending", enums.ApprovalStatusPending, http.StatusForbidden, auth.LandingStorePending},
		{"rejected", enums.ApprovalStatusRejected, http.StatusForbidden, auth.LandingStoreRejected},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storeID := uuid.New()
			status := tt.status
			ctx := WithActor(context.Background(), auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: &storeID, ApprovalStatus: &status})
			req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil).WithContext(ctx)
			resp := httptest.NewRecorder()
			RequireApprovedStore(nil)(okHandler()).ServeHTTP(resp, req)

			if resp.Code != tt.code {
				t.Fatalf("expected %d got %d", tt.code, resp.Code)
			}
			if tt.landing == "" {
				return
			}
			var body struct {
				Error struct {
					Details map[string]string `json:"details"`
				} `json:"error"`
			}
			if err := json.Unmarshal(resp.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Details["landing"] != tt.landing {
				t.Fatalf("expected landing %s got %v", tt.landing, body.Error.Details)
			}
		})
	}
}

func TestRequireRoleRejectsStores(t *testing.T) {
	storeID := uuid.New()
	ctx := WithActor(context.Background(), auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: &storeID})
	resp := httptest.NewRecorder()
	RequireRole(enums.RoleAdmin, nil)(okHandler()).ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", resp.Code)
	}
}

func TestRequireMemberRoles(t *testing.T) {
	accountant := enums.MemberRoleAccountant
	staff := enums.MemberRoleStaff
	mw := RequireMemberRoles(nil, enums.MemberRoleAdmin, enums.MemberRoleAccountant)

	for _, tc := range []struct {
		role *enums.MemberRole
		want int
	}{
		{&accountant, http.StatusOK},
		{&staff, http.StatusForbidden},
		{nil, http.StatusOK},
	} {
		ctx := WithActor(context.Background(), auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin, MemberRole: tc.role})
		resp := httptest.NewRecorder()
		mw(okHandler()).ServeHTTP(resp, httptest.NewRequest(http.MethodPost, "/", nil).WithContext(ctx))
		if resp.Code != tc.want {
			t.Fatalf("member role %v: expected %d got %d", tc.role, tc.want, resp.Code)
		}
	}
}

func mintStoreToken(t *testing.T, storeID uuid.UUID, status enums.ApprovalStatus) string {
	t.Helper()
	payload := auth.AccessTokenPayload{
		UserID:         uuid.New(),
		Role:           enums.RoleStore,
		StoreID:        &storeID,
		ApprovalStatus: &status,
		JTI:            session.NewAccessID(),
	}
	token, err := auth.MintAccessToken(testJWT, time.Now(), payload)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

type stubSessionVerifier struct {
	ok  bool
	err error
}

func (s stubSessionVerifier) HasSession(context.Context, string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.ok, nil
}
