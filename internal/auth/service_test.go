package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgAuth "github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/auth/session"
	"github.com/producehub/producehub-backend/pkg/config"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

var testNow = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func testJWT() config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Issuer: "producehub-test", ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60}
}

type stubUsers struct {
	byEmail map[string]*models.User
	created []models.User
	logins  int
}

func (s *stubUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsers) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUsers) UpdateLastLogin(context.Context, uuid.UUID, time.Time) error {
	s.logins++
	return nil
}

type stubMembers struct {
	byEmail map[string]*models.Member
}

func (s *stubMembers) FindByEmail(_ context.Context, email string) (*models.Member, error) {
	if m, ok := s.byEmail[email]; ok {
		cp := *m
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMembers) FindByID(_ context.Context, id uuid.UUID) (*models.Member, error) {
	for _, m := range s.byEmail {
		if m.ID == id {
			cp := *m
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMembers) UpdateLastLogin(context.Context, uuid.UUID, time.Time) error { return nil }

type stubStores struct {
	byID map[uuid.UUID]*models.Store
}

func (s *stubStores) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	if st, ok := s.byID[id]; ok {
		cp := *st
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

// plainVerifier treats the hash as "hash:<password>".
type plainVerifier struct{}

func (plainVerifier) Verify(password, encoded string) (bool, error) {
	return encoded == "hash:"+password, nil
}

func (plainVerifier) Hash(password string) (string, error) { return "hash:" + password, nil }

type memorySessions struct {
	live map[string]string
}

func (m *memorySessions) Generate(_ context.Context, accessID string) (string, error) {
	token := "refresh-" + accessID
	m.live[accessID] = token
	return token, nil
}

func (m *memorySessions) Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error) {
	if m.live[oldAccessID] != provided || provided == "" {
		return "", "", session.ErrInvalidRefreshToken
	}
	delete(m.live, oldAccessID)
	next := session.NewAccessID()
	token, _ := m.Generate(ctx, next)
	return next, token, nil
}

func (m *memorySessions) Revoke(_ context.Context, accessID string) error {
	delete(m.live, accessID)
	return nil
}

type fixture struct {
	svc      Service
	users    *stubUsers
	members  *stubMembers
	stores   *stubStores
	sessions *memorySessions
	store    *models.Store
	user     *models.User
	member   *models.Member
}

func newFixture(t *testing.T, status enums.ApprovalStatus) *fixture {
	t.Helper()
	reason := "incomplete documents"
	store := &models.Store{ID: uuid.New(), Name: "Green Grocer", RegistrationRef: "REG-20260101-ABC234", ApprovalStatus: status}
	if status == enums.ApprovalStatusRejected {
		store.RejectionReason = &reason
	}
	user := &models.User{ID: uuid.New(), StoreID: store.ID, Email: "owner@green.test", Name: "Owner", PasswordHash: "hash:secret123"}
	member := &models.Member{ID: uuid.New(), Name: "Admin", Email: "admin@producehub.test", PasswordHash: "hash:adminpass", Role: enums.MemberRoleAdmin, Status: enums.MemberStatusActive}

	f := &fixture{
		users:    &stubUsers{byEmail: map[string]*models.User{user.Email: user}},
		members:  &stubMembers{byEmail: map[string]*models.Member{member.Email: member}},
		stores:   &stubStores{byID: map[uuid.UUID]*models.Store{store.ID: store}},
		sessions: &memorySessions{live: map[string]string{}},
		store:    store,
		user:     user,
		member:   member,
	}
	svc, err := NewService(ServiceParams{
		Users:          f.users,
		Members:        f.members,
		Stores:         f.stores,
		Passwords:      plainVerifier{},
		SessionManager: f.sessions,
		JWTConfig:      testJWT(),
		Now:            func() time.Time { return testNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	f.svc = svc
	return f
}

func TestStoreLoginCarriesApprovalStatus(t *testing.T) {
	f := newFixture(t, enums.ApprovalStatusPending)
	resp, err := f.svc.Login(context.Background(), LoginRequest{Email: " OWNER@green.test ", Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Landing != pkgAuth.LandingStorePending {
		t.Fatalf("expected pending landing, got %s", resp.Landing)
	}
	claims, err := pkgAuth.ParseAccessTokenAt(testJWT(), resp.AccessToken, testNow)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Role != enums.RoleStore || claims.StoreID == nil || *claims.StoreID != f.store.ID {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ApprovalStatus == nil || *claims.ApprovalStatus != enums.ApprovalStatusPending {
		t.Fatalf("expected pending status claim")
	}
	if f.sessions.live[claims.ID] != resp.RefreshToken {
		t.Fatal("refresh session must be keyed on the token jti")
	}
	if f.users.logins != 1 {
		t.Fatal("expected last login to be recorded")
	}
}

func TestLoginWrongPasswordOrUnknownEmailIsUnauthorized(t *testing.T) {
	f := newFixture(t, enums.ApprovalStatusApproved)
	for _, req := range []LoginRequest{
		{Email: f.user.Email, Password: "wrong"},
		{Email: "nobody@green.test", Password: "secret123"},
		{Email: "  ", Password: "secret123"},
	} {
		if _, err := f.svc.Login(context.Background(), req); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized for %+v, got %v", req, err)
		}
	}
}

func TestAdminLoginRequiresActiveMember(t *testing.T) {
	f := newFixture(t, enums.ApprovalStatusApproved)
	resp, err := f.svc.AdminLogin(context.Background(), LoginRequest{Email: f.member.Email, Password: "adminpass"})
	if err != nil {
		t.Fatalf("admin login: %v", err)
	}
	if resp.Landing != pkgAuth.LandingAdminDashboard || resp.Member.ID != f.member.ID {
		t.Fatalf("unexpected admin response %+v", resp)
	}

	f.member.Status = enums.MemberStatusSuspended
	if _, err := f.svc.AdminLogin(context.Background(), LoginRequest{Email: f.member.Email, Password: "adminpass"}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected suspended member to be rejected, got %v", err)
	}
}

func TestSessionLandingFollowsCurrentStatus(t *testing.T) {
	cases := map[enums.ApprovalStatus]string{
		enums.ApprovalStatusApproved: pkgAuth.LandingStoreDashboard,
		enums.ApprovalStatusPending:  pkgAuth.LandingStorePending,
		enums.ApprovalStatusRejected: pkgAuth.LandingStoreRejected,
	}
	for status, landing := range cases {
		f := newFixture(t, status)
		stale := enums.ApprovalStatusPending
		actor := pkgAuth.Actor{UserID: f.user.ID, Role: enums.RoleStore, StoreID: &f.store.ID, ApprovalStatus: &stale}
		view, err := f.svc.Session(context.Background(), actor)
		if err != nil {
			t.Fatalf("session: %v", err)
		}
		if view.Landing != landing || *view.ApprovalStatus != status {
			t.Fatalf("%s: expected %s, got %s", status, landing, view.Landing)
		}
		if status == enums.ApprovalStatusRejected && (view.RejectionReason == nil || *view.RejectionReason == "") {
			t.Fatal("rejected session must include the reason")
		}
		if status != enums.ApprovalStatusRejected && view.RejectionReason != nil {
			t.Fatal("reason only accompanies rejected sessions")
		}
	}
}

func TestRefreshRotatesAndPicksUpApproval(t *testing.T) {
	f := newFixture(t, enums.ApprovalStatusPending)
	ctx := context.Background()
	login, err := f.svc.Login(ctx, LoginRequest{Email: f.user.Email, Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	f.store.ApprovalStatus = enums.ApprovalStatusApproved

	pair, err := f.svc.Refresh(ctx, login.AccessToken, login.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	claims, err := pkgAuth.ParseAccessTokenAt(testJWT(), pair.AccessToken, testNow)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if *claims.ApprovalStatus != enums.ApprovalStatusApproved || pair.Landing != pkgAuth.LandingStoreDashboard {
		t.Fatalf("expected refreshed approval, got %v %s", *claims.ApprovalStatus, pair.Landing)
	}

	if _, err := f.svc.Refresh(ctx, login.AccessToken, login.RefreshToken); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("reusing a rotated refresh token must fail, got %v", err)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	f := newFixture(t, enums.ApprovalStatusApproved)
	ctx := context.Background()
	login, err := f.svc.Login(ctx, LoginRequest{Email: f.user.Email, Password: "secret123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := pkgAuth.ParseAccessTokenAt(testJWT(), login.AccessToken, testNow)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if err := f.svc.Logout(ctx, claims.ID); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, ok := f.sessions.live[claims.ID]; ok {
		t.Fatal("session should be revoked")
	}
	if err := f.svc.Logout(ctx, ""); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for blank session, got %v", err)
	}
}

func TestCredentialsLookupDependencyError(t *testing.T) {
	err := credentialsLookupError(errors.New("connection reset"), "lookup user")
	if !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
