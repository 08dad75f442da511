package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/members"
	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/internal/users"
	pkgAuth "github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/auth/session"
	"github.com/producehub/producehub-backend/pkg/config"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controllers.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	AdminLogin(ctx context.Context, req LoginRequest) (*AdminLoginResponse, error)
	Session(ctx context.Context, actor pkgAuth.Actor) (*SessionView, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, accessID string) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type memberRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type storeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
}

type passwordVerifier interface {
	Verify(password, encoded string) (bool, error)
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Users          userRepository
	Members        memberRepository
	Stores         storeReader
	Passwords      passwordVerifier
	SessionManager sessionManager
	JWTConfig      config.JWTConfig
	Now            func() time.Time
}

type service struct {
	users    userRepository
	members  memberRepository
	stores   storeReader
	password passwordVerifier
	session  sessionManager
	jwtCfg   config.JWTConfig
	now      func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Members == nil {
		return nil, fmt.Errorf("member repository is required")
	}
	if params.Stores == nil {
		return nil, fmt.Errorf("store repository is required")
	}
	if params.Passwords == nil {
		return nil, fmt.Errorf("password verifier is required")
	}
	if params.SessionManager == nil {
		return nil, fmt.Errorf("session manager is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		users:    params.Users,
		members:  params.Members,
		stores:   params.Stores,
		password: params.Passwords,
		session:  params.SessionManager,
		jwtCfg:   params.JWTConfig,
		now:      now,
	}, nil
}

// Login authenticates a store owner. Pending and rejected stores still get a
// session so the client can route them; store-only routes check approval.
func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, credentialsLookupError(err, "lookup user")
	}
	if err := s.verify(req.Password, user.PasswordHash); err != nil {
		return nil, err
	}
	store, err := s.stores.FindByID(ctx, user.StoreID)
	if err != nil {
		return nil, repo.Translate(err, "store")
	}

	now := s.now().UTC()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	user.LastLoginAt = &now

	access, refresh, err := s.issue(ctx, now, storePayload(user, store))
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         users.FromModel(user),
		Store:        summarize(store),
		Landing:      pkgAuth.Landing(enums.RoleStore, &store.ApprovalStatus),
	}, nil
}

// AdminLogin authenticates a staff member. Only active members may sign in.
func (s *service) AdminLogin(ctx context.Context, req LoginRequest) (*AdminLoginResponse, error) {
	email := normalizeEmail(req.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	member, err := s.members.FindByEmail(ctx, email)
	if err != nil {
		return nil, credentialsLookupError(err, "lookup member")
	}
	if err := s.verify(req.Password, member.PasswordHash); err != nil {
		return nil, err
	}
	if !member.Status.CanLogin() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now().UTC()
	if err := s.members.UpdateLastLogin(ctx, member.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	member.LastLoginAt = &now

	memberRole := member.Role
	access, refresh, err := s.issue(ctx, now, pkgAuth.AccessTokenPayload{
		UserID:     member.ID,
		Role:       enums.RoleAdmin,
		MemberRole: &memberRole,
	})
	if err != nil {
		return nil, err
	}
	dto := members.FromModel(*member)
	return &AdminLoginResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		Member:       &dto,
		Landing:      pkgAuth.LandingAdminDashboard,
	}, nil
}

// Session re-reads the principal so approval changes made after login are
// reflected without forcing a new token.
func (s *service) Session(ctx context.Context, actor pkgAuth.Actor) (*SessionView, error) {
	switch actor.Role {
	case enums.RoleAdmin:
		member, err := s.members.FindByID(ctx, actor.UserID)
		if err != nil {
			return nil, sessionLookupError(err)
		}
		if !member.Status.CanLogin() {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "member is not active")
		}
		role := member.Role
		return &SessionView{
			UserID:     member.ID,
			Name:       member.Name,
			Email:      member.Email,
			Role:       enums.RoleAdmin,
			MemberRole: &role,
			Landing:    pkgAuth.LandingAdminDashboard,
		}, nil
	case enums.RoleStore:
		user, err := s.users.FindByID(ctx, actor.UserID)
		if err != nil {
			return nil, sessionLookupError(err)
		}
		store, err := s.stores.FindByID(ctx, user.StoreID)
		if err != nil {
			return nil, sessionLookupError(err)
		}
		status := store.ApprovalStatus
		view := &SessionView{
			UserID:         user.ID,
			Name:           user.Name,
			Email:          user.Email,
			Role:           enums.RoleStore,
			StoreID:        &store.ID,
			ApprovalStatus: &status,
			Landing:        pkgAuth.Landing(enums.RoleStore, &status),
		}
		if status == enums.ApprovalStatusRejected {
			view.RejectionReason = store.RejectionReason
		}
		return view, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unknown role")
	}
}

// Refresh rotates the refresh session and re-mints the access token with
// the principal's current role data.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*TokenPair, error) {
	claims, err := pkgAuth.ParseAccessTokenAllowExpired(s.jwtCfg, strings.TrimSpace(accessToken))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}
	newAccessID, newRefresh, err := s.session.Rotate(ctx, claims.ID, strings.TrimSpace(refreshToken))
	if err != nil {
		if errors.Is(err, session.ErrInvalidRefreshToken) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid refresh token")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "rotate session")
	}

	view, err := s.Session(ctx, pkgAuth.ActorFromClaims(claims))
	if err != nil {
		_ = s.session.Revoke(ctx, newAccessID)
		return nil, err
	}
	payload := pkgAuth.AccessTokenPayload{
		UserID:         view.UserID,
		Role:           view.Role,
		MemberRole:     view.MemberRole,
		StoreID:        view.StoreID,
		ApprovalStatus: view.ApprovalStatus,
		JTI:            newAccessID,
	}
	access, err := pkgAuth.MintAccessToken(s.jwtCfg, s.now().UTC(), payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh, Landing: view.Landing}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session")
	}
	if err := s.session.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) verify(password, hash string) error {
	valid, err := s.password.Verify(password, hash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return nil
}

func (s *service) issue(ctx context.Context, now time.Time, payload pkgAuth.AccessTokenPayload) (string, string, error) {
	payload.JTI = session.NewAccessID()
	access, err := pkgAuth.MintAccessToken(s.jwtCfg, now, payload)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}
	refresh, err := s.session.Generate(ctx, payload.JTI)
	if err != nil {
		return "", "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store refresh token")
	}
	return access, refresh, nil
}

func storePayload(user *models.User, store *models.Store) pkgAuth.AccessTokenPayload {
	storeID := store.ID
	status := store.ApprovalStatus
	return pkgAuth.AccessTokenPayload{
		UserID:         user.ID,
		Role:           enums.RoleStore,
		StoreID:        &storeID,
		ApprovalStatus: &status,
	}
}

func summarize(store *models.Store) StoreSummary {
	out := StoreSummary{
		ID:              store.ID,
		Name:            store.Name,
		RegistrationRef: store.RegistrationRef,
		ApprovalStatus:  store.ApprovalStatus,
		IsOrder:         store.IsOrder,
		IsProduct:       store.IsProduct,
	}
	if store.ApprovalStatus == enums.ApprovalStatusRejected {
		out.RejectionReason = store.RejectionReason
	}
	return out
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func credentialsLookupError(err error, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, op)
}

func sessionLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "session principal no longer exists")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load session")
}
