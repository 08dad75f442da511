package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/internal/users"
	pkgAuth "github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/outbox"
	"github.com/producehub/producehub-backend/pkg/security"
)

const (
	minPasswordLength = 8
	referenceLength   = 6
)

// RegisterRequest contains the payload required for onboarding a new store.
type RegisterRequest struct {
	StoreName string   `json:"store_name" validate:"required"`
	OwnerName string   `json:"owner_name" validate:"required"`
	Email     string   `json:"email" validate:"required,email"`
	Phone     string   `json:"phone" validate:"required"`
	Password  string   `json:"password" validate:"required,min=8"`
	Address   string   `json:"address" validate:"required"`
	City      string   `json:"city" validate:"required"`
	State     string   `json:"state" validate:"required"`
	ZipCode   string   `json:"zip_code" validate:"required"`
	Lat       *float64 `json:"lat,omitempty"`
	Lng       *float64 `json:"lng,omitempty"`
}

// RegisterResponse tells the applicant where the application stands.
type RegisterResponse struct {
	StoreID         string               `json:"store_id"`
	RegistrationRef string               `json:"registration_ref"`
	ApprovalStatus  enums.ApprovalStatus `json:"approval_status"`
	Landing         string               `json:"landing"`
}

// RegisterService handles the onboarding transaction.
type RegisterService interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error)
}

type registrationUsers interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, tx *gorm.DB, dto users.CreateUserDTO) (*models.User, error)
}

type registrationStores interface {
	Create(ctx context.Context, tx *gorm.DB, store *models.Store) error
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// RegisterServiceParams packages the dependencies for the registration flow.
type RegisterServiceParams struct {
	Tx     db.TxRunner
	Users  registrationUsers
	Stores registrationStores
	Hasher passwordHasher
	Outbox outbox.Emitter
	Now    func() time.Time
}

type registerService struct {
	tx     db.TxRunner
	users  registrationUsers
	stores registrationStores
	hasher passwordHasher
	outbox outbox.Emitter
	now    func() time.Time
}

func NewRegisterService(params RegisterServiceParams) (RegisterService, error) {
	switch {
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Users == nil:
		return nil, fmt.Errorf("user repository required")
	case params.Stores == nil:
		return nil, fmt.Errorf("store repository required")
	case params.Hasher == nil:
		return nil, fmt.Errorf("password hasher required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &registerService{
		tx:     params.Tx,
		users:  params.Users,
		stores: params.Stores,
		hasher: params.Hasher,
		outbox: params.Outbox,
		now:    now,
	}, nil
}

// Register creates a pending store and its owner login in one transaction.
func (s *registerService) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	req = normalizeRegistration(req)
	if err := validateRegistration(req); err != nil {
		return nil, err
	}

	if _, err := s.users.FindByEmail(ctx, req.Email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check user email")
	}

	passwordHash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	now := s.now().UTC()
	ref, err := registrationRef(now)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate registration reference")
	}

	store := &models.Store{
		Name:            req.StoreName,
		OwnerName:       req.OwnerName,
		Email:           req.Email,
		Phone:           req.Phone,
		Address:         req.Address,
		City:            req.City,
		State:           req.State,
		ZipCode:         req.ZipCode,
		Lat:             req.Lat,
		Lng:             req.Lng,
		RegistrationRef: ref,
		ApprovalStatus:  enums.ApprovalStatusPending,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.stores.Create(ctx, tx, store); err != nil {
			return repo.Translate(err, "store")
		}
		user, err := s.users.Create(ctx, tx, users.CreateUserDTO{
			StoreID:      store.ID,
			Email:        req.Email,
			Name:         req.OwnerName,
			PasswordHash: passwordHash,
		})
		if err != nil {
			return repo.Translate(err, "user")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStoreRegistered,
			AggregateType: enums.AggregateStore,
			AggregateID:   store.ID,
			Actor:         &outbox.ActorRef{UserID: user.ID, StoreID: &store.ID, Role: string(enums.RoleStore)},
			Data:          outbox.StoreRegisteredEvent{StoreID: store.ID, Name: store.Name, RegistrationRef: ref},
			OccurredAt:    now,
		})
	})
	if err != nil {
		return nil, err
	}
	return &RegisterResponse{
		StoreID:         store.ID.String(),
		RegistrationRef: ref,
		ApprovalStatus:  enums.ApprovalStatusPending,
		Landing:         pkgAuth.LandingStorePending,
	}, nil
}

// registrationRef formats REG-YYYYMMDD-XXXXXX.
func registrationRef(now time.Time) (string, error) {
	suffix, err := security.RandomReference(referenceLength)
	if err != nil {
		return "", err
	}
	return "REG-" + now.Format("20060102") + "-" + suffix, nil
}

func normalizeRegistration(req RegisterRequest) RegisterRequest {
	req.StoreName = strings.TrimSpace(req.StoreName)
	req.OwnerName = strings.TrimSpace(req.OwnerName)
	req.Email = normalizeEmail(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Address = strings.TrimSpace(req.Address)
	req.City = strings.TrimSpace(req.City)
	req.State = strings.TrimSpace(req.State)
	req.ZipCode = strings.TrimSpace(req.ZipCode)
	return req
}

// validateRegistration reports every invalid field at once.
func validateRegistration(req RegisterRequest) error {
	invalid := map[string]string{}
	required := map[string]string{
		"store_name": req.StoreName,
		"owner_name": req.OwnerName,
		"phone":      req.Phone,
		"address":    req.Address,
		"city":       req.City,
		"state":      req.State,
		"zip_code":   req.ZipCode,
	}
	for field, value := range required {
		if value == "" {
			invalid[field] = "required"
		}
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		invalid["email"] = "must be a valid email"
	}
	if len(req.Password) < minPasswordLength {
		invalid["password"] = fmt.Sprintf("must be at least %d characters", minPasswordLength)
	}
	if err := pkgerrors.Fields("invalid registration", invalid); err != nil {
		return err
	}
	return nil
}
