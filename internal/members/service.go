package members

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/query"
	"github.com/producehub/producehub-backend/pkg/security"
)

const tempPasswordLength = 14

const (
	ActionCreated             = "member.created"
	ActionUpdated             = "member.updated"
	ActionStatusChanged       = "member.status_changed"
	ActionCapabilitiesChanged = "member.capabilities_changed"
	ActionDeleted             = "member.deleted"
)

type memberRepository interface {
	Create(tx *gorm.DB, member *models.Member) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Member, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Member, error)
	FindByEmail(ctx context.Context, email string) (*models.Member, error)
	List(ctx context.Context) ([]models.Member, error)
	Save(tx *gorm.DB, member *models.Member) error
	Delete(tx *gorm.DB, id uuid.UUID) (int64, error)
	AppendActivity(tx *gorm.DB, entry *models.MemberActivity) error
	ListActivity(ctx context.Context, memberID uuid.UUID) ([]models.MemberActivity, error)
}

type passwordHasher interface {
	Hash(password string) (string, error)
}

// Service manages staff accounts. Every mutation writes its activity row in
// the same transaction as the change.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*CreatedMember, error)
	Get(ctx context.Context, id uuid.UUID) (*MemberDTO, error)
	List(ctx context.Context, filter ListFilter) ([]MemberDTO, error)
	Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*MemberDTO, error)
	SetStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, status enums.MemberStatus) (*MemberDTO, error)
	SetCapabilities(ctx context.Context, actor auth.Actor, id uuid.UUID, input CapabilitiesInput) (*MemberDTO, error)
	Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error
	Activity(ctx context.Context, id uuid.UUID) ([]ActivityDTO, error)
}

type service struct {
	repo   memberRepository
	tx     db.TxRunner
	hasher passwordHasher
	now    func() time.Time
}

func NewService(repo memberRepository, tx db.TxRunner, hasher passwordHasher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("member repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if hasher == nil {
		return nil, fmt.Errorf("password hasher required")
	}
	return &service{repo: repo, tx: tx, hasher: hasher, now: time.Now}, nil
}

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*CreatedMember, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	invalid := map[string]string{}
	if name == "" {
		invalid["name"] = "required"
	}
	if _, err := mail.ParseAddress(email); err != nil {
		invalid["email"] = "must be a valid email"
	}
	if !input.Role.IsValid() {
		invalid["role"] = "invalid member role"
	}
	if err := pkgerrors.Fields("invalid member", invalid); err != nil {
		return nil, err
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "email already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repo.Translate(err, "member")
	}

	password, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate temporary password")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	member := &models.Member{
		Name:             name,
		Email:            email,
		Phone:            trimmedPtr(input.Phone),
		PasswordHash:     hash,
		Role:             input.Role,
		Status:           enums.MemberStatusActive,
		CanManageOrders:  input.CanManageOrders,
		CanManageFinance: input.CanManageFinance,
	}
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.Create(tx, member); err != nil {
			return repo.Translate(err, "member")
		}
		return s.record(tx, actor, member.ID, ActionCreated, map[string]FieldChange{
			"email": {To: member.Email},
			"role":  {To: member.Role},
		})
	})
	if err != nil {
		return nil, err
	}
	return &CreatedMember{Member: FromModel(*member), TemporaryPassword: password}, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*MemberDTO, error) {
	member, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "member")
	}
	dto := FromModel(*member)
	return &dto, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]MemberDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, repo.Translate(err, "member")
	}
	out := make([]MemberDTO, 0, len(rows))
	for _, m := range rows {
		out = append(out, FromModel(m))
	}
	return query.New[MemberDTO]().
		Filter(query.Search(filter.Search,
			func(m MemberDTO) string { return m.Name },
			func(m MemberDTO) string { return m.Email },
		)).
		Filter(query.EqualsIfSet(func(m MemberDTO) enums.MemberRole { return m.Role }, filter.Role)).
		Filter(query.EqualsIfSet(func(m MemberDTO) enums.MemberStatus { return m.Status }, filter.Status)).
		Apply(out), nil
}

func (s *service) Update(ctx context.Context, actor auth.Actor, id uuid.UUID, input UpdateInput) (*MemberDTO, error) {
	invalid := map[string]string{}
	if input.Name != nil && strings.TrimSpace(*input.Name) == "" {
		invalid["name"] = "cannot be blank"
	}
	if input.Email != nil {
		if _, err := mail.ParseAddress(strings.TrimSpace(*input.Email)); err != nil {
			invalid["email"] = "must be a valid email"
		}
	}
	if input.Role != nil && !input.Role.IsValid() {
		invalid["role"] = "invalid member role"
	}
	if err := pkgerrors.Fields("invalid member", invalid); err != nil {
		return nil, err
	}

	return s.mutate(ctx, actor, id, ActionUpdated, func(m *models.Member) map[string]FieldChange {
		diff := map[string]FieldChange{}
		if input.Name != nil {
			if name := strings.TrimSpace(*input.Name); name != m.Name {
				diff["name"] = FieldChange{From: m.Name, To: name}
				m.Name = name
			}
		}
		if input.Email != nil {
			if email := strings.ToLower(strings.TrimSpace(*input.Email)); email != m.Email {
				diff["email"] = FieldChange{From: m.Email, To: email}
				m.Email = email
			}
		}
		if input.Phone != nil {
			phone := trimmedPtr(input.Phone)
			diff["phone"] = FieldChange{From: m.Phone, To: phone}
			m.Phone = phone
		}
		if input.Role != nil && *input.Role != m.Role {
			diff["role"] = FieldChange{From: m.Role, To: *input.Role}
			m.Role = *input.Role
		}
		return diff
	})
}

func (s *service) SetStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, status enums.MemberStatus) (*MemberDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.Fields("invalid member status", map[string]string{"status": "must be active, inactive or suspended"})
	}
	if id == actor.UserID && status != enums.MemberStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "members cannot deactivate themselves")
	}
	return s.mutate(ctx, actor, id, ActionStatusChanged, func(m *models.Member) map[string]FieldChange {
		if m.Status == status {
			return nil
		}
		diff := map[string]FieldChange{"status": {From: m.Status, To: status}}
		m.Status = status
		return diff
	})
}

func (s *service) SetCapabilities(ctx context.Context, actor auth.Actor, id uuid.UUID, input CapabilitiesInput) (*MemberDTO, error) {
	return s.mutate(ctx, actor, id, ActionCapabilitiesChanged, func(m *models.Member) map[string]FieldChange {
		diff := map[string]FieldChange{}
		if m.CanManageOrders != input.CanManageOrders {
			diff["can_manage_orders"] = FieldChange{From: m.CanManageOrders, To: input.CanManageOrders}
			m.CanManageOrders = input.CanManageOrders
		}
		if m.CanManageFinance != input.CanManageFinance {
			diff["can_manage_finance"] = FieldChange{From: m.CanManageFinance, To: input.CanManageFinance}
			m.CanManageFinance = input.CanManageFinance
		}
		return diff
	})
}

func (s *service) Delete(ctx context.Context, actor auth.Actor, id uuid.UUID) error {
	if id == actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "members cannot delete themselves")
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		member, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "member")
		}
		if _, err := s.repo.Delete(tx, id); err != nil {
			return repo.Translate(err, "member")
		}
		return s.record(tx, actor, id, ActionDeleted, map[string]FieldChange{"email": {From: member.Email}})
	})
}

func (s *service) Activity(ctx context.Context, id uuid.UUID) ([]ActivityDTO, error) {
	rows, err := s.repo.ListActivity(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "member activity")
	}
	out := make([]ActivityDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, activityFromModel(row))
	}
	return out, nil
}

// mutate loads the member in a transaction, applies change and persists it
// together with its activity entry. A change that reports no diff writes nothing.
func (s *service) mutate(ctx context.Context, actor auth.Actor, id uuid.UUID, action string, change func(*models.Member) map[string]FieldChange) (*MemberDTO, error) {
	var out models.Member
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		member, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "member")
		}
		diff := change(member)
		out = *member
		if len(diff) == 0 {
			return nil
		}
		if err := s.repo.Save(tx, member); err != nil {
			return repo.Translate(err, "member")
		}
		out = *member
		return s.record(tx, actor, id, action, diff)
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(out)
	return &dto, nil
}

func (s *service) record(tx *gorm.DB, actor auth.Actor, memberID uuid.UUID, action string, diff map[string]FieldChange) error {
	raw, err := json.Marshal(diff)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode activity diff")
	}
	entry := &models.MemberActivity{
		MemberID:  memberID,
		ActorID:   actor.UserID,
		Action:    action,
		Diff:      raw,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.AppendActivity(tx, entry); err != nil {
		return repo.Translate(err, "member activity")
	}
	return nil
}

func trimmedPtr(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}
