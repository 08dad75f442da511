package members

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// MemberDTO is the API view of a staff account.
type MemberDTO struct {
	ID               uuid.UUID          `json:"id"`
	Name             string             `json:"name"`
	Email            string             `json:"email"`
	Phone            *string            `json:"phone,omitempty"`
	Role             enums.MemberRole   `json:"role"`
	Status           enums.MemberStatus `json:"status"`
	CanManageOrders  bool               `json:"can_manage_orders"`
	CanManageFinance bool               `json:"can_manage_finance"`
	LastLoginAt      *time.Time         `json:"last_login_at,omitempty"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

func FromModel(m models.Member) MemberDTO {
	return MemberDTO{
		ID:               m.ID,
		Name:             m.Name,
		Email:            m.Email,
		Phone:            m.Phone,
		Role:             m.Role,
		Status:           m.Status,
		CanManageOrders:  m.CanManageOrders,
		CanManageFinance: m.CanManageFinance,
		LastLoginAt:      m.LastLoginAt,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

// CreatedMember carries the temporary password exactly once.
type CreatedMember struct {
	Member            MemberDTO `json:"member"`
	TemporaryPassword string    `json:"temporary_password"`
}

type CreateInput struct {
	Name             string
	Email            string
	Phone            *string
	Role             enums.MemberRole
	CanManageOrders  bool
	CanManageFinance bool
}

type UpdateInput struct {
	Name  *string
	Email *string
	Phone *string
	Role  *enums.MemberRole
}

type CapabilitiesInput struct {
	CanManageOrders  bool
	CanManageFinance bool
}

type ListFilter struct {
	Search string
	Role   *enums.MemberRole
	Status *enums.MemberStatus
}

// ActivityDTO is one audit row.
type ActivityDTO struct {
	ID        uuid.UUID       `json:"id"`
	MemberID  uuid.UUID       `json:"member_id"`
	ActorID   uuid.UUID       `json:"actor_id"`
	Action    string          `json:"action"`
	Diff      json.RawMessage `json:"diff,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

func activityFromModel(m models.MemberActivity) ActivityDTO {
	return ActivityDTO{ID: m.ID, MemberID: m.MemberID, ActorID: m.ActorID, Action: m.Action, Diff: m.Diff, CreatedAt: m.CreatedAt}
}

// FieldChange is the per-field entry recorded in an activity diff.
type FieldChange struct {
	From any `json:"from"`
	To   any `json:"to"`
}
