package auth

import (
	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/internal/members"
	"github.com/producehub/producehub-backend/internal/users"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// LoginRequest captures the credentials sent to either login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// StoreSummary is the store context returned with a store session.
type StoreSummary struct {
	ID              uuid.UUID            `json:"id"`
	Name            string               `json:"name"`
	RegistrationRef string               `json:"registration_ref"`
	ApprovalStatus  enums.ApprovalStatus `json:"approval_status"`
	RejectionReason *string              `json:"rejection_reason,omitempty"`
	IsOrder         bool                 `json:"is_order"`
	IsProduct       bool                 `json:"is_product"`
}

// LoginResponse is returned by store login and refresh.
type LoginResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	User         *users.UserDTO `json:"user"`
	Store        StoreSummary   `json:"store"`
	Landing      string         `json:"landing"`
}

// AdminLoginResponse mirrors LoginResponse for staff members.
type AdminLoginResponse struct {
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	Member       *members.MemberDTO `json:"member"`
	Landing      string             `json:"landing"`
}

// TokenPair is the result of a refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Landing      string `json:"landing"`
}

// SessionView answers "who am I and where do I belong".
type SessionView struct {
	UserID          uuid.UUID             `json:"user_id"`
	Name            string                `json:"name"`
	Email           string                `json:"email"`
	Role            enums.Role            `json:"role"`
	MemberRole      *enums.MemberRole     `json:"member_role,omitempty"`
	StoreID         *uuid.UUID            `json:"store_id,omitempty"`
	ApprovalStatus  *enums.ApprovalStatus `json:"approval_status,omitempty"`
	RejectionReason *string               `json:"rejection_reason,omitempty"`
	Landing         string                `json:"landing"`
}
