package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID         uuid.UUID
	Role           enums.Role
	MemberRole     *enums.MemberRole
	StoreID        *uuid.UUID
	ApprovalStatus *enums.ApprovalStatus
	JTI            string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID         uuid.UUID             `json:"user_id"`
	Role           enums.Role            `json:"role"`
	MemberRole     *enums.MemberRole     `json:"member_role,omitempty"`
	StoreID        *uuid.UUID            `json:"store_id,omitempty"`
	ApprovalStatus *enums.ApprovalStatus `json:"approval_status,omitempty"`
	jwt.RegisteredClaims
}
