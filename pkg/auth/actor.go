package auth

import (
	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

// Actor is the authenticated principal handed explicitly to services.
type Actor struct {
	UserID         uuid.UUID
	Role           enums.Role
	MemberRole     *enums.MemberRole
	StoreID        *uuid.UUID
	ApprovalStatus *enums.ApprovalStatus
}

// ActorFromClaims builds an Actor from a validated token.
func ActorFromClaims(claims *AccessTokenClaims) Actor {
	if claims == nil {
		return Actor{}
	}
	return Actor{
		UserID:         claims.UserID,
		Role:           claims.Role,
		MemberRole:     claims.MemberRole,
		StoreID:        claims.StoreID,
		ApprovalStatus: claims.ApprovalStatus,
	}
}

func (a Actor) IsAdmin() bool { return a.Role == enums.RoleAdmin }

func (a Actor) IsStore() bool { return a.Role == enums.RoleStore && a.StoreID != nil }

// OwnsStore reports whether the actor is the store account for storeID.
func (a Actor) OwnsStore(storeID uuid.UUID) bool {
	return a.IsStore() && *a.StoreID == storeID
}

// CanAccessStore allows admins everywhere and stores only on their own rows.
func (a Actor) CanAccessStore(storeID uuid.UUID) bool {
	return a.IsAdmin() || a.OwnsStore(storeID)
}

func (a Actor) Approved() bool {
	return a.ApprovalStatus != nil && *a.ApprovalStatus == enums.ApprovalStatusApproved
}

// Ref converts the actor into the outbox envelope reference.
func (a Actor) Ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, StoreID: a.StoreID, Role: string(a.Role)}
}
