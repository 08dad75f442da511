package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
)

// Member is an internal staff account.
type Member struct {
	ID               uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	Name             string             `gorm:"column:name;not null"`
	Email            string             `gorm:"column:email;not null;uniqueIndex"`
	Phone            *string            `gorm:"column:phone"`
	PasswordHash     string             `gorm:"column:password_hash;not null"`
	Role             enums.MemberRole   `gorm:"column:role;type:text;not null"`
	Status           enums.MemberStatus `gorm:"column:status;type:text;not null"`
	CanManageOrders  bool               `gorm:"column:can_manage_orders;not null;default:false"`
	CanManageFinance bool               `gorm:"column:can_manage_finance;not null;default:false"`
	LastLoginAt      *time.Time         `gorm:"column:last_login_at"`
	CreatedAt        time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// MemberActivity is an append-only audit row written with each member mutation.
type MemberActivity struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	MemberID  uuid.UUID       `gorm:"column:member_id;type:uuid;not null"`
	ActorID   uuid.UUID       `gorm:"column:actor_id;type:uuid;not null"`
	Action    string          `gorm:"column:action;not null"`
	Diff      json.RawMessage `gorm:"column:diff;type:jsonb"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
}

func (MemberActivity) TableName() string { return "member_activity_log" }
