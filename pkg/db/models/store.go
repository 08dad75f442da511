package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
)

// Store is a wholesale customer account.
type Store struct {
	ID               uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name             string               `gorm:"column:name;not null"`
	OwnerName        string               `gorm:"column:owner_name;not null"`
	Email            string               `gorm:"column:email;not null"`
	Phone            string               `gorm:"column:phone;not null"`
	Address          string               `gorm:"column:address;not null"`
	City             string               `gorm:"column:city;not null"`
	State            string               `gorm:"column:state;not null"`
	ZipCode          string               `gorm:"column:zip_code;not null"`
	Lat              *float64             `gorm:"column:lat"`
	Lng              *float64             `gorm:"column:lng"`
	IsOrder          bool                 `gorm:"column:is_order;not null;default:false"`
	IsProduct        bool                 `gorm:"column:is_product;not null;default:false"`
	RegistrationRef  string               `gorm:"column:registration_ref;not null;uniqueIndex"`
	ApprovalStatus   enums.ApprovalStatus `gorm:"column:approval_status;type:text;not null"`
	RejectionReason  *string              `gorm:"column:rejection_reason"`
	ApprovedAt       *time.Time           `gorm:"column:approved_at"`
	ApprovedBy       *uuid.UUID           `gorm:"column:approved_by;type:uuid"`
	CreditLimitCents int64                `gorm:"column:credit_limit_cents;not null;default:0"`
	CreatedAt        time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
