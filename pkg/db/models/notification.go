package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/enums"
)

// Notification is an in-app message. A nil StoreID addresses the admin inbox.
type Notification struct {
	ID        uuid.UUID              `gorm:"column:id;type:uuid;primaryKey"`
	StoreID   *uuid.UUID             `gorm:"column:store_id;type:uuid"`
	Type      enums.NotificationType `gorm:"column:type;type:text;not null"`
	Title     string                 `gorm:"column:title;not null"`
	Message   string                 `gorm:"column:message;not null"`
	Link      *string                `gorm:"column:link"`
	EventID   *uuid.UUID             `gorm:"column:event_id;type:uuid"`
	ReadAt    *time.Time             `gorm:"column:read_at"`
	CreatedAt time.Time              `gorm:"column:created_at;autoCreateTime"`
}
