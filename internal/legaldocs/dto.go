package legaldocs

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

type DocumentDTO struct {
	ID              uuid.UUID                 `json:"id"`
	StoreID         uuid.UUID                 `json:"store_id"`
	Type            enums.LegalDocumentType   `json:"type"`
	Status          enums.LegalDocumentStatus `json:"status"`
	DocumentNumber  *string                   `json:"document_number"`
	FileURL         string                    `json:"file_url"`
	ExpiresAt       *time.Time                `json:"expires_at"`
	AcceptedBy      uuid.UUID                 `json:"accepted_by"`
	AcceptedAt      time.Time                 `json:"accepted_at"`
	AcceptedIP      string                    `json:"accepted_ip"`
	VerifiedBy      *uuid.UUID                `json:"verified_by"`
	VerifiedAt      *time.Time                `json:"verified_at"`
	RejectionReason *string                   `json:"rejection_reason"`
	CreatedAt       time.Time                 `json:"created_at"`
}

func FromModel(d models.LegalDocument) DocumentDTO {
	return DocumentDTO{
		ID:              d.ID,
		StoreID:         d.StoreID,
		Type:            d.Type,
		Status:          d.Status,
		DocumentNumber:  d.DocumentNumber,
		FileURL:         d.FileURL,
		ExpiresAt:       d.ExpiresAt,
		AcceptedBy:      d.AcceptedBy,
		AcceptedAt:      d.AcceptedAt,
		AcceptedIP:      d.AcceptedIP,
		VerifiedBy:      d.VerifiedBy,
		VerifiedAt:      d.VerifiedAt,
		RejectionReason: d.RejectionReason,
		CreatedAt:       d.CreatedAt,
	}
}

// SubmitInput uploads a document reference. Admins must name the store;
// store accounts always submit for themselves.
type SubmitInput struct {
	StoreID        *uuid.UUID              `json:"store_id"`
	Type           enums.LegalDocumentType `json:"type"`
	DocumentNumber *string                 `json:"document_number"`
	FileURL        string                  `json:"file_url"`
	ExpiresAt      *time.Time              `json:"expires_at"`
}

type ListFilter struct {
	Search  string
	StoreID *uuid.UUID
	Type    *enums.LegalDocumentType
	Status  *enums.LegalDocumentStatus
	// ExpiringWithinDays keeps documents expiring between now and now+N days.
	ExpiringWithinDays *int
	Offset             int
	Limit              int
}

type ListResult struct {
	Items []DocumentDTO `json:"items"`
	Total int           `json:"total"`
}

// Summary is the exported legal summary of one store.
type Summary struct {
	StoreID     uuid.UUID                         `json:"store_id"`
	StoreName   string                            `json:"store_name"`
	GeneratedAt time.Time                         `json:"generated_at"`
	Counts      map[enums.LegalDocumentStatus]int `json:"counts"`
	Missing     []enums.LegalDocumentType         `json:"missing_types"`
	Documents   []DocumentDTO                     `json:"documents"`
}
