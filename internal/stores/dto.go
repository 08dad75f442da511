package stores

import (
	"time"

	"github.com/google/uuid"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
)

// StoreDTO is the API view of a store including its derived financials.
type StoreDTO struct {
	ID               uuid.UUID            `json:"id"`
	Name             string               `json:"name"`
	OwnerName        string               `json:"owner_name"`
	Email            string               `json:"email"`
	Phone            string               `json:"phone"`
	Address          string               `json:"address"`
	City             string               `json:"city"`
	State            string               `json:"state"`
	ZipCode          string               `json:"zip_code"`
	Lat              *float64             `json:"lat,omitempty"`
	Lng              *float64             `json:"lng,omitempty"`
	IsOrder          bool                 `json:"is_order"`
	IsProduct        bool                 `json:"is_product"`
	RegistrationRef  string               `json:"registration_ref"`
	ApprovalStatus   enums.ApprovalStatus `json:"approval_status"`
	RejectionReason  *string              `json:"rejection_reason,omitempty"`
	ApprovedAt       *time.Time           `json:"approved_at,omitempty"`
	ApprovedBy       *uuid.UUID           `json:"approved_by,omitempty"`
	CreditLimitCents int64                `json:"credit_limit_cents"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	Financials
}

// Financials are aggregated from orders, payments and cleared cheques.
type Financials struct {
	TotalOrders     int64               `json:"total_orders"`
	TotalSpentCents int64               `json:"total_spent_cents"`
	TotalPaidCents  int64               `json:"total_paid_cents"`
	BalanceDueCents int64               `json:"balance_due_cents"`
	PaymentStatus   enums.PaymentStatus `json:"payment_status"`
}

func FromModel(m models.Store, fin Financials) StoreDTO {
	return StoreDTO{
		ID:               m.ID,
		Name:             m.Name,
		OwnerName:        m.OwnerName,
		Email:            m.Email,
		Phone:            m.Phone,
		Address:          m.Address,
		City:             m.City,
		State:            m.State,
		ZipCode:          m.ZipCode,
		Lat:              m.Lat,
		Lng:              m.Lng,
		IsOrder:          m.IsOrder,
		IsProduct:        m.IsProduct,
		RegistrationRef:  m.RegistrationRef,
		ApprovalStatus:   m.ApprovalStatus,
		RejectionReason:  m.RejectionReason,
		ApprovedAt:       m.ApprovedAt,
		ApprovedBy:       m.ApprovedBy,
		CreditLimitCents: m.CreditLimitCents,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
		Financials:       fin,
	}
}

// SortField names the supported list orderings.
type SortField string

const (
	SortByName    SortField = "name"
	SortByCreated SortField = "created"
	SortByBalance SortField = "balance"
)

// ListFilter drives List, Analytics and the exports alike so that every
// view of the same filter yields the same rows in the same order.
type ListFilter struct {
	Search         string
	ApprovalStatus *enums.ApprovalStatus
	State          string
	City           string
	PaymentStatus  *enums.PaymentStatus
	Sort           SortField
	Desc           bool
	Offset         int
	Limit          int
}

type ListResult struct {
	Items []StoreDTO `json:"items"`
	Total int        `json:"total"`
}

type UpdateProfileInput struct {
	Name             *string
	OwnerName        *string
	Email            *string
	Phone            *string
	Address          *string
	City             *string
	State            *string
	ZipCode          *string
	Lat              *float64
	Lng              *float64
	CreditLimitCents *int64
}

type PermissionsInput struct {
	IsOrder   bool
	IsProduct bool
}

// AnalyticsSummary totals the filtered stores.
type AnalyticsSummary struct {
	StoreCount      int                         `json:"store_count"`
	TotalSpentCents int64                       `json:"total_spent_cents"`
	TotalPaidCents  int64                       `json:"total_paid_cents"`
	BalanceDueCents int64                       `json:"balance_due_cents"`
	ByPaymentStatus map[enums.PaymentStatus]int `json:"by_payment_status"`
	Stores          []StoreDTO                  `json:"stores"`
}
