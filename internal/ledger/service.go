package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

// Reference types name the record that caused an entry.
const (
	ReferenceOrder   = "order"
	ReferenceCheque  = "cheque"
	ReferencePayment = "payment"
)

// Service records movements on store credit accounts.
type Service interface {
	Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.LedgerEntry, error)
	Statement(ctx context.Context, storeID uuid.UUID) (*Statement, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// RecordInput captures the immutable data a ledger entry requires.
type RecordInput struct {
	StoreID       uuid.UUID             `json:"store_id"`
	Type          enums.LedgerEntryType `json:"type"`
	AmountCents   int64                 `json:"amount_cents"`
	ReferenceType string                `json:"reference_type"`
	ReferenceID   uuid.UUID             `json:"reference_id"`
	Description   string                `json:"description"`
}

// StatementLine is one entry with the balance due after it.
type StatementLine struct {
	ID            uuid.UUID             `json:"id"`
	Type          enums.LedgerEntryType `json:"type"`
	AmountCents   int64                 `json:"amount_cents"`
	ReferenceType string                `json:"reference_type"`
	ReferenceID   uuid.UUID             `json:"reference_id"`
	Description   string                `json:"description"`
	BalanceCents  int64                 `json:"balance_cents"`
	CreatedAt     time.Time             `json:"created_at"`
}

// Statement is a store's credit account in entry order. A positive balance
// is money owed by the store.
type Statement struct {
	StoreID      uuid.UUID       `json:"store_id"`
	Lines        []StatementLine `json:"lines"`
	ChargedCents int64           `json:"charged_cents"`
	CreditCents  int64           `json:"credited_cents"`
	BalanceCents int64           `json:"balance_cents"`
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

// Record appends an entry inside tx. tx may be nil for standalone writes.
func (s *service) Record(ctx context.Context, tx *gorm.DB, input RecordInput) (*models.LedgerEntry, error) {
	invalid := map[string]string{}
	if input.StoreID == uuid.Nil {
		invalid["store_id"] = "required"
	}
	if !input.Type.IsValid() {
		invalid["type"] = fmt.Sprintf("invalid ledger entry type %q", input.Type)
	}
	if input.AmountCents <= 0 {
		invalid["amount_cents"] = "must be positive"
	}
	if strings.TrimSpace(input.ReferenceType) == "" {
		invalid["reference_type"] = "required"
	}
	if input.ReferenceID == uuid.Nil {
		invalid["reference_id"] = "required"
	}
	if err := pkgerrors.Fields("invalid ledger entry", invalid); err != nil {
		return nil, err
	}

	entry := &models.LedgerEntry{
		StoreID:       input.StoreID,
		Type:          input.Type,
		AmountCents:   input.AmountCents,
		ReferenceType: input.ReferenceType,
		ReferenceID:   input.ReferenceID,
		Description:   strings.TrimSpace(input.Description),
		CreatedAt:     s.now().UTC(),
	}
	if err := s.repo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record ledger entry")
	}
	return entry, nil
}

func (s *service) Statement(ctx context.Context, storeID uuid.UUID) (*Statement, error) {
	if storeID == uuid.Nil {
		return nil, pkgerrors.Fields("invalid statement request", map[string]string{"store_id": "required"})
	}
	entries, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list ledger entries")
	}
	return Build(storeID, entries), nil
}

// Build folds entries, oldest first, into a statement with running balance.
func Build(storeID uuid.UUID, entries []models.LedgerEntry) *Statement {
	st := &Statement{StoreID: storeID, Lines: make([]StatementLine, 0, len(entries))}
	for _, e := range entries {
		signed := e.Type.Sign() * e.AmountCents
		if signed > 0 {
			st.ChargedCents += e.AmountCents
		} else {
			st.CreditCents += e.AmountCents
		}
		st.BalanceCents += signed
		st.Lines = append(st.Lines, StatementLine{
			ID:            e.ID,
			Type:          e.Type,
			AmountCents:   e.AmountCents,
			ReferenceType: e.ReferenceType,
			ReferenceID:   e.ReferenceID,
			Description:   e.Description,
			BalanceCents:  st.BalanceCents,
			CreatedAt:     e.CreatedAt,
		})
	}
	return st
}
