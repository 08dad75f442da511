package cheques

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/ledger"
	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/outbox"
	"github.com/producehub/producehub-backend/pkg/query"
)

type chequeRepository interface {
	Create(tx *gorm.DB, c *models.Cheque) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cheque, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Cheque, error)
	List(ctx context.Context) ([]models.Cheque, error)
	TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to enums.ChequeStatus, fields map[string]any) (int64, error)
	CreatePayment(tx *gorm.DB, p *models.Payment) error
	ListPayments(ctx context.Context, storeID uuid.UUID) ([]models.Payment, error)
}

type storeReader interface {
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error)
}

// Service tracks received cheques and payments against store credit.
type Service interface {
	Create(ctx context.Context, actor auth.Actor, input CreateInput) (*ChequeDTO, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*ChequeDTO, error)
	List(ctx context.Context, actor auth.Actor, filter ListFilter) (*ListResult, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, input StatusInput) (*ChequeDTO, error)
	RecordPayment(ctx context.Context, actor auth.Actor, input PaymentInput) (*PaymentDTO, error)
	ListPayments(ctx context.Context, actor auth.Actor, storeID uuid.UUID) ([]PaymentDTO, error)
	Statement(ctx context.Context, actor auth.Actor, storeID uuid.UUID) (*ledger.Statement, error)
}

type ServiceParams struct {
	Repo   chequeRepository
	Stores storeReader
	Ledger ledger.Service
	Tx     db.TxRunner
	Outbox outbox.Emitter
	Now    func() time.Time
}

type service struct {
	repo   chequeRepository
	stores storeReader
	ledger ledger.Service
	tx     db.TxRunner
	outbox outbox.Emitter
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("cheque repository required")
	case params.Stores == nil:
		return nil, fmt.Errorf("store repository required")
	case params.Ledger == nil:
		return nil, fmt.Errorf("ledger service required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Outbox == nil:
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:   params.Repo,
		stores: params.Stores,
		ledger: params.Ledger,
		tx:     params.Tx,
		outbox: params.Outbox,
		now:    now,
	}, nil
}

var errAdminOnly = pkgerrors.New(pkgerrors.CodeForbidden, "finance changes require an admin")

func (s *service) Create(ctx context.Context, actor auth.Actor, input CreateInput) (*ChequeDTO, error) {
	if !actor.IsAdmin() {
		return nil, errAdminOnly
	}
	input.ChequeNumber = strings.TrimSpace(input.ChequeNumber)
	invalid := map[string]string{}
	if input.StoreID == uuid.Nil {
		invalid["store_id"] = "required"
	}
	if input.ChequeNumber == "" {
		invalid["cheque_number"] = "required"
	}
	if input.AmountCents <= 0 {
		invalid["amount_cents"] = "must be positive"
	}
	if input.ChequeDate == nil || input.ChequeDate.IsZero() {
		invalid["cheque_date"] = "required"
	}
	if err := pkgerrors.Fields("invalid cheque", invalid); err != nil {
		return nil, err
	}

	cheque := &models.Cheque{
		StoreID:      input.StoreID,
		ChequeNumber: input.ChequeNumber,
		AmountCents:  input.AmountCents,
		ChequeDate:   input.ChequeDate.UTC(),
		Status:       enums.ChequeStatusPending,
		Notes:        trimmed(input.Notes),
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.stores.FindByIDTx(tx, input.StoreID); err != nil {
			return repo.Translate(err, "store")
		}
		return repo.Translate(s.repo.Create(tx, cheque), "cheque")
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*cheque)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*ChequeDTO, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "cheque")
	}
	if !actor.CanAccessStore(c.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cheque not found")
	}
	dto := FromModel(*c)
	return &dto, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter ListFilter) (*ListResult, error) {
	if actor.IsStore() {
		filter.StoreID = actor.StoreID
	} else if !actor.IsAdmin() {
		return nil, errAdminOnly
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, repo.Translate(err, "cheques")
	}
	c := query.New[models.Cheque]().
		Filter(query.Search(filter.Search,
			func(c models.Cheque) string { return c.ChequeNumber },
			func(c models.Cheque) string { return deref(c.BankReference) },
		)).
		Filter(query.EqualsIfSet(func(c models.Cheque) uuid.UUID { return c.StoreID }, filter.StoreID)).
		Filter(query.EqualsIfSet(func(c models.Cheque) enums.ChequeStatus { return c.Status }, filter.Status))
	if filter.From != nil {
		from := *filter.From
		c = c.Filter(func(c models.Cheque) bool { return !c.ChequeDate.Before(from) })
	}
	if filter.To != nil {
		to := *filter.To
		c = c.Filter(func(c models.Cheque) bool { return !c.ChequeDate.After(to) })
	}
	matched := c.Apply(rows)

	res := &ListResult{Items: make([]ChequeDTO, 0, len(matched)), Total: len(matched)}
	for _, ch := range matched {
		res.AmountCents += ch.AmountCents
	}
	for _, ch := range query.Page(matched, filter.Offset, filter.Limit) {
		res.Items = append(res.Items, FromModel(ch))
	}
	return res, nil
}

// UpdateStatus applies one cheque transition. Clearing credits the store
// ledger; bouncing a cleared cheque reverses that credit.
func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, id uuid.UUID, input StatusInput) (*ChequeDTO, error) {
	if !actor.IsAdmin() {
		return nil, errAdminOnly
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.Fields("invalid cheque status", map[string]string{"status": "must be pending, cleared, bounced or cancelled"})
	}
	now := s.now().UTC()
	ref := trimmed(input.BankReference)
	if input.Status == enums.ChequeStatusCleared && ref == nil {
		return nil, pkgerrors.Fields("invalid cheque clearance", map[string]string{"bank_reference": "required to clear a cheque"})
	}

	var result models.Cheque
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		current, err := s.repo.FindByIDTx(tx, id)
		if err != nil {
			return repo.Translate(err, "cheque")
		}
		from, to := current.Status, input.Status
		if !from.CanTransitionTo(to) {
			return chequeConflict(from, to)
		}

		fields := map[string]any{"updated_at": now}
		if notes := trimmed(input.Notes); notes != nil {
			fields["notes"] = *notes
			current.Notes = notes
		}
		if to == enums.ChequeStatusCleared {
			cleared := now
			if input.ClearedDate != nil && !input.ClearedDate.IsZero() {
				cleared = input.ClearedDate.UTC()
			}
			fields["cleared_date"] = cleared
			fields["bank_reference"] = *ref
			current.ClearedDate, current.BankReference = &cleared, ref
		}
		changed, err := s.repo.TransitionStatus(tx, id, from, to, fields)
		if err != nil {
			return repo.Translate(err, "cheque")
		}
		if changed == 0 {
			return chequeConflict(from, to)
		}
		current.Status = to
		current.UpdatedAt = now

		if err := s.post(ctx, tx, current, from, to); err != nil {
			return err
		}
		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventChequeStatusChanged,
			AggregateType: enums.AggregateCheque,
			AggregateID:   id,
			Actor:         actor.Ref(),
			Data: outbox.ChequeStatusChangedEvent{
				ChequeID:     id,
				StoreID:      current.StoreID,
				ChequeNumber: current.ChequeNumber,
				AmountCents:  current.AmountCents,
				From:         from,
				To:           to,
			},
			OccurredAt: now,
		})
		if err != nil {
			return err
		}
		result = *current
		return nil
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(result)
	return &dto, nil
}

func (s *service) post(ctx context.Context, tx *gorm.DB, c *models.Cheque, from, to enums.ChequeStatus) error {
	var input ledger.RecordInput
	switch {
	case to == enums.ChequeStatusCleared:
		input = ledger.RecordInput{Type: enums.LedgerEntryCredit, Description: "Cheque " + c.ChequeNumber + " cleared"}
	case from == enums.ChequeStatusCleared && to == enums.ChequeStatusBounced:
		input = ledger.RecordInput{Type: enums.LedgerEntryReversal, Description: "Cheque " + c.ChequeNumber + " bounced"}
	default:
		return nil
	}
	input.StoreID = c.StoreID
	input.AmountCents = c.AmountCents
	input.ReferenceType = ledger.ReferenceCheque
	input.ReferenceID = c.ID
	_, err := s.ledger.Record(ctx, tx, input)
	return err
}

func chequeConflict(from, to enums.ChequeStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal cheque status transition").
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

func (s *service) RecordPayment(ctx context.Context, actor auth.Actor, input PaymentInput) (*PaymentDTO, error) {
	if !actor.IsAdmin() {
		return nil, errAdminOnly
	}
	invalid := map[string]string{}
	if input.StoreID == uuid.Nil {
		invalid["store_id"] = "required"
	}
	if input.AmountCents <= 0 {
		invalid["amount_cents"] = "must be positive"
	}
	if !input.Method.IsValid() {
		invalid["method"] = "must be cash, card, transfer or cheque"
	}
	if err := pkgerrors.Fields("invalid payment", invalid); err != nil {
		return nil, err
	}
	now := s.now().UTC()
	received := now
	if input.ReceivedAt != nil && !input.ReceivedAt.IsZero() {
		received = input.ReceivedAt.UTC()
	}
	payment := &models.Payment{
		StoreID:     input.StoreID,
		AmountCents: input.AmountCents,
		Method:      input.Method,
		Reference:   trimmed(input.Reference),
		RecordedBy:  actor.UserID,
		ReceivedAt:  received,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.stores.FindByIDTx(tx, input.StoreID); err != nil {
			return repo.Translate(err, "store")
		}
		if err := s.repo.CreatePayment(tx, payment); err != nil {
			return repo.Translate(err, "payment")
		}
		_, err := s.ledger.Record(ctx, tx, ledger.RecordInput{
			StoreID:       payment.StoreID,
			Type:          enums.LedgerEntryCredit,
			AmountCents:   payment.AmountCents,
			ReferenceType: ledger.ReferencePayment,
			ReferenceID:   payment.ID,
			Description:   "Payment by " + string(payment.Method),
		})
		if err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentRecorded,
			AggregateType: enums.AggregatePayment,
			AggregateID:   payment.ID,
			Actor:         actor.Ref(),
			Data:          outbox.PaymentRecordedEvent{PaymentID: payment.ID, StoreID: payment.StoreID, AmountCents: payment.AmountCents, Method: payment.Method},
			OccurredAt:    now,
		})
	})
	if err != nil {
		return nil, err
	}
	dto := PaymentFromModel(*payment)
	return &dto, nil
}

func (s *service) ListPayments(ctx context.Context, actor auth.Actor, storeID uuid.UUID) ([]PaymentDTO, error) {
	if !actor.CanAccessStore(storeID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store access denied")
	}
	rows, err := s.repo.ListPayments(ctx, storeID)
	if err != nil {
		return nil, repo.Translate(err, "payments")
	}
	out := make([]PaymentDTO, 0, len(rows))
	for _, p := range rows {
		out = append(out, PaymentFromModel(p))
	}
	return out, nil
}

// Statement is the store's credit statement with running balance.
func (s *service) Statement(ctx context.Context, actor auth.Actor, storeID uuid.UUID) (*ledger.Statement, error) {
	if !actor.CanAccessStore(storeID) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "store access denied")
	}
	return s.ledger.Statement(ctx, storeID)
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
