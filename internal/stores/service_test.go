package stores

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

var fixedNow = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

type stubStoreRepo struct {
	stores      map[uuid.UUID]*models.Store
	order       []uuid.UUID
	totals      map[uuid.UUID]Totals
	transitions int
	updates     int
	totalsCalls int
	version     uint64
	listErr     error
	lastFields  map[string]any
}

func newStubRepo(stores ...models.Store) *stubStoreRepo {
	r := &stubStoreRepo{stores: map[uuid.UUID]*models.Store{}, totals: map[uuid.UUID]Totals{}}
	for i := range stores {
		st := stores[i]
		r.stores[st.ID] = &st
		r.order = append(r.order, st.ID)
	}
	return r
}

func (r *stubStoreRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Store, error) {
	st, ok := r.stores[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *st
	return &cp, nil
}

func (r *stubStoreRepo) FindByIDTx(_ *gorm.DB, id uuid.UUID) (*models.Store, error) {
	return r.FindByID(context.Background(), id)
}

func (r *stubStoreRepo) ListAll(context.Context) ([]models.Store, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.Store, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.stores[id])
	}
	return out, nil
}

func (r *stubStoreRepo) TransitionApproval(_ *gorm.DB, id uuid.UUID, from, to enums.ApprovalStatus, fields map[string]any) (int64, error) {
	r.transitions++
	r.lastFields = fields
	st, ok := r.stores[id]
	if !ok || st.ApprovalStatus != from {
		return 0, nil
	}
	st.ApprovalStatus = to
	if reason, ok := fields["rejection_reason"].(string); ok {
		st.RejectionReason = &reason
	}
	return 1, nil
}

func (r *stubStoreRepo) Update(_ context.Context, store *models.Store) error {
	r.updates++
	cp := *store
	r.stores[store.ID] = &cp
	return nil
}

func (r *stubStoreRepo) UpdatePermissions(_ context.Context, id uuid.UUID, isOrder, isProduct bool) (int64, error) {
	st, ok := r.stores[id]
	if !ok {
		return 0, nil
	}
	st.IsOrder, st.IsProduct = isOrder, isProduct
	return 1, nil
}

func (r *stubStoreRepo) Totals(context.Context, time.Time) (map[uuid.UUID]Totals, error) {
	r.totalsCalls++
	return r.totals, nil
}

func (r *stubStoreRepo) DataVersion(context.Context) (uint64, error) {
	return r.version, nil
}

type fakeTx struct{}

func (fakeTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type recordingEmitter struct {
	events []outbox.DomainEvent
}

func (e *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, event outbox.DomainEvent) error {
	e.events = append(e.events, event)
	return nil
}

func store(name, owner, email, phone string, status enums.ApprovalStatus) models.Store {
	return models.Store{
		ID:              uuid.New(),
		Name:            name,
		OwnerName:       owner,
		Email:           email,
		Phone:           phone,
		Address:         "1 Market St",
		City:            "Fresno",
		State:           "CA",
		ZipCode:         "93701",
		RegistrationRef: "REG-20260101-" + name[:1],
		ApprovalStatus:  status,
		CreatedAt:       fixedNow.Add(-time.Hour),
	}
}

func newTestService(t *testing.T, repo *stubStoreRepo) (Service, *recordingEmitter) {
	t.Helper()
	emitter := &recordingEmitter{}
	svc, err := NewService(ServiceParams{Repo: repo, Tx: fakeTx{}, Outbox: emitter, Now: func() time.Time { return fixedNow }})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, emitter
}

var adminActor = auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{Tx: fakeTx{}, Outbox: &recordingEmitter{}}); err == nil {
		t.Fatal("expected error without repo")
	}
	if _, err := NewService(ServiceParams{Repo: newStubRepo(), Outbox: &recordingEmitter{}}); err == nil {
		t.Fatal("expected error without tx runner")
	}
	if _, err := NewService(ServiceParams{Repo: newStubRepo(), Tx: fakeTx{}}); err == nil {
		t.Fatal("expected error without outbox")
	}
}

func TestSearchMatchesAnyFieldCaseInsensitive(t *testing.T) {
	repo := newStubRepo(
		store("Green Grocer", "Ana Ruiz", "ana@green.test", "555-0101", enums.ApprovalStatusApproved),
		store("Blue Basket", "Tom Lee", "tom@blue.test", "555-0202", enums.ApprovalStatusApproved),
		store("Corner Market", "Lia Chen", "lia@corner.test", "555-0303", enums.ApprovalStatusPending),
	)
	svc, _ := newTestService(t, repo)

	cases := map[string]int{"GREEN": 1, "tom@": 1, "0303": 1, "lee": 1, "": 3, "   ": 3, "zzz": 0}
	for q, want := range cases {
		res, err := svc.List(context.Background(), ListFilter{Search: q})
		if err != nil {
			t.Fatalf("list %q: %v", q, err)
		}
		if len(res.Items) != want || res.Total != want {
			t.Fatalf("search %q: expected %d rows, got %d", q, want, len(res.Items))
		}
	}
}

func TestApproveRemovesFromPendingAndEmitsOnce(t *testing.T) {
	pending := store("Corner Market", "Lia Chen", "lia@corner.test", "555-0303", enums.ApprovalStatusPending)
	repo := newStubRepo(pending)
	svc, emitter := newTestService(t, repo)
	ctx := context.Background()

	dto, err := svc.Approve(ctx, adminActor, pending.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if dto.ApprovalStatus != enums.ApprovalStatusApproved || dto.ApprovedBy == nil || *dto.ApprovedBy != adminActor.UserID {
		t.Fatalf("unexpected approved dto %+v", dto)
	}
	left, err := svc.ListPending(ctx, "")
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(left) != 0 {
		t.Fatalf("expected no pending stores, got %d", len(left))
	}

	_, err = svc.Approve(ctx, adminActor, pending.ID)
	if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict on second approve, got %v", err)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventStoreApproved {
		t.Fatalf("expected exactly one store_approved event, got %+v", emitter.events)
	}
}

func TestApproveUnknownStoreIsNotFound(t *testing.T) {
	svc, _ := newTestService(t, newStubRepo())
	_, err := svc.Approve(context.Background(), adminActor, uuid.New())
	if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRejectBlankReasonWritesNothing(t *testing.T) {
	pending := store("Corner Market", "Lia Chen", "lia@corner.test", "555-0303", enums.ApprovalStatusPending)
	repo := newStubRepo(pending)
	svc, emitter := newTestService(t, repo)

	_, err := svc.Reject(context.Background(), adminActor, pending.ID, "   \t")
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if repo.transitions != 0 || len(emitter.events) != 0 {
		t.Fatalf("expected no writes, got transitions=%d events=%d", repo.transitions, len(emitter.events))
	}
	if repo.stores[pending.ID].ApprovalStatus != enums.ApprovalStatusPending {
		t.Fatal("store should remain pending")
	}
}

func TestRejectTrimsReason(t *testing.T) {
	pending := store("Corner Market", "Lia Chen", "lia@corner.test", "555-0303", enums.ApprovalStatusPending)
	repo := newStubRepo(pending)
	svc, emitter := newTestService(t, repo)

	dto, err := svc.Reject(context.Background(), adminActor, pending.ID, "  missing license  ")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if repo.transitions != 1 {
		t.Fatalf("expected exactly one update, got %d", repo.transitions)
	}
	if repo.lastFields["rejection_reason"] != "missing license" {
		t.Fatalf("expected trimmed reason, got %v", repo.lastFields["rejection_reason"])
	}
	if dto.RejectionReason == nil || *dto.RejectionReason != "missing license" {
		t.Fatalf("unexpected dto reason %v", dto.RejectionReason)
	}
	if len(emitter.events) != 1 || emitter.events[0].EventType != enums.EventStoreRejected {
		t.Fatalf("expected store_rejected event, got %+v", emitter.events)
	}
}

func TestApprovalDecisionsCarryDerivedFinancials(t *testing.T) {
	approving := store("Corner Market", "Lia Chen", "lia@corner.test", "555-0303", enums.ApprovalStatusPending)
	rejecting := store("Blue Basket", "Tom Lee", "tom@blue.test", "555-0202", enums.ApprovalStatusPending)
	repo := newStubRepo(approving, rejecting)
	repo.totals[approving.ID] = Totals{OrderCount: 1, SpentCents: 4000}
	repo.totals[rejecting.ID] = Totals{OrderCount: 2, SpentCents: 1000, PaidCents: 400}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	approved, err := svc.Approve(ctx, adminActor, approving.ID)
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.PaymentStatus != enums.PaymentStatusUnpaid || approved.BalanceDueCents != 4000 || approved.TotalOrders != 1 {
		t.Fatalf("unexpected approved financials %+v", approved)
	}

	rejected, err := svc.Reject(ctx, adminActor, rejecting.ID, "incomplete license")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.PaymentStatus != enums.PaymentStatusPartial || rejected.BalanceDueCents != 600 {
		t.Fatalf("unexpected rejected financials %+v", rejected)
	}
	if repo.totalsCalls != 2 {
		t.Fatalf("expected totals read once per decision, got %d", repo.totalsCalls)
	}
}

func TestExportRowsMatchList(t *testing.T) {
	repo := newStubRepo(
		store("Zeta Foods", "A", "a@z.test", "1", enums.ApprovalStatusApproved),
		store("alpha greens", "B", "b@a.test", "2", enums.ApprovalStatusApproved),
		store("Mid Market", "C", "c@m.test", "3", enums.ApprovalStatusPending),
	)
	svc, _ := newTestService(t, repo)
	approved := enums.ApprovalStatusApproved
	filter := ListFilter{ApprovalStatus: &approved, Sort: SortByName}

	list, err := svc.List(context.Background(), filter)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	rows, err := svc.ExportRows(context.Background(), filter)
	if err != nil {
		t.Fatalf("export rows: %v", err)
	}
	if len(rows) != len(list.Items) {
		t.Fatalf("expected %d rows, got %d", len(list.Items), len(rows))
	}
	for i := range rows {
		if rows[i].ID != list.Items[i].ID {
			t.Fatalf("row %d differs: %s vs %s", i, rows[i].Name, list.Items[i].Name)
		}
	}
	if rows[0].Name != "alpha greens" {
		t.Fatalf("expected case-insensitive name order, got %s first", rows[0].Name)
	}
}

func TestExportRowsLimit(t *testing.T) {
	repo := newStubRepo(store("A", "A", "a@a.test", "1", enums.ApprovalStatusApproved), store("B", "B", "b@b.test", "2", enums.ApprovalStatusApproved))
	svc, err := NewService(ServiceParams{Repo: repo, Tx: fakeTx{}, Outbox: &recordingEmitter{}, MaxExportRows: 1})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	if _, err := svc.ExportRows(context.Background(), ListFilter{}); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAnalyticsMemoizedUntilVersionChanges(t *testing.T) {
	a := store("A", "A", "a@a.test", "1", enums.ApprovalStatusApproved)
	repo := newStubRepo(a)
	repo.totals[a.ID] = Totals{OrderCount: 2, SpentCents: 10000, PaidCents: 2500}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.Analytics(ctx, ListFilter{})
	if err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if first.BalanceDueCents != 7500 || first.ByPaymentStatus[enums.PaymentStatusPartial] != 1 {
		t.Fatalf("unexpected summary %+v", first)
	}
	if _, err := svc.Analytics(ctx, ListFilter{}); err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if repo.totalsCalls != 1 {
		t.Fatalf("expected memoized result, totals called %d times", repo.totalsCalls)
	}

	repo.version++
	if _, err := svc.Analytics(ctx, ListFilter{}); err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if _, err := svc.Analytics(ctx, ListFilter{Search: "a"}); err != nil {
		t.Fatalf("analytics: %v", err)
	}
	if repo.totalsCalls != 3 {
		t.Fatalf("expected recompute on version and search change, got %d", repo.totalsCalls)
	}
}

func TestGetForbidsOtherStores(t *testing.T) {
	a := store("A", "A", "a@a.test", "1", enums.ApprovalStatusApproved)
	svc, _ := newTestService(t, newStubRepo(a))
	other := uuid.New()
	actor := auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: &other}
	if _, err := svc.Get(context.Background(), actor, a.ID); !pkgerrors.IsCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestUpdateCollectsAllInvalidFields(t *testing.T) {
	a := store("A", "A", "a@a.test", "1", enums.ApprovalStatusApproved)
	repo := newStubRepo(a)
	svc, _ := newTestService(t, repo)
	blank, badEmail := " ", "nope"
	_, err := svc.Update(context.Background(), adminActor, a.ID, UpdateProfileInput{Name: &blank, Email: &badEmail, City: &blank})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields, _ := typed.Details().(map[string]string)
	if len(fields) != 3 {
		t.Fatalf("expected 3 invalid fields, got %v", fields)
	}
	if repo.updates != 0 {
		t.Fatal("invalid update must not be persisted")
	}
}

func TestListDependencyError(t *testing.T) {
	repo := newStubRepo()
	repo.listErr = errors.New("boom")
	svc, _ := newTestService(t, repo)
	if _, err := svc.List(context.Background(), ListFilter{}); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestDerivePaymentStatus(t *testing.T) {
	cases := []struct {
		name    string
		totals  Totals
		status  enums.PaymentStatus
		balance int64
	}{
		{"no orders", Totals{}, enums.PaymentStatusPaid, 0},
		{"fully paid", Totals{OrderCount: 1, SpentCents: 500, PaidCents: 500}, enums.PaymentStatusPaid, 0},
		{"overpaid floors at zero", Totals{OrderCount: 1, SpentCents: 500, PaidCents: 900}, enums.PaymentStatusPaid, 0},
		{"partial", Totals{OrderCount: 2, SpentCents: 1000, PaidCents: 400}, enums.PaymentStatusPartial, 600},
		{"unpaid", Totals{OrderCount: 1, SpentCents: 1000}, enums.PaymentStatusUnpaid, 1000},
		{"overdue", Totals{OrderCount: 2, SpentCents: 1000, PastTermsCents: 700, PaidCents: 400}, enums.PaymentStatusOverdue, 600},
		{"old orders covered", Totals{OrderCount: 2, SpentCents: 1000, PastTermsCents: 300, PaidCents: 400}, enums.PaymentStatusPartial, 600},
	}
	for _, tc := range cases {
		got := Derive(tc.totals)
		if got.PaymentStatus != tc.status || got.BalanceDueCents != tc.balance {
			t.Fatalf("%s: expected %s/%d, got %s/%d", tc.name, tc.status, tc.balance, got.PaymentStatus, got.BalanceDueCents)
		}
	}
}
