package cheques

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/ledger"
	"github.com/producehub/producehub-backend/internal/stores"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/dbtest"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/outbox"
)

var (
	fixedNow = time.Date(2026, 4, 14, 15, 0, 0, 0, time.UTC)
	admin    = auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
)

type recordingEmitter struct{ events []outbox.DomainEvent }

func (r *recordingEmitter) Emit(_ context.Context, _ *gorm.DB, e outbox.DomainEvent) error {
	r.events = append(r.events, e)
	return nil
}

type harness struct {
	svc     Service
	conn    *gorm.DB
	emitter *recordingEmitter
	store   models.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t, dbtest.Stores, dbtest.Cheques, dbtest.Payments, dbtest.LedgerEntries)
	store := models.Store{ID: uuid.New(), Name: "Fresh Mart", OwnerName: "Lu", Email: "lu@fresh.test", Phone: "555", Address: "5 Oak", City: "Visalia", State: "CA", ZipCode: "93277", RegistrationRef: "REG-C", ApprovalStatus: enums.ApprovalStatusApproved}
	require.NoError(t, conn.Create(&store).Error)

	tick := fixedNow
	clock := func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn), clock)
	require.NoError(t, err)
	emitter := &recordingEmitter{}
	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Stores: stores.NewRepository(conn),
		Ledger: ledgerSvc,
		Tx:     db.Wrap(conn),
		Outbox: emitter,
		Now:    clock,
	})
	require.NoError(t, err)
	return &harness{svc: svc, conn: conn, emitter: emitter, store: store}
}

func (h *harness) cheque(t *testing.T, number string, cents int64) *ChequeDTO {
	t.Helper()
	date := fixedNow.AddDate(0, 0, -2)
	c, err := h.svc.Create(context.Background(), admin, CreateInput{StoreID: h.store.ID, ChequeNumber: number, AmountCents: cents, ChequeDate: &date})
	require.NoError(t, err)
	return c
}

func strPtr(s string) *string { return &s }

func TestCreateValidatesAndRequiresKnownStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.Create(ctx, admin, CreateInput{AmountCents: -1})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Len(t, typed.Details(), 4)

	date := fixedNow
	_, err = h.svc.Create(ctx, admin, CreateInput{StoreID: uuid.New(), ChequeNumber: "1", AmountCents: 10, ChequeDate: &date})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	store := auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: &h.store.ID}
	_, err = h.svc.Create(ctx, store, CreateInput{})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
}

func TestClearRequiresBankReferenceAndCreditsLedger(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.cheque(t, "1001", 2500)

	_, err := h.svc.UpdateStatus(ctx, admin, c.ID, StatusInput{Status: enums.ChequeStatusCleared})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	cleared, err := h.svc.UpdateStatus(ctx, admin, c.ID, StatusInput{Status: enums.ChequeStatusCleared, BankReference: strPtr(" BR-77 ")})
	require.NoError(t, err)
	assert.Equal(t, enums.ChequeStatusCleared, cleared.Status)
	require.NotNil(t, cleared.ClearedDate)
	assert.True(t, cleared.ClearedDate.After(fixedNow), "cleared date defaults to now")
	assert.Equal(t, "BR-77", *cleared.BankReference)

	st, err := h.svc.Statement(ctx, admin, h.store.ID)
	require.NoError(t, err)
	require.Len(t, st.Lines, 1)
	assert.EqualValues(t, -2500, st.BalanceCents)

	require.Len(t, h.emitter.events, 1)
	payload := h.emitter.events[0].Data.(outbox.ChequeStatusChangedEvent)
	assert.Equal(t, enums.ChequeStatusPending, payload.From)
	assert.Equal(t, enums.ChequeStatusCleared, payload.To)
}

func TestBouncingClearedChequeReversesCredit(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.cheque(t, "1002", 4000)

	_, err := h.svc.UpdateStatus(ctx, admin, c.ID, StatusInput{Status: enums.ChequeStatusCleared, BankReference: strPtr("BR-1")})
	require.NoError(t, err)
	_, err = h.svc.UpdateStatus(ctx, admin, c.ID, StatusInput{Status: enums.ChequeStatusBounced, Notes: strPtr("returned NSF")})
	require.NoError(t, err)

	st, err := h.svc.Statement(ctx, admin, h.store.ID)
	require.NoError(t, err)
	require.Len(t, st.Lines, 2)
	assert.Equal(t, enums.LedgerEntryReversal, st.Lines[1].Type)
	assert.Zero(t, st.BalanceCents)

	got, err := h.svc.Get(ctx, admin, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "returned NSF", *got.Notes)
}

func TestIllegalTransitionsAreStateConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	c := h.cheque(t, "1003", 100)

	_, err := h.svc.UpdateStatus(ctx, admin, c.ID, StatusInput{Status: enums.ChequeStatusCancelled})
	require.NoError(t, err)
	for _, to := range []enums.ChequeStatus{enums.ChequeStatusCleared, enums.ChequeStatusBounced, enums.ChequeStatusPending} {
		_, err = h.svc.UpdateStatus(ctx, admin, c.ID, StatusInput{Status: to, BankReference: strPtr("x")})
		assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict), "cancelled -> %s", to)
	}

	bounced := h.cheque(t, "1004", 100)
	_, err = h.svc.UpdateStatus(ctx, admin, bounced.ID, StatusInput{Status: enums.ChequeStatusBounced})
	require.NoError(t, err)
	st, err := h.svc.Statement(ctx, admin, h.store.ID)
	require.NoError(t, err)
	assert.Empty(t, st.Lines, "bouncing an uncleared cheque posts nothing")
}

func TestRecordPaymentCreditsLedgerAndEmits(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.svc.RecordPayment(ctx, admin, PaymentInput{StoreID: h.store.ID, AmountCents: 0, Method: "barter"})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Len(t, typed.Details(), 2)

	p, err := h.svc.RecordPayment(ctx, admin, PaymentInput{StoreID: h.store.ID, AmountCents: 1800, Method: enums.PaymentMethodTransfer, Reference: strPtr("WIRE-9")})
	require.NoError(t, err)
	assert.Equal(t, admin.UserID, p.RecordedBy)

	list, err := h.svc.ListPayments(ctx, admin, h.store.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	st, err := h.svc.Statement(ctx, admin, h.store.ID)
	require.NoError(t, err)
	assert.EqualValues(t, -1800, st.BalanceCents)
	assert.Equal(t, enums.EventPaymentRecorded, h.emitter.events[len(h.emitter.events)-1].EventType)
}

func TestStoresSeeOnlyTheirOwnCheques(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	mine := h.cheque(t, "2001", 700)
	other := models.Store{ID: uuid.New(), Name: "Other", OwnerName: "O", Email: "o@o.test", Phone: "1", Address: "a", City: "c", State: "s", ZipCode: "z", RegistrationRef: "REG-O", ApprovalStatus: enums.ApprovalStatusApproved}
	require.NoError(t, h.conn.Create(&other).Error)
	date := fixedNow
	theirs, err := h.svc.Create(ctx, admin, CreateInput{StoreID: other.ID, ChequeNumber: "9", AmountCents: 50, ChequeDate: &date})
	require.NoError(t, err)

	storeActor := auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: &h.store.ID}
	res, err := h.svc.List(ctx, storeActor, ListFilter{})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, mine.ID, res.Items[0].ID)

	_, err = h.svc.Get(ctx, storeActor, theirs.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	_, err = h.svc.Statement(ctx, storeActor, other.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	pending := enums.ChequeStatusPending
	all, err := h.svc.List(ctx, admin, ListFilter{Status: &pending, Search: "200"})
	require.NoError(t, err)
	assert.Equal(t, 1, all.Total)
	assert.EqualValues(t, 700, all.AmountCents)
}
