package legaldocs

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/stores"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/dbtest"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
)

var (
	fixedNow = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)
	admin    = auth.Actor{UserID: uuid.New(), Role: enums.RoleAdmin}
)

type harness struct {
	svc   Service
	conn  *gorm.DB
	store models.Store
	owner auth.Actor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	conn := dbtest.Open(t, dbtest.Stores, dbtest.LegalDocuments)
	store := models.Store{ID: uuid.New(), Name: "Valley Greens", OwnerName: "Rae", Email: "rae@valley.test", Phone: "555", Address: "1 Elm", City: "Fresno", State: "CA", ZipCode: "93701", RegistrationRef: "REG-L", ApprovalStatus: enums.ApprovalStatusApproved}
	require.NoError(t, conn.Create(&store).Error)

	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(conn),
		Stores: stores.NewRepository(conn),
		Tx:     db.Wrap(conn),
		Now:    func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	id := store.ID
	return &harness{svc: svc, conn: conn, store: store, owner: auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: &id}}
}

func (h *harness) submit(t *testing.T, typ enums.LegalDocumentType, expires *time.Time) *DocumentDTO {
	t.Helper()
	d, err := h.svc.Submit(context.Background(), h.owner, "203.0.113.7:51234", SubmitInput{Type: typ, FileURL: "https://files.test/" + string(typ) + ".pdf", ExpiresAt: expires})
	require.NoError(t, err)
	return d
}

func days(n int) *time.Time {
	t := fixedNow.AddDate(0, 0, n)
	return &t
}

func TestSubmitRecordsAuditFields(t *testing.T) {
	h := newHarness(t)
	d := h.submit(t, enums.LegalDocumentW9, nil)

	assert.Equal(t, enums.LegalDocumentStatusReceived, d.Status)
	assert.Equal(t, h.store.ID, d.StoreID)
	assert.Equal(t, "203.0.113.7", d.AcceptedIP)
	assert.Equal(t, h.owner.UserID, d.AcceptedBy)
	assert.True(t, d.AcceptedAt.Equal(fixedNow))
}

func TestSubmitReportsEveryInvalidField(t *testing.T) {
	h := newHarness(t)
	_, err := h.svc.Submit(context.Background(), admin, "not-an-ip", SubmitInput{Type: "passport", FileURL: "files/x.pdf", ExpiresAt: days(-1)})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	require.Equal(t, pkgerrors.CodeValidation, typed.Code())
	fields := typed.Details().(map[string]string)
	for _, key := range []string{"store_id", "type", "file_url", "expires_at", "client_ip"} {
		assert.Contains(t, fields, key)
	}

	other := uuid.New()
	_, err = h.svc.Submit(context.Background(), admin, "10.0.0.1", SubmitInput{StoreID: &other, Type: enums.LegalDocumentW9, FileURL: "https://files.test/w9.pdf"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestVerifyAndRejectAreOneWay(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	lic := h.submit(t, enums.LegalDocumentBusinessLicense, days(200))
	tax := h.submit(t, enums.LegalDocumentTaxCertificate, nil)

	_, err := h.svc.Verify(ctx, h.owner, lic.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	verified, err := h.svc.Verify(ctx, admin, lic.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.LegalDocumentStatusVerified, verified.Status)
	require.NotNil(t, verified.VerifiedBy)
	assert.Equal(t, admin.UserID, *verified.VerifiedBy)

	_, err = h.svc.Verify(ctx, admin, lic.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	_, err = h.svc.Reject(ctx, admin, tax.ID, "   ")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	rejected, err := h.svc.Reject(ctx, admin, tax.ID, " blurry scan ")
	require.NoError(t, err)
	assert.Equal(t, "blurry scan", *rejected.RejectionReason)
}

func TestListExpiringWithinDays(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	soon := h.submit(t, enums.LegalDocumentInsuranceCertificate, days(10))
	h.submit(t, enums.LegalDocumentResaleCertificate, days(90))
	h.submit(t, enums.LegalDocumentSignedAgreement, nil)

	window := 30
	res, err := h.svc.List(ctx, admin, ListFilter{ExpiringWithinDays: &window})
	require.NoError(t, err)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, soon.ID, res.Items[0].ID)

	all, err := h.svc.List(ctx, h.owner, ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, all.Total)

	negative := -1
	_, err = h.svc.List(ctx, admin, ListFilter{ExpiringWithinDays: &negative})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSummaryCountsStatusesAndMissingTypes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	w9 := h.submit(t, enums.LegalDocumentW9, nil)
	tax := h.submit(t, enums.LegalDocumentTaxCertificate, nil)
	_, err := h.svc.Verify(ctx, admin, w9.ID)
	require.NoError(t, err)
	_, err = h.svc.Reject(ctx, admin, tax.ID, "expired copy")
	require.NoError(t, err)

	sum, err := h.svc.Summary(ctx, h.owner, h.store.ID)
	require.NoError(t, err)
	assert.Equal(t, "Valley Greens", sum.StoreName)
	assert.Equal(t, 1, sum.Counts[enums.LegalDocumentStatusVerified])
	assert.Equal(t, 1, sum.Counts[enums.LegalDocumentStatusRejected])
	assert.Equal(t, 0, sum.Counts[enums.LegalDocumentStatusExpired])
	assert.Len(t, sum.Documents, 2)
	assert.Contains(t, sum.Missing, enums.LegalDocumentTaxCertificate)
	assert.NotContains(t, sum.Missing, enums.LegalDocumentW9)

	raw, err := json.Marshal(sum)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"accepted_ip":"203.0.113.7"`)

	_, err = h.svc.Summary(ctx, auth.Actor{UserID: uuid.New(), Role: enums.RoleStore, StoreID: ptr(uuid.New())}, h.store.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func ptr[T any](v T) *T { return &v }

func TestRepositoryLifecycleQueries(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	r := NewRepository(h.conn)
	doc := h.submit(t, enums.LegalDocumentBusinessLicense, days(20))
	_, err := h.svc.Verify(ctx, admin, doc.ID)
	require.NoError(t, err)

	rows, err := r.FindExpiringUnnotified(ctx, fixedNow, fixedNow.AddDate(0, 0, 30))
	require.NoError(t, err)
	require.Len(t, rows, 1)

	n, err := r.MarkExpiryNotified(h.conn, doc.ID, fixedNow)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	n, _ = r.MarkExpiryNotified(h.conn, doc.ID, fixedNow)
	assert.Zero(t, n)

	rows, _ = r.FindExpiringUnnotified(ctx, fixedNow, fixedNow.AddDate(0, 0, 30))
	assert.Empty(t, rows)

	expired, err := r.FindExpiredVerified(ctx, fixedNow.AddDate(0, 0, 21))
	require.NoError(t, err)
	assert.Len(t, expired, 1)
}
