package legaldocs

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/internal/repo"
	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/query"
)

type documentRepository interface {
	Create(tx *gorm.DB, d *models.LegalDocument) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.LegalDocument, error)
	List(ctx context.Context) ([]models.LegalDocument, error)
	ListByStore(ctx context.Context, storeID uuid.UUID) ([]models.LegalDocument, error)
	TransitionStatus(tx *gorm.DB, id uuid.UUID, from, to enums.LegalDocumentStatus, fields map[string]any) (int64, error)
}

type storeReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Store, error)
	FindByIDTx(tx *gorm.DB, id uuid.UUID) (*models.Store, error)
}

// Service manages compliance documents collected from stores.
type Service interface {
	Submit(ctx context.Context, actor auth.Actor, clientIP string, input SubmitInput) (*DocumentDTO, error)
	Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*DocumentDTO, error)
	List(ctx context.Context, actor auth.Actor, filter ListFilter) (*ListResult, error)
	Verify(ctx context.Context, actor auth.Actor, id uuid.UUID) (*DocumentDTO, error)
	Reject(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string) (*DocumentDTO, error)
	Summary(ctx context.Context, actor auth.Actor, storeID uuid.UUID) (*Summary, error)
}

type ServiceParams struct {
	Repo   documentRepository
	Stores storeReader
	Tx     db.TxRunner
	Now    func() time.Time
}

type service struct {
	repo   documentRepository
	stores storeReader
	tx     db.TxRunner
	now    func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	switch {
	case params.Repo == nil:
		return nil, fmt.Errorf("legal document repository required")
	case params.Stores == nil:
		return nil, fmt.Errorf("store repository required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &service{repo: params.Repo, stores: params.Stores, tx: params.Tx, now: now}, nil
}

var errAdminOnly = pkgerrors.New(pkgerrors.CodeForbidden, "document review requires an admin")

func (s *service) Submit(ctx context.Context, actor auth.Actor, clientIP string, input SubmitInput) (*DocumentDTO, error) {
	var storeID uuid.UUID
	switch {
	case actor.IsStore():
		storeID = *actor.StoreID
	case actor.IsAdmin():
		if input.StoreID != nil {
			storeID = *input.StoreID
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only stores and admins submit documents")
	}
	now := s.now().UTC()
	ip := normalizeIP(clientIP)

	invalid := map[string]string{}
	if storeID == uuid.Nil {
		invalid["store_id"] = "required"
	}
	if !input.Type.IsValid() {
		invalid["type"] = "unknown document type"
	}
	fileURL := strings.TrimSpace(input.FileURL)
	if u, err := url.Parse(fileURL); fileURL == "" || err != nil || u.Scheme == "" || u.Host == "" {
		invalid["file_url"] = "must be an absolute URL"
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(now) {
		invalid["expires_at"] = "must be in the future"
	}
	if ip == "" {
		invalid["client_ip"] = "could not determine client address"
	}
	if err := pkgerrors.Fields("invalid legal document", invalid); err != nil {
		return nil, err
	}

	doc := &models.LegalDocument{
		StoreID:        storeID,
		Type:           input.Type,
		Status:         enums.LegalDocumentStatusReceived,
		DocumentNumber: trimmed(input.DocumentNumber),
		FileURL:        fileURL,
		AcceptedBy:     actor.UserID,
		AcceptedAt:     now,
		AcceptedIP:     ip,
	}
	if input.ExpiresAt != nil {
		exp := input.ExpiresAt.UTC()
		doc.ExpiresAt = &exp
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.stores.FindByIDTx(tx, storeID); err != nil {
			return repo.Translate(err, "store")
		}
		return repo.Translate(s.repo.Create(tx, doc), "legal document")
	})
	if err != nil {
		return nil, err
	}
	dto := FromModel(*doc)
	return &dto, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id uuid.UUID) (*DocumentDTO, error) {
	d, err := s.load(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	dto := FromModel(*d)
	return &dto, nil
}

func (s *service) load(ctx context.Context, actor auth.Actor, id uuid.UUID) (*models.LegalDocument, error) {
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "legal document")
	}
	if !actor.CanAccessStore(d.StoreID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "legal document not found")
	}
	return d, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, filter ListFilter) (*ListResult, error) {
	if actor.IsStore() {
		filter.StoreID = actor.StoreID
	} else if !actor.IsAdmin() {
		return nil, errAdminOnly
	}
	if filter.ExpiringWithinDays != nil && *filter.ExpiringWithinDays < 0 {
		return nil, pkgerrors.Fields("invalid filter", map[string]string{"expiring_within_days": "must not be negative"})
	}
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, repo.Translate(err, "legal documents")
	}
	c := query.New[models.LegalDocument]().
		Filter(query.Search(filter.Search,
			func(d models.LegalDocument) string { return deref(d.DocumentNumber) },
			func(d models.LegalDocument) string { return string(d.Type) },
		)).
		Filter(query.EqualsIfSet(func(d models.LegalDocument) uuid.UUID { return d.StoreID }, filter.StoreID)).
		Filter(query.EqualsIfSet(func(d models.LegalDocument) enums.LegalDocumentType { return d.Type }, filter.Type)).
		Filter(query.EqualsIfSet(func(d models.LegalDocument) enums.LegalDocumentStatus { return d.Status }, filter.Status))
	if filter.ExpiringWithinDays != nil {
		days := time.Duration(*filter.ExpiringWithinDays) * 24 * time.Hour
		c = c.Filter(query.Within(s.now().UTC(), days, func(d models.LegalDocument) *time.Time { return d.ExpiresAt }))
	}
	matched := c.Apply(rows)

	res := &ListResult{Items: make([]DocumentDTO, 0, len(matched)), Total: len(matched)}
	for _, d := range query.Page(matched, filter.Offset, filter.Limit) {
		res.Items = append(res.Items, FromModel(d))
	}
	return res, nil
}

func (s *service) Verify(ctx context.Context, actor auth.Actor, id uuid.UUID) (*DocumentDTO, error) {
	if !actor.IsAdmin() {
		return nil, errAdminOnly
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "legal document")
	}
	now := s.now().UTC()
	if d.ExpiresAt != nil && !d.ExpiresAt.After(now) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "document has already expired")
	}
	return s.transition(ctx, d, enums.LegalDocumentStatusVerified, map[string]any{
		"verified_by":      actor.UserID,
		"verified_at":      now,
		"rejection_reason": nil,
	})
}

func (s *service) Reject(ctx context.Context, actor auth.Actor, id uuid.UUID, reason string) (*DocumentDTO, error) {
	if !actor.IsAdmin() {
		return nil, errAdminOnly
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, pkgerrors.Fields("invalid rejection", map[string]string{"reason": "required"})
	}
	d, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, repo.Translate(err, "legal document")
	}
	return s.transition(ctx, d, enums.LegalDocumentStatusRejected, map[string]any{
		"verified_by":      actor.UserID,
		"verified_at":      s.now().UTC(),
		"rejection_reason": reason,
	})
}

// transition moves a received document to a review outcome.
func (s *service) transition(ctx context.Context, d *models.LegalDocument, to enums.LegalDocumentStatus, fields map[string]any) (*DocumentDTO, error) {
	if d.Status != enums.LegalDocumentStatusReceived {
		return nil, stateConflict(d.Status, to)
	}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := s.repo.TransitionStatus(tx, d.ID, d.Status, to, fields)
		if err != nil {
			return repo.Translate(err, "legal document")
		}
		if n == 0 {
			return stateConflict(d.Status, to)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.FindByID(ctx, d.ID)
	if err != nil {
		return nil, repo.Translate(err, "legal document")
	}
	dto := FromModel(*updated)
	return &dto, nil
}

func stateConflict(from, to enums.LegalDocumentStatus) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, "document cannot move from "+string(from)+" to "+string(to)).
		WithDetails(map[string]string{"from": string(from), "to": string(to)})
}

// Summary assembles the exported legal summary for one store.
func (s *service) Summary(ctx context.Context, actor auth.Actor, storeID uuid.UUID) (*Summary, error) {
	if !actor.CanAccessStore(storeID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "store not found")
	}
	st, err := s.stores.FindByID(ctx, storeID)
	if err != nil {
		return nil, repo.Translate(err, "store")
	}
	rows, err := s.repo.ListByStore(ctx, storeID)
	if err != nil {
		return nil, repo.Translate(err, "legal documents")
	}

	out := &Summary{
		StoreID:     st.ID,
		StoreName:   st.Name,
		GeneratedAt: s.now().UTC(),
		Counts:      map[enums.LegalDocumentStatus]int{},
		Documents:   make([]DocumentDTO, 0, len(rows)),
	}
	for _, status := range enums.AllLegalDocumentStatuses() {
		out.Counts[status] = 0
	}
	held := map[enums.LegalDocumentType]bool{}
	for _, d := range rows {
		out.Counts[d.Status]++
		if d.Status == enums.LegalDocumentStatusVerified || d.Status == enums.LegalDocumentStatusReceived {
			held[d.Type] = true
		}
		out.Documents = append(out.Documents, FromModel(d))
	}
	out.Missing = []enums.LegalDocumentType{}
	for _, t := range enums.AllLegalDocumentTypes() {
		if !held[t] {
			out.Missing = append(out.Missing, t)
		}
	}
	return out, nil
}

// normalizeIP strips a port and returns the canonical address, or "" when
// the value is not an IP.
func normalizeIP(raw string) string {
	raw = strings.TrimSpace(raw)
	if host, _, err := net.SplitHostPort(raw); err == nil {
		raw = host
	}
	ip := net.ParseIP(raw)
	if ip == nil {
		return ""
	}
	return ip.String()
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	if t == "" {
		return nil
	}
	return &t
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
