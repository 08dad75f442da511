package notifications

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/producehub/producehub-backend/pkg/auth"
	"github.com/producehub/producehub-backend/pkg/db/models"
	"github.com/producehub/producehub-backend/pkg/enums"
	pkgerrors "github.com/producehub/producehub-backend/pkg/errors"
	"github.com/producehub/producehub-backend/pkg/pagination"
)

// Service defines notification list/read operations.
type Service interface {
	List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error)
	MarkRead(ctx context.Context, actor auth.Actor, notificationID uuid.UUID) error
	MarkAllRead(ctx context.Context, actor auth.Actor) (int64, error)
	UnreadCount(ctx context.Context, actor auth.Actor) (int64, error)
	Notify(ctx context.Context, tx *gorm.DB, input NotifyInput) (*Item, error)
}

type service struct {
	repo Repository
	now  func() time.Time
}

// ListParams configures pagination for notifications.
type ListParams struct {
	Limit      int
	Cursor     string
	UnreadOnly bool
}

// Item is a notification with its presentation metadata.
type Item struct {
	ID        uuid.UUID              `json:"id"`
	Type      enums.NotificationType `json:"type"`
	Icon      string                 `json:"icon"`
	Color     string                 `json:"color"`
	Label     string                 `json:"label"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Link      *string                `json:"link"`
	Read      bool                   `json:"read"`
	ReadAt    *time.Time             `json:"read_at"`
	CreatedAt time.Time              `json:"created_at"`
}

func ItemFromModel(n models.Notification) Item {
	display := n.Type.Display()
	return Item{
		ID:        n.ID,
		Type:      n.Type,
		Icon:      display.Icon,
		Color:     display.Color,
		Label:     display.Label,
		Title:     n.Title,
		Message:   n.Message,
		Link:      n.Link,
		Read:      n.ReadAt != nil,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

// ListResult wraps returned notifications and the cursor for the next page.
type ListResult struct {
	Items  []Item `json:"items"`
	Cursor string `json:"cursor"`
}

// NotifyInput creates one notification. StoreID nil targets the admin inbox.
type NotifyInput struct {
	StoreID *uuid.UUID
	Type    enums.NotificationType
	Title   string
	Message string
	Link    string
	EventID *uuid.UUID
}

// NewService wires notifications dependencies.
func NewService(repo Repository, now func() time.Time) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "notifications repository required")
	}
	if now == nil {
		now = time.Now
	}
	return &service{repo: repo, now: now}, nil
}

// recipient resolves the inbox an actor reads.
func recipient(actor auth.Actor) (*uuid.UUID, error) {
	switch {
	case actor.IsAdmin():
		return nil, nil
	case actor.IsStore():
		id := *actor.StoreID
		return &id, nil
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "no notification inbox for this account")
	}
}

func (s *service) List(ctx context.Context, actor auth.Actor, params ListParams) (*ListResult, error) {
	inbox, err := recipient(actor)
	if err != nil {
		return nil, err
	}

	query := listNotificationsParams{
		Recipient:  inbox,
		Limit:      params.Limit,
		UnreadOnly: params.UnreadOnly,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list notifications")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	items := make([]Item, 0, len(rows))
	for _, n := range rows {
		items = append(items, ItemFromModel(n))
	}
	return &ListResult{Items: items, Cursor: cursor}, nil
}

func (s *service) MarkRead(ctx context.Context, actor auth.Actor, notificationID uuid.UUID) error {
	inbox, err := recipient(actor)
	if err != nil {
		return err
	}
	if notificationID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id required")
	}

	result, err := s.repo.MarkRead(ctx, inbox, notificationID, s.now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notification read")
	}
	if !result.Found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found")
	}
	return nil
}

func (s *service) MarkAllRead(ctx context.Context, actor auth.Actor) (int64, error) {
	inbox, err := recipient(actor)
	if err != nil {
		return 0, err
	}
	count, err := s.repo.MarkAllRead(ctx, inbox, s.now().UTC())
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark notifications read")
	}
	return count, nil
}

func (s *service) UnreadCount(ctx context.Context, actor auth.Actor) (int64, error) {
	inbox, err := recipient(actor)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.UnreadCount(ctx, inbox)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count unread notifications")
	}
	return n, nil
}

// Notify stores a notification, inside tx when given. A notification for
// an event already delivered to the same inbox is not duplicated.
func (s *service) Notify(ctx context.Context, tx *gorm.DB, input NotifyInput) (*Item, error) {
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid notification type")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = input.Type.Display().Label
	}
	repo := s.repo.WithTx(tx)
	if input.EventID != nil {
		exists, err := repo.ExistsForEvent(ctx, *input.EventID, input.StoreID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check notification")
		}
		if exists {
			return nil, nil
		}
	}
	n := &models.Notification{
		StoreID:   input.StoreID,
		Type:      input.Type,
		Title:     title,
		Message:   strings.TrimSpace(input.Message),
		EventID:   input.EventID,
		CreatedAt: s.now().UTC(),
	}
	if link := strings.TrimSpace(input.Link); link != "" {
		n.Link = &link
	}
	if err := repo.Create(ctx, n); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create notification")
	}
	item := ItemFromModel(*n)
	return &item, nil
}
