package service

import (
	"context"
	"encoding/json"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"
)

const notificationKind compliance.EntityKind = "notification"

type NotificationResponse struct {
	ID         string          `json:"id"`
	Kind       string          `json:"kind"`
	Title      string          `json:"title"`
	Payload    json.RawMessage `json:"payload" swaggertype:"object"`
	EntityKind string          `json:"entity_kind"`
	EntityID   *string         `json:"entity_id"`
	ReadAt     *string         `json:"read_at"`
	CreatedAt  string          `json:"created_at"`
}

type NotificationService interface {
	ListNotifications(ctx context.Context, scope compliance.Scope, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, scope compliance.Scope, id string) error
	MarkAllRead(ctx context.Context, scope compliance.Scope) (int64, error)
	CountUnread(ctx context.Context, scope compliance.Scope) (int64, error)
}

type notificationService struct {
	repo repository.NotificationRepository
	now  func() time.Time
}

func NewNotificationService(repo repository.NotificationRepository) NotificationService {
	return &notificationService{repo: repo, now: time.Now}
}

func (s *notificationService) ListNotifications(ctx context.Context, scope compliance.Scope, unreadOnly bool, page, limit int) ([]NotificationResponse, int64, error) {
	page, limit = pageDefaults(page, limit)
	notes, total, err := s.repo.List(ctx, scope.UserID, unreadOnly, page, limit)
	if err != nil {
		return nil, 0, &compliance.PersistenceError{Op: "list notifications", Err: err}
	}

	res := make([]NotificationResponse, 0, len(notes))
	for _, n := range notes {
		res = append(res, toNotificationResponse(n))
	}
	return res, total, nil
}

// MarkRead marks one of the actor's alerts read. Someone else's alert is
// reported as missing.
func (s *notificationService) MarkRead(ctx context.Context, scope compliance.Scope, id string) error {
	nid, err := parseID(notificationKind, id)
	if err != nil {
		return err
	}
	found, err := s.repo.MarkRead(ctx, scope.UserID, nid, s.now().UTC())
	if err != nil {
		return &compliance.PersistenceError{Op: "mark notification read", Err: err}
	}
	if !found {
		return &compliance.NotFoundError{Kind: notificationKind, ID: nid}
	}
	return nil
}

func (s *notificationService) MarkAllRead(ctx context.Context, scope compliance.Scope) (int64, error) {
	n, err := s.repo.MarkAllRead(ctx, scope.UserID, s.now().UTC())
	if err != nil {
		return 0, &compliance.PersistenceError{Op: "mark notifications read", Err: err}
	}
	return n, nil
}

func (s *notificationService) CountUnread(ctx context.Context, scope compliance.Scope) (int64, error) {
	n, err := s.repo.CountUnread(ctx, scope.UserID)
	if err != nil {
		return 0, &compliance.PersistenceError{Op: "count unread notifications", Err: err}
	}
	return n, nil
}

func toNotificationResponse(n model.Notification) NotificationResponse {
	res := NotificationResponse{
		ID:         n.ID.String(),
		Kind:       n.Kind,
		Title:      n.Title,
		EntityKind: n.EntityKind,
		ReadAt:     formatOptional(n.ReadAt),
		CreatedAt:  n.CreatedAt.Format(time.RFC3339),
	}
	if n.Payload != "" && json.Valid([]byte(n.Payload)) {
		res.Payload = json.RawMessage(n.Payload)
	}
	if n.EntityID != nil {
		s := n.EntityID.String()
		res.EntityID = &s
	}
	return res
}
