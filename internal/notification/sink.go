package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Badges are the inbox counters shown next to the alert list.
type Badges struct {
	OverdueReturns int64 `json:"overdue_returns"`
	PendingNotices int64 `json:"pending_notices"`
	UnreadAlerts   int64 `json:"unread_alerts"`
}

// Payload is the body of an alert, stored as JSON and pushed as-is.
type Payload struct {
	Title      string    `json:"title"`
	Message    string    `json:"message"`
	EntityKind string    `json:"entity_kind"`
	EntityID   uuid.UUID `json:"entity_id"`
	ClientID   uuid.UUID `json:"client_id"`
	Status     string    `json:"status"`
	Badges     *Badges   `json:"badges,omitempty"`
}

// Sink receives user-facing alerts.
type Sink interface {
	CreateAlert(ctx context.Context, userID uuid.UUID, kind string, payload Payload) error
}

// Publisher pushes a message to a connected user.
type Publisher interface {
	SendToUser(userID string, payload []byte) bool
}

// PushMessage is the websocket frame for a new alert.
type PushMessage struct {
	Type         string             `json:"type"`
	Notification model.Notification `json:"notification"`
	Payload      Payload            `json:"payload"`
}

type storeSink struct {
	repo repository.NotificationRepository
	pub  Publisher
	log  *logrus.Logger
}

// NewSink persists alerts and pushes them to pub. pub may be nil.
func NewSink(repo repository.NotificationRepository, pub Publisher, log *logrus.Logger) Sink {
	return &storeSink{repo: repo, pub: pub, log: log}
}

func (s *storeSink) CreateAlert(ctx context.Context, userID uuid.UUID, kind string, payload Payload) error {
	if payload.Badges != nil {
		// The alert being created is unread too.
		payload.Badges.UnreadAlerts++
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode alert payload: %w", err)
	}

	entityID := payload.EntityID
	n := &model.Notification{
		UserID:     userID,
		Kind:       kind,
		Title:      payload.Title,
		Payload:    string(body),
		EntityKind: payload.EntityKind,
		EntityID:   &entityID,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("failed to store alert: %w", err)
	}

	if s.pub == nil {
		return nil
	}
	msg, err := json.Marshal(PushMessage{Type: "notification", Notification: *n, Payload: payload})
	if err != nil {
		return fmt.Errorf("failed to encode push message: %w", err)
	}
	if !s.pub.SendToUser(userID.String(), msg) {
		s.log.WithFields(logrus.Fields{"module": "notification", "func": "CreateAlert", "user_id": userID}).
			Warn("push queue full, alert stored but not pushed")
	}
	return nil
}
