package notification

import (
	"context"
	"fmt"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BadgeCounter reads the current inbox counters of a user.
type BadgeCounter interface {
	Badges(ctx context.Context, userID uuid.UUID) (Badges, error)
}

// Trigger turns committed transitions into alerts.
type Trigger struct {
	sink   Sink
	badges BadgeCounter
	log    *logrus.Logger
}

func NewTrigger(sink Sink, badges BadgeCounter, log *logrus.Logger) *Trigger {
	return &Trigger{sink: sink, badges: badges, log: log}
}

type rule struct {
	kind  string
	title string
}

// alertRule reports which alert, if any, a committed event deserves.
func alertRule(ev compliance.Event) (rule, bool) {
	if ev.Cascade || ev.From == ev.To {
		return rule{}, false
	}
	switch ev.Kind {
	case compliance.KindReturn:
		if ev.To == model.ReturnStatusOverdue {
			return rule{model.AlertReturnOverdue, "Return is overdue"}, true
		}
	case compliance.KindNotice:
		switch {
		case ev.To == model.NoticeStatusReceived && ev.Created:
			return rule{model.AlertNoticePending, "New notice received"}, true
		case ev.To == model.NoticeStatusReplied:
			return rule{model.AlertNoticeReplied, "Notice replied"}, true
		}
	case compliance.KindRegistration:
		switch ev.To {
		case model.RegistrationStatusApproved:
			return rule{model.AlertRegistrationApproved, "Registration approved"}, true
		case model.RegistrationStatusRejected:
			return rule{model.AlertRegistrationRejected, "Registration rejected"}, true
		}
	case compliance.KindPayment:
		if ev.To == model.PaymentStatusPaid {
			return rule{model.AlertPaymentReceived, "Payment received"}, true
		}
	}
	return rule{}, false
}

// Observe implements compliance.Trigger.
func (t *Trigger) Observe(ctx context.Context, ev compliance.Event) error {
	r, ok := alertRule(ev)
	if !ok || ev.UserID == uuid.Nil {
		return nil
	}

	payload := Payload{
		Title:      r.title,
		Message:    fmt.Sprintf("%s %s moved from %s to %s", ev.Kind, ev.ID, statusOrNew(ev.From), ev.To),
		EntityKind: string(ev.Kind),
		EntityID:   ev.ID,
		ClientID:   ev.ClientID,
		Status:     ev.To,
	}
	if t.badges != nil {
		b, err := t.badges.Badges(ctx, ev.UserID)
		if err != nil {
			t.log.WithFields(logrus.Fields{"module": "notification", "func": "Observe", "user_id": ev.UserID}).
				WithError(err).Warn("failed to read badge counts")
		} else {
			payload.Badges = &b
		}
	}

	return t.sink.CreateAlert(ctx, ev.UserID, r.kind, payload)
}

func statusOrNew(s string) string {
	if s == "" {
		return "new"
	}
	return s
}
