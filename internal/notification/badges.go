package notification

import (
	"context"

	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
)

type repoBadges struct {
	stats repository.StatisticsRepository
	notes repository.NotificationRepository
}

// NewBadgeCounter reads badge counters straight from the store.
func NewBadgeCounter(stats repository.StatisticsRepository, notes repository.NotificationRepository) BadgeCounter {
	return &repoBadges{stats: stats, notes: notes}
}

func (b *repoBadges) Badges(ctx context.Context, userID uuid.UUID) (Badges, error) {
	returns, err := b.stats.CountReturnsByStatus(ctx, userID)
	if err != nil {
		return Badges{}, err
	}
	pending, err := b.stats.CountPendingNotices(ctx, userID)
	if err != nil {
		return Badges{}, err
	}
	unread, err := b.notes.CountUnread(ctx, userID)
	if err != nil {
		return Badges{}, err
	}
	return Badges{
		OverdueReturns: returns[model.ReturnStatusOverdue],
		PendingNotices: pending,
		UnreadAlerts:   unread,
	}, nil
}
