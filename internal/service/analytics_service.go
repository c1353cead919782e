package service

import (
	"context"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/model"
	"gstdesk/internal/repository"

	"golang.org/x/sync/errgroup"
)

const upcomingReturnsLimit = 5

type AnalyticsService interface {
	GetDashboard(ctx context.Context, scope compliance.Scope) (model.DashboardStats, error)
}

type analyticsService struct {
	stats repository.StatisticsRepository
	notes repository.NotificationRepository
	now   func() time.Time
}

func NewAnalyticsService(stats repository.StatisticsRepository, notes repository.NotificationRepository) AnalyticsService {
	return &analyticsService{stats: stats, notes: notes, now: time.Now}
}

// GetDashboard gathers the actor's compliance counters. The queries are
// independent and run concurrently.
func (s *analyticsService) GetDashboard(ctx context.Context, scope compliance.Scope) (model.DashboardStats, error) {
	var out model.DashboardStats
	userID := scope.UserID

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		out.ClientsByStatus, err = s.stats.CountClientsByStatus(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.ReturnsByStatus, err = s.stats.CountReturnsByStatus(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.PendingNotices, err = s.stats.CountPendingNotices(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.PendingPayments, err = s.stats.CountPendingPayments(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.TotalPaid, err = s.stats.SumPaid(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.UnreadAlerts, err = s.notes.CountUnread(gctx, userID)
		return err
	})
	g.Go(func() (err error) {
		out.UpcomingReturns, err = s.stats.UpcomingReturns(gctx, userID, s.now().UTC(), upcomingReturnsLimit)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.DashboardStats{}, &compliance.PersistenceError{Op: "load dashboard", Err: err}
	}

	for _, n := range out.ClientsByStatus {
		out.TotalClients += n
	}
	out.OverdueReturns = out.ReturnsByStatus[model.ReturnStatusOverdue]
	if out.UpcomingReturns == nil {
		out.UpcomingReturns = []model.UpcomingReturn{}
	}
	return out, nil
}
