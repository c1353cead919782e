package service

import (
	"context"
	"errors"
	"time"

	"gstdesk/internal/compliance"
	"gstdesk/internal/logger"
	"gstdesk/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const sweepBatchSize = 100

// OverdueMarker is the part of ReturnService the sweep needs.
type OverdueMarker interface {
	MarkOverdue(ctx context.Context, id uuid.UUID, now time.Time) (bool, error)
}

// OverdueSweeper periodically moves Draft returns past their due date to
// Overdue through the engine, so alerts fire as for a manual change.
type OverdueSweeper struct {
	returns  repository.ReturnRepository
	marker   OverdueMarker
	interval time.Duration
	log      *logrus.Logger
	now      func() time.Time
}

func NewOverdueSweeper(returns repository.ReturnRepository, marker OverdueMarker, interval time.Duration, log *logrus.Logger) *OverdueSweeper {
	return &OverdueSweeper{returns: returns, marker: marker, interval: interval, log: log, now: time.Now}
}

// Start runs a sweep immediately and then on every tick until ctx is done.
func (s *OverdueSweeper) Start(ctx context.Context) {
	go func() {
		s.log.WithField("interval", s.interval.String()).Info("Overdue sweep started")
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			if _, err := s.Sweep(ctx); err != nil && ctx.Err() == nil {
				logger.LogError(s.log, "service", "OverdueSweeper.Start", "sweep failed", nil, err)
			}
			select {
			case <-ctx.Done():
				s.log.Info("Overdue sweep stopped")
				return
			case <-ticker.C:
			}
		}
	}()
}

// Sweep marks every eligible return and reports how many moved. Returns
// that changed concurrently are skipped; they are picked up next time if
// still eligible.
func (s *OverdueSweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now().UTC()
	marked := 0
	seen := make(map[uuid.UUID]bool)

	for {
		batch, err := s.returns.ListPastDue(ctx, now, sweepBatchSize)
		if err != nil {
			return marked, err
		}
		progressed := false
		for _, ret := range batch {
			if seen[ret.ID] {
				continue
			}
			seen[ret.ID] = true
			progressed = true

			ok, err := s.marker.MarkOverdue(ctx, ret.ID, now)
			switch {
			case errors.Is(err, compliance.ErrConflict), errors.Is(err, compliance.ErrNotFound):
				s.log.WithFields(logrus.Fields{"return_id": ret.ID, "error": err.Error()}).Debug("Overdue sweep skipped return")
			case err != nil:
				return marked, err
			case ok:
				marked++
			}
		}
		if !progressed || len(batch) < sweepBatchSize {
			break
		}
	}

	if marked > 0 {
		s.log.WithField("marked", marked).Info("Returns marked overdue")
	}
	return marked, nil
}
