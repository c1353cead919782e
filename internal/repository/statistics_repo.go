package repository

import (
	"context"
	"fmt"
	"time"

	"gstdesk/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type StatisticsRepository interface {
	CountClientsByStatus(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
	CountReturnsByStatus(ctx context.Context, userID uuid.UUID) (map[string]int64, error)
	CountPendingNotices(ctx context.Context, userID uuid.UUID) (int64, error)
	CountPendingPayments(ctx context.Context, userID uuid.UUID) (int64, error)
	SumPaid(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
	UpcomingReturns(ctx context.Context, userID uuid.UUID, from time.Time, limit int) ([]model.UpcomingReturn, error)
}

type statisticsRepository struct {
	db *gorm.DB
}

func NewStatisticsRepository(db *gorm.DB) StatisticsRepository {
	return &statisticsRepository{db: db}
}

type statusCount struct {
	Status string
	Count  int64
}

func toStatusMap(rows []statusCount) map[string]int64 {
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Count
	}
	return out
}

func (r *statisticsRepository) CountClientsByStatus(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	var rows []statusCount
	if err := GetDB(ctx, r.db).Table("clients").
		Select("gst_status as status, COUNT(*) as count").
		Where("user_id = ?", userID).
		Group("gst_status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count clients: %w", err)
	}
	return toStatusMap(rows), nil
}

func (r *statisticsRepository) CountReturnsByStatus(ctx context.Context, userID uuid.UUID) (map[string]int64, error) {
	var rows []statusCount
	if err := GetDB(ctx, r.db).Table("gst_returns").
		Select("gst_returns.status as status, COUNT(*) as count").
		Joins("JOIN clients ON clients.id = gst_returns.client_id").
		Where("clients.user_id = ?", userID).
		Group("gst_returns.status").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count returns: %w", err)
	}
	return toStatusMap(rows), nil
}

func (r *statisticsRepository) CountPendingNotices(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Table("notices").
		Joins("JOIN clients ON clients.id = notices.client_id").
		Where("clients.user_id = ? AND notices.status IN ?", userID,
			[]string{model.NoticeStatusReceived, model.NoticeStatusInProgress}).
		Count(&count).Error
	return count, err
}

func (r *statisticsRepository) CountPendingPayments(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Table("gst_payments").
		Joins("JOIN clients ON clients.id = gst_payments.client_id").
		Where("clients.user_id = ? AND gst_payments.status IN ?", userID,
			[]string{model.PaymentStatusDraft, model.PaymentStatusSent}).
		Count(&count).Error
	return count, err
}

func (r *statisticsRepository) SumPaid(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var result struct {
		Value string
	}
	if err := GetDB(ctx, r.db).Table("gst_payments").
		Select("COALESCE(CAST(SUM(gst_payments.amount) AS TEXT), '0') as value").
		Joins("JOIN clients ON clients.id = gst_payments.client_id").
		Where("clients.user_id = ? AND gst_payments.status = ?", userID, model.PaymentStatusPaid).
		Scan(&result).Error; err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum payments: %w", err)
	}
	if result.Value == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(result.Value)
}

func (r *statisticsRepository) UpcomingReturns(ctx context.Context, userID uuid.UUID, from time.Time, limit int) ([]model.UpcomingReturn, error) {
	var rows []struct {
		ReturnID   uuid.UUID
		ClientID   uuid.UUID
		ClientName string
		ReturnType string
		Period     string
		DueDate    time.Time
	}
	if err := GetDB(ctx, r.db).Table("gst_returns").
		Select("gst_returns.id as return_id, clients.id as client_id, clients.name as client_name, gst_returns.return_type, gst_returns.period, gst_returns.due_date").
		Joins("JOIN clients ON clients.id = gst_returns.client_id").
		Where("clients.user_id = ? AND gst_returns.status = ? AND gst_returns.due_date >= ?", userID, model.ReturnStatusDraft, from).
		Order("gst_returns.due_date ASC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query upcoming returns: %w", err)
	}

	out := make([]model.UpcomingReturn, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.UpcomingReturn{
			ReturnID:   row.ReturnID.String(),
			ClientID:   row.ClientID.String(),
			ClientName: row.ClientName,
			ReturnType: row.ReturnType,
			Period:     row.Period,
			DueDate:    row.DueDate.Format("2006-01-02"),
		})
	}
	return out, nil
}
