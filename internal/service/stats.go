package service

import (
	"context"
	"fmt"
	"time"

	"ppob-service/internal/models"
)

// StatsService derives the admin dashboard aggregates from the
// transaction set on demand.
type StatsService struct {
	transactions TransactionStore
}

// NewStatsService creates a stats service
func NewStatsService(transactions TransactionStore) *StatsService {
	return &StatsService{transactions: transactions}
}

// ComputeDailyStats aggregates the transactions created on the given
// local-time date. Revenue counts successful transactions only; pending
// and paid both count as in-flight.
func (s *StatsService) ComputeDailyStats(ctx context.Context, day time.Time) (*models.DailyStats, error) {
	from := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	to := from.Add(24 * time.Hour)

	transactions, err := s.transactions.GetTransactionsCreatedBetween(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load transactions: %w", err)
	}

	stats := &models.DailyStats{Date: from.Format("2006-01-02")}
	for _, tx := range transactions {
		stats.Count++
		switch tx.Status {
		case models.StatusSuccess:
			stats.Revenue += tx.TotalAmount
		case models.StatusPending, models.StatusPaid:
			stats.PendingCount++
		case models.StatusFailed:
			stats.FailedCount++
		}
	}
	return stats, nil
}
