package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kendall-kelly/restaurant-pos-api/metrics"
	"github.com/kendall-kelly/restaurant-pos-api/models"
	"github.com/kendall-kelly/restaurant-pos-api/repository"
)

// statsBackfillDays is how many completed days each run re-summarizes
const statsBackfillDays = 7

// HousekeepingResult describes one housekeeping pass
type HousekeepingResult struct {
	Stats        []models.DailyStat `json:"stats"`
	OrdersPruned int64              `json:"ordersPruned"`
	Cutoff       time.Time          `json:"cutoff"`
}

// Housekeeper rolls finished days up into daily_stats and prunes orders past
// the retention window
type Housekeeper struct {
	store     repository.StatsStore
	retention time.Duration
	hour      int
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewHousekeeper creates a housekeeper keeping retentionDays of orders and
// running daily at hour (local time)
func NewHousekeeper(store repository.StatsStore, retentionDays, hour int, logger *slog.Logger, m *metrics.Metrics) *Housekeeper {
	return &Housekeeper{
		store:     store,
		retention: time.Duration(retentionDays) * 24 * time.Hour,
		hour:      hour,
		logger:    logger.With("component", "housekeeping"),
		metrics:   m,
		now:       time.Now,
	}
}

// RunOnce summarizes the last completed days and then deletes old orders.
// Stats are written before pruning so no order is deleted unaccounted. A day
// that began before the cutoff may already be partly pruned, so its saved row
// is left alone.
func (h *Housekeeper) RunOnce(ctx context.Context, now time.Time) (*HousekeepingResult, error) {
	today := startOfDayUTC(now)
	result := &HousekeepingResult{
		Stats:  make([]models.DailyStat, 0, statsBackfillDays),
		Cutoff: now.UTC().Add(-h.retention),
	}

	for i := 1; i <= statsBackfillDays; i++ {
		from := today.AddDate(0, 0, -i)
		if from.Before(result.Cutoff) {
			break
		}
		stat, err := h.store.SummarizeOrders(ctx, from, from.AddDate(0, 0, 1))
		if err != nil {
			return nil, fmt.Errorf("failed to summarize %s: %w", from.Format(models.DateLayout), err)
		}
		if err := h.store.SaveDailyStat(ctx, &stat); err != nil {
			return nil, fmt.Errorf("failed to save stats for %s: %w", stat.Date, err)
		}
		result.Stats = append(result.Stats, stat)
	}

	pruned, err := h.store.DeleteOrdersBefore(ctx, result.Cutoff)
	if err != nil {
		return nil, fmt.Errorf("failed to prune orders: %w", err)
	}
	result.OrdersPruned = pruned
	h.metrics.AddOrdersPruned(pruned)

	h.logger.Info("housekeeping complete",
		"days_summarized", len(result.Stats),
		"orders_pruned", pruned,
		"cutoff", result.Cutoff)
	return result, nil
}

// Run blocks until ctx is cancelled, running RunOnce every day at the
// configured hour. Failures are logged and retried on the next day.
func (h *Housekeeper) Run(ctx context.Context) error {
	for {
		next := nextRun(h.now(), h.hour)
		h.logger.Info("next housekeeping run scheduled", "at", next)

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		if _, err := h.RunOnce(ctx, h.now()); err != nil {
			h.logger.Error("housekeeping failed", "error", err)
		}
	}
}

// nextRun returns the first time strictly after now whose local hour is hour
func nextRun(now time.Time, hour int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

func startOfDayUTC(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
