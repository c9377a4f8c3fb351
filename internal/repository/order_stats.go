// internal/repository/order_stats.go
package repository

import (
	"context"
	"time"

	"github.com/commercekit/skusync/internal/domain"
)

// ShippedStat aggregates fulfillments for one SKU since a watermark.
type ShippedStat struct {
	Code          string    `db:"code"`
	Count         int       `db:"count"`
	LastShippedAt time.Time `db:"last_shipped_at"`
}

// OrderStatsRepository exposes the two demand aggregates the allocator needs
// from the warehouse's denormalized order lines.
type OrderStatsRepository interface {
	// PendingCounts returns, per SKU code, the summed quantity of order
	// lines that are neither fulfilled, cancelled, nor closed. Codes with no
	// open lines are absent from the result.
	PendingCounts(ctx context.Context, codes []string) (map[string]int, error)

	// ShippedCounts returns, per SKU code, the summed quantity fulfilled
	// strictly after that code's watermark, together with the latest
	// fulfillment time. Codes with no new fulfillments are absent.
	ShippedCounts(ctx context.Context, since map[string]time.Time) ([]ShippedStat, error)
}

// RunRepository persists allocation batch runs and their shortages.
type RunRepository interface {
	CreateRun(ctx context.Context, run *domain.AllocationRun) error
	UpdateRun(ctx context.Context, run *domain.AllocationRun) error
	RecentRuns(ctx context.Context, limit int) ([]domain.AllocationRun, error)
	SaveShortages(ctx context.Context, runID int64, shortages []domain.Shortage) error
	LatestShortages(ctx context.Context) ([]domain.Shortage, error)
}
