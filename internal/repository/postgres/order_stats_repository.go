// internal/repository/postgres/order_stats_repository.go
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/commercekit/skusync/internal/repository"
	"github.com/jmoiron/sqlx"
)

type orderStatsRepository struct {
	db *DB
}

func NewOrderStatsRepository(db *DB) repository.OrderStatsRepository {
	return &orderStatsRepository{db: db}
}

func (r *orderStatsRepository) PendingCounts(ctx context.Context, codes []string) (map[string]int, error) {
	if len(codes) == 0 {
		return map[string]int{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT code, COALESCE(SUM(quantity), 0) AS count
		FROM order_skus
		WHERE code IN (?)
		  AND fulfilled_at IS NULL
		  AND cancelled_at IS NULL
		  AND closed_at IS NULL
		GROUP BY code
	`, codes)
	if err != nil {
		return nil, fmt.Errorf("error building pending count query: %w", err)
	}
	query = r.db.Rebind(query)

	var rows []struct {
		Code  string `db:"code"`
		Count int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("error getting pending counts: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Code] = row.Count
	}

	return counts, nil
}

func (r *orderStatsRepository) ShippedCounts(ctx context.Context, since map[string]time.Time) ([]repository.ShippedStat, error) {
	if len(since) == 0 {
		return nil, nil
	}

	var (
		conditions []string
		args       []interface{}
		argCounter = 1
	)
	for code, watermark := range since {
		conditions = append(conditions,
			fmt.Sprintf("(code = $%d AND fulfilled_at > $%d)", argCounter, argCounter+1))
		args = append(args, code, watermark)
		argCounter += 2
	}

	query := fmt.Sprintf(`
		SELECT code, SUM(quantity) AS count, MAX(fulfilled_at) AS last_shipped_at
		FROM order_skus
		WHERE %s
		GROUP BY code
	`, strings.Join(conditions, " OR "))

	var stats []repository.ShippedStat
	if err := r.db.SelectContext(ctx, &stats, query, args...); err != nil {
		return nil, fmt.Errorf("error getting shipped counts: %w", err)
	}

	return stats, nil
}
