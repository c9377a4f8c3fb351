// internal/repository/postgres/run_repository.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/commercekit/skusync/internal/domain"
	"github.com/commercekit/skusync/internal/repository"
)

type runRepository struct {
	db *DB
}

func NewRunRepository(db *DB) repository.RunRepository {
	return &runRepository{db: db}
}

func (r *runRepository) CreateRun(ctx context.Context, run *domain.AllocationRun) error {
	query := `
		INSERT INTO allocation_runs (status, total_skus, started_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`
	if err := r.db.QueryRowContext(ctx, query, run.Status, run.TotalSKUs, run.StartedAt).Scan(&run.ID); err != nil {
		return fmt.Errorf("failed to create allocation run: %w", err)
	}
	return nil
}

func (r *runRepository) UpdateRun(ctx context.Context, run *domain.AllocationRun) error {
	query := `
		UPDATE allocation_runs
		SET status = $1,
		    total_skus = $2,
		    updated_skus = $3,
		    shortage_skus = $4,
		    failed_skus = $5,
		    completed_at = $6,
		    error_message = $7
		WHERE id = $8
	`
	_, err := r.db.ExecContext(ctx, query,
		run.Status,
		run.TotalSKUs,
		run.UpdatedSKUs,
		run.ShortageSKUs,
		run.FailedSKUs,
		run.CompletedAt,
		run.ErrorMessage,
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update allocation run: %w", err)
	}
	return nil
}

func (r *runRepository) RecentRuns(ctx context.Context, limit int) ([]domain.AllocationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	query := `
		SELECT id, status, total_skus, updated_skus, shortage_skus, failed_skus,
		       started_at, completed_at, COALESCE(error_message, '') AS error_message
		FROM allocation_runs
		ORDER BY started_at DESC
		LIMIT $1
	`

	var runs []domain.AllocationRun
	if err := r.db.SelectContext(ctx, &runs, query, limit); err != nil {
		return nil, fmt.Errorf("error getting recent runs: %w", err)
	}

	return runs, nil
}

func (r *runRepository) SaveShortages(ctx context.Context, runID int64, shortages []domain.Shortage) error {
	if len(shortages) == 0 {
		return nil
	}

	return r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO allocation_shortages (run_id, sku_code, unmet_count, created_at)
			VALUES ($1, $2, $3, $4)
		`
		stmt, err := tx.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, shortage := range shortages {
			if _, err := stmt.ExecContext(ctx, runID, shortage.SKUCode, shortage.UnmetCount, time.Now()); err != nil {
				return fmt.Errorf("failed to insert shortage: %w", err)
			}
		}

		return nil
	})
}

func (r *runRepository) LatestShortages(ctx context.Context) ([]domain.Shortage, error) {
	query := `
		SELECT s.id, s.run_id, s.sku_code, s.unmet_count, s.created_at
		FROM allocation_shortages s
		WHERE s.run_id = (
			SELECT id FROM allocation_runs
			WHERE status = 'completed'
			ORDER BY started_at DESC
			LIMIT 1
		)
		ORDER BY s.unmet_count DESC
	`

	var shortages []domain.Shortage
	if err := r.db.SelectContext(ctx, &shortages, query); err != nil {
		return nil, fmt.Errorf("error getting latest shortages: %w", err)
	}

	return shortages, nil
}
