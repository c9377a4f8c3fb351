package service

import (
	"context"
	"errors"
	"time"

	"github.com/commercekit/skusync/internal/allocation"
	"github.com/commercekit/skusync/internal/cache"
	"github.com/commercekit/skusync/internal/cms"
	"github.com/commercekit/skusync/internal/domain"
	"github.com/commercekit/skusync/internal/repository"
	"github.com/rs/zerolog/log"
)

var ErrSKUNotFound = errors.New("sku not found")

// LotPreview is a single lot line in a read-only allocation preview.
type LotPreview struct {
	ID           *int64 `json:"id"`
	Title        string `json:"title"`
	HeldQuantity int    `json:"heldQuantity"`
	Available    bool   `json:"available"`
}

// AllocationPreview is the outcome of planning one SKU without writing back.
type AllocationPreview struct {
	SKUCode       string       `json:"skuCode"`
	Inventory     int          `json:"inventory"`
	PendingDemand int          `json:"pendingDemand"`
	Lots          []LotPreview `json:"lots"`
	NextSellable  string       `json:"nextSellable"`
	Rest          int          `json:"rest"`
	Shortage      bool         `json:"shortage"`
}

type StatusService struct {
	runs   repository.RunRepository
	orders repository.OrderStatsRepository
	store  cms.Store
	cache  cache.RunCache
}

func NewStatusService(runs repository.RunRepository, orders repository.OrderStatsRepository, store cms.Store, cacheImpl cache.RunCache) *StatusService {
	if cacheImpl == nil {
		cacheImpl = cache.NewNoopRunCache()
	}
	return &StatusService{runs: runs, orders: orders, store: store, cache: cacheImpl}
}

func (s *StatusService) RecentRuns(ctx context.Context, limit int) ([]domain.AllocationRun, error) {
	if limit <= 0 {
		limit = 20
	}

	if runs, ok, err := s.cache.GetRuns(ctx, limit); err == nil && ok {
		return runs, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("status: cache get runs failed")
	}

	runs, err := s.runs.RecentRuns(ctx, limit)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetRuns(ctx, limit, runs); err != nil {
		log.Warn().Err(err).Msg("status: cache set runs failed")
	}

	return runs, nil
}

func (s *StatusService) LatestShortages(ctx context.Context) ([]domain.Shortage, error) {
	if shortages, ok, err := s.cache.GetShortages(ctx); err == nil && ok {
		return shortages, nil
	} else if err != nil {
		log.Warn().Err(err).Msg("status: cache get shortages failed")
	}

	shortages, err := s.runs.LatestShortages(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.cache.SetShortages(ctx, shortages); err != nil {
		log.Warn().Err(err).Msg("status: cache set shortages failed")
	}

	return shortages, nil
}

// PreviewAllocation plans one SKU against current order stats without
// touching the CMS or the run history.
func (s *StatusService) PreviewAllocation(ctx context.Context, code string) (*AllocationPreview, error) {
	skus, err := s.store.ListSKUs(ctx)
	if err != nil {
		return nil, err
	}

	var sku *domain.SKU
	for i := range skus {
		if skus[i].Code == code {
			sku = &skus[i]
			break
		}
	}
	if sku == nil {
		return nil, ErrSKUNotFound
	}

	pending, err := s.orders.PendingCounts(ctx, []string{code})
	if err != nil {
		return nil, err
	}

	since := sku.LastSyncedAt
	if since == nil {
		epoch := time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)
		since = &epoch
	}
	shipped, err := s.orders.ShippedCounts(ctx, map[string]time.Time{code: *since})
	if err != nil {
		return nil, err
	}

	inventory := sku.Inventory
	for _, stat := range shipped {
		if stat.Code == code {
			inventory -= stat.Count
		}
	}

	res := allocation.Plan(inventory, pending[code], *sku)

	preview := &AllocationPreview{
		SKUCode:       code,
		Inventory:     inventory,
		PendingDemand: pending[code],
		NextSellable:  res.NextSellable.Title,
		Rest:          res.Rest,
		Shortage:      res.Shortage(),
	}
	for _, lot := range res.Lots {
		preview.Lots = append(preview.Lots, LotPreview{
			ID:           lot.ID,
			Title:        lot.Title,
			HeldQuantity: lot.HeldQuantity,
			Available:    lot.Available,
		})
	}

	return preview, nil
}
