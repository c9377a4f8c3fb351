// internal/syncer/syncer.go
package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/commercekit/skusync/internal/allocation"
	"github.com/commercekit/skusync/internal/cms"
	"github.com/commercekit/skusync/internal/domain"
	"github.com/commercekit/skusync/internal/notify"
	"github.com/commercekit/skusync/internal/repository"
	"github.com/commercekit/skusync/internal/storage"
)

// Fulfillments before this watermark are considered already accounted for on
// SKUs that have never been synced.
var defaultWatermark = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

// Config tunes one Syncer instance.
type Config struct {
	// Concurrency bounds how many SKUs are allocated in parallel.
	Concurrency int
	// ReportPrefix is the object-key prefix for archived run reports.
	ReportPrefix string
}

// Syncer runs the allocation batch: it derives demand figures from the
// warehouse, runs the allocation engine per SKU, writes the recommended
// state back to the CMS, and raises alerts for anomalies.
type Syncer struct {
	store    cms.Store
	orders   repository.OrderStatsRepository
	runs     repository.RunRepository
	notifier notify.Notifier
	reports  storage.ReportStore
	cfg      Config
}

// NewSyncer wires a Syncer. notifier may be nil (events are dropped) and
// reports may be nil (report archiving disabled).
func NewSyncer(
	store cms.Store,
	orders repository.OrderStatsRepository,
	runs repository.RunRepository,
	notifier notify.Notifier,
	reports storage.ReportStore,
	cfg Config,
) *Syncer {
	if notifier == nil {
		notifier = notify.NewNoopNotifier()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 4
	}
	if cfg.ReportPrefix == "" {
		cfg.ReportPrefix = "allocation-runs"
	}
	return &Syncer{
		store:    store,
		orders:   orders,
		runs:     runs,
		notifier: notifier,
		reports:  reports,
		cfg:      cfg,
	}
}

// SyncAll processes every SKU once. A single SKU failing is alerted and
// counted but does not abort the batch; the returned error covers systemic
// failures only (listing SKUs, querying the warehouse, run bookkeeping).
func (s *Syncer) SyncAll(ctx context.Context) (*domain.AllocationRun, error) {
	skus, err := s.store.ListSKUs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list skus: %w", err)
	}

	run := &domain.AllocationRun{
		Status:    domain.RunStatusProcessing,
		TotalSKUs: len(skus),
		StartedAt: time.Now(),
	}
	if err := s.runs.CreateRun(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	pending, shipped, err := s.demandFigures(ctx, skus)
	if err != nil {
		s.failRun(ctx, run, err)
		return run, err
	}

	var (
		mu        sync.Mutex
		shortages []domain.Shortage
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for _, sku := range skus {
		sku := sku
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			updated, rest, err := s.processSKU(gctx, sku, pending[sku.Code], shipped[sku.Code])

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				run.FailedSKUs++
				log.Error().Err(err).Str("sku", sku.Code).Msg("sku allocation failed")
				if nerr := s.notifier.SKUFailed(gctx, sku.Code, err); nerr != nil {
					log.Warn().Err(nerr).Str("sku", sku.Code).Msg("failed to send failure alert")
				}
			case updated:
				run.UpdatedSKUs++
			}
			if rest > 0 {
				run.ShortageSKUs++
				shortages = append(shortages, domain.Shortage{
					RunID:      run.ID,
					SKUCode:    sku.Code,
					UnmetCount: rest,
				})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.failRun(ctx, run, err)
		return run, err
	}

	now := time.Now()
	run.Status = domain.RunStatusCompleted
	run.CompletedAt = &now
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		return run, fmt.Errorf("failed to complete run: %w", err)
	}
	if err := s.runs.SaveShortages(ctx, run.ID, shortages); err != nil {
		return run, fmt.Errorf("failed to save shortages: %w", err)
	}

	s.archiveReport(ctx, run, shortages)

	log.Info().
		Int("total", run.TotalSKUs).
		Int("updated", run.UpdatedSKUs).
		Int("shortages", run.ShortageSKUs).
		Int("failed", run.FailedSKUs).
		Msg("allocation batch completed")

	return run, nil
}

// demandFigures loads the two warehouse aggregates for all SKUs up front.
func (s *Syncer) demandFigures(ctx context.Context, skus []domain.SKU) (map[string]int, map[string]repository.ShippedStat, error) {
	codes := make([]string, 0, len(skus))
	since := make(map[string]time.Time, len(skus))
	for _, sku := range skus {
		codes = append(codes, sku.Code)
		watermark := defaultWatermark
		if sku.LastSyncedAt != nil {
			watermark = *sku.LastSyncedAt
		}
		since[sku.Code] = watermark
	}

	pending, err := s.orders.PendingCounts(ctx, codes)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get pending counts: %w", err)
	}

	stats, err := s.orders.ShippedCounts(ctx, since)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get shipped counts: %w", err)
	}
	shipped := make(map[string]repository.ShippedStat, len(stats))
	for _, stat := range stats {
		shipped[stat.Code] = stat
	}

	return pending, shipped, nil
}

// processSKU allocates one SKU and applies the write-back when anything
// changed. It returns whether a write-back happened and the unmet demand.
func (s *Syncer) processSKU(ctx context.Context, sku domain.SKU, pending int, shipped repository.ShippedStat) (bool, int, error) {
	inventory := sku.Inventory - shipped.Count

	res := allocation.Plan(inventory, pending, sku)

	lastSynced := sku.LastSyncedAt
	if shipped.Count > 0 {
		t := shipped.LastShippedAt
		lastSynced = &t
	}

	if inventory < 0 {
		if err := s.notifier.NegativeInventory(ctx, sku.Code, inventory); err != nil {
			log.Warn().Err(err).Str("sku", sku.Code).Msg("failed to send negative inventory alert")
		}
	}

	if !needsUpdate(sku, inventory, pending, lastSynced, res) {
		return false, res.Rest, nil
	}

	for _, lot := range res.Updatable {
		if err := s.store.UpdateLotHeldQuantity(ctx, *lot.ID, lot.HeldQuantity); err != nil {
			return false, res.Rest, fmt.Errorf("failed to update lot %d: %w", *lot.ID, err)
		}
	}
	if err := s.store.UpdateSKU(ctx, sku.ID, cms.SKUPatch{
		Inventory:           inventory,
		UnshippedOrderCount: pending,
		LastSyncedAt:        lastSynced,
		CurrentLotID:        res.NextSellable.ID,
	}); err != nil {
		return false, res.Rest, fmt.Errorf("failed to update sku: %w", err)
	}

	if res.Shortage() {
		if err := s.notifier.ShortageDetected(ctx, notify.ShortageAlert{
			SKUCode:    sku.Code,
			SKUName:    sku.Name,
			UnmetCount: res.Rest,
		}); err != nil {
			log.Warn().Err(err).Str("sku", sku.Code).Msg("failed to send shortage alert")
		}
	}
	if !sameLot(sku.CurrentLotID, res.NextSellable.ID) {
		if err := s.notifier.SellableLotChanged(ctx, notify.LotShiftAlert{
			SKUCode:     sku.Code,
			SKUName:     sku.Name,
			PreviousLot: lotTitle(sku, sku.CurrentLotID),
			NextLot:     res.NextSellable.Title,
		}); err != nil {
			log.Warn().Err(err).Str("sku", sku.Code).Msg("failed to send lot shift alert")
		}
	}

	return true, res.Rest, nil
}

// needsUpdate decides whether a write-back is necessary by comparing the
// persisted SKU state against the freshly computed values.
func needsUpdate(sku domain.SKU, inventory, pending int, lastSynced *time.Time, res allocation.Result) bool {
	if inventory != sku.Inventory || pending != sku.UnshippedOrderCount {
		return true
	}
	if !sameTime(lastSynced, sku.LastSyncedAt) {
		return true
	}
	if !sameLot(sku.CurrentLotID, res.NextSellable.ID) {
		return true
	}
	return len(res.Updatable) > 0
}

func sameLot(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

// lotTitle resolves the human-readable label for a persisted lot pointer.
func lotTitle(sku domain.SKU, id *int64) string {
	if id == nil {
		return allocation.RealInventoryTitle
	}
	for _, lot := range sku.Lots {
		if lot.ID == *id {
			return lot.Title
		}
	}
	return fmt.Sprintf("lot %d", *id)
}

func (s *Syncer) failRun(ctx context.Context, run *domain.AllocationRun, cause error) {
	now := time.Now()
	run.Status = domain.RunStatusFailed
	run.ErrorMessage = cause.Error()
	run.CompletedAt = &now
	if err := s.runs.UpdateRun(ctx, run); err != nil {
		log.Error().Err(err).Int64("run", run.ID).Msg("failed to mark run as failed")
	}
}

type runReport struct {
	Run         *domain.AllocationRun `json:"run"`
	Shortages   []domain.Shortage     `json:"shortages"`
	GeneratedAt time.Time             `json:"generated_at"`
}

func (s *Syncer) archiveReport(ctx context.Context, run *domain.AllocationRun, shortages []domain.Shortage) {
	if s.reports == nil {
		return
	}

	data, err := json.Marshal(runReport{Run: run, Shortages: shortages, GeneratedAt: time.Now()})
	if err != nil {
		log.Warn().Err(err).Int64("run", run.ID).Msg("failed to marshal run report")
		return
	}

	key := fmt.Sprintf("%s/%s/run-%d.json", s.cfg.ReportPrefix, run.StartedAt.Format("2006/01/02"), run.ID)
	if err := s.reports.UploadReport(ctx, key, data); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to archive run report")
	}
}
