package syncer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/commercekit/skusync/internal/cms"
	"github.com/commercekit/skusync/internal/domain"
	"github.com/commercekit/skusync/internal/notify"
	"github.com/commercekit/skusync/internal/repository"
)

type fakeStore struct {
	mu         sync.Mutex
	skus       []domain.SKU
	patches    map[string]cms.SKUPatch
	lotUpdates map[int64]int
	updateErr  map[string]error
}

func newFakeStore(skus ...domain.SKU) *fakeStore {
	return &fakeStore{
		skus:       skus,
		patches:    map[string]cms.SKUPatch{},
		lotUpdates: map[int64]int{},
		updateErr:  map[string]error{},
	}
}

func (f *fakeStore) ListSKUs(ctx context.Context) ([]domain.SKU, error) {
	return f.skus, nil
}

func (f *fakeStore) UpdateSKU(ctx context.Context, id string, patch cms.SKUPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.updateErr[id]; err != nil {
		return err
	}
	f.patches[id] = patch
	return nil
}

func (f *fakeStore) UpdateLotHeldQuantity(ctx context.Context, lotID int64, held int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lotUpdates[lotID] = held
	return nil
}

type fakeOrders struct {
	pending map[string]int
	shipped []repository.ShippedStat
}

func (f *fakeOrders) PendingCounts(ctx context.Context, codes []string) (map[string]int, error) {
	return f.pending, nil
}

func (f *fakeOrders) ShippedCounts(ctx context.Context, since map[string]time.Time) ([]repository.ShippedStat, error) {
	return f.shipped, nil
}

type fakeRuns struct {
	mu        sync.Mutex
	runs      []*domain.AllocationRun
	shortages []domain.Shortage
}

func (f *fakeRuns) CreateRun(ctx context.Context, run *domain.AllocationRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run.ID = int64(len(f.runs) + 1)
	f.runs = append(f.runs, run)
	return nil
}

func (f *fakeRuns) UpdateRun(ctx context.Context, run *domain.AllocationRun) error { return nil }

func (f *fakeRuns) RecentRuns(ctx context.Context, limit int) ([]domain.AllocationRun, error) {
	return nil, nil
}

func (f *fakeRuns) SaveShortages(ctx context.Context, runID int64, shortages []domain.Shortage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shortages = append(f.shortages, shortages...)
	return nil
}

func (f *fakeRuns) LatestShortages(ctx context.Context) ([]domain.Shortage, error) {
	return nil, nil
}

type recordingNotifier struct {
	mu        sync.Mutex
	shortages []notify.ShortageAlert
	shifts    []notify.LotShiftAlert
	negatives []string
	failures  []string
}

func (r *recordingNotifier) ShortageDetected(ctx context.Context, a notify.ShortageAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shortages = append(r.shortages, a)
	return nil
}

func (r *recordingNotifier) SellableLotChanged(ctx context.Context, a notify.LotShiftAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shifts = append(r.shifts, a)
	return nil
}

func (r *recordingNotifier) NegativeInventory(ctx context.Context, code string, inventory int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.negatives = append(r.negatives, code)
	return nil
}

func (r *recordingNotifier) SKUFailed(ctx context.Context, code string, cause error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, code)
	return nil
}

type fakeReports struct {
	mu   sync.Mutex
	keys []string
}

func (f *fakeReports) UploadReport(ctx context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}

func twoLotSKU(code string) domain.SKU {
	return domain.SKU{
		ID:          "id-" + code,
		Code:        code,
		Name:        "Product " + code,
		Inventory:   100,
		StockBuffer: 5,
		Lots: []domain.PurchaseLot{
			{ID: 1, Title: "PO-1", Quantity: 100},
			{ID: 2, Title: "PO-2", Quantity: 100},
		},
	}
}

func TestSyncAll_NoChangesSkipsWriteBack(t *testing.T) {
	synced := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	sku := twoLotSKU("SKU-A")
	sku.UnshippedOrderCount = 10
	sku.LastSyncedAt = &synced

	store := newFakeStore(sku)
	runs := &fakeRuns{}
	notifier := &recordingNotifier{}
	s := NewSyncer(store, &fakeOrders{pending: map[string]int{"SKU-A": 10}}, runs, notifier, nil, Config{})

	run, err := s.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Empty(t, store.patches)
	assert.Empty(t, store.lotUpdates)
	assert.Equal(t, 0, run.UpdatedSKUs)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Empty(t, notifier.shifts)
}

func TestSyncAll_ShippedOrdersReduceInventory(t *testing.T) {
	synced := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)
	shippedAt := time.Date(2024, 7, 2, 9, 30, 0, 0, time.UTC)
	sku := twoLotSKU("SKU-A")
	sku.UnshippedOrderCount = 10
	sku.LastSyncedAt = &synced

	store := newFakeStore(sku)
	orders := &fakeOrders{
		pending: map[string]int{"SKU-A": 10},
		shipped: []repository.ShippedStat{{Code: "SKU-A", Count: 30, LastShippedAt: shippedAt}},
	}
	s := NewSyncer(store, orders, &fakeRuns{}, &recordingNotifier{}, nil, Config{})

	run, err := s.SyncAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, run.UpdatedSKUs)

	patch, ok := store.patches["id-SKU-A"]
	require.True(t, ok)
	assert.Equal(t, 70, patch.Inventory)
	assert.Equal(t, 10, patch.UnshippedOrderCount)
	require.NotNil(t, patch.LastSyncedAt)
	assert.True(t, patch.LastSyncedAt.Equal(shippedAt))
	assert.Nil(t, patch.CurrentLotID)
}

func TestSyncAll_ShortageIsRecordedAndAlerted(t *testing.T) {
	sku := twoLotSKU("SKU-A")
	sku.Inventory = 80
	sku.FaultyRate = 0.1

	store := newFakeStore(sku)
	orders := &fakeOrders{pending: map[string]int{"SKU-A": 400}}
	runs := &fakeRuns{}
	notifier := &recordingNotifier{}
	reports := &fakeReports{}
	s := NewSyncer(store, orders, runs, notifier, reports, Config{})

	run, err := s.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, run.ShortageSKUs)
	require.Len(t, notifier.shortages, 1)
	assert.Equal(t, 148, notifier.shortages[0].UnmetCount)
	require.Len(t, runs.shortages, 1)
	assert.Equal(t, "SKU-A", runs.shortages[0].SKUCode)
	assert.Equal(t, 148, runs.shortages[0].UnmetCount)

	// Both purchase lots saturate at 90 and the pointer falls back to the
	// last lot.
	assert.Equal(t, map[int64]int{1: 90, 2: 90}, store.lotUpdates)
	patch := store.patches["id-SKU-A"]
	require.NotNil(t, patch.CurrentLotID)
	assert.Equal(t, int64(2), *patch.CurrentLotID)

	require.Len(t, reports.keys, 1)
	assert.Contains(t, reports.keys[0], "allocation-runs/")
}

func TestSyncAll_LotShiftAlert(t *testing.T) {
	sku := twoLotSKU("SKU-A")

	store := newFakeStore(sku)
	orders := &fakeOrders{pending: map[string]int{"SKU-A": 150}}
	notifier := &recordingNotifier{}
	s := NewSyncer(store, orders, &fakeRuns{}, notifier, nil, Config{})

	_, err := s.SyncAll(context.Background())
	require.NoError(t, err)

	require.Len(t, notifier.shifts, 1)
	assert.Equal(t, "REAL", notifier.shifts[0].PreviousLot)
	assert.Equal(t, "PO-1", notifier.shifts[0].NextLot)

	patch := store.patches["id-SKU-A"]
	require.NotNil(t, patch.CurrentLotID)
	assert.Equal(t, int64(1), *patch.CurrentLotID)
	assert.Equal(t, map[int64]int{1: 55}, store.lotUpdates)
}

func TestSyncAll_NegativeInventoryAlert(t *testing.T) {
	sku := twoLotSKU("SKU-A")
	sku.Inventory = 5

	store := newFakeStore(sku)
	orders := &fakeOrders{
		pending: map[string]int{"SKU-A": 50},
		shipped: []repository.ShippedStat{{Code: "SKU-A", Count: 15, LastShippedAt: time.Now()}},
	}
	notifier := &recordingNotifier{}
	s := NewSyncer(store, orders, &fakeRuns{}, notifier, nil, Config{})

	_, err := s.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"SKU-A"}, notifier.negatives)
}

func TestSyncAll_OneFailureDoesNotAbortBatch(t *testing.T) {
	a := twoLotSKU("SKU-A")
	b := twoLotSKU("SKU-B")

	store := newFakeStore(a, b)
	store.updateErr["id-SKU-A"] = errors.New("cms unavailable")
	orders := &fakeOrders{pending: map[string]int{"SKU-A": 150, "SKU-B": 150}}
	notifier := &recordingNotifier{}
	s := NewSyncer(store, orders, &fakeRuns{}, notifier, nil, Config{Concurrency: 1})

	run, err := s.SyncAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, run.FailedSKUs)
	assert.Equal(t, 1, run.UpdatedSKUs)
	assert.Equal(t, domain.RunStatusCompleted, run.Status)
	assert.Equal(t, []string{"SKU-A"}, notifier.failures)
	assert.Contains(t, store.patches, "id-SKU-B")
}
