// internal/notify/notify.go
package notify

import "context"

// ShortageAlert reports demand that known supply could not cover.
type ShortageAlert struct {
	SKUCode    string
	SKUName    string
	UnmetCount int
}

// LotShiftAlert reports the sellable-lot pointer moving to a different lot.
type LotShiftAlert struct {
	SKUCode     string
	SKUName     string
	PreviousLot string
	NextLot     string
}

// Notifier publishes allocation events to a human-visible channel. Shortages
// are urgent, pointer shifts informational; neither failing should abort a
// batch.
type Notifier interface {
	ShortageDetected(ctx context.Context, alert ShortageAlert) error
	SellableLotChanged(ctx context.Context, alert LotShiftAlert) error
	NegativeInventory(ctx context.Context, skuCode string, inventory int) error
	SKUFailed(ctx context.Context, skuCode string, cause error) error
}

type noopNotifier struct{}

// NewNoopNotifier returns a Notifier that discards every event.
func NewNoopNotifier() Notifier { return noopNotifier{} }

func (noopNotifier) ShortageDetected(context.Context, ShortageAlert) error   { return nil }
func (noopNotifier) SellableLotChanged(context.Context, LotShiftAlert) error { return nil }
func (noopNotifier) NegativeInventory(context.Context, string, int) error    { return nil }
func (noopNotifier) SKUFailed(context.Context, string, error) error          { return nil }
