package allocation

import (
	"math"

	"github.com/commercekit/skusync/internal/domain"
)

// RealInventoryTitle labels the synthetic lot that stands in for physical
// stock on hand. It is always evaluated first and never persisted.
const RealInventoryTitle = "REAL"

// LotPlan is the recommended state for one lot after allocating pending
// demand across the sequence.
type LotPlan struct {
	// ID is nil for the real-inventory lot, which has no persisted identity.
	ID           *int64 `json:"id"`
	Title        string `json:"title"`
	HeldQuantity int    `json:"heldQuantity"`
	// Modified reports whether HeldQuantity differs from the value last
	// persisted for this lot.
	Modified bool `json:"modified"`
	// Available reports whether the lot still has unreserved room and is a
	// candidate to be the current sellable lot.
	Available bool `json:"available"`
}

// IsReal reports whether this plan entry is the synthetic real-inventory lot.
func (p LotPlan) IsReal() bool { return p.ID == nil }

// Result is the full output of one allocation pass over a SKU.
type Result struct {
	// Lots holds every evaluated lot in sequence order, real inventory first.
	Lots []LotPlan `json:"lots"`
	// NextSellable is the first lot with remaining room, or the last lot in
	// the sequence when every lot is saturated.
	NextSellable LotPlan `json:"nextSellable"`
	// Updatable is the subset of Lots with a persisted identity whose held
	// quantity changed. The real-inventory lot is never part of it; its
	// effect is the new inventory figure the caller writes directly.
	Updatable []LotPlan `json:"updatable"`
	// Rest is demand that no known lot could absorb. Zero means fully
	// covered; a positive value is a supply shortage, not an error.
	Rest int `json:"rest"`
}

// Shortage reports whether the plan left demand uncovered.
func (r Result) Shortage() bool { return r.Rest > 0 }

// Plan allocates pending demand across a SKU's stock lots and picks the next
// sellable lot.
//
// The evaluated sequence is the synthetic real-inventory lot followed by the
// SKU's purchase lots in receipt order. Each lot reserves a safety margin:
// purchase lots keep quantity*faultyRate units back, the real-inventory lot
// keeps whichever of stockBuffer and inventory*faultyRate is larger. For
// negative inventory the faulty-rate term is negative, so the stock buffer
// alone applies.
//
// Demand is folded through the sequence front to back. The held quantity of
// a lot is min(remaining, quantity-reserve); for an oversold real lot that
// value is negative, which grows the remaining demand pushed onto later lots
// so that oversold units are re-reserved out of future supply. Whatever
// demand survives the whole sequence is returned as Rest.
//
// Plan is pure: it never fails and equal inputs yield equal results.
func Plan(currentInventory, pendingDemand int, sku domain.SKU) Result {
	remaining := pendingDemand

	lots := make([]LotPlan, 0, len(sku.Lots)+1)
	evaluate := func(id *int64, title string, quantity, prevHeld int) {
		reserve := int(math.Floor(float64(quantity) * sku.FaultyRate))
		if id == nil && sku.StockBuffer > reserve {
			reserve = sku.StockBuffer
		}

		available := quantity - reserve
		held := remaining
		if available < held {
			held = available
		}
		remaining -= held

		lots = append(lots, LotPlan{
			ID:           id,
			Title:        title,
			HeldQuantity: held,
			Modified:     held != prevHeld,
			Available:    available > held,
		})
	}

	evaluate(nil, RealInventoryTitle, currentInventory, 0)
	for _, lot := range sku.Lots {
		id := lot.ID
		evaluate(&id, lot.Title, lot.Quantity, lot.HeldQuantity)
	}

	next := lots[len(lots)-1]
	for _, p := range lots {
		if p.Available {
			next = p
			break
		}
	}

	var updatable []LotPlan
	for _, p := range lots {
		if p.ID != nil && p.Modified {
			updatable = append(updatable, p)
		}
	}

	return Result{
		Lots:         lots,
		NextSellable: next,
		Updatable:    updatable,
		Rest:         remaining,
	}
}
