package allocation

import "errors"

// SlotLabel identifies a position in the fixed slot-pointer scheme.
type SlotLabel string

const (
	SlotReal SlotLabel = "REAL"
	SlotA    SlotLabel = "A"
	SlotB    SlotLabel = "B"
	SlotC    SlotLabel = "C"
)

// ErrSlotsExhausted is returned when the sellable pointer cannot be advanced
// because no slot remains after the current one.
var ErrSlotsExhausted = errors.New("no remaining incoming stock slot")

var slotOrder = []SlotLabel{SlotReal, SlotA, SlotB, SlotC}

// AdvanceSellableSlot moves the sellable pointer to the slot after current,
// validating that the target slot is complete enough to sell from.
//
// Deprecated: the slot-pointer scheme is superseded by Plan, which reserves
// held quantities against an arbitrary-length lot sequence instead of three
// fixed slots. It is kept only to interpret availableStock pointer values
// persisted by older SKU records.
func AdvanceSellableSlot(skuCode string, current SlotLabel, slots map[SlotLabel]StockSlot) (SlotLabel, error) {
	idx := -1
	for i, label := range slotOrder {
		if label == current {
			idx = i
			break
		}
	}
	if idx < 0 || idx+1 >= len(slotOrder) {
		return current, ErrSlotsExhausted
	}

	next := slotOrder[idx+1]
	slot, ok := slots[next]
	if !ok {
		return current, ErrSlotsExhausted
	}
	slot.Label = string(next)
	if err := ValidateIncomingStock(skuCode, slot); err != nil {
		return current, err
	}
	return next, nil
}
