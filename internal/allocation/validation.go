package allocation

import (
	"fmt"
	"regexp"
	"time"
)

// StockSlot is one labelled incoming-stock slot on a SKU record as used by
// the slot-pointer selection scheme.
type StockSlot struct {
	Label            string
	Quantity         *int
	ArrivalDate      *time.Time
	DeliverySchedule string
}

// Delivery schedules are coarse thirds of a month, e.g. "2024-07-early".
var deliveryScheduleRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(early|middle|late)$`)

// ValidationError reports an incoming-stock slot that cannot be treated as
// sellable because supporting data is missing or malformed.
type ValidationError struct {
	SKUCode string
	Slot    string
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sku %s: incoming stock %s: %s %s", e.SKUCode, e.Slot, e.Field, e.Reason)
}

// ValidateIncomingStock checks that a slot carries every field required to
// expose it for sale: a quantity, an arrival date, and a well-formed delivery
// schedule. It performs no mutation; a nil return means the slot is usable.
func ValidateIncomingStock(skuCode string, slot StockSlot) error {
	if slot.Quantity == nil {
		return &ValidationError{SKUCode: skuCode, Slot: slot.Label, Field: "quantity", Reason: "is not set"}
	}
	if slot.ArrivalDate == nil {
		return &ValidationError{SKUCode: skuCode, Slot: slot.Label, Field: "arrival date", Reason: "is not set"}
	}
	if slot.DeliverySchedule == "" {
		return &ValidationError{SKUCode: skuCode, Slot: slot.Label, Field: "delivery schedule", Reason: "is not set"}
	}
	if !deliveryScheduleRe.MatchString(slot.DeliverySchedule) {
		return &ValidationError{
			SKUCode: skuCode,
			Slot:    slot.Label,
			Field:   "delivery schedule",
			Reason:  fmt.Sprintf("%q does not match YYYY-MM-{early|middle|late}", slot.DeliverySchedule),
		}
	}
	return nil
}
