package allocation

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

func completeSlot() StockSlot {
	return StockSlot{
		Label:            "A",
		Quantity:         intPtr(120),
		ArrivalDate:      timePtr(time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)),
		DeliverySchedule: "2024-07-early",
	}
}

func TestValidateIncomingStock(t *testing.T) {
	assert.NoError(t, ValidateIncomingStock("SKU-001", completeSlot()))
}

func TestValidateIncomingStock_MissingFields(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*StockSlot)
		field  string
	}{
		{"no quantity", func(s *StockSlot) { s.Quantity = nil }, "quantity"},
		{"no arrival date", func(s *StockSlot) { s.ArrivalDate = nil }, "arrival date"},
		{"no delivery schedule", func(s *StockSlot) { s.DeliverySchedule = "" }, "delivery schedule"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot := completeSlot()
			tt.mutate(&slot)

			err := ValidateIncomingStock("SKU-001", slot)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, "SKU-001", verr.SKUCode)
			assert.Equal(t, "A", verr.Slot)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateIncomingStock_ScheduleFormat(t *testing.T) {
	valid := []string{"2024-01-early", "2024-06-middle", "2025-12-late"}
	for _, s := range valid {
		slot := completeSlot()
		slot.DeliverySchedule = s
		assert.NoError(t, ValidateIncomingStock("SKU-001", slot), s)
	}

	invalid := []string{
		"2024-13-early",
		"2024-00-late",
		"2024-7-early",
		"2024-07-beginning",
		"2024-07-early ",
		"24-07-early",
	}
	for _, s := range invalid {
		slot := completeSlot()
		slot.DeliverySchedule = s

		err := ValidateIncomingStock("SKU-001", slot)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr, s)
		assert.Equal(t, "delivery schedule", verr.Field, s)
	}
}

func TestAdvanceSellableSlot(t *testing.T) {
	slots := map[SlotLabel]StockSlot{
		SlotA: completeSlot(),
		SlotB: completeSlot(),
	}

	next, err := AdvanceSellableSlot("SKU-001", SlotReal, slots)
	require.NoError(t, err)
	assert.Equal(t, SlotA, next)

	next, err = AdvanceSellableSlot("SKU-001", SlotA, slots)
	require.NoError(t, err)
	assert.Equal(t, SlotB, next)
}

func TestAdvanceSellableSlot_IncompleteTarget(t *testing.T) {
	incomplete := completeSlot()
	incomplete.Quantity = nil
	slots := map[SlotLabel]StockSlot{SlotA: incomplete}

	_, err := AdvanceSellableSlot("SKU-001", SlotReal, slots)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "A", verr.Slot)
}

func TestAdvanceSellableSlot_Exhausted(t *testing.T) {
	slots := map[SlotLabel]StockSlot{
		SlotA: completeSlot(),
	}

	// No slot is registered after A.
	_, err := AdvanceSellableSlot("SKU-001", SlotA, slots)
	assert.True(t, errors.Is(err, ErrSlotsExhausted))

	// C is the end of the fixed sequence.
	_, err = AdvanceSellableSlot("SKU-001", SlotC, slots)
	assert.True(t, errors.Is(err, ErrSlotsExhausted))
}
