package domain

import "time"

// SKU is the subset of the CMS SKU record the allocator works with.
type SKU struct {
	ID                  string        `json:"id"`
	Code                string        `json:"code"`
	Name                string        `json:"name"`
	Inventory           int           `json:"inventory"`
	StockBuffer         int           `json:"stockBuffer"`
	FaultyRate          float64       `json:"faultyRate"`
	UnshippedOrderCount int           `json:"unshippedOrderCount"`
	LastSyncedAt        *time.Time    `json:"lastSyncedAt"`
	CurrentLotID        *int64        `json:"currentInventoryOrderSKUId"`
	Lots                []PurchaseLot `json:"inventoryOrderSKUs"`
}

// PurchaseLot is one future inventory order attached to a SKU. Lots are kept
// in receipt order; the allocator never reorders them.
type PurchaseLot struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Quantity     int    `json:"quantity"`
	HeldQuantity int    `json:"heldQuantity"`
}
