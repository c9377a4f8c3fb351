// internal/cms/client.go
package cms

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/commercekit/skusync/internal/domain"
)

// Store is the headless-CMS surface the allocator depends on: read SKU
// records with their inventory-order lots, and apply the allocator's
// recommended writes.
type Store interface {
	ListSKUs(ctx context.Context) ([]domain.SKU, error)
	UpdateSKU(ctx context.Context, id string, patch SKUPatch) error
	UpdateLotHeldQuantity(ctx context.Context, lotID int64, heldQuantity int) error
}

// SKUPatch is the write-back applied after an allocation pass. CurrentLotID
// nil means real inventory is the sellable lot.
type SKUPatch struct {
	Inventory           int        `json:"inventory"`
	UnshippedOrderCount int        `json:"unshippedOrderCount"`
	LastSyncedAt        *time.Time `json:"lastSyncedAt"`
	CurrentLotID        *int64     `json:"currentInventoryOrderSKUId"`
}

// Client talks to a Directus-style CMS over its items API.
type Client struct {
	http *resty.Client
}

func NewClient(baseURL, token string) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(token).
		SetHeader("Content-Type", "application/json").
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second)

	return &Client{http: client}
}

type skuRecord struct {
	ID                  string      `json:"id"`
	Code                string      `json:"code"`
	Name                string      `json:"name"`
	Inventory           int         `json:"inventory"`
	StockBuffer         int         `json:"stockBuffer"`
	FaultyRate          float64     `json:"faultyRate"`
	UnshippedOrderCount int         `json:"unshippedOrderCount"`
	LastSyncedAt        *time.Time  `json:"lastSyncedAt"`
	CurrentLotID        *int64      `json:"currentInventoryOrderSKUId"`
	InventoryOrderSKUs  []lotRecord `json:"inventoryOrderSKUs"`
}

type lotRecord struct {
	ID             int64 `json:"id"`
	Quantity       int   `json:"quantity"`
	HeldQuantity   int   `json:"heldQuantity"`
	InventoryOrder struct {
		Name string `json:"name"`
	} `json:"inventoryOrder"`
}

type listResponse struct {
	Data []skuRecord `json:"data"`
}

// ListSKUs fetches every active SKU with its inventory-order lots in receipt
// order.
func (c *Client) ListSKUs(ctx context.Context) ([]domain.SKU, error) {
	var out listResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"fields": "id,code,name,inventory,stockBuffer,faultyRate,unshippedOrderCount," +
				"lastSyncedAt,currentInventoryOrderSKUId," +
				"inventoryOrderSKUs.id,inventoryOrderSKUs.quantity,inventoryOrderSKUs.heldQuantity," +
				"inventoryOrderSKUs.inventoryOrder.name",
			"filter[active][_eq]": "true",
			"limit":               "-1",
		}).
		SetResult(&out).
		Get("/items/SKUs")
	if err != nil {
		return nil, fmt.Errorf("cms: failed to list skus: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("cms: list skus returned %s", resp.Status())
	}

	skus := make([]domain.SKU, 0, len(out.Data))
	for _, rec := range out.Data {
		skus = append(skus, rec.toDomain())
	}

	return skus, nil
}

// UpdateSKU applies the allocator's recommended SKU-level state.
func (c *Client) UpdateSKU(ctx context.Context, id string, patch SKUPatch) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(patch).
		Patch("/items/SKUs/" + id)
	if err != nil {
		return fmt.Errorf("cms: failed to update sku %s: %w", id, err)
	}
	if resp.IsError() {
		return fmt.Errorf("cms: update sku %s returned %s", id, resp.Status())
	}
	return nil
}

// UpdateLotHeldQuantity persists a recommended held quantity for one lot.
func (c *Client) UpdateLotHeldQuantity(ctx context.Context, lotID int64, heldQuantity int) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]int{"heldQuantity": heldQuantity}).
		Patch(fmt.Sprintf("/items/InventoryOrderSKUs/%d", lotID))
	if err != nil {
		return fmt.Errorf("cms: failed to update lot %d: %w", lotID, err)
	}
	if resp.IsError() {
		return fmt.Errorf("cms: update lot %d returned %s", lotID, resp.Status())
	}
	return nil
}

func (rec skuRecord) toDomain() domain.SKU {
	sku := domain.SKU{
		ID:                  rec.ID,
		Code:                rec.Code,
		Name:                rec.Name,
		Inventory:           rec.Inventory,
		StockBuffer:         rec.StockBuffer,
		FaultyRate:          rec.FaultyRate,
		UnshippedOrderCount: rec.UnshippedOrderCount,
		LastSyncedAt:        rec.LastSyncedAt,
		CurrentLotID:        rec.CurrentLotID,
	}
	for _, lot := range rec.InventoryOrderSKUs {
		sku.Lots = append(sku.Lots, domain.PurchaseLot{
			ID:           lot.ID,
			Title:        lot.InventoryOrder.Name,
			Quantity:     lot.Quantity,
			HeldQuantity: lot.HeldQuantity,
		})
	}
	return sku
}

var _ Store = (*Client)(nil)
