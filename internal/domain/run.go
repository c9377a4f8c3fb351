package domain

import "time"

// RunStatus represents the state of an allocation batch run.
type RunStatus string

const (
	RunStatusPending    RunStatus = "pending"
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
)

// AllocationRun tracks a single execution of the allocation batch.
type AllocationRun struct {
	ID           int64      `json:"id" db:"id"`
	Status       RunStatus  `json:"status" db:"status"`
	TotalSKUs    int        `json:"total_skus" db:"total_skus"`
	UpdatedSKUs  int        `json:"updated_skus" db:"updated_skus"`
	ShortageSKUs int        `json:"shortage_skus" db:"shortage_skus"`
	FailedSKUs   int        `json:"failed_skus" db:"failed_skus"`
	StartedAt    time.Time  `json:"started_at" db:"started_at"`
	CompletedAt  *time.Time `json:"completed_at" db:"completed_at"`
	ErrorMessage string     `json:"error_message" db:"error_message"`
}

// Shortage records demand a run could not cover with known supply.
type Shortage struct {
	ID         int64     `json:"id" db:"id"`
	RunID      int64     `json:"run_id" db:"run_id"`
	SKUCode    string    `json:"sku_code" db:"sku_code"`
	UnmetCount int       `json:"unmet_count" db:"unmet_count"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}
