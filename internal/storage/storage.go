package storage

import "context"

// ReportStore archives allocation run reports so a run's inputs and
// decisions can be inspected after the fact.
type ReportStore interface {
	UploadReport(ctx context.Context, key string, data []byte) error
}
