package persistence

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one applied transaction as handed to a Recorder
type Record struct {
	Version       int             `json:"version"`
	TransactionID string          `json:"transaction_id"`
	Kind          string          `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// Recorder is the out-of-process sink for completed transactions
type Recorder interface {
	// Record persists a completed transaction
	Record(ctx context.Context, rec Record) error

	// Close releases any resources held by the recorder
	Close() error
}
