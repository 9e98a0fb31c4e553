package engine

import (
	"time"

	"finance-ledger/internal/transaction"

	"github.com/shopspring/decimal"
)

// Command wraps a transaction with submission metadata
type Command struct {
	CommandID      string                  // Unique command ID
	IdempotencyKey string                  // Optional key for deduplication
	PayloadHash    string                  // Hash of payload for conflict detection
	Transaction    transaction.Transaction // Transaction to apply
	CreatedAt      time.Time               // Command creation time
}

// ErrorCode represents command execution error codes
type ErrorCode string

const (
	ErrorCodeNone              ErrorCode = ""
	ErrorCodeDuplicateRequest  ErrorCode = "DUPLICATE_REQUEST"
	ErrorCodeInvalidArgument   ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrorCodeUnavailable       ErrorCode = "UNAVAILABLE"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// Result represents the result of command execution
type Result struct {
	Transaction transaction.Transaction // Transaction as applied (or rejected)
	Balance     decimal.Decimal         // Ledger balance right after the command
	Replayed    bool                    // True when served from the idempotency cache
	ErrorCode   ErrorCode               // Error code if execution failed
	Err         error                   // Detailed error
}

// PayloadOf returns the fields of a transaction that identify a submission.
// The generated transaction ID is left out so retries hash the same.
func PayloadOf(txn transaction.Transaction) any {
	return struct {
		Kind        transaction.Kind `json:"kind"`
		Amount      string           `json:"amount"`
		Description string           `json:"description"`
	}{
		Kind:        txn.Kind,
		Amount:      txn.Amount.String(),
		Description: txn.Description,
	}
}
