package api

// TransactionRequest represents the form submitted for an income or expense
type TransactionRequest struct {
	Amount         string `json:"amount" form:"amount"`                   // Amount as decimal string
	Description    string `json:"description" form:"description"`         // Free text label
	IdempotencyKey string `json:"idempotency_key" form:"idempotency_key"` // Optional key for deduplication
}

// TransactionResponse represents the response for an applied transaction
type TransactionResponse struct {
	TransactionID string `json:"transaction_id"` // System-generated transaction ID
	Kind          string `json:"kind"`           // Income or Expense
	Amount        string `json:"amount"`         // Amount as decimal string
	Description   string `json:"description"`    // Description as submitted
	Message       string `json:"message"`        // Human readable summary
	Balance       string `json:"balance"`        // Balance after the transaction
	Replayed      bool   `json:"replayed"`       // True when answered from the idempotency cache
}

// BalanceResponse represents the current balance of the account
type BalanceResponse struct {
	Owner   string `json:"owner"`
	Balance string `json:"balance"`
}

// AccountCountResponse represents the number of accounts opened by the process
type AccountCountResponse struct {
	TotalAccounts int64 `json:"total_accounts"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Code    string `json:"code"`    // Error code
	Message string `json:"message"` // Error message
}
