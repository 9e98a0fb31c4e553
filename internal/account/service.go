package account

import "github.com/shopspring/decimal"

// Service defines the ledger operations for a single account
type Service interface {
	// Credit adds a non-negative amount to the balance
	Credit(amount decimal.Decimal) error

	// Debit subtracts a non-negative amount from the balance
	// Returns ErrInsufficientFunds if amount exceeds the balance; the balance is left unchanged
	Debit(amount decimal.Decimal) error

	// Balance returns the current balance
	Balance() decimal.Decimal

	// Owner returns the owner label the account was opened with
	Owner() string
}
