package account

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Ledger is an in-memory single-account ledger. It is safe for concurrent use.
type Ledger struct {
	mu      sync.RWMutex
	owner   string
	balance decimal.Decimal
}

var _ Service = (*Ledger)(nil)

// Credit adds amount to the balance
func (l *Ledger) Credit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.balance = l.balance.Add(amount)
	return nil
}

// Debit subtracts amount from the balance if it is covered.
// The check and the subtraction happen under the same lock.
func (l *Ledger) Debit(amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ErrInvalidAmount
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if amount.GreaterThan(l.balance) {
		return &InsufficientFundsError{
			Owner:     l.owner,
			Required:  amount,
			Available: l.balance,
		}
	}

	l.balance = l.balance.Sub(amount)
	return nil
}

// Balance returns the current balance
func (l *Ledger) Balance() decimal.Decimal {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balance
}

// Owner returns the owner label
func (l *Ledger) Owner() string {
	return l.owner
}
