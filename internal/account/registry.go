package account

import (
	"strings"
	"sync/atomic"

	"finance-ledger/internal/metrics"

	"github.com/shopspring/decimal"
)

// Registry opens ledgers and counts how many have been opened during the
// lifetime of the process. The count never goes down.
type Registry struct {
	opened atomic.Int64
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{}
}

// Open creates a ledger for owner with the given initial balance
func (r *Registry) Open(owner string, initial decimal.Decimal) (*Ledger, error) {
	owner = strings.TrimSpace(owner)
	if owner == "" {
		return nil, ErrInvalidOwner
	}
	if initial.IsNegative() {
		return nil, ErrInvalidAmount
	}

	l := &Ledger{
		owner:   owner,
		balance: initial,
	}
	r.opened.Add(1)
	metrics.AccountsOpened.Inc()
	return l, nil
}

// AccountCount returns the number of ledgers opened through this registry
func (r *Registry) AccountCount() int64 {
	return r.opened.Load()
}
