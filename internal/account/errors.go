package account

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidOwner      = errors.New("invalid owner")
)

// InsufficientFundsError represents a rejected debit with details
type InsufficientFundsError struct {
	Owner     string
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: owner=%s required=%s available=%s",
		e.Owner, e.Required.String(), e.Available.String())
}

func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}
