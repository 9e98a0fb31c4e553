package transaction

import (
	"fmt"
	"strings"

	"finance-ledger/internal/account"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Amount limits. Anything outside them is rejected before it reaches a ledger.
const (
	MaxScale         = 8
	MaxIntegerDigits = 18
)

var maxAmount = decimal.New(1, MaxIntegerDigits)

// Kind tags how a transaction affects a ledger
type Kind string

const (
	KindIncome  Kind = "Income"
	KindExpense Kind = "Expense"
)

// ParseKind accepts "income"/"expense" in any case
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income":
		return KindIncome, nil
	case "expense":
		return KindExpense, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Valid reports whether k is one of the known kinds
func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Transaction is a single income or expense. It is applied once and then
// dropped; nothing keeps a history of them.
type Transaction struct {
	ID          string
	Kind        Kind
	Amount      decimal.Decimal
	Description string
}

// New builds a transaction with a fresh ID
func New(kind Kind, amount decimal.Decimal, description string) (Transaction, error) {
	if !kind.Valid() {
		return Transaction{}, fmt.Errorf("%w: %q", ErrUnknownKind, string(kind))
	}
	if err := checkAmount(amount); err != nil {
		return Transaction{}, err
	}
	return Transaction{
		ID:          "txn_" + uuid.New().String(),
		Kind:        kind,
		Amount:      amount,
		Description: description,
	}, nil
}

// checkAmount bounds scale and magnitude. The exponent is checked first so an
// out-of-range value is never rendered or rescaled.
func checkAmount(amount decimal.Decimal) error {
	exp := amount.Exponent()
	if exp < -MaxScale || exp > MaxIntegerDigits {
		return &ValidationError{Field: "amount", Reason: "out of range"}
	}
	if amount.IsNegative() {
		return &ValidationError{Field: "amount", Value: amount.String(), Reason: "must not be negative"}
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return &ValidationError{Field: "amount", Value: amount.String(), Reason: "too large"}
	}
	return nil
}

// Income is a shorthand for New(KindIncome, ...)
func Income(amount decimal.Decimal, description string) (Transaction, error) {
	return New(KindIncome, amount, description)
}

// Expense is a shorthand for New(KindExpense, ...)
func Expense(amount decimal.Decimal, description string) (Transaction, error) {
	return New(KindExpense, amount, description)
}

// Apply credits income and debits expenses. Insufficient funds on an expense
// is returned unchanged so callers can match account.ErrInsufficientFunds.
func (t Transaction) Apply(ledger account.Service) error {
	switch t.Kind {
	case KindIncome:
		return ledger.Credit(t.Amount)
	case KindExpense:
		return ledger.Debit(t.Amount)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(t.Kind))
	}
}

// Describe returns the human readable line for the transaction
func (t Transaction) Describe() string {
	switch t.Kind {
	case KindIncome:
		return fmt.Sprintf("Income Added: %s (%s)", t.Amount.String(), t.Description)
	case KindExpense:
		return fmt.Sprintf("Expense Recorded: %s (%s)", t.Amount.String(), t.Description)
	default:
		return fmt.Sprintf("Unknown transaction: %s (%s)", t.Amount.String(), t.Description)
	}
}
