package transaction

import (
	"errors"
	"strings"
	"testing"
	"time"

	"finance-ledger/internal/account"

	"github.com/shopspring/decimal"
)

func TestApply_Scenario(t *testing.T) {
	ledger, err := account.NewRegistry().Open("User1", decimal.NewFromInt(1000))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	income, err := Income(decimal.NewFromInt(500), "Salary")
	if err != nil {
		t.Fatalf("Income failed: %v", err)
	}
	if err := income.Apply(ledger); err != nil {
		t.Fatalf("Apply income failed: %v", err)
	}
	if !ledger.Balance().Equal(decimal.NewFromInt(1500)) {
		t.Fatalf("Expected balance 1500, got %s", ledger.Balance())
	}

	expense, err := Expense(decimal.NewFromInt(200), "Groceries")
	if err != nil {
		t.Fatalf("Expense failed: %v", err)
	}
	if err := expense.Apply(ledger); err != nil {
		t.Fatalf("Apply expense failed: %v", err)
	}
	if !ledger.Balance().Equal(decimal.NewFromInt(1300)) {
		t.Fatalf("Expected balance 1300, got %s", ledger.Balance())
	}

	overspend, err := Expense(decimal.NewFromInt(2000), "Laptop")
	if err != nil {
		t.Fatalf("Expense failed: %v", err)
	}
	err = overspend.Apply(ledger)
	if !errors.Is(err, account.ErrInsufficientFunds) {
		t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
	}
	if !ledger.Balance().Equal(decimal.NewFromInt(1300)) {
		t.Errorf("Expected balance to stay 1300, got %s", ledger.Balance())
	}
}

func TestDescribe(t *testing.T) {
	income, err := Income(decimal.RequireFromString("500"), "Salary")
	if err != nil {
		t.Fatalf("Income failed: %v", err)
	}
	if got := income.Describe(); got != "Income Added: 500 (Salary)" {
		t.Errorf("Unexpected description %q", got)
	}

	expense, err := Expense(decimal.RequireFromString("12.5"), "Lunch")
	if err != nil {
		t.Fatalf("Expense failed: %v", err)
	}
	if got := expense.Describe(); got != "Expense Recorded: 12.5 (Lunch)" {
		t.Errorf("Unexpected description %q", got)
	}
}

func TestNew_RejectsBadInput(t *testing.T) {
	if _, err := New(Kind("Transfer"), decimal.NewFromInt(1), "x"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("Expected ErrUnknownKind, got %v", err)
	}

	tests := []struct {
		name   string
		amount decimal.Decimal
	}{
		{"negative", decimal.NewFromInt(-1)},
		{"huge exponent", decimal.New(1, 900000000)},
		{"tiny exponent", decimal.New(1, -900000000)},
		{"too many decimal places", decimal.New(1, -MaxScale-1)},
		{"at the magnitude limit", decimal.New(1, MaxIntegerDigits)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			done := make(chan error, 1)
			go func() {
				_, err := New(KindIncome, tt.amount, "x")
				done <- err
			}()

			select {
			case err := <-done:
				if !errors.Is(err, ErrValidation) {
					t.Errorf("Expected ErrValidation, got %v", err)
				}
			case <-time.After(2 * time.Second):
				t.Fatal("New did not return")
			}
		})
	}
}

func TestNew_AcceptsLimits(t *testing.T) {
	for _, text := range []string{"0", "0.00000001", "999999999999999999.99999999"} {
		if _, err := Income(decimal.RequireFromString(text), "x"); err != nil {
			t.Errorf("Income(%s) failed: %v", text, err)
		}
	}
}

func TestNew_AssignsDistinctIDs(t *testing.T) {
	a, err := Income(decimal.NewFromInt(1), "a")
	if err != nil {
		t.Fatalf("Income failed: %v", err)
	}
	b, err := Income(decimal.NewFromInt(1), "a")
	if err != nil {
		t.Fatalf("Income failed: %v", err)
	}

	if !strings.HasPrefix(a.ID, "txn_") {
		t.Errorf("Expected txn_ prefix, got %q", a.ID)
	}
	if a.ID == b.ID {
		t.Errorf("Expected distinct IDs, both were %q", a.ID)
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in      string
		want    Kind
		wantErr bool
	}{
		{"income", KindIncome, false},
		{"Expense", KindExpense, false},
		{" INCOME ", KindIncome, false},
		{"transfer", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownKind) {
				t.Errorf("ParseKind(%q): expected ErrUnknownKind, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseKind(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseKind(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		text    string
		want    string
		wantErr bool
	}{
		{"500", "500", false},
		{" 12.34 ", "12.34", false},
		{"0", "0", false},
		{".5", "0.5", false},
		{"0.00000001", "0.00000001", false},
		{"999999999999999999", "999999999999999999", false},
		{"", "", true},
		{"abc", "", true},
		{"12,5", "", true},
		{"-1", "", true},
		{"1.", "", true},
		{".", "", true},
		{"1.2.3", "", true},
		{"+5", "", true},
		{"1e3", "", true},
		{"1e900000000", "", true},
		{"1e-900000000", "", true},
		{"0.000000001", "", true},
		{"1000000000000000000", "", true},
	}

	for _, tt := range tests {
		got, err := ParseAmount(tt.text)
		if tt.wantErr {
			if !errors.Is(err, ErrValidation) {
				t.Errorf("ParseAmount(%q): expected ErrValidation, got %v", tt.text, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAmount(%q) failed: %v", tt.text, err)
			continue
		}
		if !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("ParseAmount(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestFromForm(t *testing.T) {
	txn, err := FromForm(KindExpense, Form{Amount: "200", Description: " Groceries "})
	if err != nil {
		t.Fatalf("FromForm failed: %v", err)
	}
	if txn.Kind != KindExpense {
		t.Errorf("Expected kind Expense, got %s", txn.Kind)
	}
	if txn.Description != "Groceries" {
		t.Errorf("Expected trimmed description, got %q", txn.Description)
	}
	if !txn.Amount.Equal(decimal.NewFromInt(200)) {
		t.Errorf("Expected amount 200, got %s", txn.Amount)
	}
}

func TestFromForm_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		form   Form
		field  string
		reason string
	}{
		{"missing amount", Form{Description: "x"}, "amount", "is required"},
		{"malformed amount", Form{Amount: "ten"}, "amount", "not a decimal number"},
		{"negative amount", Form{Amount: "-5"}, "amount", "must not be negative"},
		{"exponent amount", Form{Amount: "1e900000000"}, "amount", "not a decimal number"},
		{"too many decimals", Form{Amount: "1.123456789"}, "amount", "too many decimal places: max 8"},
		{"amount too long", Form{Amount: strings.Repeat("1", 33)}, "amount", "must be at most 32 characters"},
		{"description too long", Form{Amount: "1", Description: strings.Repeat("d", 257)}, "description", "must be at most 256 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromForm(KindIncome, tt.form)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("Expected *ValidationError, got %v", err)
			}
			if vErr.Field != tt.field {
				t.Errorf("Expected field %q, got %q", tt.field, vErr.Field)
			}
			if vErr.Reason != tt.reason {
				t.Errorf("Expected reason %q, got %q", tt.reason, vErr.Reason)
			}
			if !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
}
