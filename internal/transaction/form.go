package transaction

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Form is the raw input collected from a user: amount text and a description.
type Form struct {
	Amount      string `json:"amount" form:"amount" validate:"required,max=32,nonnegative_amount"`
	Description string `json:"description" form:"description" validate:"max=256"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
	errValidate  error
)

func initValidator() (*validator.Validate, error) {
	vld := validator.New(validator.WithRequiredStructEnabled())

	if err := vld.RegisterValidation("nonnegative_amount", func(fl validator.FieldLevel) bool {
		str := strings.TrimSpace(fl.Field().String())
		if str == "" {
			return true
		}
		_, err := ParseAmount(str)
		return err == nil
	}); err != nil {
		return nil, fmt.Errorf("register nonnegative_amount: %w", err)
	}

	return vld, nil
}

func getValidator() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate, errValidate = initValidator()
	})
	return validate, errValidate
}

// Validate checks the form and returns a *ValidationError for the first bad field
func (f Form) Validate() error {
	vld, err := getValidator()
	if err != nil {
		return err
	}

	if err := vld.Struct(f); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return fieldError(fieldErrs[0], f)
		}
		return &ValidationError{Field: "form", Reason: err.Error()}
	}
	return nil
}

func fieldError(fe validator.FieldError, f Form) *ValidationError {
	field := strings.ToLower(fe.Field())
	value := fmt.Sprint(fe.Value())

	switch fe.Tag() {
	case "required":
		return &ValidationError{Field: field, Reason: "is required"}
	case "max":
		return &ValidationError{Field: field, Reason: "must be at most " + fe.Param() + " characters"}
	case "nonnegative_amount":
		var vErr *ValidationError
		if _, err := ParseAmount(f.Amount); errors.As(err, &vErr) {
			return vErr
		}
		return &ValidationError{Field: field, Value: value, Reason: "must be a non-negative decimal"}
	default:
		return &ValidationError{Field: field, Value: value, Reason: "failed " + fe.Tag() + " check"}
	}
}

// ParseAmount parses amount text into a non-negative decimal. Only plain
// notation is accepted: digits with at most one '.', no exponent, at most
// MaxIntegerDigits before the point and MaxScale after it.
func ParseAmount(text string) (decimal.Decimal, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Reason: "is required"}
	}
	if strings.HasPrefix(s, "-") {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: "must not be negative"}
	}

	intPart, fracPart, hasPoint := strings.Cut(s, ".")
	if intPart == "" && fracPart == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: "not a decimal number"}
	}
	if hasPoint && fracPart == "" {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: "not a decimal number"}
	}
	if !isDigits(intPart) || !isDigits(fracPart) {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: "not a decimal number"}
	}
	if len(strings.TrimLeft(intPart, "0")) > MaxIntegerDigits {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: "too large"}
	}
	if len(fracPart) > MaxScale {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: fmt.Sprintf("too many decimal places: max %d", MaxScale)}
	}

	if intPart == "" {
		s = "0" + s
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: "amount", Value: text, Reason: "not a decimal number"}
	}
	return d, nil
}

func isDigits(s string) bool {
	for _, ch := range s {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}

// FromForm validates the form and builds a transaction of the given kind
func FromForm(kind Kind, f Form) (Transaction, error) {
	if err := f.Validate(); err != nil {
		return Transaction{}, err
	}

	amount, err := ParseAmount(f.Amount)
	if err != nil {
		return Transaction{}, err
	}

	return New(kind, amount, strings.TrimSpace(f.Description))
}
