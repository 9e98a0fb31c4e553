package api

import (
	"errors"
	"net/http"

	"finance-ledger/internal/account"
	"finance-ledger/internal/engine"
	"finance-ledger/internal/transaction"
)

// ErrorCode represents unified API error codes
type ErrorCode string

const (
	ErrorCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrorCodeInvalidArgument   ErrorCode = "INVALID_ARGUMENT"
	ErrorCodeDuplicateRequest  ErrorCode = "DUPLICATE_REQUEST"
	ErrorCodeUnavailable       ErrorCode = "UNAVAILABLE"
	ErrorCodeInternalError     ErrorCode = "INTERNAL_ERROR"
)

// MapErrorToHTTP maps errors to HTTP status codes and error responses
func MapErrorToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusOK, ErrorResponse{}
	}

	var validationErr *transaction.ValidationError
	if errors.As(err, &validationErr) {
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInvalidArgument),
			Message: validationErr.Error(),
		}
	}

	var insufficientErr *account.InsufficientFundsError
	if errors.As(err, &insufficientErr) {
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInsufficientFunds),
			Message: err.Error(),
		}
	}

	if errors.Is(err, account.ErrInsufficientFunds) {
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInsufficientFunds),
			Message: "insufficient funds",
		}
	}

	if errors.Is(err, account.ErrInvalidAmount) || errors.Is(err, transaction.ErrUnknownKind) {
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInvalidArgument),
			Message: err.Error(),
		}
	}

	// Default to internal error
	return http.StatusInternalServerError, ErrorResponse{
		Code:    string(ErrorCodeInternalError),
		Message: err.Error(),
	}
}

// MapEngineErrorToHTTP maps processor error codes to HTTP status codes and error responses
func MapEngineErrorToHTTP(errorCode engine.ErrorCode, err error) (int, ErrorResponse) {
	switch errorCode {
	case engine.ErrorCodeNone:
		return http.StatusOK, ErrorResponse{}

	case engine.ErrorCodeInsufficientFunds:
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInsufficientFunds),
			Message: getErrorMessage(err, "insufficient funds"),
		}

	case engine.ErrorCodeInvalidArgument:
		return http.StatusBadRequest, ErrorResponse{
			Code:    string(ErrorCodeInvalidArgument),
			Message: getErrorMessage(err, "invalid argument"),
		}

	case engine.ErrorCodeDuplicateRequest:
		return http.StatusConflict, ErrorResponse{
			Code:    string(ErrorCodeDuplicateRequest),
			Message: getErrorMessage(err, "duplicate request with different payload"),
		}

	case engine.ErrorCodeUnavailable:
		return http.StatusServiceUnavailable, ErrorResponse{
			Code:    string(ErrorCodeUnavailable),
			Message: getErrorMessage(err, "service unavailable"),
		}

	default:
		return http.StatusInternalServerError, ErrorResponse{
			Code:    string(ErrorCodeInternalError),
			Message: getErrorMessage(err, "internal error"),
		}
	}
}

func getErrorMessage(err error, defaultMsg string) string {
	if err != nil {
		return err.Error()
	}
	return defaultMsg
}
