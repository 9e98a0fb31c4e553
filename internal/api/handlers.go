package api

import (
	"context"
	"net/http"
	"time"

	"finance-ledger/internal/account"
	"finance-ledger/internal/engine"
	"finance-ledger/internal/transaction"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Submitter applies transaction commands
type Submitter interface {
	Submit(ctx context.Context, command *engine.Command) *engine.Result
}

// AccountCounter reports how many accounts have been opened
type AccountCounter interface {
	AccountCount() int64
}

// Handler handles HTTP requests for the form API
type Handler struct {
	submitter Submitter
	ledger    account.Service
	accounts  AccountCounter
}

// NewHandler creates a new API handler
func NewHandler(submitter Submitter, ledger account.Service, accounts AccountCounter) *Handler {
	return &Handler{
		submitter: submitter,
		ledger:    ledger,
		accounts:  accounts,
	}
}

// AddIncome handles POST /v1/transactions/income
func (h *Handler) AddIncome(c *gin.Context) {
	h.submit(c, transaction.KindIncome)
}

// AddExpense handles POST /v1/transactions/expense
func (h *Handler) AddExpense(c *gin.Context) {
	h.submit(c, transaction.KindExpense)
}

func (h *Handler) submit(c *gin.Context, kind transaction.Kind) {
	var req TransactionRequest
	if err := c.ShouldBind(&req); err != nil {
		writeErrorResponse(c, http.StatusBadRequest, ErrorCodeInvalidArgument, "invalid request body")
		return
	}

	// Malformed input stops here and never reaches the ledger
	txn, err := transaction.FromForm(kind, transaction.Form{
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		statusCode, errResp := MapErrorToHTTP(err)
		c.JSON(statusCode, errResp)
		return
	}

	payloadHash, err := engine.ComputePayloadHash(engine.PayloadOf(txn))
	if err != nil {
		writeErrorResponse(c, http.StatusInternalServerError, ErrorCodeInternalError, "failed to compute payload hash")
		return
	}

	result := h.submitter.Submit(c.Request.Context(), &engine.Command{
		CommandID:      generateCommandID(),
		IdempotencyKey: req.IdempotencyKey,
		PayloadHash:    payloadHash,
		Transaction:    txn,
		CreatedAt:      time.Now(),
	})

	if result.ErrorCode != engine.ErrorCodeNone {
		statusCode, errResp := MapEngineErrorToHTTP(result.ErrorCode, result.Err)
		c.JSON(statusCode, errResp)
		return
	}

	c.JSON(http.StatusOK, buildTransactionResponse(result))
}

// GetBalance handles GET /v1/balance
func (h *Handler) GetBalance(c *gin.Context) {
	c.JSON(http.StatusOK, BalanceResponse{
		Owner:   h.ledger.Owner(),
		Balance: h.ledger.Balance().String(),
	})
}

// GetAccountCount handles GET /v1/accounts/count
func (h *Handler) GetAccountCount(c *gin.Context) {
	c.JSON(http.StatusOK, AccountCountResponse{
		TotalAccounts: h.accounts.AccountCount(),
	})
}

func buildTransactionResponse(result *engine.Result) TransactionResponse {
	txn := result.Transaction
	return TransactionResponse{
		TransactionID: txn.ID,
		Kind:          string(txn.Kind),
		Amount:        txn.Amount.String(),
		Description:   txn.Description,
		Message:       txn.Describe(),
		Balance:       result.Balance.String(),
		Replayed:      result.Replayed,
	}
}

func generateCommandID() string {
	return "cmd_" + uuid.New().String()
}

func writeErrorResponse(c *gin.Context, statusCode int, code ErrorCode, message string) {
	c.JSON(statusCode, ErrorResponse{
		Code:    string(code),
		Message: message,
	})
}
