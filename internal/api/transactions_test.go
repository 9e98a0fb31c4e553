package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"finance-ledger/internal/account"
	"finance-ledger/internal/engine"
	"finance-ledger/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	metrics.Register()
	os.Exit(m.Run())
}

type testEnv struct {
	router   http.Handler
	ledger   *account.Ledger
	registry *account.Registry
}

func setup(t *testing.T, initial int64) *testEnv {
	t.Helper()
	registry := account.NewRegistry()
	ledger, err := registry.Open("User1", decimal.NewFromInt(initial))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}

	proc := engine.NewProcessor(ledger, nil, &engine.Config{
		QueueSize:      100,
		IdempotencyTTL: time.Minute,
	}, nil)
	proc.Start()
	t.Cleanup(proc.Stop)

	return &testEnv{
		router:   NewRouter(NewHandler(proc, ledger, registry), nil),
		ledger:   ledger,
		registry: registry,
	}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(w.Body).Decode(&out); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	return out
}

func TestTransactions_Scenario(t *testing.T) {
	env := setup(t, 1000)

	w := env.postJSON(t, "/v1/transactions/income", TransactionRequest{Amount: "500", Description: "Salary"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[TransactionResponse](t, w)
	if resp.Message != "Income Added: 500 (Salary)" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if resp.Balance != "1500" {
		t.Errorf("Expected balance 1500, got %s", resp.Balance)
	}
	if !strings.HasPrefix(resp.TransactionID, "txn_") {
		t.Errorf("Expected transaction id, got %q", resp.TransactionID)
	}

	w = env.postJSON(t, "/v1/transactions/expense", TransactionRequest{Amount: "200", Description: "Groceries"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	resp = decode[TransactionResponse](t, w)
	if resp.Message != "Expense Recorded: 200 (Groceries)" {
		t.Errorf("Unexpected message %q", resp.Message)
	}
	if resp.Balance != "1300" {
		t.Errorf("Expected balance 1300, got %s", resp.Balance)
	}

	w = env.postJSON(t, "/v1/transactions/expense", TransactionRequest{Amount: "2000", Description: "Laptop"})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
	errResp := decode[ErrorResponse](t, w)
	if errResp.Code != string(ErrorCodeInsufficientFunds) {
		t.Errorf("Expected code %s, got %s", ErrorCodeInsufficientFunds, errResp.Code)
	}
	if !env.ledger.Balance().Equal(decimal.NewFromInt(1300)) {
		t.Errorf("Expected balance 1300, got %s", env.ledger.Balance())
	}
}

func TestTransactions_FormEncoded(t *testing.T) {
	env := setup(t, 0)

	form := url.Values{}
	form.Set("amount", "12.75")
	form.Set("description", "Refund")
	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/income", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if resp := decode[TransactionResponse](t, w); resp.Balance != "12.75" {
		t.Errorf("Expected balance 12.75, got %s", resp.Balance)
	}
}

func TestTransactions_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		amount string
	}{
		{"empty amount", ""},
		{"malformed amount", "ten dollars"},
		{"negative amount", "-5"},
		{"huge exponent", "1e900000000"},
		{"tiny exponent", "1e-900000000"},
		{"too many decimal places", "0.000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setup(t, 100)
			w := env.postJSON(t, "/v1/transactions/expense", TransactionRequest{Amount: tt.amount, Description: "x"})
			if w.Code != http.StatusBadRequest {
				t.Fatalf("Expected status 400, got %d", w.Code)
			}
			if resp := decode[ErrorResponse](t, w); resp.Code != string(ErrorCodeInvalidArgument) {
				t.Errorf("Expected code %s, got %s", ErrorCodeInvalidArgument, resp.Code)
			}
			if !env.ledger.Balance().Equal(decimal.NewFromInt(100)) {
				t.Errorf("Ledger changed on invalid input: %s", env.ledger.Balance())
			}
		})
	}
}

func TestTransactions_MalformedBody(t *testing.T) {
	env := setup(t, 100)

	req := httptest.NewRequest(http.MethodPost, "/v1/transactions/income", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("Expected status 400, got %d", w.Code)
	}
}

func TestTransactions_Idempotency(t *testing.T) {
	env := setup(t, 100)
	body := TransactionRequest{Amount: "30", Description: "Taxi", IdempotencyKey: "idem-1"}

	first := decode[TransactionResponse](t, env.postJSON(t, "/v1/transactions/expense", body))
	w := env.postJSON(t, "/v1/transactions/expense", body)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200 on retry, got %d", w.Code)
	}
	second := decode[TransactionResponse](t, w)
	if !second.Replayed || second.TransactionID != first.TransactionID {
		t.Errorf("Expected replay of %s, got %+v", first.TransactionID, second)
	}
	if !env.ledger.Balance().Equal(decimal.NewFromInt(70)) {
		t.Errorf("Expected balance 70, got %s", env.ledger.Balance())
	}

	body.Amount = "31"
	w = env.postJSON(t, "/v1/transactions/expense", body)
	if w.Code != http.StatusConflict {
		t.Fatalf("Expected status 409, got %d", w.Code)
	}
}

func TestBalanceAndAccountCount(t *testing.T) {
	env := setup(t, 42)

	req := httptest.NewRequest(http.MethodGet, "/v1/balance", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	balance := decode[BalanceResponse](t, w)
	if balance.Owner != "User1" || balance.Balance != "42" {
		t.Errorf("Unexpected balance response: %+v", balance)
	}

	if _, err := env.registry.Open("User2", decimal.Zero); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	req = httptest.NewRequest(http.MethodGet, "/v1/accounts/count", nil)
	w = httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if count := decode[AccountCountResponse](t, w); count.TotalAccounts != 2 {
		t.Errorf("Expected 2 accounts, got %d", count.TotalAccounts)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	env := setup(t, 0)

	for _, path := range []string{"/healthz", "/metrics"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		w := httptest.NewRecorder()
		env.router.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", path, w.Code)
		}
	}
}

func TestMapEngineErrorToHTTP(t *testing.T) {
	tests := []struct {
		code       engine.ErrorCode
		wantStatus int
		wantCode   ErrorCode
	}{
		{engine.ErrorCodeInsufficientFunds, http.StatusBadRequest, ErrorCodeInsufficientFunds},
		{engine.ErrorCodeInvalidArgument, http.StatusBadRequest, ErrorCodeInvalidArgument},
		{engine.ErrorCodeDuplicateRequest, http.StatusConflict, ErrorCodeDuplicateRequest},
		{engine.ErrorCodeUnavailable, http.StatusServiceUnavailable, ErrorCodeUnavailable},
		{engine.ErrorCodeInternalError, http.StatusInternalServerError, ErrorCodeInternalError},
	}

	for _, tt := range tests {
		status, resp := MapEngineErrorToHTTP(tt.code, nil)
		if status != tt.wantStatus {
			t.Errorf("%s: expected status %d, got %d", tt.code, tt.wantStatus, status)
		}
		if resp.Code != string(tt.wantCode) {
			t.Errorf("%s: expected code %s, got %s", tt.code, tt.wantCode, resp.Code)
		}
		if resp.Message == "" {
			t.Errorf("%s: expected a default message", tt.code)
		}
	}
}
