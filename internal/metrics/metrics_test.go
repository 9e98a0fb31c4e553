package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRegister_Idempotent(t *testing.T) {
	Register()
	Register()

	if _, err := Registry.Gather(); err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
}

func TestTransactionsTotal(t *testing.T) {
	Register()

	before := testutil.ToFloat64(TransactionsTotal.WithLabelValues("Income", "applied"))
	TransactionsTotal.WithLabelValues("Income", "applied").Inc()
	after := testutil.ToFloat64(TransactionsTotal.WithLabelValues("Income", "applied"))

	if after-before != 1 {
		t.Errorf("Expected counter to grow by 1, got %v", after-before)
	}

	expected := `
# HELP finance_ledger_accounts_opened_total Count of accounts opened.
# TYPE finance_ledger_accounts_opened_total counter
finance_ledger_accounts_opened_total 0
`
	if err := testutil.GatherAndCompare(Registry, strings.NewReader(expected), "finance_ledger_accounts_opened_total"); err != nil {
		t.Errorf("Unexpected metric output: %v", err)
	}
}
