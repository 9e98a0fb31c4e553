package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const namespace = "finance"

// Registry holds every collector exported by this process.
var Registry = prometheus.NewRegistry()

var (
	TransactionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Count of transactions submitted to the ledger, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	AccountsOpened = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "accounts_opened_total",
			Help:      "Count of accounts opened.",
		},
	)

	AutoSaveTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "autosave",
			Name:      "tasks_total",
			Help:      "Count of auto-save tasks by terminal state.",
		},
		[]string{"state"},
	)

	ListenerOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "listener",
			Name:      "outcomes_total",
			Help:      "Count of bounded listener runs by outcome.",
		},
		[]string{"outcome"},
	)

	RecordFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "persistence",
			Name:      "record_failures_total",
			Help:      "Count of transactions the recorder failed to persist.",
		},
	)
)

var registerMetrics sync.Once

// Register registers all collectors with Registry. Safe to call more than once.
func Register() {
	registerMetrics.Do(func() {
		Registry.MustRegister(
			TransactionsTotal,
			AccountsOpened,
			AutoSaveTasks,
			ListenerOutcomes,
			RecordFailures,
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	})
}
