package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"finance-ledger/internal/account"
	"finance-ledger/internal/api"
	"finance-ledger/internal/autosave"
	"finance-ledger/internal/config"
	"finance-ledger/internal/engine"
	"finance-ledger/internal/listener"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/metrics"
	"finance-ledger/internal/persistence"
	"finance-ledger/internal/transaction"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// App wires the ledger, the background tasks, the bounded listener and the
// form API together.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	registry  *account.Registry
	ledger    *account.Ledger
	recorder  persistence.Recorder
	processor *engine.Processor
	listener  *listener.BoundedListener
	server    *http.Server

	ready        chan struct{}
	httpAddr     net.Addr
	listenerDone chan struct{}
	listenerErr  error
}

// New builds the application from cfg. Nothing is started yet.
func New(cfg *config.Config, logger *zap.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.New()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	logger = logging.OrNop(logger)

	opening, err := cfg.OpeningBalance()
	if err != nil {
		return nil, err
	}

	registry := account.NewRegistry()
	ledger, err := registry.Open(cfg.AccountOwner, opening)
	if err != nil {
		return nil, fmt.Errorf("failed to open account: %w", err)
	}

	var recorder persistence.Recorder
	if cfg.RecordFile != "" {
		fileRecorder, err := persistence.NewFileRecorder(cfg.RecordFile)
		if err != nil {
			return nil, err
		}
		recorder = fileRecorder
	} else {
		recorder = persistence.NewLogRecorder(logger)
	}

	processor := engine.NewProcessor(ledger, recorder, &engine.Config{
		QueueSize:      cfg.QueueSize,
		IdempotencyTTL: cfg.IdempotencyTTL,
	}, logger)

	handler := api.NewHandler(processor, ledger, registry)

	return &App{
		cfg:       cfg,
		logger:    logger,
		registry:  registry,
		ledger:    ledger,
		recorder:  recorder,
		processor: processor,
		listener: listener.New(listener.Config{
			Addr:     cfg.ListenerAddr,
			Deadline: cfg.ListenerDeadline,
		}, logger),
		server: &http.Server{
			Handler:           api.NewRouter(handler, logger),
			ReadHeaderTimeout: 5 * time.Second,
		},
		ready:        make(chan struct{}),
		listenerDone: make(chan struct{}),
	}, nil
}

// ScenarioReport is what the startup scenario observed
type ScenarioReport struct {
	FinalBalance  decimal.Decimal
	TotalAccounts int64
	OverspendErr  error
	AutoSave      <-chan autosave.Result
}

// RunScenario applies the demo transactions on the calling goroutine, launches
// the auto-save tasks without waiting for them, and tries to overspend.
func (a *App) RunScenario(ctx context.Context) (ScenarioReport, error) {
	income, err := transaction.Income(decimal.NewFromInt(500), "Salary")
	if err != nil {
		return ScenarioReport{}, err
	}
	if err := a.applyAndRecord(ctx, income); err != nil {
		return ScenarioReport{}, err
	}

	expense, err := transaction.Expense(decimal.NewFromInt(200), "Groceries")
	if err != nil {
		return ScenarioReport{}, err
	}
	if err := a.applyAndRecord(ctx, expense); err != nil {
		return ScenarioReport{}, err
	}

	report := ScenarioReport{
		FinalBalance:  a.ledger.Balance(),
		TotalAccounts: a.registry.AccountCount(),
	}
	a.logger.Info("final balance", zap.String("balance", report.FinalBalance.String()))
	a.logger.Info("total accounts", zap.Int64("count", report.TotalAccounts))

	tasks := make([]*autosave.Task, a.cfg.AutoSaveTasks)
	for i := range tasks {
		tasks[i] = autosave.NewTask(fmt.Sprintf("AutoSave-%d", i+1), a.cfg.AutoSaveDelay, a.logger.Named("autosave"))
	}
	report.AutoSave = autosave.Launch(ctx, a.logger, tasks...)

	a.logger.Info("trying to overspend")
	overspend, err := transaction.Expense(decimal.NewFromInt(2000), "Overspend")
	if err != nil {
		return ScenarioReport{}, err
	}
	if err := a.applyAndRecord(ctx, overspend); err != nil {
		if !errors.Is(err, account.ErrInsufficientFunds) {
			return ScenarioReport{}, err
		}
		a.logger.Warn("transaction failed", zap.Error(err))
		report.OverspendErr = err
	}

	return report, nil
}

// applyAndRecord applies txn to the ledger and, on success, hands it to the recorder
func (a *App) applyAndRecord(ctx context.Context, txn transaction.Transaction) error {
	if err := txn.Apply(a.ledger); err != nil {
		metrics.TransactionsTotal.WithLabelValues(string(txn.Kind), "rejected").Inc()
		return err
	}
	metrics.TransactionsTotal.WithLabelValues(string(txn.Kind), "applied").Inc()
	a.logger.Info(txn.Describe())

	if err := a.recorder.Record(ctx, persistence.Record{
		TransactionID: txn.ID,
		Kind:          string(txn.Kind),
		Amount:        txn.Amount,
		Description:   txn.Description,
		RecordedAt:    time.Now().UTC(),
	}); err != nil {
		metrics.RecordFailures.Inc()
		a.logger.Error("failed to record transaction", zap.String("transaction_id", txn.ID), zap.Error(err))
	}
	return nil
}

// Run runs the scenario, then serves the form API and the bounded listener
// until ctx is cancelled. A listener failure is logged and does not stop Run.
func (a *App) Run(ctx context.Context) error {
	defer func() {
		if err := a.recorder.Close(); err != nil {
			a.logger.Warn("failed to close recorder", zap.Error(err))
		}
	}()

	ln, err := net.Listen("tcp", a.cfg.HTTPAddr)
	if err != nil {
		return fmt.Errorf("failed to bind http server: %w", err)
	}
	a.httpAddr = ln.Addr()

	a.processor.Start()
	defer a.processor.Stop()

	if _, err := a.RunScenario(ctx); err != nil {
		ln.Close()
		return fmt.Errorf("scenario failed: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(a.listenerDone)
		outcome, err := a.listener.Start(gctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			a.listenerErr = err
			a.logger.Error("finance server stopped", zap.Error(err))
			return nil
		}
		a.logger.Info("finance server finished", zap.String("outcome", string(outcome)))
		return nil
	})

	g.Go(func() error {
		a.logger.Info("form API listening", zap.String("addr", ln.Addr().String()))
		if err := a.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	close(a.ready)
	return g.Wait()
}

// Ready is closed once Run has bound the HTTP server and started its units
func (a *App) Ready() <-chan struct{} {
	return a.ready
}

// HTTPAddr returns the bound form API address; valid after Ready
func (a *App) HTTPAddr() net.Addr {
	return a.httpAddr
}

// Listener returns the bounded listener
func (a *App) Listener() *listener.BoundedListener {
	return a.listener
}

// ListenerDone is closed when the listener goroutine exits
func (a *App) ListenerDone() <-chan struct{} {
	return a.listenerDone
}

// ListenerErr returns the error the listener stopped with; valid after ListenerDone
func (a *App) ListenerErr() error {
	return a.listenerErr
}

// Ledger returns the account ledger
func (a *App) Ledger() *account.Ledger {
	return a.ledger
}
