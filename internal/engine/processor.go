package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"finance-ledger/internal/account"
	"finance-ledger/internal/logging"
	"finance-ledger/internal/metrics"
	"finance-ledger/internal/persistence"
	"finance-ledger/internal/transaction"

	"go.uber.org/zap"
)

const (
	defaultIdempotencyCleanupInterval = time.Minute
	recordTimeout                     = 5 * time.Second
)

// Config holds configuration for the processor
type Config struct {
	QueueSize       int           // Command queue size (default: 1000)
	IdempotencyTTL  time.Duration // Idempotency record TTL (default: 24h)
	CleanupInterval time.Duration // How often expired idempotency records are swept (default: 1m)
}

// DefaultConfig returns default processor configuration
func DefaultConfig() *Config {
	return &Config{
		QueueSize:       1000,
		IdempotencyTTL:  24 * time.Hour,
		CleanupInterval: defaultIdempotencyCleanupInterval,
	}
}

// Processor owns all ledger writes submitted through it and applies them one
// at a time on a single goroutine.
type Processor struct {
	ledger    account.Service
	recorder  persistence.Recorder
	logger    *zap.Logger
	cmdQueue  chan *commandRequest
	idemStore *IdempotencyStore
	cleanup   time.Duration

	submitMu sync.RWMutex
	stopped  bool
	wg       sync.WaitGroup
}

// commandRequest wraps a command with a response channel
type commandRequest struct {
	ctx      context.Context
	command  *Command
	respChan chan *Result
}

// NewProcessor creates a processor; call Start before submitting
func NewProcessor(ledger account.Service, recorder persistence.Recorder, config *Config, logger *zap.Logger) *Processor {
	defaults := DefaultConfig()
	if config == nil {
		config = defaults
	}
	if config.QueueSize <= 0 {
		config.QueueSize = defaults.QueueSize
	}
	if config.IdempotencyTTL <= 0 {
		config.IdempotencyTTL = defaults.IdempotencyTTL
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	logger = logging.OrNop(logger)
	if recorder == nil {
		recorder = persistence.NewLogRecorder(logger)
	}

	return &Processor{
		ledger:    ledger,
		recorder:  recorder,
		logger:    logger.Named("processor"),
		cmdQueue:  make(chan *commandRequest, config.QueueSize),
		idemStore: NewIdempotencyStore(config.IdempotencyTTL),
		cleanup:   config.CleanupInterval,
	}
}

// Start starts the processor's event loop in a goroutine
func (p *Processor) Start() {
	p.wg.Add(1)
	go p.eventLoop()
}

// Stop gracefully stops the event loop after queued commands are processed
func (p *Processor) Stop() {
	p.submitMu.Lock()
	if p.stopped {
		p.submitMu.Unlock()
		return
	}
	p.stopped = true
	close(p.cmdQueue)
	p.submitMu.Unlock()

	p.wg.Wait()
}

// Submit queues a command and waits for its result or for ctx to end
func (p *Processor) Submit(ctx context.Context, command *Command) *Result {
	if command == nil {
		return &Result{
			ErrorCode: ErrorCodeInvalidArgument,
			Err:       fmt.Errorf("command is nil"),
		}
	}

	respChan := make(chan *Result, 1)
	req := &commandRequest{
		ctx:      ctx,
		command:  command,
		respChan: respChan,
	}

	p.submitMu.RLock()
	if p.stopped {
		p.submitMu.RUnlock()
		return &Result{
			Transaction: command.Transaction,
			ErrorCode:   ErrorCodeUnavailable,
			Err:         fmt.Errorf("processor is stopped"),
		}
	}
	select {
	case p.cmdQueue <- req:
	case <-ctx.Done():
		p.submitMu.RUnlock()
		return &Result{
			Transaction: command.Transaction,
			ErrorCode:   ErrorCodeUnavailable,
			Err:         ctx.Err(),
		}
	}
	p.submitMu.RUnlock()

	select {
	case result := <-respChan:
		return result
	case <-ctx.Done():
		// The command may still be applied; the caller only stops waiting.
		return &Result{
			Transaction: command.Transaction,
			ErrorCode:   ErrorCodeUnavailable,
			Err:         ctx.Err(),
		}
	}
}

// eventLoop is the main event loop that processes commands serially
func (p *Processor) eventLoop() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cleanup)
	defer ticker.Stop()

	for {
		select {
		case req, ok := <-p.cmdQueue:
			if !ok {
				return
			}
			if req == nil {
				continue
			}
			req.respChan <- p.processCommand(req.ctx, req.command)
		case <-ticker.C:
			p.idemStore.Cleanup()
		}
	}
}

// processCommand processes a single command
func (p *Processor) processCommand(ctx context.Context, command *Command) *Result {
	if command.IdempotencyKey != "" {
		cached, err := p.idemStore.Check(command.IdempotencyKey, command.PayloadHash)
		if err != nil {
			return &Result{
				Transaction: command.Transaction,
				Balance:     p.ledger.Balance(),
				ErrorCode:   ErrorCodeDuplicateRequest,
				Err:         err,
			}
		}
		if cached != nil {
			return cached
		}
	}

	result := p.apply(ctx, command.Transaction)

	// Only outcomes decided by the ledger are cached.
	if command.IdempotencyKey != "" && result.ErrorCode != ErrorCodeInternalError {
		p.idemStore.Store(command.IdempotencyKey, command.PayloadHash, result)
	}

	return result
}

// apply runs the transaction against the ledger and hands successes to the recorder
func (p *Processor) apply(ctx context.Context, txn transaction.Transaction) *Result {
	logger := p.logger.With(
		zap.String("transaction_id", txn.ID),
		zap.String("kind", string(txn.Kind)),
		zap.String("amount", txn.Amount.String()),
	)

	if err := txn.Apply(p.ledger); err != nil {
		code := mapErrorCode(err)
		metrics.TransactionsTotal.WithLabelValues(string(txn.Kind), outcomeLabel(code)).Inc()
		logger.Warn("transaction rejected", zap.Error(err))
		return &Result{
			Transaction: txn,
			Balance:     p.ledger.Balance(),
			ErrorCode:   code,
			Err:         err,
		}
	}

	balance := p.ledger.Balance()
	metrics.TransactionsTotal.WithLabelValues(string(txn.Kind), "applied").Inc()
	logger.Info(txn.Describe(), zap.String("balance", balance.String()))

	recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := p.recorder.Record(recordCtx, persistence.Record{
		TransactionID: txn.ID,
		Kind:          string(txn.Kind),
		Amount:        txn.Amount,
		Description:   txn.Description,
		RecordedAt:    time.Now().UTC(),
	}); err != nil {
		// The ledger already moved; a recorder failure is reported, not rolled back.
		metrics.RecordFailures.Inc()
		logger.Error("failed to record transaction", zap.Error(err))
	}

	return &Result{
		Transaction: txn,
		Balance:     balance,
		ErrorCode:   ErrorCodeNone,
	}
}

// mapErrorCode maps ledger and validation errors to error codes
func mapErrorCode(err error) ErrorCode {
	switch {
	case errors.Is(err, account.ErrInsufficientFunds):
		return ErrorCodeInsufficientFunds
	case errors.Is(err, account.ErrInvalidAmount),
		errors.Is(err, transaction.ErrValidation),
		errors.Is(err, transaction.ErrUnknownKind):
		return ErrorCodeInvalidArgument
	default:
		return ErrorCodeInternalError
	}
}

func outcomeLabel(code ErrorCode) string {
	switch code {
	case ErrorCodeInsufficientFunds:
		return "insufficient_funds"
	case ErrorCodeInvalidArgument:
		return "invalid"
	default:
		return "error"
	}
}
