package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"finance-ledger/internal/transaction"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

// Config holds process settings. Defaults come from New, environment
// variables override defaults, and flags override both.
type Config struct {
	HTTPAddr string // Form API address

	ListenerAddr     string        // Bounded listener address
	ListenerDeadline time.Duration // How long the listener waits for a client

	AutoSaveTasks int           // Number of auto-save tasks launched at startup
	AutoSaveDelay time.Duration // Simulated save latency

	AccountOwner   string // Owner label of the demo account
	InitialBalance string // Opening balance as decimal text

	RecordFile     string        // JSONL sink for applied transactions; empty logs them instead
	IdempotencyTTL time.Duration // How long submission keys are remembered
	QueueSize      int           // Processor command queue size

	LogLevel string
	LogDev   bool
}

// New returns a Config initialized with default values
func New() *Config {
	return &Config{
		HTTPAddr:         ":8080",
		ListenerAddr:     ":5678",
		ListenerDeadline: 5 * time.Second,
		AutoSaveTasks:    2,
		AutoSaveDelay:    time.Second,
		AccountOwner:     "User1",
		InitialBalance:   "1000",
		IdempotencyTTL:   24 * time.Hour,
		QueueSize:        1000,
		LogLevel:         "info",
	}
}

// LoadEnv applies environment overrides using lookup (os.LookupEnv when nil)
func (c *Config) LoadEnv(lookup func(string) (string, bool)) error {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	strVars := map[string]*string{
		"APP_ADDR":        &c.HTTPAddr,
		"LISTENER_ADDR":   &c.ListenerAddr,
		"ACCOUNT_OWNER":   &c.AccountOwner,
		"INITIAL_BALANCE": &c.InitialBalance,
		"RECORD_FILE":     &c.RecordFile,
		"LOG_LEVEL":       &c.LogLevel,
	}
	for key, dst := range strVars {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	durVars := map[string]*time.Duration{
		"LISTENER_DEADLINE": &c.ListenerDeadline,
		"AUTOSAVE_DELAY":    &c.AutoSaveDelay,
		"IDEMPOTENCY_TTL":   &c.IdempotencyTTL,
	}
	for key, dst := range durVars {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = d
	}

	intVars := map[string]*int{
		"AUTOSAVE_TASKS": &c.AutoSaveTasks,
		"QUEUE_SIZE":     &c.QueueSize,
	}
	for key, dst := range intVars {
		v, ok := lookup(key)
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", key, v, err)
		}
		*dst = n
	}

	if v, ok := lookup("LOG_DEV"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid LOG_DEV %q: %w", v, err)
		}
		c.LogDev = b
	}

	return nil
}

// AddFlags binds the Config fields to command-line flags on the given FlagSet
func (c *Config) AddFlags(fs *pflag.FlagSet) {
	if fs == nil {
		fs = pflag.CommandLine
	}

	fs.StringVar(&c.HTTPAddr, "http-addr", c.HTTPAddr,
		"Address of the HTTP form API.")
	fs.StringVar(&c.ListenerAddr, "listener-addr", c.ListenerAddr,
		"Address the finance server accepts its single client on.")
	fs.DurationVar(&c.ListenerDeadline, "listener-deadline", c.ListenerDeadline,
		"How long the finance server waits for a client before closing.")
	fs.IntVar(&c.AutoSaveTasks, "autosave-tasks", c.AutoSaveTasks,
		"Number of auto-save tasks launched at startup.")
	fs.DurationVar(&c.AutoSaveDelay, "autosave-delay", c.AutoSaveDelay,
		"Simulated latency of each auto-save.")
	fs.StringVar(&c.AccountOwner, "account-owner", c.AccountOwner,
		"Owner label of the account.")
	fs.StringVar(&c.InitialBalance, "initial-balance", c.InitialBalance,
		"Opening balance of the account.")
	fs.StringVar(&c.RecordFile, "record-file", c.RecordFile,
		"JSON lines file that receives applied transactions. Empty logs them instead.")
	fs.DurationVar(&c.IdempotencyTTL, "idempotency-ttl", c.IdempotencyTTL,
		"How long submission idempotency keys are remembered.")
	fs.IntVar(&c.QueueSize, "queue-size", c.QueueSize,
		"Size of the transaction command queue.")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel,
		"Log level: debug, info, warn, error.")
	fs.BoolVar(&c.LogDev, "log-dev", c.LogDev,
		"Use the human readable development logger.")
}

// Validate checks the Config for invalid values
func (c *Config) Validate() error {
	if c.HTTPAddr == "" {
		return fmt.Errorf("http-addr must not be empty")
	}
	if c.ListenerAddr == "" {
		return fmt.Errorf("listener-addr must not be empty")
	}
	if c.ListenerDeadline <= 0 {
		return fmt.Errorf("listener-deadline must be positive, got %s", c.ListenerDeadline)
	}
	if c.AutoSaveTasks < 0 {
		return fmt.Errorf("autosave-tasks must not be negative, got %d", c.AutoSaveTasks)
	}
	if c.AutoSaveDelay <= 0 {
		return fmt.Errorf("autosave-delay must be positive, got %s", c.AutoSaveDelay)
	}
	if c.AccountOwner == "" {
		return fmt.Errorf("account-owner must not be empty")
	}
	if _, err := c.OpeningBalance(); err != nil {
		return err
	}
	if c.IdempotencyTTL <= 0 {
		return fmt.Errorf("idempotency-ttl must be positive, got %s", c.IdempotencyTTL)
	}
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue-size must be positive, got %d", c.QueueSize)
	}
	return nil
}

// OpeningBalance parses InitialBalance
func (c *Config) OpeningBalance() (decimal.Decimal, error) {
	d, err := transaction.ParseAmount(c.InitialBalance)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid initial-balance: %w", err)
	}
	return d, nil
}
