package listener

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"finance-ledger/internal/metrics"

	"go.uber.org/zap"
)

const (
	DefaultAddr     = ":5678"
	DefaultDeadline = 5 * time.Second
	DefaultGreeting = "Connected to Finance Server\n"

	writeTimeout = 2 * time.Second
)

// State of a BoundedListener
type State int32

const (
	StateIdle State = iota // not bound yet, or bind failed
	StateListening
	StateConnected
	StateTimedOut
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateListening:
		return "Listening"
	case StateConnected:
		return "Connected"
	case StateTimedOut:
		return "TimedOut"
	case StateClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// Outcome tells how a listener run ended
type Outcome string

const (
	OutcomeConnected Outcome = "connected"
	OutcomeTimedOut  Outcome = "timed_out"
)

// Config holds listener settings
type Config struct {
	Addr     string        // TCP address to bind (default ":5678")
	Deadline time.Duration // How long to wait for a client (default 5s)
	Greeting string        // Line written to the client (default DefaultGreeting)
}

// BoundedListener accepts at most one connection before its deadline, writes
// the greeting, and closes. It is single-use.
type BoundedListener struct {
	cfg    Config
	logger *zap.Logger

	started atomic.Bool
	ready   chan struct{}

	mu      sync.Mutex
	state   State
	history []State
	addr    net.Addr
}

// New creates a listener; zero config fields take their defaults
func New(cfg Config, logger *zap.Logger) *BoundedListener {
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}
	if cfg.Deadline <= 0 {
		cfg.Deadline = DefaultDeadline
	}
	if cfg.Greeting == "" {
		cfg.Greeting = DefaultGreeting
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &BoundedListener{
		cfg:    cfg,
		logger: logger.Named("listener"),
		ready:  make(chan struct{}),
	}
}

// Start binds, waits for one client up to the deadline, and closes. It blocks
// for up to the deadline, so callers run it on its own goroutine.
//
// A client that arrives in time gets the greeting and OutcomeConnected. If the
// deadline passes first the result is OutcomeTimedOut with a nil error. If ctx
// ends first the wait is abandoned the same way, but ctx.Err() is returned.
// Bind failures return a *BindError and the listener never reaches Listening.
func (l *BoundedListener) Start(ctx context.Context) (Outcome, error) {
	if !l.started.CompareAndSwap(false, true) {
		return "", ErrAlreadyStarted
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", l.cfg.Addr)
	if err != nil {
		l.logger.Error("failed to bind", zap.String("addr", l.cfg.Addr), zap.Error(err))
		metrics.ListenerOutcomes.WithLabelValues("bind_error").Inc()
		return "", &BindError{Addr: l.cfg.Addr, Err: err}
	}
	tcpLn := ln.(*net.TCPListener)

	l.mu.Lock()
	l.addr = ln.Addr()
	l.mu.Unlock()
	l.transition(StateListening)
	close(l.ready)

	defer func() {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			l.logger.Warn("failed to close listening socket", zap.Error(err))
		}
		l.transition(StateClosed)
		l.logger.Info("finance server closed")
	}()

	l.logger.Info("finance server started",
		zap.String("addr", ln.Addr().String()),
		zap.Duration("deadline", l.cfg.Deadline),
	)

	deadline := time.Now().Add(l.cfg.Deadline)
	if err := tcpLn.SetDeadline(deadline); err != nil {
		return "", fmt.Errorf("set accept deadline: %w", err)
	}

	// Cancelling ctx pulls the deadline in so Accept returns immediately.
	// cancelled is only set when that happens before the deadline.
	var cancelled atomic.Bool
	stop := context.AfterFunc(ctx, func() {
		if time.Now().Before(deadline) {
			cancelled.Store(true)
		}
		_ = tcpLn.SetDeadline(time.Now())
	})
	defer stop()

	conn, err := tcpLn.Accept()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			l.transition(StateTimedOut)
			metrics.ListenerOutcomes.WithLabelValues(string(OutcomeTimedOut)).Inc()
			if cancelled.Load() {
				ctxErr := ctx.Err()
				l.logger.Info("stopped waiting for client", zap.Error(ctxErr))
				return OutcomeTimedOut, ctxErr
			}
			l.logger.Info("no client connected, closing server")
			return OutcomeTimedOut, nil
		}
		return "", fmt.Errorf("accept: %w", err)
	}

	l.transition(StateConnected)
	metrics.ListenerOutcomes.WithLabelValues(string(OutcomeConnected)).Inc()
	l.logger.Info("client connected", zap.String("remote", conn.RemoteAddr().String()))

	if err := l.greet(conn); err != nil {
		return OutcomeConnected, err
	}
	return OutcomeConnected, nil
}

// greet writes the greeting and closes the peer connection
func (l *BoundedListener) greet(conn net.Conn) error {
	defer conn.Close()

	if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("set write deadline: %w", err)
	}
	if _, err := conn.Write([]byte(l.cfg.Greeting)); err != nil {
		return fmt.Errorf("write greeting: %w", err)
	}
	return nil
}

func (l *BoundedListener) transition(next State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state = next
	l.history = append(l.history, next)
}

// Ready is closed once the socket is bound
func (l *BoundedListener) Ready() <-chan struct{} {
	return l.ready
}

// Addr returns the bound address, or nil before binding
func (l *BoundedListener) Addr() net.Addr {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.addr
}

// State returns the current state
func (l *BoundedListener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// History returns every state visited, in order
func (l *BoundedListener) History() []State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]State(nil), l.history...)
}
