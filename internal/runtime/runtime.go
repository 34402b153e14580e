package runtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	cfgpkg "github.com/webgraphe/phollow/internal/config"
	"github.com/webgraphe/phollow/internal/document"
	"github.com/webgraphe/phollow/internal/fanout"
	"github.com/webgraphe/phollow/internal/ledger"
	logpkg "github.com/webgraphe/phollow/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	Config cfgpkg.Config
	Logger logpkg.Logger
}

// Runtime wires the ledger, the viewer hub, and config for a single-node
// instance. The mutation methods serialize {ledger mutation, broadcast
// enqueue} under one lock so every viewer observes documents in acceptance
// order; actual delivery happens on per-viewer writers and never holds the
// lock.
type Runtime struct {
	mu        sync.Mutex
	ledger    *ledger.Ledger
	hub       *fanout.Hub
	config    cfgpkg.Config
	logger    logpkg.Logger
	bootID    string
	startedAt time.Time
	closed    bool
}

// Open builds a Runtime from options.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("runtime"))
	}
	rt := &Runtime{
		ledger:    ledger.New(),
		hub:       fanout.NewHub(fanout.WithLogger(logger.With(logpkg.Component("fanout")))),
		config:    opts.Config,
		logger:    logger,
		bootID:    uuid.NewString(),
		startedAt: time.Now(),
	}
	return rt, nil
}

// Close drops all viewers. The ledger needs no teardown.
func (r *Runtime) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	r.mu.Unlock()
	r.hub.Close()
	return nil
}

// OpenSession registers a producer session and broadcasts its synthetic
// connectionOpened document.
func (r *Runtime) OpenSession(sessionID string) (*document.Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, err := r.ledger.Open(sessionID)
	if err != nil {
		return nil, err
	}
	r.hub.Broadcast(env)
	return env, nil
}

// AppendDocument records a producer document and broadcasts it.
func (r *Runtime) AppendDocument(sessionID string, doc document.Document) (*document.Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, err := r.ledger.Append(sessionID, doc)
	if err != nil {
		return nil, err
	}
	r.hub.Broadcast(env)
	return env, nil
}

// CloseSession terminates a producer session and broadcasts its synthetic
// connectionClosed document.
func (r *Runtime) CloseSession(sessionID string) (*document.Envelope, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	env, err := r.ledger.Close(sessionID)
	if err != nil {
		return nil, err
	}
	r.hub.Broadcast(env)
	return env, nil
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return errors.New("runtime closed")
	}
	return nil
}

// Ledger exposes the document store for read paths.
func (r *Runtime) Ledger() *ledger.Ledger { return r.ledger }

// Hub exposes the viewer hub for the push transport.
func (r *Runtime) Hub() *fanout.Hub { return r.hub }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the runtime logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }

// BootID identifies this process instance; it changes on every start.
func (r *Runtime) BootID() string { return r.bootID }

// StartedAt is the process start time, used for uptime reporting.
func (r *Runtime) StartedAt() time.Time { return r.startedAt }
