package fanout

import (
	"sync"

	"github.com/webgraphe/phollow/internal/document"
	logpkg "github.com/webgraphe/phollow/pkg/log"
)

// defaultQueueLen is the per-viewer buffered queue capacity.
const defaultQueueLen = 256

// Viewer is one connected dashboard transport. Send must be safe to call
// from the viewer's writer goroutine; Close tears the transport down.
type Viewer interface {
	Send(payload []byte) error
	Close() error
}

// AcceptFunc decides whether a viewer receives a given document. A nil
// AcceptFunc receives everything.
type AcceptFunc func(env *document.Envelope) bool

// viewerState pairs a viewer with its queue and filter.
type viewerState struct {
	viewer Viewer
	accept AcceptFunc
	queue  chan []byte
	done   chan struct{}
	once   sync.Once
}

// Hub fans accepted documents out to registered viewers.
type Hub struct {
	mu       sync.Mutex
	viewers  map[Viewer]*viewerState
	queueLen int
	logger   logpkg.Logger
	closed   bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithQueueLen overrides the per-viewer queue capacity.
func WithQueueLen(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.queueLen = n
		}
	}
}

// WithLogger injects the hub logger.
func WithLogger(logger logpkg.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHub returns an empty hub.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		viewers:  make(map[Viewer]*viewerState),
		queueLen: defaultQueueLen,
		logger:   logpkg.NewLogger().With(logpkg.Component("fanout")),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds a viewer and starts its writer goroutine. The accept
// predicate is evaluated per document at broadcast time; nil accepts all.
func (h *Hub) Register(v Viewer, accept AcceptFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		_ = v.Close()
		return
	}
	if _, exists := h.viewers[v]; exists {
		return
	}
	st := &viewerState{
		viewer: v,
		accept: accept,
		queue:  make(chan []byte, h.queueLen),
		done:   make(chan struct{}),
	}
	h.viewers[v] = st
	go h.writeLoop(st)
	h.logger.Debug("viewer registered", logpkg.Int("viewers", len(h.viewers)))
}

// Unregister removes a viewer, stops its writer, and closes its transport.
// Unregistering a viewer the hub no longer tracks is a no-op.
func (h *Hub) Unregister(v Viewer) {
	h.mu.Lock()
	st, ok := h.viewers[v]
	if ok {
		delete(h.viewers, v)
	}
	remaining := len(h.viewers)
	h.mu.Unlock()
	if !ok {
		return
	}
	st.stop()
	_ = v.Close()
	h.logger.Debug("viewer unregistered", logpkg.Int("viewers", remaining))
}

// Broadcast encodes the envelope once and enqueues it to every viewer whose
// predicate accepts it. Enqueueing never blocks; a viewer with a full queue
// is dropped.
func (h *Hub) Broadcast(env *document.Envelope) {
	payload, err := env.MarshalJSON()
	if err != nil {
		h.logger.Error("encode document", logpkg.Err(err), logpkg.Uint64("id", env.ID))
		return
	}

	h.mu.Lock()
	var overflowed []*viewerState
	for _, st := range h.viewers {
		if st.accept != nil && !st.accept(env) {
			continue
		}
		select {
		case st.queue <- payload:
		default:
			delete(h.viewers, st.viewer)
			overflowed = append(overflowed, st)
		}
	}
	h.mu.Unlock()

	for _, st := range overflowed {
		st.stop()
		_ = st.viewer.Close()
		h.logger.Warn("viewer queue overflow, dropping viewer", logpkg.Uint64("id", env.ID))
	}
}

// ViewerCount returns the number of registered viewers.
func (h *Hub) ViewerCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.viewers)
}

// Close drops every viewer and rejects further registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	states := make([]*viewerState, 0, len(h.viewers))
	for _, st := range h.viewers {
		states = append(states, st)
	}
	h.viewers = make(map[Viewer]*viewerState)
	h.mu.Unlock()

	for _, st := range states {
		st.stop()
		_ = st.viewer.Close()
	}
}

// writeLoop drains one viewer's queue. A transport error drops the viewer.
func (h *Hub) writeLoop(st *viewerState) {
	for {
		select {
		case payload := <-st.queue:
			if err := st.viewer.Send(payload); err != nil {
				h.logger.Debug("viewer send failed", logpkg.Err(err))
				h.Unregister(st.viewer)
				return
			}
		case <-st.done:
			return
		}
	}
}

func (st *viewerState) stop() {
	st.once.Do(func() { close(st.done) })
}
