package docsvc

import (
	"fmt"
	"sort"
	"time"

	"github.com/webgraphe/phollow/internal/document"
	"github.com/webgraphe/phollow/internal/ledger"
	"github.com/webgraphe/phollow/internal/runtime"
	logpkg "github.com/webgraphe/phollow/pkg/log"
)

// Version reported by the meta endpoint.
const Version = "0.1.0"

// Service provides read and housekeeping operations over the ledger.
type Service struct {
	rt     *runtime.Runtime
	logger logpkg.Logger
}

// New returns a Service using a default logger.
func New(rt *runtime.Runtime) *Service {
	return NewWithLogger(rt, nil)
}

// NewWithLogger constructs the service with an injected logger.
func NewWithLogger(rt *runtime.Runtime, logger logpkg.Logger) *Service {
	if logger == nil {
		logger = logpkg.NewLogger().With(logpkg.Component("documents"))
	}
	return &Service{rt: rt, logger: logger}
}

// ListOptions narrows a ListDocuments call.
type ListOptions struct {
	// Filter is an optional CEL expression; empty lists everything.
	Filter string
	// Limit caps the result count; zero or negative means no cap.
	Limit int
}

// ListDocuments returns held documents in acceptance order, optionally
// narrowed by a CEL filter and a result cap.
func (s *Service) ListDocuments(opts ListOptions) ([]*document.Envelope, error) {
	accept, err := NewFilter(opts.Filter)
	if err != nil {
		return nil, fmt.Errorf("compile filter: %w", err)
	}
	all := s.rt.Ledger().All()
	out := make([]*document.Envelope, 0, len(all))
	for _, env := range all {
		if accept != nil && !accept(env) {
			continue
		}
		out = append(out, env)
		if opts.Limit > 0 && len(out) >= opts.Limit {
			break
		}
	}
	return out, nil
}

// GetDocument returns one held document by identifier.
func (s *Service) GetDocument(id uint64) (*document.Envelope, bool) {
	return s.rt.Ledger().Get(id)
}

// Meta is the aggregate view served by the meta endpoint.
type Meta struct {
	ApplicationName string                    `json:"applicationName"`
	Version         string                    `json:"version"`
	BootID          string                    `json:"bootId"`
	UptimeSeconds   int64                     `json:"uptimeSeconds"`
	Documents       int                       `json:"documents"`
	Accepted        uint64                    `json:"accepted"`
	BySeverity      map[document.Severity]int `json:"bySeverity"`
	ByClass         map[document.Class]int    `json:"byClass"`
	Sessions        []ledger.SessionInfo      `json:"sessions"`
	Viewers         int                       `json:"viewers"`
}

// Meta aggregates ledger counters and session state for the dashboard.
func (s *Service) Meta() Meta {
	l := s.rt.Ledger()
	bySeverity := l.CountBySeverity()
	byClass := make(map[document.Class]int)
	for sev, n := range bySeverity {
		byClass[sev.Class()] += n
	}
	sessions := l.Sessions()
	sort.Slice(sessions, func(i, j int) bool { return sessions[i].ID < sessions[j].ID })
	return Meta{
		ApplicationName: s.rt.Config().ApplicationName,
		Version:         Version,
		BootID:          s.rt.BootID(),
		UptimeSeconds:   int64(time.Since(s.rt.StartedAt()) / time.Second),
		Documents:       l.Count(),
		Accepted:        l.Accepted(),
		BySeverity:      bySeverity,
		ByClass:         byClass,
		Sessions:        sessions,
		Viewers:         s.rt.Hub().ViewerCount(),
	}
}

// ForgetSession drops the documents of a terminated session and reports how
// many were removed.
func (s *Service) ForgetSession(sessionID string) (int, error) {
	removed, err := s.rt.Ledger().Forget(sessionID)
	if err != nil {
		return 0, err
	}
	s.logger.Info("session forgotten",
		logpkg.Str("session", sessionID), logpkg.Int("removed", removed))
	return removed, nil
}
