package ledger

import (
	"errors"
	"fmt"
	"sync"

	"github.com/webgraphe/phollow/internal/document"
)

// Sentinel errors for session lifecycle violations.
var (
	ErrDuplicateSession  = errors.New("session already exists")
	ErrUnknownSession    = errors.New("unknown session")
	ErrSessionTerminated = errors.New("session terminated")
	ErrSessionActive     = errors.New("session still active")
)

// Ledger is the in-memory document store and session registry.
type Ledger struct {
	mu         sync.RWMutex
	nextID     uint64
	byID       map[uint64]*document.Envelope
	order      []uint64
	sessions   map[string]*session
	bySeverity map[document.Severity]int
}

// New returns an empty ledger with the identifier counter at zero.
func New() *Ledger {
	return &Ledger{
		byID:       make(map[uint64]*document.Envelope),
		sessions:   make(map[string]*session),
		bySeverity: make(map[document.Severity]int),
	}
}

// Open registers a new session and records its synthetic connectionOpened
// document. A session identifier may be opened at most once for the lifetime
// of the process, even after termination; reopening returns
// ErrDuplicateSession.
func (l *Ledger) Open(sessionID string) (*document.Envelope, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.sessions[sessionID]; exists {
		return nil, fmt.Errorf("open session %q: %w", sessionID, ErrDuplicateSession)
	}
	s := &session{id: sessionID, state: StateOpened}
	l.sessions[sessionID] = s
	return l.accept(s, document.ConnectionOpened{}), nil
}

// Append records a producer document against an open session. Appending to a
// session never opened returns ErrUnknownSession; appending after Close
// returns ErrSessionTerminated.
func (l *Ledger) Append(sessionID string, doc document.Document) (*document.Envelope, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.openSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("append to session %q: %w", sessionID, err)
	}
	switch d := doc.(type) {
	case document.Error:
		s.errorCount++
		l.bySeverity[d.Severity]++
	case document.ScriptEnded:
		s.ended = true
	}
	return l.accept(s, doc), nil
}

// Close terminates a session, recording its synthetic connectionClosed
// document as the final accepted entry. The closed document itself receives
// an identifier; after Close the session accepts nothing further.
func (l *Ledger) Close(sessionID string) (*document.Envelope, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, err := l.openSession(sessionID)
	if err != nil {
		return nil, fmt.Errorf("close session %q: %w", sessionID, err)
	}
	env := l.accept(s, document.ConnectionClosed{})
	s.state = StateTerminated
	return env, nil
}

// Forget drops all documents of a terminated session and returns how many
// were removed. Forgetting an active session returns ErrSessionActive. The
// identifier counter never rewinds; identifiers of forgotten documents are
// retired permanently.
func (l *Ledger) Forget(sessionID string) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	s, ok := l.sessions[sessionID]
	if !ok {
		return 0, fmt.Errorf("forget session %q: %w", sessionID, ErrUnknownSession)
	}
	if s.state != StateTerminated {
		return 0, fmt.Errorf("forget session %q: %w", sessionID, ErrSessionActive)
	}
	removed := 0
	for _, id := range s.eventIDs {
		env, present := l.byID[id]
		if !present {
			continue
		}
		if errDoc, isErr := env.Document.(document.Error); isErr {
			if l.bySeverity[errDoc.Severity]--; l.bySeverity[errDoc.Severity] <= 0 {
				delete(l.bySeverity, errDoc.Severity)
			}
		}
		delete(l.byID, id)
		removed++
	}
	s.eventIDs = nil
	s.errorCount = 0
	return removed, nil
}

// Get returns the document with the given identifier, if it is still held.
func (l *Ledger) Get(id uint64) (*document.Envelope, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	env, ok := l.byID[id]
	return env, ok
}

// All returns the held documents in acceptance order, skipping forgotten
// entries.
func (l *Ledger) All() []*document.Envelope {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]*document.Envelope, 0, len(l.byID))
	for _, id := range l.order {
		if env, ok := l.byID[id]; ok {
			out = append(out, env)
		}
	}
	return out
}

// Count returns the number of documents currently held.
func (l *Ledger) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.byID)
}

// Accepted returns the total number of documents ever accepted, including
// forgotten ones. It equals the next identifier to be assigned.
func (l *Ledger) Accepted() uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.nextID
}

// Session returns the read-only view of one session.
func (l *Ledger) Session(sessionID string) (SessionInfo, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	s, ok := l.sessions[sessionID]
	if !ok {
		return SessionInfo{}, false
	}
	return s.info(), true
}

// Sessions returns the read-only views of all sessions ever opened.
func (l *Ledger) Sessions() []SessionInfo {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]SessionInfo, 0, len(l.sessions))
	for _, s := range l.sessions {
		out = append(out, s.info())
	}
	return out
}

// CountBySeverity returns a copy of the per-severity tally of held error
// documents.
func (l *Ledger) CountBySeverity() map[document.Severity]int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make(map[document.Severity]int, len(l.bySeverity))
	for sev, n := range l.bySeverity {
		out[sev] = n
	}
	return out
}

// openSession resolves a session that must be in the opened state.
func (l *Ledger) openSession(sessionID string) (*session, error) {
	s, ok := l.sessions[sessionID]
	if !ok {
		return nil, ErrUnknownSession
	}
	if s.state == StateTerminated {
		return nil, ErrSessionTerminated
	}
	return s, nil
}

// accept assigns the next identifier and stores the envelope. Caller holds
// the lock.
func (l *Ledger) accept(s *session, doc document.Document) *document.Envelope {
	env := &document.Envelope{ID: l.nextID, SessionID: s.id, Document: doc}
	l.nextID++
	l.byID[env.ID] = env
	l.order = append(l.order, env.ID)
	s.eventIDs = append(s.eventIDs, env.ID)
	return env
}
