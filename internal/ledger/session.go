package ledger

// SessionState is the lifecycle position of a producer session.
type SessionState string

// Session lifecycle states
const (
	StateOpened     SessionState = "opened"
	StateTerminated SessionState = "terminated"
)

// session is the ledger-internal session record.
type session struct {
	id         string
	state      SessionState
	eventIDs   []uint64
	errorCount int
	ended      bool // a scriptEnded document was accepted
}

// SessionInfo is the read-only view of a session handed to callers.
type SessionInfo struct {
	ID         string       `json:"id"`
	State      SessionState `json:"state"`
	EventCount int          `json:"eventCount"`
	ErrorCount int          `json:"errorCount"`
	Ended      bool         `json:"ended"`
}

func (s *session) info() SessionInfo {
	return SessionInfo{
		ID:         s.id,
		State:      s.state,
		EventCount: len(s.eventIDs),
		ErrorCount: s.errorCount,
		Ended:      s.ended,
	}
}
