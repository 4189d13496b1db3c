package domain

// SessionStatus represents the lifecycle state of a search session.
type SessionStatus string

const (
	SessionConnecting SessionStatus = "CONNECTING"
	SessionStreaming  SessionStatus = "STREAMING"
	SessionComplete   SessionStatus = "COMPLETE"
	SessionAborted    SessionStatus = "ABORTED"
)

// String returns the string representation of SessionStatus.
func (s SessionStatus) String() string {
	return string(s)
}

// IsTerminal reports whether the session can no longer change.
// Terminal sessions are immutable and are never merged into another session.
func (s SessionStatus) IsTerminal() bool {
	return s == SessionComplete || s == SessionAborted
}

// IsValid checks if the status is a valid value.
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionConnecting, SessionStreaming, SessionComplete, SessionAborted:
		return true
	}
	return false
}

// SessionRecord is the archived form of a terminated session.
// Corresponds to the sessions table in PostgreSQL.
type SessionRecord struct {
	SessionID        string
	Query            string
	Status           SessionStatus // COMPLETE | ABORTED
	StartedAt        int64         // Unix timestamp in milliseconds
	EndedAt          int64         // Unix timestamp in milliseconds
	EventsTotal      int           // size of the final accumulated set
	SourcesTotal     int           // sources observed during the session
	SourcesSucceeded int           // sources that reached SUCCESS
	Summary          string        // human-facing diagnostics summary
}
