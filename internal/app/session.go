package app

import "time"

// Session identifies one CLI invocation in the log. Every log line written
// during the invocation carries the session ID.
type Session struct {
	ID      string
	Command string
	Started time.Time
}

// NewSession creates a session for command started at now.
func NewSession(command string, now time.Time) *Session {
	return &Session{
		ID:      now.UTC().Format("20060102T150405Z"),
		Command: command,
		Started: now,
	}
}
