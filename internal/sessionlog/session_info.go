package sessionlog

import "fmt"

// SessionStarted logs a session's creation, including the mode it was
// invoked with.
func (l *Logger) SessionStarted(sessionID, mode, query string) {
	l.Event(sessionID, fmt.Sprintf("started mode=%s query=%q", mode, query))
}

// SessionCompleted logs a session's terminal state.
func (l *Logger) SessionCompleted(sessionID string, iterations int, truncated bool) {
	l.Event(sessionID, fmt.Sprintf("completed iterations=%d truncated=%v", iterations, truncated))
}

// SessionFailed logs an unrecoverable error that ended a session early.
func (l *Logger) SessionFailed(sessionID string, iterations int, err error) {
	l.Event(sessionID, fmt.Sprintf("failed iterations=%d error=%v", iterations, err))
}

// SessionCleaned logs sandbox cleanup of a session's cache directory.
func (l *Logger) SessionCleaned(sessionID string) {
	l.Event(sessionID, "cache directory removed")
}
