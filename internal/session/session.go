// Package session owns the end-to-end lifecycle of one query execution:
// its sandboxed directory, its logger, and the reasoning loop bound to
// both. Different sessions run fully independently; within one session,
// Manager serializes Run calls so the loop's own sequential-iteration
// contract holds even if a caller races two requests for the same id.
package session

import (
	"sync"
	"time"

	"github.com/agentcore/orchestrator/internal/agent"
	"github.com/agentcore/orchestrator/internal/sessionlog"
)

// Session is one sandboxed query execution: an id, the loop bound to its
// own sandbox root and logger, and the bookkeeping needed to report on it
// without reaching into the loop's internals.
type Session struct {
	ID      string
	Created time.Time

	loop   *agent.Loop
	logger *sessionlog.Logger

	mu       sync.Mutex // serializes Run calls for this session
	updated  time.Time
	runCount int
}

// Info is a lightweight, read-only snapshot of a session for listing.
type Info struct {
	ID       string
	Created  time.Time
	Updated  time.Time
	RunCount int
}

func (s *Session) info() Info {
	return Info{ID: s.ID, Created: s.Created, Updated: s.updated, RunCount: s.runCount}
}
