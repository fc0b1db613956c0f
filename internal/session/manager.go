package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentcore/orchestrator/internal/agent"
	"github.com/agentcore/orchestrator/internal/providers"
	"github.com/agentcore/orchestrator/internal/sandbox"
	"github.com/agentcore/orchestrator/internal/sessionlog"
	"github.com/agentcore/orchestrator/internal/tools"
)

// Manager creates, runs, lists, and cleans up sessions. The tool catalogue,
// dispatcher, provider, and sandbox it is built with are shared read-only
// infrastructure; each session gets its own sandbox root and its own
// sessionlog.Logger so its log streams never interleave with another
// session's.
type Manager struct {
	provider    providers.Provider
	model       string
	registry    *tools.Registry
	dispatcher  *tools.Dispatcher
	sandbox     sandbox.Manager
	callTimeout time.Duration
	tracer      agent.Tracer
	mirror      *sessionlog.PGMirror
	iterations  agent.IterationOverrides

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Config configures a Manager at construction.
type Config struct {
	Provider    providers.Provider
	Model       string
	Registry    *tools.Registry
	Dispatcher  *tools.Dispatcher
	Sandbox     sandbox.Manager
	CallTimeout time.Duration
	Tracer      agent.Tracer
	Mirror      *sessionlog.PGMirror
	Iterations  agent.IterationOverrides
}

// NewManager builds a Manager from cfg.
func NewManager(cfg Config) *Manager {
	return &Manager{
		provider:    cfg.Provider,
		model:       cfg.Model,
		registry:    cfg.Registry,
		dispatcher:  cfg.Dispatcher,
		sandbox:     cfg.Sandbox,
		callTimeout: cfg.CallTimeout,
		tracer:      cfg.Tracer,
		mirror:      cfg.Mirror,
		iterations:  cfg.Iterations,
		sessions:    make(map[string]*Session),
	}
}

// GetOrCreate returns the existing session for id, or materializes a new
// one: a sandbox root, a logger rooted there, and a loop bound to both.
func (m *Manager) GetOrCreate(id string) (*Session, error) {
	m.mu.RLock()
	if s, ok := m.sessions[id]; ok {
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}

	root, err := m.sandbox.SessionRoot(id)
	if err != nil {
		return nil, fmt.Errorf("session: materialize root: %w", err)
	}

	logger := sessionlog.New(root, m.mirror)
	loop := agent.NewLoop(agent.Config{
		Provider:    m.provider,
		Model:       m.model,
		Registry:    m.registry,
		Dispatcher:  m.dispatcher,
		Sandbox:     m.sandbox,
		Logger:      logger,
		Tracer:      m.tracer,
		CallTimeout: m.callTimeout,
		Iterations:  m.iterations,
	})

	s := &Session{
		ID:      id,
		Created: time.Now(),
		updated: time.Now(),
		loop:    loop,
		logger:  logger,
	}
	m.sessions[id] = s
	return s, nil
}

// Run executes one query against session id, creating the session if it
// does not exist yet. Calls for the same id never overlap; calls for
// different ids run fully concurrently.
func (m *Manager) Run(ctx context.Context, id, mode, query string) (*agent.Outcome, error) {
	s, err := m.GetOrCreate(id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.SessionStarted(id, mode, query)
	outcome, err := s.loop.Run(ctx, id, mode, query)
	s.updated = time.Now()
	s.runCount++

	if err != nil {
		iter := 0
		if outcome != nil {
			iter = outcome.Iteration
		}
		s.logger.SessionFailed(id, iter, err)
		return outcome, err
	}
	s.logger.SessionCompleted(id, outcome.Iteration, outcome.Truncated)
	return outcome, nil
}

// Get returns the session for id, if it has been created.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// List returns a snapshot of every known session, most recently created
// order is not guaranteed; callers sort if they need an order.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		s.mu.Lock()
		out = append(out, s.info())
		s.mu.Unlock()
	}
	return out
}

// Cleanup removes a session's sandbox directory and forgets it. It is
// idempotent: cleaning up an id that was never created, or was already
// cleaned up, is not an error.
func (m *Manager) Cleanup(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.mu.Lock()
		s.logger.SessionCleaned(id)
		s.mu.Unlock()
	}

	if err := m.sandbox.Cleanup(id); err != nil {
		return fmt.Errorf("session: cleanup: %w", err)
	}
	return nil
}
