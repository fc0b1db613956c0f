// Package mcp connects to external MCP (Model Context Protocol) servers
// configured in the orchestrator's config file and registers each of
// their tools into the same tools.Registry local tools live in, so the
// reasoning loop never has to know whether a catalogued tool runs
// in-process or proxies to a subprocess or remote server.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/agentcore/orchestrator/internal/config"
	"github.com/agentcore/orchestrator/internal/tools"
)

const (
	healthCheckInterval = 30 * time.Second
	initialBackoff      = 2 * time.Second
	maxBackoff          = 60 * time.Second
)

// serverState tracks one live MCP server connection.
type serverState struct {
	name      string
	client    *mcpclient.Client
	toolNames []string
	cancel    context.CancelFunc

	mu      sync.Mutex
	healthy bool
	lastErr string
}

// Manager connects to every configured MCP server at startup and
// registers their tools. It is built once per process and torn down on
// exit; it does not support per-request reconfiguration, since this
// orchestrator has no multi-tenant request boundary to reconfigure on.
type Manager struct {
	registry *tools.Registry

	mu      sync.RWMutex
	servers map[string]*serverState
}

// NewManager builds a Manager that registers tools into registry.
func NewManager(registry *tools.Registry) *Manager {
	return &Manager{registry: registry, servers: make(map[string]*serverState)}
}

// Start connects to every server in servers, discovers its tools, and
// registers a bridge tools.Tool for each. A server that fails to connect
// is logged and skipped — one unreachable MCP server must not prevent the
// rest of the catalogue (local or otherwise) from working.
func (m *Manager) Start(ctx context.Context, servers []config.McpServer) {
	for _, srv := range servers {
		if err := m.connect(ctx, srv); err != nil {
			slog.Warn("mcp: server connect failed", "server", srv.Name, "error", err)
		}
	}
}

func (m *Manager) connect(ctx context.Context, srv config.McpServer) error {
	client, err := newClient(srv)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	if srv.Command == "" {
		if err := client.Start(ctx); err != nil {
			_ = client.Close()
			return fmt.Errorf("start transport: %w", err)
		}
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{Name: "agentcore-orchestrator", Version: "1.0.0"}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		_ = client.Close()
		return fmt.Errorf("initialize: %w", err)
	}

	listed, err := client.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("list tools: %w", err)
	}

	ss := &serverState{name: srv.Name, client: client, healthy: true}
	var registered []string
	for _, mt := range listed.Tools {
		bt := newBridgeTool(srv.Name, mt, client)
		if err := m.registry.Register(bt); err != nil {
			slog.Warn("mcp: tool registration skipped", "server", srv.Name, "tool", bt.Descriptor().Name, "error", err)
			continue
		}
		registered = append(registered, bt.Descriptor().Name)
	}
	ss.toolNames = registered

	hctx, cancel := context.WithCancel(context.Background())
	ss.cancel = cancel
	go m.healthLoop(hctx, ss)

	m.mu.Lock()
	m.servers[srv.Name] = ss
	m.mu.Unlock()

	slog.Info("mcp: server connected", "server", srv.Name, "tools", len(registered))
	return nil
}

func newClient(srv config.McpServer) (*mcpclient.Client, error) {
	if srv.Command != "" {
		env := make([]string, 0, len(srv.Env))
		for k, v := range srv.Env {
			env = append(env, k+"="+v)
		}
		return mcpclient.NewStdioMCPClient(srv.Command, env, srv.Args...)
	}
	if srv.URL != "" {
		return mcpclient.NewSSEMCPClient(srv.URL)
	}
	return nil, fmt.Errorf("mcp server %q declares neither Command nor URL", srv.Name)
}

// healthLoop pings the server periodically and marks it unhealthy on
// failure. This orchestrator does not currently act on unhealthy MCP
// servers beyond logging — a bridge tool's own Execute call will surface
// the failure to the dispatcher the next time it's invoked regardless.
func (m *Manager) healthLoop(ctx context.Context, ss *serverState) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()
	backoff := initialBackoff
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ss.client.Ping(ctx); err != nil {
				ss.mu.Lock()
				ss.healthy = false
				ss.lastErr = err.Error()
				ss.mu.Unlock()
				slog.Warn("mcp: server health check failed", "server", ss.name, "error", err, "next_check_in", backoff)
				ticker.Reset(backoff)
				if backoff < maxBackoff {
					backoff *= 2
				}
				continue
			}
			ss.mu.Lock()
			ss.healthy = true
			ss.lastErr = ""
			ss.mu.Unlock()
			if backoff != initialBackoff {
				ticker.Reset(healthCheckInterval)
			}
			backoff = initialBackoff
		}
	}
}

// Status reports each connected server's name, tool count, and health.
type Status struct {
	Name      string
	ToolCount int
	Healthy   bool
	LastError string
}

// ServerStatus returns the current status of every connected server.
func (m *Manager) ServerStatus() []Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Status, 0, len(m.servers))
	for _, ss := range m.servers {
		ss.mu.Lock()
		out = append(out, Status{Name: ss.name, ToolCount: len(ss.toolNames), Healthy: ss.healthy, LastError: ss.lastErr})
		ss.mu.Unlock()
	}
	return out
}

// Stop closes every server connection and stops health monitoring.
// Registered tools remain in the registry (the registry has no
// unregister operation, matching the "never mutated after startup"
// contract of the tool catalogue); a later dispatch to one of them will
// simply fail once the underlying client is closed.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ss := range m.servers {
		if ss.cancel != nil {
			ss.cancel()
		}
		if ss.client != nil {
			_ = ss.client.Close()
		}
	}
	m.servers = make(map[string]*serverState)
}
