// Package agent implements the Think, Act, Observe reasoning loop: one
// skeleton shared by all three strategies (single, collaborative,
// intelligent), driving an LLM provider through the response parser and
// the tool dispatcher until the model declares the task complete or the
// iteration budget runs out.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/agentcore/orchestrator/internal/parser"
	"github.com/agentcore/orchestrator/internal/providers"
	"github.com/agentcore/orchestrator/internal/sandbox"
	"github.com/agentcore/orchestrator/internal/sessionlog"
	"github.com/agentcore/orchestrator/internal/tools"
)

// Logger is the narrow slice of session-logging behavior the loop depends
// on. internal/sessionlog.Logger satisfies this; tests can supply a no-op.
type Logger interface {
	Interaction(sessionID string, iteration int, prompt, response string)
	ToolExecution(sessionID string, iteration int, toolName string, tc *tools.Context, result *tools.Result)
	Event(sessionID, message string)
}

// noopLogger discards everything; used when no logger is supplied.
type noopLogger struct{}

func (noopLogger) Interaction(string, int, string, string)             {}
func (noopLogger) ToolExecution(string, int, string, *tools.Context, *tools.Result) {}
func (noopLogger) Event(string, string)                                {}

// Tracer is the narrow span-creation behavior the loop depends on.
// internal/sessionlog.Tracer satisfies this; when Config.Tracer is left
// nil, NewLoop falls back to a real sessionlog.Tracer built from a
// zero-value TraceConfig, which creates spans but never exports them.
type Tracer interface {
	StartLLMCall(ctx context.Context, sessionID, provider, model string, iteration int) (context.Context, trace.Span)
	StartToolExecution(ctx context.Context, sessionID, toolName string, iteration int) (context.Context, trace.Span)
}

// Loop runs the query lifecycle for one session: build prompt, call the
// model, parse its response, dispatch a tool or finish, repeat.
type Loop struct {
	provider   providers.Provider
	model      string
	parser     *parser.Parser
	dispatcher *tools.Dispatcher
	registry   *tools.Registry
	sandbox    sandbox.Manager
	logger     Logger
	tracer     Tracer

	callTimeout time.Duration
	iterations  IterationOverrides
}

// Config configures a Loop at construction.
type Config struct {
	Provider    providers.Provider
	Model       string
	Registry    *tools.Registry
	Dispatcher  *tools.Dispatcher
	Sandbox     sandbox.Manager
	Logger      Logger
	Tracer      Tracer
	CallTimeout time.Duration      // per-LLM-call timeout; defaults to 60s
	Iterations  IterationOverrides // config.StrategyConfig overrides of the built-in per-mode caps
}

// NewLoop builds a Loop from cfg.
func NewLoop(cfg Config) *Loop {
	timeout := cfg.CallTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noopLogger{}
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer, _ = sessionlog.NewTracer(sessionlog.TraceConfig{})
	}
	return &Loop{
		provider:    cfg.Provider,
		model:       cfg.Model,
		parser:      parser.New(),
		dispatcher:  cfg.Dispatcher,
		registry:    cfg.Registry,
		sandbox:     cfg.Sandbox,
		logger:      logger,
		tracer:      tracer,
		callTimeout: timeout,
		iterations:  cfg.Iterations,
	}
}

// Outcome is what Run returns: the final (or best-so-far) answer plus
// whether the loop hit its iteration cap before the model finished.
type Outcome struct {
	Response  string
	Truncated bool
	Iteration int
}

// Run drives the Think/Act/Observe loop for sessionID until the model sets
// taskComplete, the iteration budget is exhausted, or ctx is canceled.
// Within one session, iterations are strictly sequential; Run itself does
// not guard against concurrent calls for the same session id — callers
// own that serialization (see internal/session.Manager).
func (l *Loop) Run(ctx context.Context, sessionID, mode, userQuery string) (*Outcome, error) {
	strategy, err := ResolveStrategy(mode, l.iterations)
	if err != nil {
		return nil, err
	}

	sessionRoot, err := l.sandbox.SessionRoot(sessionID)
	if err != nil {
		return nil, fmt.Errorf("agent: session root: %w", err)
	}

	history := &History{}
	nextPrompt := userQuery
	var lastErr error

	// state is shared by every tool Dispatch call for this session so a
	// producer tool (e.g. download_repo) can hand a value like repoPath to
	// a consumer tool later in the same run.
	state := make(map[string]any)

	for iteration := 1; iteration <= strategy.MaxIterations; iteration++ {
		select {
		case <-ctx.Done():
			return l.truncatedOutcome(history, iteration), ctx.Err()
		default:
		}

		currentDir, err := l.sandbox.CurrentDir(sessionID)
		if err != nil {
			return nil, fmt.Errorf("agent: current dir: %w", err)
		}

		systemPrompt := buildSystemPrompt(strategy, l.registry, sessionRoot, currentDir, history)
		messages := []providers.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: nextPrompt},
		}

		callCtx, cancel := context.WithTimeout(ctx, l.callTimeout)
		spanCtx, span := l.tracer.StartLLMCall(callCtx, sessionID, l.provider.Name(), l.model, iteration)
		callStart := time.Now()
		resp, err := l.provider.Chat(spanCtx, providers.ChatRequest{
			Model:    l.model,
			Messages: messages,
		})
		sessionlog.EndWithResult(span, callStart, err)
		cancel()
		if err != nil {
			lastErr = err
			slog.Error("agent: chat call failed", "session", sessionID, "iteration", iteration, "error", err)
			return l.truncatedOutcome(history, iteration), fmt.Errorf("agent: chat: %w", err)
		}

		l.logger.Interaction(sessionID, iteration, nextPrompt, resp.Content)

		record := l.parser.Parse(sessionID, resp.Content)
		if record.ParseFailed || !record.IsWellFormed() {
			corrective := parser.CorrectivePrompt(record)
			history.Append(Turn{Iteration: iteration, Prompt: nextPrompt, RawResponse: resp.Content, Decision: record})
			nextPrompt = corrective
			continue
		}

		if record.TaskComplete {
			l.logger.Event(sessionID, fmt.Sprintf("iteration %d: task complete", iteration))
			history.Append(Turn{Iteration: iteration, Prompt: nextPrompt, RawResponse: resp.Content, Decision: record})
			return &Outcome{Response: record.Response, Iteration: iteration}, nil
		}

		if record.RequiresTool {
			tc := &tools.Context{
				SessionID:  sessionID,
				Parameters: record.Parameters,
				State:      state,
			}
			toolCtx, span := l.tracer.StartToolExecution(ctx, sessionID, record.Tool, iteration)
			toolStart := time.Now()
			result := l.dispatcher.Dispatch(toolCtx, record.Tool, tc)
			var toolErr error
			if !result.Success {
				toolErr = errors.New(result.Error)
			}
			sessionlog.EndWithResult(span, toolStart, toolErr)
			l.logger.ToolExecution(sessionID, iteration, record.Tool, tc, result)
			history.Append(Turn{Iteration: iteration, Prompt: nextPrompt, RawResponse: resp.Content, Decision: record, ToolResult: result})
			nextPrompt = renderToolResultPrompt(record.Tool, result)
			continue
		}

		history.Append(Turn{Iteration: iteration, Prompt: nextPrompt, RawResponse: resp.Content, Decision: record})
		if record.NextStep != "" {
			nextPrompt = record.NextStep
			continue
		}

		// Neither complete, nor a tool call, nor a next step: nothing
		// drives the loop forward. Treat it like a malformed record.
		nextPrompt = parser.CorrectivePrompt(record)
	}

	outcome := l.truncatedOutcome(history, strategy.MaxIterations)
	if lastErr != nil {
		return outcome, lastErr
	}
	return outcome, nil
}

// renderToolResultPrompt turns a dispatched tool result into the next
// user-role turn so the model can observe what happened.
func renderToolResultPrompt(toolName string, result *tools.Result) string {
	if result.Success {
		return fmt.Sprintf("Tool %q (method %s) succeeded:\n%v", toolName, result.MethodUsed, result.Output)
	}
	return fmt.Sprintf("Tool %q failed: %s", toolName, result.Error)
}

// truncatedOutcome builds the cap-exhaustion result: the last non-empty
// response seen in history, flagged as truncated.
func (l *Loop) truncatedOutcome(history *History, iteration int) *Outcome {
	return &Outcome{
		Response:  history.LastResponse(),
		Truncated: true,
		Iteration: iteration,
	}
}
