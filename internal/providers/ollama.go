package providers

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaProvider speaks Ollama's streaming-chat JSON dialect
// (POST /api/chat, newline-delimited JSON objects) behind the single
// blocking Chat surface: the dialect is an implementation detail, the
// caller never sees individual chunks.
type OllamaProvider struct {
	client       *http.Client
	baseURL      string
	defaultModel string
	retryConfig  RetryConfig
}

// OllamaConfig configures the Ollama provider.
type OllamaConfig struct {
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
}

func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &OllamaProvider{
		client:       &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		defaultModel: strings.TrimSpace(cfg.DefaultModel),
		retryConfig:  DefaultRetryConfig(),
	}
}

func (p *OllamaProvider) Name() string        { return "ollama" }
func (p *OllamaProvider) DefaultModel() string { return p.defaultModel }

func (p *OllamaProvider) resolveModel(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}

func (p *OllamaProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := p.resolveModel(req.Model)
	if model == "" {
		return nil, NewProviderError(p.Name(), model, fmt.Errorf("no model configured"))
	}

	payload := ollamaChatRequest{
		Model:    model,
		Stream:   true,
		Messages: buildOllamaMessages(req.Messages),
		Options:  buildOllamaOptions(req.Options),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError(p.Name(), model, fmt.Errorf("marshal request: %w", err))
	}

	return RetryDo(ctx, p.retryConfig, func() (*ChatResponse, error) {
		return p.doChat(ctx, model, body)
	})
}

func (p *OllamaProvider) doChat(ctx context.Context, model string, body []byte) (*ChatResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError(p.Name(), model, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NewProviderError(p.Name(), model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		retryAfter := ParseRetryAfter(resp.Header.Get("Retry-After"))
		pe := NewProviderError(p.Name(), model, fmt.Errorf("ollama status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody))))
		pe.WithStatus(resp.StatusCode)
		pe.RetryAfter = retryAfter
		return nil, pe
	}

	result := &ChatResponse{FinishReason: "stop"}
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var chunk ollamaChatResponse
		if err := json.Unmarshal([]byte(line), &chunk); err != nil {
			return nil, NewProviderError(p.Name(), model, fmt.Errorf("decode chunk: %w", err))
		}
		if chunk.Error != "" {
			return nil, NewProviderError(p.Name(), model, fmt.Errorf("%s", chunk.Error))
		}
		if chunk.Message != nil {
			result.Content += chunk.Message.Content
		}
		if chunk.Done {
			result.Usage = &Usage{
				PromptTokens:     chunk.PromptEvalCount,
				CompletionTokens: chunk.EvalCount,
				TotalTokens:      chunk.PromptEvalCount + chunk.EvalCount,
			}
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, NewProviderError(p.Name(), model, fmt.Errorf("read stream: %w", err))
	}

	return result, nil
}

func (p *OllamaProvider) HealthCheck(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return NewProviderError(p.Name(), p.defaultModel, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return NewProviderError(p.Name(), p.defaultModel, fmt.Errorf("status %d", resp.StatusCode)).WithStatus(resp.StatusCode)
	}
	return nil
}

func (p *OllamaProvider) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NewProviderError(p.Name(), p.defaultModel, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, NewProviderError(p.Name(), p.defaultModel, fmt.Errorf("status %d", resp.StatusCode)).WithStatus(resp.StatusCode)
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, NewProviderError(p.Name(), p.defaultModel, fmt.Errorf("decode tags: %w", err))
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatResponse struct {
	Message         *ollamaChatMessage `json:"message"`
	Done            bool               `json:"done"`
	Error           string             `json:"error"`
	EvalCount       int                `json:"eval_count"`
	PromptEvalCount int                `json:"prompt_eval_count"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func buildOllamaMessages(msgs []Message) []ollamaChatMessage {
	out := make([]ollamaChatMessage, 0, len(msgs))
	for _, m := range msgs {
		role := m.Role
		if role == "" {
			role = "user"
		}
		out = append(out, ollamaChatMessage{Role: role, Content: m.Content})
	}
	return out
}

func buildOllamaOptions(opts map[string]any) map[string]any {
	if len(opts) == 0 {
		return nil
	}
	out := map[string]any{}
	if v, ok := opts[OptMaxTokens]; ok {
		out["num_predict"] = v
	}
	if v, ok := opts[OptTemperature]; ok {
		out["temperature"] = v
	}
	if v, ok := opts[OptStop]; ok {
		out["stop"] = v
	}
	return out
}
