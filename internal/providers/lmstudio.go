package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// LMStudioProvider speaks the OpenAI-compatible /v1/chat/completions
// dialect that LM Studio's local server exposes.
type LMStudioProvider struct {
	apiBase      string
	apiKey       string
	defaultModel string
	client       *http.Client
	retryConfig  RetryConfig
}

// LMStudioConfig configures the LM Studio provider.
type LMStudioConfig struct {
	BaseURL      string
	DefaultModel string
	APIKey       string
	Timeout      time.Duration
}

func NewLMStudioProvider(cfg LMStudioConfig) *LMStudioProvider {
	apiBase := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if apiBase == "" {
		apiBase = "http://localhost:1234/v1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &LMStudioProvider{
		apiBase:      apiBase,
		apiKey:       cfg.APIKey,
		defaultModel: strings.TrimSpace(cfg.DefaultModel),
		client:       &http.Client{Timeout: timeout},
		retryConfig:  DefaultRetryConfig(),
	}
}

func (p *LMStudioProvider) Name() string        { return "lmstudio" }
func (p *LMStudioProvider) DefaultModel() string { return p.defaultModel }

func (p *LMStudioProvider) resolveModel(model string) string {
	if model == "" {
		return p.defaultModel
	}
	return model
}

func (p *LMStudioProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	model := p.resolveModel(req.Model)
	body := p.buildRequestBody(model, req)

	data, err := json.Marshal(body)
	if err != nil {
		return nil, NewProviderError(p.Name(), model, fmt.Errorf("marshal request: %w", err))
	}

	return RetryDo(ctx, p.retryConfig, func() (*ChatResponse, error) {
		return p.doChat(ctx, model, data)
	})
}

func (p *LMStudioProvider) buildRequestBody(model string, req ChatRequest) map[string]any {
	msgs := make([]map[string]any, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := m.Role
		if role == "" {
			role = "user"
		}
		msgs = append(msgs, map[string]any{"role": role, "content": m.Content})
	}

	body := map[string]any{
		"model":    model,
		"messages": msgs,
		"stream":   false,
	}
	if v, ok := req.Options[OptMaxTokens]; ok {
		body["max_tokens"] = v
	}
	if v, ok := req.Options[OptTemperature]; ok {
		body["temperature"] = v
	}
	if v, ok := req.Options[OptStop]; ok {
		body["stop"] = v
	}
	return body
}

func (p *LMStudioProvider) doChat(ctx context.Context, model string, body []byte) (*ChatResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiBase+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, NewProviderError(p.Name(), model, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NewProviderError(p.Name(), model, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, 8<<10))
		pe := NewProviderError(p.Name(), model, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(errBody))))
		pe.WithStatus(resp.StatusCode)
		pe.RetryAfter = ParseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, pe
	}

	var oaiResp openAICompatibleResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return nil, NewProviderError(p.Name(), model, fmt.Errorf("decode response: %w", err))
	}

	result := &ChatResponse{FinishReason: "stop"}
	if len(oaiResp.Choices) > 0 {
		result.Content = oaiResp.Choices[0].Message.Content
		if oaiResp.Choices[0].FinishReason != "" {
			result.FinishReason = oaiResp.Choices[0].FinishReason
		}
	}
	if oaiResp.Usage != nil {
		result.Usage = &Usage{
			PromptTokens:     oaiResp.Usage.PromptTokens,
			CompletionTokens: oaiResp.Usage.CompletionTokens,
			TotalTokens:      oaiResp.Usage.TotalTokens,
		}
	}
	return result, nil
}

func (p *LMStudioProvider) HealthCheck(ctx context.Context) error {
	_, err := p.ListModels(ctx)
	return err
}

func (p *LMStudioProvider) ListModels(ctx context.Context) ([]string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.apiBase+"/models", nil)
	if err != nil {
		return nil, err
	}
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, NewProviderError(p.Name(), p.defaultModel, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, NewProviderError(p.Name(), p.defaultModel, fmt.Errorf("status %d", resp.StatusCode)).WithStatus(resp.StatusCode)
	}

	var listed struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&listed); err != nil {
		return nil, NewProviderError(p.Name(), p.defaultModel, fmt.Errorf("decode models: %w", err))
	}
	names := make([]string, 0, len(listed.Data))
	for _, m := range listed.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

type openAICompatibleResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}
