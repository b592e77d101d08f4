package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/quantumfork/whatif/services/providers"
)

const (
	defaultBaseURL = "https://openrouter.ai/api/v1"
)

// Adapter implements the Provider interface against the OpenRouter
// gateway, which fronts every model in the fallback chain behind one
// OpenAI-compatible chat completions endpoint.
type Adapter struct {
	config     providers.ProviderConfig
	httpClient *http.Client
	models     map[string]*providers.ModelInfo
}

// NewAdapter creates a new OpenRouter adapter. costPer1K maps each
// supported model identifier to its estimated USD cost per 1000 tokens.
func NewAdapter(config providers.ProviderConfig, costPer1K map[string]float64) *Adapter {
	if config.BaseURL == "" {
		config.BaseURL = defaultBaseURL
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}

	adapter := &Adapter{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		models: make(map[string]*providers.ModelInfo),
	}

	for model, cost := range costPer1K {
		adapter.models[model] = &providers.ModelInfo{
			ID:              model,
			Name:            model,
			Provider:        "openrouter",
			MaxTokens:       1024,
			CostPer1KTokens: cost,
		}
	}

	return adapter
}

// Name returns the provider name
func (a *Adapter) Name() string {
	return "openrouter"
}

// ChatCompletion performs a chat completion request
func (a *Adapter) ChatCompletion(ctx context.Context, req *providers.ChatRequest) (*providers.ChatResponse, error) {
	startTime := time.Now()

	if err := a.ValidateModel(req.Model); err != nil {
		return nil, providers.NewProviderError(a.Name(), "INVALID_MODEL", err.Error(), 400, false, err)
	}

	wireReq := buildWireRequest(req)
	reqBody, err := json.Marshal(wireReq)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "MARSHAL_ERROR", "Failed to marshal request", 0, false, err)
	}

	// Retry on transport errors and 5xx; the request body is rebuilt per
	// attempt because http.Client consumes it.
	var httpResp *http.Response
	var lastErr error

	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, providers.NewProviderError(a.Name(), "CANCELLED", "Request cancelled", 0, false, ctx.Err())
			case <-time.After(a.config.RetryDelay * time.Duration(attempt)):
			}
		}

		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.BaseURL+"/chat/completions", bytes.NewReader(reqBody))
		if err != nil {
			return nil, providers.NewProviderError(a.Name(), "REQUEST_ERROR", "Failed to create request", 0, false, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("Authorization", "Bearer "+a.config.APIKey)

		httpResp, lastErr = a.httpClient.Do(httpReq)
		if lastErr == nil && httpResp.StatusCode < 500 {
			break
		}
		if httpResp != nil {
			httpResp.Body.Close()
		}
	}

	if lastErr != nil {
		return nil, providers.NewProviderError(a.Name(), "HTTP_ERROR", "HTTP request failed", 0, true, lastErr)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, providers.NewProviderError(a.Name(), "READ_ERROR", "Failed to read response", httpResp.StatusCode, false, err)
	}

	if httpResp.StatusCode != http.StatusOK {
		return nil, a.handleErrorResponse(httpResp.StatusCode, respBody)
	}

	var wireResp wireChatResponse
	if err := json.Unmarshal(respBody, &wireResp); err != nil {
		return nil, providers.NewProviderError(a.Name(), "UNMARSHAL_ERROR", "Failed to unmarshal response", httpResp.StatusCode, false, err)
	}

	return a.convertResponse(&wireResp, time.Since(startTime)), nil
}

// ValidateModel checks if a model is supported
func (a *Adapter) ValidateModel(model string) error {
	if _, exists := a.models[model]; !exists {
		return fmt.Errorf("model %s is not supported by OpenRouter provider", model)
	}
	return nil
}

// GetModelInfo returns information about a specific model
func (a *Adapter) GetModelInfo(model string) (*providers.ModelInfo, error) {
	info, exists := a.models[model]
	if !exists {
		return nil, fmt.Errorf("model %s not found", model)
	}
	return info, nil
}

// ListModels returns all available models
func (a *Adapter) ListModels() []string {
	models := make([]string, 0, len(a.models))
	for model := range a.models {
		models = append(models, model)
	}
	return models
}

// buildWireRequest converts the unified request to the wire format
func buildWireRequest(req *providers.ChatRequest) *wireChatRequest {
	wireReq := &wireChatRequest{
		Model:    req.Model,
		Messages: make([]wireMessage, len(req.Messages)),
	}
	for i, msg := range req.Messages {
		wireReq.Messages[i] = wireMessage{Role: msg.Role, Content: msg.Content}
	}
	if req.MaxTokens > 0 {
		wireReq.MaxTokens = &req.MaxTokens
	}
	if req.Temperature > 0 {
		wireReq.Temperature = &req.Temperature
	}
	return wireReq
}

// convertResponse converts the wire response to the unified format
func (a *Adapter) convertResponse(wireResp *wireChatResponse, latency time.Duration) *providers.ChatResponse {
	resp := &providers.ChatResponse{
		ID:       wireResp.ID,
		Model:    wireResp.Model,
		Provider: a.Name(),
		Choices:  make([]providers.Choice, len(wireResp.Choices)),
		Usage: providers.Usage{
			PromptTokens:     wireResp.Usage.PromptTokens,
			CompletionTokens: wireResp.Usage.CompletionTokens,
			TotalTokens:      wireResp.Usage.TotalTokens,
		},
		Latency: latency,
		Created: time.Unix(wireResp.Created, 0),
	}
	for i, choice := range wireResp.Choices {
		resp.Choices[i] = providers.Choice{
			Index: choice.Index,
			Message: providers.Message{
				Role:    choice.Message.Role,
				Content: choice.Message.Content,
			},
			FinishReason: choice.FinishReason,
		}
	}
	return resp
}

// handleErrorResponse maps OpenRouter error payloads to ProviderError
func (a *Adapter) handleErrorResponse(statusCode int, body []byte) error {
	var errResp wireErrorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		return providers.NewProviderError(a.Name(), "UNKNOWN_ERROR", string(body), statusCode, false, err)
	}

	retryable := statusCode >= 500 || statusCode == http.StatusTooManyRequests

	return providers.NewProviderError(
		a.Name(),
		errResp.Error.Type,
		errResp.Error.Message,
		statusCode,
		retryable,
		errors.New(errResp.Error.Message),
	)
}

// Wire request/response types (OpenAI-compatible chat completions)

type wireChatRequest struct {
	Model       string        `json:"model"`
	Messages    []wireMessage `json:"messages"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Temperature *float64      `json:"temperature,omitempty"`
}

type wireMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireChatResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []wireChoice `json:"choices"`
	Usage   wireUsage    `json:"usage"`
}

type wireChoice struct {
	Index        int         `json:"index"`
	Message      wireMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type wireUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

type wireErrorResponse struct {
	Error wireError `json:"error"`
}

type wireError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
