package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
	"github.com/vitalloop/insight-engine/internal/domain/providers"
	"github.com/vitalloop/insight-engine/pkg/config"
)

const (
	anthropicDefaultBaseURL = "https://api.anthropic.com/v1"
	anthropicAPIVersion     = "2023-06-01"

	// 529 is Anthropic's "overloaded" status.
	statusOverloaded = 529
)

// AnthropicAdapter generates insight text through the Anthropic messages API.
type AnthropicAdapter struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewAnthropicAdapter creates a new Anthropic insight provider.
func NewAnthropicAdapter(cfg *config.ProviderConfig) (*AnthropicAdapter, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "claude-3-5-haiku-latest"
	}

	return &AnthropicAdapter{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    anthropicDefaultBaseURL,
		httpClient: &http.Client{},
	}, nil
}

// Name identifies the provider in telemetry.
func (a *AnthropicAdapter) Name() string {
	return "anthropic"
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type anthropicEnvelope struct {
	Content []anthropicContent `json:"content"`
}

// Generate produces insight text for the category/metrics pair.
func (a *AnthropicAdapter) Generate(ctx context.Context, category entities.InsightCategory, metrics map[string]float64, persona *entities.PersonaContext) (string, error) {
	payload := map[string]interface{}{
		"model":      a.model,
		"max_tokens": 200,
		"system":     insightSystemPrompt,
		"messages": []map[string]string{
			{"role": "user", "content": buildInsightUserPrompt(category, metrics, persona)},
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("x-api-key", a.apiKey)
	req.Header.Set("anthropic-version", anthropicAPIVersion)
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", providers.ErrProviderTimeout, err)
		}
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return "", fmt.Errorf("%w: anthropic returned status %d", providers.ErrProviderRateLimited, resp.StatusCode)
		case statusOverloaded, http.StatusServiceUnavailable:
			return "", fmt.Errorf("%w: anthropic returned status %d", providers.ErrProviderCapacity, resp.StatusCode)
		default:
			return "", fmt.Errorf("anthropic request failed with status %d", resp.StatusCode)
		}
	}

	var envelope anthropicEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}

	for _, content := range envelope.Content {
		if content.Type == "text" && content.Text != "" {
			return strings.TrimSpace(content.Text), nil
		}
	}

	return "", errors.New("anthropic response contained no text content")
}

var _ providers.InsightProvider = (*AnthropicAdapter)(nil)
