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

const openAIDefaultBaseURL = "https://api.openai.com/v1"

// OpenAIAdapter generates insight text through the OpenAI responses API.
type OpenAIAdapter struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
}

// NewOpenAIAdapter creates a new OpenAI insight provider.
func NewOpenAIAdapter(cfg *config.ProviderConfig) (*OpenAIAdapter, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, errors.New("openai api key is required")
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	return &OpenAIAdapter{
		apiKey:  cfg.APIKey,
		model:   model,
		baseURL: openAIDefaultBaseURL,
		// No client-level timeout: the engine bounds each call through ctx.
		httpClient: &http.Client{},
	}, nil
}

// Name identifies the provider in telemetry.
func (a *OpenAIAdapter) Name() string {
	return "openai"
}

type openAIResponseContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type openAIResponseOutput struct {
	Content []openAIResponseContent `json:"content"`
}

type openAIResponseEnvelope struct {
	Output []openAIResponseOutput `json:"output"`
}

// Generate produces insight text for the category/metrics pair.
func (a *OpenAIAdapter) Generate(ctx context.Context, category entities.InsightCategory, metrics map[string]float64, persona *entities.PersonaContext) (string, error) {
	payload := map[string]interface{}{
		"model": a.model,
		"input": []map[string]string{
			{"role": "system", "content": insightSystemPrompt},
			{"role": "user", "content": buildInsightUserPrompt(category, metrics, persona)},
		},
		"temperature":       0.4,
		"max_output_tokens": 200,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/responses", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
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
			return "", fmt.Errorf("%w: openai returned status %d", providers.ErrProviderRateLimited, resp.StatusCode)
		case http.StatusServiceUnavailable, http.StatusBadGateway:
			return "", fmt.Errorf("%w: openai returned status %d", providers.ErrProviderCapacity, resp.StatusCode)
		default:
			return "", fmt.Errorf("openai request failed with status %d", resp.StatusCode)
		}
	}

	var envelope openAIResponseEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", err
	}

	for _, out := range envelope.Output {
		for _, content := range out.Content {
			if content.Type == "output_text" && content.Text != "" {
				return strings.TrimSpace(content.Text), nil
			}
		}
	}

	return "", errors.New("openai response contained no output text")
}

var _ providers.InsightProvider = (*OpenAIAdapter)(nil)
