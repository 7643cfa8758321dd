package engineapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vitalloop/insight-engine/internal/domain/entities"
)

// Client is the typed HTTP client for the engine's REST API, used by
// operational tooling that runs outside the server process.
type Client interface {
	GenerateInsight(ctx context.Context, req *entities.InsightRequest) (*entities.HealthInsight, error)
	GetFeedbackStats(ctx context.Context, insightID string) (*entities.FeedbackStats, error)
	GetInsightFeedback(ctx context.Context, insightID string) (*FeedbackListResponse, error)
	OptimizePrompt(ctx context.Context, insightID string) (*OptimizationResponse, error)
	GetTelemetrySnapshot(ctx context.Context) (*entities.TelemetrySnapshot, error)
	GetProviderHealth(ctx context.Context) (map[string]entities.ProviderHealth, error)
}

type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// FeedbackListResponse mirrors the feedback list envelope.
type FeedbackListResponse struct {
	Feedback []*entities.InsightFeedback `json:"feedback"`
	Count    int                         `json:"count"`
}

// OptimizationResponse mirrors the optimize endpoint envelope.
type OptimizationResponse struct {
	InsightID     string                        `json:"insight_id"`
	Optimizations []entities.PromptOptimization `json:"optimizations"`
}

func NewClient(baseURL string) *HTTPClient {
	trimmed := strings.TrimRight(baseURL, "/")
	return &HTTPClient{
		baseURL: trimmed,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *HTTPClient) GenerateInsight(ctx context.Context, req *entities.InsightRequest) (*entities.HealthInsight, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	out := &entities.HealthInsight{}
	endpoint := fmt.Sprintf("%s/api/insights", c.baseURL)
	if err := c.doJSON(ctx, http.MethodPost, endpoint, bytes.NewReader(body), out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetFeedbackStats(ctx context.Context, insightID string) (*entities.FeedbackStats, error) {
	if strings.TrimSpace(insightID) == "" {
		return nil, fmt.Errorf("insight id is required")
	}
	endpoint := fmt.Sprintf("%s/api/insights/%s/feedback/stats", c.baseURL, url.PathEscape(insightID))
	out := &entities.FeedbackStats{}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetInsightFeedback(ctx context.Context, insightID string) (*FeedbackListResponse, error) {
	if strings.TrimSpace(insightID) == "" {
		return nil, fmt.Errorf("insight id is required")
	}
	endpoint := fmt.Sprintf("%s/api/insights/%s/feedback", c.baseURL, url.PathEscape(insightID))
	out := &FeedbackListResponse{}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) OptimizePrompt(ctx context.Context, insightID string) (*OptimizationResponse, error) {
	if strings.TrimSpace(insightID) == "" {
		return nil, fmt.Errorf("insight id is required")
	}
	endpoint := fmt.Sprintf("%s/api/insights/%s/optimize", c.baseURL, url.PathEscape(insightID))
	out := &OptimizationResponse{}
	if err := c.doJSON(ctx, http.MethodPost, endpoint, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetTelemetrySnapshot(ctx context.Context) (*entities.TelemetrySnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/telemetry", c.baseURL)
	out := &entities.TelemetrySnapshot{}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetProviderHealth(ctx context.Context) (map[string]entities.ProviderHealth, error) {
	endpoint := fmt.Sprintf("%s/api/telemetry/providers", c.baseURL)
	out := map[string]entities.ProviderHealth{}
	if err := c.doJSON(ctx, http.MethodGet, endpoint, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) doJSON(ctx context.Context, method, endpoint string, body io.Reader, out interface{}) error {
	httpReq, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("engine api returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return err
	}

	return nil
}
