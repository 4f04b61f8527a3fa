package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/foliocore/foliocore/internal/domain"
)

// Request is the outbound payload for the optimization service. The
// allocation must sum to 1 within tolerance; the service computes risk
// metrics for it and proposes an optimized alternative.
type Request struct {
	Allocation        map[string]float64        `json:"allocation"`
	RiskTolerance     domain.RiskTolerance      `json:"riskTolerance"`
	TargetReturn      float64                   `json:"targetReturn"`
	OptimizationGoal  domain.OptimizationGoal   `json:"optimizationGoal"`
	ESGPreferences    *domain.ESGPreferences    `json:"esgPreferences,omitempty"`
	TaxPreferences    *domain.TaxPreferences    `json:"taxPreferences,omitempty"`
	SectorPreferences *domain.SectorPreferences `json:"sectorPreferences,omitempty"`
	UseAIOptimization bool                      `json:"useAiOptimization"`
}

// Response mirrors the optimization service's reply. The scoring and
// explanation engines consume CurrentMetrics only; the optimized fields
// pass through to the client untouched.
type Response struct {
	CurrentMetrics      domain.RiskMetrics `json:"currentMetrics"`
	OptimizedAllocation map[string]float64 `json:"optimizedAllocation"`
	OptimizedMetrics    domain.RiskMetrics `json:"optimizedMetrics"`
	Recommendations     []string           `json:"recommendations"`
	Explanations        []string           `json:"explanations"`
}

// StatusError reports a non-2xx reply from the optimization service.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("optimizer returned status %d: %s", e.Code, e.Body)
}

// Transient reports whether the failure is worth retrying: server-side
// errors are, client errors are not.
func (e *StatusError) Transient() bool {
	return e.Code >= 500
}

// Analyzer is the outbound boundary the coordinator sits in front of.
type Analyzer interface {
	Analyze(ctx context.Context, req Request) (*Response, error)
}

// Client is the HTTP client for the external optimization service.
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new optimizer client.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		log: log.With().Str("client", "optimizer").Logger(),
	}
}

// Analyze posts the allocation and preferences to the optimizer and
// decodes its reply. Network failures and timeouts come back as plain
// errors; HTTP failures come back as *StatusError.
func (c *Client) Analyze(ctx context.Context, req Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	c.log.Debug().Msg("Calling optimization service")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, &StatusError{Code: httpResp.StatusCode, Body: string(body)}
	}

	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.log.Debug().Msg("Optimization service call successful")
	return &resp, nil
}
