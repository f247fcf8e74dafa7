// Package estimator wraps the external ACOS estimation service used when
// local history is too thin to fit a trend.
package estimator

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Client struct {
	host       string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("estimator API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{host: host, httpClient: httpClient}
}

// Estimate is the estimation service response, passed through verbatim
// when used.
type Estimate struct {
	PredictedACOS  float64  `json:"predicted_acos"`
	Min            float64  `json:"min"`
	Max            float64  `json:"max"`
	Factors        []string `json:"factors"`
	Recommendation string   `json:"recommendation"`
}

func (c *Client) EstimateACOS(ctx context.Context, campaignID string) (*Estimate, error) {
	if campaignID == "" {
		return nil, fmt.Errorf("campaign_id is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.host+"/v1/estimates/acos/"+campaignID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	var est Estimate
	if err := json.Unmarshal(body, &est); err != nil {
		return nil, fmt.Errorf("failed to decode estimate: %w", err)
	}
	return &est, nil
}
