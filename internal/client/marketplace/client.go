// Package marketplace wraps the marketplace advertising API: the metrics
// source and the action sink of the automation core. Retry policy lives
// here or upstream, never in the executor.
package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
)

type Client struct {
	host       string
	apiKey     string
	httpClient *http.Client
}

type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace API error (%d): %s", e.Status, e.Body)
}

func NewClient(httpClient *http.Client, host, apiKey string) *Client {
	host = strings.TrimRight(host, "/")
	return &Client{
		host:       host,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// MetricsSnapshot is the wire shape of one campaign performance report.
type MetricsSnapshot struct {
	ACOS           float64         `json:"acos"`
	TACOS          float64         `json:"tacos"`
	Margin         float64         `json:"margin"`
	CPC            float64         `json:"cpc"`
	CTR            float64         `json:"ctr"`
	ConversionRate float64         `json:"conversion_rate"`
	Impressions    int64           `json:"impressions"`
	Clicks         int64           `json:"clicks"`
	Conversions    int64           `json:"conversions"`
	Spend          decimal.Decimal `json:"spend"`
	Revenue        decimal.Decimal `json:"revenue"`
}

func (c *Client) FetchMetrics(ctx context.Context, campaignID string) (*MetricsSnapshot, error) {
	if campaignID == "" {
		return nil, fmt.Errorf("campaign_id is required")
	}
	body, err := c.doRequest(ctx, http.MethodGet, "/v1/campaigns/"+campaignID+"/metrics", nil)
	if err != nil {
		return nil, err
	}
	var snap MetricsSnapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("failed to decode metrics: %w", err)
	}
	return &snap, nil
}

func (c *Client) SetCampaignStatus(ctx context.Context, campaignID, status string) error {
	if campaignID == "" {
		return fmt.Errorf("campaign_id is required")
	}
	payload := map[string]string{"status": status}
	_, err := c.doRequest(ctx, http.MethodPost, "/v1/campaigns/"+campaignID+"/status", payload)
	return err
}

func (c *Client) AdjustBid(ctx context.Context, campaignID string, deltaPct float64) error {
	if campaignID == "" {
		return fmt.Errorf("campaign_id is required")
	}
	payload := map[string]float64{"delta_pct": deltaPct}
	_, err := c.doRequest(ctx, http.MethodPost, "/v1/campaigns/"+campaignID+"/bid", payload)
	return err
}

func (c *Client) doRequest(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.host+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
