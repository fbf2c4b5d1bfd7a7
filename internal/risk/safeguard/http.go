package safeguard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"custodia/internal/sentinel"
)

// HTTPDoer is the part of *http.Client the registry client needs.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPConfig configures the partner registry client.
type HTTPConfig struct {
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
}

// HTTPClient queries a partner certification registry:
// GET {base}/providers/{id}/certification -> {"certified": bool}.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  HTTPDoer
}

type certificationResponse struct {
	ProviderID string `json:"provider_id"`
	Certified  bool   `json:"certified"`
}

func NewHTTPClient(cfg HTTPConfig) *HTTPClient {
	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTPClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		client:  client,
	}
}

// HasCertifiedSafeguard treats an unknown provider (404) as uncertified.
// Outages, throttling and malformed bodies are errors.
func (c *HTTPClient) HasCertifiedSafeguard(ctx context.Context, providerID string) (bool, error) {
	endpoint := fmt.Sprintf("%s/providers/%s/certification", c.baseURL, url.PathEscape(providerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, fmt.Errorf("build certification request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return false, fmt.Errorf("certification request: %w", sentinel.ErrTimeout)
		}
		return false, fmt.Errorf("certification request: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return false, fmt.Errorf("read certification response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return false, fmt.Errorf("certification registry returned %d: %w", resp.StatusCode, sentinel.ErrUnavailable)
	case resp.StatusCode != http.StatusOK:
		return false, fmt.Errorf("certification registry returned %d", resp.StatusCode)
	}

	var decoded certificationResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return false, fmt.Errorf("decode certification response: %w", err)
	}
	return decoded.Certified, nil
}
