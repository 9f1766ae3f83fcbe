// Shared HTTP plumbing for the catalog and likes clients
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/desertthunder/sieve/internal/shared"
	"golang.org/x/time/rate"
)

// maxErrorBody caps how much of a failed response body is kept in a [shared.StatusError].
const maxErrorBody = 512

// maxResponseBody caps how much of any response body is read.
const maxResponseBody = 8 << 20

// APIClient makes rate-limited GET requests against a JSON API rooted at a base URL.
type APIClient struct {
	service    string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewAPIClient creates an [APIClient] for service.
//
// An empty baseURL falls back to defaultURL and a nil client to [http.DefaultClient].
// requestsPerSecond <= 0 disables client-side pacing.
func NewAPIClient(service, baseURL, defaultURL string, client *http.Client, requestsPerSecond float64) *APIClient {
	if baseURL == "" {
		baseURL = defaultURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if requestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), 1)
	}

	return &APIClient{
		service:    service,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		limiter:    limiter,
	}
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Decode unmarshals the response body into v.
func (r *APIResponse) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Get performs a GET request to path with query and returns the raw response.
//
// Non-2xx responses are returned as a [*shared.StatusError] alongside the response.
func (a *APIClient) Get(ctx context.Context, path string, query url.Values) (*APIResponse, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	fullURL := a.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json; charset=utf-8")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if len(body) > maxResponseBody {
		return nil, fmt.Errorf("failed to read response: body exceeds %d bytes", maxResponseBody)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := truncate(strings.TrimSpace(string(body)), maxErrorBody)
		return apiResp, &shared.StatusError{Service: a.service, StatusCode: resp.StatusCode, Message: msg}
	}

	return apiResp, nil
}

// truncate shortens s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// GetJSON performs [APIClient.Get] and decodes a successful body into result.
func (a *APIClient) GetJSON(ctx context.Context, path string, query url.Values, result any) error {
	resp, err := a.Get(ctx, path, query)
	if err != nil {
		return err
	}
	return resp.Decode(result)
}
