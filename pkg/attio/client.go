// Package attio provides bearer-token REST access to an Attio-style CRM
// record store: querying records by object type, single-record CRUD, and
// attribute/status metadata lookups.
package attio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Default base URL for the Attio v2 API.
const defaultBaseURL = "https://api.attio.com/v2"

// Client defines the CRM API operations used by the sidebar core.
type Client interface {
	QueryRecords(ctx context.Context, object string, req QueryRequest) ([]Record, error)
	GetRecord(ctx context.Context, object, recordID string) (*Record, error)
	CreateRecord(ctx context.Context, object string, values map[string]any) (*Record, error)
	UpdateRecord(ctx context.Context, object, recordID string, values map[string]any) (*Record, error)
	ListAttributes(ctx context.Context, object string) ([]Attribute, error)
	ListStatuses(ctx context.Context, object, attributeID string) ([]StatusOption, error)
}

// APIError is returned when the CRM responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("attio: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second rate limit for CRM API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new CRM client. By default API calls are throttled to
// 10 req/s.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// recordsEnvelope wraps list responses; dataEnvelope wraps single-item ones.
type recordsEnvelope struct {
	Data []Record `json:"data"`
}

type recordEnvelope struct {
	Data Record `json:"data"`
}

func (c *httpClient) QueryRecords(ctx context.Context, object string, req QueryRequest) ([]Record, error) {
	var resp recordsEnvelope
	path := fmt.Sprintf("/objects/%s/records/query", object)
	if err := c.send(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("attio: query %s records", object))
	}
	return resp.Data, nil
}

func (c *httpClient) GetRecord(ctx context.Context, object, recordID string) (*Record, error) {
	var resp recordEnvelope
	path := fmt.Sprintf("/objects/%s/records/%s", object, recordID)
	if err := c.send(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("attio: get %s record %s", object, recordID))
	}
	return &resp.Data, nil
}

func (c *httpClient) CreateRecord(ctx context.Context, object string, values map[string]any) (*Record, error) {
	var resp recordEnvelope
	body := map[string]any{"data": map[string]any{"values": values}}
	path := fmt.Sprintf("/objects/%s/records", object)
	if err := c.send(ctx, http.MethodPost, path, body, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("attio: create %s record", object))
	}
	return &resp.Data, nil
}

func (c *httpClient) UpdateRecord(ctx context.Context, object, recordID string, values map[string]any) (*Record, error) {
	var resp recordEnvelope
	body := map[string]any{"data": map[string]any{"values": values}}
	path := fmt.Sprintf("/objects/%s/records/%s", object, recordID)
	if err := c.send(ctx, http.MethodPatch, path, body, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("attio: update %s record %s", object, recordID))
	}
	return &resp.Data, nil
}

func (c *httpClient) ListAttributes(ctx context.Context, object string) ([]Attribute, error) {
	var resp struct {
		Data []Attribute `json:"data"`
	}
	path := fmt.Sprintf("/objects/%s/attributes", object)
	if err := c.send(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("attio: list %s attributes", object))
	}
	return resp.Data, nil
}

func (c *httpClient) ListStatuses(ctx context.Context, object, attributeID string) ([]StatusOption, error) {
	var resp struct {
		Data []StatusOption `json:"data"`
	}
	path := fmt.Sprintf("/objects/%s/attributes/%s/statuses", object, attributeID)
	if err := c.send(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, eris.Wrap(err, fmt.Sprintf("attio: list statuses for attribute %s", attributeID))
	}
	return resp.Data, nil
}

func (c *httpClient) send(ctx context.Context, method, path string, body, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit")
	}

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return eris.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}

	return nil
}
