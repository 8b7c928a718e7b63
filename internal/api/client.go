package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/apalyukha/listkit/internal/model"
)

const (
	// headerRevision carries the client's last known list revision on
	// mutating requests.
	headerRevision = "X-Last-Known-Revision"

	defaultTimeout = 30 * time.Second
)

// StatusError is returned when the server answers with a non-2xx
// status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.Code, e.Body)
}

// HTTPClient implements Client over JSON REST endpoints.
type HTTPClient struct {
	baseURL string
	token   string
	httpc   *http.Client
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates a client for the backend at baseURL. token is
// sent as a bearer authorization header on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		token:   token,
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
}

// GetList implements Client.GetList.
func (c *HTTPClient) GetList(ctx context.Context) (*ListResponse, error) {
	var resp ListResponse
	if err := c.do(ctx, http.MethodGet, "/list/", nil, nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateItem implements Client.CreateItem.
func (c *HTTPClient) CreateItem(ctx context.Context, item model.Item, revision *int) (*ItemResponse, error) {
	var resp ItemResponse
	body := ItemRequest{Element: item}
	if err := c.do(ctx, http.MethodPost, "/list/", &body, revision, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateItem implements Client.UpdateItem.
func (c *HTTPClient) UpdateItem(ctx context.Context, item model.Item, revision *int) (*ItemResponse, error) {
	var resp ItemResponse
	body := ItemRequest{Element: item}
	if err := c.do(ctx, http.MethodPut, "/list/"+url.PathEscape(item.ID), &body, revision, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// DeleteItem implements Client.DeleteItem.
func (c *HTTPClient) DeleteItem(ctx context.Context, id string, revision *int) (*ItemResponse, error) {
	var resp ItemResponse
	if err := c.do(ctx, http.MethodDelete, "/list/"+url.PathEscape(id), nil, revision, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do performs a single request against path, encoding body (when
// non-nil) as JSON and decoding the response into out.
func (c *HTTPClient) do(ctx context.Context, method, path string, body any, revision *int, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if revision != nil {
		req.Header.Set(headerRevision, strconv.Itoa(*revision))
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Keep a short prefix of the body for diagnostics.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return &StatusError{Code: resp.StatusCode, Body: string(snippet)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
