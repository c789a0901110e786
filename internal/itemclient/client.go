package itemclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"duallist/internal/domain"
)

// ErrConflict is returned when the store already knows the id (HTTP 409).
var ErrConflict = errors.New("item already exists")

// RequestError is a non-success HTTP status from the store.
type RequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, body)
}

// Is lets errors.Is(err, ErrConflict) match 409 responses.
func (e *RequestError) Is(target error) bool {
	return target == ErrConflict && e.StatusCode == http.StatusConflict
}

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client is an HTTP client for the remote item store.
type Client struct {
	BaseURL    string
	HTTP       *http.Client
	Retries    int           // extra attempts for GETs that fail in transport
	RetryDelay time.Duration // pause between those attempts
}

// New creates a new item store client.
func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

type idRequest struct {
	ID int `json:"id"`
}

type reorderRequest struct {
	NewOrder []int `json:"newOrder"`
}

// ListItems fetches a page of available items.
func (c *Client) ListItems(ctx context.Context, req domain.PageRequest) (domain.Page, error) {
	q := url.Values{}
	q.Set("filter", req.Filter)
	q.Set("offset", strconv.Itoa(req.Offset))
	q.Set("limit", strconv.Itoa(req.Limit))
	return c.page(ctx, "/items?"+q.Encode())
}

// ListSelected fetches a page of the selection, in selection order.
func (c *Client) ListSelected(ctx context.Context, req domain.PageRequest) (domain.Page, error) {
	q := url.Values{}
	q.Set("offset", strconv.Itoa(req.Offset))
	q.Set("limit", strconv.Itoa(req.Limit))
	return c.page(ctx, "/selected?"+q.Encode())
}

func (c *Client) page(ctx context.Context, path string) (domain.Page, error) {
	var resp domain.Page
	if err := c.get(ctx, path, &resp); err != nil {
		return domain.Page{}, err
	}
	if resp.Items == nil {
		resp.Items = []domain.Item{}
	}
	return resp, nil
}

// Select moves an available item into the selection.
func (c *Client) Select(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, "/select", idRequest{ID: id}, nil)
}

// Add submits a new id. The store applies it asynchronously; a 409
// yields an error matching ErrConflict.
func (c *Client) Add(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodPost, "/add", idRequest{ID: id}, nil)
}

// Reorder submits the complete locally known selection order.
func (c *Client) Reorder(ctx context.Context, newOrder []int) error {
	if newOrder == nil {
		newOrder = []int{}
	}
	return c.do(ctx, http.MethodPost, "/reorder", reorderRequest{NewOrder: newOrder}, nil)
}

// get retries transport failures; reads are idempotent so a repeat is safe.
func (c *Client) get(ctx context.Context, path string, result any) error {
	var err error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return err
			case <-time.After(c.RetryDelay):
			}
		}
		err = c.do(ctx, http.MethodGet, path, nil, result)
		var transportErr *TransportError
		if !errors.As(err, &transportErr) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: fmt.Errorf("read response: %w", err)}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &RequestError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(respBody),
		}
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}
