// Package gateway is the HTTP client for the ThoughtFlow REST service.
package gateway

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

	"github.com/oapi-codegen/runtime"
	"github.com/simonjohansson/thoughtflow/internal/model"
)

const DefaultTimeout = 10 * time.Second

// HttpRequestDoer performs HTTP requests.
type HttpRequestDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Option func(*Client) error

func WithHTTPClient(doer HttpRequestDoer) Option {
	return func(c *Client) error {
		c.client = doer
		return nil
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) error {
		if timeout <= 0 {
			return fmt.Errorf("timeout must be positive, got %s", timeout)
		}
		c.timeout = timeout
		return nil
	}
}

type Client struct {
	server  string
	client  HttpRequestDoer
	timeout time.Duration
}

func New(server string, opts ...Option) (*Client, error) {
	server = strings.TrimSpace(server)
	if server == "" {
		return nil, fmt.Errorf("server url is required")
	}
	parsed, err := url.Parse(server)
	if err != nil {
		return nil, fmt.Errorf("invalid server url %q: %w", server, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("server url %q must use http or https", server)
	}
	if !strings.HasSuffix(server, "/") {
		server += "/"
	}

	c := &Client{server: server, timeout: DefaultTimeout}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", "", nil, nil)
}

func (c *Client) CreateCard(ctx context.Context, req model.CreateCardRequest) (model.Card, error) {
	var card model.Card
	err := c.do(ctx, http.MethodPost, "/api/idea-card", "", req, &card)
	return card, err
}

func (c *Client) ListActiveCards(ctx context.Context) (model.CardList, error) {
	var list model.CardList
	err := c.do(ctx, http.MethodGet, "/api/idea-cards", "", nil, &list)
	return list, err
}

func (c *Client) ListDeletedCards(ctx context.Context) (model.CardList, error) {
	var list model.CardList
	err := c.do(ctx, http.MethodGet, "/api/idea-cards/deleted", "", nil, &list)
	return list, err
}

func (c *Client) GetCard(ctx context.Context, id string) (model.Card, error) {
	path, err := cardPath(id, "")
	if err != nil {
		return model.Card{}, err
	}
	var card model.Card
	err = c.do(ctx, http.MethodGet, path, "", nil, &card)
	return card, err
}

func (c *Client) UpdateCard(ctx context.Context, id string, req model.UpdateCardRequest) (model.Card, error) {
	path, err := cardPath(id, "")
	if err != nil {
		return model.Card{}, err
	}
	var card model.Card
	err = c.do(ctx, http.MethodPut, path, "", req, &card)
	return card, err
}

func (c *Client) SoftDeleteCard(ctx context.Context, id string) (model.MessageResponse, error) {
	path, err := cardPath(id, "/delete")
	if err != nil {
		return model.MessageResponse{}, err
	}
	var msg model.MessageResponse
	err = c.do(ctx, http.MethodPatch, path, "", nil, &msg)
	return msg, err
}

func (c *Client) RecoverCard(ctx context.Context, id string) (model.MessageResponse, error) {
	path, err := cardPath(id, "/recover")
	if err != nil {
		return model.MessageResponse{}, err
	}
	var msg model.MessageResponse
	err = c.do(ctx, http.MethodPatch, path, "", nil, &msg)
	return msg, err
}

func (c *Client) GetHistory(ctx context.Context, id string) (model.HistoryPage, error) {
	path, err := cardPath(id, "/history")
	if err != nil {
		return model.HistoryPage{}, err
	}
	var page model.HistoryPage
	err = c.do(ctx, http.MethodGet, path, "", nil, &page)
	return page, err
}

func (c *Client) GetTimeline(ctx context.Context, window model.TimeWindow) (model.Timeline, error) {
	fragments := make([]string, 0, 2)
	for _, param := range []struct {
		name  string
		value *time.Time
	}{{"start_time", window.Start}, {"end_time", window.End}} {
		if param.value == nil {
			continue
		}
		frag, err := timeQueryFragment(param.name, *param.value)
		if err != nil {
			return model.Timeline{}, err
		}
		fragments = append(fragments, frag)
	}
	var timeline model.Timeline
	err := c.do(ctx, http.MethodGet, "/api/timeline", strings.Join(fragments, "&"), nil, &timeline)
	return timeline, err
}

func cardPath(id, suffix string) (string, error) {
	pathParam, err := runtime.StyleParamWithLocation("simple", false, "id", runtime.ParamLocationPath, id)
	if err != nil {
		return "", fmt.Errorf("encode card id: %w", err)
	}
	return fmt.Sprintf("/api/idea-card/%s%s", pathParam, suffix), nil
}

// timeQueryFragment encodes a form-style query parameter, already escaped.
func timeQueryFragment(name string, value time.Time) (string, error) {
	frag, err := runtime.StyleParamWithLocation("form", true, name, runtime.ParamLocationQuery, value.Format(time.RFC3339Nano))
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}
	return frag, nil
}

func (c *Client) do(ctx context.Context, method, operationPath, rawQuery string, body any, out any) error {
	serverURL, err := url.Parse(c.server)
	if err != nil {
		return err
	}
	if operationPath[0] == '/' {
		operationPath = "." + operationPath
	}
	queryURL, err := serverURL.Parse(operationPath)
	if err != nil {
		return err
	}
	queryURL.RawQuery = rawQuery

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, queryURL.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, queryURL.Path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return newAPIError(resp.StatusCode, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
