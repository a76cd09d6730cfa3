// Package api is the HTTP client for the bot admin REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	apperr "github.com/tgienger/botdesk/internal/errors"
	"github.com/tgienger/botdesk/internal/models"
)

// DefaultHTTPTimeout is used by clients created without a custom http.Client.
const DefaultHTTPTimeout = 15 * time.Second

// RequestIDHeader carries the per-call id the server echoes in its logs.
const RequestIDHeader = "X-Request-ID"

// Client wraps the HTTP interactions with the admin API.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	log        *slog.Logger

	mu    sync.RWMutex
	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithToken sets the bearer token sent with every request.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// NewClient creates a client for the API rooted at rawURL.
func NewClient(rawURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url %q: scheme must be http or https", rawURL)
	}
	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: DefaultHTTPTimeout},
		log:        slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// Token returns the current bearer token.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// SetToken replaces the bearer token.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
}

// ListTasks fetches one page of bot tasks.
func (c *Client) ListTasks(ctx context.Context, q models.TaskQuery) (models.PageResult, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("skip", strconv.Itoa(q.Skip))
	if q.Platform != "" {
		params.Set("platform", string(q.Platform))
	}
	params.Set("include_hidden", strconv.FormatBool(q.IncludeHidden))

	var page models.PageResult
	if err := c.call(ctx, http.MethodGet, "/bot_tasks", params, nil, &page); err != nil {
		return models.PageResult{}, err
	}
	if page.Items == nil {
		page.Items = []models.Task{}
	}
	return page, nil
}

// GetTask fetches a single task.
func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var task models.Task
	if err := c.call(ctx, http.MethodGet, taskPath(id), nil, nil, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// UpdateTask patches the editable fields of a task.
func (c *Client) UpdateTask(ctx context.Context, id string, patch models.TaskPatch) (models.Task, error) {
	var task models.Task
	if err := c.call(ctx, http.MethodPatch, taskPath(id), nil, patch, &task); err != nil {
		return models.Task{}, err
	}
	return task, nil
}

// DeleteTask deletes a task. A response without a body counts as success.
func (c *Client) DeleteTask(ctx context.Context, id string) (models.DeleteResult, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodDelete, taskPath(id), nil, nil, &raw); err != nil {
		return models.DeleteResult{}, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return models.DeleteResult{Success: true}, nil
	}
	var res models.DeleteResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return models.DeleteResult{}, apperr.Wrap(apperr.CodeDecode, err, "")
	}
	return res, nil
}

// CreateBot registers a new bot account.
func (c *Client) CreateBot(ctx context.Context, bot models.Bot) (models.Bot, error) {
	if err := bot.Validate(); err != nil {
		return models.Bot{}, apperr.Wrap(apperr.CodeInvalidArgument, err, err.Error())
	}
	var created models.Bot
	if err := c.call(ctx, http.MethodPost, "/bots", nil, bot, &created); err != nil {
		return models.Bot{}, err
	}
	return created, nil
}

func taskPath(id string) string {
	return "/bot_tasks/" + url.PathEscape(id)
}

func (c *Client) call(ctx context.Context, method, endpoint string, params url.Values, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return apperr.Wrap(apperr.CodeInvalidArgument, err, "encode request")
		}
		body = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, endpoint, params, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	err = c.do(req, out)
	c.log.Debug("api call",
		"method", method,
		"path", req.URL.Path,
		"request_id", req.Header.Get(RequestIDHeader),
		"duration", time.Since(start),
		"error", err,
	)
	return err
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, params url.Values, body io.Reader) (*http.Request, error) {
	// endpoint is in escaped form so ids containing '/' survive
	u := c.baseURL.JoinPath(endpoint)
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, apperr.Wrap(apperr.CodeInvalidArgument, err, "create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var netErr net.Error
		if stdErrors.Is(err, context.DeadlineExceeded) || (stdErrors.As(err, &netErr) && netErr.Timeout()) {
			return apperr.Wrap(apperr.CodeTimeout, err, "")
		}
		if stdErrors.Is(err, context.Canceled) {
			return err
		}
		return apperr.Wrap(apperr.CodeTransport, err, "")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return apperr.Wrap(apperr.CodeTransport, err, "read response")
		}
		*raw = data
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperr.Wrap(apperr.CodeDecode, err, "", apperr.WithStatus(resp.StatusCode))
	}
	return nil
}

// decodeError turns an error response into a coded error. The server may
// answer with {"detail": ...}, {"message": ...} or plain text.
func decodeError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var payload struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
	}
	message := ""
	if json.Unmarshal(data, &payload) == nil {
		switch d := payload.Detail.(type) {
		case string:
			message = d
		case nil:
		default:
			if b, err := json.Marshal(d); err == nil {
				message = string(b)
			}
		}
		if message == "" {
			message = payload.Message
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(data))
	}
	return apperr.New(codeForStatus(resp.StatusCode), message, apperr.WithStatus(resp.StatusCode))
}

func codeForStatus(status int) apperr.Code {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return apperr.CodeUnauthorized
	case status == http.StatusNotFound:
		return apperr.CodeNotFound
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		return apperr.CodeTimeout
	case status >= 500:
		return apperr.CodeServer
	case status >= 400:
		return apperr.CodeInvalidArgument
	}
	return apperr.CodeUnknown
}
