package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/planmarket/planmarket/internal/logging"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTimeout is the per-call timeout when Options.Timeout is zero.
	DefaultTimeout = 30 * time.Second

	// DefaultRefreshPath exchanges the HTTP-only refresh cookie for an access token.
	DefaultRefreshPath = "/auth/refresh"
)

// State is the authentication state of a Client.
type State int32

const (
	StateUnauthenticated State = iota
	StateAuthenticated
	StateRefreshPending
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateRefreshPending:
		return "refresh_pending"
	case StateFailed:
		return "failed"
	}
	return fmt.Sprintf("state(%d)", int32(s))
}

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	RefreshPath string
	// HTTPClient is optional. A cookie jar is installed when it has none.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client talks to the marketplace backend. It attaches the bearer token to
// every call and, on a 401, refreshes the token once and replays the call.
type Client struct {
	baseURL     string
	refreshPath string
	httpClient  *http.Client
	logger      *zap.Logger
	metrics     Metrics

	mu        sync.RWMutex
	token     string
	state     State
	onRefresh []func(token string)

	refreshGroup singleflight.Group
}

// Request describes one backend call. Body is kept as bytes so the call can
// be replayed after a token refresh.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string
	Header      http.Header

	// SkipAuthRetry disables the refresh-and-replay on 401 (login, logout).
	SkipAuthRetry bool
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.BaseURL) == "" {
		return nil, errors.New("apiclient: base URL is required")
	}
	if _, err := url.ParseRequestURI(opts.BaseURL); err != nil {
		return nil, fmt.Errorf("apiclient: parse base URL: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if httpClient.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("apiclient: cookie jar: %w", err)
		}
		httpClient.Jar = jar
	}

	refreshPath := opts.RefreshPath
	if refreshPath == "" {
		refreshPath = DefaultRefreshPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		baseURL:     strings.TrimRight(opts.BaseURL, "/"),
		refreshPath: refreshPath,
		httpClient:  httpClient,
		logger:      logger,
	}, nil
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string { return c.baseURL }

// Logger returns the client's base logger.
func (c *Client) Logger() *zap.Logger { return c.logger }

// Token returns the access token currently held, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// State returns the current authentication state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetToken replaces the held access token. An empty token signs out locally.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if token == "" {
		c.state = StateUnauthenticated
	} else {
		c.state = StateAuthenticated
	}
}

// ClearToken drops the held token.
func (c *Client) ClearToken() { c.SetToken("") }

// OnTokenRefreshed registers fn to run after every successful refresh.
func (c *Client) OnTokenRefreshed(fn func(token string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = append(c.onRefresh, fn)
}

// Metrics returns a snapshot of this client's call counters.
func (c *Client) Metrics() MetricsSnapshot { return c.metrics.snapshot() }

func (c *Client) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// Do sends req. A 2xx/3xx response is returned open; the caller closes the
// body. Any other status comes back as *HTTPError with the body consumed.
//
// On a 401 the client refreshes once and replays req with the new token. If
// the refresh fails, the original 401 is returned unchanged.
func (c *Client) Do(ctx context.Context, req *Request) (*http.Response, error) {
	resp, err := c.send(ctx, req, c.Token())
	if err == nil || req.SkipAuthRetry || !errors.Is(err, ErrUnauthorized) {
		return resp, err
	}

	logger := logging.NewLogger(ctx, c.logger)
	token, rerr := c.refresh(ctx)
	if rerr != nil {
		logger.LogWarnf("auth_retry", "refresh after 401 on %s %s failed: %v", req.Method, req.Path, rerr)
		return nil, err
	}

	logger.LogDebugf("auth_retry", "replaying %s %s with refreshed token", req.Method, req.Path)
	return c.send(ctx, req, token)
}

// Refresh exchanges the refresh cookie for a new access token.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	return c.refresh(ctx)
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	c.setState(StateRefreshPending)

	v, err, _ := c.refreshGroup.Do("refresh", func() (interface{}, error) {
		token, err := c.fetchToken(ctx)
		c.metrics.recordRefresh(err)
		if err != nil {
			c.setState(StateFailed)
			return "", err
		}

		c.mu.Lock()
		c.token = token
		c.state = StateAuthenticated
		hooks := append([]func(string){}, c.onRefresh...)
		c.mu.Unlock()

		for _, fn := range hooks {
			fn(token)
		}
		return token, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// TokenResponse is the body returned by login and refresh.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

// Value returns whichever token field the backend filled.
func (t TokenResponse) Value() string {
	if t.AccessToken != "" {
		return t.AccessToken
	}
	return t.Token
}

func (c *Client) fetchToken(ctx context.Context) (string, error) {
	resp, err := c.send(ctx, &Request{Method: http.MethodPost, Path: c.refreshPath}, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var tr TokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode refresh response: %w", err)
	}
	if tr.Value() == "" {
		return "", ErrNoToken
	}
	return tr.Value(), nil
}

func (c *Client) send(ctx context.Context, r *Request, token string) (*http.Response, error) {
	logger := logging.NewLogger(ctx, c.logger)
	start := time.Now()

	reqURL := c.baseURL + r.Path
	if len(r.Query) > 0 {
		reqURL += "?" + r.Query.Encode()
	}

	var body io.Reader
	if r.Body != nil {
		body = bytes.NewReader(r.Body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, reqURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rid := logging.RequestID(ctx)
	if rid == "" {
		rid = uuid.New().String()
	}
	req.Header.Set("X-Request-Id", rid)

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		nerr := &NetworkError{Method: r.Method, URL: reqURL, Err: err}
		logger.LogError(r.Method+" "+r.Path, nerr)
		c.metrics.recordCall(duration, nerr)
		return nil, nerr
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		herr := newHTTPError(r.Method, r.Path, resp.StatusCode, data)
		logger.LogWarnf(r.Method+" "+r.Path, "backend returned status %d: %s", resp.StatusCode, herr.Message)
		c.metrics.recordCall(duration, herr)
		return nil, herr
	}

	c.metrics.recordCall(duration, nil)
	return resp, nil
}

// DoJSON sends req and decodes a JSON body into out (nil discards it).
func (c *Client) DoJSON(ctx context.Context, req *Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("decode %s %s: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	return c.DoJSON(ctx, &Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, in, out)
}

func (c *Client) PutJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, in, out)
}

func (c *Client) PatchJSON(ctx context.Context, path string, in, out any) error {
	return c.sendJSON(ctx, http.MethodPatch, path, in, out)
}

func (c *Client) Delete(ctx context.Context, path string, out any) error {
	return c.DoJSON(ctx, &Request{Method: http.MethodDelete, Path: path}, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, in, out any) error {
	req := &Request{Method: method, Path: path}
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		req.Body = data
		req.ContentType = "application/json"
	}
	return c.DoJSON(ctx, req, out)
}

// PostMultipart sends an already encoded multipart body.
func (c *Client) PostMultipart(ctx context.Context, path string, body []byte, contentType string, out any) error {
	return c.DoJSON(ctx, &Request{Method: http.MethodPost, Path: path, Body: body, ContentType: contentType}, out)
}

func (c *Client) PutMultipart(ctx context.Context, path string, body []byte, contentType string, out any) error {
	return c.DoJSON(ctx, &Request{Method: http.MethodPut, Path: path, Body: body, ContentType: contentType}, out)
}

// Download streams the response body of GET path into w and returns the
// filename announced in Content-Disposition, if any.
func (c *Client) Download(ctx context.Context, path string, w io.Writer) (string, int64, error) {
	resp, err := c.Do(ctx, &Request{Method: http.MethodGet, Path: path})
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return "", n, fmt.Errorf("read download body: %w", err)
	}
	return filenameFromDisposition(resp.Header.Get("Content-Disposition")), n, nil
}

func filenameFromDisposition(header string) string {
	if header == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(header)
	if err != nil {
		return ""
	}
	return params["filename"]
}
