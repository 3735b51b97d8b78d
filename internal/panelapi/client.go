package panelapi

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"pkt.systems/mcdrpanel/schema"
	"pkt.systems/pslog"
)

// Config configures the panel REST client.
type Config struct {
	BaseURL            string
	Token              string
	Timeout            time.Duration
	InsecureSkipVerify bool
	UserAgent          string
	Logger             pslog.Logger
}

// Client wraps the panel backend's REST API.
type Client struct {
	baseURL *url.URL
	token   string
	agent   string
	http    *http.Client
	log     pslog.Logger
}

// APIError is a non-2xx response from the panel backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return e.Detail
	}
	return fmt.Sprintf("panel API error: %d %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// New constructs a client for the backend at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	baseURL, err := ParseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Client{
		baseURL: baseURL,
		token:   strings.TrimSpace(cfg.Token),
		agent:   cfg.UserAgent,
		http: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		log: logger,
	}, nil
}

// ParseBaseURL validates a panel base URL. A bare host:port is treated as http.
func ParseBaseURL(raw string) (*url.URL, error) {
	addr := strings.TrimSpace(raw)
	if addr == "" {
		return nil, errors.New("panel base url is required")
	}
	if !strings.Contains(addr, "://") {
		addr = "http://" + addr
	}
	parsed, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("parse panel base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("unsupported panel url scheme %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("panel base url must include a host")
	}
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed, nil
}

// BaseURL returns a copy of the configured base URL.
func (c *Client) BaseURL() *url.URL {
	u := *c.baseURL
	return &u
}

// ListServers returns the server roster.
func (c *Client) ListServers(ctx context.Context) ([]schema.Server, error) {
	var servers []schema.Server
	if err := c.getJSON(ctx, "/api/servers", &servers); err != nil {
		return nil, err
	}
	return servers, nil
}

// ServerLogs returns the historical console lines of a server.
func (c *Client) ServerLogs(ctx context.Context, id schema.ServerID) ([]string, error) {
	id, err := schema.NormalizeServerID(string(id))
	if err != nil {
		return nil, err
	}
	var logs []string
	if err := c.getJSON(ctx, "/api/servers/"+string(id)+"/logs", &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// StartServer asks the backend to start a server.
func (c *Client) StartServer(ctx context.Context, id schema.ServerID) error {
	return c.action(ctx, "start", id)
}

// StopServer asks the backend to stop a server.
func (c *Client) StopServer(ctx context.Context, id schema.ServerID) error {
	return c.action(ctx, "stop", id)
}

// RestartServer asks the backend to restart a server.
func (c *Client) RestartServer(ctx context.Context, id schema.ServerID) error {
	return c.action(ctx, "restart", id)
}

func (c *Client) action(ctx context.Context, action string, id schema.ServerID) error {
	id, err := schema.NormalizeServerID(string(id))
	if err != nil {
		return err
	}
	query := url.Values{}
	query.Set("server_id", string(id))
	res, err := c.do(ctx, http.MethodPost, "/api/servers/"+action, query)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		return readAPIError(res)
	}
	_, _ = io.Copy(io.Discard, res.Body)
	return nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out any) error {
	res, err := c.do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.StatusCode >= 300 {
		return readAPIError(res)
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, query url.Values) (*http.Response, error) {
	if c == nil || c.http == nil || c.baseURL == nil {
		return nil, errors.New("panel client not initialized")
	}
	if ctx == nil {
		return nil, errors.New("missing context")
	}
	reqURL := *c.baseURL
	reqURL.Path = path.Join("/", strings.TrimSuffix(c.baseURL.Path, "/"), endpoint)
	reqURL.RawPath = ""
	if query != nil {
		reqURL.RawQuery = query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.agent != "" {
		req.Header.Set("User-Agent", c.agent)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	start := time.Now()
	res, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("panel request failed", "method", method, "path", endpoint, "err", err)
		return nil, err
	}
	c.log.Trace("panel request", "method", method, "path", endpoint, "status", res.StatusCode, "duration_ms", time.Since(start).Milliseconds())
	return res, nil
}

func readAPIError(res *http.Response) error {
	if res == nil {
		return &APIError{}
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	apiErr := &APIError{StatusCode: res.StatusCode}
	var payload struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && len(payload.Detail) > 0 {
		var detail string
		if err := json.Unmarshal(payload.Detail, &detail); err == nil {
			apiErr.Detail = strings.TrimSpace(detail)
		} else {
			apiErr.Detail = strings.TrimSpace(string(payload.Detail))
		}
	}
	if apiErr.Detail == "" {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = res.Status
		}
		apiErr.Detail = msg
	}
	return apiErr
}
