// Package httpx drives the generic HTTP endpoints under test. Transport
// and server failures never surface as panics or bare errors to the
// runner; they come back inside the response record so a failing endpoint
// still produces a scorable test result.
package httpx

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gauntlet-qa/gauntlet/internal/common"
	"github.com/gauntlet-qa/gauntlet/internal/model"
)

// Config holds target-endpoint client settings.
type Config struct {
	BaseURL    string
	Headers    map[string]string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// Client issues requests against the system under test.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	baseURL    string
	headers    map[string]string
	retryOpts  common.RetryOptions
}

// Request is a single call against the target.
type Request struct {
	Params  map[string]string
	Headers map[string]string
	Method  string
	Path    string
	Body    string
	Timeout time.Duration
}

// New creates a Client.
func New(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	headers := map[string]string{
		"User-Agent":   "gauntlet-http-client/1.0",
		"Accept":       "application/json, text/plain, */*",
		"Content-Type": "application/json",
	}
	for k, v := range cfg.Headers {
		headers[k] = v
	}

	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		headers: headers,
		logger:  logger,
		retryOpts: common.RetryOptions{
			MaxAttempts:  cfg.MaxRetries,
			InitialDelay: cfg.RetryDelay,
		},
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Do executes req, retrying on 429 and 5xx responses. The returned record
// is always populated; transport failures set its Error field and a zero
// status code.
func (c *Client) Do(ctx context.Context, req Request) model.HTTPResponse {
	start := time.Now()
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}

	fullURL, err := c.buildURL(req)
	if err != nil {
		return model.HTTPResponse{
			Method:       method,
			URL:          req.Path,
			Error:        fmt.Sprintf("invalid request URL: %v", err),
			ResponseTime: time.Since(start),
		}
	}

	var resp model.HTTPResponse
	operation := func() error {
		var opErr error
		resp, opErr = c.doOnce(ctx, method, fullURL, req)
		return opErr
	}

	if err := common.WithRetry(ctx, operation, c.retryOpts); err != nil {
		c.logger.Error("http request failed", "method", method, "url", fullURL, "error", err)
		return model.HTTPResponse{
			Method:       method,
			URL:          fullURL,
			Error:        err.Error(),
			ResponseTime: time.Since(start),
		}
	}

	resp.ResponseTime = time.Since(start)
	c.logger.Info("http request completed",
		"method", method,
		"url", fullURL,
		"status", resp.StatusCode,
		"duration", resp.ResponseTime)
	return resp
}

// buildURL joins the base URL with the request path and encodes query
// params. Bodyless methods fold the body-less semantics into params only.
func (c *Client) buildURL(req Request) (string, error) {
	raw := req.Path
	if c.baseURL != "" {
		raw = c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}

	if len(req.Params) > 0 {
		q := u.Query()
		for k, v := range req.Params {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u.String(), nil
}

func (c *Client) doOnce(ctx context.Context, method, fullURL string, req Request) (model.HTTPResponse, error) {
	var body io.Reader
	if req.Body != "" && method != http.MethodGet && method != http.MethodHead {
		body = strings.NewReader(req.Body)
	}

	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return model.HTTPResponse{}, &common.RetryableError{Err: err, Retryable: false}
	}

	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return model.HTTPResponse{}, &common.RetryableError{
			Err:       fmt.Errorf("%w: %v", common.ErrHTTPRequest, err),
			Retryable: true,
		}
	}
	defer func() { _ = httpResp.Body.Close() }()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return model.HTTPResponse{}, fmt.Errorf("failed to read response body: %w", err)
	}

	switch {
	case httpResp.StatusCode == http.StatusTooManyRequests:
		return model.HTTPResponse{}, common.ErrRateLimit
	case httpResp.StatusCode >= 500:
		return model.HTTPResponse{}, &common.RetryableError{
			Err:       fmt.Errorf("server error (status %d)", httpResp.StatusCode),
			Retryable: true,
		}
	}

	headers := make(map[string]string, len(httpResp.Header))
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	return model.HTTPResponse{
		StatusCode: httpResp.StatusCode,
		Body:       string(respBody),
		Headers:    headers,
		URL:        fullURL,
		Method:     method,
	}, nil
}
