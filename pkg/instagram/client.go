package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"igclient/pkg/config"
	errs "igclient/pkg/errors"
	"igclient/pkg/logger"
	"igclient/pkg/ratelimit"
	"igclient/pkg/retry"
)

const (
	defaultUserAgent = "Instagram 10.26.0 Android (18/4.3; 320dpi; 720x1280; Xiaomi; HM 1SW; armani; qcom; en_US)"
	defaultMaxPages  = 10
	bodyPreviewLen   = 200
)

// Options configures a Client. Credentials are handed in explicitly; the
// client never reads them from the environment.
type Options struct {
	Username   string
	Password   string
	TOTPSecret string

	BaseURL   string
	UserAgent string
	// Timeout bounds each HTTP request. Zero means no timeout.
	Timeout time.Duration
	// MaxPages is the page bound used when a listing call does not pass one
	MaxPages int

	// Limiter, when set, is waited on before every request
	Limiter ratelimit.Limiter
	// Retry, when set, re-runs failed GET requests. Mutations are never retried.
	Retry *retry.Config
	// HTTPClient is copied and given the session's cookie jar
	HTTPClient *http.Client
}

// OptionsFromConfig builds client options from the application configuration
func OptionsFromConfig(cfg *config.Config, log logger.Logger) Options {
	return Options{
		Username:   cfg.Instagram.Username,
		Password:   cfg.Instagram.Password,
		TOTPSecret: cfg.Instagram.TOTPSecret,
		BaseURL:    cfg.Instagram.BaseURL,
		UserAgent:  cfg.Instagram.UserAgent,
		Timeout:    cfg.Instagram.Timeout,
		MaxPages:   cfg.Pagination.MaxPages,
		Limiter:    ratelimit.PerMinute(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Strategy),
		Retry:      retry.FromConfig(cfg.Retry, log),
	}
}

// Client is a session-bound Instagram API client. One client holds one
// logical session; use one client per account.
type Client struct {
	httpClient *http.Client
	headers    map[string]string
	baseURL    *url.URL
	maxPages   int
	totpSecret string
	limiter    ratelimit.Limiter
	retry      *retry.Config
	logger     logger.Logger

	credentials struct{ username, password string }
	session     *Session
	cookies     *sessionJar
}

// request describes one API call relative to the base URL
type request struct {
	method string
	path   string
	query  url.Values
	form   url.Values
}

func get(path string, query url.Values) request {
	return request{method: http.MethodGet, path: path, query: query}
}

func post(path string, form url.Values) request {
	return request{method: http.MethodPost, path: path, form: form}
}

// NewClient creates a client in the unauthenticated state
func NewClient(opts Options, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	base := opts.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	baseURL, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil || baseURL.Scheme == "" || baseURL.Host == "" {
		return nil, errs.InvalidArgument("invalid base URL %q", base)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = defaultMaxPages
	}

	httpClient := &http.Client{}
	if opts.HTTPClient != nil {
		copied := *opts.HTTPClient
		httpClient = &copied
	}
	if opts.Timeout > 0 {
		httpClient.Timeout = opts.Timeout
	}
	cookies := newSessionJar()
	httpClient.Jar = cookies

	c := &Client{
		httpClient: httpClient,
		headers: map[string]string{
			"User-Agent":           userAgent,
			"Accept":               "*/*",
			"Accept-Language":      "en-US",
			"X-IG-Capabilities":    "3brTBw==",
			"X-IG-Connection-Type": "WIFI",
		},
		baseURL:    baseURL,
		maxPages:   maxPages,
		totpSecret: opts.TOTPSecret,
		limiter:    opts.Limiter,
		retry:      opts.Retry,
		logger:     log,
		session:    newSession(),
		cookies:    cookies,
	}
	c.credentials.username = opts.Username
	c.credentials.password = opts.Password

	return c, nil
}

// SetHeader sets a custom header sent with every request
func (c *Client) SetHeader(key, value string) {
	c.headers[key] = value
}

func (c *Client) csrfToken() string {
	for _, cookie := range c.cookies.Cookies(c.baseURL) {
		if cookie.Name == "csrftoken" {
			return cookie.Value
		}
	}
	return ""
}

// response is an accepted HTTP exchange waiting to be decoded
type response struct {
	status int
	body   []byte
}

// call sends req and decodes a successful response into target. GET
// requests are retried when a retry config is set. Only the accepted
// response is decoded.
func (c *Client) call(ctx context.Context, req request, target interface{}) error {
	exchange := func(ctx context.Context) (response, error) {
		status, body, err := c.send(ctx, req)
		if err != nil {
			return response{}, err
		}
		return response{status: status, body: body}, c.check(req, status, body)
	}

	var (
		resp response
		err  error
	)
	if req.method == http.MethodGet {
		resp, err = retry.DoWithResult[response](ctx, exchange, c.retry)
	} else {
		resp, err = exchange(ctx)
	}
	if err != nil {
		return err
	}
	return c.unmarshal(req, resp.status, resp.body, target)
}

// send performs one HTTP round trip and returns the status and body.
// Only transport failures are returned as errors.
func (c *Client) send(ctx context.Context, req request) (int, []byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return 0, nil, errs.Transport(err)
		}
	}

	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return 0, nil, errs.Unexpected(fmt.Errorf("failed to create request: %w", err))
	}

	resp, err := c.doRequest(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, errs.Transport(fmt.Errorf("failed to read response body: %w", err))
	}
	return resp.StatusCode, body, nil
}

func (c *Client) newRequest(ctx context.Context, req request) (*http.Request, error) {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.form != nil {
		body = strings.NewReader(req.form.Encode())
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if req.form != nil {
		httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}
	if token := c.csrfToken(); token != "" {
		httpReq.Header.Set("X-CSRFToken", token)
	}
	return httpReq, nil
}

// doRequest performs an HTTP request with the configured headers
func (c *Client) doRequest(req *http.Request) (*http.Response, error) {
	for key, value := range c.headers {
		req.Header.Set(key, value)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending HTTP request", map[string]interface{}{
		"method": req.Method,
		"path":   req.URL.Path,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)

	if err != nil {
		c.logger.ErrorWithFields("HTTP request failed", map[string]interface{}{
			"method":   req.Method,
			"path":     req.URL.Path,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, errs.Transport(err)
	}

	c.logger.DebugWithFields("HTTP request completed", map[string]interface{}{
		"method":   req.Method,
		"path":     req.URL.Path,
		"status":   resp.StatusCode,
		"duration": duration,
	})

	return resp, nil
}

// decode checks the response envelope and unmarshals the body into target
func (c *Client) decode(req request, status int, body []byte, target interface{}) error {
	if err := c.check(req, status, body); err != nil {
		return err
	}
	return c.unmarshal(req, status, body, target)
}

// check turns a non-200 status or a "fail" envelope into a rejection. An
// unreadable body on a 200 is left for unmarshal to report.
func (c *Client) check(req request, status int, body []byte) error {
	var envelope statusResponse
	_ = json.Unmarshal(body, &envelope)

	if status != http.StatusOK || envelope.Status == "fail" {
		return c.rejection(req, status, envelope)
	}
	return nil
}

// unmarshal parses an accepted body into target. A nil target still
// requires the body to be valid JSON.
func (c *Client) unmarshal(req request, status int, body []byte, target interface{}) error {
	if target == nil {
		target = &statusResponse{}
	}
	if jsonErr := json.Unmarshal(body, target); jsonErr != nil {
		preview := string(body)
		if len(preview) > bodyPreviewLen {
			preview = preview[:bodyPreviewLen] + "..."
		}
		c.logger.ErrorWithFields("failed to parse JSON response", map[string]interface{}{
			"path":         req.path,
			"status":       status,
			"error":        jsonErr.Error(),
			"body_preview": preview,
		})
		return &errs.Error{
			Type:    errs.ErrorTypeUnexpected,
			Message: fmt.Sprintf("failed to parse JSON: %v", jsonErr),
			Code:    status,
			Reason:  errs.ReasonParsing,
		}
	}
	return nil
}

// rejection maps a refused request to a RemoteRejected error. The API's own
// error_type wins over the status-derived reason.
func (c *Client) rejection(req request, status int, envelope statusResponse) error {
	reason := envelope.ErrorType
	if reason == "" {
		switch {
		case status == http.StatusNotFound:
			reason = errs.ReasonNotFound
		case status == http.StatusTooManyRequests:
			reason = errs.ReasonRateLimit
		case status >= http.StatusInternalServerError:
			reason = errs.ReasonServerError
		}
	}

	fields := map[string]interface{}{
		"method":  req.method,
		"path":    req.path,
		"status":  status,
		"reason":  reason,
		"message": envelope.Message,
	}
	if status >= http.StatusInternalServerError {
		c.logger.ErrorWithFields("server error", fields)
	} else {
		c.logger.WarnWithFields("request rejected", fields)
	}

	return errs.RemoteRejected(status, reason, envelope.Message)
}
