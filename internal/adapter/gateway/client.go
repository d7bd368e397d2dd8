package gateway

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/iho/cfadjust/internal/domain"
	"github.com/iho/cfadjust/internal/usecase"
)

// Host endpoints.
const (
	createPath   = "/cf/create"
	updatePath   = "/cf/update"
	updateJSPath = "/cf/update.js"

	LedgerPagePath   = "/cf"
	AccountsPagePath = "/accounts"
)

// Operation names used in errors, logs and metrics.
const (
	OpConvertToTransfer = "convert_to_transfer"
	OpSetCounterparty   = "set_counterparty"
	OpCreateEntry       = "create_entry"
	OpFetchPage         = "fetch_page"
)

const acceptHeader = "*/*;q=0.5, text/javascript, application/javascript, application/ecmascript, application/x-ecmascript"

// Observer receives per-call measurements.
type Observer interface {
	ObserveGatewayCall(operation string, status int, duration time.Duration)
	ObservePacingWait(d time.Duration)
}

// Config configures the host client.
type Config struct {
	BaseURL   string
	Cookie    string
	CSRFToken string
	Timeout   time.Duration
	// RateLimit is the number of calls per second; zero disables pacing.
	RateLimit float64
	RateBurst int
}

// Client talks to the host ledger with the session of a logged-in browser.
// It implements usecase.Gateway.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	limiter    *rate.Limiter
	cookie     string
	csrfToken  string
	observer   Observer
	logger     zerolog.Logger
}

var _ usecase.Gateway = (*Client)(nil)

// New creates a new Client.
func New(cfg Config, observer Observer, logger zerolog.Logger) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid host base url %q", cfg.BaseURL)
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	return &Client{
		baseURL:    base,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, burst),
		cookie:     cfg.Cookie,
		csrfToken:  cfg.CSRFToken,
		observer:   observer,
		logger:     logger.With().Str("component", "gateway").Logger(),
	}, nil
}

// WithCSRFToken returns a copy of the client that sends token. Pages carry
// the token in their csrf-token meta tag.
func (c *Client) WithCSRFToken(token string) *Client {
	clone := *c
	clone.csrfToken = token
	return &clone
}

// ConvertToTransfer marks the entry as a transfer with no counterparty.
func (c *Client) ConvertToTransfer(ctx context.Context, entryID string) (*usecase.GatewayResponse, error) {
	query := url.Values{}
	query.Set("change_type", "enable_transfer")
	query.Set("id", entryID)

	return c.do(ctx, OpConvertToTransfer, http.MethodPut, updateJSPath+"?"+query.Encode(), nil)
}

// SetCounterparty sets the other side of a transfer entry.
func (c *Client) SetCounterparty(ctx context.Context, entryID, accountID, subAccountID string) (*usecase.GatewayResponse, error) {
	return c.do(ctx, OpSetCounterparty, http.MethodPut, updatePath, EncodeCounterpartyForm(entryID, accountID, subAccountID))
}

// CreateEntry registers a new entry.
func (c *Client) CreateEntry(ctx context.Context, req domain.NewEntryRequest) (*usecase.GatewayResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return c.do(ctx, OpCreateEntry, http.MethodPost, createPath, EncodeCreateForm(req))
}

// FetchPage downloads a rendered page of the host, such as LedgerPagePath.
func (c *Client) FetchPage(ctx context.Context, path string) ([]byte, error) {
	if err := c.wait(ctx, OpFetchPage); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+path, nil)
	if err != nil {
		return nil, &domain.RemoteCallError{Op: OpFetchPage, Err: err}
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	req.Header.Set("Accept-Language", "ja")

	body, status, _, err := c.send(req, OpFetchPage)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &domain.RemoteCallError{Op: OpFetchPage, StatusCode: status}
	}
	return body, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, form url.Values) (*usecase.GatewayResponse, error) {
	if err := c.wait(ctx, op); err != nil {
		return nil, err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.String()+path, body)
	if err != nil {
		return nil, &domain.RemoteCallError{Op: op, Err: err}
	}
	c.setHeaders(req)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")
	}

	respBody, status, contentType, err := c.send(req, op)
	if err != nil {
		return nil, err
	}
	if status < 200 || status > 299 {
		return nil, &domain.RemoteCallError{Op: op, StatusCode: status}
	}

	resp := &usecase.GatewayResponse{StatusCode: status}
	if strings.Contains(contentType, "text/javascript") {
		resp.Script = string(respBody)
	}
	return resp, nil
}

// send executes req and reads the whole body so the host has finished
// processing before the next step starts.
func (c *Client) send(req *http.Request, op string) ([]byte, int, string, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.observer.ObserveGatewayCall(op, 0, time.Since(start))
		c.logger.Warn().Err(err).Str("op", op).Msg("host call failed")
		return nil, 0, "", &domain.RemoteCallError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	duration := time.Since(start)
	c.observer.ObserveGatewayCall(op, resp.StatusCode, duration)
	if err != nil {
		return nil, 0, "", &domain.RemoteCallError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}

	c.logger.Debug().
		Str("op", op).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Int("status", resp.StatusCode).
		Dur("duration", duration).
		Msg("host call completed")

	return body, resp.StatusCode, resp.Header.Get("Content-Type"), nil
}

func (c *Client) wait(ctx context.Context, op string) error {
	start := time.Now()
	if err := c.limiter.Wait(ctx); err != nil {
		return &domain.RemoteCallError{Op: op, Err: err}
	}
	c.observer.ObservePacingWait(time.Since(start))
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-CSRF-Token", c.csrfToken)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", "ja")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
}
