package adminauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/minto5z/adminauth/tokenstore"
)

// maxResponseBody bounds how much of a response is read when normalizing it.
const maxResponseBody = 4 << 20

// Client is the refreshing HTTP client behind every API call. It attaches the
// stored bearer token, normalizes errors, and on a 401 performs one refresh
// and one replay of the original request.
//
// Construct through [Builder.Build]; the zero value is not usable.
type Client struct {
	cfg     Config
	baseURL string
	http    *http.Client
	store   tokenstore.Store
	events  *eventDispatcher
	metrics *Metrics
	logger  *slog.Logger

	refreshGroup   singleflight.Group
	refreshLimiter *rate.Limiter

	// onUnauthenticated is wired by Build to force the session to anonymous
	// when refresh exhaustion clears the token store. Navigation is never
	// decided here.
	onUnauthenticated func()
}

func newClient(
	cfg Config,
	httpClient *http.Client,
	store tokenstore.Store,
	events *eventDispatcher,
	metrics *Metrics,
	logger *slog.Logger,
) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout}
	}
	if logger == nil {
		logger = slog.Default()
	}

	perSecond := rate.Limit(float64(cfg.Refresh.MaxPerMinute) / 60.0)

	return &Client{
		cfg:            cfg,
		baseURL:        strings.TrimRight(cfg.API.BaseURL, "/"),
		http:           httpClient,
		store:          store,
		events:         events,
		metrics:        metrics,
		logger:         logger,
		refreshLimiter: rate.NewLimiter(perSecond, cfg.Refresh.Burst),
	}
}

// Store exposes the token store backing this client.
func (c *Client) Store() tokenstore.Store {
	return c.store
}

// do issues one API request and decodes the envelope's data into out.
// A 401 on a bearer-carrying request triggers the refresh-and-replay cycle;
// a 401 on the replay (or on a request without a bearer) is surfaced without
// another refresh.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("adminauth: encode %s %s: %w", method, path, err)
		}
	}

	target := c.buildURL(path, query)

	bearer := c.currentAccessToken(ctx)
	resp, err := c.send(ctx, method, target, payload, bearer)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && bearer != "" {
		drain(resp)

		if err := c.refresh(ctx); err != nil {
			return fmt.Errorf("%s %s: %w", method, path, err)
		}

		c.metrics.Inc(MetricRetryAfterRefresh)
		resp, err = c.send(ctx, method, target, payload, c.currentAccessToken(ctx))
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			// Already retried once; do not loop.
			drain(resp)
			return fmt.Errorf("%s %s after refresh: %w", method, path, ErrUnauthenticated)
		}
	}

	return c.decode(resp, out)
}

// refresh coalesces concurrent attempts into one backend call when configured
// to, otherwise every failing request refreshes on its own.
func (c *Client) refresh(ctx context.Context) error {
	if !c.cfg.Refresh.Coalesce {
		return c.doRefresh(ctx)
	}

	ch := c.refreshGroup.DoChan("refresh", func() (any, error) {
		// Detached from the first caller so its cancellation does not fail
		// every coalesced waiter.
		return nil, c.doRefresh(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Shared {
			c.metrics.Inc(MetricRefreshCoalesced)
		}
		return res.Err
	case <-ctx.Done():
		return fmt.Errorf("adminauth: refresh wait: %w", ctx.Err())
	}
}

// doRefresh performs one refresh call. Any failure clears the token store and
// reports the session unauthenticated; there are no partial-session states.
func (c *Client) doRefresh(ctx context.Context) error {
	if !c.refreshLimiter.Allow() {
		c.metrics.Inc(MetricRefreshRateLimited)
		return ErrRefreshRateLimited
	}

	pair, ok, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("adminauth: token store: %w", err)
	}
	if !ok || pair.RefreshToken == "" {
		return ErrUnauthenticated
	}

	c.metrics.Inc(MetricRefreshAttempt)

	payload, err := json.Marshal(map[string]string{"refreshToken": pair.RefreshToken})
	if err != nil {
		return fmt.Errorf("adminauth: encode refresh: %w", err)
	}

	var result AuthResult
	resp, err := c.send(ctx, http.MethodPost, c.buildURL(c.cfg.Refresh.Path, nil), payload, "")
	if err == nil {
		err = c.decode(resp, &result)
	}
	if err != nil {
		c.metrics.Inc(MetricRefreshFailure)
		c.forceUnauthenticated(ctx, err)
		return fmt.Errorf("%w: %w", ErrRefreshInvalid, err)
	}

	rotated := tokenstore.TokenPair{
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	if err := c.store.Set(ctx, rotated); err != nil {
		return fmt.Errorf("adminauth: persist rotated tokens: %w", err)
	}

	c.metrics.Inc(MetricRefreshSuccess)
	c.events.Emit(ctx, Event{
		Timestamp: time.Now(),
		Type:      EventRefreshSuccess,
	})
	return nil
}

// forceUnauthenticated clears the store, emits the forced-logout event, and
// notifies the session. The caller still decides what error to surface.
func (c *Client) forceUnauthenticated(ctx context.Context, cause error) {
	if err := c.store.Clear(ctx); err != nil {
		c.logger.Warn("token store clear failed", "error", err)
	}
	c.metrics.Inc(MetricForcedLogout)
	c.events.Emit(ctx, Event{
		Timestamp: time.Now(),
		Type:      EventRefreshFailure,
		Error:     cause.Error(),
	})
	c.events.Emit(ctx, Event{
		Timestamp: time.Now(),
		Type:      EventForcedLogout,
	})
	if c.onUnauthenticated != nil {
		c.onUnauthenticated()
	}
}

func (c *Client) currentAccessToken(ctx context.Context) string {
	pair, ok, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Warn("token store read failed", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return pair.AccessToken
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, bearer string) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("adminauth: build %s %s: %w", method, target, err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.API.UserAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	c.metrics.Inc(MetricRequest)

	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.Inc(MetricRequestFailure)
		return nil, fmt.Errorf("adminauth: %s %s: %w", method, req.URL.Path, err)
	}
	return resp, nil
}

// decode normalizes every response into either out or *APIError. Callers
// never see the raw transport body.
func (c *Client) decode(resp *http.Response, out any) error {
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.metrics.Inc(MetricRequestFailure)
		return fmt.Errorf("adminauth: read response: %w", err)
	}

	var env envelope
	if len(data) > 0 {
		// A non-JSON body still normalizes below; envelope fields stay zero.
		_ = json.Unmarshal(data, &env)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.Inc(MetricRequestFailure)
		return newAPIError(resp.StatusCode, env)
	}

	if out == nil {
		return nil
	}
	if env.Data == nil {
		return fmt.Errorf("adminauth: response missing data payload")
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("adminauth: decode data payload: %w", err)
	}
	return nil
}

func newAPIError(status int, env envelope) *APIError {
	apiErr := &APIError{
		Message: env.Message,
		Status:  status,
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	if env.Error != nil {
		apiErr.Code = env.Error.Code
		apiErr.Details = env.Error.Details
	}
	return apiErr
}

func (c *Client) buildURL(path string, query url.Values) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	return target
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBody))
	_ = resp.Body.Close()
}
