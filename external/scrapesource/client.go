package scrapesource

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fixture-scout/internal/platform/identity"
	"github.com/riskibarqy/fixture-scout/internal/platform/logging"
	"github.com/riskibarqy/fixture-scout/internal/platform/resilience"
	"github.com/riskibarqy/fixture-scout/internal/usecase"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const (
	defaultTimeout        = 15 * time.Second
	defaultConnectTimeout = 8 * time.Second
	defaultMaxRetries     = 3
	defaultConcurrency    = 3
	defaultBackoffBase    = time.Second
	defaultJitter         = 500 * time.Millisecond
	defaultAntiBotJitter  = 2 * time.Second
	defaultMaxBodyBytes   = 8 << 20
	maxRetryAfter         = 30 * time.Second
	maxBodyExcerpt        = 240

	attemptClassOK        = "ok"
	attemptClassNetwork   = "network"
	attemptClassAntiBot   = "anti_bot"
	attemptClassFatal     = "fatal_http"
	attemptClassMalformed = "malformed"
)

var errSourceTransient = crerr.New("source transient failure")

type ClientConfig struct {
	HTTPClient     *http.Client
	Timeout        time.Duration
	ConnectTimeout time.Duration
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// Concurrency caps in-flight requests across every caller of the client.
	Concurrency    int
	BackoffBase    time.Duration
	Jitter         time.Duration
	AntiBotJitter  time.Duration
	MaxBodyBytes   int64
	Identities     *identity.Rotator
	Logger         *logging.Logger
	CircuitBreaker resilience.CircuitBreakerConfig
}

// Client fetches HTML source documents. A single instance owns its connection
// pool and permit; share it rather than creating one per call.
type Client struct {
	httpClient    *http.Client
	maxRetries    int
	backoffBase   time.Duration
	jitter        time.Duration
	antiBotJitter time.Duration
	maxBodyBytes  int64
	permits       *semaphore.Weighted
	identities    *identity.Rotator
	breakers      *resilience.BreakerSet
	logger        *logging.Logger

	int64n func(n int64) int64
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = defaultConnectTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = defaultMaxRetries
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaultBackoffBase
	}
	if cfg.Jitter < 0 {
		cfg.Jitter = defaultJitter
	}
	if cfg.AntiBotJitter < 0 {
		cfg.AntiBotJitter = defaultAntiBotJitter
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	identities := cfg.Identities
	if identities == nil {
		identities = identity.NewRotator(nil)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = newHTTPClient(cfg)
	}

	return &Client{
		httpClient:    httpClient,
		maxRetries:    cfg.MaxRetries,
		backoffBase:   cfg.BackoffBase,
		jitter:        cfg.Jitter,
		antiBotJitter: cfg.AntiBotJitter,
		maxBodyBytes:  cfg.MaxBodyBytes,
		permits:       semaphore.NewWeighted(int64(cfg.Concurrency)),
		identities:    identities,
		breakers:      resilience.NewBreakerSet(cfg.CircuitBreaker),
		logger:        logger,
		int64n:        rand.Int64N,
		sleep:         sleepContext,
	}
}

func newHTTPClient(cfg ClientConfig) *http.Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.ConnectTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.Timeout,
		IdleConnTimeout:       90 * time.Second,
		MaxIdleConns:          cfg.Concurrency * 4,
		MaxIdleConnsPerHost:   cfg.Concurrency,
		MaxConnsPerHost:       cfg.Concurrency,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(transport),
	}
}

// CircuitStates reports breaker state per source host.
func (c *Client) CircuitStates() map[string]resilience.CircuitState {
	return c.breakers.States()
}

// Fetch downloads one HTML document. Network errors and anti-bot statuses
// (403, 429, 503) are retried with growing backoff; any other non-200 status
// and non-HTML bodies fail at once. The returned error is *usecase.FetchError.
func (c *Client) Fetch(ctx context.Context, rawURL, locale string) (usecase.SourceDocument, error) {
	start := time.Now()
	fail := func(kind error, status int, trail []usecase.FetchAttempt, err error) (usecase.SourceDocument, error) {
		return usecase.SourceDocument{}, &usecase.FetchError{
			Kind:       kind,
			URL:        rawURL,
			Locale:     locale,
			StatusCode: status,
			Attempts:   len(trail),
			Trail:      trail,
			Err:        err,
		}
	}

	target, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || target.Host == "" || (target.Scheme != "http" && target.Scheme != "https") {
		return fail(usecase.ErrSourceFatalHTTP, 0, nil, fmt.Errorf("%w: invalid source url %q", usecase.ErrInvalidInput, rawURL))
	}

	breaker := c.breakers.For(target.Host)
	if err := breaker.Allow(); err != nil {
		c.logger.WarnContext(ctx, "source circuit breaker rejected request", "host", target.Host, "state", breaker.State())
		return fail(usecase.ErrSourceCircuitOpen, 0, nil, err)
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("source.url", target.String()),
			attribute.String("source.locale", locale),
		)
	}

	trail := make([]usecase.FetchAttempt, 0, c.maxRetries+1)
	var (
		lastErr    error
		lastStatus int
		lastKind   = usecase.ErrSourceNetwork
	)
	for attempt := 1; attempt <= c.maxRetries+1; attempt++ {
		result := c.attempt(ctx, target.String(), locale)
		record := usecase.FetchAttempt{
			Attempt:    attempt,
			StatusCode: result.status,
			Class:      result.class,
			Elapsed:    result.elapsed,
		}
		if result.err != nil {
			record.Error = result.err.Error()
		}
		lastErr = result.err
		lastStatus = result.status

		c.logger.DebugContext(ctx, "source fetch attempt",
			"url", target.String(),
			"attempt", attempt,
			"status", result.status,
			"class", result.class,
			"elapsed_ms", result.elapsed.Milliseconds(),
		)

		switch result.class {
		case attemptClassOK:
			trail = append(trail, record)
			breaker.RecordSuccess()
			return usecase.SourceDocument{
				URL:        target.String(),
				Locale:     locale,
				StatusCode: result.status,
				Body:       result.body,
				Trail:      trail,
				Elapsed:    time.Since(start),
			}, nil
		case attemptClassFatal:
			trail = append(trail, record)
			breaker.RecordSuccess()
			return fail(usecase.ErrSourceFatalHTTP, result.status, trail, result.err)
		case attemptClassMalformed:
			trail = append(trail, record)
			breaker.RecordSuccess()
			return fail(usecase.ErrSourceMalformed, result.status, trail, result.err)
		case attemptClassAntiBot:
			lastKind = usecase.ErrSourceAntiBot
		default:
			lastKind = usecase.ErrSourceNetwork
		}

		if ctx.Err() != nil {
			trail = append(trail, record)
			breaker.RecordFailure()
			return fail(lastKind, lastStatus, trail, ctx.Err())
		}
		if attempt > c.maxRetries {
			trail = append(trail, record)
			break
		}

		wait := c.backoff(attempt, result.class == attemptClassAntiBot, result.retryAfter)
		record.Wait = wait
		trail = append(trail, record)
		c.logger.WarnContext(ctx, "source fetch retrying",
			"url", target.String(),
			"attempt", attempt,
			"status", result.status,
			"class", result.class,
			"wait_ms", wait.Milliseconds(),
			"error", result.err,
		)
		if err := c.sleep(ctx, wait); err != nil {
			breaker.RecordFailure()
			return fail(lastKind, lastStatus, trail, err)
		}
	}

	if isCircuitFailure(lastErr) {
		breaker.RecordFailure()
	} else {
		breaker.RecordSuccess()
	}
	c.logger.WarnContext(ctx, "source fetch exhausted retries",
		"url", target.String(),
		"attempts", len(trail),
		"status", lastStatus,
		"error", lastErr,
	)
	return fail(lastKind, lastStatus, trail, lastErr)
}

type attemptResult struct {
	class      string
	status     int
	body       []byte
	retryAfter time.Duration
	elapsed    time.Duration
	err        error
}

// attempt holds one permit for the duration of a single request. The permit
// is released before any backoff wait.
func (c *Client) attempt(ctx context.Context, target, locale string) attemptResult {
	if err := c.permits.Acquire(ctx, 1); err != nil {
		return attemptResult{class: attemptClassNetwork, err: fmt.Errorf("%w: acquire fetch permit: %v", errSourceTransient, err)}
	}
	defer c.permits.Release(1)

	start := time.Now()
	result := c.do(ctx, target, locale)
	result.elapsed = time.Since(start)
	return result
}

func (c *Client) do(ctx context.Context, target, locale string) attemptResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return attemptResult{class: attemptClassFatal, err: fmt.Errorf("build request: %w", err)}
	}
	c.identities.Next(target, locale).Apply(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return attemptResult{class: attemptClassNetwork, err: fmt.Errorf("%w: send request: %v", errSourceTransient, err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodyBytes))
	if err != nil {
		return attemptResult{class: attemptClassNetwork, status: resp.StatusCode, err: fmt.Errorf("%w: read response body: %v", errSourceTransient, err)}
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		if !looksLikeHTML(raw) {
			return attemptResult{
				class:  attemptClassMalformed,
				status: resp.StatusCode,
				err:    fmt.Errorf("response is not an html document content_type=%q body=%s", resp.Header.Get("Content-Type"), abbreviateBody(raw)),
			}
		}
		return attemptResult{class: attemptClassOK, status: resp.StatusCode, body: raw}
	case isAntiBotStatus(resp.StatusCode):
		return attemptResult{
			class:      attemptClassAntiBot,
			status:     resp.StatusCode,
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			err:        fmt.Errorf("%w: source status=%d body=%s", errSourceTransient, resp.StatusCode, abbreviateBody(raw)),
		}
	default:
		return attemptResult{
			class:  attemptClassFatal,
			status: resp.StatusCode,
			err:    fmt.Errorf("source status=%d body=%s", resp.StatusCode, abbreviateBody(raw)),
		}
	}
}

// backoff waits base*attempt plus uniform jitter, with an extra jitter term
// for anti-bot responses. A Retry-After hint, capped, is added on top so the
// schedule keeps growing and stays jittered.
func (c *Client) backoff(attempt int, antiBot bool, retryAfter time.Duration) time.Duration {
	wait := c.backoffBase*time.Duration(attempt) + c.randDuration(c.jitter)
	if antiBot {
		wait += c.randDuration(c.antiBotJitter)
	}
	if retryAfter > 0 {
		wait += min(retryAfter, maxRetryAfter)
	}
	return wait
}

func (c *Client) randDuration(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return time.Duration(c.int64n(int64(limit)))
}

func isAntiBotStatus(code int) bool {
	return code == http.StatusForbidden || code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

func isCircuitFailure(err error) bool {
	return stderrors.Is(err, errSourceTransient)
}

func looksLikeHTML(body []byte) bool {
	body = bytes.TrimPrefix(body, []byte("\xef\xbb\xbf"))
	body = bytes.TrimLeft(body, " \t\r\n")
	return len(body) > 0 && body[0] == '<'
}

func parseRetryAfter(value string) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= maxBodyExcerpt {
		return text
	}
	cut := maxBodyExcerpt
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
