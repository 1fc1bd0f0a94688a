// Package fetch issues single GET requests against catalog sites with
// adapter-supplied browser headers, bounded timeouts, and exponential,
// jittered retry on transient failures.
package fetch

import (
	"context"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"

	"bookharvest/config"
)

// Client performs HTTP GETs for the harvester. It holds no mutable state
// between calls beyond the shared transport, so concurrent use is safe.
type Client struct {
	timeout    time.Duration
	backoff    time.Duration
	backoffMax time.Duration
	userAgent  string
	transport  http.RoundTripper
	retryHook  func()
}

// New builds a client from cfg.
func New(cfg *config.Config) *Client {
	return &Client{
		timeout:    cfg.Timeout,
		backoff:    cfg.RetryBackoff,
		backoffMax: cfg.RetryBackoffMax,
		userAgent:  cfg.UserAgent,
		transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// WithTransport replaces the HTTP transport. Used by tests to inject a mock.
func (c *Client) WithTransport(rt http.RoundTripper) {
	c.transport = rt
}

// OnRetry registers a hook invoked once per scheduled retry.
func (c *Client) OnRetry(hook func()) {
	c.retryHook = hook
}

// Get fetches url with the given headers, retrying up to retries times.
// Callers pass retries=0 for detail-page fetches where a miss is cheap.
// The returned error is either a *TransportError or a *StatusError.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string, retries int) (string, error) {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", &TransportError{URL: url, Err: err}
		}

		body, err := c.get(url, headers)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if attempt >= retries {
			return "", lastErr
		}
		if c.retryHook != nil {
			c.retryHook()
		}

		delay := c.delay(attempt)
		slog.Debug("fetch retry",
			slog.String("url", url),
			slog.Int("attempt", attempt+1),
			slog.Duration("delay", delay),
			slog.String("cause", Label(lastErr)),
		)
		select {
		case <-ctx.Done():
			return "", &TransportError{URL: url, Err: ctx.Err()}
		case <-time.After(delay):
		}
	}
}

// get runs one synchronous collector visit and classifies the outcome.
func (c *Client) get(url string, headers map[string]string) (string, error) {
	collector := colly.NewCollector(
		colly.UserAgent(c.userAgent),
		colly.AllowURLRevisit(),
	)
	collector.IgnoreRobotsTxt = true
	collector.SetRequestTimeout(c.timeout)
	if c.transport != nil {
		collector.WithTransport(c.transport)
	}

	var (
		body     []byte
		status   int
		visitErr error
	)
	collector.OnRequest(func(r *colly.Request) {
		for name, value := range headers {
			r.Headers.Set(name, value)
		}
	})
	collector.OnResponse(func(r *colly.Response) {
		status = r.StatusCode
		body = r.Body
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil {
			status = r.StatusCode
		}
		visitErr = err
	})

	if err := collector.Visit(url); err != nil {
		visitErr = err
	}
	collector.Wait()

	if visitErr != nil {
		if status >= 300 || (status > 0 && status < 200) {
			return "", &StatusError{URL: url, Status: status}
		}
		return "", &TransportError{URL: url, Err: visitErr}
	}
	return string(body), nil
}

// delay computes the backoff before retry number attempt+1, with up to 25%
// jitter so parallel harvests do not hammer an upstream in lockstep.
func (c *Client) delay(attempt int) time.Duration {
	base := c.backoff
	if base <= 0 {
		base = 100 * time.Millisecond
	}

	delay := base * time.Duration(1<<attempt)
	if c.backoffMax > 0 && delay > c.backoffMax {
		delay = c.backoffMax
	}
	if quarter := int64(delay / 4); quarter > 0 {
		delay += time.Duration(rand.Int63n(quarter))
	}
	return delay
}
