// Package cadvisor is the HTTP client for the cAdvisor container-stats API.
// It decodes the loosely-typed upstream payload into ContainerSample values
// at this boundary; nothing past this package touches raw JSON.
package cadvisor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/containerd/errdefs"

	"cadbridge"
)

const (
	dockerPath  = "/api/v1.3/docker"
	machinePath = "/api/v1.3/machine"

	// defaultTimeout bounds one upstream exchange, retries included. The
	// collector may hang; a timeout is reported as UpstreamUnavailable.
	defaultTimeout = 2 * time.Second

	// staleAfter is how old the newest stat may be before the container is
	// considered stopped. cAdvisor only tracks running containers, so stat
	// freshness is the only state signal it gives us.
	staleAfter = 2 * time.Minute
)

// Client fetches and decodes per-container statistics from cAdvisor.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each upstream exchange, retries included.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithHTTPClient replaces the HTTP client, dropping the retry transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithClock replaces the wall clock used for state freshness.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// NewClient creates a cAdvisor client for the given base URL. Transient
// network errors are retried with exponential backoff inside the request
// timeout; HTTP errors are not retried here (retry policy across polls
// belongs to the caller).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse cadvisor URL %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("cadvisor URL %q: unsupported scheme %q", baseURL, u.Scheme)
	}

	c := &Client{
		baseURL: u,
		now:     time.Now,
	}
	c.httpClient = &http.Client{
		Timeout: defaultTimeout,
		Transport: &retryRoundTripper{
			base: http.DefaultTransport,
			// Read the timeout per request so WithTimeout also widens the
			// retry budget.
			newBackoff: func() backoff.BackOff {
				return backoff.NewExponentialBackOff(
					backoff.WithInitialInterval(50*time.Millisecond),
					backoff.WithMaxInterval(500*time.Millisecond),
					backoff.WithMaxElapsedTime(c.httpClient.Timeout),
				)
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// IsUnavailable reports whether err means the collector could not be
// reached: connection failure, timeout, or a non-2xx response.
func IsUnavailable(err error) bool { return errdefs.IsUnavailable(err) }

// IsMalformed reports whether err means the collector answered with an
// undecodable payload.
func IsMalformed(err error) bool { return errdefs.IsInvalidArgument(err) }

// retryRoundTripper retries requests on transient network errors.
type retryRoundTripper struct {
	base       http.RoundTripper
	newBackoff func() backoff.BackOff
}

func (rt *retryRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	attempt := func() (*http.Response, error) {
		resp, err := rt.base.RoundTrip(req)
		if err != nil {
			var opErr *net.OpError
			if errors.As(err, &opErr) {
				return nil, err
			}
			return nil, backoff.Permanent(err)
		}
		return resp, nil
	}
	boff := backoff.WithContext(rt.newBackoff(), req.Context())
	return backoff.RetryWithData(attempt, boff)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	reqURL := c.baseURL.JoinPath(path).String()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", reqURL, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w: %w", reqURL, errdefs.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("get %s: %w: status %s", reqURL, errdefs.ErrUnavailable, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("get %s: read body: %w: %w", reqURL, errdefs.ErrUnavailable, err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("get %s: decode body: %w: %w", reqURL, errdefs.ErrInvalidArgument, err)
	}
	return nil
}

// MachineCores returns the machine core count, used to normalize CPU rates.
// Never less than 1.
func (c *Client) MachineCores(ctx context.Context) (int, error) {
	var m wireMachine
	if err := c.get(ctx, machinePath, &m); err != nil {
		return 0, fmt.Errorf("fetch machine info: %w", err)
	}
	return max(m.NumCores, 1), nil
}

// Containers fetches the per-container stat histories, keyed by the resolved
// container identifier. Each history is chronological and bounded by
// whatever short window the collector retains; it may hold a single entry.
// A listed container without usable stats yields one stopped, zero-metric
// sample rather than being dropped.
func (c *Client) Containers(ctx context.Context) (map[string][]cadbridge.ContainerSample, error) {
	var doc map[string]wireContainer
	if err := c.get(ctx, dockerPath, &doc); err != nil {
		return nil, fmt.Errorf("fetch containers: %w", err)
	}

	out := make(map[string][]cadbridge.ContainerSample, len(doc))
	now := c.now()
	for id, wc := range doc {
		samples := wc.samples(id, now)
		out[samples[0].Name] = samples
	}
	return out, nil
}
