// Package simplefin is a minimal client for a SimpleFIN-style aggregator:
// claim-token exchange plus a time-bounded /accounts fetch with short-lived
// response caching so repeated syncs don't hammer the upstream.
package simplefin

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"conti/internal/cache"
)

const (
	defaultTimeout  = 10 * time.Second
	defaultCacheTTL = time.Hour
)

type Client struct {
	httpc     *http.Client
	accessURL string
	responses *cache.TTLCache[*AccountSet]
}

type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client (tests, custom timeouts).
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) { c.httpc = httpc }
}

// WithCacheTTL overrides how long a successful /accounts response is reused.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *Client) { c.responses = cache.New[*AccountSet](8, ttl) }
}

func New(accessURL string, opts ...Option) *Client {
	c := &Client{
		httpc:     &http.Client{Timeout: defaultTimeout},
		accessURL: strings.TrimRight(accessURL, "/"),
		responses: cache.New[*AccountSet](8, defaultCacheTTL),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClaimAccessURL exchanges a one-time base64 setup token for a permanent
// access URL. The decoded token is itself the claim URL.
func ClaimAccessURL(ctx context.Context, httpc *http.Client, setupToken string) (string, error) {
	decoded, err := base64.StdEncoding.DecodeString(strings.TrimSpace(setupToken))
	if err != nil {
		return "", fmt.Errorf("decode setup token: %w", err)
	}
	claimURL := string(decoded)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, claimURL, nil)
	if err != nil {
		return "", fmt.Errorf("build claim request: %w", err)
	}
	if httpc == nil {
		httpc = &http.Client{Timeout: defaultTimeout}
	}
	res, err := httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("claim access url: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("claim access url: unexpected status %s", res.Status)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", fmt.Errorf("read claim response: %w", err)
	}
	return strings.TrimSpace(string(body)), nil
}

// FetchOptions bounds the transaction window and controls cache bypass.
type FetchOptions struct {
	Start time.Time
	End   time.Time

	// ForceRefresh skips the cached response; a manual refresh action must be
	// able to bypass the rate-limit cache deliberately.
	ForceRefresh bool
}

// Accounts fetches the account document, serving a cached copy when one is
// fresh enough. A failed fetch surfaces as a single error; nothing partial is
// returned.
func (c *Client) Accounts(ctx context.Context, opt FetchOptions) (*AccountSet, error) {
	key := cacheKey(opt)
	if !opt.ForceRefresh {
		if set, ok := c.responses.Get(key); ok {
			slog.DebugContext(ctx, "Serving cached account data", "key", key)
			return set, nil
		}
	}

	u, err := url.Parse(c.accessURL + "/accounts")
	if err != nil {
		return nil, fmt.Errorf("parse access url: %w", err)
	}
	q := u.Query()
	if !opt.Start.IsZero() {
		q.Set("start-date", strconv.FormatInt(opt.Start.Unix(), 10))
	}
	if !opt.End.IsZero() {
		q.Set("end-date", strconv.FormatInt(opt.End.Unix(), 10))
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build accounts request: %w", err)
	}

	res, err := c.httpc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch accounts: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch accounts: unexpected status %s", res.Status)
	}

	var set AccountSet
	if err := json.NewDecoder(res.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("decode accounts response: %w", err)
	}

	c.responses.Set(key, &set)
	return &set, nil
}

// cacheKey deliberately ignores the end of the window: callers pass a moving
// "now" as End, and keying on it would give every sync a fresh key and starve
// the cache. The TTL alone bounds staleness.
func cacheKey(opt FetchOptions) string {
	return fmt.Sprintf("accounts:%d", opt.Start.Unix())
}
