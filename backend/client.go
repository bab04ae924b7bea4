/*
Package backend is the REST client for the fuel-station backend.

PURPOSE:
  The backend is the system of record for stations, catalogs and shifts.
  This client wraps its endpoints with typed methods, converting payloads
  through the factory package.

SESSION AND CSRF:
  The backend uses cookie sessions with a CSRF token. Every mutating call
  (POST, PUT, DELETE) is preceded by:

    GET /sanctum/csrf-cookie          -> sets the XSRF-TOKEN cookie
    POST ... X-XSRF-TOKEN: <cookie>   -> the URL-decoded cookie value

  Cookies live in the client's jar for the lifetime of the Client.

ERRORS:
  Any non-2xx response becomes *APIError carrying the status and the
  backend's "message" field, or DefaultErrorMessage when there is none.
  Calls are never retried; the caller decides.

CACHING:
  GET responses are cached under "<scope>:<path>?<query>" when a cache is
  configured. Mutations drop every key under the affected station's scope
  and the shift's own scope. Reads that precede a write (close, reopen)
  go through fetch, which always hits the backend and refreshes the entry.

SEE ALSO:
  - backend/endpoints.go: typed endpoint methods
  - factory/: payload parsing
  - cache/: cache implementations
*/
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/warp/fuel-station/cache"
	"github.com/warp/fuel-station/factory"
)

const (
	csrfPath   = "/sanctum/csrf-cookie"
	csrfCookie = "XSRF-TOKEN"
	csrfHeader = "X-XSRF-TOKEN"

	// DefaultErrorMessage is used when the backend error has no message.
	DefaultErrorMessage = "Something went wrong. Please try again."
)

// ErrUnreachable wraps transport failures: refused connections, timeouts.
var ErrUnreachable = errors.New("backend unreachable")

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether err is a backend 404.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Config configures a Client.
type Config struct {
	BaseURL  string
	Timeout  time.Duration
	Cache    cache.Cache   // optional
	CacheTTL time.Duration // zero disables caching
	Logger   zerolog.Logger
	// Transport overrides the HTTP transport, mainly for tests.
	Transport http.RoundTripper
}

// Client talks to the backend. It is safe for concurrent use.
type Client struct {
	base  *url.URL
	http  *http.Client
	cache cache.Cache
	ttl   time.Duration
	log   zerolog.Logger
}

// New creates a Client with its own cookie jar.
func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid backend url %q", cfg.BaseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: base,
		http: &http.Client{
			Jar:       jar,
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		cache: cfg.Cache,
		ttl:   cfg.CacheTTL,
		log:   cfg.Logger.With().Str("component", "backend").Logger(),
	}, nil
}

// =============================================================================
// REQUEST PLUMBING
// =============================================================================

func (c *Client) url(path string, query url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// csrf performs the pre-flight and returns the token to echo back.
func (c *Client) csrf(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(csrfPath, nil), nil)
	if err != nil {
		return "", fmt.Errorf("csrf: create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("csrf: %w: %w", ErrUnreachable, err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", &APIError{Status: resp.StatusCode, Message: DefaultErrorMessage}
	}

	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == csrfCookie {
			token, err := url.QueryUnescape(ck.Value)
			if err != nil {
				return ck.Value, nil
			}
			return token, nil
		}
	}
	return "", errors.New("csrf: backend did not set " + csrfCookie)
}

// do sends one request and returns the response body of a 2xx reply.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%s %s: marshal body: %w", method, path, err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, query), reader)
	if err != nil {
		return nil, fmt.Errorf("%s %s: create request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		token, err := c.csrf(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set(csrfHeader, token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w: %w", method, path, ErrUnreachable, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("backend request")

	if resp.StatusCode/100 != 2 {
		return nil, decodeError(resp.StatusCode, data)
	}
	return data, nil
}

func decodeError(status int, data []byte) *APIError {
	apiErr := &APIError{Status: status, Message: DefaultErrorMessage}
	var body factory.ErrorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if strings.TrimSpace(body.Message) != "" {
			apiErr.Message = body.Message
		}
		apiErr.Fields = body.Errors
	}
	return apiErr
}

func (c *Client) cacheKey(scope, path string, query url.Values) string {
	key := scope + ":" + path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	return key
}

// get is do(GET) behind the cache.
func (c *Client) get(ctx context.Context, scope, path string, query url.Values) ([]byte, error) {
	if c.cache == nil || c.ttl <= 0 {
		return c.do(ctx, http.MethodGet, path, query, nil)
	}

	key := c.cacheKey(scope, path, query)
	if data, err := c.cache.Get(ctx, key); err == nil {
		return data, nil
	} else if !errors.Is(err, cache.ErrMiss) {
		c.log.Warn().Err(err).Str("key", key).Msg("cache read failed")
	}
	return c.fetch(ctx, scope, path, query)
}

// fetch is do(GET) that skips the cache read but stores the result.
func (c *Client) fetch(ctx context.Context, scope, path string, query url.Values) ([]byte, error) {
	data, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, err
	}
	if c.cache == nil || c.ttl <= 0 {
		return data, nil
	}
	key := c.cacheKey(scope, path, query)
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
	return data, nil
}

// invalidate drops cached reads under each scope. Failures are logged,
// not returned: the mutation itself already succeeded.
func (c *Client) invalidate(ctx context.Context, scopes ...string) {
	if c.cache == nil {
		return
	}
	for _, scope := range scopes {
		if err := c.cache.DeletePrefix(ctx, scope+":"); err != nil {
			c.log.Warn().Err(err).Str("scope", scope).Msg("cache invalidation failed")
		}
	}
}
