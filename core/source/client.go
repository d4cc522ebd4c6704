package source

import (
	"bytes"
	"compress/gzip"
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

	"github.com/andybalholm/brotli"
	"golang.org/x/time/rate"
)

// DefaultUserAgent identifies the service to upstream servers.
const DefaultUserAgent = "unisync/1.0 (+academic catalog sync)"

// DefaultMaxBodyBytes caps a single upstream response.
const DefaultMaxBodyBytes = 64 << 20

// ErrBodyTooLarge is returned for responses larger than the configured cap.
var ErrBodyTooLarge = errors.New("response body too large")

// ClientConfig configures an upstream HTTP client.
type ClientConfig struct {
	// BaseURL is used to resolve relative request paths.
	BaseURL string
	// UserAgent overrides DefaultUserAgent.
	UserAgent string
	// RequestInterval is the minimum delay between requests. Zero disables pacing.
	RequestInterval time.Duration
	// Burst is the number of requests allowed back to back. Defaults to 1.
	Burst int
	// Timeout bounds a single request. Zero leaves it to the context.
	Timeout time.Duration
	// MaxBodyBytes caps a decoded response body. Defaults to DefaultMaxBodyBytes.
	MaxBodyBytes int64
	// Transport overrides the default transport (used by tests).
	Transport http.RoundTripper
}

// Client performs paced GET requests against one institution and classifies
// failures into FetchError kinds. It is safe for concurrent use; the pacing
// is shared by every caller.
type Client struct {
	http      *http.Client
	limiter   *rate.Limiter
	base      *url.URL
	userAgent string
	maxBody   int64
}

// NewClient builds a client from cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	var base *url.URL
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid base url %q: %w", cfg.BaseURL, err)
		}
		base = u
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          20,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   15 * time.Second,
			ExpectContinueTimeout: 1 * time.Second,
		}
	}

	limit := rate.Inf
	if cfg.RequestInterval > 0 {
		limit = rate.Every(cfg.RequestInterval)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	ua := cfg.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = DefaultMaxBodyBytes
	}

	return &Client{
		http:      &http.Client{Transport: transport, Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, burst),
		base:      base,
		userAgent: ua,
		maxBody:   maxBody,
	}, nil
}

// Resolve turns ref into an absolute URL using the base URL.
func (c *Client) Resolve(ref string) (string, error) {
	u, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	if c.base == nil || u.IsAbs() {
		return u.String(), nil
	}
	return c.base.ResolveReference(u).String(), nil
}

// Get fetches ref and returns the decoded body. Failures are *FetchError.
func (c *Client) Get(ctx context.Context, ref string) ([]byte, error) {
	target, err := c.Resolve(ref)
	if err != nil {
		return nil, NewFetchError(KindBadResponse, ref, err)
	}

	// Wait fails early when the next slot lies beyond the context deadline
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewFetchError(KindTimeout, target, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, NewFetchError(KindBadResponse, target, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := c.http.Do(req)
	if err != nil {
		fe := Classify(err)
		if fe.Kind == KindBadResponse {
			// The request never produced a response, so it is a transport problem.
			fe.Kind = KindNetworkUnavailable
		}
		fe.URL = target
		return nil, fe
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{Kind: kindForStatus(resp.StatusCode), URL: target, StatusCode: resp.StatusCode}
	}

	body, err := decodeBody(resp, c.maxBody)
	if err != nil {
		fe := Classify(err)
		fe.URL = target
		return nil, fe
	}
	return body, nil
}

// GetJSON fetches ref and decodes the JSON body into v. Undecodable bodies
// are reported as BadResponse.
func (c *Client) GetJSON(ctx context.Context, ref string, v any) error {
	body, err := c.Get(ctx, ref)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return NewFetchError(KindBadResponse, ref, fmt.Errorf("invalid json: %w", err))
	}
	return nil
}

// kindForStatus treats throttling and server errors as transient.
func kindForStatus(status int) FetchErrorKind {
	if status == http.StatusTooManyRequests || status == http.StatusRequestTimeout || status >= 500 {
		return KindNetworkUnavailable
	}
	return KindBadResponse
}

// decodeBody reads the decoded body. Anything past limit fails the request
// instead of handing a truncated document to the parser.
func decodeBody(resp *http.Response, limit int64) ([]byte, error) {
	var reader io.Reader = resp.Body

	switch strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding"))) {
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("invalid gzip body: %w", err)
		}
		defer gz.Close()
		reader = gz
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, io.LimitReader(reader, limit+1)); err != nil {
		return nil, err
	}
	if int64(buf.Len()) > limit {
		return nil, NewFetchError(KindBadResponse, "", fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, limit))
	}
	return buf.Bytes(), nil
}
