package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default request timeout.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow.
	DefaultMaxRedirects = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool.
	DefaultMaxIdleConns = 100
	// DefaultIdleConnTimeout is how long idle connections stay in the pool.
	DefaultIdleConnTimeout = 90 * time.Second
)

// Client executes resolved requests. It exists as an interface so the
// runner can be exercised against a stub in tests.
type Client interface {
	Do(ctx context.Context, request *Request) (*Response, error)
}

type client struct {
	httpClient     *http.Client
	timeout        time.Duration
	followRedirect bool
	maxRedirects   int
	validateSSL    bool
	proxyURL       string
}

type ClientOption func(*client)

func NewClient(opts ...ClientOption) Client {
	c := &client{
		timeout:        DefaultTimeout,
		followRedirect: true,
		maxRedirects:   DefaultMaxRedirects,
		validateSSL:    true,
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := &http.Transport{
		MaxIdleConns:    DefaultMaxIdleConns,
		IdleConnTimeout: DefaultIdleConnTimeout,
	}

	if !c.validateSSL {
		transport.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: true,
		}
	}

	if c.proxyURL != "" {
		if proxyURL, err := neturl.Parse(c.proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(proxyURL)
		}
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !c.followRedirect {
			return http.ErrUseLastResponse
		}
		if len(via) >= c.maxRedirects {
			return http.ErrUseLastResponse
		}
		return nil
	}

	c.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       c.timeout,
		CheckRedirect: redirectPolicy,
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *client) {
		c.timeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *client) {
		c.followRedirect = follow
	}
}

// WithMaxRedirects caps how many redirect hops are followed; past the
// cap the last redirect response is returned as-is.
func WithMaxRedirects(max int) ClientOption {
	return func(c *client) {
		c.maxRedirects = max
	}
}

func WithValidateSSL(validate bool) ClientOption {
	return func(c *client) {
		c.validateSSL = validate
	}
}

func WithProxy(proxyURL string) ClientOption {
	return func(c *client) {
		c.proxyURL = proxyURL
	}
}

func (c *client) Do(ctx context.Context, request *Request) (*Response, error) {
	var body io.Reader
	if request.Body != "" {
		body = strings.NewReader(request.Body)
	}

	req, err := http.NewRequestWithContext(ctx, request.Method, request.Target, body)
	if err != nil {
		return nil, fmt.Errorf("building request for %s: %w", request.Target, err)
	}

	for _, h := range request.Headers {
		req.Header.Add(h.Name, h.Value)
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing %s %s: %w", request.Method, request.Target, err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}

	headers := make(map[string]string, len(res.Header))
	for name, values := range res.Header {
		headers[strings.ToLower(name)] = strings.Join(values, ", ")
	}

	return &Response{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Proto:      res.Proto,
		Headers:    headers,
		Body:       data,
		Duration:   time.Since(start),
	}, nil
}
