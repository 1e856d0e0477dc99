package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout is the connect timeout handed to the adapter.
const DefaultTimeout = 60 * time.Second

// SignParam is the query parameter carrying the request signature.
const SignParam = "sign"

// Signer produces the signature appended to signed requests.
type Signer interface {
	Sign(rawURL string) (string, error)
}

// Client builds the final URL of a call, signs it when a Signer is configured,
// logs it and hands it to the Adapter.
type Client struct {
	adapter Adapter
	signer  Signer
	log     Logger
	timeout time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithAdapter sets the transport adapter.
func WithAdapter(a Adapter) ClientOption {
	return func(c *Client) { c.adapter = a }
}

// WithSigner enables request signing.
func WithSigner(s Signer) ClientOption {
	return func(c *Client) { c.signer = s }
}

// WithLogger sets the logger used for request traces.
func WithLogger(l Logger) ClientOption {
	return func(c *Client) { c.log = l }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// DefaultAdapter returns the adapter used when none is supplied.
func DefaultAdapter() Adapter { return NewRestyAdapter() }

// NewClient creates a Client. Without WithAdapter the DefaultAdapter is used.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(c)
	}
	if c.adapter == nil {
		c.adapter = DefaultAdapter()
	}
	c.log = ensureLogger(c.log)
	return c
}

// Adapter returns the transport adapter in use.
func (c *Client) Adapter() Adapter { return c.adapter }

// HasSigner reports whether requests are signed.
func (c *Client) HasSigner() bool { return c.signer != nil }

// Signer returns the configured signer, if any.
func (c *Client) Signer() (Signer, bool) { return c.signer, c.signer != nil }

// Timeout returns the connect timeout passed to the adapter.
func (c *Client) Timeout() time.Duration { return c.timeout }

// Send issues one request. params are appended to rawURL; when a signer is
// set, the signature of the URL with those params is added as SignParam.
func (c *Client) Send(ctx context.Context, method, rawURL string, params url.Values, body any, headers map[string]string) (*Response, error) {
	params = cloneValues(params)

	if c.signer != nil {
		sig, err := c.signer.Sign(withQuery(rawURL, params))
		if err != nil {
			return nil, fmt.Errorf("sign url: %w", err)
		}
		if params == nil {
			params = url.Values{}
		}
		params.Set(SignParam, sig)
	}

	target := withQuery(rawURL, params)

	c.log.InfoObj(fmt.Sprintf("Send %s request on %s", method, target), "request", map[string]any{
		"headers": redactHeaders(headers),
		"body":    body,
	})

	resp, err := c.adapter.Send(ctx, &Request{
		Method:  method,
		URL:     target,
		Body:    body,
		Headers: headers,
		Timeout: c.timeout,
	})
	if err != nil {
		c.log.WarnObj("request failed", "request_error", map[string]any{
			"method": method,
			"url":    target,
			"error":  err.Error(),
		})
		return nil, err
	}

	c.log.DebugObj("response received", "response", map[string]any{
		"method": method,
		"url":    target,
		"status": resp.StatusCode(),
	})
	return resp, nil
}

// Get sends a GET request.
func (c *Client) Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*Response, error) {
	return c.Send(ctx, http.MethodGet, rawURL, params, nil, headers)
}

// Post sends a POST request.
func (c *Client) Post(ctx context.Context, rawURL string, params url.Values, body any, headers map[string]string) (*Response, error) {
	return c.Send(ctx, http.MethodPost, rawURL, params, body, headers)
}

// Put sends a PUT request.
func (c *Client) Put(ctx context.Context, rawURL string, params url.Values, body any, headers map[string]string) (*Response, error) {
	return c.Send(ctx, http.MethodPut, rawURL, params, body, headers)
}

// Delete sends a DELETE request.
func (c *Client) Delete(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*Response, error) {
	return c.Send(ctx, http.MethodDelete, rawURL, params, nil, headers)
}

func withQuery(rawURL string, params url.Values) string {
	if len(params) == 0 {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + params.Encode()
}

func cloneValues(v url.Values) url.Values {
	if v == nil {
		return nil
	}
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func redactHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if strings.EqualFold(k, "Authorization") {
			v = "[redacted]"
		}
		out[k] = v
	}
	return out
}
