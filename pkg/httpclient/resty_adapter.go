package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// ProductName, Version and Homepage make up the User-Agent.
	ProductName = "Kokoroe"
	Version     = "1.0.0"
	Homepage    = "https://github.com/kokoroe/kokoroe-sdk-go"

	maxRedirects = 3
)

// UserAgent is sent on every request made by RestyAdapter.
var UserAgent = fmt.Sprintf("%s/SDK (version %s +%s)", ProductName, Version, Homepage)

// RestyAdapter adapts resty.Client to the Adapter interface. Each call gets its
// own client and transport with keep-alives disabled, so no connection outlives
// the request.
type RestyAdapter struct {
	sslVerify   bool
	readTimeout time.Duration
}

// RestyOption configures a RestyAdapter.
type RestyOption func(*RestyAdapter)

// WithSSLVerify toggles certificate and hostname verification. Passing false
// is an explicit insecure opt-in meant for local fixtures only.
func WithSSLVerify(verify bool) RestyOption {
	return func(a *RestyAdapter) { a.sslVerify = verify }
}

// WithReadTimeout bounds the wait for response headers once the request is written.
func WithReadTimeout(d time.Duration) RestyOption {
	return func(a *RestyAdapter) { a.readTimeout = d }
}

// NewRestyAdapter creates a RestyAdapter; TLS verification is on by default.
func NewRestyAdapter(opts ...RestyOption) *RestyAdapter {
	a := &RestyAdapter{sslVerify: true}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// SSLVerify reports whether TLS peers are verified.
func (a *RestyAdapter) SSLVerify() bool { return a.sslVerify }

// newRestyBaseClient builds a single-use resty.Client. connectTimeout bounds
// dialing and the TLS handshake.
func (a *RestyAdapter) newRestyBaseClient(connectTimeout time.Duration) (*resty.Client, *http.Transport) {
	dialer := &net.Dialer{Timeout: connectTimeout}
	tr := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   connectTimeout,
		ResponseHeaderTimeout: a.readTimeout,
		DisableKeepAlives:     true,
	}
	if !a.sslVerify {
		tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in via WithSSLVerify(false)
	}

	c := resty.NewWithClient(&http.Client{Transport: tr})
	c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(maxRedirects))
	c.SetCloseConnection(true)
	c.SetHeader("User-Agent", UserAgent)
	return c, tr
}

// Send performs the request and parses the final response.
func (a *RestyAdapter) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, validationErrorf("request must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	method, err := normalizeMethod(req.Method)
	if err != nil {
		return nil, err
	}
	for name, value := range req.Headers {
		if err := AssertValidHeader(name, value); err != nil {
			return nil, err
		}
	}
	body, err := classifyBody(req.Body)
	if err != nil {
		return nil, err
	}

	client, tr := a.newRestyBaseClient(req.Timeout)
	defer tr.CloseIdleConnections()

	r := client.R().SetContext(ctx)
	for name, value := range req.Headers {
		r.SetHeader(name, unfoldHeaderValue(value))
	}

	if hasPayload(method) {
		closeFiles, err := applyPayload(r, body, req.Headers)
		if err != nil {
			return nil, err
		}
		defer closeFiles()
	}

	resp, err := r.Execute(method, req.URL)
	if err != nil {
		return nil, &TransportError{Method: method, URL: req.URL, Err: err}
	}
	return ParseRawResponse(rawResponse(resp.RawResponse, resp.Body()), resp.StatusCode())
}

func applyPayload(r *resty.Request, body payload, headers map[string]string) (func(), error) {
	noop := func() {}
	switch {
	case body.multipart():
		var opened []*os.File
		closeAll := func() {
			for _, f := range opened {
				f.Close()
			}
		}
		for _, ff := range body.files {
			f, err := os.Open(ff.file.Path)
			if err != nil {
				closeAll()
				return noop, fmt.Errorf("open upload %q: %w", ff.file.Path, err)
			}
			opened = append(opened, f)
			name := ff.file.Name
			if name == "" {
				name = filepath.Base(ff.file.Path)
			}
			r.SetMultipartField(ff.param, name, fileContentType(ff.file), f)
		}
		if len(body.form) > 0 {
			r.SetFormDataFromValues(body.form)
		}
		return closeAll, nil
	case body.isForm:
		r.SetFormDataFromValues(body.form)
	case body.isRaw:
		if !hasHeader(headers, "Content-Type") {
			r.SetHeader("Content-Type", "application/x-www-form-urlencoded")
		}
		r.SetBody(body.raw)
	}
	return noop, nil
}

// unfoldHeaderValue replaces each obsolete line fold (CRLF followed by spaces
// or tabs) with a single space; net/http refuses to send folded values.
func unfoldHeaderValue(value string) string {
	if !strings.Contains(value, "\r\n") {
		return value
	}
	var b strings.Builder
	for i := 0; i < len(value); i++ {
		if value[i] == '\r' && i+1 < len(value) && value[i+1] == '\n' {
			i += 2
			for i < len(value) && (value[i] == ' ' || value[i] == '\t') {
				i++
			}
			i--
			b.WriteByte(' ')
			continue
		}
		b.WriteByte(value[i])
	}
	return b.String()
}

func fileContentType(f *File) string {
	if f.ContentType != "" {
		return f.ContentType
	}
	if ct := mime.TypeByExtension(filepath.Ext(f.Path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if normalize(k) == normalize(name) {
			return true
		}
	}
	return false
}

// rawResponse rebuilds the wire form of the final response so it goes through
// the same parsing and validation as any other raw response.
func rawResponse(res *http.Response, body []byte) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "%s %s\r\n", res.Proto, res.Status)
	_ = res.Header.Write(&b)
	b.WriteString("\r\n")
	b.Write(body)
	return b.Bytes()
}
