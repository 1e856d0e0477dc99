package httpclient

import "slices"

const defaultProtocolVersion = "1.1"

// Response is an immutable HTTP response. Every With* method returns a new
// value and leaves the receiver untouched, so a Response can be shared between
// goroutines once built.
type Response struct {
	statusCode   int
	reasonPhrase string
	protocol     string
	header       *Header
	body         []byte
}

// NewResponse returns a 200 HTTP/1.1 response with no headers and no body.
func NewResponse() *Response {
	return &Response{
		statusCode: 200,
		protocol:   defaultProtocolVersion,
		header:     NewHeader(),
	}
}

func (r *Response) clone() *Response {
	c := *r
	c.header = r.header.Clone()
	return &c
}

// StatusCode returns the HTTP status code.
func (r *Response) StatusCode() int { return r.statusCode }

// ReasonPhrase returns the explicit reason phrase, falling back to the
// standard phrase for the status code, or "" when neither is known.
func (r *Response) ReasonPhrase() string {
	if r.reasonPhrase != "" {
		return r.reasonPhrase
	}
	return StatusPhrase(r.statusCode)
}

// WithStatus returns a copy with the given status code and reason phrase. An
// empty reason selects the standard phrase.
func (r *Response) WithStatus(code int, reasonPhrase string) (*Response, error) {
	if err := validateStatus(code); err != nil {
		return nil, err
	}
	c := r.clone()
	c.statusCode = code
	c.reasonPhrase = reasonPhrase
	return c, nil
}

// ProtocolVersion returns the HTTP version without the "HTTP/" prefix, e.g. "1.1".
func (r *Response) ProtocolVersion() string { return r.protocol }

// WithProtocolVersion returns a copy using version.
func (r *Response) WithProtocolVersion(version string) *Response {
	c := r.clone()
	c.protocol = version
	return c
}

// Headers returns every header keyed by the case it was first registered with.
func (r *Response) Headers() map[string][]string { return r.header.All() }

// HeaderContainer returns a copy of the underlying header container.
func (r *Response) HeaderContainer() *Header { return r.header.Clone() }

// HasHeader reports whether name is present, ignoring case.
func (r *Response) HasHeader(name string) bool { return r.header.Has(name) }

// Header returns the values of name, nil when absent.
func (r *Response) Header(name string) []string { return r.header.Values(name) }

// HeaderLine returns the values of name joined by commas, "" when absent.
func (r *Response) HeaderLine(name string) string { return r.header.Line(name) }

// WithHeader returns a copy where name holds exactly values.
func (r *Response) WithHeader(name string, values ...string) (*Response, error) {
	if err := AssertValidHeader(name, values...); err != nil {
		return nil, err
	}
	c := r.clone()
	c.header.Set(name, values...)
	return c, nil
}

// WithAddedHeader returns a copy with values appended to name. The spelling
// first used for name is kept.
func (r *Response) WithAddedHeader(name string, values ...string) (*Response, error) {
	if err := AssertValidHeader(name, values...); err != nil {
		return nil, err
	}
	c := r.clone()
	c.header.Add(name, values...)
	return c, nil
}

// WithoutHeader returns a copy without name.
func (r *Response) WithoutHeader(name string) *Response {
	c := r.clone()
	c.header.Remove(name)
	return c
}

// Body returns a copy of the body bytes.
func (r *Response) Body() []byte { return slices.Clone(r.body) }

// String returns the body as a string.
func (r *Response) String() string { return string(r.body) }

// WithBody returns a copy holding body. The slice is copied.
func (r *Response) WithBody(body []byte) *Response {
	c := r.clone()
	c.body = slices.Clone(body)
	return c
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.statusCode >= 200 && r.statusCode < 300
}
