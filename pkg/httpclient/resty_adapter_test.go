package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kokoroe/kokoroe-sdk-go/internal/fixture"
)

func newFixtureServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(fixture.NewHandler(nil))
	t.Cleanup(srv.Close)
	return srv
}

func send(t *testing.T, a Adapter, req *Request) *Response {
	t.Helper()
	if req.Timeout == 0 {
		req.Timeout = 5 * time.Second
	}
	resp, err := a.Send(context.Background(), req)
	require.NoError(t, err)
	return resp
}

func TestRestyAdapterGetEchoesQuery(t *testing.T) {
	srv := newFixtureServer(t)

	resp := send(t, NewRestyAdapter(), &Request{Method: "get", URL: srv.URL + "/?foo=bar"})

	assert.Equal(t, 200, resp.StatusCode())
	assert.Equal(t, "OK", resp.ReasonPhrase())
	assert.Equal(t, "1.1", resp.ProtocolVersion())
	assert.Equal(t, "application/json", resp.HeaderLine("content-type"))
	got, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar"}, got)
}

func TestRestyAdapterReturnsExactBody(t *testing.T) {
	srv := newFixtureServer(t)

	resp := send(t, NewRestyAdapter(), &Request{Method: http.MethodGet, URL: srv.URL + "/?access_token=foo"})

	assert.Equal(t, 200, resp.StatusCode())
	assert.Equal(t, `{"access_token":"foo"}`, resp.String())
}

func TestRestyAdapterUnfoldsContinuationLines(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("X-Foo")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp := send(t, NewRestyAdapter(), &Request{
		Method:  http.MethodGet,
		URL:     srv.URL,
		Headers: map[string]string{"X-Foo": "first\r\n \t second line"},
	})

	assert.Equal(t, 204, resp.StatusCode())
	assert.Equal(t, "first second line", got)
}

func TestUnfoldHeaderValue(t *testing.T) {
	assert.Equal(t, "plain", unfoldHeaderValue("plain"))
	assert.Equal(t, "a b", unfoldHeaderValue("a\r\n b"))
	assert.Equal(t, "a b c", unfoldHeaderValue("a\r\n\t\tb\r\n c"))
	assert.Equal(t, "tab\tkept", unfoldHeaderValue("tab\tkept"))
}

func TestRestyAdapterFollowsRedirect(t *testing.T) {
	srv := newFixtureServer(t)

	resp := send(t, NewRestyAdapter(), &Request{Method: http.MethodGet, URL: srv.URL + "/redirect?foo=bar"})

	assert.Equal(t, 200, resp.StatusCode())
	assert.False(t, resp.HasHeader("Location"))
	got, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar"}, got)
}

func TestRestyAdapterStopsAfterThreeRedirects(t *testing.T) {
	hops := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hops++
		http.Redirect(w, r, "/loop", http.StatusFound)
	}))
	defer srv.Close()

	_, err := NewRestyAdapter().Send(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL, Timeout: 5 * time.Second})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.LessOrEqual(t, hops, maxRedirects+1)
}

func TestRestyAdapterSendsUserAgentAndClosesConnection(t *testing.T) {
	var ua string
	var closeReq bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.UserAgent()
		closeReq = r.Close
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	resp := send(t, NewRestyAdapter(), &Request{Method: http.MethodGet, URL: srv.URL})

	assert.Equal(t, 204, resp.StatusCode())
	assert.Equal(t, "Kokoroe/SDK (version 1.0.0 +https://github.com/kokoroe/kokoroe-sdk-go)", ua)
	assert.True(t, closeReq, "expected Connection: close")
	assert.Empty(t, resp.Body())
}

func TestRestyAdapterHead(t *testing.T) {
	srv := newFixtureServer(t)

	resp := send(t, NewRestyAdapter(), &Request{Method: http.MethodHead, URL: srv.URL + "/?foo=bar"})

	assert.Equal(t, 200, resp.StatusCode())
	assert.Empty(t, resp.Body())
	got, err := resp.JSON()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRestyAdapterPostForm(t *testing.T) {
	srv := newFixtureServer(t)

	resp := send(t, NewRestyAdapter(), &Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/",
		Body:   Form{"foo": "bar", "n": 3, "tags": []string{"a", "b"}},
	})

	got, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar", "n": "3", "tags": []any{"a", "b"}}, got)
}

func TestRestyAdapterPutMap(t *testing.T) {
	srv := newFixtureServer(t)

	resp := send(t, NewRestyAdapter(), &Request{
		Method: http.MethodPut,
		URL:    srv.URL + "/",
		Body:   map[string]string{"foo": "bar"},
	})

	got, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar"}, got)
}

func TestRestyAdapterPostRawJSON(t *testing.T) {
	srv := newFixtureServer(t)

	resp := send(t, NewRestyAdapter(), &Request{
		Method:  http.MethodPost,
		URL:     srv.URL + "/",
		Body:    `{"foo":"bar"}`,
		Headers: map[string]string{"Content-Type": "application/json"},
	})

	got, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar"}, got)
}

func TestRestyAdapterPostRawStringDefaultsToForm(t *testing.T) {
	srv := newFixtureServer(t)

	resp := send(t, NewRestyAdapter(), &Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/",
		Body:   "foo=bar",
	})

	got, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"foo": "bar"}, got)
}

func TestRestyAdapterMultipartUpload(t *testing.T) {
	srv := newFixtureServer(t)
	path := filepath.Join(t.TempDir(), "avatar.png")
	require.NoError(t, os.WriteFile(path, []byte("not really a png"), 0o600))

	resp := send(t, NewRestyAdapter(), &Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/",
		Body:   Form{"title": "me", "picture": &File{Path: path}},
	})

	got, err := resp.JSON()
	require.NoError(t, err)
	m := got.(map[string]any)
	assert.Equal(t, "me", m["title"])
	files := m["_files"].(map[string]any)
	pic := files["picture"].(map[string]any)
	assert.Equal(t, "avatar.png", pic["name"])
	assert.Equal(t, float64(len("not really a png")), pic["size"])
	assert.Equal(t, "image/png", pic["content_type"])
}

func TestRestyAdapterMultipartMissingFile(t *testing.T) {
	srv := newFixtureServer(t)

	_, err := NewRestyAdapter().Send(context.Background(), &Request{
		Method: http.MethodPost,
		URL:    srv.URL + "/",
		Body:   Form{"picture": &File{Path: filepath.Join(t.TempDir(), "missing")}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestRestyAdapterDeleteIgnoresBody(t *testing.T) {
	var bodyLen int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		bodyLen = r.ContentLength
		fixture.NewHandler(nil).ServeHTTP(w, r)
	}))
	defer srv.Close()

	resp := send(t, NewRestyAdapter(), &Request{
		Method: http.MethodDelete,
		URL:    srv.URL + "/?id=7",
		Body:   Form{"ignored": "yes"},
	})

	assert.Zero(t, bodyLen)
	got, err := resp.JSON()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"id": "7"}, got)
}

func TestRestyAdapterBadJSON(t *testing.T) {
	srv := newFixtureServer(t)

	resp := send(t, NewRestyAdapter(), &Request{Method: http.MethodGet, URL: srv.URL + "/bad"})

	_, err := resp.JSON()
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Error(), "Syntax error")
}

func TestRestyAdapterRejectsInvalidInput(t *testing.T) {
	a := NewRestyAdapter()
	ctx := context.Background()
	var verr *ValidationError

	_, err := a.Send(ctx, &Request{Method: "PATCH", URL: "http://127.0.0.1:1/"})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Error(), "unsupported HTTP method")

	_, err = a.Send(ctx, &Request{Method: "GET", URL: "http://127.0.0.1:1/", Headers: map[string]string{"X-Evil": "a\r\nb"}})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "X-Evil", verr.Header)

	_, err = a.Send(ctx, &Request{Method: "POST", URL: "http://127.0.0.1:1/", Body: 42})
	require.ErrorAs(t, err, &verr)

	_, err = a.Send(ctx, nil)
	require.ErrorAs(t, err, &verr)
}

func TestRestyAdapterTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewRestyAdapter().Send(context.Background(), &Request{Method: http.MethodGet, URL: url, Timeout: time.Second})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.Equal(t, http.MethodGet, terr.Method)
	assert.NotNil(t, errors.Unwrap(terr))
}

func TestRestyAdapterSSLVerify(t *testing.T) {
	srv := httptest.NewTLSServer(fixture.NewHandler(nil))
	defer srv.Close()

	strict := NewRestyAdapter()
	assert.True(t, strict.SSLVerify())
	_, err := strict.Send(context.Background(), &Request{Method: http.MethodGet, URL: srv.URL, Timeout: 5 * time.Second})
	var terr *TransportError
	require.ErrorAs(t, err, &terr)

	insecure := NewRestyAdapter(WithSSLVerify(false))
	assert.False(t, insecure.SSLVerify())
	resp := send(t, insecure, &Request{Method: http.MethodGet, URL: srv.URL + "/?foo=bar"})
	assert.Equal(t, 200, resp.StatusCode())
}

func TestRestyAdapterContextCancel(t *testing.T) {
	srv := newFixtureServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewRestyAdapter().Send(ctx, &Request{Method: http.MethodGet, URL: srv.URL, Timeout: time.Second})

	var terr *TransportError
	require.ErrorAs(t, err, &terr)
	assert.ErrorIs(t, err, context.Canceled)
}
