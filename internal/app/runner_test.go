package app

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kokoroe/kokoroe-sdk-go/internal/config"
	"github.com/kokoroe/kokoroe-sdk-go/internal/fixture"
)

func testConfig(apiURL string) *config.Config {
	return &config.Config{
		ClientID:        "171b379e-57cd-11e5-aea8-eb2b3eb94fb9",
		ClientSecret:    "secret",
		AccessToken:     "foo",
		APIURL:          apiURL,
		APIVersion:      "v1.0",
		SSLVerify:       true,
		Timeout:         5 * time.Second,
		CassetteMode:    "off",
		CassetteTTL:     time.Hour,
		CassetteCleanup: time.Hour,
		OutputFormat:    "json",
	}
}

func runCall(t *testing.T, cfg *config.Config, call Call) string {
	t.Helper()
	var out bytes.Buffer
	runner, err := NewRunner(cfg, nil, &out)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if err := runner.Run(context.Background(), call); err != nil {
		t.Fatalf("Run: %v", err)
	}
	return out.String()
}

func TestRunnerGet(t *testing.T) {
	var gotPath, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		fixture.NewHandler(nil).ServeHTTP(w, r)
	}))
	defer srv.Close()

	out := runCall(t, testConfig(srv.URL), Call{Endpoint: "/me?fields=email"})

	if gotPath != "/v1.0/me" || gotAuth != "Bearer foo" {
		t.Fatalf("unexpected request path=%q auth=%q", gotPath, gotAuth)
	}
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\n") || !strings.Contains(out, `"fields": "email"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunnerPostFormAndFiles(t *testing.T) {
	srv := httptest.NewServer(fixture.NewHandler(nil))
	defer srv.Close()

	out := runCall(t, testConfig(srv.URL), Call{Method: "post", Endpoint: "/courses", Body: "title=Yoga"})
	if !strings.Contains(out, `"title": "Yoga"`) {
		t.Fatalf("unexpected output %q", out)
	}

	path := filepath.Join(t.TempDir(), "cover.txt")
	if err := os.WriteFile(path, []byte("cover"), 0o600); err != nil {
		t.Fatalf("write upload: %v", err)
	}
	out = runCall(t, testConfig(srv.URL), Call{
		Method:   "PUT",
		Endpoint: "/courses/1",
		Body:     "title=Yoga",
		Files:    map[string]string{"cover": path},
	})
	if !strings.Contains(out, `"name": "cover.txt"`) || !strings.Contains(out, `"title": "Yoga"`) {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunnerSignsRequests(t *testing.T) {
	var sign string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sign = r.URL.Query().Get("sign")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := testConfig(srv.URL)
	cfg.SignKey = "key"
	out := runCall(t, cfg, Call{Method: "DELETE", Endpoint: "/courses/1"})

	if len(sign) != 64 {
		t.Fatalf("expected hex sha256 signature, got %q", sign)
	}
	if out != "HTTP/1.1 204 No Content\n" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestRunnerCassetteRecordThenReplay(t *testing.T) {
	srv := httptest.NewServer(fixture.NewHandler(nil))
	cfg := testConfig(srv.URL)
	cfg.CassetteMode = "record"
	cfg.CassettePath = filepath.Join(t.TempDir(), "cassette.db")

	recorded := runCall(t, cfg, Call{Endpoint: "/me?fields=email"})
	srv.Close()

	cfg.CassetteMode = "replay"
	replayed := runCall(t, cfg, Call{Endpoint: "/me?fields=email"})
	if replayed != recorded {
		t.Fatalf("replay differs:\nrecorded %q\nreplayed %q", recorded, replayed)
	}

	var out bytes.Buffer
	runner, err := NewRunner(cfg, nil, &out)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if err := runner.Run(context.Background(), Call{Endpoint: "/never-recorded"}); err == nil {
		t.Fatalf("expected replay miss to fail")
	}
}

func TestRunnerRejectsUnknownMethod(t *testing.T) {
	var out bytes.Buffer
	runner, err := NewRunner(testConfig("http://127.0.0.1:1"), nil, &out)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	if err := runner.Run(context.Background(), Call{Method: "PATCH", Endpoint: "/me"}); err == nil {
		t.Fatalf("expected PATCH to be rejected")
	}
}

func TestNewSDKValidation(t *testing.T) {
	if _, err := NewSDK(nil, nil); err == nil {
		t.Fatalf("expected nil config to fail")
	}
	cfg := testConfig("https://api.kokoroe.co")
	cfg.ClientID = "not-a-uuid"
	if _, err := NewSDK(cfg, nil); err == nil {
		t.Fatalf("expected invalid client id to fail")
	}
	cfg = testConfig("https://api.kokoroe.co")
	cfg.CassetteMode = "rewind"
	if _, err := NewSDK(cfg, nil); err == nil {
		t.Fatalf("expected invalid cassette mode to fail")
	}
}

func TestFixtureServerServesUntilCancelled(t *testing.T) {
	fs, err := NewFixtureServer(&config.Config{FixtureAddr: "127.0.0.1:0"}, nil)
	if err != nil {
		t.Fatalf("NewFixtureServer: %v", err)
	}
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- fs.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/?foo=bar")
	if err != nil {
		t.Fatalf("GET fixture: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("fixture server did not shut down")
	}
}

func TestRunnerRejectsBodyWithoutPayloadMethod(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	for _, call := range []Call{
		{Endpoint: "/me", Body: "a=1"},
		{Method: "get", Endpoint: "/me", Files: map[string]string{"f": "/tmp/x"}},
		{Method: "DELETE", Endpoint: "/courses/1", Body: "a=1"},
	} {
		var out bytes.Buffer
		runner, err := NewRunner(testConfig(srv.URL), nil, &out)
		if err != nil {
			t.Fatalf("NewRunner: %v", err)
		}
		err = runner.Run(context.Background(), call)
		if err == nil || !strings.Contains(err.Error(), "cannot be sent with") {
			t.Fatalf("expected body to be rejected for %+v, got %v", call, err)
		}
	}
	if hits != 0 {
		t.Fatalf("expected no request to reach the server, got %d", hits)
	}
}
