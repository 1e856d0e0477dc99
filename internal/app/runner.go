package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/kokoroe/kokoroe-sdk-go/internal/config"
	"github.com/kokoroe/kokoroe-sdk-go/internal/logger"
	"github.com/kokoroe/kokoroe-sdk-go/pkg/httpclient"
)

// Call describes one API request issued from the command line.
type Call struct {
	Method   string
	Endpoint string
	// Body is a form-encoded string such as "a=1&b=2".
	Body string
	// Files maps multipart field names to local paths.
	Files       map[string]string
	AccessToken string
}

// Runner sends single API calls and prints the responses.
type Runner struct {
	cfg *config.Config
	sdk *SDK
	out io.Writer
	log logger.Logger
}

// NewRunner builds a runner writing responses to out.
func NewRunner(cfg *config.Config, log logger.Logger, out io.Writer) (*Runner, error) {
	if log == nil {
		log = &logger.NopLogger{}
	}
	sdk, err := NewSDK(cfg, log)
	if err != nil {
		return nil, err
	}
	return &Runner{cfg: cfg, sdk: sdk, out: out, log: log}, nil
}

// Run issues call and renders the response in the configured output format.
// A Runner serves one call: the cassette store is closed when Run returns.
func (r *Runner) Run(ctx context.Context, call Call) error {
	if r == nil || r.sdk == nil {
		return fmt.Errorf("runner is not initialized")
	}
	defer r.sdk.Close()

	body, err := call.body()
	if err != nil {
		return err
	}

	api := r.sdk.API
	method := strings.ToUpper(call.Method)
	if body != nil && (method == "" || method == http.MethodGet || method == http.MethodDelete) {
		return fmt.Errorf("a request body cannot be sent with %s", methodOrGet(method))
	}

	var resp *httpclient.Response
	switch method {
	case "", http.MethodGet:
		resp, err = api.Get(ctx, call.Endpoint, call.AccessToken)
	case http.MethodPost:
		resp, err = api.Post(ctx, call.Endpoint, body, call.AccessToken)
	case http.MethodPut:
		resp, err = api.Put(ctx, call.Endpoint, body, call.AccessToken)
	case http.MethodDelete:
		resp, err = api.Delete(ctx, call.Endpoint, call.AccessToken)
	default:
		return fmt.Errorf("unsupported method %q (want GET, POST, PUT or DELETE)", call.Method)
	}
	if err != nil {
		return fmt.Errorf("%s %s: %w", strings.ToUpper(call.Method), call.Endpoint, err)
	}

	r.log.DebugObj("call completed", "call", map[string]any{
		"endpoint": call.Endpoint,
		"status":   resp.StatusCode(),
	})
	return Render(r.out, resp, r.cfg.OutputFormat)
}

func methodOrGet(method string) string {
	if method == "" {
		return http.MethodGet
	}
	return method
}

func (c Call) body() (any, error) {
	if c.Body == "" && len(c.Files) == 0 {
		return nil, nil
	}
	values, err := url.ParseQuery(c.Body)
	if err != nil {
		return nil, fmt.Errorf("parse body: %w", err)
	}
	if len(c.Files) == 0 {
		return values, nil
	}
	form := httpclient.Form{}
	for k, v := range values {
		form[k] = v
	}
	for field, path := range c.Files {
		form[field] = &httpclient.File{Path: path}
	}
	return form, nil
}
