// Package kokoroe is the entry point of the SDK: it holds the API credentials,
// turns endpoints into full URLs and attaches the Authorization header.
package kokoroe

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/kokoroe/kokoroe-sdk-go/pkg/httpclient"
)

const (
	// Version of the SDK.
	Version = httpclient.Version
	// BaseAPIURL is the production API.
	BaseAPIURL = "https://api.kokoroe.co"
	// DefaultAPIVersion is used when Options.DefaultAPIVersion is empty.
	DefaultAPIVersion = "v1.0"
)

var (
	// ErrMissingClientID is returned by the request methods when no client id is set.
	ErrMissingClientID = errors.New(`Required "client_id" key not supplied in options`)
	// ErrMissingClientSecret is returned by the request methods when no client secret is set.
	ErrMissingClientSecret = errors.New(`Required "client_secret" key not supplied in options`)
)

// HTTPClient is the subset of *httpclient.Client used by Kokoroe.
type HTTPClient interface {
	Get(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*httpclient.Response, error)
	Post(ctx context.Context, rawURL string, params url.Values, body any, headers map[string]string) (*httpclient.Response, error)
	Put(ctx context.Context, rawURL string, params url.Values, body any, headers map[string]string) (*httpclient.Response, error)
	Delete(ctx context.Context, rawURL string, params url.Values, headers map[string]string) (*httpclient.Response, error)
}

// Options configures a Kokoroe client. Empty fields take their defaults.
type Options struct {
	ClientID           string
	ClientSecret       string
	DefaultAccessToken string
	DefaultAPIVersion  string
	DefaultAPIURL      string
	HTTPClient         HTTPClient
}

// Kokoroe calls the API on behalf of one application. Setters are not safe
// for use concurrently with requests.
type Kokoroe struct {
	clientID     string
	clientSecret string
	accessToken  string
	apiURL       string
	apiVersion   string
	http         HTTPClient
}

// New validates opts and builds a client. Without Options.HTTPClient a
// default httpclient.Client is created.
func New(opts Options) (*Kokoroe, error) {
	k := &Kokoroe{
		clientSecret: opts.ClientSecret,
		accessToken:  opts.DefaultAccessToken,
		apiURL:       BaseAPIURL,
		apiVersion:   DefaultAPIVersion,
		http:         opts.HTTPClient,
	}
	if opts.ClientID != "" {
		if err := k.SetClientID(opts.ClientID); err != nil {
			return nil, err
		}
	}
	if opts.DefaultAPIVersion != "" {
		k.apiVersion = opts.DefaultAPIVersion
	}
	if opts.DefaultAPIURL != "" {
		k.apiURL = strings.TrimRight(opts.DefaultAPIURL, "/")
	}
	if k.http == nil {
		k.http = httpclient.NewClient()
	}
	return k, nil
}

// SetClientID sets the client id; it must be a hyphenated UUID.
func (k *Kokoroe) SetClientID(id string) error {
	if _, err := uuid.Parse(id); err != nil || len(id) != 36 {
		return &httpclient.ValidationError{Reason: fmt.Sprintf("The client id %q is not valid.", id)}
	}
	k.clientID = id
	return nil
}

// ClientID returns the client id.
func (k *Kokoroe) ClientID() string { return k.clientID }

// SetClientSecret sets the client secret.
func (k *Kokoroe) SetClientSecret(secret string) { k.clientSecret = secret }

// ClientSecret returns the client secret.
func (k *Kokoroe) ClientSecret() string { return k.clientSecret }

// SetDefaultAccessToken sets the token used when a call passes none.
func (k *Kokoroe) SetDefaultAccessToken(token string) { k.accessToken = token }

// DefaultAccessToken returns the default access token.
func (k *Kokoroe) DefaultAccessToken() string { return k.accessToken }

// SetDefaultAPIURL sets the API root.
func (k *Kokoroe) SetDefaultAPIURL(u string) { k.apiURL = strings.TrimRight(u, "/") }

// DefaultAPIURL returns the API root.
func (k *Kokoroe) DefaultAPIURL() string { return k.apiURL }

// SetDefaultAPIVersion sets the version segment.
func (k *Kokoroe) SetDefaultAPIVersion(v string) { k.apiVersion = v }

// DefaultAPIVersion returns the version segment.
func (k *Kokoroe) DefaultAPIVersion() string { return k.apiVersion }

// BaseAPIURL returns the API root joined with the version.
func (k *Kokoroe) BaseAPIURL() string { return k.apiURL + "/" + k.apiVersion }

// SetHTTPClient replaces the HTTP client.
func (k *Kokoroe) SetHTTPClient(c HTTPClient) { k.http = c }

// HTTPClient returns the HTTP client in use.
func (k *Kokoroe) HTTPClient() HTTPClient { return k.http }

func (k *Kokoroe) checkClientSettings() error {
	if k.clientID == "" {
		return ErrMissingClientID
	}
	if k.clientSecret == "" {
		return ErrMissingClientSecret
	}
	return nil
}

// authorizationHeader prefers a bearer token and falls back to HTTP basic
// auth with the client id and an empty password.
func (k *Kokoroe) authorizationHeader(accessToken string) string {
	if accessToken == "" {
		accessToken = k.accessToken
	}
	if accessToken == "" {
		return "Basic " + base64.StdEncoding.EncodeToString([]byte(k.clientID+":"))
	}
	return "Bearer " + accessToken
}

// parseEndpoint splits "path?query" into the full URL and its parameters.
func (k *Kokoroe) parseEndpoint(endpoint string) (string, url.Values, error) {
	path, query, _ := strings.Cut(endpoint, "?")
	full := k.BaseAPIURL() + "/" + strings.Trim(path, "/")
	if query == "" {
		return full, nil, nil
	}
	params, err := url.ParseQuery(query)
	if err != nil {
		return "", nil, &httpclient.ValidationError{Reason: fmt.Sprintf("invalid endpoint query %q: %v", query, err)}
	}
	return full, params, nil
}

func (k *Kokoroe) prepare(endpoint, accessToken string) (string, url.Values, map[string]string, error) {
	if err := k.checkClientSettings(); err != nil {
		return "", nil, nil, err
	}
	full, params, err := k.parseEndpoint(endpoint)
	if err != nil {
		return "", nil, nil, err
	}
	headers := map[string]string{"Authorization": k.authorizationHeader(accessToken)}
	return full, params, headers, nil
}

// Get sends a GET request to endpoint. An empty accessToken selects the default.
func (k *Kokoroe) Get(ctx context.Context, endpoint, accessToken string) (*httpclient.Response, error) {
	full, params, headers, err := k.prepare(endpoint, accessToken)
	if err != nil {
		return nil, err
	}
	return k.http.Get(ctx, full, params, headers)
}

// Post sends a POST request with body.
func (k *Kokoroe) Post(ctx context.Context, endpoint string, body any, accessToken string) (*httpclient.Response, error) {
	full, params, headers, err := k.prepare(endpoint, accessToken)
	if err != nil {
		return nil, err
	}
	return k.http.Post(ctx, full, params, body, headers)
}

// Put sends a PUT request with body.
func (k *Kokoroe) Put(ctx context.Context, endpoint string, body any, accessToken string) (*httpclient.Response, error) {
	full, params, headers, err := k.prepare(endpoint, accessToken)
	if err != nil {
		return nil, err
	}
	return k.http.Put(ctx, full, params, body, headers)
}

// Delete sends a DELETE request.
func (k *Kokoroe) Delete(ctx context.Context, endpoint, accessToken string) (*httpclient.Response, error) {
	full, params, headers, err := k.prepare(endpoint, accessToken)
	if err != nil {
		return nil, err
	}
	return k.http.Delete(ctx, full, params, headers)
}
