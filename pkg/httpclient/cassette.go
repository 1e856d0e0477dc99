package httpclient

import (
	"context"
	"crypto/sha1" //nolint:gosec // non-cryptographic key derivation
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Cassette persists raw responses keyed by request fingerprint.
type Cassette interface {
	Load(key string) ([]byte, bool, error)
	Save(key string, raw []byte) error
}

// CassetteMode selects how CassetteAdapter uses its store.
type CassetteMode string

const (
	// CassetteOff bypasses the store entirely.
	CassetteOff CassetteMode = "off"
	// CassetteRecord always calls the wrapped adapter and stores the result.
	CassetteRecord CassetteMode = "record"
	// CassetteReplay only serves stored responses.
	CassetteReplay CassetteMode = "replay"
	// CassetteAuto replays when a response is stored, records otherwise.
	CassetteAuto CassetteMode = "auto"
)

// ErrCassetteMiss is wrapped in the TransportError returned by replay mode
// when no response is stored for a request.
var ErrCassetteMiss = errors.New("no recorded response")

// ParseCassetteMode validates a mode string; "" means off.
func ParseCassetteMode(s string) (CassetteMode, error) {
	switch m := CassetteMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", CassetteOff:
		return CassetteOff, nil
	case CassetteRecord, CassetteReplay, CassetteAuto:
		return m, nil
	default:
		return "", validationErrorf("unsupported cassette mode %q", s)
	}
}

// CassetteAdapter records responses of another Adapter and replays them.
type CassetteAdapter struct {
	next  Adapter
	store Cassette
	mode  CassetteMode
	log   Logger
}

// NewCassetteAdapter wraps next. next may be nil in replay mode.
func NewCassetteAdapter(next Adapter, store Cassette, mode CassetteMode, log Logger) (*CassetteAdapter, error) {
	if store == nil {
		return nil, validationErrorf("cassette store must not be nil")
	}
	if next == nil && mode != CassetteReplay {
		return nil, validationErrorf("cassette mode %q needs an adapter to forward to", mode)
	}
	return &CassetteAdapter{next: next, store: store, mode: mode, log: ensureLogger(log)}, nil
}

// Mode returns the configured mode.
func (a *CassetteAdapter) Mode() CassetteMode { return a.mode }

// Send replays or records according to the mode.
func (a *CassetteAdapter) Send(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, validationErrorf("request must not be nil")
	}
	if a.mode == CassetteOff {
		return a.next.Send(ctx, req)
	}

	method, err := normalizeMethod(req.Method)
	if err != nil {
		return nil, err
	}
	key, err := CassetteKey(method, req.URL, req.Body)
	if err != nil {
		return nil, err
	}

	if a.mode == CassetteReplay || a.mode == CassetteAuto {
		raw, ok, err := a.store.Load(key)
		if err != nil {
			return nil, fmt.Errorf("load cassette: %w", err)
		}
		if ok {
			a.log.DebugObj("cassette replay", "cassette", map[string]any{"method": method, "url": req.URL})
			return ParseRawResponse(raw, 0)
		}
		if a.mode == CassetteReplay {
			return nil, &TransportError{Method: method, URL: req.URL, Err: ErrCassetteMiss}
		}
	}

	resp, err := a.next.Send(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := a.store.Save(key, WriteRawResponse(resp)); err != nil {
		return nil, fmt.Errorf("save cassette: %w", err)
	}
	a.log.DebugObj("cassette recorded", "cassette", map[string]any{"method": method, "url": req.URL})
	return resp, nil
}

// CassetteKey fingerprints a request by method, URL and body.
func CassetteKey(method, rawURL string, body any) (string, error) {
	p, err := classifyBody(body)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(rawURL)
	b.WriteByte('\n')
	switch {
	case p.isRaw:
		b.Write(p.raw)
	case p.isForm:
		b.WriteString(p.form.Encode())
		files := make(url.Values, len(p.files))
		for _, f := range p.files {
			files.Add(f.param, f.file.Path)
		}
		keys := make([]string, 0, len(files))
		for k := range files {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString("\n" + k + "=" + strings.Join(files[k], ","))
		}
	}

	sum := sha1.Sum([]byte(b.String())) //nolint:gosec // non-cryptographic key derivation
	return hex.EncodeToString(sum[:]), nil
}
