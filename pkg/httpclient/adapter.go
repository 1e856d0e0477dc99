package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

// Adapter abstracts the network call so callers can inject mocks, recorders or
// other transports.
type Adapter interface {
	Send(ctx context.Context, req *Request) (*Response, error)
}

// Request is what an Adapter needs to perform one call.
//
// Body may be nil, a string or []byte (sent verbatim), url.Values,
// map[string]string or Form (form encoded for POST and PUT, multipart when the
// Form holds a *File).
type Request struct {
	Method  string
	URL     string
	Body    any
	Headers map[string]string
	Timeout time.Duration
}

// Form is a structured body. Values are strings, []string, *File or scalars
// formatted with fmt.Sprint.
type Form map[string]any

// File is a local file uploaded as a multipart part.
type File struct {
	Path        string
	Name        string // defaults to the base name of Path
	ContentType string // defaults from the extension
}

var supportedMethods = map[string]struct{}{
	http.MethodGet:    {},
	http.MethodHead:   {},
	http.MethodPost:   {},
	http.MethodPut:    {},
	http.MethodDelete: {},
}

// normalizeMethod upper-cases method and rejects verbs the SDK does not speak.
func normalizeMethod(method string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if _, ok := supportedMethods[m]; !ok {
		return "", validationErrorf("unsupported HTTP method %q", method)
	}
	return m, nil
}

func hasPayload(method string) bool {
	return method == http.MethodPost || method == http.MethodPut
}

// payload is the classified form of Request.Body.
type payload struct {
	raw    []byte
	isRaw  bool
	form   url.Values
	files  []formFile
	isForm bool
}

type formFile struct {
	param string
	file  *File
}

func (p payload) multipart() bool { return len(p.files) > 0 }

func classifyBody(body any) (payload, error) {
	switch b := body.(type) {
	case nil:
		return payload{}, nil
	case string:
		return payload{raw: []byte(b), isRaw: true}, nil
	case []byte:
		return payload{raw: b, isRaw: true}, nil
	case url.Values:
		return payload{form: b, isForm: true}, nil
	case map[string]string:
		form := make(url.Values, len(b))
		for k, v := range b {
			form.Set(k, v)
		}
		return payload{form: form, isForm: true}, nil
	case Form:
		return classifyForm(b)
	default:
		return payload{}, validationErrorf("unsupported request body type %T", body)
	}
}

func classifyForm(f Form) (payload, error) {
	p := payload{form: url.Values{}, isForm: true}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch v := f[k].(type) {
		case *File:
			if v == nil || v.Path == "" {
				return payload{}, validationErrorf("form file %q has no path", k)
			}
			p.files = append(p.files, formFile{param: k, file: v})
		case File:
			if v.Path == "" {
				return payload{}, validationErrorf("form file %q has no path", k)
			}
			file := v
			p.files = append(p.files, formFile{param: k, file: &file})
		case string:
			p.form.Add(k, v)
		case []string:
			for _, s := range v {
				p.form.Add(k, s)
			}
		case nil:
		default:
			p.form.Add(k, fmt.Sprint(v))
		}
	}
	return p, nil
}
