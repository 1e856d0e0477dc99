// Package fixture implements the echo server the SDK tests run against.
//
// GET, HEAD and DELETE echo the query string as JSON. POST and PUT echo the
// decoded body: JSON bodies as-is, form and multipart bodies as their fields,
// with uploaded files listed under "_files". GET /redirect answers 302 to
// "/?<query>" and GET /bad returns truncated JSON.
package fixture

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

const maxMemory = 8 << 20

// Logger is the subset of the application logger the handler uses.
type Logger interface {
	DebugObj(msg, key string, obj interface{})
	WarnObj(msg, key string, obj interface{})
}

type noopLogger struct{}

func (noopLogger) DebugObj(string, string, interface{}) {}
func (noopLogger) WarnObj(string, string, interface{})  {}

// UploadedFile describes one multipart file received by the handler.
type UploadedFile struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

type handler struct {
	log Logger
}

// NewHandler returns the echo handler. log may be nil.
func NewHandler(log Logger) http.Handler {
	if log == nil {
		log = noopLogger{}
	}
	return &handler{log: log}
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.log.DebugObj("fixture request", "request", map[string]any{
		"method": r.Method,
		"uri":    r.RequestURI,
		"ua":     r.UserAgent(),
	})

	var data any
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		switch r.URL.Path {
		case "/redirect":
			http.Redirect(w, r, "/?"+r.URL.RawQuery, http.StatusFound)
			return
		case "/bad":
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"foo":"bar"`)
			return
		}
		data = flatten(r.URL.Query())
	case http.MethodDelete:
		data = flatten(r.URL.Query())
	case http.MethodPost, http.MethodPut:
		decoded, err := decodeBody(r)
		if err != nil {
			h.log.WarnObj("fixture body decode failed", "error", err.Error())
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data = decoded
	default:
		data = []any{}
	}

	w.Header().Set("Content-Type", "application/json")
	if m, ok := data.(map[string]any); ok && len(m) == 0 {
		data = []any{}
	}
	out, err := json.Marshal(data)
	if err != nil {
		h.log.WarnObj("fixture encode failed", "error", err.Error())
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write(out)
}

func contentType(r *http.Request) string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return r.Header.Get("Accept")
}

func decodeBody(r *http.Request) (any, error) {
	ct := contentType(r)
	mediaType, _, _ := mime.ParseMediaType(ct)

	switch {
	case strings.Contains(ct, "application/json"):
		var out any
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(&out); err != nil && err != io.EOF {
			return nil, err
		}
		if out == nil {
			return map[string]any{}, nil
		}
		return out, nil
	case mediaType == "multipart/form-data":
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			return nil, err
		}
		out := flatten(url.Values(r.MultipartForm.Value))
		if len(r.MultipartForm.File) > 0 {
			files := make(map[string]UploadedFile, len(r.MultipartForm.File))
			for field, headers := range r.MultipartForm.File {
				fh := headers[0]
				files[field] = UploadedFile{
					Name:        fh.Filename,
					Size:        fh.Size,
					ContentType: fh.Header.Get("Content-Type"),
				}
			}
			out["_files"] = files
		}
		return out, nil
	default:
		raw, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, err
		}
		return flatten(values), nil
	}
}

// flatten turns single-value fields into strings and keeps lists otherwise.
func flatten(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, v := range values {
		if len(v) == 1 {
			out[k] = v[0]
			continue
		}
		out[k] = v
	}
	return out
}
