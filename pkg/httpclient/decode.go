package httpclient

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	jsonErrDepth     = "Maximum stack depth exceeded"
	jsonErrSyntax    = "Syntax error, malformed JSON"
	jsonErrUTF8      = "Malformed UTF-8 characters, possibly incorrectly encoded"
	jsonErrStateType = "State mismatch (invalid or malformed JSON)"
	jsonErrUnknown   = "Unknown error"
)

// JSON decodes the body into maps, slices and scalars. An empty body yields
// (nil, nil), which is distinct from a decode failure.
func (r *Response) JSON() (any, error) {
	var out any
	if len(r.body) == 0 {
		return nil, nil
	}
	if err := r.DecodeJSON(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// DecodeJSON unmarshals the body into v. An empty body leaves v untouched.
// Failures are reported as *ParseError.
func (r *Response) DecodeJSON(v any) error {
	if len(r.body) == 0 {
		return nil
	}
	if !utf8.Valid(r.body) {
		return &ParseError{Msg: "Unable to parse response body into JSON: " + jsonErrUTF8}
	}
	if err := json.Unmarshal(r.body, v); err != nil {
		return &ParseError{Msg: "Unable to parse response body into JSON: " + jsonErrorMessage(err), Err: err}
	}
	return nil
}

func jsonErrorMessage(err error) string {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		if strings.Contains(syntaxErr.Error(), "exceeded max depth") {
			return jsonErrDepth
		}
		return jsonErrSyntax
	case errors.As(err, &typeErr):
		return jsonErrStateType
	default:
		return jsonErrUnknown
	}
}

// HTML parses the body as an HTML document.
func (r *Response) HTML() (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.body))
	if err != nil {
		return nil, &ParseError{Msg: "Unable to parse response body into HTML", Err: err}
	}
	return doc, nil
}
