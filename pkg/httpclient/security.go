package httpclient

import "golang.org/x/net/http/httpguts"

// ValidHeaderName reports whether name is a non-empty RFC 7230 token.
func ValidHeaderName(name string) bool {
	return httpguts.ValidHeaderFieldName(name)
}

// ValidHeaderValue reports whether value is safe to place on the wire.
//
// CR and LF are only accepted as an obsolete line folding sequence: CRLF
// immediately followed by a space or horizontal tab. DEL, bytes >= 0x80 and
// control characters other than HT are rejected.
func ValidHeaderValue(value string) bool {
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c == '\r':
			if i+2 < len(value) && value[i+1] == '\n' && (value[i+2] == ' ' || value[i+2] == '\t') {
				i += 2
				continue
			}
			return false
		case c == '\t':
		case c < 0x20, c == 0x7f, c >= 0x80:
			return false
		}
	}
	return true
}

// AssertValidHeader returns a *ValidationError naming the header when the name
// or any of the values would allow header injection.
func AssertValidHeader(name string, values ...string) error {
	if !ValidHeaderName(name) {
		return &ValidationError{Header: name, Reason: "name is not a valid token"}
	}
	for _, v := range values {
		if !ValidHeaderValue(v) {
			return &ValidationError{Header: name, Reason: "value contains forbidden characters"}
		}
	}
	return nil
}
