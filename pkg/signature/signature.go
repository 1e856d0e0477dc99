// Package signature signs request URLs so the API can check their origin and
// integrity.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
)

// Signer signs a full request URL.
type Signer interface {
	Sign(rawURL string) (string, error)
}

// HMACSigner signs the canonical form of a URL with HMAC-SHA256.
//
// The canonical form is the URL without query and fragment, followed by "?"
// and the query re-encoded with its parameters sorted by key when the query is
// not empty. Reordering parameters therefore never changes the signature.
// HMACSigner holds only its key and is safe for concurrent use.
type HMACSigner struct {
	key []byte
}

// NewHMACSigner returns a signer using key.
func NewHMACSigner(key string) *HMACSigner {
	return &HMACSigner{key: []byte(key)}
}

// Canonical returns the string that Sign feeds to the MAC.
//
// Parameters are percent-encoded as application/x-www-form-urlencoded and
// sorted byte-wise by key; repeated keys keep their values in original order.
func Canonical(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	params, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return "", fmt.Errorf("parse query: %w", err)
	}

	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""

	canonical := u.String()
	if len(params) > 0 {
		canonical += "?" + params.Encode()
	}
	return canonical, nil
}

// Sign returns the lowercase hex HMAC-SHA256 of Canonical(rawURL).
func (s *HMACSigner) Sign(rawURL string) (string, error) {
	canonical, err := Canonical(rawURL)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha256.New, s.key)
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil)), nil
}
