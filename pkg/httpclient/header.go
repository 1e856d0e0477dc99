package httpclient

import (
	"iter"
	"slices"
	"sort"
	"strings"
)

// Header is an ordered, case-insensitive, multi-value header container.
//
// The first spelling used for a name is the one kept for output; later writes
// with another casing update the same entry. The zero value is ready to use.
// Header does no validation: Response and the adapters check names and values
// before accepting or sending them.
type Header struct {
	names  map[string]string   // normalized -> original
	values map[string][]string // normalized -> values
	order  []string            // normalized, insertion order
}

// NewHeader returns an empty header container.
func NewHeader() *Header {
	return &Header{}
}

// HeaderFrom builds a container from an initial mapping. Names are inserted in
// sorted order so the result does not depend on map iteration.
func HeaderFrom(initial map[string][]string) *Header {
	h := NewHeader()
	names := make([]string, 0, len(initial))
	for name := range initial {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		h.Set(name, initial[name]...)
	}
	return h
}

func normalize(name string) string {
	return strings.ToLower(name)
}

func (h *Header) init() {
	if h.names == nil {
		h.names = make(map[string]string)
		h.values = make(map[string][]string)
	}
}

func (h *Header) put(name string, values []string, replace bool) {
	h.init()
	key := normalize(name)
	if _, ok := h.names[key]; !ok {
		h.names[key] = name
		h.order = append(h.order, key)
		h.values[key] = nil
	}
	if replace {
		h.values[key] = append([]string(nil), values...)
		return
	}
	h.values[key] = append(h.values[key], values...)
}

// Set stores values under name, replacing whatever was there.
func (h *Header) Set(name string, values ...string) {
	h.put(name, values, true)
}

// Add appends values to the ones already stored under name.
func (h *Header) Add(name string, values ...string) {
	h.put(name, values, false)
}

// SetAny accepts a string, a []string or a map[string]string. Map keys are
// discarded and the values are kept in key order.
func (h *Header) SetAny(name string, value any, replace bool) error {
	var values []string
	switch v := value.(type) {
	case string:
		values = []string{v}
	case []string:
		values = v
	case map[string]string:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			values = append(values, v[k])
		}
	default:
		return &ValidationError{Header: name, Reason: "Invalid header value; must be a string or array of strings"}
	}
	h.put(name, values, replace)
	return nil
}

// Replace drops every header and stores the given mapping instead.
func (h *Header) Replace(headers map[string][]string) {
	*h = *HeaderFrom(headers)
}

// Has reports whether name is present.
func (h *Header) Has(name string) bool {
	if h == nil || h.names == nil {
		return false
	}
	_, ok := h.names[normalize(name)]
	return ok
}

// Get returns the first value stored under name, or "".
func (h *Header) Get(name string) string {
	return h.GetDefault(name, "")
}

// GetDefault returns the first value stored under name, or def when absent.
func (h *Header) GetDefault(name, def string) string {
	values := h.Values(name)
	if len(values) == 0 {
		return def
	}
	return values[0]
}

// Values returns a copy of every value stored under name, nil when absent.
func (h *Header) Values(name string) []string {
	if !h.Has(name) {
		return nil
	}
	return slices.Clone(h.values[normalize(name)])
}

// ValuesDefault is Values with a one-element fallback.
func (h *Header) ValuesDefault(name, def string) []string {
	if !h.Has(name) {
		return []string{def}
	}
	return h.Values(name)
}

// Line returns the values of name joined by commas.
func (h *Header) Line(name string) string {
	return strings.Join(h.Values(name), ",")
}

// Contains reports whether value is one of the values stored under name.
func (h *Header) Contains(name, value string) bool {
	return slices.Contains(h.Values(name), value)
}

// Remove deletes name; it is a no-op when the header is absent.
func (h *Header) Remove(name string) {
	if !h.Has(name) {
		return
	}
	key := normalize(name)
	delete(h.names, key)
	delete(h.values, key)
	h.order = slices.DeleteFunc(h.order, func(k string) bool { return k == key })
}

// Keys returns the normalized names in insertion order.
func (h *Header) Keys() []string {
	if h == nil {
		return nil
	}
	return slices.Clone(h.order)
}

// All returns a copy keyed by the original-case names.
func (h *Header) All() map[string][]string {
	out := make(map[string][]string, h.Len())
	if h == nil {
		return out
	}
	for _, key := range h.order {
		out[h.names[key]] = slices.Clone(h.values[key])
	}
	return out
}

// Each iterates normalized name -> values in insertion order.
func (h *Header) Each() iter.Seq2[string, []string] {
	return func(yield func(string, []string) bool) {
		if h == nil {
			return
		}
		for _, key := range h.order {
			if !yield(key, slices.Clone(h.values[key])) {
				return
			}
		}
	}
}

// Len returns the number of distinct header names.
func (h *Header) Len() int {
	if h == nil {
		return 0
	}
	return len(h.order)
}

// Name returns the original-case spelling stored for name.
func (h *Header) Name(name string) (string, bool) {
	if !h.Has(name) {
		return "", false
	}
	return h.names[normalize(name)], true
}

// Clone returns a deep copy.
func (h *Header) Clone() *Header {
	out := NewHeader()
	if h == nil {
		return out
	}
	for _, key := range h.order {
		out.put(h.names[key], h.values[key], true)
	}
	return out
}
