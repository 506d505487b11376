package http1

// Headers is an insertion-ordered header list. Setting an existing key
// replaces its value in place, keeping the original position.
type Headers struct {
	keys   []string
	values map[string]string
}

// Set adds or replaces key.
func (h *Headers) Set(key, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, exists := h.values[key]; !exists {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Get returns the value for key.
func (h *Headers) Get(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Len returns the number of distinct keys.
func (h *Headers) Len() int { return len(h.keys) }

// Each calls fn for every header in insertion order.
func (h *Headers) Each(fn func(key, value string)) {
	for _, k := range h.keys {
		fn(k, h.values[k])
	}
}
