package mstp

// Headers is an ordered string map. Setting an existing key replaces its
// value and keeps its original position. The zero value is ready to use.
type Headers struct {
	keys   []string
	values map[string]string
}

// Set stores value under key.
func (h *Headers) Set(key, value string) {
	if h.values == nil {
		h.values = make(map[string]string)
	}
	if _, ok := h.values[key]; !ok {
		h.keys = append(h.keys, key)
	}
	h.values[key] = value
}

// Get returns the value stored under key.
func (h *Headers) Get(key string) (string, bool) {
	v, ok := h.values[key]
	return v, ok
}

// Keys returns the keys in insertion order.
func (h *Headers) Keys() []string {
	out := make([]string, len(h.keys))
	copy(out, h.keys)
	return out
}

func (h *Headers) Len() int {
	return len(h.keys)
}
