package agentdef

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Header holds the normalized key/value pairs of a header block. Values are
// string, bool, int, float64, []string, or []any / map[string]any for
// structured sidecar data.
type Header map[string]any

// String returns the value for key formatted as text. Lists are joined with
// ", "; missing keys yield "".
func (h Header) String(key string) string {
	switch v := h[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case []string:
		return strings.Join(v, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func (h Header) Name() string        { return h.String("name") }
func (h Header) Description() string { return h.String("description") }
func (h Header) Version() string     { return h.String("version") }

// Tools accepts either a list or a comma separated string.
func (h Header) Tools() []string {
	switch v := h["tools"].(type) {
	case []string:
		return v
	case []any:
		var tools []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				tools = append(tools, s)
			}
		}
		return tools
	case string:
		var tools []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				tools = append(tools, part)
			}
		}
		return tools
	default:
		return nil
	}
}

// isEmpty reports whether a header value carries no information.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(t) == ""
	case []string:
		return len(t) == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	default:
		return false
	}
}

// normalize converts decoded YAML or JSON values into the Header value set.
func normalize(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case string, bool, int, float64:
		return t
	case int64:
		return int(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return int(i)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case []any:
		return normalizeList(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	default:
		return fmt.Sprint(t)
	}
}

func normalizeList(items []any) any {
	strs := make([]string, 0, len(items))
	mixed := make([]any, 0, len(items))
	allStrings := true
	for _, item := range items {
		n := normalize(item)
		mixed = append(mixed, n)
		if s, ok := n.(string); ok {
			strs = append(strs, s)
		} else {
			allStrings = false
		}
	}
	if allStrings {
		return strs
	}
	return mixed
}

func normalizeHeader(m map[string]any) Header {
	h := make(Header, len(m))
	for k, v := range m {
		h[k] = normalize(v)
	}
	return h
}
