package tools

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Args are the decoded arguments of a tool call.
type Args map[string]interface{}

// ParseArgs decodes the model's JSON argument string. Malformed or
// non-object input yields empty Args, leaving the function to report what
// is missing.
func ParseArgs(raw string) Args {
	var a Args
	if err := json.Unmarshal([]byte(raw), &a); err != nil || a == nil {
		return Args{}
	}
	return a
}

// String returns a trimmed string argument.
func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// Float returns a numeric argument. Numeric strings are accepted.
func (a Args) Float(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// Int returns an integer argument, or def when absent or invalid.
func (a Args) Int(key string, def int) int {
	if f, ok := a.Float(key); ok {
		return int(f)
	}
	return def
}

// Strings returns a string list argument. A single string becomes a
// one-element list.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			switch s := e.(type) {
			case string:
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			case float64:
				out = append(out, strconv.FormatFloat(s, 'f', -1, 64))
			}
		}
		return out
	case string:
		if v = strings.TrimSpace(v); v != "" {
			return []string{v}
		}
	}
	return nil
}

// Objects returns a list-of-objects argument.
func (a Args) Objects(key string) []Args {
	list, ok := a[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]Args, 0, len(list))
	for _, e := range list {
		if m, ok := e.(map[string]interface{}); ok {
			out = append(out, Args(m))
		}
	}
	return out
}
