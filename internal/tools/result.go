package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
)

// Result is what a function returns to the model.
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   string                 `json:"error,omitempty"`

	// err marks a failure of the executor itself, not of the function.
	err error
}

// OK wraps data in a successful result.
func OK(data map[string]interface{}) Result {
	return Result{Success: true, Data: data}
}

// Fail builds a failed result with a formatted message.
func Fail(format string, args ...interface{}) Result {
	return Result{Success: false, Error: fmt.Sprintf(format, args...)}
}

// Failed builds a failed result for an executor error. The model sees
// err's message; callers can tell it apart from a function failure with
// Err.
func Failed(err error) Result {
	return Result{Success: false, Error: err.Error(), err: err}
}

// Err returns the executor error behind the result, if any.
func (r Result) Err() error {
	return r.err
}

// collectionKeys and countKeys are how functions report what they found.
var (
	collectionKeys = []string{"items", "results", "recipes", "appliances", "ingredients", "alerts"}
	countKeys      = []string{"totalItems", "total", "count"}
)

// IsEmpty reports a successful lookup that found nothing: it carries at
// least one known collection or count and every one of them is empty or
// zero.
func (r Result) IsEmpty() bool {
	if !r.Success || r.Data == nil {
		return false
	}
	seen := false
	for _, k := range collectionKeys {
		v, ok := r.Data[k]
		if !ok {
			continue
		}
		seen = true
		if v == nil {
			continue
		}
		rv := reflect.ValueOf(v)
		if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array || rv.Kind() == reflect.Map) && rv.Len() == 0 {
			continue
		}
		return false
	}
	for _, k := range countKeys {
		v, ok := r.Data[k]
		if !ok {
			continue
		}
		seen = true
		if n, ok := toFloat(v); !ok || n != 0 {
			return false
		}
	}
	return seen
}

// Route returns the client route a function asked to open, if any.
func (r Result) Route() (string, bool) {
	if !r.Success || r.Data == nil {
		return "", false
	}
	route, ok := r.Data["route"].(string)
	return route, ok && route != ""
}

// JSON encodes the result for a tool message.
func (r Result) JSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return `{"success":false,"error":"no se pudo serializar el resultado"}`
	}
	return string(b)
}

// ParseResult reads a result produced by the browser. Clients may nest the
// payload under "data" or put it next to "success".
func ParseResult(raw json.RawMessage) Result {
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil || m == nil {
		return Fail("respuesta inválida del cliente")
	}
	res := Result{}
	res.Success, _ = m["success"].(bool)
	res.Error, _ = m["error"].(string)
	if data, ok := m["data"].(map[string]interface{}); ok {
		res.Data = data
		return res
	}
	for k, v := range m {
		if k == "success" || k == "error" {
			continue
		}
		if res.Data == nil {
			res.Data = make(map[string]interface{})
		}
		res.Data[k] = v
	}
	return res
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
