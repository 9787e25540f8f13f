// Package fieldvalue converts loosely typed JSON values posted to the gating
// field endpoints into the Go types stored on records.
package fieldvalue

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RudyEaglevanBreda/drone-ops-manager/internal/apperr"
)

// String accepts a JSON string or null.
func String(field string, v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	}
	return "", invalid(field, "a string", v)
}

// Strings accepts an array of strings, a comma separated string, or null.
func Strings(field string, v any) ([]string, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case []string:
		return val, nil
	case string:
		var out []string
		for _, part := range strings.Split(val, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		return out, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, invalid(field, "a list of strings", v)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, invalid(field, "a list of strings", v)
}

// Amount accepts a number, a numeric string, or null. Zero is a valid amount.
func Amount(field string, v any) (*float64, error) {
	var f float64
	switch val := v.(type) {
	case nil:
		return nil, nil
	case float64:
		f = val
	case int:
		f = float64(val)
	case json.Number:
		parsed, err := val.Float64()
		if err != nil {
			return nil, invalid(field, "a number", v)
		}
		f = parsed
	case string:
		if strings.TrimSpace(val) == "" {
			return nil, nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil, invalid(field, "a number", v)
		}
		f = parsed
	default:
		return nil, invalid(field, "a number", v)
	}
	if f < 0 {
		return nil, apperr.New(apperr.ErrInvalidValue, "Field '%s' must not be negative", field)
	}
	return &f, nil
}

var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// Date accepts an RFC 3339 timestamp, a yyyy-mm-dd date, or null.
func Date(field string, v any) (*time.Time, error) {
	switch val := v.(type) {
	case nil:
		return nil, nil
	case string:
		val = strings.TrimSpace(val)
		if val == "" {
			return nil, nil
		}
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, val); err == nil {
				return &t, nil
			}
		}
	}
	return nil, invalid(field, "a date", v)
}

func invalid(field, want string, got any) error {
	return apperr.New(apperr.ErrInvalidValue, "Field '%s' must be %s, got %s", field, want, describe(got))
}

func describe(v any) string {
	switch v.(type) {
	case bool:
		return "boolean"
	case float64, int, json.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return fmt.Sprintf("%T", v)
}
