package dsl

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	goshape "github.com/reoring/goshape"
	eng "github.com/reoring/goshape/internal/engine"
)

// unwrapSingle returns the element of a one-element []any.
func unwrapSingle(v any) any {
	if a, ok := v.([]any); ok && len(a) == 1 {
		return a[0]
	}
	return v
}

func isNil(v any) bool { return v == nil || goshape.IsUndefined(v) }

func coerceString(v any) (string, bool) {
	v = unwrapSingle(v)
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case json.Number:
		return t.String(), true
	case time.Time:
		return t.Format(time.RFC3339Nano), true
	}
	if isNil(v) {
		return "", true
	}
	if f, ok := eng.Float(v); ok {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return "", false
		}
		return strconv.FormatFloat(f, 'f', -1, 64), true
	}
	return "", false
}

func coerceNumber(v any) (float64, bool) {
	v = unwrapSingle(v)
	switch t := v.(type) {
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		return f, err == nil
	case bool:
		if t {
			return 1, true
		}
		return 0, true
	case time.Time:
		return float64(t.UnixMilli()), true
	}
	if isNil(v) {
		return 0, true
	}
	return eng.Float(v)
}

func coerceBool(v any) (bool, bool) {
	v = unwrapSingle(v)
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		switch strings.TrimSpace(t) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
		return false, false
	}
	if isNil(v) {
		return false, true
	}
	if f, ok := eng.Float(v); ok {
		switch f {
		case 0:
			return false, true
		case 1:
			return true, true
		}
	}
	return false, false
}

func coerceTime(v any) (time.Time, bool) {
	v = unwrapSingle(v)
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		ts, err := parseRFC3339(t)
		return ts, err == nil
	}
	if f, ok := eng.Float(v); ok && !math.IsNaN(f) && !math.IsInf(f, 0) {
		return time.UnixMilli(int64(f)).UTC(), true
	}
	return time.Time{}, false
}

// parseRFC3339 accepts RFC 3339 timestamps with or without fractional seconds.
func parseRFC3339(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }
