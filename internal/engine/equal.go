package engine

import (
	"encoding/json"
	"math"
	"reflect"
	"strconv"
	"time"
)

// Equal reports structural equality of two decoded values. Numbers compare by
// value across Go numeric types and json.Number, time.Time compares by
// instant, and containers compare element-wise. Other values fall back to
// reflect.DeepEqual. Self-referencing containers are supported: a pair of
// containers already under comparison counts as equal.
func Equal(a, b any) bool { return equal(a, b, nil) }

// Pair is an ordered pair of identities, used to track containers under
// comparison or merge.
type Pair struct{ A, B Identity }

// PairOf returns the pair of identities of a and b. ok is false unless both
// have reference identity.
func PairOf(a, b any) (Pair, bool) {
	ia, ok := IdentityOf(a)
	if !ok {
		return Pair{}, false
	}
	ib, ok := IdentityOf(b)
	if !ok {
		return Pair{}, false
	}
	return Pair{ia, ib}, true
}

func equal(a, b any, seen map[Pair]bool) bool {
	if p, ok := PairOf(a, b); ok {
		if p.A == p.B || seen[p] {
			return true
		}
		if seen == nil {
			seen = map[Pair]bool{}
		}
		seen[p] = true
	}
	if fa, ok := Float(a); ok {
		fb, ok := Float(b)
		return ok && (fa == fb || (math.IsNaN(fa) && math.IsNaN(fb)))
	}
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case time.Time:
		y, ok := b.(time.Time)
		return ok && x.Equal(y)
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, va := range x {
			vb, ok := y[k]
			if !ok || !equal(va, vb, seen) {
				return false
			}
		}
		return true
	case map[any]any:
		y, ok := b.(map[any]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for k, va := range x {
			vb, ok := y[k]
			if !ok || !equal(va, vb, seen) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !equal(x[i], y[i], seen) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Float converts any Go numeric value or json.Number to float64.
func Float(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	}
	return 0, false
}
