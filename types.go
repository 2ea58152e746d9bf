package goshape

import (
	"encoding/json"
	"log/slog"
	"reflect"
	"sync/atomic"
	"time"

	"github.com/reoring/goshape/source"
)

// ParseOpt bundles parsing options.
type ParseOpt struct {
	// EarlyReturn stops at the first issue instead of collecting all of them.
	EarlyReturn bool
	// Context carries caller data for check and convert callbacks.
	Context map[string]any
	// Logger receives diagnostics. A nil Logger discards them.
	Logger *slog.Logger
	// Source configures document decoding in ParseJSON and ParseYAML.
	Source source.Options
}

var _discardLogger = slog.New(slog.DiscardHandler)

// Log returns the configured logger or a logger that discards everything.
func (o ParseOpt) Log() *slog.Logger {
	if o.Logger == nil {
		return _discardLogger
	}
	return o.Logger
}

// Nonce identifies one top-level parse call.
type Nonce uint64

var _nonceCounter atomic.Uint64

// NextNonce mints a new process-wide unique nonce.
func NextNonce() Nonce { return Nonce(_nonceCounter.Add(1)) }

type undefinedType struct{}

func (undefinedType) String() string { return "undefined" }

// MarshalJSON renders Undefined as null.
func (undefinedType) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Undefined stands for an absent value, such as a missing object key. It is
// distinct from nil, which stands for null.
var Undefined any = undefinedType{}

// IsUndefined reports whether v is Undefined.
func IsUndefined(v any) bool {
	_, ok := v.(undefinedType)
	return ok
}

// Kind is an input-type tag used for introspection.
type Kind uint8

const (
	KindAny Kind = iota // Any input is accepted.
	KindUndefined
	KindNull
	KindBool
	KindNumber
	KindString
	KindObject // map[string]any
	KindArray  // []any
	KindTime   // time.Time
	KindMap    // map[any]any
	KindOther
)

var _kindNames = [...]string{"any", "undefined", "null", "bool", "number", "string", "object", "array", "time", "map", "other"}

func (k Kind) String() string {
	if int(k) < len(_kindNames) {
		return _kindNames[k]
	}
	return "other"
}

// KindOf classifies a value.
func KindOf(v any) Kind {
	switch t := v.(type) {
	case nil:
		return KindNull
	case undefinedType:
		return KindUndefined
	case bool:
		return KindBool
	case string:
		return KindString
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, json.Number:
		return KindNumber
	case map[string]any:
		return KindObject
	case []any:
		return KindArray
	case time.Time:
		return KindTime
	case map[any]any:
		return KindMap
	default:
		rv := reflect.ValueOf(t)
		switch rv.Kind() {
		case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
			if rv.IsNil() {
				return KindNull
			}
		}
		return KindOther
	}
}

// KindsOf merges kind lists, dropping duplicates. A KindAny anywhere yields
// just KindAny.
func KindsOf(lists ...[]Kind) []Kind {
	var seen [KindOther + 1]bool
	var out []Kind
	for _, l := range lists {
		for _, k := range l {
			if k == KindAny {
				return []Kind{KindAny}
			}
			if int(k) < len(seen) && !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
