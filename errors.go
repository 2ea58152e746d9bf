package goshape

import (
	"errors"
	"fmt"
	"strings"

	"github.com/reoring/goshape/i18n"
)

// Issue codes (exported consts for IDE completion and type safety by convention)
const (
	CodeInvalidType         = "invalid_type"
	CodeInvalidConst        = "invalid_const"
	CodeInvalidEnum         = "invalid_enum"
	CodeInvalidFormat       = "invalid_format"
	CodeUnknownKeys         = "unknown_keys"
	CodeTupleLength         = "tuple_length"
	CodeInvalidUnion        = "invalid_union"
	CodeInvalidIntersection = "invalid_intersection"
	CodeTooSmall            = "too_small"
	CodeTooBig              = "too_big"
	CodeNotFinite           = "not_finite"
	CodeNotInteger          = "not_integer"
	CodeTooShort            = "too_short"
	CodeTooLong             = "too_long"
	CodePattern             = "pattern"
	CodeDenied              = "denied"
	CodeExcluded            = "excluded"
	CodeNever               = "never"
	CodeParseError          = "parse_error"
	CodeDuplicateKey        = "duplicate_key"
	CodeServiceUnavailable  = "service_unavailable"
	CodeNotUnique           = "not_unique"
	CodeCustom              = "custom"
)

// Fatal errors. They are never reported as issues.
var (
	// ErrSyncUnsupported is returned by Apply on a shape whose Async reports true.
	ErrSyncUnsupported = errors.New("goshape: shape is async, use ApplyAsync")
	// ErrLazyReentrant is returned when a lazy provider re-enters its own shape.
	ErrLazyReentrant = errors.New("goshape: lazy shape provider re-entered itself")
	// ErrLazyNilShape is returned when a lazy provider returns nil.
	ErrLazyNilShape = errors.New("goshape: lazy shape provider returned nil")
)

// Issue represents a single validation failure.
type Issue struct {
	Code string
	// Path is the structural path from the root value: string keys and int
	// indices (map shapes may use the original key value).
	Path    []any
	Input   any
	Message string
	// Param carries the constraint that failed (for example the minimum length
	// or the union issue groups).
	Param any
	Meta  any
}

// Error implements error so checks may return a single Issue.
func (it Issue) Error() string {
	return fmt.Sprintf("%s at %s", it.Code, it.Pointer())
}

// Pointer renders Path as a JSON Pointer (RFC 6901). The root path is "/".
func (it Issue) Pointer() string { return Pointer(it.Path) }

// WithPrefix returns a copy of the issue whose path starts with key.
func (it Issue) WithPrefix(key any) Issue {
	p := make([]any, 0, len(it.Path)+1)
	p = append(p, key)
	it.Path = append(p, it.Path...)
	return it
}

// Issues is a collection of validation errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		// e.g. invalid_type at /path
		fmt.Fprintf(b, "%s at %s", it.Code, it.Pointer())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Prefixed returns a copy of the issues with key prepended to every path.
// The receiver is not modified.
func (iss Issues) Prefixed(key any) Issues {
	if len(iss) == 0 {
		return iss
	}
	out := make(Issues, len(iss))
	for i, it := range iss {
		out[i] = it.WithPrefix(key)
	}
	return out
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally. A single
// Issue or *Issue is returned as a one-element list.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	var one Issue
	if errors.As(err, &one) {
		return Issues{one}, true
	}
	var ptr *Issue
	if errors.As(err, &ptr) && ptr != nil {
		return Issues{*ptr}, true
	}
	return nil, false
}

// NewIssue builds an issue with a translated message.
func NewIssue(code string, input, param any) Issue {
	return Issue{Code: code, Input: input, Param: param, Message: i18n.T(code, messageData(param))}
}

// Fail returns a Result holding a single issue built by NewIssue.
func Fail(code string, input, param any) Result {
	return Failed(Issues{NewIssue(code, input, param)})
}

func messageData(param any) map[string]string {
	switch p := param.(type) {
	case nil:
		return nil
	case map[string]any:
		out := make(map[string]string, len(p))
		for k, v := range p {
			out[k] = fmt.Sprint(v)
		}
		return out
	default:
		return map[string]string{"param": fmt.Sprint(p)}
	}
}
