// Package source decodes JSON and YAML documents into the untyped trees
// shapes operate on: map[string]any, []any, string, bool, nil and numbers.
package source

import "fmt"

// NumberMode selects how numbers are represented in decoded trees.
type NumberMode int

const (
	// NumberFloat64 decodes every number as float64.
	NumberFloat64 NumberMode = iota
	// NumberJSONNumber keeps the literal text as json.Number.
	NumberJSONNumber
)

// Options controls decoding. The zero value decodes numbers as float64 and
// lets later duplicate keys overwrite earlier ones.
type Options struct {
	Numbers NumberMode
	// Strict rejects documents holding duplicate object keys.
	Strict bool
}

func pick(opts []Options) Options {
	if len(opts) == 0 {
		return Options{}
	}
	return opts[len(opts)-1]
}

// DuplicateKeyError reports a duplicate key found by a strict decoder.
// Line and column are 1-based and zero when unknown (JSON).
type DuplicateKeyError struct {
	Key       string
	Pointer   string
	Line      int
	Col       int
	FirstLine int
	FirstCol  int
}

func (e *DuplicateKeyError) Error() string {
	if e.Line == 0 {
		return fmt.Sprintf("duplicate key %q at %s", e.Key, e.Pointer)
	}
	return fmt.Sprintf("duplicate key %q at %d:%d (first at %d:%d)", e.Key, e.Line, e.Col, e.FirstLine, e.FirstCol)
}
