package goshape

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"
)

// ParseAs parses input with s and decodes the output into T through its JSON
// form, honoring json struct tags. Validation failures are returned as an
// Issues error. A decoding failure is fatal: the shape admitted a value that
// does not fit T.
func ParseAs[T any](ctx context.Context, s Shape, input any, opts ...ParseOpt) (T, error) {
	var zero T
	out, err := parseAuto(ctx, s, input, pickOpt(opts))
	if err != nil {
		return zero, err
	}
	return decodeInto[T](out)
}

// ParseJSONAs decodes a JSON document, parses it with s and decodes the
// output into T.
func ParseJSONAs[T any](ctx context.Context, s Shape, data []byte, opts ...ParseOpt) (T, error) {
	var zero T
	out, err := ParseJSON(ctx, s, data, opts...)
	if err != nil {
		return zero, err
	}
	return decodeInto[T](out)
}

func decodeInto[T any](v any) (T, error) {
	var t T
	if direct, ok := v.(T); ok {
		return direct, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return t, fmt.Errorf("goshape: encode %T: %w", v, err)
	}
	if err := json.Unmarshal(b, &t); err != nil {
		return t, fmt.Errorf("goshape: decode into %T: %w", t, err)
	}
	return t, nil
}
