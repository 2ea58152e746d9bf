package dsl

import (
	"context"
	"reflect"
	"slices"

	goshape "github.com/reoring/goshape"
)

// ArrayShape validates []any values, either element-wise (Array), position by
// position (Tuple), or both (Tuple with Rest).
type ArrayShape struct {
	goshape.Base
	heads  []goshape.Shape
	rest   goshape.Shape
	coerce bool
}

// Array returns a shape validating every element with elem.
func Array(elem goshape.Shape) *ArrayShape {
	return &ArrayShape{Base: goshape.NewBase(nil), rest: elem}
}

// Tuple returns a shape requiring exactly len(heads) elements, each validated
// by the head at its position.
func Tuple(heads ...goshape.Shape) *ArrayShape {
	return &ArrayShape{Base: goshape.NewBase(nil), heads: slices.Clone(heads)}
}

// Rest validates elements past the heads with r and lifts the exact length
// requirement of a tuple.
func (s *ArrayShape) Rest(r goshape.Shape) *ArrayShape {
	c := *s
	c.Base = s.Fork()
	c.rest = r
	return &c
}

// Coerce converts other Go slices and arrays to []any and wraps any other
// value in a one-element array.
func (s *ArrayShape) Coerce() *ArrayShape {
	c := *s
	c.Base = s.Fork()
	c.coerce = true
	return &c
}

// Heads returns the positional shapes.
func (s *ArrayShape) Heads() []goshape.Shape { return slices.Clone(s.heads) }

// RestShape returns the shape of elements past the heads, or nil.
func (s *ArrayShape) RestShape() goshape.Shape { return s.rest }

// Min requires at least n elements.
func (s *ArrayShape) Min(n int) *ArrayShape {
	return goshape.Check(s, func(_ context.Context, v any, _ goshape.ParseOpt) error {
		arr, ok := v.([]any)
		if !ok {
			return invalidType(v, "array")
		}
		if len(arr) < n {
			return goshape.NewIssue(goshape.CodeTooShort, v, n)
		}
		return nil
	}, goshape.WithType("array.min"), goshape.WithParam(n))
}

// Max allows at most n elements.
func (s *ArrayShape) Max(n int) *ArrayShape {
	return goshape.Check(s, func(_ context.Context, v any, _ goshape.ParseOpt) error {
		arr, ok := v.([]any)
		if !ok {
			return invalidType(v, "array")
		}
		if len(arr) > n {
			return goshape.NewIssue(goshape.CodeTooLong, v, n)
		}
		return nil
	}, goshape.WithType("array.max"), goshape.WithParam(n))
}

// toSlice converts input to []any. ok is false when no conversion applies.
func toSlice(input any) ([]any, bool) {
	rv := reflect.ValueOf(input)
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return nil, false
		}
		fallthrough
	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	}
	return nil, false
}

func (s *ArrayShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	arr, ok := input.([]any)
	coerced := false
	if !ok && s.coerce && !goshape.IsUndefined(input) {
		if arr, ok = toSlice(input); !ok {
			arr, ok = []any{input}, true
		}
		coerced = true
	}
	if !ok {
		return s.Finish(ctx, input, false, invalidType(input, "array"), opt)
	}

	if n := len(arr); n < len(s.heads) || (s.rest == nil && n != len(s.heads)) {
		iss := goshape.Issues{goshape.NewIssue(goshape.CodeTupleLength, input, len(s.heads))}
		return s.Finish(ctx, input, false, iss, opt)
	}

	jobs := make([]job, len(arr))
	for i, v := range arr {
		sh := s.rest
		if i < len(s.heads) {
			sh = s.heads[i]
		}
		jobs[i] = job{shape: sh, input: v}
	}

	var (
		iss goshape.Issues
		out []any
	)
	err := runJobs(ctx, jobs, opt, nonce, async, func(i int, r goshape.Result) bool {
		if !r.OK() {
			iss = append(iss, r.Issues.Prefixed(i)...)
			return !opt.EarlyReturn
		}
		if r.Changed() {
			if out == nil {
				out = slices.Clone(arr)
			}
			out[i] = r.Value
		}
		return true
	})
	if err != nil {
		return goshape.Result{}, err
	}
	if len(iss) > 0 {
		return s.Finish(ctx, input, false, iss, opt)
	}
	switch {
	case out != nil:
		return s.Finish(ctx, out, true, nil, opt)
	case coerced:
		return s.Finish(ctx, arr, true, nil, opt)
	default:
		return s.Finish(ctx, input, false, nil, opt)
	}
}

func (s *ArrayShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *ArrayShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *ArrayShape) Async() bool { return s.AsyncOf(s) }

func (s *ArrayShape) Inputs() []goshape.Kind {
	if s.coerce {
		return []goshape.Kind{goshape.KindAny}
	}
	return []goshape.Kind{goshape.KindArray}
}

func (s *ArrayShape) Children() []goshape.Shape {
	out := slices.Clone(s.heads)
	if s.rest != nil {
		out = append(out, s.rest)
	}
	return out
}

func (s *ArrayShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}
