package dsl

import (
	"context"
	"regexp"
	"unicode/utf8"

	goshape "github.com/reoring/goshape"
)

// StringShape accepts strings.
type StringShape struct {
	goshape.Base
	coerce bool
}

// String returns a shape accepting strings.
func String() *StringShape { return &StringShape{Base: goshape.NewBase(nil)} }

// Coerce converts numbers, bools and nil to strings before validation.
func (s *StringShape) Coerce() *StringShape {
	c := *s
	c.Base = s.Fork()
	c.coerce = true
	return &c
}

// Min requires at least n characters.
func (s *StringShape) Min(n int) *StringShape {
	return goshape.Check(s, func(_ context.Context, v any, _ goshape.ParseOpt) error {
		if utf8.RuneCountInString(v.(string)) < n {
			return goshape.NewIssue(goshape.CodeTooShort, v, n)
		}
		return nil
	}, goshape.WithType("string.min"), goshape.WithParam(n))
}

// Max allows at most n characters.
func (s *StringShape) Max(n int) *StringShape {
	return goshape.Check(s, func(_ context.Context, v any, _ goshape.ParseOpt) error {
		if utf8.RuneCountInString(v.(string)) > n {
			return goshape.NewIssue(goshape.CodeTooLong, v, n)
		}
		return nil
	}, goshape.WithType("string.max"), goshape.WithParam(n))
}

// NonEmpty rejects the empty string.
func (s *StringShape) NonEmpty() *StringShape { return s.Min(1) }

// Pattern requires a match of the regular expression expr. It panics when
// expr does not compile.
func (s *StringShape) Pattern(expr string) *StringShape {
	re := regexp.MustCompile(expr)
	return goshape.Check(s, func(_ context.Context, v any, _ goshape.ParseOpt) error {
		if !re.MatchString(v.(string)) {
			return goshape.NewIssue(goshape.CodePattern, v, expr)
		}
		return nil
	}, goshape.WithType("string.pattern"), goshape.WithParam(expr))
}

func (s *StringShape) eval(ctx context.Context, input any, opt goshape.ParseOpt) (goshape.Result, error) {
	if _, ok := input.(string); ok {
		return s.Finish(ctx, input, false, nil, opt)
	}
	if s.coerce {
		if v, ok := coerceString(input); ok {
			return s.Finish(ctx, v, true, nil, opt)
		}
	}
	return s.Finish(ctx, input, false, invalidType(input, "string"), opt)
}

func (s *StringShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *StringShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *StringShape) Async() bool { return s.AsyncOf(s) }

func (s *StringShape) Inputs() []goshape.Kind {
	if s.coerce {
		return []goshape.Kind{goshape.KindString, goshape.KindNumber, goshape.KindBool, goshape.KindNull, goshape.KindUndefined, goshape.KindArray}
	}
	return []goshape.Kind{goshape.KindString}
}

func (s *StringShape) Children() []goshape.Shape { return nil }

func (s *StringShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}
