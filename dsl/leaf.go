package dsl

import (
	"context"

	goshape "github.com/reoring/goshape"
	eng "github.com/reoring/goshape/internal/engine"
)

// AnyShape accepts every value.
type AnyShape struct{ goshape.Base }

// Any returns a shape accepting every value, including Undefined.
func Any() *AnyShape { return &AnyShape{Base: goshape.NewBase(nil)} }

func (s *AnyShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(bool) (goshape.Result, error) { return s.Finish(ctx, input, false, nil, opt) })
}

func (s *AnyShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(bool) (goshape.Result, error) { return s.Finish(ctx, input, false, nil, opt) })
}

func (s *AnyShape) Async() bool             { return s.AsyncOf(s) }
func (s *AnyShape) Inputs() []goshape.Kind  { return []goshape.Kind{goshape.KindAny} }
func (s *AnyShape) Children() []goshape.Shape { return nil }

func (s *AnyShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// NeverShape rejects every value.
type NeverShape struct{ goshape.Base }

// Never returns a shape rejecting every value with a "never" issue.
func Never() *NeverShape { return &NeverShape{Base: goshape.NewBase(nil)} }

func (s *NeverShape) eval(ctx context.Context, input any, opt goshape.ParseOpt) (goshape.Result, error) {
	return s.Finish(ctx, input, false, goshape.Issues{goshape.NewIssue(goshape.CodeNever, input, nil)}, opt)
}

func (s *NeverShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *NeverShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *NeverShape) Async() bool             { return s.AsyncOf(s) }
func (s *NeverShape) Inputs() []goshape.Kind  { return []goshape.Kind{} }
func (s *NeverShape) Children() []goshape.Shape { return nil }

func (s *NeverShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// EnumShape accepts values structurally equal to one of its members.
type EnumShape struct {
	goshape.Base
	values []any
	single bool
}

// Const returns a shape accepting only values equal to v.
func Const(v any) *EnumShape {
	return &EnumShape{Base: goshape.NewBase(nil), values: []any{v}, single: true}
}

// Enum returns a shape accepting values equal to one of values.
func Enum(values ...any) *EnumShape {
	return &EnumShape{Base: goshape.NewBase(nil), values: append([]any(nil), values...)}
}

// Values returns the accepted values.
func (s *EnumShape) Values() []any { return append([]any(nil), s.values...) }

func (s *EnumShape) eval(ctx context.Context, input any, opt goshape.ParseOpt) (goshape.Result, error) {
	for _, v := range s.values {
		if eng.Equal(input, v) {
			return s.Finish(ctx, input, false, nil, opt)
		}
	}
	var it goshape.Issue
	if s.single {
		it = goshape.NewIssue(goshape.CodeInvalidConst, input, s.values[0])
	} else {
		it = goshape.NewIssue(goshape.CodeInvalidEnum, input, s.Values())
	}
	return s.Finish(ctx, input, false, goshape.Issues{it}, opt)
}

func (s *EnumShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *EnumShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *EnumShape) Async() bool { return s.AsyncOf(s) }

func (s *EnumShape) Inputs() []goshape.Kind {
	kinds := make([]goshape.Kind, 0, len(s.values))
	for _, v := range s.values {
		kinds = append(kinds, goshape.KindOf(v))
	}
	return goshape.KindsOf(kinds)
}

func (s *EnumShape) Children() []goshape.Shape { return nil }

func (s *EnumShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}
