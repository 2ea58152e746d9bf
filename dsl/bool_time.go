package dsl

import (
	"context"
	"time"

	goshape "github.com/reoring/goshape"
)

// BoolShape accepts bools.
type BoolShape struct {
	goshape.Base
	coerce bool
}

// Bool returns a shape accepting bools.
func Bool() *BoolShape { return &BoolShape{Base: goshape.NewBase(nil)} }

// Coerce converts "true"/"false", 0/1 and nil to bools before validation.
func (s *BoolShape) Coerce() *BoolShape {
	c := *s
	c.Base = s.Fork()
	c.coerce = true
	return &c
}

func (s *BoolShape) eval(ctx context.Context, input any, opt goshape.ParseOpt) (goshape.Result, error) {
	if _, ok := input.(bool); ok {
		return s.Finish(ctx, input, false, nil, opt)
	}
	if s.coerce {
		if b, ok := coerceBool(input); ok {
			return s.Finish(ctx, b, true, nil, opt)
		}
	}
	return s.Finish(ctx, input, false, invalidType(input, "bool"), opt)
}

func (s *BoolShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *BoolShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *BoolShape) Async() bool { return s.AsyncOf(s) }

func (s *BoolShape) Inputs() []goshape.Kind {
	if s.coerce {
		return []goshape.Kind{goshape.KindBool, goshape.KindString, goshape.KindNumber, goshape.KindNull, goshape.KindUndefined, goshape.KindArray}
	}
	return []goshape.Kind{goshape.KindBool}
}

func (s *BoolShape) Children() []goshape.Shape { return nil }

func (s *BoolShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// TimeShape accepts time.Time values.
type TimeShape struct {
	goshape.Base
	coerce bool
}

// Time returns a shape accepting time.Time values.
func Time() *TimeShape { return &TimeShape{Base: goshape.NewBase(nil)} }

// Coerce converts RFC 3339 strings and Unix-millisecond numbers to time.Time.
func (s *TimeShape) Coerce() *TimeShape {
	c := *s
	c.Base = s.Fork()
	c.coerce = true
	return &c
}

// After requires instants strictly after t.
func (s *TimeShape) After(t time.Time) *TimeShape {
	p := t.Format(time.RFC3339Nano)
	return goshape.Check(s, func(_ context.Context, v any, _ goshape.ParseOpt) error {
		if !v.(time.Time).After(t) {
			return goshape.NewIssue(goshape.CodeTooSmall, v, p)
		}
		return nil
	}, goshape.WithType("time.after"), goshape.WithParam(p))
}

// Before requires instants strictly before t.
func (s *TimeShape) Before(t time.Time) *TimeShape {
	p := t.Format(time.RFC3339Nano)
	return goshape.Check(s, func(_ context.Context, v any, _ goshape.ParseOpt) error {
		if !v.(time.Time).Before(t) {
			return goshape.NewIssue(goshape.CodeTooBig, v, p)
		}
		return nil
	}, goshape.WithType("time.before"), goshape.WithParam(p))
}

func (s *TimeShape) eval(ctx context.Context, input any, opt goshape.ParseOpt) (goshape.Result, error) {
	if _, ok := input.(time.Time); ok {
		return s.Finish(ctx, input, false, nil, opt)
	}
	if s.coerce {
		if t, ok := coerceTime(input); ok {
			return s.Finish(ctx, t, true, nil, opt)
		}
	}
	return s.Finish(ctx, input, false, invalidType(input, "time"), opt)
}

func (s *TimeShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *TimeShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *TimeShape) Async() bool { return s.AsyncOf(s) }

func (s *TimeShape) Inputs() []goshape.Kind {
	if s.coerce {
		return []goshape.Kind{goshape.KindTime, goshape.KindString, goshape.KindNumber, goshape.KindArray}
	}
	return []goshape.Kind{goshape.KindTime}
}

func (s *TimeShape) Children() []goshape.Shape { return nil }

func (s *TimeShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}
