package dsl

import (
	"context"
	"math"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/i18n"
	eng "github.com/reoring/goshape/internal/engine"
)

// NumberShape accepts Go numeric values and json.Number. NaN is rejected.
type NumberShape struct {
	goshape.Base
	coerce  bool
	integer bool
}

// Number returns a shape accepting numbers.
func Number() *NumberShape { return &NumberShape{Base: goshape.NewBase(nil)} }

// Int returns a shape accepting integral numbers.
func Int() *NumberShape { return &NumberShape{Base: goshape.NewBase(nil), integer: true} }

// Coerce converts numeric strings, bools and nil to float64 before
// validation.
func (s *NumberShape) Coerce() *NumberShape {
	c := *s
	c.Base = s.Fork()
	c.coerce = true
	return &c
}

// Integer reports whether only integral values are accepted.
func (s *NumberShape) Integer() bool { return s.integer }

func (s *NumberShape) bound(typ, code string, n float64, fail func(f float64) bool, exclusive bool) *NumberShape {
	return goshape.Check(s, func(_ context.Context, v any, _ goshape.ParseOpt) error {
		f, _ := eng.Float(v)
		if !fail(f) {
			return nil
		}
		it := goshape.NewIssue(code, v, n)
		if exclusive {
			it.Message = i18n.T(code+".exclusive", map[string]string{"param": formatFloat(n)})
		}
		return it
	}, goshape.WithType(typ), goshape.WithParam(n))
}

// Gte requires values >= n.
func (s *NumberShape) Gte(n float64) *NumberShape {
	return s.bound("number.gte", goshape.CodeTooSmall, n, func(f float64) bool { return f < n }, false)
}

// Gt requires values > n.
func (s *NumberShape) Gt(n float64) *NumberShape {
	return s.bound("number.gt", goshape.CodeTooSmall, n, func(f float64) bool { return f <= n }, true)
}

// Lte requires values <= n.
func (s *NumberShape) Lte(n float64) *NumberShape {
	return s.bound("number.lte", goshape.CodeTooBig, n, func(f float64) bool { return f > n }, false)
}

// Lt requires values < n.
func (s *NumberShape) Lt(n float64) *NumberShape {
	return s.bound("number.lt", goshape.CodeTooBig, n, func(f float64) bool { return f >= n }, true)
}

// Finite rejects infinities.
func (s *NumberShape) Finite() *NumberShape {
	return goshape.Check(s, func(_ context.Context, v any, _ goshape.ParseOpt) error {
		if f, _ := eng.Float(v); math.IsInf(f, 0) {
			return goshape.NewIssue(goshape.CodeNotFinite, v, nil)
		}
		return nil
	}, goshape.WithType("number.finite"))
}

func (s *NumberShape) eval(ctx context.Context, input any, opt goshape.ParseOpt) (goshape.Result, error) {
	value, changed := input, false
	f, ok := eng.Float(input)
	if !ok && s.coerce {
		if f, ok = coerceNumber(input); ok {
			value, changed = f, true
		}
	}
	if !ok || math.IsNaN(f) {
		return s.Finish(ctx, input, false, invalidType(input, "number"), opt)
	}
	if s.integer && (math.IsInf(f, 0) || f != math.Trunc(f)) {
		iss := goshape.Issues{goshape.NewIssue(goshape.CodeNotInteger, input, nil)}
		return s.Finish(ctx, input, false, iss, opt)
	}
	return s.Finish(ctx, value, changed, nil, opt)
}

func (s *NumberShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *NumberShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(bool) (goshape.Result, error) { return s.eval(ctx, input, opt) })
}

func (s *NumberShape) Async() bool { return s.AsyncOf(s) }

func (s *NumberShape) Inputs() []goshape.Kind {
	if s.coerce {
		return []goshape.Kind{goshape.KindNumber, goshape.KindString, goshape.KindBool, goshape.KindNull, goshape.KindUndefined, goshape.KindTime, goshape.KindArray}
	}
	return []goshape.Kind{goshape.KindNumber}
}

func (s *NumberShape) Children() []goshape.Shape { return nil }

func (s *NumberShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}
