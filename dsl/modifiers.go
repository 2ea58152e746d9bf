package dsl

import (
	"context"

	goshape "github.com/reoring/goshape"
	eng "github.com/reoring/goshape/internal/engine"
)

// ReplaceShape substitutes one input value for an output and delegates every
// other input to a base shape.
type ReplaceShape struct {
	goshape.Base
	base    goshape.Shape
	in, out any
}

// Replace returns a shape mapping inputs equal to in onto out. Other inputs
// are applied to base.
func Replace(base goshape.Shape, in, out any) *ReplaceShape {
	return &ReplaceShape{Base: goshape.NewBase(nil), base: base, in: in, out: out}
}

func orDefault(def []any, zero any) any {
	if len(def) > 0 {
		return def[0]
	}
	return zero
}

// Optional accepts Undefined (an absent key). With a default the absent value
// is replaced by it.
func Optional(base goshape.Shape, def ...any) *ReplaceShape {
	return Replace(base, goshape.Undefined, orDefault(def, goshape.Undefined))
}

// Nullable accepts nil. With a default nil is replaced by it.
func Nullable(base goshape.Shape, def ...any) *ReplaceShape {
	return Replace(base, nil, orDefault(def, nil))
}

// Nullish accepts nil and Undefined. With a default both are replaced by it.
func Nullish(base goshape.Shape, def ...any) *ReplaceShape {
	return Replace(Replace(base, nil, orDefault(def, nil)), goshape.Undefined, orDefault(def, goshape.Undefined))
}

// Unwrap returns the base shape.
func (s *ReplaceShape) Unwrap() goshape.Shape { return s.base }

// Replaces returns the substituted input and its output.
func (s *ReplaceShape) Replaces() (in, out any) { return s.in, s.out }

func (s *ReplaceShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	if eng.Equal(input, s.in) {
		return s.Finish(ctx, s.out, !eng.Equal(input, s.out), nil, opt)
	}
	r, err := child(ctx, s.base, input, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if !r.OK() {
		return s.Finish(ctx, input, false, r.Issues, opt)
	}
	return s.Finish(ctx, r.Output(input), r.Changed(), nil, opt)
}

func (s *ReplaceShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *ReplaceShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *ReplaceShape) Async() bool { return s.AsyncOf(s) }

func (s *ReplaceShape) Inputs() []goshape.Kind {
	return goshape.KindsOf(s.base.Inputs(), []goshape.Kind{goshape.KindOf(s.in)})
}

func (s *ReplaceShape) Children() []goshape.Shape { return []goshape.Shape{s.base} }

func (s *ReplaceShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// DenyShape rejects one value as input or output of its base.
type DenyShape struct {
	goshape.Base
	base  goshape.Shape
	value any
}

// Deny rejects inputs equal to value and base outputs equal to value.
func Deny(base goshape.Shape, value any) *DenyShape {
	return &DenyShape{Base: goshape.NewBase(nil), base: base, value: value}
}

// Denied returns the rejected value.
func (s *DenyShape) Denied() any { return s.value }

func (s *DenyShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	denied := goshape.Issues{goshape.NewIssue(goshape.CodeDenied, input, s.value)}
	if eng.Equal(input, s.value) {
		return s.Finish(ctx, input, false, denied, opt)
	}
	r, err := child(ctx, s.base, input, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if !r.OK() {
		return s.Finish(ctx, input, false, r.Issues, opt)
	}
	out := r.Output(input)
	if eng.Equal(out, s.value) {
		return s.Finish(ctx, input, false, denied, opt)
	}
	return s.Finish(ctx, out, r.Changed(), nil, opt)
}

func (s *DenyShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *DenyShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *DenyShape) Async() bool               { return s.AsyncOf(s) }
func (s *DenyShape) Inputs() []goshape.Kind    { return s.base.Inputs() }
func (s *DenyShape) Children() []goshape.Shape { return []goshape.Shape{s.base} }

func (s *DenyShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// CatchShape turns failures of its base into a fallback value.
type CatchShape struct {
	goshape.Base
	base     goshape.Shape
	fallback func(input any, iss goshape.Issues) any
}

// Catch replaces any failure of base with fallback(input, issues).
func Catch(base goshape.Shape, fallback func(input any, iss goshape.Issues) any) *CatchShape {
	return &CatchShape{Base: goshape.NewBase(nil), base: base, fallback: fallback}
}

// CatchValue replaces any failure of base with v.
func CatchValue(base goshape.Shape, v any) *CatchShape {
	return Catch(base, func(any, goshape.Issues) any { return v })
}

func (s *CatchShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	r, err := child(ctx, s.base, input, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if !r.OK() {
		return s.Finish(ctx, s.fallback(input, r.Issues), true, nil, opt)
	}
	return s.Finish(ctx, r.Output(input), r.Changed(), nil, opt)
}

func (s *CatchShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *CatchShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *CatchShape) Async() bool               { return s.AsyncOf(s) }
func (s *CatchShape) Inputs() []goshape.Kind    { return []goshape.Kind{goshape.KindAny} }
func (s *CatchShape) Children() []goshape.Shape { return []goshape.Shape{s.base} }

func (s *CatchShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// ExcludeShape rejects inputs accepted by a second shape.
type ExcludeShape struct {
	goshape.Base
	base, excluded goshape.Shape
}

// Exclude rejects inputs that excluded accepts and applies base to the rest.
func Exclude(base, excluded goshape.Shape) *ExcludeShape {
	return &ExcludeShape{Base: goshape.NewBase(nil), base: base, excluded: excluded}
}

func (s *ExcludeShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	x, err := child(ctx, s.excluded, input, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if x.OK() {
		return s.Finish(ctx, input, false, goshape.Issues{goshape.NewIssue(goshape.CodeExcluded, input, nil)}, opt)
	}
	r, err := child(ctx, s.base, input, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if !r.OK() {
		return s.Finish(ctx, input, false, r.Issues, opt)
	}
	return s.Finish(ctx, r.Output(input), r.Changed(), nil, opt)
}

func (s *ExcludeShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *ExcludeShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *ExcludeShape) Async() bool               { return s.AsyncOf(s) }
func (s *ExcludeShape) Inputs() []goshape.Kind    { return s.base.Inputs() }
func (s *ExcludeShape) Children() []goshape.Shape { return []goshape.Shape{s.base, s.excluded} }

func (s *ExcludeShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// PipeShape feeds the output of one shape into another.
type PipeShape struct {
	goshape.Base
	in, out goshape.Shape
}

// Pipe applies in, then applies out to its output.
func Pipe(in, out goshape.Shape) *PipeShape {
	return &PipeShape{Base: goshape.NewBase(nil), in: in, out: out}
}

func (s *PipeShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	r, err := child(ctx, s.in, input, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if !r.OK() {
		return s.Finish(ctx, input, false, r.Issues, opt)
	}
	mid := r.Output(input)
	r2, err := child(ctx, s.out, mid, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if !r2.OK() {
		return s.Finish(ctx, input, false, r2.Issues, opt)
	}
	return s.Finish(ctx, r2.Output(mid), r.Changed() || r2.Changed(), nil, opt)
}

func (s *PipeShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *PipeShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *PipeShape) Async() bool               { return s.AsyncOf(s) }
func (s *PipeShape) Inputs() []goshape.Kind    { return s.in.Inputs() }
func (s *PipeShape) Children() []goshape.Shape { return []goshape.Shape{s.in, s.out} }

func (s *PipeShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// Convert returns a shape accepting any input and replacing it with the
// result of fn.
func Convert(fn goshape.ConvertFunc) *AnyShape { return goshape.Convert(Any(), fn) }

// ConvertAsync is Convert with a callback that may block. The shape is async.
func ConvertAsync(fn goshape.ConvertFunc) *AnyShape { return goshape.ConvertAsync(Any(), fn) }

// Transform applies base and converts its output with fn.
func Transform(base goshape.Shape, fn goshape.ConvertFunc) *PipeShape {
	return Pipe(base, Convert(fn))
}
