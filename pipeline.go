package goshape

import (
	"context"
	"slices"

	"github.com/reoring/goshape/i18n"
)

// Tolerance decides whether an operation runs after an earlier failure and
// whether its own failure stops the pipeline.
type Tolerance uint8

const (
	// TolerateAuto runs after an earlier failure only when the operation is
	// marked Unsafe.
	TolerateAuto Tolerance = iota
	// TolerateSkip never runs once any earlier operation failed.
	TolerateSkip
	// TolerateAbort runs like TolerateAuto; its own failure halts the pipeline.
	TolerateAbort
)

// CheckFunc inspects a value. A nil error or an empty Issues is success; an
// Issue, *Issue or Issues error is a validation failure. Any other error is
// fatal.
type CheckFunc func(ctx context.Context, value any, opt ParseOpt) error

// ConvertFunc replaces a value. Errors follow the CheckFunc contract.
type ConvertFunc func(ctx context.Context, value any, opt ParseOpt) (any, error)

// Operation is a check or a converter attached to a shape.
type Operation struct {
	Type      string
	Param     any
	Tolerance Tolerance
	// Async operations may block; a shape holding one is async.
	Async bool
	// Unsafe operations may run on a value that already failed validation.
	Unsafe bool

	Check   CheckFunc
	Convert ConvertFunc
}

// RunOperations folds ops over value. Incoming issues are kept and new ones
// appended. changed reports whether a converter replaced the value. A non-nil
// error is fatal.
func RunOperations(ctx context.Context, ops []Operation, value any, iss Issues, opt ParseOpt) (out any, changed bool, _ Issues, _ error) {
	for i := range ops {
		op := &ops[i]
		if len(iss) > 0 {
			if opt.EarlyReturn {
				break
			}
			if op.Convert != nil || op.Tolerance == TolerateSkip || !op.Unsafe {
				continue
			}
		}

		var err error
		if op.Convert != nil {
			var next any
			next, err = op.Convert(ctx, value, opt)
			if err == nil {
				value = next
				changed = true
				continue
			}
		} else if op.Check != nil {
			err = op.Check(ctx, value, opt)
		}
		if err == nil {
			continue
		}
		got, ok := AsIssues(err)
		if !ok {
			return value, changed, iss, err
		}
		if len(got) == 0 {
			continue
		}
		iss = appendOpIssues(iss, op, value, got)
		if opt.EarlyReturn || op.Tolerance == TolerateAbort {
			break
		}
	}
	return value, changed, iss, nil
}

func appendOpIssues(dst Issues, op *Operation, value any, got Issues) Issues {
	dst = AppendIssues(dst)
	for _, it := range got {
		if it.Code == "" {
			it.Code = CodeCustom
		}
		if it.Input == nil {
			it.Input = value
		}
		if it.Param == nil {
			it.Param = op.Param
		}
		if it.Message == "" {
			it.Message = i18n.T(it.Code, messageData(it.Param))
		}
		dst = append(dst, it)
	}
	return dst
}

// OpOption configures an operation added by Check, Refine or Convert.
type OpOption func(*opConfig)

type opConfig struct {
	op      Operation
	code    string
	message string
}

// WithType sets the operation type tag.
func WithType(t string) OpOption { return func(c *opConfig) { c.op.Type = t } }

// WithParam attaches a parameter reported on issues.
func WithParam(p any) OpOption { return func(c *opConfig) { c.op.Param = p } }

// WithTolerance sets the tolerance policy.
func WithTolerance(t Tolerance) OpOption { return func(c *opConfig) { c.op.Tolerance = t } }

// Unsafe lets the operation run on values that already failed.
func Unsafe() OpOption { return func(c *opConfig) { c.op.Unsafe = true } }

// WithCode sets the issue code produced by Refine.
func WithCode(code string) OpOption { return func(c *opConfig) { c.code = code } }

// WithMessage sets the issue message produced by Refine.
func WithMessage(msg string) OpOption { return func(c *opConfig) { c.message = msg } }

func buildOp(defaultType string, opts []OpOption) opConfig {
	c := opConfig{op: Operation{Type: defaultType}}
	for _, o := range opts {
		if o != nil {
			o(&c)
		}
	}
	return c
}

// Operable is a shape whose operation list can be extended. Builder calls
// return a new shape; the receiver is never modified.
type Operable interface {
	Shape
	Operations() []Operation
	WithOperations(ops []Operation) Shape
}

// AddOperation returns a copy of s with op appended.
func AddOperation[S Operable](s S, op Operation) S {
	ops := append(slices.Clip(s.Operations()), op)
	return s.WithOperations(ops).(S)
}

// Check adds a check operation.
func Check[S Operable](s S, fn CheckFunc, opts ...OpOption) S {
	c := buildOp("check", opts)
	c.op.Check = fn
	return AddOperation(s, c.op)
}

// CheckAsync adds a check that may block. The shape becomes async.
func CheckAsync[S Operable](s S, fn CheckFunc, opts ...OpOption) S {
	c := buildOp("check", opts)
	c.op.Check = fn
	c.op.Async = true
	return AddOperation(s, c.op)
}

// Refine adds a predicate check. A false predicate reports one issue with the
// configured code (CodeCustom by default) and message.
func Refine[S Operable](s S, pred func(value any) bool, opts ...OpOption) S {
	c := buildOp("refine", opts)
	code, msg := c.code, c.message
	if code == "" {
		code = CodeCustom
	}
	param := c.op.Param
	c.op.Check = func(_ context.Context, value any, _ ParseOpt) error {
		if pred(value) {
			return nil
		}
		it := NewIssue(code, value, param)
		if msg != "" {
			it.Message = msg
		}
		return it
	}
	return AddOperation(s, c.op)
}

// Convert adds a converter operation.
func Convert[S Operable](s S, fn ConvertFunc, opts ...OpOption) S {
	c := buildOp("convert", opts)
	c.op.Convert = fn
	return AddOperation(s, c.op)
}

// ConvertAsync adds a converter that may block. The shape becomes async.
func ConvertAsync[S Operable](s S, fn ConvertFunc, opts ...OpOption) S {
	c := buildOp("convert", opts)
	c.op.Convert = fn
	c.op.Async = true
	return AddOperation(s, c.op)
}
