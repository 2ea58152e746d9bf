package goshape

import (
	"context"
	"errors"
	"time"

	"github.com/reoring/goshape/source"
)

// ErrNilShape is returned by the top-level entry points when given a nil shape.
var ErrNilShape = errors.New("goshape: nil shape")

// Outcome is the non-throwing result of SafeParse.
type Outcome struct {
	OK     bool
	Value  any
	Issues Issues
}

// Parse validates input against s. Validation failures are returned as an
// Issues error; other errors are fatal.
func Parse(ctx context.Context, s Shape, input any, opts ...ParseOpt) (any, error) {
	out, err := SafeParse(ctx, s, input, opts...)
	return unwrapOutcome(out, err)
}

// SafeParse validates input against s. The error is non-nil only for fatal
// failures; validation failures are reported in the Outcome.
func SafeParse(ctx context.Context, s Shape, input any, opts ...ParseOpt) (Outcome, error) {
	return safeParse(ctx, s, input, pickOpt(opts), false)
}

// ParseAsync is Parse through the async entry point. It blocks until the
// evaluation completed and works for sync and async shapes alike.
func ParseAsync(ctx context.Context, s Shape, input any, opts ...ParseOpt) (any, error) {
	out, err := SafeParseAsync(ctx, s, input, opts...)
	return unwrapOutcome(out, err)
}

// SafeParseAsync is SafeParse through the async entry point.
func SafeParseAsync(ctx context.Context, s Shape, input any, opts ...ParseOpt) (Outcome, error) {
	return safeParse(ctx, s, input, pickOpt(opts), true)
}

// ParseJSON decodes a JSON document and parses it with s, through the async
// path when s is async. Decoding follows ParseOpt.Source; decoding errors are
// reported as issues (parse_error, or duplicate_key in strict mode).
func ParseJSON(ctx context.Context, s Shape, data []byte, opts ...ParseOpt) (any, error) {
	opt := pickOpt(opts)
	v, err := source.JSON(data, opt.Source)
	if err != nil {
		return nil, decodeIssues(err)
	}
	return parseAuto(ctx, s, v, opt)
}

// ParseYAML decodes the first document of a YAML stream and parses it with s.
func ParseYAML(ctx context.Context, s Shape, data []byte, opts ...ParseOpt) (any, error) {
	opt := pickOpt(opts)
	v, err := source.YAML(data, opt.Source)
	if err != nil {
		return nil, decodeIssues(err)
	}
	return parseAuto(ctx, s, v, opt)
}

// Is reports whether input is valid for s. Fatal errors count as invalid.
func Is(ctx context.Context, s Shape, input any) bool {
	out, err := safeParse(ctx, s, input, ParseOpt{EarlyReturn: true}, s != nil && s.Async())
	return err == nil && out.OK
}

// parseAuto takes the async path only when s needs it.
func parseAuto(ctx context.Context, s Shape, input any, opt ParseOpt) (any, error) {
	out, err := safeParse(ctx, s, input, opt, s != nil && s.Async())
	return unwrapOutcome(out, err)
}

func pickOpt(opts []ParseOpt) ParseOpt {
	if len(opts) == 0 {
		return ParseOpt{}
	}
	return opts[len(opts)-1]
}

func unwrapOutcome(out Outcome, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	if !out.OK {
		return nil, out.Issues
	}
	return out.Value, nil
}

func decodeIssues(err error) Issues {
	var dup *source.DuplicateKeyError
	if errors.As(err, &dup) {
		it := NewIssue(CodeDuplicateKey, dup.Key, dup.Key)
		it.Path = ParsePointer(dup.Pointer)
		if dup.Line > 0 {
			it.Meta = map[string]int{"line": dup.Line, "col": dup.Col, "firstLine": dup.FirstLine, "firstCol": dup.FirstCol}
		}
		return Issues{it}
	}
	it := NewIssue(CodeParseError, nil, nil)
	it.Message = err.Error()
	return Issues{it}
}

func safeParse(ctx context.Context, s Shape, input any, opt ParseOpt, async bool) (Outcome, error) {
	if s == nil {
		return Outcome{}, ErrNilShape
	}
	start := time.Now()
	nonce := NextNonce()

	var (
		res Result
		err error
	)
	if async {
		res, err = s.ApplyAsync(ctx, input, opt, nonce).Wait()
	} else {
		res, err = s.Apply(ctx, input, opt, nonce)
	}

	var out Outcome
	switch {
	case err != nil:
		opt.Log().WarnContext(ctx, "goshape: parse aborted", "error", err, "async", async)
	case res.OK():
		out = Outcome{OK: true, Value: res.Output(input)}
	default:
		out = Outcome{Issues: res.Issues}
	}
	notify(ParseEvent{Async: async, Outcome: out, Err: err, Duration: time.Since(start)})
	return out, err
}
