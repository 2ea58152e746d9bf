package goshape

type resultKind uint8

const (
	_resultUnchanged resultKind = iota
	_resultReplaced
	_resultFailed
)

// Result is the tri-state outcome of applying a shape: the input is valid and
// untouched, valid and replaced by Value, or invalid with Issues.
//
// The zero Result is Unchanged.
type Result struct {
	kind   resultKind
	Value  any
	Issues Issues
}

// Unchanged reports a valid input that is returned as-is.
func Unchanged() Result { return Result{} }

// Replaced reports a valid input that was converted to v.
func Replaced(v any) Result { return Result{kind: _resultReplaced, Value: v} }

// Failed reports an invalid input. An empty list is treated as Unchanged.
func Failed(iss Issues) Result {
	if len(iss) == 0 {
		return Result{}
	}
	return Result{kind: _resultFailed, Issues: iss}
}

// OK reports whether the input was valid.
func (r Result) OK() bool { return r.kind != _resultFailed }

// Changed reports whether the value was replaced.
func (r Result) Changed() bool { return r.kind == _resultReplaced }

// Output returns the replaced value or input when unchanged. It must not be
// called on a failed result.
func (r Result) Output(input any) any {
	if r.kind == _resultReplaced {
		return r.Value
	}
	return input
}

// Prefixed returns the result with key prepended to every issue path.
func (r Result) Prefixed(key any) Result {
	if r.kind != _resultFailed {
		return r
	}
	return Result{kind: _resultFailed, Issues: r.Issues.Prefixed(key)}
}

// Settle builds the final result of a shape from its output and collected
// issues. No Replaced wrapper is allocated when nothing changed.
func Settle(output any, changed bool, iss Issues) Result {
	if len(iss) > 0 {
		return Result{kind: _resultFailed, Issues: iss}
	}
	if !changed {
		return Result{}
	}
	return Result{kind: _resultReplaced, Value: output}
}
