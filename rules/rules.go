// Package rules builds cross-field checks over parsed object trees.
//
// Rules address values by JSON Pointer relative to the value they are attached
// to and report issues at the addressed path:
//
//	order := rules.Attach(orderShape,
//		rules.If("/status", rules.Eq, "paid").Then(rules.Present("/paidAt")),
//		rules.AtLeastOne("/items"),
//		rules.UniqueBy("/items", "sku"),
//	)
package rules

import (
	"context"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	goshape "github.com/reoring/goshape"
	eng "github.com/reoring/goshape/internal/engine"
)

// Rule inspects a parsed value and returns the issues found.
type Rule func(ctx context.Context, v any, opt goshape.ParseOpt) goshape.Issues

// Attach adds rules to s as one check operation. Rules run in order; with
// EarlyReturn the first failing rule stops the rest.
func Attach[S goshape.Operable](s S, rules ...Rule) S {
	all := And(rules...)
	return goshape.Check(s, func(ctx context.Context, v any, opt goshape.ParseOpt) error {
		if iss := all(ctx, v, opt); len(iss) > 0 {
			return iss
		}
		return nil
	}, goshape.WithType("rules"))
}

// Op defines simple comparison operators for If(...).Then(...)
type Op int

const (
	Eq Op = iota
	Ne
	Lt
	Le
	Gt
	Ge
)

// Conditional composes conditional execution of rules.
type Conditional struct {
	path []any
	op   Op
	want any
	all  []Conditional // composite AND
	any  []Conditional // composite OR
}

// If builds a conditional comparing the value at pointer with want. A missing
// value never satisfies the condition.
func If(pointer string, op Op, want any) Conditional {
	return Conditional{path: goshape.ParsePointer(pointer), op: op, want: want}
}

// IfAll builds a conditional that requires all conditions to hold.
func IfAll(conds ...Conditional) Conditional { return Conditional{all: conds} }

// IfAny builds a conditional that requires any condition to hold.
func IfAny(conds ...Conditional) Conditional { return Conditional{any: conds} }

// And combines the receiver with additional conditions using logical AND.
func (c Conditional) And(others ...Conditional) Conditional {
	return IfAll(append([]Conditional{c}, others...)...)
}

// Or combines the receiver with additional conditions using logical OR.
func (c Conditional) Or(others ...Conditional) Conditional {
	return IfAny(append([]Conditional{c}, others...)...)
}

// Then returns a rule running rules only when the condition holds.
func (c Conditional) Then(rules ...Rule) Rule {
	all := And(rules...)
	return func(ctx context.Context, v any, opt goshape.ParseOpt) goshape.Issues {
		if !c.holds(v) {
			return nil
		}
		return all(ctx, v, opt)
	}
}

func (c Conditional) holds(v any) bool {
	switch {
	case len(c.all) > 0:
		for _, it := range c.all {
			if !it.holds(v) {
				return false
			}
		}
		return true
	case len(c.any) > 0:
		for _, it := range c.any {
			if it.holds(v) {
				return true
			}
		}
		return false
	}
	cur, ok := lookup(v, c.path)
	if !ok {
		return false
	}
	return compare(cur, c.op, c.want)
}

// Present requires a value at pointer. Null counts as present.
func Present(pointer string) Rule {
	path := goshape.ParsePointer(pointer)
	return func(_ context.Context, v any, _ goshape.ParseOpt) goshape.Issues {
		if _, ok := lookup(v, path); ok {
			return nil
		}
		it := goshape.NewIssue(goshape.CodeInvalidType, goshape.Undefined, nil)
		it.Path = path
		return goshape.Issues{it}
	}
}

// AtLeastOne requires the array at pointer to hold an element. Missing values
// and non-arrays are left to the shape.
func AtLeastOne(pointer string) Rule {
	path := goshape.ParsePointer(pointer)
	return func(_ context.Context, v any, _ goshape.ParseOpt) goshape.Issues {
		cur, ok := lookup(v, path)
		if !ok {
			return nil
		}
		if arr, ok := cur.([]any); ok && len(arr) == 0 {
			it := goshape.NewIssue(goshape.CodeTooShort, cur, 1)
			it.Path = path
			return goshape.Issues{it}
		}
		return nil
	}
}

// UniqueBy requires the elements of the array at collection to have distinct
// values at the relative pointer key. Duplicates are reported at the key of
// the later element; Param is the index of the first occurrence.
func UniqueBy(collection, key string) Rule {
	cp := goshape.ParsePointer(collection)
	kp := goshape.ParsePointer(key)
	return func(_ context.Context, v any, opt goshape.ParseOpt) goshape.Issues {
		cur, ok := lookup(v, cp)
		if !ok {
			return nil
		}
		arr, ok := cur.([]any)
		if !ok {
			return nil
		}
		var (
			out  goshape.Issues
			seen []any
			at   []int
		)
		for i, elem := range arr {
			kv, ok := lookup(elem, kp)
			if !ok {
				continue
			}
			first := -1
			for j, s := range seen {
				if eng.Equal(s, kv) {
					first = at[j]
					break
				}
			}
			if first < 0 {
				seen = append(seen, kv)
				at = append(at, i)
				continue
			}
			it := goshape.NewIssue(goshape.CodeNotUnique, kv, first)
			it.Path = append(append(append([]any{}, cp...), i), kp...)
			out = append(out, it)
			if opt.EarlyReturn {
				break
			}
		}
		return out
	}
}

// And runs every rule and concatenates their issues. With EarlyReturn it stops
// at the first failing rule.
func And(rules ...Rule) Rule {
	return func(ctx context.Context, v any, opt goshape.ParseOpt) goshape.Issues {
		var out goshape.Issues
		for _, r := range rules {
			if r == nil {
				continue
			}
			if iss := r(ctx, v, opt); len(iss) > 0 {
				out = append(out, iss...)
				if opt.EarlyReturn {
					return out
				}
			}
		}
		return out
	}
}

// Or succeeds if any rule returns no issues. When all fail, the branch with
// the fewest issues is returned.
func Or(rules ...Rule) Rule {
	return func(ctx context.Context, v any, opt goshape.ParseOpt) goshape.Issues {
		var best goshape.Issues
		for _, r := range rules {
			if r == nil {
				continue
			}
			iss := r(ctx, v, opt)
			if len(iss) == 0 {
				return nil
			}
			if best == nil || len(iss) < len(best) {
				best = iss
			}
		}
		return best
	}
}

// lookup navigates parsed values: string keyed maps and slices.
func lookup(v any, path []any) (any, bool) {
	cur := v
	for _, seg := range path {
		key := fmt.Sprint(seg)
		switch c := cur.(type) {
		case map[string]any:
			next, ok := c[key]
			if !ok || goshape.IsUndefined(next) {
				return nil, false
			}
			cur = next
		case []any:
			idx, err := strconv.Atoi(key)
			if err != nil || idx < 0 || idx >= len(c) {
				return nil, false
			}
			cur = c[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

func compare(cur any, op Op, want any) bool {
	switch op {
	case Eq:
		return eng.Equal(cur, want)
	case Ne:
		return !eng.Equal(cur, want)
	}
	var c int
	if a, ok := toFloat(cur); ok {
		b, ok := toFloat(want)
		if !ok {
			return false
		}
		switch {
		case a < b:
			c = -1
		case a > b:
			c = 1
		}
	} else if a, ok := cur.(string); ok {
		b, ok := want.(string)
		if !ok {
			return false
		}
		c = strings.Compare(a, b)
	} else {
		return false
	}
	switch op {
	case Lt:
		return c < 0
	case Le:
		return c <= 0
	case Gt:
		return c > 0
	case Ge:
		return c >= 0
	}
	return false
}

func toFloat(v any) (float64, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	}
	return 0, false
}
