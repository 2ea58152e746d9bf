package dsl

import (
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"sort"

	goshape "github.com/reoring/goshape"
	eng "github.com/reoring/goshape/internal/engine"
)

// RecordShape validates map[string]any values with a key shape and a value
// shape.
type RecordShape struct {
	goshape.Base
	key, value goshape.Shape
}

// Record returns a shape validating every key with key and every value with
// value. A nil key shape accepts all keys.
func Record(key, value goshape.Shape) *RecordShape {
	return &RecordShape{Base: goshape.NewBase(nil), key: key, value: value}
}

func (s *RecordShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return s.Finish(ctx, input, false, invalidType(input, "object"), opt)
	}
	keys := slices.Sorted(maps.Keys(m))
	out, iss, changed, err := evalEntries(ctx, s.key, s.value, toAnyKeys(keys), func(k any) any { return m[k.(string)] }, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if len(iss) > 0 {
		return s.Finish(ctx, input, false, iss, opt)
	}
	if !changed {
		return s.Finish(ctx, input, false, nil, opt)
	}
	rec := make(map[string]any, len(out))
	for _, e := range out {
		k, ok := e.key.(string)
		if !ok {
			iss = append(iss, goshape.NewIssue(goshape.CodeInvalidType, e.key, "string").WithPrefix(e.orig))
			continue
		}
		rec[k] = e.value
	}
	if len(iss) > 0 {
		return s.Finish(ctx, input, false, iss, opt)
	}
	return s.Finish(ctx, rec, true, nil, opt)
}

func (s *RecordShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *RecordShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *RecordShape) Async() bool               { return s.AsyncOf(s) }
func (s *RecordShape) Inputs() []goshape.Kind    { return []goshape.Kind{goshape.KindObject} }
func (s *RecordShape) Children() []goshape.Shape { return nonNil(s.key, s.value) }

// Entries returns the key and value shapes. Either may be nil.
func (s *RecordShape) Entries() (key, value goshape.Shape) { return s.key, s.value }

func (s *RecordShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// MapShape validates map[any]any values.
type MapShape struct {
	goshape.Base
	key, value goshape.Shape
	coerce     bool
}

// Map returns a shape validating map[any]any keys with key and values with
// value. Issue paths use the original key values. A nil key shape accepts all
// keys.
func Map(key, value goshape.Shape) *MapShape {
	return &MapShape{Base: goshape.NewBase(nil), key: key, value: value}
}

// Coerce converts other Go maps, map[string]any included, to map[any]any.
func (s *MapShape) Coerce() *MapShape {
	c := *s
	c.Base = s.Fork()
	c.coerce = true
	return &c
}

func toAnyMap(input any) (map[any]any, bool) {
	rv := reflect.ValueOf(input)
	if rv.Kind() != reflect.Map || rv.IsNil() {
		return nil, false
	}
	out := make(map[any]any, rv.Len())
	it := rv.MapRange()
	for it.Next() {
		out[it.Key().Interface()] = it.Value().Interface()
	}
	return out, true
}

func (s *MapShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	m, ok := input.(map[any]any)
	coerced := false
	if !ok && s.coerce {
		m, ok = toAnyMap(input)
		coerced = ok
	}
	if !ok {
		return s.Finish(ctx, input, false, invalidType(input, "map"), opt)
	}
	keys := slices.Collect(maps.Keys(m))
	sort.Slice(keys, func(i, j int) bool { return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j]) })
	out, iss, changed, err := evalEntries(ctx, s.key, s.value, keys, func(k any) any { return m[k] }, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if len(iss) > 0 {
		return s.Finish(ctx, input, false, iss, opt)
	}
	if !changed && !coerced {
		return s.Finish(ctx, input, false, nil, opt)
	}
	res := make(map[any]any, len(out))
	for _, e := range out {
		res[e.key] = e.value
	}
	return s.Finish(ctx, res, true, nil, opt)
}

func (s *MapShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *MapShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *MapShape) Async() bool { return s.AsyncOf(s) }

func (s *MapShape) Inputs() []goshape.Kind {
	if s.coerce {
		return []goshape.Kind{goshape.KindMap, goshape.KindObject, goshape.KindOther}
	}
	return []goshape.Kind{goshape.KindMap}
}

func (s *MapShape) Children() []goshape.Shape { return nonNil(s.key, s.value) }

// Entries returns the key and value shapes. Either may be nil.
func (s *MapShape) Entries() (key, value goshape.Shape) { return s.key, s.value }

func (s *MapShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

type entry struct {
	orig, key, value any
}

// evalEntries validates keys and values in key order. Key and value issues
// are both reported under the original key.
func evalEntries(ctx context.Context, keyShape, valueShape goshape.Shape, keys []any, get func(any) any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) ([]entry, goshape.Issues, bool, error) {
	entries := make([]entry, len(keys))
	jobs := make([]job, 0, 2*len(keys))
	// slot maps a job back to its entry; negative slots are key jobs
	slots := make([]int, 0, cap(jobs))
	for i, k := range keys {
		entries[i] = entry{orig: k, key: k, value: get(k)}
		if keyShape != nil {
			jobs = append(jobs, job{shape: keyShape, input: k})
			slots = append(slots, -i-1)
		}
		jobs = append(jobs, job{shape: valueShape, input: entries[i].value})
		slots = append(slots, i)
	}
	var (
		iss     goshape.Issues
		changed bool
	)
	err := runJobs(ctx, jobs, opt, nonce, async, func(j int, r goshape.Result) bool {
		i, isKey := slots[j], false
		if i < 0 {
			i, isKey = -i-1, true
		}
		e := &entries[i]
		if !r.OK() {
			iss = append(iss, r.Issues.Prefixed(e.orig)...)
			return !opt.EarlyReturn
		}
		if r.Changed() {
			changed = true
			if isKey {
				e.key = r.Value
			} else {
				e.value = r.Value
			}
		}
		return true
	})
	return entries, iss, changed, err
}

func toAnyKeys(keys []string) []any {
	out := make([]any, len(keys))
	for i, k := range keys {
		out[i] = k
	}
	return out
}

func nonNil(shapes ...goshape.Shape) []goshape.Shape {
	out := make([]goshape.Shape, 0, len(shapes))
	for _, s := range shapes {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

// SetShape validates []any values as sets: every element is validated and
// structurally equal duplicates are removed.
type SetShape struct {
	goshape.Base
	value goshape.Shape
}

// Set returns a set shape whose elements are validated by value.
func Set(value goshape.Shape) *SetShape {
	return &SetShape{Base: goshape.NewBase(nil), value: value}
}

func (s *SetShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	arr, ok := input.([]any)
	if !ok {
		return s.Finish(ctx, input, false, invalidType(input, "array"), opt)
	}
	jobs := make([]job, len(arr))
	for i, v := range arr {
		jobs[i] = job{shape: s.value, input: v}
	}
	var (
		iss     goshape.Issues
		vals    = slices.Clone(arr)
		changed bool
	)
	err := runJobs(ctx, jobs, opt, nonce, async, func(i int, r goshape.Result) bool {
		if !r.OK() {
			iss = append(iss, r.Issues.Prefixed(i)...)
			return !opt.EarlyReturn
		}
		if r.Changed() {
			vals[i], changed = r.Value, true
		}
		return true
	})
	if err != nil {
		return goshape.Result{}, err
	}
	if len(iss) > 0 {
		return s.Finish(ctx, input, false, iss, opt)
	}
	uniq := make([]any, 0, len(vals))
	for _, v := range vals {
		if !slices.ContainsFunc(uniq, func(u any) bool { return eng.Equal(u, v) }) {
			uniq = append(uniq, v)
		}
	}
	if !changed && len(uniq) == len(arr) {
		return s.Finish(ctx, input, false, nil, opt)
	}
	return s.Finish(ctx, uniq, true, nil, opt)
}

func (s *SetShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *SetShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *SetShape) Async() bool               { return s.AsyncOf(s) }
func (s *SetShape) Inputs() []goshape.Kind    { return []goshape.Kind{goshape.KindArray} }
func (s *SetShape) Children() []goshape.Shape { return []goshape.Shape{s.value} }

func (s *SetShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}
