package dsl

import (
	"context"
	"maps"
	"slices"
	"time"

	goshape "github.com/reoring/goshape"
	eng "github.com/reoring/goshape/internal/engine"
)

// UnionParam is the Param of an invalid_union issue: the issues of every
// member, in member order.
type UnionParam struct {
	IssueGroups []goshape.Issues
}

// UnionShape accepts values accepted by any of its members.
type UnionShape struct {
	goshape.Base
	members []goshape.Shape
}

// Union returns a shape trying members in order; the first member without
// issues decides the output.
func Union(members ...goshape.Shape) *UnionShape {
	return &UnionShape{Base: goshape.NewBase(nil), members: slices.Clone(members)}
}

func (s *UnionShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	groups := make([]goshape.Issues, 0, len(s.members))
	for _, m := range s.members {
		r, err := child(ctx, m, input, opt, nonce, async)
		if err != nil {
			return goshape.Result{}, err
		}
		if r.OK() {
			return s.Finish(ctx, r.Output(input), r.Changed(), nil, opt)
		}
		groups = append(groups, r.Issues)
	}
	iss := goshape.Issues{goshape.NewIssue(goshape.CodeInvalidUnion, input, UnionParam{IssueGroups: groups})}
	return s.Finish(ctx, input, false, iss, opt)
}

func (s *UnionShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *UnionShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *UnionShape) Async() bool { return s.AsyncOf(s) }

func (s *UnionShape) Inputs() []goshape.Kind {
	lists := make([][]goshape.Kind, len(s.members))
	for i, m := range s.members {
		lists[i] = m.Inputs()
	}
	return goshape.KindsOf(lists...)
}

func (s *UnionShape) Children() []goshape.Shape { return slices.Clone(s.members) }

func (s *UnionShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}

// IntersectionShape requires every member to accept the value and merges
// their outputs.
type IntersectionShape struct {
	goshape.Base
	members []goshape.Shape
}

// Intersection returns a shape applying all members to the same input.
func Intersection(members ...goshape.Shape) *IntersectionShape {
	return &IntersectionShape{Base: goshape.NewBase(nil), members: slices.Clone(members)}
}

func (s *IntersectionShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	jobs := make([]job, len(s.members))
	for i, m := range s.members {
		jobs[i] = job{shape: m, input: input}
	}
	var (
		iss     goshape.Issues
		outs    = make([]any, 0, len(s.members))
		changed bool
	)
	err := runJobs(ctx, jobs, opt, nonce, async, func(_ int, r goshape.Result) bool {
		if !r.OK() {
			iss = append(iss, r.Issues...)
			return !opt.EarlyReturn
		}
		changed = changed || r.Changed()
		outs = append(outs, r.Output(input))
		return true
	})
	if err != nil {
		return goshape.Result{}, err
	}
	if len(iss) > 0 {
		return s.Finish(ctx, input, false, iss, opt)
	}
	if !changed {
		return s.Finish(ctx, input, false, nil, opt)
	}
	merged := outs[0]
	for _, o := range outs[1:] {
		var ok bool
		if merged, ok = mergeValues(merged, o); !ok {
			iss := goshape.Issues{goshape.NewIssue(goshape.CodeInvalidIntersection, input, nil)}
			return s.Finish(ctx, input, false, iss, opt)
		}
	}
	return s.Finish(ctx, merged, true, nil, opt)
}

// mergeValues combines two member outputs. Equal values merge to a; maps merge
// key-wise; arrays of equal length merge element-wise. A pair of containers
// met again below itself merges to the output already under construction.
func mergeValues(a, b any) (any, bool) { return merge(a, b, nil) }

func merge(a, b any, seen map[eng.Pair]any) (any, bool) {
	if eng.Equal(a, b) {
		return a, true
	}
	p, tracked := eng.PairOf(a, b)
	if tracked {
		if out, ok := seen[p]; ok {
			return out, true
		}
		if seen == nil {
			seen = map[eng.Pair]any{}
		}
	}
	switch x := a.(type) {
	case map[string]any:
		y, ok := b.(map[string]any)
		if !ok {
			return nil, false
		}
		out := maps.Clone(x)
		if tracked {
			seen[p] = out
		}
		for k, vb := range y {
			va, ok := out[k]
			if !ok {
				out[k] = vb
				continue
			}
			v, ok := merge(va, vb, seen)
			if !ok {
				return nil, false
			}
			out[k] = v
		}
		return out, true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return nil, false
		}
		out := make([]any, len(x))
		if tracked {
			seen[p] = out
		}
		for i := range x {
			v, ok := merge(x[i], y[i], seen)
			if !ok {
				return nil, false
			}
			out[i] = v
		}
		return out, true
	case time.Time:
		// equal instants were handled above
		return nil, false
	}
	return nil, false
}

func (s *IntersectionShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *IntersectionShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *IntersectionShape) Async() bool { return s.AsyncOf(s) }

// Inputs returns the kinds every member accepts.
func (s *IntersectionShape) Inputs() []goshape.Kind {
	var acc []goshape.Kind
	for i, m := range s.members {
		in := m.Inputs()
		if i == 0 {
			acc = in
			continue
		}
		acc = intersectKinds(acc, in)
	}
	if acc == nil {
		return []goshape.Kind{goshape.KindAny}
	}
	return acc
}

func intersectKinds(a, b []goshape.Kind) []goshape.Kind {
	if slices.Contains(a, goshape.KindAny) {
		return b
	}
	if slices.Contains(b, goshape.KindAny) {
		return a
	}
	out := []goshape.Kind{}
	for _, k := range a {
		if slices.Contains(b, k) {
			out = append(out, k)
		}
	}
	return out
}

func (s *IntersectionShape) Children() []goshape.Shape { return slices.Clone(s.members) }

func (s *IntersectionShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}
