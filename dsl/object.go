package dsl

import (
	"context"
	"maps"
	"slices"
	"sort"

	goshape "github.com/reoring/goshape"
)

// KeyMode controls how an object treats keys it does not declare.
type KeyMode uint8

const (
	// KeysPreserve copies undeclared keys to the output unchanged.
	KeysPreserve KeyMode = iota
	// KeysStrip drops undeclared keys from the output.
	KeysStrip
	// KeysExact reports undeclared keys as one unknown_keys issue.
	KeysExact
)

// Prop is a declared object property.
type Prop struct {
	Key   string
	Shape goshape.Shape
}

// Props is an ordered property list. Validation follows its order.
type Props []Prop

// Fields builds Props from a map, ordered by key.
func Fields(m map[string]goshape.Shape) Props {
	keys := slices.Sorted(maps.Keys(m))
	out := make(Props, 0, len(keys))
	for _, k := range keys {
		out = append(out, Prop{Key: k, Shape: m[k]})
	}
	return out
}

// ObjectShape validates map[string]any values property by property.
type ObjectShape struct {
	goshape.Base
	props Props
	index map[string]int
	rest  goshape.Shape
	mode  KeyMode
}

// Object returns an object shape. A key declared twice keeps its first
// position and its last shape.
func Object(props Props) *ObjectShape {
	s := &ObjectShape{Base: goshape.NewBase(nil)}
	s.setProps(props)
	return s
}

func (s *ObjectShape) setProps(props Props) {
	s.props = make(Props, 0, len(props))
	s.index = make(map[string]int, len(props))
	for _, p := range props {
		if i, ok := s.index[p.Key]; ok {
			s.props[i].Shape = p.Shape
			continue
		}
		s.index[p.Key] = len(s.props)
		s.props = append(s.props, p)
	}
}

func (s *ObjectShape) clone() *ObjectShape {
	c := *s
	c.Base = s.Fork()
	return &c
}

// Shapes returns a copy of the declared properties.
func (s *ObjectShape) Shapes() Props { return slices.Clone(s.props) }

// KeysMode returns the undeclared key policy.
func (s *ObjectShape) KeysMode() KeyMode { return s.mode }

// RestShape returns the shape applied to undeclared keys, or nil.
func (s *ObjectShape) RestShape() goshape.Shape { return s.rest }

// Rest validates undeclared keys with r. It takes precedence over the key
// mode.
func (s *ObjectShape) Rest(r goshape.Shape) *ObjectShape {
	c := s.clone()
	c.rest = r
	return c
}

// Preserve copies undeclared keys through.
func (s *ObjectShape) Preserve() *ObjectShape { return s.withMode(KeysPreserve) }

// Strip drops undeclared keys.
func (s *ObjectShape) Strip() *ObjectShape { return s.withMode(KeysStrip) }

// Exact rejects undeclared keys.
func (s *ObjectShape) Exact() *ObjectShape { return s.withMode(KeysExact) }

func (s *ObjectShape) withMode(m KeyMode) *ObjectShape {
	c := s.clone()
	c.mode = m
	return c
}

// Extend adds props; existing keys are overridden in place.
func (s *ObjectShape) Extend(props Props) *ObjectShape {
	c := s.clone()
	c.setProps(append(slices.Clone(s.props), props...))
	return c
}

// Pick keeps only the listed keys.
func (s *ObjectShape) Pick(keys ...string) *ObjectShape {
	return s.filter(func(k string) bool { return slices.Contains(keys, k) })
}

// Omit drops the listed keys.
func (s *ObjectShape) Omit(keys ...string) *ObjectShape {
	return s.filter(func(k string) bool { return !slices.Contains(keys, k) })
}

func (s *ObjectShape) filter(keep func(string) bool) *ObjectShape {
	var props Props
	for _, p := range s.props {
		if keep(p.Key) {
			props = append(props, p)
		}
	}
	c := s.clone()
	c.setProps(props)
	return c
}

// Partial makes every property optional.
func (s *ObjectShape) Partial() *ObjectShape {
	return s.mapProps(func(sh goshape.Shape) goshape.Shape {
		if isOptional(sh) {
			return sh
		}
		return Optional(sh)
	})
}

// Required removes the optional wrapper of every property.
func (s *ObjectShape) Required() *ObjectShape {
	return s.mapProps(func(sh goshape.Shape) goshape.Shape {
		for isOptional(sh) {
			sh = sh.(*ReplaceShape).base
		}
		return sh
	})
}

func (s *ObjectShape) mapProps(fn func(goshape.Shape) goshape.Shape) *ObjectShape {
	props := make(Props, len(s.props))
	for i, p := range s.props {
		props[i] = Prop{Key: p.Key, Shape: fn(p.Shape)}
	}
	c := s.clone()
	c.setProps(props)
	return c
}

func isOptional(sh goshape.Shape) bool {
	r, ok := sh.(*ReplaceShape)
	return ok && goshape.IsUndefined(r.in)
}

func (s *ObjectShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	m, ok := input.(map[string]any)
	if !ok {
		return s.Finish(ctx, input, false, invalidType(input, "object"), opt)
	}

	var extra []string
	for k := range m {
		if _, ok := s.index[k]; !ok {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	var iss goshape.Issues
	if s.mode == KeysExact && s.rest == nil && len(extra) > 0 {
		iss = goshape.Issues{goshape.NewIssue(goshape.CodeUnknownKeys, input, extra)}
		if opt.EarlyReturn {
			return s.Finish(ctx, input, false, iss, opt)
		}
	}

	jobs := make([]job, 0, len(s.props)+len(extra))
	keys := make([]string, 0, cap(jobs))
	for _, p := range s.props {
		v, ok := m[p.Key]
		if !ok {
			v = goshape.Undefined
		}
		jobs = append(jobs, job{shape: p.Shape, input: v})
		keys = append(keys, p.Key)
	}
	if s.rest != nil {
		for _, k := range extra {
			jobs = append(jobs, job{shape: s.rest, input: m[k]})
			keys = append(keys, k)
		}
	}

	var out map[string]any
	write := func(k string, v any) {
		if out == nil {
			out = maps.Clone(m)
		}
		if goshape.IsUndefined(v) {
			delete(out, k)
			return
		}
		out[k] = v
	}
	err := runJobs(ctx, jobs, opt, nonce, async, func(i int, r goshape.Result) bool {
		if !r.OK() {
			iss = append(iss, r.Issues.Prefixed(keys[i])...)
			return !opt.EarlyReturn
		}
		if r.Changed() {
			write(keys[i], r.Value)
		}
		return true
	})
	if err != nil {
		return goshape.Result{}, err
	}
	if len(iss) > 0 {
		return s.Finish(ctx, input, false, iss, opt)
	}

	if s.rest == nil && s.mode == KeysStrip && len(extra) > 0 {
		if out == nil {
			out = maps.Clone(m)
		}
		for _, k := range extra {
			delete(out, k)
		}
	}
	if out == nil {
		return s.Finish(ctx, input, false, nil, opt)
	}
	return s.Finish(ctx, out, true, nil, opt)
}

func (s *ObjectShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *ObjectShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *ObjectShape) Async() bool            { return s.AsyncOf(s) }
func (s *ObjectShape) Inputs() []goshape.Kind { return []goshape.Kind{goshape.KindObject} }

func (s *ObjectShape) Children() []goshape.Shape {
	out := make([]goshape.Shape, 0, len(s.props)+1)
	for _, p := range s.props {
		out = append(out, p.Shape)
	}
	if s.rest != nil {
		out = append(out, s.rest)
	}
	return out
}

func (s *ObjectShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := *s
	c.Base = s.Rebase(ops)
	return &c
}
