// Package jsonschema converts between JSON Schema documents and shapes.
//
// Compile builds a shape from a schema document (draft 2020-12 keywords, plus
// the draft-07 "definitions" location); Export describes a shape as a
// schema document.
package jsonschema

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/dsl"
	eng "github.com/reoring/goshape/internal/engine"
	"github.com/reoring/goshape/source"
)

// ErrInvalidSchema wraps every error reported by Compile.
var ErrInvalidSchema = errors.New("jsonschema: invalid schema")

// CompileJSON decodes a JSON schema document and compiles it.
func CompileJSON(data []byte) (goshape.Shape, error) {
	doc, err := source.JSON(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return Compile(doc)
}

// CompileYAML decodes the first document of a YAML stream and compiles it.
func CompileYAML(data []byte) (goshape.Shape, error) {
	doc, err := source.YAML(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSchema, err)
	}
	return Compile(doc)
}

// Options tunes Compile.
type Options struct {
	// Unknown is the key mode of objects that do not set
	// additionalProperties. The zero value keeps unknown keys.
	Unknown dsl.KeyMode
}

// Compile builds a shape from a decoded schema document: a map[string]any or
// a bool. Local $ref pointers become lazy shapes, so recursive schemas are
// supported. Unknown keywords are ignored.
func Compile(doc any) (goshape.Shape, error) { return CompileWith(doc, Options{}) }

// CompileWith is Compile with options.
func CompileWith(doc any, opts Options) (goshape.Shape, error) {
	c := &compiler{root: doc, refs: map[string]*dsl.LazyShape{}, opts: opts}
	s, err := c.compile(doc, "#")
	if err != nil {
		return nil, err
	}
	return s, nil
}

type compiler struct {
	root any
	refs map[string]*dsl.LazyShape
	opts Options
}

func (c *compiler) fail(at, format string, args ...any) error {
	return fmt.Errorf("%w at %s: %s", ErrInvalidSchema, at, fmt.Sprintf(format, args...))
}

func (c *compiler) compile(node any, at string) (goshape.Shape, error) {
	switch n := node.(type) {
	case bool:
		if n {
			return dsl.Any(), nil
		}
		return dsl.Never(), nil
	case map[string]any:
		return c.schema(n, at)
	default:
		return nil, c.fail(at, "schema must be an object or a boolean, got %T", node)
	}
}

func (c *compiler) schema(n map[string]any, at string) (goshape.Shape, error) {
	if ref, ok := n["$ref"]; ok {
		s, ok := ref.(string)
		if !ok {
			return nil, c.fail(at, "$ref must be a string")
		}
		return c.ref(s, at)
	}

	var parts []goshape.Shape
	typed, err := c.typed(n, at)
	if err != nil {
		return nil, err
	}
	if typed != nil {
		parts = append(parts, typed)
	}
	if v, ok := n["const"]; ok {
		parts = append(parts, dsl.Const(v))
	}
	if v, ok := n["enum"]; ok {
		vals, ok := v.([]any)
		if !ok {
			return nil, c.fail(at, "enum must be an array")
		}
		parts = append(parts, dsl.Enum(vals...))
	}
	for _, kw := range []string{"anyOf", "oneOf"} {
		members, err := c.list(n, kw, at)
		if err != nil {
			return nil, err
		}
		if members != nil {
			parts = append(parts, dsl.Union(members...))
		}
	}
	all, err := c.list(n, "allOf", at)
	if err != nil {
		return nil, err
	}
	parts = append(parts, all...)
	if v, ok := n["not"]; ok {
		not, err := c.compile(v, at+"/not")
		if err != nil {
			return nil, err
		}
		parts = append(parts, dsl.Exclude(dsl.Any(), not))
	}

	var s goshape.Shape
	switch len(parts) {
	case 0:
		s = dsl.Any()
	case 1:
		s = parts[0]
	default:
		s = dsl.Intersection(parts...)
	}
	if def, ok := n["default"]; ok {
		s = dsl.Optional(s, def)
	}
	return s, nil
}

func (c *compiler) list(n map[string]any, kw, at string) ([]goshape.Shape, error) {
	v, ok := n[kw]
	if !ok {
		return nil, nil
	}
	items, ok := v.([]any)
	if !ok || len(items) == 0 {
		return nil, c.fail(at, "%s must be a non-empty array", kw)
	}
	out := make([]goshape.Shape, len(items))
	for i, it := range items {
		s, err := c.compile(it, fmt.Sprintf("%s/%s/%d", at, kw, i))
		if err != nil {
			return nil, err
		}
		out[i] = s
	}
	return out, nil
}

// typed compiles the "type" keyword together with the keywords specific to
// the named types. Without "type" the type is inferred from those keywords.
func (c *compiler) typed(n map[string]any, at string) (goshape.Shape, error) {
	var names []string
	switch t := n["type"].(type) {
	case nil:
		if name := inferType(n); name != "" {
			names = []string{name}
		}
	case string:
		names = []string{t}
	case []any:
		for _, v := range t {
			s, ok := v.(string)
			if !ok {
				return nil, c.fail(at, "type entries must be strings")
			}
			names = append(names, s)
		}
	default:
		return nil, c.fail(at, "type must be a string or an array")
	}
	if len(names) == 0 {
		return nil, nil
	}

	nullable := slices.Contains(names, "null")
	var members []goshape.Shape
	for _, name := range names {
		if name == "null" && len(names) > 1 {
			continue
		}
		s, err := c.typeShape(name, n, at)
		if err != nil {
			return nil, err
		}
		members = append(members, s)
	}
	var s goshape.Shape
	if len(members) == 1 {
		s = members[0]
	} else {
		s = dsl.Union(members...)
	}
	if nullable && len(names) > 1 {
		s = dsl.Nullable(s)
	}
	return s, nil
}

func inferType(n map[string]any) string {
	has := func(kws ...string) bool {
		for _, kw := range kws {
			if _, ok := n[kw]; ok {
				return true
			}
		}
		return false
	}
	switch {
	case has("properties", "required", "additionalProperties", "propertyNames"):
		return "object"
	case has("items", "prefixItems", "minItems", "maxItems", "uniqueItems"):
		return "array"
	case has("minLength", "maxLength", "pattern"):
		return "string"
	case has("minimum", "maximum", "exclusiveMinimum", "exclusiveMaximum"):
		return "number"
	}
	return ""
}

func (c *compiler) typeShape(name string, n map[string]any, at string) (goshape.Shape, error) {
	switch name {
	case "string":
		return c.stringShape(n, at)
	case "number":
		return c.numberShape(dsl.Number(), n, at)
	case "integer":
		return c.numberShape(dsl.Int(), n, at)
	case "boolean":
		return dsl.Bool(), nil
	case "null":
		return dsl.Const(nil), nil
	case "object":
		return c.objectShape(n, at)
	case "array":
		return c.arrayShape(n, at)
	default:
		return nil, c.fail(at, "unknown type %q", name)
	}
}

func (c *compiler) stringShape(n map[string]any, at string) (goshape.Shape, error) {
	s := dsl.String()
	if v, ok, err := c.count(n, "minLength", at); err != nil {
		return nil, err
	} else if ok {
		s = s.Min(v)
	}
	if v, ok, err := c.count(n, "maxLength", at); err != nil {
		return nil, err
	} else if ok {
		s = s.Max(v)
	}
	if v, ok := n["pattern"]; ok {
		expr, ok := v.(string)
		if !ok {
			return nil, c.fail(at, "pattern must be a string")
		}
		if _, err := regexp.Compile(expr); err != nil {
			return nil, c.fail(at, "pattern: %v", err)
		}
		s = s.Pattern(expr)
	}
	if f, _ := n["format"].(string); f == "date-time" {
		return dsl.Pipe(s, dsl.Time().Coerce()), nil
	}
	return s, nil
}

func (c *compiler) numberShape(s *dsl.NumberShape, n map[string]any, at string) (goshape.Shape, error) {
	bounds := []struct {
		kw    string
		apply func(float64) *dsl.NumberShape
	}{
		{"minimum", func(f float64) *dsl.NumberShape { return s.Gte(f) }},
		{"exclusiveMinimum", func(f float64) *dsl.NumberShape { return s.Gt(f) }},
		{"maximum", func(f float64) *dsl.NumberShape { return s.Lte(f) }},
		{"exclusiveMaximum", func(f float64) *dsl.NumberShape { return s.Lt(f) }},
	}
	for _, b := range bounds {
		v, ok := n[b.kw]
		if !ok {
			continue
		}
		f, ok := eng.Float(v)
		if !ok {
			return nil, c.fail(at, "%s must be a number", b.kw)
		}
		s = b.apply(f)
	}
	return s, nil
}

func (c *compiler) objectShape(n map[string]any, at string) (goshape.Shape, error) {
	var required []string
	if v, ok := n["required"]; ok {
		list, ok := v.([]any)
		if !ok {
			return nil, c.fail(at, "required must be an array")
		}
		for _, r := range list {
			s, ok := r.(string)
			if !ok {
				return nil, c.fail(at, "required entries must be strings")
			}
			required = append(required, s)
		}
	}

	fields := map[string]goshape.Shape{}
	if v, ok := n["properties"]; ok {
		props, ok := v.(map[string]any)
		if !ok {
			return nil, c.fail(at, "properties must be an object")
		}
		for k, ps := range props {
			s, err := c.compile(ps, at+"/properties/"+escape(k))
			if err != nil {
				return nil, err
			}
			if !slices.Contains(required, k) && !optional(s) {
				s = dsl.Optional(s)
			}
			fields[k] = s
		}
	}
	for _, k := range required {
		if _, ok := fields[k]; !ok {
			fields[k] = present()
		}
	}
	obj := dsl.Object(dsl.Fields(fields))

	switch ap := n["additionalProperties"].(type) {
	case nil:
		switch c.opts.Unknown {
		case dsl.KeysStrip:
			obj = obj.Strip()
		case dsl.KeysExact:
			obj = obj.Exact()
		}
	case bool:
		if ap {
			obj = obj.Preserve()
		} else {
			obj = obj.Exact()
		}
	default:
		rest, err := c.compile(ap, at+"/additionalProperties")
		if err != nil {
			return nil, err
		}
		obj = obj.Rest(rest)
	}

	if v, ok := n["propertyNames"]; ok {
		names, err := c.compile(v, at+"/propertyNames")
		if err != nil {
			return nil, err
		}
		return dsl.Intersection(obj, dsl.Record(names, dsl.Any())), nil
	}
	return obj, nil
}

// optional reports whether s already handles an absent value, as a
// property with a default does.
func optional(s goshape.Shape) bool {
	r, ok := s.(*dsl.ReplaceShape)
	if !ok {
		return false
	}
	in, _ := r.Replaces()
	return goshape.IsUndefined(in)
}

// present accepts any value but an absent one.
func present() goshape.Shape {
	return goshape.Refine(dsl.Any(), func(v any) bool { return !goshape.IsUndefined(v) },
		goshape.WithCode(goshape.CodeInvalidType), goshape.WithType("required"))
}

func (c *compiler) arrayShape(n map[string]any, at string) (goshape.Shape, error) {
	var heads []goshape.Shape
	if v, ok := n["prefixItems"]; ok {
		list, ok := v.([]any)
		if !ok {
			return nil, c.fail(at, "prefixItems must be an array")
		}
		for i, it := range list {
			s, err := c.compile(it, fmt.Sprintf("%s/prefixItems/%d", at, i))
			if err != nil {
				return nil, err
			}
			heads = append(heads, s)
		}
	}

	var items goshape.Shape = dsl.Any()
	if v, ok := n["items"]; ok {
		if b, ok := v.(bool); ok && !b {
			items = nil
		} else {
			s, err := c.compile(v, at+"/items")
			if err != nil {
				return nil, err
			}
			items = s
		}
	}

	var arr *dsl.ArrayShape
	switch {
	case len(heads) == 0 && items == nil:
		arr = dsl.Tuple()
	case len(heads) == 0:
		arr = dsl.Array(items)
	case items == nil:
		arr = dsl.Tuple(heads...)
	default:
		arr = dsl.Tuple(heads...).Rest(items)
	}
	if v, ok, err := c.count(n, "minItems", at); err != nil {
		return nil, err
	} else if ok {
		arr = arr.Min(v)
	}
	if v, ok, err := c.count(n, "maxItems", at); err != nil {
		return nil, err
	} else if ok {
		arr = arr.Max(v)
	}
	if u, _ := n["uniqueItems"].(bool); u {
		return goshape.Refine(arr, unique, goshape.WithCode(goshape.CodeNotUnique), goshape.WithType("array.unique")), nil
	}
	return arr, nil
}

func unique(v any) bool {
	arr := v.([]any)
	for i := range arr {
		for j := i + 1; j < len(arr); j++ {
			if eng.Equal(arr[i], arr[j]) {
				return false
			}
		}
	}
	return true
}

func (c *compiler) count(n map[string]any, kw, at string) (int, bool, error) {
	v, ok := n[kw]
	if !ok {
		return 0, false, nil
	}
	f, ok := eng.Float(v)
	if !ok || f < 0 || f != float64(int(f)) {
		return 0, false, c.fail(at, "%s must be a non-negative integer", kw)
	}
	return int(f), true, nil
}

// ref resolves a local reference. Each distinct reference compiles once; the
// lazy wrapper lets a schema refer to itself.
func (c *compiler) ref(ref, at string) (goshape.Shape, error) {
	if l, ok := c.refs[ref]; ok {
		return l, nil
	}
	if !strings.HasPrefix(ref, "#") {
		return nil, c.fail(at, "only local references are supported, got %q", ref)
	}
	target, err := c.resolve(ref)
	if err != nil {
		return nil, c.fail(at, "%v", err)
	}
	var compiled goshape.Shape
	l := dsl.Lazy(func() goshape.Shape { return compiled })
	c.refs[ref] = l
	compiled, err = c.compile(target, ref)
	if err != nil {
		return nil, err
	}
	return l, nil
}

func (c *compiler) resolve(ref string) (any, error) {
	node := c.root
	for _, seg := range goshape.ParsePointer(strings.TrimPrefix(ref, "#")) {
		key := seg.(string)
		switch n := node.(type) {
		case map[string]any:
			next, ok := n[key]
			if !ok {
				return nil, fmt.Errorf("unresolved reference %q", ref)
			}
			node = next
		case []any:
			i, err := strconv.Atoi(key)
			if err != nil || i < 0 || i >= len(n) {
				return nil, fmt.Errorf("unresolved reference %q", ref)
			}
			node = n[i]
		default:
			return nil, fmt.Errorf("unresolved reference %q", ref)
		}
	}
	return node, nil
}

func escape(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, "~", "~0"), "/", "~1")
}
