package jsonschema

import (
	"errors"
	"fmt"
	"math"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/dsl"
	"github.com/reoring/goshape/source"
)

// ErrNotExportable is returned by Export for shapes without a JSON Schema
// counterpart.
var ErrNotExportable = errors.New("jsonschema: shape cannot be exported")

// Schema is the JSON Schema document produced by Export.
// Only keywords the built-in shapes can express are modeled.
type Schema struct {
	// Core
	Ref     string  `json:"$ref,omitempty"`
	Type    any     `json:"type,omitempty"` // string or []string
	Format  string  `json:"format,omitempty"`
	Default any     `json:"default,omitempty"`
	Const   *any    `json:"const,omitempty"`
	Enum    []any   `json:"enum,omitempty"`
	Not     *Schema `json:"not,omitempty"`

	// String
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Number
	Minimum          *float64 `json:"minimum,omitempty"`
	Maximum          *float64 `json:"maximum,omitempty"`
	ExclusiveMinimum *float64 `json:"exclusiveMinimum,omitempty"`
	ExclusiveMaximum *float64 `json:"exclusiveMaximum,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"` // bool or *Schema
	PropertyNames        *Schema            `json:"propertyNames,omitempty"`

	// Array
	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	Items       any       `json:"items,omitempty"` // bool or *Schema
	MinItems    *int      `json:"minItems,omitempty"`
	MaxItems    *int      `json:"maxItems,omitempty"`
	UniqueItems bool      `json:"uniqueItems,omitempty"`

	// Composition
	AnyOf []*Schema `json:"anyOf,omitempty"`
	AllOf []*Schema `json:"allOf,omitempty"`

	Defs map[string]*Schema `json:"$defs,omitempty"`
}

// MarshalIndent renders the schema as indented JSON.
func (s *Schema) MarshalIndent() ([]byte, error) { return source.Marshal(s, "  ") }

// Export describes s as a JSON Schema. Recursive lazy shapes become $defs
// entries referenced by $ref. Custom checks and converters are not exported.
func Export(s goshape.Shape) (*Schema, error) {
	e := &exporter{names: map[*dsl.LazyShape]string{}, defs: map[string]*Schema{}}
	out, err := e.export(s)
	if err != nil {
		return nil, err
	}
	if len(e.defs) > 0 {
		out.Defs = e.defs
	}
	return out, nil
}

type exporter struct {
	names map[*dsl.LazyShape]string
	defs  map[string]*Schema
}

func (e *exporter) export(s goshape.Shape) (*Schema, error) {
	switch t := s.(type) {
	case *dsl.AnyShape:
		return &Schema{}, nil
	case *dsl.NeverShape:
		return &Schema{Not: &Schema{}}, nil
	case *dsl.StringShape:
		return withOps(&Schema{Type: "string"}, t.Operations()), nil
	case *dsl.NumberShape:
		typ := "number"
		if t.Integer() {
			typ = "integer"
		}
		return withOps(&Schema{Type: typ}, t.Operations()), nil
	case *dsl.BoolShape:
		return &Schema{Type: "boolean"}, nil
	case *dsl.TimeShape:
		return &Schema{Type: "string", Format: "date-time"}, nil
	case *dsl.EnumShape:
		vals := t.Values()
		if len(vals) == 1 {
			v := vals[0]
			return &Schema{Const: &v}, nil
		}
		return &Schema{Enum: vals}, nil
	case *dsl.ReplaceShape:
		return e.replace(t)
	case *dsl.ObjectShape:
		return e.object(t)
	case *dsl.ArrayShape:
		return e.array(t)
	case *dsl.SetShape:
		items, err := e.export(t.Children()[0])
		if err != nil {
			return nil, err
		}
		return &Schema{Type: "array", Items: items, UniqueItems: true}, nil
	case *dsl.RecordShape:
		return e.entries(t.Entries())
	case *dsl.MapShape:
		return e.entries(t.Entries())
	case *dsl.UnionShape:
		members, err := e.all(t.Children())
		if err != nil {
			return nil, err
		}
		return &Schema{AnyOf: members}, nil
	case *dsl.IntersectionShape:
		members, err := e.all(t.Children())
		if err != nil {
			return nil, err
		}
		return &Schema{AllOf: members}, nil
	case *dsl.DenyShape:
		base, err := e.export(t.Children()[0])
		if err != nil {
			return nil, err
		}
		v := t.Denied()
		return &Schema{AllOf: []*Schema{base, {Not: &Schema{Const: &v}}}}, nil
	case *dsl.ExcludeShape:
		parts, err := e.all(t.Children())
		if err != nil {
			return nil, err
		}
		return &Schema{AllOf: []*Schema{parts[0], {Not: parts[1]}}}, nil
	case *dsl.PipeShape, *dsl.CatchShape:
		// the input side decides what documents are accepted
		return e.export(t.(goshape.Parent).Children()[0])
	case *dsl.LazyShape:
		return e.lazy(t)
	case nil:
		return nil, fmt.Errorf("%w: nil shape", ErrNotExportable)
	default:
		return nil, fmt.Errorf("%w: %T", ErrNotExportable, s)
	}
}

func (e *exporter) all(shapes []goshape.Shape) ([]*Schema, error) {
	out := make([]*Schema, len(shapes))
	for i, s := range shapes {
		sc, err := e.export(s)
		if err != nil {
			return nil, err
		}
		out[i] = sc
	}
	return out, nil
}

func (e *exporter) replace(t *dsl.ReplaceShape) (*Schema, error) {
	base, err := e.export(t.Unwrap())
	if err != nil {
		return nil, err
	}
	in, out := t.Replaces()
	if !goshape.IsUndefined(out) && out != nil && base.Default == nil {
		base.Default = out
	}
	switch {
	case goshape.IsUndefined(in):
		// absence is expressed by the enclosing object's required list
		return base, nil
	case in == nil:
		if typ, ok := base.Type.(string); ok {
			base.Type = []string{typ, "null"}
			return base, nil
		}
		return &Schema{AnyOf: []*Schema{base, {Type: "null"}}}, nil
	default:
		return &Schema{AnyOf: []*Schema{base, {Const: &in}}}, nil
	}
}

func (e *exporter) object(t *dsl.ObjectShape) (*Schema, error) {
	sc := &Schema{Type: "object", Properties: map[string]*Schema{}}
	for _, p := range t.Shapes() {
		ps, err := e.export(p.Shape)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", p.Key, err)
		}
		sc.Properties[p.Key] = ps
		if !acceptsAbsent(p.Shape) {
			sc.Required = append(sc.Required, p.Key)
		}
	}
	switch {
	case t.RestShape() != nil:
		rest, err := e.export(t.RestShape())
		if err != nil {
			return nil, err
		}
		sc.AdditionalProperties = rest
	case t.KeysMode() == dsl.KeysExact:
		sc.AdditionalProperties = false
	}
	return sc, nil
}

func acceptsAbsent(s goshape.Shape) bool {
	for {
		r, ok := s.(*dsl.ReplaceShape)
		if !ok {
			return false
		}
		if in, _ := r.Replaces(); goshape.IsUndefined(in) {
			return true
		}
		s = r.Unwrap()
	}
}

func (e *exporter) array(t *dsl.ArrayShape) (*Schema, error) {
	sc := withOps(&Schema{Type: "array"}, t.Operations())
	heads, err := e.all(t.Heads())
	if err != nil {
		return nil, err
	}
	if len(heads) > 0 {
		sc.PrefixItems = heads
		n := len(heads)
		if sc.MinItems == nil || *sc.MinItems < n {
			sc.MinItems = &n
		}
	}
	switch rest := t.RestShape(); {
	case rest != nil:
		items, err := e.export(rest)
		if err != nil {
			return nil, err
		}
		sc.Items = items
	case len(heads) > 0:
		sc.Items = false
	}
	return sc, nil
}

func (e *exporter) entries(key, value goshape.Shape) (*Schema, error) {
	sc := &Schema{Type: "object"}
	if key != nil {
		ks, err := e.export(key)
		if err != nil {
			return nil, err
		}
		sc.PropertyNames = ks
	}
	if value != nil {
		vs, err := e.export(value)
		if err != nil {
			return nil, err
		}
		sc.AdditionalProperties = vs
	}
	return sc, nil
}

func (e *exporter) lazy(t *dsl.LazyShape) (*Schema, error) {
	if name, ok := e.names[t]; ok {
		return &Schema{Ref: "#/$defs/" + name}, nil
	}
	name := fmt.Sprintf("shape%d", len(e.names)+1)
	e.names[t] = name
	target, err := t.Shape()
	if err != nil {
		return nil, err
	}
	sc, err := e.export(target)
	if err != nil {
		return nil, err
	}
	e.defs[name] = sc
	return &Schema{Ref: "#/$defs/" + name}, nil
}

func withOps(sc *Schema, ops []goshape.Operation) *Schema {
	for _, op := range ops {
		switch op.Type {
		case "string.min":
			sc.MinLength = intParam(op.Param)
		case "string.max":
			sc.MaxLength = intParam(op.Param)
		case "string.pattern":
			sc.Pattern, _ = op.Param.(string)
		case "array.min":
			sc.MinItems = intParam(op.Param)
		case "array.max":
			sc.MaxItems = intParam(op.Param)
		case "number.gte":
			sc.Minimum = floatParam(op.Param)
		case "number.gt":
			sc.ExclusiveMinimum = floatParam(op.Param)
		case "number.lte":
			sc.Maximum = floatParam(op.Param)
		case "number.lt":
			sc.ExclusiveMaximum = floatParam(op.Param)
		}
	}
	return sc
}

func intParam(p any) *int {
	n, ok := p.(int)
	if !ok {
		return nil
	}
	return &n
}

func floatParam(p any) *float64 {
	f, ok := p.(float64)
	if !ok || math.IsNaN(f) {
		return nil
	}
	return &f
}
