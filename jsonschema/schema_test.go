package jsonschema_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	goshape "github.com/reoring/goshape"
	g "github.com/reoring/goshape/dsl"
	"github.com/reoring/goshape/jsonschema"
)

func TestExport_Object(t *testing.T) {
	s := g.Object(g.Props{
		{Key: "name", Shape: g.String().Min(1).Pattern("^[a-z]+$")},
		{Key: "age", Shape: g.Optional(g.Int().Gte(0).Lt(200))},
		{Key: "nick", Shape: g.Nullable(g.String())},
		{Key: "kind", Shape: g.Optional(g.Enum("a", "b"), "a")},
		{Key: "at", Shape: g.Time()},
	}).Exact()

	sc, err := jsonschema.Export(s)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if sc.Type != "object" || sc.AdditionalProperties != false {
		t.Fatalf("object: %+v", sc)
	}
	if strings.Join(sc.Required, ",") != "name,nick,at" {
		t.Fatalf("required=%v", sc.Required)
	}
	name := sc.Properties["name"]
	if *name.MinLength != 1 || name.Pattern != "^[a-z]+$" {
		t.Fatalf("name: %+v", name)
	}
	age := sc.Properties["age"]
	if age.Type != "integer" || *age.Minimum != 0 || *age.ExclusiveMaximum != 200 {
		t.Fatalf("age: %+v", age)
	}
	if typ, ok := sc.Properties["nick"].Type.([]string); !ok || typ[1] != "null" {
		t.Fatalf("nick: %+v", sc.Properties["nick"])
	}
	if k := sc.Properties["kind"]; k.Default != "a" || len(k.Enum) != 2 {
		t.Fatalf("kind: %+v", k)
	}
	if at := sc.Properties["at"]; at.Format != "date-time" {
		t.Fatalf("at: %+v", at)
	}
}

func TestExport_RecursiveRoundTrip(t *testing.T) {
	var tree *g.LazyShape
	tree = g.Lazy(func() goshape.Shape {
		return g.Object(g.Props{
			{Key: "name", Shape: g.String()},
			{Key: "children", Shape: g.Optional(g.Array(tree).Max(3))},
		})
	})
	sc, err := jsonschema.Export(tree)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if sc.Ref != "#/$defs/shape1" || len(sc.Defs) != 1 {
		t.Fatalf("root: %+v", sc)
	}
	doc, err := sc.MarshalIndent()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	back, err := jsonschema.CompileJSON(doc)
	if err != nil {
		t.Fatalf("compile exported schema: %v\n%s", err, doc)
	}
	ctx := context.Background()
	good := map[string]any{"name": "r", "children": []any{map[string]any{"name": "c"}}}
	bad := map[string]any{"name": "r", "children": []any{map[string]any{"name": 1.0}}}
	for _, s := range []goshape.Shape{tree, back} {
		if !goshape.Is(ctx, s, good) || goshape.Is(ctx, s, bad) {
			t.Fatalf("round trip changed the accepted documents:\n%s", doc)
		}
	}
}

func TestExport_Composites(t *testing.T) {
	sc, err := jsonschema.Export(g.Union(g.Tuple(g.String(), g.Number()), g.Set(g.Bool()), g.Record(g.String(), g.Const(nil))))
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(sc.AnyOf) != 3 {
		t.Fatalf("anyOf: %+v", sc)
	}
	tuple := sc.AnyOf[0]
	if len(tuple.PrefixItems) != 2 || tuple.Items != false || *tuple.MinItems != 2 {
		t.Fatalf("tuple: %+v", tuple)
	}
	if !sc.AnyOf[1].UniqueItems {
		t.Fatalf("set: %+v", sc.AnyOf[1])
	}
	if rec := sc.AnyOf[2]; rec.PropertyNames == nil || rec.AdditionalProperties == nil {
		t.Fatalf("record: %+v", rec)
	}
}

type opaque struct{ goshape.Shape }

func TestExport_Unsupported(t *testing.T) {
	if _, err := jsonschema.Export(opaque{g.String()}); !errors.Is(err, jsonschema.ErrNotExportable) {
		t.Fatalf("expected ErrNotExportable, got %v", err)
	}
	_, err := jsonschema.Export(g.Object(g.Props{{Key: "a", Shape: opaque{g.String()}}}))
	if !errors.Is(err, jsonschema.ErrNotExportable) || !strings.Contains(err.Error(), `"a"`) {
		t.Fatalf("property errors must name the property: %v", err)
	}
}
