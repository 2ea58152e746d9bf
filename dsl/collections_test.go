package dsl_test

import (
	"context"
	"reflect"
	"strings"
	"testing"

	goshape "github.com/reoring/goshape"
	g "github.com/reoring/goshape/dsl"
)

func TestRecord(t *testing.T) {
	ctx := context.Background()
	s := g.Record(g.String().Pattern("^[a-z]+$"), g.Number())
	_, err := goshape.Parse(ctx, s, map[string]any{"ok": 1.0, "Bad": 2.0, "zz": "x"})
	iss, _ := goshape.AsIssues(err)
	if len(iss) != 2 || iss[0].Pointer() != "/Bad" || iss[0].Code != goshape.CodePattern || iss[1].Pointer() != "/zz" {
		t.Fatalf("unexpected issues: %v", iss)
	}

	upper := g.Transform(g.String(), func(_ context.Context, v any, _ goshape.ParseOpt) (any, error) {
		return strings.ToUpper(v.(string)), nil
	})
	v, err := goshape.Parse(ctx, g.Record(upper, g.Any()), map[string]any{"a": 1, "b": 2})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(v, map[string]any{"A": 1, "B": 2}) {
		t.Fatalf("replaced keys must rebuild the map: %#v", v)
	}
}

func TestMap(t *testing.T) {
	ctx := context.Background()
	s := g.Map(g.Number(), g.String())
	_, err := goshape.Parse(ctx, s, map[any]any{1.0: "a", "k": "b", 2.0: 3.0})
	iss, _ := goshape.AsIssues(err)
	if len(iss) != 2 {
		t.Fatalf("unexpected issues: %v", iss)
	}
	if !reflect.DeepEqual(iss[0].Path, []any{2.0}) || !reflect.DeepEqual(iss[1].Path, []any{"k"}) {
		t.Fatalf("paths must use original keys in sorted order: %v %v", iss[0].Path, iss[1].Path)
	}

	if goshape.Is(ctx, g.Map(nil, g.Any()), map[string]any{"a": 1}) {
		t.Fatalf("map[string]any requires coercion")
	}
	v, err := goshape.Parse(ctx, g.Map(nil, g.Any()).Coerce(), map[string]any{"a": 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(v, map[any]any{"a": 1}) {
		t.Fatalf("got %#v", v)
	}
}

func TestSet(t *testing.T) {
	ctx := context.Background()
	s := g.Set(g.Number().Coerce())
	v, err := goshape.Parse(ctx, s, []any{1.0, "1", 2.0, 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !reflect.DeepEqual(v, []any{1.0, 2.0}) {
		t.Fatalf("duplicates must be removed structurally: %#v", v)
	}
	r, err := s.Apply(ctx, []any{1.0, 2.0}, goshape.ParseOpt{}, goshape.NextNonce())
	if err != nil || r.Changed() {
		t.Fatalf("unique valid set must be unchanged: %+v %v", r, err)
	}
	_, err = goshape.Parse(ctx, s, []any{1.0, "x"})
	iss, _ := goshape.AsIssues(err)
	if len(iss) != 1 || iss[0].Pointer() != "/1" {
		t.Fatalf("unexpected issues: %v", iss)
	}
}
