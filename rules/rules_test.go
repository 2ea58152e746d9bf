package rules_test

import (
	"context"
	"testing"

	goshape "github.com/reoring/goshape"
	g "github.com/reoring/goshape/dsl"
	"github.com/reoring/goshape/rules"
)

func orderShape(rs ...rules.Rule) goshape.Shape {
	item := g.Object(g.Props{
		{Key: "sku", Shape: g.String()},
		{Key: "qty", Shape: g.Int().Gte(1)},
	})
	return rules.Attach(g.Object(g.Props{
		{Key: "status", Shape: g.Enum("draft", "paid")},
		{Key: "paidAt", Shape: g.Optional(g.String())},
		{Key: "total", Shape: g.Number()},
		{Key: "items", Shape: g.Array(item)},
	}), rs...)
}

type issue struct{ code, at string }

func run(t *testing.T, s goshape.Shape, in any, opt goshape.ParseOpt) []issue {
	t.Helper()
	out, err := goshape.SafeParse(context.Background(), s, in, opt)
	if err != nil {
		t.Fatalf("fatal: %v", err)
	}
	var got []issue
	for _, it := range out.Issues {
		got = append(got, issue{it.Code, it.Pointer()})
	}
	return got
}

func item(sku string) map[string]any { return map[string]any{"sku": sku, "qty": 1.0} }

func TestAttach(t *testing.T) {
	s := orderShape(
		rules.If("/status", rules.Eq, "paid").Then(rules.Present("/paidAt")),
		rules.AtLeastOne("/items"),
		rules.UniqueBy("/items", "sku"),
	)
	cases := []struct {
		name string
		in   map[string]any
		want []issue
	}{
		{"ok", map[string]any{"status": "draft", "total": 1.0, "items": []any{item("a"), item("b")}}, nil},
		{"paid without date", map[string]any{"status": "paid", "total": 1.0, "items": []any{item("a")}},
			[]issue{{goshape.CodeInvalidType, "/paidAt"}}},
		{"empty", map[string]any{"status": "draft", "total": 1.0, "items": []any{}},
			[]issue{{goshape.CodeTooShort, "/items"}}},
		{"duplicates", map[string]any{"status": "draft", "total": 1.0, "items": []any{item("a"), item("b"), item("a")}},
			[]issue{{goshape.CodeNotUnique, "/items/2/sku"}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := run(t, s, tc.in, goshape.ParseOpt{})
			if len(got) != len(tc.want) {
				t.Fatalf("got %v want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("issue %d: got %v want %v", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestAttach_SkippedAfterShapeIssues(t *testing.T) {
	s := orderShape(rules.AtLeastOne("/items"))
	got := run(t, s, map[string]any{"status": "x", "total": 1.0, "items": []any{}}, goshape.ParseOpt{})
	if len(got) != 1 || got[0].code != goshape.CodeInvalidEnum {
		t.Fatalf("rules must not run on invalid values: %v", got)
	}
}

func TestAnd_EarlyReturn(t *testing.T) {
	s := orderShape(rules.AtLeastOne("/items"), rules.Present("/paidAt"))
	in := map[string]any{"status": "draft", "total": 1.0, "items": []any{}}
	if got := run(t, s, in, goshape.ParseOpt{}); len(got) != 2 {
		t.Fatalf("collect: %v", got)
	}
	if got := run(t, s, in, goshape.ParseOpt{EarlyReturn: true}); len(got) != 1 {
		t.Fatalf("early return: %v", got)
	}
}

func TestConditionals(t *testing.T) {
	big := rules.If("/total", rules.Gt, 100)
	paid := rules.If("/status", rules.Eq, "paid")
	cases := []struct {
		name string
		cond rules.Conditional
		in   map[string]any
		hit  bool
	}{
		{"gt int vs float", big, map[string]any{"total": 150.0}, true},
		{"gt false", big, map[string]any{"total": 100.0}, false},
		{"le", rules.If("/total", rules.Le, 100), map[string]any{"total": 100.0}, true},
		{"string order", rules.If("/status", rules.Lt, "pending"), map[string]any{"status": "draft"}, true},
		{"ne", rules.If("/status", rules.Ne, "paid"), map[string]any{"status": "draft"}, true},
		{"missing", paid, map[string]any{}, false},
		{"mixed types", rules.If("/status", rules.Gt, 1), map[string]any{"status": "draft"}, false},
		{"and", paid.And(big), map[string]any{"status": "paid", "total": 150.0}, true},
		{"and false", paid.And(big), map[string]any{"status": "paid", "total": 1.0}, false},
		{"or", paid.Or(big), map[string]any{"status": "draft", "total": 150.0}, true},
		{"nested index", rules.If("/items/0/sku", rules.Eq, "a"), map[string]any{"items": []any{item("a")}}, true},
	}
	flag := func(context.Context, any, goshape.ParseOpt) goshape.Issues {
		return goshape.Issues{goshape.NewIssue(goshape.CodeCustom, nil, nil)}
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.cond.Then(flag)(context.Background(), tc.in, goshape.ParseOpt{})
			if (len(got) > 0) != tc.hit {
				t.Fatalf("condition hit = %v, want %v", len(got) > 0, tc.hit)
			}
		})
	}
}

func TestOr(t *testing.T) {
	ctx := context.Background()
	in := map[string]any{"items": []any{}}
	two := rules.And(rules.Present("/a"), rules.Present("/b"))
	one := rules.Present("/c")
	if got := rules.Or(two, one)(ctx, in, goshape.ParseOpt{}); len(got) != 1 || got[0].Pointer() != "/c" {
		t.Fatalf("want the branch with fewest issues, got %v", got)
	}
	if got := rules.Or(one, rules.Present("/items"))(ctx, in, goshape.ParseOpt{}); got != nil {
		t.Fatalf("want success, got %v", got)
	}
}
