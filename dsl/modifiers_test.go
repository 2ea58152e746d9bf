package dsl_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	goshape "github.com/reoring/goshape"
	g "github.com/reoring/goshape/dsl"
)

func TestOptionalNullableNullish(t *testing.T) {
	ctx := context.Background()

	if !goshape.Is(ctx, g.Optional(g.String()), goshape.Undefined) {
		t.Fatalf("optional must accept undefined")
	}
	if goshape.Is(ctx, g.Optional(g.String()), nil) {
		t.Fatalf("optional must not accept null")
	}
	if !goshape.Is(ctx, g.Nullable(g.String()), nil) {
		t.Fatalf("nullable must accept null")
	}
	if goshape.Is(ctx, g.Nullable(g.String()), goshape.Undefined) {
		t.Fatalf("nullable must not accept undefined")
	}
	n := g.Nullish(g.String(), "dflt")
	for _, in := range []any{nil, goshape.Undefined} {
		v, err := goshape.Parse(ctx, n, in)
		if err != nil || v != "dflt" {
			t.Fatalf("nullish default for %v: %#v %v", in, v, err)
		}
	}
}

func TestReplace(t *testing.T) {
	ctx := context.Background()
	s := g.Replace(g.Number(), "none", 0.0)
	v, err := goshape.Parse(ctx, s, "none")
	if err != nil || v != 0.0 {
		t.Fatalf("got %#v %v", v, err)
	}
	r, err := g.Replace(g.Number(), 1.0, 1).Apply(ctx, 1.0, goshape.ParseOpt{}, goshape.NextNonce())
	if err != nil || r.Changed() {
		t.Fatalf("replacement equal to the input must be unchanged: %+v", r)
	}
	if got := s.Inputs(); len(got) != 2 {
		t.Fatalf("inputs should include the replaced kind: %v", got)
	}
}

func TestDeny(t *testing.T) {
	ctx := context.Background()
	trim := g.Transform(g.String(), func(_ context.Context, v any, _ goshape.ParseOpt) (any, error) {
		return strings.TrimSpace(v.(string)), nil
	})
	s := g.Deny(trim, "")
	for _, in := range []any{"", "   "} {
		_, err := goshape.Parse(ctx, s, in)
		iss, _ := goshape.AsIssues(err)
		if len(iss) != 1 || iss[0].Code != goshape.CodeDenied {
			t.Fatalf("%q: expected denied, got %v", in, iss)
		}
	}
	if v, err := goshape.Parse(ctx, s, " a "); err != nil || v != "a" {
		t.Fatalf("got %#v %v", v, err)
	}
}

func TestCatch(t *testing.T) {
	ctx := context.Background()
	var seen goshape.Issues
	s := g.Catch(g.Number(), func(in any, iss goshape.Issues) any {
		seen = iss
		return -1.0
	})
	v, err := goshape.Parse(ctx, s, "x")
	if err != nil || v != -1.0 {
		t.Fatalf("got %#v %v", v, err)
	}
	if len(seen) != 1 || seen[0].Code != goshape.CodeInvalidType {
		t.Fatalf("fallback must receive the issues: %v", seen)
	}
	if v, _ := goshape.Parse(ctx, g.CatchValue(g.Number(), 0.0), 5.0); v != 5.0 {
		t.Fatalf("valid input must pass through: %#v", v)
	}
}

func TestExclude(t *testing.T) {
	ctx := context.Background()
	s := g.Exclude(g.String(), g.Enum("admin", "root"))
	if !goshape.Is(ctx, s, "ann") {
		t.Fatalf("non-excluded rejected")
	}
	_, err := goshape.Parse(ctx, s, "root")
	iss, _ := goshape.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != goshape.CodeExcluded {
		t.Fatalf("unexpected issues: %v", iss)
	}
}

func TestPipe(t *testing.T) {
	ctx := context.Background()
	s := g.Pipe(g.String().Coerce(), g.String().Min(2))
	if v, err := goshape.Parse(ctx, s, 42.0); err != nil || v != "42" {
		t.Fatalf("got %#v %v", v, err)
	}
	_, err := goshape.Parse(ctx, s, 4.0)
	iss, _ := goshape.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != goshape.CodeTooShort || iss[0].Input != "4" {
		t.Fatalf("second stage issue expected on the intermediate value: %+v", iss)
	}
}

func TestConvert_Errors(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")
	fatal := g.Convert(func(context.Context, any, goshape.ParseOpt) (any, error) { return nil, boom })
	if _, err := goshape.Parse(ctx, fatal, 1); !errors.Is(err, boom) {
		t.Fatalf("non-issue errors must be fatal, got %v", err)
	}
	invalid := g.Convert(func(_ context.Context, v any, _ goshape.ParseOpt) (any, error) {
		return nil, goshape.Issue{Code: "bad_input"}
	})
	_, err := goshape.Parse(ctx, invalid, 1)
	iss, ok := goshape.AsIssues(err)
	if !ok || iss[0].Code != "bad_input" || iss[0].Input != 1 {
		t.Fatalf("issue errors must be validation failures: %+v", err)
	}
}
