package goshape_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	goshape "github.com/reoring/goshape"
	g "github.com/reoring/goshape/dsl"
)

func TestIssues_ErrorSummary(t *testing.T) {
	iss := goshape.Issues{
		{Path: []any{"a"}, Code: goshape.CodeInvalidType},
		{Path: []any{"b", 0}, Code: goshape.CodeUnknownKeys},
		{Path: []any{"c"}, Code: goshape.CodeTooShort},
		{Path: []any{"d"}, Code: goshape.CodeTooLong},
	}
	s := iss.Error()
	if !strings.HasPrefix(s, "invalid_type at /a; unknown_keys at /b/0") || !strings.HasSuffix(s, "(total 4)") {
		t.Fatalf("summary: %q", s)
	}
}

func TestAsIssues(t *testing.T) {
	wrapped := fmt.Errorf("ctx: %w", goshape.Issues{{Code: "x"}})
	if iss, ok := goshape.AsIssues(wrapped); !ok || iss[0].Code != "x" {
		t.Fatalf("wrapped issues not found")
	}
	if iss, ok := goshape.AsIssues(goshape.Issue{Code: "one"}); !ok || len(iss) != 1 {
		t.Fatalf("single issue not found")
	}
	if _, ok := goshape.AsIssues(errors.New("plain")); ok {
		t.Fatalf("plain error reported as issues")
	}
	if _, ok := goshape.AsIssues(nil); ok {
		t.Fatalf("nil reported as issues")
	}
}

func TestIssues_PrefixedDoesNotMutate(t *testing.T) {
	iss := goshape.Issues{{Code: "x", Path: []any{"b"}}}
	p := iss.Prefixed("a").Prefixed(2)
	if p[0].Pointer() != "/2/a/b" || iss[0].Pointer() != "/b" {
		t.Fatalf("prefixed=%s original=%s", p[0].Pointer(), iss[0].Pointer())
	}
}

func TestPointer(t *testing.T) {
	cases := []struct {
		path []any
		want string
	}{
		{nil, "/"},
		{[]any{"a", 0, "b"}, "/a/0/b"},
		{[]any{"x/y", "m~n"}, "/x~1y/m~0n"},
		{[]any{1.5}, "/1.5"},
	}
	for _, c := range cases {
		if got := goshape.Pointer(c.path); got != c.want {
			t.Fatalf("Pointer(%v)=%q want %q", c.path, got, c.want)
		}
	}
	if got := goshape.ParsePointer("/x~1y/m~0n/0"); !reflect.DeepEqual(got, []any{"x/y", "m~n", "0"}) {
		t.Fatalf("ParsePointer=%v", got)
	}
	if got := goshape.ParsePointer("/"); got != nil {
		t.Fatalf("root must parse to nil, got %v", got)
	}
}

func TestResult(t *testing.T) {
	if r := goshape.Unchanged(); !r.OK() || r.Changed() || r.Output("in") != "in" {
		t.Fatalf("unchanged: %+v", r)
	}
	if r := goshape.Replaced(nil); !r.OK() || !r.Changed() || r.Output("in") != nil {
		t.Fatalf("replaced with nil must be distinct from unchanged: %+v", r)
	}
	if r := goshape.Failed(nil); !r.OK() {
		t.Fatalf("empty failure is unchanged")
	}
	r := goshape.Fail(goshape.CodeTooShort, "x", 3).Prefixed("name")
	if r.OK() || r.Issues[0].Pointer() != "/name" || r.Issues[0].Message != "length must be at least 3" {
		t.Fatalf("fail: %+v", r)
	}
	if r := goshape.Settle("v", false, nil); r.Changed() {
		t.Fatalf("settle without change must be unchanged")
	}
}

func TestFuture(t *testing.T) {
	f := goshape.Spawn(func() (goshape.Result, error) {
		time.Sleep(time.Millisecond)
		return goshape.Replaced(1), nil
	})
	chained := f.Then(func(r goshape.Result) (goshape.Result, error) {
		return goshape.Replaced(r.Value.(int) + 1), nil
	})
	r, err := chained.Wait()
	if err != nil || r.Value != 2 {
		t.Fatalf("then: %+v %v", r, err)
	}
	<-chained.Done()

	boom := errors.New("boom")
	called := false
	_, err = goshape.Resolved(goshape.Result{}, boom).Then(func(goshape.Result) (goshape.Result, error) {
		called = true
		return goshape.Unchanged(), nil
	}).Wait()
	if !errors.Is(err, boom) || called {
		t.Fatalf("fatal errors must skip Then: err=%v called=%v", err, called)
	}
}

func TestKindOf(t *testing.T) {
	cases := []struct {
		in   any
		want goshape.Kind
	}{
		{nil, goshape.KindNull},
		{goshape.Undefined, goshape.KindUndefined},
		{1, goshape.KindNumber},
		{json.Number("1"), goshape.KindNumber},
		{"s", goshape.KindString},
		{map[string]any{}, goshape.KindObject},
		{[]any{}, goshape.KindArray},
		{map[any]any{}, goshape.KindMap},
		{time.Time{}, goshape.KindTime},
		{(*int)(nil), goshape.KindNull},
		{struct{}{}, goshape.KindOther},
	}
	for _, c := range cases {
		if got := goshape.KindOf(c.in); got != c.want {
			t.Fatalf("KindOf(%#v)=%v want %v", c.in, got, c.want)
		}
	}
	got := goshape.KindsOf([]goshape.Kind{goshape.KindString}, []goshape.Kind{goshape.KindString, goshape.KindNull})
	if !reflect.DeepEqual(got, []goshape.Kind{goshape.KindString, goshape.KindNull}) {
		t.Fatalf("KindsOf=%v", got)
	}
	if got := goshape.KindsOf([]goshape.Kind{goshape.KindString}, []goshape.Kind{goshape.KindAny}); !reflect.DeepEqual(got, []goshape.Kind{goshape.KindAny}) {
		t.Fatalf("KindsOf with any=%v", got)
	}
}

func TestNonce_Unique(t *testing.T) {
	a, b := goshape.NextNonce(), goshape.NextNonce()
	if a == b {
		t.Fatalf("nonces must differ")
	}
}

func TestUndefined_MarshalsAsNull(t *testing.T) {
	b, err := json.Marshal(map[string]any{"a": goshape.Undefined})
	if err != nil || string(b) != `{"a":null}` {
		t.Fatalf("got %s %v", b, err)
	}
}

// loop is a Parent whose only child is itself.
type loop struct{ ops []goshape.Operation }

func (l *loop) Apply(context.Context, any, goshape.ParseOpt, goshape.Nonce) (goshape.Result, error) {
	return goshape.Unchanged(), nil
}

func (l *loop) ApplyAsync(ctx context.Context, in any, opt goshape.ParseOpt, n goshape.Nonce) *goshape.Future {
	return goshape.Resolved(l.Apply(ctx, in, opt, n))
}
func (l *loop) Async() bool                     { return goshape.DeriveAsync(l) }
func (l *loop) Inputs() []goshape.Kind          { return []goshape.Kind{goshape.KindAny} }
func (l *loop) Children() []goshape.Shape       { return []goshape.Shape{l, g.String()} }
func (l *loop) Operations() []goshape.Operation { return l.ops }

func TestDeriveAsync_Cycles(t *testing.T) {
	if (&loop{}).Async() {
		t.Fatalf("cyclic sync shape reported async")
	}
	if !(&loop{ops: []goshape.Operation{{Async: true}}}).Async() {
		t.Fatalf("async operation not detected")
	}
	if goshape.DeriveAsync(nil) {
		t.Fatalf("nil shape is sync")
	}
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	async := goshape.CheckAsync(g.String(), func(context.Context, any, goshape.ParseOpt) error { return nil })
	for _, s := range []goshape.Shape{g.String(), async} {
		r, err := goshape.Run(ctx, s, "x", goshape.ParseOpt{}, goshape.NextNonce())
		if err != nil || !r.OK() {
			t.Fatalf("run: %+v %v", r, err)
		}
	}
}
