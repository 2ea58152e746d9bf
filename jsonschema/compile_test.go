package jsonschema_test

import (
	"context"
	"errors"
	"testing"
	"time"

	goshape "github.com/reoring/goshape"
	"github.com/reoring/goshape/jsonschema"
)

const userSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "name": {"type": "string", "minLength": 1, "maxLength": 8},
    "age": {"type": "integer", "minimum": 0},
    "role": {"enum": ["admin", "user"], "default": "user"},
    "nick": {"type": ["string", "null"]},
    "tags": {"type": "array", "items": {"type": "string"}, "maxItems": 2}
  },
  "required": ["name", "id"],
  "additionalProperties": false
}`

func codesAt(err error) map[string]string {
	iss, _ := goshape.AsIssues(err)
	out := map[string]string{}
	for _, it := range iss {
		out[it.Pointer()] = it.Code
	}
	return out
}

func TestCompile_Object(t *testing.T) {
	ctx := context.Background()
	s, err := jsonschema.CompileJSON([]byte(userSchema))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	v, err := goshape.Parse(ctx, s, map[string]any{"name": "ann", "id": 1.0, "nick": nil})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if v.(map[string]any)["role"] != "user" {
		t.Fatalf("default not applied: %#v", v)
	}

	_, err = goshape.Parse(ctx, s, map[string]any{
		"name": "", "age": -1.5, "role": "root", "tags": []any{"a", 1.0, "c"}, "x": true,
	})
	got := codesAt(err)
	want := map[string]string{
		"/":       goshape.CodeUnknownKeys,
		"/name":   goshape.CodeTooShort,
		"/age":    goshape.CodeNotInteger,
		"/role":   goshape.CodeInvalidEnum,
		"/tags/1": goshape.CodeInvalidType,
		"/id":     goshape.CodeInvalidType,
	}
	for p, code := range want {
		if got[p] != code {
			t.Fatalf("%s: got %q want %q (all: %v)", p, got[p], code, got)
		}
	}
}

func TestCompile_RecursiveRef(t *testing.T) {
	ctx := context.Background()
	s, err := jsonschema.CompileYAML([]byte(`
$ref: "#/$defs/node"
$defs:
  node:
    type: object
    properties:
      value: {type: number}
      next:
        anyOf:
          - {$ref: "#/$defs/node"}
          - {type: "null"}
    required: [value]
`))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	in := map[string]any{"value": 1.0, "next": map[string]any{"value": 2.0, "next": map[string]any{"value": "x"}}}
	_, err = goshape.Parse(ctx, s, in)
	iss, _ := goshape.AsIssues(err)
	if len(iss) != 1 || iss[0].Code != goshape.CodeInvalidUnion || iss[0].Pointer() != "/next/next" {
		t.Fatalf("unexpected issues: %v", iss)
	}
	if !goshape.Is(ctx, s, map[string]any{"value": 1.0, "next": nil}) {
		t.Fatalf("valid list rejected")
	}
}

func TestCompile_Keywords(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		schema string
		good   []any
		bad    []any
	}{
		{"bool true", `true`, []any{1.0, "x", nil}, nil},
		{"bool false", `false`, nil, []any{1.0}},
		{"const", `{"const": 3}`, []any{3.0}, []any{4.0}},
		{"pattern", `{"pattern": "^a"}`, []any{"ab"}, []any{"ba", 1.0}},
		{"exclusive", `{"type": "number", "exclusiveMinimum": 0, "exclusiveMaximum": 1}`, []any{0.5}, []any{0.0, 1.0}},
		{"allOf", `{"allOf": [{"type": "number", "minimum": 1}, {"maximum": 3}]}`, []any{2.0}, []any{0.0, 4.0}},
		{"oneOf", `{"oneOf": [{"type": "string"}, {"type": "boolean"}]}`, []any{"x", true}, []any{1.0}},
		{"not", `{"not": {"type": "string"}}`, []any{1.0}, []any{"x"}},
		{"tuple", `{"prefixItems": [{"type": "string"}, {"type": "number"}], "items": false}`, []any{[]any{"a", 1.0}}, []any{[]any{"a"}, []any{"a", 1.0, 2.0}}},
		{"tuple rest", `{"prefixItems": [{"type": "string"}], "items": {"type": "boolean"}}`, []any{[]any{"a", true}}, []any{[]any{"a", 1.0}}},
		{"unique", `{"type": "array", "uniqueItems": true}`, []any{[]any{1.0, 2.0}}, []any{[]any{1.0, 1.0}}},
		{"rest properties", `{"type": "object", "additionalProperties": {"type": "number"}}`, []any{map[string]any{"a": 1.0}}, []any{map[string]any{"a": "x"}}},
		{"property names", `{"type": "object", "propertyNames": {"pattern": "^[a-z]+$"}}`, []any{map[string]any{"ab": 1.0}}, []any{map[string]any{"A": 1.0}}},
		{"definitions", `{"$ref": "#/definitions/n", "definitions": {"n": {"type": "number"}}}`, []any{1.0}, []any{"x"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s, err := jsonschema.CompileJSON([]byte(c.schema))
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			for _, in := range c.good {
				if !goshape.Is(ctx, s, in) {
					t.Fatalf("rejected %#v", in)
				}
			}
			for _, in := range c.bad {
				if goshape.Is(ctx, s, in) {
					t.Fatalf("accepted %#v", in)
				}
			}
		})
	}
}

func TestCompile_DateTime(t *testing.T) {
	ctx := context.Background()
	s, err := jsonschema.CompileJSON([]byte(`{"type": "string", "format": "date-time"}`))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	v, err := goshape.Parse(ctx, s, "2024-05-01T10:00:00Z")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if ts, ok := v.(time.Time); !ok || ts.Month() != time.May {
		t.Fatalf("got %#v", v)
	}
	if goshape.Is(ctx, s, 0.0) {
		t.Fatalf("numbers are not date-time strings")
	}
}

func TestCompile_Errors(t *testing.T) {
	bad := []string{
		`{"type": "strin"}`,
		`{"type": 3}`,
		`{"minLength": -1}`,
		`{"pattern": "("}`,
		`{"$ref": "#/$defs/missing"}`,
		`{"$ref": "http://example.com/s.json"}`,
		`{"anyOf": []}`,
		`{"properties": {"a": 1}}`,
		`"nope"`,
		`{`,
	}
	for _, doc := range bad {
		if _, err := jsonschema.CompileJSON([]byte(doc)); !errors.Is(err, jsonschema.ErrInvalidSchema) {
			t.Fatalf("%s: expected ErrInvalidSchema, got %v", doc, err)
		}
	}
}
