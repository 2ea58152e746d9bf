package source_test

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/reoring/goshape/source"
)

func TestJSON_Tree(t *testing.T) {
	v, err := source.JSON([]byte(`{"a":[1,"x",true,null],"b":{"c":2.5}}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := map[string]any{
		"a": []any{float64(1), "x", true, nil},
		"b": map[string]any{"c": 2.5},
	}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("got %#v", v)
	}
}

func TestJSON_NumberMode(t *testing.T) {
	v, err := source.JSON([]byte(`{"n":12345678901234567890}`), source.Options{Numbers: source.NumberJSONNumber})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, ok := v.(map[string]any)["n"].(json.Number)
	if !ok || n.String() != "12345678901234567890" {
		t.Fatalf("expected json.Number, got %#v", v)
	}
}

func TestJSON_TrailingData(t *testing.T) {
	if _, err := source.JSON([]byte(`{} {}`)); err == nil {
		t.Fatalf("expected trailing data error")
	}
}

func TestJSON_StrictDuplicate(t *testing.T) {
	data := []byte(`{"a":{"b":1,"b":2}}`)
	if _, err := source.JSON(data); err != nil {
		t.Fatalf("lenient decode should accept duplicates: %v", err)
	}
	_, err := source.JSON(data, source.Options{Strict: true})
	var de *source.DuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
	if de.Pointer != "/a/b" {
		t.Fatalf("pointer: got %q", de.Pointer)
	}
}

func TestJSON_StrictTree(t *testing.T) {
	v, err := source.JSON([]byte(`[{"k":[1,2]},"s"]`), source.Options{Strict: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []any{map[string]any{"k": []any{float64(1), float64(2)}}, "s"}
	if !reflect.DeepEqual(v, want) {
		t.Fatalf("got %#v", v)
	}
}

func TestYAML_Tree(t *testing.T) {
	doc := []byte("name: app\nreplicas: 3\nratio: 0.5\nenabled: yes\ntags: [a, b]\nempty: ~\n")
	v, err := source.YAML(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := v.(map[string]any)
	if m["name"] != "app" || m["replicas"] != float64(3) || m["ratio"] != 0.5 {
		t.Fatalf("scalars: %#v", m)
	}
	// YAML 1.2 core schema: "yes" stays a string
	if m["enabled"] != "yes" {
		t.Fatalf("enabled: %#v", m["enabled"])
	}
	if !reflect.DeepEqual(m["tags"], []any{"a", "b"}) || m["empty"] != nil {
		t.Fatalf("containers: %#v", m)
	}
}

func TestYAML_NumericKeysBecomeStrings(t *testing.T) {
	v, err := source.YAML([]byte("1: one\ntrue: yes\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := v.(map[string]any)
	if m["1"] != "one" || m["true"] != "yes" {
		t.Fatalf("got %#v", m)
	}
}

func TestYAML_StrictDuplicate(t *testing.T) {
	_, err := source.YAML([]byte("a: 1\nb:\n  c: 1\n  c: 2\n"), source.Options{Strict: true})
	var de *source.DuplicateKeyError
	if !errors.As(err, &de) {
		t.Fatalf("expected DuplicateKeyError, got %v", err)
	}
	if de.Pointer != "/b/c" || de.Line != 4 || de.FirstLine != 3 {
		t.Fatalf("unexpected position: %+v", de)
	}
}

func TestYAMLDocuments(t *testing.T) {
	docs, err := source.YAMLDocuments([]byte("a: 1\n---\n- x\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("expected 2 docs, got %d", len(docs))
	}
	if !reflect.DeepEqual(docs[1], []any{"x"}) {
		t.Fatalf("second doc: %#v", docs[1])
	}
}

func TestYAML_Alias(t *testing.T) {
	v, err := source.YAML([]byte("base: &b {x: 1}\ncopy: *b\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := v.(map[string]any)
	if !reflect.DeepEqual(m["base"], m["copy"]) {
		t.Fatalf("alias not resolved: %#v", m)
	}
}
