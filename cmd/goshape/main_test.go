package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return dir
}

func TestValidate(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"schema.yaml": "type: object\nproperties:\n  name: {type: string}\n  n: {type: integer}\nrequired: [name]\nadditionalProperties: false\n",
		"ok.json":     `{"name": "a", "n": 1}`,
		"bad.yaml":    "name: 3\nextra: true\n",
		"dup.json":    `{"name": "a", "name": "b"}`,
	})
	p := func(n string) string { return filepath.Join(dir, n) }
	ctx := context.Background()

	var out, errOut bytes.Buffer
	code := run(ctx, []string{"validate", "-schema", p("schema.yaml"), "-jobs", "2", p("ok.json"), p("bad.yaml"), p("dup.json")}, &out, &errOut)
	if code != exitInvalid {
		t.Fatalf("exit=%d stderr=%s", code, errOut.String())
	}
	text := out.String()
	for _, want := range []string{"ok.json: ok", "bad.yaml: invalid", "  /: unknown_keys", "  /name: invalid_type", "dup.json: ok"} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
	if strings.Index(text, "ok.json") > strings.Index(text, "bad.yaml") {
		t.Fatalf("reports must follow argument order:\n%s", text)
	}

	out.Reset()
	code = run(ctx, []string{"validate", "-schema", p("schema.yaml"), "-strict", "-json", p("dup.json")}, &out, &errOut)
	if code != exitInvalid {
		t.Fatalf("exit=%d", code)
	}
	var reports []fileReport
	if err := json.Unmarshal(out.Bytes(), &reports); err != nil {
		t.Fatalf("json report: %v\n%s", err, out.String())
	}
	if len(reports) != 1 || reports[0].Valid || reports[0].Issues[0].Code != "duplicate_key" || reports[0].Issues[0].Path != "/name" {
		t.Fatalf("reports=%+v", reports)
	}

	out.Reset()
	if code := run(ctx, []string{"validate", "-schema", p("schema.yaml"), p("ok.json")}, &out, &errOut); code != exitOK {
		t.Fatalf("exit=%d", code)
	}
}

func TestValidate_UsageAndFatal(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"schema.json": `{"type": "string"}`,
		"bad.json":    `{"type": "strin"}`,
		"v.json":      `"x"`,
	})
	ctx := context.Background()
	var out, errOut bytes.Buffer
	cases := [][]string{
		nil,
		{"nope"},
		{"validate"},
		{"validate", "-schema", filepath.Join(dir, "schema.json")},
		{"validate", "-schema", filepath.Join(dir, "bad.json"), filepath.Join(dir, "v.json")},
		{"validate", "-schema", filepath.Join(dir, "missing.json"), filepath.Join(dir, "v.json")},
		{"validate", "-schema", filepath.Join(dir, "schema.json"), filepath.Join(dir, "missing.json")},
		{"validate", "-jobs", "0", "-schema", filepath.Join(dir, "schema.json"), filepath.Join(dir, "v.json")},
	}
	for _, args := range cases {
		if code := run(ctx, args, &out, &errOut); code != exitUsage {
			t.Fatalf("%v: exit=%d want %d", args, code, exitUsage)
		}
	}
}

func TestSchema(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"schema.json": `{"$ref": "#/$defs/n", "$defs": {"n": {"type": "object", "properties": {"next": {"$ref": "#/$defs/n"}}}}}`,
		"bad.json":    `{"type": 1}`,
	})
	ctx := context.Background()
	var out, errOut bytes.Buffer
	if code := run(ctx, []string{"schema", filepath.Join(dir, "schema.json")}, &out, &errOut); code != exitOK {
		t.Fatalf("exit=%d stderr=%s", code, errOut.String())
	}
	if !strings.Contains(out.String(), `"$ref": "#/$defs/shape1"`) {
		t.Fatalf("normalized schema:\n%s", out.String())
	}
	if code := run(ctx, []string{"schema", filepath.Join(dir, "bad.json")}, &out, &errOut); code != exitInvalid {
		t.Fatalf("invalid schema exit=%d", code)
	}
}
