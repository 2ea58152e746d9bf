package benchmarks_test

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"testing"

	goshape "github.com/reoring/goshape"
	g "github.com/reoring/goshape/dsl"
	"github.com/reoring/goshape/jsonschema"
)

// ---- Helpers ----

func userShape() goshape.Shape {
	return g.Object(g.Props{
		{Key: "id", Shape: g.String().NonEmpty()},
		{Key: "name", Shape: g.String()},
		{Key: "age", Shape: g.Optional(g.Int().Gte(0))},
	}).Strip()
}

const userSchema = `{
  "type": "object",
  "required": ["id", "name"],
  "properties": {
    "id": {"type": "string", "minLength": 1},
    "name": {"type": "string"},
    "age": {"type": "integer", "minimum": 0}
  }
}`

func smallUserJSON() []byte { return []byte(`{"id":"u_1","name":"alice","age":3,"x":true}`) }

// generateUsers returns a JSON array of n user objects.
func generateUsers(n int) []byte {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i := 0; i < n; i++ {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(`{"id":"u_`)
		buf.WriteString(strconv.Itoa(i))
		buf.WriteString(`","name":"n","age":`)
		buf.WriteString(strconv.Itoa(i % 90))
		buf.WriteByte('}')
	}
	buf.WriteByte(']')
	return buf.Bytes()
}

func benchJSON(b *testing.B, s goshape.Shape, data []byte, opts ...goshape.ParseOpt) {
	b.Helper()
	ctx := context.Background()
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := goshape.ParseJSON(ctx, s, data, opts...); err != nil {
			b.Fatal(err)
		}
	}
}

// ---- Benchmarks ----

func Benchmark_User_Small_DSL(b *testing.B) { benchJSON(b, userShape(), smallUserJSON()) }

func Benchmark_User_Small_Compiled(b *testing.B) {
	s, err := jsonschema.CompileJSON([]byte(userSchema))
	if err != nil {
		b.Fatal(err)
	}
	benchJSON(b, s, smallUserJSON())
}

func Benchmark_Users_Array_1k(b *testing.B) {
	benchJSON(b, g.Array(userShape()), generateUsers(1000))
}

func Benchmark_Users_Array_1k_Async(b *testing.B) {
	// one async check sends every element through the async path
	id := goshape.CheckAsync(g.String(), func(context.Context, any, goshape.ParseOpt) error { return nil })
	s := g.Array(g.Object(g.Props{
		{Key: "id", Shape: id},
		{Key: "name", Shape: g.String()},
		{Key: "age", Shape: g.Int()},
	}))
	benchJSON(b, s, generateUsers(1000))
}

func Benchmark_Users_Array_1k_EarlyReturn_Invalid(b *testing.B) {
	ctx := context.Background()
	s := g.Array(userShape())
	data := bytes.ReplaceAll(generateUsers(1000), []byte(`"age":0`), []byte(`"age":-1`))
	opt := goshape.ParseOpt{EarlyReturn: true}
	b.ReportAllocs()
	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := goshape.ParseJSON(ctx, s, data, opt); err == nil {
			b.Fatal("expected issues")
		}
	}
}

func Benchmark_Lazy_Tree_Depth50(b *testing.B) {
	var node goshape.Shape
	node = g.Object(g.Props{
		{Key: "name", Shape: g.String()},
		{Key: "children", Shape: g.Array(g.Lazy(func() goshape.Shape { return node }))},
	})
	data := strings.Repeat(`{"name":"n","children":[`, 50) + strings.Repeat(`]}`, 50)
	benchJSON(b, node, []byte(data))
}
