// Package goshape validates and transforms untyped Go values against
// composable shapes.
//
// A Shape checks an input (typically decoded from JSON or YAML into
// map[string]any, []any and scalars), optionally replaces it, and reports a
// Result: unchanged, replaced, or failed with ordered Issues carrying the exact
// path to each failure.
//
// Design policy:
// - The root package holds the Issue/Result model, the operation pipeline and
// the Shape contract; constructors live under dsl/.
// - Every shape supports ApplyAsync; Apply works only when no async operation is
// reachable. Both entry points produce identical results.
// - Shapes are immutable and safe to share across goroutines.
// - Outer layers build on the core: jsonschema and kubeopenapi compile schema
// documents into shapes, rules adds cross-field checks, middleware validates
// HTTP bodies, metrics exports parse counters.
//
// Typical usage:
//
//	user := dsl.Object(dsl.Props{
//		{Key: "name", Shape: dsl.String().NonEmpty()},
//		{Key: "age", Shape: dsl.Optional(dsl.Int())},
//	}).Exact()
//	v, err := goshape.Parse(ctx, user, input)
//	if iss, ok := goshape.AsIssues(err); ok {
//		// iss[0].Pointer() == "/name"
//	}
package goshape
