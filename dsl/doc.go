// Package dsl provides the shape constructors of goshape.
//
// Every constructor returns a pointer to an immutable shape; builder methods
// (Min, Exact, Rest, ...) and the generic goshape.Check/Refine/Convert helpers
// return modified copies. Shapes may be shared across goroutines.
//
// Leaves: Any, Never, Const, Enum, String, Number, Int, Bool, Time.
// Modifiers: Replace, Optional, Nullable, Nullish, Deny, Catch, Exclude, Pipe,
// Convert, Transform.
// Composites: Object, Array, Tuple, Union, Intersection, Record, Map, Set.
// Recursion: Lazy.
//
// Lazy resolves its provider once. A provider that reaches its own lazy shape
// while resolving (through Shape or Parse) gets ErrLazyReentrant;
// other goroutines wait for the resolution. Re-entry is recognized by
// goroutine id, read from the runtime.Stack header because providers take no
// context. If a future runtime changes that header the check is disabled and
// a re-entering provider deadlocks instead of failing.
package dsl
