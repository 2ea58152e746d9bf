package goshape

import (
	"context"
	"reflect"
	"sync/atomic"
)

// Shape validates and optionally transforms an untyped value.
//
// Apply evaluates synchronously; it returns ErrSyncUnsupported when Async
// reports true. ApplyAsync works for every shape. A returned error is fatal
// (a programming or infrastructure failure); validation failures travel in
// the Result.
//
// The nonce identifies the top-level parse call and must be forwarded
// unchanged to nested shapes.
type Shape interface {
	Apply(ctx context.Context, input any, opt ParseOpt, nonce Nonce) (Result, error)
	ApplyAsync(ctx context.Context, input any, opt ParseOpt, nonce Nonce) *Future
	// Async reports whether the shape or anything it contains holds an async
	// operation.
	Async() bool
	// Inputs lists the input kinds the shape can accept. KindAny means
	// unrestricted.
	Inputs() []Kind
}

// Parent exposes the nested shapes of a composite. Leaves return nil.
type Parent interface {
	Children() []Shape
}

// DeriveAsync reports whether s or any shape reachable from it holds an async
// operation. It walks Parent links and never calls Async on a Parent, so it
// terminates on recursive shapes.
func DeriveAsync(s Shape) bool {
	return deriveAsync(s, map[Shape]struct{}{})
}

func deriveAsync(s Shape, seen map[Shape]struct{}) bool {
	if s == nil {
		return false
	}
	if reflect.TypeOf(s).Comparable() {
		if _, ok := seen[s]; ok {
			return false
		}
		seen[s] = struct{}{}
	}
	if o, ok := s.(interface{ Operations() []Operation }); ok {
		for _, op := range o.Operations() {
			if op.Async {
				return true
			}
		}
	}
	p, ok := s.(Parent)
	if !ok {
		return s.Async()
	}
	for _, c := range p.Children() {
		if deriveAsync(c, seen) {
			return true
		}
	}
	return false
}

const (
	_asyncUnknown int32 = iota
	_asyncNo
	_asyncYes
)

type asyncMemo struct{ v atomic.Int32 }

// Base carries the operation list shared by every built-in shape and caches
// the derived async flag. Shapes embed it by value; builder methods produce a
// new Base through Rebase or Fork.
type Base struct {
	ops  []Operation
	memo *asyncMemo
}

// NewBase returns a Base holding ops.
func NewBase(ops []Operation) Base { return Base{ops: ops, memo: &asyncMemo{}} }

// Operations returns the attached operations.
func (b Base) Operations() []Operation { return b.ops }

// Rebase returns a Base with ops and a fresh async cache.
func (b Base) Rebase(ops []Operation) Base { return NewBase(ops) }

// Fork returns a Base with the same operations and a fresh async cache. Use
// it when a builder changes the children of a shape.
func (b Base) Fork() Base { return NewBase(b.ops) }

// AsyncOf reports the async flag of self, the shape embedding b.
func (b Base) AsyncOf(self Shape) bool {
	if b.memo == nil {
		return DeriveAsync(self)
	}
	switch b.memo.v.Load() {
	case _asyncNo:
		return false
	case _asyncYes:
		return true
	}
	a := DeriveAsync(self)
	if a {
		b.memo.v.Store(_asyncYes)
	} else {
		b.memo.v.Store(_asyncNo)
	}
	return a
}

// Finish runs the attached operations over output and settles the result.
// iss holds the issues the shape itself produced.
func (b Base) Finish(ctx context.Context, output any, changed bool, iss Issues, opt ParseOpt) (Result, error) {
	if len(b.ops) == 0 {
		return Settle(output, changed, iss), nil
	}
	out, conv, iss, err := RunOperations(ctx, b.ops, output, iss, opt)
	if err != nil {
		return Result{}, err
	}
	return Settle(out, changed || conv, iss), nil
}

// Defer evaluates fn inline when s is sync and on a new goroutine otherwise.
func Defer(s Shape, fn func() (Result, error)) *Future {
	if !s.Async() {
		return Resolved(fn())
	}
	return Spawn(fn)
}

// Run applies s through whichever path it supports and waits for the result.
func Run(ctx context.Context, s Shape, input any, opt ParseOpt, nonce Nonce) (Result, error) {
	if s.Async() {
		return s.ApplyAsync(ctx, input, opt, nonce).Wait()
	}
	return s.Apply(ctx, input, opt, nonce)
}
