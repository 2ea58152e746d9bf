package dsl

import (
	"context"
	"sync"
	"sync/atomic"

	goshape "github.com/reoring/goshape"
	eng "github.com/reoring/goshape/internal/engine"
)

// lazyProvider resolves the target shape once. Clones of a LazyShape share
// it.
type lazyProvider struct {
	fn    func() goshape.Shape
	mu    sync.Mutex
	owner atomic.Uint64 // goroutine running fn, 0 when idle
	done  atomic.Bool
	shape goshape.Shape
	err   error

	inInputs atomic.Bool
}

func (p *lazyProvider) get() (goshape.Shape, error) {
	if p.done.Load() {
		return p.shape, p.err
	}
	if !p.mu.TryLock() {
		if id := eng.GoID(); id != 0 && p.owner.Load() == id {
			return nil, goshape.ErrLazyReentrant
		}
		p.mu.Lock()
	}
	defer p.mu.Unlock()
	if p.done.Load() {
		return p.shape, p.err
	}
	p.owner.Store(eng.GoID())
	defer p.owner.Store(0)
	p.shape = p.fn()
	if p.shape == nil {
		p.err = goshape.ErrLazyNilShape
	}
	p.done.Store(true)
	return p.shape, p.err
}

// inflight counts, per nonce, the inputs currently being validated by one
// LazyShape instance. Cycle detection does not consult it; see ancestor.
type inflight struct {
	mu     sync.Mutex
	stacks map[goshape.Nonce][]eng.Identity
}

func (f *inflight) push(nonce goshape.Nonce, id eng.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stacks[nonce] = append(f.stacks[nonce], id)
}

// pop removes the latest entry equal to id. Concurrent siblings push and pop
// in any order, so the entry is located by identity.
func (f *inflight) pop(nonce goshape.Nonce, id eng.Identity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	st := f.stacks[nonce]
	for i := len(st) - 1; i >= 0; i-- {
		if st[i] == id {
			st = append(st[:i], st[i+1:]...)
			break
		}
	}
	if len(st) == 0 {
		delete(f.stacks, nonce)
		return
	}
	f.stacks[nonce] = st
}

func (f *inflight) len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stacks)
}

// ancestorKey keys the chain of inputs a LazyShape instance is validating on
// the current path from the root.
type ancestorKey struct{ track *inflight }

// ancestor is one link of that chain. Siblings extend the chain of their
// common parent independently and never see each other.
type ancestor struct {
	nonce  goshape.Nonce
	id     eng.Identity
	parent *ancestor
}

func (a *ancestor) contains(nonce goshape.Nonce, id eng.Identity) bool {
	for ; a != nil; a = a.parent {
		if a.nonce == nonce && a.id == id {
			return true
		}
	}
	return false
}

// CircularFunc produces the result for an input that is already being
// validated further up by the same lazy shape.
type CircularFunc func(ctx context.Context, input any, opt goshape.ParseOpt) (goshape.Result, error)

// LazyShape defers to a shape produced on first use, which allows recursive
// shapes. Inputs that reference themselves are detected per parse call and
// handed to the circular callback instead of recursing forever.
type LazyShape struct {
	goshape.Base
	provider *lazyProvider
	track    *inflight
	circular CircularFunc
}

// Lazy returns a shape resolving fn at most once.
func Lazy(fn func() goshape.Shape) *LazyShape {
	return &LazyShape{
		Base:     goshape.NewBase(nil),
		provider: &lazyProvider{fn: fn},
		track:    newInflight(),
	}
}

func newInflight() *inflight {
	return &inflight{stacks: map[goshape.Nonce][]eng.Identity{}}
}

func (s *LazyShape) clone() *LazyShape {
	c := *s
	c.track = newInflight()
	return &c
}

// Circular sets the callback used for circular inputs. The default accepts
// them unchanged.
func (s *LazyShape) Circular(fn CircularFunc) *LazyShape {
	c := s.clone()
	c.Base = s.Fork()
	c.circular = fn
	return c
}

// Shape resolves and returns the target shape.
func (s *LazyShape) Shape() (goshape.Shape, error) { return s.provider.get() }

// InFlight reports the number of parse calls currently traversing s.
func (s *LazyShape) InFlight() int { return s.track.len() }

func (s *LazyShape) eval(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	target, err := s.provider.get()
	if err != nil {
		return goshape.Result{}, err
	}
	if id, ok := eng.IdentityOf(input); ok {
		key := ancestorKey{s.track}
		chain, _ := ctx.Value(key).(*ancestor)
		if chain.contains(nonce, id) {
			opt.Log().DebugContext(ctx, "goshape: circular input", "nonce", uint64(nonce))
			if s.circular == nil {
				return goshape.Unchanged(), nil
			}
			return s.circular(ctx, input, opt)
		}
		ctx = context.WithValue(ctx, key, &ancestor{nonce: nonce, id: id, parent: chain})
		s.track.push(nonce, id)
		defer s.track.pop(nonce, id)
	}
	r, err := child(ctx, target, input, opt, nonce, async)
	if err != nil {
		return goshape.Result{}, err
	}
	if !r.OK() {
		return s.Finish(ctx, input, false, r.Issues, opt)
	}
	return s.Finish(ctx, r.Output(input), r.Changed(), nil, opt)
}

func (s *LazyShape) Apply(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) (goshape.Result, error) {
	return applySync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *LazyShape) ApplyAsync(ctx context.Context, input any, opt goshape.ParseOpt, nonce goshape.Nonce) *goshape.Future {
	return applyAsync(s, func(async bool) (goshape.Result, error) { return s.eval(ctx, input, opt, nonce, async) })
}

func (s *LazyShape) Async() bool { return s.AsyncOf(s) }

// Inputs reports the target's input kinds. A recursive query reports
// KindAny.
func (s *LazyShape) Inputs() []goshape.Kind {
	target, err := s.provider.get()
	if err != nil || !s.provider.inInputs.CompareAndSwap(false, true) {
		return []goshape.Kind{goshape.KindAny}
	}
	defer s.provider.inInputs.Store(false)
	return target.Inputs()
}

// Children returns the resolved target. It is empty while the provider is
// resolving on the calling goroutine or when it failed.
func (s *LazyShape) Children() []goshape.Shape {
	target, err := s.provider.get()
	if err != nil {
		return nil
	}
	return []goshape.Shape{target}
}

func (s *LazyShape) WithOperations(ops []goshape.Operation) goshape.Shape {
	c := s.clone()
	c.Base = s.Rebase(ops)
	return c
}
