package goshape

// Future is the handle of an asynchronous shape evaluation.
type Future struct {
	done   chan struct{}
	res    Result
	err    error
	panicV any
}

var _closed = func() chan struct{} {
	c := make(chan struct{})
	close(c)
	return c
}()

// Resolved returns a completed Future. It does not start a goroutine.
func Resolved(r Result, err error) *Future {
	return &Future{done: _closed, res: r, err: err}
}

// Spawn runs fn in a new goroutine. A panic in fn is captured and re-raised
// by Wait on the waiting goroutine.
func Spawn(fn func() (Result, error)) *Future {
	f := &Future{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		defer func() {
			if p := recover(); p != nil {
				f.panicV = p
			}
		}()
		f.res, f.err = fn()
	}()
	return f
}

// Then chains fn after f completes successfully. Fatal errors skip fn.
func (f *Future) Then(fn func(Result) (Result, error)) *Future {
	if f.isDone() {
		r, err := f.Wait()
		if err != nil {
			return Resolved(Result{}, err)
		}
		return Resolved(fn(r))
	}
	return Spawn(func() (Result, error) {
		r, err := f.Wait()
		if err != nil {
			return Result{}, err
		}
		return fn(r)
	})
}

// Done is closed when the evaluation completed.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait blocks until the evaluation completed. A panic raised by the
// evaluation is re-raised here.
func (f *Future) Wait() (Result, error) {
	<-f.done
	if f.panicV != nil {
		panic(f.panicV)
	}
	return f.res, f.err
}

func (f *Future) isDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}
