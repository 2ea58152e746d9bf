package dsl

import (
	"context"

	goshape "github.com/reoring/goshape"
)

// evalFunc evaluates a shape. async tells composites to start their children
// through ApplyAsync.
type evalFunc func(async bool) (goshape.Result, error)

func applySync(s goshape.Shape, eval evalFunc) (goshape.Result, error) {
	if s.Async() {
		return goshape.Result{}, goshape.ErrSyncUnsupported
	}
	return eval(false)
}

func applyAsync(s goshape.Shape, eval evalFunc) *goshape.Future {
	if !s.Async() {
		return goshape.Resolved(eval(false))
	}
	return goshape.Spawn(func() (goshape.Result, error) { return eval(true) })
}

// child applies a nested shape and waits for it.
func child(ctx context.Context, s goshape.Shape, input any, opt goshape.ParseOpt, nonce goshape.Nonce, async bool) (goshape.Result, error) {
	if async {
		return s.ApplyAsync(ctx, input, opt, nonce).Wait()
	}
	return s.Apply(ctx, input, opt, nonce)
}

type job struct {
	shape goshape.Shape
	input any
}

// runJobs applies every job and hands the results to visit in declared order.
// visit returns false to stop. In async mode all jobs are started before the
// first result is awaited, except with EarlyReturn where each job starts only
// after the previous one was visited. runJobs never returns while a started
// job is still running.
func runJobs(ctx context.Context, jobs []job, opt goshape.ParseOpt, nonce goshape.Nonce, async bool, visit func(i int, r goshape.Result) bool) error {
	if !async || opt.EarlyReturn {
		for i, j := range jobs {
			r, err := child(ctx, j.shape, j.input, opt, nonce, async)
			if err != nil {
				return err
			}
			if !visit(i, r) {
				return nil
			}
		}
		return nil
	}
	futs := make([]*goshape.Future, len(jobs))
	for i, j := range jobs {
		futs[i] = j.shape.ApplyAsync(ctx, j.input, opt, nonce)
	}
	defer func() {
		for _, f := range futs {
			<-f.Done()
		}
	}()
	for i, f := range futs {
		r, err := f.Wait()
		if err != nil {
			return err
		}
		if !visit(i, r) {
			return nil
		}
	}
	return nil
}

func invalidType(input any, expected string) goshape.Issues {
	return goshape.Issues{goshape.NewIssue(goshape.CodeInvalidType, input, expected)}
}
