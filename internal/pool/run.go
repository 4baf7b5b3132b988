package pool

import (
	"context"
	"fmt"
	"runtime"

	"treesum/internal/config"
)

// Request is a task without its plumbing.
type Request struct {
	Path     string
	Workdir  string
	Expected string
}

// Run hashes every request on a fresh pool sized from cfg.Threads and
// calls handle with each outcome as it arrives, on the calling
// goroutine. It returns once all workers have terminated.
func Run(ctx context.Context, cfg *config.Config, opts Options, reqs []Request, handle func(Outcome)) error {
	const errCtx = "running pool"

	results := make(chan Outcome, len(reqs))
	p := New(opts)
	p.Start(ctx, Workers(cfg.Threads, min(len(reqs), runtime.GOMAXPROCS(0))))

	for _, r := range reqs {
		err := p.Submit(Task{
			Path:     r.Path,
			Workdir:  r.Workdir,
			Config:   cfg,
			Expected: r.Expected,
			Result:   results,
		})
		if err != nil {
			p.Finish()
			p.Wait()
			return fmt.Errorf("%s: %w", errCtx, err)
		}
	}
	p.Finish()

	for range reqs {
		if ctx.Err() == nil {
			select {
			case out := <-results:
				handle(out)
				continue
			case <-ctx.Done():
			}
		}

		p.Wait()
		if n := p.Skipped(); n > 0 {
			p.logger.Warn("run cancelled, tasks left unhashed", "skipped", n)
		}
		return fmt.Errorf("%s: %w", errCtx, ctx.Err())
	}

	p.Wait()
	return nil
}
