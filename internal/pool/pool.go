// Package pool runs digest tasks on a fixed set of workers that drain a
// shared lock-free queue.
package pool

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"treesum/internal/digest"
)

// DefaultBackoff is how long an idle or contended worker sleeps before
// polling the queue again.
const DefaultBackoff = 10 * time.Millisecond

// ErrFinished is returned by Submit once Finish has been called.
var ErrFinished = errors.New("pool: producer already finished")

type Options struct {
	Logger  *slog.Logger
	Backoff time.Duration
	// OnBytes, if set, is called from workers with every chunk size
	// hashed. It must be safe for concurrent use.
	OnBytes func(n int64)
}

// Pool is driven by a single producer: Submit every task, then Finish,
// then Wait. Workers may be started before, during or after submission.
type Pool struct {
	queue    *Injector
	finished atomic.Bool
	wg       sync.WaitGroup
	skipped  atomic.Int64

	logger  *slog.Logger
	backoff time.Duration
	onBytes func(n int64)
}

func New(opts Options) *Pool {
	p := &Pool{
		queue:   NewInjector(),
		logger:  opts.Logger,
		backoff: opts.Backoff,
		onBytes: opts.OnBytes,
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if p.backoff <= 0 {
		p.backoff = DefaultBackoff
	}
	return p
}

// Workers decides how many workers to start when want are useful and
// threads is the configured cap, 0 meaning no cap.
func Workers(threads, want int) int {
	if want <= 0 {
		want = 1
	}
	if threads > 0 && threads < want {
		return threads
	}
	return want
}

// Submit queues a task. It must not be called concurrently with Finish.
func (p *Pool) Submit(t Task) error {
	if p.finished.Load() {
		return ErrFinished
	}
	p.queue.Push(t)
	return nil
}

// Finish tells the workers that no more tasks will be submitted. Every
// task submitted before the call is still executed.
func (p *Pool) Finish() {
	p.finished.CompareAndSwap(false, true)
}

// Start spawns n workers. Outcomes that cannot be delivered before ctx
// is done are dropped.
func (p *Pool) Start(ctx context.Context, n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go p.work(ctx, i)
	}
}

// Wait blocks until every worker has terminated.
func (p *Pool) Wait() {
	p.wg.Wait()
}

// Skipped counts tasks taken off the queue after ctx was done. They
// were consumed without being hashed and produced no outcome.
func (p *Pool) Skipped() int64 {
	return p.skipped.Load()
}

func (p *Pool) work(ctx context.Context, id int) {
	defer p.wg.Done()

	logger := p.logger.With("worker", id)
	logger.Debug("worker started")

	for {
		task, s := p.queue.Steal()
		switch s {
		case Success:
			if ctx.Err() != nil {
				p.skipped.Add(1)
				continue
			}
			p.run(ctx, logger, task)
		case Retry:
			time.Sleep(p.backoff)
		case Empty:
			// The flag is published after the last push, so once it is
			// seen a second look at the queue is authoritative.
			if p.finished.Load() && p.queue.IsEmpty() {
				logger.Debug("worker finished")
				return
			}
			if !p.finished.Load() {
				time.Sleep(p.backoff)
			}
		}
	}
}

func (p *Pool) run(ctx context.Context, logger *slog.Logger, task Task) {
	out := Outcome{Path: task.Path, Workdir: task.Workdir, Expected: task.Expected}

	line, err := digest.Compute(task.Path, task.Workdir, task.Config.Algorithm, p.onBytes)
	if err != nil {
		out.Err = err
		logger.Debug("hash failed", "path", task.Path, "error", err)
	} else {
		out.Line = line
		logger.Debug("hashed", "path", task.Path)
	}

	if task.Result == nil {
		logger.Warn("outcome dropped: task has no result channel", "path", task.Path)
		return
	}

	select {
	case task.Result <- out:
		return
	default:
	}

	select {
	case task.Result <- out:
	case <-ctx.Done():
		logger.Warn("outcome dropped: receiver gone", "path", task.Path, "error", ctx.Err())
	}
}
