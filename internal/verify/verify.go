package verify

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync/atomic"

	json "github.com/goccy/go-json"

	"treesum/internal/config"
	"treesum/internal/manifest"
	"treesum/internal/metrics"
	"treesum/internal/pool"
	"treesum/internal/progress"
)

type Options struct {
	// Out receives one line per checked file in the style of
	// `sha1sum -c`.
	Out io.Writer
	// Verbose also prints files that matched.
	Verbose bool
	Logger  *slog.Logger
}

// Verify hashes every planned item and compares it with its recorded
// digest. stats and bar may be nil.
func Verify(ctx context.Context, cfg *config.Config, plan *Plan, opts Options, stats *metrics.Stats, bar *progress.Bar) (*Result, error) {
	const errCtx = "verifying"

	if stats == nil {
		stats = &metrics.Stats{}
	}
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	parser, err := manifest.NewParser(cfg.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	atomic.StoreInt64(&stats.Total, int64(len(plan.Items)))
	atomic.StoreInt64(&stats.TotalBytes, plan.TotalBytes)
	atomic.StoreInt64(&stats.Missing, int64(len(plan.Missing)))
	atomic.StoreInt64(&stats.Untracked, int64(len(plan.Untracked)))

	res := &Result{
		Missing:   plan.Missing,
		Untracked: plan.Untracked,
		Rejected:  plan.Rejected,
	}

	for _, p := range plan.Missing {
		fmt.Fprintf(out, "%s: MISSING\n", p)
	}

	reqs := make([]pool.Request, 0, len(plan.Items))
	for _, it := range plan.Items {
		reqs = append(reqs, pool.Request{Path: it.Path, Workdir: it.Dir, Expected: it.Expected})
	}

	onBytes := func(n int64) {
		stats.AddBytes(n)
		bar.AddBytes(n)
	}

	err = pool.Run(ctx, cfg, pool.Options{Logger: logger, OnBytes: onBytes}, reqs, func(o pool.Outcome) {
		defer atomic.AddInt64(&stats.Processed, 1)

		name := display(cfg, o.Workdir, o.Path)

		if o.Err != nil {
			atomic.AddInt64(&stats.HashErrors, 1)
			res.Errors = append(res.Errors, FileError{Path: name, Error: o.Err.Error()})
			logger.Warn("could not hash file", "error", o.Err)
			fmt.Fprintf(out, "%s: FAILED open or read\n", name)
			return
		}

		rec, ok := parser.Parse(o.Line)
		if !ok || !strings.EqualFold(rec.Digest, strings.TrimSpace(o.Expected)) {
			atomic.AddInt64(&stats.Mismatches, 1)
			res.Mismatches = append(res.Mismatches, Mismatch{
				Path:     name,
				Expected: o.Expected,
				Computed: rec.Digest,
			})
			fmt.Fprintf(out, "%s: FAILED\n", name)
			return
		}

		atomic.AddInt64(&stats.OK, 1)
		if opts.Verbose {
			fmt.Fprintf(out, "%s: OK\n", name)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, p := range plan.Untracked {
		fmt.Fprintf(out, "%s: UNTRACKED\n", p)
	}

	sort.Slice(res.Mismatches, func(i, j int) bool { return res.Mismatches[i].Path < res.Mismatches[j].Path })
	sort.Slice(res.Errors, func(i, j int) bool { return res.Errors[i].Path < res.Errors[j].Path })

	return res, nil
}

// WriteReport writes a JSON summary of a verify run to path.
func WriteReport(path string, cfg *config.Config, res *Result, snap metrics.Snapshot) error {
	const errCtx = "writing report"

	data, err := json.MarshalIndent(Report{
		Algorithm: cfg.Algorithm.String(),
		Root:      cfg.Root,
		OK:        res.OK(),
		Stats:     snap,
		Result:    res,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil { // #nosec G306
		return fmt.Errorf("%s: %w", errCtx, err)
	}
	return nil
}
