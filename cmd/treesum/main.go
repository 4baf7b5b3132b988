// Command treesum records and checks digests of every file under a
// directory.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"

	"treesum/internal/config"
	"treesum/internal/filter"
	"treesum/internal/logging"
	"treesum/internal/metrics"
	"treesum/internal/progress"
	"treesum/internal/update"
	"treesum/internal/verify"
)

var version = "dev"

// errFailed means the run completed but found problems.
var errFailed = errors.New("verification failed")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	// After the first signal the default handling is restored, so a
	// second one kills the process.
	context.AfterFunc(ctx, stop)
	err := run(ctx, os.Args, os.Stdin, os.Stdout, os.Stderr)
	stop()

	switch {
	case err == nil:
	case errors.Is(err, errFailed):
		os.Exit(1)
	default:
		slog.Error("treesum failed", "error", err)
		os.Exit(2)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	program := filepath.Base(args[0])

	opts, err := config.Parse(program, args[1:])
	if err != nil {
		return err
	}
	if opts.Help {
		return opts.Usage(stdout, program, version)
	}
	if opts.Version {
		_, err := fmt.Fprintf(stdout, "%s Version %s\n", program, version)
		return err
	}

	logger := logging.New(stderr, opts.LogLevel)
	slog.SetDefault(logger)
	logger.Debug("starting", "mode", opts.Mode, "algorithm", opts.Algorithm, "root", opts.Root,
		"subdirs", opts.Subdirs, "threads", opts.Threads)

	switch opts.Mode {
	case config.ModeUpdate:
		_, err := update.Run(ctx, opts.Config, logger)
		return err
	case config.ModeVerify:
		return runVerify(ctx, opts, stdout, stderr, logger)
	default:
		_, err := filter.Run(opts.Config, stdin, stdout, logger)
		return err
	}
}

func runVerify(ctx context.Context, opts *config.Options, stdout, stderr io.Writer, logger *slog.Logger) error {
	plan, err := verify.NewPlan(opts.Config, logger)
	if err != nil {
		return err
	}

	stats := &metrics.Stats{}
	stats.Start()

	var bar *progress.Bar
	if opts.LogLevel == config.LogProgress && logging.IsTerminal(stderr) {
		bar = progress.New(stderr, plan.TotalBytes, func() progress.Status {
			return progress.Status{
				Processed:   atomic.LoadInt64(&stats.Processed),
				Total:       atomic.LoadInt64(&stats.Total),
				OK:          atomic.LoadInt64(&stats.OK),
				Failed:      stats.Failed(),
				BytesHashed: atomic.LoadInt64(&stats.BytesHashed),
			}
		})
	}

	out := stdout
	if opts.LogLevel == config.LogQuiet {
		out = io.Discard
	}

	res, err := verify.Verify(ctx, opts.Config, plan, verify.Options{
		Out:     out,
		Verbose: opts.LogLevel == config.LogDebug,
		Logger:  logger,
	}, stats, bar)
	bar.Close()
	stats.Stop()
	if err != nil {
		return err
	}

	if opts.LogLevel == config.LogDebug {
		metrics.Print(stderr, stats)
	}

	if opts.Report != "" {
		if err := verify.WriteReport(opts.Report, opts.Config, res, stats.Snapshot()); err != nil {
			return err
		}
	}

	logger.Info("verified",
		"ok", atomic.LoadInt64(&stats.OK),
		"mismatches", len(res.Mismatches),
		"errors", len(res.Errors),
		"missing", len(res.Missing),
		"untracked", len(res.Untracked),
	)

	if !res.OK() {
		return errFailed
	}
	return nil
}
