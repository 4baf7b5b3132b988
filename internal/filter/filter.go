// Package filter keeps the manifest lines whose files are present.
package filter

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"treesum/internal/config"
	"treesum/internal/manifest"
	"treesum/internal/walk"
)

type Summary struct {
	Kept     int
	Dropped  int
	Rejected int
}

// Present returns the normalized paths, relative to root, of every
// regular file under root. The walker is consumed as a line stream.
func Present(root string) (map[string]struct{}, error) {
	const errCtx = "listing present files"

	present := map[string]struct{}{}

	sc := bufio.NewScanner(walk.NewReader(walk.NewWalker(root, false)))
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		rel, err := filepath.Rel(root, sc.Text())
		if err != nil {
			continue
		}
		present[manifest.Key(rel)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return present, nil
}

// Run copies to out, in input order, every manifest line from in whose
// path names a file present under cfg.Root.
func Run(cfg *config.Config, in io.Reader, out io.Writer, logger *slog.Logger) (Summary, error) {
	const errCtx = "filtering manifest"

	var sum Summary

	present, err := Present(cfg.Root)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", errCtx, err)
	}

	p, err := manifest.NewParser(cfg.Algorithm)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", errCtx, err)
	}

	bw := bufio.NewWriter(out)
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		line := sc.Text()

		rec, err := p.MustParse(line)
		if err != nil {
			sum.Rejected++
			logger.Debug("skipping line", "error", err)
			continue
		}

		if _, ok := present[manifest.Key(rec.Path)]; !ok {
			sum.Dropped++
			logger.Debug("file not present", "path", rec.Path)
			continue
		}

		if _, err := bw.WriteString(rec.Line()); err != nil {
			return sum, fmt.Errorf("%s: %w", errCtx, err)
		}
		sum.Kept++
	}
	if err := sc.Err(); err != nil {
		return sum, fmt.Errorf("%s: reading input: %w", errCtx, err)
	}
	if err := bw.Flush(); err != nil {
		return sum, fmt.Errorf("%s: %w", errCtx, err)
	}

	logger.Info("filtered manifest", "kept", sum.Kept, "dropped", sum.Dropped, "rejected", sum.Rejected)
	return sum, nil
}
