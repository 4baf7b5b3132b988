// Package update brings manifests in line with the files on disk.
package update

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"treesum/internal/config"
	"treesum/internal/manifest"
	"treesum/internal/pool"
	"treesum/internal/walk"
)

type Summary struct {
	Manifests int
	Added     int
	Removed   int
	Kept      int
	Errors    int
}

type group struct {
	dir     string
	file    string
	records []manifest.Record
	changed bool
	exists  bool
}

// Run updates the manifest of cfg.Root, or of every first-level
// subdirectory when cfg.Subdirs is set. Records for vanished files are
// dropped, files without a record are hashed and added, and existing
// records are kept as they are.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Summary, error) {
	const errCtx = "updating manifests"

	var sum Summary

	parser, err := manifest.NewParser(cfg.Algorithm)
	if err != nil {
		return sum, fmt.Errorf("%s: %w", errCtx, err)
	}
	name := manifest.FileName(cfg.Algorithm)

	found, loose := walk.Groups(cfg.Root, cfg.Subdirs)
	for _, p := range loose {
		logger.Warn("skipping file outside any subdirectory", "path", p)
	}

	groups := make(map[string]*group, len(found))
	var reqs []pool.Request

	for _, fg := range found {
		g := &group{dir: fg.Dir, file: filepath.Join(fg.Dir, name)}
		groups[fg.Dir] = g

		records, rejected, err := manifest.Load(g.file, cfg.Algorithm)
		if err != nil {
			return sum, fmt.Errorf("%s: %w", errCtx, err)
		}
		_, statErr := os.Stat(g.file)
		g.exists = statErr == nil
		for _, line := range rejected {
			logger.Warn("dropping malformed manifest line", "manifest", g.file, "line", line)
			g.changed = true
		}

		present := make(map[string]struct{}, len(fg.Paths))
		for _, p := range fg.Paths {
			present[manifest.Key(p)] = struct{}{}
		}

		known := make(map[string]struct{}, len(records))
		for _, r := range records {
			k := manifest.Key(r.Path)
			if _, ok := present[k]; !ok {
				logger.Info("removing record", "manifest", g.file, "path", r.Path)
				sum.Removed++
				g.changed = true
				continue
			}
			known[k] = struct{}{}
			g.records = append(g.records, r)
			sum.Kept++
		}

		for _, p := range fg.Paths {
			k := manifest.Key(p)
			if k == name {
				continue
			}
			if _, ok := known[k]; ok {
				continue
			}
			reqs = append(reqs, pool.Request{Path: p, Workdir: fg.Dir})
		}
	}

	logger.Debug("hashing new files", "count", len(reqs))

	err = pool.Run(ctx, cfg, pool.Options{Logger: logger}, reqs, func(out pool.Outcome) {
		if out.Err != nil {
			logger.Error("could not hash file", "error", out.Err)
			sum.Errors++
			return
		}
		rec, err := parser.MustParse(out.Line)
		if err != nil {
			logger.Error("unparseable digest line", "error", err)
			sum.Errors++
			return
		}
		g := groups[out.Workdir]
		g.records = append(g.records, rec)
		g.changed = true
		sum.Added++
		logger.Info("adding record", "manifest", g.file, "path", rec.Path)
	})
	if err != nil {
		return sum, fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, fg := range found {
		g := groups[fg.Dir]
		if !g.changed && g.exists {
			continue
		}
		if len(g.records) == 0 && !g.exists {
			continue
		}
		if err := manifest.Write(g.file, g.records); err != nil {
			return sum, fmt.Errorf("%s: %w", errCtx, err)
		}
		sum.Manifests++
	}

	logger.Info("updated manifests",
		"manifests", sum.Manifests,
		"added", sum.Added,
		"removed", sum.Removed,
		"kept", sum.Kept,
		"errors", sum.Errors,
	)
	return sum, nil
}
