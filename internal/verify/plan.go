package verify

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"treesum/internal/config"
	"treesum/internal/manifest"
	"treesum/internal/walk"
)

// ErrNoManifest is returned when there is nothing to verify against.
var ErrNoManifest = errors.New("no manifest found")

// NewPlan reads the manifest of cfg.Root, or of each first-level
// subdirectory, and sorts its records into files to hash and files that
// are gone. Present files without a record are listed as untracked.
func NewPlan(cfg *config.Config, logger *slog.Logger) (*Plan, error) {
	const errCtx = "planning verification"

	name := manifest.FileName(cfg.Algorithm)
	plan := &Plan{}

	groups, loose := walk.Groups(cfg.Root, cfg.Subdirs)
	for _, p := range loose {
		logger.Warn("skipping file outside any subdirectory", "path", p)
	}

	for _, g := range groups {
		file := filepath.Join(g.Dir, name)
		if _, err := os.Stat(file); err != nil {
			logger.Warn("no manifest", "dir", g.Dir, "error", err)
			for _, p := range g.Paths {
				plan.Untracked = append(plan.Untracked, display(cfg, g.Dir, p))
			}
			continue
		}

		records, rejected, err := manifest.Load(file, cfg.Algorithm)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}
		plan.Manifests++
		for _, line := range rejected {
			logger.Warn("malformed manifest line", "manifest", file, "line", line)
			plan.Rejected = append(plan.Rejected, line)
		}

		tracked := make(map[string]struct{}, len(records))
		for _, r := range records {
			tracked[manifest.Key(r.Path)] = struct{}{}

			st, err := os.Stat(filepath.Join(g.Dir, r.Path))
			if err != nil || !st.Mode().IsRegular() {
				plan.Missing = append(plan.Missing, display(cfg, g.Dir, r.Path))
				continue
			}
			plan.Items = append(plan.Items, Item{
				Dir:      g.Dir,
				Path:     r.Path,
				Expected: r.Digest,
			})
			plan.TotalBytes += st.Size()
		}

		for _, p := range g.Paths {
			k := manifest.Key(p)
			if k == name {
				continue
			}
			if _, ok := tracked[k]; !ok {
				plan.Untracked = append(plan.Untracked, display(cfg, g.Dir, p))
			}
		}
	}

	if plan.Manifests == 0 {
		return nil, fmt.Errorf("%s: %w: %s under %s", errCtx, ErrNoManifest, name, cfg.Root)
	}

	sort.Strings(plan.Missing)
	sort.Strings(plan.Untracked)
	return plan, nil
}

// display is how a file is named in output: as recorded for a single
// manifest, prefixed with its subdirectory otherwise.
func display(cfg *config.Config, dir, path string) string {
	if !cfg.Subdirs {
		return path
	}
	rel, err := filepath.Rel(cfg.Root, filepath.Join(dir, path))
	if err != nil {
		return filepath.Join(dir, path)
	}
	return "." + string(filepath.Separator) + rel
}
