// Package walk enumerates the regular files beneath a directory lazily,
// one directory scan at a time.
package walk

import (
	"os"
	"path/filepath"
	"strings"
)

// Entry is one enumerated file.
type Entry struct {
	// Group is the first directory component below the root when the
	// walker rebases paths. It is empty when rebasing is off and for
	// files sitting directly in the root.
	Group string
	// Path is the rendered path: the root joined with the file's
	// relative path, or "./" plus the path below Group when rebasing.
	Path string
}

// Walker is a single-pass, depth-first enumeration driven by two stacks
// of pending files and pending directories. Nothing below a directory is
// read until the directory is popped.
type Walker struct {
	root   string
	rebase bool

	files []string // root-relative
	dirs  []string // root-relative
}

// NewWalker scans root and returns a walker positioned before its first
// file. With rebase set, paths are expressed relative to the first
// subdirectory they live in.
func NewWalker(root string, rebase bool) *Walker {
	w := &Walker{root: root, rebase: rebase}
	w.scan("")
	return w
}

// scan partitions the immediate children of dir. Errors truncate the
// subtree.
func (w *Walker) scan(dir string) {
	entries, err := os.ReadDir(filepath.Join(w.root, dir))
	if err != nil {
		return
	}

	for _, e := range entries {
		rel := e.Name()
		if dir != "" {
			rel = dir + string(filepath.Separator) + e.Name()
		}

		switch {
		case e.IsDir():
			w.dirs = append(w.dirs, rel)
		case e.Type().IsRegular():
			w.files = append(w.files, rel)
		}
	}
}

// NextEntry returns the next file, or false once the tree is exhausted.
func (w *Walker) NextEntry() (Entry, bool) {
	for {
		if n := len(w.files); n > 0 {
			rel := w.files[n-1]
			w.files = w.files[:n-1]
			return w.render(rel), true
		}

		n := len(w.dirs)
		if n == 0 {
			return Entry{}, false
		}
		dir := w.dirs[n-1]
		w.dirs = w.dirs[:n-1]
		w.scan(dir)
	}
}

// Next is NextEntry without the group.
func (w *Walker) Next() (string, bool) {
	e, ok := w.NextEntry()
	return e.Path, ok
}

func (w *Walker) render(rel string) Entry {
	const sep = string(filepath.Separator)

	if !w.rebase {
		if strings.HasSuffix(w.root, sep) {
			return Entry{Path: w.root + rel}
		}
		return Entry{Path: w.root + sep + rel}
	}

	i := strings.Index(rel, sep)
	if i < 0 {
		return Entry{Path: "." + sep + rel}
	}
	return Entry{Group: rel[:i], Path: "." + rel[i:]}
}
