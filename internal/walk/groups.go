package walk

import (
	"path/filepath"
	"sort"
)

// Group is the set of files one manifest covers.
type Group struct {
	// Dir is the directory paths are relative to.
	Dir string
	// Paths are "./"-prefixed and relative to Dir.
	Paths []string
}

// Groups enumerates root once. Without subdirs everything belongs to a
// single group rooted at root. With subdirs each first-level
// subdirectory is its own group and files sitting directly in root are
// returned as loose instead.
func Groups(root string, subdirs bool) (groups []Group, loose []string) {
	const sep = string(filepath.Separator)

	byDir := map[string]*Group{}
	w := NewWalker(root, subdirs)

	for {
		e, ok := w.NextEntry()
		if !ok {
			break
		}

		if !subdirs {
			rel, err := filepath.Rel(root, e.Path)
			if err != nil {
				continue
			}
			add(byDir, root, "."+sep+rel)
			continue
		}

		if e.Group == "" {
			loose = append(loose, e.Path)
			continue
		}
		add(byDir, filepath.Join(root, e.Group), e.Path)
	}

	for _, g := range byDir {
		sort.Strings(g.Paths)
		groups = append(groups, *g)
	}
	sort.Slice(groups, func(i, j int) bool { return groups[i].Dir < groups[j].Dir })
	sort.Strings(loose)

	return groups, loose
}

func add(byDir map[string]*Group, dir, path string) {
	g, ok := byDir[dir]
	if !ok {
		g = &Group{Dir: dir}
		byDir[dir] = g
	}
	g.Paths = append(g.Paths, path)
}
