package manifest

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"treesum/internal/digest"
)

const maxLine = 1 << 20

// FileName is the manifest name kept inside a hashed directory,
// e.g. SHA256SUMS.
func FileName(alg digest.Algorithm) string {
	return strings.ToUpper(alg.String()) + "SUMS"
}

// Key normalizes a manifest or enumerated path so that "./a/b", "a/b"
// and "a//b" compare equal.
func Key(p string) string {
	return strings.TrimPrefix(path.Clean(filepath.ToSlash(p)), "./")
}

// Read parses every line of r. Lines that do not match the grammar are
// returned separately, in input order, for the caller to report.
func Read(r io.Reader, alg digest.Algorithm) (records []Record, rejected []string, err error) {
	const errCtx = "reading manifest"

	p, err := NewParser(alg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLine)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, ok := p.Parse(line)
		if !ok {
			rejected = append(rejected, line)
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return records, rejected, nil
}

// Load reads the manifest at file. A missing manifest yields no records
// and no error.
func Load(file string, alg digest.Algorithm) (records []Record, rejected []string, err error) {
	const errCtx = "loading manifest"

	f, err := os.Open(file) // #nosec G304
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", errCtx, err)
	}
	defer func() {
		_ = f.Close()
	}()

	records, rejected, err = Read(f, alg)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %s: %w", errCtx, file, err)
	}
	return records, rejected, nil
}

// Sort orders records by normalized path.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return Key(records[i].Path) < Key(records[j].Path)
	})
}

// Write sorts records by path and overwrites file with them.
func Write(file string, records []Record) error {
	const errCtx = "writing manifest"

	Sort(records)

	var sb strings.Builder
	for _, r := range records {
		sb.WriteString(r.Line())
	}

	if err := os.WriteFile(file, []byte(sb.String()), 0o644); err != nil { // #nosec G306
		return fmt.Errorf("%s: %w", errCtx, err)
	}
	return nil
}
