package verify_test

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treesum/internal/config"
	"treesum/internal/metrics"
	"treesum/internal/verify"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sha256Hex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o700))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
}

func newConfig(t *testing.T, root string, subdirs bool) *config.Config {
	t.Helper()
	cfg, err := config.New("sha256", root, subdirs, 2)
	require.NoError(t, err)
	return cfg
}

func lines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func run(t *testing.T, cfg *config.Config, verbose bool) (*verify.Result, *metrics.Stats, string) {
	t.Helper()

	plan, err := verify.NewPlan(cfg, discardLogger())
	require.NoError(t, err)

	var out bytes.Buffer
	stats := &metrics.Stats{}
	res, err := verify.Verify(context.Background(), cfg, plan,
		verify.Options{Out: &out, Verbose: verbose, Logger: discardLogger()}, stats, nil)
	require.NoError(t, err)
	return res, stats, out.String()
}

func TestVerify_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		files    map[string]string
		manifest string
		verbose  bool

		wantOK    bool
		wantLines []string
		wantStats metrics.Snapshot
	}{
		{
			name:     "all match",
			files:    map[string]string{"a.txt": "alpha", "d/b.txt": "beta"},
			manifest: sha256Hex("alpha") + "  ./a.txt\n" + sha256Hex("beta") + "  ./d/b.txt\n",
			verbose:  true,
			wantOK:   true,
			wantLines: []string{
				"./a.txt: OK",
				"./d/b.txt: OK",
			},
			wantStats: metrics.Snapshot{Total: 2, Processed: 2, OK: 2, BytesHashed: 9, TotalBytes: 9},
		},
		{
			name:      "matches are silent unless verbose",
			files:     map[string]string{"a.txt": "alpha"},
			manifest:  sha256Hex("alpha") + "  ./a.txt\n",
			wantOK:    true,
			wantStats: metrics.Snapshot{Total: 1, Processed: 1, OK: 1, BytesHashed: 5, TotalBytes: 5},
		},
		{
			name:      "digest comparison ignores case",
			files:     map[string]string{"a.txt": "alpha"},
			manifest:  strings.ToUpper(sha256Hex("alpha")) + "  ./a.txt\n",
			wantOK:    true,
			wantStats: metrics.Snapshot{Total: 1, Processed: 1, OK: 1, BytesHashed: 5, TotalBytes: 5},
		},
		{
			name:     "mismatch missing and untracked",
			files:    map[string]string{"a.txt": "changed", "new.txt": "n"},
			manifest: sha256Hex("alpha") + "  ./a.txt\n" + sha256Hex("gone") + "  ./gone.txt\n",
			wantOK:   false,
			wantLines: []string{
				"./gone.txt: MISSING",
				"./a.txt: FAILED",
				"./new.txt: UNTRACKED",
			},
			wantStats: metrics.Snapshot{
				Total: 1, Processed: 1, Mismatches: 1, Missing: 1, Untracked: 1,
				BytesHashed: 7, TotalBytes: 7,
			},
		},
		{
			name:      "malformed lines are ignored",
			files:     map[string]string{"a.txt": "alpha"},
			manifest:  "not a record\n" + sha256Hex("alpha") + "  ./a.txt\n",
			wantOK:    true,
			wantStats: metrics.Snapshot{Total: 1, Processed: 1, OK: 1, BytesHashed: 5, TotalBytes: 5},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := t.TempDir()
			for rel, content := range tt.files {
				writeFile(t, root, rel, content)
			}
			writeFile(t, root, "SHA256SUMS", tt.manifest)

			res, stats, out := run(t, newConfig(t, root, false), tt.verbose)

			assert.Equal(t, tt.wantOK, res.OK())
			assert.ElementsMatch(t, tt.wantLines, lines(out))

			snap := stats.Snapshot()
			snap.DurationMs = 0
			assert.Equal(t, tt.wantStats, snap)
		})
	}
}

func TestVerify_mismatch_details(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "changed")
	writeFile(t, root, "SHA256SUMS", sha256Hex("alpha")+"  ./a.txt\n")

	res, stats, _ := run(t, newConfig(t, root, false), false)

	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, verify.Mismatch{
		Path:     "./a.txt",
		Expected: sha256Hex("alpha"),
		Computed: sha256Hex("changed"),
	}, res.Mismatches[0])
	assert.Equal(t, int64(1), stats.Failed())
}

func TestVerify_subdirectories(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "one/a.txt", "alpha")
	writeFile(t, root, "one/SHA256SUMS", sha256Hex("alpha")+"  ./a.txt\n")
	writeFile(t, root, "two/b.txt", "beta")
	writeFile(t, root, "two/SHA256SUMS", sha256Hex("wrong")+"  ./b.txt\n")
	writeFile(t, root, "three/c.txt", "gamma")
	writeFile(t, root, "loose.txt", "ignored")

	res, _, out := run(t, newConfig(t, root, true), true)

	assert.False(t, res.OK())
	assert.ElementsMatch(t, []string{
		"./one/a.txt: OK",
		"./two/b.txt: FAILED",
		"./three/c.txt: UNTRACKED",
	}, lines(out))
	assert.Equal(t, []string{"./three/c.txt"}, res.Untracked)
}

func TestNewPlan_no_manifest(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")

	_, err := verify.NewPlan(newConfig(t, root, false), discardLogger())

	assert.ErrorIs(t, err, verify.ErrNoManifest)
}

func TestNewPlan_collects_sizes_and_rejected_lines(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "alpha")
	writeFile(t, root, "b.txt", "bb")
	writeFile(t, root, "SHA256SUMS",
		sha256Hex("alpha")+"  ./a.txt\n"+
			"garbage\n"+
			sha256Hex("bb")+"  ./b.txt\n")

	plan, err := verify.NewPlan(newConfig(t, root, false), discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, plan.Manifests)
	assert.Equal(t, []string{"garbage"}, plan.Rejected)

	res, err := verify.Verify(context.Background(), newConfig(t, root, false), plan,
		verify.Options{Logger: discardLogger()}, nil, nil)
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, []string{"garbage"}, res.Rejected)
	assert.Equal(t, int64(7), plan.TotalBytes)
	assert.Len(t, plan.Items, 2)
	assert.Empty(t, plan.Untracked)
}

func TestVerify_hash_error(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "dir"), 0o700))

	cfg := newConfig(t, root, false)
	plan := &verify.Plan{
		Items:     []verify.Item{{Dir: root, Path: "./dir", Expected: sha256Hex("x")}},
		Manifests: 1,
	}

	var out bytes.Buffer
	stats := &metrics.Stats{}
	res, err := verify.Verify(context.Background(), cfg, plan,
		verify.Options{Out: &out, Logger: discardLogger()}, stats, nil)
	require.NoError(t, err)

	assert.False(t, res.OK())
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "./dir", res.Errors[0].Path)
	assert.Equal(t, "./dir: FAILED open or read\n", out.String())
	assert.Equal(t, int64(1), stats.HashErrors)
}

func TestWriteReport(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, root, "a.txt", "changed")
	writeFile(t, root, "SHA256SUMS", sha256Hex("alpha")+"  ./a.txt\nbroken line\n")

	cfg := newConfig(t, root, false)
	res, stats, _ := run(t, cfg, false)

	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, verify.WriteReport(path, cfg, res, stats.Snapshot()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got verify.Report
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "sha256", got.Algorithm)
	assert.Equal(t, root, got.Root)
	assert.False(t, got.OK)
	assert.Equal(t, int64(1), got.Stats.Mismatches)
	require.NotNil(t, got.Result)
	require.Len(t, got.Result.Mismatches, 1)
	assert.Equal(t, "./a.txt", got.Result.Mismatches[0].Path)
	assert.Equal(t, []string{"broken line"}, got.Result.Rejected)
}
