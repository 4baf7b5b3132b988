package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"treesum/internal/config"
	"treesum/internal/digest"
)

func TestParse_TableDriven(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		args      []string
		wantAlg   digest.Algorithm
		wantRoot  string
		wantMode  config.Mode
		wantLevel config.LogLevel
		wantSub   bool
		wantT     int
	}{
		{
			name:      "defaults",
			args:      nil,
			wantAlg:   digest.SHA1,
			wantRoot:  ".",
			wantMode:  config.ModeFilter,
			wantLevel: config.LogInfo,
		},
		{
			name:      "short flags",
			args:      []string{"-a", "md5", "-s", "-T", "4", "-u", "data"},
			wantAlg:   digest.MD5,
			wantRoot:  "data",
			wantMode:  config.ModeUpdate,
			wantLevel: config.LogInfo,
			wantSub:   true,
			wantT:     4,
		},
		{
			name:      "long flags with equals",
			args:      []string{"--algorithm=SHA512", "--verify", "--loglevel=progress", "--threads=2"},
			wantAlg:   digest.SHA512,
			wantRoot:  ".",
			wantMode:  config.ModeVerify,
			wantLevel: config.LogProgress,
			wantT:     2,
		},
		{
			name:      "aliases",
			args:      []string{"--algo", "sha224", "--subdirectories", "--log-level", "debug"},
			wantAlg:   digest.SHA224,
			wantRoot:  ".",
			wantMode:  config.ModeFilter,
			wantLevel: config.LogDebug,
			wantSub:   true,
		},
		{
			name:      "quiet wins",
			args:      []string{"--loglevel", "debug", "--quiet"},
			wantAlg:   digest.SHA1,
			wantRoot:  ".",
			wantLevel: config.LogQuiet,
		},
		{
			name:      "unknown loglevel falls back to info",
			args:      []string{"--loglevel", "chatty"},
			wantAlg:   digest.SHA1,
			wantRoot:  ".",
			wantLevel: config.LogInfo,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			opts, err := config.Parse("treesum", tt.args)

			require.NoError(t, err)
			assert.Equal(t, tt.wantAlg, opts.Algorithm)
			assert.Equal(t, tt.wantRoot, opts.Root)
			assert.Equal(t, tt.wantMode, opts.Mode)
			assert.Equal(t, tt.wantLevel, opts.LogLevel)
			assert.Equal(t, tt.wantSub, opts.Subdirs)
			assert.Equal(t, tt.wantT, opts.Threads)
		})
	}
}

func TestParse_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		args   []string
		target error
	}{
		{"unknown algorithm", []string{"-a", "blake3"}, digest.ErrUnknownAlgorithm},
		{"negative threads", []string{"--threads=-1"}, config.ErrInvalidThreads},
		{"both modes", []string{"-u", "-v"}, nil},
		{"two directories", []string{"a", "b"}, nil},
		{"unknown flag", []string{"--frobnicate"}, nil},
		{"threads not a number", []string{"-T", "many"}, nil},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := config.Parse("treesum", tt.args)

			require.Error(t, err)
			if tt.target != nil {
				assert.ErrorIs(t, err, tt.target)
			}
		})
	}
}

func TestParse_help_skips_validation(t *testing.T) {
	t.Parallel()

	opts, err := config.Parse("treesum", []string{"-h", "-a", "nope"})
	require.NoError(t, err)
	assert.True(t, opts.Help)

	var buf bytes.Buffer
	require.NoError(t, opts.Usage(&buf, "treesum", "1.2.3"))
	assert.Contains(t, buf.String(), "treesum Version 1.2.3")
	assert.Contains(t, buf.String(), "--algorithm")
	assert.NotContains(t, buf.String(), "--algo ")
}

func TestParse_config_file(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "treesum.yaml")
	require.NoError(t, os.WriteFile(p, []byte("algorithm: sha256\nthreads: 3\nsubdirs: true\nloglevel: debug\n"), 0o600))

	opts, err := config.Parse("treesum", []string{"--config", p})
	require.NoError(t, err)
	assert.Equal(t, digest.SHA256, opts.Algorithm)
	assert.Equal(t, 3, opts.Threads)
	assert.True(t, opts.Subdirs)
	assert.Equal(t, config.LogDebug, opts.LogLevel)

	opts, err = config.Parse("treesum", []string{"--config", p, "-a", "md5", "--threads", "0"})
	require.NoError(t, err)
	assert.Equal(t, digest.MD5, opts.Algorithm)
	assert.Equal(t, 0, opts.Threads)
}

func TestParse_config_file_bad_algorithm(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "treesum.yaml")
	require.NoError(t, os.WriteFile(p, []byte("algorithm: crc32\n"), 0o600))

	_, err := config.Parse("treesum", []string{"--config", p})

	assert.ErrorIs(t, err, digest.ErrUnknownAlgorithm)
}

func TestParse_missing_config_file(t *testing.T) {
	t.Parallel()

	_, err := config.Parse("treesum", []string{"--config", filepath.Join(t.TempDir(), "none.yaml")})

	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFile_jsonc(t *testing.T) {
	t.Parallel()

	p := filepath.Join(t.TempDir(), "treesum.jsonc")
	require.NoError(t, os.WriteFile(p, []byte(`{
	// hash with md5 on four workers
	"algorithm": "md5",
	"threads": 4,
}`), 0o600))

	f, err := config.LoadFile(p)
	require.NoError(t, err)
	assert.Equal(t, "md5", f.Algorithm)
	require.NotNil(t, f.Threads)
	assert.Equal(t, 4, *f.Threads)
	assert.Nil(t, f.Subdirs)

	opts, err := config.Parse("treesum", []string{"--config", p})
	require.NoError(t, err)
	assert.Equal(t, digest.MD5, opts.Algorithm)
}
