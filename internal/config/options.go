package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"
)

// Options is everything the command line decides. Config is the part
// the hashing engine sees.
type Options struct {
	*Config

	Mode       Mode
	LogLevel   LogLevel
	Help       bool
	Version    bool
	ConfigFile string
	// Report, when set, receives a JSON summary of a verify run.
	Report string

	flags *pflag.FlagSet
}

// File is the optional defaults file. Explicit flags win over it.
type File struct {
	Algorithm string `yaml:"algorithm" json:"algorithm"`
	Threads   *int   `yaml:"threads" json:"threads"`
	Subdirs   *bool  `yaml:"subdirs" json:"subdirs"`
	LogLevel  string `yaml:"loglevel" json:"loglevel"`
}

// LoadFile reads a defaults file. Files ending in .json or .jsonc are
// JSON with comments and trailing commas allowed, anything else is YAML.
func LoadFile(path string) (*File, error) {
	const errCtx = "loading config file"

	data, err := os.ReadFile(path) // #nosec G304 -- path from CLI flag
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		err = json.Unmarshal(jsonc.ToJSON(data), &f)
	default:
		err = yaml.Unmarshal(data, &f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %s: %w", errCtx, path, err)
	}
	return &f, nil
}

// Parse builds Options from args, which exclude the program name. The
// algorithm is validated here so that an unknown name never reaches the
// worker pool.
func Parse(program string, args []string) (*Options, error) {
	const errCtx = "parsing arguments"

	var (
		algorithm string
		subdirs   bool
		logLevel  string
		quiet     bool
		threads   int
		update    bool
		verify    bool
		opts      Options
	)

	fs := pflag.NewFlagSet(program, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false

	fs.StringVarP(&algorithm, "algorithm", "a", "sha1",
		"hash files with ALGORITHM (sha1, md5, sha224, sha256, sha384, sha512)")
	fs.StringVar(&algorithm, "algo", "sha1", "")
	fs.BoolVarP(&subdirs, "subdirs", "s", false,
		"operate on every subdirectory of DIRECTORY independently (update and verify)")
	fs.BoolVar(&subdirs, "subdir", false, "")
	fs.BoolVar(&subdirs, "subdirectories", false, "")
	fs.StringVar(&logLevel, "loglevel", "info",
		"output detail: quiet, info, progress (verify only) or debug")
	fs.StringVar(&logLevel, "log-level", "info", "")
	fs.StringVar(&logLevel, "log_level", "info", "")
	fs.BoolVar(&quiet, "quiet", false, "same as --loglevel quiet")
	fs.IntVarP(&threads, "threads", "T", 0,
		"spawn at most THREADS workers (0: no cap)")
	fs.BoolVarP(&update, "update", "u", false, "switch to update mode")
	fs.BoolVarP(&verify, "verify", "v", false, "switch to verify mode")
	fs.StringVar(&opts.ConfigFile, "config", "", "YAML or JSONC file with default settings")
	fs.StringVar(&opts.Report, "report", "", "write a JSON verify report to FILE")
	fs.BoolVarP(&opts.Help, "help", "h", false, "show this help message")
	fs.BoolVarP(&opts.Version, "version", "V", false, "show version")

	for _, hidden := range []string{"algo", "subdir", "subdirectories", "log-level", "log_level"} {
		_ = fs.MarkHidden(hidden)
	}

	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}
	opts.flags = fs

	if opts.Help || opts.Version {
		return &opts, nil
	}

	if opts.ConfigFile != "" {
		file, err := LoadFile(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}
		if file.Algorithm != "" && !changed(fs, "algorithm", "algo") {
			algorithm = file.Algorithm
		}
		if file.Threads != nil && !changed(fs, "threads") {
			threads = *file.Threads
		}
		if file.Subdirs != nil && !changed(fs, "subdirs", "subdir", "subdirectories") {
			subdirs = *file.Subdirs
		}
		if file.LogLevel != "" && !changed(fs, "loglevel", "log-level", "log_level", "quiet") {
			logLevel = file.LogLevel
		}
	}

	if update && verify {
		return nil, fmt.Errorf("%s: only one of --update or --verify may be given", errCtx)
	}
	switch {
	case update:
		opts.Mode = ModeUpdate
	case verify:
		opts.Mode = ModeVerify
	}

	opts.LogLevel = ParseLogLevel(logLevel)
	if quiet {
		opts.LogLevel = LogQuiet
	}

	root := "."
	switch rest := fs.Args(); len(rest) {
	case 0:
	case 1:
		root = rest[0]
	default:
		return nil, fmt.Errorf("%s: expected at most one DIRECTORY, got %d", errCtx, len(rest))
	}

	cfg, err := New(algorithm, root, subdirs, threads)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}
	opts.Config = cfg

	return &opts, nil
}

func changed(fs *pflag.FlagSet, names ...string) bool {
	for _, n := range names {
		if fs.Changed(n) {
			return true
		}
	}
	return false
}

// Usage writes the help text.
func (o *Options) Usage(w io.Writer, program, version string) error {
	if o.flags == nil {
		return errors.New("usage: options were not built by Parse")
	}
	_, err := fmt.Fprintf(w, "%s Version %s\n\nUsage:\n %s [OPTION] [DIRECTORY]\n\nArguments:\n%s",
		program, version, program, o.flags.FlagUsages())
	return err
}
