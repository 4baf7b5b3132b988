// Package config holds the run configuration shared read-only by every
// hashing task, and the command-line surface that builds it.
package config

import (
	"errors"
	"fmt"
	"strings"

	"treesum/internal/digest"
)

// ErrInvalidThreads is returned for a negative thread cap.
var ErrInvalidThreads = errors.New("thread cap must not be negative")

// Config is immutable once built and is shared by pointer across all
// workers.
type Config struct {
	Algorithm digest.Algorithm
	// Root is the directory operated on.
	Root string
	// Subdirs runs update and verify independently per first-level
	// subdirectory of Root.
	Subdirs bool
	// Threads caps the worker count. 0 means no cap.
	Threads int
}

// New validates the algorithm name and thread cap.
func New(algorithm, root string, subdirs bool, threads int) (*Config, error) {
	const errCtx = "building config"

	alg, err := digest.ParseAlgorithm(algorithm)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}
	if threads < 0 {
		return nil, fmt.Errorf("%s: %w: %d", errCtx, ErrInvalidThreads, threads)
	}
	if root == "" {
		root = "."
	}

	return &Config{
		Algorithm: alg,
		Root:      root,
		Subdirs:   subdirs,
		Threads:   threads,
	}, nil
}

// Mode selects what the program does with the tree.
type Mode int

const (
	ModeFilter Mode = iota
	ModeUpdate
	ModeVerify
)

func (m Mode) String() string {
	switch m {
	case ModeUpdate:
		return "update"
	case ModeVerify:
		return "verify"
	default:
		return "filter"
	}
}

type LogLevel int

const (
	LogQuiet LogLevel = iota
	LogInfo
	LogProgress
	LogDebug
)

// ParseLogLevel accepts the level names and their numeric shorthands.
// Anything unrecognized is treated as info.
func ParseLogLevel(s string) LogLevel {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "quiet", "0":
		return LogQuiet
	case "progress":
		return LogProgress
	case "debug", "2":
		return LogDebug
	default:
		return LogInfo
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogQuiet:
		return "quiet"
	case LogProgress:
		return "progress"
	case LogDebug:
		return "debug"
	default:
		return "info"
	}
}
