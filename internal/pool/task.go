package pool

import "treesum/internal/config"

// Task asks for one file's digest.
type Task struct {
	// Path is resolved against Workdir and echoed back in the outcome.
	Path    string
	Workdir string
	Config  *config.Config
	// Expected is the digest the file should have, empty if the caller
	// only wants the digest computed.
	Expected string
	// Result receives exactly one Outcome for this task.
	Result chan<- Outcome
}

// Outcome is delivered once per task. Either Line is set or Err holds a
// *digest.HashError.
type Outcome struct {
	Line     string
	Expected string
	Path     string
	Workdir  string
	Err      error
}
