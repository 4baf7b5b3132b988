package verify

import "treesum/internal/metrics"

// Item is one manifest record to check.
type Item struct {
	Dir      string
	Path     string
	Expected string
}

// Plan is everything verify will look at, gathered before any hashing
// so that the total byte count is known up front.
type Plan struct {
	Items     []Item
	Missing   []string
	Untracked []string
	Rejected  []string
	// Manifests counts the manifests found.
	Manifests  int
	TotalBytes int64
}

type Mismatch struct {
	Path     string `json:"path"`
	Expected string `json:"expected"`
	Computed string `json:"computed"`
}

type FileError struct {
	Path  string `json:"path"`
	Error string `json:"error"`
}

type Result struct {
	Mismatches []Mismatch  `json:"mismatches"`
	Errors     []FileError `json:"errors"`
	Missing    []string    `json:"missing"`
	Untracked  []string    `json:"untracked"`
	// Rejected holds manifest lines that are not records. They are
	// reported but do not fail the run.
	Rejected   []string    `json:"rejected"`
}

// OK reports whether every record matched its file.
func (r *Result) OK() bool {
	return len(r.Mismatches) == 0 && len(r.Errors) == 0 && len(r.Missing) == 0
}

// Report is the JSON document written by WriteReport.
type Report struct {
	Algorithm string           `json:"algorithm"`
	Root      string           `json:"root"`
	OK        bool             `json:"ok"`
	Stats     metrics.Snapshot `json:"stats"`
	Result    *Result          `json:"result"`
}
