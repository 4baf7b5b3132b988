package manifest

import "treesum/internal/digest"

// Record is one parsed manifest line.
type Record struct {
	Digest string
	Path   string
}

// Line renders the record back into manifest form, newline included.
func (r Record) Line() string {
	return digest.RenderLine(r.Digest, r.Path)
}
