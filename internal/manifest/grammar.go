package manifest

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"treesum/internal/digest"
)

// ErrMalformed is returned by Parser.MustParse for lines that do not
// match the grammar of the selected algorithm.
var ErrMalformed = errors.New("malformed manifest line")

// Pattern builds the expression matching one manifest line for alg. It
// captures the fixed-width hex digest and the path up to end of line.
func Pattern(alg digest.Algorithm) (*regexp.Regexp, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %v", digest.ErrUnknownAlgorithm, alg)
	}
	return regexp.MustCompile(fmt.Sprintf(`^([[:xdigit:]]{%d})  (.*)$`, alg.HexWidth())), nil
}

// Parser extracts records for a single algorithm.
type Parser struct {
	re *regexp.Regexp
}

func NewParser(alg digest.Algorithm) (*Parser, error) {
	re, err := Pattern(alg)
	if err != nil {
		return nil, err
	}
	return &Parser{re: re}, nil
}

// Parse matches a single line, with or without its trailing newline.
func (p *Parser) Parse(line string) (Record, bool) {
	line = strings.TrimSuffix(line, "\n")
	m := p.re.FindStringSubmatch(line)
	if m == nil {
		return Record{}, false
	}
	return Record{Digest: m[1], Path: m[2]}, true
}

func (p *Parser) MustParse(line string) (Record, error) {
	rec, ok := p.Parse(line)
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformed, line)
	}
	return rec, nil
}
