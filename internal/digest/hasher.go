package digest

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ChunkSize is the number of bytes fed into the accumulator per read.
const ChunkSize = 1024

// HashError reports a file that could not be opened or read.
type HashError struct {
	Path string
	Err  error
}

func (e *HashError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Path)
}

func (e *HashError) Unwrap() error { return e.Err }

// Sum streams r through a fresh accumulator for alg and returns the
// lowercase hex digest. Reading stops on a short chunk or an empty one,
// whichever comes first. onBytes, if set, receives the size of every
// chunk fed to the accumulator.
func Sum(r io.Reader, alg Algorithm, onBytes func(n int64)) (string, error) {
	h := alg.New()
	buf := make([]byte, ChunkSize)

	for {
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			h.Write(buf[:n])
			if onBytes != nil {
				onBytes(int64(n))
			}
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			break
		}
		if err != nil {
			return "", err
		}
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Compute hashes path, resolved against workdir, and renders the
// manifest line for it. Failures come back as *HashError naming path.
func Compute(path, workdir string, alg Algorithm, onBytes func(n int64)) (string, error) {
	f, err := os.Open(filepath.Join(workdir, path)) // #nosec G304
	if err != nil {
		return "", &HashError{Path: path, Err: err}
	}
	defer func() {
		_ = f.Close()
	}()

	sum, err := Sum(f, alg, onBytes)
	if err != nil {
		return "", &HashError{Path: path, Err: err}
	}

	return RenderLine(sum, path), nil
}

// RenderLine formats a digest and path the way coreutils *sum tools do.
func RenderLine(sum, path string) string {
	return sum + "  " + path + "\n"
}
