package walk

import "io"

// Reader presents a Walker as a stream of newline-terminated paths. A
// path that does not fit the caller's buffer is carried over and
// finished on the next call before the walker advances.
type Reader struct {
	w     *Walker
	carry []byte
}

func NewReader(w *Walker) *Reader {
	return &Reader{w: w}
}

func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	if len(r.carry) > 0 {
		n := copy(p, r.carry)
		r.carry = r.carry[n:]
		return n, nil
	}

	path, ok := r.w.Next()
	if !ok {
		return 0, io.EOF
	}

	line := path + "\n"
	n := copy(p, line)
	if n < len(line) {
		r.carry = []byte(line[n:])
	}
	return n, nil
}
