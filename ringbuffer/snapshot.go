package ringbuffer

import (
	"bytes"
	"io"
)

// Snapshot is an immutable view of the log taken at one instant. Records are
// never modified after they are appended, so a snapshot shares their storage
// and stays valid after later appends or evictions.
type Snapshot struct {
	offset int
	chunks [][]byte
	size   int
}

// Offset returns the global offset the snapshot starts at.
func (s *Snapshot) Offset() int {
	return s.offset
}

// Len returns the number of bytes in the snapshot.
func (s *Snapshot) Len() int {
	return s.size
}

// Bytes returns a copy of the snapshot contents.
func (s *Snapshot) Bytes() []byte {
	out := make([]byte, 0, s.size)
	for _, c := range s.chunks {
		out = append(out, c...)
	}
	return out
}

// NewReader returns a fresh reader positioned at the start of the snapshot.
// Each call restarts the read.
func (s *Snapshot) NewReader() io.Reader {
	readers := make([]io.Reader, 0, len(s.chunks))
	for _, c := range s.chunks {
		readers = append(readers, bytes.NewReader(c))
	}
	return io.MultiReader(readers...)
}

// WriteTo writes the snapshot to w, retrying short writes until every byte
// is sent or w returns an error.
func (s *Snapshot) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, c := range s.chunks {
		for len(c) > 0 {
			n, err := w.Write(c)
			total += int64(n)
			if err != nil {
				return total, err
			}
			if n == 0 {
				return total, io.ErrShortWrite
			}
			c = c[n:]
		}
	}
	return total, nil
}
