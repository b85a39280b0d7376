package frontend

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"

	"github.com/cu-ecen-aeld/assignments-3-and-later-amasini0/ringbuffer"
)

// SeekDirectivePrefix marks a line that repositions the read instead of
// being stored: "AESDCHAR_IOCSEEKTO:<index>,<offset>\n".
const SeekDirectivePrefix = "AESDCHAR_IOCSEEKTO:"

var (
	// ErrPartialRecord is returned when the peer closes before sending a newline.
	ErrPartialRecord = errors.New("connection closed before end of record")
	// ErrMalformedDirective is returned for a seek directive that does not parse.
	ErrMalformedDirective = errors.New("malformed seek directive")
)

// TransportError wraps a receive or send failure on a connection.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SeekDirective addresses a byte by live record index and offset within it.
type SeekDirective struct {
	Index  int
	Offset int
}

// ParseSeekDirective reports whether line is a seek directive and, if so,
// decodes it. line includes its trailing newline.
func ParseSeekDirective(line []byte) (SeekDirective, bool, error) {
	if !bytes.HasPrefix(line, []byte(SeekDirectivePrefix)) {
		return SeekDirective{}, false, nil
	}

	body := bytes.TrimSuffix(line[len(SeekDirectivePrefix):], []byte("\n"))
	sep := bytes.IndexByte(body, ',')
	if sep < 0 {
		return SeekDirective{}, true, errors.Wrapf(ErrMalformedDirective, "missing ',' in %q", body)
	}

	index, err := strconv.ParseUint(string(body[:sep]), 10, 31)
	if err != nil {
		return SeekDirective{}, true, errors.Wrapf(ErrMalformedDirective, "record index: %v", err)
	}
	offset, err := strconv.ParseUint(string(body[sep+1:]), 10, 31)
	if err != nil {
		return SeekDirective{}, true, errors.Wrapf(ErrMalformedDirective, "byte offset: %v", err)
	}
	return SeekDirective{Index: int(index), Offset: int(offset)}, true, nil
}

// readRecord reads up to and including the first newline. Bytes after the
// newline are ignored. maxSize of 0 means no limit on the record length.
func readRecord(r *bufio.Reader, maxSize int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		line = append(line, chunk...)
		if maxSize > 0 && len(line) > maxSize {
			return nil, errors.Wrapf(ringbuffer.ErrAllocation,
				"record exceeds %d bytes", maxSize)
		}
		switch {
		case err == nil:
			return line, nil
		case errors.Is(err, bufio.ErrBufferFull):
			continue
		case errors.Is(err, io.EOF):
			return nil, errors.Wrapf(ErrPartialRecord, "%d bytes received", len(line))
		default:
			return nil, &TransportError{Op: "recv", Err: err}
		}
	}
}
