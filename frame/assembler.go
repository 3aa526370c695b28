package frame

import (
	"bytes"
	"fmt"
	"io"

	"github.com/takiaine/nmea-navsat-driver/errors"
)

// Delimiter terminates every record on the wire.
const Delimiter byte = '\n'

// DefaultMaxChunk is the read size used when Options.MaxChunk is zero.
const DefaultMaxChunk = 4096

// Record is one delimiter-terminated unit with the delimiter stripped.
// A Record never aliases the assembler's internal buffer.
type Record []byte

// String returns the record as text.
func (r Record) String() string {
	return string(r)
}

// Options configures an Assembler.
type Options struct {
	// MaxChunk bounds a single read from the connection.
	MaxChunk int
	// MaxRecord bounds the unterminated remainder kept between reads.
	// Zero means unlimited.
	MaxRecord int
}

// Assembler accumulates stream bytes and extracts complete records.
type Assembler struct {
	buf       []byte
	chunk     []byte
	maxRecord int
}

// NewAssembler creates an Assembler with an empty buffer.
func NewAssembler(opts Options) *Assembler {
	if opts.MaxChunk <= 0 {
		opts.MaxChunk = DefaultMaxChunk
	}
	if opts.MaxRecord < 0 {
		opts.MaxRecord = 0
	}
	return &Assembler{
		chunk:     make([]byte, opts.MaxChunk),
		maxRecord: opts.MaxRecord,
	}
}

// Pull performs one bounded read from r and returns every record completed by it.
//
// Any error is a connection error classified Transient: a read error, io.EOF,
// or a read that returns no bytes. Bytes delivered together with an error are
// still buffered and the records they complete are returned with the error.
func (a *Assembler) Pull(r io.Reader) ([]Record, error) {
	n, err := r.Read(a.chunk)

	var records []Record
	if n > 0 {
		records = a.Feed(a.chunk[:n])
	}

	switch {
	case err == nil && n == 0:
		return records, errors.WrapTransient(errors.ErrStreamClosed, "frame-assembler", "Pull", "zero-byte read")
	case err == io.EOF:
		return records, errors.WrapTransient(errors.ErrStreamClosed, "frame-assembler", "Pull", "read")
	case err != nil && errors.IsTimeout(err):
		return records, errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrConnectionTimeout, err), "frame-assembler", "Pull", "read")
	case err != nil:
		return records, errors.WrapTransient(
			fmt.Errorf("%w: %w", errors.ErrConnectionLost, err), "frame-assembler", "Pull", "read")
	}

	if a.maxRecord > 0 && len(a.buf) > a.maxRecord {
		return records, errors.WrapTransient(errors.ErrRecordTooLarge, "frame-assembler", "Pull", "buffer limit")
	}
	return records, nil
}

// Feed appends p to the buffer and extracts every complete record.
// Bytes after the last delimiter stay buffered as the prefix of the next record.
func (a *Assembler) Feed(p []byte) []Record {
	// Only the new bytes can contain a delimiter; the retained prefix never does.
	scanFrom := len(a.buf)
	a.buf = append(a.buf, p...)

	if bytes.IndexByte(a.buf[scanFrom:], Delimiter) < 0 {
		return nil
	}

	var records []Record
	start := 0
	for {
		i := bytes.IndexByte(a.buf[start:], Delimiter)
		if i < 0 {
			break
		}
		rec := make(Record, i)
		copy(rec, a.buf[start:start+i])
		records = append(records, rec)
		start += i + 1
	}

	// Compact the remainder to the front of the buffer.
	rest := copy(a.buf, a.buf[start:])
	a.buf = a.buf[:rest]
	return records
}

// Reset discards all buffered bytes.
func (a *Assembler) Reset() {
	a.buf = a.buf[:0]
}

// Buffered returns the number of bytes retained after the last delimiter.
func (a *Assembler) Buffered() int {
	return len(a.buf)
}

// Pending returns a copy of the retained bytes.
func (a *Assembler) Pending() []byte {
	return bytes.Clone(a.buf)
}
