package siser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"
)

// Reader reads records written with MarshalLine
type Reader struct {
	r *bufio.Reader

	// Data, Name and Timestamp of the last record read by ReadNextData.
	// Over-written by the next read
	Data      []byte
	Name      string
	Timestamp time.Time

	// position of the current record
	CurrRecordPos int64
	// position of the next record
	NextRecordPos int64

	err  error
	done bool
}

// NewReader creates a reader. r is wrapped in bufio.Reader if needed
func NewReader(r io.Reader) *Reader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Reader{r: br}
}

// Done returns true after end of data or an error
func (r *Reader) Done() bool {
	return r.err != nil || r.done
}

// Err returns the error that stopped reading. io.EOF is not an error
func (r *Reader) Err() error {
	return r.err
}

func (r *Reader) badHeader(hdr []byte) bool {
	r.err = fmt.Errorf("unexpected header '%s'", bytes.TrimSpace(hdr))
	return false
}

// ReadNextData reads the next record. Returns false when there
// are no more records, check Err() to see if it was an error.
func (r *Reader) ReadNextData() bool {
	if r.Done() {
		return false
	}
	r.Name = ""
	r.Timestamp = time.Time{}
	r.CurrRecordPos = r.NextRecordPos

	hdr, err := r.r.ReadBytes('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && len(hdr) == 0 {
			r.done = true
		} else if errors.Is(err, io.EOF) {
			r.err = fmt.Errorf("truncated header '%s'", hdr)
		} else {
			r.err = err
		}
		return false
	}
	recSize := int64(len(hdr))
	if !bytes.HasPrefix(hdr, hdrPrefix) {
		return r.badHeader(hdr)
	}
	parts := bytes.SplitN(bytes.TrimSuffix(hdr[len(hdrPrefix):], []byte("\n")), []byte(" "), 3)
	size, err := strconv.Atoi(string(parts[0]))
	if err != nil || size < 0 {
		return r.badHeader(hdr)
	}
	rest := parts[1:]
	// timestamp is optional so a second field that is a number is a timestamp
	if len(rest) > 0 {
		if ms, err := strconv.ParseInt(string(rest[0]), 10, 64); err == nil {
			r.Timestamp = time.UnixMilli(ms)
			rest = rest[1:]
		}
	}
	if len(rest) > 0 {
		r.Name = string(bytes.Join(rest, []byte(" ")))
	}

	// don't keep a big buffer around
	if cap(r.Data) > 1024*1024 {
		r.Data = nil
	}
	if size > cap(r.Data) {
		r.Data = make([]byte, size)
	}
	r.Data = r.Data[:size]
	if _, err = io.ReadFull(r.r, r.Data); err != nil {
		r.err = fmt.Errorf("record '%s' at %d: %w", r.Name, r.CurrRecordPos, err)
		return false
	}
	recSize += int64(size)
	if size > 0 && r.Data[size-1] != '\n' {
		if _, err = r.r.Discard(1); err != nil {
			r.err = fmt.Errorf("record '%s' at %d: %w", r.Name, r.CurrRecordPos, err)
			return false
		}
		recSize++
	}
	r.NextRecordPos += recSize
	return true
}
