package ply

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
)

// Writer writes PLY file in a single pass: header and then elements
// in the order declared in the header. Rows are streamed so memory
// use doesn't depend on number of rows.
type Writer struct {
	h     *Header
	w     *bufio.Writer
	order binary.ByteOrder

	// index of the next element to write
	next          int
	headerWritten bool

	line []byte
	tmp  [8]byte
	err  error
}

// NewWriter creates a writer of h to w
func NewWriter(w io.Writer, h *Header) *Writer {
	res := &Writer{
		h: h,
		w: bufio.NewWriterSize(w, 64*1024),
	}
	switch h.Format {
	case BinaryBigEndian:
		res.order = binary.BigEndian
	default:
		res.order = binary.LittleEndian
	}
	return res
}

func (w *Writer) setErr(err error) error {
	if w.err == nil {
		w.err = err
	}
	return w.err
}

// WriteHeader writes the header. Called by WriteElement if needed.
func (w *Writer) WriteHeader() error {
	if w.err != nil {
		return w.err
	}
	if w.headerWritten {
		return nil
	}
	if _, err := w.h.WriteTo(w.w); err != nil {
		return w.setErr(err)
	}
	w.headerWritten = true
	return nil
}

// WriteElement writes all rows of the next element. Elements must be
// written in the order of the header.
func (w *Writer) WriteElement(name string, rows Rows) error {
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if w.next >= len(w.h.Elements) {
		return w.setErr(fmt.Errorf("%w: element '%s' not declared in header", ErrCountMismatch, name))
	}
	e := w.h.Elements[w.next]
	if e.Name != name {
		return w.setErr(fmt.Errorf("expected element '%s', got '%s'", e.Name, name))
	}
	n := 0
	if rows != nil {
		n = rows.Len()
	}
	if n != e.Count {
		return w.setErr(fmt.Errorf("%w: element '%s' declares %d rows, got %d", ErrCountMismatch, e.Name, e.Count, n))
	}
	for row := 0; row < n; row++ {
		var err error
		if w.h.Format.IsBinary() {
			err = w.writeBinaryRow(e, rows, row)
		} else {
			err = w.writeASCIIRow(e, rows, row)
		}
		if err != nil {
			return w.setErr(err)
		}
	}
	w.next++
	return nil
}

func (w *Writer) writeASCIIRow(e *Element, rows Rows, row int) error {
	b := w.line[:0]
	for i := range e.Properties {
		p := &e.Properties[i]
		vals := rows.Values(row, i)
		if err := checkValues(e, p, row, vals); err != nil {
			return err
		}
		if p.List {
			if len(b) > 0 {
				b = append(b, ' ')
			}
			b = strconv.AppendInt(b, int64(len(vals)), 10)
		}
		for _, v := range vals {
			if len(b) > 0 {
				b = append(b, ' ')
			}
			b = appendValue(b, p.Type, v)
		}
	}
	b = append(b, '\n')
	w.line = b
	_, err := w.w.Write(b)
	return ioErr(err)
}

func (w *Writer) writeBinaryRow(e *Element, rows Rows, row int) error {
	for i := range e.Properties {
		p := &e.Properties[i]
		vals := rows.Values(row, i)
		if err := checkValues(e, p, row, vals); err != nil {
			return err
		}
		if p.List {
			w.putValue(p.CountType, float64(len(vals)))
		}
		for _, v := range vals {
			w.putValue(p.Type, v)
		}
	}
	return w.err
}

func (w *Writer) putValue(t ValueType, v float64) {
	if w.err != nil {
		return
	}
	b := w.tmp[:t.Size()]
	switch t {
	case Int8:
		b[0] = byte(int8(v))
	case Uint8:
		b[0] = byte(v)
	case Int16:
		w.order.PutUint16(b, uint16(int16(v)))
	case Uint16:
		w.order.PutUint16(b, uint16(v))
	case Int32:
		w.order.PutUint32(b, uint32(int32(v)))
	case Uint32:
		w.order.PutUint32(b, uint32(v))
	case Float32:
		w.order.PutUint32(b, math.Float32bits(float32(v)))
	case Float64:
		w.order.PutUint64(b, math.Float64bits(v))
	}
	if _, err := w.w.Write(b); err != nil {
		w.err = ioErr(err)
	}
}

// appendValue formats v with the shortest representation that
// reads back as the same value of type t
func appendValue(b []byte, t ValueType, v float64) []byte {
	switch t {
	case Float32:
		return strconv.AppendFloat(b, v, 'g', -1, 32)
	case Float64:
		return strconv.AppendFloat(b, v, 'g', -1, 64)
	}
	if t.IsUnsigned() {
		return strconv.AppendUint(b, uint64(v), 10)
	}
	return strconv.AppendInt(b, int64(v), 10)
}

// Close flushes buffered data and verifies that all elements were written.
// It doesn't close the underlying writer.
func (w *Writer) Close() error {
	if w.err != nil {
		return w.err
	}
	if err := w.WriteHeader(); err != nil {
		return err
	}
	if w.next < len(w.h.Elements) {
		e := w.h.Elements[w.next]
		return w.setErr(fmt.Errorf("%w: element '%s' was not written", ErrCountMismatch, e.Name))
	}
	if err := w.w.Flush(); err != nil {
		return w.setErr(ioErr(err))
	}
	return nil
}

// Encode writes a complete file. data has rows for each element in h,
// by element name. Elements with 0 rows don't need an entry.
func Encode(dst io.Writer, h *Header, data map[string]Rows) error {
	if dst == nil {
		return errors.New("must provide io.Writer")
	}
	w := NewWriter(dst, h)
	for _, e := range h.Elements {
		rows, ok := data[e.Name]
		if !ok && e.Count > 0 {
			return fmt.Errorf("%w: no rows for element '%s'", ErrCountMismatch, e.Name)
		}
		if err := w.WriteElement(e.Name, rows); err != nil {
			return err
		}
	}
	return w.Close()
}
