package ply

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/kjk/plysplat/u"
)

// File is a decoded PLY file
type File struct {
	Header *Header
	// Tables has decoded rows for each element, in header order
	Tables []*Table
	// number of bytes after the last element. For ascii format
	// whitespace doesn't count
	Trailing int64
}

// Table returns rows of element with a given name or nil
func (f *File) Table(name string) *Table {
	for _, t := range f.Tables {
		if t.Element.Name == name {
			return t
		}
	}
	return nil
}

// Rows returns decoded tables by element name, as accepted by Encode
func (f *File) Rows() map[string]Rows {
	res := map[string]Rows{}
	for _, t := range f.Tables {
		res[t.Element.Name] = t
	}
	return res
}

// ElementSummary describes an element of a decoded file
type ElementSummary struct {
	Name       string `json:"name"`
	Count      int    `json:"count"`
	Properties int    `json:"properties"`
	// size of element's data in binary encoding
	BinarySize int64 `json:"binary_size"`
}

// Summary returns information about each element
func (f *File) Summary() []ElementSummary {
	var res []ElementSummary
	for _, t := range f.Tables {
		e := t.Element
		res = append(res, ElementSummary{
			Name:       e.Name,
			Count:      t.Len(),
			Properties: len(e.Properties),
			BinarySize: BinarySize(e, t),
		})
	}
	return res
}

// Reader decodes PLY files
type Reader struct {
	// if true, data after the last element is an ErrTrailingData error
	Strict bool
	// if set, called with warnings (e.g. about trailing data)
	Warnf func(format string, args ...any)
}

// Decode reads a complete PLY file from r
func Decode(r io.Reader) (*File, error) {
	var rd Reader
	return rd.Decode(r)
}

// ReadFile decodes PLY file at path. Files ending with .gz, .bz2, .zst
// or .br are decompressed
func ReadFile(path string) (*File, error) {
	var rd Reader
	return rd.ReadFile(path)
}

// ReadFile decodes PLY file at path
func (rd *Reader) ReadFile(path string) (*File, error) {
	r, err := u.OpenFileMaybeCompressed(path)
	if err != nil {
		return nil, ioErr(err)
	}
	defer r.Close()
	return rd.Decode(r)
}

// Decode reads header and all elements from r
func (rd *Reader) Decode(r io.Reader) (*File, error) {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReaderSize(r, 64*1024)
	}
	h, err := ReadHeader(br)
	if err != nil {
		return nil, err
	}
	f := &File{
		Header: h,
	}
	var dec rowDecoder
	if h.Format.IsBinary() {
		order := binary.ByteOrder(binary.LittleEndian)
		if h.Format == BinaryBigEndian {
			order = binary.BigEndian
		}
		dec = &binaryDecoder{r: br, order: order}
	} else {
		dec = &asciiDecoder{r: br}
	}
	for _, e := range h.Elements {
		t := NewTable(e)
		for row := 0; row < e.Count; row++ {
			if err := dec.readRow(t, row); err != nil {
				return nil, err
			}
		}
		f.Tables = append(f.Tables, t)
	}

	f.Trailing, err = countTrailing(br, h.Format)
	if err != nil {
		return nil, err
	}
	if f.Trailing > 0 {
		if rd.Strict {
			return nil, fmt.Errorf("%w: %d bytes after last element", ErrTrailingData, f.Trailing)
		}
		if rd.Warnf != nil {
			rd.Warnf("ply: %d bytes of trailing data after last element\n", f.Trailing)
		}
	}
	return f, nil
}

func countTrailing(br *bufio.Reader, format Encoding) (int64, error) {
	if format.IsBinary() {
		n, err := io.Copy(io.Discard, br)
		return n, ioErr(err)
	}
	d, err := io.ReadAll(br)
	if err != nil {
		return 0, ioErr(err)
	}
	if len(bytes.TrimSpace(d)) == 0 {
		return 0, nil
	}
	return int64(len(d)), nil
}

type rowDecoder interface {
	readRow(t *Table, row int) error
}

type binaryDecoder struct {
	r     *bufio.Reader
	order binary.ByteOrder
	tmp   [8]byte
	vals  []float64
	err   error
}

func (d *binaryDecoder) value(t ValueType) float64 {
	if d.err != nil {
		return 0
	}
	b := d.tmp[:t.Size()]
	if _, err := io.ReadFull(d.r, b); err != nil {
		d.err = err
		return 0
	}
	switch t {
	case Int8:
		return float64(int8(b[0]))
	case Uint8:
		return float64(b[0])
	case Int16:
		return float64(int16(d.order.Uint16(b)))
	case Uint16:
		return float64(d.order.Uint16(b))
	case Int32:
		return float64(int32(d.order.Uint32(b)))
	case Uint32:
		return float64(d.order.Uint32(b))
	case Float32:
		return float64(math.Float32frombits(d.order.Uint32(b)))
	case Float64:
		return math.Float64frombits(d.order.Uint64(b))
	}
	return 0
}

func (d *binaryDecoder) readRow(t *Table, row int) error {
	e := t.Element
	for i, c := range t.Columns {
		p := &c.Property
		n := p.Width()
		if p.List {
			n = int(d.value(p.CountType))
		}
		vals := d.vals[:0]
		for j := 0; j < n && d.err == nil; j++ {
			vals = append(vals, d.value(p.Type))
		}
		d.vals = vals
		if d.err != nil {
			if errors.Is(d.err, io.EOF) || errors.Is(d.err, io.ErrUnexpectedEOF) {
				return fmt.Errorf("%w: %s of %d", ErrTruncatedInput, where(e, p, row), e.Count)
			}
			return ioErr(d.err)
		}
		t.Columns[i].append(vals)
	}
	t.rows++
	return nil
}

type asciiDecoder struct {
	r *bufio.Reader
}

// nextLine returns next non-empty line split into tokens
func (d *asciiDecoder) nextLine() ([]string, error) {
	for {
		line, err := d.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, ioErr(err)
		}
		tokens := strings.Fields(line)
		if len(tokens) > 0 {
			return tokens, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func parseValue(t ValueType, s string) (float64, error) {
	switch t {
	case Float32:
		return strconv.ParseFloat(s, 32)
	case Float64:
		return strconv.ParseFloat(s, 64)
	}
	bits := t.Size() * 8
	if t.IsUnsigned() {
		v, err := strconv.ParseUint(s, 10, bits)
		return float64(v), err
	}
	v, err := strconv.ParseInt(s, 10, bits)
	return float64(v), err
}

func (d *asciiDecoder) readRow(t *Table, row int) error {
	e := t.Element
	tokens, err := d.nextLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: %s of %d", ErrTruncatedInput, where(e, nil, row), e.Count)
		}
		return err
	}
	pos := 0
	next := func(p *Property, vt ValueType) (float64, error) {
		if pos >= len(tokens) {
			return 0, fmt.Errorf("%w: %s: line has only %d values", ErrShapeMismatch, where(e, p, row), len(tokens))
		}
		s := tokens[pos]
		pos++
		v, err := parseValue(vt, s)
		if err != nil {
			return 0, fmt.Errorf("%w: %s: invalid %s value '%s'", ErrValueRange, where(e, p, row), vt, s)
		}
		return v, nil
	}
	var vals []float64
	for _, c := range t.Columns {
		p := &c.Property
		n := p.Width()
		if p.List {
			v, err := next(p, p.CountType)
			if err != nil {
				return err
			}
			n = int(v)
		}
		vals = vals[:0]
		for j := 0; j < n; j++ {
			v, err := next(p, p.Type)
			if err != nil {
				return err
			}
			vals = append(vals, v)
		}
		c.append(vals)
	}
	if pos != len(tokens) {
		return fmt.Errorf("%w: %s: expected %d values, line has %d", ErrShapeMismatch, where(e, nil, row), pos, len(tokens))
	}
	t.rows++
	return nil
}
