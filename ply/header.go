package ply

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

/*
Header is text, one declaration per line:

ply
format binary_little_endian 1.0
comment mesh vertices
element vertex 10
property double x
element face 10
property list uchar uint vertex_indices
end_header

The body starts right after "end_header\n", for both ascii and
binary formats.
*/

const (
	magic     = "ply"
	endHeader = "end_header"
)

func writeComments(b *bytes.Buffer, comments []string) {
	for _, s := range comments {
		b.WriteString("comment ")
		b.WriteString(s)
		b.WriteByte('\n')
	}
}

// Bytes renders the header
func (h *Header) Bytes() []byte {
	var b bytes.Buffer
	b.WriteString(magic + "\n")
	version := h.Version
	if version == "" {
		version = DefaultVersion
	}
	fmt.Fprintf(&b, "format %s %s\n", h.Format, version)
	writeComments(&b, h.Comments)
	for _, s := range h.ObjInfo {
		b.WriteString("obj_info ")
		b.WriteString(s)
		b.WriteByte('\n')
	}
	for _, e := range h.Elements {
		writeComments(&b, e.Comments)
		fmt.Fprintf(&b, "element %s %d\n", e.Name, e.Count)
		for i := range e.Properties {
			p := &e.Properties[i]
			if p.List {
				fmt.Fprintf(&b, "property list %s %s %s\n", p.CountType, p.Type, p.Name)
				continue
			}
			for _, name := range p.ColumnNames() {
				fmt.Fprintf(&b, "property %s %s\n", p.Type, name)
			}
		}
	}
	writeComments(&b, h.EndComments)
	b.WriteString(endHeader + "\n")
	return b.Bytes()
}

// WriteTo writes the header to w. Implements io.WriterTo
func (h *Header) WriteTo(w io.Writer) (int64, error) {
	if err := h.Validate(); err != nil {
		return 0, err
	}
	n, err := w.Write(h.Bytes())
	return int64(n), ioErr(err)
}

// the part of a line after keyword, with a single separator removed
func lineRest(line string, keyword string) string {
	s := strings.TrimPrefix(line, keyword)
	if len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
		s = s[1:]
	}
	return s
}

// ReadHeader reads the header up to and including "end_header" line.
// After it returns, br is positioned at the first byte of the body.
func ReadHeader(br *bufio.Reader) (*Header, error) {
	h := &Header{}
	var pending []string
	var curr *Element
	lineNo := 0
	sawFormat := false
	for {
		line, err := br.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("%w: missing '%s'", ErrTruncatedInput, endHeader)
			}
			return nil, ioErr(err)
		}
		lineNo++
		line = strings.TrimRight(line, "\r\n")
		if lineNo == 1 {
			if line != magic {
				return nil, fmt.Errorf("%w: not a ply file, first line is '%s'", ErrBadHeader, truncStr(line, 32))
			}
			continue
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		bad := func(msg string) error {
			return fmt.Errorf("%w: line %d '%s': %s", ErrBadHeader, lineNo, line, msg)
		}
		switch parts[0] {
		case "format":
			if len(parts) != 3 {
				return nil, bad("expected 'format <encoding> <version>'")
			}
			h.Format, err = ParseEncoding(parts[1])
			if err != nil {
				return nil, bad(err.Error())
			}
			h.Version = parts[2]
			sawFormat = true
		case "comment":
			s := lineRest(line, "comment")
			if curr == nil {
				h.Comments = append(h.Comments, s)
			} else {
				pending = append(pending, s)
			}
		case "obj_info":
			h.ObjInfo = append(h.ObjInfo, lineRest(line, "obj_info"))
		case "element":
			if len(parts) != 3 {
				return nil, bad("expected 'element <name> <count>'")
			}
			n, err := strconv.Atoi(parts[2])
			if err != nil || n < 0 {
				return nil, bad("invalid element count")
			}
			if curr != nil {
				curr.Properties = groupFixed(curr.Properties)
			}
			curr = h.AddElement(parts[1], n)
			curr.Comments = pending
			pending = nil
		case "property":
			if curr == nil {
				return nil, bad("property before element")
			}
			p, err := parseProperty(parts[1:])
			if err != nil {
				return nil, bad(err.Error())
			}
			curr.Properties = append(curr.Properties, p)
		case endHeader:
			if !sawFormat {
				return nil, bad("missing format line")
			}
			if curr != nil {
				curr.Properties = groupFixed(curr.Properties)
			}
			h.EndComments = pending
			if err := h.Validate(); err != nil {
				return nil, err
			}
			return h, nil
		default:
			return nil, bad("unknown keyword")
		}
	}
}

func parseProperty(parts []string) (Property, error) {
	if len(parts) == 2 {
		t, err := ParseValueType(parts[0])
		if err != nil {
			return Property{}, err
		}
		return Scalar(parts[1], t), nil
	}
	if len(parts) == 4 && parts[0] == "list" {
		ct, err := ParseValueType(parts[1])
		if err != nil {
			return Property{}, err
		}
		t, err := ParseValueType(parts[2])
		if err != nil {
			return Property{}, err
		}
		return List(parts[3], ct, t), nil
	}
	return Property{}, errors.New("expected 'property <type> <name>' or 'property list <count type> <type> <name>'")
}

// groupFixed merges runs of scalar properties named "foo_0", "foo_1", ...
// of the same type into a single Fixed property "foo"
func groupFixed(props []Property) []Property {
	var res []Property
	for i := 0; i < len(props); {
		p := props[i]
		base, ok := strings.CutSuffix(p.Name, "_0")
		if p.List || !ok || base == "" {
			res = append(res, p)
			i++
			continue
		}
		n := 1
		for i+n < len(props) {
			next := props[i+n]
			if next.List || next.Type != p.Type || next.Name != base+"_"+strconv.Itoa(n) {
				break
			}
			n++
		}
		if n < 2 {
			res = append(res, p)
			i++
			continue
		}
		res = append(res, Fixed(base, p.Type, n))
		i += n
	}
	return res
}

func truncStr(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
