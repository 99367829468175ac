package ply

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType is a type of a single value in PLY file
type ValueType int

const (
	Invalid ValueType = iota
	Int8
	Uint8
	Int16
	Uint16
	Int32
	Uint32
	Float32
	Float64
)

// names used when writing header, index is ValueType
var typeNames = []string{"", "char", "uchar", "short", "ushort", "int", "uint", "float", "double"}

// accepted when reading header
var typeAliases = map[string]ValueType{
	"char":    Int8,
	"uchar":   Uint8,
	"short":   Int16,
	"ushort":  Uint16,
	"int":     Int32,
	"uint":    Uint32,
	"float":   Float32,
	"double":  Float64,
	"int8":    Int8,
	"uint8":   Uint8,
	"int16":   Int16,
	"uint16":  Uint16,
	"int32":   Int32,
	"uint32":  Uint32,
	"float32": Float32,
	"float64": Float64,
}

// ParseValueType converts a type name (e.g. "uchar" or "float32") to ValueType
func ParseValueType(s string) (ValueType, error) {
	if t, ok := typeAliases[s]; ok {
		return t, nil
	}
	return Invalid, fmt.Errorf("%w: unknown type '%s'", ErrBadHeader, s)
}

func (t ValueType) String() string {
	if t <= Invalid || t > Float64 {
		return "invalid(" + strconv.Itoa(int(t)) + ")"
	}
	return typeNames[t]
}

// Size returns size of the value in bytes when written in binary format
func (t ValueType) Size() int {
	switch t {
	case Int8, Uint8:
		return 1
	case Int16, Uint16:
		return 2
	case Int32, Uint32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

func (t ValueType) IsFloat() bool {
	return t == Float32 || t == Float64
}

func (t ValueType) IsUnsigned() bool {
	return t == Uint8 || t == Uint16 || t == Uint32
}

// MaxCount returns the longest list whose length can be stored in
// a count of this type. 0 if t can't be used as a list count.
func (t ValueType) MaxCount() int {
	switch t {
	case Uint8:
		return math.MaxUint8
	case Uint16:
		return math.MaxUint16
	case Uint32:
		return math.MaxUint32
	}
	return 0
}

func (t ValueType) valueRange() (float64, float64) {
	switch t {
	case Int8:
		return math.MinInt8, math.MaxInt8
	case Uint8:
		return 0, math.MaxUint8
	case Int16:
		return math.MinInt16, math.MaxInt16
	case Uint16:
		return 0, math.MaxUint16
	case Int32:
		return math.MinInt32, math.MaxInt32
	case Uint32:
		return 0, math.MaxUint32
	}
	return math.Inf(-1), math.Inf(1)
}

// checkValue returns an error if v can't be stored as t without loss
func (t ValueType) checkValue(v float64) error {
	if t == Float32 && math.Abs(v) > math.MaxFloat32 && !math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v doesn't fit in %s", ErrValueRange, v, t)
	}
	if t.IsFloat() {
		return nil
	}
	lo, hi := t.valueRange()
	if v != math.Trunc(v) || v < lo || v > hi {
		return fmt.Errorf("%w: %v doesn't fit in %s", ErrValueRange, v, t)
	}
	return nil
}

// Property describes one property of an element.
// A scalar property has Count 0 (or 1).
// Fixed-width array has Count > 1 and is written as Count values
// without a length prefix.
// A list property has List set and is written as a CountType length
// followed by that many values of Type.
type Property struct {
	Name      string
	Type      ValueType
	Count     int
	List      bool
	CountType ValueType
}

// Scalar returns a single value property
func Scalar(name string, t ValueType) Property {
	return Property{Name: name, Type: t}
}

// Fixed returns a property that always has n values
func Fixed(name string, t ValueType, n int) Property {
	return Property{Name: name, Type: t, Count: n}
}

// List returns a variable-length list property
func List(name string, countType, t ValueType) Property {
	return Property{Name: name, Type: t, List: true, CountType: countType}
}

// Width returns number of values in a fixed property, 0 for lists
func (p *Property) Width() int {
	if p.List {
		return 0
	}
	if p.Count < 1 {
		return 1
	}
	return p.Count
}

// ColumnNames returns names of the header properties this property
// is rendered as. Fixed(n) is rendered as n scalars "name_0" .. "name_{n-1}".
func (p *Property) ColumnNames() []string {
	if p.List || p.Width() == 1 {
		return []string{p.Name}
	}
	res := make([]string, p.Count)
	for i := range res {
		res[i] = p.Name + "_" + strconv.Itoa(i)
	}
	return res
}

func (p *Property) String() string {
	if p.List {
		return fmt.Sprintf("list %s %s %s", p.CountType, p.Type, p.Name)
	}
	if p.Width() > 1 {
		return fmt.Sprintf("%s %s[%d]", p.Type, p.Name, p.Count)
	}
	return fmt.Sprintf("%s %s", p.Type, p.Name)
}

// Element is a named group of rows sharing the same properties
type Element struct {
	Name       string
	Count      int
	Properties []Property
	// rendered right before "element" line
	Comments []string
}

// PropertyIndex returns index of a property with a given name or -1
func (e *Element) PropertyIndex(name string) int {
	for i := range e.Properties {
		if e.Properties[i].Name == name {
			return i
		}
	}
	return -1
}

// headerProperties returns properties as written in the header,
// with Fixed(n) expanded to n scalars
func (e *Element) headerProperties() []Property {
	var res []Property
	for _, p := range e.Properties {
		if p.List || p.Width() == 1 {
			res = append(res, p)
			continue
		}
		for _, name := range p.ColumnNames() {
			res = append(res, Scalar(name, p.Type))
		}
	}
	return res
}

func sameProperties(a, b []Property) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		p1, p2 := &a[i], &b[i]
		if p1.Name != p2.Name || p1.Type != p2.Type || p1.List != p2.List || p1.Width() != p2.Width() {
			return false
		}
		if p1.List && p1.CountType != p2.CountType {
			return false
		}
	}
	return true
}

func propsString(props []Property) string {
	var parts []string
	for i := range props {
		parts = append(parts, props[i].String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// RowSize returns size in bytes of a binary row if all properties
// are fixed-width. Returns -1 if the element has list properties.
func (e *Element) RowSize() int {
	n := 0
	for i := range e.Properties {
		p := &e.Properties[i]
		if p.List {
			return -1
		}
		n += p.Width() * p.Type.Size()
	}
	return n
}

// Encoding is the format of the body of PLY file
type Encoding int

const (
	ASCII Encoding = iota
	BinaryLittleEndian
	BinaryBigEndian
)

var encodingNames = []string{"ascii", "binary_little_endian", "binary_big_endian"}

func (e Encoding) String() string {
	if e < ASCII || e > BinaryBigEndian {
		return "invalid"
	}
	return encodingNames[e]
}

// ParseEncoding parses encoding name as used in "format" line of the header
func ParseEncoding(s string) (Encoding, error) {
	for i, name := range encodingNames {
		if s == name {
			return Encoding(i), nil
		}
	}
	return ASCII, fmt.Errorf("%w: unknown format '%s'", ErrBadHeader, s)
}

// IsBinary returns true for binary encodings
func (e Encoding) IsBinary() bool {
	return e == BinaryLittleEndian || e == BinaryBigEndian
}

const DefaultVersion = "1.0"

// Header describes layout of PLY file
type Header struct {
	Format   Encoding
	Version  string
	Comments []string
	ObjInfo  []string
	Elements []*Element
	// rendered right before "end_header"
	EndComments []string
}

// NewHeader creates a header with default version
func NewHeader(format Encoding) *Header {
	return &Header{
		Format:  format,
		Version: DefaultVersion,
	}
}

// AddElement appends an element and returns it so that properties
// can be added
func (h *Header) AddElement(name string, count int, props ...Property) *Element {
	e := &Element{
		Name:       name,
		Count:      count,
		Properties: props,
	}
	h.Elements = append(h.Elements, e)
	return e
}

// Element returns element with a given name or nil
func (h *Header) Element(name string) *Element {
	for _, e := range h.Elements {
		if e.Name == name {
			return e
		}
	}
	return nil
}

func validName(s string) bool {
	return s != "" && !strings.ContainsAny(s, " \t\r\n")
}

func validComment(s string) bool {
	return !strings.ContainsAny(s, "\r\n")
}

// Validate checks that the header can be written and read back
func (h *Header) Validate() error {
	if h.Format < ASCII || h.Format > BinaryBigEndian {
		return fmt.Errorf("%w: invalid format %d", ErrBadHeader, int(h.Format))
	}
	if !validName(h.Version) {
		return fmt.Errorf("%w: invalid version '%s'", ErrBadHeader, h.Version)
	}
	comments := append(append([]string{}, h.Comments...), h.EndComments...)
	comments = append(comments, h.ObjInfo...)
	seen := map[string]bool{}
	for _, e := range h.Elements {
		if !validName(e.Name) {
			return fmt.Errorf("%w: invalid element name '%s'", ErrBadHeader, e.Name)
		}
		if seen[e.Name] {
			return fmt.Errorf("%w: duplicate element '%s'", ErrBadHeader, e.Name)
		}
		seen[e.Name] = true
		if e.Count < 0 {
			return fmt.Errorf("%w: element '%s' has negative count %d", ErrBadHeader, e.Name, e.Count)
		}
		comments = append(comments, e.Comments...)
		// an ascii row of an element without properties is an empty line
		if len(e.Properties) == 0 {
			return fmt.Errorf("%w: element '%s' has no properties", ErrBadHeader, e.Name)
		}
		columns := map[string]bool{}
		for i := range e.Properties {
			p := &e.Properties[i]
			if !validName(p.Name) {
				return fmt.Errorf("%w: element '%s': invalid property name '%s'", ErrBadHeader, e.Name, p.Name)
			}
			if p.Type.Size() == 0 {
				return fmt.Errorf("%w: element '%s' property '%s': invalid type", ErrBadHeader, e.Name, p.Name)
			}
			if p.List && p.CountType.MaxCount() == 0 {
				return fmt.Errorf("%w: element '%s' property '%s': list count must be unsigned integer, is %s", ErrBadHeader, e.Name, p.Name, p.CountType)
			}
			if !p.List && p.Count < 0 {
				return fmt.Errorf("%w: element '%s' property '%s': negative width %d", ErrBadHeader, e.Name, p.Name, p.Count)
			}
			for _, col := range p.ColumnNames() {
				if columns[col] {
					return fmt.Errorf("%w: element '%s': duplicate property '%s'", ErrBadHeader, e.Name, col)
				}
				columns[col] = true
			}
		}
		if got := groupFixed(e.headerProperties()); !sameProperties(got, e.Properties) {
			return fmt.Errorf("%w: element '%s': properties %s would be read as %s", ErrBadHeader, e.Name, propsString(e.Properties), propsString(got))
		}
	}
	for _, s := range comments {
		if !validComment(s) {
			return fmt.Errorf("%w: comment '%s' has a newline", ErrBadHeader, s)
		}
	}
	return nil
}
