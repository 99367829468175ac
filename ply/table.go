package ply

import "fmt"

// Rows provides values of element's rows to the Writer
type Rows interface {
	// Len returns number of rows
	Len() int
	// Values returns values of property prop in a given row.
	// For a scalar property it's a single value, for Fixed(n) it's n
	// values and for a list it's the list.
	// The Writer doesn't retain the returned slice.
	Values(row, prop int) []float64
}

// Column holds values of one property for all rows of an element
type Column struct {
	Property Property
	Values   []float64
	// only for list properties: row i is Values[Offsets[i]:Offsets[i+1]]
	Offsets []int
}

func newColumn(p Property) *Column {
	c := &Column{Property: p}
	if p.List {
		c.Offsets = []int{0}
	}
	return c
}

// Row returns values of row i
func (c *Column) Row(i int) []float64 {
	if c.Property.List {
		return c.Values[c.Offsets[i]:c.Offsets[i+1]]
	}
	w := c.Property.Width()
	return c.Values[i*w : (i+1)*w]
}

func (c *Column) append(vals []float64) {
	c.Values = append(c.Values, vals...)
	if c.Property.List {
		c.Offsets = append(c.Offsets, len(c.Values))
	}
}

// Table holds rows of an element, stored by column.
// Implements Rows so that decoded data can be encoded again.
type Table struct {
	Element *Element
	Columns []*Column
	rows    int
}

// NewTable creates an empty table for rows of e
func NewTable(e *Element) *Table {
	t := &Table{
		Element: e,
	}
	for _, p := range e.Properties {
		t.Columns = append(t.Columns, newColumn(p))
	}
	return t
}

// Len returns number of rows
func (t *Table) Len() int {
	return t.rows
}

// Values returns values of property prop in a given row
func (t *Table) Values(row, prop int) []float64 {
	return t.Columns[prop].Row(row)
}

// Column returns column for a property with a given name or nil
func (t *Table) Column(name string) *Column {
	for _, c := range t.Columns {
		if c.Property.Name == name {
			return c
		}
	}
	return nil
}

// AppendRow adds a row, one slice of values per property
func (t *Table) AppendRow(vals ...[]float64) error {
	if len(vals) != len(t.Columns) {
		return fmt.Errorf("%w: element '%s' has %d properties, got %d", ErrShapeMismatch, t.Element.Name, len(t.Columns), len(vals))
	}
	for i, c := range t.Columns {
		if err := checkValues(t.Element, &c.Property, t.rows, vals[i]); err != nil {
			return err
		}
	}
	for i, c := range t.Columns {
		c.append(vals[i])
	}
	t.rows++
	return nil
}

// checkValues verifies vals can be written as property p
func checkValues(e *Element, p *Property, row int, vals []float64) error {
	if p.List {
		if maxCount := p.CountType.MaxCount(); len(vals) > maxCount {
			return fmt.Errorf("%w: %s: list of %d values, %s count holds at most %d", ErrArityOverflow, where(e, p, row), len(vals), p.CountType, maxCount)
		}
	} else {
		want := p.Width()
		if len(vals) < want {
			return fmt.Errorf("%w: %s: expected %d values, got %d", ErrIncompleteRow, where(e, p, row), want, len(vals))
		}
		if len(vals) > want {
			return fmt.Errorf("%w: %s: expected %d values, got %d", ErrShapeMismatch, where(e, p, row), want, len(vals))
		}
	}
	for _, v := range vals {
		if err := p.Type.checkValue(v); err != nil {
			return fmt.Errorf("%w (%s)", err, where(e, p, row))
		}
	}
	return nil
}

// BinarySize returns the size in bytes of rows of e in binary encoding
func BinarySize(e *Element, rows Rows) int64 {
	if n := e.RowSize(); n >= 0 {
		return int64(n) * int64(rows.Len())
	}
	var size int64
	n := rows.Len()
	for row := 0; row < n; row++ {
		for i := range e.Properties {
			p := &e.Properties[i]
			if p.List {
				size += int64(p.CountType.Size() + len(rows.Values(row, i))*p.Type.Size())
			} else {
				size += int64(p.Width() * p.Type.Size())
			}
		}
	}
	return size
}

// BodySize returns the size in bytes of the body of a binary file
// with header h and given rows
func (h *Header) BodySize(data map[string]Rows) int64 {
	var size int64
	for _, e := range h.Elements {
		if rows, ok := data[e.Name]; ok {
			size += BinarySize(e, rows)
		}
	}
	return size
}
