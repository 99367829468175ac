package splat

import (
	"fmt"

	"github.com/kjk/plysplat/ply"
)

// Options control conversion of a Store to PLY file
type Options struct {
	Encoding ply.Encoding
	// nil means SplitLayout()
	Layout *Layout
	Limits Limits
	// if true, faces must have exactly 3 vertices
	TrianglesOnly bool
	// added to the header before elements
	Comments []string
}

// source of values for one property
type fieldSource struct {
	a *Array
	// >= 0 picks a single number of a row, -1 is the whole row
	column int
}

// blockRows provides rows of a Block to ply.Writer
type blockRows struct {
	n       int
	sources []fieldSource
}

func (b *blockRows) Len() int {
	return b.n
}

func (b *blockRows) Values(row, prop int) []float64 {
	src := &b.sources[prop]
	vals := src.a.Row(row)
	if src.column >= 0 {
		return vals[src.column : src.column+1]
	}
	return vals
}

// Build computes the header and rows for all elements of layout.
// Arrays are flattened and truncated before row counts are computed
// so counts in the header always match rows that will be written.
func Build(s Store, opts *Options) (*ply.Header, map[string]ply.Rows, error) {
	if opts == nil {
		opts = &Options{}
	}
	layout := opts.Layout
	if layout == nil {
		layout = SplitLayout()
	}
	h := ply.NewHeader(opts.Encoding)
	h.Comments = append(h.Comments, opts.Comments...)
	h.EndComments = append(h.EndComments, layout.EndComments...)
	data := map[string]ply.Rows{}
	// first block of each domain, all blocks of a domain have the same rows
	domainFirst := map[Domain]*Block{}
	domainCount := map[Domain]int{}
	for _, b := range layout.Blocks {
		e, rows, err := buildBlock(s, b, opts)
		if err != nil {
			return nil, nil, err
		}
		if first, ok := domainFirst[b.Domain]; !ok {
			domainFirst[b.Domain] = b
			domainCount[b.Domain] = e.Count
		} else if n := domainCount[b.Domain]; e.Count != n {
			return nil, nil, fmt.Errorf("%w: %s: element '%s' (array '%s') has %d rows, element '%s' (array '%s') has %d", ErrShapeMismatch, b.Domain, b.Name, b.Fields[0].Key, e.Count, first.Name, first.Fields[0].Key, n)
		}
		h.Elements = append(h.Elements, e)
		data[e.Name] = rows
	}
	if err := h.Validate(); err != nil {
		return nil, nil, err
	}
	return h, data, nil
}

func buildBlock(s Store, b *Block, opts *Options) (*ply.Element, *blockRows, error) {
	if len(b.Fields) == 0 {
		return nil, nil, fmt.Errorf("block '%s' has no fields", b.Name)
	}
	limit := opts.Limits.For(b.Domain)
	e := &ply.Element{
		Name:     b.Name,
		Comments: b.Comments,
	}
	rows := &blockRows{}
	var first *Array
	firstKey := ""
	for i := range b.Fields {
		f := b.Fields[i]
		if opts.TrianglesOnly && b.Domain == Faces && f.Arity != AsScalar {
			f.Count = 3
		}
		a, err := Require(s, f.Key)
		if err != nil {
			return nil, nil, fmt.Errorf("element '%s' property '%s': %w", b.Name, f.Name, err)
		}
		if f.Groups > 0 {
			a, err = Flatten(a, f.Groups, f.Width)
			if err != nil {
				return nil, nil, fmt.Errorf("element '%s' property '%s': %w", b.Name, f.Name, err)
			}
		}
		a = Truncate(a, limit)
		if first == nil {
			first = a
			firstKey = f.Key
		} else if a.Len() != first.Len() {
			return nil, nil, fmt.Errorf("%w: element '%s': array '%s' has %d rows, array '%s' has %d", ErrShapeMismatch, b.Name, f.Key, a.Len(), firstKey, first.Len())
		}
		p, src, err := fieldProperty(b, &f, a)
		if err != nil {
			return nil, nil, err
		}
		e.Properties = append(e.Properties, p)
		rows.sources = append(rows.sources, src)
	}
	e.Count = first.Len()
	rows.n = e.Count
	return e, rows, nil
}

// fieldProperty validates shape of a against f and returns the property
// it's written as
func fieldProperty(b *Block, f *Field, a *Array) (ply.Property, fieldSource, error) {
	src := fieldSource{a: a, column: -1}
	mismatch := func(format string, args ...any) error {
		s := fmt.Sprintf(format, args...)
		return fmt.Errorf("%w: element '%s' property '%s' (array '%s'): %s", ErrShapeMismatch, b.Name, f.Name, f.Key, s)
	}
	switch f.Arity {
	case AsScalar:
		if f.Column == WholeRow {
			for i := 0; i < a.Len(); i++ {
				if n := len(a.Row(i)); n != 1 {
					return ply.Property{}, src, mismatch("row %d: expected 1 value, got %d", i, n)
				}
				if !a.IsRagged() {
					break
				}
			}
			src.column = 0
			return ply.Scalar(f.Name, f.Type), src, nil
		}
		if f.Column < 0 {
			return ply.Property{}, src, mismatch("invalid column %d", f.Column)
		}
		for i := 0; i < a.Len(); i++ {
			if n := len(a.Row(i)); n <= f.Column {
				return ply.Property{}, src, mismatch("row %d has %d values, need column %d", i, n, f.Column)
			}
			if !a.IsRagged() {
				break
			}
		}
		src.column = f.Column
		return ply.Scalar(f.Name, f.Type), src, nil
	case AsFixed:
		if a.IsRagged() {
			return ply.Property{}, src, mismatch("rows have different lengths")
		}
		w := a.RowWidth()
		if a.Len() == 0 && f.Count > 0 {
			// shape of an empty array is not known
			w = f.Count
		}
		if f.Count > 0 && w != f.Count {
			return ply.Property{}, src, mismatch("expected %d values per row, got %d", f.Count, w)
		}
		if w == 1 {
			return ply.Scalar(f.Name, f.Type), src, nil
		}
		return ply.Fixed(f.Name, f.Type, w), src, nil
	case AsList:
		countType := f.CountType
		if countType == ply.Invalid {
			countType = ply.Uint8
		}
		if f.Count > 0 {
			for i := 0; i < a.Len(); i++ {
				if n := len(a.Row(i)); n != f.Count {
					return ply.Property{}, src, mismatch("row %d: expected %d values, got %d", i, f.Count, n)
				}
				if !a.IsRagged() {
					break
				}
			}
		}
		return ply.List(f.Name, countType, f.Type), src, nil
	}
	return ply.Property{}, src, fmt.Errorf("element '%s' property '%s': invalid arity %d", b.Name, f.Name, int(f.Arity))
}
