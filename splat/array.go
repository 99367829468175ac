package splat

import (
	"fmt"
	"slices"

	"github.com/kjk/plysplat/ply"
)

// Array is an immutable, named sequence of rows of numbers.
//
// Rows have the same shape: nil for a scalar, [n] for a tuple of n numbers
// and [g, k] for g groups of k numbers. Data is stored row-major.
// Ragged arrays (e.g. polygons with different number of vertices) have
// per-row offsets instead of a shape.
type Array struct {
	Name  string
	Shape []int
	data  []float64
	// for ragged arrays, row i is data[offsets[i]:offsets[i+1]]
	offsets []int
	rows    int
}

func shapeSize(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

// NewArray creates an array from row-major data. len(data) must be
// a multiple of the size of the shape
func NewArray(name string, shape []int, data []float64) (*Array, error) {
	for _, d := range shape {
		if d < 1 {
			return nil, fmt.Errorf("%w: array '%s': invalid shape %v", ErrShapeMismatch, name, shape)
		}
	}
	w := shapeSize(shape)
	if len(data)%w != 0 {
		return nil, fmt.Errorf("%w: array '%s': %d values is not a multiple of row shape %v", ErrShapeMismatch, name, len(data), shape)
	}
	return &Array{
		Name:  name,
		Shape: slices.Clone(shape),
		data:  data,
		rows:  len(data) / w,
	}, nil
}

// NewScalars creates an array with a single number per row
func NewScalars(name string, vals []float64) *Array {
	return &Array{
		Name: name,
		data: vals,
		rows: len(vals),
	}
}

// NewTuples creates an array whose rows all have the same length
func NewTuples(name string, rows [][]float64) (*Array, error) {
	if len(rows) == 0 {
		return &Array{Name: name, Shape: []int{0}}, nil
	}
	n := len(rows[0])
	data := make([]float64, 0, n*len(rows))
	for i, row := range rows {
		if len(row) != n {
			return nil, fmt.Errorf("%w: array '%s' row %d: expected %d values, got %d", ErrShapeMismatch, name, i, n, len(row))
		}
		data = append(data, row...)
	}
	return &Array{
		Name:  name,
		Shape: []int{n},
		data:  data,
		rows:  len(rows),
	}, nil
}

// NewNested creates an array whose rows are groups of numbers
// e.g. 15 groups of 3 spherical harmonics coefficients
func NewNested(name string, rows [][][]float64) (*Array, error) {
	if len(rows) == 0 {
		return &Array{Name: name, Shape: []int{0, 0}}, nil
	}
	g := len(rows[0])
	k := 0
	if g > 0 {
		k = len(rows[0][0])
	}
	data := make([]float64, 0, g*k*len(rows))
	for i, row := range rows {
		if len(row) != g {
			return nil, fmt.Errorf("%w: array '%s' row %d: expected %d groups, got %d", ErrShapeMismatch, name, i, g, len(row))
		}
		for j, group := range row {
			if len(group) != k {
				return nil, fmt.Errorf("%w: array '%s' row %d group %d: expected %d values, got %d", ErrShapeMismatch, name, i, j, k, len(group))
			}
			data = append(data, group...)
		}
	}
	return &Array{
		Name:  name,
		Shape: []int{g, k},
		data:  data,
		rows:  len(rows),
	}, nil
}

// NewRagged creates an array whose rows can have different lengths
func NewRagged(name string, rows [][]float64) *Array {
	a := &Array{
		Name:    name,
		offsets: make([]int, 1, len(rows)+1),
		rows:    len(rows),
	}
	for _, row := range rows {
		a.data = append(a.data, row...)
		a.offsets = append(a.offsets, len(a.data))
	}
	return a
}

// Len returns number of rows
func (a *Array) Len() int {
	return a.rows
}

// IsRagged returns true if rows can have different lengths
func (a *Array) IsRagged() bool {
	return a.offsets != nil
}

// RowWidth returns number of numbers in a row, -1 for ragged arrays
func (a *Array) RowWidth() int {
	if a.IsRagged() {
		return -1
	}
	return shapeSize(a.Shape)
}

// Row returns all numbers of row i, flattened. Must not be modified
func (a *Array) Row(i int) []float64 {
	if a.IsRagged() {
		return a.data[a.offsets[i]:a.offsets[i+1]]
	}
	w := shapeSize(a.Shape)
	return a.data[i*w : (i+1)*w]
}

// At returns number j of row i
func (a *Array) At(i, j int) float64 {
	return a.Row(i)[j]
}

// Slice returns an array with rows [0:n). Shares data with a
func (a *Array) Slice(n int) *Array {
	if n >= a.rows {
		return a
	}
	res := &Array{
		Name:  a.Name,
		Shape: a.Shape,
		rows:  n,
	}
	if a.IsRagged() {
		res.offsets = a.offsets[:n+1]
		res.data = a.data[:a.offsets[n]]
	} else {
		res.data = a.data[:n*shapeSize(a.Shape)]
	}
	return res
}

func (a *Array) shapeString() string {
	if a.IsRagged() {
		return "ragged"
	}
	return fmt.Sprintf("%v", a.Shape)
}

// ErrShapeMismatch is ply.ErrShapeMismatch so that callers can check
// for one error regardless of where it was detected
var ErrShapeMismatch = ply.ErrShapeMismatch
