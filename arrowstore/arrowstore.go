// Package arrowstore stores splat arrays as a directory of Arrow IPC streams.
//
// Each array is a file <key>.arrow with a single column. The type of
// the column gives the shape of rows:
//
//	double, float, int32, ...               scalar
//	fixed_size_list<n, double>              n numbers
//	fixed_size_list<g, fixed_size_list<k>>  g groups of k numbers
//	list<double>                            rows of different length
//
// Any numeric element type can be read, arrays are written as double.
package arrowstore

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/kjk/plysplat/atomicfile"
	"github.com/kjk/plysplat/log"
	"github.com/kjk/plysplat/splat"
)

const (
	// Ext is the extension of array files
	Ext = ".arrow"

	columnName = "values"
	metaName   = "name"
)

func shapeSize(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}

func shapeType(shape []int) arrow.DataType {
	if len(shape) == 0 {
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.FixedSizeListOf(int32(shape[0]), shapeType(shape[1:]))
}

func arraySchema(a *splat.Array) *arrow.Schema {
	typ := shapeType(a.Shape)
	if a.IsRagged() {
		typ = arrow.ListOf(arrow.PrimitiveTypes.Float64)
	}
	md := arrow.NewMetadata([]string{metaName}, []string{a.Name})
	fields := []arrow.Field{
		{Name: columnName, Type: typ},
	}
	return arrow.NewSchema(fields, &md)
}

func appendRow(b array.Builder, shape []int, vals []float64) {
	if len(shape) == 0 {
		b.(*array.Float64Builder).Append(vals[0])
		return
	}
	fb := b.(*array.FixedSizeListBuilder)
	fb.Append(true)
	w := shapeSize(shape[1:])
	for j := 0; j < shape[0]; j++ {
		appendRow(fb.ValueBuilder(), shape[1:], vals[j*w:(j+1)*w])
	}
}

// Record converts a to an Arrow record. Caller must Release() it
func Record(mem memory.Allocator, a *splat.Array) arrow.Record {
	b := array.NewRecordBuilder(mem, arraySchema(a))
	defer b.Release()

	n := a.Len()
	if a.IsRagged() {
		lb := b.Field(0).(*array.ListBuilder)
		vb := lb.ValueBuilder().(*array.Float64Builder)
		lb.Reserve(n)
		for i := 0; i < n; i++ {
			lb.Append(true)
			vb.AppendValues(a.Row(i), nil)
		}
		return b.NewRecord()
	}
	col := b.Field(0)
	col.Reserve(n)
	for i := 0; i < n; i++ {
		appendRow(col, a.Shape, a.Row(i))
	}
	return b.NewRecord()
}

func convertNumbers[T int8 | uint8 | int16 | uint16 | int32 | uint32 | int64 | uint64 | float32 | float64](vals []T) []float64 {
	res := make([]float64, len(vals))
	for i, v := range vals {
		res[i] = float64(v)
	}
	return res
}

// numbers returns values of a primitive numeric array
func numbers(arr arrow.Array) ([]float64, error) {
	switch a := arr.(type) {
	case *array.Float64:
		return convertNumbers(a.Float64Values()), nil
	case *array.Float32:
		return convertNumbers(a.Float32Values()), nil
	case *array.Int8:
		return convertNumbers(a.Int8Values()), nil
	case *array.Uint8:
		return convertNumbers(a.Uint8Values()), nil
	case *array.Int16:
		return convertNumbers(a.Int16Values()), nil
	case *array.Uint16:
		return convertNumbers(a.Uint16Values()), nil
	case *array.Int32:
		return convertNumbers(a.Int32Values()), nil
	case *array.Uint32:
		return convertNumbers(a.Uint32Values()), nil
	case *array.Int64:
		return convertNumbers(a.Int64Values()), nil
	case *array.Uint64:
		return convertNumbers(a.Uint64Values()), nil
	}
	return nil, fmt.Errorf("%w: unsupported column type %s", splat.ErrShapeMismatch, arr.DataType())
}

// flatten returns values of arr, row-major, and shape of a single value
func flatten(arr arrow.Array) ([]float64, []int, error) {
	if arr.NullN() > 0 {
		return nil, nil, fmt.Errorf("%w: column has %d nulls", splat.ErrShapeMismatch, arr.NullN())
	}
	fl, ok := arr.(*array.FixedSizeList)
	if !ok {
		vals, err := numbers(arr)
		return vals, nil, err
	}
	n := int(fl.DataType().(*arrow.FixedSizeListType).Len())
	child, childShape, err := flatten(fl.ListValues())
	if err != nil {
		return nil, nil, err
	}
	elem := n * shapeSize(childShape)
	start := fl.Data().Offset() * elem
	end := start + fl.Len()*elem
	if end > len(child) {
		return nil, nil, fmt.Errorf("%w: list of %d rows of %d values has %d values", splat.ErrShapeMismatch, fl.Len(), elem, len(child)-start)
	}
	return child[start:end], append([]int{n}, childShape...), nil
}

// FromRecord converts the first column of rec to an array
func FromRecord(rec arrow.Record, name string) (*splat.Array, error) {
	if rec.NumCols() != 1 {
		return nil, fmt.Errorf("expected a single column, got %d", rec.NumCols())
	}
	md := rec.Schema().Metadata()
	if i := md.FindKey(metaName); i >= 0 && name == "" {
		name = md.Values()[i]
	}
	col := rec.Column(0)
	n := col.Len()

	if l, ok := col.(*array.List); ok {
		if l.NullN() > 0 {
			return nil, fmt.Errorf("%w: array '%s': column has %d nulls", splat.ErrShapeMismatch, name, l.NullN())
		}
		vals, err := numbers(l.ListValues())
		if err != nil {
			return nil, fmt.Errorf("array '%s': %w", name, err)
		}
		rows := make([][]float64, n)
		for i := 0; i < n; i++ {
			start, end := l.ValueOffsets(i)
			rows[i] = vals[start:end]
		}
		return splat.NewRagged(name, rows), nil
	}

	data, shape, err := flatten(col)
	if err != nil {
		return nil, fmt.Errorf("array '%s': %w", name, err)
	}
	if len(shape) == 0 {
		return splat.NewScalars(name, data), nil
	}
	if slices.Contains(shape, 0) {
		if n > 0 {
			return nil, fmt.Errorf("%w: array '%s': %d rows of shape %v", splat.ErrShapeMismatch, name, n, shape)
		}
		// empty arrays created with NewTuples / NewNested
		if len(shape) == 1 {
			return splat.NewTuples(name, nil)
		}
		return splat.NewNested(name, nil)
	}
	return splat.NewArray(name, shape, data)
}

// WriteArray writes a to path as Arrow IPC stream.
// The file is only created if all data was written.
func WriteArray(path string, a *splat.Array) error {
	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()

	rec := Record(memory.DefaultAllocator, a)
	defer rec.Release()

	w := ipc.NewWriter(f, ipc.WithSchema(rec.Schema()))
	if err = w.Write(rec); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return f.Close()
}

// ReadArray reads an array from Arrow IPC stream at path.
// All record batches of the stream are concatenated.
func ReadArray(path string, name string) (*splat.Array, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r, err := ipc.NewReader(f, ipc.WithAllocator(memory.DefaultAllocator))
	if err != nil {
		return nil, fmt.Errorf("'%s': failed to create reader: %w", path, err)
	}
	defer r.Release()

	var parts []*splat.Array
	for r.Next() {
		a, err := FromRecord(r.Record(), name)
		if err != nil {
			return nil, fmt.Errorf("'%s': %w", path, err)
		}
		parts = append(parts, a)
	}
	if r.Err() != nil {
		return nil, fmt.Errorf("'%s': %w", path, r.Err())
	}
	if len(parts) == 0 {
		return nil, fmt.Errorf("'%s': no records", path)
	}
	a, err := concat(parts)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", path, err)
	}
	return a, nil
}

// concat joins arrays read from multiple record batches
func concat(parts []*splat.Array) (*splat.Array, error) {
	if len(parts) == 1 {
		return parts[0], nil
	}
	first := parts[0]
	var rows [][]float64
	for _, a := range parts {
		if a.IsRagged() != first.IsRagged() || !slices.Equal(a.Shape, first.Shape) {
			return nil, fmt.Errorf("%w: record batches of '%s' have different shapes", splat.ErrShapeMismatch, first.Name)
		}
		for i := 0; i < a.Len(); i++ {
			rows = append(rows, a.Row(i))
		}
	}
	if first.IsRagged() {
		return splat.NewRagged(first.Name, rows), nil
	}
	var data []float64
	for _, row := range rows {
		data = append(data, row...)
	}
	if len(first.Shape) == 0 {
		return splat.NewScalars(first.Name, data), nil
	}
	return splat.NewArray(first.Name, first.Shape, data)
}

// Save writes all arrays of s to dir, one file per array
func Save(dir string, s *splat.MapStore) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	for _, key := range s.Keys() {
		a, _ := s.Array(key)
		path := filepath.Join(dir, key+Ext)
		if err := WriteArray(path, a); err != nil {
			return err
		}
		log.Verbosef("arrowstore: wrote '%s', %d rows\n", path, a.Len())
	}
	return nil
}

// Load reads all *.arrow files in dir. Key of the array is
// the file name without extension
func Load(dir string) (*splat.MapStore, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	s := splat.NewMapStore()
	for _, name := range names {
		key := strings.TrimSuffix(name, Ext)
		a, err := ReadArray(filepath.Join(dir, name), key)
		if err != nil {
			return nil, err
		}
		s.Set(key, a)
	}
	log.Verbosef("arrowstore: loaded %d arrays from '%s'\n", len(names), dir)
	return s, nil
}
