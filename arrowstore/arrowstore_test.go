package arrowstore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/kjk/plysplat/splat"
)

func assertSameArray(t *testing.T, exp, got *splat.Array) {
	assert.Equal(t, exp.Name, got.Name)
	assert.Equal(t, exp.Len(), got.Len())
	assert.Equal(t, exp.IsRagged(), got.IsRagged())
	if !exp.IsRagged() {
		assert.Equal(t, len(exp.Shape), len(got.Shape))
		for i := range exp.Shape {
			assert.Equal(t, exp.Shape[i], got.Shape[i])
		}
	}
	for i := 0; i < exp.Len(); i++ {
		assert.Equal(t, exp.Row(i), got.Row(i))
	}
}

func TestRecord(t *testing.T) {
	mem := memory.NewCheckedAllocator(memory.NewGoAllocator())
	defer mem.AssertSize(t, 0)

	ragged := splat.NewRagged("faces", [][]float64{{0, 1, 2}, {0, 2, 3, 1}, {}})
	scalars := splat.NewScalars("opacity", []float64{0.5, 0.25})
	nested, err := splat.NewNested("sh", [][][]float64{{{1, 2, 3}, {4, 5, 6}}})
	assert.NoError(t, err)
	for _, a := range []*splat.Array{ragged, scalars, nested} {
		rec := Record(mem, a)
		assert.Equal(t, int64(a.Len()), rec.NumRows())
		got, err := FromRecord(rec, "")
		rec.Release()
		assert.NoError(t, err)
		assertSameArray(t, a, got)
	}
}

func TestSaveLoad(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "ckpt")
	s := splat.Dummy(25, 3)
	s.Set(splat.KeyFaces, splat.NewRagged(splat.KeyFaces, [][]float64{{0, 1, 2}, {3, 4, 5, 6}}))
	err := Save(dir, s)
	assert.NoError(t, err)

	for _, k := range s.Keys() {
		_, err := os.Stat(filepath.Join(dir, k+Ext))
		assert.NoError(t, err)
	}
	// other files are ignored
	err = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0644)
	assert.NoError(t, err)

	s2, err := Load(dir)
	assert.NoError(t, err)
	assert.Equal(t, s.Keys(), s2.Keys())
	for _, k := range s.Keys() {
		a, _ := s.Array(k)
		a2, ok := s2.Array(k)
		assert.True(t, ok)
		assertSameArray(t, a, a2)
	}
}

func TestEmptyArrays(t *testing.T) {
	dir := t.TempDir()
	tuples, err := splat.NewTuples("v", nil)
	assert.NoError(t, err)
	nested, err := splat.NewNested("sh", nil)
	assert.NoError(t, err)
	for _, a := range []*splat.Array{tuples, nested, splat.NewScalars("o", nil)} {
		path := filepath.Join(dir, a.Name+Ext)
		assert.NoError(t, WriteArray(path, a))
		got, err := ReadArray(path, "")
		assert.NoError(t, err)
		assert.Equal(t, 0, got.Len())
		assert.Equal(t, len(a.Shape), len(got.Shape))
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	dir := t.TempDir()
	err = os.WriteFile(filepath.Join(dir, "bad.arrow"), []byte("not arrow"), 0644)
	assert.NoError(t, err)
	_, err = Load(dir)
	assert.Error(t, err)
}

// writeBatches writes records the way other tools (e.g. pyarrow) do:
// narrower types and data split into multiple batches
func writeBatches(t *testing.T, path string, schema *arrow.Schema, recs ...arrow.Record) {
	f, err := os.Create(path)
	assert.NoError(t, err)
	defer f.Close()
	w := ipc.NewWriter(f, ipc.WithSchema(schema))
	for _, rec := range recs {
		assert.NoError(t, w.Write(rec))
		rec.Release()
	}
	assert.NoError(t, w.Close())
}

func TestReadForeignTypes(t *testing.T) {
	dir := t.TempDir()
	mem := memory.NewGoAllocator()

	// float32 tuples of 3 in two batches
	schema := arrow.NewSchema([]arrow.Field{
		{Name: "scales", Type: arrow.FixedSizeListOf(3, arrow.PrimitiveTypes.Float32)},
	}, nil)
	batch := func(vals ...float32) arrow.Record {
		b := array.NewRecordBuilder(mem, schema)
		defer b.Release()
		fb := b.Field(0).(*array.FixedSizeListBuilder)
		vb := fb.ValueBuilder().(*array.Float32Builder)
		for i := 0; i < len(vals); i += 3 {
			fb.Append(true)
			vb.AppendValues(vals[i:i+3], nil)
		}
		return b.NewRecord()
	}
	path := filepath.Join(dir, splat.KeyScales+Ext)
	writeBatches(t, path, schema, batch(1, 2, 3, 4, 5, 6), batch(0.5, 0.25, 0.125))

	// int32 scalars
	schema2 := arrow.NewSchema([]arrow.Field{
		{Name: "cells", Type: arrow.PrimitiveTypes.Int32},
	}, nil)
	b := array.NewRecordBuilder(mem, schema2)
	b.Field(0).(*array.Int32Builder).AppendValues([]int32{7, -1, 3}, nil)
	rec := b.NewRecord()
	b.Release()
	writeBatches(t, filepath.Join(dir, splat.KeyCellIndices+Ext), schema2, rec)

	s, err := Load(dir)
	assert.NoError(t, err)
	scales, ok := s.Array(splat.KeyScales)
	assert.True(t, ok)
	assert.Equal(t, splat.KeyScales, scales.Name)
	assert.Equal(t, 3, scales.Len())
	assert.Equal(t, []int{3}, scales.Shape)
	assert.Equal(t, []float64{4, 5, 6}, scales.Row(1))
	assert.Equal(t, []float64{0.5, 0.25, 0.125}, scales.Row(2))

	cells, ok := s.Array(splat.KeyCellIndices)
	assert.True(t, ok)
	assert.Equal(t, 3, cells.Len())
	assert.Equal(t, -1.0, cells.At(1, 0))

	// strings can't be an array
	schema3 := arrow.NewSchema([]arrow.Field{
		{Name: "names", Type: arrow.BinaryTypes.String},
	}, nil)
	b = array.NewRecordBuilder(mem, schema3)
	b.Field(0).(*array.StringBuilder).Append("vertex")
	rec = b.NewRecord()
	b.Release()
	path = filepath.Join(dir, "names"+Ext)
	writeBatches(t, path, schema3, rec)
	_, err = ReadArray(path, "names")
	assert.True(t, errors.Is(err, splat.ErrShapeMismatch))
}
