package siser

import (
	"bytes"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
)

func TestMarshalLine(t *testing.T) {
	tm := time.Date(2024, 1, 15, 10, 30, 45, 123000000, time.UTC)
	ms := strconv.FormatInt(tm.UnixMilli(), 10)
	tests := []struct {
		name string
		t    time.Time
		d    string
		exp  string
	}{
		{"convert", tm, "faces: 3", "--- 8 " + ms + " convert\nfaces: 3\n"},
		{"convert", tm, "faces: 3\n", "--- 9 " + ms + " convert\nfaces: 3\n"},
		{"", tm, "x", "--- 1 " + ms + "\nx\n"},
		{"convert", time.Time{}, "x", "--- 1 convert\nx\n"},
		{"start", tm, "", "--- 0 " + ms + " start\n"},
		{"", time.Time{}, "", "--- 0\n"},
	}
	var wb bytes.Buffer
	for _, test := range tests {
		got := MarshalLine(test.name, test.t, []byte(test.d), nil)
		assert.Equal(t, test.exp, string(got))
		got = MarshalLine(test.name, test.t, []byte(test.d), &wb)
		assert.Equal(t, test.exp, string(got))
	}
}

func TestReader(t *testing.T) {
	tm := time.UnixMilli(1700000000123)
	var buf bytes.Buffer
	buf.Write(MarshalLine("convert", tm, []byte("vertices: 10"), nil))
	buf.Write(MarshalLine("start", tm, nil, nil))
	buf.Write(MarshalLine("no time", time.Time{}, []byte("a\nb\n"), nil))
	buf.Write(MarshalLine("", tm, []byte("x"), nil))
	total := int64(buf.Len())

	r := NewReader(&buf)
	type rec struct {
		name string
		t    time.Time
		d    string
	}
	var got []rec
	var positions []int64
	for r.ReadNextData() {
		got = append(got, rec{r.Name, r.Timestamp, string(r.Data)})
		positions = append(positions, r.CurrRecordPos)
	}
	assert.NoError(t, r.Err())
	assert.True(t, r.Done())
	exp := []rec{
		{"convert", tm, "vertices: 10"},
		{"start", tm, ""},
		{"no time", time.Time{}, "a\nb\n"},
		{"", tm, "x"},
	}
	assert.Equal(t, len(exp), len(got))
	for i := range exp {
		assert.Equal(t, exp[i].name, got[i].name)
		assert.True(t, exp[i].t.Equal(got[i].t), got[i].t.String())
		assert.Equal(t, exp[i].d, got[i].d)
	}
	assert.Equal(t, int64(0), positions[0])
	assert.Equal(t, total, r.NextRecordPos)
}

func TestReaderErrors(t *testing.T) {
	tests := []string{
		"faces: 3\n",
		"--- x convert\n",
		"--- -1 convert\n",
		"--- 20 convert\nshort\n",
		"--- 5 convert",
	}
	for _, s := range tests {
		r := NewReader(strings.NewReader(s))
		assert.False(t, r.ReadNextData(), s)
		assert.Error(t, r.Err(), s)
		assert.True(t, r.Done())
	}

	r := NewReader(strings.NewReader(""))
	assert.False(t, r.ReadNextData())
	assert.NoError(t, r.Err())
}
