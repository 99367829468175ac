package u

import (
	"bytes"
	"io"
	"testing"

	"github.com/alecthomas/assert"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n   int64
		exp string
	}{
		{0, "0 bytes"},
		{1023, "1023 bytes"},
		{1024, "1 kB"},
		{1536, "1.50 kB"},
		{5100, "4.98 kB"},
		{1024 * 1024, "1 MB"},
		{3 * 1024 * 1024 * 1024, "3 GB"},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, FormatSize(test.n))
	}
}

func TestCountingWriter(t *testing.T) {
	var buf bytes.Buffer
	w := &CountingWriter{W: &buf}
	_, err := w.Write([]byte("ply\n"))
	assert.NoError(t, err)
	_, err = w.Write([]byte("end_header\n"))
	assert.NoError(t, err)
	assert.Equal(t, int64(15), w.N)
	assert.Equal(t, "ply\nend_header\n", buf.String())
}

func TestMust(t *testing.T) {
	Must(nil)
	defer func() {
		r := recover()
		assert.Equal(t, io.ErrShortWrite, r)
	}()
	Must(io.ErrShortWrite)
}
