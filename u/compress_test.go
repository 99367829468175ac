package u

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/assert"
)

func writeCompressed(t *testing.T, path string, d []byte) {
	f, err := os.Create(path)
	assert.NoError(t, err)
	defer f.Close()
	w, err := NewWriterMaybeCompressed(f, path)
	assert.NoError(t, err)
	_, err = w.Write(d)
	assert.NoError(t, err)
	assert.NoError(t, w.Close())
}

func readMaybeCompressed(t *testing.T, path string) []byte {
	r, err := OpenFileMaybeCompressed(path)
	assert.NoError(t, err)
	defer r.Close()
	var dst bytes.Buffer
	_, err = io.Copy(&dst, r)
	assert.NoError(t, err)
	return dst.Bytes()
}

func TestCompressRoundTrip(t *testing.T) {
	dir := t.TempDir()
	d := []byte(strings.Repeat("ply\nformat ascii 1.0\nend_header\n0.5 1 2\n", 100))
	for _, name := range []string{"mesh.ply", "mesh.ply.gz", "mesh.ply.zst", "mesh.ply.br"} {
		path := filepath.Join(dir, name)
		writeCompressed(t, path, d)
		st, err := os.Stat(path)
		assert.NoError(t, err)
		if name != "mesh.ply" {
			assert.True(t, st.Size() < int64(len(d)), "%s: %d", name, st.Size())
		}
		assert.Equal(t, d, readMaybeCompressed(t, path))
	}

	_, err := NewWriterMaybeCompressed(&bytes.Buffer{}, "mesh.ply.bz2")
	assert.Error(t, err)
}

func TestCompressionFromPath(t *testing.T) {
	tests := []struct {
		path string
		exp  string
	}{
		{"mesh.ply", ""},
		{"mesh.ply.gz", "gz"},
		{"MESH.PLY.GZ", "gz"},
		{"mesh.ply.bz2", "bz2"},
		{"mesh.ply.zst", "zst"},
		{"mesh.ply.zstd", "zst"},
		{"dir.br/mesh.ply", ""},
		{"mesh.br", "br"},
	}
	for _, test := range tests {
		assert.Equal(t, test.exp, CompressionFromPath(test.path), test.path)
	}
}
