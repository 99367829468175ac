package u

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/zstd"
)

var errBz2NotSupported = errors.New("writing .bz2 files is not supported")

// implement io.ReadCloser over os.File wrapped with io.Reader.
// io.Closer goes to os.File, io.Reader goes to wrapping reader
type readerWrappedFile struct {
	f *os.File
	r io.Reader
}

func (rc *readerWrappedFile) Close() error {
	if c, ok := rc.r.(io.Closer); ok {
		c.Close()
	}
	return rc.f.Close()
}

func (rc *readerWrappedFile) Read(p []byte) (int, error) {
	return rc.r.Read(p)
}

func wrapInReadeCloser(f *os.File, r io.Reader, err error) (io.ReadCloser, error) {
	if err != nil {
		f.Close()
		return nil, err
	}
	return &readerWrappedFile{
		f: f,
		r: r,
	}, nil
}

// zstd.Decoder.Close() doesn't return an error
type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

// CompressionFromPath returns compression implied by file extension:
// "gz", "bz2", "zst" or "br". Returns "" for uncompressed files
func CompressionFromPath(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".gz":
		return "gz"
	case ".bz2":
		return "bz2"
	case ".zst", ".zstd":
		return "zst"
	case ".br":
		return "br"
	}
	return ""
}

// OpenFileMaybeCompressed opens a file that might be compressed with gzip
// or bzip2 or zstd or brotli
// TODO: could sniff file content instead of checking file extension
func OpenFileMaybeCompressed(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	switch CompressionFromPath(path) {
	case "gz":
		r, err := gzip.NewReader(f)
		return wrapInReadeCloser(f, r, err)
	case "bz2":
		r := bzip2.NewReader(f)
		return wrapInReadeCloser(f, r, nil)
	case "zst":
		r, err := zstd.NewReader(f)
		if err != nil {
			return wrapInReadeCloser(f, nil, err)
		}
		return wrapInReadeCloser(f, zstdReadCloser{r}, nil)
	case "br":
		r := brotli.NewReader(f)
		return wrapInReadeCloser(f, r, nil)
	}
	return f, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error {
	return nil
}

func zstdNewWriter(dst io.Writer) (*zstd.Encoder, error) {
	// in my tests:
	// - zstd.SpeedBestCompression is much slower and not much better
	// - default concurrency is GONUMPROCS() but adding concurrency of any value
	//   doesn't consistently speed things up
	return zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
}

// NewWriterMaybeCompressed wraps w in a compressor picked based on
// extension of path (.gz, .zst or .br). Close() flushes the compressor
// but doesn't close w.
// bzip2 is read-only in standard library so .bz2 is an error.
func NewWriterMaybeCompressed(w io.Writer, path string) (io.WriteCloser, error) {
	switch CompressionFromPath(path) {
	case "gz":
		return gzip.NewWriterLevel(w, gzip.BestCompression)
	case "zst":
		return zstdNewWriter(w)
	case "br":
		return brotli.NewWriterLevel(w, brotli.DefaultCompression), nil
	case "bz2":
		return nil, errBz2NotSupported
	}
	return nopWriteCloser{w}, nil
}
