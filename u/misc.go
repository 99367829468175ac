package u

import (
	"fmt"
	"io"
	"strings"
)

// Must panics on error. Only for errors that can't happen
func Must(err error) {
	if err != nil {
		panic(err)
	}
}

// FormatSize formats a number in a human-readable form e.g. 1.24 kB
func FormatSize(n int64) string {
	sizes := []int64{1024 * 1024 * 1024, 1024 * 1024, 1024}
	suffixes := []string{"GB", "MB", "kB"}
	for i, size := range sizes {
		if n >= size {
			s := fmt.Sprintf("%.2f", float64(n)/float64(size))
			return strings.TrimSuffix(s, ".00") + " " + suffixes[i]
		}
	}
	return fmt.Sprintf("%d bytes", n)
}

// CountingWriter counts bytes written to W
type CountingWriter struct {
	W io.Writer
	N int64
}

func (w *CountingWriter) Write(d []byte) (int, error) {
	n, err := w.W.Write(d)
	w.N += int64(n)
	return n, err
}
