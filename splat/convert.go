package splat

import (
	"errors"
	"io"
	"time"

	"github.com/kjk/plysplat/atomicfile"
	"github.com/kjk/plysplat/log"
	"github.com/kjk/plysplat/ply"
	"github.com/kjk/plysplat/u"
	"github.com/segmentio/ksuid"
)

// Convert writes store s as PLY file to w. Rows are streamed
// element by element, in layout order.
func Convert(w io.Writer, s Store, opts *Options) (*ply.Header, error) {
	if w == nil {
		return nil, errors.New("must provide io.Writer")
	}
	h, data, err := Build(s, opts)
	if err != nil {
		return nil, err
	}
	pw := ply.NewWriter(w, h)
	for _, e := range h.Elements {
		log.Verbosef("writing element '%s', %d rows\n", e.Name, e.Count)
		if err = pw.WriteElement(e.Name, data[e.Name]); err != nil {
			return nil, err
		}
	}
	if err = pw.Close(); err != nil {
		return nil, err
	}
	return h, nil
}

// Result describes a finished ConvertFile
type Result struct {
	RunID  string
	Path   string
	Header *ply.Header
	// size of the file on disk
	Size int64
	// size before compression, same as Size if not compressed
	Uncompressed int64
	Duration     time.Duration
}

// ConvertFile writes store s as PLY file at path.
// If path ends with .gz, .zst or .br the file is compressed.
// The file is written to a temporary file first and renamed when
// complete so a failed conversion doesn't leave a partial file at path.
func ConvertFile(path string, s Store, opts *Options) (*Result, error) {
	timeStart := time.Now()
	runID := ksuid.New().String()
	res, err := convertFile(path, s, opts)
	if err != nil {
		log.Event("convert_failed", "run", runID, "path", path, "error", err.Error())
		return nil, err
	}
	res.RunID = runID
	res.Duration = time.Since(timeStart)

	vals := []any{"run", runID, "path", path, "format", res.Header.Format.String(), "size", res.Size, "uncompressed", res.Uncompressed}
	for _, e := range res.Header.Elements {
		vals = append(vals, e.Name, e.Count)
	}
	log.EventWithDuration("convert", res.Duration, vals...)
	log.Verbosef("wrote '%s', %s in %s\n", path, u.FormatSize(res.Size), res.Duration)
	return res, nil
}

func convertFile(path string, s Store, opts *Options) (*Result, error) {
	f, err := atomicfile.New(path)
	if err != nil {
		return nil, err
	}
	defer f.RemoveIfNotClosed()

	cw, err := u.NewWriterMaybeCompressed(f, path)
	if err != nil {
		f.Cancel(err)
		return nil, err
	}
	counter := &u.CountingWriter{W: cw}
	h, err := Convert(counter, s, opts)
	if err == nil {
		err = cw.Close()
	}
	if err != nil {
		f.Cancel(err)
		return nil, err
	}
	size := f.Written()
	if err = f.Close(); err != nil {
		return nil, err
	}
	return &Result{
		Path:         path,
		Header:       h,
		Size:         size,
		Uncompressed: counter.N,
	}, nil
}
