// Package log prints messages to Out and, after Init with a directory,
// appends them to daily files in that directory:
//
//	log-2006-01-02.txt     everything printed with Logf / Verbosef
//	errors-2006-01-02.txt  Errorf messages with callstack
//	events-2006-01-02.txt  toon-encoded events framed as siser records
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/kjk/plysplat/siser"
	"github.com/toon-format/toon-go"
)

var (
	logFile    *dailyFile
	errorsFile *dailyFile
	eventsFile *dailyFile

	// if true, Verbosef() prints and Event() also prints to Out
	Verbose bool

	// where messages are printed, in addition to log files. Can be nil
	Out io.Writer = os.Stdout
)

// dailyFile appends to <dir>/<prefix>-<YYYY-MM-DD>.txt, starting a new
// file when UTC date changes. Methods are no-ops on nil receiver.
type dailyFile struct {
	dir    string
	prefix string
	mu     sync.Mutex
	day    string
	f      *os.File
}

func (d *dailyFile) path(day string) string {
	return filepath.Join(d.dir, d.prefix+"-"+day+".txt")
}

func (d *dailyFile) write(p []byte) error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	day := time.Now().UTC().Format(time.DateOnly)
	if d.f != nil && d.day != day {
		d.closeFile()
	}
	if d.f == nil {
		if err := os.MkdirAll(d.dir, 0755); err != nil {
			return err
		}
		f, err := os.OpenFile(d.path(day), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return err
		}
		d.f = f
		d.day = day
	}
	_, err := d.f.Write(p)
	return err
}

func (d *dailyFile) closeFile() error {
	if d.f == nil {
		return nil
	}
	d.f.Sync()
	err := d.f.Close()
	d.f = nil
	d.day = ""
	return err
}

func (d *dailyFile) close() error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closeFile()
}

type Config struct {
	// directory for log files. If empty, we only print to Out
	Dir     string
	Verbose bool
}

// Init sets verbosity and starts logging to files in config.Dir.
// Files opened by a previous Init are closed.
func Init(config *Config) {
	Close()
	Verbose = config.Verbose
	dir := config.Dir
	if dir == "" {
		return
	}
	logFile = &dailyFile{dir: dir, prefix: "log"}
	errorsFile = &dailyFile{dir: dir, prefix: "errors"}
	eventsFile = &dailyFile{dir: dir, prefix: "events"}
}

// Close closes log files. Afterwards we only print to Out
func Close() {
	for _, d := range []**dailyFile{&logFile, &errorsFile, &eventsFile} {
		(*d).close()
		*d = nil
	}
}

func Logf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	if Out != nil {
		fmt.Fprint(Out, s)
	}
	logFile.write([]byte(s))
}

func Verbosef(format string, args ...any) {
	if Verbose {
		Logf(format, args...)
	}
}

// callstack returns "file:line" of callers, one per line
func callstack(skip int) string {
	var pcs [32]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	frames := runtime.CallersFrames(pcs[:n])
	var lines []string
	for {
		frame, more := frames.Next()
		lines = append(lines, frame.File+":"+strconv.Itoa(frame.Line))
		if !more {
			break
		}
	}
	return strings.Join(lines, "\n")
}

// Errorf logs an error message along with the callstack
func Errorf(s string, args ...any) {
	if len(args) > 0 {
		s = fmt.Sprintf(s, args...)
	}
	s = fmt.Sprintf("%s\n%s\n", s, callstack(1))
	Logf("%s", s)
	errorsFile.write([]byte(s))
}

// MarshalEvent formats an event as a siser record named name whose
// data is toon-encoded key / values. vals are pairs of string key and value.
func MarshalEvent(name string, t time.Time, vals ...any) ([]byte, error) {
	n := len(vals)
	if n%2 != 0 {
		return nil, fmt.Errorf("event '%s': odd number of key / values (%d)", name, n)
	}
	var d []byte
	if n > 0 {
		m := make(map[string]any, n/2)
		for i := 0; i < n; i += 2 {
			k, ok := vals[i].(string)
			if !ok {
				return nil, fmt.Errorf("event '%s': key %d is %T, not string", name, i/2, vals[i])
			}
			m[k] = vals[i+1]
		}
		var err error
		if d, err = toon.Marshal(m); err != nil {
			return nil, err
		}
	}
	return siser.MarshalLine(name, t, d, nil), nil
}

// Event logs an event with key / value pairs to events file.
// Prints to Out when Verbose
func Event(name string, vals ...any) {
	d, err := MarshalEvent(name, time.Now().UTC(), vals...)
	if err != nil {
		Errorf("Event: %s", err)
		return
	}
	if Verbose && Out != nil {
		Out.Write(d)
	}
	eventsFile.write(d)
}

// EventWithDuration is Event with "durmicro" added
func EventWithDuration(name string, dur time.Duration, vals ...any) {
	vals = append(vals, "durmicro", dur.Microseconds())
	Event(name, vals...)
}
