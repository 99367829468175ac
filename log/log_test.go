package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alecthomas/assert"
	"github.com/kjk/plysplat/siser"
)

func TestMarshalEvent(t *testing.T) {
	tm := time.UnixMilli(1700000000123)
	d, err := MarshalEvent("convert", tm, "vertices", 10, "path", "mesh.ply")
	assert.NoError(t, err)
	s := string(d)
	assert.True(t, strings.HasPrefix(s, "--- "), s)
	firstLine, rest, ok := strings.Cut(s, "\n")
	assert.True(t, ok)
	assert.True(t, strings.HasSuffix(firstLine, " 1700000000123 convert"), firstLine)
	assert.Contains(t, rest, "vertices")
	assert.Contains(t, rest, "mesh.ply")
	assert.True(t, strings.HasSuffix(s, "\n"))

	r := siser.NewReader(bytes.NewReader(d))
	assert.True(t, r.ReadNextData())
	assert.Equal(t, "convert", r.Name)
	assert.Equal(t, tm.UnixMilli(), r.Timestamp.UnixMilli())
	assert.Contains(t, string(r.Data), "mesh.ply")
	assert.True(t, strings.HasPrefix(rest, string(r.Data)))
	assert.False(t, r.ReadNextData())
	assert.NoError(t, r.Err())

	d, err = MarshalEvent("start", tm)
	assert.NoError(t, err)
	assert.Equal(t, "--- 0 1700000000123 start\n", string(d))

	_, err = MarshalEvent("bad", tm, "vertices")
	assert.Error(t, err)
	_, err = MarshalEvent("bad", tm, 1, 2)
	assert.Error(t, err)
}

func TestEventsLog(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	prevOut := Out
	Out = &out
	defer func() {
		Out = prevOut
	}()
	Init(&Config{Dir: dir})
	Logf("converting %s\n", "mesh.ply")
	Verbosef("not logged\n")
	Event("convert", "faces", 3)
	EventWithDuration("convert_done", time.Second, "faces", 3)
	Errorf("failed with %d", 5)
	Close()

	assert.True(t, strings.HasPrefix(out.String(), "converting mesh.ply\n"))
	assert.False(t, strings.Contains(out.String(), "not logged"))

	day := "-" + time.Now().UTC().Format(time.DateOnly) + ".txt"
	d, err := os.ReadFile(filepath.Join(dir, "log"+day))
	assert.NoError(t, err)
	assert.Contains(t, string(d), "converting mesh.ply")
	f, err := os.Open(filepath.Join(dir, "events"+day))
	assert.NoError(t, err)
	defer f.Close()
	r := siser.NewReader(f)
	var names []string
	for r.ReadNextData() {
		names = append(names, r.Name)
		assert.False(t, r.Timestamp.IsZero())
		assert.Contains(t, string(r.Data), "faces")
	}
	assert.NoError(t, r.Err())
	assert.Equal(t, []string{"convert", "convert_done"}, names)
	d, err = os.ReadFile(filepath.Join(dir, "errors"+day))
	assert.NoError(t, err)
	assert.Contains(t, string(d), "failed with 5")

	// after Close logging only goes to Out
	Logf("done\n")
	assert.True(t, strings.HasSuffix(out.String(), "done\n"))
}
