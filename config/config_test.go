package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert"
	"github.com/kjk/plysplat/ply"
	"github.com/kjk/plysplat/splat"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "binary", cfg.Encoding)
	assert.Equal(t, "split", cfg.Layout)
	assert.NoError(t, cfg.Validate())

	opts, err := cfg.Options()
	assert.NoError(t, err)
	assert.Equal(t, ply.BinaryLittleEndian, opts.Encoding)
	assert.Equal(t, "split", opts.Layout.Name)
	assert.Equal(t, splat.NoLimit, opts.Limits.Vertices)
	assert.False(t, opts.TrianglesOnly)
}

func TestLoad(t *testing.T) {
	s := `source: ./ckpt
output: mesh.ply.zst
encoding: ascii
layout: compact
limits:
  gaussians: 1000
  faces: 0
triangles_only: true
comments:
  - made by plyconv
overrides:
  - property: opacity
    type: double
    arity: scalar
`
	path := filepath.Join(t.TempDir(), "plyconv.yaml")
	err := os.WriteFile(path, []byte(s), 0644)
	assert.NoError(t, err)

	cfg, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, "./ckpt", cfg.Source)
	assert.Equal(t, "mesh.ply.zst", cfg.Output)
	assert.Nil(t, cfg.Limits.Vertices)
	assert.Equal(t, 1000, *cfg.Limits.Gaussians)
	assert.Equal(t, 0, *cfg.Limits.Faces)

	opts, err := cfg.Options()
	assert.NoError(t, err)
	assert.Equal(t, ply.ASCII, opts.Encoding)
	assert.Equal(t, "compact", opts.Layout.Name)
	assert.Equal(t, splat.NoLimit, opts.Limits.Vertices)
	assert.Equal(t, splat.LimitTo(0), opts.Limits.Faces)
	assert.Equal(t, splat.LimitTo(1000), opts.Limits.Gaussians)
	assert.True(t, opts.TrianglesOnly)
	assert.Equal(t, []string{"made by plyconv"}, opts.Comments)

	h, _, err := splat.Build(splat.Dummy(3, 1), opts)
	assert.NoError(t, err)
	g := h.Element("gaussian")
	assert.Equal(t, ply.Scalar("opacity", ply.Float64), g.Properties[g.PropertyIndex("opacity")])
	assert.Equal(t, 0, h.Element("face").Count)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	cfg := Default()
	cfg.Source = "ckpt"
	n := 5
	cfg.Limits.Vertices = &n
	cfg.Overrides = []Override{{Property: "scales", Type: "float", Arity: "fixed"}}
	path := filepath.Join(t.TempDir(), "sub", "plyconv.yaml")
	assert.NoError(t, Save(cfg, path))

	cfg2, err := Load(path)
	assert.NoError(t, err)
	assert.Equal(t, cfg, cfg2)
}

func TestValidate(t *testing.T) {
	neg := -1
	tests := []func(c *Config){
		func(c *Config) { c.Encoding = "utf8" },
		func(c *Config) { c.Layout = "sparse" },
		func(c *Config) { c.Limits.Faces = &neg },
		func(c *Config) { c.Overrides = []Override{{Property: "opacity", Type: "half", Arity: "scalar"}} },
		func(c *Config) { c.Overrides = []Override{{Property: "opacity", Type: "float", Arity: "matrix"}} },
		func(c *Config) { c.Overrides = []Override{{Property: "color", Type: "float", Arity: "scalar"}} },
	}
	for i, modify := range tests {
		cfg := Default()
		modify(cfg)
		assert.Error(t, cfg.Validate(), "test %d", i)
	}

	cfg := Default()
	cfg.Encoding = "binary_big_endian"
	opts, err := cfg.Options()
	assert.NoError(t, err)
	assert.Equal(t, ply.BinaryBigEndian, opts.Encoding)
}
