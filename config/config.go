package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/kjk/plysplat/atomicfile"
	"github.com/kjk/plysplat/ply"
	"github.com/kjk/plysplat/splat"
	"go.yaml.in/yaml/v3"
)

// Config describes a conversion
type Config struct {
	// directory with the arrays (arrowstore)
	Source string `yaml:"source"`
	// output .ply file, can end with .gz, .zst or .br
	Output string `yaml:"output"`
	// ascii, binary or binary_big_endian
	Encoding      string     `yaml:"encoding"`
	Layout        string     `yaml:"layout"`
	Limits        Limits     `yaml:"limits"`
	TrianglesOnly bool       `yaml:"triangles_only"`
	Comments      []string   `yaml:"comments,omitempty"`
	Overrides     []Override `yaml:"overrides,omitempty"`
	LogDir        string     `yaml:"log_dir,omitempty"`
	Verbose       bool       `yaml:"verbose"`
}

// Limits are maximum number of rows. nil means no limit
type Limits struct {
	Vertices  *int `yaml:"vertices,omitempty"`
	Faces     *int `yaml:"faces,omitempty"`
	Gaussians *int `yaml:"gaussians,omitempty"`
}

// Override changes how a property is written
type Override struct {
	Property string `yaml:"property"`
	// ply type name e.g. float, double, uchar, float32
	Type string `yaml:"type"`
	// scalar, fixed or list
	Arity string `yaml:"arity"`
}

// Default returns a default configuration
func Default() *Config {
	return &Config{
		Encoding: "binary",
		Layout:   "split",
	}
}

// Load loads configuration from path. Values missing in the file
// are set to defaults
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", path, err)
	}
	return cfg, nil
}

// Save writes configuration to path
func Save(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	f, err := atomicfile.New(path)
	if err != nil {
		return err
	}
	defer f.RemoveIfNotClosed()
	if _, err = f.Write(data); err != nil {
		return err
	}
	return f.Close()
}

func parseEncoding(s string) (ply.Encoding, error) {
	switch s {
	case "", "binary":
		return ply.BinaryLittleEndian, nil
	}
	return ply.ParseEncoding(s)
}

func toLimit(n *int) splat.Limit {
	if n == nil {
		return splat.NoLimit
	}
	return splat.LimitTo(*n)
}

// Validate checks that all values are valid
func (c *Config) Validate() error {
	_, err := c.Options()
	return err
}

// Options converts configuration to splat.Options
func (c *Config) Options() (*splat.Options, error) {
	enc, err := parseEncoding(c.Encoding)
	if err != nil {
		return nil, err
	}
	layout, err := splat.LayoutByName(c.Layout)
	if err != nil {
		return nil, err
	}
	for _, o := range c.Overrides {
		t, err := ply.ParseValueType(o.Type)
		if err != nil {
			return nil, fmt.Errorf("override of '%s': %w", o.Property, err)
		}
		arity, err := splat.ParseArity(o.Arity)
		if err != nil {
			return nil, fmt.Errorf("override of '%s': %w", o.Property, err)
		}
		if err = layout.Override(o.Property, t, arity); err != nil {
			return nil, err
		}
	}
	limits := []*int{c.Limits.Vertices, c.Limits.Faces, c.Limits.Gaussians}
	for i, n := range limits {
		if n != nil && *n < 0 {
			return nil, fmt.Errorf("limit of %s is %d, must be >= 0", splat.Domain(i), *n)
		}
	}
	return &splat.Options{
		Encoding: enc,
		Layout:   layout,
		Limits: splat.Limits{
			Vertices:  toLimit(c.Limits.Vertices),
			Faces:     toLimit(c.Limits.Faces),
			Gaussians: toLimit(c.Limits.Gaussians),
		},
		TrianglesOnly: c.TrianglesOnly,
		Comments:      c.Comments,
	}, nil
}
