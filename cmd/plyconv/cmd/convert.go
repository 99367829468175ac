package cmd

import (
	"fmt"

	"github.com/kjk/plysplat/arrowstore"
	"github.com/kjk/plysplat/config"
	"github.com/kjk/plysplat/log"
	"github.com/kjk/plysplat/splat"
	"github.com/kjk/plysplat/u"
	"github.com/spf13/cobra"
)

func newConvertCmd() *cobra.Command {
	convertCmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a checkpoint to a PLY file",
		Long: `Convert a checkpoint (a directory of Arrow files) to a PLY file.

Settings are read from --config file, if given. Flags override them.
Output is compressed if --out ends with .gz, .zst or .br.

Examples:
  plyconv convert --src ./ckpt --out mesh.ply
  plyconv convert --src ./ckpt --out mesh.ply.zst --layout combined --max-gaussians 100000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := convertConfig(cmd)
			if err != nil {
				return err
			}
			logDir, _ := cmd.Flags().GetString("log-dir")
			verbose, _ := cmd.Flags().GetBool("verbose")
			if cfg.LogDir != "" && logDir == "" {
				log.Init(&log.Config{Dir: cfg.LogDir, Verbose: cfg.Verbose || verbose})
			} else if cfg.Verbose {
				log.Verbose = true
			}
			if cfg.Source == "" {
				return fmt.Errorf("source directory not provided, use --src")
			}
			if cfg.Output == "" {
				return fmt.Errorf("output file not provided, use --out")
			}
			opts, err := cfg.Options()
			if err != nil {
				return err
			}

			s, err := arrowstore.Load(cfg.Source)
			if err != nil {
				return err
			}
			res, err := splat.ConvertFile(cfg.Output, s, opts)
			if err != nil {
				return err
			}
			cmd.Printf("Wrote '%s', %s, %s layout, %s\n", res.Path, u.FormatSize(res.Size), opts.Layout.Name, res.Header.Format)
			for _, e := range res.Header.Elements {
				cmd.Printf("  %s: %d\n", e.Name, e.Count)
			}
			return nil
		},
	}
	f := convertCmd.Flags()
	f.String("src", "", "Directory with checkpoint arrays (.arrow files)")
	f.String("out", "", "Output .ply file")
	f.String("config", "", "YAML config file")
	f.Bool("ascii", false, "Write ascii PLY")
	f.Bool("binary", false, "Write binary little endian PLY (default)")
	f.Bool("big-endian", false, "Write binary big endian PLY")
	f.String("layout", "split", "Layout of elements: split, combined or compact")
	f.Int("max-vertices", 0, "Write at most N vertices")
	f.Int("max-faces", 0, "Write at most N faces")
	f.Int("max-gaussians", 0, "Write at most N gaussians")
	f.Bool("triangles-only", false, "Fail if a face doesn't have 3 vertices")
	f.StringArray("comment", nil, "Add a comment to the header")
	convertCmd.MarkFlagsMutuallyExclusive("ascii", "binary", "big-endian")
	return convertCmd
}

// convertConfig loads --config (if given) and applies flags
func convertConfig(cmd *cobra.Command) (*config.Config, error) {
	flags := cmd.Flags()
	cfg := config.Default()
	if path, _ := flags.GetString("config"); path != "" {
		var err error
		cfg, err = config.Load(path)
		if err != nil {
			return nil, err
		}
	}
	if flags.Changed("src") {
		cfg.Source, _ = flags.GetString("src")
	}
	if flags.Changed("out") {
		cfg.Output, _ = flags.GetString("out")
	}
	ascii, _ := flags.GetBool("ascii")
	binary, _ := flags.GetBool("binary")
	bigEndian, _ := flags.GetBool("big-endian")
	switch {
	case ascii:
		cfg.Encoding = "ascii"
	case bigEndian:
		cfg.Encoding = "binary_big_endian"
	case binary:
		cfg.Encoding = "binary"
	}
	if flags.Changed("layout") {
		cfg.Layout, _ = flags.GetString("layout")
	}
	limit := func(name string, dst **int) {
		if flags.Changed(name) {
			n, _ := flags.GetInt(name)
			*dst = &n
		}
	}
	limit("max-vertices", &cfg.Limits.Vertices)
	limit("max-faces", &cfg.Limits.Faces)
	limit("max-gaussians", &cfg.Limits.Gaussians)
	if flags.Changed("triangles-only") {
		cfg.TrianglesOnly, _ = flags.GetBool("triangles-only")
	}
	if flags.Changed("comment") {
		comments, _ := flags.GetStringArray("comment")
		cfg.Comments = append(cfg.Comments, comments...)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
