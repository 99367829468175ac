package cmd

import (
	"github.com/kjk/plysplat/arrowstore"
	"github.com/kjk/plysplat/splat"
	"github.com/spf13/cobra"
)

func newGenCmd() *cobra.Command {
	genCmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a random checkpoint",
		Long: `Generate a checkpoint with random data and save it as a directory
of Arrow files, to be used as --src of convert.

Example:
  plyconv gen --out ./dummy -n 1000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("out")
			n, _ := cmd.Flags().GetInt("count")
			seed, _ := cmd.Flags().GetInt64("seed")

			s := splat.Dummy(n, seed)
			if err := arrowstore.Save(out, s); err != nil {
				return err
			}
			cmd.Printf("Wrote %d arrays with %d rows to '%s'\n", len(s.Keys()), n, out)
			return nil
		},
	}
	genCmd.Flags().String("out", "", "Output directory")
	genCmd.Flags().IntP("count", "n", 100, "Number of vertices, faces and gaussians")
	genCmd.Flags().Int64("seed", 1, "Random seed")
	_ = genCmd.MarkFlagRequired("out")
	return genCmd
}
