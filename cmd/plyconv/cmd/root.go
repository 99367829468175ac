package cmd

import (
	"os"

	"github.com/kjk/plysplat/log"
	"github.com/spf13/cobra"
)

// newRootCmd creates the base command with all child commands.
// Each call creates new commands so flags don't carry over between runs.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "plyconv",
		Short: "plyconv - convert frosting checkpoints to PLY files",
		Long: `plyconv writes a mesh with its frosting layer and gaussian splat
attributes as a PLY file and inspects existing PLY files.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			verbose, _ := cmd.Flags().GetBool("verbose")
			logDir, _ := cmd.Flags().GetString("log-dir")
			log.Out = cmd.OutOrStdout()
			log.Init(&log.Config{
				Dir:     logDir,
				Verbose: verbose,
			})
			return nil
		},
	}
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose logging")
	rootCmd.PersistentFlags().String("log-dir", "", "Directory for log files, none if empty")

	rootCmd.AddCommand(newConvertCmd())
	rootCmd.AddCommand(newGenCmd())
	rootCmd.AddCommand(newInspectCmd())
	return rootCmd
}

// execute runs rootCmd with args. Log files are closed also when
// the command fails.
func execute(rootCmd *cobra.Command, args []string) error {
	defer log.Close()
	rootCmd.SetArgs(args)
	return rootCmd.Execute()
}

// Execute runs the command given on command line.
// This is called by main.main().
func Execute() {
	if err := execute(newRootCmd(), os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
