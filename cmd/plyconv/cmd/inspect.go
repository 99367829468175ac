package cmd

import (
	"encoding/json"
	"strings"

	"github.com/kjk/plysplat/log"
	"github.com/kjk/plysplat/ply"
	"github.com/kjk/plysplat/u"
	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

type inspectResult struct {
	Format   string               `json:"format"`
	Version  string               `json:"version"`
	Comments []string             `json:"comments,omitempty"`
	ObjInfo  []string             `json:"obj_info,omitempty"`
	Elements []ply.ElementSummary `json:"elements"`
	Trailing int64                `json:"trailing_bytes"`
}

func newInspectCmd() *cobra.Command {
	inspectCmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show header and elements of a PLY file",
		Long: `Decode a PLY file and show its header and a summary of elements.

Examples:
  plyconv inspect mesh.ply
  plyconv inspect --json mesh.ply.gz`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			strict, _ := cmd.Flags().GetBool("strict")

			rd := ply.Reader{
				Strict: strict,
				Warnf:  log.Logf,
			}
			f, err := rd.ReadFile(args[0])
			if err != nil {
				return err
			}
			h := f.Header
			if asJSON {
				res := inspectResult{
					Format:   h.Format.String(),
					Version:  h.Version,
					Comments: h.Comments,
					ObjInfo:  h.ObjInfo,
					Elements: f.Summary(),
					Trailing: f.Trailing,
				}
				d, err := json.Marshal(res)
				if err != nil {
					return err
				}
				cmd.Print(string(pretty.Pretty(d)))
				return nil
			}

			cmd.Print(string(h.Bytes()))
			cmd.Println()
			var total int64
			for _, s := range f.Summary() {
				cmd.Printf("%-24s %10d rows %3d properties %10s\n", s.Name, s.Count, s.Properties, u.FormatSize(s.BinarySize))
				total += s.BinarySize
			}
			cmd.Printf("%s\n", strings.Repeat("-", 24))
			cmd.Printf("binary size of data: %s\n", u.FormatSize(total))
			if f.Trailing > 0 {
				cmd.Printf("trailing data: %d bytes\n", f.Trailing)
			}
			return nil
		},
	}
	inspectCmd.Flags().Bool("json", false, "Print summary as JSON")
	inspectCmd.Flags().Bool("strict", false, "Fail if there is data after the last element")
	return inspectCmd
}
