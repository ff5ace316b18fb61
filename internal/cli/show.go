package cli

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysinsight/internal/report"
	"github.com/rileyhilliard/sysinsight/internal/ui"
)

var showJSON bool

var showCmd = &cobra.Command{
	Use:   "show <export>",
	Short: "Render a saved export",
	Long: `Print a report previously written with --export.

Compressed (.zst) and plain JSON exports are both accepted.

Examples:
  sysinsight show report.json
  sysinsight show --json report.json.zst`,
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		width := 0
		if cfg, err := loadConfig(); err == nil {
			width = cfg.Output.Width
		}
		return showExport(cmd.OutOrStdout(), args[0], showJSON, width)
	},
}

func init() {
	showCmd.Flags().BoolVar(&showJSON, "json", false, "print the export as JSON")
	rootCmd.AddCommand(showCmd)
}

// showExport loads path and writes it to w as a table or JSON.
func showExport(w io.Writer, path string, asJSON bool, width int) error {
	doc, err := report.Load(path)
	if err != nil {
		return asConfigError(err, "Check the path points at a file written by --export.")
	}

	if asJSON {
		return report.WriteJSON(w, doc, ui.IsTerminal(w) && ui.ColorsEnabled())
	}
	return report.Render(w, doc, report.Options{Width: ui.Width(w, width)})
}
