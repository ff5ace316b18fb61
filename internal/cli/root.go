package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/logger"
	"github.com/rileyhilliard/sysinsight/internal/ui"
)

// Global flags
var (
	cfgFile string
	envFile string
	verbose bool
	noColor bool
)

// Root command flags
var (
	queryFlag  string
	exportFlag string
	scanFlags  ScanFlags
)

var rootCmd = &cobra.Command{
	Use:   "sysinsight",
	Short: "System stats, insights, and answers about this machine",
	Long: `sysinsight collects a snapshot of this machine's CPU, memory, disk,
network, sensor, GPU, and host metrics, flags anything that needs attention,
and prints a report.

Optionally it scans a subnet for live hosts, exports the report as JSON,
and asks a language model about it.

Examples:
  sysinsight
  sysinsight --scan 192.168.1.0/24
  sysinsight --export report.json.zst
  sysinsight --query "Why is my load average so high?"`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := ApplyScanFlags(cfg, scanFlags); err != nil {
			return err
		}

		p := newPipeline(cfg, cmd.OutOrStdout(), cmd.ErrOrStderr())
		return p.run(cmd.Context(), reportOptions{
			Query:  queryFlag,
			Export: exportFlag,
			Subnet: scanFlags.Subnet,
			JSON:   machineMode,
		})
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./.sysinsight.yaml, then ~/.config/sysinsight/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to read (default: ./.env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.Flags().StringVarP(&queryFlag, "query", "q", "", "ask the language model a question about the report")
	rootCmd.Flags().StringVarP(&exportFlag, "export", "e", "", "write the report as JSON (compressed when the path ends in .zst)")
	rootCmd.Flags().BoolVar(&machineMode, "json", false, "print the report as JSON instead of a table")
	AddScanFlags(rootCmd, &scanFlags)

	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		logger.SetVerbose(verbose)
		if noColor {
			ui.DisableColors()
		}
	}
}

// loadConfig merges every configuration source, validates the result, and
// applies its colour setting.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{ConfigPath: cfgFile, EnvFile: envFile})
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	ui.ApplyColorMode(cfg.Output.Color, noColor)
	return cfg, nil
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	if machineMode {
		_ = WriteJSONFromError(os.Stdout, err)
		stop()
		os.Exit(1)
	}

	if isUnknownCommandError(err) {
		if name := extractUnknownCommand(err); name != "" {
			ui.PrintError(fmt.Sprintf("Unknown command %q", name))
		} else {
			ui.PrintError(err.Error())
		}
		fmt.Fprintln(os.Stderr, "\n  Run 'sysinsight --help' to see available commands.")
		stop()
		os.Exit(1)
	}

	if _, ok := errors.AsError(err); ok {
		fmt.Fprint(os.Stderr, err.Error())
	} else {
		ui.PrintError(err.Error())
	}
	stop()
	os.Exit(1)
}

// isUnknownCommandError reports whether cobra rejected the command line
// itself rather than a command failing.
func isUnknownCommandError(err error) bool {
	msg := err.Error()
	return strings.HasPrefix(msg, "unknown command") ||
		strings.HasPrefix(msg, "unknown flag") ||
		strings.HasPrefix(msg, "unknown shorthand flag")
}

// extractUnknownCommand pulls the command name out of cobra's
// `unknown command "foo" for "sysinsight"` message.
func extractUnknownCommand(err error) string {
	msg := err.Error()
	start := strings.Index(msg, `"`)
	if start < 0 {
		return ""
	}
	end := strings.Index(msg[start+1:], `"`)
	if end < 0 {
		return ""
	}
	return msg[start+1 : start+1+end]
}
