package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/rileyhilliard/sysinsight/internal/ui"
)

var (
	configForce  bool
	configGlobal bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the sysinsight config file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default settings",
	Long: `Write .sysinsight.yaml in the current directory, or
~/.config/sysinsight/config.yaml with --global.

Examples:
  sysinsight config init
  sysinsight config init --global --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		return initConfig(cmd.OutOrStdout(), path, configForce, ui.IsTerminal(os.Stdin))
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one config value",
	Long: `Update a single key in the config file, keeping the rest of the file.

Lists take comma-separated values.

Examples:
  sysinsight config set thresholds.cpu_percent 75
  sysinsight config set collectors.enabled cpu,memory,disk
  sysinsight config set --global assistant.model gpt-4o-mini`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := configTarget()
		if err != nil {
			return err
		}
		if err := config.SetValue(path, args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s Set %s in %s\n", ui.SuccessStyle().Render(ui.SymbolComplete), args[0], path)
		return nil
	},
}

var configKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List every config key",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		for _, key := range config.KnownKeys() {
			fmt.Fprintln(cmd.OutOrStdout(), key)
		}
	},
}

func init() {
	configCmd.PersistentFlags().BoolVar(&configGlobal, "global", false, "use ~/.config/sysinsight/config.yaml")
	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false, "overwrite an existing config file")

	configCmd.AddCommand(configInitCmd, configSetCmd, configKeysCmd)
	rootCmd.AddCommand(configCmd)
}

// configTarget picks the file config subcommands write: --config, then
// --global, then the working directory.
func configTarget() (string, error) {
	if cfgFile != "" {
		return config.ExpandTilde(cfgFile), nil
	}
	if configGlobal {
		path := config.GlobalConfigPath()
		if path == "" {
			return "", errors.New(errors.ErrConfig,
				"Couldn't find your home directory",
				"Pass --config with an explicit path instead.")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Couldn't create "+filepath.Dir(path),
				"Check the directory permissions.")
		}
		return path, nil
	}
	return filepath.Join(".", config.ConfigFileName), nil
}

// initConfig writes the default config to path. An existing file is kept
// unless force is set or an interactive user confirms the overwrite.
func initConfig(w io.Writer, path string, force, interactive bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		if !interactive {
			return errors.New(errors.ErrConfig,
				"Config file already exists: "+path,
				"Use --force to overwrite")
		}

		var overwrite bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(fmt.Sprintf("'%s' already exists. Overwrite?", path)).
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				"Failed to get user input",
				"Try running with --force to overwrite")
		}
		if !overwrite {
			fmt.Fprintln(w, "Cancelled.")
			return nil
		}
		force = true
	}

	if err := config.WriteDefault(path, force); err != nil {
		return err
	}
	fmt.Fprintf(w, "%s Wrote %s\n", ui.SuccessStyle().Render(ui.SymbolComplete), path)
	return nil
}
