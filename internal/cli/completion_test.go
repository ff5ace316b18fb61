package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBareRootCmd creates a fresh root command so generated scripts don't
// depend on what other tests registered.
func newBareRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sysinsight",
		Short: "System stats, insights, and answers about this machine",
	}
}

func TestCompletionBashGeneration(t *testing.T) {
	cmd := newBareRootCmd()

	var buf bytes.Buffer
	require.NoError(t, cmd.GenBashCompletion(&buf))

	output := buf.String()
	assert.Contains(t, output, "# bash completion for sysinsight")
	assert.Contains(t, output, "__sysinsight_debug")
	assert.Contains(t, output, "complete -o default -F __start_sysinsight sysinsight")
}

func TestCompletionZshGeneration(t *testing.T) {
	cmd := newBareRootCmd()

	var buf bytes.Buffer
	require.NoError(t, cmd.GenZshCompletion(&buf))

	output := buf.String()
	assert.Contains(t, output, "#compdef sysinsight")
	assert.Contains(t, output, "_sysinsight()")
}

func TestCompletionFishGeneration(t *testing.T) {
	cmd := newBareRootCmd()

	var buf bytes.Buffer
	require.NoError(t, cmd.GenFishCompletion(&buf, true))

	output := buf.String()
	assert.Contains(t, output, "fish completion for sysinsight")
	assert.Contains(t, output, "complete -c sysinsight")
}

func TestCompletionPowershellGeneration(t *testing.T) {
	cmd := newBareRootCmd()

	var buf bytes.Buffer
	require.NoError(t, cmd.GenPowerShellCompletion(&buf))

	output := buf.String()
	assert.Contains(t, strings.ToLower(output), "powershell completion")
	assert.Contains(t, output, "Register-ArgumentCompleter")
}

func TestCompletionIncludesBuiltinCommands(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, rootCmd.GenBashCompletion(&buf))

	output := buf.String()
	assert.Contains(t, output, "__completeNoDesc", "should use dynamic completion")
	assert.Contains(t, output, "__start_sysinsight", "should have start function")
	assert.Contains(t, output, "_sysinsight_root_command", "should have root command function")

	// Commands with local flags get their own functions
	assert.Contains(t, output, "_sysinsight_ask()")
	assert.Contains(t, output, "_sysinsight_show()")
	assert.Contains(t, output, "_sysinsight_config_init()")
}

func TestCompletionBashSyntaxValid(t *testing.T) {
	cmd := newBareRootCmd()
	cmd.AddCommand(&cobra.Command{Use: "ask", Short: "Ask a question"})
	cmd.AddCommand(&cobra.Command{Use: "show", Short: "Show an export"})

	var buf bytes.Buffer
	require.NoError(t, cmd.GenBashCompletion(&buf))

	output := buf.String()
	assert.Equal(t, strings.Count(output, "{"), strings.Count(output, "}"), "braces should be balanced")
	assert.Contains(t, output, "__start_sysinsight()")
}

func TestCompletionCommandValidArgs(t *testing.T) {
	assert.Contains(t, completionCmd.ValidArgs, "bash")
	assert.Contains(t, completionCmd.ValidArgs, "zsh")
	assert.Contains(t, completionCmd.ValidArgs, "fish")
	assert.Contains(t, completionCmd.ValidArgs, "powershell")
	assert.Len(t, completionCmd.ValidArgs, 4)
}
