// Package cli implements the sysinsight command-line interface.
//
// The package is organized around Cobra commands, each delegating to a
// pipeline value that owns the stages of a report:
//
//   - Command definitions (cobra.Command instances)
//   - Stage orchestration (pipeline: collect, scan, insights, output, export, ask)
//   - Implementation details (in other internal packages)
//
// # Command Structure
//
// The root command "sysinsight" produces a report; subcommands cover the rest:
//
//	sysinsight [--scan cidr] [--export path] [--query text]
//	sysinsight ask [question]    - Ask a language model about this system
//	sysinsight show <export>     - Re-render a saved export
//	sysinsight config init|set|keys
//	sysinsight version
//	sysinsight completion <shell>
//
// # Failure Handling
//
// Only configuration errors stop a run: bad flags, an invalid subnet, an
// unreadable config file, or every collector failing. A collector that fails
// marks its category unavailable; a failed scan, export, or question is
// printed and the report still completes with exit code 0.
//
// # Flag Handling
//
// Global flags (--config, --env-file, --verbose, --no-color) are defined on
// the root command and available to all subcommands. Flags win over the
// environment, the dotenv file, the config file, and defaults, in that order.
//
// With --json the report is printed as the export document and failures are
// written as a JSON envelope on stdout.
package cli
