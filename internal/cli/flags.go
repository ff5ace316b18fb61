package cli

import (
	"fmt"
	"time"

	"github.com/rileyhilliard/sysinsight/internal/config"
	"github.com/rileyhilliard/sysinsight/internal/errors"
	"github.com/spf13/cobra"
)

// ScanFlags holds the subnet scan flags shared by the root and ask commands.
type ScanFlags struct {
	Subnet       string
	ProbeTimeout string
	Concurrency  int
}

// AddScanFlags registers --scan, --scan-timeout, and --scan-concurrency on a command.
func AddScanFlags(cmd *cobra.Command, flags *ScanFlags) {
	cmd.Flags().StringVar(&flags.Subnet, "scan", "", "scan a subnet for live hosts (CIDR, e.g. 192.168.1.0/24)")
	cmd.Flags().StringVar(&flags.ProbeTimeout, "scan-timeout", "", "per-host probe timeout (e.g., 500ms, 2s)")
	cmd.Flags().IntVar(&flags.Concurrency, "scan-concurrency", 0, "maximum probes in flight")
}

// ParseProbeTimeout parses a probe timeout string into a duration.
// Returns zero duration if the flag is empty.
func ParseProbeTimeout(flag string) (time.Duration, error) {
	if flag == "" {
		return 0, nil
	}

	duration, err := time.ParseDuration(flag)
	if err != nil {
		return 0, errors.WrapWithCode(err, errors.ErrConfig,
			fmt.Sprintf("'%s' doesn't look like a valid timeout", flag),
			"Try something like 500ms, 2s, or 1m.")
	}
	return duration, nil
}

// ApplyScanFlags layers the scan flags over cfg.Scan and validates the
// result. Flags win over every other configuration source.
func ApplyScanFlags(cfg *config.Config, flags ScanFlags) error {
	timeout, err := ParseProbeTimeout(flags.ProbeTimeout)
	if err != nil {
		return err
	}
	if flags.ProbeTimeout != "" {
		cfg.Scan.Timeout = timeout
	}
	if flags.Concurrency != 0 {
		cfg.Scan.Concurrency = flags.Concurrency
	}

	if err := config.ValidateScan(cfg.Scan); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, err.Error(),
			"Check the --scan-* flags or the 'scan' section of your config.")
	}
	return nil
}
