package scan

import (
	"os"
	"strings"
)

const arpTablePath = "/proc/net/arp"

// readARPTable returns IP → MAC from the kernel neighbour table. Platforms
// without /proc return an empty map.
func readARPTable() map[string]string {
	data, err := os.ReadFile(arpTablePath)
	if err != nil {
		return map[string]string{}
	}
	return parseARPTable(string(data))
}

// parseARPTable parses /proc/net/arp. Incomplete entries (flags 0x0 or an
// all-zero hardware address) are skipped.
func parseARPTable(content string) map[string]string {
	macs := make(map[string]string)
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		if i == 0 {
			// header
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 4 {
			continue
		}
		ip, flags, mac := fields[0], fields[2], strings.ToLower(fields[3])
		if flags == "0x0" || mac == "00:00:00:00:00:00" {
			continue
		}
		macs[ip] = mac
	}
	return macs
}
