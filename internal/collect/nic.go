package collect

import "strings"

// classifyNIC labels an interface by name: loopback, tailscale, virtual,
// ethernet or wifi. The goos parameter keeps it testable off-platform.
func classifyNIC(name, goos string) string {
	lower := strings.ToLower(name)

	if strings.HasPrefix(lower, "lo") {
		return "loopback"
	}
	if strings.HasPrefix(lower, "tailscale") {
		return "tailscale"
	}
	for _, p := range []string{"veth", "br-", "docker", "cni", "flannel", "vxlan", "virbr"} {
		if strings.HasPrefix(lower, p) {
			return "virtual"
		}
	}

	switch goos {
	case "darwin":
		switch {
		case strings.HasPrefix(lower, "en"):
			return "ethernet"
		case strings.HasPrefix(lower, "awdl"), strings.HasPrefix(lower, "llw"), strings.HasPrefix(lower, "ap"):
			return "wifi"
		default:
			// utun and bridge interfaces
			return "virtual"
		}
	case "linux":
		switch {
		case strings.HasPrefix(lower, "eth"),
			strings.HasPrefix(lower, "enp"),
			strings.HasPrefix(lower, "eno"),
			strings.HasPrefix(lower, "ens"):
			return "ethernet"
		case strings.HasPrefix(lower, "wl"), strings.HasPrefix(lower, "ww"):
			return "wifi"
		default:
			return "virtual"
		}
	}

	if strings.HasPrefix(lower, "eth") {
		return "ethernet"
	}
	if strings.HasPrefix(lower, "wl") {
		return "wifi"
	}
	return "virtual"
}
