package collect

import (
	"os"
	"runtime"
	"strings"
)

// detectContainer returns the container runtime the process runs under
// ("docker", "podman", "lxc"), or "" on bare metal and VMs.
func detectContainer() string {
	// Podman sets CONTAINER=podman in its default environment.
	if v := os.Getenv("CONTAINER"); v != "" {
		return strings.ToLower(v)
	}
	if fileExists("/.dockerenv") {
		return "docker"
	}
	if fileExists("/run/.containerenv") {
		return "podman"
	}
	if runtime.GOOS == "linux" {
		if data, err := os.ReadFile("/proc/1/cgroup"); err == nil {
			return parseCgroup(string(data))
		}
	}
	return ""
}

// parseCgroup looks for container runtime signatures in /proc/1/cgroup.
func parseCgroup(content string) string {
	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "docker"), strings.Contains(lower, "containerd"):
		return "docker"
	case strings.Contains(lower, "lxc"):
		return "lxc"
	case strings.Contains(lower, "libpod"):
		return "podman"
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
