// Package capabilities probes whether this process can open a live
// capture device before attempting it, and formats the remediation text
// printed when it cannot.
package capabilities

import (
	"fmt"
	"os"
	"runtime"

	"github.com/docker/docker/pkg/parsers/kernel"
)

// HasCaptureCapability reports whether the current process is likely
// able to open a live packet capture device: root on any OS, or (on
// Linux) a heuristic read of the running binary's file-mode bits, the
// same style of "assume special bits mean special capabilities" check
// the original tool used before falling back to a full libcap query.
func HasCaptureCapability() (bool, error) {
	if os.Geteuid() == 0 {
		return true, nil
	}
	if runtime.GOOS != "linux" {
		return true, nil
	}

	exePath, err := os.Executable()
	if err != nil {
		return false, err
	}
	info, err := os.Stat(exePath)
	if err != nil {
		return false, err
	}

	return info.Mode().Perm()&0o7000 != 0, nil
}

// KernelSupportsFileCapabilities reports whether the running Linux
// kernel is new enough (>= 2.6.24) to honor setcap-assigned file
// capabilities at all, the same adaptToKernelVersion gating the teacher
// applies to tcp_info struct layout, applied here to a permission
// remediation hint instead of a struct size table.
func KernelSupportsFileCapabilities() bool {
	if runtime.GOOS != "linux" {
		return false
	}
	v, err := kernel.GetKernelVersion()
	if err != nil {
		return false
	}
	return kernel.CompareKernelVersion(*v, kernel.VersionInfo{Kernel: 2, Major: 6, Minor: 24}) >= 0
}

// RemediationMessage formats the multi-line hint printed when live
// capture fails with a permission error, per spec's Environment note.
func RemediationMessage() string {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	args := fmt.Sprintf("%s %s", exe, joinArgs(os.Args[1:]))

	msg := fmt.Sprintf(
		"Live capture requires elevated privileges. You have a few options:\n\n"+
			"  1. Run with sudo:\n     sudo %s\n\n"+
			"  2. Grant the binary CAP_NET_RAW (recommended):\n     sudo setcap cap_net_raw=eip %s\n\n"+
			"  3. Analyze an existing capture file instead:\n     %s -f capture.pcap\n",
		args, exe, exe,
	)
	if runtime.GOOS == "linux" && !KernelSupportsFileCapabilities() {
		msg += "\nNote: this kernel predates file capability support (Linux 2.6.24); setcap will not help here — use sudo or -f.\n"
	}
	return msg
}

func joinArgs(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
