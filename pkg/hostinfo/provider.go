// Package hostinfo identifies the collection host. The ledger core never
// inspects the platform itself; it receives a fingerprint through the
// Provider interface, captured once at case initialization.
package hostinfo

import (
	"bufio"
	"os"
	"runtime"
	"strings"

	"github.com/servais1983/autoforensic-collector/pkg/evidence"
)

// Provider supplies the identity snapshot of the system running the
// collection.
type Provider interface {
	Fingerprint() (evidence.HostFingerprint, error)
}

// SystemProvider reads the identity of the running host. Everything beyond
// hostname, OS family, and architecture is best-effort: fields that cannot
// be determined stay empty rather than failing case initialization.
type SystemProvider struct{}

// Fingerprint implements Provider.
func (SystemProvider) Fingerprint() (evidence.HostFingerprint, error) {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}

	fp := evidence.HostFingerprint{
		Hostname:        hostname,
		Platform:        runtime.GOOS,
		Architecture:    runtime.GOARCH,
		RuntimeVersion:  runtime.Version(),
		PlatformRelease: firstLine("/proc/sys/kernel/osrelease"),
		PlatformVersion: firstLine("/proc/sys/kernel/version"),
		Processor:       cpuModel(),
	}
	return fp, nil
}

// firstLine returns the first line of a proc file, or "" when the file does
// not exist (non-Linux hosts) or cannot be read.
func firstLine(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	line, _, _ := strings.Cut(string(data), "\n")
	return strings.TrimSpace(line)
}

// cpuModel extracts the CPU model string from /proc/cpuinfo, best-effort.
func cpuModel() string {
	f, err := os.Open("/proc/cpuinfo")
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, found := strings.Cut(scanner.Text(), ":")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "model name", "Processor", "cpu model":
			return strings.TrimSpace(value)
		}
	}
	return ""
}

// Static is a Provider returning a fixed fingerprint. Useful for tests and
// for replaying a previously recorded identity.
type Static struct {
	FP evidence.HostFingerprint
}

// Fingerprint implements Provider.
func (s Static) Fingerprint() (evidence.HostFingerprint, error) {
	return s.FP, nil
}
