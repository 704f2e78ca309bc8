// Package platform names the packaging targets stagepack knows how to build.
package platform

import (
	"fmt"
	"runtime"
	"strings"
)

// Platform is a packaging target. Linux is split by architecture because the
// two variants stage different library sets.
type Platform string

const (
	Windows     Platform = "windows"
	Darwin      Platform = "darwin"
	LinuxX86    Platform = "linux-i686"
	LinuxX86_64 Platform = "linux-x86_64"
)

// All lists every supported platform.
func All() []Platform {
	return []Platform{Windows, Darwin, LinuxX86, LinuxX86_64}
}

// Parse maps user input to a Platform. It accepts the canonical names plus the
// common aliases used by build scripts (win32, mac, linux, i686, x86_64...).
func Parse(s string) (Platform, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "windows", "win32", "win", "cygwin":
		return Windows, nil
	case "darwin", "mac", "macos", "osx":
		return Darwin, nil
	case "linux-i686", "linux_i686", "linux-x86", "linux2", "i686":
		return LinuxX86, nil
	case "linux-x86_64", "linux_x86_64", "linux-amd64", "linux", "x86_64":
		return LinuxX86_64, nil
	}
	return "", fmt.Errorf("unsupported platform %q", s)
}

// Host returns the platform matching the running OS.
func Host() Platform {
	switch runtime.GOOS {
	case "windows":
		return Windows
	case "darwin":
		return Darwin
	}
	if runtime.GOARCH == "386" {
		return LinuxX86
	}
	return LinuxX86_64
}

// IsLinux reports whether p is one of the Linux variants.
func (p Platform) IsLinux() bool {
	return p == LinuxX86 || p == LinuxX86_64
}

// Arch returns the architecture token used in Linux installer names.
func (p Platform) Arch() string {
	switch p {
	case LinuxX86:
		return "i686"
	case LinuxX86_64:
		return "x86_64"
	}
	return ""
}

func (p Platform) String() string {
	return string(p)
}
