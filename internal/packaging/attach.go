package packaging

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrAttachOutput is returned when the attach output lacks a device or a
// mount point.
var ErrAttachOutput = errors.New("unexpected hdiutil attach output")

// AttachInfo identifies a mounted disk image.
type AttachInfo struct {
	// Device is the whole-disk node, e.g. /dev/disk3. Detach takes it.
	Device string
	// MountPoint is where the HFS volume was mounted.
	MountPoint string
}

var (
	wholeDisk = regexp.MustCompile(`^/dev/disk[0-9]+$`)
	hfsMount  = regexp.MustCompile(`HFS\s+(/.*\S)\s*$`)
)

// ParseAttachOutput extracts the device and mount point from the output of
// "hdiutil attach". Each line is "<device>\t<partition type>\t<mount point>",
// with empty columns where a value does not apply:
//
//	/dev/disk3          	GUID_partition_scheme
//	/dev/disk3s1        	Apple_HFS                      	/Volumes/App Installer
//
// The device is the first whole-disk node (no slice suffix). The mount point
// is whatever follows the first HFS partition type.
func ParseAttachOutput(out string) (AttachInfo, error) {
	var info AttachInfo
	for _, line := range strings.Split(out, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if info.Device == "" {
			if dev := strings.TrimSpace(strings.SplitN(line, "\t", 2)[0]); wholeDisk.MatchString(dev) {
				info.Device = dev
			}
		}
		if info.MountPoint == "" {
			if m := hfsMount.FindStringSubmatch(line); m != nil {
				info.MountPoint = strings.TrimSpace(m[1])
			}
		}
	}

	switch {
	case info.Device == "":
		return info, fmt.Errorf("%w: no whole-disk device in %q", ErrAttachOutput, out)
	case info.MountPoint == "":
		return info, fmt.Errorf("%w: no HFS mount point in %q", ErrAttachOutput, out)
	}
	return info, nil
}
