package socket

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"firestige.xyz/ringsniff/internal/core"
)

// encapRadiotap is netlink's name for ARPHRD_IEEE80211_RADIOTAP.
const encapRadiotap = "ieee802.11/radiotap"

// IsMonitorMode asks the kernel for the interface hardware address family.
// Family ARPHRD_IEEE80211_RADIOTAP means frames arrive with Radiotap headers.
func IsMonitorMode(iface string) (bool, error) {
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_DGRAM, 0)
	if err != nil {
		return false, fmt.Errorf("probe socket: %w", err)
	}
	defer unix.Close(fd)

	ifr, err := unix.NewIfreq(iface)
	if err != nil {
		return false, fmt.Errorf("probe %s: %w", iface, err)
	}
	if err := unix.IoctlIfreq(fd, unix.SIOCGIFHWADDR, ifr); err != nil {
		if errors.Is(err, unix.ENODEV) {
			return false, fmt.Errorf("%w: %s", core.ErrInterfaceNotFound, iface)
		}
		return false, fmt.Errorf("SIOCGIFHWADDR %s: %w", iface, err)
	}

	// ifr_hwaddr.sa_family is the first field of the union.
	return ifr.Uint16() == unix.ARPHRD_IEEE80211_RADIOTAP, nil
}

// ProbeMode returns the interface mode. The ioctl probe is authoritative;
// netlink's encapsulation type is consulted only when the ioctl fails.
func ProbeMode(iface string) (core.Mode, error) {
	monitor, err := IsMonitorMode(iface)
	if err == nil {
		return modeOf(monitor), nil
	}

	link, lerr := lookup(iface)
	if lerr != nil {
		return core.ModeManaged, errors.Join(err, lerr)
	}
	return modeOf(link.Attrs().EncapType == encapRadiotap), nil
}

func modeOf(monitor bool) core.Mode {
	if monitor {
		return core.ModeMonitor
	}
	return core.ModeManaged
}
