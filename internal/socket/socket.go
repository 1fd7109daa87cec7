// Package socket opens the AF_PACKET capture socket and probes interface mode.
package socket

import (
	"errors"
	"fmt"
	"sync"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"

	"firestige.xyz/ringsniff/internal/core"
)

// Socket is a raw AF_PACKET socket bound to one interface.
type Socket struct {
	fd      int
	link    netlink.Link
	promisc bool

	closeOnce sync.Once
	closeErr  error
}

// Open creates an AF_PACKET/SOCK_RAW socket receiving every protocol, binds it
// to iface and optionally turns promiscuous mode on.
func Open(iface string, promisc bool) (*Socket, error) {
	link, err := lookup(iface)
	if err != nil {
		return nil, err
	}

	proto := htons(unix.ETH_P_ALL)
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(proto))
	if err != nil {
		return nil, fmt.Errorf("create packet socket: %w", err)
	}

	sll := &unix.SockaddrLinklayer{
		Protocol: proto,
		Ifindex:  link.Attrs().Index,
	}
	if err := unix.Bind(fd, sll); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("bind packet socket to %s: %w", iface, err)
	}

	s := &Socket{fd: fd, link: link}
	if promisc {
		if err := netlink.SetPromiscOn(link); err != nil {
			unix.Close(fd)
			return nil, fmt.Errorf("enable promiscuous mode on %s: %w", iface, err)
		}
		s.promisc = true
	}
	return s, nil
}

// FD returns the socket descriptor.
func (s *Socket) FD() int {
	return s.fd
}

// Interface returns the bound interface name.
func (s *Socket) Interface() string {
	return s.link.Attrs().Name
}

// Close restores promiscuous mode and closes the descriptor. Safe to call
// more than once.
func (s *Socket) Close() error {
	s.closeOnce.Do(func() {
		var errs []error
		if s.promisc {
			if err := netlink.SetPromiscOff(s.link); err != nil {
				errs = append(errs, fmt.Errorf("disable promiscuous mode: %w", err))
			}
		}
		if err := unix.Close(s.fd); err != nil {
			errs = append(errs, err)
		}
		s.closeErr = errors.Join(errs...)
	})
	return s.closeErr
}

func lookup(iface string) (netlink.Link, error) {
	link, err := netlink.LinkByName(iface)
	if err != nil {
		var notFound netlink.LinkNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("%w: %s", core.ErrInterfaceNotFound, iface)
		}
		return nil, fmt.Errorf("lookup interface %s: %w", iface, err)
	}
	return link, nil
}

func htons(v uint16) uint16 {
	return v<<8 | v>>8
}

// Promiscuous turns promiscuous mode on for iface and returns a function that
// turns it back off. Used by engines that create their own socket.
func Promiscuous(iface string) (restore func() error, err error) {
	link, err := lookup(iface)
	if err != nil {
		return nil, err
	}
	if err := netlink.SetPromiscOn(link); err != nil {
		return nil, fmt.Errorf("enable promiscuous mode on %s: %w", iface, err)
	}
	return func() error { return netlink.SetPromiscOff(link) }, nil
}
