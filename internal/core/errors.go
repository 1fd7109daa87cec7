// Package core defines sentinel errors.
package core

import "errors"

var (
	// Packet decoding errors
	ErrPacketTooShort    = errors.New("ringsniff: packet too short")
	ErrUnsupportedProto  = errors.New("ringsniff: unsupported protocol")
	ErrMalformedRadiotap = errors.New("ringsniff: malformed radiotap header")

	// Ring errors
	ErrRingClosed       = errors.New("ringsniff: ring closed")
	ErrFrameOutstanding = errors.New("ringsniff: previous frame not released")
	ErrAlreadyReleased  = errors.New("ringsniff: frame already released")

	// Telemetry errors
	ErrQueueClosed = errors.New("ringsniff: queue closed")

	// Configuration errors
	ErrConfigInvalid = errors.New("ringsniff: invalid configuration")

	// Interface errors
	ErrInterfaceNotFound = errors.New("ringsniff: interface not found")
)
