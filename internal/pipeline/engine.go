package pipeline

import (
	"errors"
	"fmt"

	"firestige.xyz/ringsniff/internal/config"
	"firestige.xyz/ringsniff/internal/core"
	"firestige.xyz/ringsniff/internal/log"
	"firestige.xyz/ringsniff/internal/socket"
	"firestige.xyz/ringsniff/internal/source"
	"firestige.xyz/ringsniff/internal/source/afpacket"
	"firestige.xyz/ringsniff/internal/source/ring"
)

// ProbeFunc reports the mode of an interface.
type ProbeFunc func(iface string) (core.Mode, error)

// ResolveMode turns capture.mode into the dispatcher mode. probed is false
// when every frame must be classified heuristically: only when the setting is
// auto and the probe failed for a reason other than a missing interface.
func ResolveMode(setting, iface string, probe ProbeFunc, logger log.Logger) (mode core.Mode, probed bool, err error) {
	if setting != "" && setting != config.ModeAuto {
		mode, err = core.ParseMode(setting)
		if err != nil {
			return core.ModeManaged, false, err
		}
		return mode, true, nil
	}

	if probe == nil {
		probe = socket.ProbeMode
	}
	mode, err = probe(iface)
	if err == nil {
		return mode, true, nil
	}
	if errors.Is(err, core.ErrInterfaceNotFound) {
		return core.ModeManaged, false, err
	}
	if logger == nil {
		logger = log.GetLogger()
	}
	logger.WithError(err).WithField("interface", iface).Warn("mode probe failed, classifying frames by Radiotap heuristic")
	return core.ModeManaged, false, nil
}

// liveRing couples the mapped ring with the socket it was set up on so that
// Close unmaps first, then releases the socket.
type liveRing struct {
	*ring.Ring
	sock *socket.Socket
}

func (l *liveRing) Close() error {
	return errors.Join(l.Ring.Close(), l.sock.Close())
}

// afpacketSource restores promiscuous mode after the TPacket closes.
type afpacketSource struct {
	*afpacket.Source
	restore func() error
}

func (a *afpacketSource) Close() error {
	err := a.Source.Close()
	if a.restore != nil {
		err = errors.Join(err, a.restore())
	}
	return err
}

// OpenLive opens the capture engine named by cfg.Engine on cfg.Interface.
func OpenLive(cfg config.CaptureConfig) (source.Source, error) {
	switch cfg.Engine {
	case config.EngineRing, "":
		sock, err := socket.Open(cfg.Interface, cfg.Promiscuous)
		if err != nil {
			return nil, err
		}
		r, err := ring.Setup(sock.FD(),
			ring.WithFrameSize(cfg.FrameSize),
			ring.WithBlockCount(cfg.BlockCount),
			ring.WithPollTimeout(cfg.PollTimeout),
		)
		if err != nil {
			return nil, errors.Join(err, sock.Close())
		}
		return &liveRing{Ring: r, sock: sock}, nil

	case config.EngineAFPacket:
		var restore func() error
		if cfg.Promiscuous {
			var err error
			if restore, err = socket.Promiscuous(cfg.Interface); err != nil {
				return nil, err
			}
		}
		src, err := afpacket.Open(afpacket.Config{
			Interface:   cfg.Interface,
			FrameSize:   cfg.FrameSize,
			BlockCount:  cfg.BlockCount,
			BufferMB:    cfg.BufferMB,
			PollTimeout: cfg.PollTimeout,
		})
		if err != nil {
			if restore != nil {
				err = errors.Join(err, restore())
			}
			return nil, err
		}
		return &afpacketSource{Source: src, restore: restore}, nil
	}
	return nil, fmt.Errorf("%w: unknown capture engine %q", core.ErrConfigInvalid, cfg.Engine)
}
