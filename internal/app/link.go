package app

// Shared wiring: config to logger, link, endpoint, session.

import (
	"fmt"
	"time"

	"github.com/n2rd/phaselink/internal/config"
	"github.com/n2rd/phaselink/internal/controller"
	"github.com/n2rd/phaselink/internal/errors"
	"github.com/n2rd/phaselink/internal/logging"
	"github.com/n2rd/phaselink/internal/transport"
)

// buildLogger builds the logger from config, with the debug flag taking
// precedence over the configured level.
func buildLogger(cfg *config.Config, debug bool) (*logging.Logger, error) {
	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return nil, err
	}
	if debug {
		level = logging.LogLevelDebug
	}
	return logging.NewLogger(level, cfg.Logging.File)
}

// buildLink opens the configured physical link. The controller dials its
// UDP peer; the phaser may listen and learn the peer from the first frame.
func buildLink(cfg *config.Config, isController bool) (transport.Link, error) {
	switch cfg.Link.Type {
	case "serial":
		link, err := transport.OpenSerial(cfg.Link.Device, cfg.Link.Baud)
		if err != nil {
			return nil, errors.WrapSerialError(err, cfg.Link.Device)
		}
		return link, nil

	case "udp":
		if cfg.Link.Peer != "" {
			return transport.DialUDP(cfg.Link.Listen, cfg.Link.Peer)
		}
		if isController {
			return nil, fmt.Errorf("link.peer is required for the controller on a udp link")
		}
		return transport.ListenUDP(cfg.Link.Listen)
	}
	return nil, fmt.Errorf("unsupported link type %q", cfg.Link.Type)
}

// buildEndpoint wraps a link with this node's address and retry policy.
func buildEndpoint(cfg *config.Config, link transport.Link) *transport.Endpoint {
	return transport.NewEndpoint(
		link,
		byte(cfg.Radio.Address),
		time.Duration(cfg.Radio.AckTimeoutMs)*time.Millisecond,
		cfg.Radio.Retries,
	)
}

// buildSession assembles the controller-side stack: link, endpoint,
// round-trip transport, session. The returned link is the caller's to close.
func buildSession(cfg *config.Config, log *logging.Logger) (*controller.Session, transport.Link, error) {
	profile, err := cfg.AntennaProfile()
	if err != nil {
		return nil, nil, err
	}
	link, err := buildLink(cfg, true)
	if err != nil {
		return nil, nil, err
	}
	ep := buildEndpoint(cfg, link)
	rt := transport.NewRoundtrip(ep, byte(cfg.Radio.Peer),
		time.Duration(cfg.Radio.ReplyTimeoutMs)*time.Millisecond)

	session := controller.NewSession(rt, profile, []byte(cfg.Secret), log)
	session.RSSI = func() (int, bool) { return transport.LinkRSSI(link) }
	return session, link, nil
}
