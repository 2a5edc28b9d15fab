package app

import (
	"fmt"
	"os"

	"github.com/n2rd/phaselink/internal/config"
	"github.com/n2rd/phaselink/internal/errors"
	"github.com/n2rd/phaselink/internal/metrics"
	"github.com/n2rd/phaselink/internal/tui"
)

type ControllerOptions struct {
	Config string
	Debug  bool
}

// RunController starts the interactive controller console.
func RunController(opts ControllerOptions) error {
	cfg, err := config.Load(opts.Config, true)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}
	defer logger.Close()

	session, link, err := buildSession(cfg, logger)
	if err != nil {
		return err
	}
	defer link.Close()

	sink := metrics.NewSink()
	session.Sink = sink

	if err := tui.Run(session); err != nil {
		return errors.WrapLinkError(err, describeLink(cfg))
	}

	// Console closed; persist and summarize the session's round trips.
	if cfg.Metrics.CSV != "" {
		if err := writeMetrics(cfg.Metrics.CSV, sink); err != nil {
			logger.Error("write metrics: %v", err)
		}
	}
	fmt.Fprint(os.Stdout, metrics.FormatSummary(sink.GetSummary()))
	return nil
}

func writeMetrics(path string, sink *metrics.Sink) error {
	w, err := metrics.NewWriter(path)
	if err != nil {
		return err
	}
	defer w.Close()
	for _, m := range sink.GetMetrics() {
		if err := w.WriteMetric(m); err != nil {
			return err
		}
	}
	return nil
}

func describeLink(cfg *config.Config) string {
	if cfg.Link.Type == "serial" {
		return fmt.Sprintf("the radio modem at %s", cfg.Link.Device)
	}
	return fmt.Sprintf("the udp bench link to %s", cfg.Link.Peer)
}
