package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/n2rd/phaselink/internal/config"
	"github.com/n2rd/phaselink/internal/phaser"
	"github.com/n2rd/phaselink/internal/sensor"
)

type PhaserOptions struct {
	Config string
	Debug  bool

	// AnswerAnyone disables the controller address filter for bench work.
	AnswerAnyone bool
}

// RunPhaser runs the field node until interrupted.
func RunPhaser(opts PhaserOptions) error {
	cfg, err := config.Load(opts.Config, true)
	if err != nil {
		return err
	}

	logger, err := buildLogger(cfg, opts.Debug)
	if err != nil {
		return err
	}
	defer logger.Close()

	profile, err := cfg.AntennaProfile()
	if err != nil {
		return err
	}

	link, err := buildLink(cfg, false)
	if err != nil {
		return err
	}
	defer link.Close()

	var sensors sensor.Source
	if cfg.SimulateSensors {
		sensors = sensor.NewSimulated(0)
	} else {
		// Hardware sensor drivers live with the field build; a fixed
		// nominal sample keeps host runs honest about what they are.
		sensors = &sensor.Fixed{Value: sensor.Sample{BusMV: 13800, MCUMV: 3300}}
		logger.Info("no sensor hardware on this host, reporting nominal values")
	}

	sm := phaser.NewStateMachine(profile, []byte(cfg.Secret), &phaser.LogDriver{Log: logger}, sensors, logger)
	daemon := phaser.NewDaemon(buildEndpoint(cfg, link), sm, logger)
	if !opts.AnswerAnyone {
		daemon.Controller = byte(cfg.Radio.Peer)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return daemon.Run(ctx)
}
