package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"

	"github.com/n2rd/phaselink/internal/antenna"
	"github.com/n2rd/phaselink/internal/config"
	"github.com/n2rd/phaselink/internal/controller"
	"github.com/n2rd/phaselink/internal/errors"
	"github.com/n2rd/phaselink/internal/protocol"
)

type SendOptions struct {
	Config string
	Debug  bool

	// Exactly one action; with none set an interactive form asks.
	Direction   string // compass name to steer to
	Azimuth     int    // degrees to steer to, -1 when unset
	Stage       bool   // stage instead of executing
	Position    bool   // query position
	ApplyTarget bool   // apply staged target, then report
	Power       bool   // query reverse power
	Stop        bool
}

// sendTimeout bounds the whole one-shot round trip.
const sendTimeout = 30 * time.Second

// RunSend performs a single command round trip and prints the reply.
func RunSend(opts SendOptions) error {
	cfg, err := config.Load(opts.Config, false)
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

	if !opts.hasAction() {
		if err := promptAction(&opts, session.Profile()); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
	defer cancel()

	reply, err := runAction(ctx, session, opts)
	if err != nil {
		return errors.WrapLinkError(err, describeLink(cfg))
	}

	printReply(session, reply)
	return nil
}

func (o SendOptions) hasAction() bool {
	return o.Direction != "" || o.Azimuth >= 0 || o.Position || o.ApplyTarget || o.Power || o.Stop
}

func runAction(ctx context.Context, session *controller.Session, opts SendOptions) (protocol.Reply, error) {
	switch {
	case opts.Direction != "":
		return session.SetDirectionByName(ctx, opts.Direction, !opts.Stage)
	case opts.Azimuth >= 0:
		return session.SetDirection(ctx, opts.Azimuth, !opts.Stage)
	case opts.ApplyTarget:
		return session.QueryPosition(ctx, true)
	case opts.Power:
		return session.QueryPower(ctx)
	case opts.Stop:
		return session.Stop(ctx)
	default:
		return session.QueryPosition(ctx, false)
	}
}

// promptAction fills opts from an interactive form.
func promptAction(opts *SendOptions, profile *antenna.Profile) error {
	var action string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Command").
				Options(
					huh.NewOption("Steer to a direction", "steer"),
					huh.NewOption("Query position and telemetry", "position"),
					huh.NewOption("Apply staged target", "apply"),
					huh.NewOption("Query reverse power", "power"),
					huh.NewOption("Stop", "stop"),
				).
				Value(&action),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	switch action {
	case "steer":
		dirs := make([]huh.Option[string], 0, profile.NumDirections())
		for i := 0; i < profile.NumDirections(); i++ {
			d := antenna.Direction(i)
			dirs = append(dirs, huh.NewOption(
				fmt.Sprintf("%-2s (%d deg)", profile.DirectionName(d), profile.Azimuth(d)),
				profile.DirectionName(d),
			))
		}
		steer := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Direction").
					Options(dirs...).
					Value(&opts.Direction),
				huh.NewConfirm().
					Title("Stage only (apply later with --apply)?").
					Value(&opts.Stage),
			),
		)
		if err := steer.Run(); err != nil {
			return err
		}
	case "position":
		opts.Position = true
	case "apply":
		opts.ApplyTarget = true
	case "power":
		opts.Power = true
	case "stop":
		opts.Stop = true
	}
	return nil
}

func printReply(session *controller.Session, reply protocol.Reply) {
	switch reply.Kind {
	case protocol.ReplyPosition:
		p := reply.Position
		fmt.Fprintf(os.Stdout, "direction: %s (%d deg)\n", session.DirectionName(), p.Azimuth)
		fmt.Fprintf(os.Stdout, "rssi:      %d dBm\n", p.RSSIdBm)
		fmt.Fprintf(os.Stdout, "bus:       %.2f V  %d mA\n", float64(p.BusMV)/1000, p.BusMA)
		fmt.Fprintf(os.Stdout, "mcu:       %.2f V\n", float64(p.MCUMV)/1000)
	case protocol.ReplyPower:
		fmt.Fprintf(os.Stdout, "reverse power: %.1f W\n", reply.Watts)
	}
}
