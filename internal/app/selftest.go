package app

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/n2rd/phaselink/internal/antenna"
	"github.com/n2rd/phaselink/internal/controller"
	"github.com/n2rd/phaselink/internal/logging"
	"github.com/n2rd/phaselink/internal/metrics"
	"github.com/n2rd/phaselink/internal/phaser"
	"github.com/n2rd/phaselink/internal/protocol"
	"github.com/n2rd/phaselink/internal/sensor"
	"github.com/n2rd/phaselink/internal/transport"
)

type SelfTestOptions struct {
	Profile string
	Verbose bool
}

// Loopback timing: in-memory link, so the windows can be tight.
const (
	selfTestAckTimeout   = 200 * time.Millisecond
	selfTestReplyTimeout = 750 * time.Millisecond
	selfTestRetries      = 3
)

// RunSelfTest runs both node roles over an in-memory link and exercises
// every command, including the silent drop of a tampered frame. No radio
// hardware needed; this is the "is the build sane" check.
func RunSelfTest(opts SelfTestOptions) error {
	profile, err := antenna.ByProfileName(opts.Profile)
	if err != nil {
		return err
	}
	secret := []byte("phaselink-selftest")

	level := logging.LogLevelError
	if opts.Verbose {
		level = logging.LogLevelVerbose
	}
	logger, err := logging.NewLogger(level, "")
	if err != nil {
		return err
	}
	defer logger.Close()

	ctrlLink, phaserLink := transport.NewPipe()
	defer ctrlLink.Close()
	defer phaserLink.Close()

	// Phaser side.
	sm := phaser.NewStateMachine(profile, secret, &phaser.LogDriver{Log: logger}, sensor.NewSimulated(42), logger)
	daemon := phaser.NewDaemon(
		transport.NewEndpoint(phaserLink, 2, selfTestAckTimeout, selfTestRetries),
		sm, logger)
	daemon.Controller = 1

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = daemon.Run(ctx) }()

	// Controller side.
	ep := transport.NewEndpoint(ctrlLink, 1, selfTestAckTimeout, selfTestRetries)
	rt := transport.NewRoundtrip(ep, 2, selfTestReplyTimeout)
	session := controller.NewSession(rt, profile, secret, logger)
	sink := metrics.NewSink()
	session.Sink = sink

	failed := 0
	step := func(name string, fn func(ctx context.Context) error) {
		stepCtx, stepCancel := context.WithTimeout(ctx, 10*time.Second)
		defer stepCancel()
		if err := fn(stepCtx); err != nil {
			failed++
			fmt.Fprintf(os.Stdout, "FAIL  %s: %v\n", name, err)
			return
		}
		fmt.Fprintf(os.Stdout, "ok    %s\n", name)
	}

	fmt.Fprintf(os.Stdout, "phaselink loopback self-test (%s profile, %d directions)\n\n",
		profile.Name(), profile.NumDirections())

	step("position query", func(ctx context.Context) error {
		reply, err := session.QueryPosition(ctx, false)
		if err != nil {
			return err
		}
		if reply.Kind != protocol.ReplyPosition {
			return fmt.Errorf("reply kind %v", reply.Kind)
		}
		return nil
	})

	for i := 0; i < profile.NumDirections(); i++ {
		d := antenna.Direction(i)
		name, azimuth := profile.DirectionName(d), profile.Azimuth(d)
		step(fmt.Sprintf("steer %s", name), func(ctx context.Context) error {
			reply, err := session.SetDirection(ctx, azimuth, true)
			if err != nil {
				return err
			}
			if reply.Position.Azimuth != azimuth {
				return fmt.Errorf("reported %d deg, want %d", reply.Position.Azimuth, azimuth)
			}
			return nil
		})
	}

	staged := profile.DirectionName(profile.QuantizeDegrees(225))
	step("stage "+staged, func(ctx context.Context) error {
		before := session.DirectionName()
		reply, err := session.SetDirection(ctx, 225, false)
		if err != nil {
			return err
		}
		after := profile.DirectionName(profile.QuantizeDegrees(reply.Position.Azimuth))
		if after != before {
			return fmt.Errorf("staged move switched relays: %s -> %s", before, after)
		}
		return nil
	})
	step("apply staged target", func(ctx context.Context) error {
		reply, err := session.QueryPosition(ctx, true)
		if err != nil {
			return err
		}
		if got := profile.DirectionName(profile.QuantizeDegrees(reply.Position.Azimuth)); got != staged {
			return fmt.Errorf("applied %s, want %s", got, staged)
		}
		return nil
	})

	step("power query", func(ctx context.Context) error {
		reply, err := session.QueryPower(ctx)
		if err != nil {
			return err
		}
		if reply.Watts < 0 {
			return fmt.Errorf("negative power %v", reply.Watts)
		}
		return nil
	})

	step("stop", func(ctx context.Context) error {
		_, err := session.Stop(ctx)
		return err
	})

	step("tampered frame is ignored", func(ctx context.Context) error {
		// Flip the tag byte of outgoing commands; the phaser must stay
		// silent and the round trip must surface as NoAck.
		ctrlLink.MangleTX = func(p []byte) []byte {
			if len(p) > 4 && p[3]&0x80 == 0 {
				p[len(p)-1] ^= 0x55
			}
			return p
		}
		defer func() { ctrlLink.MangleTX = nil }()

		_, err := session.QueryPower(ctx)
		if err == nil {
			return fmt.Errorf("tampered command was answered")
		}
		if !controller.IsTimeout(err) {
			return fmt.Errorf("unexpected failure kind: %v", err)
		}
		return nil
	})

	fmt.Fprintf(os.Stdout, "\n%s", metrics.FormatSummary(sink.GetSummary()))

	if failed > 0 {
		return fmt.Errorf("%d self-test step(s) failed", failed)
	}
	fmt.Fprintf(os.Stdout, "\nself-test passed\n")
	return nil
}
