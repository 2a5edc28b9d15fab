package phaser

import (
	"context"
	"errors"
	"time"

	"github.com/n2rd/phaselink/internal/logging"
	"github.com/n2rd/phaselink/internal/transport"
)

// recvPoll bounds each receive wait so the loop notices cancellation.
const recvPoll = 500 * time.Millisecond

// Daemon services a radio endpoint with a StateMachine.
type Daemon struct {
	ep  *transport.Endpoint
	sm  *StateMachine
	log *logging.Logger

	// Controller is the only link address the daemon answers. Zero means
	// answer anyone, which is handy on the bench.
	Controller byte

	handled uint64
	dropped uint64
}

// NewDaemon wires a state machine to an endpoint.
func NewDaemon(ep *transport.Endpoint, sm *StateMachine, log *logging.Logger) *Daemon {
	return &Daemon{ep: ep, sm: sm, log: log}
}

// Handled returns the count of commands answered.
func (d *Daemon) Handled() uint64 { return d.handled }

// Dropped returns the count of frames silently discarded.
func (d *Daemon) Dropped() uint64 { return d.dropped }

// Run services the link until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) error {
	d.log.Info("phaser ready: profile=%s addr=%d current=%s",
		d.sm.Profile().Name(), d.ep.Addr(), d.sm.Profile().DirectionName(d.sm.Current()))

	for {
		frame, from, err := d.ep.RecvFrom(ctx, recvPoll)
		if err != nil {
			if errors.Is(err, transport.ErrTimeout) {
				continue
			}
			if ctx.Err() != nil {
				d.log.Info("phaser stopping: handled=%d dropped=%d", d.handled, d.dropped)
				return nil
			}
			return err
		}

		if d.Controller != 0 && from != d.Controller {
			d.log.Verbose("ignoring frame from address %d", from)
			d.dropped++
			continue
		}

		d.log.LogHex("rx", frame)
		reply, ok := d.sm.HandleFrame(frame)
		if !ok {
			d.dropped++
			continue
		}
		d.handled++
		d.log.LogHex("tx", reply)
		if err := d.ep.SendToWait(ctx, from, reply); err != nil {
			// The controller retries the whole round trip; nothing to do.
			d.log.Verbose("reply to %d not acknowledged: %v", from, err)
		}
	}
}
