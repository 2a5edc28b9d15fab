package phaser

// Relay actuation boundary. The field node drives a ULN2003 bank through
// GPIO; host-side builds log the pattern instead.

import (
	"github.com/n2rd/phaselink/internal/antenna"
	"github.com/n2rd/phaselink/internal/logging"
)

// RelayDriver actuates the six relay outputs.
type RelayDriver interface {
	Set(v antenna.RelayVector) error
}

// LogDriver is a RelayDriver that only logs the pattern. Used on hosts
// without the switching hardware and during bench runs.
type LogDriver struct {
	Log *logging.Logger
}

func (d *LogDriver) Set(v antenna.RelayVector) error {
	if d.Log != nil {
		d.Log.Info("relays -> %s", v)
	}
	return nil
}
