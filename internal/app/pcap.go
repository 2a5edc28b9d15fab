package app

import (
	"fmt"
	"os"

	"github.com/n2rd/phaselink/internal/capture"
	"github.com/n2rd/phaselink/internal/config"
)

type PCAPOptions struct {
	File   string
	Port   int
	Secret string
	Config string // optional; supplies the secret when --secret is not given
}

// RunPCAPSummary summarizes phaser link traffic in a bench capture.
func RunPCAPSummary(opts PCAPOptions) error {
	secret := []byte(opts.Secret)
	if len(secret) == 0 && opts.Config != "" {
		cfg, err := config.Load(opts.Config, false)
		if err != nil {
			return err
		}
		secret = []byte(cfg.Secret)
	}
	if len(secret) == 0 {
		fmt.Fprintln(os.Stdout, "no secret given: tags will be stripped without verification")
	}

	summary, err := capture.Summarize(opts.File, opts.Port, secret)
	if err != nil {
		return err
	}
	fmt.Fprint(os.Stdout, capture.Format(summary))
	return nil
}
