package commands

import (
	"io"
	"os"

	"github.com/wolfeidau/providertoken/internal/config"
)

type Globals struct {
	Debug   bool
	Version string
	Config  string

	// Out receives command output; nil means stdout.
	Out io.Writer
}

func (g *Globals) out() io.Writer {
	if g.Out == nil {
		return os.Stdout
	}
	return g.Out
}

// configPath returns the explicit config path or the default one.
func (g *Globals) configPath() (path string, explicit bool, err error) {
	if g.Config != "" {
		return g.Config, true, nil
	}
	path, err = config.DefaultPath()
	return path, false, err
}
