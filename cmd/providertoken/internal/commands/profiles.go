package commands

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/wolfeidau/providertoken/internal/config"
)

// ProfilesCmd lists the profiles in the config file.
type ProfilesCmd struct{}

func (p *ProfilesCmd) Run(ctx context.Context, globals *Globals) error {
	path, _, err := globals.configPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			fmt.Fprintf(globals.out(), "No config file at %s\n", path)
			return nil
		}
		return err
	}

	names := cfg.Names()
	if len(names) == 0 {
		fmt.Fprintln(globals.out(), "No profiles found.")
		return nil
	}

	w := tabwriter.NewWriter(globals.out(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKEY ID\tISSUER ID\tVALIDITY\tDEFAULT")

	for _, name := range names {
		profile := cfg.Profiles[name]

		validity := "-"
		if profile.Validity > 0 {
			validity = profile.Validity.String()
		}

		isDefault := ""
		if name == cfg.DefaultProfile {
			isDefault = "*"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", name, profile.KeyID, profile.IssuerID, validity, isDefault)
	}

	return w.Flush()
}
