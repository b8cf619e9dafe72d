package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/providertoken/internal/config"
	"github.com/wolfeidau/providertoken/internal/token"
)

type TokenCmd struct {
	Profile  string        `help:"Profile name from the config file" env:"PROVIDERTOKEN_PROFILE"`
	KeyID    string        `name:"key-id" help:"Provider-assigned key identifier" env:"PROVIDERTOKEN_KEY_ID"`
	IssuerID string        `name:"issuer-id" help:"Team or issuer identifier" env:"PROVIDERTOKEN_ISSUER_ID"`
	KeyFile  string        `name:"key-file" help:"PEM private key file (.p8)" type:"path" env:"PROVIDERTOKEN_KEY_FILE"`
	Key      string        `help:"Inline PEM private key, takes precedence over --key-file" env:"PROVIDERTOKEN_PRIVATE_KEY"`
	Validity time.Duration `help:"Token lifetime (default: profile validity or 1h)"`
	Format   string        `help:"Output format (raw|json|header)" enum:"raw,json,header" default:"raw"`
}

func (t *TokenCmd) Run(ctx context.Context, globals *Globals) error {
	profile, err := t.profile(globals)
	if err != nil {
		return err
	}

	t.applyProfile(profile)

	if t.KeyID == "" {
		return errors.New("key id is required: use --key-id or a profile")
	}
	if t.IssuerID == "" {
		return errors.New("issuer id is required: use --issuer-id or a profile")
	}

	keyPEM, err := t.privateKeyPEM()
	if err != nil {
		return err
	}

	id, err := token.NewIdentity(t.KeyID, t.IssuerID, keyPEM)
	if err != nil {
		return fmt.Errorf("failed to load signing key: %w", err)
	}

	log.Debug().
		Str("kid", id.KeyID()).
		Str("iss", id.IssuerID()).
		Str("keyType", id.KeyType()).
		Dur("validity", t.Validity).
		Msg("issuing provider token")

	tok, err := issueToken(ctx, id, t.Validity)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	out, err := formatToken(tok, t.Format)
	if err != nil {
		return err
	}

	fmt.Fprintln(globals.out(), out)
	return nil
}

// profile loads the selected profile. Without --profile or --config a missing
// default config file is not an error.
func (t *TokenCmd) profile(globals *Globals) (config.Profile, error) {
	path, explicit, err := globals.configPath()
	if err != nil {
		if t.Profile != "" {
			return config.Profile{}, err
		}
		return config.Profile{}, nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) && !explicit && t.Profile == "" {
			return config.Profile{}, nil
		}
		return config.Profile{}, err
	}

	profile, err := cfg.Profile(t.Profile)
	if err != nil {
		if errors.Is(err, config.ErrNoDefaultProfile) {
			return config.Profile{}, nil
		}
		return config.Profile{}, err
	}

	log.Debug().Str("config", path).Str("profile", t.Profile).Msg("loaded profile")

	return profile, nil
}

// applyProfile fills in values not given as flags.
func (t *TokenCmd) applyProfile(p config.Profile) {
	if t.KeyID == "" {
		t.KeyID = p.KeyID
	}
	if t.IssuerID == "" {
		t.IssuerID = p.IssuerID
	}
	if t.KeyFile == "" {
		t.KeyFile = p.KeyFile
	}
	if t.Validity == 0 {
		t.Validity = p.Validity
	}
	if t.Validity == 0 {
		t.Validity = token.DefaultValidity
	}
}

func (t *TokenCmd) privateKeyPEM() (string, error) {
	if t.Key != "" {
		return t.Key, nil
	}

	if t.KeyFile == "" {
		return "", errors.New("private key is required: use --key-file, --key or a profile")
	}

	data, err := os.ReadFile(t.KeyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read private key: %w", err)
	}

	return string(data), nil
}

// issueToken signs once per run, retrying only transient clock errors. A
// one-shot process has nothing to reuse, so the token cache is not involved.
func issueToken(ctx context.Context, id token.Identity, validity time.Duration) (string, error) {
	return backoff.Retry(ctx, func() (string, error) {
		tok, err := token.Issue(id, validity)
		if err != nil && !token.Retryable(err) {
			return "", backoff.Permanent(err)
		}
		return tok, err
	}, backoff.WithMaxTries(token.DefaultMaxTries))
}

func formatToken(tok, format string) (string, error) {
	switch format {
	case "", "raw":
		return tok, nil
	case "json":
		return token.Quote(tok)
	case "header":
		return "Authorization: Bearer " + tok, nil
	default:
		return "", fmt.Errorf("unknown format: %s", format)
	}
}
