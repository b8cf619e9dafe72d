package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/wolfeidau/providertoken/internal/keygen"
)

// KeygenCmd generates a signing key pair for sandbox providers and local testing.
type KeygenCmd struct {
	Name      string `help:"Base name for the key files" default:"AuthKey"`
	OutputDir string `name:"out-dir" help:"Directory to write the key files to" type:"path" default:"."`
}

func (k *KeygenCmd) Run(ctx context.Context, globals *Globals) error {
	kp, err := keygen.Generate()
	if err != nil {
		return err
	}

	privateKeyPath, publicKeyPath, err := kp.WriteFiles(k.OutputDir, k.Name)
	if err != nil {
		if errors.Is(err, keygen.ErrKeyExists) {
			return fmt.Errorf("%w\n\nChoose another --name or remove the existing files", err)
		}
		return err
	}

	out := globals.out()
	fmt.Fprintf(out, "Private key:  %s\n", privateKeyPath)
	fmt.Fprintf(out, "Public key:   %s\n", publicKeyPath)
	fmt.Fprintf(out, "Fingerprint:  %s\n", kp.Fingerprint)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Public Key (register this with the provider):")
	fmt.Fprintln(out, string(kp.PublicKeyPEM))

	return nil
}
