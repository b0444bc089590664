package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ardnew/etpl/secureid"
)

// ID converts identifiers with the configured secureid key.
type ID struct {
	Encrypt Encrypt `cmd:"" help:"Obfuscate integer identifiers."`
	Decrypt Decrypt `cmd:"" help:"Recover integer identifiers."`
}

// Encrypt prints the obfuscated form of each number.
type Encrypt struct {
	Numbers []int64 `arg:"" help:"Identifiers to encrypt." name:"n"`

	stdout io.Writer
}

// Run executes the encrypt command.
func (e *Encrypt) Run(ctx context.Context) error {
	c, err := requireCodec(ctx)
	if err != nil {
		return err
	}

	for _, n := range e.Numbers {
		s, err := c.EncryptNumber(n)
		if err != nil {
			return err
		}

		fmt.Fprintln(writerOr(e.stdout), s)
	}

	return nil
}

// Decrypt prints the number sealed in each identifier.
type Decrypt struct {
	IDs []string `arg:"" help:"Identifiers to decrypt." name:"id"`

	stdout io.Writer
}

// Run executes the decrypt command.
func (d *Decrypt) Run(ctx context.Context) error {
	c, err := requireCodec(ctx)
	if err != nil {
		return err
	}

	for _, s := range d.IDs {
		n, err := c.DecryptNumber(s)
		if err != nil {
			return err
		}

		fmt.Fprintln(writerOr(d.stdout), strconv.FormatInt(n, 10))
	}

	return nil
}

func requireCodec(ctx context.Context) (*secureid.Codec, error) {
	c, err := settingsFrom(ctx).codec()
	if err != nil {
		return nil, err
	}

	if c == nil {
		return nil, ErrNoKey
	}

	return c, nil
}

// Keygen prints a random hex-encoded key for --key.
type Keygen struct {
	Size int `default:"32" enum:"16,24,32" help:"Key size in bytes (${enum})."`

	stdout io.Writer
}

// Run executes the keygen command.
func (k *Keygen) Run(context.Context) error {
	key, err := secureid.Generate(k.Size)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(writerOr(k.stdout), "%x\n", key)

	return err
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}

	return w
}
