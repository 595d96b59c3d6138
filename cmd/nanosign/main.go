// Command nanosign talks to a nanosign device over TCP or WebSocket.
//
// Usage:
//
//	nanosign [--config host.toml] address [--path m/44'/535348'/0']
//	nanosign sign --tx-hex 0badc0de
//	nanosign sign --tx-file tx.bin
//	nanosign show-key | menu | exit
package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/nanosign/internal/observability"
	"github.com/danmuck/nanosign/internal/protocol"
	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

func main() {
	app := &cli.App{
		Name:           "nanosign",
		Usage:          "host client for a nanosign device",
		Version:        version,
		Flags:          hostFlags(),
		ExitErrHandler: exitErrHandler,
		Before: func(*cli.Context) error {
			observability.InitLogger("nanosign")
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "address",
				Usage:  "fetch the public key at a path",
				Flags:  []cli.Flag{pathFlag()},
				Action: addressAction,
			},
			{
				Name:  "sign",
				Usage: "sign a transaction with the key at a path",
				Flags: []cli.Flag{
					pathFlag(),
					&cli.StringFlag{Name: "tx-hex", Usage: "transaction bytes in hex"},
					&cli.StringFlag{Name: "tx-file", Usage: "file holding the raw transaction"},
				},
				Action: signAction,
			},
			{
				Name:   "show-key",
				Usage:  "display the private key at a path on the device (debug builds)",
				Flags:  []cli.Flag{pathFlag()},
				Action: showKeyAction,
			},
			{
				Name:  "menu",
				Usage: "return the device to its menu screen",
				Action: func(c *cli.Context) error {
					return withClient(c, func(s *session) error {
						return s.client.ShowMenu(s.ctx)
					})
				},
			},
			{
				Name:  "exit",
				Usage: "ask the device to shut down",
				Action: func(c *cli.Context) error {
					return withClient(c, func(s *session) error {
						return s.client.Exit(s.ctx)
					})
				},
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func addressAction(c *cli.Context) error {
	return withClient(c, func(s *session) error {
		pub, err := s.client.GetAddress(s.ctx, s.path)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "path: %s\n", s.path)
		fmt.Fprintf(c.App.Writer, "public_key: %x\n", pub[:])
		return nil
	})
}

func signAction(c *cli.Context) error {
	tx, err := readTransaction(c.String("tx-hex"), c.String("tx-file"))
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	return withClient(c, func(s *session) error {
		sig, err := s.client.Sign(s.ctx, s.path, tx)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "path: %s\n", s.path)
		fmt.Fprintf(c.App.Writer, "signature: %x\n", sig)
		return nil
	})
}

func showKeyAction(c *cli.Context) error {
	return withClient(c, func(s *session) error {
		if err := s.client.ShowPrivateKey(s.ctx, s.path); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, "private key shown on device")
		return nil
	})
}

func readTransaction(txHex, txFile string) ([]byte, error) {
	txHex = strings.TrimSpace(txHex)
	txFile = strings.TrimSpace(txFile)
	switch {
	case txHex != "" && txFile != "":
		return nil, errors.New("use either --tx-hex or --tx-file")
	case txHex != "":
		tx, err := hex.DecodeString(strings.TrimPrefix(txHex, "0x"))
		if err != nil {
			return nil, fmt.Errorf("decode --tx-hex: %w", err)
		}
		return tx, nil
	case txFile != "":
		tx, err := os.ReadFile(txFile)
		if err != nil {
			return nil, fmt.Errorf("read --tx-file: %w", err)
		}
		return tx, nil
	default:
		return nil, errors.New("missing transaction: pass --tx-hex or --tx-file")
	}
}

func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		if msg := exitCoder.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "nanosign: %s\n", msg)
		}
		os.Exit(exitCoder.ExitCode())
	}
	var statusErr *protocol.StatusError
	if errors.As(err, &statusErr) {
		fmt.Fprintf(os.Stderr, "nanosign: device replied %s\n", statusErr.Status)
		os.Exit(3)
	}
	fmt.Fprintf(os.Stderr, "nanosign: %v\n", err)
	os.Exit(1)
}
