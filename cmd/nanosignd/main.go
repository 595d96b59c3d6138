// Command nanosignd runs the signing device emulator.
//
// Usage:
//
//	nanosignd [serve] [--config device.toml] [flags]
//	nanosignd config init --kind device|host --output path
//	nanosignd config validate --kind device|host --input path
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/danmuck/nanosign/internal/config"
	"github.com/danmuck/nanosign/internal/emulator"
	"github.com/danmuck/nanosign/internal/observability"
	"github.com/urfave/cli/v2"
)

var version = "0.1.0"

func main() {
	app := &cli.App{
		Name:           "nanosignd",
		Usage:          "signing device emulator",
		Version:        version,
		Flags:          serveFlags(),
		Action:         serveAction,
		ExitErrHandler: exitErrHandler,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the device and its listeners (default)",
				Flags:  serveFlags(),
				Action: serveAction,
			},
			configCommand(),
		},
	}
	if err := app.Run(os.Args); err != nil {
		os.Exit(1)
	}
}

func serveAction(c *cli.Context) error {
	cfg, err := resolveDeviceConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	logger := observability.InitLogger(cfg.Name)
	e, err := emulator.New(cfg, logger)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()
	logger.Info().
		Str("apdu_addr", cfg.APDUAddr).
		Str("http_addr", cfg.HTTPAddr).
		Str("confirm", cfg.Confirm).
		Bool("debug_commands", cfg.DebugCommands).
		Msg("device starting")
	if err := e.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info().Msg("device stopped")
	return nil
}

func configCommand() *cli.Command {
	kind := &cli.StringFlag{Name: "kind", Value: "device", Usage: "config kind: device|host"}
	return &cli.Command{
		Name:  "config",
		Usage: "write or check config files",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "write a config template",
				Flags: []cli.Flag{
					kind,
					&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Required: true},
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing file"},
				},
				Action: func(c *cli.Context) error {
					if err := config.WriteTemplate(c.String("output"), c.String("kind"), c.Bool("force")); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "wrote %s config to %s\n", c.String("kind"), c.String("output"))
					return nil
				},
			},
			{
				Name:  "validate",
				Usage: "load and validate a config file",
				Flags: []cli.Flag{
					kind,
					&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true},
				},
				Action: func(c *cli.Context) error {
					var err error
					switch c.String("kind") {
					case "device":
						_, err = config.LoadDeviceConfig(c.String("input"))
					case "host":
						_, err = config.LoadHostConfig(c.String("input"))
					default:
						err = fmt.Errorf("unknown kind: %s", c.String("kind"))
					}
					if err != nil {
						return cli.Exit(err.Error(), 2)
					}
					fmt.Fprintf(c.App.Writer, "validated %s config at %s\n", c.String("kind"), c.String("input"))
					return nil
				},
			},
		},
	}
}

func exitErrHandler(_ *cli.Context, err error) {
	if err == nil {
		return
	}
	var exitCoder cli.ExitCoder
	if errors.As(err, &exitCoder) {
		if msg := exitCoder.Error(); msg != "" {
			fmt.Fprintf(os.Stderr, "nanosignd: %s\n", msg)
		}
		os.Exit(exitCoder.ExitCode())
	}
	fmt.Fprintf(os.Stderr, "nanosignd: %v\n", err)
	os.Exit(1)
}
