package main

import (
	"strings"

	"github.com/danmuck/nanosign/internal/config"
	"github.com/urfave/cli/v2"
)

func serveFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "device config file", EnvVars: []string{"NANOSIGN_CONFIG"}},
		&cli.StringFlag{Name: "apdu-addr", Usage: "TCP APDU listen address (empty disables)"},
		&cli.StringFlag{Name: "http-addr", Usage: "HTTP API listen address (empty disables)"},
		&cli.StringFlag{Name: "confirm", Usage: "prompt mode: buttons|terminal|approve|decline"},
		&cli.StringFlag{Name: "seed-hex", Usage: "BIP32 seed in hex", EnvVars: []string{"NANOSIGN_SEED_HEX"}},
		&cli.StringFlag{Name: "token", Usage: "bearer token for the HTTP API", EnvVars: []string{"NANOSIGN_API_TOKEN"}},
		&cli.IntFlag{Name: "chunk-size", Usage: "max reply data bytes per exchange"},
		&cli.BoolFlag{Name: "debug-commands", Usage: "enable diagnostic opcodes"},
		&cli.StringSliceFlag{Name: "cors-origin", Usage: "allowed CORS origin (repeatable)"},
	}
}

// resolveDeviceConfig loads the config file when given and lets any flag
// the user set override it.
func resolveDeviceConfig(c *cli.Context) (config.DeviceConfig, error) {
	cfg := config.DefaultDeviceConfig()
	if path := strings.TrimSpace(c.String("config")); path != "" {
		loaded, err := config.LoadDeviceConfig(path)
		if err != nil {
			return config.DeviceConfig{}, err
		}
		cfg = loaded
	}
	if c.IsSet("apdu-addr") {
		cfg.APDUAddr = strings.TrimSpace(c.String("apdu-addr"))
	}
	if c.IsSet("http-addr") {
		cfg.HTTPAddr = strings.TrimSpace(c.String("http-addr"))
	}
	if c.IsSet("confirm") {
		cfg.Confirm = strings.ToLower(strings.TrimSpace(c.String("confirm")))
	}
	if c.IsSet("seed-hex") {
		cfg.SeedHex = strings.TrimSpace(c.String("seed-hex"))
	}
	if c.IsSet("token") {
		cfg.APIToken = strings.TrimSpace(c.String("token"))
	}
	if c.IsSet("chunk-size") {
		cfg.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("debug-commands") {
		cfg.DebugCommands = c.Bool("debug-commands")
	}
	if c.IsSet("cors-origin") {
		cfg.CorsOrigins = c.StringSlice("cors-origin")
	}
	if err := config.ValidateDeviceConfig(cfg); err != nil {
		return config.DeviceConfig{}, err
	}
	return cfg, nil
}
