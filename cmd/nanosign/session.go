package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/danmuck/nanosign/internal/config"
	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/danmuck/nanosign/internal/host"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func hostFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "host config file", EnvVars: []string{"NANOSIGN_HOST_CONFIG"}},
		&cli.StringFlag{Name: "transport", Usage: "tcp|ws"},
		&cli.StringFlag{Name: "addr", Usage: "device address (host:port, or a ws:// URL)"},
		&cli.StringFlag{Name: "token", Usage: "bearer token for the ws transport", EnvVars: []string{"NANOSIGN_API_TOKEN"}},
		&cli.IntFlag{Name: "chunk-size", Usage: "max data bytes per command chunk"},
		&cli.DurationFlag{Name: "timeout", Usage: "overall deadline, including time spent on device prompts"},
	}
}

func pathFlag() cli.Flag {
	return &cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "BIP32 path, e.g. m/44'/535348'/0'"}
}

// resolveHostConfig merges the config file, global flags and the
// subcommand --path flag.
func resolveHostConfig(c *cli.Context) (config.HostConfig, error) {
	cfg := config.DefaultHostConfig()
	if path := strings.TrimSpace(c.String("config")); path != "" {
		loaded, err := config.LoadHostConfig(path)
		if err != nil {
			return config.HostConfig{}, err
		}
		cfg = loaded
	}
	if c.IsSet("transport") {
		cfg.Transport = strings.ToLower(strings.TrimSpace(c.String("transport")))
	}
	if c.IsSet("addr") {
		cfg.Addr = strings.TrimSpace(c.String("addr"))
	}
	if c.IsSet("token") {
		cfg.Token = strings.TrimSpace(c.String("token"))
	}
	if c.IsSet("chunk-size") {
		cfg.ChunkSize = c.Int("chunk-size")
	}
	if c.IsSet("timeout") {
		cfg.Timeout = c.Duration("timeout")
	}
	if c.IsSet("path") {
		cfg.Path = strings.TrimSpace(c.String("path"))
	}
	if err := config.ValidateHostConfig(cfg); err != nil {
		return config.HostConfig{}, err
	}
	return cfg, nil
}

// wsURL turns a bare host:port into the device's websocket endpoint.
func wsURL(addr string) (string, error) {
	if !strings.Contains(addr, "://") {
		addr = "ws://" + addr + "/ws"
	}
	u, err := url.Parse(addr)
	if err != nil {
		return "", fmt.Errorf("parse ws addr: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("unsupported ws scheme %q", u.Scheme)
	}
	if u.Path == "" || u.Path == "/" {
		u.Path = "/ws"
	}
	return u.String(), nil
}

func dial(ctx context.Context, cfg config.HostConfig) (host.Exchanger, error) {
	switch cfg.Transport {
	case config.TransportWS:
		target, err := wsURL(cfg.Addr)
		if err != nil {
			return nil, err
		}
		return host.DialWS(ctx, target, cfg.Token)
	default:
		return host.DialTCP(ctx, cfg.Addr)
	}
}

type session struct {
	ctx    context.Context
	client *host.Client
	path   crypto.Path
}

func withClient(c *cli.Context, fn func(*session) error) error {
	cfg, err := resolveHostConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	p, err := crypto.ParsePath(cfg.Path)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}
	ctx, cancel := context.WithTimeout(c.Context, cfg.Timeout)
	defer cancel()

	x, err := dial(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect %s %s: %w", cfg.Transport, cfg.Addr, err)
	}
	logger := log.Logger.With().Str("transport", cfg.Transport).Str("addr", cfg.Addr).Logger()
	client := host.NewClient(x,
		host.WithClass(cfg.Class),
		host.WithChunkSize(cfg.ChunkSize),
		host.WithLogger(logger),
	)
	defer client.Close()
	return fn(&session{ctx: ctx, client: client, path: p})
}
