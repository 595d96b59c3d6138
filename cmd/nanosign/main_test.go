package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/nanosign/internal/config"
	"github.com/danmuck/nanosign/internal/testutil/testlog"
	"github.com/urfave/cli/v2"
)

func resolveWith(t *testing.T, args ...string) (config.HostConfig, error) {
	t.Helper()
	var (
		got config.HostConfig
		err error
	)
	app := &cli.App{
		Name:  "nanosign",
		Flags: hostFlags(),
		Commands: []*cli.Command{{
			Name:  "address",
			Flags: []cli.Flag{pathFlag()},
			Action: func(c *cli.Context) error {
				got, err = resolveHostConfig(c)
				return nil
			},
		}},
	}
	if runErr := app.Run(append([]string{"nanosign"}, args...)); runErr != nil {
		t.Fatalf("run: %v", runErr)
	}
	return got, err
}

func TestResolveHostConfigLayers(t *testing.T) {
	testlog.Start(t)
	path := filepath.Join(t.TempDir(), "host.toml")
	body := "transport = \"ws\"\naddr = \"127.0.0.1:5000\"\nchunk_size = 64\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := resolveWith(t, "--config", path, "--timeout", "5s", "address", "--path", "m/44'/1'")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.Transport != config.TransportWS || cfg.ChunkSize != 64 {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.Timeout != 5*time.Second || cfg.Path != "m/44'/1'" {
		t.Fatalf("flags not applied: %+v", cfg)
	}
}

func TestResolveHostConfigRejectsBadPath(t *testing.T) {
	testlog.Start(t)
	if _, err := resolveWith(t, "address", "--path", "m/x"); err == nil {
		t.Fatalf("expected path error")
	}
	if _, err := resolveWith(t, "--transport", "udp", "address"); err == nil {
		t.Fatalf("expected transport error")
	}
}

func TestWSURL(t *testing.T) {
	testlog.Start(t)
	cases := map[string]string{
		"127.0.0.1:5000":            "ws://127.0.0.1:5000/ws",
		"http://device.local:5000":  "ws://device.local:5000/ws",
		"wss://device.local/custom": "wss://device.local/custom",
	}
	for in, want := range cases {
		got, err := wsURL(in)
		if err != nil {
			t.Fatalf("wsURL(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("wsURL(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := wsURL("ftp://x"); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestReadTransaction(t *testing.T) {
	testlog.Start(t)
	tx, err := readTransaction("0x0badc0de", "")
	if err != nil || !bytes.Equal(tx, []byte{0x0b, 0xad, 0xc0, 0xde}) {
		t.Fatalf("hex tx = %x, %v", tx, err)
	}
	path := filepath.Join(t.TempDir(), "tx.bin")
	if err := os.WriteFile(path, []byte{1, 2, 3}, 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	tx, err = readTransaction("", path)
	if err != nil || !bytes.Equal(tx, []byte{1, 2, 3}) {
		t.Fatalf("file tx = %x, %v", tx, err)
	}
	if _, err := readTransaction("aa", path); err == nil {
		t.Fatalf("expected conflict error")
	}
	if _, err := readTransaction("", ""); err == nil || !strings.Contains(err.Error(), "missing") {
		t.Fatalf("expected missing error, got %v", err)
	}
}

func TestDialUnreachableDevice(t *testing.T) {
	testlog.Start(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	cfg := config.DefaultHostConfig()
	cfg.Addr = "127.0.0.1:1"
	if _, err := dial(ctx, cfg); err == nil {
		t.Fatalf("expected dial error")
	}
}
