package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/pelletier/go-toml/v2"
)

// Host transports.
const (
	TransportTCP = "tcp"
	TransportWS  = "ws"
)

// HostConfig configures the host CLI.
type HostConfig struct {
	Transport string
	Addr      string
	Token     string
	Class     uint8
	ChunkSize int
	Path      string
	Timeout   time.Duration
}

type hostFile struct {
	Transport string `toml:"transport"`
	Addr      string `toml:"addr"`
	Token     string `toml:"token"`
	Class     uint8  `toml:"class"`
	ChunkSize int    `toml:"chunk_size"`
	Path      string `toml:"path"`
	Timeout   string `toml:"timeout"`
}

func DefaultHostConfig() HostConfig {
	return HostConfig{
		Transport: TransportTCP,
		Addr:      "127.0.0.1:9999",
		Class:     0x80,
		ChunkSize: 255,
		Path:      "m/44'/535348'/0'",
		Timeout:   2 * time.Minute,
	}
}

// LoadHostConfig reads path over the defaults. Unknown keys are an error.
func LoadHostConfig(path string) (HostConfig, error) {
	def := DefaultHostConfig()
	raw := hostFile{
		Transport: def.Transport,
		Addr:      def.Addr,
		Token:     def.Token,
		Class:     def.Class,
		ChunkSize: def.ChunkSize,
		Path:      def.Path,
		Timeout:   def.Timeout.String(),
	}
	if err := loadToml(path, &raw); err != nil {
		return HostConfig{}, err
	}
	timeout, err := time.ParseDuration(strings.TrimSpace(raw.Timeout))
	if err != nil {
		return HostConfig{}, fmt.Errorf("parse timeout: %w", err)
	}
	cfg := HostConfig{
		Transport: strings.ToLower(strings.TrimSpace(raw.Transport)),
		Addr:      strings.TrimSpace(raw.Addr),
		Token:     strings.TrimSpace(raw.Token),
		Class:     raw.Class,
		ChunkSize: raw.ChunkSize,
		Path:      strings.TrimSpace(raw.Path),
		Timeout:   timeout,
	}
	if err := ValidateHostConfig(cfg); err != nil {
		return HostConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

func ValidateHostConfig(cfg HostConfig) error {
	switch cfg.Transport {
	case TransportTCP, TransportWS:
	default:
		return fmt.Errorf("host config transport must be tcp or ws, got %q", cfg.Transport)
	}
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("host config missing addr")
	}
	if cfg.ChunkSize < 1 || cfg.ChunkSize > 255 {
		return fmt.Errorf("host config chunk_size must be 1..255, got %d", cfg.ChunkSize)
	}
	if _, err := crypto.ParsePath(cfg.Path); err != nil {
		return fmt.Errorf("host config path: %w", err)
	}
	if cfg.Timeout <= 0 {
		return fmt.Errorf("host config timeout must be positive")
	}
	return nil
}
