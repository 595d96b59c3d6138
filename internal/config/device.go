package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/nanosign/internal/crypto"
	"github.com/danmuck/nanosign/internal/protocol"
)

// Confirm modes.
const (
	ConfirmButtons  = "buttons"
	ConfirmTerminal = "terminal"
	ConfirmApprove  = "approve"
	ConfirmDecline  = "decline"
)

// DeviceConfig is the emulator daemon configuration.
type DeviceConfig struct {
	Name          string
	Class         uint8
	ChunkSize     int
	SeedHex       string
	DebugCommands bool
	Confirm       string
	APDUAddr      string
	HTTPAddr      string
	APIToken      string
	CorsOrigins   []string
	ScreenHistory int
}

type deviceFile struct {
	Name          string   `toml:"name"`
	Class         int      `toml:"class"`
	ChunkSize     int      `toml:"chunk_size"`
	SeedHex       string   `toml:"seed_hex"`
	DebugCommands bool     `toml:"debug_commands"`
	Confirm       string   `toml:"confirm"`
	APDUAddr      string   `toml:"apdu_addr"`
	HTTPAddr      string   `toml:"http_addr"`
	APIToken      string   `toml:"api_token"`
	CorsOrigins   []string `toml:"cors_origins"`
	ScreenHistory int      `toml:"screen_history"`
}

func DefaultDeviceConfig() DeviceConfig {
	return DeviceConfig{
		Name:          "nanosignd",
		Class:         protocol.DefaultClass,
		ChunkSize:     protocol.MaxChunkLen,
		SeedHex:       crypto.DefaultSeedHex,
		Confirm:       ConfirmButtons,
		APDUAddr:      "127.0.0.1:9999",
		HTTPAddr:      "127.0.0.1:5000",
		ScreenHistory: 32,
	}
}

// LoadDeviceConfig applies the keys present in path over the defaults.
func LoadDeviceConfig(path string) (DeviceConfig, error) {
	cfg := DefaultDeviceConfig()

	var raw deviceFile
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return DeviceConfig{}, fmt.Errorf("load device config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return DeviceConfig{}, fmt.Errorf("device config %s: unknown key %q", path, undecoded[0].String())
	}

	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("class") {
		if raw.Class < 0 || raw.Class > 0xFF {
			return DeviceConfig{}, fmt.Errorf("device config class out of range: %d", raw.Class)
		}
		cfg.Class = uint8(raw.Class)
	}
	if meta.IsDefined("chunk_size") {
		cfg.ChunkSize = raw.ChunkSize
	}
	if meta.IsDefined("seed_hex") {
		cfg.SeedHex = strings.TrimSpace(raw.SeedHex)
	}
	if meta.IsDefined("debug_commands") {
		cfg.DebugCommands = raw.DebugCommands
	}
	if meta.IsDefined("confirm") {
		cfg.Confirm = strings.ToLower(strings.TrimSpace(raw.Confirm))
	}
	if meta.IsDefined("apdu_addr") {
		cfg.APDUAddr = strings.TrimSpace(raw.APDUAddr)
	}
	if meta.IsDefined("http_addr") {
		cfg.HTTPAddr = strings.TrimSpace(raw.HTTPAddr)
	}
	if meta.IsDefined("api_token") {
		cfg.APIToken = strings.TrimSpace(raw.APIToken)
	}
	if meta.IsDefined("cors_origins") {
		cfg.CorsOrigins = normalizeList(raw.CorsOrigins)
	}
	if meta.IsDefined("screen_history") {
		cfg.ScreenHistory = raw.ScreenHistory
	}

	if err := ValidateDeviceConfig(cfg); err != nil {
		return DeviceConfig{}, err
	}
	return cfg, nil
}

func ValidateDeviceConfig(cfg DeviceConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("device config missing name")
	}
	if cfg.ChunkSize < 1 || cfg.ChunkSize > protocol.MaxChunkLen {
		return fmt.Errorf("device config chunk_size must be 1..%d, got %d", protocol.MaxChunkLen, cfg.ChunkSize)
	}
	switch cfg.Confirm {
	case ConfirmButtons, ConfirmTerminal, ConfirmApprove, ConfirmDecline:
	default:
		return fmt.Errorf("device config confirm must be buttons|terminal|approve|decline, got %q", cfg.Confirm)
	}
	if cfg.APDUAddr == "" && cfg.HTTPAddr == "" {
		return fmt.Errorf("device config needs apdu_addr or http_addr")
	}
	if cfg.ScreenHistory < 0 {
		return fmt.Errorf("device config screen_history must not be negative")
	}
	if _, err := crypto.NewKeyringHex(cfg.SeedHex); err != nil {
		return fmt.Errorf("device config seed_hex: %w", err)
	}
	return nil
}

func normalizeList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return out
}
