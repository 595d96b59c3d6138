package config

import (
	"github.com/danmuck/nanosign/internal/device"
)

// Device returns the dispatch policy part of cfg.
func (cfg DeviceConfig) Device() device.Config {
	return device.Config{
		Class:         cfg.Class,
		ChunkSize:     cfg.ChunkSize,
		DebugCommands: cfg.DebugCommands,
	}
}
