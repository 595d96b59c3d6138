package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "device":
		return deviceTemplate, nil
	case "host":
		return hostTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const deviceTemplate = `name = "nanosignd"
class = 0x80
chunk_size = 255
seed_hex = "000102030405060708090a0b0c0d0e0f"
debug_commands = false
# buttons | terminal | approve | decline
confirm = "buttons"
apdu_addr = "127.0.0.1:9999"
http_addr = "127.0.0.1:5000"
api_token = ""
cors_origins = ["http://localhost:3000"]
screen_history = 32
`

const hostTemplate = `# tcp | ws
transport = "tcp"
addr = "127.0.0.1:9999"
token = ""
class = 0x80
chunk_size = 255
path = "m/44'/535348'/0'"
timeout = "2m"
`
