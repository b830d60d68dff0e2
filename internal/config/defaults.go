package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/snek.yaml
var defaultYAML []byte

// Default returns the built-in configuration. It matches defaults/snek.yaml.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Address:      ":7777",
			WSAddress:    ":7778",
			Players:      2,
			TickRate:     60,
			SyncInterval: 200 * time.Millisecond,
			MaxBacktrack: 2,
			PollTimeout:  10 * time.Millisecond,
			TurnRate:     20,
			TurnBurst:    10,
		},
		Rules: RulesConfig{
			HalfExtent:    10,
			AppleRange:    9,
			PickupRadius:  1,
			Speed:         6,
			InitialLength: 2,
			SpawnSpacing:  2,
		},
		Client: ClientConfig{
			Server: "127.0.0.1:7777",
			FPS:    60,
		},
		SSH: SSHConfig{
			Address:     ":2222",
			HostKey:     ".ssh/snek_ed25519",
			IdleTimeout: 10 * time.Minute,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// DefaultYAML returns the embedded default document, for `snek config`
// style dumps and as a template for user files.
func DefaultYAML() []byte {
	return defaultYAML
}
