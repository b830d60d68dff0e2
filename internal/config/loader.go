package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/tui-snek/internal/multiplayer"
	"github.com/vovakirdan/tui-snek/internal/world"
)

// SourceEmbedded and SourceBuiltin name configurations that did not come
// from a file.
const (
	SourceEmbedded = "embedded"
	SourceBuiltin  = "builtin"
)

// Load loads the configuration and reports where it came from.
// Search order: customPath -> ~/.snek/config.yaml -> ./configs/snek.yaml -> embedded default.
// Fields a file leaves out keep their default values.
func Load(customPath string) (Config, string, error) {
	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return Config{}, "", fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		cfg, err := Parse(data)
		if err != nil {
			return Config{}, "", fmt.Errorf("config: %s: %w", customPath, err)
		}
		if err := cfg.Validate(); err != nil {
			return Config{}, "", fmt.Errorf("config: %s: %w", customPath, err)
		}
		return cfg, customPath, nil
	}

	// Try user config directory, then the local configs directory
	for _, path := range []string{userConfigPath(), filepath.Join("configs", "snek.yaml")} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if cfg, err := Parse(data); err == nil && cfg.Validate() == nil {
			return cfg, path, nil
		}
	}

	// Use embedded default YAML
	if cfg, err := Parse(defaultYAML); err == nil {
		return cfg, SourceEmbedded, nil
	}
	return Default(), SourceBuiltin, nil // Fallback to hardcoded if embed fails
}

// Parse decodes a YAML document on top of Default.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse: %w", err)
	}
	return cfg, nil
}

// userConfigPath returns the path to the user config file, or empty if home is unavailable.
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".snek", "config.yaml")
}

// Validate reports every setting that would make the game unplayable.
func (c Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	s := c.Server
	check(s.Players >= 1 && s.Players <= 255, "server.players must be in [1, 255], got %d", s.Players)
	check(s.TickRate > 0, "server.tick_rate must be positive, got %d", s.TickRate)
	check(s.SyncInterval > 0, "server.sync_interval must be positive, got %v", s.SyncInterval)
	check(s.MaxBacktrack >= 0, "server.max_backtrack must not be negative, got %v", s.MaxBacktrack)
	check(s.PollTimeout > 0, "server.poll_timeout must be positive, got %v", s.PollTimeout)
	check(s.TurnRate >= 0, "server.turn_rate must not be negative, got %v", s.TurnRate)

	r := c.Rules
	check(r.HalfExtent > 0, "rules.half_extent must be positive, got %v", r.HalfExtent)
	check(r.AppleRange >= 0 && float32(r.AppleRange) < r.HalfExtent,
		"rules.apple_range must be in [0, half_extent), got %d", r.AppleRange)
	check(r.PickupRadius > 0, "rules.pickup_radius must be positive, got %v", r.PickupRadius)
	check(r.Speed > 0, "rules.speed must be positive, got %v", r.Speed)
	check(r.InitialLength > 0, "rules.initial_length must be positive, got %v", r.InitialLength)
	check(r.SpawnSpacing > 0, "rules.spawn_spacing must be positive, got %v", r.SpawnSpacing)
	check(float32(s.Players-1)*r.SpawnSpacing < r.HalfExtent,
		"rules.spawn_spacing %v puts player %d outside the field", r.SpawnSpacing, s.Players-1)

	check(c.Client.FPS > 0, "client.fps must be positive, got %d", c.Client.FPS)

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level))
	}

	return errors.Join(errs...)
}

// WorldRules converts the rules section for the simulation.
func (c Config) WorldRules() world.Rules {
	return world.Rules{
		HalfExtent:    c.Rules.HalfExtent,
		AppleRange:    c.Rules.AppleRange,
		PickupRadius:  c.Rules.PickupRadius,
		Speed:         c.Rules.Speed,
		InitialLength: c.Rules.InitialLength,
		SpawnSpacing:  c.Rules.SpawnSpacing,
	}
}

// MatchServer returns the settings for multiplayer.NewServer.
func (c Config) MatchServer() multiplayer.ServerConfig {
	return multiplayer.ServerConfig{
		Players:      c.Server.Players,
		TickRate:     c.Server.TickRate,
		SyncInterval: c.Server.SyncInterval,
		MaxBacktrack: c.Server.MaxBacktrack,
		PollTimeout:  c.Server.PollTimeout,
		TurnRate:     c.Server.TurnRate,
		TurnBurst:    c.Server.TurnBurst,
		Seed:         c.Server.Seed,
		Rules:        c.WorldRules(),
	}
}

// MatchClient returns the settings for multiplayer.NewClient. The client
// ticks at the server's rate so both sides integrate identically.
func (c Config) MatchClient() multiplayer.ClientConfig {
	return multiplayer.ClientConfig{
		TickRate: c.Server.TickRate,
		Rules:    c.WorldRules(),
	}
}
