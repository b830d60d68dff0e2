// Package config provides YAML-based configuration loading for the snek
// server, client, SSH gateway and logging.
package config

import "time"

// Config is the whole snek.yaml document.
type Config struct {
	Server ServerConfig `yaml:"server"`
	Rules  RulesConfig  `yaml:"rules"`
	Client ClientConfig `yaml:"client"`
	SSH    SSHConfig    `yaml:"ssh"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig configures the authoritative game server.
type ServerConfig struct {
	Address      string        `yaml:"address"`    // TCP listen address
	WSAddress    string        `yaml:"ws_address"` // WebSocket listen address, empty to disable
	Players      int           `yaml:"players"`
	TickRate     int           `yaml:"tick_rate"`
	SyncInterval time.Duration `yaml:"sync_interval"`
	MaxBacktrack float32       `yaml:"max_backtrack"`
	PollTimeout  time.Duration `yaml:"poll_timeout"`
	TurnRate     float64       `yaml:"turn_rate"` // turns per second per player, 0 = unlimited
	TurnBurst    int           `yaml:"turn_burst"`
	Seed         int64         `yaml:"seed"`    // 0 = random
	DBPath       string        `yaml:"db_path"` // match history, empty to disable
}

// RulesConfig defines the play field. Server and clients must agree.
type RulesConfig struct {
	HalfExtent    float32 `yaml:"half_extent"`
	AppleRange    int     `yaml:"apple_range"`
	PickupRadius  float32 `yaml:"pickup_radius"`
	Speed         float32 `yaml:"speed"`
	InitialLength float32 `yaml:"initial_length"`
	SpawnSpacing  float32 `yaml:"spawn_spacing"`
}

// ClientConfig configures the terminal client.
type ClientConfig struct {
	Server string `yaml:"server"` // host:port or ws:// URL
	FPS    int    `yaml:"fps"`
}

// SSHConfig configures the SSH gateway.
type SSHConfig struct {
	Address     string        `yaml:"address"`
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// LogConfig configures logging. File output is rotated.
type LogConfig struct {
	Level      string `yaml:"level"` // debug, info, warn, error
	File       string `yaml:"file"`  // empty logs to stderr
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}
