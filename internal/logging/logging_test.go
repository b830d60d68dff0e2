package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vovakirdan/tui-snek/internal/config"
)

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snek.log")
	cfg := config.Default().Log
	cfg.File = path
	cfg.Level = "warn"

	logger, closer, err := New(cfg, "snek-test")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("hidden")
	logger.Warn("player left", "player", 1)
	if err := closer.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Error("info message written at warn level")
	}
	for _, want := range []string{"snek-test", "player left", "player=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log %q missing %q", out, want)
		}
	}
}

func TestNewStderr(t *testing.T) {
	logger, closer, err := New(config.Default().Log, "snek")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger == nil {
		t.Fatal("New() returned a nil logger")
	}
	if err := closer.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestNewBadLevel(t *testing.T) {
	cfg := config.Default().Log
	cfg.Level = "chatty"
	if _, _, err := New(cfg, "snek"); err == nil {
		t.Error("New() accepted an unknown level")
	}
}
