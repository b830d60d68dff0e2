package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-snek/internal/core"
	"github.com/vovakirdan/tui-snek/internal/logging"
	"github.com/vovakirdan/tui-snek/internal/multiplayer"
	"github.com/vovakirdan/tui-snek/internal/platform/tui"
	"github.com/vovakirdan/tui-snek/internal/transport"
)

var flagFPS int

var joinCmd = &cobra.Command{
	Use:   "join [addr]",
	Short: "Join a game server",
	Long: `Connect to a game server and play. Without an address the client.server
setting is used.

Controls:
  Left/A/H   - Turn left
  Right/D/L  - Turn right
  ?          - Toggle help
  Q/Esc      - Leave

The address is a TCP host:port or a ws:// URL.

Examples:
  snek join
  snek join 10.0.0.5:7777
  snek join ws://10.0.0.5:7778/ws --fps 30`,
	Args: cobra.MaximumNArgs(1),
	RunE: runJoin,
}

func init() {
	joinCmd.Flags().IntVar(&flagFPS, "fps", 0, "Redraw rate (frames per second)")
}

func runJoin(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if len(args) == 1 {
		cfg.Client.Server = args[0]
	}
	if cmd.Flags().Changed("fps") {
		cfg.Client.FPS = flagFPS
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	// The view owns the terminal, so logs only go to a file.
	logger := log.New(io.Discard)
	if cfg.Log.File != "" {
		fileLogger, closer, err := logging.New(cfg.Log, "snek-client")
		if err != nil {
			return err
		}
		defer closer.Close()
		logger = fileLogger
	}

	rc := core.DefaultConfig()
	rc.TickRate = cfg.Client.FPS
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		rc.ScreenW = w
		rc.ScreenH = h
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := transport.NewHub(transport.DefaultOptions(), logger)
	defer hub.Close()
	if _, err := hub.Dial(ctx, cfg.Client.Server); err != nil {
		return err
	}

	client := multiplayer.NewClient(cfg.MatchClient(), logger)
	if err := tui.Run(client, hub, cfg.Client.Server, rc); err != nil {
		return fmt.Errorf("client view: %w", err)
	}

	switch client.Status() {
	case multiplayer.StatusWon:
		fmt.Println("You won.")
	case multiplayer.StatusLost:
		fmt.Println("You died.")
	case multiplayer.StatusDisconnected:
		fmt.Printf("Disconnected from %s.\n", cfg.Client.Server)
	}
	return nil
}
