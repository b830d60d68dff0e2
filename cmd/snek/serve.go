package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-snek/internal/logging"
	"github.com/vovakirdan/tui-snek/internal/multiplayer"
	"github.com/vovakirdan/tui-snek/internal/storage"
	"github.com/vovakirdan/tui-snek/internal/transport"
)

var (
	flagListen   string
	flagWSListen string
	flagPlayers  int
	flagSeed     int64
	flagServeDB  string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the authoritative game server",
	Long: `Run the game server. It seats players as they connect, starts the match
once every seat has said hello and keeps all clients in sync.

Clients connect over TCP (--listen) or WebSocket (--ws, path /ws).
When --db is set every finished match is recorded for 'snek history'.

Examples:
  snek serve                         # TCP :7777 and WebSocket :7778
  snek serve --listen :9000 --ws ""  # TCP only
  snek serve --players 4 --seed 42   # Four seats, reproducible apples
  snek serve --db ~/.snek/matches.db # Keep match history`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "TCP listen address (host:port)")
	serveCmd.Flags().StringVar(&flagWSListen, "ws", "", "WebSocket listen address, empty to disable")
	serveCmd.Flags().IntVar(&flagPlayers, "players", 0, "Seats per match")
	serveCmd.Flags().Int64Var(&flagSeed, "seed", 0, "Apple RNG seed (0 = random based on time)")
	serveCmd.Flags().StringVar(&flagServeDB, "db", "", "Path to match history database")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, source, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.Server.Address = flagListen
	}
	if flags.Changed("ws") {
		cfg.Server.WSAddress = flagWSListen
	}
	if flags.Changed("players") {
		cfg.Server.Players = flagPlayers
	}
	if flags.Changed("seed") {
		cfg.Server.Seed = flagSeed
	}
	if flags.Changed("db") {
		cfg.Server.DBPath = flagServeDB
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, "snek-server")
	if err != nil {
		return err
	}
	defer closer.Close()
	logger.Debug("configuration loaded", "source", source)

	hub := transport.NewHub(transport.DefaultOptions(), logger)
	defer hub.Close()

	if _, err := hub.Listen(cfg.Server.Address); err != nil {
		return err
	}
	if cfg.Server.WSAddress != "" {
		if _, err := hub.ListenWS(cfg.Server.WSAddress); err != nil {
			return err
		}
	}

	server := multiplayer.NewServer(cfg.MatchServer(), logger)

	if cfg.Server.DBPath != "" {
		store, err := storage.Open(cfg.Server.DBPath)
		if err != nil {
			// Continue without storage - matches still work
			logger.Warn("match history disabled", "db", cfg.Server.DBPath, "err", err)
		} else {
			defer store.Close()
			server.SetResultSaver(store)
			logger.Info("recording matches", "db", cfg.Server.DBPath)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("snek server for %d players on %s\n", cfg.Server.Players, cfg.Server.Address)
	fmt.Println("Press Ctrl+C to stop")

	if err := server.Run(ctx, hub); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("server stopped", "matches", server.Matches())
	return nil
}
