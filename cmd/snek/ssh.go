package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-snek/internal/logging"
	"github.com/vovakirdan/tui-snek/internal/platform/tui"
	"github.com/vovakirdan/tui-snek/internal/transport"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagGameServer  string
	flagIdleTimeout int
)

var sshCmd = &cobra.Command{
	Use:   "ssh",
	Short: "Serve the player view over SSH",
	Long: `Start an SSH server that lets anyone with an SSH client join a game.

Each SSH connection becomes one player: the gateway opens its own
connection to the game server and renders the match into the session.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, uses ssh.host_key from the config (generated on first run)

Examples:
  snek ssh                             # Listen on :2222, play on client.server
  snek ssh --listen :2323              # Listen on port 2323
  snek ssh --server 10.0.0.5:7777      # Gateway to a remote game server
  snek ssh --host-key ./snek_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 2222`,
	RunE: runSSH,
}

func init() {
	sshCmd.Flags().StringVar(&flagSSHAddr, "listen", "", "SSH server address (host:port)")
	sshCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (generated if missing)")
	sshCmd.Flags().StringVar(&flagGameServer, "server", "", "Game server every session joins")
	sshCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes before disconnecting")
}

func runSSH(cmd *cobra.Command, _ []string) error {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("listen") {
		cfg.SSH.Address = flagSSHAddr
	}
	if flags.Changed("host-key") {
		cfg.SSH.HostKey = flagHostKey
	}
	if flags.Changed("server") {
		cfg.Client.Server = flagGameServer
	}
	if flags.Changed("idle-timeout") {
		cfg.SSH.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger, closer, err := logging.New(cfg.Log, "snek-ssh")
	if err != nil {
		return err
	}
	defer closer.Close()

	server, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:     cfg.SSH.Address,
		HostKeyPath: cfg.SSH.HostKey,
		GameServer:  cfg.Client.Server,
		IdleTimeout: cfg.SSH.IdleTimeout,
		Client:      cfg.MatchClient(),
		Transport:   transport.DefaultOptions(),
		FPS:         cfg.Client.FPS,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	port := "2222"
	if _, p, splitErr := net.SplitHostPort(server.Addr()); splitErr == nil {
		port = p
	}
	fmt.Printf("Starting snek SSH gateway on %s (game server %s)\n", server.Addr(), cfg.Client.Server)
	fmt.Printf("Connect with: ssh localhost -p %s\n", port)
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe(ctx)
}
