// snek is a networked multiplayer snake for the terminal.
//
// Usage:
//
//	snek serve               - Run the authoritative game server
//	snek join [addr]         - Join a server as a player
//	snek ssh                 - Serve the player view over SSH
//	snek history             - Browse recorded matches
//	snek config              - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Config file (default: ~/.snek/config.yaml, ./configs/snek.yaml)
//	--log-level <level> - debug, info, warn or error
//	--log-file <path>   - Write logs to a rotated file instead of stderr
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-snek/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagLogLevel string
	flagLogFile  string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "snek",
	Short: "snek - multiplayer snake in your terminal",
	Long: `snek is a networked snake game. One server owns the match and every
player runs a predicting client that stays in step with it.

Available commands:
  serve    - Run the game server
  join     - Join a game server
  ssh      - Let players join over SSH without installing anything
  history  - Browse recorded matches
  config   - Print the effective configuration

Examples:
  snek serve --players 2 --db ~/.snek/matches.db
  snek join 10.0.0.5:7777
  snek join ws://10.0.0.5:7778/ws
  snek ssh --server 127.0.0.1:7777
  snek history --db ~/.snek/matches.db`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&flagLogFile, "log-file", "", "Log to a rotated file instead of stderr")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(joinCmd)
	rootCmd.AddCommand(sshCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig loads the configuration and applies the global flags.
// Commands apply their own flags on top and call Validate.
func loadConfig(cmd *cobra.Command) (config.Config, string, error) {
	cfg, source, err := config.Load(flagConfig)
	if err != nil {
		return config.Config{}, "", err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Log.Level = flagLogLevel
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Log.File = flagLogFile
	}
	return cfg, source, nil
}
