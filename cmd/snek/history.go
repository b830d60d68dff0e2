package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-snek/internal/platform/tui"
	"github.com/vovakirdan/tui-snek/internal/storage"
)

var (
	flagHistoryDB string
	flagLimit     int
	flagPlain     bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded matches",
	Long: `Show the matches a server recorded with --db, and per-player totals.

In a terminal this opens an interactive table. With --plain, or when
output is not a terminal, it prints the most recent matches as text.

Examples:
  snek history --db ~/.snek/matches.db
  snek history --plain --limit 5`,
	Run: runHistory,
}

func init() {
	historyCmd.Flags().StringVar(&flagHistoryDB, "db", "", "Path to match history database (default: server.db_path)")
	historyCmd.Flags().IntVar(&flagLimit, "limit", 10, "Matches to print with --plain")
	historyCmd.Flags().BoolVar(&flagPlain, "plain", false, "Print text instead of the interactive table")
}

func runHistory(cmd *cobra.Command, _ []string) {
	cfg, _, err := loadConfig(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dbPath := cfg.Server.DBPath
	if cmd.Flags().Changed("db") {
		dbPath = flagHistoryDB
	}
	if dbPath == "" {
		fmt.Fprintln(os.Stderr, "Error: no database; pass --db or set server.db_path")
		os.Exit(1)
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening match database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	fd := int(os.Stdout.Fd())
	if !flagPlain && term.IsTerminal(fd) {
		width, height := 80, 24 // Defaults
		if w, h, termErr := term.GetSize(fd); termErr == nil {
			width, height = w, h
		}
		if err := tui.RunHistory(store, width, height); err != nil {
			fmt.Fprintf(os.Stderr, "Error running history view: %v\n", err)
		}
		return
	}

	if err := printHistory(store, flagLimit); err != nil {
		fmt.Fprintf(os.Stderr, "Error retrieving matches: %v\n", err)
	}
}

func printHistory(store *storage.Store, limit int) error {
	matches, err := store.RecentMatches(limit)
	if err != nil {
		return err
	}

	fmt.Println("Recent matches")
	fmt.Println()

	if len(matches) == 0 {
		fmt.Println("No matches recorded yet.")
		return nil
	}

	// Print header
	fmt.Printf("  %-5s  %-16s  %-8s  %-10s  %s\n", "ID", "Date", "Length", "Winner", "Players")
	fmt.Printf("  %-5s  %-16s  %-8s  %-10s  %s\n", "--", "----", "------", "------", "-------")

	for _, m := range matches {
		names := make([]string, len(m.Players))
		for i, p := range m.Players {
			names[i] = fmt.Sprintf("%s (%.1f)", p.Player, p.FinalLength)
		}
		winner := m.WinnerName()
		if winner == "" {
			winner = m.Reason
		}
		fmt.Printf("  %-5d  %-16s  %-8s  %-10s  %s\n",
			m.ID,
			m.StartedAt.Format("2006-01-02 15:04"),
			m.Duration.Round(time.Second).String(),
			winner,
			strings.Join(names, ", "),
		)
	}

	stats, err := store.PlayerStats()
	if err != nil {
		return err
	}
	if len(stats) > 0 {
		fmt.Println()
		best := stats[0]
		fmt.Printf("Most wins: %s (%d of %d)\n", best.Player, best.Wins, best.Matches)
	}
	return nil
}
