// Package storage provides SQLite-based persistence for finished matches.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/vovakirdan/tui-snek/internal/multiplayer"
)

// Store manages the SQLite database connection for match history.
type Store struct {
	db *sql.DB
}

// Match is one recorded match.
type Match struct {
	ID          int64
	StartedAt   time.Time
	Duration    time.Duration
	Ticks       uint64
	Winner      int    // seat index, or multiplayer.NoWinner
	Reason      string // "completed", "draw", "disconnect"
	ApplesEaten int
	Players     []MatchPlayer
	CreatedAt   time.Time
}

// MatchPlayer is one seat of a recorded match.
type MatchPlayer struct {
	Seat        int
	Player      string // host part of the remote address
	Addr        string
	FinalLength float32
}

// WinnerName returns the winning player's name, or "" for a match without winner.
func (m Match) WinnerName() string {
	for _, p := range m.Players {
		if p.Seat == m.Winner {
			return p.Player
		}
	}
	return ""
}

// PlayerStats aggregates the matches of one player.
type PlayerStats struct {
	Player     string
	Matches    int
	Wins       int
	BestLength float32
	LastPlayed time.Time
}

// Open creates or opens a SQLite database at the given path.
// It creates the parent directories if needed and runs migrations.
func Open(dbPath string) (*Store, error) {
	// Expand ~ to home directory
	if dbPath != "" && dbPath[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("storage: cannot expand home directory: %w", err)
		}
		dbPath = filepath.Join(home, dbPath[1:])
	}

	// Create parent directories
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: cannot connect to database: %w", err)
	}

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: migration failed: %w", err)
	}

	return store, nil
}

// migrate creates the database schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS matches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			started_at_ms INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			ticks INTEGER NOT NULL DEFAULT 0,
			winner INTEGER NOT NULL DEFAULT -1,
			end_reason TEXT NOT NULL,
			apples INTEGER NOT NULL DEFAULT 0,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_matches_started ON matches(started_at_ms DESC);

		CREATE TABLE IF NOT EXISTS match_players (
			match_id INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
			seat INTEGER NOT NULL,
			player TEXT NOT NULL,
			addr TEXT NOT NULL,
			final_length REAL NOT NULL DEFAULT 0,
			PRIMARY KEY (match_id, seat)
		);
		CREATE INDEX IF NOT EXISTS idx_match_players_player ON match_players(player);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveMatch records a match and its players.
// Returns the ID of the inserted record.
func (s *Store) SaveMatch(m Match) (int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT INTO matches (started_at_ms, duration_ms, ticks, winner, end_reason, apples)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		m.StartedAt.UnixMilli(),
		m.Duration.Milliseconds(),
		int64(m.Ticks),
		m.Winner,
		m.Reason,
		m.ApplesEaten,
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save match: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	for _, p := range m.Players {
		if _, err := tx.Exec(
			`INSERT INTO match_players (match_id, seat, player, addr, final_length)
			 VALUES (?, ?, ?, ?, ?)`,
			id, p.Seat, p.Player, p.Addr, float64(p.FinalLength),
		); err != nil {
			return 0, fmt.Errorf("storage: cannot save player %d: %w", p.Seat, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("storage: cannot commit match: %w", err)
	}
	return id, nil
}

// SaveMatchResult implements multiplayer.MatchResultSaver.
func (s *Store) SaveMatchResult(r multiplayer.MatchResult) error {
	m := Match{
		StartedAt:   r.StartedAt,
		Duration:    r.Duration,
		Ticks:       r.Ticks,
		Winner:      r.Winner,
		Reason:      r.Reason.String(),
		ApplesEaten: r.ApplesEaten,
	}
	for seat, addr := range r.Players {
		if addr == "" {
			continue
		}
		p := MatchPlayer{Seat: seat, Player: playerName(addr), Addr: addr}
		if seat < len(r.Lengths) {
			p.FinalLength = r.Lengths[seat]
		}
		m.Players = append(m.Players, p)
	}
	_, err := s.SaveMatch(m)
	return err
}

// Ensure Store implements MatchResultSaver
var _ multiplayer.MatchResultSaver = (*Store)(nil)

// playerName strips the ephemeral port from a remote address.
func playerName(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	return host
}

// MatchByID retrieves a match by ID. Returns nil if it does not exist.
func (s *Store) MatchByID(id int64) (*Match, error) {
	row := s.db.QueryRow(
		`SELECT id, started_at_ms, duration_ms, ticks, winner, end_reason, apples, created_at
		 FROM matches
		 WHERE id = ?`,
		id,
	)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query match: %w", err)
	}
	if m.Players, err = s.matchPlayers(m.ID); err != nil {
		return nil, err
	}
	return &m, nil
}

// RecentMatches retrieves the most recent matches, newest first.
func (s *Store) RecentMatches(limit int) ([]Match, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, started_at_ms, duration_ms, ticks, winner, end_reason, apples, created_at
		 FROM matches
		 ORDER BY started_at_ms DESC, id DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query matches: %w", err)
	}

	var matches []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		matches = append(matches, m)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	rows.Close()

	for i := range matches {
		if matches[i].Players, err = s.matchPlayers(matches[i].ID); err != nil {
			return nil, err
		}
	}
	return matches, nil
}

func (s *Store) matchPlayers(matchID int64) ([]MatchPlayer, error) {
	rows, err := s.db.Query(
		`SELECT seat, player, addr, final_length
		 FROM match_players
		 WHERE match_id = ?
		 ORDER BY seat`,
		matchID,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query players: %w", err)
	}
	defer rows.Close()

	var players []MatchPlayer
	for rows.Next() {
		var p MatchPlayer
		var length float64
		if err := rows.Scan(&p.Seat, &p.Player, &p.Addr, &length); err != nil {
			return nil, fmt.Errorf("storage: cannot scan player row: %w", err)
		}
		p.FinalLength = float32(length)
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return players, nil
}

// PlayerStats aggregates every recorded match per player, most wins first.
func (s *Store) PlayerStats() ([]PlayerStats, error) {
	rows, err := s.db.Query(
		`SELECT p.player,
		        COUNT(*),
		        COALESCE(SUM(CASE WHEN m.winner = p.seat THEN 1 ELSE 0 END), 0),
		        COALESCE(MAX(p.final_length), 0),
		        MAX(m.started_at_ms)
		 FROM match_players p
		 JOIN matches m ON m.id = p.match_id
		 GROUP BY p.player
		 ORDER BY 3 DESC, 2 DESC, p.player`,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot get player stats: %w", err)
	}
	defer rows.Close()

	var stats []PlayerStats
	for rows.Next() {
		var st PlayerStats
		var best float64
		var lastMS int64
		if err := rows.Scan(&st.Player, &st.Matches, &st.Wins, &best, &lastMS); err != nil {
			return nil, fmt.Errorf("storage: cannot scan stats row: %w", err)
		}
		st.BestLength = float32(best)
		st.LastPlayed = time.UnixMilli(lastMS)
		stats = append(stats, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMatch(row scanner) (Match, error) {
	var (
		m                     Match
		startedMS, durationMS int64
		ticks                 int64
		createdAt             any
	)
	if err := row.Scan(&m.ID, &startedMS, &durationMS, &ticks, &m.Winner, &m.Reason, &m.ApplesEaten, &createdAt); err != nil {
		return Match{}, err
	}
	m.StartedAt = time.UnixMilli(startedMS)
	m.Duration = time.Duration(durationMS) * time.Millisecond
	m.Ticks = uint64(ticks)

	// Parse the datetime - handle both time.Time and string
	switch v := createdAt.(type) {
	case time.Time:
		m.CreatedAt = v
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", v); err == nil {
			m.CreatedAt = parsed
		}
	}
	return m, nil
}
