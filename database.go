package main

import (
	"database/sql"
	"errors"
	"time"

	_ "modernc.org/sqlite"
)

var errInvalidStats = errors.New("stats must be non-negative integers summing to 15")

// DB wraps the SQLite database connection.
type DB struct {
	conn *sql.DB
}

// PlayerRow represents a player account.
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// SoccerStatsRow is the persisted soccer profile.
type SoccerStatsRow struct {
	PlayerID int64
	Stats    SoccerStats
	MMR      int
	Wins     int
	Losses   int
	Streak   int // current win streak, reset on loss
}

// MatchHistoryEntry records one player's participation in one match.
type MatchHistoryEntry struct {
	MatchID       string
	PlayerID      int64
	Team          string
	Goals         int
	Assists       int
	Interceptions int
	MVP           bool
	MMRDelta      int
	Won           bool
}

// OpenDB opens (or creates) the SQLite database.
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL for concurrent readers while the event writer appends.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, err
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		is_guest INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS soccer_stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		speed INTEGER NOT NULL DEFAULT 5,
		kick_power INTEGER NOT NULL DEFAULT 5,
		dribbling INTEGER NOT NULL DEFAULT 5,
		mmr INTEGER NOT NULL DEFAULT 1000,
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		streak INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS match_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		match_id TEXT NOT NULL,
		player_id INTEGER NOT NULL REFERENCES players(id),
		team TEXT NOT NULL,
		goals INTEGER NOT NULL DEFAULT 0,
		assists INTEGER NOT NULL DEFAULT 0,
		interceptions INTEGER NOT NULL DEFAULT 0,
		mvp INTEGER NOT NULL DEFAULT 0,
		mmr_delta INTEGER NOT NULL DEFAULT 0,
		won INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS match_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		type TEXT NOT NULL,
		player_id INTEGER NOT NULL DEFAULT 0,
		data TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_match_history_player ON match_history(player_id);
	CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// CreatePlayer creates an account and its stats row.
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO players (username, pass_hash) VALUES (?, ?)",
		username, passHash,
	)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return id, nil
}

// CreateGuest creates a throwaway passwordless account. Guests are excluded
// from the leaderboard.
func (db *DB) CreateGuest(username string) (int64, error) {
	res, err := db.conn.Exec(
		"INSERT INTO players (username, is_guest) VALUES (?, 1)",
		username,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetPlayerByUsername returns nil when the account does not exist.
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken.
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// FindStatsByUserID returns nil when the account has never assigned stats.
func (db *DB) FindStatsByUserID(userID int64) (*SoccerStatsRow, error) {
	row := db.conn.QueryRow(
		"SELECT player_id, speed, kick_power, dribbling, mmr, wins, losses, streak FROM soccer_stats WHERE player_id = ?",
		userID,
	)
	s := &SoccerStatsRow{}
	err := row.Scan(&s.PlayerID, &s.Stats.Speed, &s.Stats.KickPower, &s.Stats.Dribbling, &s.MMR, &s.Wins, &s.Losses, &s.Streak)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return s, err
}

// SaveStats upserts the stat split. Callers validate the 15-point invariant
// first; the repository refuses invalid rows anyway.
func (db *DB) SaveStats(userID int64, stats SoccerStats) error {
	if !stats.Valid() {
		return errInvalidStats
	}
	_, err := db.conn.Exec(`
		INSERT INTO soccer_stats (player_id, speed, kick_power, dribbling)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(player_id) DO UPDATE SET speed = excluded.speed,
			kick_power = excluded.kick_power, dribbling = excluded.dribbling`,
		userID, stats.Speed, stats.KickPower, stats.Dribbling,
	)
	return err
}

// UpdateMMR applies a rating delta and win/loss bookkeeping, returning the
// new rating. The streak column resets on a loss.
func (db *DB) UpdateMMR(userID int64, delta int, won bool) (int, error) {
	winInc, lossInc := 0, 1
	streakExpr := "0"
	if won {
		winInc, lossInc = 1, 0
		streakExpr = "streak + 1"
	}
	_, err := db.conn.Exec(`
		INSERT INTO soccer_stats (player_id, mmr) VALUES (?, ?)
		ON CONFLICT(player_id) DO NOTHING`,
		userID, mmrStartingRating,
	)
	if err != nil {
		return 0, err
	}
	_, err = db.conn.Exec(`
		UPDATE soccer_stats SET
			mmr = MAX(0, mmr + ?),
			wins = wins + ?,
			losses = losses + ?,
			streak = `+streakExpr+`
		WHERE player_id = ?`,
		delta, winInc, lossInc, userID,
	)
	if err != nil {
		return 0, err
	}
	var mmr int
	err = db.conn.QueryRow("SELECT mmr FROM soccer_stats WHERE player_id = ?", userID).Scan(&mmr)
	return mmr, err
}

// AddMatchHistory appends one participation row.
func (db *DB) AddMatchHistory(e MatchHistoryEntry) error {
	_, err := db.conn.Exec(`
		INSERT INTO match_history (match_id, player_id, team, goals, assists, interceptions, mvp, mmr_delta, won)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.MatchID, e.PlayerID, e.Team, e.Goals, e.Assists, e.Interceptions,
		boolToInt(e.MVP), e.MMRDelta, boolToInt(e.Won),
	)
	return err
}

// LeaderboardEntry is one row of the MMR leaderboard.
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	Username string `json:"username"`
	MMR      int    `json:"mmr"`
	Wins     int    `json:"wins"`
	Losses   int    `json:"losses"`
}

// Leaderboard returns the top accounts by MMR.
func (db *DB) Leaderboard(limit int) ([]LeaderboardEntry, error) {
	rows, err := db.conn.Query(`
		SELECT p.username, s.mmr, s.wins, s.losses
		FROM soccer_stats s JOIN players p ON p.id = s.player_id
		WHERE p.is_guest = 0
		ORDER BY s.mmr DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.MMR, &e.Wins, &e.Losses); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// AddEvent persists one analytics event (called by the event writer).
func (db *DB) AddEvent(evtType string, playerID int64, data string) error {
	_, err := db.conn.Exec(
		"INSERT INTO match_events (type, player_id, data) VALUES (?, ?, ?)",
		evtType, playerID, data,
	)
	return err
}

// GetSetting reads a settings value, empty string when absent.
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

// SetSetting upserts a settings value.
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
