// Package storage provides SQLite-based persistence for game records,
// their operation journals, score history and delegated session tokens.
// Uses the pure-Go modernc.org/sqlite driver to avoid CGO dependencies.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// ErrNotFound is returned when a record or token does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store manages the SQLite database connection.
type Store struct {
	db *sql.DB
}

// Record is one player's encoded game state.
type Record struct {
	Player    string
	Authority string
	State     []byte
	UpdatedAt time.Time
}

// ScoreEntry represents a finished episode.
type ScoreEntry struct {
	ID        int64
	Player    string
	Score     uint64
	CreatedAt time.Time
}

// JournalEntry is one successful operation applied to a record.
// Digest is the hash of the record after the operation.
type JournalEntry struct {
	ID        int64
	Player    string
	Op        string
	Clock     int64
	Digest    uint64
	CreatedAt time.Time
}

// Token is a delegated session credential scoped to one authority and signer.
type Token struct {
	Token     string
	Authority string
	Signer    string
	ExpiresAt time.Time
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

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: cannot create directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot open database: %w", err)
	}
	// A single writer keeps sqlite from reporting SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

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
		CREATE TABLE IF NOT EXISTS games (
			player TEXT PRIMARY KEY,
			authority TEXT NOT NULL,
			state BLOB NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS scores (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player TEXT NOT NULL,
			score INTEGER NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_scores_player ON scores(player);
		CREATE INDEX IF NOT EXISTS idx_scores_top ON scores(score DESC);

		CREATE TABLE IF NOT EXISTS journal (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			player TEXT NOT NULL,
			op TEXT NOT NULL,
			clock INTEGER NOT NULL,
			digest TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		);
		CREATE INDEX IF NOT EXISTS idx_journal_player ON journal(player, id);

		CREATE TABLE IF NOT EXISTS session_tokens (
			token TEXT PRIMARY KEY,
			authority TEXT NOT NULL,
			signer TEXT NOT NULL,
			expires_at INTEGER NOT NULL
		);
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

// Game loads the record stored for player.
func (s *Store) Game(ctx context.Context, player string) (Record, error) {
	rec := Record{Player: player}
	var updatedAt any
	err := s.db.QueryRowContext(ctx,
		`SELECT authority, state, updated_at FROM games WHERE player = ?`,
		player,
	).Scan(&rec.Authority, &rec.State, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("storage: cannot load game: %w", err)
	}
	rec.UpdatedAt = parseTimestamp(updatedAt)
	return rec, nil
}

// Players lists every player that has a record, sorted by name.
func (s *Store) Players(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT player FROM games ORDER BY player`)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query players: %w", err)
	}
	defer rows.Close()

	var players []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		players = append(players, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return players, nil
}

// ResetGame writes a fresh record and restarts its journal with entry.
// Both happen in one transaction.
func (s *Store) ResetGame(ctx context.Context, rec Record, entry JournalEntry) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM journal WHERE player = ?`, rec.Player); err != nil {
			return fmt.Errorf("storage: cannot clear journal: %w", err)
		}
		if err := putGame(ctx, tx, rec); err != nil {
			return err
		}
		return appendJournal(ctx, tx, rec.Player, entry)
	})
}

// CommitOp stores the record produced by an operation together with its
// journal entry. Both happen in one transaction.
func (s *Store) CommitOp(ctx context.Context, rec Record, entry JournalEntry) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := putGame(ctx, tx, rec); err != nil {
			return err
		}
		return appendJournal(ctx, tx, rec.Player, entry)
	})
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("storage: cannot begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("storage: cannot commit: %w", err)
	}
	return nil
}

func putGame(ctx context.Context, tx *sql.Tx, rec Record) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO games (player, authority, state, updated_at)
		 VALUES (?, ?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(player) DO UPDATE SET
		   authority = excluded.authority,
		   state = excluded.state,
		   updated_at = excluded.updated_at`,
		rec.Player, rec.Authority, rec.State,
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save game: %w", err)
	}
	return nil
}

func appendJournal(ctx context.Context, tx *sql.Tx, player string, entry JournalEntry) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO journal (player, op, clock, digest) VALUES (?, ?, ?, ?)`,
		player, entry.Op, entry.Clock, formatDigest(entry.Digest),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot append journal: %w", err)
	}
	return nil
}

// Journal returns the operations applied to player's record, oldest first.
func (s *Store) Journal(ctx context.Context, player string) ([]JournalEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player, op, clock, digest, created_at
		 FROM journal
		 WHERE player = ?
		 ORDER BY id`,
		player,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query journal: %w", err)
	}
	defer rows.Close()

	var entries []JournalEntry
	for rows.Next() {
		var e JournalEntry
		var digest string
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Player, &e.Op, &e.Clock, &digest, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Digest, err = strconv.ParseUint(digest, 16, 64)
		if err != nil {
			return nil, fmt.Errorf("storage: bad digest in journal entry %d: %w", e.ID, err)
		}
		e.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}
	return entries, nil
}

// SaveScore records a finished episode for player.
// Returns the ID of the inserted record.
func (s *Store) SaveScore(ctx context.Context, player string, score uint64) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO scores (player, score) VALUES (?, ?)",
		player, int64(score), //#nosec G115 -- scores stay far below 2^63
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot save score: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("storage: cannot get inserted ID: %w", err)
	}

	return id, nil
}

// TopScores retrieves the top N scores, ordered by score descending.
// An empty player selects every player.
func (s *Store) TopScores(ctx context.Context, player string, limit int) ([]ScoreEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, player, score, created_at
		 FROM scores
		 WHERE ? = '' OR player = ?
		 ORDER BY score DESC, id
		 LIMIT ?`,
		player, player, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("storage: cannot query scores: %w", err)
	}
	defer rows.Close()

	var entries []ScoreEntry
	for rows.Next() {
		var e ScoreEntry
		var score int64
		var createdAt any
		if err := rows.Scan(&e.ID, &e.Player, &score, &createdAt); err != nil {
			return nil, fmt.Errorf("storage: cannot scan row: %w", err)
		}
		e.Score = uint64(score) //#nosec G115 -- stored from a uint64
		e.CreatedAt = parseTimestamp(createdAt)
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: row iteration error: %w", err)
	}

	return entries, nil
}

// HighScore returns the best recorded score for player, or 0 if none.
func (s *Store) HighScore(ctx context.Context, player string) (uint64, error) {
	var high sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT MAX(score) FROM scores WHERE player = ?",
		player,
	).Scan(&high)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot query high score: %w", err)
	}
	if !high.Valid {
		return 0, nil
	}
	return uint64(high.Int64), nil //#nosec G115 -- stored from a uint64
}

// ClearScores removes all scores for player.
func (s *Store) ClearScores(ctx context.Context, player string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM scores WHERE player = ?", player)
	if err != nil {
		return fmt.Errorf("storage: cannot clear scores: %w", err)
	}
	return nil
}

// SaveToken stores a session token.
func (s *Store) SaveToken(ctx context.Context, tok Token) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO session_tokens (token, authority, signer, expires_at) VALUES (?, ?, ?, ?)`,
		tok.Token, tok.Authority, tok.Signer, tok.ExpiresAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("storage: cannot save token: %w", err)
	}
	return nil
}

// LookupToken loads a session token by value.
func (s *Store) LookupToken(ctx context.Context, token string) (Token, error) {
	tok := Token{Token: token}
	var expires int64
	err := s.db.QueryRowContext(ctx,
		`SELECT authority, signer, expires_at FROM session_tokens WHERE token = ?`,
		token,
	).Scan(&tok.Authority, &tok.Signer, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Token{}, ErrNotFound
	}
	if err != nil {
		return Token{}, fmt.Errorf("storage: cannot load token: %w", err)
	}
	tok.ExpiresAt = time.Unix(expires, 0)
	return tok, nil
}

// DeleteToken removes a session token. Deleting a missing token is not an error.
func (s *Store) DeleteToken(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM session_tokens WHERE token = ?", token)
	if err != nil {
		return fmt.Errorf("storage: cannot delete token: %w", err)
	}
	return nil
}

// PurgeTokens deletes every token that expired before now.
func (s *Store) PurgeTokens(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM session_tokens WHERE expires_at < ?", now.Unix(),
	)
	if err != nil {
		return 0, fmt.Errorf("storage: cannot purge tokens: %w", err)
	}
	return result.RowsAffected()
}

func formatDigest(d uint64) string {
	return fmt.Sprintf("%016x", d)
}

// parseTimestamp handles both time.Time and string datetimes from the driver.
func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t
	case string:
		if parsed, err := time.Parse("2006-01-02 15:04:05", t); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
