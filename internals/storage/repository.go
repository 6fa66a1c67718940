package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"connect4-engine/internals/match"

	_ "github.com/mattn/go-sqlite3"
)

var ErrNotFound = errors.New("match not found")

const schema = `
CREATE TABLE IF NOT EXISTS matches (
	id TEXT PRIMARY KEY,
	player1 TEXT NOT NULL,
	player2 TEXT NOT NULL,
	winner TEXT,
	reason TEXT,
	moves TEXT,
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);
CREATE TABLE IF NOT EXISTS rankings (
	name TEXT PRIMARY KEY,
	score INTEGER NOT NULL DEFAULT 0
);`

// Repository stores finished matches and per-player win counts in sqlite.
type Repository struct {
	db *sql.DB
}

// MatchRecord is a stored match.
type MatchRecord struct {
	ID         string    `json:"id"`
	Player1    string    `json:"player1"`
	Player2    string    `json:"player2"`
	Winner     string    `json:"winner"`
	Reason     string    `json:"reason"`
	Moves      string    `json:"moves"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}

// Record returns the stored form of res. CreatedAt is the match start in UTC,
// the same value SaveMatch writes.
func Record(res match.Result) MatchRecord {
	return MatchRecord{
		ID:         res.ID,
		Player1:    res.First,
		Player2:    res.Second,
		Winner:     res.Winner,
		Reason:     res.Reason,
		Moves:      res.MovesString(),
		DurationMs: res.Duration.Milliseconds(),
		CreatedAt:  res.StartedAt.UTC(),
	}
}

type Standing struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// New opens the sqlite database at path and creates the tables if needed.
func New(path string) (*Repository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// sqlite allows a single writer.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate db: %w", err)
	}
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

// SaveMatch records the match and credits the winner, unless it was a draw.
func (r *Repository) SaveMatch(ctx context.Context, res match.Result) error {
	return r.SaveMatches(ctx, []match.Result{res})
}

// SaveMatches records a batch of matches in one transaction: either every
// match and ranking update is stored or none is.
func (r *Repository) SaveMatches(ctx context.Context, results []match.Result) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, res := range results {
		if err := saveMatch(ctx, tx, res); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	for _, res := range results {
		log.Printf("DB: match %s saved (winner=%s)", res.ID, res.Winner)
	}
	return nil
}

func saveMatch(ctx context.Context, tx *sql.Tx, res match.Result) error {
	rec := Record(res)
	_, err := tx.ExecContext(ctx, `
		INSERT INTO matches (id, player1, player2, winner, reason, moves, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Player1, rec.Player2, rec.Winner, rec.Reason, rec.Moves, rec.DurationMs, rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving match %s: %w", res.ID, err)
	}

	if res.Winner != match.Draw {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO rankings (name, score)
			VALUES (?, 1)
			ON CONFLICT(name) DO UPDATE SET score = score + 1
		`, res.Winner)
		if err != nil {
			return fmt.Errorf("updating score for %s: %w", res.Winner, err)
		}
	}
	return nil
}

func (r *Repository) Match(ctx context.Context, id string) (MatchRecord, error) {
	var (
		rec    MatchRecord
		winner sql.NullString
		reason sql.NullString
		moves  sql.NullString
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, player1, player2, winner, reason, moves, duration_ms, created_at
		FROM matches WHERE id = ?
	`, id).Scan(&rec.ID, &rec.Player1, &rec.Player2, &winner, &reason, &moves, &rec.DurationMs, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return MatchRecord{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return MatchRecord{}, err
	}
	rec.Winner = winner.String
	rec.Reason = reason.String
	rec.Moves = moves.String
	return rec, nil
}

// Rankings returns every player by score, highest first, ties by name.
func (r *Repository) Rankings(ctx context.Context) ([]Standing, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name, score FROM rankings ORDER BY score DESC, name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ranking := []Standing{}
	for rows.Next() {
		var s Standing
		if err := rows.Scan(&s.Name, &s.Score); err != nil {
			log.Println("Error scanning row:", err)
			continue
		}
		ranking = append(ranking, s)
	}
	return ranking, rows.Err()
}
