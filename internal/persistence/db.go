// Package persistence provides SQLite-based game state storage: the position,
// the points tallies, faction instructions, and the move/debate record.
package persistence

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/talgya/courtchess/internal/engine"
	"github.com/talgya/courtchess/internal/factions"
	"github.com/talgya/courtchess/internal/rules"
)

// DB wraps a SQLite connection for game state persistence.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		fen TEXT NOT NULL,
		white_points INTEGER NOT NULL,
		black_points INTEGER NOT NULL,
		created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS instructions (
		game_id TEXT NOT NULL,
		colour TEXT NOT NULL,
		piece TEXT NOT NULL,
		text TEXT NOT NULL,
		PRIMARY KEY (game_id, colour, piece)
	);

	CREATE TABLE IF NOT EXISTS moves (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		ply INTEGER NOT NULL,
		colour TEXT NOT NULL,
		san TEXT NOT NULL,
		rationale TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS turn_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		game_id TEXT NOT NULL,
		ply INTEGER NOT NULL,
		kind TEXT NOT NULL,
		faction TEXT NOT NULL DEFAULT '',
		text TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_moves_game ON moves(game_id, ply);
	CREATE INDEX IF NOT EXISTS idx_turn_events_game ON turn_events(game_id, ply);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// GameRecord is the persisted core of one game.
type GameRecord struct {
	ID          string `db:"id"`
	FEN         string `db:"fen"`
	WhitePoints int    `db:"white_points"`
	BlackPoints int    `db:"black_points"`
}

// SaveGame upserts the game's position and points.
func (db *DB) SaveGame(rec GameRecord) error {
	_, err := db.conn.Exec(`INSERT INTO games (id, fen, white_points, black_points)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fen = excluded.fen,
			white_points = excluded.white_points,
			black_points = excluded.black_points,
			updated_at = CURRENT_TIMESTAMP`,
		rec.ID, rec.FEN, rec.WhitePoints, rec.BlackPoints,
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	return nil
}

// LatestGame returns the most recently updated game, or nil when none exists.
func (db *DB) LatestGame() (*GameRecord, error) {
	var rec GameRecord
	err := db.conn.Get(&rec,
		"SELECT id, fen, white_points, black_points FROM games ORDER BY updated_at DESC LIMIT 1")
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// SaveInstructions writes all of a game's faction instructions (full replace).
func (db *DB) SaveInstructions(gameID string, pool *factions.Pool) error {
	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM instructions WHERE game_id = ?", gameID); err != nil {
		return err
	}

	stmt, err := tx.Preparex(
		"INSERT INTO instructions (game_id, colour, piece, text) VALUES (?, ?, ?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, colour := range []rules.Colour{rules.White, rules.Black} {
		for _, f := range pool.All(colour) {
			if _, err := stmt.Exec(gameID, f.Colour.String(), f.Piece.String(), f.Instruction); err != nil {
				return fmt.Errorf("insert instruction %s: %w", f.Label(), err)
			}
		}
	}

	return tx.Commit()
}

// LoadInstructions applies the persisted instructions onto the pool.
func (db *DB) LoadInstructions(gameID string, pool *factions.Pool) error {
	rows := []struct {
		Colour string `db:"colour"`
		Piece  string `db:"piece"`
		Text   string `db:"text"`
	}{}
	err := db.conn.Select(&rows,
		"SELECT colour, piece, text FROM instructions WHERE game_id = ?", gameID)
	if err != nil {
		return err
	}

	for _, row := range rows {
		colour, ok := rules.ParseColour(row.Colour)
		if !ok {
			slog.Warn("skipping instruction with unknown colour", "colour", row.Colour)
			continue
		}
		piece, ok := rules.ParsePieceType(row.Piece)
		if !ok {
			slog.Warn("skipping instruction with unknown piece", "piece", row.Piece)
			continue
		}
		if err := pool.SetInstruction(colour, piece, row.Text); err != nil {
			slog.Warn("skipping unloadable instruction", "colour", row.Colour, "piece", row.Piece, "error", err)
		}
	}
	return nil
}

// MoveRecord is one applied move.
type MoveRecord struct {
	Ply       int    `db:"ply"`
	Colour    string `db:"colour"`
	SAN       string `db:"san"`
	Rationale string `db:"rationale"`
}

// RecordMove appends an applied move to the game's history.
func (db *DB) RecordMove(gameID string, rec MoveRecord) error {
	_, err := db.conn.Exec(
		"INSERT INTO moves (game_id, ply, colour, san, rationale) VALUES (?, ?, ?, ?, ?)",
		gameID, rec.Ply, rec.Colour, rec.SAN, rec.Rationale,
	)
	if err != nil {
		return fmt.Errorf("record move %s: %w", rec.SAN, err)
	}
	return nil
}

// MoveCount returns the highest recorded ply for the game, 0 when none.
// Resumed processes continue numbering from here.
func (db *DB) MoveCount(gameID string) (int, error) {
	var n int
	err := db.conn.Get(&n, "SELECT COALESCE(MAX(ply), 0) FROM moves WHERE game_id = ?", gameID)
	if err != nil {
		return 0, fmt.Errorf("count moves: %w", err)
	}
	return n, nil
}

// Moves returns the game's move history in ply order.
func (db *DB) Moves(gameID string) ([]MoveRecord, error) {
	var moves []MoveRecord
	err := db.conn.Select(&moves,
		"SELECT ply, colour, san, rationale FROM moves WHERE game_id = ? ORDER BY ply", gameID)
	return moves, err
}

// RecordEvents appends one turn's decision events.
func (db *DB) RecordEvents(gameID string, ply int, events []engine.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := db.conn.Beginx()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, ev := range events {
		_, err := tx.Exec(
			"INSERT INTO turn_events (game_id, ply, kind, faction, text) VALUES (?, ?, ?, ?, ?)",
			gameID, ply, ev.Kind.String(), ev.Faction, ev.Text,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// EventRecord is one persisted decision event.
type EventRecord struct {
	Ply     int    `db:"ply"`
	Kind    string `db:"kind"`
	Faction string `db:"faction"`
	Text    string `db:"text"`
}

// RecentEvents returns the most recent N decision events, newest first.
func (db *DB) RecentEvents(gameID string, limit int) ([]EventRecord, error) {
	var events []EventRecord
	err := db.conn.Select(&events,
		"SELECT ply, kind, faction, text FROM turn_events WHERE game_id = ? ORDER BY id DESC LIMIT ?",
		gameID, limit,
	)
	return events, err
}

// SaveGameState performs a full save: position, points, and instructions.
func (db *DB) SaveGameState(g *engine.Game) error {
	snap := g.EconomySnapshot()
	rec := GameRecord{
		ID:          g.ID.String(),
		FEN:         g.Board().FEN(),
		WhitePoints: snap.Points[rules.White.String()],
		BlackPoints: snap.Points[rules.Black.String()],
	}
	if err := db.SaveGame(rec); err != nil {
		return err
	}
	if err := db.SaveInstructions(rec.ID, g.Pool()); err != nil {
		return fmt.Errorf("save instructions: %w", err)
	}
	slog.Info("game state saved", "id", rec.ID, "fen", rec.FEN)
	return nil
}
