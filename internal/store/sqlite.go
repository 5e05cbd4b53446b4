package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"rummy-lite/card"
)

const defaultSQLitePath = "db.db"

type SQLiteStore struct {
	db *sql.DB
}

func sqlitePathFromEnv() string {
	if v := strings.TrimSpace(os.Getenv("STORE_DATABASE_PATH")); v != "" {
		return v
	}
	return defaultSQLitePath
}

func NewSQLiteFromEnv() (*SQLiteStore, error) {
	return NewSQLite(sqlitePathFromEnv())
}

func NewSQLite(dbPath string) (*SQLiteStore, error) {
	dbPath = strings.TrimSpace(dbPath)
	if dbPath == "" {
		return nil, fmt.Errorf("empty sqlite database path")
	}
	if dbPath != ":memory:" {
		parent := filepath.Dir(dbPath)
		if parent != "" && parent != "." {
			if err := os.MkdirAll(parent, 0o755); err != nil {
				return nil, err
			}
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, pragma := range []string{
		`PRAGMA busy_timeout = 5000;`,
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

var sqliteSchema = []string{
	`DROP TABLE IF EXISTS parties_tables;`,
	`DROP TABLE IF EXISTS parties_stocks;`,
	`DROP TABLE IF EXISTS parties_players_hands;`,
	`DROP TABLE IF EXISTS parties;`,
	`DROP TABLE IF EXISTS cards;`,
	`DROP TABLE IF EXISTS players;`,
	`CREATE TABLE players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE
	);`,
	`CREATE TABLE cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		symbol TEXT NOT NULL,
		number INTEGER NOT NULL
	);`,
	`CREATE TABLE parties (
		id INTEGER PRIMARY KEY AUTOINCREMENT
	);`,
	`CREATE TABLE parties_players_hands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		party_id INTEGER NOT NULL REFERENCES parties(id),
		player_id INTEGER NOT NULL REFERENCES players(id),
		card_id INTEGER NOT NULL REFERENCES cards(id)
	);`,
	`CREATE TABLE parties_stocks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		party_id INTEGER NOT NULL REFERENCES parties(id),
		card_id INTEGER NOT NULL REFERENCES cards(id)
	);`,
	`CREATE TABLE parties_tables (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		party_id INTEGER NOT NULL REFERENCES parties(id),
		card_id INTEGER NOT NULL REFERENCES cards(id)
	);`,
}

func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) SeedReferenceData(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO players (name) VALUES (?);`, "Player0"); err != nil {
		return fmt.Errorf("seed players: %w", err)
	}
	for _, c := range card.Deck() {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cards (symbol, number) VALUES (?, ?);`,
			c.Suit().String(), c.Rank()); err != nil {
			return fmt.Errorf("seed cards: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
