// Package sqlite implements a sqlite-backed source of truth. The current
// document lives in a single-row table; every successful Put also appends to
// an append-only revision history that the CLI can list.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"gopkg.in/yaml.v3"

	"github.com/sentinelhaus/confd/pkg/document"
	"github.com/sentinelhaus/confd/pkg/logger"
	"github.com/sentinelhaus/confd/pkg/source"
)

type Store struct {
	db  *sql.DB
	log *slog.Logger
}

func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %s: %w", p, err)
		}
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS config_current (
			id INTEGER PRIMARY KEY CHECK (id = 1),
			doc BLOB NOT NULL,
			updated_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS config_revisions (
			rev INTEGER PRIMARY KEY AUTOINCREMENT,
			doc BLOB NOT NULL,
			created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
		)
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	log := logger.Get(logger.Source)
	log.Info("Opened sqlite config store", "path", path)

	return &Store{db: db, log: log}, nil
}

// Seed installs an initial document if the store is empty. It does not
// record a revision; revisions track committed changes only.
func (s *Store) Seed(ctx context.Context, doc document.Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config document: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO config_current (id, doc) VALUES (1, ?)
		ON CONFLICT(id) DO NOTHING
	`, data)
	return err
}

func (s *Store) Get(ctx context.Context) (document.Document, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT doc FROM config_current WHERE id = 1`).Scan(&data)
	if err != nil {
		return nil, fmt.Errorf("read config document: %w", err)
	}

	var doc document.Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse config document: %w", err)
	}
	if doc == nil {
		doc = document.Document{}
	}

	return doc, nil
}

func (s *Store) Put(ctx context.Context, doc document.Document) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal config document: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO config_current (id, doc, updated_at)
		VALUES (1, ?, strftime('%s', 'now'))
		ON CONFLICT(id) DO UPDATE SET
			doc = excluded.doc,
			updated_at = excluded.updated_at
	`, data)
	if err != nil {
		return err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO config_revisions (doc) VALUES (?)`, data)
	if err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	s.log.Debug("Wrote config document", "bytes", len(data))
	return nil
}

func (s *Store) Revisions(ctx context.Context, limit int) ([]source.Revision, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rev, doc, created_at FROM config_revisions
		ORDER BY rev DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var revisions []source.Revision
	for rows.Next() {
		var (
			rev     int64
			data    []byte
			created int64
		)
		if err := rows.Scan(&rev, &data, &created); err != nil {
			return nil, err
		}

		var doc document.Document
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("parse revision %d: %w", rev, err)
		}

		revisions = append(revisions, source.Revision{
			Number:    rev,
			Timestamp: time.Unix(created, 0),
			Document:  doc,
		})
	}

	return revisions, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
