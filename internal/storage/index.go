/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"log/slog"

	applog "flyerstudio/internal/log"
	"flyerstudio/internal/version"

	// Pure-Go SQLite driver (CGO-free)
	_ "modernc.org/sqlite"
)

const (
	// IndexDirName stores per-workspace ephemeral data under the root.
	IndexDirName  = ".fls"
	IndexFileName = "index.sqlite"

	// schemaVersion tracks the local SQLite schema of the export index.
	schemaVersion = 1
)

// IndexPath returns the full path to the workspace's index database file.
func IndexPath(root string) string {
	return filepath.Join(root, IndexDirName, IndexFileName)
}

// ExportRecord is one row of export history.
type ExportRecord struct {
	ID        int64
	SearchID  int64
	Path      string
	Remote    string // uploaded reference, empty when upload failed
	CreatedAt time.Time
}

// InitOrOpenIndex opens the workspace's SQLite export index at
// .fls/index.sqlite, enabling WAL mode and creating the schema on first use.
func InitOrOpenIndex(root string) (*sql.DB, error) {
	l := applog.WithOperation(applog.WithComponent("storage"), "index_init").With(
		slog.String("root", root),
	)
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("workspace root is required")
	}
	if err := os.MkdirAll(filepath.Join(root, IndexDirName), 0o755); err != nil {
		l.Error("create .fls dir failed", slog.Any("err", err))
		return nil, fmt.Errorf("create .fls dir: %w", err)
	}

	uriPath := filepath.ToSlash(IndexPath(root))
	dsn := fmt.Sprintf("file:%s?cache=shared&_pragma=busy_timeout(5000)", uriPath)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		l.Error("sqlite open failed", slog.Any("err", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		_ = db.Close()
		l.Error("enable WAL failed", slog.Any("err", err))
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if err := ensureIndexSchema(ctx, db); err != nil {
		_ = db.Close()
		l.Error("ensure schema failed", slog.Any("err", err))
		return nil, err
	}
	l.Info("export index ready", slog.String("path", IndexPath(root)))
	return db, nil
}

func ensureIndexSchema(ctx context.Context, db *sql.DB) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS meta (
			key   TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS exports (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			search_id  INTEGER NOT NULL,
			path       TEXT NOT NULL,
			remote     TEXT NOT NULL DEFAULT '',
			created_at TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_exports_search ON exports(search_id, created_at);`,
	}
	for _, q := range ddl {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('schema', ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		fmt.Sprintf("%d", schemaVersion)); err != nil {
		return fmt.Errorf("write schema version: %w", err)
	}
	if _, err := db.ExecContext(ctx,
		`INSERT INTO meta(key, value) VALUES('app', ?) ON CONFLICT(key) DO UPDATE SET value=excluded.value`,
		version.String()); err != nil {
		return fmt.Errorf("write app version: %w", err)
	}
	return nil
}

// RecordExport appends one export to the history.
func RecordExport(ctx context.Context, db *sql.DB, rec ExportRecord) (int64, error) {
	when := rec.CreatedAt
	if when.IsZero() {
		when = time.Now()
	}
	res, err := db.ExecContext(ctx,
		`INSERT INTO exports(search_id, path, remote, created_at) VALUES(?, ?, ?, ?)`,
		rec.SearchID, rec.Path, rec.Remote, when.UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("record export: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("export id: %w", err)
	}
	return id, nil
}

// ListExports returns the export history of one search, oldest first.
func ListExports(ctx context.Context, db *sql.DB, searchID int64) ([]ExportRecord, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, search_id, path, remote, created_at FROM exports WHERE search_id=? ORDER BY created_at, id`,
		searchID)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var out []ExportRecord
	for rows.Next() {
		var rec ExportRecord
		var created string
		if err := rows.Scan(&rec.ID, &rec.SearchID, &rec.Path, &rec.Remote, &created); err != nil {
			return nil, fmt.Errorf("scan export: %w", err)
		}
		if t, perr := time.Parse(time.RFC3339, created); perr == nil {
			rec.CreatedAt = t
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}
	return out, nil
}
