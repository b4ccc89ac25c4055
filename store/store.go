// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package store provides the typed SQLite access layer for the field-sales
// offline database: customers, catalog items, sales orders with their line
// items, daily call records and the singleton representative profile.
//
// Every entity carries a dual identifier: the local surrogate rowid assigned
// at insert time, and a nullable online id assigned by the server once the
// row has been synchronized. All local foreign keys reference local ids.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

var (
	// ErrNotFound is returned when a row lookup matches nothing.
	ErrNotFound = errors.New("store: row not found")

	// ErrNoRepresentative is returned before the device has been provisioned.
	ErrNoRepresentative = errors.New("store: no representative registered")

	// ErrParentNotFound is returned when a child upsert cannot resolve its
	// parent row locally. Callers skip the child record and continue.
	ErrParentNotFound = errors.New("store: parent row not found")
)

// Store wraps the on-device SQLite database.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

var (
	defaultMu    sync.Mutex
	defaultStore *Store
)

// Default returns the process-wide store, opening it on first use. The
// connection is never torn down during the process lifetime. Asking for a
// different path once the store is open is a wiring bug and reported as one.
func Default(path string) (*Store, error) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultStore == nil {
		s, err := Open(path)
		if err != nil {
			return nil, err
		}
		defaultStore = s
	}
	if defaultStore.path != path {
		return nil, fmt.Errorf("store already open at %q, cannot reopen at %q",
			defaultStore.path, path)
	}
	return defaultStore, nil
}

// Open opens (creating if necessary) the database at path and ensures the
// schema exists. A fresh install has no tables at all, so schema creation is
// idempotent and runs on every open.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// The sync pipeline is a single sequenced chain of operations; one
	// connection avoids SQLite locking issues and keeps :memory: databases
	// stable under database/sql pooling.
	db.SetMaxOpenConns(1)

	if err := initializeSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, path: path, logger: slog.Default()}, nil
}

// DB exposes the underlying handle for callers that need raw queries.
func (s *Store) DB() *sql.DB { return s.db }

// Close closes the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// SetLogger replaces the default slog logger.
func (s *Store) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

func initializeSchema(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON`); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	// Local surrogate ids are the INTEGER PRIMARY KEY rowids. online_id stays
	// NULL until the server has acknowledged the row. Optional text columns
	// default to '' so the empty string is the single "unset" sentinel,
	// matching sync_date semantics.
	tables := []string{
		`CREATE TABLE IF NOT EXISTS representative (
			id                  INTEGER PRIMARY KEY,
			online_id           INTEGER,
			name                TEXT NOT NULL DEFAULT '',
			api_key             TEXT NOT NULL DEFAULT '',
			app_key             TEXT NOT NULL DEFAULT '',
			device_id           TEXT NOT NULL DEFAULT '',
			product_app_id      TEXT NOT NULL DEFAULT '',
			sales_order_app_id  TEXT NOT NULL DEFAULT '',
			created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		)`,

		`CREATE TABLE IF NOT EXISTS customers (
			id               INTEGER PRIMARY KEY,
			online_id        INTEGER,
			name             TEXT NOT NULL,
			full_address     TEXT NOT NULL DEFAULT '',
			short_address    TEXT NOT NULL DEFAULT '',
			region           TEXT NOT NULL DEFAULT '',
			class            TEXT NOT NULL DEFAULT '',
			practice         TEXT NOT NULL DEFAULT '',
			s3_license       TEXT NOT NULL DEFAULT '',
			s3_validity      TEXT NOT NULL DEFAULT '',
			pharmacist_name  TEXT NOT NULL DEFAULT '',
			prc_id           TEXT NOT NULL DEFAULT '',
			prc_validity     TEXT NOT NULL DEFAULT '',
			remarks          TEXT NOT NULL DEFAULT '',
			sync_date        TEXT NOT NULL DEFAULT '',
			created_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at       TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			deleted_at       TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS items (
			id            INTEGER PRIMARY KEY,
			online_id     INTEGER,
			brand_name    TEXT NOT NULL DEFAULT '',
			generic_name  TEXT NOT NULL DEFAULT '',
			milligrams    TEXT NOT NULL DEFAULT '',
			supply        TEXT NOT NULL DEFAULT '',
			catalog_price TEXT NOT NULL DEFAULT '0',
			product_type  TEXT NOT NULL DEFAULT '',
			inventory     INTEGER NOT NULL DEFAULT 0,
			sync_date     TEXT NOT NULL DEFAULT '',
			created_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at    TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			deleted_at    TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS sales_orders (
			id                  INTEGER PRIMARY KEY,
			online_id           INTEGER,
			customer_id         INTEGER NOT NULL REFERENCES customers(id),
			customer_online_id  INTEGER,
			representative_id   INTEGER NOT NULL DEFAULT 1,
			sales_order_number  TEXT NOT NULL,
			date_sold           TEXT NOT NULL DEFAULT '',
			total               TEXT NOT NULL DEFAULT '0',
			remarks             TEXT NOT NULL DEFAULT '',
			status              TEXT NOT NULL DEFAULT 'pending',
			sync_date           TEXT NOT NULL DEFAULT '',
			created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			deleted_at          TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS sales_order_items (
			id                     INTEGER PRIMARY KEY,
			online_id              INTEGER,
			sales_order_id         INTEGER NOT NULL REFERENCES sales_orders(id),
			sales_order_online_id  INTEGER,
			item_id                INTEGER NOT NULL REFERENCES items(id),
			item_online_id         INTEGER,
			quantity               TEXT NOT NULL DEFAULT '0',
			promo                  TEXT NOT NULL DEFAULT 'regular',
			discount               TEXT NOT NULL DEFAULT '',
			free_item_quantity     TEXT NOT NULL DEFAULT '',
			free_item_remarks      TEXT NOT NULL DEFAULT '',
			remarks                TEXT NOT NULL DEFAULT '',
			total                  REAL NOT NULL DEFAULT 0,
			created_at             TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at             TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			deleted_at             TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE TABLE IF NOT EXISTS daily_call_records (
			id                  INTEGER PRIMARY KEY,
			online_id           INTEGER,
			customer_id         INTEGER NOT NULL REFERENCES customers(id),
			customer_online_id  INTEGER,
			name                TEXT NOT NULL DEFAULT '',
			practice            TEXT NOT NULL DEFAULT '',
			dcr_date            TEXT NOT NULL DEFAULT '',
			remarks             TEXT NOT NULL DEFAULT '',
			signature           TEXT NOT NULL DEFAULT '',
			sync_date           TEXT NOT NULL DEFAULT '',
			created_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			updated_at          TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now')),
			deleted_at          TEXT NOT NULL DEFAULT ''
		)`,
	}

	for _, table := range tables {
		if _, err := db.Exec(table); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}

	indexes := []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_customers_online_id
			ON customers(online_id) WHERE online_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_items_online_id
			ON items(online_id) WHERE online_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sales_orders_online_id
			ON sales_orders(online_id) WHERE online_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sales_order_items_online_id
			ON sales_order_items(online_id) WHERE online_id IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_dcr_online_id
			ON daily_call_records(online_id) WHERE online_id IS NOT NULL`,
		`CREATE INDEX IF NOT EXISTS idx_sales_order_items_parent
			ON sales_order_items(sales_order_id)`,
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}
