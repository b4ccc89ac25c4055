// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const itemColumns = `id, online_id, brand_name, generic_name, milligrams,
	supply, catalog_price, product_type, inventory, sync_date, deleted_at`

func scanItem(row interface{ Scan(...any) error }) (*Item, error) {
	var it Item
	err := row.Scan(&it.LocalID, &it.OnlineID, &it.BrandName, &it.GenericName,
		&it.Milligrams, &it.Supply, &it.CatalogPrice, &it.ProductType,
		&it.Inventory, &it.SyncDate, &it.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

// UpsertItemByOnlineID reconciles a server-side catalog item into the local
// store, keyed by its online id. Last-write-wins on repeated pulls.
func (s *Store) UpsertItemByOnlineID(ctx context.Context, it *Item) (int64, error) {
	if !it.OnlineID.Valid {
		return 0, fmt.Errorf("failed to upsert item: online id is not set")
	}

	existing, err := s.ItemByOnlineID(ctx, it.OnlineID.Int64)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	if errors.Is(err, ErrNotFound) {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO items (online_id, brand_name, generic_name, milligrams,
				supply, catalog_price, product_type, inventory, sync_date,
				deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, it.OnlineID, it.BrandName, it.GenericName, it.Milligrams, it.Supply,
			it.CatalogPrice, it.ProductType, it.Inventory, it.SyncDate,
			it.DeletedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert item: %w", err)
		}
		localID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read item rowid: %w", err)
		}
		it.LocalID = localID
		return localID, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE items SET brand_name = ?, generic_name = ?, milligrams = ?,
			supply = ?, catalog_price = ?, product_type = ?, inventory = ?,
			sync_date = ?, deleted_at = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, it.BrandName, it.GenericName, it.Milligrams, it.Supply, it.CatalogPrice,
		it.ProductType, it.Inventory, it.SyncDate, it.DeletedAt, existing.LocalID)
	if err != nil {
		return 0, fmt.Errorf("failed to update item %d: %w", existing.LocalID, err)
	}
	it.LocalID = existing.LocalID
	return existing.LocalID, nil
}

// ItemByLocalID loads one catalog item by its local surrogate id.
func (s *Store) ItemByLocalID(ctx context.Context, localID int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, localID)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item %d: %w", localID, err)
	}
	return it, nil
}

// ItemByOnlineID resolves a local catalog item from a server id.
func (s *Store) ItemByOnlineID(ctx context.Context, onlineID int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE online_id = ?`, onlineID)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query item by online id %d: %w", onlineID, err)
	}
	return it, nil
}

// ListItems returns non-deleted catalog items. Unless includeRegulated is
// set, regulated product types are filtered out of the view.
func (s *Store) ListItems(ctx context.Context, includeRegulated bool) ([]Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE deleted_at = ''`
	if !includeRegulated {
		query += ` AND product_type NOT LIKE 'regulated'`
	}
	query += ` ORDER BY brand_name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	var out []Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		out = append(out, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}
	return out, nil
}
