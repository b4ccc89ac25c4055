// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const customerColumns = `id, online_id, name, full_address, short_address, region,
	class, practice, s3_license, s3_validity, pharmacist_name, prc_id,
	prc_validity, remarks, sync_date, deleted_at`

func scanCustomer(row interface{ Scan(...any) error }) (*Customer, error) {
	var c Customer
	err := row.Scan(&c.LocalID, &c.OnlineID, &c.Name, &c.FullAddress,
		&c.ShortAddress, &c.Region, &c.Class, &c.Practice, &c.S3License,
		&c.S3Validity, &c.PharmacistName, &c.PRCID, &c.PRCValidity,
		&c.Remarks, &c.SyncDate, &c.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// InsertCustomer creates a locally captured customer. The row starts unsynced
// (sync_date '') unless the caller already has a sync date, e.g. when the
// customer was created online-first.
func (s *Store) InsertCustomer(ctx context.Context, c *Customer) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO customers (online_id, name, full_address, short_address,
			region, class, practice, s3_license, s3_validity, pharmacist_name,
			prc_id, prc_validity, remarks, sync_date, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.OnlineID, c.Name, c.FullAddress, c.ShortAddress, c.Region, c.Class,
		c.Practice, c.S3License, c.S3Validity, c.PharmacistName, c.PRCID,
		c.PRCValidity, c.Remarks, c.SyncDate, c.DeletedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert customer: %w", err)
	}
	localID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read customer rowid: %w", err)
	}
	c.LocalID = localID
	return localID, nil
}

// UpsertCustomerByOnlineID reconciles a server-side customer into the local
// store. If a row with that online id exists it is updated in place
// (last-write-wins), otherwise a new row is inserted and assigned a fresh
// local id. The resolved local id is returned either way.
func (s *Store) UpsertCustomerByOnlineID(ctx context.Context, c *Customer) (int64, error) {
	if !c.OnlineID.Valid {
		return 0, fmt.Errorf("failed to upsert customer: online id is not set")
	}

	existing, err := s.CustomerByOnlineID(ctx, c.OnlineID.Int64)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	if errors.Is(err, ErrNotFound) {
		return s.InsertCustomer(ctx, c)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE customers SET name = ?, full_address = ?, short_address = ?,
			region = ?, class = ?, practice = ?, s3_license = ?, s3_validity = ?,
			pharmacist_name = ?, prc_id = ?, prc_validity = ?, remarks = ?,
			sync_date = ?, deleted_at = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, c.Name, c.FullAddress, c.ShortAddress, c.Region, c.Class, c.Practice,
		c.S3License, c.S3Validity, c.PharmacistName, c.PRCID, c.PRCValidity,
		c.Remarks, c.SyncDate, c.DeletedAt, existing.LocalID)
	if err != nil {
		return 0, fmt.Errorf("failed to update customer %d: %w", existing.LocalID, err)
	}
	c.LocalID = existing.LocalID
	return existing.LocalID, nil
}

// CustomerByLocalID loads one customer by its local surrogate id.
func (s *Store) CustomerByLocalID(ctx context.Context, localID int64) (*Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = ?`, localID)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer %d: %w", localID, err)
	}
	return c, nil
}

// CustomerByOnlineID resolves a local customer row from a server id.
func (s *Store) CustomerByOnlineID(ctx context.Context, onlineID int64) (*Customer, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE online_id = ?`, onlineID)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query customer by online id %d: %w", onlineID, err)
	}
	return c, nil
}

// ListCustomers returns all non-deleted customers ordered by name, for the
// customer picker and listing screens.
func (s *Store) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE deleted_at = '' ORDER BY name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return out, nil
}

// UnsyncedCustomers returns locally created customers that have never been
// acknowledged by the server.
func (s *Store) UnsyncedCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+customerColumns+` FROM customers
		WHERE sync_date = '' AND deleted_at = '' ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced customers: %w", err)
	}
	defer rows.Close()

	var out []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate customers: %w", err)
	}
	return out, nil
}

// MarkCustomerSynced stamps the server-assigned id and sync date onto a local
// row after a successful push.
func (s *Store) MarkCustomerSynced(ctx context.Context, localID, onlineID int64, syncDate string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE customers SET online_id = ?, sync_date = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, onlineID, syncDate, localID)
	if err != nil {
		return fmt.Errorf("failed to mark customer %d synced: %w", localID, err)
	}
	return nil
}

// SoftDeleteCustomer marks a customer deleted without removing the row. Hard
// deletes never happen through this layer.
func (s *Store) SoftDeleteCustomer(ctx context.Context, localID int64, when string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE customers SET deleted_at = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, when, localID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete customer %d: %w", localID, err)
	}
	return nil
}
