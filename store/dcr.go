// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const dcrColumns = `id, online_id, customer_id, customer_online_id, name,
	practice, dcr_date, remarks, signature, sync_date, deleted_at`

func scanDCR(row interface{ Scan(...any) error }) (*DailyCallRecord, error) {
	var d DailyCallRecord
	err := row.Scan(&d.LocalID, &d.OnlineID, &d.CustomerID, &d.CustomerOnlineID,
		&d.Name, &d.Practice, &d.Date, &d.Remarks, &d.Signature, &d.SyncDate,
		&d.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// InsertDCR creates a locally captured daily call record. The visit date is
// normalized to ISO 8601 at write time so listing can sort with a plain
// ORDER BY instead of parsing locale-formatted strings.
func (s *Store) InsertDCR(ctx context.Context, d *DailyCallRecord) (int64, error) {
	date, err := NormalizeDate(d.Date)
	if err != nil {
		return 0, fmt.Errorf("failed to normalize dcr date %q: %w", d.Date, err)
	}
	d.Date = date

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO daily_call_records (online_id, customer_id,
			customer_online_id, name, practice, dcr_date, remarks, signature,
			sync_date, deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.OnlineID, d.CustomerID, d.CustomerOnlineID, d.Name, d.Practice,
		d.Date, d.Remarks, d.Signature, d.SyncDate, d.DeletedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert dcr: %w", err)
	}
	localID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read dcr rowid: %w", err)
	}
	d.LocalID = localID
	return localID, nil
}

// UpsertDCRByOnlineID reconciles a server-side call record. The owning
// customer must be resolvable locally or ErrParentNotFound is returned.
func (s *Store) UpsertDCRByOnlineID(ctx context.Context, d *DailyCallRecord) (int64, error) {
	if !d.OnlineID.Valid {
		return 0, fmt.Errorf("failed to upsert dcr: online id is not set")
	}
	if !d.CustomerOnlineID.Valid {
		return 0, fmt.Errorf("%w: dcr %d has no customer reference",
			ErrParentNotFound, d.OnlineID.Int64)
	}

	cust, err := s.CustomerByOnlineID(ctx, d.CustomerOnlineID.Int64)
	if errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("%w: customer %d for dcr %d",
			ErrParentNotFound, d.CustomerOnlineID.Int64, d.OnlineID.Int64)
	}
	if err != nil {
		return 0, err
	}
	d.CustomerID = cust.LocalID

	if date, err := NormalizeDate(d.Date); err == nil {
		d.Date = date
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM daily_call_records WHERE online_id = ?`,
		d.OnlineID.Int64).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query dcr: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return s.InsertDCR(ctx, d)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE daily_call_records SET customer_id = ?, customer_online_id = ?,
			name = ?, practice = ?, dcr_date = ?, remarks = ?, signature = ?,
			sync_date = ?, deleted_at = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, d.CustomerID, d.CustomerOnlineID, d.Name, d.Practice, d.Date,
		d.Remarks, d.Signature, d.SyncDate, d.DeletedAt, existingID)
	if err != nil {
		return 0, fmt.Errorf("failed to update dcr %d: %w", existingID, err)
	}
	d.LocalID = existingID
	return existingID, nil
}

// UnsyncedDCRs returns call records that have never been acknowledged.
func (s *Store) UnsyncedDCRs(ctx context.Context) ([]DailyCallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dcrColumns+` FROM daily_call_records
		WHERE sync_date = '' AND deleted_at = '' ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced dcrs: %w", err)
	}
	defer rows.Close()

	var out []DailyCallRecord
	for rows.Next() {
		d, err := scanDCR(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dcr: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dcrs: %w", err)
	}
	return out, nil
}

// MarkDCRSynced stamps the server-assigned id and sync date onto a pushed
// call record.
func (s *Store) MarkDCRSynced(ctx context.Context, localID, onlineID int64, syncDate string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE daily_call_records SET online_id = ?, sync_date = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, onlineID, syncDate, localID)
	if err != nil {
		return fmt.Errorf("failed to mark dcr %d synced: %w", localID, err)
	}
	return nil
}

// ListDCRs returns non-deleted call records, most recent visit first. Dates
// are ISO 8601 so lexical ordering is chronological.
func (s *Store) ListDCRs(ctx context.Context) ([]DailyCallRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+dcrColumns+` FROM daily_call_records
		WHERE deleted_at = '' ORDER BY dcr_date DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list dcrs: %w", err)
	}
	defer rows.Close()

	var out []DailyCallRecord
	for rows.Next() {
		d, err := scanDCR(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan dcr: %w", err)
		}
		out = append(out, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dcrs: %w", err)
	}
	return out, nil
}
