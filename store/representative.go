// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// representativeLocalID is the fixed surrogate id of the singleton profile.
const representativeLocalID = 1

// Representative returns the singleton profile, or ErrNoRepresentative when
// the device has not been provisioned yet (or keys were reset).
func (s *Store) Representative(ctx context.Context) (*Representative, error) {
	var r Representative
	err := s.db.QueryRowContext(ctx, `
		SELECT id, online_id, name, api_key, app_key, device_id,
		       product_app_id, sales_order_app_id
		FROM representative WHERE id = ?
	`, representativeLocalID).Scan(
		&r.LocalID, &r.OnlineID, &r.Name, &r.APIKey, &r.AppKey, &r.DeviceID,
		&r.ProductAppKey, &r.SalesOrderAppKey,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoRepresentative
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query representative: %w", err)
	}
	if r.APIKey == "" {
		// Keys were rotated or reset; the device must re-provision.
		return nil, ErrNoRepresentative
	}
	return &r, nil
}

// SaveRepresentative upserts the singleton profile at local id 1.
func (s *Store) SaveRepresentative(ctx context.Context, r *Representative) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO representative (id, online_id, name, api_key, app_key, device_id,
			product_app_id, sales_order_app_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			online_id = excluded.online_id,
			name = excluded.name,
			api_key = excluded.api_key,
			app_key = excluded.app_key,
			device_id = excluded.device_id,
			product_app_id = excluded.product_app_id,
			sales_order_app_id = excluded.sales_order_app_id,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
	`, representativeLocalID, r.OnlineID, r.Name, r.APIKey, r.AppKey, r.DeviceID,
		r.ProductAppKey, r.SalesOrderAppKey)
	if err != nil {
		return fmt.Errorf("failed to save representative: %w", err)
	}
	return nil
}

// ResetRepresentativeKeys clears all credentials and the online id, forcing
// the device back through provisioning. This is the only path that ever
// clears an assigned online id.
func (s *Store) ResetRepresentativeKeys(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE representative
		SET online_id = NULL, api_key = '', app_key = '',
		    product_app_id = '', sales_order_app_id = '',
		    updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, representativeLocalID)
	if err != nil {
		return fmt.Errorf("failed to reset representative keys: %w", err)
	}
	return nil
}
