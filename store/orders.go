// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

const orderColumns = `id, online_id, customer_id, customer_online_id,
	representative_id, sales_order_number, date_sold, total, remarks, status,
	sync_date, deleted_at`

const orderItemColumns = `id, online_id, sales_order_id, sales_order_online_id,
	item_id, item_online_id, quantity, promo, discount, free_item_quantity,
	free_item_remarks, remarks, total, deleted_at`

func scanSalesOrder(row interface{ Scan(...any) error }) (*SalesOrder, error) {
	var o SalesOrder
	err := row.Scan(&o.LocalID, &o.OnlineID, &o.CustomerID, &o.CustomerOnlineID,
		&o.RepresentativeID, &o.OrderNumber, &o.DateSold, &o.Total, &o.Remarks,
		&o.Status, &o.SyncDate, &o.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func scanSalesOrderItem(row interface{ Scan(...any) error }) (*SalesOrderItem, error) {
	var li SalesOrderItem
	err := row.Scan(&li.LocalID, &li.OnlineID, &li.SalesOrderID, &li.OrderOnlineID,
		&li.ItemID, &li.ItemOnlineID, &li.Quantity, &li.Promo, &li.Discount,
		&li.FreeItemQuantity, &li.FreeItemRemarks, &li.Remarks, &li.Total,
		&li.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &li, nil
}

// CreateSalesOrder inserts a locally captured order followed by its lines.
// Lines are stitched to the parent by its fresh local id; there is no
// multi-statement transaction here, mirroring the capture flow where each
// write is an independent sequential statement. The order starts pending and
// unsynced. If o.Total is empty it is computed from the line totals.
func (s *Store) CreateSalesOrder(ctx context.Context, o *SalesOrder, lines []SalesOrderItem) (int64, error) {
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.Total == "" {
		o.Total = OrderTotal(lines)
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sales_orders (online_id, customer_id, customer_online_id,
			representative_id, sales_order_number, date_sold, total, remarks,
			status, sync_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, '')
	`, o.OnlineID, o.CustomerID, o.CustomerOnlineID, o.RepresentativeID,
		o.OrderNumber, o.DateSold, o.Total, o.Remarks, o.Status)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sales order: %w", err)
	}
	orderID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read sales order rowid: %w", err)
	}
	o.LocalID = orderID

	for i := range lines {
		lines[i].SalesOrderID = orderID
		if lines[i].Promo == "" {
			lines[i].Promo = PromoRegular
		}
		if _, err := s.insertSalesOrderItem(ctx, &lines[i]); err != nil {
			return orderID, err
		}
	}
	return orderID, nil
}

func (s *Store) insertSalesOrderItem(ctx context.Context, li *SalesOrderItem) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO sales_order_items (online_id, sales_order_id,
			sales_order_online_id, item_id, item_online_id, quantity, promo,
			discount, free_item_quantity, free_item_remarks, remarks, total,
			deleted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, li.OnlineID, li.SalesOrderID, li.OrderOnlineID, li.ItemID,
		li.ItemOnlineID, li.Quantity, li.Promo, li.Discount,
		li.FreeItemQuantity, li.FreeItemRemarks, li.Remarks, li.Total,
		li.DeletedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert sales order item: %w", err)
	}
	localID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read sales order item rowid: %w", err)
	}
	li.LocalID = localID
	return localID, nil
}

// UpsertSalesOrderByOnlineID reconciles a server-side order into the local
// store. The owning customer must already exist locally (resolved through its
// online id); otherwise ErrParentNotFound is returned and the caller skips
// this record.
func (s *Store) UpsertSalesOrderByOnlineID(ctx context.Context, o *SalesOrder) (int64, error) {
	if !o.OnlineID.Valid {
		return 0, fmt.Errorf("failed to upsert sales order: online id is not set")
	}
	if !o.CustomerOnlineID.Valid {
		return 0, fmt.Errorf("%w: sales order %d has no customer reference",
			ErrParentNotFound, o.OnlineID.Int64)
	}

	cust, err := s.CustomerByOnlineID(ctx, o.CustomerOnlineID.Int64)
	if errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("%w: customer %d for sales order %d",
			ErrParentNotFound, o.CustomerOnlineID.Int64, o.OnlineID.Int64)
	}
	if err != nil {
		return 0, err
	}
	o.CustomerID = cust.LocalID

	existing, err := s.SalesOrderByOnlineID(ctx, o.OnlineID.Int64)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, err
	}
	if errors.Is(err, ErrNotFound) {
		res, err := s.db.ExecContext(ctx, `
			INSERT INTO sales_orders (online_id, customer_id, customer_online_id,
				representative_id, sales_order_number, date_sold, total, remarks,
				status, sync_date, deleted_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, o.OnlineID, o.CustomerID, o.CustomerOnlineID, o.RepresentativeID,
			o.OrderNumber, o.DateSold, o.Total, o.Remarks, o.Status, o.SyncDate,
			o.DeletedAt)
		if err != nil {
			return 0, fmt.Errorf("failed to insert sales order: %w", err)
		}
		localID, err := res.LastInsertId()
		if err != nil {
			return 0, fmt.Errorf("failed to read sales order rowid: %w", err)
		}
		o.LocalID = localID
		return localID, nil
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE sales_orders SET customer_id = ?, customer_online_id = ?,
			representative_id = ?, sales_order_number = ?, date_sold = ?,
			total = ?, remarks = ?, status = ?, sync_date = ?, deleted_at = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, o.CustomerID, o.CustomerOnlineID, o.RepresentativeID, o.OrderNumber,
		o.DateSold, o.Total, o.Remarks, o.Status, o.SyncDate, o.DeletedAt,
		existing.LocalID)
	if err != nil {
		return 0, fmt.Errorf("failed to update sales order %d: %w", existing.LocalID, err)
	}
	o.LocalID = existing.LocalID
	return existing.LocalID, nil
}

// UpsertSalesOrderItemByOnlineID reconciles a server-side order line. The
// parent order is resolved by the line's own parent online id, not by
// whatever order payload it arrived nested under, so an unresolvable parent
// yields ErrParentNotFound and no orphan line is ever persisted. The
// referenced catalog item must also be resolvable.
func (s *Store) UpsertSalesOrderItemByOnlineID(ctx context.Context, li *SalesOrderItem) (int64, error) {
	if !li.OnlineID.Valid {
		return 0, fmt.Errorf("failed to upsert sales order item: online id is not set")
	}
	if !li.OrderOnlineID.Valid {
		return 0, fmt.Errorf("%w: sales order item %d has no parent reference",
			ErrParentNotFound, li.OnlineID.Int64)
	}

	parent, err := s.SalesOrderByOnlineID(ctx, li.OrderOnlineID.Int64)
	if errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("%w: sales order %d for line %d",
			ErrParentNotFound, li.OrderOnlineID.Int64, li.OnlineID.Int64)
	}
	if err != nil {
		return 0, err
	}
	li.SalesOrderID = parent.LocalID

	if li.ItemOnlineID.Valid {
		item, err := s.ItemByOnlineID(ctx, li.ItemOnlineID.Int64)
		if errors.Is(err, ErrNotFound) {
			return 0, fmt.Errorf("%w: item %d for sales order line %d",
				ErrParentNotFound, li.ItemOnlineID.Int64, li.OnlineID.Int64)
		}
		if err != nil {
			return 0, err
		}
		li.ItemID = item.LocalID
	}

	var existingID int64
	err = s.db.QueryRowContext(ctx,
		`SELECT id FROM sales_order_items WHERE online_id = ?`,
		li.OnlineID.Int64).Scan(&existingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to query sales order item: %w", err)
	}
	if errors.Is(err, sql.ErrNoRows) {
		return s.insertSalesOrderItem(ctx, li)
	}

	_, err = s.db.ExecContext(ctx, `
		UPDATE sales_order_items SET sales_order_id = ?, sales_order_online_id = ?,
			item_id = ?, item_online_id = ?, quantity = ?, promo = ?, discount = ?,
			free_item_quantity = ?, free_item_remarks = ?, remarks = ?, total = ?,
			deleted_at = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, li.SalesOrderID, li.OrderOnlineID, li.ItemID, li.ItemOnlineID,
		li.Quantity, li.Promo, li.Discount, li.FreeItemQuantity,
		li.FreeItemRemarks, li.Remarks, li.Total, li.DeletedAt, existingID)
	if err != nil {
		return 0, fmt.Errorf("failed to update sales order item %d: %w", existingID, err)
	}
	li.LocalID = existingID
	return existingID, nil
}

// SalesOrderByLocalID loads one order by its local surrogate id.
func (s *Store) SalesOrderByLocalID(ctx context.Context, localID int64) (*SalesOrder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM sales_orders WHERE id = ?`, localID)
	o, err := scanSalesOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sales order %d: %w", localID, err)
	}
	return o, nil
}

// SalesOrderByOnlineID resolves a local order row from a server id.
func (s *Store) SalesOrderByOnlineID(ctx context.Context, onlineID int64) (*SalesOrder, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM sales_orders WHERE online_id = ?`, onlineID)
	o, err := scanSalesOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sales order by online id %d: %w", onlineID, err)
	}
	return o, nil
}

// UnsyncedSalesOrders returns orders that have never been acknowledged by
// the server, oldest first so push order is stable.
func (s *Store) UnsyncedSalesOrders(ctx context.Context) ([]SalesOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderColumns+` FROM sales_orders
		WHERE sync_date = '' AND deleted_at = '' ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced sales orders: %w", err)
	}
	defer rows.Close()

	var out []SalesOrder
	for rows.Next() {
		o, err := scanSalesOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales order: %w", err)
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales orders: %w", err)
	}
	return out, nil
}

// ItemsForOrders loads all line items whose parent local id is in orderIDs,
// grouped by parent. Used to assemble the outbound payload of a sales order
// push, which submits an order together with its full line set.
func (s *Store) ItemsForOrders(ctx context.Context, orderIDs []int64) (map[int64][]SalesOrderItem, error) {
	grouped := make(map[int64][]SalesOrderItem)
	if len(orderIDs) == 0 {
		return grouped, nil
	}

	placeholders := strings.Repeat("?,", len(orderIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		args[i] = id
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT `+orderItemColumns+` FROM sales_order_items
		WHERE sales_order_id IN (`+placeholders+`) AND deleted_at = ''
		ORDER BY sales_order_id, id
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		li, err := scanSalesOrderItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sales order item: %w", err)
		}
		grouped[li.SalesOrderID] = append(grouped[li.SalesOrderID], *li)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales order items: %w", err)
	}
	return grouped, nil
}

// MarkSalesOrderSynced stamps the server-assigned id and sync date onto a
// pushed order. A non-empty status from the server response replaces the
// local pending status.
func (s *Store) MarkSalesOrderSynced(ctx context.Context, localID, onlineID int64, syncDate, status string) error {
	query := `UPDATE sales_orders SET online_id = ?, sync_date = ?,
		updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')`
	args := []any{onlineID, syncDate}
	if status != "" {
		query += `, status = ?`
		args = append(args, status)
	}
	query += ` WHERE id = ?`
	args = append(args, localID)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark sales order %d synced: %w", localID, err)
	}
	return nil
}

// MarkSalesOrderItemSynced stamps the server-assigned line id and the parent
// order's online id onto a pushed line. The line id is optional because not
// every server response carries a per-child id mapping.
func (s *Store) MarkSalesOrderItemSynced(ctx context.Context, localID int64, onlineID sql.NullInt64, orderOnlineID int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE sales_order_items SET online_id = ?, sales_order_online_id = ?,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ','now')
		WHERE id = ?
	`, onlineID, orderOnlineID, localID)
	if err != nil {
		return fmt.Errorf("failed to mark sales order item %d synced: %w", localID, err)
	}
	return nil
}

// SalesList returns the order listing joined with customer names, newest
// order number first, for the sales screens.
func (s *Store) SalesList(ctx context.Context) ([]SalesListRow, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT o.id, o.sales_order_number, c.name, o.date_sold, o.status,
		       o.total, o.sync_date
		FROM sales_orders o
		INNER JOIN customers c ON c.id = o.customer_id
		WHERE o.deleted_at = ''
		ORDER BY o.sales_order_number DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales list: %w", err)
	}
	defer rows.Close()

	var out []SalesListRow
	for rows.Next() {
		var r SalesListRow
		if err := rows.Scan(&r.OrderLocalID, &r.OrderNumber, &r.CustomerName,
			&r.DateSold, &r.Status, &r.Total, &r.SyncDate); err != nil {
			return nil, fmt.Errorf("failed to scan sales list row: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sales list: %w", err)
	}
	return out, nil
}
