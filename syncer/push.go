// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/mobiletoly/go-fieldsync/gateway"
	"github.com/mobiletoly/go-fieldsync/store"
)

// Pushes select rows by the single unsynced predicate (sync_date = '') and
// stamp the server-assigned id and sync date back on success. A failed push
// leaves the row untouched, so the same predicate re-selects it on the next
// cycle; retries are unbounded and purely data-driven. With nothing pending
// a push returns before touching the network.

// PushCustomers submits locally created customers one request each.
func (s *Service) PushCustomers(ctx context.Context) (int, error) {
	pending, err := s.store.UnsyncedCustomers(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	pushed := 0
	for i := range pending {
		c := &pending[i]
		out := s.gw.Call(ctx, gateway.ModuleSalesOrder, http.MethodPost,
			gateway.PathCustomerCreate, customerToPayload(c))
		if !out.OK {
			s.logger.Warn("customer push failed, will retry next cycle",
				"customer", c.LocalID, "err", out.Err)
			continue
		}

		var envelope gateway.Envelope
		if err := json.Unmarshal(out.Payload, &envelope); err != nil {
			s.logger.Warn("customer push returned undecodable response",
				"customer", c.LocalID, "err", err)
			continue
		}
		if envelope.Data.ID == 0 {
			s.logger.Warn("customer push response carries no record id",
				"customer", c.LocalID)
			continue
		}
		if err := s.store.MarkCustomerSynced(ctx, c.LocalID, envelope.Data.ID, store.Today()); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}

// PushSalesOrders submits each pending order together with its full line-item
// set in one request. The customer's online id must already be known (customer
// pushes run first); an order whose customer is still unsynced waits for the
// next cycle.
func (s *Service) PushSalesOrders(ctx context.Context) (int, error) {
	pending, err := s.store.UnsyncedSalesOrders(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	orderIDs := make([]int64, len(pending))
	for i := range pending {
		orderIDs[i] = pending[i].LocalID
	}
	linesByOrder, err := s.store.ItemsForOrders(ctx, orderIDs)
	if err != nil {
		return 0, err
	}

	pushed := 0
	for i := range pending {
		o := &pending[i]

		cust, err := s.store.CustomerByLocalID(ctx, o.CustomerID)
		if err != nil {
			return pushed, err
		}
		if !cust.OnlineID.Valid {
			s.logger.Warn("sales order waits for its customer to sync",
				"order", o.LocalID, "customer", o.CustomerID)
			continue
		}

		lines := linesByOrder[o.LocalID]
		payload, ok := s.buildOrderPayload(o, cust.OnlineID.Int64, lines)
		if !ok {
			continue
		}

		out := s.gw.Call(ctx, gateway.ModuleSalesOrder, http.MethodPost,
			gateway.PathSalesOrderCreate, payload)
		if !out.OK {
			s.logger.Warn("sales order push failed, will retry next cycle",
				"order", o.LocalID, "err", out.Err)
			continue
		}

		var envelope gateway.Envelope
		if err := json.Unmarshal(out.Payload, &envelope); err != nil {
			s.logger.Warn("sales order push returned undecodable response",
				"order", o.LocalID, "err", err)
			continue
		}
		if envelope.Data.ID == 0 {
			s.logger.Warn("sales order push response carries no record id",
				"order", o.LocalID)
			continue
		}

		if err := s.store.MarkSalesOrderSynced(ctx, o.LocalID, envelope.Data.ID,
			store.Today(), envelope.Data.Status); err != nil {
			return pushed, err
		}
		if err := s.stampOrderLines(ctx, lines, &envelope.Data); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}

// buildOrderPayload assembles the outbound order. Every line must reference a
// catalog item the server knows; a line without an item online id makes the
// whole order wait (items come from the catalog pull, so this clears itself).
func (s *Service) buildOrderPayload(o *store.SalesOrder, customerOnlineID int64, lines []store.SalesOrderItem) (*gateway.SalesOrderPayload, bool) {
	payload := &gateway.SalesOrderPayload{
		CustomerID:       customerOnlineID,
		RepresentativeID: o.RepresentativeID,
		OrderNumber:      o.OrderNumber,
		DateSold:         o.DateSold,
		Total:            o.Total,
		Remarks:          o.Remarks,
		Status:           o.Status,
		Items:            make([]gateway.SalesOrderItemPayload, 0, len(lines)),
	}
	for i := range lines {
		li := &lines[i]
		if !li.ItemOnlineID.Valid {
			s.logger.Warn("sales order waits for catalog item mapping",
				"order", o.LocalID, "line", li.LocalID, "item", li.ItemID)
			return nil, false
		}
		payload.Items = append(payload.Items, gateway.SalesOrderItemPayload{
			ItemID:           li.ItemOnlineID.Int64,
			Quantity:         li.Quantity,
			Promo:            li.Promo,
			Discount:         li.Discount,
			FreeItemQuantity: li.FreeItemQuantity,
			FreeItemRemarks:  li.FreeItemRemarks,
			Remarks:          li.Remarks,
			Total:            li.Total,
		})
	}
	return payload, true
}

// stampOrderLines applies the server's per-child id mapping when the response
// provides one (positional, same order as submitted); otherwise only the
// parent's online id is mirrored onto each line.
func (s *Service) stampOrderLines(ctx context.Context, lines []store.SalesOrderItem, created *gateway.CreatedPayload) error {
	for i := range lines {
		lineOnlineID := sql.NullInt64{}
		if i < len(created.Items) && created.Items[i].ID != 0 {
			lineOnlineID = sql.NullInt64{Int64: created.Items[i].ID, Valid: true}
		}
		if err := s.store.MarkSalesOrderItemSynced(ctx, lines[i].LocalID,
			lineOnlineID, created.ID); err != nil {
			return err
		}
	}
	return nil
}

// PushDCRs submits locally captured daily call records one request each. A
// record whose customer has no online id yet waits for the next cycle.
func (s *Service) PushDCRs(ctx context.Context) (int, error) {
	pending, err := s.store.UnsyncedDCRs(ctx)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	pushed := 0
	for i := range pending {
		d := &pending[i]

		cust, err := s.store.CustomerByLocalID(ctx, d.CustomerID)
		if err != nil {
			return pushed, err
		}
		if !cust.OnlineID.Valid {
			s.logger.Warn("dcr waits for its customer to sync",
				"dcr", d.LocalID, "customer", d.CustomerID)
			continue
		}

		out := s.gw.Call(ctx, gateway.ModuleSalesOrder, http.MethodPost,
			gateway.PathDCRCreate, dcrToPayload(d, cust.OnlineID.Int64))
		if !out.OK {
			s.logger.Warn("dcr push failed, will retry next cycle",
				"dcr", d.LocalID, "err", out.Err)
			continue
		}

		var envelope gateway.Envelope
		if err := json.Unmarshal(out.Payload, &envelope); err != nil {
			s.logger.Warn("dcr push returned undecodable response",
				"dcr", d.LocalID, "err", err)
			continue
		}
		if envelope.Data.ID == 0 {
			s.logger.Warn("dcr push response carries no record id",
				"dcr", d.LocalID)
			continue
		}
		if err := s.store.MarkDCRSynced(ctx, d.LocalID, envelope.Data.ID, store.Today()); err != nil {
			return pushed, err
		}
		pushed++
	}
	return pushed, nil
}
