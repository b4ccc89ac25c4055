// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mobiletoly/go-fieldsync/gateway"
	"github.com/mobiletoly/go-fieldsync/store"
)

// Pulls are full-collection refreshes: fetch the authoritative server state
// for one entity type and upsert every record through the identity mapping.
// One malformed record or one unresolvable parent skips that record only;
// the rest of the batch continues. A local storage failure aborts the step.

// PullCustomers refreshes the customer collection. Returns the number of
// records reconciled into the local store.
func (s *Service) PullCustomers(ctx context.Context) (int, error) {
	out := s.gw.Call(ctx, gateway.ModuleSalesOrder, http.MethodGet, gateway.PathCustomers, nil)
	if !out.OK {
		return 0, out.Err
	}

	var payloads []gateway.CustomerPayload
	if err := json.Unmarshal(out.Payload, &payloads); err != nil {
		return 0, fmt.Errorf("failed to decode customers: %w", err)
	}

	synced := 0
	for i := range payloads {
		p := &payloads[i]
		if p.ID == 0 || p.Name == "" {
			s.logger.Warn("skipping malformed customer record", "id", p.ID)
			continue
		}
		if _, err := s.store.UpsertCustomerByOnlineID(ctx, customerFromPayload(p)); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

// PullItems refreshes the product catalog.
func (s *Service) PullItems(ctx context.Context) (int, error) {
	out := s.gw.Call(ctx, gateway.ModuleCatalog, http.MethodGet, gateway.PathItems, nil)
	if !out.OK {
		return 0, out.Err
	}

	var payloads []gateway.ItemPayload
	if err := json.Unmarshal(out.Payload, &payloads); err != nil {
		return 0, fmt.Errorf("failed to decode items: %w", err)
	}

	synced := 0
	for i := range payloads {
		p := &payloads[i]
		if p.ID == 0 {
			s.logger.Warn("skipping malformed item record")
			continue
		}
		if _, err := s.store.UpsertItemByOnlineID(ctx, itemFromPayload(p)); err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

// PullDCRData refreshes daily call records. A record whose customer cannot be
// resolved locally is skipped and logged, never inserted as an orphan.
func (s *Service) PullDCRData(ctx context.Context) (int, error) {
	out := s.gw.Call(ctx, gateway.ModuleSalesOrder, http.MethodGet, gateway.PathDCRData, nil)
	if !out.OK {
		return 0, out.Err
	}

	var payloads []gateway.DCRPayload
	if err := json.Unmarshal(out.Payload, &payloads); err != nil {
		return 0, fmt.Errorf("failed to decode dcr data: %w", err)
	}

	synced := 0
	for i := range payloads {
		p := &payloads[i]
		if p.ID == 0 {
			s.logger.Warn("skipping malformed dcr record")
			continue
		}
		_, err := s.store.UpsertDCRByOnlineID(ctx, dcrFromPayload(p))
		if errors.Is(err, store.ErrParentNotFound) {
			s.logger.Warn("skipping dcr with unresolvable customer",
				"dcr", p.ID, "customer", p.CustomerID)
			continue
		}
		if err != nil {
			return synced, err
		}
		synced++
	}
	return synced, nil
}

// PullSalesOrders refreshes sales orders together with their nested line
// items. Orders whose customer is unresolvable are skipped whole; lines whose
// parent order or catalog item is unresolvable are skipped individually.
func (s *Service) PullSalesOrders(ctx context.Context) (int, error) {
	out := s.gw.Call(ctx, gateway.ModuleSalesOrder, http.MethodGet, gateway.PathSalesOrders, nil)
	if !out.OK {
		return 0, out.Err
	}

	var payloads []gateway.SalesOrderPayload
	if err := json.Unmarshal(out.Payload, &payloads); err != nil {
		return 0, fmt.Errorf("failed to decode sales orders: %w", err)
	}

	synced := 0
	for i := range payloads {
		p := &payloads[i]
		if p.ID == 0 || p.OrderNumber == "" {
			s.logger.Warn("skipping malformed sales order record", "id", p.ID)
			continue
		}

		_, err := s.store.UpsertSalesOrderByOnlineID(ctx, orderFromPayload(p))
		if errors.Is(err, store.ErrParentNotFound) {
			s.logger.Warn("skipping sales order with unresolvable customer",
				"order", p.ID, "customer", p.CustomerID)
			continue
		}
		if err != nil {
			return synced, err
		}
		synced++

		for j := range p.Items {
			lp := &p.Items[j]
			if lp.ID == 0 {
				s.logger.Warn("skipping malformed sales order line", "order", p.ID)
				continue
			}
			_, err := s.store.UpsertSalesOrderItemByOnlineID(ctx, orderLineFromPayload(lp, p.ID))
			if errors.Is(err, store.ErrParentNotFound) {
				s.logger.Warn("skipping sales order line with unresolvable reference",
					"line", lp.ID, "order", lp.SalesOrderID, "item", lp.ItemID)
				continue
			}
			if err != nil {
				return synced, err
			}
		}
	}
	return synced, nil
}
