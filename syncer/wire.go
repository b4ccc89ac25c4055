// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"database/sql"

	"github.com/mobiletoly/go-fieldsync/gateway"
	"github.com/mobiletoly/go-fieldsync/store"
)

// Translation between the server's snake_case wire records and the camelCase
// local model lives here, at the synchronizer boundary.

func nullID(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

// pulledSyncDate picks the server-provided sync date, falling back to the
// current date when the server omits one. Values are normalized to ISO 8601
// where they parse; unparseable stamps are kept verbatim rather than lost.
func pulledSyncDate(serverDate string) string {
	if serverDate == "" {
		return store.Today()
	}
	if normalized, err := store.NormalizeDate(serverDate); err == nil {
		return normalized
	}
	return serverDate
}

func customerFromPayload(p *gateway.CustomerPayload) *store.Customer {
	return &store.Customer{
		OnlineID:       nullID(p.ID),
		Name:           p.Name,
		FullAddress:    p.FullAddress,
		ShortAddress:   p.ShortAddress,
		Region:         p.Region,
		Class:          p.Class,
		Practice:       p.Practice,
		S3License:      p.S3License,
		S3Validity:     p.S3Validity,
		PharmacistName: p.PharmacistName,
		PRCID:          p.PRCID,
		PRCValidity:    p.PRCValidity,
		Remarks:        p.Remarks,
		SyncDate:       pulledSyncDate(p.SyncDate),
		DeletedAt:      p.DeletedAt,
	}
}

func customerToPayload(c *store.Customer) *gateway.CustomerPayload {
	return &gateway.CustomerPayload{
		Name:           c.Name,
		FullAddress:    c.FullAddress,
		ShortAddress:   c.ShortAddress,
		Region:         c.Region,
		Class:          c.Class,
		Practice:       c.Practice,
		S3License:      c.S3License,
		S3Validity:     c.S3Validity,
		PharmacistName: c.PharmacistName,
		PRCID:          c.PRCID,
		PRCValidity:    c.PRCValidity,
		Remarks:        c.Remarks,
	}
}

func itemFromPayload(p *gateway.ItemPayload) *store.Item {
	return &store.Item{
		OnlineID:     nullID(p.ID),
		BrandName:    p.BrandName,
		GenericName:  p.GenericName,
		Milligrams:   p.Milligrams,
		Supply:       p.Supply,
		CatalogPrice: p.CatalogPrice,
		ProductType:  p.ProductType,
		Inventory:    p.Inventory,
		SyncDate:     store.Today(),
		DeletedAt:    p.DeletedAt,
	}
}

func orderFromPayload(p *gateway.SalesOrderPayload) *store.SalesOrder {
	status := p.Status
	if status == "" {
		status = store.StatusPending
	}
	return &store.SalesOrder{
		OnlineID:         nullID(p.ID),
		CustomerOnlineID: nullID(p.CustomerID),
		RepresentativeID: p.RepresentativeID,
		OrderNumber:      p.OrderNumber,
		DateSold:         p.DateSold,
		Total:            p.Total,
		Remarks:          p.Remarks,
		Status:           status,
		SyncDate:         pulledSyncDate(p.SyncDate),
	}
}

// orderLineFromPayload maps one pulled line. The parent reference is the
// line's own sales_order_id when present, otherwise the id of the order it
// arrived nested under.
func orderLineFromPayload(p *gateway.SalesOrderItemPayload, enclosingOrderID int64) *store.SalesOrderItem {
	parentID := p.SalesOrderID
	if parentID == 0 {
		parentID = enclosingOrderID
	}
	promo := p.Promo
	if promo == "" {
		promo = store.PromoRegular
	}
	return &store.SalesOrderItem{
		OnlineID:         nullID(p.ID),
		OrderOnlineID:    nullID(parentID),
		ItemOnlineID:     nullID(p.ItemID),
		Quantity:         p.Quantity,
		Promo:            promo,
		Discount:         p.Discount,
		FreeItemQuantity: p.FreeItemQuantity,
		FreeItemRemarks:  p.FreeItemRemarks,
		Remarks:          p.Remarks,
		Total:            p.Total,
	}
}

func dcrFromPayload(p *gateway.DCRPayload) *store.DailyCallRecord {
	return &store.DailyCallRecord{
		OnlineID:         nullID(p.ID),
		CustomerOnlineID: nullID(p.CustomerID),
		Name:             p.Name,
		Practice:         p.Practice,
		Date:             p.Date,
		Remarks:          p.Remarks,
		Signature:        p.Signature,
		SyncDate:         pulledSyncDate(p.SyncDate),
	}
}

func dcrToPayload(d *store.DailyCallRecord, customerOnlineID int64) *gateway.DCRPayload {
	return &gateway.DCRPayload{
		CustomerID: customerOnlineID,
		Name:       d.Name,
		Practice:   d.Practice,
		Date:       d.Date,
		Remarks:    d.Remarks,
		Signature:  d.Signature,
	}
}
