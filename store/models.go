// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package store

import "database/sql"

// Promo modes for a sales order line.
const (
	PromoRegular  = "regular"
	PromoFree     = "free"
	PromoDiscount = "discount"
)

// Sales order statuses. An order stays pending until the server acknowledges
// it through a successful push or a subsequent pull.
const (
	StatusPending = "pending"
)

// Representative is the singleton device-bound profile holding the API
// credential and the per-module authorization keys. It lives at local id 1.
type Representative struct {
	LocalID          int64
	OnlineID         sql.NullInt64
	Name             string
	APIKey           string
	AppKey           string
	DeviceID         string
	ProductAppKey    string
	SalesOrderAppKey string
}

// Customer is a field-sales customer (doctor, pharmacy, clinic).
type Customer struct {
	LocalID        int64
	OnlineID       sql.NullInt64
	Name           string
	FullAddress    string
	ShortAddress   string
	Region         string
	Class          string
	Practice       string
	S3License      string
	S3Validity     string
	PharmacistName string
	PRCID          string
	PRCValidity    string
	Remarks        string
	SyncDate       string
	DeletedAt      string
}

// Item is a catalog product. Regulated product types are hidden from
// non-privileged catalog views.
type Item struct {
	LocalID      int64
	OnlineID     sql.NullInt64
	BrandName    string
	GenericName  string
	Milligrams   string
	Supply       string
	CatalogPrice string
	ProductType  string
	Inventory    int64
	SyncDate     string
	DeletedAt    string
}

// SalesOrder belongs to one customer and the device representative. The
// customer reference is by local id; CustomerOnlineID mirrors the server id
// once known so pushes can build the outbound payload.
type SalesOrder struct {
	LocalID          int64
	OnlineID         sql.NullInt64
	CustomerID       int64
	CustomerOnlineID sql.NullInt64
	RepresentativeID int64
	OrderNumber      string
	DateSold         string
	Total            string
	Remarks          string
	Status           string
	SyncDate         string
	DeletedAt        string
}

// SalesOrderItem is one line of a sales order. The parent reference is by the
// order's local id because a freshly created order has no online id yet when
// its lines are inserted.
type SalesOrderItem struct {
	LocalID          int64
	OnlineID         sql.NullInt64
	SalesOrderID     int64
	OrderOnlineID    sql.NullInt64
	ItemID           int64
	ItemOnlineID     sql.NullInt64
	Quantity         string
	Promo            string
	Discount         string
	FreeItemQuantity string
	FreeItemRemarks  string
	Remarks          string
	Total            float64
	DeletedAt        string
}

// DailyCallRecord is a customer-visit log with a captured signature.
type DailyCallRecord struct {
	LocalID          int64
	OnlineID         sql.NullInt64
	CustomerID       int64
	CustomerOnlineID sql.NullInt64
	Name             string
	Practice         string
	Date             string
	Remarks          string
	Signature        string
	SyncDate         string
	DeletedAt        string
}

// SalesListRow is one row of the sales order listing joined with its customer.
type SalesListRow struct {
	OrderLocalID int64
	OrderNumber  string
	CustomerName string
	DateSold     string
	Status       string
	Total        string
	SyncDate     string
}

// Synced reports whether the row has been acknowledged by the server. A row
// is unsynced iff its sync date is the empty string; this predicate is the
// sole driver of push retries.
func (c *Customer) Synced() bool        { return c.SyncDate != "" }
func (o *SalesOrder) Synced() bool      { return o.SyncDate != "" }
func (d *DailyCallRecord) Synced() bool { return d.SyncDate != "" }
