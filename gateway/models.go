// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package gateway

// Wire models for the remote API. Field names are snake_case server-side;
// translation to the camelCase local model is the synchronizers' job at the
// boundary.

type registerRequest struct {
	AppKey string `json:"app_key"`
}

// RepresentativePayload is the server's view of the registered app instance.
type RepresentativePayload struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	APIKey           string `json:"api_key"`
	ProductAppKey    string `json:"product_app_id"`
	SalesOrderAppKey string `json:"sales_order_app_id"`
}

// CustomerPayload is one customer record on the wire.
type CustomerPayload struct {
	ID             int64  `json:"id,omitempty"`
	Name           string `json:"name"`
	FullAddress    string `json:"full_address"`
	ShortAddress   string `json:"short_address"`
	Region         string `json:"region"`
	Class          string `json:"class"`
	Practice       string `json:"practice,omitempty"`
	S3License      string `json:"s3_license,omitempty"`
	S3Validity     string `json:"s3_validity,omitempty"`
	PharmacistName string `json:"pharmacist_name,omitempty"`
	PRCID          string `json:"prc_id,omitempty"`
	PRCValidity    string `json:"prc_validity,omitempty"`
	Remarks        string `json:"remarks,omitempty"`
	SyncDate       string `json:"sync_date,omitempty"`
	DeletedAt      string `json:"deleted_at,omitempty"`
}

// ItemPayload is one catalog item record on the wire.
type ItemPayload struct {
	ID           int64  `json:"id"`
	BrandName    string `json:"brand_name"`
	GenericName  string `json:"generic_name"`
	Milligrams   string `json:"milligrams,omitempty"`
	Supply       string `json:"supply,omitempty"`
	CatalogPrice string `json:"catalog_price"`
	ProductType  string `json:"product_type"`
	Inventory    int64  `json:"inventory"`
	DeletedAt    string `json:"deleted_at,omitempty"`
}

// SalesOrderPayload is one sales order on the wire, with its full line set
// nested. Pushes submit an order together with all of its lines in one
// request; pulls receive them the same way.
type SalesOrderPayload struct {
	ID               int64                   `json:"id,omitempty"`
	CustomerID       int64                   `json:"customer_id"`
	RepresentativeID int64                   `json:"medical_representative_id,omitempty"`
	OrderNumber      string                  `json:"sales_order_number"`
	DateSold         string                  `json:"date_sold"`
	Total            string                  `json:"total"`
	Remarks          string                  `json:"remarks,omitempty"`
	Status           string                  `json:"status,omitempty"`
	SyncDate         string                  `json:"sync_date,omitempty"`
	Items            []SalesOrderItemPayload `json:"sale_items"`
}

// SalesOrderItemPayload is one order line on the wire.
type SalesOrderItemPayload struct {
	ID               int64   `json:"id,omitempty"`
	SalesOrderID     int64   `json:"sales_order_id,omitempty"`
	ItemID           int64   `json:"item_id"`
	Quantity         string  `json:"quantity"`
	Promo            string  `json:"promo"`
	Discount         string  `json:"discount,omitempty"`
	FreeItemQuantity string  `json:"free_item_quantity,omitempty"`
	FreeItemRemarks  string  `json:"free_item_remarks,omitempty"`
	Remarks          string  `json:"remarks,omitempty"`
	Total            float64 `json:"total"`
}

// DCRPayload is one daily call record on the wire.
type DCRPayload struct {
	ID         int64  `json:"id,omitempty"`
	CustomerID int64  `json:"customer_id"`
	Name       string `json:"name,omitempty"`
	Practice   string `json:"practice,omitempty"`
	Date       string `json:"dcr_date"`
	Remarks    string `json:"remarks,omitempty"`
	Signature  string `json:"signature,omitempty"`
	SyncDate   string `json:"sync_date,omitempty"`
}

// CreatedPayload is the server acknowledgement of a pushed record: the
// assigned id plus, for orders, the per-line id mapping.
type CreatedPayload struct {
	ID     int64                   `json:"id"`
	Status string                  `json:"status,omitempty"`
	Items  []SalesOrderItemPayload `json:"sale_items,omitempty"`
}

// Envelope wraps single-object responses ({"data": {...}}); list endpoints
// return bare arrays.
type Envelope struct {
	Data CreatedPayload `json:"data"`
}
