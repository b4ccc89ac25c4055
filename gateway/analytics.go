// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// DashboardAnalytics is the representative-level dashboard summary.
type DashboardAnalytics struct {
	TotalSales      string `json:"total_sales"`
	TotalOrders     int64  `json:"total_orders"`
	TotalCustomers  int64  `json:"total_customers"`
	PendingOrders   int64  `json:"pending_orders"`
	MostSoldProduct string `json:"most_sold_product"`
}

// CustomerAnalytics is the per-customer purchasing summary.
type CustomerAnalytics struct {
	Statistics struct {
		TotalPurchase     float64 `json:"total_purchase"`
		MostPurchasedType string  `json:"most_purchased_type"`
		TotalOrders       int64   `json:"total_orders"`
		CurrentOrders     int64   `json:"current_orders"`
	} `json:"statistics"`
	ProductTypes []struct {
		ProductType string `json:"product_type"`
		Quantity    int64  `json:"quantity"`
	} `json:"productTypeData"`
	SalesTrend []struct {
		Date       string  `json:"date"`
		OrderCount int64   `json:"order_count"`
		TotalSales float64 `json:"total_sales"`
	} `json:"salesTrendData"`
}

// FetchDashboardAnalytics loads the dashboard summary. Analytics are
// display-only and never cached locally, so an unreachable server is a plain
// error here.
func (c *Client) FetchDashboardAnalytics(ctx context.Context) (*DashboardAnalytics, error) {
	out := c.Call(ctx, ModuleSalesOrder, http.MethodGet, PathDashboardAnalytics, nil)
	if !out.OK {
		return nil, out.Err
	}

	var envelope struct {
		Data DashboardAnalytics `json:"data"`
	}
	if err := json.Unmarshal(out.Payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard analytics: %w", err)
	}
	return &envelope.Data, nil
}

// FetchCustomerAnalytics loads the purchasing summary for one customer by
// its server id. The path spelling ("anayltics") is owned by the server.
func (c *Client) FetchCustomerAnalytics(ctx context.Context, customerOnlineID int64, year, period int) (*CustomerAnalytics, error) {
	path := fmt.Sprintf("/customer/anayltics/%d?year=%d&period=%d",
		customerOnlineID, year, period)

	out := c.Call(ctx, ModuleSalesOrder, http.MethodGet, path, nil)
	if !out.OK {
		return nil, out.Err
	}

	var envelope struct {
		Data CustomerAnalytics `json:"data"`
	}
	if err := json.Unmarshal(out.Payload, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode customer analytics: %w", err)
	}
	return &envelope.Data, nil
}
