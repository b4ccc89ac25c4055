// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFetchDashboardAnalytics(t *testing.T) {
	c := newTestClient(staticCreds("k", "a"), func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "/dashboard-analytics", req.URL.Path)
		return jsonResponse(200, `{"data":{"total_sales":"1250.00","total_orders":12,"total_customers":5,"pending_orders":2,"most_sold_product":"Plainol"}}`), nil
	})

	d, err := c.FetchDashboardAnalytics(context.Background())
	require.NoError(t, err)
	require.Equal(t, "1250.00", d.TotalSales)
	require.Equal(t, int64(12), d.TotalOrders)
}

func TestFetchCustomerAnalyticsPath(t *testing.T) {
	var got string
	c := newTestClient(staticCreds("k", "a"), func(req *http.Request) (*http.Response, error) {
		got = req.URL.RequestURI()
		return jsonResponse(200, `{"data":{"statistics":{"total_purchase":99.5,"total_orders":3}}}`), nil
	})

	a, err := c.FetchCustomerAnalytics(context.Background(), 42, 2025, 1)
	require.NoError(t, err)
	// The misspelling is part of the server's route table.
	require.Equal(t, "/customer/anayltics/42?year=2025&period=1", got)
	require.Equal(t, 99.5, a.Statistics.TotalPurchase)
}

func TestFetchDashboardAnalyticsUnreachable(t *testing.T) {
	c := newTestClient(staticCreds("k", "a"), func(req *http.Request) (*http.Response, error) {
		return jsonResponse(500, ``), nil
	})
	_, err := c.FetchDashboardAnalytics(context.Background())
	require.ErrorIs(t, err, ErrUnreachable)
}
