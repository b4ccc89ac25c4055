// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobiletoly/go-fieldsync/gateway"
)

func TestPullCustomersIsIdempotent(t *testing.T) {
	ft := newFakeTransport()
	ft.respond("GET /customers", 200, `[
		{"id":42,"name":"Dra. Rosa Roso","region":"NCR","class":"A"},
		{"id":43,"name":"Farmacia Central","region":"NCR","class":"B"}
	]`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	n, err := svc.PullCustomers(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	// Pulling the same collection again must not duplicate rows.
	n, err = svc.PullCustomers(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	all, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestPullCustomersAppliesRenameInPlace(t *testing.T) {
	ft := newFakeTransport()
	ft.respond("GET /customers", 200, `[{"id":42,"name":"Dra. Rosa Roso"}]`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	_, err := svc.PullCustomers(ctx)
	require.NoError(t, err)
	before, err := st.CustomerByOnlineID(ctx, 42)
	require.NoError(t, err)

	ft.respond("GET /customers", 200, `[{"id":42,"name":"Dra. Rosa R. Roso"}]`)
	_, err = svc.PullCustomers(ctx)
	require.NoError(t, err)

	after, err := st.CustomerByOnlineID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, before.LocalID, after.LocalID)
	require.Equal(t, "Dra. Rosa R. Roso", after.Name)

	all, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestPullCustomersSkipsMalformedRecords(t *testing.T) {
	ft := newFakeTransport()
	ft.respond("GET /customers", 200, `[
		{"id":0,"name":"ghost"},
		{"id":44,"name":""},
		{"id":42,"name":"Dra. Rosa Roso"}
	]`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	n, err := svc.PullCustomers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	all, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestPullSoftDeletedRecordsStayHiddenOnFreshInstall(t *testing.T) {
	ft := newFakeTransport()
	ft.respond("GET /customers", 200, `[
		{"id":42,"name":"Dra. Rosa Roso","deleted_at":"2025-11-01"},
		{"id":43,"name":"Farmacia Central"}
	]`)
	ft.respond("GET /items", 200, `[
		{"id":7,"brand_name":"Plainol","catalog_price":"12.50","product_type":"otc","deleted_at":"2025-11-01"},
		{"id":8,"brand_name":"Freshol","catalog_price":"8.00","product_type":"otc"}
	]`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	// The very first pull lands on the insert path; the server's tombstone
	// must survive it, not only the later update path.
	_, err := svc.PullCustomers(ctx)
	require.NoError(t, err)
	_, err = svc.PullItems(ctx)
	require.NoError(t, err)

	customers, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	require.Equal(t, "Farmacia Central", customers[0].Name)

	items, err := st.ListItems(ctx, true)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Freshol", items[0].BrandName)

	// The tombstoned row still exists for identity mapping.
	gone, err := st.CustomerByOnlineID(ctx, 42)
	require.NoError(t, err)
	require.Equal(t, "2025-11-01", gone.DeletedAt)
}

func TestPullCustomersUnreachableLeavesStoreUntouched(t *testing.T) {
	ft := newFakeTransport()
	ft.respond("GET /customers", 503, `{"message":"maintenance"}`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	n, err := svc.PullCustomers(ctx)
	require.ErrorIs(t, err, gateway.ErrUnreachable)
	require.Zero(t, n)

	all, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	require.Empty(t, all)
}

func TestPullItemsUsesCatalogKey(t *testing.T) {
	ft := newFakeTransport()
	var appKey string
	ft.handle("GET /items", func(req *http.Request) (*http.Response, error) {
		appKey = req.Header.Get("X-API-APP-KEY")
		return jsonResponse(200, `[
			{"id":7,"brand_name":"Plainol","catalog_price":"12.50","product_type":"otc"},
			{"id":8,"brand_name":"Strictol","catalog_price":"50.00","product_type":"regulated"}
		]`), nil
	})
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	n, err := svc.PullItems(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, n)
	require.Equal(t, "prod-key", appKey)

	visible, err := st.ListItems(ctx, false)
	require.NoError(t, err)
	require.Len(t, visible, 1)
}

func TestPullDCRDataSkipsUnresolvableCustomer(t *testing.T) {
	ft := newFakeTransport()
	ft.respond("GET /customers", 200, `[{"id":42,"name":"Dra. Rosa Roso"}]`)
	ft.respond("GET /dcr-data", 200, `[
		{"id":100,"customer_id":42,"dcr_date":"2025-11-23","remarks":"visited"},
		{"id":101,"customer_id":999,"dcr_date":"2025-11-23","remarks":"orphan"}
	]`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	_, err := svc.PullCustomers(ctx)
	require.NoError(t, err)

	n, err := svc.PullDCRData(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	records, err := st.ListDCRs(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, int64(100), records[0].OnlineID.Int64)
}

func TestPullSalesOrdersSkipsOrphans(t *testing.T) {
	ft := newFakeTransport()
	ft.respond("GET /customers", 200, `[{"id":42,"name":"Dra. Rosa Roso"}]`)
	ft.respond("GET /items", 200, `[{"id":7,"brand_name":"Plainol","catalog_price":"12.50","product_type":"otc"}]`)
	ft.respond("GET /sales-orders", 200, `[
		{"id":300,"customer_id":42,"sales_order_number":"SO-0001","date_sold":"2025-11-23","total":"25.00",
		 "sale_items":[
			{"id":9001,"sales_order_id":300,"item_id":7,"quantity":"2","promo":"regular","total":25},
			{"id":9002,"sales_order_id":300,"item_id":999,"quantity":"1","promo":"regular","total":12.5}
		 ]},
		{"id":301,"customer_id":999,"sales_order_number":"SO-0002","date_sold":"2025-11-23","total":"10.00","sale_items":[]}
	]`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	_, err := svc.PullCustomers(ctx)
	require.NoError(t, err)
	_, err = svc.PullItems(ctx)
	require.NoError(t, err)

	n, err := svc.PullSalesOrders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n, "the order for the unknown customer is skipped whole")

	order, err := st.SalesOrderByOnlineID(ctx, 300)
	require.NoError(t, err)

	grouped, err := st.ItemsForOrders(ctx, []int64{order.LocalID})
	require.NoError(t, err)
	require.Len(t, grouped[order.LocalID], 1, "the line for the unknown item is skipped")
	require.Equal(t, int64(9001), grouped[order.LocalID][0].OnlineID.Int64)

	// The skipped order left no trace.
	_, err = st.SalesOrderByOnlineID(ctx, 301)
	require.Error(t, err)
}

func TestPullSalesOrdersIsIdempotent(t *testing.T) {
	ft := newFakeTransport()
	ft.respond("GET /customers", 200, `[{"id":42,"name":"Dra. Rosa Roso"}]`)
	ft.respond("GET /items", 200, `[{"id":7,"brand_name":"Plainol","catalog_price":"12.50","product_type":"otc"}]`)
	ft.respond("GET /sales-orders", 200, `[
		{"id":300,"customer_id":42,"sales_order_number":"SO-0001","date_sold":"2025-11-23","total":"25.00",
		 "sale_items":[{"id":9001,"sales_order_id":300,"item_id":7,"quantity":"2","promo":"regular","total":25}]}
	]`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	_, err := svc.PullCustomers(ctx)
	require.NoError(t, err)
	_, err = svc.PullItems(ctx)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		_, err = svc.PullSalesOrders(ctx)
		require.NoError(t, err)
	}

	order, err := st.SalesOrderByOnlineID(ctx, 300)
	require.NoError(t, err)
	grouped, err := st.ItemsForOrders(ctx, []int64{order.LocalID})
	require.NoError(t, err)
	require.Len(t, grouped[order.LocalID], 1)
}
