// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobiletoly/go-fieldsync/gateway"
	"github.com/mobiletoly/go-fieldsync/store"
)

func TestPushCustomersNothingPendingSkipsNetwork(t *testing.T) {
	ft := newFakeTransport()
	svc, _ := newTestService(t, ft)

	n, err := svc.PushCustomers(context.Background())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, ft.count(), "no pending rows means no requests")
}

func TestPushCustomersStampsServerID(t *testing.T) {
	ft := newFakeTransport()
	var body []byte
	ft.handle("POST /customer", func(req *http.Request) (*http.Response, error) {
		body, _ = io.ReadAll(req.Body)
		return jsonResponse(200, `{"data":{"id":77}}`), nil
	})
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	localID, err := st.InsertCustomer(ctx, &store.Customer{Name: "New Clinic", Region: "NCR"})
	require.NoError(t, err)

	n, err := svc.PushCustomers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var wire gateway.CustomerPayload
	require.NoError(t, json.Unmarshal(body, &wire))
	require.Equal(t, "New Clinic", wire.Name)
	require.Zero(t, wire.ID, "local ids never leak onto the wire")

	got, err := st.CustomerByLocalID(ctx, localID)
	require.NoError(t, err)
	require.Equal(t, int64(77), got.OnlineID.Int64)
	require.True(t, got.Synced())

	pending, err := st.UnsyncedCustomers(ctx)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestPushCustomersRetriesAfterFailure(t *testing.T) {
	ft := newFakeTransport()
	ft.respond("POST /customer", 500, `{"message":"boom"}`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	localID, err := st.InsertCustomer(ctx, &store.Customer{Name: "New Clinic"})
	require.NoError(t, err)

	n, err := svc.PushCustomers(ctx)
	require.NoError(t, err, "a failed record is contained, not raised")
	require.Zero(t, n)

	got, err := st.CustomerByLocalID(ctx, localID)
	require.NoError(t, err)
	require.False(t, got.Synced(), "a failed push must leave the row unsynced")

	// Next cycle re-selects the same row and succeeds.
	ft.respond("POST /customer", 200, `{"data":{"id":77}}`)
	n, err = svc.PushCustomers(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	all, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "retries must not duplicate the record")
}

func TestPushCustomersUnusableResponseLeavesRowPending(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"missing record id", `{"data":{}}`},
		{"undecodable body", `<html>gateway timeout</html>`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ft := newFakeTransport()
			ft.respond("POST /customer", 200, tc.body)
			svc, st := newTestService(t, ft)
			ctx := context.Background()

			_, err := st.InsertCustomer(ctx, &store.Customer{Name: "New Clinic"})
			require.NoError(t, err)

			n, err := svc.PushCustomers(ctx)
			require.NoError(t, err)
			require.Zero(t, n)

			pending, err := st.UnsyncedCustomers(ctx)
			require.NoError(t, err)
			require.Len(t, pending, 1)
		})
	}
}

func seedOrderFixtures(t *testing.T, st *store.Store) (custID, itemID int64) {
	t.Helper()
	ctx := context.Background()
	custID, err := st.UpsertCustomerByOnlineID(ctx, &store.Customer{
		OnlineID: nullInt(42), Name: "Dra. Rosa Roso", SyncDate: store.Today(),
	})
	require.NoError(t, err)
	itemID, err = st.UpsertItemByOnlineID(ctx, &store.Item{
		OnlineID: nullInt(7), BrandName: "Plainol", ProductType: "otc",
		CatalogPrice: "12.50", SyncDate: store.Today(),
	})
	require.NoError(t, err)
	return custID, itemID
}

func TestPushSalesOrdersRoundTrip(t *testing.T) {
	ft := newFakeTransport()
	var body []byte
	ft.handle("POST /sales-order", func(req *http.Request) (*http.Response, error) {
		body, _ = io.ReadAll(req.Body)
		return jsonResponse(200, `{"data":{"id":900,"status":"processed",
			"sale_items":[{"id":9001,"item_id":7},{"id":9002,"item_id":7}]}}`), nil
	})
	ft.respond("GET /sales-orders", 200, `[
		{"id":900,"customer_id":42,"sales_order_number":"SO-0001","date_sold":"2025-11-23",
		 "total":"62.50","status":"processed",
		 "sale_items":[
			{"id":9001,"sales_order_id":900,"item_id":7,"quantity":"4","promo":"regular","total":50},
			{"id":9002,"sales_order_id":900,"item_id":7,"quantity":"1","promo":"regular","total":12.5}
		 ]}
	]`)
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	custID, itemID := seedOrderFixtures(t, st)
	orderID, err := st.CreateSalesOrder(ctx, &store.SalesOrder{
		CustomerID: custID, CustomerOnlineID: nullInt(42),
		OrderNumber: "SO-0001", DateSold: "2025-11-23",
	}, []store.SalesOrderItem{
		{ItemID: itemID, ItemOnlineID: nullInt(7), Quantity: "4", Promo: store.PromoRegular, Total: 50},
		{ItemID: itemID, ItemOnlineID: nullInt(7), Quantity: "1", Promo: store.PromoRegular, Total: 12.5},
	})
	require.NoError(t, err)

	n, err := svc.PushSalesOrders(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var wire gateway.SalesOrderPayload
	require.NoError(t, json.Unmarshal(body, &wire))
	require.Equal(t, int64(42), wire.CustomerID, "wire payload carries the server's customer id")
	require.Len(t, wire.Items, 2)
	require.Equal(t, int64(7), wire.Items[0].ItemID)

	got, err := st.SalesOrderByLocalID(ctx, orderID)
	require.NoError(t, err)
	require.Equal(t, int64(900), got.OnlineID.Int64)
	require.Equal(t, "processed", got.Status)
	require.True(t, got.Synced())

	grouped, err := st.ItemsForOrders(ctx, []int64{orderID})
	require.NoError(t, err)
	require.Equal(t, int64(9001), grouped[orderID][0].OnlineID.Int64)
	require.Equal(t, int64(900), grouped[orderID][0].OrderOnlineID.Int64)

	// A subsequent pull of the same order reconciles onto the existing row
	// instead of duplicating it.
	_, err = svc.PullSalesOrders(ctx)
	require.NoError(t, err)

	var count int
	require.NoError(t, st.DB().QueryRow(`SELECT COUNT(*) FROM sales_orders`).Scan(&count))
	require.Equal(t, 1, count)
	require.NoError(t, st.DB().QueryRow(`SELECT COUNT(*) FROM sales_order_items`).Scan(&count))
	require.Equal(t, 2, count)
}

func TestPushSalesOrdersWaitsForCustomer(t *testing.T) {
	ft := newFakeTransport()
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	_, itemID := seedOrderFixtures(t, st)
	custID, err := st.InsertCustomer(ctx, &store.Customer{Name: "Unsynced Clinic"})
	require.NoError(t, err)

	_, err = st.CreateSalesOrder(ctx, &store.SalesOrder{
		CustomerID: custID, OrderNumber: "SO-0002", DateSold: "2025-11-23",
	}, []store.SalesOrderItem{
		{ItemID: itemID, ItemOnlineID: nullInt(7), Quantity: "1", Promo: store.PromoRegular, Total: 12.5},
	})
	require.NoError(t, err)

	n, err := svc.PushSalesOrders(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, ft.count(), "an order without a customer mapping must not be submitted")

	pending, err := st.UnsyncedSalesOrders(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}

func TestPushSalesOrdersWaitsForItemMapping(t *testing.T) {
	ft := newFakeTransport()
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	custID, _ := seedOrderFixtures(t, st)
	localItemID, err := st.UpsertItemByOnlineID(ctx, &store.Item{
		OnlineID: nullInt(8), BrandName: "Newdrug", ProductType: "otc", CatalogPrice: "5.00",
	})
	require.NoError(t, err)

	_, err = st.CreateSalesOrder(ctx, &store.SalesOrder{
		CustomerID: custID, CustomerOnlineID: nullInt(42),
		OrderNumber: "SO-0003", DateSold: "2025-11-23",
	}, []store.SalesOrderItem{
		{ItemID: localItemID, Quantity: "1", Promo: store.PromoRegular, Total: 5},
	})
	require.NoError(t, err)

	n, err := svc.PushSalesOrders(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Zero(t, ft.count())
}

func TestPushDCRsStampsAndRequiresCustomerMapping(t *testing.T) {
	ft := newFakeTransport()
	var body []byte
	ft.handle("POST /dcr", func(req *http.Request) (*http.Response, error) {
		body, _ = io.ReadAll(req.Body)
		return jsonResponse(200, `{"data":{"id":500}}`), nil
	})
	svc, st := newTestService(t, ft)
	ctx := context.Background()

	custID, _ := seedOrderFixtures(t, st)
	unsyncedCustID, err := st.InsertCustomer(ctx, &store.Customer{Name: "Unsynced Clinic"})
	require.NoError(t, err)

	readyID, err := st.InsertDCR(ctx, &store.DailyCallRecord{
		CustomerID: custID, Date: "2025-11-23", Remarks: "visited", Signature: "sig",
	})
	require.NoError(t, err)
	_, err = st.InsertDCR(ctx, &store.DailyCallRecord{
		CustomerID: unsyncedCustID, Date: "2025-11-23", Remarks: "waits",
	})
	require.NoError(t, err)

	n, err := svc.PushDCRs(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	var wire gateway.DCRPayload
	require.NoError(t, json.Unmarshal(body, &wire))
	require.Equal(t, int64(42), wire.CustomerID)

	pending, err := st.UnsyncedDCRs(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.NotEqual(t, readyID, pending[0].LocalID)
}
