// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"testing"

	"github.com/mobiletoly/go-fieldsync/gateway"
	"github.com/mobiletoly/go-fieldsync/store"
)

func TestPulledSyncDate(t *testing.T) {
	if got := pulledSyncDate(""); got != store.Today() {
		t.Fatalf("empty server date should default to today, got %q", got)
	}
	if got := pulledSyncDate("Nov. 23, 2025"); got != "2025-11-23" {
		t.Fatalf("legacy date not normalized, got %q", got)
	}
	if got := pulledSyncDate("whenever"); got != "whenever" {
		t.Fatalf("unparseable stamp must be kept verbatim, got %q", got)
	}
}

func TestOrderLineFromPayloadParentFallback(t *testing.T) {
	line := orderLineFromPayload(&gateway.SalesOrderItemPayload{ID: 9001, ItemID: 7}, 300)
	if line.OrderOnlineID.Int64 != 300 {
		t.Fatalf("nested line should inherit the enclosing order id, got %d", line.OrderOnlineID.Int64)
	}
	if line.Promo != store.PromoRegular {
		t.Fatalf("missing promo should default to regular, got %q", line.Promo)
	}

	line = orderLineFromPayload(&gateway.SalesOrderItemPayload{ID: 9001, SalesOrderID: 555, ItemID: 7}, 300)
	if line.OrderOnlineID.Int64 != 555 {
		t.Fatalf("line's own parent id must win, got %d", line.OrderOnlineID.Int64)
	}
}
