// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"database/sql"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mobiletoly/go-fieldsync/gateway"
	"github.com/mobiletoly/go-fieldsync/store"
)

// fakeTransport routes requests by "METHOD /path" and counts every attempt,
// so tests can assert that zero-pending pushes never touch the network.
type fakeTransport struct {
	mu       sync.Mutex
	calls    int
	handlers map[string]func(*http.Request) (*http.Response, error)
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{handlers: make(map[string]func(*http.Request) (*http.Response, error))}
}

func (f *fakeTransport) handle(methodAndPath string, h func(*http.Request) (*http.Response, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[methodAndPath] = h
}

func (f *fakeTransport) respond(methodAndPath string, status int, body string) {
	f.handle(methodAndPath, func(*http.Request) (*http.Response, error) {
		return jsonResponse(status, body), nil
	})
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	f.mu.Lock()
	f.calls++
	h, ok := f.handlers[req.Method+" "+req.URL.Path]
	f.mu.Unlock()
	if !ok {
		return jsonResponse(404, `{"message":"not found"}`), nil
	}
	return h(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func newTestService(t *testing.T, ft *fakeTransport) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	require.NoError(t, st.SaveRepresentative(context.Background(), &store.Representative{
		LocalID:          1,
		OnlineID:         sql.NullInt64{Int64: 5, Valid: true},
		Name:             "Juana Cruz",
		APIKey:           "api-key",
		AppKey:           "Ab3dE9",
		DeviceID:         "device-1",
		ProductAppKey:    "prod-key",
		SalesOrderAppKey: "so-key",
	}))

	gw := gateway.NewClient("https://api.example.com", StoreCredentials(st))
	gw.HTTP = &http.Client{Transport: ft}
	return New(st, gw), st
}

func nullInt(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: true}
}
