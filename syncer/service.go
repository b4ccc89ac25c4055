// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package syncer implements the bidirectional reconciliation engine: pulling
// authoritative server state into the local store, pushing locally captured
// rows back to the server, and orchestrating both in dependency order behind
// a single coarse-grained "sync now" operation.
package syncer

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/mobiletoly/go-fieldsync/gateway"
	"github.com/mobiletoly/go-fieldsync/store"
)

// Service owns one sync pipeline over a local store and a remote gateway.
// The pipeline is a single sequenced chain of operations; concurrent Sync
// invocations are rejected by an in-memory guard.
type Service struct {
	store  *store.Store
	gw     *gateway.Client
	logger *slog.Logger

	syncing atomic.Bool
}

// New creates a sync service over the given store and gateway.
func New(st *store.Store, gw *gateway.Client) *Service {
	return &Service{store: st, gw: gw, logger: slog.Default()}
}

// SetLogger replaces the default slog logger.
func (s *Service) SetLogger(l *slog.Logger) {
	if l != nil {
		s.logger = l
	}
}

// StoreCredentials builds the gateway credentials source backed by the
// singleton representative profile. Before provisioning it returns
// store.ErrNoRepresentative, which the gateway turns into a fail-fast
// unreachable outcome without attempting the network.
func StoreCredentials(st *store.Store) gateway.CredentialsFunc {
	return func(ctx context.Context, module gateway.Module) (gateway.Credentials, error) {
		rep, err := st.Representative(ctx)
		if err != nil {
			return gateway.Credentials{}, err
		}
		appKey := rep.SalesOrderAppKey
		if module == gateway.ModuleCatalog {
			appKey = rep.ProductAppKey
		}
		return gateway.Credentials{APIKey: rep.APIKey, AppKey: appKey}, nil
	}
}
