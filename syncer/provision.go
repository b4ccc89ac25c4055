// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package syncer

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/mobiletoly/go-fieldsync/store"
)

const appKeyAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// newAppKey generates the short application-instance key sent along with
// registration.
func newAppKey() string {
	key := make([]byte, 6)
	for i := range key {
		key[i] = appKeyAlphabet[rand.Intn(len(appKeyAlphabet))]
	}
	return string(key)
}

// Provision registers this device with the server using the API key obtained
// during setup (scanned from the provisioning QR code) and persists the
// returned representative profile as the singleton row. Re-provisioning after
// a key reset goes through the same path and overwrites the profile.
func (s *Service) Provision(ctx context.Context, apiKey string) (*store.Representative, error) {
	appKey := newAppKey()

	payload, err := s.gw.Register(ctx, apiKey, appKey)
	if err != nil {
		return nil, fmt.Errorf("failed to register app instance: %w", err)
	}
	if payload.ID == 0 {
		return nil, fmt.Errorf("register response carries no representative id")
	}

	repAPIKey := payload.APIKey
	if repAPIKey == "" {
		repAPIKey = apiKey
	}

	rep := &store.Representative{
		LocalID:          1,
		OnlineID:         sql.NullInt64{Int64: payload.ID, Valid: true},
		Name:             payload.Name,
		APIKey:           repAPIKey,
		AppKey:           appKey,
		DeviceID:         uuid.NewString(),
		ProductAppKey:    payload.ProductAppKey,
		SalesOrderAppKey: payload.SalesOrderAppKey,
	}
	if err := s.store.SaveRepresentative(ctx, rep); err != nil {
		return nil, err
	}

	s.logger.Info("device provisioned", "representative", payload.ID, "name", payload.Name)
	return rep, nil
}

// ResetKeys clears the representative credentials, forcing the device back
// through provisioning. Surfaced to the user when the health check reports
// the credentials as rejected.
func (s *Service) ResetKeys(ctx context.Context) error {
	return s.store.ResetRepresentativeKeys(ctx)
}
