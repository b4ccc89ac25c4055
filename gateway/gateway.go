// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Package gateway is the thin authenticated HTTP wrapper around the remote
// field-sales API. Every call attaches the representative's API key and the
// per-module application key, and every transport failure is normalized into
// a uniform Outcome so callers can always fall back to local data.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// API paths, externally owned. This client matches their existing contract.
const (
	PathRegister           = "/register-so-app"
	PathCustomers          = "/customers"
	PathCustomerCreate     = "/customer"
	PathItems              = "/items"
	PathSalesOrders        = "/sales-orders"
	PathSalesOrderCreate   = "/sales-order"
	PathDashboardAnalytics = "/dashboard-analytics"
	PathDCRCreate          = "/dcr"
	PathDCRData            = "/dcr-data"
	PathPing               = "/ping"
)

// Module selects which per-module application key authorizes a call.
type Module int

const (
	// ModuleSalesOrder authorizes customer, order, DCR and analytics calls.
	ModuleSalesOrder Module = iota
	// ModuleCatalog authorizes product catalog calls.
	ModuleCatalog
)

// Credentials are the header values attached to an authenticated call.
type Credentials struct {
	APIKey string
	AppKey string
}

// CredentialsFunc supplies credentials for a module. Implementations return
// store.ErrNoRepresentative (or any error) before provisioning; the gateway
// then fails fast without touching the network.
type CredentialsFunc func(ctx context.Context, module Module) (Credentials, error)

var (
	// ErrUnreachable covers network failures, timeouts and non-2xx responses.
	ErrUnreachable = errors.New("gateway: server unreachable")

	// ErrRejected is returned by Ping when the server is reachable but the
	// credentials were refused. Only the explicit health check distinguishes
	// rejection from unreachability.
	ErrRejected = errors.New("gateway: credentials rejected")
)

// pingTimeout bounds the health check; an in-flight ping past this is
// aborted and classified unreachable.
const pingTimeout = 5 * time.Second

// Outcome is the uniform result of a Call. Exactly one of OK-with-payload or
// unreachable; the gateway never lets a transport error escape as a panic or
// a bare error.
type Outcome struct {
	OK      bool
	Payload json.RawMessage
	Status  int
	Err     error
}

// Client is the authenticated HTTP client for the remote API.
type Client struct {
	BaseURL string
	Creds   CredentialsFunc
	HTTP    *http.Client
	logger  *slog.Logger
}

// NewClient creates a gateway client. The default request timeout is generous
// because pulls fetch full collections; the health check applies its own 5s
// bound.
func NewClient(baseURL string, creds CredentialsFunc) *Client {
	return &Client{
		BaseURL: baseURL,
		Creds:   creds,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.Default(),
	}
}

// SetLogger replaces the default slog logger.
func (c *Client) SetLogger(l *slog.Logger) {
	if l != nil {
		c.logger = l
	}
}

func unreachable(status int, err error) Outcome {
	return Outcome{Status: status, Err: fmt.Errorf("%w: %v", ErrUnreachable, err)}
}

// Call performs one authenticated request and normalizes the result. A nil
// body sends no request body. Callers decide what to do with the payload;
// they always have a local fallback, so failures are reported, not raised.
func (c *Client) Call(ctx context.Context, module Module, method, path string, body any) Outcome {
	creds, err := c.Creds(ctx, module)
	if err != nil {
		// No representative yet: fail fast without attempting the network.
		return Outcome{Err: fmt.Errorf("%w: %v", ErrUnreachable, err)}
	}

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return Outcome{Err: fmt.Errorf("%w: failed to marshal request: %v", ErrUnreachable, err)}
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return Outcome{Err: fmt.Errorf("%w: failed to create request: %v", ErrUnreachable, err)}
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", creds.APIKey)
	httpReq.Header.Set("X-API-APP-KEY", creds.AppKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return unreachable(0, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return unreachable(resp.StatusCode, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return unreachable(resp.StatusCode,
			fmt.Errorf("server returned status %d: %s", resp.StatusCode, string(payload)))
	}

	return Outcome{OK: true, Payload: payload, Status: resp.StatusCode}
}

// Ping performs the bounded authenticated health check. It is the only call
// that distinguishes "reachable but rejected" from "unreachable": a 401/403
// maps to ErrRejected, everything else that fails maps to ErrUnreachable.
func (c *Client) Ping(ctx context.Context) error {
	creds, err := c.Creds(ctx, ModuleSalesOrder)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodHead, c.BaseURL+PathPing, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrUnreachable, err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("X-API-KEY", creds.APIKey)
	httpReq.Header.Set("X-API-APP-KEY", creds.AppKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: status %d", ErrRejected, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d", ErrUnreachable, resp.StatusCode)
	}
}

// Register creates the app instance on the server during device provisioning.
// It runs before a representative exists, so it authenticates with the
// scanned API key alone rather than going through the CredentialsFunc.
func (c *Client) Register(ctx context.Context, apiKey, appKey string) (*RepresentativePayload, error) {
	jsonData, err := json.Marshal(registerRequest{AppKey: appKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal register request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.BaseURL+PathRegister, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create register request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-API-KEY", apiKey)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("%w: register returned status %d: %s",
			ErrUnreachable, resp.StatusCode, string(body))
	}

	var envelope struct {
		Data RepresentativePayload `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("failed to decode register response: %w", err)
	}
	return &envelope.Data, nil
}
