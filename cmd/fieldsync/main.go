// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

// Command fieldsync is the operational shell around the sync engine:
// provision the device, run a sync, inspect pending state, reset keys.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/mobiletoly/go-fieldsync/gateway"
	"github.com/mobiletoly/go-fieldsync/internal/config"
	"github.com/mobiletoly/go-fieldsync/store"
	"github.com/mobiletoly/go-fieldsync/syncer"
)

var cfgFile string

func main() {
	root := &cobra.Command{
		Use:           "fieldsync",
		Short:         "Offline-first field sales data synchronization",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default fieldsync.yaml)")

	root.AddCommand(provisionCmd(), syncCmd(), statusCmd(), resetKeyCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setup wires the store, gateway and sync service from configuration.
func setup() (*syncer.Service, *store.Store, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, err
	}

	var logOut io.Writer = os.Stderr
	if cfg.LogFile != "" {
		logOut = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
		}
	}
	logger := slog.New(slog.NewTextHandler(logOut, nil))
	slog.SetDefault(logger)

	st, err := store.Default(cfg.DBPath)
	if err != nil {
		return nil, nil, err
	}

	gw := gateway.NewClient(cfg.APIBaseURL, syncer.StoreCredentials(st))
	if cfg.RequestTimeout > 0 {
		gw.HTTP.Timeout = cfg.RequestTimeout
	}

	return syncer.New(st, gw), st, nil
}

func provisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision <api-key>",
		Short: "Register this device with the server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := setup()
			if err != nil {
				return err
			}
			rep, err := svc.Provision(context.Background(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Provisioned as %s (representative %d)\n", rep.Name, rep.OnlineID.Int64)
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Pull server data and push pending local records",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := setup()
			if err != nil {
				return err
			}

			report, err := svc.Sync(context.Background(), func(p syncer.Progress) {
				fmt.Printf("[%3.0f%%] %s\n", p.Fraction*100, p.Step)
			})
			if err != nil {
				return err
			}

			for _, step := range report.Steps {
				if step.Err != nil {
					fmt.Printf("  %-24s failed: %v\n", step.Step, step.Err)
				} else {
					fmt.Printf("  %-24s %d record(s)\n", step.Step, step.Synced)
				}
			}
			if report.Failed() {
				fmt.Println("Sync finished with errors; unsynced records stay queued for retry.")
			}
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show pending (unsynced) local records",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, st, err := setup()
			if err != nil {
				return err
			}
			ctx := context.Background()

			customers, err := st.UnsyncedCustomers(ctx)
			if err != nil {
				return err
			}
			orders, err := st.UnsyncedSalesOrders(ctx)
			if err != nil {
				return err
			}
			dcrs, err := st.UnsyncedDCRs(ctx)
			if err != nil {
				return err
			}

			fmt.Printf("Pending customers:    %d\n", len(customers))
			fmt.Printf("Pending sales orders: %d\n", len(orders))
			fmt.Printf("Pending call records: %d\n", len(dcrs))
			return nil
		},
	}
}

func resetKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset-key",
		Short: "Clear representative credentials, forcing re-provisioning",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, _, err := setup()
			if err != nil {
				return err
			}
			if err := svc.ResetKeys(context.Background()); err != nil {
				return err
			}
			fmt.Println("Application keys cleared. Run 'fieldsync provision' to register again.")
			return nil
		},
	}
}
