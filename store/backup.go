// Copyright 2025 Toly Pochkin
// SPDX-License-Identifier: Apache-2.0

package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Backup copies the database file to dst, checkpointing the WAL first so the
// copy is self-contained.
func (s *Store) Backup(ctx context.Context, dst string) error {
	if s.path == "" || s.path == ":memory:" {
		return fmt.Errorf("failed to backup: store is not file-backed")
	}
	if _, err := s.db.ExecContext(ctx, `PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		return fmt.Errorf("failed to checkpoint wal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create backup directory: %w", err)
	}
	if err := copyFile(s.path, dst); err != nil {
		return fmt.Errorf("failed to copy database: %w", err)
	}
	return nil
}

// RestoreBackup replaces the database file at path with the backup at src.
// The store must not be open on that path while restoring.
func RestoreBackup(src, path string) error {
	if _, err := os.Stat(src); err != nil {
		return fmt.Errorf("no backup found: %w", err)
	}
	if err := copyFile(src, path); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Sync()
}
