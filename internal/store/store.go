// Package store is the single source of truth for Scripts, Folders,
// Triggers, ExecutionRecords, Users, and Settings (spec §4.1). It
// generalizes the teacher's per-entity DAO-interface layer
// (peace/internal/server/dao) into one Store backed by gorm + SQLite:
// one writer at a time, concurrent readers, WAL journaling, foreign
// keys on, and a bounded busy-wait that surfaces a Busy error past its
// deadline.
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/matt-ortiz/PyScheduler/internal/model"
)

// Store wraps the gorm handle. A single *gorm.DB is shared by every
// method; SQLite's own locking plus WAL mode gives us the
// single-writer/concurrent-reader discipline the spec calls for.
type Store struct {
	db *gorm.DB
}

// Open connects to the SQLite file at dbPath, enabling WAL journaling
// and foreign-key enforcement, and migrates the schema.
func Open(dbPath string) (*Store, error) {
	if err := ensureParentDir(dbPath); err != nil {
		return nil, err
	}

	dsn := fmt.Sprintf("%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=1", dbPath)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	if err := db.AutoMigrate(
		&model.Folder{},
		&model.Script{},
		&model.Trigger{},
		&model.ExecutionRecord{},
		&model.User{},
		&model.Settings{},
	); err != nil {
		return nil, fmt.Errorf("migrate store: %w", err)
	}

	return &Store{db: db}, nil
}

func ensureParentDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

// isBusyErr reports whether err is SQLite's "database is locked"/"busy"
// condition, surfaced to callers as a retryable Busy error per §4.1.
func isBusyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "SQLITE_BUSY")
}

// WithRetry runs fn, retrying on a Busy condition with bounded
// exponential backoff (cap ~5s), per §4.1 and §7.
func WithRetry(ctx context.Context, fn func() error) error {
	backoff := 25 * time.Millisecond
	const maxBackoff = 5 * time.Second
	deadline := time.Now().Add(maxBackoff * 3)

	for {
		err := fn()
		if err == nil {
			return nil
		}
		if !isBusyErr(err) {
			return err
		}
		if time.Now().After(deadline) {
			return errors.New("store busy: retry deadline exceeded")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// DB exposes the underlying handle for components (like the retention
// task) that need raw transactional access.
func (s *Store) DB() *gorm.DB { return s.db }
