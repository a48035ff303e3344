// Package postgres is the gorm-backed PostgreSQL store for questions, votes and forums.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/kailas-cloud/agora/internal/db"
)

var _ db.Pinger = (*Store)(nil)

// Config holds connection and pool parameters.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// QueryTimeout bounds each repository call. Zero disables the bound.
	QueryTimeout time.Duration
	// SlowQuery is the threshold above which statements are logged at warn level.
	SlowQuery time.Duration
}

// Store wraps a gorm connection pool.
type Store struct {
	gdb          *gorm.DB
	queryTimeout time.Duration
}

// NewStore opens the pool. It does not wait for the server; use WaitForReady.
func NewStore(cfg Config, log *zap.Logger) (*Store, error) {
	if cfg.DSN == "" {
		return nil, errors.New("dsn is required")
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{DSN: cfg.DSN}), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
		Logger:                 NewGormLogger(log, cfg.SlowQuery),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen == 0 {
		maxOpen = 50
	}
	maxIdle := cfg.MaxIdleConns
	if maxIdle == 0 {
		maxIdle = 25
	}
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = time.Minute
	}
	sqlDB.SetMaxOpenConns(maxOpen)
	sqlDB.SetMaxIdleConns(maxIdle)
	sqlDB.SetConnMaxLifetime(lifetime)

	return &Store{gdb: gdb, queryTimeout: cfg.QueryTimeout}, nil
}

// NewStoreFromDB wraps an existing gorm handle. Used by tests and tools.
func NewStoreFromDB(gdb *gorm.DB, queryTimeout time.Duration) *Store {
	return &Store{gdb: gdb, queryTimeout: queryTimeout}
}

// DB returns a session bound to ctx.
func (s *Store) DB(ctx context.Context) *gorm.DB {
	return s.gdb.WithContext(ctx)
}

// WithTimeout derives a context bounded by the configured query timeout.
func (s *Store) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}

// Transaction runs fn in a single transaction. A non-nil error from fn rolls back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.gdb.WithContext(ctx).Transaction(fn)
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// WaitForReady polls Ping until the server responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	return db.WaitForReady(ctx, s, timeout)
}

// Close releases the pool.
func (s *Store) Close() error {
	sqlDB, err := s.gdb.DB()
	if err != nil {
		return fmt.Errorf("get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("close postgres: %w", err)
	}
	return nil
}
