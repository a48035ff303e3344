package postgres

import (
	"context"
	_ "embed"

	"github.com/kailas-cloud/agora/internal/db"
)

//go:embed schema.sql
var schema string

// Migrate applies the schema, including the counter and reputation triggers.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.gdb.WithContext(ctx).Exec(schema).Error; err != nil {
		return Translate(db.OpMigrate, err)
	}
	return nil
}
