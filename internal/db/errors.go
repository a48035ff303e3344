package db

import "errors"

// Sentinel errors for storage operations.
var (
	ErrKeyNotFound    = errors.New("db: key not found")
	ErrRecordNotFound = errors.New("db: record not found")
	ErrDuplicateKey   = errors.New("db: duplicate key")
	ErrForeignKey     = errors.New("db: foreign key violation")
	ErrInvalidInput   = errors.New("db: invalid input syntax")
	ErrCanceled       = errors.New("db: statement canceled")
)

// Op names for error context.
const (
	OpGet     = "GET"
	OpSet     = "SET"
	OpPing    = "PING"
	OpSelect  = "SELECT"
	OpInsert  = "INSERT"
	OpUpdate  = "UPDATE"
	OpDelete  = "DELETE"
	OpTx      = "TX"
	OpMigrate = "MIGRATE"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
