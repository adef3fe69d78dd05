package db

import (
	"context"
	"database/sql"
)

type Database interface {
	Connect() error
	Close() error
	DB() *sql.DB
}

// Transactor runs fn inside a transaction carried by the context passed to fn.
type Transactor interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SQLTransactor binds RunInTransaction to a connection pool.
type SQLTransactor struct {
	db *sql.DB
}

func NewSQLTransactor(db *sql.DB) *SQLTransactor {
	return &SQLTransactor{db: db}
}

func (t *SQLTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return RunInTransaction(ctx, t.db, fn)
}

var _ Transactor = (*SQLTransactor)(nil)
