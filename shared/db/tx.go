package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type txKey struct{}

// Executor is the subset of *sql.DB and *sql.Tx used by repositories.
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// txScope is what a context carries for an open transaction: the tx itself
// and the work queued to run once it commits.
type txScope struct {
	tx          *sql.Tx
	afterCommit []func(ctx context.Context)
}

func scopeFrom(ctx context.Context) (*txScope, bool) {
	scope, ok := ctx.Value(txKey{}).(*txScope)
	return scope, ok
}

// WithTx returns a new context carrying tx. Hooks registered through
// AfterCommit on such a context only run when RunInTransaction owns the tx.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	return context.WithValue(ctx, txKey{}, &txScope{tx: tx})
}

// GetTx retrieves the transaction from context if it exists
func GetTx(ctx context.Context) (*sql.Tx, bool) {
	scope, ok := scopeFrom(ctx)
	if !ok {
		return nil, false
	}
	return scope.tx, true
}

// GetExecutor returns the transaction carried by ctx, or db when there is none.
func GetExecutor(ctx context.Context, db *sql.DB) Executor {
	if tx, ok := GetTx(ctx); ok {
		return tx
	}
	return db
}

// AfterCommit queues fn until the transaction in ctx commits. Queued work is
// dropped on rollback. Outside a transaction fn runs right away.
func AfterCommit(ctx context.Context, fn func(ctx context.Context)) {
	scope, ok := scopeFrom(ctx)
	if !ok {
		fn(ctx)
		return
	}
	scope.afterCommit = append(scope.afterCommit, fn)
}

// RunInTransaction executes fn within a database transaction.
// A transaction already present in ctx is reused and left for the outer
// caller to commit or roll back. After a commit the AfterCommit hooks run in
// registration order with a context that ignores cancellation of ctx.
func RunInTransaction(ctx context.Context, db *sql.DB, fn func(ctx context.Context) error) error {
	if _, ok := GetTx(ctx); ok {
		return fn(ctx)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	scope := &txScope{tx: tx}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, scope)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("failed to rollback transaction: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	hookCtx := context.WithoutCancel(ctx)
	for _, hook := range scope.afterCommit {
		hook(hookCtx)
	}
	return nil
}
