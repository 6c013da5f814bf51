package main

import (
	"context"
	"database/sql"
	"time"

	dErrors "modgate/pkg/domain-errors"
	"modgate/pkg/platform/tx"
)

const defaultModerationTxTimeout = 5 * time.Second

// moderationPostgresTx runs engine mutations inside one database transaction.
// The stores join the ambient transaction through the context, so the status
// update, audit append and task enqueue commit or roll back together.
type moderationPostgresTx struct {
	db      *sql.DB
	timeout time.Duration
}

func newModerationPostgresTx(db *sql.DB) *moderationPostgresTx {
	return &moderationPostgresTx{db: db}
}

func (t *moderationPostgresTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultModerationTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	dbTx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = dbTx.Rollback()
	}()

	if err := fn(tx.WithTx(ctx, dbTx)); err != nil {
		return err
	}

	if err := dbTx.Commit(); err != nil {
		return err
	}
	return nil
}
