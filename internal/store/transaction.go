package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/vocab-trainer/internal/platform/logger"
	"github.com/phrazzld/vocab-trainer/internal/redact"
)

// TxFn runs inside a transaction. Returning an error rolls it back.
type TxFn func(ctx context.Context, tx *sqlx.Tx) error

// RunInTransaction runs fn in a transaction on db and commits when fn
// succeeds. An error from fn is returned unchanged after the rollback. A panic
// in fn rolls back and is re-raised.
func RunInTransaction(ctx context.Context, db *sqlx.DB, fn TxFn) (err error) {
	log := logger.FromContextOrDefault(ctx, nil)

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		log.ErrorContext(ctx, "failed to begin transaction", redact.ErrAttr(err))
		return NewOpError(OpBegin, "", "", err)
	}

	done := false
	defer func() {
		if done {
			return
		}
		p := recover()
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			log.ErrorContext(ctx, "failed to roll back transaction",
				redact.ErrAttr(rbErr),
				slog.Bool("panicked", p != nil))
			if p == nil {
				err = errors.Join(err, NewOpError(OpRollback, "", "", rbErr))
			}
		}
		if p != nil {
			log.ErrorContext(ctx, "rolled back transaction after panic", slog.Any("panic", p))
			panic(p)
		}
	}()

	if err = fn(ctx, tx); err != nil {
		log.DebugContext(ctx, "rolling back transaction", redact.ErrAttr(err))
		return err
	}
	if err = tx.Commit(); err != nil {
		log.ErrorContext(ctx, "failed to commit transaction", redact.ErrAttr(err))
		return NewOpError(OpCommit, "", "", err)
	}
	done = true
	return nil
}
