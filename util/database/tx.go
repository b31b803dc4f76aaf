package database

import (
	"context"
	"database/sql"
)

// TxRunner scopes a unit of work to exactly one database transaction.
// Services run every write path through it so that validation, inventory
// mutation and row writes commit or roll back together.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

type SQLRunner struct{ DB *sql.DB }

func NewRunner(db *sql.DB) SQLRunner { return SQLRunner{DB: db} }

func (r SQLRunner) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
