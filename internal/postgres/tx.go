package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/waveroom/admission-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Бюджет повторов на write-write конфликт. Дальше — domain.ErrTxAborted.
const txRetryBudget = 3

// serialization_failure / deadlock_detected — безопасно повторить целиком.
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01":
			return true
		}
	}
	return false
}

func withTxRetry(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	var last error
	for attempt := 0; attempt < txRetryBudget; attempt++ {
		err := runTx(ctx, pool, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return err
		}
		last = err
	}
	return fmt.Errorf("%w: %v", domain.ErrTxAborted, last)
}

func runTx(ctx context.Context, pool *pgxpool.Pool, fn func(pgx.Tx) error) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
