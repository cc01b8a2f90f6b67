package repository

import (
	"context"
	"database/sql"
	"fmt"

	"course-notify-bot/internal/database"
)

// withTx выполняет fn в транзакции: коммит при nil, откат при ошибке или панике.
func withTx(ctx context.Context, db *sql.DB, queries *database.Queries, fn func(q *database.Queries) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if err = tx.Commit(); err != nil {
			err = fmt.Errorf("failed to commit transaction: %w", err)
		}
	}()

	return fn(queries.WithTx(tx))
}
