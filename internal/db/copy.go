// Package db provides shared PostgreSQL helpers for bulk copy and upsert
// operations used by the batch persistence paths.
package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopyFrom bulk-inserts rows into a table using the COPY protocol. Batch
// saves go through here rather than row-at-a-time INSERTs.
func CopyFrom(ctx context.Context, pool Pool, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	copySource := pgx.CopyFromRows(rows)
	n, err := pool.CopyFrom(ctx, pgx.Identifier{table}, columns, copySource)
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", table)
	}

	return n, nil
}
