package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/eventparse/internal/db"
	"github.com/sells-group/eventparse/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the most frequently used store operations.
var preparedStatements = map[string]string{
	"insert_record": `INSERT INTO parse_records (id, source, input, result, confidence, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
	"get_record":    `SELECT id, source, input, result, confidence, created_at FROM parse_records WHERE id = $1`,
	"list_venues":   `SELECT name, city, capacity, type FROM known_venues ORDER BY name`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	// Apply pool sizing from config with sensible defaults.
	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS parse_records (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	source     TEXT NOT NULL,
	input      TEXT NOT NULL,
	result     JSONB NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS known_venues (
	name     TEXT PRIMARY KEY,
	city     TEXT,
	capacity INTEGER,
	type     TEXT
);

CREATE INDEX IF NOT EXISTS idx_parse_records_source ON parse_records(source);
CREATE INDEX IF NOT EXISTS idx_parse_records_confidence ON parse_records(confidence);
CREATE INDEX IF NOT EXISTS idx_parse_records_created_at ON parse_records(created_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveResult(ctx context.Context, source, input string, result model.ParseResult) (*model.ParseRecord, error) {
	rec := model.ParseRecord{
		ID:         uuid.New().String(),
		Source:     source,
		Input:      input,
		Result:     result,
		Confidence: result.OverallConfidence,
		CreatedAt:  time.Now().UTC(),
	}

	resultJSON, err := json.Marshal(result)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO parse_records (id, source, input, result, confidence, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.Source, rec.Input, resultJSON, rec.Confidence, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert parse record")
	}
	return &rec, nil
}

// SaveResults bulk-inserts records via the COPY protocol. IDs and timestamps
// are filled in for records that lack them.
func (s *PostgresStore) SaveResults(ctx context.Context, records []model.ParseRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(records))
	for i := range records {
		rec := &records[i]
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if rec.CreatedAt.IsZero() {
			rec.CreatedAt = time.Now().UTC()
		}
		resultJSON, err := json.Marshal(rec.Result)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal result")
		}
		rows = append(rows, []any{rec.ID, rec.Source, rec.Input, resultJSON, rec.Confidence, rec.CreatedAt})
	}

	n, err := db.CopyFrom(ctx, s.pool, "parse_records",
		[]string{"id", "source", "input", "result", "confidence", "created_at"}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: save parse records")
	}
	return int(n), nil
}

func (s *PostgresStore) GetResult(ctx context.Context, id string) (*model.ParseRecord, error) {
	var r model.ParseRecord
	var resultJSON []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, source, input, result, confidence, created_at FROM parse_records WHERE id = $1`,
		id,
	).Scan(&r.ID, &r.Source, &r.Input, &resultJSON, &r.Confidence, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.Errorf("parse record not found: %s", id)
		}
		return nil, eris.Wrapf(err, "postgres: get parse record %s", id)
	}

	if err := json.Unmarshal(resultJSON, &r.Result); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal result")
	}
	return &r, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, filter RecordFilter) ([]model.ParseRecord, error) {
	query := `SELECT id, source, input, result, confidence, created_at FROM parse_records WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Source != "" {
		query += fmt.Sprintf(` AND source = $%d`, argIdx)
		args = append(args, filter.Source)
		argIdx++
	}
	if filter.MinConfidence > 0 {
		query += fmt.Sprintf(` AND confidence >= $%d`, argIdx)
		args = append(args, filter.MinConfidence)
		argIdx++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(` AND created_at >= $%d`, argIdx)
		args = append(args, filter.Since.UTC())
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
		argIdx++
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list parse records")
	}
	defer rows.Close()

	var records []model.ParseRecord
	for rows.Next() {
		var r model.ParseRecord
		var resultJSON []byte

		if err := rows.Scan(&r.ID, &r.Source, &r.Input, &resultJSON, &r.Confidence, &r.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan parse record")
		}
		if err := json.Unmarshal(resultJSON, &r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal result")
		}
		records = append(records, r)
	}
	return records, eris.Wrap(rows.Err(), "postgres: list parse records iterate")
}

func (s *PostgresStore) DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM parse_records WHERE created_at < $1`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete parse records")
	}
	return int(tag.RowsAffected()), nil
}

// UpsertKnownVenues bulk-upserts the venue list keyed by name.
func (s *PostgresStore) UpsertKnownVenues(ctx context.Context, venues []model.KnownVenue) (int, error) {
	if len(venues) == 0 {
		return 0, nil
	}

	rows := make([][]any, 0, len(venues))
	for _, v := range venues {
		rows = append(rows, []any{v.Name, v.City, v.Capacity, v.Type})
	}

	n, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "known_venues",
		Columns:      []string{"name", "city", "capacity", "type"},
		ConflictKeys: []string{"name"},
	}, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: upsert known venues")
	}
	return int(n), nil
}

func (s *PostgresStore) ListKnownVenues(ctx context.Context) ([]model.KnownVenue, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, city, capacity, type FROM known_venues ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list known venues")
	}
	defer rows.Close()

	var venues []model.KnownVenue
	for rows.Next() {
		var v model.KnownVenue
		var city, typ *string
		var capacity *int
		if err := rows.Scan(&v.Name, &city, &capacity, &typ); err != nil {
			return nil, eris.Wrap(err, "postgres: scan venue")
		}
		if city != nil {
			v.City = *city
		}
		if typ != nil {
			v.Type = *typ
		}
		if capacity != nil {
			v.Capacity = *capacity
		}
		venues = append(venues, v)
	}
	return venues, eris.Wrap(rows.Err(), "postgres: list known venues iterate")
}
