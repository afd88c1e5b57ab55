package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/eventparse/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS parse_records (
	id         TEXT PRIMARY KEY,
	source     TEXT NOT NULL,
	input      TEXT NOT NULL,
	result     TEXT NOT NULL,
	confidence REAL NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS known_venues (
	name     TEXT PRIMARY KEY,
	city     TEXT,
	capacity INTEGER,
	type     TEXT
);

CREATE INDEX IF NOT EXISTS idx_parse_records_source ON parse_records(source);
CREATE INDEX IF NOT EXISTS idx_parse_records_confidence ON parse_records(confidence);
CREATE INDEX IF NOT EXISTS idx_parse_records_created_at ON parse_records(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveResult(ctx context.Context, source, input string, result model.ParseResult) (*model.ParseRecord, error) {
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
		return nil, eris.Wrap(err, "sqlite: marshal result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO parse_records (id, source, input, result, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Source, rec.Input, string(resultJSON), rec.Confidence, rec.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert parse record")
	}
	return &rec, nil
}

func (s *SQLiteStore) SaveResults(ctx context.Context, records []model.ParseRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO parse_records (id, source, input, result, confidence, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare insert")
	}
	defer stmt.Close()

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
			return 0, eris.Wrap(err, "sqlite: marshal result")
		}
		if _, err := stmt.ExecContext(ctx, rec.ID, rec.Source, rec.Input, string(resultJSON), rec.Confidence, rec.CreatedAt); err != nil {
			return 0, eris.Wrapf(err, "sqlite: insert parse record %s", rec.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return len(records), nil
}

func (s *SQLiteStore) GetResult(ctx context.Context, id string) (*model.ParseRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, source, input, result, confidence, created_at FROM parse_records WHERE id = ?`,
		id,
	)
	return scanRecord(row)
}

func (s *SQLiteStore) ListResults(ctx context.Context, filter RecordFilter) ([]model.ParseRecord, error) {
	query := `SELECT id, source, input, result, confidence, created_at FROM parse_records WHERE 1=1`
	var args []any

	if filter.Source != "" {
		query += ` AND source = ?`
		args = append(args, filter.Source)
	}
	if filter.MinConfidence > 0 {
		query += ` AND confidence >= ?`
		args = append(args, filter.MinConfidence)
	}
	if !filter.Since.IsZero() {
		query += ` AND created_at >= ?`
		args = append(args, filter.Since.UTC())
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list parse records")
	}
	defer rows.Close()

	var records []model.ParseRecord
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}
	return records, eris.Wrap(rows.Err(), "sqlite: list parse records iterate")
}

func (s *SQLiteStore) DeleteResultsBefore(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM parse_records WHERE created_at < ?`,
		cutoff.UTC(),
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete parse records")
	}
	n, err := res.RowsAffected()
	return int(n), eris.Wrap(err, "sqlite: rows affected")
}

func (s *SQLiteStore) UpsertKnownVenues(ctx context.Context, venues []model.KnownVenue) (int, error) {
	if len(venues) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO known_venues (name, city, capacity, type) VALUES (?, ?, ?, ?)
		 ON CONFLICT (name) DO UPDATE SET city = excluded.city, capacity = excluded.capacity, type = excluded.type`,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	for _, v := range venues {
		if _, err := stmt.ExecContext(ctx, v.Name, v.City, v.Capacity, v.Type); err != nil {
			return 0, eris.Wrapf(err, "sqlite: upsert venue %s", v.Name)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: commit tx")
	}
	return len(venues), nil
}

func (s *SQLiteStore) ListKnownVenues(ctx context.Context) ([]model.KnownVenue, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, city, capacity, type FROM known_venues ORDER BY name`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list known venues")
	}
	defer rows.Close()

	var venues []model.KnownVenue
	for rows.Next() {
		var v model.KnownVenue
		var city, typ sql.NullString
		var capacity sql.NullInt64
		if err := rows.Scan(&v.Name, &city, &capacity, &typ); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan venue")
		}
		v.City, v.Type = city.String, typ.String
		v.Capacity = int(capacity.Int64)
		venues = append(venues, v)
	}
	return venues, eris.Wrap(rows.Err(), "sqlite: list known venues iterate")
}

// helpers

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*model.ParseRecord, error) {
	var r model.ParseRecord
	var resultJSON string

	err := row.Scan(&r.ID, &r.Source, &r.Input, &resultJSON, &r.Confidence, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("parse record not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan parse record")
	}

	if err := json.Unmarshal([]byte(resultJSON), &r.Result); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal result")
	}
	return &r, nil
}
