package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/eventparse/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	s := &PostgresStore{pool: mock}
	return s, mock
}

func TestPostgresStore_GetResult_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, source, input, result, confidence, created_at FROM parse_records WHERE id = \$1`).
		WithArgs("nonexistent-record").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetResult(context.Background(), "nonexistent-record")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetResult_Success(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, source, input, result, confidence, created_at FROM parse_records WHERE id = \$1`).
		WithArgs("rec-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "source", "input", "result", "confidence", "created_at"}).
			AddRow("rec-1", model.SourceScrape, "Jazz at 8 PM", []byte(`{"success":true,"overall_confidence":0.82}`), 0.82, created))

	rec, err := s.GetResult(context.Background(), "rec-1")
	require.NoError(t, err)
	assert.Equal(t, "rec-1", rec.ID)
	assert.Equal(t, model.SourceScrape, rec.Source)
	assert.True(t, rec.Result.Success)
	assert.InDelta(t, 0.82, rec.Confidence, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResult(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO parse_records`).
		WithArgs(pgxmock.AnyArg(), model.SourceManual, "Doors 7 PM", pgxmock.AnyArg(), 0.75, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	rec, err := s.SaveResult(context.Background(), model.SourceManual, "Doors 7 PM",
		model.ParseResult{Success: true, OverallConfidence: 0.75})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.InDelta(t, 0.75, rec.Confidence, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResults_Copy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectCopyFrom(pgx.Identifier{"parse_records"},
		[]string{"id", "source", "input", "result", "confidence", "created_at"}).
		WillReturnResult(2)

	records := []model.ParseRecord{
		{Source: model.SourceScrape, Input: "a", Result: model.ParseResult{OverallConfidence: 0.5}, Confidence: 0.5},
		{Source: model.SourceOCR, Input: "b", Result: model.ParseResult{OverallConfidence: 0.9}, Confidence: 0.9},
	}
	n, err := s.SaveResults(context.Background(), records)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NotEmpty(t, records[0].ID)
	assert.False(t, records[1].CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveResults_Empty(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	n, err := s.SaveResults(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostgresStore_ListResults_Filters(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, time.February, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT id, source, input, result, confidence, created_at FROM parse_records WHERE true AND source = \$1 AND confidence >= \$2`).
		WithArgs(model.SourceOCR, 0.7, 50).
		WillReturnRows(pgxmock.NewRows([]string{"id", "source", "input", "result", "confidence", "created_at"}).
			AddRow("rec-2", model.SourceOCR, "flyer text", []byte(`{"overall_confidence":0.9}`), 0.9, created))

	records, err := s.ListResults(context.Background(), RecordFilter{
		Source:        model.SourceOCR,
		MinConfidence: 0.7,
		Limit:         50,
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "rec-2", records[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteResultsBefore(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	cutoff := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectExec(`DELETE FROM parse_records WHERE created_at < \$1`).
		WithArgs(cutoff).
		WillReturnResult(pgxmock.NewResult("DELETE", 7))

	n, err := s.DeleteResultsBefore(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, 7, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertKnownVenues(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_upsert_known_venues"},
		[]string{"name", "city", "capacity", "type"}).
		WillReturnResult(2)
	mock.ExpectExec(`INSERT INTO "known_venues"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 2))
	mock.ExpectCommit()

	venues := []model.KnownVenue{
		{Name: "Blue Note Club", City: "Portland", Capacity: 300, Type: "club"},
		{Name: "Crystal Ballroom", City: "Portland", Capacity: 1500},
	}
	n, err := s.UpsertKnownVenues(context.Background(), venues)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListKnownVenues(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	city := "Portland"
	typ := "club"
	capacity := 300
	mock.ExpectQuery(`SELECT name, city, capacity, type FROM known_venues ORDER BY name`).
		WillReturnRows(pgxmock.NewRows([]string{"name", "city", "capacity", "type"}).
			AddRow("Blue Note Club", &city, &capacity, &typ).
			AddRow("Crystal Ballroom", (*string)(nil), (*int)(nil), (*string)(nil)))

	venues, err := s.ListKnownVenues(context.Background())
	require.NoError(t, err)
	require.Len(t, venues, 2)
	assert.Equal(t, "Blue Note Club", venues[0].Name)
	assert.Equal(t, 300, venues[0].Capacity)
	assert.Empty(t, venues[1].City)
	assert.NoError(t, mock.ExpectationsWereMet())
}
