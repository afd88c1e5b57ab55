package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(nil, nil, UpsertConfig{
		Table:        "known_venues",
		Columns:      []string{"name", "city"},
		ConflictKeys: []string{"name"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(nil, nil, UpsertConfig{
		Table:        "known_venues",
		ConflictKeys: []string{"name"},
	}, [][]any{{"Blue Note Club", "Portland"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(nil, nil, UpsertConfig{
		Table:   "known_venues",
		Columns: []string{"name", "city"},
	}, [][]any{{"Blue Note Club", "Portland"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestQuoteAndJoin(t *testing.T) {
	result := quoteAndJoin([]string{"name", "city", "capacity"})
	assert.Equal(t, `"name", "city", "capacity"`, result)
}
