package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/eventparse/internal/model"
	"github.com/sells-group/eventparse/internal/parser"
	"github.com/sells-group/eventparse/internal/store"
)

func newTestServer(t *testing.T) (*httptest.Server, store.Store) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	p := parser.New(parser.DefaultConfig())
	srv := httptest.NewServer(newRouter(p, st, nil, nil))
	t.Cleanup(srv.Close)
	return srv, st
}

func postJSON(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func TestServe_Healthz(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestServe_Parse(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/parse",
		`{"text":"Jazz Concert Friday, January 9, 2026 8:00 PM at Blue Note Club Tickets $35"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result model.ParseResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.True(t, result.Success)
	assert.Greater(t, result.OverallConfidence, 0.0)
	require.NotNil(t, result.Data.Date)
	require.NotNil(t, result.Data.Date.Date)
	assert.Equal(t, 9, result.Data.Date.Date.Day)
}

func TestServe_Parse_BadBody(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/parse", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_Parse_MissingText(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/parse", `{"source":"ocr"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServe_ParseField(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/parse/price", `{"text":"Tickets $35"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Field      string            `json:"field"`
		Candidates []model.Candidate `json:"candidates"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "price", body.Field)
	require.NotEmpty(t, body.Candidates)
	require.NotNil(t, body.Candidates[0].Price)
	require.NotNil(t, body.Candidates[0].Price.Min)
	assert.InDelta(t, 35.0, *body.Candidates[0].Price.Min, 1e-9)
}

func TestServe_ParseField_Unknown(t *testing.T) {
	srv, _ := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/parse/organizer", `{"text":"whatever"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_ParseAndSave_ThenList(t *testing.T) {
	srv, st := newTestServer(t)

	resp := postJSON(t, srv.URL+"/v1/parse",
		`{"text":"Doors 7 PM Tickets $20","source":"ocr","save":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	records, err := st.ListResults(context.Background(), store.RecordFilter{Source: model.SourceOCR})
	require.NoError(t, err)
	require.Len(t, records, 1)

	listResp, err := http.Get(srv.URL + "/v1/results?source=ocr")
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var body struct {
		Records []model.ParseRecord `json:"records"`
	}
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&body))
	require.Len(t, body.Records, 1)
	assert.Equal(t, records[0].ID, body.Records[0].ID)

	getResp, err := http.Get(srv.URL + "/v1/results/" + records[0].ID)
	require.NoError(t, err)
	defer getResp.Body.Close()
	assert.Equal(t, http.StatusOK, getResp.StatusCode)
}

func TestServe_GetResult_NotFound(t *testing.T) {
	srv, _ := newTestServer(t)

	resp, err := http.Get(srv.URL + "/v1/results/nonexistent")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServe_Venues(t *testing.T) {
	srv, st := newTestServer(t)

	_, err := st.UpsertKnownVenues(context.Background(), []model.KnownVenue{
		{Name: "Blue Note Club", City: "Portland"},
	})
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/v1/venues")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Venues []model.KnownVenue `json:"venues"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Venues, 1)
	assert.Equal(t, "Blue Note Club", body.Venues[0].Name)
}

func TestServe_RateLimit(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))

	p := parser.New(parser.DefaultConfig())
	limiter := rate.NewLimiter(rate.Limit(0), 0) // reject everything
	srv := httptest.NewServer(newRouter(p, st, nil, limiter))
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
}
