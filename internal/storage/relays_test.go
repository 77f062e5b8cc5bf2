package storage

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Shugur-Network/relaydex/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return errors.New("column count mismatch")
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type fakeQuerier struct {
	rows  []fakeRow
	calls []string
	args  [][]any
}

func (q *fakeQuerier) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	q.calls = append(q.calls, sql)
	q.args = append(q.args, args)
	row := q.rows[0]
	q.rows = q.rows[1:]
	return row
}

func (q *fakeQuerier) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	q.calls = append(q.calls, sql)
	q.args = append(q.args, args)
	return pgconn.NewCommandTag("UPDATE 1"), nil
}

func newTestDB(q querier) *DB {
	return &DB{q: q, state: DBStateConnected}
}

func storedRow(url string, created, updated time.Time) fakeRow {
	return fakeRow{values: []any{
		url, "JellyFish", "desc", "ab12", "admin@example.com",
		[]byte(`[1,11,65]`), "strfry", "1.0",
		[]byte(`{"max_filters":10,"auth_required":false}`),
		[]byte(`[{"kinds":[0,1],"time":3600}]`),
		[]byte(nil), []byte(`["en"]`), []byte(nil),
		"", "", []byte(`{"admission":[{"amount":1000,"unit":"msats"}]}`), "",
		true, created, updated,
	}}
}

func TestGetRelay_DecodesRow(t *testing.T) {
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)
	q := &fakeQuerier{rows: []fakeRow{storedRow("https://relay.example.com", created, updated)}}
	db := newTestDB(q)

	r, err := db.GetRelay(context.Background(), "https://relay.example.com")
	require.NoError(t, err)

	assert.Equal(t, "https://relay.example.com", r.URL)
	assert.Equal(t, []int{1, 11, 65}, r.SupportedNIPs)
	require.NotNil(t, r.Limitation)
	assert.Equal(t, 10, *r.Limitation.MaxFilters)
	assert.JSONEq(t, `[{"kinds":[0,1],"time":3600}]`, string(r.Retention))
	assert.Nil(t, r.RelayCountries)
	assert.Equal(t, []string{"en"}, r.LanguageTags)
	assert.Equal(t, 1000, r.Fees["admission"][0].Amount)
	assert.True(t, r.Seen)
	assert.Equal(t, created, r.CreatedAt)
	assert.Equal(t, updated, r.UpdatedAt)
	assert.Equal(t, []any{"https://relay.example.com"}, q.args[0])
}

func TestGetRelay_NotFound(t *testing.T) {
	db := newTestDB(&fakeQuerier{rows: []fakeRow{{err: pgx.ErrNoRows}}})

	_, err := db.GetRelay(context.Background(), "https://missing.example.com")
	require.ErrorIs(t, err, ErrRelayNotFound)
	require.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Zero(t, db.Stats().Errors)
}

func TestGetRelay_NotConnected(t *testing.T) {
	db := &DB{state: DBStateClosed}
	_, err := db.GetRelay(context.Background(), "https://a")
	require.ErrorIs(t, err, ErrNotConnected)
}

func TestGetRelay_RetriesSerializationFailure(t *testing.T) {
	now := time.Now()
	q := &fakeQuerier{rows: []fakeRow{
		{err: &pgconn.PgError{Code: "40001", Message: "restart transaction"}},
		storedRow("https://a", now, now),
	}}
	db := newTestDB(q)

	r, err := db.GetRelay(context.Background(), "https://a")
	require.NoError(t, err)
	assert.Equal(t, "https://a", r.URL)
	assert.Len(t, q.calls, 2)
}

func TestSaveRelay_PlaceholderArgs(t *testing.T) {
	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	q := &fakeQuerier{rows: []fakeRow{{values: []any{created, created}}}}
	db := newTestDB(q)

	r := models.NewPlaceholder("https://down.example.com")
	require.NoError(t, db.SaveRelay(context.Background(), r))

	assert.Equal(t, created, r.CreatedAt)
	assert.Equal(t, created, r.UpdatedAt)
	require.Len(t, q.args, 1)
	args := q.args[0]
	require.Len(t, args, 18)
	assert.Equal(t, "https://down.example.com", args[0])
	assert.Nil(t, args[5], "empty nips are stored as NULL")
	assert.Nil(t, args[8])
	assert.Nil(t, args[15])
	assert.Equal(t, false, args[17])
	assert.True(t, strings.HasPrefix(strings.TrimSpace(q.calls[0]), "INSERT INTO relays"))
}

func TestSaveRelay_Conflict(t *testing.T) {
	q := &fakeQuerier{rows: []fakeRow{{err: &pgconn.PgError{Code: "23505"}}}}
	db := newTestDB(q)

	err := db.SaveRelay(context.Background(), models.NewPlaceholder("https://a"))
	require.ErrorIs(t, err, ErrRelayExists)
	assert.Equal(t, int64(1), db.Stats().Errors)
}

func TestUpdateRelay_EncodesAndRefreshes(t *testing.T) {
	updated := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	q := &fakeQuerier{rows: []fakeRow{{values: []any{updated, true}}}}
	db := newTestDB(q)

	r := &models.Relay{
		URL:           "https://relay.example.com",
		Name:          "n",
		SupportedNIPs: []int{1},
		Retention:     json.RawMessage(`[{"time":60}]`),
	}
	require.NoError(t, db.UpdateRelay(context.Background(), r))

	assert.Equal(t, updated, r.UpdatedAt)
	assert.True(t, r.Seen)
	args := q.args[0]
	require.Len(t, args, 17)
	assert.Equal(t, []byte(`[1]`), args[5])
	assert.Equal(t, []byte(`[{"time":60}]`), args[9])
	assert.Contains(t, q.calls[0], "seen = true")
	assert.Contains(t, q.calls[0], "WHERE url = $1")
}

func TestUpdateRelay_Missing(t *testing.T) {
	db := newTestDB(&fakeQuerier{rows: []fakeRow{{err: pgx.ErrNoRows}}})

	err := db.UpdateRelay(context.Background(), models.NewPlaceholder("https://a"))
	require.ErrorIs(t, err, ErrRelayNotFound)
}

func TestRelayArgs_RejectsInvalidRetention(t *testing.T) {
	_, err := relayArgs(&models.Relay{URL: "https://a", Retention: json.RawMessage(`{bad`)})
	require.Error(t, err)
}
