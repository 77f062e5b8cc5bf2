package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Shugur-Network/relaydex/internal/constants"
	"github.com/Shugur-Network/relaydex/internal/metrics"
	"github.com/Shugur-Network/relaydex/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrRelayNotFound is returned when no row exists for the url.
	ErrRelayNotFound = fmt.Errorf("relay not found: %w", pgx.ErrNoRows)
	// ErrRelayExists is returned by SaveRelay when the url is already stored.
	ErrRelayExists = errors.New("relay already exists")
	// ErrNotConnected is returned when the pool is closed or was never opened.
	ErrNotConnected = errors.New("database is not connected")
)

const relayColumns = `url, name, description, pubkey, contact, supported_nips, software, version,
	limitation, retention, relay_countries, language_tags, tags, posting_policy, payments_url,
	fees, icon, seen, created_at, updated_at`

const (
	selectRelaySQL = `SELECT ` + relayColumns + ` FROM relays WHERE url = $1`

	insertRelaySQL = `INSERT INTO relays (url, name, description, pubkey, contact, supported_nips,
		software, version, limitation, retention, relay_countries, language_tags, tags,
		posting_policy, payments_url, fees, icon, seen)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	RETURNING created_at, updated_at`

	updateRelaySQL = `UPDATE relays SET
		name = $2, description = $3, pubkey = $4, contact = $5, supported_nips = $6,
		software = $7, version = $8, limitation = $9, retention = $10, relay_countries = $11,
		language_tags = $12, tags = $13, posting_policy = $14, payments_url = $15, fees = $16,
		icon = $17, seen = true, updated_at = now()
	WHERE url = $1
	RETURNING updated_at, seen`
)

// GetRelay loads the stored record for url, or ErrRelayNotFound.
func (db *DB) GetRelay(ctx context.Context, url string) (*models.Relay, error) {
	if !db.isConnected() {
		return nil, ErrNotConnected
	}
	metrics.DBOperations.WithLabelValues("get").Inc()

	var relay *models.Relay
	err := db.executeWithRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
		defer cancel()

		r, err := scanRelay(db.q.QueryRow(ctx, selectRelaySQL, url))
		if err != nil {
			return err
		}
		relay = r
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRelayNotFound
	}
	if err != nil {
		db.recordError("get", err)
		return nil, fmt.Errorf("get relay %s: %w", url, err)
	}
	return relay, nil
}

// SaveRelay inserts a new record. CreatedAt and UpdatedAt are filled from the row.
func (db *DB) SaveRelay(ctx context.Context, relay *models.Relay) error {
	if !db.isConnected() {
		return ErrNotConnected
	}
	metrics.DBOperations.WithLabelValues("save").Inc()

	args, err := relayArgs(relay)
	if err != nil {
		return fmt.Errorf("encode relay %s: %w", relay.URL, err)
	}

	err = db.executeWithRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
		defer cancel()

		var createdAt, updatedAt time.Time
		if err := db.q.QueryRow(ctx, insertRelaySQL, args...).Scan(&createdAt, &updatedAt); err != nil {
			return err
		}
		relay.CreatedAt, relay.UpdatedAt = createdAt, updatedAt
		return nil
	})
	if err != nil {
		db.recordError("save", err)
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("save relay %s: %w", relay.URL, ErrRelayExists)
		}
		return fmt.Errorf("save relay %s: %w", relay.URL, err)
	}
	return nil
}

// UpdateRelay overwrites the descriptive fields of an existing record and marks
// it seen. UpdatedAt and Seen are refreshed from the row.
func (db *DB) UpdateRelay(ctx context.Context, relay *models.Relay) error {
	if !db.isConnected() {
		return ErrNotConnected
	}
	metrics.DBOperations.WithLabelValues("update").Inc()

	args, err := relayArgs(relay)
	if err != nil {
		return fmt.Errorf("encode relay %s: %w", relay.URL, err)
	}

	// seen is not a parameter of the update
	args = args[:len(args)-1]

	err = db.executeWithRetry(ctx, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, constants.DBQueryTimeout)
		defer cancel()

		var updatedAt time.Time
		var seen bool
		if err := db.q.QueryRow(ctx, updateRelaySQL, args...).Scan(&updatedAt, &seen); err != nil {
			return err
		}
		relay.UpdatedAt, relay.Seen = updatedAt, seen
		return nil
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("update relay %s: %w", relay.URL, ErrRelayNotFound)
	}
	if err != nil {
		db.recordError("update", err)
		return fmt.Errorf("update relay %s: %w", relay.URL, err)
	}
	return nil
}

func scanRelay(row pgx.Row) (*models.Relay, error) {
	var (
		r                                      models.Relay
		nips, limitation, retention, countries []byte
		languages, tags, fees                  []byte
	)
	err := row.Scan(
		&r.URL, &r.Name, &r.Description, &r.PubKey, &r.Contact, &nips, &r.Software, &r.Version,
		&limitation, &retention, &countries, &languages, &tags, &r.PostingPolicy, &r.PaymentsURL,
		&fees, &r.Icon, &r.Seen, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	for _, col := range []struct {
		name string
		raw  []byte
		dst  any
	}{
		{"supported_nips", nips, &r.SupportedNIPs},
		{"limitation", limitation, &r.Limitation},
		{"relay_countries", countries, &r.RelayCountries},
		{"language_tags", languages, &r.LanguageTags},
		{"tags", tags, &r.Tags},
		{"fees", fees, &r.Fees},
	} {
		if len(col.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("decode %s: %w", col.name, err)
		}
	}
	if len(retention) > 0 {
		r.Retention = json.RawMessage(retention)
	}
	return &r, nil
}

// relayArgs returns $1..$18 shared by insert and update.
func relayArgs(r *models.Relay) ([]any, error) {
	var encErr error
	enc := func(v any, empty bool) any {
		if empty || encErr != nil {
			return nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			encErr = err
			return nil
		}
		return b
	}

	var retention any
	if len(r.Retention) > 0 {
		if !json.Valid(r.Retention) {
			return nil, fmt.Errorf("retention is not valid JSON")
		}
		retention = []byte(r.Retention)
	}

	args := []any{
		r.URL,
		r.Name,
		r.Description,
		r.PubKey,
		r.Contact,
		enc(r.SupportedNIPs, len(r.SupportedNIPs) == 0),
		r.Software,
		r.Version,
		enc(r.Limitation, r.Limitation == nil),
		retention,
		enc(r.RelayCountries, len(r.RelayCountries) == 0),
		enc(r.LanguageTags, len(r.LanguageTags) == 0),
		enc(r.Tags, len(r.Tags) == 0),
		r.PostingPolicy,
		r.PaymentsURL,
		enc(r.Fees, len(r.Fees) == 0),
		r.Icon,
		r.Seen,
	}
	if encErr != nil {
		return nil, encErr
	}
	return args, nil
}
