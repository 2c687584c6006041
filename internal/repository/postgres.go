package repository

import (
	"context"
	"errors"
	"fmt"

	"seedling/pkg/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS seed_records (
	id UUID PRIMARY KEY,
	model TEXT NOT NULL,
	fields JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS seed_records_model_idx ON seed_records (model);
CREATE INDEX IF NOT EXISTS seed_records_fields_idx ON seed_records USING GIN (fields jsonb_path_ops);
CREATE TABLE IF NOT EXISTS seed_links (
	model TEXT NOT NULL,
	record_id UUID NOT NULL REFERENCES seed_records (id) ON DELETE CASCADE,
	alias TEXT NOT NULL,
	target_id UUID NOT NULL REFERENCES seed_records (id) ON DELETE CASCADE,
	position BIGSERIAL,
	PRIMARY KEY (model, record_id, alias, target_id)
);`

// PostgresStore is a PostgreSQL implementation of the Store interface.
type PostgresStore struct {
	db *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{db: db}
}

// EnsureSchema creates the record and link tables.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// FindOrCreate runs under a per-model advisory lock so concurrent seeders do not
// insert the same record twice.
func (s *PostgresStore) FindOrCreate(ctx context.Context, model string, criteria, values models.Record) (models.Record, error) {
	want, err := encodeFields(criteria)
	if err != nil {
		return nil, err
	}
	fields, err := encodeFields(values)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin find-or-create %s: %w", model, err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock(hashtext($1))", model); err != nil {
		return nil, fmt.Errorf("lock %s: %w", model, err)
	}

	var id string
	var stored []byte
	err = tx.QueryRow(ctx,
		"SELECT id::text, fields FROM seed_records WHERE model = $1 AND fields @> $2::jsonb ORDER BY created_at, id LIMIT 1",
		model, string(want),
	).Scan(&id, &stored)
	switch {
	case err == nil:
	case errors.Is(err, pgx.ErrNoRows):
		id = uuid.New().String()
		stored = fields
		if _, err := tx.Exec(ctx,
			"INSERT INTO seed_records (id, model, fields) VALUES ($1, $2, $3::jsonb)",
			id, model, string(fields),
		); err != nil {
			return nil, fmt.Errorf("create %s: %w", model, err)
		}
	default:
		return nil, fmt.Errorf("find %s: %w", model, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit find-or-create %s: %w", model, err)
	}
	return decodeRecord(id, stored)
}

// FindOne returns a record by id.
func (s *PostgresStore) FindOne(ctx context.Context, model, id string) (models.Record, error) {
	var fields []byte
	err := s.db.QueryRow(ctx,
		"SELECT fields FROM seed_records WHERE model = $1 AND id::text = $2", model, id,
	).Scan(&fields)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", model, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", model, id, err)
	}
	return decodeRecord(id, fields)
}

// Linked returns the records linked to id under alias.
func (s *PostgresStore) Linked(ctx context.Context, model, id, alias string) ([]models.Record, error) {
	rows, err := s.db.Query(ctx, `
		SELECT r.id::text, r.fields
		FROM seed_links l JOIN seed_records r ON r.id = l.target_id
		WHERE l.model = $1 AND l.record_id::text = $2 AND l.alias = $3
		ORDER BY l.position`, model, id, alias)
	if err != nil {
		return nil, fmt.Errorf("linked %s.%s: %w", model, alias, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var targetID string
		var fields []byte
		if err := rows.Scan(&targetID, &fields); err != nil {
			return nil, err
		}
		r, err := decodeRecord(targetID, fields)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddToCollection links targetIDs to id under alias.
func (s *PostgresStore) AddToCollection(ctx context.Context, model, id, alias string, targetIDs []string) error {
	if len(targetIDs) == 0 {
		return nil
	}
	tag, err := s.db.Exec(ctx, `
		INSERT INTO seed_links (model, record_id, alias, target_id)
		SELECT $1, $2::uuid, $3, t.id
		FROM unnest($4::text[]::uuid[]) WITH ORDINALITY AS t(id, ord)
		WHERE EXISTS (SELECT 1 FROM seed_records WHERE model = $1 AND id = $2::uuid)
		ORDER BY t.ord
		ON CONFLICT DO NOTHING`, model, id, alias, targetIDs)
	if err != nil {
		return fmt.Errorf("add to %s.%s: %w", model, alias, err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := s.FindOne(ctx, model, id); err != nil {
			return err
		}
	}
	return nil
}
