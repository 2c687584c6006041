package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"seedling/pkg/models"

	"github.com/google/uuid"
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS seed_records (
		id TEXT PRIMARY KEY,
		model TEXT NOT NULL,
		fields TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS seed_records_model_idx ON seed_records (model)`,
	`CREATE TABLE IF NOT EXISTS seed_links (
		model TEXT NOT NULL,
		record_id TEXT NOT NULL REFERENCES seed_records (id) ON DELETE CASCADE,
		alias TEXT NOT NULL,
		target_id TEXT NOT NULL REFERENCES seed_records (id) ON DELETE CASCADE,
		PRIMARY KEY (model, record_id, alias, target_id)
	)`,
}

// SQLiteStore implements Store backed by SQLite. Fields are stored as JSON text
// and matched with json_extract.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// EnsureSchema creates the record and link tables.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	for _, stmt := range sqliteSchema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

// jsonPath quotes key as a single SQLite JSON path member.
func jsonPath(key string) string {
	return `$."` + strings.ReplaceAll(key, `"`, `\"`) + `"`
}

// matchClause filters normalized criteria on scalars in SQL. Objects and arrays
// are returned as composite and checked with contains on the candidate rows.
func matchClause(criteria models.Record) (string, []interface{}, models.Record, error) {
	keys := make([]string, 0, len(criteria))
	for k := range criteria {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	var args []interface{}
	composite := models.Record{}
	for _, k := range keys {
		path := jsonPath(k)
		switch v := criteria[k].(type) {
		case nil:
			b.WriteString(" AND json_type(fields, ?) = 'null'")
			args = append(args, path)
		case bool:
			b.WriteString(" AND json_type(fields, ?) = ?")
			args = append(args, path, strconv.FormatBool(v))
		case string:
			b.WriteString(" AND json_type(fields, ?) = 'text' AND json_extract(fields, ?) = ?")
			args = append(args, path, path, v)
		case float64:
			b.WriteString(" AND json_type(fields, ?) IN ('integer', 'real') AND json_extract(fields, ?) = ?")
			args = append(args, path, path, v)
		case map[string]interface{}, []interface{}:
			composite[k] = v
		default:
			return "", nil, nil, fmt.Errorf("criteria %s: unsupported value %T", k, v)
		}
	}
	return b.String(), args, composite, nil
}

// FindOrCreate returns the first record containing criteria or inserts values.
func (s *SQLiteStore) FindOrCreate(ctx context.Context, model string, criteria, values models.Record) (models.Record, error) {
	want, err := normalize(criteria.Fields())
	if err != nil {
		return nil, err
	}
	clause, args, composite, err := matchClause(want)
	if err != nil {
		return nil, err
	}
	fields, err := encodeFields(values)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin find-or-create %s: %w", model, err)
	}
	defer func() { _ = tx.Rollback() }()

	found, err := findMatch(ctx, tx,
		"SELECT id, fields FROM seed_records WHERE model = ?"+clause+" ORDER BY rowid",
		append([]interface{}{model}, args...), composite)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", model, err)
	}
	if found != nil {
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("commit find-or-create %s: %w", model, err)
		}
		return found, nil
	}

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO seed_records (id, model, fields, created_at) VALUES (?, ?, json(?), ?)",
		id, model, string(fields), time.Now().UTC().Format(time.RFC3339Nano),
	); err != nil {
		return nil, fmt.Errorf("create %s: %w", model, err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit find-or-create %s: %w", model, err)
	}
	return decodeRecord(id, fields)
}

// findMatch returns the first row that also contains composite, or nil.
func findMatch(ctx context.Context, tx *sql.Tx, query string, args []interface{}, composite models.Record) (models.Record, error) {
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var id, stored string
		if err := rows.Scan(&id, &stored); err != nil {
			return nil, err
		}
		r, err := decodeRecord(id, []byte(stored))
		if err != nil {
			return nil, err
		}
		if contains(r, composite) {
			return r, nil
		}
	}
	return nil, rows.Err()
}

// FindOne returns a record by id.
func (s *SQLiteStore) FindOne(ctx context.Context, model, id string) (models.Record, error) {
	var fields string
	err := s.db.QueryRowContext(ctx,
		"SELECT fields FROM seed_records WHERE model = ? AND id = ?", model, id,
	).Scan(&fields)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s %s: %w", model, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find %s %s: %w", model, id, err)
	}
	return decodeRecord(id, []byte(fields))
}

// Linked returns the records linked to id under alias in link order.
func (s *SQLiteStore) Linked(ctx context.Context, model, id, alias string) ([]models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT r.id, r.fields
		FROM seed_links l JOIN seed_records r ON r.id = l.target_id
		WHERE l.model = ? AND l.record_id = ? AND l.alias = ?
		ORDER BY l.rowid`, model, id, alias)
	if err != nil {
		return nil, fmt.Errorf("linked %s.%s: %w", model, alias, err)
	}
	defer rows.Close()

	var out []models.Record
	for rows.Next() {
		var targetID, fields string
		if err := rows.Scan(&targetID, &fields); err != nil {
			return nil, err
		}
		r, err := decodeRecord(targetID, []byte(fields))
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// AddToCollection links targetIDs to id under alias.
func (s *SQLiteStore) AddToCollection(ctx context.Context, model, id, alias string, targetIDs []string) error {
	if _, err := s.FindOne(ctx, model, id); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin add to %s.%s: %w", model, alias, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, target := range targetIDs {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO seed_links (model, record_id, alias, target_id) VALUES (?, ?, ?, ?)",
			model, id, alias, target,
		); err != nil {
			return fmt.Errorf("add to %s.%s: %w", model, alias, err)
		}
	}
	return tx.Commit()
}
