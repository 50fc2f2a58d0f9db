package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// buildWhere turns an equality filter map into a WHERE clause with
// positional args. Keys are sorted so generated SQL is deterministic.
func buildWhere(filters map[string]interface{}) (string, []interface{}) {
	if len(filters) == 0 {
		return "", nil
	}

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	clauses := make([]string, 0, len(keys))
	args := make([]interface{}, 0, len(keys))
	for i, k := range keys {
		if filters[k] == nil {
			clauses = append(clauses, fmt.Sprintf("%s IS NULL", k))
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s = $%d", k, i+1))
		args = append(args, filters[k])
	}

	// Renumber placeholders when NULL filters skipped an arg slot
	if len(args) != len(keys) {
		clauses = clauses[:0]
		n := 0
		for _, k := range keys {
			if filters[k] == nil {
				clauses = append(clauses, fmt.Sprintf("%s IS NULL", k))
				continue
			}
			n++
			clauses = append(clauses, fmt.Sprintf("%s = $%d", k, n))
		}
	}

	return " WHERE " + strings.Join(clauses, " AND "), args
}

// selectWhere runs a filtered scan over a table into dest (a slice pointer).
func (s *Store) selectWhere(ctx context.Context, dest interface{}, table string, filters map[string]interface{}) error {
	where, args := buildWhere(filters)
	return s.db.SelectContext(ctx, dest, "SELECT * FROM "+table+where, args...)
}

// Exists checks whether any row in a table matches the equality filters
func (s *Store) Exists(ctx context.Context, table string, filters map[string]interface{}) (bool, error) {
	where, args := buildWhere(filters)
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM "+table+where+")", args...)
	return exists, err
}
