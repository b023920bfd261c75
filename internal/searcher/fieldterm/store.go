package fieldterm

import (
	"context"
	"fmt"

	"github.com/bestmax/bestmax/pkg/postgres"
)

// Store loads field-term snapshots from Postgres. Expected tables:
//
//	cached_fields(field text primary key, cached boolean not null)
//	field_terms(field text not null, term text not null)
//
// Rows in field_terms for a field absent from cached_fields are loaded with
// ShouldCache false, i.e. they never filter.
type Store struct {
	pg *postgres.Client
}

// NewStore creates a Postgres-backed Loader.
func NewStore(pg *postgres.Client) *Store {
	return &Store{pg: pg}
}

// LoadAll reads the complete field-term snapshot.
func (s *Store) LoadAll(ctx context.Context) (map[string]Entry, error) {
	entries := make(map[string]Entry)

	rows, err := s.pg.DB.QueryContext(ctx, `SELECT field, cached FROM cached_fields`)
	if err != nil {
		return nil, fmt.Errorf("querying cached_fields: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var field string
		var cached bool
		if err := rows.Scan(&field, &cached); err != nil {
			return nil, fmt.Errorf("scanning cached_fields row: %w", err)
		}
		entries[field] = Entry{ShouldCache: cached, Terms: make(map[string]struct{})}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cached_fields: %w", err)
	}

	termRows, err := s.pg.DB.QueryContext(ctx, `SELECT field, term FROM field_terms`)
	if err != nil {
		return nil, fmt.Errorf("querying field_terms: %w", err)
	}
	defer termRows.Close()
	for termRows.Next() {
		var field, term string
		if err := termRows.Scan(&field, &term); err != nil {
			return nil, fmt.Errorf("scanning field_terms row: %w", err)
		}
		entry, ok := entries[field]
		if !ok {
			entry = Entry{ShouldCache: false, Terms: make(map[string]struct{})}
			entries[field] = entry
		}
		entry.Terms[term] = struct{}{}
	}
	if err := termRows.Err(); err != nil {
		return nil, fmt.Errorf("iterating field_terms: %w", err)
	}

	return entries, nil
}
