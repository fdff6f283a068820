package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/roach88/sift/internal/docmap"
)

// ErrMissingID is returned when a document without an id is written.
var ErrMissingID = errors.New("document id is required")

// Put inserts or replaces a document under entity.
// A replaced document keeps the seq it was first stored with.
func (s *Store) Put(ctx context.Context, entity string, doc docmap.Document) error {
	if doc.ID == "" {
		return fmt.Errorf("put %s: %w", entity, ErrMissingID)
	}
	fields, err := marshalFields(doc.Fields)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", entity, doc.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (entity, id, fields, seq)
		VALUES (?, ?, ?, (SELECT COALESCE(MAX(seq), 0) + 1 FROM documents WHERE entity = ?))
		ON CONFLICT(entity, id) DO UPDATE SET fields = excluded.fields
	`, entity, doc.ID, fields, entity)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", entity, doc.ID, err)
	}
	return nil
}

// Delete removes a document. It reports whether a row was removed.
func (s *Store) Delete(ctx context.Context, entity, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE entity = ? AND id = ?`, entity, id)
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", entity, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s/%s: %w", entity, id, err)
	}
	return n > 0, nil
}

// Load returns every document stored under entity in insertion order.
// Returns an empty slice (not nil) when the entity has no documents.
func (s *Store) Load(ctx context.Context, entity string) ([]docmap.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, fields
		FROM documents
		WHERE entity = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, entity)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []docmap.Document{}
	for rows.Next() {
		var (
			doc    docmap.Document
			fields string
		)
		if err := rows.Scan(&doc.ID, &fields); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		if doc.Fields, err = unmarshalFields(fields); err != nil {
			return nil, fmt.Errorf("document %s/%s: %w", entity, doc.ID, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// Count returns the number of documents stored under entity.
func (s *Store) Count(ctx context.Context, entity string) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents WHERE entity = ?`, entity).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", entity, err)
	}
	return n, nil
}

// Entities returns the distinct entity names with stored documents, sorted.
func (s *Store) Entities(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT entity FROM documents ORDER BY entity COLLATE BINARY ASC`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entities: %w", err)
	}
	return names, nil
}

func marshalFields(fields []docmap.Field) (string, error) {
	if fields == nil {
		fields = []docmap.Field{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return string(data), nil
}

// unmarshalFields goes through docmap.Field.UnmarshalJSON, which restores
// numeric values to their declared subtype.
func unmarshalFields(data string) ([]docmap.Field, error) {
	var fields []docmap.Field
	if err := json.Unmarshal([]byte(data), &fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return fields, nil
}
