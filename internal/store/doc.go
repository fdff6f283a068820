// Package store provides SQLite-backed durable storage for mapped documents.
//
// Documents are grouped by entity name and keyed by document id. Each row
// holds the document's fields as JSON, so numeric values keep their declared
// subtype across a reload (see docmap.Field.UnmarshalJSON).
//
// # Ordering
//
// Rows carry a per-entity seq assigned on first insert. Load returns
// documents ORDER BY seq ASC, id ASC COLLATE BINARY, so a reloaded index
// sees documents in the order they were first stored. Replacing a document
// keeps its original seq.
//
// # Schema versions
//
// PRAGMA user_version tracks applied migrations:
//
//   - 1: unique index on (entity, seq)
//   - 2: trigger rejecting any change to a stored seq
//
// Open migrates older stores forward and refuses newer ones. Check compares
// a live store against the connection settings (WAL, synchronous=NORMAL,
// busy_timeout=5000, foreign_keys=ON) and the migration objects; the CLI
// and the scenario harness run it after every Open.
package store
