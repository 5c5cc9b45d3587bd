package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roach88/acorn/internal/ir"
	"github.com/roach88/acorn/internal/store"
)

// Call is one row of the calls table.
type Call struct {
	Entity  string
	Seq     int64
	Entry   string
	Returns string
}

// EntityCount is the number of calls recorded under an entity.
type EntityCount struct {
	Entity string
	Calls  int64
}

// Write replaces dst with a mirror of snap. All rows are inserted in one
// transaction.
func Write(ctx context.Context, dst string, snap *store.Snapshot) error {
	for _, p := range []string{dst, dst + "-wal", dst + "-shm"} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("export: remove %s: %w", p, err)
		}
	}

	m, err := Open(dst)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer m.Close()

	if err := m.insert(ctx, snap); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}

func (m *Mirror) insert(ctx context.Context, snap *store.Snapshot) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := insertCalls(ctx, tx, snap); err != nil {
		return err
	}
	if err := insertObjects(ctx, tx, snap); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertCalls(ctx context.Context, tx *sql.Tx, snap *store.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO calls (entity, seq, entry, returns)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare calls: %w", err)
	}
	defer stmt.Close()

	for _, key := range snap.Keys() {
		for i, e := range snap.Entities[key] {
			entryJSON, err := ir.MarshalCanonical(e.ToObject())
			if err != nil {
				return fmt.Errorf("entities[%q][%d]: %w", key, i, err)
			}
			returnsJSON, err := ir.MarshalCanonical(e.Returns)
			if err != nil {
				return fmt.Errorf("entities[%q][%d] returns: %w", key, i, err)
			}
			if _, err := stmt.ExecContext(ctx, key, i+1, string(entryJSON), string(returnsJSON)); err != nil {
				return fmt.Errorf("insert call %q/%d: %w", key, i+1, err)
			}
		}
	}
	return nil
}

func insertObjects(ctx context.Context, tx *sql.Tx, snap *store.Snapshot) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO objects (uuid, description)
		VALUES (?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare objects: %w", err)
	}
	defer stmt.Close()

	for _, id := range snap.Identities() {
		descJSON, err := ir.MarshalCanonical(snap.UUIDs[id])
		if err != nil {
			return fmt.Errorf("uuids[%q]: %w", id, err)
		}
		if _, err := stmt.ExecContext(ctx, id, string(descJSON)); err != nil {
			return fmt.Errorf("insert object %q: %w", id, err)
		}
	}
	return nil
}

// Entities returns the call count per entity, ordered by entity.
func (m *Mirror) Entities(ctx context.Context) ([]EntityCount, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT entity, COUNT(*)
		FROM calls
		GROUP BY entity
		ORDER BY entity ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query entities: %w", err)
	}
	defer rows.Close()

	var out []EntityCount
	for rows.Next() {
		var ec EntityCount
		if err := rows.Scan(&ec.Entity, &ec.Calls); err != nil {
			return nil, fmt.Errorf("scan entity: %w", err)
		}
		out = append(out, ec)
	}
	return out, rows.Err()
}

// Calls returns the calls recorded under entity in call order.
func (m *Mirror) Calls(ctx context.Context, entity string) ([]Call, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT entity, seq, entry, returns
		FROM calls
		WHERE entity = ?
		ORDER BY seq ASC
	`, entity)
	if err != nil {
		return nil, fmt.Errorf("query calls: %w", err)
	}
	defer rows.Close()

	var out []Call
	for rows.Next() {
		var c Call
		if err := rows.Scan(&c.Entity, &c.Seq, &c.Entry, &c.Returns); err != nil {
			return nil, fmt.Errorf("scan call: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Object returns the description JSON of an identity.
func (m *Mirror) Object(ctx context.Context, id string) (string, bool, error) {
	var desc string
	err := m.db.QueryRowContext(ctx, `SELECT description FROM objects WHERE uuid = ?`, id).Scan(&desc)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query object: %w", err)
	}
	return desc, true, nil
}
