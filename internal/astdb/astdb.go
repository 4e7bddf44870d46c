// Package astdb stores the products of a parse in a SQLite database so
// they can be inspected with plain SQL.
package astdb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ember/internal/ast"
	"ember/internal/diag"
	"ember/internal/formatter"
	"ember/internal/lexer"
	"ember/internal/symtab"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	uuid TEXT NOT NULL UNIQUE,
	file TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS tokens (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	seq INTEGER NOT NULL,
	kind TEXT NOT NULL,
	text TEXT NOT NULL,
	row INTEGER NOT NULL,
	col INTEGER NOT NULL,
	PRIMARY KEY (run_id, seq)
);
CREATE TABLE IF NOT EXISTS symbols (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	id INTEGER NOT NULL,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	PRIMARY KEY (run_id, id)
);
CREATE TABLE IF NOT EXISTS nodes (
	run_id INTEGER NOT NULL REFERENCES runs(id),
	id INTEGER NOT NULL,
	parent INTEGER,
	depth INTEGER NOT NULL,
	kind TEXT NOT NULL,
	label TEXT NOT NULL,
	row INTEGER,
	col INTEGER,
	PRIMARY KEY (run_id, id)
);
`

type DB struct {
	db *sql.DB
}

// Snapshot is everything a single export writes.
type Snapshot struct {
	File   string
	Tokens []lexer.Token
	Table  *symtab.Table
	Module *ast.Module
}

// Open opens or creates the database at path and makes sure the schema
// exists.
func Open(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("db schema error: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

// Export writes s as a new run in one transaction and returns the run id.
func (d *DB) Export(ctx context.Context, s Snapshot) (int64, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("db begin error: %w", err)
	}
	runID, err := export(ctx, tx, s)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("db commit error: %w", err)
	}
	return runID, nil
}

func export(ctx context.Context, tx *sql.Tx, s Snapshot) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"INSERT INTO runs (uuid, file, created_at) VALUES (?, ?, ?)",
		uuid.NewString(), s.File, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("db insert run error: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("db run id error: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO tokens (run_id, seq, kind, text, row, col) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("db prepare error: %w", err)
	}
	defer stmt.Close()
	for i, tok := range s.Tokens {
		if _, err := stmt.ExecContext(ctx, runID, i, tok.Kind.String(), tok.Text, tok.Loc.Row, tok.Loc.Column); err != nil {
			return 0, fmt.Errorf("db insert token error: %w", err)
		}
	}

	if s.Table != nil {
		for id, e := range s.Table.Entries() {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO symbols (run_id, id, name, type) VALUES (?, ?, ?, ?)",
				runID, id, e.Name, e.Type.String()); err != nil {
				return 0, fmt.Errorf("db insert symbol error: %w", err)
			}
		}
	}

	if s.Module == nil {
		return runID, nil
	}
	for _, n := range ast.Flatten(s.Module) {
		var parent, row, col any
		if n.Parent >= 0 {
			parent = n.Parent
		}
		if loc := location(n.Node); !loc.IsZero() {
			row, col = loc.Row, loc.Column
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO nodes (run_id, id, parent, depth, kind, label, row, col) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			runID, n.ID, parent, n.Depth, ast.KindName(n.Node), formatter.Label(n.Node, s.Table), row, col); err != nil {
			return 0, fmt.Errorf("db insert node error: %w", err)
		}
	}
	return runID, nil
}

func location(n ast.Node) diag.Location {
	switch n := n.(type) {
	case *ast.Param:
		return n.Loc
	case ast.Stmt:
		return n.GetLoc()
	case ast.Expr:
		return n.GetLoc()
	}
	return diag.Location{}
}

// Count returns the number of rows table holds for run.
func (d *DB) Count(ctx context.Context, table string, run int64) (int, error) {
	switch table {
	case "tokens", "symbols", "nodes":
	default:
		return 0, fmt.Errorf("unknown table %q", table)
	}
	var n int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table+" WHERE run_id = ?", run).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db count error: %w", err)
	}
	return n, nil
}
