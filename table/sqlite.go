package table

import (
	"context"
	"fmt"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/jmoiron/sqlx"

	// Registers the "sqlite" driver
	_ "modernc.org/sqlite"
)

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path string) (*sqlx.DB, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, pfx.Err(err)
	}

	return db, nil
}

// Store replaces the SQL table called name with the contents of t. Every
// column is stored as TEXT; empty cells become NULL.
func (t *Table) Store(ctx context.Context, db *sqlx.DB, name string) error {
	cols := make([]string, len(t.Header))
	marks := make([]string, len(t.Header))
	for i, col := range t.Header {
		cols[i] = quoteIdent(col) + " TEXT"
		marks[i] = "?"
	}

	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return pfx.Err(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+quoteIdent(name)); err != nil {
		return pfx.Err(err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("CREATE TABLE %s (%s)", quoteIdent(name), strings.Join(cols, ", "))); err != nil {
		return pfx.Err(err)
	}

	stmt, err := tx.PreparexContext(ctx, fmt.Sprintf("INSERT INTO %s VALUES (%s)", quoteIdent(name), strings.Join(marks, ", ")))
	if err != nil {
		return pfx.Err(err)
	}
	defer stmt.Close()

	args := make([]interface{}, len(t.Header))
	for _, row := range t.Rows {
		for j, v := range row {
			if v == "" {
				args[j] = nil
			} else {
				args[j] = v
			}
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return pfx.Err(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pfx.Err(err)
	}

	return nil
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
