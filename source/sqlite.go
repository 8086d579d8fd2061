package source

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/kungfusheep/shortlog"
	_ "modernc.org/sqlite"
)

// LoadSQLite runs query against the SQLite database at dsn and returns its
// result set in column order.
func LoadSQLite(ctx context.Context, dsn, query string, args ...any) (Table, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return Table{}, fmt.Errorf("sqlite: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return Table{}, fmt.Errorf("sqlite %s: %w", dsn, err)
	}
	return Query(ctx, db, query, args...)
}

// Query runs query on db and converts every result row.
func Query(ctx context.Context, db *sql.DB, query string, args ...any) (Table, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return Table{}, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func scanRows(rows *sql.Rows) (Table, error) {
	cols, err := rows.Columns()
	if err != nil {
		return Table{}, err
	}
	t := Table{Columns: cols}
	for rows.Next() {
		ptrs := make([]any, len(cols))
		for i := range ptrs {
			ptrs[i] = new(any)
		}
		if err := rows.Scan(ptrs...); err != nil {
			return Table{}, err
		}
		values := make(map[string]any, len(cols))
		for i, c := range cols {
			v := *(ptrs[i].(*any))
			// the driver returns int64, float64, string, []byte, time.Time or nil
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			values[c] = v
		}
		t.Rows = append(t.Rows, shortlog.NewRow(cols, values))
	}
	return t, rows.Err()
}
