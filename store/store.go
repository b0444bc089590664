// Package store exposes SQLite query results to templates.
//
// A query's rows become a List of records whose fields are the result
// columns, so a template can iterate them directly:
//
//	<% for p in posts %><%= p.title %><% end %>
//
// The pure-Go modernc.org/sqlite driver is used by default. Building with
// the cgo_sqlite tag selects github.com/mattn/go-sqlite3 instead.
package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/ardnew/etpl/lang"
	"github.com/ardnew/etpl/pkg"
)

var (
	ErrOpen  = pkg.MakeErrorf("cannot open database")
	ErrQuery = pkg.MakeErrorf("query failed")
	ErrBind  = pkg.MakeErrorf("invalid query binding")
)

// DB is an open SQLite database.
type DB struct {
	db *sql.DB
}

// Open opens the database at dsn and verifies the connection.
// A dsn of ":memory:" opens a private in-memory database.
func Open(ctx context.Context, dsn string) (*DB, error) {
	db, err := openDB(dsn)
	if err != nil {
		return nil, ErrOpen.Wrapf("%s", dsn).Wrap(err)
	}

	// SQLite serializes writers; a single connection also keeps an
	// in-memory database alive across queries.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()

		return nil, ErrOpen.Wrapf("%s", dsn).Wrap(err)
	}

	return &DB{db: db}, nil
}

// Close closes the database.
func (d *DB) Close() error { return d.db.Close() }

// Exec runs a statement that returns no rows.
func (d *DB) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := d.db.ExecContext(ctx, query, args...); err != nil {
		return ErrQuery.Wrap(err)
	}

	return nil
}

// Query runs query and returns its rows as a List of records.
func (d *DB) Query(ctx context.Context, query string, args ...any) (lang.Value, error) {
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return lang.Value{}, ErrQuery.Wrap(err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return lang.Value{}, ErrQuery.Wrap(err)
	}

	var out []lang.Value

	for rows.Next() {
		raw := make([]any, len(cols))
		ptrs := make([]any, len(cols))

		for i := range raw {
			ptrs[i] = &raw[i]
		}

		if err := rows.Scan(ptrs...); err != nil {
			return lang.Value{}, ErrQuery.Wrap(err)
		}

		rec := &Record{cols: cols, vals: make([]lang.Value, len(cols))}
		for i, x := range raw {
			rec.vals[i] = column(x)
		}

		out = append(out, lang.RecordOf(rec))
	}

	if err := rows.Err(); err != nil {
		return lang.Value{}, ErrQuery.Wrap(err)
	}

	return lang.List(out...), nil
}

// Bind runs each "NAME=SQL" spec and sets NAME in a copy of c to the rows
// returned.
func (d *DB) Bind(ctx context.Context, c lang.Context, specs ...string) (lang.Context, error) {
	out := c.Merge(lang.Context{})

	for _, spec := range specs {
		name, query, ok := strings.Cut(spec, "=")
		name, query = strings.TrimSpace(name), strings.TrimSpace(query)

		if !ok || name == "" || query == "" {
			return lang.Context{}, ErrBind.Wrapf("%q: want NAME=SQL", spec)
		}

		rows, err := d.Query(ctx, query)
		if err != nil {
			return lang.Context{}, ErrBind.Wrapf("%s", name).Wrap(err)
		}

		out.Set(name, rows)
	}

	return out, nil
}

func column(x any) lang.Value {
	switch v := x.(type) {
	case nil:
		return lang.Str("")
	case int64:
		return lang.Int(v)
	case float64:
		return lang.Float(v)
	case bool:
		return lang.Bool(v)
	case []byte:
		return lang.Str(string(v))
	case string:
		return lang.Str(v)
	case time.Time:
		return lang.Str(v.Format(time.RFC3339))
	}

	v, err := lang.FromNative(x)
	if err != nil {
		return lang.Str("")
	}

	return v
}

// Record is one result row. Fields are the column names in select order.
type Record struct {
	cols []string
	vals []lang.Value
}

// Field returns the value of the named column.
func (r *Record) Field(name string) (lang.Value, bool) {
	for i, c := range r.cols {
		if c == name {
			return r.vals[i], true
		}
	}

	return lang.Value{}, false
}

// FieldNames returns the column names in select order.
func (r *Record) FieldNames() []string { return r.cols }
