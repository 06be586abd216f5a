package store

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5/stdlib"
)

// postgresDriverName wraps pgx so store queries can be written once with `?`
// placeholders and rely on Result.LastInsertId on both databases.
const postgresDriverName = "pgx-rewrite"

func init() {
	sql.Register(postgresDriverName, rewriteDriver{base: stdlib.GetDefaultDriver()})
}

// serialTables are the BIGSERIAL-keyed tables whose inserts feed LastInsertId.
// Sessions use text ids; audit_log and roles ids are never read back.
var serialTables = map[string]struct{}{
	"users":          {},
	"reports":        {},
	"criminal_infos": {},
	"attachments":    {},
}

var reInsertInto = regexp.MustCompile(`(?is)^\s*insert\s+into\s+([a-z_][a-z0-9_]*)\s*\(`)

type rewriteDriver struct {
	base driver.Driver
}

func (d rewriteDriver) Open(name string) (driver.Conn, error) {
	c, err := d.base.Open(name)
	if err != nil {
		return nil, err
	}
	return &rewriteConn{Conn: c}, nil
}

type rewriteConn struct {
	driver.Conn
}

func (c *rewriteConn) Prepare(query string) (driver.Stmt, error) {
	return c.Conn.Prepare(rewriteSQL(query))
}

func (c *rewriteConn) PrepareContext(ctx context.Context, query string) (driver.Stmt, error) {
	if p, ok := c.Conn.(driver.ConnPrepareContext); ok {
		return p.PrepareContext(ctx, rewriteSQL(query))
	}
	return c.Prepare(query)
}

// ExecContext turns inserts into serial tables into INSERT ... RETURNING id
// queries; everything else is executed as is after placeholder rewriting.
func (c *rewriteConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	q := rewriteSQL(query)
	if rq, ok := returningIDQuery(q); ok {
		if qx, ok := c.Conn.(driver.QueryerContext); ok {
			rows, err := qx.QueryContext(ctx, rq, args)
			if err != nil {
				return nil, err
			}
			return scanInsertedID(rows)
		}
	}
	ex, ok := c.Conn.(driver.ExecerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	return ex.ExecContext(ctx, q, args)
}

func (c *rewriteConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	qx, ok := c.Conn.(driver.QueryerContext)
	if !ok {
		return nil, driver.ErrSkip
	}
	return qx.QueryContext(ctx, rewriteSQL(query), args)
}

func (c *rewriteConn) BeginTx(ctx context.Context, opts driver.TxOptions) (driver.Tx, error) {
	if b, ok := c.Conn.(driver.ConnBeginTx); ok {
		return b.BeginTx(ctx, opts)
	}
	if opts.ReadOnly {
		return nil, errors.New("driver does not support read-only transactions")
	}
	return c.Conn.Begin()
}

type insertResult struct {
	id       int64
	affected int64
}

func (r insertResult) LastInsertId() (int64, error) { return r.id, nil }
func (r insertResult) RowsAffected() (int64, error) { return r.affected, nil }

func scanInsertedID(rows driver.Rows) (driver.Result, error) {
	defer rows.Close()
	dest := make([]driver.Value, len(rows.Columns()))
	if len(dest) == 0 {
		return nil, errors.New("insert returned no columns")
	}
	if err := rows.Next(dest); err != nil {
		if errors.Is(err, io.EOF) {
			return insertResult{}, nil
		}
		return nil, err
	}
	var id int64
	switch v := dest[0].(type) {
	case int64:
		id = v
	case int32:
		id = int64(v)
	case int:
		id = int64(v)
	default:
		return nil, fmt.Errorf("unexpected id type %T", dest[0])
	}
	return insertResult{id: id, affected: 1}, nil
}

// returningIDQuery appends RETURNING id to an insert into a serial table.
func returningIDQuery(query string) (string, bool) {
	m := reInsertInto.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	if _, ok := serialTables[strings.ToLower(m[1])]; !ok {
		return "", false
	}
	if strings.Contains(strings.ToUpper(query), " RETURNING ") {
		return "", false
	}
	q := strings.TrimSuffix(strings.TrimSpace(query), ";")
	return q + " RETURNING id", true
}

// rewriteSQL numbers `?` placeholders as $1, $2, ... leaving quoted literals
// alone.
func rewriteSQL(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	quoted := false
	for _, r := range query {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == '?' && !quoted:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
