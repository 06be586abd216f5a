package store

import (
	"context"
	"database/sql/driver"
	"errors"
	"io"
	"testing"
)

func TestRewriteSQLPlaceholders(t *testing.T) {
	got := rewriteSQL(`SELECT id FROM reports WHERE status=? AND location='a?b' AND id=?`)
	want := `SELECT id FROM reports WHERE status=$1 AND location='a?b' AND id=$2`
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
	got = rewriteSQL(`UPDATE users SET full_name=? WHERE email='o''?brien' AND id=?`)
	if got != `UPDATE users SET full_name=$1 WHERE email='o''?brien' AND id=$2` {
		t.Fatalf("escaped quote: %q", got)
	}
	if q := `DELETE FROM sessions`; rewriteSQL(q) != q {
		t.Fatalf("query without placeholders changed")
	}
}

func TestReturningIDQuery(t *testing.T) {
	q, ok := returningIDQuery("\n\t\tINSERT INTO reports(tracking_code) VALUES($1);")
	if !ok || q != "INSERT INTO reports(tracking_code) VALUES($1) RETURNING id" {
		t.Fatalf("reports insert: %q %v", q, ok)
	}
	for _, q := range []string{
		`INSERT INTO sessions(id) VALUES($1)`,
		`INSERT INTO audit_log(username) VALUES($1)`,
		`INSERT INTO users(email) VALUES($1) RETURNING id`,
		`UPDATE users SET email=$1`,
	} {
		if _, ok := returningIDQuery(q); ok {
			t.Fatalf("unexpected rewrite of %q", q)
		}
	}
}

type fakeRows struct {
	cols []string
	vals [][]driver.Value
}

func (r *fakeRows) Columns() []string { return r.cols }
func (r *fakeRows) Close() error      { return nil }
func (r *fakeRows) Next(dest []driver.Value) error {
	if len(r.vals) == 0 {
		return io.EOF
	}
	copy(dest, r.vals[0])
	r.vals = r.vals[1:]
	return nil
}

type fakeResult struct{}

func (fakeResult) LastInsertId() (int64, error) { return 0, errors.New("unsupported") }
func (fakeResult) RowsAffected() (int64, error) { return 3, nil }

type fakeConn struct {
	queries []string
	execs   []string
	id      any
}

func (c *fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("not used") }
func (c *fakeConn) Close() error                        { return nil }
func (c *fakeConn) Begin() (driver.Tx, error)           { return nil, errors.New("not used") }

func (c *fakeConn) QueryContext(_ context.Context, q string, _ []driver.NamedValue) (driver.Rows, error) {
	c.queries = append(c.queries, q)
	return &fakeRows{cols: []string{"id"}, vals: [][]driver.Value{{c.id}}}, nil
}

func (c *fakeConn) ExecContext(_ context.Context, q string, _ []driver.NamedValue) (driver.Result, error) {
	c.execs = append(c.execs, q)
	return fakeResult{}, nil
}

func TestRewriteConnInsertReturnsID(t *testing.T) {
	base := &fakeConn{id: int64(42)}
	conn := &rewriteConn{Conn: base}
	res, err := conn.ExecContext(context.Background(), `INSERT INTO attachments(report_id, kind) VALUES(?,?)`, nil)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if id, _ := res.LastInsertId(); id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
	if len(base.queries) != 1 || base.queries[0] != `INSERT INTO attachments(report_id, kind) VALUES($1,$2) RETURNING id` {
		t.Fatalf("unexpected queries %v", base.queries)
	}
	if len(base.execs) != 0 {
		t.Fatalf("insert should not go through exec: %v", base.execs)
	}
}

func TestRewriteConnPlainExec(t *testing.T) {
	base := &fakeConn{}
	conn := &rewriteConn{Conn: base}
	res, err := conn.ExecContext(context.Background(), `DELETE FROM sessions WHERE expires_at < ?`, nil)
	if err != nil {
		t.Fatalf("exec: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 3 {
		t.Fatalf("rows affected not passed through: %d", n)
	}
	if len(base.execs) != 1 || base.execs[0] != `DELETE FROM sessions WHERE expires_at < $1` {
		t.Fatalf("unexpected execs %v", base.execs)
	}
}

func TestRewriteConnRejectsOddIDType(t *testing.T) {
	conn := &rewriteConn{Conn: &fakeConn{id: "abc"}}
	if _, err := conn.ExecContext(context.Background(), `INSERT INTO users(email) VALUES(?)`, nil); err == nil {
		t.Fatalf("expected error for non-integer id")
	}
}
