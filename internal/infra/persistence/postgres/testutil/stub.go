// Package testutil provides a scripted database/sql driver for postgres store
// tests that run without a server.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
)

var stubSeq atomic.Int64

// Result is the scripted answer to a query.
type Result struct {
	Columns []string
	Rows    [][]driver.Value
	Err     error
}

// StubConn records every statement it receives. Exec and query answers are
// scripted through ExecFunc and QueryFunc.
type StubConn struct {
	mu        sync.Mutex
	Execs     []string
	Queries   []string
	Args      [][]driver.NamedValue
	FailPing  bool
	ExecFunc  func(query string, args []driver.NamedValue) (int64, error)
	QueryFunc func(query string, args []driver.NamedValue) Result
}

// NewStubDB registers a fresh driver and opens a sql.DB on it.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{}
	name := fmt.Sprintf("stubpg%d", stubSeq.Add(1))
	sql.Register(name, &stubDriver{conn: conn})
	db, err := sql.Open(name, "stub")
	if err != nil {
		panic(err)
	}
	return db, conn
}

// Statements returns a copy of every exec and query seen, in arrival order
// within each group.
func (c *StubConn) Statements() (execs, queries []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.Execs...), append([]string(nil), c.Queries...)
}

type stubDriver struct {
	conn *StubConn
}

func (d *stubDriver) Open(string) (driver.Conn, error) {
	return d.conn, nil
}

// Prepare implements driver.Conn.
func (c *StubConn) Prepare(string) (driver.Stmt, error) { return nil, fmt.Errorf("not implemented") }

// Close implements driver.Conn.
func (c *StubConn) Close() error { return nil }

// Begin implements driver.Conn.
func (c *StubConn) Begin() (driver.Tx, error) { return nil, fmt.Errorf("transactions not supported") }

// Ping implements driver.Pinger.
func (c *StubConn) Ping(_ context.Context) error {
	if c.FailPing {
		return fmt.Errorf("ping fail")
	}
	return nil
}

// ExecContext implements driver.ExecerContext.
func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	c.Execs = append(c.Execs, query)
	c.Args = append(c.Args, args)
	fn := c.ExecFunc
	c.mu.Unlock()
	if fn == nil {
		return driver.RowsAffected(1), nil
	}
	n, err := fn(query, args)
	if err != nil {
		return nil, err
	}
	return driver.RowsAffected(n), nil
}

// QueryContext implements driver.QueryerContext.
func (c *StubConn) QueryContext(_ context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	c.Queries = append(c.Queries, query)
	c.Args = append(c.Args, args)
	fn := c.QueryFunc
	c.mu.Unlock()
	if fn == nil {
		return &stubRows{}, nil
	}
	res := fn(query, args)
	if res.Err != nil {
		return nil, res.Err
	}
	return &stubRows{cols: res.Columns, rows: res.Rows}, nil
}

type stubRows struct {
	cols []string
	rows [][]driver.Value
	idx  int
}

func (r *stubRows) Columns() []string { return r.cols }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.rows) {
		return io.EOF
	}
	copy(dest, r.rows[r.idx])
	r.idx++
	return nil
}
