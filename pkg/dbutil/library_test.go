package dbutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
)

// fakeConn is a minimal in-memory driver connection. Queries and statements
// are answered from fixture maps; transaction boundaries are recorded so
// tests can assert on commit and rollback behavior.
type fakeConn struct {
	queries map[string]fakeResultSet
	execs   map[string]int64
	events  []string
}

type fakeResultSet struct {
	columns []string
	rows    [][]driver.Value
}

func (c *fakeConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported")
}

func (c *fakeConn) Close() error { return nil }

func (c *fakeConn) Begin() (driver.Tx, error) {
	c.events = append(c.events, "begin")
	return fakeTx{conn: c}, nil
}

func (c *fakeConn) Ping(ctx context.Context) error { return nil }

func (c *fakeConn) QueryContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Rows, error) {
	set, found := c.queries[query]
	if !found {
		return nil, fmt.Errorf("no fixture for query %q", query)
	}
	return &fakeRows{set: set}, nil
}

func (c *fakeConn) ExecContext(ctx context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	affected, found := c.execs[query]
	if !found {
		return nil, fmt.Errorf("no fixture for statement %q", query)
	}
	c.events = append(c.events, "exec")
	return driver.RowsAffected(affected), nil
}

type fakeTx struct{ conn *fakeConn }

func (t fakeTx) Commit() error {
	t.conn.events = append(t.conn.events, "commit")
	return nil
}

func (t fakeTx) Rollback() error {
	t.conn.events = append(t.conn.events, "rollback")
	return nil
}

type fakeRows struct {
	set fakeResultSet
	pos int
}

func (r *fakeRows) Columns() []string { return r.set.columns }
func (r *fakeRows) Close() error      { return nil }

func (r *fakeRows) Next(dest []driver.Value) error {
	if r.pos >= len(r.set.rows) {
		return io.EOF
	}
	copy(dest, r.set.rows[r.pos])
	r.pos++
	return nil
}

type fakeConnector struct{ conn *fakeConn }

func (c fakeConnector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c fakeConnector) Driver() driver.Driver                        { return nil }

func newTestLibraryManager(conn *fakeConn) *LibraryManager {
	m := &LibraryManager{
		cfg: cfgutil.DefaultDatabaseConfig(),
		log: slog.Default(),
	}
	m.openFunc = func() (*sql.DB, error) {
		db := sql.OpenDB(fakeConnector{conn: conn})
		// A pool would hand transaction statements to a different fake
		// connection.
		db.SetMaxOpenConns(1)
		return db, nil
	}
	return m
}

func TestNewLibraryManagerWithoutDriver(t *testing.T) {
	if NativeAvailable() {
		t.Skip("native driver compiled in")
	}

	_, err := NewLibraryManager(cfgutil.DefaultDatabaseConfig(), slog.Default())
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.AdapterNotAvailable))
}

func TestLibraryConnectAndPing(t *testing.T) {
	conn := &fakeConn{queries: map[string]fakeResultSet{
		"SELECT 1 FROM SYSIBM.SYSDUMMY1": {
			columns: []string{"1"},
			rows:    [][]driver.Value{{int64(1)}},
		},
	}}
	m := newTestLibraryManager(conn)

	require.NoError(t, m.Connect(context.Background()))
	assert.True(t, m.IsConnected())
	assert.NoError(t, m.Ping(context.Background()))

	require.NoError(t, m.Disconnect(context.Background()))
	assert.False(t, m.IsConnected())
}

func TestLibraryQuery(t *testing.T) {
	conn := &fakeConn{queries: map[string]fakeResultSet{
		"SELECT ID, NAME FROM USERS": {
			columns: []string{"ID", "NAME"},
			rows: [][]driver.Value{
				{int64(1), []byte("alice")},
				{int64(2), []byte("bob")},
			},
		},
	}}
	m := newTestLibraryManager(conn)
	require.NoError(t, m.Connect(context.Background()))

	rows, err := m.Query(context.Background(), "SELECT ID, NAME FROM USERS")
	require.NoError(t, err)

	assert.Equal(t, []Row{
		{"ID": int64(1), "NAME": "alice"},
		{"ID": int64(2), "NAME": "bob"},
	}, rows)
}

func TestLibraryQueryRequiresConnection(t *testing.T) {
	m := newTestLibraryManager(&fakeConn{})

	_, err := m.Query(context.Background(), "SELECT 1 FROM SYSIBM.SYSDUMMY1")
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.DatabaseConnection))
}

func TestLibraryExec(t *testing.T) {
	conn := &fakeConn{execs: map[string]int64{
		"DELETE FROM SESSIONS": 4,
	}}
	m := newTestLibraryManager(conn)
	require.NoError(t, m.Connect(context.Background()))

	affected, err := m.Exec(context.Background(), "DELETE FROM SESSIONS")
	require.NoError(t, err)
	assert.Equal(t, int64(4), affected)
}

func TestLibraryTransactionCommits(t *testing.T) {
	conn := &fakeConn{execs: map[string]int64{
		"UPDATE USERS SET ACTIVE = 1": 2,
	}}
	m := newTestLibraryManager(conn)
	require.NoError(t, m.Connect(context.Background()))

	err := m.Transaction(context.Background(), func(ctx context.Context) error {
		_, err := m.Exec(ctx, "UPDATE USERS SET ACTIVE = 1")
		return err
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"begin", "exec", "commit"}, conn.events)
}

func TestLibraryTransactionRollsBackOnError(t *testing.T) {
	conn := &fakeConn{}
	m := newTestLibraryManager(conn)
	require.NoError(t, m.Connect(context.Background()))

	err := m.Transaction(context.Background(), func(ctx context.Context) error {
		return errutil.New(errutil.Validation, "nope")
	})
	require.Error(t, err)

	assert.Equal(t, []string{"begin", "rollback"}, conn.events)
}

func TestLibraryNestedTransactionRejected(t *testing.T) {
	conn := &fakeConn{}
	m := newTestLibraryManager(conn)
	require.NoError(t, m.Connect(context.Background()))

	err := m.Transaction(context.Background(), func(ctx context.Context) error {
		return m.Transaction(ctx, func(ctx context.Context) error { return nil })
	})
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.DatabaseTransaction))
}

// Both backends must hand out the same row shapes for the same data, so
// code written against one keeps working when the factory picks the other.
func TestBackendsReturnIdenticalRows(t *testing.T) {
	query := "SELECT ID, NAME FROM USERS"

	cli, runner := connected(t)
	runner.expect(exportCSV("ID,NAME\n1,alice\n2,bob\n"))
	cliRows, err := cli.Query(context.Background(), query)
	require.NoError(t, err)

	conn := &fakeConn{queries: map[string]fakeResultSet{
		query: {
			columns: []string{"ID", "NAME"},
			rows: [][]driver.Value{
				{[]byte("1"), []byte("alice")},
				{[]byte("2"), []byte("bob")},
			},
		},
	}}
	lib := newTestLibraryManager(conn)
	require.NoError(t, lib.Connect(context.Background()))
	libRows, err := lib.Query(context.Background(), query)
	require.NoError(t, err)

	assert.Equal(t, cliRows, libRows)
}
