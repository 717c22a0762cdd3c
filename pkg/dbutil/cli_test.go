package dbutil

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
	"github.com/psanodiya94/gocommon/pkg/executil"
)

// scriptedRunner replays canned results instead of spawning db2. Each call
// pops the next script entry; an entry may carry a hook that runs before the
// result is returned, which the export tests use to drop the CSV file the
// manager expects to find.
type scriptedRunner struct {
	t      *testing.T
	script []scriptEntry
	calls  [][]string
}

type scriptEntry struct {
	result executil.Result
	err    error
	hook   func(args []string)
}

func (r *scriptedRunner) Run(ctx context.Context, stdin, name string, args ...string) (executil.Result, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if len(r.script) == 0 {
		r.t.Fatalf("unexpected command: %s %s", name, strings.Join(args, " "))
	}

	entry := r.script[0]
	r.script = r.script[1:]
	if entry.hook != nil {
		entry.hook(args)
	}
	return entry.result, entry.err
}

func (r *scriptedRunner) expect(entries ...scriptEntry) {
	r.script = append(r.script, entries...)
}

func ok() scriptEntry {
	return scriptEntry{result: executil.Result{ExitCode: 0}}
}

func fail(stderr string) scriptEntry {
	return scriptEntry{result: executil.Result{ExitCode: 4, Stderr: stderr}}
}

func exportCSV(csv string) scriptEntry {
	return scriptEntry{
		result: executil.Result{ExitCode: 0},
		hook: func(args []string) {
			// export to <file> of del <query>
			os.WriteFile(args[2], []byte(csv), 0644)
		},
	}
}

func newTestCLIManager(t *testing.T) (*CLIManager, *scriptedRunner) {
	runner := &scriptedRunner{t: t}
	m := NewCLIManager(cfgutil.DefaultDatabaseConfig(), slog.Default())
	m.runner = runner
	m.tempDir = t.TempDir()
	return m, runner
}

func connected(t *testing.T) (*CLIManager, *scriptedRunner) {
	m, runner := newTestCLIManager(t)
	runner.expect(ok())
	require.NoError(t, m.Connect(context.Background()))
	return m, runner
}

func TestCLIConnect(t *testing.T) {
	m, runner := newTestCLIManager(t)
	runner.expect(ok())

	require.NoError(t, m.Connect(context.Background()))
	assert.True(t, m.IsConnected())

	require.Len(t, runner.calls, 1)
	assert.Equal(t, []string{"db2", "connect", "to", "testdb",
		"user", "db2inst1", "using", ""}, runner.calls[0])
}

func TestCLIConnectRejected(t *testing.T) {
	m, runner := newTestCLIManager(t)
	runner.expect(fail("SQL30081N communication error"))

	err := m.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.DatabaseConnection))
	assert.False(t, m.IsConnected())
}

func TestCLIQueryRequiresConnection(t *testing.T) {
	m, _ := newTestCLIManager(t)

	_, err := m.Query(context.Background(), "SELECT 1 FROM SYSIBM.SYSDUMMY1")
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.DatabaseConnection))
}

func TestCLIQuery(t *testing.T) {
	m, runner := connected(t)
	runner.expect(exportCSV("ID,NAME\n1,alice\n2,bob\n"))

	rows, err := m.Query(context.Background(), "SELECT ID, NAME FROM USERS")
	require.NoError(t, err)

	assert.Equal(t, []Row{
		{"ID": "1", "NAME": "alice"},
		{"ID": "2", "NAME": "bob"},
	}, rows)
}

func TestCLIQueryEmptyResult(t *testing.T) {
	m, runner := connected(t)
	runner.expect(exportCSV("ID,NAME\n"))

	rows, err := m.Query(context.Background(), "SELECT ID, NAME FROM USERS WHERE ID < 0")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCLIQueryInterpolatesParams(t *testing.T) {
	m, runner := connected(t)
	runner.expect(exportCSV("ID\n1\n"))

	_, err := m.Query(context.Background(),
		"SELECT ID FROM USERS WHERE NAME = ? AND AGE > ?", "o'hara", 30)
	require.NoError(t, err)

	last := runner.calls[len(runner.calls)-1]
	assert.Equal(t, "SELECT ID FROM USERS WHERE NAME = 'o''hara' AND AGE > 30",
		last[len(last)-1])
}

func TestCLIQueryFailed(t *testing.T) {
	m, runner := connected(t)
	runner.expect(fail("SQL0204N undefined name"))

	_, err := m.Query(context.Background(), "SELECT * FROM MISSING")
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.DatabaseQuery))
}

func TestCLIExec(t *testing.T) {
	m, runner := connected(t)
	runner.expect(scriptEntry{result: executil.Result{
		ExitCode: 0,
		Stdout:   "DB20000I  The SQL command completed successfully.\nNumber of rows affected : 3\n",
	}})

	affected, err := m.Exec(context.Background(), "DELETE FROM USERS WHERE AGE < ?", 18)
	require.NoError(t, err)
	assert.Equal(t, int64(3), affected)
}

func TestCLIExecNoRowCount(t *testing.T) {
	m, runner := connected(t)
	runner.expect(scriptEntry{result: executil.Result{
		ExitCode: 0,
		Stdout:   "DB20000I  The SQL command completed successfully.\n",
	}})

	affected, err := m.Exec(context.Background(), "CREATE TABLE T (ID INT)")
	require.NoError(t, err)
	assert.Equal(t, int64(0), affected)
}

func TestCLITransactionCommits(t *testing.T) {
	m, runner := connected(t)
	runner.expect(
		ok(), // autocommit off
		scriptEntry{result: executil.Result{Stdout: "Number of rows affected : 1\n"}},
		ok(), // commit
		ok(), // autocommit on
	)

	err := m.Transaction(context.Background(), func(ctx context.Context) error {
		_, err := m.Exec(ctx, "INSERT INTO USERS VALUES (1, 'alice')")
		return err
	})
	require.NoError(t, err)

	commands := make([]string, 0, len(runner.calls))
	for _, call := range runner.calls {
		commands = append(commands, strings.Join(call[:2], " "))
	}
	assert.Contains(t, commands, "db2 commit")
	assert.NotContains(t, commands, "db2 rollback")
}

func TestCLITransactionRollsBackOnError(t *testing.T) {
	m, runner := connected(t)
	runner.expect(
		ok(), // autocommit off
		fail("SQL0803N duplicate"),
		ok(), // rollback
		ok(), // autocommit on
	)

	err := m.Transaction(context.Background(), func(ctx context.Context) error {
		_, err := m.Exec(ctx, "INSERT INTO USERS VALUES (1, 'alice')")
		return err
	})
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.DatabaseQuery))

	var sawRollback bool
	for _, call := range runner.calls {
		if len(call) > 1 && call[1] == "rollback" {
			sawRollback = true
		}
	}
	assert.True(t, sawRollback)
}

func TestCLIExecBatch(t *testing.T) {
	m, runner := connected(t)
	runner.expect(
		ok(),
		scriptEntry{result: executil.Result{Stdout: "Number of rows affected : 2\n"}},
		scriptEntry{result: executil.Result{Stdout: "Number of rows affected : 5\n"}},
		ok(),
		ok(),
	)

	counts, err := m.ExecBatch(context.Background(), []string{
		"UPDATE USERS SET ACTIVE = 1",
		"DELETE FROM SESSIONS",
	})
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 5}, counts)
}

func TestCLITableInfo(t *testing.T) {
	m, runner := connected(t)
	runner.expect(exportCSV("COLNAME,TYPENAME,LENGTH,NULLS\nID,INTEGER,4,N\nNAME,VARCHAR,100,Y\n"))

	columns, err := m.TableInfo(context.Background(), "users")
	require.NoError(t, err)

	assert.Equal(t, []TableColumn{
		{Name: "ID", Type: "INTEGER", Length: 4, Nullable: false},
		{Name: "NAME", Type: "VARCHAR", Length: 100, Nullable: true},
	}, columns)
}

func TestCLIPing(t *testing.T) {
	m, runner := connected(t)
	runner.expect(exportCSV("1\n1\n"))

	assert.NoError(t, m.Ping(context.Background()))
}

func TestCLIDisconnect(t *testing.T) {
	m, runner := connected(t)
	runner.expect(ok())

	require.NoError(t, m.Disconnect(context.Background()))
	assert.False(t, m.IsConnected())

	// Disconnecting twice is a no-op.
	require.NoError(t, m.Disconnect(context.Background()))
}

func TestInterpolate(t *testing.T) {
	cases := []struct {
		name      string
		statement string
		params    []any
		expected  string
	}{
		{
			name:      "no params",
			statement: "SELECT 1",
			expected:  "SELECT 1",
		},
		{
			name:      "string quoting",
			statement: "SELECT * FROM T WHERE N = ?",
			params:    []any{"o'hara"},
			expected:  "SELECT * FROM T WHERE N = 'o''hara'",
		},
		{
			name:      "mixed types",
			statement: "INSERT INTO T VALUES (?, ?, ?, ?)",
			params:    []any{42, 3.5, true, nil},
			expected:  "INSERT INTO T VALUES (42, 3.5, 1, NULL)",
		},
		{
			name:      "question mark inside literal",
			statement: "SELECT * FROM T WHERE C = 'what?' AND N = ?",
			params:    []any{7},
			expected:  "SELECT * FROM T WHERE C = 'what?' AND N = 7",
		},
		{
			name:      "doubled quote keeps literal open",
			statement: "SELECT * FROM T WHERE C = 'isn''t it?' AND N = ?",
			params:    []any{7},
			expected:  "SELECT * FROM T WHERE C = 'isn''t it?' AND N = 7",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := interpolate(tc.statement, tc.params)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestInterpolateMismatch(t *testing.T) {
	_, err := interpolate("SELECT ? FROM T", nil)
	assert.NoError(t, err) // no params means no substitution at all

	_, err = interpolate("SELECT ?, ? FROM T", []any{1})
	assert.Error(t, err)

	_, err = interpolate("SELECT ? FROM T", []any{1, 2})
	assert.Error(t, err)
}
