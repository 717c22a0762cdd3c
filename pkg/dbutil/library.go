package dbutil

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/pkg/errors"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
	"github.com/psanodiya94/gocommon/pkg/logutil"
)

// DriverName is the database/sql driver the library backend binds to. The
// driver registers itself only when the binary is built with the ibmdb tag,
// since it needs the DB2 client libraries at link time.
const DriverName = "go_ibm_db"

// NativeAvailable reports whether the native driver is compiled into this
// binary.
func NativeAvailable() bool {
	return slices.Contains(sql.Drivers(), DriverName)
}

// LibraryManager speaks to DB2 through database/sql with the native driver.
// It is faster than the CLI backend and carries real parameter binding, but
// requires the driver to be compiled in.
//
// Transactions are tracked on the manager itself; the manager is not safe
// for concurrent use while a transaction is open.
type LibraryManager struct {
	cfg cfgutil.DatabaseConfig
	log *slog.Logger
	db  *sql.DB
	tx  *sql.Tx

	// openFunc is swapped in tests to bind a fake driver.
	openFunc func() (*sql.DB, error)
}

func NewLibraryManager(cfg cfgutil.DatabaseConfig, log *slog.Logger) (*LibraryManager, error) {
	if !NativeAvailable() {
		return nil, errutil.New(errutil.AdapterNotAvailable, "native database driver not compiled in").
			WithDetail("driver", DriverName)
	}

	if log == nil {
		log = slog.Default()
	}

	m := &LibraryManager{
		cfg: cfg,
		log: log.With("component", "db2-library"),
	}
	m.openFunc = func() (*sql.DB, error) {
		return sql.Open(DriverName, connectionString(cfg))
	}
	return m, nil
}

func connectionString(cfg cfgutil.DatabaseConfig) string {
	dsn := fmt.Sprintf("DATABASE=%s;HOSTNAME=%s;PORT=%d;PROTOCOL=TCPIP;UID=%s;PWD=%s;",
		cfg.Name, cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if cfg.Schema != "" {
		dsn += fmt.Sprintf("CURRENTSCHEMA=%s;", cfg.Schema)
	}
	return dsn
}

func (m *LibraryManager) Connect(ctx context.Context) error {
	db, err := m.openFunc()
	if err != nil {
		return errutil.Wrap(errutil.DatabaseConnection, "failed to open database handle", err)
	}

	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(ctx, m.cfg.TimeoutDuration())
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return m.categorize(err, errutil.DatabaseConnection, "failed to reach database")
	}

	m.db = db
	m.log.Info("connected to database",
		"database", m.cfg.Name, "host", m.cfg.Host)
	return nil
}

func (m *LibraryManager) Disconnect(ctx context.Context) error {
	if m.db == nil {
		return nil
	}
	if m.tx != nil {
		m.tx.Rollback()
		m.tx = nil
	}

	err := m.db.Close()
	m.db = nil
	if err != nil {
		return errutil.Wrap(errutil.DatabaseConnection, "failed to close database handle", err)
	}

	m.log.Info("disconnected from database", "database", m.cfg.Name)
	return nil
}

func (m *LibraryManager) IsConnected() bool {
	return m.db != nil
}

func (m *LibraryManager) Query(ctx context.Context, query string, params ...any) ([]Row, error) {
	if m.db == nil {
		return nil, errNotConnected()
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.TimeoutDuration())
	defer cancel()

	start := time.Now()
	result, err := m.querier().QueryContext(ctx, query, params...)
	if err != nil {
		return nil, m.categorize(err, errutil.DatabaseQuery, "query failed")
	}
	defer result.Close()

	rows, err := scanRows(result)
	if err != nil {
		return nil, err
	}

	logutil.DatabaseOperation(m.log, "SELECT", query, time.Since(start), int64(len(rows)))
	return rows, nil
}

func (m *LibraryManager) Exec(ctx context.Context, statement string, params ...any) (int64, error) {
	if m.db == nil {
		return 0, errNotConnected()
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.TimeoutDuration())
	defer cancel()

	start := time.Now()
	result, err := m.querier().ExecContext(ctx, statement, params...)
	if err != nil {
		return 0, m.categorize(err, errutil.DatabaseQuery, "statement failed")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		affected = 0
	}

	logutil.DatabaseOperation(m.log, verb(statement), statement, time.Since(start), affected)
	return affected, nil
}

func (m *LibraryManager) ExecBatch(ctx context.Context, statements []string) ([]int64, error) {
	counts := make([]int64, 0, len(statements))
	err := m.Transaction(ctx, func(ctx context.Context) error {
		for _, statement := range statements {
			affected, err := m.Exec(ctx, statement)
			if err != nil {
				return err
			}
			counts = append(counts, affected)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

func (m *LibraryManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if m.db == nil {
		return errNotConnected()
	}
	if m.tx != nil {
		return errutil.New(errutil.DatabaseTransaction, "transaction already open")
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return m.categorize(err, errutil.DatabaseTransaction, "failed to open transaction")
	}

	m.tx = tx
	defer func() { m.tx = nil }()

	if err := fn(ctx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			m.log.Error("rollback failed", "error", rbErr)
		}
		m.log.Debug("transaction rolled back")
		return err
	}

	if err := tx.Commit(); err != nil {
		return errutil.Wrap(errutil.DatabaseTransaction, "commit failed", err)
	}

	m.log.Debug("transaction committed")
	return nil
}

func (m *LibraryManager) TableInfo(ctx context.Context, table string) ([]TableColumn, error) {
	rows, err := m.Query(ctx,
		"SELECT COLNAME, TYPENAME, LENGTH, NULLS FROM SYSCAT.COLUMNS "+
			"WHERE TABNAME = UPPER(?) ORDER BY COLNO", table)
	if err != nil {
		return nil, err
	}
	return columnsFromCatalog(rows), nil
}

func (m *LibraryManager) DatabaseInfo(ctx context.Context) (Row, error) {
	rows, err := m.Query(ctx, "SELECT * FROM SYSIBMADM.ENV_INST_INFO")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return Row{}, nil
	}
	return rows[0], nil
}

func (m *LibraryManager) Ping(ctx context.Context) error {
	rows, err := m.Query(ctx, "SELECT 1 FROM SYSIBM.SYSDUMMY1")
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errutil.New(errutil.DatabaseConnection, "ping returned no rows")
	}
	return nil
}

// querier returns the open transaction when one exists, so statements issued
// inside a Transaction callback join its unit of work.
func (m *LibraryManager) querier() interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
} {
	if m.tx != nil {
		return m.tx
	}
	return m.db
}

func (m *LibraryManager) categorize(err error, kind errutil.Kind, msg string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errutil.Wrap(errutil.DatabaseTimeout, msg, err)
	}
	return errutil.Wrap(kind, msg, err)
}

// scanRows materializes a result set. Byte slices become strings so both
// backends hand out the same value shapes for text columns.
func scanRows(result *sql.Rows) ([]Row, error) {
	columns, err := result.Columns()
	if err != nil {
		return nil, errutil.Wrap(errutil.DatabaseQuery, "failed to describe result set", err)
	}

	rows := []Row{}
	for result.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}

		if err := result.Scan(pointers...); err != nil {
			return nil, errutil.Wrap(errutil.DatabaseQuery, "failed to scan row", err)
		}

		row := Row{}
		for i, column := range columns {
			switch v := values[i].(type) {
			case []byte:
				row[column] = string(v)
			default:
				row[column] = v
			}
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, errutil.Wrap(errutil.DatabaseQuery, "failed to read result set", err)
	}

	return rows, nil
}
