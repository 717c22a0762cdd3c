package dbutil

import (
	"context"
	"encoding/csv"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
	"github.com/psanodiya94/gocommon/pkg/executil"
	"github.com/psanodiya94/gocommon/pkg/logutil"
)

var rowsAffectedPattern = regexp.MustCompile(`Number of rows affected\s*:\s*(\d+)`)

// CLIManager talks to DB2 through the db2 command line processor. It needs
// no driver libraries, only the vendor tools on PATH, which makes it the
// default backend.
//
// SELECT results are exported to a throwaway delimited file and read back,
// because the processor's tabular output is not machine friendly.
type CLIManager struct {
	cfg       cfgutil.DatabaseConfig
	log       *slog.Logger
	runner    executil.Runner
	tempDir   string
	connected bool
}

func NewCLIManager(cfg cfgutil.DatabaseConfig, log *slog.Logger) *CLIManager {
	if log == nil {
		log = slog.Default()
	}
	return &CLIManager{
		cfg:     cfg,
		log:     log.With("component", "db2-cli"),
		runner:  executil.ExecRunner{},
		tempDir: os.TempDir(),
	}
}

func (m *CLIManager) run(ctx context.Context, args ...string) (executil.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.TimeoutDuration())
	defer cancel()

	result, err := m.runner.Run(ctx, "", "db2", args...)
	if errors.Is(err, context.DeadlineExceeded) {
		return result, errutil.Wrap(errutil.DatabaseTimeout, "db2 command timed out", err,
			"command", strings.Join(args, " "))
	}
	if err != nil {
		return result, errutil.Wrap(errutil.DatabaseConnection, "db2 command failed", err)
	}
	return result, nil
}

func (m *CLIManager) Connect(ctx context.Context) error {
	result, err := m.run(ctx, "connect", "to", m.cfg.Name,
		"user", m.cfg.User, "using", m.cfg.Password)
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return errutil.New(errutil.DatabaseConnection, "connect rejected").
			WithDetail("database", m.cfg.Name).
			WithDetail("stderr", strings.TrimSpace(result.Stderr))
	}

	m.connected = true
	m.log.Info("connected to database",
		"database", m.cfg.Name, "host", m.cfg.Host)
	return nil
}

func (m *CLIManager) Disconnect(ctx context.Context) error {
	if !m.connected {
		return nil
	}

	// The reset may fail when the server already dropped us; the handle is
	// gone either way.
	m.connected = false
	_, err := m.run(ctx, "connect", "reset")
	if err != nil {
		m.log.Warn("connect reset failed", "error", err)
	}

	m.log.Info("disconnected from database", "database", m.cfg.Name)
	return nil
}

func (m *CLIManager) IsConnected() bool {
	return m.connected
}

func (m *CLIManager) Query(ctx context.Context, query string, params ...any) ([]Row, error) {
	if !m.connected {
		return nil, errNotConnected()
	}

	statement, err := interpolate(query, params)
	if err != nil {
		return nil, errutil.Wrap(errutil.Validation, "invalid query parameters", err)
	}

	start := time.Now()
	exportFile := filepath.Join(m.tempDir, "db2-export-"+uuid.NewString()+".csv")
	defer os.Remove(exportFile)

	result, err := m.run(ctx, "export", "to", exportFile, "of", "del", statement)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return nil, errutil.New(errutil.DatabaseQuery, "query failed").
			WithDetail("stderr", strings.TrimSpace(result.Stderr))
	}

	rows, err := parseExportFile(exportFile)
	if err != nil {
		return nil, err
	}

	logutil.DatabaseOperation(m.log, "SELECT", statement, time.Since(start), int64(len(rows)))
	return rows, nil
}

func (m *CLIManager) Exec(ctx context.Context, statement string, params ...any) (int64, error) {
	if !m.connected {
		return 0, errNotConnected()
	}

	statement, err := interpolate(statement, params)
	if err != nil {
		return 0, errutil.Wrap(errutil.Validation, "invalid statement parameters", err)
	}

	start := time.Now()
	result, err := m.run(ctx, "-m", statement)
	if err != nil {
		return 0, err
	}
	if result.ExitCode != 0 {
		return 0, errutil.New(errutil.DatabaseQuery, "statement failed").
			WithDetail("stderr", strings.TrimSpace(result.Stderr))
	}

	affected := parseRowsAffected(result.Stdout)
	logutil.DatabaseOperation(m.log, verb(statement), statement, time.Since(start), affected)
	return affected, nil
}

// ExecBatch runs the statements inside one transaction and returns the
// affected row count of each. A failing statement rolls back the whole
// batch.
func (m *CLIManager) ExecBatch(ctx context.Context, statements []string) ([]int64, error) {
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

// Transaction turns off autocommit for the duration of fn. The processor
// keeps the unit of work open between invocations of the same backend, so
// commit and rollback are ordinary statements.
func (m *CLIManager) Transaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if !m.connected {
		return errNotConnected()
	}

	if _, err := m.run(ctx, "update", "command", "options", "using", "c", "off"); err != nil {
		return errutil.Wrap(errutil.DatabaseTransaction, "failed to open transaction", err)
	}
	defer m.run(ctx, "update", "command", "options", "using", "c", "on")

	if err := fn(ctx); err != nil {
		if _, rbErr := m.run(ctx, "rollback"); rbErr != nil {
			m.log.Error("rollback failed", "error", rbErr)
		}
		m.log.Debug("transaction rolled back")
		return err
	}

	result, err := m.run(ctx, "commit")
	if err != nil {
		return errutil.Wrap(errutil.DatabaseTransaction, "commit failed", err)
	}
	if result.ExitCode != 0 {
		return errutil.New(errutil.DatabaseTransaction, "commit rejected").
			WithDetail("stderr", strings.TrimSpace(result.Stderr))
	}

	m.log.Debug("transaction committed")
	return nil
}

func (m *CLIManager) TableInfo(ctx context.Context, table string) ([]TableColumn, error) {
	rows, err := m.Query(ctx,
		"SELECT COLNAME, TYPENAME, LENGTH, NULLS FROM SYSCAT.COLUMNS "+
			"WHERE TABNAME = UPPER(?) ORDER BY COLNO", table)
	if err != nil {
		return nil, err
	}
	return columnsFromCatalog(rows), nil
}

func (m *CLIManager) DatabaseInfo(ctx context.Context) (Row, error) {
	rows, err := m.Query(ctx, "SELECT * FROM SYSIBMADM.ENV_INST_INFO")
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return Row{}, nil
	}
	return rows[0], nil
}

func (m *CLIManager) Ping(ctx context.Context) error {
	rows, err := m.Query(ctx, "SELECT 1 FROM SYSIBM.SYSDUMMY1")
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errutil.New(errutil.DatabaseConnection, "ping returned no rows")
	}
	return nil
}

func errNotConnected() error {
	return errutil.New(errutil.DatabaseConnection, "database connection not established")
}

// parseExportFile reads a delimited export where the first record names the
// columns. All values come back as strings; the processor does not carry
// type information through the export format.
func parseExportFile(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errutil.Wrap(errutil.DatabaseQuery, "failed to read query results", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	columns, err := reader.Read()
	if err == io.EOF {
		return []Row{}, nil
	}
	if err != nil {
		return nil, errutil.Wrap(errutil.DatabaseQuery, "malformed query results", err)
	}

	rows := []Row{}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errutil.Wrap(errutil.DatabaseQuery, "malformed query results", err)
		}

		row := Row{}
		for i, value := range record {
			if i < len(columns) {
				row[columns[i]] = value
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

func parseRowsAffected(stdout string) int64 {
	match := rowsAffectedPattern.FindStringSubmatch(stdout)
	if match == nil {
		return 0
	}
	return cast.ToInt64(match[1])
}

func columnsFromCatalog(rows []Row) []TableColumn {
	columns := make([]TableColumn, 0, len(rows))
	for _, row := range rows {
		columns = append(columns, TableColumn{
			Name:     cast.ToString(row["COLNAME"]),
			Type:     cast.ToString(row["TYPENAME"]),
			Length:   cast.ToInt(row["LENGTH"]),
			Nullable: cast.ToString(row["NULLS"]) == "Y",
		})
	}
	return columns
}

func verb(statement string) string {
	fields := strings.Fields(statement)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}
