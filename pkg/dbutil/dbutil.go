// Package dbutil provides access to IBM DB2 behind a backend-neutral Manager
// interface. Two implementations exist: CLIManager shells out to the db2
// command line processor, LibraryManager speaks to the server through
// database/sql with the native driver. Both return identical result shapes,
// so callers can be moved between them without code changes.
package dbutil

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Row is a single result row keyed by column name.
type Row map[string]any

// TableColumn describes one column of a table, as reported by the catalog.
type TableColumn struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Length   int    `json:"length"`
	Nullable bool   `json:"nullable"`
}

// Manager is the backend-neutral database contract.
type Manager interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	IsConnected() bool

	Query(ctx context.Context, query string, params ...any) ([]Row, error)
	Exec(ctx context.Context, statement string, params ...any) (int64, error)
	ExecBatch(ctx context.Context, statements []string) ([]int64, error)
	Transaction(ctx context.Context, fn func(ctx context.Context) error) error

	TableInfo(ctx context.Context, table string) ([]TableColumn, error)
	DatabaseInfo(ctx context.Context) (Row, error)
	Ping(ctx context.Context) error
}

// interpolate substitutes positional `?` markers with literal values. The
// CLI processor has no parameter binding, so values are rendered inline with
// single quotes doubled. A `?` inside a quoted string literal is text, not a
// marker.
func interpolate(statement string, params []any) (string, error) {
	if len(params) == 0 {
		return statement, nil
	}

	var b strings.Builder
	idx := 0
	quoted := false
	for _, r := range statement {
		if r == '\'' {
			// A doubled quote inside a literal flips the state twice,
			// which lands back where it belongs.
			quoted = !quoted
		}
		if r != '?' || quoted {
			b.WriteRune(r)
			continue
		}
		if idx >= len(params) {
			return "", fmt.Errorf("statement has more markers than parameters (%d)", len(params))
		}
		b.WriteString(literal(params[idx]))
		idx++
	}
	if idx != len(params) {
		return "", fmt.Errorf("statement has %d markers but %d parameters", idx, len(params))
	}
	return b.String(), nil
}

func literal(v any) string {
	switch t := v.(type) {
	case nil:
		return "NULL"
	case bool:
		if t {
			return "1"
		}
		return "0"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", t)
	case float32, float64:
		return fmt.Sprintf("%v", t)
	case time.Time:
		return "'" + t.Format("2006-01-02 15:04:05") + "'"
	case []byte:
		return "'" + strings.ReplaceAll(string(t), "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", t), "'", "''") + "'"
	}
}
