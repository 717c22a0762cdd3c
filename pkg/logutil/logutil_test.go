package logutil

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"DEBUG":    slog.LevelDebug,
		"debug":    slog.LevelDebug,
		"INFO":     slog.LevelInfo,
		"WARNING":  slog.LevelWarn,
		"WARN":     slog.LevelWarn,
		"ERROR":    slog.LevelError,
		"CRITICAL": slog.LevelError,
		"bogus":    slog.LevelInfo,
		"":         slog.LevelInfo,
	}

	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNewConsoleJSON(t *testing.T) {
	var buf bytes.Buffer

	log, err := New(Options{
		Name:          "test",
		Level:         "DEBUG",
		Console:       true,
		JSONFormat:    true,
		ConsoleWriter: &buf,
	})
	require.NoError(t, err)

	log.Info("hello", "queue", "DEV.Q1")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "hello", record["msg"])
	assert.Equal(t, "DEV.Q1", record["queue"])
	assert.Equal(t, "test", record["logger"])
}

func TestNewConsoleRespectsLevel(t *testing.T) {
	var buf bytes.Buffer

	log, err := New(Options{
		Level:         "ERROR",
		Console:       true,
		ConsoleWriter: &buf,
	})
	require.NoError(t, err)

	log.Info("invisible")
	assert.Empty(t, buf.String())

	log.Error("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNewFileHandler(t *testing.T) {
	dir := t.TempDir()

	log, err := New(Options{
		Name:        "component",
		Level:       "INFO",
		File:        "component.log",
		Dir:         filepath.Join(dir, "log"),
		JSONFormat:  true,
		MaxSize:     1024,
		BackupCount: 2,
	})
	require.NoError(t, err)

	// file handlers log down to debug regardless of console level
	log.Debug("written to file")

	raw, err := os.ReadFile(filepath.Join(dir, "log", "component.log"))
	require.NoError(t, err)
	assert.Contains(t, string(raw), "written to file")
}

func TestNewWithoutHandlersDiscards(t *testing.T) {
	log, err := New(Options{})
	require.NoError(t, err)
	log.Info("goes nowhere")
}

func TestFromConfig(t *testing.T) {
	opts := FromConfig("comp", cfgutil.LoggingConfig{
		Level:       "WARNING",
		File:        "comp.log",
		Dir:         "log",
		MaxSize:     1,
		BackupCount: 3,
		Console:     true,
		Colored:     true,
	})

	assert.Equal(t, "comp", opts.Name)
	assert.Equal(t, "WARNING", opts.Level)
	assert.Equal(t, "comp.log", opts.File)
	assert.Equal(t, 3, opts.BackupCount)
	assert.True(t, opts.Console)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{}))

	ctx := Start(context.Background(), "cli", base)
	ctx = Start(ctx, "database", nil)
	ctx = WithField(ctx, "table", "ORDERS")

	assert.Equal(t, "/cli/database", Subsystem(ctx))

	Get(ctx).Info("query done")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "/cli/database", record["subsystem"])
	assert.Equal(t, "ORDERS", record["table"])
	assert.NotEmpty(t, record["trace-id-cli"])
	assert.NotEmpty(t, record["trace-id-database"])
}

func TestGetWithoutScope(t *testing.T) {
	assert.NotNil(t, Get(context.Background()))
	assert.Equal(t, "", Subsystem(context.Background()))
}

func TestFromStruct(t *testing.T) {
	type queueInfo struct {
		Name  string `logfield:"queue-name"`
		Depth int    `logfield:"queue-depth"`
	}

	fields := FromStruct(queueInfo{Name: "DEV.Q1", Depth: 7})
	assert.Equal(t, map[string]any{"queue-name": "DEV.Q1", "queue-depth": 7}, fields)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 10))
	assert.Equal(t, strings.Repeat("x", 10)+"...", Truncate(strings.Repeat("x", 25), 10))
}
