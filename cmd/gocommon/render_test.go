package main

import (
	"io"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psanodiya94/gocommon/pkg/dbutil"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()

	original := os.Stdout
	r, w, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout = w
	defer func() { os.Stdout = original }()

	fn()

	require.NoError(t, w.Close())
	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestRenderRows(t *testing.T) {
	out := captureStdout(t, func() {
		renderRows([]dbutil.Row{
			{"ID": "1", "NAME": "alice"},
			{"ID": "2", "NAME": "bob"},
		})
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "ID  NAME", lines[0])
	assert.Equal(t, "--  -----", lines[1])
	assert.Equal(t, "1   alice", lines[2])
	assert.Equal(t, "2   bob", lines[3])
	assert.Equal(t, "2 row(s)", lines[4])
}

func TestRenderRowsEmpty(t *testing.T) {
	out := captureStdout(t, func() {
		renderRows(nil)
	})
	assert.Equal(t, "(no rows)\n", out)
}

func TestRenderJSON(t *testing.T) {
	out := captureStdout(t, func() {
		renderJSON(map[string]any{"queue": "DEV.QUEUE.1", "depth": 3})
	})

	assert.Contains(t, out, `"queue": "DEV.QUEUE.1"`)
	assert.Contains(t, out, `"depth": 3`)
}

func TestDecodeParams(t *testing.T) {
	values, err := decodeParams(`[1, "two", true]`)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(1), "two", true}, values)

	values, err = decodeParams("")
	require.NoError(t, err)
	assert.Nil(t, values)

	_, err = decodeParams(`{"not": "array"}`)
	assert.Error(t, err)
}
