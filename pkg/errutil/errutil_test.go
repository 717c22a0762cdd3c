package errutil

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "plain",
			err:  New(Configuration, "config file not found"),
			want: "configuration: config file not found",
		},
		{
			name: "with details sorted",
			err: New(DatabaseConnection, "connect failed").
				WithDetail("host", "db2.example.com").
				WithDetail("database", "testdb"),
			want: "database_connection: connect failed (database=testdb, host=db2.example.com)",
		},
		{
			name: "with cause",
			err:  Wrap(MessageSend, "put failed", fmt.Errorf("broken pipe")),
			want: "message_send: put failed: broken pipe",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestWrapNil(t *testing.T) {
	// The nil must be an untyped nil so an unconditional
	// `return errutil.Wrap(...)` stays a success.
	assert.True(t, Wrap(DatabaseQuery, "whatever", nil) == nil)
	assert.True(t, Wrapf(DatabaseQuery, nil, "whatever %d", 1) == nil)
}

func TestWrapDetailPairs(t *testing.T) {
	err := Wrap(MessageSend, "put failed", fmt.Errorf("broken pipe"),
		"queue", "DEV.Q1", "bytes", 42)

	var e *E
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "DEV.Q1", e.Details["queue"])
	assert.Equal(t, 42, e.Details["bytes"])
}

func TestKindSurvivesWrapping(t *testing.T) {
	inner := New(QueueNotFound, "no such queue").WithDetail("queue", "DEV.Q1")

	outer := fmt.Errorf("receive loop: %w", inner)
	assert.Equal(t, QueueNotFound, KindOf(outer))
	assert.True(t, IsKind(outer, QueueNotFound))
	assert.False(t, IsKind(outer, MessageReceive))

	stacked := errors.Wrap(outer, "component run")
	assert.Equal(t, QueueNotFound, KindOf(stacked))
}

func TestKindOfForeignError(t *testing.T) {
	assert.Equal(t, Kind(""), KindOf(fmt.Errorf("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestUnwrap(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := Wrap(ComponentExecution, "run failed", cause)
	require.ErrorIs(t, err, cause)
}
