package runutil

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
)

type fakeComponent struct {
	phases []string

	initErr  error
	runErr   error
	cleanErr error
	runPanic string
}

func (c *fakeComponent) Initialize(ctx context.Context) error {
	c.phases = append(c.phases, "initialize")
	return c.initErr
}

func (c *fakeComponent) Run(ctx context.Context) error {
	c.phases = append(c.phases, "run")
	if c.runPanic != "" {
		panic(c.runPanic)
	}
	return c.runErr
}

func (c *fakeComponent) Cleanup(ctx context.Context) error {
	c.phases = append(c.phases, "cleanup")
	return c.cleanErr
}

func TestStartRunsAllPhases(t *testing.T) {
	c := &fakeComponent{}

	err := Start(context.Background(), slog.Default(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"initialize", "run", "cleanup"}, c.phases)
}

func TestStartCleansUpAfterInitializeFailure(t *testing.T) {
	c := &fakeComponent{initErr: errutil.New(errutil.Configuration, "bad config")}

	err := Start(context.Background(), slog.Default(), c)
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.ComponentInitialization))
	assert.Equal(t, []string{"initialize", "cleanup"}, c.phases)
}

func TestStartCleansUpAfterRunFailure(t *testing.T) {
	c := &fakeComponent{runErr: errutil.New(errutil.DatabaseQuery, "boom")}

	err := Start(context.Background(), slog.Default(), c)
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.ComponentExecution))
	assert.Equal(t, []string{"initialize", "run", "cleanup"}, c.phases)
}

func TestStartRecoversPanic(t *testing.T) {
	c := &fakeComponent{runPanic: "something went sideways"}

	err := Start(context.Background(), slog.Default(), c)
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.ComponentExecution))
	assert.Contains(t, err.Error(), "something went sideways")

	// Cleanup still ran while the panic unwound.
	assert.Equal(t, []string{"initialize", "run", "cleanup"}, c.phases)
}

func TestStartToleratesCleanupFailure(t *testing.T) {
	c := &fakeComponent{cleanErr: errutil.New(errutil.MessagingConnection, "hung")}

	// A failing cleanup after a successful run is logged, not returned.
	err := Start(context.Background(), slog.Default(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"initialize", "run", "cleanup"}, c.phases)
}

func TestStartRunFailureWinsOverCleanupFailure(t *testing.T) {
	c := &fakeComponent{
		runErr:   errutil.New(errutil.DatabaseQuery, "boom"),
		cleanErr: errutil.New(errutil.MessagingConnection, "hung"),
	}

	err := Start(context.Background(), slog.Default(), c)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.NotContains(t, err.Error(), "hung")
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	factory := func(base *Base) Component { return &fakeComponent{} }

	require.NoError(t, r.Register("importer", factory))
	require.NoError(t, r.Register("exporter", factory))
	assert.Equal(t, 2, r.Len())
	assert.Equal(t, []string{"exporter", "importer"}, r.Names())

	err := r.Register("importer", factory)
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.Validation))

	got, err := r.Get("importer")
	require.NoError(t, err)
	assert.NotNil(t, got)

	_, err = r.Get("missing")
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.Validation))

	require.NoError(t, r.Unregister("importer"))
	assert.Error(t, r.Unregister("importer"))

	r.Clear()
	assert.Equal(t, 0, r.Len())
}

func TestNewBaseFromConfig(t *testing.T) {
	dir := t.TempDir()
	cfg := cfgutil.New()
	cfg.Set("logging.console", false)
	cfg.Set("logging.dir", dir)

	base, err := NewBaseFromConfig("unit", cfg)
	require.NoError(t, err)

	assert.Equal(t, "unit", base.Name)
	assert.NotNil(t, base.Log)
	assert.NotNil(t, base.DB)
	assert.NotNil(t, base.MQ)

	// Each component logs to its own file.
	_, err = os.Stat(filepath.Join(dir, "unit.log"))
	assert.NoError(t, err)

	base.SetConfig("batch.size", 50)
	assert.Equal(t, 50, base.GetConfig("batch.size", 0))

	// Nothing connected yet, so release is a no-op.
	base.ReleaseAll(context.Background())
	assert.False(t, base.DB.IsConnected())
	assert.False(t, base.MQ.IsConnected())
}

func TestNewBaseMissingConfigFile(t *testing.T) {
	_, err := NewBase("unit", "/does/not/exist.yaml")
	require.Error(t, err)
	assert.True(t, errutil.IsKind(err, errutil.ComponentInitialization))
}
