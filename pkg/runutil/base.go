package runutil

import (
	"context"
	"log/slog"
	"time"

	"github.com/psanodiya94/gocommon/pkg/adapterutil"
	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/dbutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
	"github.com/psanodiya94/gocommon/pkg/logutil"
	"github.com/psanodiya94/gocommon/pkg/mqutil"
)

// Base bundles the framework services a component works with. Embed it in a
// component struct to get configuration access, a named logger and lazily
// connected database and messaging managers.
type Base struct {
	Name   string
	Config *cfgutil.Config
	Log    *slog.Logger
	DB     dbutil.Manager
	MQ     mqutil.Manager
}

// NewBase loads the configuration file and wires up the framework services
// for a component. An empty configFile starts from built-in defaults.
func NewBase(name, configFile string) (*Base, error) {
	cfg, err := cfgutil.Load(configFile)
	if err != nil {
		return nil, errutil.Wrap(errutil.ComponentInitialization, "failed to load configuration", err,
			"component", name)
	}
	return NewBaseFromConfig(name, cfg)
}

// NewBaseFromConfig wires up the framework services from an already loaded
// configuration. Each component logs to its own file, named after it.
func NewBaseFromConfig(name string, cfg *cfgutil.Config) (*Base, error) {
	logCfg, err := cfg.Logging()
	if err != nil {
		return nil, errutil.Wrap(errutil.ComponentInitialization, "invalid logging configuration", err)
	}

	opts := logutil.FromConfig(name, logCfg)
	opts.File = name + ".log"

	log, err := logutil.New(opts)
	if err != nil {
		return nil, errutil.Wrap(errutil.ComponentInitialization, "failed to set up logging", err)
	}

	dbCfg, err := cfg.Database()
	if err != nil {
		return nil, errutil.Wrap(errutil.ComponentInitialization, "invalid database configuration", err)
	}
	db, err := adapterutil.NewDatabaseManager(dbCfg, log)
	if err != nil {
		return nil, errutil.Wrap(errutil.ComponentInitialization, "failed to create database manager", err)
	}

	mqCfg, err := cfg.Messaging()
	if err != nil {
		return nil, errutil.Wrap(errutil.ComponentInitialization, "invalid messaging configuration", err)
	}
	mq, err := adapterutil.NewMessagingManager(mqCfg, log)
	if err != nil {
		return nil, errutil.Wrap(errutil.ComponentInitialization, "failed to create messaging manager", err)
	}

	log.Info("component services initialized", "component", name)

	return &Base{
		Name:   name,
		Config: cfg,
		Log:    log,
		DB:     db,
		MQ:     mq,
	}, nil
}

// GetConfig reads a dotted configuration key with a fallback.
func (b *Base) GetConfig(key string, def any) any {
	return b.Config.Get(key, def)
}

// SetConfig overrides a dotted configuration key in memory.
func (b *Base) SetConfig(key string, value any) {
	b.Config.Set(key, value)
}

// ConnectDatabase opens the database connection.
func (b *Base) ConnectDatabase(ctx context.Context) error {
	return b.DB.Connect(ctx)
}

// ConnectMessaging opens the queue manager connection.
func (b *Base) ConnectMessaging(ctx context.Context) error {
	return b.MQ.Connect(ctx)
}

// Query runs a SELECT through the database manager.
func (b *Base) Query(ctx context.Context, query string, params ...any) ([]dbutil.Row, error) {
	return b.DB.Query(ctx, query, params...)
}

// Exec runs a DML statement through the database manager.
func (b *Base) Exec(ctx context.Context, statement string, params ...any) (int64, error) {
	return b.DB.Exec(ctx, statement, params...)
}

// Send puts a message on a queue.
func (b *Base) Send(ctx context.Context, queue string, msg mqutil.Message) error {
	return b.MQ.Put(ctx, queue, msg)
}

// Receive reads a message from a queue, returning nil when none arrives
// within the wait interval.
func (b *Base) Receive(ctx context.Context, queue string, wait time.Duration) (*mqutil.Message, error) {
	return b.MQ.Get(ctx, queue, wait)
}

// ReleaseAll disconnects whatever is still connected. Errors are logged and
// swallowed; release runs on the way out when there is nothing left to do
// about them.
func (b *Base) ReleaseAll(ctx context.Context) {
	if b.DB != nil && b.DB.IsConnected() {
		if err := b.DB.Disconnect(ctx); err != nil {
			b.Log.Warn("failed to disconnect database", "error", err)
		}
	}
	if b.MQ != nil && b.MQ.IsConnected() {
		if err := b.MQ.Disconnect(ctx); err != nil {
			b.Log.Warn("failed to disconnect messaging", "error", err)
		}
	}
}
