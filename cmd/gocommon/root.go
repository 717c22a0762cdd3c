package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/psanodiya94/gocommon/pkg/adapterutil"
	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/cmdutil"
	"github.com/psanodiya94/gocommon/pkg/dbutil"
	"github.com/psanodiya94/gocommon/pkg/logutil"
	"github.com/psanodiya94/gocommon/pkg/mqutil"
)

func NewRootCommand() *cobra.Command {
	app := new(app)
	return cmdutil.New("gocommon", "Uniform access to DB2, MQ and configuration",
		app.Bind,
		cmdutil.WithVersionCommand(),
		cmdutil.WithSubCommand(newDatabaseCommand(app)),
		cmdutil.WithSubCommand(newMessagingCommand(app)),
		cmdutil.WithSubCommand(newConfigCommand(app)),
		cmdutil.WithSubCommand(newTestAllCommand(app)),
	)
}

type app struct {
	configFile string
	verbose    bool
	quiet      bool
}

func (a *app) Bind(cmd *cobra.Command) error {
	cmd.PersistentFlags().StringVarP(
		&a.configFile, "config", "c", "",
		"configuration file path")
	cmd.PersistentFlags().BoolVarP(
		&a.verbose, "verbose", "v", false,
		"enable debug logging")
	cmd.PersistentFlags().BoolVarP(
		&a.quiet, "quiet", "q", false,
		"only log errors")
	return nil
}

// setup loads the configuration and builds the logger the subcommands share.
func (a *app) setup() (*cfgutil.Config, *slog.Logger, error) {
	cfg, err := cfgutil.Load(a.configFile)
	if err != nil {
		return nil, nil, err
	}

	logCfg, err := cfg.Logging()
	if err != nil {
		return nil, nil, err
	}

	opts := logutil.FromConfig("gocommon", logCfg)
	if a.verbose {
		opts.Level = "DEBUG"
	}
	if a.quiet {
		opts.Level = "ERROR"
	}

	log, err := logutil.New(opts)
	if err != nil {
		return nil, nil, err
	}

	slog.SetDefault(log)
	return cfg, log, nil
}

func (a *app) database(cfg *cfgutil.Config, log *slog.Logger) (dbutil.Manager, error) {
	dbCfg, err := cfg.Database()
	if err != nil {
		return nil, err
	}
	return adapterutil.NewDatabaseManager(dbCfg, log)
}

func (a *app) messaging(cfg *cfgutil.Config, log *slog.Logger) (mqutil.Manager, error) {
	mqCfg, err := cfg.Messaging()
	if err != nil {
		return nil, err
	}
	return adapterutil.NewMessagingManager(mqCfg, log)
}
