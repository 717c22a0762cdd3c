package runutil

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
)

// CommandRunner adapts a component to a cobra command. Bind registers the
// standard component flags, Run executes the full lifecycle. Use it with
// cmdutil.WithRunner:
//
//	cmdutil.New("importer", "Nightly import",
//	    cmdutil.WithRunner(&runutil.CommandRunner{
//	        Name: "importer",
//	        New:  NewImporter,
//	    }),
//	)
type CommandRunner struct {
	Name string
	New  Factory

	configFile string
	verbose    bool
	dryRun     bool
}

func (r *CommandRunner) Bind(cmd *cobra.Command) error {
	cmd.PersistentFlags().StringVarP(
		&r.configFile, "config", "c", "",
		"configuration file path")
	cmd.PersistentFlags().BoolVarP(
		&r.verbose, "verbose", "v", false,
		"enable debug logging")
	cmd.PersistentFlags().BoolVar(
		&r.dryRun, "dry-run", false,
		"go through the motions without touching external systems")
	return nil
}

func (r *CommandRunner) Run(ctx context.Context, cmd *cobra.Command, args []string) error {
	cfg, err := cfgutil.Load(r.configFile)
	if err != nil {
		return err
	}
	if r.verbose {
		cfg.Set("logging.level", "DEBUG")
	}

	base, err := NewBaseFromConfig(r.Name, cfg)
	if err != nil {
		return err
	}
	defer base.ReleaseAll(ctx)

	if r.dryRun {
		base.SetConfig("dry_run", true)
		base.Log.Info("running in dry-run mode")
	}

	return Start(ctx, base.Log, r.New(base))
}
