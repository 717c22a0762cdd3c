package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psanodiya94/gocommon/pkg/cmdutil"
)

func newConfigCommand(app *app) *cobra.Command {
	cmd := cmdutil.New("config", "Configuration management")

	cmd.AddCommand(cmdutil.New("show", "Show the effective configuration",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			cfg, _, err := app.setup()
			if err != nil {
				return err
			}
			renderJSON(cfg.Dump())
			return nil
		}),
	))

	get := cmdutil.New("get", "Get a configuration value",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			cfg, _, err := app.setup()
			if err != nil {
				return err
			}
			fmt.Println(cfg.Get(args[0], "<not set>"))
			return nil
		}),
	)
	get.Args = cobra.ExactArgs(1)
	cmd.AddCommand(get)

	set := cmdutil.New("set", "Set a configuration value",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			cfg, log, err := app.setup()
			if err != nil {
				return err
			}

			cfg.Set(args[0], args[1])
			if cfg.Path() != "" {
				if err := cfg.SaveTo(cfg.Path()); err != nil {
					return err
				}
				log.Info("configuration saved", "path", cfg.Path())
			}

			fmt.Printf("%s = %s\n", args[0], args[1])
			return nil
		}),
	)
	set.Args = cobra.ExactArgs(2)
	cmd.AddCommand(set)

	return cmd
}
