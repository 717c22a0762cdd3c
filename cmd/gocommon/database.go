package main

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/psanodiya94/gocommon/pkg/cmdutil"
	"github.com/psanodiya94/gocommon/pkg/dbutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
)

func newDatabaseCommand(app *app) *cobra.Command {
	cmd := cmdutil.New("database", "Database operations")

	cmd.AddCommand(cmdutil.New("test", "Test database connection",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return app.withDatabase(ctx, func(ctx context.Context, db dbutil.Manager) error {
				if err := db.Ping(ctx); err != nil {
					return err
				}
				fmt.Println("Database connection OK")
				return nil
			})
		}),
	))

	var params string
	execute := cmdutil.New("execute", "Execute a SQL statement",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errutil.New(errutil.Validation, "expected exactly one SQL statement")
			}
			values, err := decodeParams(params)
			if err != nil {
				return err
			}
			return app.withDatabase(ctx, func(ctx context.Context, db dbutil.Manager) error {
				return executeStatement(ctx, db, args[0], values)
			})
		}),
	)
	execute.Flags().StringVarP(&params, "params", "p", "",
		"statement parameters as a JSON array")
	execute.Args = cobra.ExactArgs(1)
	cmd.AddCommand(execute)

	info := cmdutil.New("info", "Show table columns",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			return app.withDatabase(ctx, func(ctx context.Context, db dbutil.Manager) error {
				columns, err := db.TableInfo(ctx, args[0])
				if err != nil {
					return err
				}
				renderTableColumns(columns)
				return nil
			})
		}),
	)
	info.Args = cobra.ExactArgs(1)
	cmd.AddCommand(info)

	return cmd
}

// withDatabase builds a manager from the configuration, connects, runs fn
// and always disconnects.
func (a *app) withDatabase(ctx context.Context, fn func(ctx context.Context, db dbutil.Manager) error) error {
	cfg, log, err := a.setup()
	if err != nil {
		return err
	}

	db, err := a.database(cfg, log)
	if err != nil {
		return err
	}

	if err := db.Connect(ctx); err != nil {
		return err
	}
	defer db.Disconnect(ctx)

	return fn(ctx, db)
}

func executeStatement(ctx context.Context, db dbutil.Manager, statement string, params []any) error {
	if strings.HasPrefix(strings.ToUpper(strings.TrimSpace(statement)), "SELECT") {
		rows, err := db.Query(ctx, statement, params...)
		if err != nil {
			return err
		}
		renderRows(rows)
		return nil
	}

	affected, err := db.Exec(ctx, statement, params...)
	if err != nil {
		return err
	}
	fmt.Printf("%d row(s) affected\n", affected)
	return nil
}

func decodeParams(raw string) ([]any, error) {
	if raw == "" {
		return nil, nil
	}

	var values []any
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil, errutil.Wrap(errutil.Validation, "parameters must be a JSON array", err)
	}
	return values, nil
}
