package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/psanodiya94/gocommon/pkg/adapterutil"
	"github.com/psanodiya94/gocommon/pkg/cmdutil"
	"github.com/psanodiya94/gocommon/pkg/dbutil"
	"github.com/psanodiya94/gocommon/pkg/mqutil"
)

func newTestAllCommand(app *app) *cobra.Command {
	return cmdutil.New("test-all", "Test every framework service",
		cmdutil.WithRun(func(ctx context.Context, cmd *cobra.Command, args []string) error {
			availability := adapterutil.Probe()
			fmt.Println("Backend availability:")
			fmt.Printf("  database cli:      %v\n", availability.DatabaseCLI)
			fmt.Printf("  database library:  %v\n", availability.DatabaseLibrary)
			fmt.Printf("  messaging cli:     %v\n", availability.MessagingCLI)
			fmt.Printf("  messaging library: %v\n", availability.MessagingLibrary)
			fmt.Println()

			failed := false

			dbErr := app.withDatabase(ctx, func(ctx context.Context, db dbutil.Manager) error {
				return db.Ping(ctx)
			})
			failed = report("database", dbErr) || failed

			mqErr := app.withMessaging(ctx, func(ctx context.Context, mq mqutil.Manager) error {
				return mq.Ping(ctx)
			})
			failed = report("messaging", mqErr) || failed

			if failed {
				cmdutil.Exit(cmdutil.ExitCodeGeneralError)
			}
			fmt.Println("\nAll services OK")
			return nil
		}),
	)
}

func report(service string, err error) bool {
	if err != nil {
		fmt.Printf("%-10s FAIL  %v\n", service, err)
		return true
	}
	fmt.Printf("%-10s OK\n", service)
	return false
}
