package cmdutil

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

// The Build* variables are used by NewVersionCommand. They should be
// overwritten on build time by using ldflags.
var (
	Name       = "unknown"
	Version    = "unknown"
	BuildDate  = "unknown"
	CommitHash = "unknown"
)

// NewVersionCommand creates a Cobra command, which prints the version and
// other build parameters (see Build* variables) and exits.
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Shows version of this application",
		PersistentPreRun:  func(cmd *cobra.Command, args []string) {},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Name:       %s\n", Name)
			fmt.Printf("Version:    %s\n", Version)
			fmt.Printf("BuildDate:  %s\n", BuildDate)
			fmt.Printf("CommitHash: %s\n", CommitHash)
		},
	}
}

func WithVersionCommand() Option {
	return func(cmd *cobra.Command) error {
		cmd.AddCommand(NewVersionCommand())
		return nil
	}
}

func WithVersionLog(level slog.Level) Option {
	return func(cmd *cobra.Command) error {
		cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
			slog.Log(cmd.Context(), level, fmt.Sprintf("%s started", Name),
				"version", Version,
				"commit", CommitHash,
			)
		}
		return nil
	}
}
