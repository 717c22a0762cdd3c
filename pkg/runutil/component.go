// Package runutil is the component lifecycle framework. A Component declares
// initialization, execution and cleanup; Start drives the three phases and
// guarantees cleanup runs no matter how the earlier phases end, including
// panics. Base bundles the framework services (config, logging, database,
// messaging) a component typically needs.
package runutil

import (
	"context"
	"log/slog"

	"github.com/psanodiya94/gocommon/pkg/errutil"
)

// Component is a unit of work with a three-phase lifecycle.
type Component interface {
	Initialize(ctx context.Context) error
	Run(ctx context.Context) error
	Cleanup(ctx context.Context) error
}

// Start drives the full lifecycle of c. Cleanup always runs, even when
// Initialize or Run fail or panic; a panic is recovered and reported as a
// component execution error rather than crashing the process. A cleanup
// failure is logged and does not affect the returned error.
func Start(ctx context.Context, log *slog.Logger, c Component) (err error) {
	if log == nil {
		log = slog.Default()
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("component panicked", "panic", r)
			err = errutil.Newf(errutil.ComponentExecution, "component panicked: %v", r)
		}
	}()

	defer func() {
		// Cleanup is best effort. A failing release must not turn a
		// successful run into a failure, so the error is only logged.
		if cleanupErr := c.Cleanup(ctx); cleanupErr != nil {
			log.Error("component cleanup failed", "error", cleanupErr)
		}
	}()

	if initErr := c.Initialize(ctx); initErr != nil {
		return errutil.Wrap(errutil.ComponentInitialization, "initialization failed", initErr)
	}

	if runErr := c.Run(ctx); runErr != nil {
		return errutil.Wrap(errutil.ComponentExecution, "execution failed", runErr)
	}

	return nil
}
