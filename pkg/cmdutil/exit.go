package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/pkg/errors"
)

const (
	ExitCodeOK           = 0
	ExitCodeGeneralError = 1
	ExitCodeInterrupt    = 130
)

type exitCode struct {
	code int
}

// Exit causes the current program to exit with the given status code. On the
// contrary to os.Exit, it respects defer statements. It requires the
// HandleExit function to be deferred in top of the main function.
//
// Internally this is done by throwing a panic with the exitCode type, which
// gets recovered in the HandleExit function.
func Exit(code int) {
	panic(exitCode{code: code})
}

// HandleExit recovers from Exit calls and terminates the current program with
// a proper exit code. It should get deferred at the beginning of the main
// function.
func HandleExit() {
	if e := recover(); e != nil {
		if exit, ok := e.(exitCode); ok {
			os.Exit(exit.code)
		}
		panic(e) // not an Exit, bubble up
	}
}

// ExitCodeFromError maps an error onto the process exit code: success,
// interrupt, or general failure.
func ExitCodeFromError(err error) int {
	switch {
	case err == nil:
		return ExitCodeOK
	case errors.Is(err, context.Canceled):
		return ExitCodeInterrupt
	default:
		return ExitCodeGeneralError
	}
}

// Must exits the application if err is not nil. The error is logged with its
// full chain on debug level before the short form, so wrapped causes stay
// inspectable.
func Must(err error) {
	if err == nil {
		return
	}

	slog.Debug(fmt.Sprintf("%+v", err))
	slog.Error(err.Error())
	Exit(ExitCodeFromError(err))
}
