// Package adapterutil selects between the CLI and native library backends
// for database and messaging access. It probes once which backends are
// usable in this process and constructs managers accordingly, falling back
// from library to CLI when the native bindings are not compiled in.
package adapterutil

import (
	"os/exec"
	"sync"

	"github.com/psanodiya94/gocommon/pkg/dbutil"
	"github.com/psanodiya94/gocommon/pkg/mqutil"
)

// Availability reports which backends this process can use.
type Availability struct {
	DatabaseCLI      bool `json:"database_cli" logfield:"database_cli"`
	DatabaseLibrary  bool `json:"database_library" logfield:"database_library"`
	MessagingCLI     bool `json:"messaging_cli" logfield:"messaging_cli"`
	MessagingLibrary bool `json:"messaging_library" logfield:"messaging_library"`
}

var (
	probeOnce sync.Once
	probed    Availability

	// Swapped in tests.
	lookPath = exec.LookPath
	dbNative = dbutil.NativeAvailable
	mqNative = mqutil.NativeAvailable
)

// Probe inspects the process environment once and caches the result. PATH
// and compiled-in drivers do not change at runtime, so repeated calls are
// free.
func Probe() Availability {
	probeOnce.Do(func() {
		probed = Availability{
			DatabaseCLI:      haveBinary("db2"),
			DatabaseLibrary:  dbNative(),
			MessagingCLI:     haveBinary("runmqsc") && haveBinary("amqsput") && haveBinary("amqsget"),
			MessagingLibrary: mqNative(),
		}
	})
	return probed
}

func haveBinary(name string) bool {
	_, err := lookPath(name)
	return err == nil
}

// resetProbe clears the cached probe result so tests can exercise different
// environments.
func resetProbe() {
	probeOnce = sync.Once{}
}
