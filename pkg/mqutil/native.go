package mqutil

import (
	"time"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
)

// nativeConn is the surface LibraryManager needs from an MQI client
// connection. The real implementation lives behind the ibmmq build tag;
// tests substitute an in-memory one.
type nativeConn interface {
	Put(queue string, msg Message) error
	Get(queue string, wait time.Duration) (*Message, error)
	Browse(queue string) (*Message, error)
	Depth(queue string) (int, error)
	Close() error
}

// nativeDial is set by the ibmmq build when the MQI client libraries are
// compiled in. It stays nil otherwise, which NativeAvailable and the
// adapter factory use to decide on fallback.
var nativeDial func(cfg cfgutil.MessagingConfig) (nativeConn, error)

// NativeAvailable reports whether the native MQI client is compiled into
// this binary.
func NativeAvailable() bool {
	return nativeDial != nil
}
