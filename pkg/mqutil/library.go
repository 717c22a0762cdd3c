package mqutil

import (
	"context"
	"log/slog"
	"time"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
	"github.com/psanodiya94/gocommon/pkg/logutil"
)

// LibraryManager talks MQI through the native client. Unlike the CLI
// backend it holds a real connection handle, reads descriptor metadata into
// Properties, and supports waiting server-side for messages to arrive.
type LibraryManager struct {
	cfg  cfgutil.MessagingConfig
	log  *slog.Logger
	conn nativeConn

	// dial is swapped in tests to substitute an in-memory connection.
	dial func(cfg cfgutil.MessagingConfig) (nativeConn, error)
}

func NewLibraryManager(cfg cfgutil.MessagingConfig, log *slog.Logger) (*LibraryManager, error) {
	if !NativeAvailable() {
		return nil, errutil.New(errutil.AdapterNotAvailable, "native messaging client not compiled in")
	}

	if log == nil {
		log = slog.Default()
	}
	return &LibraryManager{
		cfg:  cfg,
		log:  log.With("component", "mq-library"),
		dial: nativeDial,
	}, nil
}

func (m *LibraryManager) Connect(ctx context.Context) error {
	conn, err := m.dial(m.cfg)
	if err != nil {
		return errutil.Wrap(errutil.MessagingConnection, "failed to connect to queue manager", err,
			"queue_manager", m.cfg.QueueManager)
	}

	m.conn = conn
	m.log.Info("connected to queue manager",
		"queue_manager", m.cfg.QueueManager, "host", m.cfg.Host)
	return nil
}

func (m *LibraryManager) Disconnect(ctx context.Context) error {
	if m.conn == nil {
		return nil
	}

	err := m.conn.Close()
	m.conn = nil
	if err != nil {
		return errutil.Wrap(errutil.MessagingConnection, "failed to close queue manager connection", err)
	}

	m.log.Info("disconnected from queue manager",
		"queue_manager", m.cfg.QueueManager)
	return nil
}

func (m *LibraryManager) IsConnected() bool {
	return m.conn != nil
}

func (m *LibraryManager) Put(ctx context.Context, queue string, msg Message) error {
	if m.conn == nil {
		return errMQNotConnected()
	}

	start := time.Now()
	if err := m.conn.Put(queue, msg); err != nil {
		return err
	}

	logutil.MessagingOperation(m.log, "PUT", queue, len(msg.Payload), time.Since(start))
	return nil
}

func (m *LibraryManager) Get(ctx context.Context, queue string, wait time.Duration) (*Message, error) {
	if m.conn == nil {
		return nil, errMQNotConnected()
	}
	if wait <= 0 {
		wait = m.cfg.TimeoutDuration()
	}

	start := time.Now()
	msg, err := m.conn.Get(queue, wait)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, nil
	}

	logutil.MessagingOperation(m.log, "GET", queue, len(msg.Payload), time.Since(start))
	return msg, nil
}

func (m *LibraryManager) Browse(ctx context.Context, queue string) (*Message, error) {
	if m.conn == nil {
		return nil, errMQNotConnected()
	}
	return m.conn.Browse(queue)
}

func (m *LibraryManager) QueueDepth(ctx context.Context, queue string) (int, error) {
	if m.conn == nil {
		return 0, errMQNotConnected()
	}
	return m.conn.Depth(queue)
}

// Ping verifies the connection handle still reaches the queue manager by
// inquiring a system queue. A missing system queue still proves the queue
// manager answered.
func (m *LibraryManager) Ping(ctx context.Context) error {
	if m.conn == nil {
		return errMQNotConnected()
	}

	_, err := m.conn.Depth("SYSTEM.DEFAULT.LOCAL.QUEUE")
	if err != nil && !errutil.IsKind(err, errutil.QueueNotFound) {
		return err
	}
	return nil
}

// Purge drains the queue with non-waiting gets. MQI has no clear verb for
// client connections, so messages are discarded one at a time.
func (m *LibraryManager) Purge(ctx context.Context, queue string) (int, error) {
	if m.conn == nil {
		return 0, errMQNotConnected()
	}

	purged := 0
	for {
		if err := ctx.Err(); err != nil {
			return purged, errutil.Wrap(errutil.MessagingTimeout, "purge interrupted", err,
				"queue", queue)
		}

		msg, err := m.conn.Get(queue, time.Millisecond)
		if err != nil {
			return purged, err
		}
		if msg == nil {
			break
		}
		purged++
	}

	m.log.Info("queue purged", "queue", queue, "messages", purged)
	return purged, nil
}
