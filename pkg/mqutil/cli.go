package mqutil

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cast"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
	"github.com/psanodiya94/gocommon/pkg/executil"
	"github.com/psanodiya94/gocommon/pkg/logutil"
)

var (
	curdepthPattern = regexp.MustCompile(`CURDEPTH\((\d+)\)`)

	// amqsget prints each retrieved payload as `message <payload>`.
	messagePattern = regexp.MustCompile(`(?m)^message <(.*)>$`)
)

// CLIManager drives IBM MQ through the vendor command line tools. Control
// commands go to runmqsc as MQSC scripts on stdin; payload transfer uses the
// amqsput and amqsget samples shipped with every MQ installation.
type CLIManager struct {
	cfg       cfgutil.MessagingConfig
	log       *slog.Logger
	runner    executil.Runner
	connected bool
}

func NewCLIManager(cfg cfgutil.MessagingConfig, log *slog.Logger) *CLIManager {
	if log == nil {
		log = slog.Default()
	}
	return &CLIManager{
		cfg:    cfg,
		log:    log.With("component", "mq-cli"),
		runner: executil.ExecRunner{},
	}
}

func (m *CLIManager) runMQSC(ctx context.Context, command string) (executil.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.TimeoutDuration())
	defer cancel()

	result, err := m.runner.Run(ctx, command+"\n", "runmqsc", m.cfg.QueueManager)
	if errors.Is(err, context.DeadlineExceeded) {
		return result, errutil.Wrap(errutil.MessagingTimeout, "runmqsc timed out", err,
			"command", command)
	}
	if err != nil {
		return result, errutil.Wrap(errutil.MessagingConnection, "runmqsc failed", err)
	}
	return result, nil
}

func (m *CLIManager) Connect(ctx context.Context) error {
	result, err := m.runMQSC(ctx, "DISPLAY QMGR")
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return errutil.New(errutil.MessagingConnection, "queue manager not reachable").
			WithDetail("queue_manager", m.cfg.QueueManager).
			WithDetail("stderr", strings.TrimSpace(result.Stderr))
	}

	m.connected = true
	m.log.Info("connected to queue manager",
		"queue_manager", m.cfg.QueueManager, "host", m.cfg.Host)
	return nil
}

func (m *CLIManager) Disconnect(ctx context.Context) error {
	if !m.connected {
		return nil
	}

	// The samples connect per invocation; there is no handle to release.
	m.connected = false
	m.log.Info("disconnected from queue manager",
		"queue_manager", m.cfg.QueueManager)
	return nil
}

func (m *CLIManager) IsConnected() bool {
	return m.connected
}

func (m *CLIManager) Put(ctx context.Context, queue string, msg Message) error {
	if !m.connected {
		return errMQNotConnected()
	}

	ctx, cancel := context.WithTimeout(ctx, m.cfg.TimeoutDuration())
	defer cancel()

	start := time.Now()
	result, err := m.runner.Run(ctx, msg.Text()+"\n",
		"amqsput", queue, m.cfg.QueueManager)
	if errors.Is(err, context.DeadlineExceeded) {
		return errutil.Wrap(errutil.MessagingTimeout, "put timed out", err,
			"queue", queue)
	}
	if err != nil {
		return errutil.Wrap(errutil.MessageSend, "amqsput failed", err)
	}
	if result.ExitCode != 0 {
		return putError(queue, result)
	}

	logutil.MessagingOperation(m.log, "PUT", queue, len(msg.Payload), time.Since(start))
	return nil
}

func (m *CLIManager) Get(ctx context.Context, queue string, wait time.Duration) (*Message, error) {
	if !m.connected {
		return nil, errMQNotConnected()
	}
	if wait <= 0 {
		wait = m.cfg.TimeoutDuration()
	}

	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	start := time.Now()
	result, err := m.runner.Run(ctx, "", "amqsget", queue, m.cfg.QueueManager)
	if errors.Is(err, context.DeadlineExceeded) {
		// The wait interval elapsing means the queue stayed empty.
		return nil, nil
	}
	if err != nil {
		return nil, errutil.Wrap(errutil.MessageReceive, "amqsget failed", err)
	}
	if result.ExitCode != 0 {
		return nil, getError(queue, result)
	}

	match := messagePattern.FindStringSubmatch(result.Stdout)
	if match == nil {
		return nil, nil
	}

	msg := &Message{
		Payload: []byte(match[1]),
		Properties: Properties{
			MessageID: "cli-" + uuid.NewString(),
			Format:    "MQSTR",
			Priority:  4,
			PutTime:   time.Now().UTC(),
		},
	}

	logutil.MessagingOperation(m.log, "GET", queue, len(msg.Payload), time.Since(start))
	return msg, nil
}

// browseWait bounds the amqsget call behind Browse. A peek at an empty
// queue should come back quickly instead of sitting out the full receive
// timeout.
const browseWait = time.Second

// Browse reads the head message and puts it back. The sample tools have no
// browse cursor, so this reorders the queue when other messages arrive in
// between.
func (m *CLIManager) Browse(ctx context.Context, queue string) (*Message, error) {
	msg, err := m.Get(ctx, queue, browseWait)
	if err != nil || msg == nil {
		return msg, err
	}

	if err := m.Put(ctx, queue, *msg); err != nil {
		return nil, errutil.Wrap(errutil.MessageReceive, "failed to requeue browsed message", err,
			"queue", queue)
	}
	return msg, nil
}

func (m *CLIManager) QueueDepth(ctx context.Context, queue string) (int, error) {
	if !m.connected {
		return 0, errMQNotConnected()
	}

	result, err := m.runMQSC(ctx, "DISPLAY QLOCAL("+queue+") CURDEPTH")
	if err != nil {
		return 0, err
	}
	if err := mqscError(queue, result); err != nil {
		return 0, err
	}

	match := curdepthPattern.FindStringSubmatch(result.Stdout)
	if match == nil {
		return 0, errutil.New(errutil.MessageReceive, "depth missing from display output").
			WithDetail("queue", queue)
	}
	return cast.ToInt(match[1]), nil
}

func (m *CLIManager) Purge(ctx context.Context, queue string) (int, error) {
	depth, err := m.QueueDepth(ctx, queue)
	if err != nil {
		return 0, err
	}

	result, err := m.runMQSC(ctx, "CLEAR QLOCAL("+queue+")")
	if err != nil {
		return 0, err
	}
	if err := mqscError(queue, result); err != nil {
		return 0, err
	}

	m.log.Info("queue purged", "queue", queue, "messages", depth)
	return depth, nil
}

// Ping asks the queue manager for its status without touching any queue.
func (m *CLIManager) Ping(ctx context.Context) error {
	if !m.connected {
		return errMQNotConnected()
	}

	result, err := m.runMQSC(ctx, "DISPLAY QMGR")
	if err != nil {
		return err
	}
	if result.ExitCode != 0 {
		return errutil.New(errutil.MessagingConnection, "queue manager not responding").
			WithDetail("stderr", strings.TrimSpace(result.Stderr))
	}
	return nil
}

func errMQNotConnected() error {
	return errutil.New(errutil.MessagingConnection, "queue manager connection not established")
}

// mqscError inspects runmqsc output for command failures. runmqsc exits
// zero even when the command inside the script fails, so the AMQ codes in
// stdout are the real signal.
func mqscError(queue string, result executil.Result) error {
	output := result.Stdout + result.Stderr

	if strings.Contains(output, "AMQ8147") {
		return errutil.New(errutil.QueueNotFound, "queue does not exist").
			WithDetail("queue", queue)
	}
	if result.ExitCode != 0 {
		return errutil.New(errutil.MessagingConnection, "runmqsc command failed").
			WithDetail("queue", queue).
			WithDetail("stderr", strings.TrimSpace(result.Stderr))
	}
	return nil
}

func putError(queue string, result executil.Result) error {
	if reasonCode(result) == "2085" {
		return errutil.New(errutil.QueueNotFound, "queue does not exist").
			WithDetail("queue", queue)
	}
	return errutil.New(errutil.MessageSend, "put rejected").
		WithDetail("queue", queue).
		WithDetail("stderr", strings.TrimSpace(result.Stderr))
}

func getError(queue string, result executil.Result) error {
	if reasonCode(result) == "2085" {
		return errutil.New(errutil.QueueNotFound, "queue does not exist").
			WithDetail("queue", queue)
	}
	return errutil.New(errutil.MessageReceive, "get rejected").
		WithDetail("queue", queue).
		WithDetail("stderr", strings.TrimSpace(result.Stderr))
}

var reasonPattern = regexp.MustCompile(`reason code (\d+)`)

func reasonCode(result executil.Result) string {
	match := reasonPattern.FindStringSubmatch(result.Stdout + result.Stderr)
	if match == nil {
		return ""
	}
	return match[1]
}
