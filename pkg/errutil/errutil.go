// Package errutil defines the error taxonomy of the framework. Every failure
// that crosses an adapter or component boundary is categorized with a
// machine-readable Kind and may carry contextual details (host, query, queue
// name) for logging and user-facing messages.
//
// Lower layers wrap their causes into an *E at the boundary where the failure
// becomes meaningful; callers can branch on the category with IsKind without
// string-matching error messages:
//
//	rows, err := mgr.Query(ctx, sql)
//	if errutil.IsKind(err, errutil.DatabaseTimeout) {
//	    // back off, do not retry immediately
//	}
package errutil

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// Configuration indicates a bad or missing configuration file or key.
	Configuration Kind = "configuration"

	// DatabaseConnection indicates the database connection could not be
	// established or was lost.
	DatabaseConnection Kind = "database_connection"
	// DatabaseQuery indicates a query failed to execute or its result
	// could not be parsed.
	DatabaseQuery Kind = "database_query"
	// DatabaseTransaction indicates a commit or rollback failed.
	DatabaseTransaction Kind = "database_transaction"
	// DatabaseTimeout indicates a database operation exceeded its deadline.
	DatabaseTimeout Kind = "database_timeout"

	// MessagingConnection indicates the queue manager connection failed.
	MessagingConnection Kind = "messaging_connection"
	// MessageSend indicates a message could not be put to a queue.
	MessageSend Kind = "message_send"
	// MessageReceive indicates a message could not be read from a queue.
	MessageReceive Kind = "message_receive"
	// MessagingTimeout indicates a messaging operation exceeded its deadline.
	MessagingTimeout Kind = "messaging_timeout"
	// QueueNotFound indicates the named queue does not exist on the
	// queue manager.
	QueueNotFound Kind = "queue_not_found"

	// AdapterNotAvailable indicates the requested backend implementation is
	// not usable in this process.
	AdapterNotAvailable Kind = "adapter_not_available"
	// AdapterInitialization indicates the backend could not be constructed.
	AdapterInitialization Kind = "adapter_initialization"

	// ComponentInitialization indicates a component failed to set up its
	// framework services.
	ComponentInitialization Kind = "component_initialization"
	// ComponentExecution indicates a component failed while running.
	ComponentExecution Kind = "component_execution"

	// Validation indicates a bad or missing parameter.
	Validation Kind = "validation"
)

// E is the framework error type. It wraps an optional cause and carries a
// category plus free-form detail fields.
type E struct {
	Kind    Kind
	Message string
	Details map[string]any
	Err     error
}

func (e *E) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)

	if len(e.Details) > 0 {
		keys := make([]string, 0, len(e.Details))
		for k := range e.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
		}
		fmt.Fprintf(&b, " (%s)", strings.Join(parts, ", "))
	}

	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}

	return b.String()
}

func (e *E) Unwrap() error { return e.Err }

// WithDetail attaches a contextual detail field and returns the error for
// chaining.
func (e *E) WithDetail(key string, value any) *E {
	if e.Details == nil {
		e.Details = map[string]any{}
	}
	e.Details[key] = value
	return e
}

// New creates an error of the given kind.
func New(kind Kind, msg string) *E {
	return &E{Kind: kind, Message: msg}
}

// Newf creates an error of the given kind with a formatted message.
func Newf(kind Kind, format string, args ...any) *E {
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap categorizes an underlying error, attaching any detail fields given
// as alternating key/value pairs. It returns nil if err is nil, so the
// result is safe to return unconditionally.
func Wrap(kind Kind, msg string, err error, details ...any) error {
	if err == nil {
		return nil
	}

	e := &E{Kind: kind, Message: msg, Err: err}
	for i := 0; i+1 < len(details); i += 2 {
		if key, ok := details[i].(string); ok {
			e.WithDetail(key, details[i+1])
		}
	}
	return e
}

// Wrapf is Wrap with a formatted message.
func Wrapf(kind Kind, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &E{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf returns the category of err, or the empty Kind if err was not
// created by this package. It walks the wrap chain, so categorized errors
// keep their kind through further %w wrapping.
func KindOf(err error) Kind {
	var e *E
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
