package logutil

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"path"

	"github.com/gosimple/slug"
	"github.com/mitchellh/mapstructure"
)

type contextKey string

const contextKeyScope contextKey = "scope"

// scope stores the current logger together with the subsystem path, so
// nested Start calls produce a traceable hierarchy.
type scope struct {
	subsystems []string
	log        *slog.Logger
}

// Get extracts the current logger from the context. It returns the default
// logger if Start was never called.
func Get(ctx context.Context) *slog.Logger {
	s, ok := ctx.Value(contextKeyScope).(scope)
	if !ok {
		return slog.Default()
	}
	return s.log
}

// Subsystem returns the subsystem path of the context, e.g. "/cli/database".
func Subsystem(ctx context.Context) string {
	s, ok := ctx.Value(contextKeyScope).(scope)
	if !ok {
		return ""
	}
	return path.Join(append([]string{"/"}, s.subsystems...)...)
}

// Start enters a subsystem: it derives a logger with a fresh trace ID and
// the accumulated subsystem path and stores it in the returned context. The
// given logger seeds the scope on the first call; nested calls pass nil to
// extend the existing scope.
func Start(ctx context.Context, subsystem string, log *slog.Logger) context.Context {
	s, ok := ctx.Value(contextKeyScope).(scope)
	if !ok {
		s = scope{}
	}

	if log != nil {
		s.log = log
	}
	if s.log == nil {
		s.log = slog.Default()
	}

	s.subsystems = append(s.subsystems, subsystem)
	s.log = s.log.With(
		fmt.Sprintf("trace-id-%s", slug.Make(subsystem)), randomString(12),
		"subsystem", path.Join(append([]string{"/"}, s.subsystems...)...),
	)

	return context.WithValue(ctx, contextKeyScope, s)
}

// WithField returns a context whose logger carries an additional field.
func WithField(ctx context.Context, key string, value any) context.Context {
	return WithFields(ctx, map[string]any{key: value})
}

// WithFields returns a context whose logger carries additional fields.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	s, ok := ctx.Value(contextKeyScope).(scope)
	if !ok {
		// Without a scope there is nothing to attach the fields to.
		return ctx
	}

	attrs := make([]any, 0, len(fields)*2)
	for k, v := range fields {
		attrs = append(attrs, k, v)
	}
	s.log = s.log.With(attrs...)

	return context.WithValue(ctx, contextKeyScope, s)
}

// FromStruct converts a struct into log fields. Field names can be
// customized with the `logfield` tag:
//
//	type Queue struct {
//	    Name  string `logfield:"queue-name"`
//	    Depth int    `logfield:"queue-depth"`
//	}
func FromStruct(s any) map[string]any {
	fields := map[string]any{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "logfield",
		Result:  &fields,
	})
	if err != nil {
		return map[string]any{"logfield-error": err}
	}

	if err := dec.Decode(s); err != nil {
		return map[string]any{"logfield-error": err}
	}

	return fields
}

const randomChars = "abcdefghijklmnopqrstuvwxyz0123456789"

func randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = randomChars[rand.Intn(len(randomChars))]
	}
	return string(b)
}
