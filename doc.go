// Package gocommon is a convenience framework for applications that talk to
// IBM DB2 and IBM MQ. It standardizes configuration loading, logging setup
// and access to both systems behind backend-neutral interfaces, so every
// component reads config, logs and reaches its middleware the same way.
//
// The packages build on each other roughly bottom-up:
//
//   - pkg/errutil    categorized errors shared by all layers
//   - pkg/cfgutil    YAML configuration with env var overrides
//   - pkg/logutil    slog setup (console, file rotation, GELF)
//   - pkg/executil   subprocess runner for the CLI backends
//   - pkg/dbutil     DB2 access (CLI processor or native driver)
//   - pkg/mqutil     MQ access (vendor samples or native client)
//   - pkg/adapterutil backend probing and manager construction
//   - pkg/runutil    component lifecycle and service bundle
//   - pkg/cmdutil    cobra command plumbing and exit handling
//
// cmd/gocommon is the command line tool built on top of all of it.
package gocommon
