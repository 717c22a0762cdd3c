package adapterutil

import (
	"log/slog"
	"strings"

	"github.com/psanodiya94/gocommon/pkg/cfgutil"
	"github.com/psanodiya94/gocommon/pkg/dbutil"
	"github.com/psanodiya94/gocommon/pkg/errutil"
	"github.com/psanodiya94/gocommon/pkg/mqutil"
)

// NewDatabaseManager constructs the database backend named by the
// configuration. When the library backend is requested but its driver is
// not compiled in, it falls back to the CLI backend if auto_fallback allows.
func NewDatabaseManager(cfg cfgutil.DatabaseConfig, log *slog.Logger) (dbutil.Manager, error) {
	if log == nil {
		log = slog.Default()
	}

	switch normalize(cfg.Implementation) {
	case cfgutil.ImplementationCLI:
		return dbutil.NewCLIManager(cfg, log), nil

	case cfgutil.ImplementationLibrary:
		if dbNative() {
			return dbutil.NewLibraryManager(cfg, log)
		}
		if !cfg.AutoFallback {
			return nil, errutil.New(errutil.AdapterNotAvailable, "library database backend not available").
				WithDetail("implementation", cfg.Implementation)
		}
		log.Warn("library database backend not available, falling back to cli",
			"driver", dbutil.DriverName)
		return dbutil.NewCLIManager(cfg, log), nil

	default:
		return nil, errutil.Newf(errutil.Validation,
			"unknown database implementation %q", cfg.Implementation)
	}
}

// NewMessagingManager is the messaging counterpart of NewDatabaseManager.
func NewMessagingManager(cfg cfgutil.MessagingConfig, log *slog.Logger) (mqutil.Manager, error) {
	if log == nil {
		log = slog.Default()
	}

	switch normalize(cfg.Implementation) {
	case cfgutil.ImplementationCLI:
		return mqutil.NewCLIManager(cfg, log), nil

	case cfgutil.ImplementationLibrary:
		if mqNative() {
			return mqutil.NewLibraryManager(cfg, log)
		}
		if !cfg.AutoFallback {
			return nil, errutil.New(errutil.AdapterNotAvailable, "library messaging backend not available").
				WithDetail("implementation", cfg.Implementation)
		}
		log.Warn("library messaging backend not available, falling back to cli")
		return mqutil.NewCLIManager(cfg, log), nil

	default:
		return nil, errutil.Newf(errutil.Validation,
			"unknown messaging implementation %q", cfg.Implementation)
	}
}

// normalize maps the configured implementation name onto the known
// constants. The empty string means the installation default, which is the
// CLI backend.
func normalize(implementation string) string {
	s := strings.ToLower(strings.TrimSpace(implementation))
	if s == "" {
		return cfgutil.ImplementationCLI
	}
	return s
}
