// Package providers contains dependency injection providers for librarydesk.
package providers

import (
	"os"

	"github.com/samber/do/v2"

	"github.com/librarydesk/librarydesk/internal/config"
	"github.com/librarydesk/librarydesk/internal/logger"
	"github.com/librarydesk/librarydesk/internal/notify"
	"github.com/librarydesk/librarydesk/internal/validation"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	o := do.MustInvoke[config.Overrides](i)
	return config.Load(o)
}

// ProvideLogger provides the structured logger. Logs go to stderr so that
// command output on stdout stays clean.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.Environment == "development" && cfg.Logger.Level == "debug",
		Environment: cfg.App.Environment,
		Writer:      os.Stderr,
	})

	log.Debug("Starting librarydesk",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"profile", cfg.App.Profile,
		"api_base_url", cfg.API.BaseURL,
	)

	return log, nil
}

// ProvideValidator provides the shared validator.
func ProvideValidator(i do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}

// HubHandle wraps the notification hub with shutdown capability.
type HubHandle struct {
	*notify.Hub
}

// Shutdown implements do.Shutdowner.
func (h *HubHandle) Shutdown() {
	h.Close()
}

// ProvideHub provides the notification hub.
func ProvideHub(i do.Injector) (*HubHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &HubHandle{Hub: notify.NewHub(log, cfg.UI.NotifyBuffer)}, nil
}
