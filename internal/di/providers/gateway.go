package providers

import (
	"github.com/samber/do/v2"

	"github.com/librarydesk/librarydesk/internal/config"
	"github.com/librarydesk/librarydesk/internal/gateway"
	"github.com/librarydesk/librarydesk/internal/logger"
	"github.com/librarydesk/librarydesk/internal/validation"
)

// ProvideGateway provides the REST client for the library backend.
func ProvideGateway(i do.Injector) (*gateway.Client, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	v := do.MustInvoke[*validation.Validator](i)

	client, err := gateway.New(gateway.Options{
		Validator: v,
		Logger:    log,
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		RPS:       cfg.API.RPS,
		Burst:     cfg.API.Burst,
	})
	if err != nil {
		return nil, err
	}

	log.Debug("Gateway initialized", "base_url", client.BaseURL(), "timeout", cfg.API.Timeout)
	return client, nil
}
