// Package api assembles the API module with all domain systems and route
// registration.
package api

import (
	"net/http"

	"github.com/JaimeStill/almanac/internal/config"
	"github.com/JaimeStill/almanac/internal/infrastructure"
	"github.com/JaimeStill/almanac/pkg/middleware"
	"github.com/JaimeStill/almanac/pkg/module"
)

// NewModule creates the API module with all domain handlers and middleware,
// and binds the pipeline dispatcher to the application lifecycle.
func NewModule(cfg *config.Config, infra *infrastructure.Infrastructure) (*module.Module, error) {
	runtime := NewRuntime(cfg, infra)
	domain := NewDomain(runtime, cfg)

	if err := domain.Pipeline.Start(infra.Lifecycle); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	registerRoutes(mux, domain, cfg)

	m := module.New(cfg.API.BasePath, mux)
	m.Use(middleware.CORS(&cfg.API.CORS))
	m.Use(middleware.RateLimit(&cfg.API.RateLimit))
	m.Use(middleware.Logger(runtime.Logger))

	return m, nil
}
