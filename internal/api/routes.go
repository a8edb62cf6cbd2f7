package api

import (
	"net/http"

	"github.com/JaimeStill/almanac/internal/config"
	"github.com/JaimeStill/almanac/pkg/routes"
)

func registerRoutes(
	mux *http.ServeMux,
	domain *Domain,
	cfg *config.Config,
) {
	routes.Register(
		mux,
		domain.Documents.Handler(cfg.API.MaxUploadSizeBytes(), domain.Pipeline).Routes(),
		domain.Processing.Handler(domain.Pipeline).Routes(),
	)
}
