package api

import (
	"time"

	"github.com/JaimeStill/almanac/internal/analysis"
	"github.com/JaimeStill/almanac/internal/config"
	"github.com/JaimeStill/almanac/internal/documents"
	"github.com/JaimeStill/almanac/internal/extraction"
	"github.com/JaimeStill/almanac/internal/pipeline"
	"github.com/JaimeStill/almanac/internal/processing"
)

// Domain holds all domain systems that comprise the API, plus the pipeline
// dispatcher that ties them together.
type Domain struct {
	Documents  documents.System
	Processing processing.System
	Pipeline   *pipeline.Dispatcher
}

// NewDomain creates all domain systems from the API runtime and
// configuration.
func NewDomain(runtime *Runtime, cfg *config.Config) *Domain {
	docsSystem := documents.New(
		runtime.Database.Connection(),
		runtime.Storage,
		runtime.Logger,
		runtime.Pagination,
	)

	processingSystem := processing.New(
		runtime.Database.Connection(),
		runtime.Logger,
	)

	extractor := extraction.New(extraction.Options{
		MaxContentLength:      cfg.Pipeline.MaxContentLength,
		IncludeMetadataFooter: cfg.Pipeline.MetadataFooter,
	}, runtime.Logger)

	client := analysis.NewClient(analysis.Options{
		Endpoint: cfg.Analysis.Endpoint,
		Model:    cfg.Analysis.Model,
		Timeout:  cfg.Analysis.TimeoutDuration(),
	}, runtime.Logger)

	dispatcher := pipeline.New(
		pipeline.Runtime{
			Documents:  docsSystem,
			Processing: processingSystem,
			Extractor:  extractor,
			Analyzer:   client,
			Metrics:    runtime.Metrics,
			Logger:     runtime.Logger,
		},
		pipeline.Options{
			Workers:            cfg.Pipeline.Workers,
			TextBudget:         cfg.Pipeline.PromptTextBudget,
			ContentLoadTimeout: cfg.Pipeline.ContentLoadTimeoutDuration(),
			AnalysisTimeout:    cfg.Analysis.TimeoutDuration() + 5*time.Second,
		},
	)

	return &Domain{
		Documents:  docsSystem,
		Processing: processingSystem,
		Pipeline:   dispatcher,
	}
}
