// Package pipeline orchestrates document analysis runs: claiming a worker
// slot, loading content, extracting text, calling the analysis service, and
// persisting the terminal status.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JaimeStill/almanac/internal/analysis"
	"github.com/JaimeStill/almanac/internal/documents"
	"github.com/JaimeStill/almanac/internal/extraction"
	"github.com/JaimeStill/almanac/internal/processing"
	"github.com/JaimeStill/almanac/pkg/lifecycle"
	"github.com/JaimeStill/almanac/pkg/metrics"
)

// Analyzer is the single-call analysis contract consumed by the orchestrator.
type Analyzer interface {
	Analyze(ctx context.Context, prompt analysis.Prompt) (*analysis.Result, error)
}

// Runtime bundles the collaborators a pipeline run needs.
type Runtime struct {
	Documents  documents.System
	Processing processing.System
	Extractor  *extraction.Extractor
	Analyzer   Analyzer
	Metrics    *metrics.Pipeline
	Logger     *slog.Logger
}

// Options carries the pipeline policy knobs.
type Options struct {
	// Workers bounds concurrent runs.
	Workers int
	// TextBudget bounds the extracted text embedded in a prompt.
	TextBudget int
	// ContentLoadTimeout bounds the blob download.
	ContentLoadTimeout time.Duration
	// AnalysisTimeout bounds the external analysis call. Generous, since
	// large-model latency runs to tens of seconds.
	AnalysisTimeout time.Duration
}

// Dispatcher accepts analysis requests and runs them on a bounded worker
// pool. It implements the Trigger interface of the documents and processing
// domains.
type Dispatcher struct {
	runtime Runtime
	options Options
	group   *errgroup.Group
	ctx     context.Context
	logger  *slog.Logger
}

// New creates a Dispatcher. Start must be called before Request.
func New(runtime Runtime, options Options) *Dispatcher {
	if options.Workers < 1 {
		options.Workers = 1
	}

	return &Dispatcher{
		runtime: runtime,
		options: options,
		logger:  runtime.Logger.With("system", "pipeline"),
	}
}

// Start binds the worker pool to the application lifecycle. Shutdown waits
// for in-flight runs to finish.
func (d *Dispatcher) Start(lc *lifecycle.Coordinator) error {
	d.group, d.ctx = errgroup.WithContext(lc.Context())
	d.group.SetLimit(d.options.Workers)

	lc.OnShutdown(func() {
		<-lc.Context().Done()
		if err := d.group.Wait(); err != nil {
			d.logger.Warn("pipeline drained with error", "error", err)
		}
	})

	d.logger.Info("pipeline started", "workers", d.options.Workers)
	return nil
}

// Request asks for an analysis run. Returns accepted=false when the document
// is already queued or processing, or when every worker slot is busy. A
// terminal record is reset to pending before the slot is claimed, discarding
// the prior result.
func (d *Dispatcher) Request(ctx context.Context, documentID uuid.UUID) (bool, error) {
	rec, err := d.runtime.Processing.Get(ctx, documentID)
	if err != nil {
		return false, err
	}

	if rec.Status.Terminal() {
		ok, err := d.runtime.Processing.Reset(ctx, documentID)
		if err != nil {
			return false, err
		}
		if !ok {
			// lost a race against another requester
			return false, nil
		}
		rec.Status = processing.StatusPending
	}

	if rec.Status != processing.StatusPending {
		return false, nil
	}

	ok, err := d.runtime.Processing.Transition(
		ctx, documentID,
		processing.StatusPending, processing.StatusQueued,
		processing.Payload{},
	)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}

	if !d.group.TryGo(func() error {
		d.run(documentID)
		return nil
	}) {
		d.runtime.Metrics.QueueRejected()
		d.logger.Warn("worker pool full, rolling back", "document_id", documentID)

		if _, err := d.runtime.Processing.Transition(
			ctx, documentID,
			processing.StatusQueued, processing.StatusPending,
			processing.Payload{},
		); err != nil {
			return false, err
		}
		return false, nil
	}

	return true, nil
}
