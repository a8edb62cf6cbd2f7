package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/almanac/internal/analysis"
	"github.com/JaimeStill/almanac/internal/documents"
	"github.com/JaimeStill/almanac/internal/extraction"
	"github.com/JaimeStill/almanac/internal/processing"
)

// run drives one document from queued to a terminal status. Stages execute
// strictly sequentially; every status write is an optimistic check-and-set,
// so a run whose document was reset or re-processed underneath it discards
// its result instead of clobbering newer state.
func (d *Dispatcher) run(documentID uuid.UUID) {
	ctx := d.ctx
	logger := d.logger.With("document_id", documentID)

	d.runtime.Metrics.RunStarted()
	status := string(processing.StatusFailed)
	defer func() { d.runtime.Metrics.RunFinished(status) }()

	ok, err := d.runtime.Processing.Transition(
		ctx, documentID,
		processing.StatusQueued, processing.StatusProcessing,
		processing.Payload{},
	)
	if err != nil {
		logger.Error("claim run failed", "error", err)
		return
	}
	if !ok {
		logger.Info("run superseded before start")
		status = "superseded"
		return
	}

	doc, err := d.runtime.Documents.Find(ctx, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			logger.Info("document deleted, aborting run")
			status = "aborted"
			return
		}
		d.fail(ctx, documentID, logger, fmt.Sprintf("load document: %v", err))
		return
	}

	content, err := d.loadContent(ctx, documentID)
	if err != nil {
		logger.Warn("content unavailable", "error", err)
		d.fail(ctx, documentID, logger, "content unavailable")
		return
	}

	extractStart := time.Now()
	outcome := d.runtime.Extractor.Extract(content, extraction.Normalize(doc.MimeType), doc.Filename)
	d.runtime.Metrics.ObserveStage("extract", time.Since(extractStart))

	if outcome.Failed {
		d.fail(ctx, documentID, logger, outcome.FailureReason)
		return
	}

	prompt, err := analysis.BuildPrompt(doc.DocumentType, doc.Title, outcome.Text, d.options.TextBudget)
	if err != nil {
		d.fail(ctx, documentID, logger, err.Error())
		return
	}

	analyzeStart := time.Now()
	result, err := d.analyze(ctx, prompt)
	d.runtime.Metrics.ObserveStage("analyze", time.Since(analyzeStart))

	if err != nil {
		d.fail(ctx, documentID, logger, err.Error())
		return
	}

	if d.deleted(ctx, documentID) {
		logger.Info("document deleted, discarding result")
		status = "aborted"
		return
	}

	next := processing.StatusCompleted
	payload := processing.Payload{AnalysisResult: result.Raw}

	if len(outcome.Warnings) > 0 {
		next = processing.StatusWarning
		warning := strings.Join(outcome.Warnings, "; ")
		payload.ErrorMessage = &warning
	}

	ok, err = d.runtime.Processing.Transition(
		ctx, documentID,
		processing.StatusProcessing, next,
		payload,
	)
	if err != nil {
		logger.Error("persist result failed", "error", err)
		return
	}
	if !ok {
		logger.Info("run superseded, result discarded")
		status = "superseded"
		return
	}

	status = string(next)
	logger.Info("run complete", "status", next, "confidence", result.Confidence)
}

func (d *Dispatcher) loadContent(ctx context.Context, documentID uuid.UUID) ([]byte, error) {
	loadCtx, cancel := context.WithTimeout(ctx, d.options.ContentLoadTimeout)
	defer cancel()

	start := time.Now()
	defer func() { d.runtime.Metrics.ObserveStage("load", time.Since(start)) }()

	reader, err := d.runtime.Documents.Content(loadCtx, documentID)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	return io.ReadAll(reader)
}

func (d *Dispatcher) analyze(ctx context.Context, prompt analysis.Prompt) (*analysis.Result, error) {
	analyzeCtx, cancel := context.WithTimeout(ctx, d.options.AnalysisTimeout)
	defer cancel()

	return d.runtime.Analyzer.Analyze(analyzeCtx, prompt)
}

// fail writes the terminal failed status unless the document was deleted
// while the run was in flight. A deleted document's record must not be
// resurrected by a late write.
func (d *Dispatcher) fail(ctx context.Context, documentID uuid.UUID, logger *slog.Logger, reason string) {
	if d.deleted(ctx, documentID) {
		logger.Info("document deleted, skipping failure write")
		return
	}

	ok, err := d.runtime.Processing.Transition(
		ctx, documentID,
		processing.StatusProcessing, processing.StatusFailed,
		processing.Payload{ErrorMessage: &reason},
	)
	if err != nil {
		logger.Error("record failure failed", "error", err)
		return
	}
	if !ok {
		logger.Info("run superseded, failure discarded")
	}
}

func (d *Dispatcher) deleted(ctx context.Context, documentID uuid.UUID) bool {
	_, err := d.runtime.Documents.Find(ctx, documentID)
	return errors.Is(err, documents.ErrNotFound)
}
