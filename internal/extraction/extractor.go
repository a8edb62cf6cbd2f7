package extraction

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/JaimeStill/almanac/pkg/formatting"
)

// Options controls extraction behavior.
type Options struct {
	// MaxContentLength is the character count above which an over-length
	// warning is attached. The extractor never truncates its own output;
	// trimming is the prompt builder's decision.
	MaxContentLength int
	// IncludeMetadataFooter appends a source description to the extracted
	// text.
	IncludeMetadataFooter bool
}

// DefaultMaxContentLength bounds extracted text before a warning is raised.
const DefaultMaxContentLength = 100_000

// DefaultOptions returns the standard extraction options.
func DefaultOptions() Options {
	return Options{MaxContentLength: DefaultMaxContentLength}
}

// Outcome is the typed result of an extraction attempt. Failed and
// FailureReason are set together; Warnings may accompany a successful
// extraction.
type Outcome struct {
	Text          string
	Warnings      []string
	Failed        bool
	FailureReason string
	Duration      time.Duration
}

// Extractor converts document bytes to plain text by canonical MIME type.
type Extractor struct {
	options Options
	logger  *slog.Logger
}

// New creates an Extractor. Zero or negative MaxContentLength falls back to
// the default bound.
func New(options Options, logger *slog.Logger) *Extractor {
	if options.MaxContentLength <= 0 {
		options.MaxContentLength = DefaultMaxContentLength
	}

	return &Extractor{
		options: options,
		logger:  logger.With("system", "extraction"),
	}
}

// Extract dispatches on the canonical MIME type and returns a typed outcome.
// Empty content is a hard failure for every type. Unrecognized MIME types
// produce an explanatory placeholder rather than a failure.
func (e *Extractor) Extract(content []byte, canonicalMime, fileName string) Outcome {
	started := time.Now()

	if len(content) == 0 {
		outcome := Outcome{
			Failed:        true,
			FailureReason: "document content is empty",
			Duration:      time.Since(started),
		}
		e.logger.Warn("extraction failed",
			"file", fileName,
			"mime", canonicalMime,
			"reason", outcome.FailureReason,
		)
		return outcome
	}

	var outcome Outcome
	switch canonicalMime {
	case MimeText:
		outcome = e.extractText(content)
	case MimeJSON:
		outcome = e.extractJSON(content)
	case MimeHTML:
		outcome = e.extractHTML(content)
	case MimePDF:
		outcome = e.extractPDF(content)
	case MimeWord:
		outcome = e.extractWord(content)
	case MimeSpreadsheet:
		outcome = e.extractSpreadsheet(content)
	default:
		outcome = Outcome{
			Text: fmt.Sprintf(
				"[Unsupported document type %q: file %q could not be converted to text. Analysis will proceed on document metadata only.]",
				canonicalMime, fileName,
			),
			Warnings: []string{fmt.Sprintf("unsupported mime type %q", canonicalMime)},
		}
	}

	if !outcome.Failed && len(outcome.Text) > e.options.MaxContentLength {
		outcome.Warnings = append(outcome.Warnings, fmt.Sprintf(
			"extracted text length %d exceeds limit %d",
			len(outcome.Text), e.options.MaxContentLength,
		))
	}

	if !outcome.Failed && e.options.IncludeMetadataFooter {
		outcome.Text += fmt.Sprintf(
			"\n\n---\nSource: %s (%s, %s)",
			fileName, canonicalMime, formatting.FormatBytes(int64(len(content)), 1),
		)
	}

	outcome.Duration = time.Since(started)

	e.logger.Info("extraction complete",
		"file", fileName,
		"mime", canonicalMime,
		"failed", outcome.Failed,
		"warnings", len(outcome.Warnings),
		"chars", len(outcome.Text),
		"duration", outcome.Duration,
	)

	return outcome
}

func (e *Extractor) failure(format string, args ...any) Outcome {
	return Outcome{
		Failed:        true,
		FailureReason: fmt.Sprintf(format, args...),
	}
}
