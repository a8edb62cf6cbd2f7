package processing

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/JaimeStill/almanac/pkg/repository"
)

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

// New creates a processing record store implementing the System interface.
func New(db *sql.DB, logger *slog.Logger) System {
	return &store{
		db:     db,
		logger: logger.With("system", "processing"),
	}
}

func (s *store) Handler(trigger Trigger) *Handler {
	return NewHandler(s, trigger, s.logger)
}

func (s *store) Get(ctx context.Context, documentID uuid.UUID) (*Record, error) {
	const q = `
		SELECT document_id, status, analysis_result, error_message, updated_at
		FROM processing_records
		WHERE document_id = $1`

	rec, err := repository.QueryOne(ctx, s.db, q, []any{documentID}, scanRecord)
	if err != nil {
		return nil, repository.MapError(err, ErrNotFound, ErrNotFound)
	}
	return &rec, nil
}

// Transition performs the optimistic check-and-set: the row only changes when
// its stored status still equals expected. Zero rows affected means another
// writer got there first.
func (s *store) Transition(
	ctx context.Context,
	documentID uuid.UUID,
	expected, next Status,
	payload Payload,
) (bool, error) {
	if !expected.CanTransition(next) {
		return false, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, expected, next)
	}

	const q = `
		UPDATE processing_records
		SET status = $3, analysis_result = $4, error_message = $5, updated_at = NOW()
		WHERE document_id = $1 AND status = $2`

	result, err := s.db.ExecContext(ctx, q,
		documentID, expected, next,
		nullableJSON(payload.AnalysisResult), payload.ErrorMessage,
	)
	if err != nil {
		return false, fmt.Errorf("transition processing record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("transition processing record: %w", err)
	}

	if affected == 0 {
		s.logger.Debug("stale transition discarded",
			"document_id", documentID,
			"expected", expected,
			"next", next,
		)
		return false, nil
	}

	s.logger.Info("status transition",
		"document_id", documentID,
		"from", expected,
		"to", next,
	)
	return true, nil
}

// Reset clears a terminal record back to pending. Result and error message
// are discarded in the same statement so no reader can observe the old result
// against the new pending status.
func (s *store) Reset(ctx context.Context, documentID uuid.UUID) (bool, error) {
	const q = `
		UPDATE processing_records
		SET status = 'pending', analysis_result = NULL, error_message = NULL, updated_at = NOW()
		WHERE document_id = $1 AND status IN ('completed', 'warning', 'failed')`

	result, err := s.db.ExecContext(ctx, q, documentID)
	if err != nil {
		return false, fmt.Errorf("reset processing record: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("reset processing record: %w", err)
	}

	if affected == 0 {
		return false, nil
	}

	s.logger.Info("processing record reset", "document_id", documentID)
	return true, nil
}

func scanRecord(sc repository.Scanner) (Record, error) {
	var (
		rec    Record
		result []byte
	)

	err := sc.Scan(
		&rec.DocumentID,
		&rec.Status,
		&result,
		&rec.ErrorMessage,
		&rec.UpdatedAt,
	)
	if err != nil {
		return rec, err
	}

	if len(result) > 0 {
		rec.AnalysisResult = result
	}
	return rec, nil
}

// nullableJSON converts an empty result to NULL so jsonb columns never store
// an empty string.
func nullableJSON(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return []byte(raw)
}
