// Package polling provides a generic fixed-interval watcher that fetches a
// value until a terminal condition is observed.
package polling

import (
	"context"
	"log/slog"
	"time"
)

// FetchFunc retrieves the current value being watched.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// TerminalFunc reports whether a fetched value ends the watch.
type TerminalFunc[T any] func(value T) bool

// Event is delivered to the watch callback after each successful fetch.
type Event[T any] struct {
	Value    T
	Terminal bool
}

// Coordinator polls a fetch function on a fixed interval until the terminal
// predicate matches or the context is cancelled. Fetches never overlap: the
// next poll is not scheduled until the previous fetch returns.
type Coordinator[T any] struct {
	fetch    FetchFunc[T]
	terminal TerminalFunc[T]
	interval time.Duration
	logger   *slog.Logger
}

// New creates a Coordinator. Intervals below one second are raised to one
// second to avoid hammering the status endpoint.
func New[T any](fetch FetchFunc[T], terminal TerminalFunc[T], interval time.Duration, logger *slog.Logger) *Coordinator[T] {
	if interval < time.Second {
		interval = time.Second
	}

	return &Coordinator[T]{
		fetch:    fetch,
		terminal: terminal,
		interval: interval,
		logger:   logger.With("system", "polling"),
	}
}

// Watch fetches immediately, then on each interval tick, invoking onEvent
// after every successful fetch. A failed fetch is logged and polling
// continues; fetch errors never end the watch. Watch returns the final value
// once the terminal predicate matches, or the context error on cancellation.
func (c *Coordinator[T]) Watch(ctx context.Context, onEvent func(Event[T])) (T, error) {
	var zero T

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		value, err := c.fetch(ctx)
		switch {
		case err != nil && ctx.Err() != nil:
			return zero, ctx.Err()
		case err != nil:
			c.logger.Warn("fetch failed, continuing to poll", "error", err)
		default:
			done := c.terminal(value)
			if onEvent != nil {
				onEvent(Event[T]{Value: value, Terminal: done})
			}
			if done {
				return value, nil
			}
		}

		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-ticker.C:
		}
	}
}
