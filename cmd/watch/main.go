// Command watch polls a running Almanac server for a document's processing
// status until it reaches a terminal state.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/almanac/internal/processing"
	"github.com/JaimeStill/almanac/pkg/polling"
)

func main() {
	var (
		addr     = flag.String("addr", "http://localhost:8080/api", "API base URL")
		id       = flag.String("id", "", "Document ID to watch")
		interval = flag.Duration("interval", 5*time.Second, "Poll interval")
		timeout  = flag.Duration("timeout", 10*time.Second, "Per-request timeout")
	)
	flag.Parse()

	documentID, err := uuid.Parse(*id)
	if err != nil {
		log.Fatalf("invalid document id %q: %v", *id, err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	client := processing.NewClient(*addr, *timeout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	watcher := polling.New(
		func(ctx context.Context) (*processing.Record, error) {
			return client.Fetch(ctx, documentID)
		},
		func(rec *processing.Record) bool {
			return rec.Status.Terminal()
		},
		*interval,
		logger,
	)

	final, err := watcher.Watch(ctx, func(event polling.Event[*processing.Record]) {
		logger.Info("status",
			"document_id", documentID,
			"status", event.Value.Status,
			"updated_at", event.Value.UpdatedAt,
		)
	})
	if err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("watch cancelled")
			return
		}
		log.Fatalf("watch failed: %v", err)
	}

	fmt.Printf("document %s finished: %s\n", documentID, final.Status)
	if final.ErrorMessage != nil {
		fmt.Printf("message: %s\n", *final.ErrorMessage)
	}
	if len(final.AnalysisResult) > 0 {
		fmt.Printf("analysis result:\n%s\n", final.AnalysisResult)
	}
}
