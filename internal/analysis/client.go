package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/JaimeStill/almanac/pkg/formatting"
)

// payloadSample bounds how much of an offending response is carried in error
// messages for diagnosis.
const payloadSample = 512

// Options configures the analysis client.
type Options struct {
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Client calls the external structured-completion service. It performs a
// single deterministic call per Analyze; retry policy belongs to the caller.
// A circuit breaker sheds calls after repeated transport failures so a down
// service fails fast instead of burning the full timeout per document.
type Client struct {
	endpoint string
	model    string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker[[]byte]
	logger   *slog.Logger
}

type completionRequest struct {
	Model          string `json:"model"`
	SystemPrompt   string `json:"system_prompt"`
	UserPrompt     string `json:"user_prompt"`
	ResponseFormat string `json:"response_format"`
}

type completionResponse struct {
	Content string `json:"content"`
}

// NewClient creates a Client for the given service options.
func NewClient(opts Options, logger *slog.Logger) *Client {
	breaker := gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:    "analysis",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})

	return &Client{
		endpoint: opts.Endpoint,
		model:    opts.Model,
		http:     &http.Client{Timeout: opts.Timeout},
		breaker:  breaker,
		logger:   logger.With("system", "analysis"),
	}
}

// Analyze sends the prompt and returns a validated result. Errors carry one
// of the package's error kinds: ErrServiceUnavailable for transport faults,
// ErrMalformedResponse for non-JSON content, ErrInvalidResult for JSON that
// fails the structural contract.
func (c *Client) Analyze(ctx context.Context, prompt Prompt) (*Result, error) {
	started := time.Now()

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.send(ctx, prompt)
	})
	if err != nil {
		c.logger.Warn("analysis call failed", "error", err, "duration", time.Since(started))
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}

	var envelope completionResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v: %s", ErrMalformedResponse, err,
			formatting.Truncate(string(body), payloadSample))
	}

	raw, err := formatting.Parse[json.RawMessage](envelope.Content)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMalformedResponse,
			formatting.Truncate(envelope.Content, payloadSample))
	}

	result, err := ParseResult(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", err,
			formatting.Truncate(envelope.Content, payloadSample))
	}

	c.logger.Info("analysis complete",
		"confidence", result.Confidence,
		"duration", time.Since(started),
	)
	return result, nil
}

func (c *Client) send(ctx context.Context, prompt Prompt) ([]byte, error) {
	request := completionRequest{
		Model:          c.model,
		SystemPrompt:   prompt.System,
		UserPrompt:     prompt.User,
		ResponseFormat: "json",
	}

	encoded, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(encoded))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("status %d: %s",
			resp.StatusCode, formatting.Truncate(string(body), payloadSample))
	}

	return body, nil
}
