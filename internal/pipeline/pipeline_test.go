package pipeline_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/JaimeStill/almanac/internal/analysis"
	"github.com/JaimeStill/almanac/internal/documents"
	"github.com/JaimeStill/almanac/internal/extraction"
	"github.com/JaimeStill/almanac/internal/pipeline"
	"github.com/JaimeStill/almanac/internal/processing"
	"github.com/JaimeStill/almanac/pkg/lifecycle"
	"github.com/JaimeStill/almanac/pkg/metrics"
	"github.com/JaimeStill/almanac/pkg/pagination"
)

// fakeStore is an in-memory processing.System that honors the same
// check-and-set semantics as the database-backed store.
type fakeStore struct {
	mu   sync.Mutex
	recs map[uuid.UUID]*processing.Record
}

func newFakeStore() *fakeStore {
	return &fakeStore{recs: make(map[uuid.UUID]*processing.Record)}
}

func (s *fakeStore) seed(id uuid.UUID, status processing.Status) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[id] = &processing.Record{DocumentID: id, Status: status}
}

func (s *fakeStore) Handler(trigger processing.Trigger) *processing.Handler {
	return nil
}

func (s *fakeStore) Get(ctx context.Context, id uuid.UUID) (*processing.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.recs[id]
	if !found {
		return nil, processing.ErrNotFound
	}
	copied := *rec
	return &copied, nil
}

func (s *fakeStore) Transition(
	ctx context.Context,
	id uuid.UUID,
	expected, next processing.Status,
	payload processing.Payload,
) (bool, error) {
	if !expected.CanTransition(next) {
		return false, fmt.Errorf("%w: %s -> %s", processing.ErrIllegalTransition, expected, next)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.recs[id]
	if !found || rec.Status != expected {
		return false, nil
	}

	rec.Status = next
	rec.AnalysisResult = payload.AnalysisResult
	rec.ErrorMessage = payload.ErrorMessage
	rec.UpdatedAt = time.Now()
	return true, nil
}

func (s *fakeStore) Reset(ctx context.Context, id uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, found := s.recs[id]
	if !found || !rec.Status.Terminal() {
		return false, nil
	}

	rec.Status = processing.StatusPending
	rec.AnalysisResult = nil
	rec.ErrorMessage = nil
	return true, nil
}

// fakeDocuments serves documents and content from memory.
type fakeDocuments struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]*documents.Document
	content map[uuid.UUID][]byte
}

func newFakeDocuments() *fakeDocuments {
	return &fakeDocuments{
		docs:    make(map[uuid.UUID]*documents.Document),
		content: make(map[uuid.UUID][]byte),
	}
}

func (d *fakeDocuments) add(doc documents.Document, content []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.docs[doc.ID] = &doc
	d.content[doc.ID] = content
}

func (d *fakeDocuments) remove(id uuid.UUID) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.docs, id)
	delete(d.content, id)
}

func (d *fakeDocuments) Handler(maxUploadSize int64, trigger documents.Trigger) *documents.Handler {
	return nil
}

func (d *fakeDocuments) List(
	ctx context.Context,
	page pagination.PageRequest,
	filters documents.Filters,
) (*pagination.PageResult[documents.Document], error) {
	return nil, nil
}

func (d *fakeDocuments) Find(ctx context.Context, id uuid.UUID) (*documents.Document, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc, found := d.docs[id]
	if !found {
		return nil, documents.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (d *fakeDocuments) Create(ctx context.Context, cmd documents.CreateCommand) (*documents.Document, error) {
	return nil, nil
}

func (d *fakeDocuments) Delete(ctx context.Context, id uuid.UUID) error {
	d.remove(id)
	return nil
}

func (d *fakeDocuments) Content(ctx context.Context, id uuid.UUID) (io.ReadCloser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	content, found := d.content[id]
	if !found {
		return nil, documents.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}

// fakeAnalyzer records prompts and delegates to a swappable response func.
type fakeAnalyzer struct {
	mu      sync.Mutex
	respond func(prompt analysis.Prompt) (*analysis.Result, error)
	prompts []analysis.Prompt
}

func (a *fakeAnalyzer) Analyze(ctx context.Context, prompt analysis.Prompt) (*analysis.Result, error) {
	a.mu.Lock()
	respond := a.respond
	a.prompts = append(a.prompts, prompt)
	a.mu.Unlock()

	return respond(prompt)
}

func (a *fakeAnalyzer) set(respond func(prompt analysis.Prompt) (*analysis.Result, error)) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.respond = respond
}

func (a *fakeAnalyzer) lastPrompt() (analysis.Prompt, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if len(a.prompts) == 0 {
		return analysis.Prompt{}, false
	}
	return a.prompts[len(a.prompts)-1], true
}

func okResult(summary string, confidence float64) func(analysis.Prompt) (*analysis.Result, error) {
	return func(analysis.Prompt) (*analysis.Result, error) {
		raw, _ := json.Marshal(map[string]any{
			"summary":    summary,
			"confidence": confidence,
		})
		return &analysis.Result{Summary: summary, Confidence: confidence, Raw: raw}, nil
	}
}

type harness struct {
	dispatcher *pipeline.Dispatcher
	docs       *fakeDocuments
	store      *fakeStore
	analyzer   *fakeAnalyzer
}

func newHarness(t *testing.T, configure func(*pipeline.Options, *extraction.Options)) *harness {
	t.Helper()

	docs := newFakeDocuments()
	store := newFakeStore()
	analyzer := &fakeAnalyzer{respond: okResult("summary", 0.9)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	options := pipeline.Options{
		Workers:            2,
		TextBudget:         12_000,
		ContentLoadTimeout: time.Second,
		AnalysisTimeout:    time.Second,
	}
	extractOptions := extraction.DefaultOptions()
	if configure != nil {
		configure(&options, &extractOptions)
	}

	dispatcher := pipeline.New(pipeline.Runtime{
		Documents:  docs,
		Processing: store,
		Extractor:  extraction.New(extractOptions, logger),
		Analyzer:   analyzer,
		Metrics:    metrics.NewPipeline(),
		Logger:     logger,
	}, options)

	lc := lifecycle.New()
	if err := dispatcher.Start(lc); err != nil {
		t.Fatalf("start dispatcher: %v", err)
	}
	t.Cleanup(func() {
		if err := lc.Shutdown(5 * time.Second); err != nil {
			t.Errorf("shutdown: %v", err)
		}
	})

	return &harness{
		dispatcher: dispatcher,
		docs:       docs,
		store:      store,
		analyzer:   analyzer,
	}
}

func (h *harness) addDocument(t *testing.T, docType documents.Type, mimeType string, content []byte) uuid.UUID {
	t.Helper()

	id := uuid.New()
	h.docs.add(documents.Document{
		ID:           id,
		Title:        "test document",
		DocumentType: docType,
		Filename:     "test.txt",
		MimeType:     mimeType,
		SizeBytes:    int64(len(content)),
	}, content)
	h.store.seed(id, processing.StatusPending)
	return id
}

func (h *harness) waitForStatus(t *testing.T, id uuid.UUID, want processing.Status) *processing.Record {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := h.store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("get record: %v", err)
		}
		if rec.Status == want {
			return rec
		}
		time.Sleep(5 * time.Millisecond)
	}

	rec, _ := h.store.Get(context.Background(), id)
	t.Fatalf("record never reached %s, last status %s", want, rec.Status)
	return nil
}

func TestRunCompletes(t *testing.T) {
	h := newHarness(t, nil)
	id := h.addDocument(t, documents.TypeReport, "text/plain", []byte("quarterly results look strong"))

	accepted, err := h.dispatcher.Request(context.Background(), id)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if !accepted {
		t.Fatal("request should be accepted")
	}

	rec := h.waitForStatus(t, id, processing.StatusCompleted)
	if len(rec.AnalysisResult) == 0 {
		t.Error("completed record should carry an analysis result")
	}
	if rec.ErrorMessage != nil {
		t.Errorf("completed record should have no error message, got %q", *rec.ErrorMessage)
	}

	result, err := analysis.ParseResult(rec.AnalysisResult)
	if err != nil {
		t.Fatalf("stored result should validate: %v", err)
	}
	if result.Confidence < 0 || result.Confidence > 1 {
		t.Errorf("confidence = %v, want within [0, 1]", result.Confidence)
	}
}

func TestRunFailsOnEmptyContent(t *testing.T) {
	h := newHarness(t, nil)
	id := h.addDocument(t, documents.TypeContract, "text/plain", nil)

	accepted, err := h.dispatcher.Request(context.Background(), id)
	if err != nil || !accepted {
		t.Fatalf("request = (%v, %v), want accepted", accepted, err)
	}

	rec := h.waitForStatus(t, id, processing.StatusFailed)
	if rec.ErrorMessage == nil {
		t.Fatal("failed record should carry an error message")
	}
	if !strings.Contains(*rec.ErrorMessage, "empty") {
		t.Errorf("error message %q should mention empty content", *rec.ErrorMessage)
	}
	if rec.AnalysisResult != nil {
		t.Error("failed record should have no analysis result")
	}
}

func TestRunFailsThenRecoversOnRetrigger(t *testing.T) {
	h := newHarness(t, nil)
	h.analyzer.set(func(analysis.Prompt) (*analysis.Result, error) {
		return nil, fmt.Errorf("%w: connection refused", analysis.ErrServiceUnavailable)
	})

	id := h.addDocument(t, documents.TypePolicy, "text/plain", []byte("remote work policy"))

	accepted, err := h.dispatcher.Request(context.Background(), id)
	if err != nil || !accepted {
		t.Fatalf("request = (%v, %v), want accepted", accepted, err)
	}

	rec := h.waitForStatus(t, id, processing.StatusFailed)
	if rec.ErrorMessage == nil || !strings.Contains(*rec.ErrorMessage, "unavailable") {
		t.Fatalf("error message should mention unavailability, got %v", rec.ErrorMessage)
	}

	// service recovers; a fresh trigger resets the terminal record and
	// succeeds
	h.analyzer.set(okResult("recovered", 0.7))

	accepted, err = h.dispatcher.Request(context.Background(), id)
	if err != nil || !accepted {
		t.Fatalf("re-trigger = (%v, %v), want accepted", accepted, err)
	}

	rec = h.waitForStatus(t, id, processing.StatusCompleted)
	if rec.ErrorMessage != nil {
		t.Errorf("recovered record should have no error message, got %q", *rec.ErrorMessage)
	}
}

func TestRunFailsOnMalformedResponse(t *testing.T) {
	h := newHarness(t, nil)
	h.analyzer.set(func(analysis.Prompt) (*analysis.Result, error) {
		return nil, fmt.Errorf("%w: no JSON object in payload", analysis.ErrMalformedResponse)
	})

	id := h.addDocument(t, documents.TypeReport, "text/plain", []byte("annual report"))

	accepted, err := h.dispatcher.Request(context.Background(), id)
	if err != nil || !accepted {
		t.Fatalf("request = (%v, %v), want accepted", accepted, err)
	}

	rec := h.waitForStatus(t, id, processing.StatusFailed)
	if rec.ErrorMessage == nil || !strings.Contains(*rec.ErrorMessage, "malformed") {
		t.Fatalf("error message should mention the malformed response, got %v", rec.ErrorMessage)
	}
}

func TestRunWarnsOnOversizedText(t *testing.T) {
	h := newHarness(t, func(options *pipeline.Options, extractOptions *extraction.Options) {
		options.TextBudget = 64
		extractOptions.MaxContentLength = 32
	})

	content := []byte(strings.Repeat("lengthy agreement clause ", 40))
	id := h.addDocument(t, documents.TypeAgreement, "text/plain", content)

	accepted, err := h.dispatcher.Request(context.Background(), id)
	if err != nil || !accepted {
		t.Fatalf("request = (%v, %v), want accepted", accepted, err)
	}

	rec := h.waitForStatus(t, id, processing.StatusWarning)
	if len(rec.AnalysisResult) == 0 {
		t.Error("warning record should still carry an analysis result")
	}
	if rec.ErrorMessage == nil || !strings.Contains(*rec.ErrorMessage, "exceeds") {
		t.Fatalf("error message should carry the length warning, got %v", rec.ErrorMessage)
	}

	prompt, found := h.analyzer.lastPrompt()
	if !found {
		t.Fatal("analyzer should have been called")
	}
	if strings.Contains(prompt.User, string(content)) {
		t.Error("prompt should not embed the full oversized text")
	}
}

func TestRequestRejectsActiveRecord(t *testing.T) {
	h := newHarness(t, nil)
	id := h.addDocument(t, documents.TypeReport, "text/plain", []byte("content"))
	h.store.seed(id, processing.StatusProcessing)

	accepted, err := h.dispatcher.Request(context.Background(), id)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if accepted {
		t.Error("request against a processing record should be rejected")
	}
}

func TestRequestRollsBackWhenPoolFull(t *testing.T) {
	release := make(chan struct{})

	h := newHarness(t, func(options *pipeline.Options, _ *extraction.Options) {
		options.Workers = 1
	})
	h.analyzer.set(func(prompt analysis.Prompt) (*analysis.Result, error) {
		<-release
		return okResult("done", 0.5)(prompt)
	})

	first := h.addDocument(t, documents.TypeReport, "text/plain", []byte("first"))
	second := h.addDocument(t, documents.TypeReport, "text/plain", []byte("second"))

	accepted, err := h.dispatcher.Request(context.Background(), first)
	if err != nil || !accepted {
		t.Fatalf("first request = (%v, %v), want accepted", accepted, err)
	}

	// wait until the single worker is inside the analyzer call
	deadline := time.Now().Add(2 * time.Second)
	for {
		if _, found := h.analyzer.lastPrompt(); found {
			break
		}
		if time.Now().After(deadline) {
			close(release)
			t.Fatal("first run never reached the analyzer")
		}
		time.Sleep(5 * time.Millisecond)
	}

	accepted, err = h.dispatcher.Request(context.Background(), second)
	if err != nil {
		close(release)
		t.Fatalf("second request: %v", err)
	}
	if accepted {
		close(release)
		t.Fatal("second request should be rejected while the pool is full")
	}

	rec, err := h.store.Get(context.Background(), second)
	if err != nil {
		close(release)
		t.Fatalf("get second record: %v", err)
	}
	if rec.Status != processing.StatusPending {
		t.Errorf("rejected request should roll back to pending, got %s", rec.Status)
	}

	close(release)
	h.waitForStatus(t, first, processing.StatusCompleted)
}

func TestRunDiscardsResultForDeletedDocument(t *testing.T) {
	analyzed := make(chan struct{})
	release := make(chan struct{})

	h := newHarness(t, nil)
	h.analyzer.set(func(prompt analysis.Prompt) (*analysis.Result, error) {
		close(analyzed)
		<-release
		return okResult("stale", 0.5)(prompt)
	})

	id := h.addDocument(t, documents.TypeReport, "text/plain", []byte("content"))

	accepted, err := h.dispatcher.Request(context.Background(), id)
	if err != nil || !accepted {
		t.Fatalf("request = (%v, %v), want accepted", accepted, err)
	}

	<-analyzed
	h.docs.remove(id)
	close(release)

	// the run must notice the deletion and leave the record untouched
	time.Sleep(50 * time.Millisecond)
	rec, err := h.store.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get record: %v", err)
	}
	if rec.Status != processing.StatusProcessing {
		t.Errorf("deleted document's record = %s, want untouched processing", rec.Status)
	}
	if rec.AnalysisResult != nil {
		t.Error("deleted document's record should carry no result")
	}
}

func TestRequestUnknownDocument(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.dispatcher.Request(context.Background(), uuid.New())
	if err == nil {
		t.Fatal("request for an unknown document should fail")
	}
}
