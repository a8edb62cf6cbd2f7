package extraction_test

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/JaimeStill/almanac/internal/extraction"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newExtractor(t *testing.T, opts extraction.Options) *extraction.Extractor {
	t.Helper()
	return extraction.New(opts, discardLogger())
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"exact pdf", "application/pdf", extraction.MimePDF},
		{"vendor pdf", "application/x-pdf", extraction.MimePDF},
		{"bare pdf", "PDF", extraction.MimePDF},
		{"docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", extraction.MimeWord},
		{"legacy word", "application/msword", extraction.MimeWord},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", extraction.MimeSpreadsheet},
		{"legacy excel", "application/vnd.ms-excel", extraction.MimeSpreadsheet},
		{"excel alias", "Excel.Sheet", extraction.MimeSpreadsheet},
		{"html", "text/html; charset=utf-8", extraction.MimeHTML},
		{"json", "application/json", extraction.MimeJSON},
		{"plain text", "text/plain", extraction.MimeText},
		{"csv", "text/csv", extraction.MimeText},
		{"case insensitive", "APPLICATION/PDF", extraction.MimePDF},
		{"unrecognized passes through", "application/octet-stream", "application/octet-stream"},
		{"empty passes through", "", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := extraction.Normalize(tc.raw); got != tc.want {
				t.Errorf("Normalize(%q) = %q, want %q", tc.raw, got, tc.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"application/pdf",
		"application/msword",
		"Excel.Sheet",
		"text/html",
		"application/json",
		"text/plain",
		"application/octet-stream",
		"",
	}

	for _, raw := range inputs {
		once := extraction.Normalize(raw)
		twice := extraction.Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q != %q", raw, once, twice)
		}
	}
}

func TestExtractEmptyContent(t *testing.T) {
	e := newExtractor(t, extraction.DefaultOptions())

	mimes := []string{
		extraction.MimeText,
		extraction.MimeJSON,
		extraction.MimeHTML,
		extraction.MimePDF,
		extraction.MimeWord,
		extraction.MimeSpreadsheet,
		"application/octet-stream",
	}

	for _, mime := range mimes {
		outcome := e.Extract(nil, mime, "empty.bin")
		if !outcome.Failed {
			t.Errorf("Extract(%q) on empty content should fail", mime)
		}
		if outcome.FailureReason == "" {
			t.Errorf("Extract(%q) empty content needs a failure reason", mime)
		}
	}
}

func TestExtractPlainText(t *testing.T) {
	e := newExtractor(t, extraction.DefaultOptions())

	outcome := e.Extract([]byte("Employment Agreement between parties"), extraction.MimeText, "agreement.txt")
	if outcome.Failed {
		t.Fatalf("unexpected failure: %s", outcome.FailureReason)
	}
	if outcome.Text != "Employment Agreement between parties" {
		t.Errorf("Text = %q, want identity transform", outcome.Text)
	}
	if len(outcome.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", outcome.Warnings)
	}
	if outcome.Duration <= 0 {
		t.Error("Duration should be set")
	}
}

func TestExtractJSON(t *testing.T) {
	e := newExtractor(t, extraction.DefaultOptions())

	t.Run("valid JSON is pretty-printed", func(t *testing.T) {
		outcome := e.Extract([]byte(`{"a":1,"b":"two"}`), extraction.MimeJSON, "data.json")
		if outcome.Failed {
			t.Fatalf("unexpected failure: %s", outcome.FailureReason)
		}
		if !strings.Contains(outcome.Text, "\n") {
			t.Errorf("expected indented output, got %q", outcome.Text)
		}
	})

	t.Run("invalid JSON warns and returns raw text", func(t *testing.T) {
		outcome := e.Extract([]byte(`{"a": broken`), extraction.MimeJSON, "data.json")
		if outcome.Failed {
			t.Fatal("parse failure must not fail the extraction")
		}
		if len(outcome.Warnings) == 0 {
			t.Fatal("expected a parse warning")
		}
		if !strings.Contains(outcome.Text, "broken") {
			t.Errorf("raw content should be returned, got %q", outcome.Text)
		}
	})
}

func TestExtractHTML(t *testing.T) {
	e := newExtractor(t, extraction.DefaultOptions())

	doc := `<html><head><title>ignored</title><script>var x = 1;</script></head>
		<body><h1>Quarterly Report</h1><p>Revenue grew.</p></body></html>`

	outcome := e.Extract([]byte(doc), extraction.MimeHTML, "report.html")
	if outcome.Failed {
		t.Fatalf("unexpected failure: %s", outcome.FailureReason)
	}
	if !strings.Contains(outcome.Text, "Quarterly Report") || !strings.Contains(outcome.Text, "Revenue grew.") {
		t.Errorf("visible text missing: %q", outcome.Text)
	}
	if strings.Contains(outcome.Text, "var x") {
		t.Errorf("script content should be skipped: %q", outcome.Text)
	}
}

func TestExtractWord(t *testing.T) {
	e := newExtractor(t, extraction.DefaultOptions())

	outcome := e.Extract(buildDocx(t, "Service Contract", "Payment due in 30 days."), extraction.MimeWord, "contract.docx")
	if outcome.Failed {
		t.Fatalf("unexpected failure: %s", outcome.FailureReason)
	}
	if !strings.Contains(outcome.Text, "Service Contract") || !strings.Contains(outcome.Text, "Payment due in 30 days.") {
		t.Errorf("paragraph text missing: %q", outcome.Text)
	}
}

func TestExtractWordCorrupt(t *testing.T) {
	e := newExtractor(t, extraction.DefaultOptions())

	outcome := e.Extract([]byte("not a zip archive"), extraction.MimeWord, "contract.docx")
	if !outcome.Failed {
		t.Fatal("corrupt docx should fail")
	}
	if outcome.FailureReason == "" {
		t.Fatal("failure reason required")
	}
}

func TestExtractSpreadsheet(t *testing.T) {
	e := newExtractor(t, extraction.DefaultOptions())

	outcome := e.Extract(buildXlsx(t), extraction.MimeSpreadsheet, "metrics.xlsx")
	if outcome.Failed {
		t.Fatalf("unexpected failure: %s", outcome.FailureReason)
	}
	if !strings.Contains(outcome.Text, "Revenue") || !strings.Contains(outcome.Text, "1200") {
		t.Errorf("cell data missing: %q", outcome.Text)
	}
}

func TestExtractUnsupported(t *testing.T) {
	e := newExtractor(t, extraction.DefaultOptions())

	outcome := e.Extract([]byte{0x00, 0x01}, "application/octet-stream", "blob.bin")
	if outcome.Failed {
		t.Fatal("unsupported types return a placeholder, not a failure")
	}
	if !strings.Contains(outcome.Text, "application/octet-stream") {
		t.Errorf("placeholder should name the type: %q", outcome.Text)
	}
	if len(outcome.Warnings) == 0 {
		t.Error("expected an unsupported-type warning")
	}
}

func TestExtractOverLengthWarnsWithoutTruncating(t *testing.T) {
	e := newExtractor(t, extraction.Options{MaxContentLength: 10})

	text := strings.Repeat("a", 50)
	outcome := e.Extract([]byte(text), extraction.MimeText, "big.txt")
	if outcome.Failed {
		t.Fatalf("unexpected failure: %s", outcome.FailureReason)
	}
	if len(outcome.Text) != 50 {
		t.Errorf("extractor must not truncate, got length %d", len(outcome.Text))
	}
	if len(outcome.Warnings) == 0 {
		t.Error("expected an over-length warning")
	}
}

func TestExtractMetadataFooter(t *testing.T) {
	e := newExtractor(t, extraction.Options{
		MaxContentLength:      1000,
		IncludeMetadataFooter: true,
	})

	outcome := e.Extract([]byte("body"), extraction.MimeText, "note.txt")
	if !strings.Contains(outcome.Text, "note.txt") {
		t.Errorf("footer should include the file name: %q", outcome.Text)
	}
}

func buildDocx(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var body strings.Builder
	body.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	body.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		body.WriteString("<w:p><w:r><w:t>")
		if err := xml.EscapeText(&body, []byte(p)); err != nil {
			t.Fatalf("escape paragraph: %v", err)
		}
		body.WriteString("</w:t></w:r></w:p>")
	}
	body.WriteString(`</w:body></w:document>`)
	payload := []byte(body.String())

	var buf bytes.Buffer
	archive := zip.NewWriter(&buf)

	part, err := archive.Create("word/document.xml")
	if err != nil {
		t.Fatalf("create document part: %v", err)
	}
	if _, err := part.Write(payload); err != nil {
		t.Fatalf("write document part: %v", err)
	}
	if err := archive.Close(); err != nil {
		t.Fatalf("close archive: %v", err)
	}

	return buf.Bytes()
}

func buildXlsx(t *testing.T) []byte {
	t.Helper()

	f := excelize.NewFile()
	if err := f.SetSheetRow("Sheet1", "A1", &[]any{"Metric", "Value"}); err != nil {
		t.Fatalf("set header row: %v", err)
	}
	if err := f.SetSheetRow("Sheet1", "A2", &[]any{"Revenue", 1200}); err != nil {
		t.Fatalf("set data row: %v", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("write workbook: %v", err)
	}

	return buf.Bytes()
}
