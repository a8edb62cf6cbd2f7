package extraction

import (
	"bytes"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

func (e *Extractor) extractPDF(content []byte) Outcome {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return e.failure("open pdf: %v", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return e.failure("read pdf text: %v", err)
	}

	var sb strings.Builder
	if _, err := io.Copy(&sb, plain); err != nil {
		return e.failure("read pdf text: %v", err)
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Outcome{
			Text:     "",
			Warnings: []string{"pdf contains no extractable text, possibly scanned images"},
		}
	}

	return Outcome{Text: text}
}
