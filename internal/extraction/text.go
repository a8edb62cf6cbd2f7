package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/JaimeStill/almanac/pkg/formatting"
)

func (e *Extractor) extractText(content []byte) Outcome {
	if !utf8.Valid(content) {
		return Outcome{
			Text:     string(bytes.ToValidUTF8(content, []byte("�"))),
			Warnings: []string{"content contains invalid UTF-8 sequences, replaced"},
		}
	}

	return Outcome{Text: string(content)}
}

// extractJSON pretty-prints JSON content. A parse failure is a warning, not a
// failure: the raw bytes are returned as best-effort text, truncated to the
// content limit.
func (e *Extractor) extractJSON(content []byte) Outcome {
	var buf bytes.Buffer
	if err := json.Indent(&buf, content, "", "  "); err != nil {
		return Outcome{
			Text: formatting.Truncate(string(content), e.options.MaxContentLength),
			Warnings: []string{
				fmt.Sprintf("content is not valid JSON (%v), returning raw text", err),
			},
		}
	}

	return Outcome{Text: buf.String()}
}
