package extraction

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

func (e *Extractor) extractHTML(content []byte) Outcome {
	doc, err := html.Parse(bytes.NewReader(content))
	if err != nil {
		return e.failure("parse html: %v", err)
	}

	var sb strings.Builder
	collectText(doc, &sb)

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return Outcome{
			Text:     "",
			Warnings: []string{"html document contains no visible text"},
		}
	}

	return Outcome{Text: text}
}

func collectText(n *html.Node, sb *strings.Builder) {
	switch n.Type {
	case html.ElementNode:
		// skip non-content elements
		switch n.Data {
		case "script", "style", "head", "noscript":
			return
		}
	case html.TextNode:
		if text := strings.TrimSpace(n.Data); text != "" {
			sb.WriteString(text)
			sb.WriteString("\n")
		}
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		collectText(child, sb)
	}
}
