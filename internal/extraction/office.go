package extraction

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractWord pulls paragraph text from the OOXML document part. Zip archives
// without a word/document.xml entry are legacy or corrupt and fail outright.
func (e *Extractor) extractWord(content []byte) Outcome {
	archive, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return e.failure("open docx archive: %v", err)
	}

	part, err := archive.Open("word/document.xml")
	if err != nil {
		return e.failure("docx missing document part: %v", err)
	}
	defer part.Close()

	text, err := wordText(part)
	if err != nil {
		return e.failure("parse docx document part: %v", err)
	}

	if text == "" {
		return Outcome{
			Text:     "",
			Warnings: []string{"word document contains no text"},
		}
	}

	return Outcome{Text: text}
}

func wordText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var sb strings.Builder
	inText := false

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}

		switch t := token.(type) {
		case xml.StartElement:
			if t.Name.Local == "t" {
				inText = true
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}

	return strings.TrimSpace(sb.String()), nil
}

// extractSpreadsheet renders each sheet as tab-separated rows prefixed by the
// sheet name.
func (e *Extractor) extractSpreadsheet(content []byte) Outcome {
	workbook, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return e.failure("open spreadsheet: %v", err)
	}
	defer workbook.Close()

	var (
		sb       strings.Builder
		warnings []string
	)

	for _, sheet := range workbook.GetSheetList() {
		rows, err := workbook.GetRows(sheet)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("read sheet %q: %v", sheet, err))
			continue
		}

		sb.WriteString("## " + sheet + "\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		warnings = append(warnings, "spreadsheet contains no cell data")
	}

	return Outcome{Text: text, Warnings: warnings}
}
