package analysis

import (
	"fmt"

	"github.com/JaimeStill/almanac/internal/documents"
	"github.com/JaimeStill/almanac/pkg/formatting"
)

// DefaultTextBudget bounds the characters of extracted text embedded in a
// prompt. This is the one place oversized extracted text is actually cut.
const DefaultTextBudget = 12_000

// Prompt is a fully rendered request to the analysis service.
type Prompt struct {
	System string `json:"system_prompt"`
	User   string `json:"user_prompt"`
}

const systemInstructions = `You are a document analyst. Analyze the provided document and respond with a single JSON object matching the requested field schema. Respond with JSON only, no surrounding prose. Always include "summary" (a concise description of the document, at most 500 characters) and "confidence" (a number between 0 and 1 reflecting how confident you are in the analysis).`

const contractFields = `"parties" (array of party names), "key_dates" (array of {date, description}), "financial_terms" (string), "key_obligations" (array of strings), "risk_factors" (array of strings), "recommended_actions" (array of strings)`

const reportFields = `"key_findings" (array of strings), "metrics" (array of {name, value}), "trends" (array of strings), "recommendations" (array of strings)`

const genericFields = `"key_points" (array of strings), "entities" (array of strings), "recommended_actions" (array of strings)`

// fieldSchemas keys the type-specific portion of the user prompt. Types
// without a dedicated schema fall back to the generic field set.
var fieldSchemas = map[documents.Type]string{
	documents.TypeContract:  contractFields,
	documents.TypeAgreement: contractFields,
	documents.TypeReport:    reportFields,
}

// BuildPrompt renders the prompt for a document. Deterministic given its
// inputs. Text longer than budget is truncated before embedding; a zero or
// negative budget applies DefaultTextBudget. Returns ErrInvalidDocumentType
// for unrecognized types.
func BuildPrompt(docType documents.Type, title, text string, budget int) (Prompt, error) {
	if !docType.Valid() {
		return Prompt{}, fmt.Errorf("%w: %q", ErrInvalidDocumentType, docType)
	}

	if budget <= 0 {
		budget = DefaultTextBudget
	}

	fields, ok := fieldSchemas[docType]
	if !ok {
		fields = genericFields
	}

	user := fmt.Sprintf(
		"Document title: %s\nDocument type: %s\n\nIn addition to \"summary\" and \"confidence\", include these fields: %s\n\nDocument content:\n%s",
		title, docType, fields,
		formatting.Truncate(text, budget),
	)

	return Prompt{System: systemInstructions, User: user}, nil
}
