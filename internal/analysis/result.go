package analysis

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Result is a validated analysis outcome. Raw preserves the full JSON object
// as returned by the service; Summary and Confidence are lifted out for the
// orchestrator and API consumers.
type Result struct {
	Summary    string          `json:"summary"`
	Confidence float64         `json:"confidence"`
	Raw        json.RawMessage `json:"raw"`
}

// resultSchema is the structural contract every analysis response must meet
// regardless of document type. Confidence must be present and in range;
// out-of-range values are validation failures, never clamped.
const resultSchema = `{
	"type": "object",
	"required": ["summary", "confidence"],
	"properties": {
		"summary": {"type": "string", "minLength": 1},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

var compiledSchema = mustCompileSchema()

func mustCompileSchema() *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("result.json", bytes.NewReader([]byte(resultSchema))); err != nil {
		panic(fmt.Sprintf("add result schema: %v", err))
	}
	return compiler.MustCompile("result.json")
}

// ParseResult validates raw analysis JSON and lifts the common fields.
// Returns ErrInvalidResult when the object does not meet the structural
// contract.
func ParseResult(raw json.RawMessage) (*Result, error) {
	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}

	if err := compiledSchema.Validate(value); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}

	var lifted struct {
		Summary    string  `json:"summary"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(raw, &lifted); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResult, err)
	}

	return &Result{
		Summary:    lifted.Summary,
		Confidence: lifted.Confidence,
		Raw:        raw,
	}, nil
}
