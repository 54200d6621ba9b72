package ocr

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// Document is the OCR engine's JSON output: one annotation per text block.
type Document struct {
	TextAnnotations []TextAnnotation `json:"text_annotations"`
}

type TextAnnotation struct {
	BlockDetails BlockDetails `json:"block_details"`
}

type BlockDetails struct {
	BlockDescription string `json:"block_description"`
}

const documentSchema = `{
  "type": "object",
  "required": ["text_annotations"],
  "properties": {
    "text_annotations": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["block_details"],
        "properties": {
          "block_details": {
            "type": "object",
            "required": ["block_description"],
            "properties": {
              "block_description": {"type": "string"}
            }
          }
        }
      }
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("ocr_document.json", strings.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	return compiler.Compile("ocr_document.json")
})

// DecodeJSON validates an OCR JSON document and concatenates every block
// description, each followed by lineEnd.
func DecodeJSON(r io.Reader, lineEnd string) (string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read ocr json: %w", err)
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", fmt.Errorf("decode ocr json: %v: %w", err, common.ErrInvalidInput)
	}
	schema, err := compiledSchema()
	if err != nil {
		return "", fmt.Errorf("compile schema: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return "", fmt.Errorf("ocr json does not match schema: %v: %w", err, common.ErrInvalidInput)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("decode ocr json: %v: %w", err, common.ErrInvalidInput)
	}
	var b strings.Builder
	for _, a := range doc.TextAnnotations {
		b.WriteString(a.BlockDetails.BlockDescription)
		b.WriteString(lineEnd)
	}
	return b.String(), nil
}
