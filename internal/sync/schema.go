package sync

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/zenjispace/zenjid/internal/apperror"
	"github.com/zenjispace/zenjid/internal/model"
)

// documentSchema is what a pulled document must satisfy before any of it is
// written locally. The Go types already enforce shape during decoding; the
// schema adds the constraints types can't express — non-empty user id, the
// chat role enum, non-negative counters.
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["userId", "version", "data"],
	"properties": {
		"userId": {"type": "string", "minLength": 1},
		"version": {"type": "string", "minLength": 1},
		"data": {
			"type": "object",
			"properties": {
				"focusStats": {
					"type": "object",
					"properties": {
						"focusCount":   {"type": "integer", "minimum": 0},
						"focusMinutes": {"type": "integer", "minimum": 0},
						"breakCount":   {"type": "integer", "minimum": 0}
					}
				},
				"journalEntries": {
					"type": ["array", "null"],
					"items": {
						"type": "object",
						"required": ["id", "date", "content"],
						"properties": {
							"id":      {"type": "integer"},
							"date":    {"type": "string"},
							"content": {"type": "string"}
						}
					}
				},
				"chatHistory": {
					"type": ["array", "null"],
					"items": {
						"type": "object",
						"required": ["role", "content"],
						"properties": {
							"role": {"enum": ["user", "assistant"]}
						}
					}
				}
			}
		}
	}
}`

func compileDocumentSchema() (*jsonschema.Schema, error) {
	raw, err := jsonschema.UnmarshalJSON(strings.NewReader(documentSchema))
	if err != nil {
		return nil, fmt.Errorf("sync: parsing document schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("syncdocument.json", raw); err != nil {
		return nil, fmt.Errorf("sync: registering document schema: %w", err)
	}
	schema, err := compiler.Compile("syncdocument.json")
	if err != nil {
		return nil, fmt.Errorf("sync: compiling document schema: %w", err)
	}
	return schema, nil
}

// validateDocument checks a fetched document against the schema. It runs
// before apply, so a malformed document causes no local writes at all.
func (e *Engine) validateDocument(doc *model.SyncDocument) error {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return apperror.ValidationFailed("document", fmt.Sprintf("remote document not encodable: %v", err))
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(encoded))
	if err != nil {
		return apperror.ValidationFailed("document", fmt.Sprintf("remote document not decodable: %v", err))
	}
	if err := e.schema.Validate(instance); err != nil {
		return apperror.ValidationFailed("document", fmt.Sprintf("remote document rejected: %v", err))
	}
	return nil
}
