package jira

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation indicates a snapshot that fails schema validation.
var ErrSchemaViolation = errors.New("snapshot schema violation")

// changelogDefinition describes one issue changelog; it is shared between
// the standalone issue schema and the composed snapshot schema so the
// "#/definitions/changelog" refs resolve from either document root.
const changelogDefinition = `{
  "type": "object",
  "properties": {
    "histories": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["created"],
        "properties": {
          "created": {"type": "string"},
          "items": {
            "type": "array",
            "items": {
              "type": "object",
              "required": ["field"],
              "properties": {
                "field": {"type": "string"},
                "fromString": {"type": ["string", "null"]},
                "toString": {"type": ["string", "null"]}
              }
            }
          }
        }
      }
    }
  }
}`

// issueSchema describes one issue record.
const issueSchema = `{
  "type": "object",
  "required": ["key", "fields"],
  "properties": {
    "id": {"type": "string"},
    "key": {"type": "string", "minLength": 1},
    "fields": {
      "type": "object",
      "properties": {
        "summary": {"type": "string"},
        "created": {"type": "string"},
        "status": {
          "type": "object",
          "properties": {"name": {"type": "string"}}
        },
        "changelog": {"$ref": "#/definitions/changelog"}
      }
    },
    "changelog": {"$ref": "#/definitions/changelog"}
  },
  "definitions": {"changelog": ` + changelogDefinition + `}
}`

// snapshotSchema accepts the three supported top-level snapshot shapes.
const snapshotSchema = `{
  "oneOf": [
    {"type": "array", "items": ` + issueSchema + `},
    {
      "type": "object",
      "required": ["issues"],
      "properties": {"issues": {"type": "array", "items": ` + issueSchema + `}}
    },
    ` + issueSchema + `
  ],
  "definitions": {"changelog": ` + changelogDefinition + `}
}`

// ValidateSnapshot checks raw snapshot bytes against the issue export
// schema and reports every violation, not just the first.
func ValidateSnapshot(data []byte) error {
	schemaLoader := gojsonschema.NewStringLoader(snapshotSchema)
	documentLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate snapshot: %w", err)
	}

	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(violations, "; "))
}
