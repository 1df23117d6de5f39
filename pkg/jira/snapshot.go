package jira

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
)

// Sentinel errors for snapshot loading.
var (
	// ErrMalformedSnapshot indicates JSON that is not a recognized issue
	// export shape.
	ErrMalformedSnapshot = errors.New("malformed issue snapshot")
	// ErrMissingKey indicates an issue record without a key.
	ErrMissingKey = errors.New("issue record has no key")
	// ErrMissingFields indicates an issue record without a fields object.
	ErrMissingFields = errors.New("issue record has no fields")
)

// snapshotEnvelope matches the structured export shape {"issues": [...]}.
type snapshotEnvelope struct {
	Issues []json.RawMessage `json:"issues"`
}

// LoadSnapshot reads Jira issues from an offline JSON export. Three shapes
// are accepted: a bare issue array, an object with an issues array, and a
// single issue object.
func LoadSnapshot(path string) ([]Issue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	issues, err := DecodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("snapshot %s: %w", path, err)
	}

	return issues, nil
}

// DecodeSnapshot parses raw snapshot bytes into issue records.
func DecodeSnapshot(data []byte) ([]Issue, error) {
	raws, err := splitRecords(data)
	if err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(raws))

	for idx, raw := range raws {
		var issue Issue

		if err := json.Unmarshal(raw, &issue); err != nil {
			return nil, fmt.Errorf("issue %d: %w: %w", idx, ErrMalformedSnapshot, err)
		}

		if err := validateRecord(raw, &issue); err != nil {
			return nil, fmt.Errorf("issue %d: %w", idx, err)
		}

		issues = append(issues, issue)
	}

	return issues, nil
}

// splitRecords normalizes the three supported top-level shapes into a list
// of raw issue objects.
func splitRecords(data []byte) ([]json.RawMessage, error) {
	var asList []json.RawMessage
	if err := json.Unmarshal(data, &asList); err == nil {
		return asList, nil
	}

	var envelope snapshotEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	if envelope.Issues != nil {
		return envelope.Issues, nil
	}

	// Single issue object.
	var single map[string]json.RawMessage
	if err := json.Unmarshal(data, &single); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	if _, hasKey := single["key"]; hasKey {
		if _, hasFields := single["fields"]; hasFields {
			return []json.RawMessage{data}, nil
		}
	}

	return nil, fmt.Errorf("%w: expected an issue array, an issues envelope, or a single issue", ErrMalformedSnapshot)
}

// validateRecord rejects records missing the fields every downstream
// component relies on.
func validateRecord(raw json.RawMessage, issue *Issue) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return fmt.Errorf("%w: %w", ErrMalformedSnapshot, err)
	}

	if _, ok := probe["key"]; !ok || issue.Key == "" {
		return ErrMissingKey
	}

	if _, ok := probe["fields"]; !ok {
		return ErrMissingFields
	}

	return nil
}
