package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/roach88/morph/internal/lexicon"
)

// marshalJSON encodes v as compact JSON TEXT with HTML escaping disabled,
// so stored entries keep characters such as "&" and "<" verbatim.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// marshalEntry converts a crushed entry to JSON TEXT for storage.
func marshalEntry(e lexicon.Entry) (string, error) {
	data, err := marshalJSON(e)
	if err != nil {
		return "", fmt.Errorf("marshal entry: %w", err)
	}
	return data, nil
}

// unmarshalEntry parses JSON TEXT to an entry.
func unmarshalEntry(data string) (lexicon.Entry, error) {
	var e lexicon.Entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return lexicon.Entry{}, fmt.Errorf("unmarshal entry: %w", err)
	}
	return e, nil
}

// marshalRoots converts a root list to JSON TEXT. A nil list is stored as
// an empty array.
func marshalRoots(roots []string) (string, error) {
	if roots == nil {
		roots = []string{}
	}
	data, err := marshalJSON(roots)
	if err != nil {
		return "", fmt.Errorf("marshal roots: %w", err)
	}
	return data, nil
}

// unmarshalRoots parses JSON TEXT to a root list. Returns an empty slice
// (not nil) for an empty array.
func unmarshalRoots(data string) ([]string, error) {
	roots := []string{}
	if data == "" || data == "[]" {
		return roots, nil
	}
	if err := json.Unmarshal([]byte(data), &roots); err != nil {
		return nil, fmt.Errorf("unmarshal roots: %w", err)
	}
	return roots, nil
}
