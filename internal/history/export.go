package history

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExportEntry serializes an entry as a self-contained JSON document. It does
// not count as an access.
func (s *Store) ExportEntry(id string) (string, error) {
	e, err := s.Peek(id)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(Export{
		Name:       e.Name,
		Code:       e.Code,
		Prompt:     e.Prompt,
		Metadata:   e.Metadata,
		ExportedAt: s.clock.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportEntry records an exported document as a new entry. The original id
// is not restored; the entry gets a fresh id and goes through the same
// versioning and pruning as Add.
func (s *Store) ImportEntry(data string) (Entry, error) {
	var doc Export
	dec := json.NewDecoder(strings.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	if strings.TrimSpace(doc.Code) == "" {
		return Entry{}, fmt.Errorf("%w: missing code", ErrMalformedImport)
	}
	if _, err := doc.Metadata.Normalize(); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrMalformedImport, err)
	}
	return s.add(strings.TrimSpace(doc.Name), doc.Code, doc.Prompt, doc.Metadata)
}
