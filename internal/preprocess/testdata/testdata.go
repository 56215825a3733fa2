// Package testdata embeds a labeled corpus of raw crime-type descriptions
// used to validate category bucketing.
package testdata

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed corpus.json
var corpusJSON []byte

// CorpusEntry is a labeled raw crime description for bucketing validation.
type CorpusEntry struct {
	Raw              string `json:"raw"`
	ExpectedCategory string `json:"expected_category"`
	Description      string `json:"description"`
}

// LoadCorpus parses the embedded corpus.json and returns all entries.
func LoadCorpus() ([]CorpusEntry, error) {
	var entries []CorpusEntry
	if err := json.Unmarshal(corpusJSON, &entries); err != nil {
		return nil, fmt.Errorf("parse corpus.json: %w", err)
	}
	return entries, nil
}
