package classify

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

// schemaVersion is bumped whenever the persisted model layout or the feature
// vector changes incompatibly.
const schemaVersion = 1

// ErrSchemaMismatch reports a persisted model whose schema version or feature
// layout no longer matches this build.
var ErrSchemaMismatch = errors.New("model schema mismatch")

// Save writes the model as indented JSON at path.
func Save(path string, m *Model) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("classify: marshal model: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("classify: write model %s: %w", path, err)
	}
	return nil
}

// Load reads a persisted model and verifies it matches the current schema
// version and feature layout.
func Load(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("classify: read model %s: %w", path, err)
	}
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("classify: parse model %s: %w", path, err)
	}
	if m.SchemaVersion != schemaVersion {
		return nil, fmt.Errorf("classify: %w: version %d, want %d", ErrSchemaMismatch, m.SchemaVersion, schemaVersion)
	}
	if !slices.Equal(m.FeatureNames, FeatureNames()) {
		return nil, fmt.Errorf("classify: %w: feature layout %v", ErrSchemaMismatch, m.FeatureNames)
	}
	if m.Forest == nil || len(m.Forest.Trees) == 0 {
		return nil, fmt.Errorf("classify: %w: empty forest", ErrSchemaMismatch)
	}
	return &m, nil
}
