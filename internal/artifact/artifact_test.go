package artifact

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestNewCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "out")
	s, err := New(root)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for _, dir := range []string{PlotsDir, ModelsDir, ReportsDir} {
		info, err := os.Stat(filepath.Join(root, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("missing run directory %s: %v", dir, err)
		}
	}
	if s.RunID() == "" {
		t.Error("run id not generated")
	}
}

func TestWithRunID(t *testing.T) {
	s, err := New(t.TempDir(), WithRunID("fixed-id"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.RunID() != "fixed-id" {
		t.Errorf("run id %q, want fixed-id", s.RunID())
	}
}

func TestWriteJSONAndManifest(t *testing.T) {
	root := t.TempDir()
	s, err := New(root, WithRunID("run-1"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	payload := map[string]int{"rows": 42}
	if err := s.WriteJSON(filepath.Join(ModelsDir, MetricsFile), "metrics", payload); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	s.Record(filepath.Join(PlotsDir, "01_category_counts.png"), "chart")

	if err := s.WriteManifest(map[string]string{"status": "ok"}); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(root, ManifestFile))
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if m.RunID != "run-1" {
		t.Errorf("manifest run id %q", m.RunID)
	}
	if len(m.Artifacts) != 2 {
		t.Fatalf("expected 2 artifacts, got %+v", m.Artifacts)
	}
	// Entries sort by path: models/ before plots/.
	if m.Artifacts[0].Kind != "metrics" || m.Artifacts[1].Kind != "chart" {
		t.Errorf("unexpected manifest order: %+v", m.Artifacts)
	}
	if m.FinishedAt.Before(m.StartedAt) {
		t.Error("finished before started")
	}

	var round map[string]int
	raw, err := os.ReadFile(s.MetricsPath())
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if err := json.Unmarshal(raw, &round); err != nil || round["rows"] != 42 {
		t.Errorf("metrics round trip failed: %v %v", round, err)
	}
}

func TestWriteJSONBadPath(t *testing.T) {
	s, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.WriteJSON(filepath.Join("nope", "missing.json"), "x", 1); err == nil {
		t.Fatal("expected error writing into a missing directory")
	}
}
