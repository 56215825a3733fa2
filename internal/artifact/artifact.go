// Package artifact manages the on-disk layout of one analysis run: chart
// images, the persisted model, the PDF report and a JSON run manifest that
// records what was produced.
package artifact

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultBufSize = 64 * 1024 // 64KB

// Subdirectories created under the store root.
const (
	PlotsDir   = "plots"
	ModelsDir  = "models"
	ReportsDir = "reports"
)

// Fixed artifact file names.
const (
	ModelFile    = "model.json"
	MetricsFile  = "metrics.json"
	ReportFile   = "security_report.pdf"
	ManifestFile = "run.json"
)

// Option configures a Store.
type Option func(*Store)

// WithRunID pins the run identifier instead of generating one.
func WithRunID(id string) Option {
	return func(s *Store) { s.runID = id }
}

// WithBufSize sets the bufio.Writer buffer size for JSON writes. Default: 64KB.
func WithBufSize(bytes int) Option {
	return func(s *Store) { s.bufSize = bytes }
}

// Store writes run artifacts under a single root directory.
type Store struct {
	root    string
	runID   string
	started time.Time
	bufSize int

	mu    sync.Mutex
	files map[string]string // relative path -> kind
}

// New creates the run directory layout under root.
func New(root string, opts ...Option) (*Store, error) {
	s := &Store{
		root:    root,
		runID:   uuid.NewString(),
		started: time.Now().UTC(),
		bufSize: defaultBufSize,
		files:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, dir := range []string{PlotsDir, ModelsDir, ReportsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("artifact: create %s: %w", dir, err)
		}
	}
	return s, nil
}

// RunID returns the identifier of this run.
func (s *Store) RunID() string { return s.runID }

// Root returns the store root directory.
func (s *Store) Root() string { return s.root }

// Plots returns the chart output directory.
func (s *Store) Plots() string { return filepath.Join(s.root, PlotsDir) }

// ModelPath returns the persisted model location.
func (s *Store) ModelPath() string { return filepath.Join(s.root, ModelsDir, ModelFile) }

// MetricsPath returns the evaluation metrics location.
func (s *Store) MetricsPath() string { return filepath.Join(s.root, ModelsDir, MetricsFile) }

// ReportPath returns the PDF report location.
func (s *Store) ReportPath() string { return filepath.Join(s.root, ReportsDir, ReportFile) }

// WriteJSON writes v as indented JSON at the path relative to the store root
// and records it in the manifest.
func (s *Store) WriteJSON(rel, kind string, v any) error {
	path := filepath.Join(s.root, rel)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("artifact: create %s: %w", rel, err)
	}
	w := bufio.NewWriterSize(f, s.bufSize)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		f.Close()
		return fmt.Errorf("artifact: encode %s: %w", rel, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("artifact: flush %s: %w", rel, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("artifact: close %s: %w", rel, err)
	}
	s.Record(rel, kind)
	return nil
}

// Record registers a file written by another component (charts, the PDF) so
// it appears in the run manifest.
func (s *Store) Record(rel, kind string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[rel] = kind
}

// ManifestEntry is one produced artifact.
type ManifestEntry struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
}

// Manifest is the persisted run summary.
type Manifest struct {
	RunID      string          `json:"run_id"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Summary    any             `json:"summary,omitempty"`
	Artifacts  []ManifestEntry `json:"artifacts"`
}

// WriteManifest persists run.json at the store root, listing every recorded
// artifact in path order.
func (s *Store) WriteManifest(summary any) error {
	s.mu.Lock()
	entries := make([]ManifestEntry, 0, len(s.files))
	for rel, kind := range s.files {
		entries = append(entries, ManifestEntry{Path: rel, Kind: kind})
	}
	s.mu.Unlock()
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })

	m := Manifest{
		RunID:      s.runID,
		StartedAt:  s.started,
		FinishedAt: time.Now().UTC(),
		Summary:    summary,
		Artifacts:  entries,
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("artifact: marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.root, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("artifact: write manifest: %w", err)
	}
	return nil
}
