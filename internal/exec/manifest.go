package exec

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/zeebo/blake3"

	"github.com/felixgeelhaar/pressbuild/internal/plan"
)

// CreateManifest creates a run manifest for audit purposes
func CreateManifest(runID string, action plan.LeafAction, outcome Outcome, result *Result) *RunManifest {
	m := &RunManifest{
		Timestamp:    time.Now(),
		RunID:        runID,
		ActionID:     action.ID,
		Kind:         string(action.Kind),
		Status:       string(outcome.Status),
		ExitCode:     outcome.ExitCode,
		Duration:     outcome.Duration.String(),
		InputHashes:  make(map[string]string),
		OutputHashes: make(map[string]string),
	}
	if result != nil {
		m.Command = result.Command
	}
	return m
}

// SaveManifest writes a run manifest into dir and returns its path
func SaveManifest(fs afero.Fs, manifest *RunManifest, dir string) (string, error) {
	if err := fs.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create manifest directory: %w", err)
	}

	filename := fmt.Sprintf("%s_%s.json",
		manifest.Timestamp.Format("20060102_150405.000000000"),
		strings.ReplaceAll(manifest.ActionID, ":", "_"))
	path := filepath.Join(dir, filename)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal manifest: %w", err)
	}

	if err := afero.WriteFile(fs, path, data, 0o600); err != nil {
		return "", fmt.Errorf("write manifest: %w", err)
	}

	return path, nil
}

// HashFile computes the blake3 hash of a file
func HashFile(fs afero.Fs, path string) (string, error) {
	file, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}

	return fmt.Sprintf("%x", hasher.Sum(nil)), nil
}

// AddInputHash adds an input file hash to the manifest
func (m *RunManifest) AddInputHash(fs afero.Fs, name, path string) error {
	hash, err := HashFile(fs, path)
	if err != nil {
		return err
	}
	m.InputHashes[name] = hash
	return nil
}

// AddOutputHash adds an output file hash to the manifest
func (m *RunManifest) AddOutputHash(fs afero.Fs, name, path string) error {
	hash, err := HashFile(fs, path)
	if err != nil {
		return err
	}
	m.OutputHashes[name] = hash
	return nil
}
