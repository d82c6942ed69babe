package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ArtifactStore keeps normalized subtitle files in a flat output directory
type ArtifactStore struct {
	dir string
}

// NewArtifactStore creates an ArtifactStore rooted at dir
func NewArtifactStore(dir string) *ArtifactStore {
	return &ArtifactStore{dir: dir}
}

// Dir returns the output directory
func (s *ArtifactStore) Dir() string {
	return s.dir
}

// Write stores content as the artifact for taskID and returns its path.
// The file is written under a hidden temporary name and renamed into place,
// so readers never observe a partial artifact.
func (s *ArtifactStore) Write(taskID, title, content string) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, ".artifact-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to chmod artifact: %w", err)
	}

	path := filepath.Join(s.dir, ArtifactName(title, taskID))
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to move artifact into place: %w", err)
	}
	return path, nil
}

// Read returns the content of the artifact at path.
// A missing file yields an error matching os.ErrNotExist.
func (s *ArtifactStore) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FindByTaskID scans the output directory for a .txt file whose name contains taskID.
// It returns an empty path when none exists.
func (s *ArtifactStore) FindByTaskID(taskID string) (string, error) {
	if taskID == "" {
		return "", nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read output directory: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != ".txt" {
			continue
		}
		if strings.Contains(name, taskID) {
			return filepath.Join(s.dir, name), nil
		}
	}
	return "", nil
}
