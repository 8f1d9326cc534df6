package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"StockCast/internal/domain/models"
	"StockCast/internal/domain/repository"
)

// FileArtifactStore serializes artifacts as JSON under
// <root>/<architecture>/<version>.json. The returned ref is the
// absolute file path, resolvable across restarts.
type FileArtifactStore struct {
	root string
}

func NewFileArtifactStore(root string) (*FileArtifactStore, error) {
	if root == "" {
		return nil, fmt.Errorf("artifact root not configured")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create artifact root: %w", err)
	}
	return &FileArtifactStore{root: root}, nil
}

func (s *FileArtifactStore) Save(ctx context.Context, architecture, versionID string, artifact *models.Artifact) (string, error) {
	if artifact == nil {
		return "", fmt.Errorf("nil artifact")
	}

	dir := filepath.Join(s.root, architecture)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create artifact dir: %w", err)
	}

	data, err := json.Marshal(artifact)
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}

	path := filepath.Join(dir, versionID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return "", fmt.Errorf("write artifact: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("finalize artifact: %w", err)
	}
	return path, nil
}

func (s *FileArtifactStore) Load(ctx context.Context, ref string) (*models.Artifact, error) {
	data, err := os.ReadFile(ref)
	if err != nil {
		return nil, fmt.Errorf("read artifact: %w", err)
	}
	var artifact models.Artifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return nil, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return &artifact, nil
}

var _ repository.ArtifactStore = (*FileArtifactStore)(nil)
