package filesystem

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"doodle-server/core"
)

// fsStore keeps each artifact as <id> (image bytes) and <id>.json (metadata).
type fsStore struct {
	basePath string
}

// NewStore creates the base directory if needed.
func NewStore(basePath string) (core.ArtifactStore, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}
	return &fsStore{basePath: basePath}, nil
}

func (s *fsStore) paths(id string) (string, string, error) {
	if _, err := ulid.ParseStrict(id); err != nil {
		return "", "", fmt.Errorf("artifact %s: %w", id, core.ErrNotFound)
	}
	data := filepath.Join(s.basePath, id)
	return data, data + ".json", nil
}

func (s *fsStore) Save(ctx context.Context, artifact *core.Artifact) (string, error) {
	id := ulid.Make().String()
	dataPath, metaPath, _ := s.paths(id)
	log := logrus.WithFields(logrus.Fields{
		"artifact_id": id,
		"file_path":   dataPath,
	})

	artifact.ID = id
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}
	meta, err := json.Marshal(artifact)
	if err != nil {
		return "", fmt.Errorf("failed to marshal artifact: %w", err)
	}
	if err := os.WriteFile(dataPath, artifact.Data, 0644); err != nil {
		log.WithError(err).Error("Failed to write artifact")
		return "", err
	}
	if err := os.WriteFile(metaPath, meta, 0644); err != nil {
		log.WithError(err).Error("Failed to write artifact metadata")
		_ = os.Remove(dataPath)
		return "", err
	}
	log.Info("Artifact saved successfully")
	return id, nil
}

func (s *fsStore) Get(ctx context.Context, id string) (*core.Artifact, error) {
	dataPath, metaPath, err := s.paths(id)
	if err != nil {
		return nil, err
	}
	log := logrus.WithField("artifact_id", id)

	meta, err := os.ReadFile(metaPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Warn("Artifact with specified ID not found")
			return nil, fmt.Errorf("artifact %s: %w", id, core.ErrNotFound)
		}
		return nil, err
	}
	var artifact core.Artifact
	if err := json.Unmarshal(meta, &artifact); err != nil {
		return nil, fmt.Errorf("failed to unmarshal artifact metadata: %w", err)
	}
	if artifact.Data, err = os.ReadFile(dataPath); err != nil {
		log.WithError(err).Error("Failed to read artifact")
		return nil, err
	}
	return &artifact, nil
}

func (s *fsStore) Delete(ctx context.Context, id string) error {
	dataPath, metaPath, err := s.paths(id)
	if err != nil {
		return err
	}
	if err := os.Remove(metaPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("artifact %s: %w", id, core.ErrNotFound)
		}
		return err
	}
	if err := os.Remove(dataPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	logrus.WithField("artifact_id", id).Info("Artifact deleted")
	return nil
}
