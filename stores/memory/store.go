package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"doodle-server/core"
)

type artifactStore struct {
	mu        sync.RWMutex
	artifacts map[string]core.Artifact
}

func NewStore() core.ArtifactStore {
	return &artifactStore{
		artifacts: make(map[string]core.Artifact),
	}
}

func (s *artifactStore) Save(ctx context.Context, artifact *core.Artifact) (string, error) {
	id := ulid.Make().String()
	artifact.ID = id
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}

	stored := *artifact
	stored.Data = append([]byte(nil), artifact.Data...)
	s.mu.Lock()
	s.artifacts[id] = stored
	s.mu.Unlock()

	logrus.WithFields(logrus.Fields{
		"artifact_id": id,
		"data_length": len(artifact.Data),
	}).Info("Artifact saved successfully")
	return id, nil
}

func (s *artifactStore) Get(ctx context.Context, id string) (*core.Artifact, error) {
	s.mu.RLock()
	artifact, ok := s.artifacts[id]
	s.mu.RUnlock()

	if !ok {
		logrus.WithField("artifact_id", id).Warn("Artifact with specified ID not found")
		return nil, fmt.Errorf("artifact %s: %w", id, core.ErrNotFound)
	}
	return &artifact, nil
}

func (s *artifactStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[id]; !ok {
		return fmt.Errorf("artifact %s: %w", id, core.ErrNotFound)
	}
	delete(s.artifacts, id)
	return nil
}
