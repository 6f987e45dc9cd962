package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"doodle-server/core"
)

type sqliteStore struct {
	db *sql.DB
}

// NewStore opens the database and creates the artifacts table.
func NewStore(ctx context.Context, dataSourceName string) (core.ArtifactStore, error) {
	db, err := sql.Open("sqlite", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	tableStmt := `
	CREATE TABLE IF NOT EXISTS artifacts (
		id TEXT PRIMARY KEY,
		sketch_id TEXT NOT NULL,
		prompt TEXT,
		content_type TEXT NOT NULL,
		data BLOB,
		created_at DATETIME
	);`
	if _, err = db.ExecContext(ctx, tableStmt); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create artifacts table: %w", err)
	}
	return &sqliteStore{db}, nil
}

func (s *sqliteStore) Save(ctx context.Context, artifact *core.Artifact) (string, error) {
	id := ulid.Make().String()
	artifact.ID = id
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}
	log := logrus.WithFields(logrus.Fields{
		"artifact_id": id,
		"data_length": len(artifact.Data),
	})

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO artifacts (id, sketch_id, prompt, content_type, data, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, artifact.SketchID, artifact.Prompt, artifact.ContentType, artifact.Data, artifact.CreatedAt.UTC())
	if err != nil {
		log.WithError(err).Error("Failed to save artifact")
		return "", err
	}
	log.Info("Artifact saved successfully")
	return id, nil
}

func (s *sqliteStore) Get(ctx context.Context, id string) (*core.Artifact, error) {
	log := logrus.WithField("artifact_id", id)
	log.Debug("Retrieving artifact by ID")

	artifact := core.Artifact{ID: id}
	err := s.db.QueryRowContext(ctx,
		"SELECT sketch_id, prompt, content_type, data, created_at FROM artifacts WHERE id = ?", id,
	).Scan(&artifact.SketchID, &artifact.Prompt, &artifact.ContentType, &artifact.Data, &artifact.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn("Artifact with specified ID not found")
			return nil, fmt.Errorf("artifact %s: %w", id, core.ErrNotFound)
		}
		log.WithError(err).Error("Failed to retrieve artifact")
		return nil, err
	}
	return &artifact, nil
}

func (s *sqliteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM artifacts WHERE id = ?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("artifact %s: %w", id, core.ErrNotFound)
	}
	return nil
}

// Close releases the database.
func (s *sqliteStore) Close() error {
	return s.db.Close()
}
