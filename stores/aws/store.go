package aws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"

	"doodle-server/core"
)

const keyPrefix = "artifacts/"

// s3API is the subset of the S3 client the store uses.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Store struct {
	s3Client s3API
	bucket   string
}

// NewStore creates a new S3-based store using the default credential chain.
func NewStore(ctx context.Context, bucketName string) (core.ArtifactStore, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("unable to load SDK config: %w", err)
	}
	return &s3Store{
		s3Client: s3.NewFromConfig(cfg),
		bucket:   bucketName,
	}, nil
}

func key(id string) string {
	return keyPrefix + id
}

func (s *s3Store) Save(ctx context.Context, artifact *core.Artifact) (string, error) {
	id := ulid.Make().String()
	artifact.ID = id
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}

	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key(id)),
		Body:        bytes.NewReader(artifact.Data),
		ContentType: aws.String(artifact.ContentType),
		Metadata: map[string]string{
			"sketch-id":  artifact.SketchID,
			"prompt":     url.QueryEscape(artifact.Prompt),
			"created-at": artifact.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"artifact_id": id,
		"bucket":      s.bucket,
	}).Info("Artifact saved successfully")
	return id, nil
}

func (s *s3Store) Get(ctx context.Context, id string) (*core.Artifact, error) {
	resp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key(id)),
	})
	if err != nil {
		var nsk *s3types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, fmt.Errorf("artifact %s: %w", id, core.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get artifact %s: %w", id, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact data: %w", err)
	}

	artifact := &core.Artifact{
		ID:          id,
		SketchID:    resp.Metadata["sketch-id"],
		ContentType: aws.ToString(resp.ContentType),
		Data:        data,
	}
	if prompt, err := url.QueryUnescape(resp.Metadata["prompt"]); err == nil {
		artifact.Prompt = prompt
	}
	if created, err := time.Parse(time.RFC3339Nano, resp.Metadata["created-at"]); err == nil {
		artifact.CreatedAt = created
	} else if resp.LastModified != nil {
		artifact.CreatedAt = *resp.LastModified
	}
	return artifact, nil
}

func (s *s3Store) Delete(ctx context.Context, id string) error {
	_, err := s.s3Client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key(id)),
	})
	if err != nil {
		return fmt.Errorf("failed to delete artifact %s: %w", id, err)
	}
	return nil
}
